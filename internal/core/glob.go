package core

import (
	"regexp"
	"strings"
)

// GlobMatcher reports whether a file name matches a compiled pattern.
type GlobMatcher struct {
	pattern string
	re      *regexp.Regexp
}

// CompileGlob builds a matcher where '*' matches any run of characters and
// '?' matches exactly one. Everything else is literal, including '[' and
// path separators. Matching is anchored and case-sensitive. An empty pattern
// matches every name.
func CompileGlob(pattern string) GlobMatcher {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return GlobMatcher{}
	}

	var b strings.Builder
	b.WriteString(`^`)
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(`.*`)
		case '?':
			b.WriteString(`.`)
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString(`$`)

	return GlobMatcher{pattern: pattern, re: regexp.MustCompile(`(?s)` + b.String())}
}

// Match reports whether name matches.
func (g GlobMatcher) Match(name string) bool {
	if g.re == nil {
		return true
	}
	return g.re.MatchString(name)
}

// String returns the source pattern.
func (g GlobMatcher) String() string {
	return g.pattern
}
