package core

// convert.go turns raw cell strings into canonical record values.
//
// These functions handle the messy reality of user-provided files:
//   - Excel formula prefixes (="value") on exported identifiers
//   - Free-form service type labels ("Meter Exchange", "meter-exchange")
//
// Nothing here returns an error; values that cannot be converted are left
// unset and required-field checks happen in the mapping session.

import (
	"regexp"
	"strconv"
	"strings"
)

// readingRegex accepts an optional sign followed by digits.
var readingRegex = regexp.MustCompile(`^[+-]?\d+$`)

// ParseReading parses a meter reading as a decimal integer.
// Blank input and anything else that is not a plain integer, including
// fractions ("12.7") and grouped digits ("1,234"), yields nil.
func ParseReading(s string) *int64 {
	s = CleanCell(s)
	if s == "" || !readingRegex.MatchString(s) {
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

// CleanCell removes common spreadsheet artifacts from a cell value:
// - Trims whitespace
// - Removes Excel formula prefix (="...")
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") && len(s) >= 3 {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.TrimSpace(s)
}

// DefaultServiceTypeCodes are used when no service types are configured.
var DefaultServiceTypeCodes = []string{
	"meter_exchange",
	"meter_install",
	"meter_repair",
	"meter_read",
	"inspection",
}

// ServiceTypes is the fixed set of service type codes a record may carry.
type ServiceTypes struct {
	Codes   []string // Accepted codes
	Default string   // Fallback for unrecognized values
}

// DefaultServiceTypes returns the built-in service type set.
func DefaultServiceTypes() ServiceTypes {
	return ServiceTypes{Codes: DefaultServiceTypeCodes, Default: DefaultServiceTypeCodes[0]}
}

// Coerce maps a raw value onto a configured code. Blank input stays blank so
// the required-field check can reject it; anything else unrecognized becomes
// the default code.
func (st ServiceTypes) Coerce(raw string) string {
	key := normalizeServiceType(raw)
	if key == "" {
		return ""
	}
	for _, code := range st.Codes {
		if normalizeServiceType(code) == key {
			return code
		}
	}
	if st.Default != "" {
		return st.Default
	}
	if len(st.Codes) > 0 {
		return st.Codes[0]
	}
	return raw
}

// normalizeServiceType lowercases and joins words with underscores.
func normalizeServiceType(s string) string {
	s = strings.ToLower(CleanCell(s))
	return strings.Join(strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_' || r == '/'
	}), "_")
}

// HeaderIndex maps header names to their column position.
type HeaderIndex struct {
	exact  map[string]int
	folded map[string]int
}

// MakeHeaderIndex indexes headers by exact name and by trimmed, lowercased
// name. The first occurrence wins within each map.
func MakeHeaderIndex(headers []string) HeaderIndex {
	idx := HeaderIndex{
		exact:  make(map[string]int, len(headers)),
		folded: make(map[string]int, len(headers)),
	}
	for i, h := range headers {
		if _, ok := idx.exact[h]; !ok {
			idx.exact[h] = i
		}
		key := foldHeader(h)
		if _, ok := idx.folded[key]; !ok {
			idx.folded[key] = i
		}
	}
	return idx
}

// Lookup returns the column position of header. An exact match always wins
// over a case-insensitive one.
func (idx HeaderIndex) Lookup(header string) (int, bool) {
	if i, ok := idx.exact[header]; ok {
		return i, true
	}
	i, ok := idx.folded[foldHeader(header)]
	return i, ok
}

func foldHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}
