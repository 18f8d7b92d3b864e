package core

import "strings"

// AutoMap proposes a mapping from canonical fields to source headers.
//
// Headers are visited in source order. A header is compared against every
// synonym of every field in catalog order and binds to the first field it
// matches (equal to, or containing, the synonym) if that field is still
// unbound. Either way the header is then done. Output depends only on the
// header list and the catalog order.
func AutoMap(headers []string) ColumnMapping {
	return autoMapWith(catalog, headers)
}

func autoMapWith(defs []FieldDef, headers []string) ColumnMapping {
	mapping := ColumnMapping{}

	for _, header := range headers {
		h := strings.ToLower(strings.TrimSpace(header))
		if h == "" {
			continue
		}

		if def, ok := matchField(defs, h); ok {
			if _, bound := mapping[def.Field]; !bound {
				mapping[def.Field] = header
			}
		}
	}

	return mapping
}

// matchField returns the first field with a synonym equal to or contained in h.
func matchField(defs []FieldDef, h string) (FieldDef, bool) {
	for _, def := range defs {
		for _, s := range def.Synonyms {
			if h == s || strings.Contains(h, s) {
				return def, true
			}
		}
	}
	return FieldDef{}, false
}

// UnmappedRequired returns the required fields with no header in m, in
// catalog order.
func UnmappedRequired(m ColumnMapping) []CanonicalField {
	var missing []CanonicalField
	for _, f := range RequiredFields() {
		if !m.Bound(f) {
			missing = append(missing, f)
		}
	}
	return missing
}
