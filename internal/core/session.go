package core

// DefaultPreviewLimit is the number of rows Preview converts when no limit is given.
const DefaultPreviewLimit = 10

// MappingSession converts the rows of a parsed table into canonical records
// using a column mapping.
type MappingSession struct {
	table        *ParsedTable
	mapping      ColumnMapping
	serviceTypes ServiceTypes
	positions    map[CanonicalField]int
}

// StrictResult is the outcome of MaterializeStrict. Every data row produces
// either a record or a row error.
type StrictResult struct {
	Records   []IndexedRecord
	RowErrors []*ValidationError
}

// IndexedRecord is a record with its 1-based data row index.
type IndexedRecord struct {
	Row    int
	Record CanonicalRecord
}

// NewMappingSession binds a table to a mapping. Mapped headers that do not
// exist in the table are treated as unmapped.
func NewMappingSession(table *ParsedTable, mapping ColumnMapping, serviceTypes ServiceTypes) *MappingSession {
	if table == nil {
		table = &ParsedTable{}
	}
	idx := MakeHeaderIndex(table.Headers)
	positions := make(map[CanonicalField]int, len(mapping))
	for f, header := range mapping {
		if header == "" {
			continue
		}
		if pos, ok := idx.Lookup(header); ok {
			positions[f] = pos
		}
	}
	return &MappingSession{
		table:        table,
		mapping:      mapping,
		serviceTypes: serviceTypes,
		positions:    positions,
	}
}

// Headers returns the table headers.
func (s *MappingSession) Headers() []string {
	return s.table.Headers
}

// RowCount returns the number of data rows.
func (s *MappingSession) RowCount() int {
	return len(s.table.DataRows())
}

// Preview converts the first limit data rows without validation.
func (s *MappingSession) Preview(limit int) []CanonicalRecord {
	if limit <= 0 {
		limit = DefaultPreviewLimit
	}
	rows := s.table.DataRows()
	if len(rows) > limit {
		rows = rows[:limit]
	}
	out := make([]CanonicalRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, s.convert(row))
	}
	return out
}

// Materialize converts every data row and drops records missing a required
// value.
func (s *MappingSession) Materialize() []CanonicalRecord {
	rows := s.table.DataRows()
	out := make([]CanonicalRecord, 0, len(rows))
	for _, row := range rows {
		rec := s.convert(row)
		if missingRequired(&rec) == "" {
			out = append(out, rec)
		}
	}
	return out
}

// MaterializeStrict converts every data row, reporting a ValidationError for
// each row missing a required value. It fails with a MappingError, and
// converts nothing, if a required field has no usable header.
func (s *MappingSession) MaterializeStrict() (*StrictResult, error) {
	if missing := s.unboundRequired(); len(missing) > 0 {
		return nil, &MappingError{Missing: missing}
	}

	rows := s.table.DataRows()
	result := &StrictResult{Records: make([]IndexedRecord, 0, len(rows))}
	for i, row := range rows {
		rec := s.convert(row)
		if f := missingRequired(&rec); f != "" {
			result.RowErrors = append(result.RowErrors, &ValidationError{
				Row:     i + 1,
				Field:   f,
				Message: "required field is empty",
			})
			continue
		}
		result.Records = append(result.Records, IndexedRecord{Row: i + 1, Record: rec})
	}
	return result, nil
}

// unboundRequired lists required fields without a header present in the table.
func (s *MappingSession) unboundRequired() []CanonicalField {
	var missing []CanonicalField
	for _, f := range RequiredFields() {
		if _, ok := s.positions[f]; !ok {
			missing = append(missing, f)
		}
	}
	return missing
}

func (s *MappingSession) convert(row []string) CanonicalRecord {
	var rec CanonicalRecord
	for f, pos := range s.positions {
		var raw string
		if pos < len(row) {
			raw = row[pos]
		}

		switch f {
		case FieldOldMeterReading:
			rec.OldMeterReading = ParseReading(raw)
		case FieldNewMeterReading:
			rec.NewMeterReading = ParseReading(raw)
		case FieldServiceType:
			rec.ServiceType = s.serviceTypes.Coerce(raw)
		default:
			if p := rec.text(f); p != nil {
				*p = CleanCell(raw)
			}
		}
	}
	return rec
}

// missingRequired returns the first required field with no value, or "".
func missingRequired(rec *CanonicalRecord) CanonicalField {
	for _, f := range RequiredFields() {
		if rec.Value(f) == "" {
			return f
		}
	}
	return ""
}
