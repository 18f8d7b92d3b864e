package core

import (
	"errors"
	"reflect"
	"testing"
)

func workOrderTable() *ParsedTable {
	return newParsedTable([][]string{
		{"WO", "Cust", "Name", "Addr", "Type", "Old Read", "Notes"},
		{"WO-1", "C-1", "Ann", "1 Main", "Meter Install", "1200", `="gate 4"`},
		{"WO-2", "", "Bob", "2 Main", "meter_read", "n/a", ""},
		{"WO-3", "C-3", "Cy", "3 Main", "unknown thing", "", ""},
		{"WO-4", "C-4", "Di"},
	}, true)
}

func workOrderMapping() ColumnMapping {
	return ColumnMapping{
		FieldCustomerWoID:    "WO",
		FieldCustomerID:      "cust",
		FieldCustomerName:    "Name",
		FieldAddress:         "Addr",
		FieldServiceType:     "Type",
		FieldOldMeterReading: "Old Read",
		FieldNotes:           "Notes",
	}
}

func TestMappingSession_MaterializeStrict(t *testing.T) {
	s := NewMappingSession(workOrderTable(), workOrderMapping(), DefaultServiceTypes())

	result, err := s.MaterializeStrict()
	if err != nil {
		t.Fatalf("MaterializeStrict() error = %v", err)
	}

	if len(result.Records) != 2 {
		t.Fatalf("Records = %d, want 2", len(result.Records))
	}
	if len(result.RowErrors) != 2 {
		t.Fatalf("RowErrors = %d, want 2", len(result.RowErrors))
	}

	first := result.Records[0]
	if first.Row != 1 {
		t.Errorf("Records[0].Row = %d, want 1", first.Row)
	}
	rec := first.Record
	if rec.CustomerID != "C-1" {
		t.Errorf("CustomerID = %q, want %q (case-insensitive header lookup)", rec.CustomerID, "C-1")
	}
	if rec.ServiceType != "meter_install" {
		t.Errorf("ServiceType = %q, want %q", rec.ServiceType, "meter_install")
	}
	if rec.OldMeterReading == nil || *rec.OldMeterReading != 1200 {
		t.Errorf("OldMeterReading = %v, want 1200", rec.OldMeterReading)
	}
	if rec.Notes != "gate 4" {
		t.Errorf("Notes = %q, want %q", rec.Notes, "gate 4")
	}

	third := result.Records[1]
	if third.Row != 3 {
		t.Errorf("Records[1].Row = %d, want 3", third.Row)
	}
	if third.Record.ServiceType != "meter_exchange" {
		t.Errorf("unknown ServiceType = %q, want default %q", third.Record.ServiceType, "meter_exchange")
	}
	if third.Record.OldMeterReading != nil {
		t.Errorf("blank OldMeterReading = %d, want nil", *third.Record.OldMeterReading)
	}

	rowErr := result.RowErrors[0]
	if rowErr.Row != 2 || rowErr.Field != FieldCustomerID {
		t.Errorf("RowErrors[0] = row %d field %s, want row 2 field %s", rowErr.Row, rowErr.Field, FieldCustomerID)
	}
	short := result.RowErrors[1]
	if short.Row != 4 || short.Field != FieldAddress {
		t.Errorf("RowErrors[1] = row %d field %s, want row 4 field %s", short.Row, short.Field, FieldAddress)
	}
}

func TestMappingSession_MaterializeStrict_MappingError(t *testing.T) {
	mapping := workOrderMapping()
	mapping[FieldAddress] = "Street" // not in the table
	delete(mapping, FieldServiceType)

	s := NewMappingSession(workOrderTable(), mapping, DefaultServiceTypes())
	result, err := s.MaterializeStrict()

	var me *MappingError
	if !errors.As(err, &me) {
		t.Fatalf("MaterializeStrict() error = %v, want MappingError", err)
	}
	if result != nil {
		t.Errorf("MaterializeStrict() result = %v, want nil", result)
	}
	want := []CanonicalField{FieldAddress, FieldServiceType}
	if !reflect.DeepEqual(me.Missing, want) {
		t.Errorf("Missing = %v, want %v", me.Missing, want)
	}
}

func TestMappingSession_Materialize(t *testing.T) {
	s := NewMappingSession(workOrderTable(), workOrderMapping(), DefaultServiceTypes())

	got := s.Materialize()
	if len(got) != 2 {
		t.Fatalf("Materialize() = %d records, want 2", len(got))
	}
	if got[0].CustomerWoID != "WO-1" || got[1].CustomerWoID != "WO-3" {
		t.Errorf("Materialize() ids = %q, %q, want WO-1, WO-3", got[0].CustomerWoID, got[1].CustomerWoID)
	}
}

func TestMappingSession_Preview(t *testing.T) {
	s := NewMappingSession(workOrderTable(), workOrderMapping(), DefaultServiceTypes())

	if got := s.RowCount(); got != 4 {
		t.Errorf("RowCount() = %d, want 4", got)
	}

	preview := s.Preview(3)
	if len(preview) != 3 {
		t.Fatalf("Preview(3) = %d records, want 3", len(preview))
	}
	// Preview does not validate, so the row without a customer id is included.
	if preview[1].CustomerWoID != "WO-2" || preview[1].CustomerID != "" {
		t.Errorf("Preview()[1] = %+v, want WO-2 without customer id", preview[1])
	}
	if preview[1].OldMeterReading != nil {
		t.Errorf("non-numeric reading = %d, want nil", *preview[1].OldMeterReading)
	}

	if got := len(s.Preview(0)); got != 4 {
		t.Errorf("Preview(0) = %d records, want all 4 (default limit)", got)
	}
}

func TestMappingSession_HeadersDifferingOnlyInCase(t *testing.T) {
	table := newParsedTable([][]string{
		{"WO", "NOTES", "notes"},
		{"WO-1", "upper-col", "lower-col"},
	}, true)

	tests := []struct {
		header string
		want   string
	}{
		{"notes", "lower-col"},
		{"NOTES", "upper-col"},
		{"Notes", "upper-col"},
	}
	for _, tt := range tests {
		s := NewMappingSession(table, ColumnMapping{FieldCustomerWoID: "WO", FieldNotes: tt.header}, DefaultServiceTypes())
		if got := s.Preview(1)[0].Notes; got != tt.want {
			t.Errorf("Notes mapped to %q = %q, want %q", tt.header, got, tt.want)
		}
	}
}

func TestMappingSession_NilTable(t *testing.T) {
	s := NewMappingSession(nil, ColumnMapping{}, DefaultServiceTypes())
	if s.RowCount() != 0 {
		t.Errorf("RowCount() = %d, want 0", s.RowCount())
	}
	if got := s.Materialize(); len(got) != 0 {
		t.Errorf("Materialize() = %v, want empty", got)
	}
}
