package core

import (
	"reflect"
	"testing"
)

func TestAutoMap(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		want    ColumnMapping
	}{
		{
			name:    "canonical labels",
			headers: []string{"Work Order ID", "Customer ID", "Customer Name", "Address", "Service Type"},
			want: ColumnMapping{
				FieldCustomerWoID: "Work Order ID",
				FieldCustomerID:   "Customer ID",
				FieldCustomerName: "Customer Name",
				FieldAddress:      "Address",
				FieldServiceType:  "Service Type",
			},
		},
		{
			name:    "case and whitespace insensitive, original header kept",
			headers: []string{"  WO NUMBER ", "ACCOUNT NUMBER"},
			want: ColumnMapping{
				FieldCustomerWoID: "  WO NUMBER ",
				FieldCustomerID:   "ACCOUNT NUMBER",
			},
		},
		{
			name:    "specific reading beats meter number",
			headers: []string{"Old Meter Reading", "New Meter Reading", "Old Meter", "New Meter", "Meter"},
			want: ColumnMapping{
				FieldOldMeterReading: "Old Meter Reading",
				FieldNewMeterReading: "New Meter Reading",
				FieldOldMeterNumber:  "Old Meter",
				FieldNewMeterNumber:  "New Meter",
				FieldMeterNumber:     "Meter",
			},
		},
		{
			name:    "first header wins for a field",
			headers: []string{"Notes", "Comments"},
			want:    ColumnMapping{FieldNotes: "Notes"},
		},
		{
			name:    "header consumed by first matching field only",
			headers: []string{"Customer ID", "Cust ID"},
			want:    ColumnMapping{FieldCustomerID: "Customer ID"},
		},
		{
			name:    "unknown and blank headers ignored",
			headers: []string{"", "Foo", "Bar Baz"},
			want:    ColumnMapping{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AutoMap(tt.headers)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("AutoMap(%q) = %v, want %v", tt.headers, got, tt.want)
			}
		})
	}
}

func TestAutoMap_Deterministic(t *testing.T) {
	headers := []string{"Service Address", "Zip", "Meter Size", "Lat", "Lng", "Due Date", "Route"}
	first := AutoMap(headers)
	for i := 0; i < 20; i++ {
		if got := AutoMap(headers); !reflect.DeepEqual(got, first) {
			t.Fatalf("AutoMap() run %d = %v, want %v", i, got, first)
		}
	}
}

func TestUnmappedRequired(t *testing.T) {
	m := ColumnMapping{
		FieldCustomerWoID: "WO",
		FieldAddress:      "Addr",
		FieldCustomerName: "",
	}

	got := UnmappedRequired(m)
	want := []CanonicalField{FieldCustomerID, FieldCustomerName, FieldServiceType}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("UnmappedRequired() = %v, want %v", got, want)
	}

	if got := UnmappedRequired(AutoMap([]string{"Work Order ID", "Customer ID", "Customer Name", "Address", "Service Type"})); len(got) != 0 {
		t.Errorf("UnmappedRequired(full mapping) = %v, want none", got)
	}
}
