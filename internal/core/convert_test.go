package core

import (
	"testing"
)

// ----------------------------------------------------------------------------
// ParseReading Tests
// ----------------------------------------------------------------------------

func TestParseReading(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantNil bool
	}{
		// Valid: integers
		{name: "positive integer", input: "12345", want: 12345},
		{name: "zero", input: "0", want: 0},
		{name: "negative integer", input: "-42", want: -42},
		{name: "explicit plus sign", input: "+7", want: 7},

		// Valid: cell artifacts
		{name: "surrounding whitespace", input: "  500  ", want: 500},
		{name: "excel formula prefix", input: `="00321"`, want: 321},

		// Unset
		{name: "empty string", input: "", wantNil: true},
		{name: "whitespace only", input: "   ", wantNil: true},
		{name: "letters", input: "abc", wantNil: true},
		{name: "mixed digits and letters", input: "12a", wantNil: true},
		{name: "leading decimal point", input: ".5", wantNil: true},
		{name: "fraction", input: "12.7", wantNil: true},
		{name: "trailing decimal point", input: "99.", wantNil: true},
		{name: "thousands separators", input: "1,234", wantNil: true},
		{name: "overflow", input: "99999999999999999999", wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseReading(tt.input)
			if tt.wantNil {
				if got != nil {
					t.Errorf("ParseReading(%q) = %d, want nil", tt.input, *got)
				}
				return
			}
			if got == nil {
				t.Fatalf("ParseReading(%q) = nil, want %d", tt.input, tt.want)
			}
			if *got != tt.want {
				t.Errorf("ParseReading(%q) = %d, want %d", tt.input, *got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// CleanCell Tests
// ----------------------------------------------------------------------------

func TestCleanCell(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		// Basic cleaning
		{name: "simple string unchanged", input: "hello", want: "hello"},
		{name: "empty string", input: "", want: ""},

		// Whitespace trimming
		{name: "leading whitespace", input: "  hello", want: "hello"},
		{name: "trailing whitespace", input: "hello  ", want: "hello"},

		// Excel formula prefix handling
		{name: "Excel formula with quotes", input: `="hello"`, want: "hello"},
		{name: "Excel formula number as text", input: `="12345"`, want: "12345"},
		{name: "bare equals sign", input: "=SUM(A1)", want: "SUM(A1)"},
		{name: "excel formula with whitespace", input: `  ="test"  `, want: "test"},
		{name: "equals with quoted zero", input: `="0"`, want: "0"},

		// Inner content is kept
		{name: "quotes kept", input: `"hello"`, want: `"hello"`},
		{name: "inner spaces kept", input: "123 Main St", want: "123 Main St"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CleanCell(tt.input)
			if got != tt.want {
				t.Errorf("CleanCell(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// ServiceTypes Tests
// ----------------------------------------------------------------------------

func TestServiceTypes_Coerce(t *testing.T) {
	st := DefaultServiceTypes()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "exact code", input: "meter_install", want: "meter_install"},
		{name: "title case label", input: "Meter Repair", want: "meter_repair"},
		{name: "hyphenated", input: "meter-read", want: "meter_read"},
		{name: "upper case", input: "INSPECTION", want: "inspection"},
		{name: "unknown falls back to default", input: "gas leak", want: "meter_exchange"},
		{name: "blank stays blank", input: "  ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := st.Coerce(tt.input); got != tt.want {
				t.Errorf("Coerce(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestServiceTypes_CoerceCustomDefault(t *testing.T) {
	st := ServiceTypes{Codes: []string{"inspection", "meter_read"}, Default: "meter_read"}

	if got := st.Coerce("meter exchange"); got != "meter_read" {
		t.Errorf("Coerce() = %q, want %q", got, "meter_read")
	}

	noDefault := ServiceTypes{Codes: []string{"inspection"}}
	if got := noDefault.Coerce("anything"); got != "inspection" {
		t.Errorf("Coerce() without default = %q, want first code %q", got, "inspection")
	}
}

// ----------------------------------------------------------------------------
// MakeHeaderIndex Tests
// ----------------------------------------------------------------------------

func TestMakeHeaderIndex(t *testing.T) {
	tests := []struct {
		name   string
		header []string
		checks map[string]int // lookup key -> expected index
	}{
		{
			name:   "simple headers",
			header: []string{"Name", "Email", "Phone"},
			checks: map[string]int{"Name": 0, "email": 1, "PHONE": 2},
		},
		{
			name:   "headers with whitespace",
			header: []string{"  Name  ", " Email ", "Phone"},
			checks: map[string]int{"name": 0, "email": 1, " Email ": 1},
		},
		{
			name:   "empty header",
			header: []string{},
			checks: map[string]int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := MakeHeaderIndex(tt.header)

			for key, wantPos := range tt.checks {
				gotPos, ok := idx.Lookup(key)
				if !ok {
					t.Errorf("Lookup(%q) not found, want index %d", key, wantPos)
					continue
				}
				if gotPos != wantPos {
					t.Errorf("Lookup(%q) = %d, want %d", key, gotPos, wantPos)
				}
			}
		})
	}
}

// TestMakeHeaderIndex_DuplicateHeaders verifies the first occurrence wins.
func TestMakeHeaderIndex_DuplicateHeaders(t *testing.T) {
	idx := MakeHeaderIndex([]string{"Name", "Email", "Name"})

	if got, ok := idx.Lookup("Name"); !ok || got != 0 {
		t.Errorf("Lookup(Name) = %d, want 0", got)
	}
	if got, ok := idx.Lookup("NAME"); !ok || got != 0 {
		t.Errorf("Lookup(NAME) = %d, want 0", got)
	}
}

// TestMakeHeaderIndex_ExactBeatsFolded verifies a header differing only in
// case from an earlier one still resolves to its own column.
func TestMakeHeaderIndex_ExactBeatsFolded(t *testing.T) {
	idx := MakeHeaderIndex([]string{"WO", "NOTES", "notes"})

	tests := []struct {
		key  string
		want int
	}{
		{"NOTES", 1},
		{"notes", 2},
		{"Notes", 1}, // no exact match; first folded occurrence
		{" notes ", 1},
	}
	for _, tt := range tests {
		if got, ok := idx.Lookup(tt.key); !ok || got != tt.want {
			t.Errorf("Lookup(%q) = %d, want %d", tt.key, got, tt.want)
		}
	}
}
