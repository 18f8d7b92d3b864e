package core

import (
	"errors"
	"strings"
	"testing"
)

func validSchedule() *ImportSchedule {
	return &ImportSchedule{
		ProjectID: "proj-1",
		Name:      "Nightly orders",
		Delimiter: ",",
		HasHeader: true,
		Frequency: FrequencyDaily,
		IsEnabled: true,
	}
}

func TestValidateSchedule(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*ImportSchedule)
		wantField string
		wantMsg   string
	}{
		{name: "valid", mutate: func(*ImportSchedule) {}},
		{name: "valid custom", mutate: func(s *ImportSchedule) { s.Frequency = FrequencyCustom; s.CustomCronExpression = "0 2 * * *" }},
		{name: "valid tab delimiter", mutate: func(s *ImportSchedule) { s.Delimiter = "\t" }},
		{name: "valid mapping", mutate: func(s *ImportSchedule) { s.ColumnMapping = ColumnMapping{FieldNotes: "Remarks"} }},
		{name: "missing project", mutate: func(s *ImportSchedule) { s.ProjectID = "" }, wantField: "projectId", wantMsg: "is required"},
		{name: "missing name", mutate: func(s *ImportSchedule) { s.Name = "" }, wantField: "name", wantMsg: "is required"},
		{name: "long name", mutate: func(s *ImportSchedule) { s.Name = strings.Repeat("x", 201) }, wantField: "name", wantMsg: "at most 200"},
		{name: "multi-char delimiter", mutate: func(s *ImportSchedule) { s.Delimiter = "||" }, wantField: "delimiter", wantMsg: "exactly 1"},
		{name: "quote delimiter", mutate: func(s *ImportSchedule) { s.Delimiter = `"` }, wantField: "delimiter"},
		{name: "missing frequency", mutate: func(s *ImportSchedule) { s.Frequency = "" }, wantField: "scheduleFrequency", wantMsg: "is required"},
		{name: "unknown frequency", mutate: func(s *ImportSchedule) { s.Frequency = "yearly" }, wantField: "scheduleFrequency", wantMsg: "unknown frequency"},
		{name: "custom without cron", mutate: func(s *ImportSchedule) { s.Frequency = FrequencyCustom }, wantField: "customCronExpression", wantMsg: "custom"},
		{name: "invalid cron", mutate: func(s *ImportSchedule) { s.Frequency = FrequencyCustom; s.CustomCronExpression = "61 * * * *" }, wantField: "customCronExpression"},
		{name: "unknown mapping field", mutate: func(s *ImportSchedule) { s.ColumnMapping = ColumnMapping{"colour": "Colour"} }, wantField: "columnMapping", wantMsg: "colour"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSchedule()
			tt.mutate(s)

			err := ValidateSchedule(s, NewCronEvaluator())
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("ValidateSchedule() error = %v, want nil", err)
				}
				return
			}

			var ce *ScheduleConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("ValidateSchedule() error = %v, want ScheduleConfigError", err)
			}
			if ce.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", ce.Field, tt.wantField)
			}
			if tt.wantMsg != "" && !strings.Contains(ce.Error(), tt.wantMsg) {
				t.Errorf("Error() = %q, want it to contain %q", ce.Error(), tt.wantMsg)
			}
		})
	}
}

func TestSchedulePatch_Apply(t *testing.T) {
	s := validSchedule()
	s.CustomCronExpression = ""

	name := "  Renamed  "
	enabled := false
	pattern := " orders_*.csv "
	mapping := ColumnMapping{FieldNotes: "Remarks", FieldZone: ""}

	SchedulePatch{
		Name:                 &name,
		IsEnabled:            &enabled,
		ProcessedFilePattern: &pattern,
		ColumnMapping:        &mapping,
	}.Apply(s)

	if s.Name != "Renamed" {
		t.Errorf("Name = %q, want %q", s.Name, "Renamed")
	}
	if s.IsEnabled {
		t.Error("IsEnabled = true, want false")
	}
	if s.ProcessedFilePattern != "orders_*.csv" {
		t.Errorf("ProcessedFilePattern = %q, want %q", s.ProcessedFilePattern, "orders_*.csv")
	}
	if len(s.ColumnMapping) != 1 || s.ColumnMapping[FieldNotes] != "Remarks" {
		t.Errorf("ColumnMapping = %v, want only notes", s.ColumnMapping)
	}
	if s.Frequency != FrequencyDaily || s.Delimiter != "," || !s.HasHeader {
		t.Errorf("unset patch fields changed the schedule: %+v", s)
	}
}
