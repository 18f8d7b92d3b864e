package core

// validation.go checks schedule configuration before it is saved.
//
// Validation happens at two levels:
//  1. Struct rules: required fields, lengths and enum membership via validator tags
//  2. Semantic rules: cron parsing and column mapping keys
//
// Any violation is reported as a ScheduleConfigError naming the JSON field, so
// an invalid schedule is never persisted.

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ScheduleInput is the configuration supplied when creating a schedule.
type ScheduleInput struct {
	ProjectID            string        `json:"projectId" validate:"required,max=128"`
	Name                 string        `json:"name" validate:"required,max=200"`
	Delimiter            string        `json:"delimiter" validate:"omitempty,len=1"`
	HasHeader            *bool         `json:"hasHeader"`
	ColumnMapping        ColumnMapping `json:"columnMapping"`
	Frequency            Frequency     `json:"scheduleFrequency" validate:"required,frequency"`
	CustomCronExpression string        `json:"customCronExpression" validate:"required_if=Frequency custom,max=120"`
	IsEnabled            *bool         `json:"isEnabled"`
	ProcessedFilePattern string        `json:"processedFilePattern" validate:"max=255"`
}

// SchedulePatch carries the configuration fields to change. Nil fields are
// left as they are.
type SchedulePatch struct {
	Name                 *string        `json:"name"`
	Delimiter            *string        `json:"delimiter"`
	HasHeader            *bool          `json:"hasHeader"`
	ColumnMapping        *ColumnMapping `json:"columnMapping"`
	Frequency            *Frequency     `json:"scheduleFrequency"`
	CustomCronExpression *string        `json:"customCronExpression"`
	IsEnabled            *bool          `json:"isEnabled"`
	ProcessedFilePattern *string        `json:"processedFilePattern"`
}

// Apply copies the set fields onto s.
func (p SchedulePatch) Apply(s *ImportSchedule) {
	if p.Name != nil {
		s.Name = strings.TrimSpace(*p.Name)
	}
	if p.Delimiter != nil {
		s.Delimiter = *p.Delimiter
	}
	if p.HasHeader != nil {
		s.HasHeader = *p.HasHeader
	}
	if p.ColumnMapping != nil {
		s.ColumnMapping = p.ColumnMapping.Clone()
	}
	if p.Frequency != nil {
		s.Frequency = *p.Frequency
	}
	if p.CustomCronExpression != nil {
		s.CustomCronExpression = strings.TrimSpace(*p.CustomCronExpression)
	}
	if p.IsEnabled != nil {
		s.IsEnabled = *p.IsEnabled
	}
	if p.ProcessedFilePattern != nil {
		s.ProcessedFilePattern = strings.TrimSpace(*p.ProcessedFilePattern)
	}
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func scheduleValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("frequency", func(fl validator.FieldLevel) bool {
			return Frequency(fl.Field().String()).Valid()
		})
		validate = v
	})
	return validate
}

// ValidateSchedule checks s and returns a ScheduleConfigError on the first
// violation.
func ValidateSchedule(s *ImportSchedule, evaluator TriggerEvaluator) error {
	input := ScheduleInput{
		ProjectID:            s.ProjectID,
		Name:                 s.Name,
		Delimiter:            s.Delimiter,
		Frequency:            s.Frequency,
		CustomCronExpression: s.CustomCronExpression,
		ProcessedFilePattern: s.ProcessedFilePattern,
	}
	if err := scheduleValidator().Struct(input); err != nil {
		return toConfigError(err)
	}

	if s.Delimiter == "\"" || s.Delimiter == "\n" || s.Delimiter == "\r" {
		return &ScheduleConfigError{Field: "delimiter", Reason: "quote and line break characters cannot be delimiters"}
	}

	for f := range s.ColumnMapping {
		if _, ok := LookupField(f); !ok {
			return &ScheduleConfigError{Field: "columnMapping", Reason: "unknown field " + string(f)}
		}
	}

	return evaluator.Validate(s)
}

// toConfigError converts validator output into a ScheduleConfigError.
func toConfigError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ScheduleConfigError{Reason: err.Error()}
	}

	fe := verrs[0]
	var reason string
	switch fe.Tag() {
	case "required":
		reason = "is required"
	case "required_if":
		reason = "is required when scheduleFrequency is custom"
	case "frequency":
		reason = fmt.Sprintf("unknown frequency %q", fe.Value())
	case "len":
		reason = fmt.Sprintf("must be exactly %s character", fe.Param())
	case "max":
		reason = fmt.Sprintf("must be at most %s characters", fe.Param())
	default:
		reason = "failed " + fe.Tag() + " check"
	}
	return &ScheduleConfigError{Field: fe.Field(), Reason: reason}
}
