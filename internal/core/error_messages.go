package core

// error_messages.go defines user-friendly error messages with codes for
// support reference. When users encounter errors, they can quote the code to
// support staff for faster diagnosis.
//
// Typed errors are mapped first; anything else falls through to a pattern
// table matched case-insensitively with strings.Contains.
//
// # Import Errors
//
//	FMT001 - Unsupported file: file extension is not csv, txt, xlsx, xls or json
//	FMT002 - Unreadable file: file body could not be parsed
//	FMT003 - File too large: file exceeds the configured size limit
//	FMT004 - Empty file: file has no content
//	CFG001 - Invalid schedule: a schedule field failed validation
//	MAP001 - Missing mapping: a required field has no matching column
//	VAL001 - Missing value: a row has no value for a required field
//	RUN001 - Import running: another run of this schedule is in progress
//	RUN002 - Busy: all ad-hoc import slots are in use
//	NF001  - Schedule not found
//	REQ001 - Project required: request did not name a project
//
// # Database Errors
//
//	DB001 - Duplicate work order: a work order with this ID already exists
//	DB002 - Unique constraint: a value must be unique but already exists
//	DB003 - Connection refused: unable to connect to database
//	DB004 - Connection reset: database connection was interrupted
//	DB005 - Timeout: operation timed out
//	DB006 - Deadlock: database was busy with conflicting operations
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: an unexpected error occurred. Check application
//	         logs for the original technical error.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// The first matching pattern wins, so more specific patterns come first.
var errorPatterns = []errorPattern{
	// =========================================================================
	// Database Errors (DB001-DB006)
	// =========================================================================
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A work order with this ID already exists",
			Action:  "Review the run's error details for duplicate work order IDs",
			Code:    "DB001",
		},
	},
	{
		pattern: "unique constraint",
		msg: UserMessage{
			Message: "This value must be unique but already exists",
			Action:  "Check for duplicate entries in your file",
			Code:    "DB002",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB003",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB004",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "DB005",
		},
	},
	{
		pattern: "deadline exceeded",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "DB005",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB006",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts an error into a user-friendly message.
// Returns an empty UserMessage for nil.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	if msg, ok := mapTypedError(err); ok {
		return msg
	}

	errLower := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errLower, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

func mapTypedError(err error) (UserMessage, bool) {
	var (
		fe  *FormatError
		ce  *ScheduleConfigError
		me  *MappingError
		ve  *ValidationError
		cce *ConcurrencyError
	)

	switch {
	case errors.As(err, &fe):
		reason := strings.ToLower(fe.Reason)
		switch {
		case strings.HasPrefix(reason, "unsupported file extension"):
			return UserMessage{
				Message: "This file type is not supported",
				Action:  "Upload a .csv, .txt, .xlsx, .xls or .json file",
				Code:    "FMT001",
			}, true
		case strings.HasPrefix(reason, "file too large"):
			return UserMessage{
				Message: "File exceeds the maximum size limit",
				Action:  "Split the file into smaller chunks",
				Code:    "FMT003",
			}, true
		case reason == "empty file":
			return UserMessage{
				Message: "The file is empty",
				Action:  "Upload a file with a header row and data rows",
				Code:    "FMT004",
			}, true
		}
		return UserMessage{
			Message: "The file could not be read",
			Action:  "Check that the file is not corrupt and is saved as UTF-8",
			Code:    "FMT002",
		}, true
	case errors.As(err, &ce):
		return UserMessage{
			Message: "Invalid schedule: " + strings.TrimPrefix(ce.Error(), "invalid schedule config: "),
			Action:  "Correct the highlighted field and save again",
			Code:    "CFG001",
		}, true
	case errors.As(err, &me):
		return UserMessage{
			Message: "Required columns could not be matched: " + strings.TrimPrefix(me.Error(), "missing required column mapping: "),
			Action:  "Rename the columns in your file or save a column mapping on the schedule",
			Code:    "MAP001",
		}, true
	case errors.As(err, &ve):
		return UserMessage{
			Message: "Required field is empty",
			Action:  "Ensure all required columns have values",
			Code:    "VAL001",
		}, true
	case errors.As(err, &cce):
		return UserMessage{
			Message: "An import is already running for this schedule",
			Action:  "Wait for it to finish and try again",
			Code:    "RUN001",
		}, true
	case errors.Is(err, ErrTooManyImports):
		return UserMessage{
			Message: "Too many imports are running right now",
			Action:  "Please try again in a few moments",
			Code:    "RUN002",
		}, true
	case errors.Is(err, ErrScheduleNotFound):
		return UserMessage{
			Message: "Schedule not found",
			Action:  "It may have been deleted. Refresh the schedule list",
			Code:    "NF001",
		}, true
	case errors.Is(err, ErrProjectRequired):
		return UserMessage{
			Message: "No project was specified",
			Action:  "Select a project and try again",
			Code:    "REQ001",
		}, true
	}
	return UserMessage{}, false
}

// FormatUserError creates a formatted error string for display.
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Code == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}
