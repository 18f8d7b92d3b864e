package web

// handlers_common.go contains shared request parsing helpers.

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/JonMunkholm/woimport/internal/core"
)

// maxHistoryLimit caps the limit query parameter on history endpoints.
const maxHistoryLimit = 500

// parseIntParam parses an integer query or form parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.FormValue(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// parseBoolValue parses a form boolean, falling back to defaultVal when the
// value is missing or not a boolean.
func parseBoolValue(val string, defaultVal bool) bool {
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(strings.TrimSpace(val))
	if err != nil {
		return defaultVal
	}
	return b
}

// scheduleIDParam reads the schedule ID from the URL. A malformed ID cannot
// name a schedule, so it is reported as not found.
func scheduleIDParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "scheduleID"))
	if err != nil {
		return uuid.Nil, core.ErrScheduleNotFound
	}
	return id, nil
}

// parseMapping decodes a column mapping sent as a JSON form value.
func parseMapping(raw string) (core.ColumnMapping, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var m core.ColumnMapping
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, err
	}
	return m, nil
}
