package web

import (
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/JonMunkholm/woimport/internal/core"
)

// importForm is the parsed body of an import or preview request.
type importForm struct {
	FileName   string
	Data       []byte
	JSONText   string
	Mapping    core.ColumnMapping
	Delimiter  string
	HasHeader  bool
	ScheduleID *uuid.UUID
	Limit      int
}

// jsonImportBody is the application/json form of an import request. JSONText
// carries pasted JSON array text.
type jsonImportBody struct {
	FileName   string             `json:"fileName"`
	JSONText   string             `json:"jsonText"`
	Mapping    core.ColumnMapping `json:"mapping"`
	Delimiter  string             `json:"delimiter"`
	HasHeader  *bool              `json:"hasHeader"`
	ScheduleID *uuid.UUID         `json:"scheduleId"`
	Limit      int                `json:"limit"`
}

// handleImport runs a one-off import from an uploaded file or pasted JSON.
// The run record is returned whatever its status.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	form, ok := s.parseImportForm(w, r)
	if !ok {
		return
	}
	if len(form.Data) == 0 && form.JSONText == "" {
		s.badRequest(w, r, "no file or JSON text provided")
		return
	}

	run, err := s.service.ImportAdHoc(r.Context(), core.AdHocRequest{
		ProjectID: chi.URLParam(r, "projectID"),
		FileName:  form.FileName,
		Data:      form.Data,
		JSONText:  form.JSONText,
		Mapping:   form.Mapping,
		Delimiter: form.Delimiter,
		HasHeader: form.HasHeader,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	render.JSON(w, r, run)
}

// handlePreview analyzes data and returns what an import would produce.
// With only a scheduleId, the schedule's next file is previewed.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	form, ok := s.parseImportForm(w, r)
	if !ok {
		return
	}
	if len(form.Data) == 0 && form.JSONText == "" && form.ScheduleID == nil {
		s.badRequest(w, r, "no file, JSON text or schedule provided")
		return
	}

	result, err := s.service.PreviewImport(r.Context(), core.PreviewRequest{
		ProjectID:  chi.URLParam(r, "projectID"),
		ScheduleID: form.ScheduleID,
		FileName:   form.FileName,
		Data:       form.Data,
		JSONText:   form.JSONText,
		Delimiter:  form.Delimiter,
		HasHeader:  form.HasHeader,
		Mapping:    form.Mapping,
		Limit:      form.Limit,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	render.JSON(w, r, result)
}

// parseImportForm reads a multipart upload or a JSON body. It writes the
// error response itself and returns false on failure.
func (s *Server) parseImportForm(w http.ResponseWriter, r *http.Request) (*importForm, bool) {
	maxSize := s.opts.MaxUploadSize
	// Leave room for multipart framing and the other form fields.
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+1<<20)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return s.parseMultipart(w, r, maxSize)
	}

	var body jsonImportBody
	if err := render.DecodeJSON(r.Body, &body); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.badRequest(w, r, "request body too large")
		} else {
			s.badRequest(w, r, "invalid import JSON")
		}
		return nil, false
	}

	form := &importForm{
		FileName:   body.FileName,
		JSONText:   body.JSONText,
		Mapping:    body.Mapping,
		Delimiter:  body.Delimiter,
		HasHeader:  true,
		ScheduleID: body.ScheduleID,
		Limit:      body.Limit,
	}
	if body.HasHeader != nil {
		form.HasHeader = *body.HasHeader
	}
	return form, true
}

func (s *Server) parseMultipart(w http.ResponseWriter, r *http.Request, maxSize int64) (*importForm, bool) {
	if err := r.ParseMultipartForm(maxSize); err != nil {
		s.badRequest(w, r, "file too large or invalid form")
		return nil, false
	}

	mapping, err := parseMapping(r.FormValue("mapping"))
	if err != nil {
		s.badRequest(w, r, "invalid mapping format")
		return nil, false
	}

	form := &importForm{
		FileName:  r.FormValue("fileName"),
		JSONText:  r.FormValue("jsonText"),
		Mapping:   mapping,
		Delimiter: r.FormValue("delimiter"),
		HasHeader: parseBoolValue(r.FormValue("hasHeader"), true),
		Limit:     parseIntParam(r, "limit", 0),
	}
	if raw := r.FormValue("scheduleId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			s.respondError(w, r, core.ErrScheduleNotFound)
			return nil, false
		}
		form.ScheduleID = &id
	}

	file, header, err := r.FormFile("file")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return form, true
	case err != nil:
		s.badRequest(w, r, "invalid file upload")
		return nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.badRequest(w, r, "failed to read file")
		return nil, false
	}
	form.Data = data
	if form.FileName == "" {
		form.FileName = header.Filename
	}
	return form, true
}
