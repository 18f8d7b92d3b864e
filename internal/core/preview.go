package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PreviewRequest describes data to preview without importing. When
// ScheduleID is set and no data is supplied, the schedule's settings are used
// and the file it would import next is read from the drop location.
type PreviewRequest struct {
	ProjectID  string
	ScheduleID *uuid.UUID
	FileName   string
	Data       []byte
	JSONText   string
	Delimiter  string
	HasHeader  bool
	Mapping    ColumnMapping
	Limit      int
}

// PreviewSummary contains the row counts for a preview.
type PreviewSummary struct {
	TotalRows   int `json:"totalRows"`
	ValidRows   int `json:"validRows"`
	InvalidRows int `json:"invalidRows"`
}

// PreviewResult is what an import would see.
type PreviewResult struct {
	FileName         string            `json:"fileName"`
	Headers          []string          `json:"headers"`
	Mapping          ColumnMapping     `json:"mapping"`
	AutoMapped       bool              `json:"autoMapped"`
	UnmappedRequired []CanonicalField  `json:"unmappedRequired"`
	Records          []CanonicalRecord `json:"records"`
	Summary          PreviewSummary    `json:"summary"`
	ProcessingTimeMs int64             `json:"processingTimeMs"`
}

// PreviewImport parses data, proposes or applies a mapping and converts the
// first rows. Nothing is persisted.
func (s *Service) PreviewImport(ctx context.Context, req PreviewRequest) (*PreviewResult, error) {
	if err := s.adhoc.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.adhoc.Release()

	start := time.Now()

	if req.ScheduleID != nil && len(req.Data) == 0 && req.JSONText == "" {
		if err := s.loadSchedulePreview(ctx, &req); err != nil {
			return nil, err
		}
		if req.FileName == "" {
			return &PreviewResult{Mapping: ColumnMapping{}, Records: []CanonicalRecord{}}, nil
		}
	}

	var (
		table *ParsedTable
		err   error
	)
	if req.JSONText != "" {
		if req.FileName == "" {
			req.FileName = "pasted.json"
		}
		table, err = DispatchJSON(req.FileName, []byte(req.JSONText))
	} else {
		delim := ','
		for _, r := range req.Delimiter {
			delim = r
			break
		}
		table, err = Dispatch(req.FileName, req.Data, DispatchOptions{
			Delimiter:   delim,
			HasHeader:   req.HasHeader,
			MaxFileSize: s.cfg.Executor.MaxFileSize,
		})
	}
	if err != nil {
		return nil, err
	}

	mapping := req.Mapping.Clone()
	autoMapped := false
	if len(mapping) == 0 {
		mapping = AutoMap(table.Headers)
		autoMapped = true
	}

	limit := req.Limit
	if limit <= 0 {
		limit = s.cfg.PreviewLimit
	}

	session := NewMappingSession(table, mapping, s.cfg.Executor.ServiceTypes)
	valid := len(session.Materialize())

	return &PreviewResult{
		FileName:         req.FileName,
		Headers:          table.Headers,
		Mapping:          mapping,
		AutoMapped:       autoMapped,
		UnmappedRequired: session.unboundRequired(),
		Records:          session.Preview(limit),
		Summary: PreviewSummary{
			TotalRows:   session.RowCount(),
			ValidRows:   valid,
			InvalidRows: session.RowCount() - valid,
		},
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}, nil
}

// loadSchedulePreview fills req from a schedule and its next file.
func (s *Service) loadSchedulePreview(ctx context.Context, req *PreviewRequest) error {
	sched, err := s.schedules.GetSchedule(ctx, *req.ScheduleID)
	if err != nil {
		return err
	}
	req.ProjectID = sched.ProjectID
	req.Delimiter = sched.Delimiter
	req.HasHeader = sched.HasHeader
	if len(req.Mapping) == 0 {
		req.Mapping = sched.ColumnMapping
	}

	file, err := NewFileSelector(s.drop).Select(ctx, sched)
	if err != nil {
		return err
	}
	if file == nil {
		return nil
	}

	data, err := s.drop.Read(ctx, sched.ProjectID, file.Name)
	if err != nil {
		return &FormatError{FileName: file.Name, Reason: "cannot read file", Err: fmt.Errorf("preview: %w", err)}
	}
	req.FileName = file.Name
	req.Data = data
	return nil
}
