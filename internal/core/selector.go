package core

import (
	"context"
	"fmt"
)

// FileSelector picks the next file a schedule should import.
type FileSelector struct {
	drop DropLocation
}

// NewFileSelector creates a selector over a drop location.
func NewFileSelector(drop DropLocation) *FileSelector {
	return &FileSelector{drop: drop}
}

// Select returns the most recently modified file that matches the schedule's
// pattern and has not been processed, or nil when nothing qualifies.
//
// The processed marker is excluded by name. While the marker file is still
// listed, files not newer than it are excluded too, so the marker only moves
// forward.
func (fs *FileSelector) Select(ctx context.Context, s *ImportSchedule) (*FileInfo, error) {
	files, err := fs.drop.List(ctx, s.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("list drop location: %w", err)
	}

	glob := CompileGlob(s.ProcessedFilePattern)

	var marker *FileInfo
	if s.LastProcessedFile != "" {
		for i := range files {
			if files[i].Name == s.LastProcessedFile {
				marker = &files[i]
				break
			}
		}
	}

	var best *FileInfo
	for i := range files {
		f := &files[i]
		if !glob.Match(f.Name) || f.Name == s.LastProcessedFile {
			continue
		}
		if marker != nil && !newer(f, marker) {
			continue
		}
		if best == nil || newer(f, best) {
			best = f
		}
	}

	if best == nil {
		return nil, nil
	}
	picked := *best
	return &picked, nil
}

// newer orders files by modification time, then by name.
func newer(a, b *FileInfo) bool {
	if !a.ModTime.Equal(b.ModTime) {
		return a.ModTime.After(b.ModTime)
	}
	return a.Name > b.Name
}
