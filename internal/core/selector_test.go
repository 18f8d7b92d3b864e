package core

import (
	"context"
	"testing"
	"time"
)

func TestFileSelector_Select(t *testing.T) {
	t0 := baseTime

	tests := []struct {
		name    string
		files   []FileInfo
		pattern string
		marker  string
		want    string // "" means nothing selected
	}{
		{
			name:  "empty drop location",
			files: nil,
			want:  "",
		},
		{
			name: "newest wins",
			files: []FileInfo{
				{Name: "a.csv", ModTime: t0},
				{Name: "b.csv", ModTime: t0.Add(time.Minute)},
				{Name: "c.csv", ModTime: t0.Add(-time.Minute)},
			},
			want: "b.csv",
		},
		{
			name: "equal mtime breaks ties by name",
			files: []FileInfo{
				{Name: "a.csv", ModTime: t0},
				{Name: "b.csv", ModTime: t0},
			},
			want: "b.csv",
		},
		{
			name: "pattern filters",
			files: []FileInfo{
				{Name: "orders.csv", ModTime: t0},
				{Name: "orders.xlsx", ModTime: t0.Add(time.Hour)},
			},
			pattern: "*.csv",
			want:    "orders.csv",
		},
		{
			name: "marker excluded by name",
			files: []FileInfo{
				{Name: "a.csv", ModTime: t0},
			},
			marker: "a.csv",
			want:   "",
		},
		{
			name: "only files newer than the marker",
			files: []FileInfo{
				{Name: "old.csv", ModTime: t0.Add(-time.Hour)},
				{Name: "marker.csv", ModTime: t0},
				{Name: "new.csv", ModTime: t0.Add(time.Hour)},
			},
			marker: "marker.csv",
			want:   "new.csv",
		},
		{
			name: "marker gone from listing",
			files: []FileInfo{
				{Name: "old.csv", ModTime: t0.Add(-time.Hour)},
			},
			marker: "marker.csv",
			want:   "old.csv",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drop := newFakeDrop()
			for _, f := range tt.files {
				drop.put(testProject, f.Name, "x", f.ModTime)
			}
			sel := NewFileSelector(drop)

			got, err := sel.Select(context.Background(), &ImportSchedule{
				ProjectID:            testProject,
				ProcessedFilePattern: tt.pattern,
				LastProcessedFile:    tt.marker,
			})
			if err != nil {
				t.Fatalf("Select() error = %v", err)
			}

			switch {
			case tt.want == "" && got != nil:
				t.Errorf("Select() = %q, want nothing", got.Name)
			case tt.want != "" && got == nil:
				t.Errorf("Select() = nil, want %q", tt.want)
			case tt.want != "" && got.Name != tt.want:
				t.Errorf("Select() = %q, want %q", got.Name, tt.want)
			}
		})
	}
}

func TestFileSelector_ProjectIsolation(t *testing.T) {
	drop := newFakeDrop()
	drop.put("other", "orders.csv", "x", baseTime)

	got, err := NewFileSelector(drop).Select(context.Background(), &ImportSchedule{ProjectID: testProject})
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if got != nil {
		t.Errorf("Select() = %q, want nothing from another project", got.Name)
	}
}
