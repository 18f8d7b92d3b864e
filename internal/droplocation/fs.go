// Package droplocation provides the places scheduled imports pick files from.
// Each project owns one folder (fs) or one key prefix (minio).
package droplocation

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/woimport/internal/core"
)

// ErrInvalidName is returned for project IDs or file names that would escape
// the project's drop location.
var ErrInvalidName = errors.New("invalid drop location name")

var _ core.DropLocation = (*FSDropLocation)(nil)

// FSDropLocation serves files from <root>/<projectID>/ on the local disk.
type FSDropLocation struct {
	root string
}

// NewFSDropLocation creates a provider rooted at dir.
func NewFSDropLocation(dir string) *FSDropLocation {
	return &FSDropLocation{root: dir}
}

// List returns the regular files directly inside the project folder.
// A missing folder lists as empty.
func (d *FSDropLocation) List(ctx context.Context, projectID string) ([]core.FileInfo, error) {
	dir, err := d.projectDir(projectID)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []core.FileInfo{}, nil
		}
		return nil, fmt.Errorf("read drop folder: %w", err)
	}

	files := make([]core.FileInfo, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, core.FileInfo{
			Name:    e.Name(),
			ModTime: info.ModTime().UTC(),
			Size:    info.Size(),
		})
	}
	return files, nil
}

// Read returns the contents of one file in the project folder.
func (d *FSDropLocation) Read(ctx context.Context, projectID, name string) ([]byte, error) {
	dir, err := d.projectDir(projectID)
	if err != nil {
		return nil, err
	}
	if err := checkName(name); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("read drop file: %w", err)
	}
	return data, nil
}

func (d *FSDropLocation) projectDir(projectID string) (string, error) {
	if err := checkName(projectID); err != nil {
		return "", err
	}
	return filepath.Join(d.root, projectID), nil
}

// checkName rejects empty names, path separators and dot entries.
func checkName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
