// Package ingest reads enrollment workbooks and event logs into memory,
// loads each sheet into a wide table and runs whole batches into the
// canonical dataset.
package ingest

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrEmptySource is returned for a source with no bytes or no usable sheet.
	ErrEmptySource = errors.New("empty source")
	// ErrUnsupportedFormat is returned for an extension no workbook reader handles.
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// Source is one uploaded file, fully read into memory.
type Source struct {
	Name string `json:"name"`
	Data []byte `json:"-"`
}

// ReadFile reads a whole file from disk.
func ReadFile(path string) (Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Source{}, errors.Wrapf(err, "failed to read %s", path)
	}
	return Source{Name: filepath.Base(path), Data: data}, nil
}

// ReadSource drains r into a named source.
func ReadSource(name string, r io.Reader) (Source, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Source{}, errors.Wrapf(err, "failed to read %s", name)
	}
	return Source{Name: name, Data: data}, nil
}

// Ext returns the lowercased extension including the dot.
func (s Source) Ext() string {
	return strings.ToLower(filepath.Ext(strings.ReplaceAll(s.Name, `\`, "/")))
}

// Stem returns the base name without directory or extension.
func (s Source) Stem() string {
	base := filepath.Base(strings.ReplaceAll(s.Name, `\`, "/"))
	return strings.TrimSuffix(base, filepath.Ext(base))
}
