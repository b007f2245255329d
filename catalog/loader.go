package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Config configures a Loader.
type Config struct {
	// Dir is the directory holding the spec files.
	// Default: Format.DefaultDir()
	Dir string

	// Format is the encoding of every spec file.
	// Default: FormatJSON
	Format Format

	// KnownAPIs is the allow-list of loadable API identifiers.
	KnownAPIs []string
}

// Loader reads specs for allow-listed API identifiers.
//
// Contract:
// - Concurrency: safe for concurrent use; configuration is immutable.
// - Context: Load and Cards return ctx.Err() when the context is done.
// - Errors: Load failures always satisfy errors.Is(err, ErrNotFound).
type Loader struct {
	dir    string
	format Format
	known  map[string]struct{}
}

// NewLoader creates a loader. It does not touch the filesystem.
func NewLoader(cfg Config) (*Loader, error) {
	if cfg.Format == "" {
		cfg.Format = FormatJSON
	}
	if _, err := ParseFormat(string(cfg.Format)); err != nil {
		return nil, err
	}
	if cfg.Dir == "" {
		cfg.Dir = cfg.Format.DefaultDir()
	}

	known := make(map[string]struct{}, len(cfg.KnownAPIs))
	for _, id := range cfg.KnownAPIs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if !validID(id) {
			return nil, fmt.Errorf("catalog: invalid api id %q", id)
		}
		known[id] = struct{}{}
	}

	return &Loader{
		dir:    cfg.Dir,
		format: cfg.Format,
		known:  known,
	}, nil
}

// Dir returns the spec directory.
func (l *Loader) Dir() string {
	return l.dir
}

// Format returns the spec format.
func (l *Loader) Format() Format {
	return l.format
}

// Known reports whether apiID is on the allow-list.
func (l *Loader) Known(apiID string) bool {
	_, ok := l.known[apiID]
	return ok
}

// Path returns the file path for apiID.
func (l *Loader) Path(apiID string) string {
	return filepath.Join(l.dir, apiID+l.format.FileSuffix())
}

// Load reads and parses the spec for apiID.
func (l *Loader) Load(ctx context.Context, apiID string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !l.Known(apiID) {
		return nil, &LoadError{APIID: apiID, Kind: KindUnknownAPI}
	}

	path := l.Path(apiID)
	data, err := os.ReadFile(path)
	if err != nil {
		kind := KindMalformed
		if errors.Is(err, fs.ErrNotExist) {
			kind = KindMissing
		}
		return nil, &LoadError{APIID: apiID, Path: path, Kind: kind, Cause: err}
	}

	doc, err := Decode(data, l.format)
	if err != nil {
		return nil, &LoadError{APIID: apiID, Path: path, Kind: KindMalformed, Cause: err}
	}
	return doc, nil
}

// validID rejects identifiers that could escape the spec directory.
func validID(id string) bool {
	if id == "." || id == ".." {
		return false
	}
	return !strings.ContainsAny(id, `/\`)
}
