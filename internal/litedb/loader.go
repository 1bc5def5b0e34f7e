package litedb

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Logger is the subset of the structured logger the loader needs.
type Logger interface {
	Info(msg string, args ...any)
	Debug(msg string, args ...any)
}

// Collections holds the parsed records of every loaded collection.
type Collections map[string][]Record

// Records returns the records of name, or an empty slice if it was not loaded.
func (c Collections) Records(name string) []Record {
	if records, ok := c[name]; ok {
		return records
	}
	return []Record{}
}

// Loader reads the export files configured per collection.
type Loader struct {
	files  map[string][]string
	logger Logger
}

// NewLoader builds a loader for the export files of each collection.
func NewLoader(files map[string][]string, logger Logger) *Loader {
	return &Loader{files: files, logger: logger}
}

// Load parses every configured export. Files of one collection are read in
// the configured order and their records concatenated.
func (l *Loader) Load(ctx context.Context) (Collections, error) {
	names := make([]string, 0, len(l.files))
	for name := range l.files {
		names = append(names, name)
	}
	sort.Strings(names)
	l.logger.Info("loading exports", "collections", names)

	out := make(Collections, len(names))
	for _, name := range names {
		records := []Record{}
		for _, path := range l.files[name] {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			l.logger.Debug("reading export", "collection", name, "path", path)
			content, err := readExport(path)
			if err != nil {
				return nil, fmt.Errorf("read %s export %s: %w", name, path, err)
			}
			parsed, err := Parse(name, content)
			if err != nil {
				return nil, err
			}
			records = append(records, parsed...)
		}
		out[name] = records
		l.logger.Info("collection loaded", "collection", name, "files", len(l.files[name]), "records", len(records))
	}
	l.logger.Info("exports loaded", "collections", len(out))
	return out, nil
}

func readExport(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		r = zr
	}
	return io.ReadAll(r)
}
