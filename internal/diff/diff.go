package diff

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Sahnee-DE/sahnee-bot-migrator/internal/db"
)

// SchemaDiff describes how the target differs from what the migration writes.
type SchemaDiff struct {
	MissingTables []string
	Tables        map[string]TableDiff
}

// TableDiff captures per-table column differences.
type TableDiff struct {
	Missing []string
	Extra   []string
}

// Compare builds a diff between the expected schema and the actual target.
// Column names are matched case-insensitively.
func Compare(expected, actual db.Schema) SchemaDiff {
	res := SchemaDiff{Tables: map[string]TableDiff{}}

	for _, name := range sortedKeys(expected.Tables) {
		cols, ok := actual.Tables[name]
		if !ok {
			res.MissingTables = append(res.MissingTables, name)
			continue
		}
		td := TableDiff{
			Missing: difference(expected.Tables[name], cols),
			Extra:   difference(cols, expected.Tables[name]),
		}
		if len(td.Missing) > 0 || len(td.Extra) > 0 {
			res.Tables[name] = td
		}
	}
	return res
}

// Describe returns a human-readable summary of differences.
func Describe(d SchemaDiff) string {
	if !d.HasChanges() {
		return "schema matches"
	}

	var lines []string
	if len(d.MissingTables) > 0 {
		lines = append(lines, fmt.Sprintf("Missing tables: %s", strings.Join(d.MissingTables, ", ")))
	}
	for _, name := range sortedKeys(d.Tables) {
		td := d.Tables[name]
		if len(td.Missing) > 0 {
			lines = append(lines, fmt.Sprintf("Table %s: missing columns: %s", name, strings.Join(td.Missing, ", ")))
		}
		if len(td.Extra) > 0 {
			lines = append(lines, fmt.Sprintf("Table %s: unmapped columns: %s", name, strings.Join(td.Extra, ", ")))
		}
	}
	return strings.Join(lines, "\n")
}

// HasChanges reports whether the diff contains any differences.
func (d SchemaDiff) HasChanges() bool {
	return len(d.MissingTables) > 0 || len(d.Tables) > 0
}

// Blocking reports whether a run would fail against this schema. Unmapped
// columns are tolerated since they may carry defaults.
func (d SchemaDiff) Blocking() bool {
	if len(d.MissingTables) > 0 {
		return true
	}
	for _, td := range d.Tables {
		if len(td.Missing) > 0 {
			return true
		}
	}
	return false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func difference(a, b []string) []string {
	set := make(map[string]struct{}, len(b))
	for _, v := range b {
		set[strings.ToLower(v)] = struct{}{}
	}
	var out []string
	for _, v := range a {
		if _, ok := set[strings.ToLower(v)]; !ok {
			out = append(out, v)
		}
	}
	return out
}
