package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Sahnee-DE/sahnee-bot-migrator/internal/config"
)

// Dialect abstracts provider-specific SQL spelling.
type Dialect interface {
	Provider() string
	Placeholder(n int) string
	QuoteIdent(name string) string
}

// Target is an open handle on the relational database being migrated into.
type Target struct {
	DB      *sql.DB
	Dialect Dialect
	release func()
}

func (t *Target) Close() error {
	err := t.DB.Close()
	if t.release != nil {
		t.release()
	}
	return err
}

// Open connects to the target described by cfg and verifies it is reachable.
func Open(ctx context.Context, cfg config.DBConfig) (*Target, error) {
	provider := strings.ToLower(cfg.Provider)
	switch provider {
	case "postgres", "postgresql", "":
		return openPostgres(ctx, cfg.DSN)
	case "mysql":
		return openMySQL(ctx, cfg.DSN)
	case "sqlite":
		return openSQLite(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported provider %s", cfg.Provider)
	}
}

// DeleteAll builds the statement that empties table.
func DeleteAll(d Dialect, table string) string {
	return "DELETE FROM " + d.QuoteIdent(table)
}

// InsertInto builds a parameterized single row insert for columns.
func InsertInto(d Dialect, table string, columns []string) string {
	quoted := make([]string, len(columns))
	params := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = d.QuoteIdent(c)
		params[i] = d.Placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.QuoteIdent(table), strings.Join(quoted, ", "), strings.Join(params, ", "))
}
