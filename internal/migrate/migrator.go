package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sahnee-DE/sahnee-bot-migrator/internal/db"
	"github.com/Sahnee-DE/sahnee-bot-migrator/internal/diff"
	"github.com/Sahnee-DE/sahnee-bot-migrator/internal/litedb"
	"github.com/Sahnee-DE/sahnee-bot-migrator/internal/observability"
	"github.com/Sahnee-DE/sahnee-bot-migrator/internal/transform"
)

var (
	ErrTransaction    = errors.New("transaction failed")
	ErrSchemaMismatch = errors.New("target schema mismatch")
)

// Logger is the subset of the structured logger the runner needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// TableResult reports what a run did to one target table.
type TableResult struct {
	Entity   string
	Table    string
	Records  int
	Deleted  int64
	Inserted int
}

// Summary describes one run or dry run, table by table in migration order.
type Summary struct {
	RunID  uuid.UUID
	DryRun bool
	Tables []TableResult
}

// Runner replaces the owned target tables with the transformed legacy data.
type Runner struct {
	target   *db.Target
	db       *sql.DB
	dialect  db.Dialect
	logger   Logger
	entities []transform.Entity
}

// New builds a runner that migrates into target.
func New(target *db.Target, logger Logger) *Runner {
	return &Runner{
		target:   target,
		db:       target.DB,
		dialect:  target.Dialect,
		logger:   logger,
		entities: transform.Entities(),
	}
}

// Preflight compares the target tables with the columns the run writes.
// A blocking difference is returned wrapped in ErrSchemaMismatch alongside
// the diff itself.
func (r *Runner) Preflight(ctx context.Context) (diff.SchemaDiff, error) {
	expected := db.Schema{Tables: map[string][]string{}}
	tables := make([]string, 0, len(r.entities))
	for _, entity := range r.entities {
		expected.Tables[entity.Table] = entity.Columns
		tables = append(tables, entity.Table)
	}
	actual, err := db.Inspect(ctx, r.target, tables)
	if err != nil {
		return diff.SchemaDiff{}, fmt.Errorf("inspect target: %w", err)
	}
	d := diff.Compare(expected, actual)
	if d.HasChanges() {
		r.logger.Info("target schema differs", "diff", diff.Describe(d))
	}
	if d.Blocking() {
		return d, fmt.Errorf("%w:\n%s", ErrSchemaMismatch, diff.Describe(d))
	}
	return d, nil
}

// Run clears and refills every target table inside one transaction. Any
// failure rolls the whole transaction back and is returned unchanged in
// meaning; nothing is committed unless every table succeeded.
func (r *Runner) Run(ctx context.Context, collections litedb.Collections) (Summary, error) {
	summary := Summary{RunID: uuid.New()}
	runID := summary.RunID.String()

	ctx, span := observability.Tracer().Start(ctx, "migrate.run",
		trace.WithAttributes(attribute.String("run_id", runID), attribute.String("provider", r.dialect.Provider())))
	defer span.End()

	r.logger.Debug("beginning transaction", "run_id", runID)
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return summary, fmt.Errorf("%w: begin: %w", ErrTransaction, err)
	}

	for _, entity := range r.entities {
		result, err := r.migrateEntity(ctx, tx, runID, entity, collections.Records(entity.Collection))
		if err != nil {
			r.rollback(tx, runID, err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "rolled back")
			return summary, err
		}
		summary.Tables = append(summary.Tables, result)
	}

	r.logger.Debug("committing transaction", "run_id", runID)
	if err := tx.Commit(); err != nil {
		r.logger.Error("commit failed", append([]any{"run_id", runID, "error", err}, db.ErrorFields(err)...)...)
		span.RecordError(err)
		span.SetStatus(codes.Error, "commit failed")
		return summary, fmt.Errorf("%w: commit: %w", ErrTransaction, err)
	}
	r.logger.Info("transaction committed", "run_id", runID, "tables", len(summary.Tables))
	return summary, nil
}

func (r *Runner) migrateEntity(ctx context.Context, tx *sql.Tx, runID string, entity transform.Entity, records []litedb.Record) (TableResult, error) {
	ctx, span := observability.Tracer().Start(ctx, "migrate."+entity.Name,
		trace.WithAttributes(attribute.String("table", entity.Table), attribute.Int("records", len(records))))
	defer span.End()

	result := TableResult{Entity: entity.Name, Table: entity.Table, Records: len(records)}
	r.logger.Info("migrating entity", "run_id", runID, "entity", entity.Name, "table", entity.Table, "records", len(records))

	res, err := tx.ExecContext(ctx, db.DeleteAll(r.dialect, entity.Table))
	if err != nil {
		return result, r.dbError("delete", entity.Table, err)
	}
	if n, err := res.RowsAffected(); err == nil {
		result.Deleted = n
	}

	rows, err := entity.Build(records)
	if err != nil {
		return result, fmt.Errorf("migrate %s: %w", entity.Name, err)
	}

	stmt, err := tx.PrepareContext(ctx, db.InsertInto(r.dialect, entity.Table, entity.Columns))
	if err != nil {
		return result, r.dbError("prepare insert", entity.Table, err)
	}
	defer stmt.Close()

	for i, row := range rows {
		r.logger.Debug("inserting row", "table", entity.Table, "index", i)
		if _, err := stmt.ExecContext(ctx, row.Values()...); err != nil {
			return result, r.dbError(fmt.Sprintf("insert row %d", i), entity.Table, err)
		}
		result.Inserted++
	}
	return result, nil
}

func (r *Runner) dbError(stage, table string, err error) error {
	r.logger.Error("database statement failed", append([]any{"stage", stage, "table", table, "error", err}, db.ErrorFields(err)...)...)
	return fmt.Errorf("%w: %s %s: %w", ErrTransaction, stage, table, err)
}

func (r *Runner) rollback(tx *sql.Tx, runID string, cause error) {
	r.logger.Error("rolling back transaction", "run_id", runID, "error", cause)
	// A cancelled context has already rolled the transaction back.
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		r.logger.Error("rollback failed", "run_id", runID, "error", err)
	}
}

// Plan transforms every collection without touching the database.
func Plan(collections litedb.Collections, logger Logger) (Summary, error) {
	summary := Summary{RunID: uuid.New(), DryRun: true}
	for _, entity := range transform.Entities() {
		records := collections.Records(entity.Collection)
		logger.Info("planning entity", "entity", entity.Name, "table", entity.Table, "records", len(records))
		rows, err := entity.Build(records)
		if err != nil {
			return summary, fmt.Errorf("migrate %s: %w", entity.Name, err)
		}
		summary.Tables = append(summary.Tables, TableResult{
			Entity:   entity.Name,
			Table:    entity.Table,
			Records:  len(records),
			Inserted: len(rows),
		})
	}
	return summary, nil
}
