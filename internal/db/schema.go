package db

import (
	"context"
	"fmt"
)

// Schema lists the columns of each table found in the target.
type Schema struct {
	Tables map[string][]string
}

// Inspect reads the column names of tables. A table the database reports as
// missing is left out of the result; any other failure is returned.
func Inspect(ctx context.Context, t *Target, tables []string) (Schema, error) {
	schema := Schema{Tables: map[string][]string{}}
	for _, table := range tables {
		if err := ctx.Err(); err != nil {
			return schema, err
		}
		rows, err := t.DB.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s WHERE 1 = 0", t.Dialect.QuoteIdent(table)))
		if err != nil {
			if isMissingTable(err) {
				continue
			}
			return schema, fmt.Errorf("inspect %s: %w", table, err)
		}
		cols, err := rows.Columns()
		rows.Close()
		if err != nil {
			return schema, fmt.Errorf("columns of %s: %w", table, err)
		}
		schema.Tables[table] = cols
	}
	return schema, nil
}
