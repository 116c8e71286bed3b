package core

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
)

// TxBeginner is satisfied by *pgxpool.Pool and *pgx.Conn.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

var tableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

// PostgresSink writes working tables into new PostgreSQL tables using the
// COPY protocol. Every column is created as text; nil cells become NULL.
type PostgresSink struct {
	db     TxBeginner
	schema string
}

// NewPostgresSink returns a sink writing into schema ("public" when empty).
func NewPostgresSink(db TxBeginner, schema string) *PostgresSink {
	if schema == "" {
		schema = "public"
	}
	return &PostgresSink{db: db, schema: schema}
}

// Export creates table target and loads the selected columns into it.
// It fails if the table already exists. Returns the number of rows copied.
func (s *PostgresSink) Export(ctx context.Context, t *Table, columns []string, target string) (int64, error) {
	if s == nil || s.db == nil {
		return 0, ErrExportNotEnabled
	}
	sel, err := SelectForExport(t, columns)
	if err != nil {
		return 0, err
	}
	if err := ValidateTableName(target); err != nil {
		return 0, err
	}
	names := sel.ColumnNames()
	if err := uniqueNames(names); err != nil {
		return 0, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin export: %w", err)
	}
	defer tx.Rollback(ctx) // No-op after commit

	ident := pgx.Identifier{s.schema, target}
	if _, err := tx.Exec(ctx, createTableSQL(ident, names)); err != nil {
		return 0, fmt.Errorf("create table %s: %w", ident.Sanitize(), err)
	}

	copied, err := tx.CopyFrom(ctx, ident, names, pgx.CopyFromRows(copyRows(sel)))
	if err != nil {
		return 0, fmt.Errorf("copy into %s: %w", ident.Sanitize(), err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit export: %w", err)
	}
	return copied, nil
}

// ValidateTableName accepts lower-case identifiers PostgreSQL stores as typed.
func ValidateTableName(name string) error {
	if !tableNameRegex.MatchString(name) {
		return fmt.Errorf("invalid table name %q: use lower-case letters, digits and underscores", name)
	}
	return nil
}

func uniqueNames(names []string) error {
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if seen[n] {
			return fmt.Errorf("column %q selected twice; database export needs unique column names", n)
		}
		seen[n] = true
	}
	return nil
}

func createTableSQL(ident pgx.Identifier, columns []string) string {
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = pgx.Identifier{c}.Sanitize() + " text"
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", ident.Sanitize(), strings.Join(defs, ", "))
}

func copyRows(t *Table) [][]any {
	rows := make([][]any, t.NumRows())
	for i := range rows {
		row := make([]any, t.NumColumns())
		for j, c := range t.columns {
			if v := c.Values[i]; v != nil {
				row[j] = FormatValue(v)
			}
		}
		rows[i] = row
	}
	return rows
}
