package core

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func exportTable() *Table {
	return MustTable("merged",
		NewColumn("ID", "1", "2", "3"),
		NewColumn("Name", "Ann", "Bo, Jr", nil),
		NewColumn("Score", 1.5, int64(2), nil),
		NewColumn("Due", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), nil, nil),
	)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, exportTable(), []string{"Name", "ID", "Due"}))

	want := "Name,ID,Due\n" +
		"Ann,1,2024-05-01\n" +
		"\"Bo, Jr\",2,\n" +
		",3,\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSV_Errors(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, WriteCSV(&buf, exportTable(), nil), ErrNoColumnsChosen)

	var cnf *ColumnNotFoundError
	assert.ErrorAs(t, WriteCSV(&buf, exportTable(), []string{"ID", "Nope"}), &cnf)
	assert.Zero(t, buf.Len(), "nothing written on a bad selection")
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, exportTable(), []string{"ID", "Score", "Name"}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"ID", "Score", "Name"}, rows[0])
	assert.Equal(t, []string{"1", "1.5", "Ann"}, rows[1])
	assert.Equal(t, []string{"2", "2", "Bo, Jr"}, rows[2])
	assert.Equal(t, []string{"3"}, rows[3], "trailing blank cells are omitted")
}

func TestExportFormat(t *testing.T) {
	f, err := ParseExportFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = ParseExportFormat("XLSX")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)
	assert.Contains(t, f.ContentType(), "spreadsheetml")

	_, err = ParseExportFormat("pdf")
	assert.Equal(t, "EXP004", MapError(err).Code)
}

func TestExportFileName(t *testing.T) {
	tests := []struct {
		name   string
		format ExportFormat
		want   string
	}{
		{"", FormatCSV, "merged_output.csv"},
		{"  ", FormatCSV, "merged_output.csv"},
		{"report", FormatCSV, "report.csv"},
		{"report.CSV", FormatCSV, "report.CSV"},
		{"report", FormatXLSX, "report.xlsx"},
		{"report", "", "report.csv"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExportFileName(tt.name, tt.format), "name=%q format=%q", tt.name, tt.format)
	}
}

func TestBuildPreview(t *testing.T) {
	p, err := BuildPreview(exportTable(), nil, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"ID", "Name", "Score", "Due"}, p.Columns)
	assert.Equal(t, [][]string{
		{"1", "Ann", "1.5", "2024-05-01"},
		{"2", "Bo, Jr", "2", ""},
	}, p.Rows)
	assert.Equal(t, 3, p.TotalRows)
	assert.True(t, p.Truncated)

	p, err = BuildPreview(exportTable(), []string{"Name"}, 0)
	require.NoError(t, err)
	assert.Len(t, p.Rows, 3)
	assert.False(t, p.Truncated)

	_, err = BuildPreview(exportTable(), []string{"Nope"}, 0)
	var cnf *ColumnNotFoundError
	assert.ErrorAs(t, err, &cnf)
}

// fakeTx records what PostgresSink sends. Only the methods the sink uses
// are implemented; the embedded interface panics on anything else.
type fakeTx struct {
	pgx.Tx
	execSQL    []string
	copyTable  pgx.Identifier
	copyCols   []string
	copyRows   [][]any
	execErr    error
	committed  bool
	rolledBack bool
}

func (tx *fakeTx) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	tx.execSQL = append(tx.execSQL, sql)
	return pgconn.NewCommandTag("CREATE TABLE"), tx.execErr
}

func (tx *fakeTx) CopyFrom(_ context.Context, table pgx.Identifier, cols []string, src pgx.CopyFromSource) (int64, error) {
	tx.copyTable, tx.copyCols = table, cols
	for src.Next() {
		vals, err := src.Values()
		if err != nil {
			return 0, err
		}
		tx.copyRows = append(tx.copyRows, vals)
	}
	return int64(len(tx.copyRows)), src.Err()
}

func (tx *fakeTx) Commit(context.Context) error {
	tx.committed = true
	return nil
}

func (tx *fakeTx) Rollback(context.Context) error {
	if !tx.committed {
		tx.rolledBack = true
	}
	return nil
}

type fakeDB struct{ tx *fakeTx }

func (db *fakeDB) Begin(context.Context) (pgx.Tx, error) { return db.tx, nil }

func TestPostgresSink_Export(t *testing.T) {
	tx := &fakeTx{}
	sink := NewPostgresSink(&fakeDB{tx: tx}, "")

	n, err := sink.Export(context.Background(), exportTable(), []string{"ID", "Name"}, "merged_2024")
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	require.Len(t, tx.execSQL, 1)
	assert.Equal(t, `CREATE TABLE "public"."merged_2024" ("ID" text, "Name" text)`, tx.execSQL[0])
	assert.Equal(t, pgx.Identifier{"public", "merged_2024"}, tx.copyTable)
	assert.Equal(t, []string{"ID", "Name"}, tx.copyCols)
	assert.Equal(t, [][]any{{"1", "Ann"}, {"2", "Bo, Jr"}, {"3", nil}}, tx.copyRows)
	assert.True(t, tx.committed)
}

func TestPostgresSink_ExportFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("nil sink", func(t *testing.T) {
		var sink *PostgresSink
		_, err := sink.Export(ctx, exportTable(), []string{"ID"}, "t")
		assert.ErrorIs(t, err, ErrExportNotEnabled)
	})

	t.Run("bad table name", func(t *testing.T) {
		sink := NewPostgresSink(&fakeDB{tx: &fakeTx{}}, "public")
		_, err := sink.Export(ctx, exportTable(), []string{"ID"}, "Robert'); DROP")
		assert.Equal(t, "EXP003", MapError(err).Code)
	})

	t.Run("column chosen twice", func(t *testing.T) {
		sink := NewPostgresSink(&fakeDB{tx: &fakeTx{}}, "public")
		_, err := sink.Export(ctx, exportTable(), []string{"ID", "ID"}, "t")
		assert.Equal(t, "EXP005", MapError(err).Code)
	})

	t.Run("create fails and rolls back", func(t *testing.T) {
		tx := &fakeTx{execErr: errors.New(`ERROR: relation "t" already exists (SQLSTATE 42P07)`)}
		sink := NewPostgresSink(&fakeDB{tx: tx}, "public")
		_, err := sink.Export(ctx, exportTable(), []string{"ID"}, "t")
		assert.Equal(t, "DB001", MapError(err).Code)
		assert.True(t, tx.rolledBack)
		assert.False(t, tx.committed)
		assert.Nil(t, tx.copyRows)
	})
}
