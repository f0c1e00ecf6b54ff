package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExecer struct {
	calls    []fakeExecCall
	failCall int // 1-based call number that returns an error, 0 = never
}

type fakeExecCall struct {
	sql  string
	args []any
}

func (f *fakeExecer) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, fakeExecCall{sql: sql, args: args})
	if f.failCall == len(f.calls) {
		return pgconn.CommandTag{}, errors.New("connection reset")
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func makeRows(n int) [][]any {
	rows := make([][]any, n)
	for i := range rows {
		rows[i] = []any{i, "Alpha", "A1"}
	}
	return rows
}

func TestUpsertChunking(t *testing.T) {
	db := &fakeExecer{}
	u := NewChunkedUpserter(db, 2)
	res := u.Upsert(context.Background(), "public.subsea_units",
		[]string{"year", "development_project", "asset"},
		[]string{"year", "development_project", "asset"},
		ConflictUpdate, makeRows(5))

	assert.Equal(t, 5, res.Imported)
	assert.Equal(t, 0, res.Skipped)
	require.Len(t, db.calls, 3)
	assert.Len(t, db.calls[0].args, 6)
	assert.Len(t, db.calls[2].args, 3)
}

func TestUpsertFailingChunkSkipsAndContinues(t *testing.T) {
	db := &fakeExecer{failCall: 2}
	u := NewChunkedUpserter(db, 2)
	res := u.Upsert(context.Background(), "public.subsea_units",
		[]string{"year", "development_project", "asset"},
		[]string{"year", "development_project", "asset"},
		ConflictUpdate, makeRows(6))

	// All three chunks are attempted; only the failing one is skipped.
	require.Len(t, db.calls, 3)
	assert.Equal(t, 4, res.Imported)
	assert.Equal(t, 2, res.Skipped)
}

func TestUpsertSQLShapeUpdate(t *testing.T) {
	db := &fakeExecer{}
	u := NewChunkedUpserter(db, 500)
	u.Upsert(context.Background(), "public.projects",
		[]string{"development_project", "asset", "country", "unit_count"},
		[]string{"development_project", "asset", "country"},
		ConflictUpdate, [][]any{{"Alpha", "A1", "NO", 4}})

	require.Len(t, db.calls, 1)
	sql := db.calls[0].sql
	assert.Contains(t, sql, "INSERT INTO public.projects (development_project, asset, country, unit_count)")
	assert.Contains(t, sql, "ON CONFLICT (development_project, asset, country) DO UPDATE SET unit_count = EXCLUDED.unit_count")
	assert.NotContains(t, sql, "EXCLUDED.development_project")
}

func TestUpsertSQLShapeIgnore(t *testing.T) {
	db := &fakeExecer{}
	u := NewChunkedUpserter(db, 500)
	u.Upsert(context.Background(), "public.contracts",
		[]string{"external_id", "contract_name"},
		[]string{"external_id"},
		ConflictIgnore, [][]any{{"fc-2027-alpha", "Alpha"}})

	require.Len(t, db.calls, 1)
	assert.Contains(t, db.calls[0].sql, "ON CONFLICT (external_id) DO NOTHING")
}

func TestUpsertAllKeyColumnsFallsBackToIgnore(t *testing.T) {
	db := &fakeExecer{}
	u := NewChunkedUpserter(db, 500)
	u.Upsert(context.Background(), "public.t",
		[]string{"a", "b"}, []string{"a", "b"},
		ConflictUpdate, [][]any{{1, 2}})

	require.Len(t, db.calls, 1)
	assert.Contains(t, db.calls[0].sql, "DO NOTHING")
}

func TestUpsertEmptyRowsNoCalls(t *testing.T) {
	db := &fakeExecer{}
	u := NewChunkedUpserter(db, 500)
	res := u.Upsert(context.Background(), "public.t", []string{"a"}, []string{"a"}, ConflictUpdate, nil)
	assert.Empty(t, db.calls)
	assert.Zero(t, res.Imported)
	assert.Zero(t, res.Skipped)
}
