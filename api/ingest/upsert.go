package ingest

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// ConflictMode makes the engine's conflict resolution an explicit parameter
// instead of an implicit default: Update overwrites the existing row with the
// incoming one (last write wins), Ignore keeps the existing row untouched.
type ConflictMode int

const (
	ConflictUpdate ConflictMode = iota
	ConflictIgnore
)

// Execer is the slice of pgxpool.Pool the upsert engine needs; tests swap in
// a fake to exercise chunk accounting without a database.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type UpsertResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

func (r UpsertResult) add(o UpsertResult) UpsertResult {
	return UpsertResult{Imported: r.Imported + o.Imported, Skipped: r.Skipped + o.Skipped}
}

// ChunkedUpserter writes normalized rows in fixed-size multi-row INSERT ...
// ON CONFLICT statements. A failing chunk becomes a skip count and the engine
// moves on to the next chunk; the call itself never returns an error for a
// degraded write.
type ChunkedUpserter struct {
	db        Execer
	chunkSize int
}

func NewChunkedUpserter(db Execer, chunkSize int) *ChunkedUpserter {
	if chunkSize <= 0 {
		chunkSize = 500
	}
	return &ChunkedUpserter{db: db, chunkSize: chunkSize}
}

// Upsert writes rows to table in chunks. columns names every value position in
// a row; conflictCols is the composite natural key the table is unique on.
// Rows sharing a conflict key with an existing row are overwritten (Update)
// or left alone (Ignore), never duplicated, so re-running an import on the
// same source data does not inflate record counts.
func (u *ChunkedUpserter) Upsert(ctx context.Context, table string, columns, conflictCols []string, mode ConflictMode, rows [][]any) UpsertResult {
	var res UpsertResult
	for start := 0; start < len(rows); start += u.chunkSize {
		end := start + u.chunkSize
		if end > len(rows) {
			end = len(rows)
		}
		chunk := rows[start:end]
		sql, args := buildUpsertSQL(table, columns, conflictCols, mode, chunk)
		if _, err := u.db.Exec(ctx, sql, args...); err != nil {
			log.Printf("[INGEST] chunk write failed table=%s rows=%d offset=%d: %v", table, len(chunk), start, err)
			res.Skipped += len(chunk)
			continue
		}
		res.Imported += len(chunk)
	}
	return res
}

func buildUpsertSQL(table string, columns, conflictCols []string, mode ConflictMode, chunk [][]any) (string, []any) {
	args := make([]any, 0, len(chunk)*len(columns))
	values := make([]string, 0, len(chunk))
	placeholder := 1
	for _, row := range chunk {
		ph := make([]string, len(columns))
		for i := range columns {
			ph[i] = fmt.Sprintf("$%d", placeholder)
			placeholder++
			args = append(args, row[i])
		}
		values = append(values, "("+strings.Join(ph, ",")+")")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES %s", table, strings.Join(columns, ", "), strings.Join(values, ","))

	switch mode {
	case ConflictIgnore:
		fmt.Fprintf(&b, " ON CONFLICT (%s) DO NOTHING", strings.Join(conflictCols, ", "))
	default:
		updatable := make([]string, 0, len(columns))
		for _, col := range columns {
			if containsString(conflictCols, col) {
				continue
			}
			updatable = append(updatable, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
		}
		if len(updatable) == 0 {
			fmt.Fprintf(&b, " ON CONFLICT (%s) DO NOTHING", strings.Join(conflictCols, ", "))
		} else {
			fmt.Fprintf(&b, " ON CONFLICT (%s) DO UPDATE SET %s", strings.Join(conflictCols, ", "), strings.Join(updatable, ", "))
		}
	}
	return b.String(), args
}

func containsString(arr []string, v string) bool {
	for _, s := range arr {
		if s == v {
			return true
		}
	}
	return false
}
