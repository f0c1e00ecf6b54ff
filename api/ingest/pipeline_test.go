package ingest

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type fakeExtractor struct {
	rows []ExtractedContractRow
	err  error
}

func (f *fakeExtractor) ExtractContractRows(_ context.Context, _ []byte, _ string) ([]ExtractedContractRow, error) {
	return f.rows, f.err
}

func buildWorkbook(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName("Sheet1", "Subsea Installations"))
	require.NoError(t, f.SetSheetRow("Subsea Installations", "A1",
		&[]any{"Year", "Development Project", "Asset", "Country", "Facility Type", "Installations"}))
	require.NoError(t, f.SetSheetRow("Subsea Installations", "A2",
		&[]any{2024, "Alpha", "A1", "NO", "Template", 3}))
	require.NoError(t, f.SetSheetRow("Subsea Installations", "A3",
		&[]any{2025, "Alpha", "A1", "NO", "Template", 2}))
	require.NoError(t, f.SetSheetRow("Subsea Installations", "A4",
		&[]any{2025, "", "A9", "NO", "Manifold", 1})) // dropped: no project

	_, err := f.NewSheet("Subsea Lines")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Subsea Lines", "A1",
		&[]any{"Year", "Development Project", "Asset", "Country", "Line Type", "Length (km)"}))
	require.NoError(t, f.SetSheetRow("Subsea Lines", "A2",
		&[]any{2024, "Alpha", "A1", "NO", "Flowline", 12.5}))

	_, err = f.NewSheet("Upcomming awards 04.04.25")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Upcomming awards 04.04.25", "A1",
		&[]any{"Year", "Development Project", "Asset", "Country", "Scope", "Estimated Value (MUSD)"}))
	require.NoError(t, f.SetSheetRow("Upcomming awards 04.04.25", "A2",
		&[]any{2027, "Alpha", "A1", "NO", "SURF", 250}))
	require.NoError(t, f.SetSheetRow("Upcomming awards 04.04.25", "A3",
		&[]any{2027, "Unknown", "A1", "NO", "SURF", 100}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestRunWorkbook(t *testing.T) {
	db := &fakeExecer{}
	p := &Pipeline{upserter: NewChunkedUpserter(db, 500)}
	job := &ImportJob{ID: uuid.New(), FileName: "market.xlsx", SourceKind: SourceSpreadsheet}

	total, res, err := p.runWorkbook(context.Background(), job, buildWorkbook(t))
	require.NoError(t, err)

	// 3 installation rows + 1 line row + 2 award rows read from the sheets.
	assert.Equal(t, 6, total)
	// Imported counts source-table rows only: the blank-project installation
	// was dropped before the write, so 2 + 1 + 2 land.
	assert.Equal(t, 5, res.Imported)
	assert.Equal(t, 0, res.Skipped)

	var tables []string
	for _, c := range db.calls {
		tables = append(tables, tableOf(c.sql))
	}
	assert.Equal(t, []string{
		"public.subsea_installations",
		"public.subsea_lines",
		"public.forecast_awards",
		"public.projects",
		"public.contracts",
	}, tables)

	// The Unknown award reaches forecast_awards but not contracts.
	contractCall := db.calls[len(db.calls)-1]
	assert.Contains(t, strings.Join(anyStrings(contractCall.args), "|"), "fc-2027-alpha-a1")
	assert.NotContains(t, strings.Join(anyStrings(contractCall.args), "|"), "unknown")
}

func TestRunWorkbookUnparseable(t *testing.T) {
	db := &fakeExecer{}
	p := &Pipeline{upserter: NewChunkedUpserter(db, 500)}
	job := &ImportJob{ID: uuid.New(), FileName: "bad.xlsx", SourceKind: SourceSpreadsheet}

	_, _, err := p.runWorkbook(context.Background(), job, []byte("not a workbook"))
	require.Error(t, err)
	assert.Empty(t, db.calls)
}

func TestRunWorkbookFailingChunkDegrades(t *testing.T) {
	db := &fakeExecer{failCall: 1}
	p := &Pipeline{upserter: NewChunkedUpserter(db, 500)}
	job := &ImportJob{ID: uuid.New(), FileName: "market.xlsx", SourceKind: SourceSpreadsheet}

	total, res, err := p.runWorkbook(context.Background(), job, buildWorkbook(t))
	require.NoError(t, err)
	assert.Equal(t, 6, total)
	assert.Equal(t, 3, res.Imported)
	assert.Equal(t, 2, res.Skipped)
}

func TestRunDocument(t *testing.T) {
	db := &fakeExecer{}
	p := &Pipeline{
		upserter: NewChunkedUpserter(db, 500),
		extractor: &fakeExtractor{rows: []ExtractedContractRow{
			{ContractName: "Alpha SURF EPCI", DevelopmentProject: "Alpha", Contractor: "Subsea7",
				AwardDate: "2025-03-12", ValueMUSD: 410},
			{DevelopmentProject: "Unknown", AwardDate: "2025-03-12"},
			{DevelopmentProject: "Beta", AwardDate: "not a date"},
		}},
	}
	job := &ImportJob{ID: uuid.New(), FileName: "press-release.pdf", SourceKind: SourceDocument}

	total, res, err := p.runDocument(context.Background(), job, []byte("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, 1, res.Imported)

	require.Len(t, db.calls, 1)
	joined := strings.Join(anyStrings(db.calls[0].args), "|")
	assert.Contains(t, joined, "doc-2025-alpha-subsea7")
	assert.Contains(t, joined, "Awarded")
}

func TestRunDocumentExtractorError(t *testing.T) {
	db := &fakeExecer{}
	p := &Pipeline{
		upserter:  NewChunkedUpserter(db, 500),
		extractor: &fakeExtractor{err: errors.New("upstream 503")},
	}
	job := &ImportJob{ID: uuid.New(), FileName: "press-release.pdf", SourceKind: SourceDocument}

	_, _, err := p.runDocument(context.Background(), job, []byte("%PDF"))
	require.Error(t, err)
	assert.Empty(t, db.calls)
}

func TestRunDocumentWithoutExtractor(t *testing.T) {
	p := &Pipeline{upserter: NewChunkedUpserter(&fakeExecer{}, 500)}
	job := &ImportJob{ID: uuid.New(), SourceKind: SourceDocument}
	_, _, err := p.runDocument(context.Background(), job, nil)
	require.Error(t, err)
}

func tableOf(sql string) string {
	rest := strings.TrimPrefix(sql, "INSERT INTO ")
	if i := strings.Index(rest, " "); i > 0 {
		return rest[:i]
	}
	return rest
}

func anyStrings(args []any) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if s, ok := a.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
