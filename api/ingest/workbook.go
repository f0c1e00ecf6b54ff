package ingest

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"
)

// Workbook is the spreadsheet ingestion adapter: a parsed binary workbook
// exposed as named sheets of header-keyed row objects. Both the modern xlsx
// reader and the legacy xls fallback normalize into the same in-memory shape
// so the rest of the pipeline never cares which format the analyst uploaded.
type Workbook struct {
	sheets []string
	rows   map[string][][]string
}

// OpenWorkbook parses workbook bytes, trying xlsx first and falling back to
// the legacy xls reader. A parse failure in both is fatal for the whole job.
func OpenWorkbook(data []byte) (*Workbook, error) {
	wb := &Workbook{rows: make(map[string][][]string)}

	xl, xlErr := excelize.OpenReader(bytes.NewReader(data))
	if xlErr == nil {
		defer xl.Close()
		for _, name := range xl.GetSheetList() {
			rows, err := xl.GetRows(name)
			if err != nil {
				return nil, fmt.Errorf("read sheet %q: %w", name, err)
			}
			wb.sheets = append(wb.sheets, name)
			wb.rows[name] = rows
		}
		return wb, nil
	}

	// Legacy .xls path. The reader wants a file path, so spill to a temp file.
	tmp, err := os.CreateTemp("", "subsea-upload-*.xls")
	if err != nil {
		return nil, fmt.Errorf("xls temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("xls temp write: %w", err)
	}
	tmp.Close()

	book, xlsErr := xls.OpenFile(tmp.Name())
	if xlsErr != nil {
		return nil, fmt.Errorf("workbook not parseable: xlsx: %v; xls: %v", xlErr, xlsErr)
	}
	for i := range book.GetSheets() {
		sheet, err := book.GetSheet(i)
		if err != nil || sheet == nil {
			continue
		}
		name := sheet.GetName()
		var rows [][]string
		for _, xlsRow := range sheet.GetRows() {
			var vals []string
			for _, col := range xlsRow.GetCols() {
				vals = append(vals, col.GetString())
			}
			rows = append(rows, vals)
		}
		wb.sheets = append(wb.sheets, name)
		wb.rows[name] = rows
	}
	return wb, nil
}

func (w *Workbook) SheetNames() []string {
	return w.sheets
}

// ReadSheet projects a sheet into row objects keyed by the trimmed header
// row. Blank cells are absent from the map; rows that are entirely empty are
// dropped here rather than counted downstream.
func (w *Workbook) ReadSheet(name string) []map[string]any {
	raw, ok := w.rows[name]
	if !ok || len(raw) < 2 {
		return nil
	}
	headers := make([]string, len(raw[0]))
	for i, h := range raw[0] {
		headers[i] = strings.TrimSpace(h)
	}

	out := make([]map[string]any, 0, len(raw)-1)
	for _, rec := range raw[1:] {
		if allEmptyRow(rec) {
			continue
		}
		obj := make(map[string]any, len(headers))
		for i, h := range headers {
			if h == "" || i >= len(rec) {
				continue
			}
			val := strings.TrimSpace(rec[i])
			if val == "" {
				continue
			}
			obj[h] = val
		}
		out = append(out, obj)
	}
	return out
}

func allEmptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
