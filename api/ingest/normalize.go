package ingest

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Scalar coercion for raw spreadsheet cells. Cells arrive as whatever the
// workbook reader produced (string, float64, int, nil); every coercion trims
// and treats "not parseable" as absent. Nothing here ever returns an error —
// a nil result is the uniform failure mode for malformed cells.

func cellString(v any) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(fmt.Sprintf("%v", v))
	if s == "" {
		return nil
	}
	return &s
}

func cellFloat(v any) *float64 {
	if v == nil {
		return nil
	}
	switch t := v.(type) {
	case float64:
		f := t
		return &f
	case int:
		f := float64(t)
		return &f
	}
	s := strings.TrimSpace(fmt.Sprintf("%v", v))
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, ",", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

func cellInt(v any) *int {
	f := cellFloat(v)
	if f == nil {
		return nil
	}
	n := int(math.Round(*f))
	return &n
}

func derefString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// projectName extracts the mandatory key field. A blank project name makes
// the whole row unusable, so normalizers return nil and the row is silently
// dropped — dropped rows are reflected only by absence from imported totals.
func projectName(row map[string]any) (string, bool) {
	for _, col := range []string{"Development Project", "Project", "Development"} {
		if p := cellString(row[col]); p != nil {
			return *p, true
		}
	}
	return "", false
}

func NormalizeInstallationRow(row map[string]any, batchID uuid.UUID) *InstallationRow {
	project, ok := projectName(row)
	if !ok {
		return nil
	}
	return &InstallationRow{
		Year:               cellInt(row["Year"]),
		DevelopmentProject: project,
		Asset:              cellString(row["Asset"]),
		Country:            cellString(row["Country"]),
		Operator:           cellString(row["Operator"]),
		Contractor:         cellString(row["Contractor"]),
		FacilityType:       cellString(row["Facility Type"]),
		WaterDepthCategory: cellString(row["Water Depth"]),
		InstallationCount:  cellInt(row["Installations"]),
		BatchID:            batchID,
	}
}

func NormalizeLineRow(row map[string]any, batchID uuid.UUID) *LineRow {
	project, ok := projectName(row)
	if !ok {
		return nil
	}
	return &LineRow{
		Year:               cellInt(row["Year"]),
		DevelopmentProject: project,
		Asset:              cellString(row["Asset"]),
		Country:            cellString(row["Country"]),
		Operator:           cellString(row["Operator"]),
		Contractor:         cellString(row["Contractor"]),
		LineType:           cellString(row["Line Type"]),
		LengthKm:           cellFloat(row["Length (km)"]),
		BatchID:            batchID,
	}
}

func NormalizeUnitRow(row map[string]any, batchID uuid.UUID) *UnitRow {
	project, ok := projectName(row)
	if !ok {
		return nil
	}
	return &UnitRow{
		Year:               cellInt(row["Year"]),
		DevelopmentProject: project,
		Asset:              cellString(row["Asset"]),
		Country:            cellString(row["Country"]),
		Operator:           cellString(row["Operator"]),
		Contractor:         cellString(row["Contractor"]),
		UnitType:           cellString(row["Unit Type"]),
		UnitCount:          cellInt(row["Units"]),
		BatchID:            batchID,
	}
}

func NormalizeAwardRow(row map[string]any, batchID uuid.UUID) *AwardRow {
	project, ok := projectName(row)
	if !ok {
		return nil
	}
	return &AwardRow{
		Year:               cellInt(row["Year"]),
		DevelopmentProject: project,
		Asset:              cellString(row["Asset"]),
		Country:            cellString(row["Country"]),
		Operator:           cellString(row["Operator"]),
		Contractor:         cellString(row["Contractor"]),
		ContractType:       cellString(row["Contract Type"]),
		Scope:              cellString(row["Scope"]),
		EstimatedValueMUSD: cellFloat(row["Estimated Value (MUSD)"]),
		BatchID:            batchID,
	}
}
