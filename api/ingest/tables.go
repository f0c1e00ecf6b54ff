package ingest

// Column layouts and conflict keys for the four source-fact tables. Each
// table keeps one row per original sheet line; the conflict key is the
// natural key of that line (year + project + asset + the shape's own
// discriminator), which is what makes re-imports overwrite instead of append.
//
// Key components are coalesced to sentinels before the write: a NULL in a
// unique index never conflicts with itself, so a nil year or asset in the key
// would make every re-import insert a fresh copy of that row.

func keyYear(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func keyText(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

var installationColumns = []string{
	"year", "development_project", "asset", "country", "operator", "contractor",
	"facility_type", "water_depth_category", "installation_count", "batch_id",
}

var installationConflictCols = []string{"year", "development_project", "asset", "facility_type"}

func installationValues(rows []InstallationRow) [][]any {
	out := make([][]any, 0, len(rows))
	for i := range rows {
		r := &rows[i]
		out = append(out, []any{
			keyYear(r.Year), r.DevelopmentProject, keyText(r.Asset), r.Country, r.Operator, r.Contractor,
			keyText(r.FacilityType), r.WaterDepthCategory, r.InstallationCount, r.BatchID,
		})
	}
	return out
}

var lineColumns = []string{
	"year", "development_project", "asset", "country", "operator", "contractor",
	"line_type", "length_km", "batch_id",
}

var lineConflictCols = []string{"year", "development_project", "asset", "line_type"}

func lineValues(rows []LineRow) [][]any {
	out := make([][]any, 0, len(rows))
	for i := range rows {
		r := &rows[i]
		out = append(out, []any{
			keyYear(r.Year), r.DevelopmentProject, keyText(r.Asset), r.Country, r.Operator, r.Contractor,
			keyText(r.LineType), r.LengthKm, r.BatchID,
		})
	}
	return out
}

var unitColumns = []string{
	"year", "development_project", "asset", "country", "operator", "contractor",
	"unit_type", "unit_count", "batch_id",
}

var unitConflictCols = []string{"year", "development_project", "asset", "unit_type"}

func unitValues(rows []UnitRow) [][]any {
	out := make([][]any, 0, len(rows))
	for i := range rows {
		r := &rows[i]
		out = append(out, []any{
			keyYear(r.Year), r.DevelopmentProject, keyText(r.Asset), r.Country, r.Operator, r.Contractor,
			keyText(r.UnitType), r.UnitCount, r.BatchID,
		})
	}
	return out
}

var awardColumns = []string{
	"year", "development_project", "asset", "country", "operator", "contractor",
	"contract_type", "scope", "estimated_value_musd", "batch_id",
}

var awardConflictCols = []string{"year", "development_project", "asset", "country"}

func awardValues(rows []AwardRow) [][]any {
	out := make([][]any, 0, len(rows))
	for i := range rows {
		r := &rows[i]
		out = append(out, []any{
			keyYear(r.Year), r.DevelopmentProject, keyText(r.Asset), keyText(r.Country), r.Operator, r.Contractor,
			r.ContractType, r.Scope, r.EstimatedValueMUSD, r.BatchID,
		})
	}
	return out
}
