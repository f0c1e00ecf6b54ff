package ingest

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UnknownProject is the placeholder carried by source rows whose project name
// could not be derived. Such rows never become contracts.
const UnknownProject = "Unknown"

// ContractExternalID builds the deterministic conflict key for a derived
// contract: the same source row maps to the same id across repeated imports,
// so re-importing a file overwrites instead of duplicating.
func ContractExternalID(prefix string, year int, parts ...string) string {
	segs := make([]string, 0, len(parts)+2)
	segs = append(segs, prefix, fmt.Sprintf("%d", year))
	for _, p := range parts {
		if s := slug(p); s != "" {
			segs = append(segs, s)
		}
	}
	return strings.Join(segs, "-")
}

func slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	lastDash := true
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// ForecastContracts derives contract rows from forecast-award source rows so
// that upcoming work shows up next to awarded contracts in the same table.
// Rows without a usable project name ("Unknown") or without a year are
// filtered out; the award date is a synthetic January 1 of the forecast year.
func ForecastContracts(batchID uuid.UUID, awards []AwardRow) []ContractRow {
	out := make([]ContractRow, 0, len(awards))
	for i := range awards {
		a := &awards[i]
		project := strings.TrimSpace(a.DevelopmentProject)
		if project == "" || project == UnknownProject {
			continue
		}
		if a.Year == nil {
			continue
		}
		year := *a.Year

		name := project
		if a.Scope != nil {
			name = project + " " + *a.Scope
		}

		var value decimal.NullDecimal
		if a.EstimatedValueMUSD != nil {
			value = decimal.NewNullDecimal(decimal.NewFromFloat(*a.EstimatedValueMUSD))
		}

		out = append(out, ContractRow{
			ExternalID:         ContractExternalID("fc", year, project, derefString(a.Asset)),
			ContractName:       name,
			DevelopmentProject: project,
			Asset:              a.Asset,
			Country:            a.Country,
			Operator:           a.Operator,
			Contractor:         a.Contractor,
			ContractType:       a.ContractType,
			Scope:              a.Scope,
			Status:             "Forecast",
			AwardDate:          time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
			Year:               year,
			ValueMUSD:          value,
			BatchID:            batchID,
		})
	}
	return out
}

var contractColumns = []string{
	"external_id", "contract_name", "development_project", "asset", "country",
	"operator", "contractor", "contract_type", "scope", "status",
	"award_date", "award_year", "value_musd", "batch_id",
}

var contractConflictCols = []string{"external_id"}

func contractValues(contracts []ContractRow) [][]any {
	rows := make([][]any, 0, len(contracts))
	for i := range contracts {
		c := &contracts[i]
		rows = append(rows, []any{
			c.ExternalID, c.ContractName, c.DevelopmentProject, c.Asset, c.Country,
			c.Operator, c.Contractor, c.ContractType, c.Scope, c.Status,
			c.AwardDate, c.Year, c.ValueMUSD, c.BatchID,
		})
	}
	return rows
}
