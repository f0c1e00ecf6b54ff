package ingest

import (
	"strings"

	"github.com/shopspring/decimal"
)

type projectKey struct {
	Project string
	Asset   string
	Country string
}

// projectFolder accumulates ProjectAggregates for one batch. It is owned
// exclusively by the ProcessJob call that created it; insertion order is kept
// so the flush is deterministic.
type projectFolder struct {
	byKey map[projectKey]*ProjectAggregate
	order []projectKey
}

func newProjectFolder() *projectFolder {
	return &projectFolder{byKey: make(map[projectKey]*ProjectAggregate)}
}

// AggregateProjects folds all normalized rows of a batch, in the order
// installations, lines, units, awards, into one aggregate per
// (development_project, asset, country) key. The first row seen for a key
// seeds the descriptive fields and later rows never overwrite them; every row
// with a year widens the [FirstYear, LastYear] range; counters receive the
// shape-specific contribution (awards contribute to the year range only).
func AggregateProjects(batch BatchRows) []*ProjectAggregate {
	f := newProjectFolder()
	for i := range batch.Installations {
		r := &batch.Installations[i]
		agg := f.fold(r.DevelopmentProject, r.Asset, r.Country, r.Operator, r.Contractor, r.FacilityType, r.WaterDepthCategory, r.Year)
		if r.InstallationCount != nil {
			agg.InstallationCount += *r.InstallationCount
		}
	}
	for i := range batch.Lines {
		r := &batch.Lines[i]
		agg := f.fold(r.DevelopmentProject, r.Asset, r.Country, r.Operator, r.Contractor, nil, nil, r.Year)
		if r.LengthKm != nil {
			agg.LineLengthKm = agg.LineLengthKm.Add(decimal.NewFromFloat(*r.LengthKm))
		}
	}
	for i := range batch.Units {
		r := &batch.Units[i]
		agg := f.fold(r.DevelopmentProject, r.Asset, r.Country, r.Operator, r.Contractor, nil, nil, r.Year)
		if r.UnitCount != nil {
			agg.UnitCount += *r.UnitCount
		}
	}
	for i := range batch.Awards {
		r := &batch.Awards[i]
		f.fold(r.DevelopmentProject, r.Asset, r.Country, r.Operator, r.Contractor, nil, nil, r.Year)
	}

	out := make([]*ProjectAggregate, 0, len(f.order))
	for _, k := range f.order {
		out = append(out, f.byKey[k])
	}
	return out
}

func (f *projectFolder) fold(project string, asset, country, operator, contractor, facilityType, waterDepth *string, year *int) *ProjectAggregate {
	key := projectKey{
		Project: strings.TrimSpace(project),
		Asset:   strings.TrimSpace(derefString(asset)),
		Country: strings.TrimSpace(derefString(country)),
	}
	agg, ok := f.byKey[key]
	if !ok {
		agg = &ProjectAggregate{
			DevelopmentProject: key.Project,
			Asset:              key.Asset,
			Country:            key.Country,
			Operator:           operator,
			Contractor:         contractor,
			FacilityType:       facilityType,
			WaterDepthCategory: waterDepth,
			LineLengthKm:       decimal.Zero,
		}
		if year != nil {
			y := *year
			agg.FirstYear = &y
			last := *year
			agg.LastYear = &last
		}
		f.byKey[key] = agg
		f.order = append(f.order, key)
		return agg
	}

	if year != nil {
		if agg.FirstYear == nil || *year < *agg.FirstYear {
			y := *year
			agg.FirstYear = &y
		}
		if agg.LastYear == nil || *year > *agg.LastYear {
			y := *year
			agg.LastYear = &y
		}
	}
	return agg
}

var projectColumns = []string{
	"development_project", "asset", "country",
	"operator", "contractor", "facility_type", "water_depth_category",
	"installation_count", "line_length_km", "unit_count",
	"first_year", "last_year", "batch_id",
}

var projectConflictCols = []string{"development_project", "asset", "country"}

func projectValues(aggs []*ProjectAggregate, batchID any) [][]any {
	rows := make([][]any, 0, len(aggs))
	for _, a := range aggs {
		rows = append(rows, []any{
			a.DevelopmentProject, a.Asset, a.Country,
			a.Operator, a.Contractor, a.FacilityType, a.WaterDepthCategory,
			a.InstallationCount, a.LineLengthKm, a.UnitCount,
			a.FirstYear, a.LastYear, batchID,
		})
	}
	return rows
}
