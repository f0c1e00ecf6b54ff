package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strp(s string) *string   { return &s }
func intp(n int) *int         { return &n }
func fltp(f float64) *float64 { return &f }

func TestAggregateInstallationsSameKey(t *testing.T) {
	batch := BatchRows{
		Installations: []InstallationRow{
			{Year: intp(2024), DevelopmentProject: "Alpha", Asset: strp("A1"), Country: strp("NO"), InstallationCount: intp(3)},
			{Year: intp(2025), DevelopmentProject: "Alpha", Asset: strp("A1"), Country: strp("NO"), InstallationCount: intp(2)},
		},
	}
	aggs := AggregateProjects(batch)
	require.Len(t, aggs, 1)

	a := aggs[0]
	assert.Equal(t, "Alpha", a.DevelopmentProject)
	assert.Equal(t, "A1", a.Asset)
	assert.Equal(t, "NO", a.Country)
	assert.Equal(t, 5, a.InstallationCount)
	require.NotNil(t, a.FirstYear)
	require.NotNil(t, a.LastYear)
	assert.Equal(t, 2024, *a.FirstYear)
	assert.Equal(t, 2025, *a.LastYear)
}

func TestAggregateAcrossShapes(t *testing.T) {
	batch := BatchRows{
		Installations: []InstallationRow{
			{Year: intp(2024), DevelopmentProject: "Alpha", Asset: strp("A1"), Country: strp("NO"),
				Operator: strp("Equinor"), FacilityType: strp("Template"), InstallationCount: intp(2)},
		},
		Lines: []LineRow{
			{Year: intp(2023), DevelopmentProject: "Alpha", Asset: strp("A1"), Country: strp("NO"), LengthKm: fltp(12.5)},
			{Year: intp(2026), DevelopmentProject: "Alpha", Asset: strp("A1"), Country: strp("NO"), LengthKm: fltp(7.5)},
		},
		Units: []UnitRow{
			{DevelopmentProject: "Alpha", Asset: strp("A1"), Country: strp("NO"), UnitCount: intp(4)},
		},
		Awards: []AwardRow{
			{Year: intp(2028), DevelopmentProject: "Alpha", Asset: strp("A1"), Country: strp("NO")},
		},
	}
	aggs := AggregateProjects(batch)
	require.Len(t, aggs, 1)

	a := aggs[0]
	assert.Equal(t, 2, a.InstallationCount)
	assert.Equal(t, 4, a.UnitCount)
	assert.Equal(t, "20", a.LineLengthKm.String())
	// Awards widen the range but never touch a counter.
	assert.Equal(t, 2023, *a.FirstYear)
	assert.Equal(t, 2028, *a.LastYear)
	// First-seen descriptive fields win.
	require.NotNil(t, a.Operator)
	assert.Equal(t, "Equinor", *a.Operator)
	require.NotNil(t, a.FacilityType)
	assert.Equal(t, "Template", *a.FacilityType)
}

func TestAggregateFirstSeenDescriptiveFieldsWin(t *testing.T) {
	batch := BatchRows{
		Installations: []InstallationRow{
			{Year: intp(2024), DevelopmentProject: "Alpha", Asset: strp("A1"), Country: strp("NO"), Operator: strp("Equinor")},
			{Year: intp(2025), DevelopmentProject: "Alpha", Asset: strp("A1"), Country: strp("NO"), Operator: strp("Shell")},
		},
	}
	aggs := AggregateProjects(batch)
	require.Len(t, aggs, 1)
	require.NotNil(t, aggs[0].Operator)
	assert.Equal(t, "Equinor", *aggs[0].Operator)
}

func TestAggregateDistinctKeys(t *testing.T) {
	batch := BatchRows{
		Installations: []InstallationRow{
			{Year: intp(2024), DevelopmentProject: "Alpha", Asset: strp("A1"), Country: strp("NO"), InstallationCount: intp(1)},
			{Year: intp(2024), DevelopmentProject: "Alpha", Asset: strp("A2"), Country: strp("NO"), InstallationCount: intp(1)},
			{Year: intp(2024), DevelopmentProject: "Alpha", Asset: strp("A1"), Country: strp("UK"), InstallationCount: intp(1)},
		},
	}
	aggs := AggregateProjects(batch)
	assert.Len(t, aggs, 3)
	for _, a := range aggs {
		assert.Equal(t, 1, a.InstallationCount)
	}
}

func TestAggregateRowsWithoutYear(t *testing.T) {
	batch := BatchRows{
		Units: []UnitRow{
			{DevelopmentProject: "Beta", Asset: strp("B1"), Country: strp("BR"), UnitCount: intp(2)},
		},
	}
	aggs := AggregateProjects(batch)
	require.Len(t, aggs, 1)
	assert.Nil(t, aggs[0].FirstYear)
	assert.Nil(t, aggs[0].LastYear)
	assert.Equal(t, 2, aggs[0].UnitCount)
}

func TestAggregateYearInvariant(t *testing.T) {
	batch := BatchRows{
		Lines: []LineRow{
			{Year: intp(2027), DevelopmentProject: "Gamma", Asset: strp("G1"), Country: strp("AU"), LengthKm: fltp(1)},
			{Year: intp(2021), DevelopmentProject: "Gamma", Asset: strp("G1"), Country: strp("AU"), LengthKm: fltp(1)},
			{Year: intp(2024), DevelopmentProject: "Gamma", Asset: strp("G1"), Country: strp("AU"), LengthKm: fltp(1)},
		},
	}
	aggs := AggregateProjects(batch)
	require.Len(t, aggs, 1)
	assert.LessOrEqual(t, *aggs[0].FirstYear, *aggs[0].LastYear)
	assert.Equal(t, 2021, *aggs[0].FirstYear)
	assert.Equal(t, 2027, *aggs[0].LastYear)
}
