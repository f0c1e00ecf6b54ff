package ingest

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCellString(t *testing.T) {
	assert.Nil(t, cellString(nil))
	assert.Nil(t, cellString(""))
	assert.Nil(t, cellString("   "))

	got := cellString("  Ormen Lange  ")
	require.NotNil(t, got)
	assert.Equal(t, "Ormen Lange", *got)

	num := cellString(42)
	require.NotNil(t, num)
	assert.Equal(t, "42", *num)
}

func TestCellFloat(t *testing.T) {
	assert.Nil(t, cellFloat(nil))
	assert.Nil(t, cellFloat("n/a"))
	assert.Nil(t, cellFloat("  "))

	got := cellFloat("12.5")
	require.NotNil(t, got)
	assert.Equal(t, 12.5, *got)

	grouped := cellFloat("1,250.75")
	require.NotNil(t, grouped)
	assert.Equal(t, 1250.75, *grouped)

	native := cellFloat(3.25)
	require.NotNil(t, native)
	assert.Equal(t, 3.25, *native)
}

func TestCellIntRounds(t *testing.T) {
	cases := map[string]int{
		"3":    3,
		"2.4":  2,
		"2.5":  3,
		"-1.5": -2,
	}
	for in, want := range cases {
		got := cellInt(in)
		require.NotNil(t, got, "input %q", in)
		assert.Equal(t, want, *got, "input %q", in)
	}
	assert.Nil(t, cellInt("three"))
}

func TestNormalizeInstallationRow(t *testing.T) {
	batchID := uuid.New()
	row := map[string]any{
		"Year":                "2024",
		"Development Project": " Alpha ",
		"Asset":               "A1",
		"Country":             "NO",
		"Operator":            "Equinor",
		"Facility Type":       "Template",
		"Installations":       "3",
	}
	got := NormalizeInstallationRow(row, batchID)
	require.NotNil(t, got)
	assert.Equal(t, "Alpha", got.DevelopmentProject)
	require.NotNil(t, got.Year)
	assert.Equal(t, 2024, *got.Year)
	require.NotNil(t, got.InstallationCount)
	assert.Equal(t, 3, *got.InstallationCount)
	assert.Nil(t, got.Contractor)
	assert.Equal(t, batchID, got.BatchID)
}

func TestNormalizeDropsBlankProject(t *testing.T) {
	batchID := uuid.New()
	blank := map[string]any{
		"Year":                "2024",
		"Development Project": "   ",
		"Installations":       "3",
	}
	assert.Nil(t, NormalizeInstallationRow(blank, batchID))
	assert.Nil(t, NormalizeLineRow(blank, batchID))
	assert.Nil(t, NormalizeUnitRow(blank, batchID))
	assert.Nil(t, NormalizeAwardRow(blank, batchID))

	missing := map[string]any{"Year": "2024"}
	assert.Nil(t, NormalizeAwardRow(missing, batchID))
}

func TestNormalizeProjectFallbackColumns(t *testing.T) {
	got := NormalizeLineRow(map[string]any{
		"Project":     "Beta",
		"Length (km)": "10.5",
	}, uuid.New())
	require.NotNil(t, got)
	assert.Equal(t, "Beta", got.DevelopmentProject)
	require.NotNil(t, got.LengthKm)
	assert.Equal(t, 10.5, *got.LengthKm)
	assert.Nil(t, got.Year)
}

func TestNormalizeMalformedCellsBecomeNil(t *testing.T) {
	got := NormalizeUnitRow(map[string]any{
		"Development Project": "Gamma",
		"Year":                "TBD",
		"Units":               "unknown",
	}, uuid.New())
	require.NotNil(t, got)
	assert.Nil(t, got.Year)
	assert.Nil(t, got.UnitCount)
}
