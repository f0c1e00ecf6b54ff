package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveSheetPrefixDrift(t *testing.T) {
	sheets := []string{"Overview", "Upcomming awards 04.04.25", "Notes"}
	got := ResolveSheet(sheets, []string{"Upcomming awards", "Upcoming awards"})
	assert.Equal(t, "Upcomming awards 04.04.25", got)
}

func TestResolveSheetCaseInsensitive(t *testing.T) {
	sheets := []string{"SUBSEA LINES Q1", "Units"}
	assert.Equal(t, "SUBSEA LINES Q1", ResolveSheet(sheets, []string{"subsea lines"}))
}

func TestResolveSheetFirstMatchWins(t *testing.T) {
	sheets := []string{"Lines old", "Lines new"}
	assert.Equal(t, "Lines old", ResolveSheet(sheets, []string{"lines"}))
}

func TestResolveSheetNoMatch(t *testing.T) {
	assert.Equal(t, "", ResolveSheet([]string{"Summary", "Charts"}, []string{"lines"}))
	assert.Equal(t, "", ResolveSheet(nil, []string{"lines"}))
}

func TestResolveRoleSheet(t *testing.T) {
	sheets := []string{
		"Subsea Installations 2025",
		"Pipelines and Umbilicals",
		"Xmas Trees",
		"Upcomming awards 04.04.25",
	}
	assert.Equal(t, "Subsea Installations 2025", ResolveRoleSheet(sheets, RoleInstallations))
	assert.Equal(t, "Pipelines and Umbilicals", ResolveRoleSheet(sheets, RoleLines))
	assert.Equal(t, "Xmas Trees", ResolveRoleSheet(sheets, RoleUnits))
	assert.Equal(t, "Upcomming awards 04.04.25", ResolveRoleSheet(sheets, RoleAwards))
	assert.Equal(t, "", ResolveRoleSheet(sheets, "no-such-role"))
}
