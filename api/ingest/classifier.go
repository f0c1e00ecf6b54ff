package ingest

import "strings"

// Sheet roles understood by the spreadsheet pipeline. Source workbooks drift:
// analysts rename sheets with trailing dates ("Subsea Lines 04.04.25") and the
// odd typo ("Upcomming awards"), so classification is prefix-based and
// case-insensitive rather than exact.
const (
	RoleInstallations = "installations"
	RoleLines         = "lines"
	RoleUnits         = "units"
	RoleAwards        = "awards"
)

var sheetRolePrefixes = map[string][]string{
	RoleInstallations: {"subsea installations", "installations"},
	RoleLines:         {"subsea lines", "lines", "pipelines"},
	RoleUnits:         {"subsea units", "units", "xmas trees"},
	RoleAwards:        {"upcomming awards", "upcoming awards"},
}

// ResolveSheet returns the first sheet whose lowercased name starts with any
// of the accepted prefixes, or "" when nothing matches. First match wins; no
// scoring or fuzzy distance.
func ResolveSheet(sheetNames []string, prefixes []string) string {
	for _, name := range sheetNames {
		lower := strings.ToLower(strings.TrimSpace(name))
		for _, prefix := range prefixes {
			if strings.HasPrefix(lower, strings.ToLower(prefix)) {
				return name
			}
		}
	}
	return ""
}

// ResolveRoleSheet resolves a logical role against the built-in prefix sets.
func ResolveRoleSheet(sheetNames []string, role string) string {
	prefixes, ok := sheetRolePrefixes[role]
	if !ok {
		return ""
	}
	return ResolveSheet(sheetNames, prefixes)
}
