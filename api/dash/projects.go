package dash

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"

	"SubseaIntel/api"
)

// GetProjectSummary returns fleet-wide totals over the aggregated projects
// table: project count, installation/unit totals and cumulative line length.
func GetProjectSummary(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			projectCount  int
			installations sql.NullInt64
			units         sql.NullInt64
			lineKm        sql.NullFloat64
			firstYear     sql.NullInt64
			lastYear      sql.NullInt64
		)
		err := db.QueryRowContext(r.Context(), `
			SELECT COUNT(*),
			       COALESCE(SUM(installation_count), 0),
			       COALESCE(SUM(unit_count), 0),
			       COALESCE(SUM(line_length_km), 0),
			       MIN(first_year),
			       MAX(last_year)
			FROM public.projects
		`).Scan(&projectCount, &installations, &units, &lineKm, &firstYear, &lastYear)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, "project summary query: "+err.Error())
			return
		}

		resp := map[string]interface{}{
			"success":            true,
			"project_count":      projectCount,
			"installation_count": installations.Int64,
			"unit_count":         units.Int64,
			"line_length_km":     lineKm.Float64,
		}
		if firstYear.Valid {
			resp["first_year"] = firstYear.Int64
		}
		if lastYear.Valid {
			resp["last_year"] = lastYear.Int64
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}

// GetProjectsByCountry groups the project aggregates per country.
func GetProjectsByCountry(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := db.QueryContext(r.Context(), `
			SELECT COALESCE(NULLIF(country, ''), 'Unknown') AS country,
			       COUNT(*),
			       COALESCE(SUM(installation_count), 0),
			       COALESCE(SUM(unit_count), 0),
			       COALESCE(SUM(line_length_km), 0)
			FROM public.projects
			GROUP BY 1
			ORDER BY 2 DESC
		`)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, "projects by country query: "+err.Error())
			return
		}
		defer rows.Close()

		out := make([]map[string]interface{}, 0)
		for rows.Next() {
			var (
				country       string
				projects      int
				installations int64
				units         int64
				lineKm        float64
			)
			if err := rows.Scan(&country, &projects, &installations, &units, &lineKm); err != nil {
				log.Printf("[DASH] scan projects by country: %v", err)
				continue
			}
			out = append(out, map[string]interface{}{
				"country":            country,
				"project_count":      projects,
				"installation_count": installations,
				"unit_count":         units,
				"line_length_km":     lineKm,
			})
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "countries": out})
	}
}

// GetProjectYearRange returns per-project activity windows, widest first.
func GetProjectYearRange(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := db.QueryContext(r.Context(), `
			SELECT development_project, asset, country, first_year, last_year
			FROM public.projects
			WHERE first_year IS NOT NULL AND last_year IS NOT NULL
			ORDER BY (last_year - first_year) DESC, development_project
			LIMIT 100
		`)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, "year range query: "+err.Error())
			return
		}
		defer rows.Close()

		out := make([]map[string]interface{}, 0)
		for rows.Next() {
			var project, asset, country string
			var firstYear, lastYear int
			if err := rows.Scan(&project, &asset, &country, &firstYear, &lastYear); err != nil {
				log.Printf("[DASH] scan year range: %v", err)
				continue
			}
			out = append(out, map[string]interface{}{
				"development_project": project,
				"asset":               asset,
				"country":             country,
				"first_year":          firstYear,
				"last_year":           lastYear,
			})
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "projects": out})
	}
}
