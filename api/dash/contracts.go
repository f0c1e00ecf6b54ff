package dash

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"

	"SubseaIntel/api"
	"SubseaIntel/api/utils"
)

// GetRecentContracts lists contract rows newest first, forecast and awarded
// side by side (both land in the same table under different external ids).
// Paginated via ?page= and ?limit=.
func GetRecentContracts(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := utils.ExtractPagination(r)
		if err != nil {
			api.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		total, err := utils.CountTotal(r.Context(), db, `SELECT COUNT(*) FROM public.contracts`)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		params.SetPaginationStats(total)

		rows, err := db.QueryContext(r.Context(), `
			SELECT external_id, contract_name, development_project,
			       COALESCE(contractor, ''), COALESCE(country, ''),
			       status, award_date, award_year, value_musd
			FROM public.contracts
			ORDER BY award_date DESC, external_id
			LIMIT $1 OFFSET $2
		`, params.Limit, params.Offset)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, "recent contracts query: "+err.Error())
			return
		}
		defer rows.Close()

		out := make([]map[string]interface{}, 0)
		for rows.Next() {
			var (
				externalID, name, project, contractor, country, status string
				awardDate                                              sql.NullTime
				year                                                   int
				value                                                  sql.NullFloat64
			)
			if err := rows.Scan(&externalID, &name, &project, &contractor, &country, &status, &awardDate, &year, &value); err != nil {
				log.Printf("[DASH] scan recent contracts: %v", err)
				continue
			}
			item := map[string]interface{}{
				"external_id":         externalID,
				"contract_name":       name,
				"development_project": project,
				"contractor":          contractor,
				"country":             country,
				"status":              status,
				"award_year":          year,
			}
			if awardDate.Valid {
				item["award_date"] = awardDate.Time.Format("2006-01-02")
			}
			if value.Valid {
				item["value_musd"] = value.Float64
			}
			out = append(out, item)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "contracts": out, "pagination": params})
	}
}
