package dash

import (
	"database/sql"
	"log"
	"net/http"
)

func StartDashService(db *sql.DB) {
	mux := http.NewServeMux()
	mux.HandleFunc("/dash/hello", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Hello from Dashboard Service"))
	})

	// Project analytics
	mux.Handle("/dash/projects/summary", http.HandlerFunc(GetProjectSummary(db)))
	mux.Handle("/dash/projects/by-country", http.HandlerFunc(GetProjectsByCountry(db)))
	mux.Handle("/dash/projects/year-range", http.HandlerFunc(GetProjectYearRange(db)))

	// Contracts
	mux.Handle("/dash/contracts/recent", http.HandlerFunc(GetRecentContracts(db)))

	log.Println("Dashboard Service started on :4143")
	err := http.ListenAndServe(":4143", mux)
	if err != nil {
		log.Fatalf("Dashboard Service failed: %v", err)
	}
}
