package ingest

import (
	"log"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
)

// StartIngestService runs the ingestion HTTP service on its own port, same
// pattern as the other domain services. The pipeline gets its pool by
// constructor injection here; nothing in this package reaches for a global.
func StartIngestService(pool *pgxpool.Pool) {
	var extractor ContractExtractor
	if client, err := NewExtractionClient(); err != nil {
		log.Printf("[INGEST] document extraction disabled: %v", err)
	} else {
		extractor = client
	}

	pipeline := NewPipeline(pool, NewFileStore(), extractor)

	mux := http.NewServeMux()
	mux.HandleFunc("/ingest/hello", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Hello from Ingest Service"))
	})
	mux.Handle("/ingest/upload", UploadHandler(pipeline))
	mux.Handle("/ingest/jobs", JobStatusHandler(pipeline))
	mux.Handle("/ingest/batches", BatchListHandler(pipeline))

	log.Println("Ingest Service started on :7143")
	if err := http.ListenAndServe(":7143", mux); err != nil {
		log.Fatalf("Ingest Service failed: %v", err)
	}
}
