package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"SubseaIntel/api"
)

var sourceKindByFileType = map[string]SourceKind{
	"xlsx": SourceSpreadsheet,
	"xls":  SourceSpreadsheet,
	"pdf":  SourceDocument,
}

// UploadHandler accepts a multipart upload (fields: file, file_type), stores
// the original bytes to object storage, creates a pending import job and
// kicks processing off in the background. The caller gets a queued
// acknowledgement and polls job status afterwards; nothing is pushed.
func UploadHandler(p *Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("[INGEST-UPLOAD] Start %s %s", r.Method, r.URL.Path)
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("[INGEST-UPLOAD] Panic recovered: %v", rec)
				api.RespondWithError(w, http.StatusInternalServerError, "internal server error")
			}
			log.Printf("[INGEST-UPLOAD] Finished in %s", time.Since(start))
		}()

		if r.Method != http.MethodPost {
			api.RespondWithError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		if err := r.ParseMultipartForm(64 << 20); err != nil {
			api.RespondWithError(w, http.StatusBadRequest, "multipart parse error: "+err.Error())
			return
		}

		fileType := strings.ToLower(strings.TrimSpace(r.FormValue("file_type")))
		files := r.MultipartForm.File["file"]
		if len(files) == 0 {
			api.RespondWithError(w, http.StatusBadRequest, "no file uploaded")
			return
		}
		fh := files[0]
		if fileType == "" {
			fileType = strings.TrimPrefix(strings.ToLower(filepath.Ext(fh.Filename)), ".")
		}
		kind, ok := sourceKindByFileType[fileType]
		if !ok {
			api.RespondWithError(w, http.StatusBadRequest, "unsupported file_type: "+fileType)
			return
		}

		f, err := fh.Open()
		if err != nil {
			api.RespondWithError(w, http.StatusBadRequest, "open uploaded file: "+err.Error())
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			api.RespondWithError(w, http.StatusBadRequest, "read uploaded file: "+err.Error())
			return
		}

		sum := sha256.Sum256(data)
		fileHash := hex.EncodeToString(sum[:])

		bucket, key := "", ""
		if isStorageEnabled() {
			key = buildUploadKey(fileHash, fileType)
			bucket = p.store.Bucket()
			if err := p.store.Put(r.Context(), key, data, detectContentType(data)); err != nil {
				api.RespondWithError(w, http.StatusInternalServerError, "store upload: "+err.Error())
				return
			}
		} else {
			log.Printf("[INGEST-UPLOAD] S3 disabled by SUBSEA_S3_ENABLED; job %q will only be processable in-process", fh.Filename)
		}

		job, err := p.jobs.CreateJob(r.Context(), fh.Filename, fileType, kind, bucket, key)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, "create job: "+err.Error())
			return
		}
		log.Printf("[INGEST-UPLOAD] queued job=%s file=%q hash=%s kind=%s", job.ID, fh.Filename, fileHash[:12], kind)

		// Deferred execution: the request returns immediately and the job runs
		// to a terminal state on this one goroutine. The conditional claim in
		// ProcessJob keeps a racing sweeper from running it twice.
		go func(jobID uuid.UUID, payload []byte) {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
			defer cancel()
			if _, err := p.ProcessJob(ctx, jobID, payload); err != nil {
				log.Printf("[INGEST-UPLOAD] background processing job=%s: %v", jobID, err)
			}
		}(job.ID, data)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"queued":  true,
			"job_id":  job.ID,
			"status":  job.Status,
		})
	}
}

// JobStatusHandler serves GET /ingest/jobs?job_id=... for polling.
func JobStatusHandler(p *Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idStr := strings.TrimSpace(r.URL.Query().Get("job_id"))
		if idStr == "" {
			api.RespondWithError(w, http.StatusBadRequest, "job_id is required")
			return
		}
		jobID, err := uuid.Parse(idStr)
		if err != nil {
			api.RespondWithError(w, http.StatusBadRequest, "invalid job_id: "+err.Error())
			return
		}
		job, err := p.jobs.Get(r.Context(), jobID)
		if err == ErrJobNotFound {
			api.RespondWithError(w, http.StatusNotFound, "job not found")
			return
		}
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(job)
	}
}

// BatchListHandler serves GET /ingest/batches: the most recent import runs.
func BatchListHandler(p *Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobs, err := p.jobs.RecentJobs(r.Context(), 50)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"success": true, "batches": jobs})
	}
}
