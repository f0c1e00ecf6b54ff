package jobs

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"

	"SubseaIntel/api/ingest"
	"SubseaIntel/internal/config"
)

// SweepConfig holds configuration for the stranded-import sweeper.
type SweepConfig struct {
	Schedule  string // cron schedule
	BatchSize int    // max jobs claimed per sweep
	TimeZone  string
}

func NewDefaultSweepConfig() *SweepConfig {
	schedule := os.Getenv("IMPORT_SWEEP_SCHEDULE")
	if schedule == "" {
		schedule = config.DefaultSweepSchedule
	}

	batchSize := config.SweepBatchSize
	if bs := os.Getenv("IMPORT_SWEEP_BATCH_SIZE"); bs != "" {
		if parsed, err := strconv.Atoi(bs); err == nil && parsed > 0 {
			batchSize = parsed
		}
	}

	return &SweepConfig{
		Schedule:  schedule,
		BatchSize: batchSize,
		TimeZone:  config.DefaultTimeZone,
	}
}

// RunImportSweeper schedules the pending-job sweep. An upload normally runs
// on the handler's own goroutine; the sweep exists for jobs that outlived
// their process (restart between upload and processing). It only ever looks
// at pending jobs — a job stuck in processing after a crash needs a manual
// reset, there is no lease to expire.
func RunImportSweeper(cfg *SweepConfig, db *pgxpool.Pool) error {
	if cfg.Schedule == "" {
		cfg.Schedule = config.DefaultSweepSchedule
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = config.SweepBatchSize
	}
	if cfg.TimeZone == "" {
		cfg.TimeZone = config.DefaultTimeZone
	}

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		loc = time.UTC
		log.Printf("[SWEEP] invalid timezone %s, falling back to UTC: %v", cfg.TimeZone, err)
	}

	var extractor ingest.ContractExtractor
	if client, err := ingest.NewExtractionClient(); err == nil {
		extractor = client
	}
	pipeline := ingest.NewPipeline(db, ingest.NewFileStore(), extractor)

	c := cron.New(cron.WithLocation(loc))
	_, err = c.AddFunc(cfg.Schedule, func() {
		if err := SweepPendingImports(pipeline, cfg.BatchSize); err != nil {
			log.Printf("ERROR: import sweep failed: %v", err)
		}
	})
	if err != nil {
		return err
	}

	c.Start()
	log.Printf("[AUDIT] Import sweeper started: %s (%s)", cfg.Schedule, cfg.TimeZone)
	return nil
}

// SweepPendingImports claims and runs stranded pending jobs, oldest first.
// Each job is processed to a terminal state before the next is claimed; the
// conditional pending→processing transition means a sweep racing an upload
// handler's goroutine loses cleanly.
func SweepPendingImports(pipeline *ingest.Pipeline, batchSize int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	pending, err := pipeline.Jobs().PendingJobs(ctx, config.SweepGraceSeconds*time.Second, batchSize)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}
	log.Printf("[SWEEP] found %d stranded pending import(s)", len(pending))

	for _, job := range pending {
		if _, err := pipeline.ProcessJob(ctx, job.ID, nil); err != nil {
			log.Printf("[SWEEP] job=%s: %v", job.ID, err)
		}
	}
	return nil
}
