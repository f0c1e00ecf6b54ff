package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrJobNotFound = errors.New("import job not found")

// Store is the slice of pgxpool.Pool the job manager needs.
type Store interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// JobManager owns the import-job state machine: pending → processing →
// completed | failed. The pending→processing transition is a conditional
// UPDATE, so when two workers race for the same job exactly one observes a
// row change and the loser backs off. Completed and failed are terminal;
// every mutation below guards on the current status, so a terminal row is
// never touched again. There is no lease or heartbeat: a worker crash leaves
// the job in processing until an operator resets it.
type JobManager struct {
	db Store
}

func NewJobManager(db Store) *JobManager {
	return &JobManager{db: db}
}

const jobColumns = `job_id, file_name, file_type, source_kind, storage_bucket, storage_key,
	status, total_records, imported_records, skipped_records,
	COALESCE(error_message, ''), created_at, started_at, completed_at`

func (m *JobManager) CreateJob(ctx context.Context, fileName, fileType string, kind SourceKind, bucket, key string) (*ImportJob, error) {
	job := &ImportJob{
		ID:            uuid.New(),
		FileName:      fileName,
		FileType:      fileType,
		SourceKind:    kind,
		StorageBucket: bucket,
		StorageKey:    key,
		Status:        JobPending,
		CreatedAt:     time.Now().UTC(),
	}
	_, err := m.db.Exec(ctx, `
		INSERT INTO public.import_jobs
		(job_id, file_name, file_type, source_kind, storage_bucket, storage_key, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, job.ID, job.FileName, job.FileType, job.SourceKind, job.StorageBucket, job.StorageKey, job.Status, job.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert import job: %w", err)
	}
	return job, nil
}

// Claim moves a pending job to processing. Returns false when the job is not
// currently pending (already claimed, terminal, or missing).
func (m *JobManager) Claim(ctx context.Context, jobID uuid.UUID) (bool, error) {
	tag, err := m.db.Exec(ctx, `
		UPDATE public.import_jobs
		SET status=$1, started_at=now()
		WHERE job_id=$2 AND status=$3
	`, JobProcessing, jobID, JobPending)
	if err != nil {
		return false, fmt.Errorf("claim job %s: %w", jobID, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (m *JobManager) Complete(ctx context.Context, jobID uuid.UUID, total, imported, skipped int) error {
	tag, err := m.db.Exec(ctx, `
		UPDATE public.import_jobs
		SET status=$1, total_records=$2, imported_records=$3, skipped_records=$4, completed_at=now()
		WHERE job_id=$5 AND status=$6
	`, JobCompleted, total, imported, skipped, jobID, JobProcessing)
	if err != nil {
		return fmt.Errorf("complete job %s: %w", jobID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("complete job %s: not in processing state", jobID)
	}
	return nil
}

func (m *JobManager) Fail(ctx context.Context, jobID uuid.UUID, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	if len(msg) > 2000 {
		msg = msg[:2000]
	}
	tag, err := m.db.Exec(ctx, `
		UPDATE public.import_jobs
		SET status=$1, error_message=$2, completed_at=now()
		WHERE job_id=$3 AND status=$4
	`, JobFailed, msg, jobID, JobProcessing)
	if err != nil {
		return fmt.Errorf("fail job %s: %w", jobID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("fail job %s: not in processing state", jobID)
	}
	return nil
}

func (m *JobManager) Get(ctx context.Context, jobID uuid.UUID) (*ImportJob, error) {
	row := m.db.QueryRow(ctx, `SELECT `+jobColumns+` FROM public.import_jobs WHERE job_id=$1`, jobID)
	job, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", jobID, err)
	}
	return job, nil
}

// PendingJobs lists jobs still pending after graceDuration, oldest first. The
// cron sweeper uses it to pick up jobs whose in-process goroutine never ran
// (e.g. the service restarted between upload and processing).
func (m *JobManager) PendingJobs(ctx context.Context, grace time.Duration, limit int) ([]*ImportJob, error) {
	rows, err := m.db.Query(ctx, `
		SELECT `+jobColumns+`
		FROM public.import_jobs
		WHERE status=$1 AND created_at < now() - $2::interval
		ORDER BY created_at ASC
		LIMIT $3
	`, JobPending, fmt.Sprintf("%d seconds", int(grace.Seconds())), limit)
	if err != nil {
		return nil, fmt.Errorf("list pending jobs: %w", err)
	}
	defer rows.Close()
	return scanJobs(rows)
}

func (m *JobManager) RecentJobs(ctx context.Context, limit int) ([]*ImportJob, error) {
	rows, err := m.db.Query(ctx, `
		SELECT `+jobColumns+`
		FROM public.import_jobs
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent jobs: %w", err)
	}
	defer rows.Close()
	return scanJobs(rows)
}

func scanJob(row pgx.Row) (*ImportJob, error) {
	var job ImportJob
	err := row.Scan(
		&job.ID, &job.FileName, &job.FileType, &job.SourceKind, &job.StorageBucket, &job.StorageKey,
		&job.Status, &job.TotalRecords, &job.ImportedRecords, &job.SkippedRecords,
		&job.ErrorMessage, &job.CreatedAt, &job.StartedAt, &job.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func scanJobs(rows pgx.Rows) ([]*ImportJob, error) {
	out := make([]*ImportJob, 0)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}
