package ingest

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SourceKind string

const (
	SourceSpreadsheet SourceKind = "spreadsheet"
	SourceDocument    SourceKind = "extracted-document"
)

type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// ImportJob is one row of public.import_jobs: one ingestion run of one
// uploaded file. Counts and error_message are written only by the worker
// that claimed the job; completed/failed rows are never mutated again.
type ImportJob struct {
	ID              uuid.UUID  `json:"job_id"`
	FileName        string     `json:"file_name"`
	FileType        string     `json:"file_type"` // xlsx | xls | pdf
	SourceKind      SourceKind `json:"source_kind"`
	StorageBucket   string     `json:"storage_bucket,omitempty"`
	StorageKey      string     `json:"storage_key,omitempty"`
	Status          JobStatus  `json:"status"`
	TotalRecords    int        `json:"total_records"`
	ImportedRecords int        `json:"imported_records"`
	SkippedRecords  int        `json:"skipped_records"`
	ErrorMessage    string     `json:"error_message,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// InstallationRow is one fact from an "installations" sheet: how many subsea
// facilities of one type a development installs in one year. Nil fields were
// blank or unparseable in the source cell.
type InstallationRow struct {
	Year               *int
	DevelopmentProject string
	Asset              *string
	Country            *string
	Operator           *string
	Contractor         *string
	FacilityType       *string
	WaterDepthCategory *string
	InstallationCount  *int
	BatchID            uuid.UUID
}

// LineRow is one fact from a "lines" sheet (flowlines, umbilicals, risers).
type LineRow struct {
	Year               *int
	DevelopmentProject string
	Asset              *string
	Country            *string
	Operator           *string
	Contractor         *string
	LineType           *string
	LengthKm           *float64
	BatchID            uuid.UUID
}

// UnitRow is one fact from a "units" sheet (trees, manifolds, wellheads).
type UnitRow struct {
	Year               *int
	DevelopmentProject string
	Asset              *string
	Country            *string
	Operator           *string
	Contractor         *string
	UnitType           *string
	UnitCount          *int
	BatchID            uuid.UUID
}

// AwardRow is one forecast-award fact from an "upcoming awards" sheet. It
// contributes to the project year range only, never to a counter.
type AwardRow struct {
	Year               *int
	DevelopmentProject string
	Asset              *string
	Country            *string
	Operator           *string
	Contractor         *string
	ContractType       *string
	Scope              *string
	EstimatedValueMUSD *float64
	BatchID            uuid.UUID
}

// BatchRows holds everything the normalizer produced for one batch, tagged by
// shape. Held in memory for the duration of one ProcessJob call only.
type BatchRows struct {
	Installations []InstallationRow
	Lines         []LineRow
	Units         []UnitRow
	Awards        []AwardRow
}

// ProjectAggregate is the merged entity for one (development_project, asset,
// country) key. Descriptive fields come from the first row observed for the
// key; counters and the year range accumulate across all four shapes.
type ProjectAggregate struct {
	DevelopmentProject string
	Asset              string
	Country            string
	Operator           *string
	Contractor         *string
	FacilityType       *string
	WaterDepthCategory *string
	InstallationCount  int
	LineLengthKm       decimal.Decimal
	UnitCount          int
	FirstYear          *int
	LastYear           *int
}

// ContractRow is a row of public.contracts. Forecast awards project into it
// with fc- external ids; document-extracted awarded contracts land in the
// same table with doc- ids. ExternalID is the conflict key, so repeated
// imports of the same source row overwrite rather than duplicate.
type ContractRow struct {
	ExternalID         string
	ContractName       string
	DevelopmentProject string
	Asset              *string
	Country            *string
	Operator           *string
	Contractor         *string
	ContractType       *string
	Scope              *string
	Status             string // Forecast | Awarded
	AwardDate          time.Time
	Year               int
	ValueMUSD          decimal.NullDecimal
	BatchID            uuid.UUID
}
