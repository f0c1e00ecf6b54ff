package ingest

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"SubseaIntel/internal/config"
)

// Pipeline runs one import job to a terminal state: claim, parse, normalize,
// chunked upserts per source table, project aggregation, contract projection,
// final status with aggregate counts. One job runs on one worker invocation;
// the only shared mutable resource is the datastore, and all cross-batch
// consistency is delegated to its per-row upsert atomicity.
type Pipeline struct {
	jobs      *JobManager
	upserter  *ChunkedUpserter
	store     *FileStore
	extractor ContractExtractor
}

func NewPipeline(db Store, store *FileStore, extractor ContractExtractor) *Pipeline {
	return &Pipeline{
		jobs:      NewJobManager(db),
		upserter:  NewChunkedUpserter(db, config.ImportChunkSize),
		store:     store,
		extractor: extractor,
	}
}

func (p *Pipeline) Jobs() *JobManager { return p.jobs }

// ProcessJob is the single worker entry point. data carries the upload bytes
// when the caller still has them (the upload handler's fast path); when nil,
// the original file is fetched from object storage (the sweeper path). Setup
// failures (job missing, not claimable, object missing) return before any row
// is written; adapter failures transition the job to failed; row- and
// chunk-level degradation shows up only in the final counts.
func (p *Pipeline) ProcessJob(ctx context.Context, jobID uuid.UUID, data []byte) (*ImportJob, error) {
	job, err := p.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}

	claimed, err := p.jobs.Claim(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, fmt.Errorf("job %s is not pending (status %s)", jobID, job.Status)
	}
	start := time.Now()
	log.Printf("[INGEST] processing job=%s file=%q kind=%s", jobID, job.FileName, job.SourceKind)

	if data == nil {
		if job.StorageKey == "" {
			err := fmt.Errorf("no stored source file for job %s", jobID)
			p.markFailed(ctx, jobID, err)
			return nil, err
		}
		data, err = p.store.Get(ctx, job.StorageBucket, job.StorageKey)
		if err != nil {
			p.markFailed(ctx, jobID, err)
			return nil, err
		}
	}

	var total int
	var res UpsertResult
	switch job.SourceKind {
	case SourceDocument:
		total, res, err = p.runDocument(ctx, job, data)
	default:
		total, res, err = p.runWorkbook(ctx, job, data)
	}
	if err != nil {
		p.markFailed(ctx, jobID, err)
		return nil, err
	}

	if err := p.jobs.Complete(ctx, jobID, total, res.Imported, res.Skipped); err != nil {
		return nil, err
	}
	log.Printf("[INGEST] job=%s completed total=%d imported=%d skipped=%d in %s",
		jobID, total, res.Imported, res.Skipped, time.Since(start))
	return p.jobs.Get(ctx, jobID)
}

func (p *Pipeline) markFailed(ctx context.Context, jobID uuid.UUID, cause error) {
	log.Printf("[INGEST] job=%s failed: %v", jobID, cause)
	if err := p.jobs.Fail(ctx, jobID, cause); err != nil {
		log.Printf("[INGEST] job=%s could not record failure: %v", jobID, err)
	}
}

// runWorkbook drives the spreadsheet path: classify the four sheet roles,
// normalize each matched sheet's rows into its shape, bulk-upsert the source
// tables, then fold everything into project aggregates and forecast
// contracts. total counts the data rows read from matched sheets; rows the
// normalizer dropped for a blank project name are reflected only by absence.
func (p *Pipeline) runWorkbook(ctx context.Context, job *ImportJob, data []byte) (int, UpsertResult, error) {
	wb, err := OpenWorkbook(data)
	if err != nil {
		return 0, UpsertResult{}, fmt.Errorf("parse workbook %q: %w", job.FileName, err)
	}
	names := wb.SheetNames()

	var batch BatchRows
	total := 0

	if sheet := ResolveRoleSheet(names, RoleInstallations); sheet != "" {
		for _, obj := range wb.ReadSheet(sheet) {
			total++
			if r := NormalizeInstallationRow(obj, job.ID); r != nil {
				batch.Installations = append(batch.Installations, *r)
			}
		}
	}
	if sheet := ResolveRoleSheet(names, RoleLines); sheet != "" {
		for _, obj := range wb.ReadSheet(sheet) {
			total++
			if r := NormalizeLineRow(obj, job.ID); r != nil {
				batch.Lines = append(batch.Lines, *r)
			}
		}
	}
	if sheet := ResolveRoleSheet(names, RoleUnits); sheet != "" {
		for _, obj := range wb.ReadSheet(sheet) {
			total++
			if r := NormalizeUnitRow(obj, job.ID); r != nil {
				batch.Units = append(batch.Units, *r)
			}
		}
	}
	if sheet := ResolveRoleSheet(names, RoleAwards); sheet != "" {
		for _, obj := range wb.ReadSheet(sheet) {
			total++
			if r := NormalizeAwardRow(obj, job.ID); r != nil {
				batch.Awards = append(batch.Awards, *r)
			}
		}
	}

	var res UpsertResult
	res = res.add(p.upserter.Upsert(ctx, "public.subsea_installations", installationColumns, installationConflictCols, ConflictUpdate, installationValues(batch.Installations)))
	res = res.add(p.upserter.Upsert(ctx, "public.subsea_lines", lineColumns, lineConflictCols, ConflictUpdate, lineValues(batch.Lines)))
	res = res.add(p.upserter.Upsert(ctx, "public.subsea_units", unitColumns, unitConflictCols, ConflictUpdate, unitValues(batch.Units)))
	res = res.add(p.upserter.Upsert(ctx, "public.forecast_awards", awardColumns, awardConflictCols, ConflictUpdate, awardValues(batch.Awards)))

	// Project counters are replaced, not incremented, on conflict: the batch's
	// freshly computed aggregate is the new truth for every key it touches, so
	// re-importing the same file never double-counts.
	aggs := AggregateProjects(batch)
	aggRes := p.upserter.Upsert(ctx, "public.projects", projectColumns, projectConflictCols, ConflictUpdate, projectValues(aggs, job.ID))
	log.Printf("[INGEST] job=%s projects merged=%d upserted=%d skipped=%d", job.ID, len(aggs), aggRes.Imported, aggRes.Skipped)

	contracts := ForecastContracts(job.ID, batch.Awards)
	cRes := p.upserter.Upsert(ctx, "public.contracts", contractColumns, contractConflictCols, ConflictUpdate, contractValues(contracts))
	log.Printf("[INGEST] job=%s forecast contracts derived=%d upserted=%d skipped=%d", job.ID, len(contracts), cRes.Imported, cRes.Skipped)

	return total, res, nil
}

// runDocument drives the AI-extraction path: the adapter returns rows in the
// agreed contract-award shape, which land in the contracts table under
// deterministic doc- external ids.
func (p *Pipeline) runDocument(ctx context.Context, job *ImportJob, data []byte) (int, UpsertResult, error) {
	if p.extractor == nil {
		return 0, UpsertResult{}, fmt.Errorf("document extraction is not configured")
	}
	rows, err := p.extractor.ExtractContractRows(ctx, data, job.FileName)
	if err != nil {
		return 0, UpsertResult{}, fmt.Errorf("extract %q: %w", job.FileName, err)
	}

	contracts := make([]ContractRow, 0, len(rows))
	for i := range rows {
		if c := extractedContract(&rows[i], job.ID); c != nil {
			contracts = append(contracts, *c)
		}
	}
	res := p.upserter.Upsert(ctx, "public.contracts", contractColumns, contractConflictCols, ConflictUpdate, contractValues(contracts))
	log.Printf("[INGEST] job=%s extracted rows=%d contracts=%d upserted=%d skipped=%d",
		job.ID, len(rows), len(contracts), res.Imported, res.Skipped)
	return len(rows), res, nil
}

func extractedContract(r *ExtractedContractRow, batchID uuid.UUID) *ContractRow {
	project := strings.TrimSpace(r.DevelopmentProject)
	if project == "" || project == UnknownProject {
		return nil
	}
	awardDate, err := time.Parse("2006-01-02", strings.TrimSpace(r.AwardDate))
	if err != nil {
		return nil
	}

	name := strings.TrimSpace(r.ContractName)
	if name == "" {
		name = project
	}
	var value decimal.NullDecimal
	if r.ValueMUSD > 0 {
		value = decimal.NewNullDecimal(decimal.NewFromFloat(r.ValueMUSD))
	}

	return &ContractRow{
		ExternalID:         ContractExternalID("doc", awardDate.Year(), project, r.Contractor),
		ContractName:       name,
		DevelopmentProject: project,
		Asset:              cellString(r.Asset),
		Country:            cellString(r.Country),
		Operator:           cellString(r.Operator),
		Contractor:         cellString(r.Contractor),
		Scope:              cellString(r.Scope),
		Status:             "Awarded",
		AwardDate:          awardDate,
		Year:               awardDate.Year(),
		ValueMUSD:          value,
		BatchID:            batchID,
	}
}
