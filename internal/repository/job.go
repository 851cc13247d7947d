package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/hrdtools/employee-importer/constants"
	"github.com/hrdtools/employee-importer/internal/common"
	"github.com/hrdtools/employee-importer/internal/entity"
)

var jobsTable = goqu.T("jobs")

type JobRepository interface {
	Create(ctx context.Context, meta entity.JobMetadata) (*entity.Job, error)
	Get(ctx context.Context, id uuid.UUID) (*entity.Job, error)
	// SetStatus transitions the job status and stamps processed_at when the
	// status is terminal. Callers drive transitions in lifecycle order; the
	// ledger does not validate ordering.
	SetStatus(ctx context.Context, id uuid.UUID, status constants.JobStatus) error
}

type jobRepo struct {
	db  *goqu.Database
	log *slog.Logger
}

func NewJobRepository(s *Store, log *slog.Logger) JobRepository {
	return &jobRepo{db: s.DB, log: log}
}

type jobRow struct {
	ID           string         `db:"id"`
	Status       string         `db:"status"`
	Filename     string         `db:"filename"`
	OriginalName string         `db:"original_name"`
	Metadata     sql.NullString `db:"metadata"`
	CreatedAt    time.Time      `db:"created_at"`
	ProcessedAt  sql.NullTime   `db:"processed_at"`
}

func (r *jobRepo) Create(ctx context.Context, meta entity.JobMetadata) (*entity.Job, error) {
	id := uuid.New()
	now := time.Now().UTC()

	var metadata any
	if len(meta.Extra) > 0 {
		metadata = string(meta.Extra)
	}

	_, err := r.db.Insert(jobsTable).Prepared(true).Rows(goqu.Record{
		"id":            id.String(),
		"status":        string(constants.JobStatusPending),
		"filename":      meta.Filename,
		"original_name": meta.OriginalName,
		"metadata":      metadata,
		"created_at":    now,
	}).Executor().ExecContext(ctx)
	if err != nil {
		r.log.Error("job create failed", "filename", meta.Filename, "err", err)
		return nil, common.WrapError(err, "create job")
	}

	r.log.Info("job created", "job_id", id, "filename", meta.Filename)
	return &entity.Job{
		ID:           id,
		Status:       constants.JobStatusPending,
		Filename:     meta.Filename,
		OriginalName: meta.OriginalName,
		Metadata:     meta.Extra,
		CreatedAt:    now,
	}, nil
}

func (r *jobRepo) Get(ctx context.Context, id uuid.UUID) (*entity.Job, error) {
	var row jobRow
	found, err := r.db.From(jobsTable).Prepared(true).
		Select("id", "status", "filename", "original_name", "metadata", "created_at", "processed_at").
		Where(goqu.C("id").Eq(id.String())).
		ScanStructContext(ctx, &row)
	if err != nil {
		r.log.Error("job get failed", "job_id", id, "err", err)
		return nil, common.WrapError(err, "get job")
	}
	if !found {
		return nil, common.ErrNotFound
	}
	return rowToJob(row)
}

func (r *jobRepo) SetStatus(ctx context.Context, id uuid.UUID, status constants.JobStatus) error {
	rec := goqu.Record{"status": string(status)}
	if status.IsTerminal() {
		rec["processed_at"] = time.Now().UTC()
	}

	res, err := r.db.Update(jobsTable).Prepared(true).
		Set(rec).
		Where(goqu.C("id").Eq(id.String())).
		Executor().ExecContext(ctx)
	if err != nil {
		r.log.Error("job status update failed", "job_id", id, "status", status, "err", err)
		return common.WrapError(err, "set job status")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return common.WrapError(err, "set job status")
	}
	if affected == 0 {
		return common.ErrNotFound
	}

	r.log.Info("job status updated", "job_id", id, "status", status)
	return nil
}

func rowToJob(row jobRow) (*entity.Job, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, common.WrapError(err, "parse job id")
	}
	j := &entity.Job{
		ID:           id,
		Status:       constants.JobStatus(row.Status),
		Filename:     row.Filename,
		OriginalName: row.OriginalName,
		CreatedAt:    row.CreatedAt,
	}
	if row.Metadata.Valid {
		j.Metadata = json.RawMessage(row.Metadata.String)
	}
	if row.ProcessedAt.Valid {
		t := row.ProcessedAt.Time
		j.ProcessedAt = &t
	}
	return j, nil
}
