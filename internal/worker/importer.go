package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/hrdtools/employee-importer/constants"
	"github.com/hrdtools/employee-importer/internal/entity"
	"github.com/hrdtools/employee-importer/internal/parse"
	"github.com/hrdtools/employee-importer/internal/repository"
)

// Importer drives a single import job from pending to a terminal state.
type Importer struct {
	jobs      repository.JobRepository
	employees repository.EmployeeRepository
	log       *slog.Logger
}

func NewImporter(jobs repository.JobRepository, employees repository.EmployeeRepository, log *slog.Logger) *Importer {
	return &Importer{jobs: jobs, employees: employees, log: log}
}

// Run marks the job processing, streams rows from the source file and
// persists one employee per row, sequentially. On success the job completes
// and the source file is deleted. On any fault the job moves to error and
// the file is left in place for inspection; rows written before the fault
// stay attributed to the job.
func (i *Importer) Run(ctx context.Context, jobID uuid.UUID, path string) error {
	log := i.log.With("job_id", jobID, "path", path)

	// The processing transition happens exactly once, before any row is read.
	if err := i.jobs.SetStatus(ctx, jobID, constants.JobStatusProcessing); err != nil {
		log.Error("failed to mark job processing", "err", err)
		return i.fail(log, jobID, err)
	}

	reader, err := parse.Open(path)
	if err != nil {
		log.Error("failed to open source file", "err", err)
		return i.fail(log, jobID, err)
	}
	defer func() {
		if cerr := reader.Close(); cerr != nil {
			log.Warn("failed to close source file", "err", cerr)
		}
	}()

	var count int64
	for {
		if err := ctx.Err(); err != nil {
			log.Warn("import cancelled", "rows", count)
			return i.fail(log, jobID, err)
		}

		row, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			log.Error("source stream fault", "rows", count, "err", err)
			return i.fail(log, jobID, err)
		}

		if err := i.employees.Insert(ctx, employeeFromRow(row, jobID)); err != nil {
			log.Error("row insert failed", "rows", count, "err", err)
			return i.fail(log, jobID, err)
		}
		count++
	}

	if err := i.jobs.SetStatus(ctx, jobID, constants.JobStatusCompleted); err != nil {
		// The job must still reach a terminal state, even when the final
		// stamp faults or the context was cancelled during the last read.
		log.Error("failed to mark job completed", "err", err)
		return i.fail(log, jobID, err)
	}
	if err := os.Remove(path); err != nil {
		log.Warn("failed to delete source file", "err", err)
	}

	log.Info("import completed", "rows", count)
	return nil
}

// fail moves the job to its error terminal state. The source file is
// intentionally left in place so a failed upload can be inspected. Uses a
// fresh context so a cancelled job still reaches the error state.
func (i *Importer) fail(log *slog.Logger, jobID uuid.UUID, cause error) error {
	if err := i.jobs.SetStatus(context.Background(), jobID, constants.JobStatusError); err != nil {
		log.Error("failed to mark job errored", "err", err)
	}
	return cause
}

func employeeFromRow(row parse.Row, jobID uuid.UUID) *entity.Employee {
	// Headers the file omits simply leave the field empty.
	return &entity.Employee{
		Nama:         row["nama"],
		NIK:          row["nik"],
		JenisKelamin: row["jenis_kelamin"],
		Alamat:       row["alamat"],
		Divisi:       row["divisi"],
		Jabatan:      row["jabatan"],
		JobID:        jobID,
	}
}
