// Package ingest accepts source files from the upload endpoint and the hot
// folder, registers a job for each and hands it to the import queue.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/hrdtools/employee-importer/internal/entity"
	"github.com/hrdtools/employee-importer/internal/repository"
	"github.com/hrdtools/employee-importer/internal/worker"
)

// Intake owns the upload directory naming policy and the create-then-dispatch
// sequence shared by every way a file can enter the system.
type Intake struct {
	jobs      repository.JobRepository
	queue     *worker.ImportQueue
	uploadDir string
	log       *slog.Logger
}

func NewIntake(jobs repository.JobRepository, queue *worker.ImportQueue, uploadDir string, log *slog.Logger) *Intake {
	return &Intake{jobs: jobs, queue: queue, uploadDir: uploadDir, log: log}
}

// AcceptUpload stores an uploaded file under a unique name, creates its job
// and dispatches the import. save writes the upload to the destination path;
// the handler supplies it so multipart streaming stays in the HTTP layer.
func (i *Intake) AcceptUpload(ctx context.Context, originalName string, metadata json.RawMessage, save func(dst string) error) (*entity.Job, error) {
	stored := storedName(originalName)
	dst := filepath.Join(i.uploadDir, stored)
	if err := save(dst); err != nil {
		i.log.Error("failed to store upload", "original_name", originalName, "err", err)
		return nil, err
	}
	return i.register(ctx, stored, originalName, metadata, dst)
}

// AcceptPath moves an existing file (e.g. from the watch directory) into the
// upload directory, creates its job and dispatches the import.
func (i *Intake) AcceptPath(ctx context.Context, src string) (*entity.Job, error) {
	originalName := filepath.Base(src)
	stored := storedName(originalName)
	dst := filepath.Join(i.uploadDir, stored)
	if err := moveFile(src, dst); err != nil {
		i.log.Error("failed to move watched file", "src", src, "err", err)
		return nil, err
	}
	return i.register(ctx, stored, originalName, nil, dst)
}

func (i *Intake) register(ctx context.Context, stored, originalName string, metadata json.RawMessage, path string) (*entity.Job, error) {
	job, err := i.jobs.Create(ctx, entity.JobMetadata{
		Filename:     stored,
		OriginalName: originalName,
		Extra:        metadata,
	})
	if err != nil {
		return nil, err
	}

	if err := i.queue.Submit(ctx, worker.Job{
		JobID:       job.ID,
		Path:        path,
		SubmittedAt: time.Now().UTC(),
	}); err != nil {
		return nil, err
	}
	return job, nil
}

func storedName(originalName string) string {
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), filepath.Base(originalName))
}

// moveFile renames when possible and falls back to copy+remove for
// cross-filesystem moves.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return err
	}
	return os.Remove(src)
}
