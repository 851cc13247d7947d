package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/hrdtools/employee-importer/constants"
	"github.com/hrdtools/employee-importer/internal/common"
	"github.com/hrdtools/employee-importer/internal/entity"
	"github.com/hrdtools/employee-importer/internal/ingest"
	"github.com/hrdtools/employee-importer/internal/progress"
	"github.com/hrdtools/employee-importer/internal/repository"
	"github.com/hrdtools/employee-importer/internal/worker"
)

// metadataSchema constrains the optional metadata form field a client may
// attach to an upload.
const metadataSchema = `{
	"type": "object",
	"properties": {
		"department": {"type": "string"},
		"source":     {"type": "string"},
		"notes":      {"type": "string"}
	},
	"additionalProperties": false
}`

var metadataValidator = jsonschema.MustCompileString("upload-metadata.json", metadataSchema)

type Handler struct {
	intake    *ingest.Intake
	jobs      repository.JobRepository
	employees repository.EmployeeRepository
	queue     *worker.ImportQueue
	estimator progress.Estimator
	store     *repository.Store
	log       *slog.Logger
}

func NewHandler(
	intake *ingest.Intake,
	jobs repository.JobRepository,
	employees repository.EmployeeRepository,
	queue *worker.ImportQueue,
	estimator progress.Estimator,
	store *repository.Store,
	log *slog.Logger,
) *Handler {
	return &Handler{
		intake:    intake,
		jobs:      jobs,
		employees: employees,
		queue:     queue,
		estimator: estimator,
		store:     store,
		log:       log,
	}
}

// Upload accepts a multipart file, creates its job and responds immediately
// with the job id; the import itself runs detached on the queue.
func (h *Handler) Upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}

	ext := constants.NormalizeExt(filepath.Ext(fh.Filename))
	if _, ok := constants.AllowedExtensions[ext]; !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only CSV and XLSX files are allowed"})
		return
	}

	var metadata json.RawMessage
	if raw := c.PostForm("metadata"); raw != "" {
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "metadata must be valid JSON"})
			return
		}
		if err := metadataValidator.Validate(v); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "metadata rejected: " + err.Error()})
			return
		}
		metadata = json.RawMessage(raw)
	}

	job, err := h.intake.AcceptUpload(c.Request.Context(), fh.Filename, metadata, func(dst string) error {
		return c.SaveUploadedFile(fh, dst)
	})
	if err != nil {
		h.log.Error("upload failed", "original_name", fh.Filename, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process upload"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message": "File uploaded successfully",
		"jobId":   job.ID,
	})
}

// JobStatus reports {status, progress, processed_at} for a polling client.
func (h *Handler) JobStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("jobId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid job ID"})
		return
	}

	job, err := h.jobs.Get(c.Request.Context(), id)
	if errors.Is(err, common.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}
	if err != nil {
		h.log.Error("status lookup failed", "job_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check status"})
		return
	}

	count, err := h.employees.CountByJob(c.Request.Context(), id)
	if err != nil {
		h.log.Error("record count failed", "job_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       job.Status,
		"progress":     h.estimator.Estimate(job.Status, count),
		"processed_at": job.ProcessedAt,
	})
}

// ListEmployees returns a page of ingested employees, newest first.
func (h *Handler) ListEmployees(c *gin.Context) {
	page, err := positiveQuery(c, "page", 1)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "page must be a positive integer"})
		return
	}
	limit, err := positiveQuery(c, "limit", 10)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}

	employees, total, err := h.employees.List(c.Request.Context(), page, limit)
	if err != nil {
		h.log.Error("employee listing failed", "page", page, "limit", limit, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to fetch employees"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "success",
		"data":       employees,
		"pagination": entity.NewPagination(page, limit, total),
	})
}

// CancelJob signals a queued or running import to stop. The job terminates
// through the normal error path, keeping the ledger state machine intact.
func (h *Handler) CancelJob(c *gin.Context) {
	id, err := uuid.Parse(c.Param("jobId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid job ID"})
		return
	}

	job, err := h.jobs.Get(c.Request.Context(), id)
	if errors.Is(err, common.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}
	if err != nil {
		h.log.Error("cancel lookup failed", "job_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel job"})
		return
	}

	if job.Status.IsTerminal() {
		c.JSON(http.StatusConflict, gin.H{"error": "Job already finished", "status": job.Status})
		return
	}
	if !h.queue.Cancel(id) {
		c.JSON(http.StatusConflict, gin.H{"error": "Job is not queued or running"})
		return
	}

	h.log.Info("job cancellation requested", "job_id", id)
	c.JSON(http.StatusOK, gin.H{"message": "Cancellation requested"})
}

// Health reports liveness including a database ping.
func (h *Handler) Health(c *gin.Context) {
	if err := h.store.HealthCheck(c.Request.Context(), 3*time.Second); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func positiveQuery(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, common.ErrInvalidInput
	}
	return v, nil
}
