package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrdtools/employee-importer/internal/ingest"
	"github.com/hrdtools/employee-importer/internal/progress"
	"github.com/hrdtools/employee-importer/internal/repository"
	"github.com/hrdtools/employee-importer/internal/worker"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	dir := t.TempDir()
	uploadDir := filepath.Join(dir, "uploads")
	require.NoError(t, os.MkdirAll(uploadDir, 0o755))

	store, err := repository.Open(context.Background(), repository.Config{
		Driver: "sqlite",
		DSN:    filepath.Join(dir, "test.db"),
	}, logger)
	require.NoError(t, err)
	t.Cleanup(store.Close)
	require.NoError(t, store.Migrate(context.Background()))

	jobs := repository.NewJobRepository(store, logger)
	employees := repository.NewEmployeeRepository(store, logger)
	importer := worker.NewImporter(jobs, employees, logger)
	queue := worker.NewImportQueue(importer, logger, worker.WithWorkers(1))
	t.Cleanup(func() { queue.Shutdown(context.Background()) })
	intake := ingest.NewIntake(jobs, queue, uploadDir, logger)

	handler := NewHandler(intake, jobs, employees, queue, progress.NewRowCountEstimator(), store, logger)
	router := gin.New()
	SetupRoutes(router, handler, "")
	return router
}

func uploadRequest(t *testing.T, filename string, content []byte, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if filename != "" {
		fw, err := w.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func doJSON(t *testing.T, router *gin.Engine, req *http.Request) (int, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	var body map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec.Code, body
}

const csvContent = "nama;nik;jenis_kelamin;alamat;divisi;jabatan\n" +
	"Budi Santoso;3201011;L;Jl. Merdeka 1;Engineering;Staff\n" +
	"Siti Aminah;3201012;P;Jl. Sudirman 2;Finance;Manager\n" +
	"Agus Wibowo;3201013;L;Jl. Gatot Subroto 3;HR;Staff\n"

func TestUpload_NoFile(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t)

	code, body := doJSON(t, router, uploadRequest(t, "", nil, nil))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "No file uploaded", body["error"])
}

func TestUpload_WrongFileType(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t)

	code, body := doJSON(t, router, uploadRequest(t, "notes.txt", []byte("hello"), nil))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body["error"], "CSV")
}

func TestUpload_InvalidMetadataJSON(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t)

	req := uploadRequest(t, "e.csv", []byte(csvContent), map[string]string{"metadata": "{not json"})
	code, body := doJSON(t, router, req)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body["error"], "metadata")
}

func TestUpload_MetadataSchemaViolation(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t)

	req := uploadRequest(t, "e.csv", []byte(csvContent), map[string]string{"metadata": `{"department": 7}`})
	code, body := doJSON(t, router, req)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body["error"], "metadata")
}

func TestUploadStatusEmployees_EndToEnd(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t)

	req := uploadRequest(t, "employees.csv", []byte(csvContent), map[string]string{"metadata": `{"department":"HR"}`})
	code, body := doJSON(t, router, req)
	require.Equal(t, http.StatusAccepted, code)
	jobID, ok := body["jobId"].(string)
	require.True(t, ok)
	_, err := uuid.Parse(jobID)
	require.NoError(t, err)

	var status map[string]any
	require.Eventually(t, func() bool {
		code, body := doJSON(t, router, httptest.NewRequest(http.MethodGet, "/api/status/"+jobID, nil))
		if code != http.StatusOK {
			return false
		}
		status = body
		return body["status"] == "completed"
	}, 30*time.Second, 20*time.Millisecond)

	assert.EqualValues(t, 100, status["progress"])
	assert.NotNil(t, status["processed_at"])

	code, body = doJSON(t, router, httptest.NewRequest(http.MethodGet, "/api/employees", nil))
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", body["status"])
	data, ok := body["data"].([]any)
	require.True(t, ok)
	assert.Len(t, data, 3)

	pagination, ok := body["pagination"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 1, pagination["currentPage"])
	assert.EqualValues(t, 1, pagination["totalPages"])
	assert.EqualValues(t, 3, pagination["totalItems"])
	assert.EqualValues(t, 10, pagination["itemsPerPage"])

	// A completed job can no longer be cancelled.
	code, body = doJSON(t, router, httptest.NewRequest(http.MethodPost, "/api/jobs/"+jobID+"/cancel", nil))
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "Job already finished", body["error"])
}

func TestStatus_UnknownJob(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t)

	code, body := doJSON(t, router, httptest.NewRequest(http.MethodGet, "/api/status/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Job not found", body["error"])
}

func TestStatus_InvalidJobID(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t)

	code, body := doJSON(t, router, httptest.NewRequest(http.MethodGet, "/api/status/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid job ID", body["error"])
}

func TestListEmployees_InvalidPagination(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t)

	code, _ := doJSON(t, router, httptest.NewRequest(http.MethodGet, "/api/employees?page=0", nil))
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = doJSON(t, router, httptest.NewRequest(http.MethodGet, "/api/employees?limit=abc", nil))
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestCancel_UnknownJob(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t)

	code, body := doJSON(t, router, httptest.NewRequest(http.MethodPost, "/api/jobs/"+uuid.NewString()+"/cancel", nil))
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Job not found", body["error"])
}

func TestHealth(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t)

	code, body := doJSON(t, router, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}
