package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jobmesh/jobmesh/internal/metrics"
	"github.com/jobmesh/jobmesh/internal/models"
	"github.com/jobmesh/jobmesh/internal/payloadstore"
	"github.com/jobmesh/jobmesh/internal/worker"
)

func newTestWorkerRouter(t *testing.T) (http.Handler, *payloadstore.Store) {
	t.Helper()
	store := payloadstore.New()
	svc := worker.NewPayloadService(store, t.TempDir(), zap.NewNop(), metrics.NewMetrics())
	router := NewWorkerRouter(svc, store, 10*time.Millisecond, zap.NewNop(), 10<<20)
	return router, store
}

func submitMultipart(t *testing.T, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, content := range files {
		part, err := w.CreateFormFile("file", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestSubmit_Success(t *testing.T) {
	router, _ := newTestWorkerRouter(t)

	body, contentType := submitMultipart(t, map[string]string{"run.sh": "echo hi"})
	req := httptest.NewRequest(http.MethodPost, "/submit", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var payload models.Payload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Equal(t, models.PayloadPrepared, payload.Status)
}

func TestSubmit_NoFilesFails(t *testing.T) {
	router, _ := newTestWorkerRouter(t)

	body, contentType := submitMultipart(t, map[string]string{})
	req := httptest.NewRequest(http.MethodPost, "/submit", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRetrieve_PreparedReturns202(t *testing.T) {
	router, store := newTestWorkerRouter(t)
	id := store.Create(t.TempDir())

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/retrieve/%d", id), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
}

func TestRetrieve_CompletedStreamsArchive(t *testing.T) {
	router, store := newTestWorkerRouter(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "result.zip"), []byte("archive-bytes"), 0o644))
	id := store.Create(dir)
	require.NoError(t, store.SetStatus(id, models.PayloadCompleted))

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/retrieve/%d", id), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "archive-bytes", rec.Body.String())
}

func TestRetrieve_InvalidReturns400(t *testing.T) {
	router, store := newTestWorkerRouter(t)
	id := store.Create(t.TempDir())
	require.NoError(t, store.SetStatus(id, models.PayloadInvalid))

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/retrieve/%d", id), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRetrieve_FailedReturns410(t *testing.T) {
	router, store := newTestWorkerRouter(t)
	id := store.Create(t.TempDir())
	require.NoError(t, store.SetStatus(id, models.PayloadFailed))

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/retrieve/%d", id), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusGone, rec.Code)
}

func TestRetrieve_UnknownIDReturns404(t *testing.T) {
	router, _ := newTestWorkerRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/retrieve/999", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWorkerHealth(t *testing.T) {
	router, _ := newTestWorkerRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}
