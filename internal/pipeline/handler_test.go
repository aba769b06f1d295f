package pipeline

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/catalogbridge/catalogbridge/internal/catalog"
	"github.com/catalogbridge/catalogbridge/internal/settings"
	"github.com/catalogbridge/catalogbridge/jobs"
)

type recordingProducts struct {
	*memProducts
	lastFilter catalog.ListFilter
}

func (r *recordingProducts) List(ctx context.Context, f catalog.ListFilter) ([]catalog.Product, error) {
	r.lastFilter = f
	return r.memProducts.List(ctx, f)
}

type fakeEnqueuer struct {
	types         []string
	alreadyQueued bool
}

func (f *fakeEnqueuer) EnqueuePipeline(_ context.Context, taskType string, _ jobs.TriggerPayload) (*asynq.TaskInfo, bool, error) {
	f.types = append(f.types, taskType)
	if f.alreadyQueued {
		return nil, true, nil
	}
	return &asynq.TaskInfo{ID: taskType}, false, nil
}

func newHandlerHarness(t *testing.T) (*recordingProducts, *fakeEnqueuer, http.Handler) {
	t.Helper()
	h := newHarness(t, []string{"m1"})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	products := &recordingProducts{memProducts: h.products}
	enq := &fakeEnqueuer{}
	handler := NewHandler(logger, h.service, h.engine,
		settings.NewService(h.settings, h.products, logger), h.supplier, products, enq)
	router := chi.NewRouter()
	router.Route("/api", func(r chi.Router) { handler.MountRoutes(r) })
	return products, enq, router
}

func TestListProductsPagination(t *testing.T) {
	products, _, router := newHandlerHarness(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/products?status=staged&manufacturerId=m1&limit=25&offset=50", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, catalog.ListFilter{
		Status:         catalog.StatusStaged,
		ManufacturerID: "m1",
		Limit:          25,
		Offset:         50,
	}, products.lastFilter)
}

func TestListProductsPaginationDefaults(t *testing.T) {
	products, _, router := newHandlerHarness(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/products?limit=junk&offset=-3", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 100, products.lastFilter.Limit)
	require.Equal(t, 0, products.lastFilter.Offset)
}

func TestTriggerEnqueuesAndAcknowledges(t *testing.T) {
	_, enq, router := newHandlerHarness(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/ingest", nil))

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, []string{jobs.TaskCatalogIngest}, enq.types)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "started", body["status"])
	require.NotEmpty(t, body["jobId"])
}

func TestTriggerReportsAlreadyRunning(t *testing.T) {
	_, enq, router := newHandlerHarness(t)
	enq.alreadyQueued = true

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sync", nil))

	require.Equal(t, http.StatusAccepted, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "already running", body["status"])
	require.Empty(t, body["jobId"])
}
