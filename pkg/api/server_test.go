package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trialdata/xportio/pkg/codec"
	"github.com/trialdata/xportio/pkg/dataset"
	"github.com/trialdata/xportio/pkg/engine"
)

var (
	metricsOnce sync.Once
	testMetrics *Metrics
)

// promauto registers against the default registry; one Metrics instance
// is shared across the whole test binary.
func sharedMetrics() *Metrics {
	metricsOnce.Do(func() {
		testMetrics = NewMetrics()
	})
	return testMetrics
}

func writeTransportFile(t *testing.T, dir, file string, ds *dataset.Dataset, rows []dataset.Row) {
	t.Helper()

	f, err := os.Create(filepath.Join(dir, file))
	require.NoError(t, err)
	defer f.Close()

	w, err := engine.NewWriter(f, ds, engine.WriterConfig{})
	require.NoError(t, err)
	for _, row := range rows {
		require.NoError(t, w.WriteRow(row))
	}
	require.NoError(t, w.Close())
}

func vitalsDataset() *dataset.Dataset {
	return &dataset.Dataset{
		Name:    "VS",
		Label:   "Vital Signs",
		Version: codec.V5,
		Columns: []dataset.Column{
			{Name: "USUBJID", Kind: dataset.Character, Length: 12},
			{Name: "SYSBP", Kind: dataset.Numeric, Length: 8},
		},
	}
}

func newTestRouter(t *testing.T, apiKey string) (chi.Router, string) {
	t.Helper()

	dir := t.TempDir()
	writeTransportFile(t, dir, "vs.xpt", vitalsDataset(), []dataset.Row{
		{dataset.Text("STUDY1-001"), dataset.Number(120)},
		{dataset.Text("STUDY1-002"), dataset.Missing(codec.MissingStandard)},
		{dataset.Text("STUDY1-003"), dataset.Number(134)},
	})

	dm := vitalsDataset()
	dm.Name = "DM"
	dm.Label = "Demographics"
	writeTransportFile(t, dir, "dm.xpt", dm, []dataset.Row{
		{dataset.Text("STUDY1-001"), dataset.Number(34)},
	})

	// A file that is not a transport file should be skipped, not fail
	// the listing.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "junk.xpt"), []byte("not a transport file"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("ignore me"), 0644))

	metrics := sharedMetrics()
	server := NewServer(ServerConfig{DataDir: dir, APIKey: apiKey}, metrics)
	return NewRouter(server, metrics, apiKey), dir
}

func doJSON(t *testing.T, router chi.Router, path, apiKey string) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, "")

	rec, resp := doJSON(t, router, "/api/v1/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
}

func TestListDatasets(t *testing.T) {
	router, _ := newTestRouter(t, "")

	rec, resp := doJSON(t, router, "/api/v1/datasets", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, resp.Success)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var infos []DatasetInfo
	require.NoError(t, json.Unmarshal(data, &infos))

	require.Len(t, infos, 2)
	assert.Equal(t, "DM", infos[0].Dataset)
	assert.Equal(t, "VS", infos[1].Dataset)
	assert.Equal(t, "Vital Signs", infos[1].Label)
	assert.Equal(t, int64(3), infos[1].Rows)
	require.Len(t, infos[1].Columns, 2)
	assert.Equal(t, "USUBJID", infos[1].Columns[0].Name)
	assert.Equal(t, "character", infos[1].Columns[0].Kind)
}

func TestGetDataset(t *testing.T) {
	router, _ := newTestRouter(t, "")

	rec, resp := doJSON(t, router, "/api/v1/datasets/vs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, resp.Success)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var info DatasetInfo
	require.NoError(t, json.Unmarshal(data, &info))
	assert.Equal(t, "VS", info.Dataset)
	assert.Equal(t, "V5", info.Version)

	rec, resp = doJSON(t, router, "/api/v1/datasets/NOPE", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "NOPE")
}

func TestGetRows(t *testing.T) {
	router, _ := newTestRouter(t, "")

	rec, resp := doJSON(t, router, "/api/v1/datasets/VS/rows", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, resp.Success)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var page RowsPage
	require.NoError(t, json.Unmarshal(data, &page))

	assert.Equal(t, "VS", page.Dataset)
	assert.Equal(t, []string{"USUBJID", "SYSBP"}, page.Columns)
	assert.Equal(t, int64(3), page.Total)
	require.Len(t, page.Rows, 3)

	assert.Equal(t, "STUDY1-001", page.Rows[0][0])
	assert.Equal(t, float64(120), page.Rows[0][1])
	// Missing numeric values render as null.
	assert.Nil(t, page.Rows[1][1])
}

func TestGetRowsPagination(t *testing.T) {
	router, _ := newTestRouter(t, "")

	rec, resp := doJSON(t, router, "/api/v1/datasets/VS/rows?limit=1&offset=2", "")
	require.Equal(t, http.StatusOK, rec.Code)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var page RowsPage
	require.NoError(t, json.Unmarshal(data, &page))

	assert.Equal(t, int64(2), page.Offset)
	assert.Equal(t, 1, page.Limit)
	assert.Equal(t, int64(3), page.Total)
	require.Len(t, page.Rows, 1)
	assert.Equal(t, "STUDY1-003", page.Rows[0][0])
}

func TestGetRowsBadParams(t *testing.T) {
	router, _ := newTestRouter(t, "")

	rec, resp := doJSON(t, router, "/api/v1/datasets/VS/rows?limit=zero", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, resp.Success)

	rec, _ = doJSON(t, router, "/api/v1/datasets/VS/rows?offset=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPIKeyAuthentication(t *testing.T) {
	router, _ := newTestRouter(t, "sekrit")

	rec, resp := doJSON(t, router, "/api/v1/health", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, resp.Error, "Missing X-API-Key")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-API-Key", "wrong")
	wr := httptest.NewRecorder()
	router.ServeHTTP(wr, req)
	assert.Equal(t, http.StatusUnauthorized, wr.Code)

	rec, resp = doJSON(t, router, "/api/v1/health", "sekrit")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
}

func TestMetricsEndpointUnprotected(t *testing.T) {
	router, _ := newTestRouter(t, "sekrit")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "xport_http_requests_total")
}
