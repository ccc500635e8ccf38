package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/archmap/pkg/annotate"
	"github.com/matzehuels/archmap/pkg/cache"
	"github.com/matzehuels/archmap/pkg/config"
	"github.com/matzehuels/archmap/pkg/metrics"
	"github.com/matzehuels/archmap/pkg/observability"
	"github.com/matzehuels/archmap/pkg/storage"
)

const sampleAnalysis = `{
  "graph": {
    "nodes": {
      "A": {"id": "A", "name": "Orders", "kind": "SERVICE"},
      "B": {"id": "B", "name": "Billing", "kind": "SERVICE"},
      "D": {"id": "D", "name": "Orders DB", "kind": "DATABASE"}
    },
    "edges": [
      {"from": "A", "to": "B", "kind": "CALLS"},
      {"from": "B", "to": "A", "kind": "CALLS"},
      {"from": "A", "to": "D", "kind": "WRITES"}
    ]
  },
  "detections": [
    {"kind": "cycles", "severity": "HIGH", "title": "A <-> B", "nodes": ["A", "B"], "edges": [0, 1]},
    {"kind": "shared_database", "severity": "MEDIUM", "title": "Shared DB", "nodes": ["D"], "edges": [2]},
    {"kind": "Custom Smell", "severity": "LOW", "title": "Custom", "nodes": ["A"], "edges": []}
  ]
}`

type testServer struct {
	*Server
	store *storage.MemoryStore
	cache *cache.MemoryCache
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := storage.NewMemoryStore()
	mem, err := cache.NewMemoryCache(64)
	require.NoError(t, err)
	s := New(Options{
		Server: config.Default().Server,
		View:   config.Default().View,
		Store:  store,
		Cache:  mem,
		Logger: log.New(io.Discard),
	})
	return &testServer{Server: s, store: store, cache: mem}
}

func (ts *testServer) do(t *testing.T, method, path, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) create(t *testing.T) string {
	t.Helper()
	rec := ts.do(t, "POST", "/api/analyses?name=orders", sampleAnalysis)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var sum storage.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sum))
	return sum.ID
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	body := decode[errorBody](t, rec)
	return string(body.Error.Code)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, "GET", "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, rec)["status"])
}

func TestCreateAndGetAnalysis(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, "POST", "/api/analyses?name=orders", sampleAnalysis)
	require.Equal(t, http.StatusCreated, rec.Code)
	sum := decode[storage.Summary](t, rec)
	assert.Equal(t, "orders", sum.Name)
	assert.Equal(t, 3, sum.Nodes)
	assert.Equal(t, 3, sum.Edges)
	assert.Equal(t, 3, sum.Detections)
	assert.Equal(t, "/api/analyses/"+sum.ID, rec.Header().Get("Location"))

	rec = ts.do(t, "GET", "/api/analyses/"+sum.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[storage.Record](t, rec)
	assert.Len(t, got.Analysis.Graph.Nodes, 3)

	rec = ts.do(t, "GET", "/api/analyses", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]storage.Summary](t, rec), 1)

	rec = ts.do(t, "DELETE", "/api/analyses/"+sum.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = ts.do(t, "GET", "/api/analyses/"+sum.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "ANALYSIS_NOT_FOUND", errorCode(t, rec))
}

func TestCreateAnalysisRejectsBadPayload(t *testing.T) {
	ts := newTestServer(t)
	for _, body := range []string{"", "[1,2]", `{"graph": 5}`} {
		rec := ts.do(t, "POST", "/api/analyses", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, "INVALID_PAYLOAD", errorCode(t, rec), body)
	}
}

func TestCreateAnalysisBodyLimit(t *testing.T) {
	ts := newTestServer(t)
	ts.opts.Server.MaxBodyBytes = 16
	rec := ts.do(t, "POST", "/api/analyses", sampleAnalysis)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEmptyListIsArray(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, "GET", "/api/analyses", "")
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))

	rec = ts.do(t, "GET", "/api/analyses?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInvalidID(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, "GET", "/api/analyses/a..b/stats", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_ID", errorCode(t, rec))
}

func TestElementsAreCached(t *testing.T) {
	ts := newTestServer(t)
	id := ts.create(t)

	rec := ts.do(t, "GET", "/api/analyses/"+id+"/elements", "")
	require.Equal(t, http.StatusOK, rec.Code)
	els := decode[annotate.Elements](t, rec)
	require.Len(t, els.Nodes, 3)
	require.Len(t, els.Edges, 3)

	a, ok := els.Node("A")
	require.True(t, ok)
	assert.Equal(t, []string{"cycles", "Custom Smell"}, a.Flags)
	assert.Equal(t, "HIGH", string(a.Severity))
	assert.Equal(t, 1, ts.cache.Len())

	again := ts.do(t, "GET", "/api/analyses/"+id+"/elements", "")
	assert.JSONEq(t, rec.Body.String(), again.Body.String())
	assert.Equal(t, 1, ts.cache.Len())
}

func TestStatsAndColors(t *testing.T) {
	ts := newTestServer(t)
	id := ts.create(t)

	rec := ts.do(t, "GET", "/api/analyses/"+id+"/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	st := decode[annotate.Stats](t, rec)
	assert.Equal(t, 2, st.Services)
	assert.Equal(t, 1, st.Databases)
	assert.Equal(t, 3, st.Detections)

	rec = ts.do(t, "GET", "/api/analyses/"+id+"/colors", "")
	require.Equal(t, http.StatusOK, rec.Code)
	colors := decode[[]kindColor](t, rec)
	require.Len(t, colors, 3)
	assert.Equal(t, "cycles", colors[0].Kind)
	assert.True(t, colors[0].Fixed)
	assert.Equal(t, "custom_smell", colors[2].Kind)
	assert.False(t, colors[2].Fixed)
}

func TestColorsMatchElements(t *testing.T) {
	// smell_m and smell_a share a fallback start index, so whichever is
	// assigned first takes it.
	const body = `{
  "graph": {
    "nodes": {
      "A": {"id": "A", "name": "A", "kind": "SERVICE"},
      "Z": {"id": "Z", "name": "Z", "kind": "SERVICE"}
    },
    "edges": []
  },
  "detections": [
    {"kind": "smell_m", "severity": "LOW", "nodes": ["Z"]},
    {"kind": "smell_a", "severity": "LOW", "nodes": ["A"]}
  ]
}`
	ts := newTestServer(t)
	rec := ts.do(t, "POST", "/api/analyses", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decode[storage.Summary](t, rec).ID

	rec = ts.do(t, "GET", "/api/analyses/"+id+"/colors", "")
	require.Equal(t, http.StatusOK, rec.Code)
	legend := map[string]string{}
	for _, kc := range decode[[]kindColor](t, rec) {
		legend[kc.Kind] = string(kc.Color)
	}
	require.Len(t, legend, 2)
	assert.NotEqual(t, legend["smell_m"], legend["smell_a"])

	rec = ts.do(t, "GET", "/api/analyses/"+id+"/elements", "")
	require.Equal(t, http.StatusOK, rec.Code)
	els := decode[annotate.Elements](t, rec)
	for _, n := range els.Nodes {
		require.Len(t, n.Flags, 1)
		assert.Equal(t, legend[n.Flags[0]], string(n.Color), "node %s", n.ID)
	}
}

func TestExport(t *testing.T) {
	ts := newTestServer(t)
	id := ts.create(t)

	rec := ts.do(t, "GET", "/api/analyses/"+id+"/export.yaml", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/yaml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "services:")

	rec = ts.do(t, "GET", "/api/analyses/"+id+"/export.dot?download=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "digraph")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), id+".dot")

	rec = ts.do(t, "GET", "/api/analyses/"+id+"/export.png", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_FORMAT", errorCode(t, rec))
}

func TestLayouts(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, "GET", "/api/layouts", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "elk", body["default"])
	assert.Len(t, body["layouts"], 4)

	rec = ts.do(t, "GET", "/api/layouts/dagre", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, "GET", "/api/layouts/circle", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_LAYOUT", errorCode(t, rec))
}

func TestPalette(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, "GET", "/api/palette", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "#94a3b8", body["neutral"])
	assert.Contains(t, body["fixed"], "cycles")
}

func TestLastAnalysis(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, "GET", "/api/session/last", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, "GET", "/api/session/last", "", SessionHeader, "client-1")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, "POST", "/api/analyses", sampleAnalysis, SessionHeader, "client-1")
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode[storage.Summary](t, rec).ID

	rec = ts.do(t, "GET", "/api/session/last?session=client-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, decode[storage.Summary](t, rec).ID)

	rec = ts.do(t, "GET", "/api/session/last", "", SessionHeader, "bad id!")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := metrics.NewRegistry()
	reg.Install()
	defer observability.Reset()

	s := New(Options{Metrics: reg, Logger: log.New(io.Discard)})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/analyses", "application/json", bytes.NewBufferString(sampleAnalysis))
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `archmap_http_requests_total{method="POST",route="/api/analyses`)
	assert.Contains(t, string(body), `status="201"} 1`)
}

func TestCheckOrigin(t *testing.T) {
	s := New(Options{Logger: log.New(io.Discard)})
	req := httptest.NewRequest("GET", "/api/live", nil)
	req.Header.Set("Origin", "http://evil.example")
	assert.True(t, s.checkOrigin(req), "no allow-list accepts all origins")

	s.opts.Server.AllowedOrigins = []string{"http://localhost:3000"}
	assert.False(t, s.checkOrigin(req))
	req.Header.Set("Origin", "http://localhost:3000")
	assert.True(t, s.checkOrigin(req))
}
