package server

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/nexus/config"
	"github.com/spektr-org/nexus/datasource"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Details json.RawMessage `json:"details"`
}

func newTestServer(t *testing.T, mutate ...func(*config.ServerConfig)) *Server {
	t.Helper()
	reg := datasource.NewRegistry(datasource.DefaultSettings())
	t.Cleanup(func() { _ = reg.Close() })
	require.NoError(t, reg.Add(context.Background(), datasource.Config{ID: "mem", Type: datasource.TypeDuckDB, Password: "pw"}))

	cfg := config.ServerConfig{CORSOrigins: []string{"*"}}
	for _, m := range mutate {
		m(&cfg)
	}
	return New(cfg, reg)
}

func do(t *testing.T, s *Server, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var env envelope
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestHealthAndRequestID(t *testing.T) {
	s := newTestServer(t)

	rec, env := do(t, s, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.JSONEq(t, `{"status":"ok","datasources":["mem"]}`, string(env.Data))
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestTransformInlineResult(t *testing.T) {
	s := newTestServer(t)

	rec, env := do(t, s, http.MethodPost, "/api/transform/stat", map[string]any{
		"result": map[string]any{
			"columns": []string{"time", "cpu", "mem"},
			"rows":    [][]any{{"00:00", 10, 50}, {"00:05", 20, 60}},
		},
		"options": map[string]any{"unit": "%"},
	})
	require.Equal(t, http.StatusOK, rec.Code, env.Error)

	var res struct {
		Panel     string    `json:"panel"`
		Value     float64   `json:"value"`
		Unit      string    `json:"unit"`
		Sparkline []float64 `json:"sparkline"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, "stat", res.Panel)
	assert.Equal(t, 20.0, res.Value)
	assert.Equal(t, "%", res.Unit)
	assert.Equal(t, []float64{0, 100}, res.Sparkline)
}

func TestTransformFromDatasource(t *testing.T) {
	s := newTestServer(t)

	rec, env := do(t, s, http.MethodPost, "/api/transform/bar", map[string]any{
		"datasource": "mem",
		"query":      "SELECT * FROM (VALUES ('a', 10), ('b', 30), ('a', 5)) t(label, cpu)",
	})
	require.Equal(t, http.StatusOK, rec.Code, env.Error)

	var res struct {
		Panel string           `json:"panel"`
		Data  []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, "barchart", res.Panel)
	require.Len(t, res.Data, 2)
	assert.Equal(t, "a", res.Data[0]["name"])
	assert.Equal(t, 15.0, res.Data[0]["cpu"])
}

func TestTransformErrors(t *testing.T) {
	s := newTestServer(t)

	rec, env := do(t, s, http.MethodPost, "/api/transform/sankey", map[string]any{})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "unsupported panel")

	rec, _ = do(t, s, http.MethodPost, "/api/transform/stat", map[string]any{"datasource": "ghost", "query": "SELECT 1"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env = do(t, s, http.MethodPost, "/api/transform/stat", `{"result": {"success": false, "error": "boom"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, env.Error, "boom")

	rec, _ = do(t, s, http.MethodPost, "/api/transform/stat", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = do(t, s, http.MethodPost, "/api/transform/pie", map[string]any{"options": map[string]any{"topN": 500}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, env.Details)
}

func TestTransformSampleFallback(t *testing.T) {
	s := newTestServer(t)

	rec, env := do(t, s, http.MethodPost, "/api/transform/timeseries", map[string]any{
		"options": map[string]any{"sampleFallback": true},
	})
	require.Equal(t, http.StatusOK, rec.Code, env.Error)

	var res struct {
		Sample bool `json:"sample"`
		Empty  bool `json:"empty"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.True(t, res.Sample)
	assert.False(t, res.Empty)
}

func TestQueryEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec, env := do(t, s, http.MethodPost, "/api/query", map[string]any{
		"queries": []map[string]any{
			{"refId": "A", "datasource": "mem", "rawSql": "SELECT 1 AS n"},
			{"refId": "B", "datasource": "mem", "rawSql": "SELECT * FROM nowhere"},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, env.Error)

	var frames []datasource.Frame
	require.NoError(t, json.Unmarshal(env.Data, &frames))
	require.Len(t, frames, 2)
	assert.Empty(t, frames[0].Error)
	assert.Equal(t, 1, frames[0].Length)
	assert.NotEmpty(t, frames[1].Error)

	rec, env = do(t, s, http.MethodPost, "/api/query", map[string]any{"queries": []any{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)
}

func TestQueryTestEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec, env := do(t, s, http.MethodPost, "/api/query/test", map[string]any{"datasource": "mem", "query": "SELECT 'x' AS v"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"columns":["v"],"rows":[["x"]],"rowCount":1}`, string(env.Data))

	rec, env = do(t, s, http.MethodPost, "/api/query/test", map[string]any{"datasource": "mem", "query": "SELEC"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)
	assert.NotEmpty(t, env.Error)
}

func TestQueryTestSyntaxErrorsKeepDatasourceAvailable(t *testing.T) {
	s := newTestServer(t)

	for i := 0; i < 2*int(datasource.DefaultSettings().BreakerMaxFailures); i++ {
		rec, _ := do(t, s, http.MethodPost, "/api/query/test", map[string]any{"datasource": "mem", "query": "SELEC"})
		require.Equal(t, http.StatusBadRequest, rec.Code, "attempt %d", i)
	}

	rec, env := do(t, s, http.MethodPost, "/api/query/test", map[string]any{"datasource": "mem", "query": "SELECT 1 AS n"})
	require.Equal(t, http.StatusOK, rec.Code, env.Error)
	assert.True(t, env.Success)
}

func TestSuggestEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec, env := do(t, s, http.MethodPost, "/api/suggest?title=Servers", map[string]any{
		"columns": []string{"timestamp", "server", "cpu"},
		"rows": [][]any{
			{"2024-01-01T00:00:00Z", "s1", 40},
			{"2024-01-01T00:01:00Z", "s2", 60},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, env.Error)

	var dash struct {
		Title  string `json:"title"`
		Panels []struct {
			Type string `json:"type"`
		} `json:"panels"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &dash))
	assert.Equal(t, "Servers", dash.Title)
	require.NotEmpty(t, dash.Panels)
	assert.Equal(t, "stat", dash.Panels[0].Type)
	assert.Equal(t, "table", dash.Panels[len(dash.Panels)-1].Type)
}

func TestDatasourceEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec, env := do(t, s, http.MethodGet, "/api/datasources", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var cfgs []datasource.Config
	require.NoError(t, json.Unmarshal(env.Data, &cfgs))
	require.Len(t, cfgs, 1)
	assert.Equal(t, "********", cfgs[0].Password)

	rec, _ = do(t, s, http.MethodGet, "/api/datasources/mem", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = do(t, s, http.MethodGet, "/api/datasources/ghost", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = do(t, s, http.MethodPost, "/api/datasources/mem/test", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = do(t, s, http.MethodPost, "/api/datasources/ghost/test", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = do(t, s, http.MethodPost, "/api/datasources/test", map[string]any{"id": "scratch", "type": "duckdb"})
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, env = do(t, s, http.MethodPost, "/api/datasources/test", map[string]any{"id": "scratch", "type": "postgres"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, env.Details)
}

func TestPanelsAndNotFound(t *testing.T) {
	s := newTestServer(t)

	rec, env := do(t, s, http.MethodGet, "/api/panels", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"barchart"`)

	rec, env = do(t, s, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, env.Success)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	do(t, s, http.MethodGet, "/healthz", nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "nexus_api_requests_total")
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, func(c *config.ServerConfig) {
		c.RateLimitReqs = 2
		c.RateLimitWindow = time.Minute
	})

	for i := 0; i < 2; i++ {
		rec, _ := do(t, s, http.MethodGet, "/api/panels", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec, env := do(t, s, http.MethodGet, "/api/panels", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate limit exceeded", env.Error)

	// Health checks are not limited.
	rec, _ = do(t, s, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBodyLimit(t *testing.T) {
	s := newTestServer(t, func(c *config.ServerConfig) { c.MaxBodyBytes = 16 })
	rec, env := do(t, s, http.MethodPost, "/api/query", map[string]any{
		"queries": []map[string]any{{"refId": "A", "datasource": "mem", "rawSql": "SELECT 1"}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, env.Error, "exceeds 16 bytes")
}
