package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/spektr-org/nexus/datasource"
	"github.com/spektr-org/nexus/engine"
	"github.com/spektr-org/nexus/ingest"
	"github.com/spektr-org/nexus/logging"
	"github.com/spektr-org/nexus/metrics"
	"github.com/spektr-org/nexus/suggest"
)

// ============================================================================
// QUERY
// ============================================================================

type queryRequest struct {
	Queries []datasource.Query `json:"queries" validate:"required,min=1,max=50,dive"`
}

type testQueryRequest struct {
	Datasource string `json:"datasource" validate:"required"`
	Query      string `json:"query" validate:"required"`
}

// handleQuery runs every query and returns one frame each. Per-query
// failures are reported inside the frame.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := decodeBody(r, s.cfg.MaxBodyBytes, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, err)
		return
	}
	respondOK(w, s.runner.Run(r.Context(), req.Queries))
}

func (s *Server) handleTestQuery(w http.ResponseWriter, r *http.Request) {
	var req testQueryRequest
	if err := decodeBody(r, s.cfg.MaxBodyBytes, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, err)
		return
	}
	res, err := s.registry.Query(r.Context(), req.Datasource, req.Query)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err)
		return
	}
	respondOK(w, res)
}

// ============================================================================
// TRANSFORM
// ============================================================================

// transformRequest carries either an inline result or a query to run.
type transformRequest struct {
	Result     json.RawMessage  `json:"result,omitempty"`
	Datasource string           `json:"datasource,omitempty"`
	Query      string           `json:"query,omitempty"`
	Options    TransformOptions `json:"options"`
}

func (s *Server) handleTransform(w http.ResponseWriter, r *http.Request) {
	panel, err := engine.NormalizePanel(chi.URLParam(r, "panel"))
	if err != nil {
		respondError(w, r, http.StatusNotFound, err)
		return
	}

	var req transformRequest
	if err := decodeBody(r, s.cfg.MaxBodyBytes, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, err)
		return
	}

	table, err := s.resolveTable(r, req)
	if err != nil {
		respondError(w, r, statusFor(err), err)
		return
	}

	res, err := s.transform(r, panel, table, req.Options.EngineOptions())
	if err != nil {
		respondError(w, r, statusFor(err), err)
		return
	}
	respondOK(w, res)
}

func (s *Server) resolveTable(r *http.Request, req transformRequest) (*engine.QueryResult, error) {
	switch {
	case len(req.Result) > 0 && string(req.Result) != "null":
		return ingest.DecodeJSON(req.Result)
	case req.Datasource != "":
		return s.registry.Query(r.Context(), req.Datasource, req.Query)
	}
	// An absent result is an empty one; sampleFallback may fill it.
	return &engine.QueryResult{Columns: []string{}, Rows: [][]engine.Value{}}, nil
}

// transform runs the engine and records the outcome.
func (s *Server) transform(r *http.Request, panel string, t engine.Table, opts []engine.Option) (*engine.Result, error) {
	start := time.Now()
	res, err := engine.Transform(panel, t, opts...)
	elapsed := time.Since(start)

	outcome := "ok"
	switch {
	case err != nil:
		outcome = "error"
	case res.Sample:
		outcome = "sample"
	case res.Empty:
		outcome = "empty"
	}
	metrics.RecordTransform(panel, outcome, t.Len(), elapsed)
	logging.Ctx(r.Context()).Debug().
		Str("panel", panel).
		Int("rows", t.Len()).
		Str("outcome", outcome).
		Dur("duration", elapsed).
		Msg("transformed result")
	return res, err
}

func (s *Server) handlePanels(w http.ResponseWriter, r *http.Request) {
	respondOK(w, engine.SupportedPanels())
}

// ============================================================================
// SUGGEST
// ============================================================================

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r, s.cfg.MaxBodyBytes)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err)
		return
	}
	res, err := ingest.DecodeJSON(body)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err)
		return
	}

	var opts []suggest.Option
	if title := r.URL.Query().Get("title"); title != "" {
		opts = append(opts, suggest.WithTitle(title))
	}
	dash := suggest.Suggest(res, opts...)
	logging.Ctx(r.Context()).Debug().
		Int("rows", res.Len()).
		Int("panels", len(dash.Panels)).
		Msg("suggested dashboard")
	respondOK(w, dash)
}

// ============================================================================
// DATASOURCES
// ============================================================================

func (s *Server) handleListDatasources(w http.ResponseWriter, r *http.Request) {
	respondOK(w, s.registry.Configs())
}

func (s *Server) handleGetDatasource(w http.ResponseWriter, r *http.Request) {
	src, err := s.registry.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, http.StatusNotFound, err)
		return
	}
	respondOK(w, src.Config().Redacted())
}

type testResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// handleTestConfig checks an unregistered config without keeping it.
func (s *Server) handleTestConfig(w http.ResponseWriter, r *http.Request) {
	var cfg datasource.Config
	if err := decodeBody(r, s.cfg.MaxBodyBytes, &cfg); err != nil {
		respondError(w, r, http.StatusBadRequest, err)
		return
	}
	if err := s.registry.Test(r.Context(), cfg); err != nil {
		respondError(w, r, http.StatusBadRequest, err)
		return
	}
	respondOK(w, testResult{Status: "ok", Message: fmt.Sprintf("connected to %s", cfg.ID)})
}

// handleTestDatasource pings a registered source.
func (s *Server) handleTestDatasource(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	src, err := s.registry.Get(id)
	if err != nil {
		respondError(w, r, http.StatusNotFound, err)
		return
	}
	if err := src.Ping(r.Context()); err != nil {
		respondError(w, r, http.StatusBadRequest, err)
		return
	}
	respondOK(w, testResult{Status: "ok", Message: fmt.Sprintf("connected to %s", id)})
}

// ============================================================================
// HEALTH
// ============================================================================

type health struct {
	Status      string   `json:"status"`
	Datasources []string `json:"datasources"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondOK(w, health{Status: "ok", Datasources: s.registry.IDs()})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	respondError(w, r, http.StatusNotFound, errors.New("route not found"))
}
