package handlers

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/pipewise/sqlforge/pkg/apperrors"
	"github.com/pipewise/sqlforge/pkg/llm"
	"github.com/pipewise/sqlforge/pkg/models"
	"github.com/pipewise/sqlforge/pkg/pipeline"
	"github.com/pipewise/sqlforge/pkg/question"
)

// EnhanceRequest is the body of POST /api/enhance. SQL is the candidate
// query to run through the pipeline; Dialect falls back to the server
// default when empty.
type EnhanceRequest struct {
	Question string `json:"question"`
	SQL      string `json:"sql"`
	Dialect  string `json:"dialect,omitempty"`
}

// ParallelEnhanceRequest is the body of POST /api/enhance/parallel. The
// server generates candidates itself, so no SQL is supplied.
type ParallelEnhanceRequest struct {
	Question string `json:"question"`
	Dialect  string `json:"dialect,omitempty"`
}

// AnalyzeRequest is the body of POST /api/question/analyze.
type AnalyzeRequest struct {
	Question string `json:"question"`
}

// AnalyzeResponse reports question completeness for the pre-generation gate.
type AnalyzeResponse struct {
	Complete     bool                   `json:"complete"`
	Signals      []models.ContextSignal `json:"signals"`
	NeedsTime    bool                   `json:"needs_time"`
	NeedsGeo     bool                   `json:"needs_geography"`
	NeedsProduct bool                   `json:"needs_product"`
	NeedsMetric  bool                   `json:"needs_metric"`
	Suggestions  map[string][]string    `json:"suggestions,omitempty"`
}

// EnhanceResponse wraps a pipeline report with its rendered narrative.
type EnhanceResponse struct {
	*models.PipelineReport
	Explanation string `json:"explanation"`
}

// EnhanceHandler exposes the enhancement pipeline over HTTP.
type EnhanceHandler struct {
	orchestrator   *pipeline.Orchestrator
	generators     []llm.Generator
	defaultDialect models.Dialect
	logger         *zap.Logger
}

// NewEnhanceHandler creates an EnhanceHandler. generators may be empty, in
// which case parallel mode returns 503.
func NewEnhanceHandler(orchestrator *pipeline.Orchestrator, generators []llm.Generator, defaultDialect models.Dialect, logger *zap.Logger) *EnhanceHandler {
	return &EnhanceHandler{
		orchestrator:   orchestrator,
		generators:     generators,
		defaultDialect: defaultDialect,
		logger:         logger.Named("enhance-handler"),
	}
}

// RegisterRoutes registers the enhancement routes on the given mux.
func (h *EnhanceHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/enhance", h.Enhance)
	mux.HandleFunc("POST /api/enhance/parallel", h.EnhanceParallel)
	mux.HandleFunc("POST /api/question/analyze", h.Analyze)
}

// Enhance handles POST /api/enhance requests. Runs the supplied candidate
// SQL through the full pipeline and returns the report.
func (h *EnhanceHandler) Enhance(w http.ResponseWriter, r *http.Request) {
	var req EnhanceRequest
	if err := DecodeJSON(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Request body must be valid JSON")
		return
	}
	if strings.TrimSpace(req.SQL) == "" {
		h.writeError(w, http.StatusBadRequest, "missing_sql", "sql is required")
		return
	}

	report, err := h.orchestrator.Enhance(r.Context(), req.Question, req.SQL, h.dialect(req.Dialect))
	if err != nil {
		h.writePipelineError(w, err)
		return
	}

	h.writeReport(w, report)
}

// EnhanceParallel handles POST /api/enhance/parallel requests. Generates
// candidates from every configured provider, selects the best, and runs
// the pipeline over the winner.
func (h *EnhanceHandler) EnhanceParallel(w http.ResponseWriter, r *http.Request) {
	if len(h.generators) == 0 {
		h.writeError(w, http.StatusServiceUnavailable, "no_generators", "No generation providers are configured")
		return
	}

	var req ParallelEnhanceRequest
	if err := DecodeJSON(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Request body must be valid JSON")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		h.writeError(w, http.StatusBadRequest, "missing_question", "question is required")
		return
	}

	report, err := h.orchestrator.EnhanceParallel(r.Context(), req.Question, h.generators, h.dialect(req.Dialect))
	if err != nil {
		h.writePipelineError(w, err)
		return
	}

	h.writeReport(w, report)
}

// Analyze handles POST /api/question/analyze requests. Reports whether the
// question carries enough context for generation and suggests completions
// for whatever is missing.
func (h *EnhanceHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := DecodeJSON(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Request body must be valid JSON")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		h.writeError(w, http.StatusBadRequest, "missing_question", "question is required")
		return
	}

	c := question.AnalyzeCompleteness(req.Question)
	resp := AnalyzeResponse{
		Complete:     c.Complete(),
		Signals:      c.Signals,
		NeedsTime:    c.NeedsTime,
		NeedsGeo:     c.NeedsGeo,
		NeedsProduct: c.NeedsProduct,
		NeedsMetric:  c.NeedsMetric,
		Suggestions:  c.Suggestions,
	}
	if err := WriteJSON(w, http.StatusOK, resp); err != nil {
		h.logger.Error("Failed to encode analyze response", zap.Error(err))
	}
}

func (h *EnhanceHandler) dialect(requested string) models.Dialect {
	if requested == "" {
		return h.defaultDialect
	}
	return models.Dialect(strings.ToLower(requested))
}

func (h *EnhanceHandler) writeReport(w http.ResponseWriter, report *models.PipelineReport) {
	resp := EnhanceResponse{
		PipelineReport: report,
		Explanation:    report.Explain(),
	}
	if err := WriteJSON(w, http.StatusOK, resp); err != nil {
		h.logger.Error("Failed to encode enhance response", zap.Error(err))
	}
}

// writePipelineError maps pipeline errors onto HTTP statuses. Fatal
// validation results are not errors; they come back as reports with
// success=false.
func (h *EnhanceHandler) writePipelineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperrors.ErrInvalidDialect):
		h.writeError(w, http.StatusBadRequest, "invalid_dialect", err.Error())
	case errors.Is(err, apperrors.ErrNoCandidate):
		h.writeError(w, http.StatusUnprocessableEntity, "no_candidate", err.Error())
	case errors.Is(err, apperrors.ErrCatalogUnavailable):
		h.writeError(w, http.StatusServiceUnavailable, "catalog_unavailable", err.Error())
	default:
		h.logger.Error("Enhancement failed", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Enhancement failed")
	}
}

func (h *EnhanceHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	if err := ErrorResponse(w, status, code, message); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}
