package api

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/phishguard/phishguard/internal/alerts"
	"github.com/phishguard/phishguard/internal/domain"
	"github.com/phishguard/phishguard/internal/engine"
)

// resultTTL bounds how long a memoized analysis result stays cached.
const resultTTL = time.Hour

// syncAnalyzeTimeout bounds how long a ?wait=true async request blocks
// for the worker's reply.
const syncAnalyzeTimeout = 15 * time.Second

// Handler holds dependencies for API handlers.
type Handler struct {
	repo     domain.Repository
	cache    domain.Cache
	bus      domain.EventBus
	engine   *engine.Engine
	alerts   *alerts.Engine
	renderer domain.ReportRenderer
	version  string
}

// NewHandler creates a new API handler.
func NewHandler(repo domain.Repository, cache domain.Cache, bus domain.EventBus, eng *engine.Engine, alertEngine *alerts.Engine, renderer domain.ReportRenderer, version string) *Handler {
	return &Handler{
		repo:     repo,
		cache:    cache,
		bus:      bus,
		engine:   eng,
		alerts:   alertEngine,
		renderer: renderer,
		version:  version,
	}
}

// AnalyzeRequest is the request body for POST /analyze.
type AnalyzeRequest struct {
	InputText string `json:"inputText"`
}

// AnalyzeResponse is the response for POST /analyze.
type AnalyzeResponse struct {
	AnalysisID string                 `json:"analysisId"`
	Result     *domain.AnalysisResult `json:"result"`
	AlertHits  []domain.AlertHit      `json:"alertHits,omitempty"`
	Cached     bool                   `json:"cached"`
	Metadata   struct {
		TraceID string `json:"traceId"`
		TotalMs int64  `json:"totalMs"`
		Version string `json:"version"`
	} `json:"metadata"`
}

// Analyze handles POST /analyze requests: run the detection engine,
// evaluate alert rules, persist the analysis, publish events, respond.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	userID := GetUserID(ctx)
	traceID := GetTraceID(ctx)

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	// 1. Memoization lookup. Sound because the engine is deterministic.
	digest := inputDigest(req.InputText)
	var result *domain.AnalysisResult
	cached := false
	if h.cache != nil && strings.TrimSpace(req.InputText) != "" {
		if hit, err := h.cache.GetResult(ctx, userID, digest); err == nil && hit != nil {
			result = hit
			cached = true
		}
	}

	// 2. Run the engine on a miss
	if result == nil {
		var err error
		result, err = h.engine.Analyze(ctx, req.InputText)
		if err != nil {
			if errors.Is(err, domain.ErrEmptyInput) {
				writeJSON(w, http.StatusBadRequest, map[string]string{
					"error": "input text is required",
				})
				return
			}
			slog.Error("analysis failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "analysis failed",
			})
			return
		}

		if h.cache != nil {
			if err := h.cache.SetResult(ctx, userID, digest, result, resultTTL); err != nil {
				slog.Warn("failed to memoize result", "error", err)
			}
		}
	}

	// 3. Evaluate alert rules
	var hits []domain.AlertHit
	if h.alerts != nil && h.alerts.RulesCount() > 0 {
		var err error
		hits, err = h.alerts.EvaluateAll(ctx, result)
		if err != nil {
			slog.Error("alert evaluation failed", "error", err)
		}
	}

	// 4. Persist the analysis record
	analysis := &domain.Analysis{
		ID:        uuid.New().String(),
		UserID:    userID,
		InputText: req.InputText,
		Result:    result,
		AlertHits: hits,
		CreatedAt: time.Now().UTC(),
	}

	if h.repo != nil {
		if err := h.repo.SaveAnalysis(ctx, userID, analysis); err != nil {
			slog.Error("failed to save analysis", "analysis_id", analysis.ID, "error", err)
		}
	}

	// 5. Publish completion and any alerts
	if h.bus != nil {
		if payload, err := json.Marshal(analysis); err == nil {
			if err := h.bus.Publish(ctx, userID, domain.TopicAnalysisCompleted, payload); err != nil {
				slog.Warn("failed to publish completion", "error", err)
			}
		}

		if len(hits) > 0 {
			alertPayload, err := json.Marshal(map[string]any{
				"analysisId": analysis.ID,
				"riskScore":  result.RiskScore,
				"hits":       hits,
			})
			if err == nil {
				if err := h.bus.Publish(ctx, userID, domain.TopicAnalysisAlert, alertPayload); err != nil {
					slog.Warn("failed to publish alert", "error", err)
				}
			}
		}
	}

	// 6. Respond
	resp := AnalyzeResponse{
		AnalysisID: analysis.ID,
		Result:     result,
		AlertHits:  hits,
		Cached:     cached,
	}
	resp.Metadata.TraceID = traceID
	resp.Metadata.TotalMs = time.Since(start).Milliseconds()
	resp.Metadata.Version = h.version

	writeJSON(w, http.StatusOK, resp)
}

// asyncRequest is the bus payload for queued analyses. Field names match
// the worker's request contract.
type asyncRequest struct {
	AnalysisID string `json:"analysisId"`
	UserID     string `json:"userId"`
	InputText  string `json:"inputText"`
	TraceID    string `json:"traceId,omitempty"`
}

// AnalyzeAsync handles POST /analyze/async: validate, enqueue on the
// event bus, and return 202 with the assigned analysis ID. With
// ?wait=true the request runs synchronously over the bus instead: it
// blocks for the worker's reply and returns the finished analysis.
func (h *Handler) AnalyzeAsync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := GetUserID(ctx)
	traceID := GetTraceID(ctx)

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	if strings.TrimSpace(req.InputText) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "input text is required",
		})
		return
	}

	if h.bus == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "event bus not available",
		})
		return
	}

	analysisID := uuid.New().String()
	payload, err := json.Marshal(asyncRequest{
		AnalysisID: analysisID,
		UserID:     userID,
		InputText:  req.InputText,
		TraceID:    traceID,
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to encode request",
		})
		return
	}

	if r.URL.Query().Get("wait") == "true" {
		reqCtx, cancel := context.WithTimeout(ctx, syncAnalyzeTimeout)
		defer cancel()

		reply, err := h.bus.Request(reqCtx, userID, domain.TopicAnalysisRequested, payload)
		if err != nil {
			slog.Error("synchronous analysis failed", "analysis_id", analysisID, "error", err)
			writeJSON(w, http.StatusGatewayTimeout, map[string]string{
				"error": "analysis worker did not respond",
			})
			return
		}

		var analysis domain.Analysis
		if err := json.Unmarshal(reply, &analysis); err != nil {
			slog.Error("invalid worker reply", "analysis_id", analysisID, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "invalid worker reply",
			})
			return
		}

		writeJSON(w, http.StatusOK, analysis)
		return
	}

	if err := h.bus.Publish(ctx, userID, domain.TopicAnalysisRequested, payload); err != nil {
		slog.Error("failed to enqueue analysis", "analysis_id", analysisID, "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "failed to enqueue analysis",
		})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"analysisId": analysisID,
		"status":     "queued",
	})
}

// DeleteAlertRule removes an alert rule from the database and unloads
// it from the live engine.
func (h *Handler) DeleteAlertRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ruleID := chi.URLParam(r, "id")

	if ruleID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "rule id is required",
		})
		return
	}

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	if err := h.repo.DeleteAlertRule(ctx, ruleID); err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "alert rule not found",
		})
		return
	}

	if h.alerts != nil {
		h.alerts.UnloadRule(ruleID)
	}

	slog.Info("alert rule deleted", "id", ruleID)
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "alert rule deleted",
	})
}

// GetAnalysis retrieves a stored analysis by ID, scoped to the caller.
func (h *Handler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := GetUserID(ctx)
	analysisID := chi.URLParam(r, "id")

	if analysisID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "analysis id is required",
		})
		return
	}

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	analysis, err := h.repo.GetAnalysis(ctx, userID, analysisID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "analysis not found",
		})
		return
	}

	writeJSON(w, http.StatusOK, analysis)
}

// ListAnalyses returns the caller's analyses, newest first.
func (h *Handler) ListAnalyses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := GetUserID(ctx)

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "limit must be a positive integer",
			})
			return
		}
		limit = parsed
	}

	analyses, err := h.repo.ListAnalyses(ctx, userID, limit)
	if err != nil {
		slog.Error("failed to list analyses", "user_id", userID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to list analyses",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"analyses": analyses,
		"count":    len(analyses),
	})
}

// DeleteAnalysis removes a stored analysis owned by the caller.
func (h *Handler) DeleteAnalysis(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := GetUserID(ctx)
	analysisID := chi.URLParam(r, "id")

	if analysisID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "analysis id is required",
		})
		return
	}

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	if err := h.repo.DeleteAnalysis(ctx, userID, analysisID); err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "analysis not found",
		})
		return
	}

	slog.Info("analysis deleted", "analysis_id", analysisID, "user_id", userID)
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "analysis deleted",
	})
}

// GetReport renders a stored analysis as a downloadable report.
// Optional name/email query parameters personalize the footer.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := GetUserID(ctx)
	analysisID := chi.URLParam(r, "id")

	if h.repo == nil || h.renderer == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "report rendering not available",
		})
		return
	}

	analysis, err := h.repo.GetAnalysis(ctx, userID, analysisID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "analysis not found",
		})
		return
	}

	body, contentType, err := h.renderer.Render(analysis, r.URL.Query().Get("name"), r.URL.Query().Get("email"))
	if err != nil {
		slog.Error("report rendering failed", "analysis_id", analysisID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to render report",
		})
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="phishguard-report-%s.txt"`, analysisID))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// Health returns server health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"

	// Check repository health
	if h.repo != nil {
		if err := h.repo.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	// Check cache health
	if h.cache != nil {
		if err := h.cache.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"version": h.version,
	})
}

// Ready returns whether the server is ready to accept traffic.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"ready": "true",
	})
}

// ListAlertRules returns all alert rules loaded in the engine.
// Rules are loaded from the database at startup and can be reloaded via
// POST /alert-rules/reload.
func (h *Handler) ListAlertRules(w http.ResponseWriter, r *http.Request) {
	if h.alerts == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "alert engine not available",
		})
		return
	}

	loaded := h.alerts.GetLoadedRules()

	writeJSON(w, http.StatusOK, map[string]any{
		"rules":  loaded,
		"count":  len(loaded),
		"source": "database",
	})
}

// CreateAlertRuleRequest is the request body for creating an alert rule.
type CreateAlertRuleRequest struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Expression  string `json:"expression"`
	Severity    string `json:"severity"`
	Enabled     bool   `json:"enabled"`
}

// CreateAlertRule creates a new alert rule and saves it to the database.
// After saving, call POST /alert-rules/reload to hot-reload the engine.
func (h *Handler) CreateAlertRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.alerts == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "alert engine not available",
		})
		return
	}

	var req CreateAlertRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	if req.ID == "" || req.Name == "" || req.Expression == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "id, name, and expression are required",
		})
		return
	}

	rule := &domain.AlertRule{
		ID:          req.ID,
		Name:        req.Name,
		Description: req.Description,
		Expression:  req.Expression,
		Severity:    req.Severity,
		Enabled:     req.Enabled,
	}

	// Validate the CEL expression before persisting
	if err := h.alerts.ValidateRule(rule); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid CEL expression: " + err.Error(),
		})
		return
	}

	// Enabled rules take effect immediately; disabled ones wait for a
	// reload after being switched on.
	if rule.Enabled {
		if err := h.alerts.LoadRule(rule); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "invalid CEL expression: " + err.Error(),
			})
			return
		}
	}

	if h.repo != nil {
		if err := h.repo.SaveAlertRule(ctx, rule); err != nil {
			slog.Error("failed to save alert rule", "id", rule.ID, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "failed to save alert rule",
			})
			return
		}
	}

	slog.Info("alert rule created", "id", rule.ID, "name", rule.Name)
	writeJSON(w, http.StatusCreated, map[string]any{
		"rule":    rule,
		"message": "Alert rule created. Call POST /alert-rules/reload to apply changes.",
	})
}

// ReloadAlertRules reloads all alert rules from the database into the
// engine. This enables hot-reloading without server restart.
func (h *Handler) ReloadAlertRules(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}
	if h.alerts == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "alert engine not available",
		})
		return
	}

	dbRules, err := h.repo.ListAlertRules(ctx)
	if err != nil {
		slog.Error("failed to list alert rules from database", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to load alert rules from database",
		})
		return
	}

	if err := h.alerts.ReloadRules(dbRules); err != nil {
		slog.Error("failed to reload alert rules into engine", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to reload alert rules: " + err.Error(),
		})
		return
	}

	slog.Info("alert rules reloaded from database", "count", len(dbRules))
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "alert rules reloaded successfully",
		"count":   h.alerts.RulesCount(),
	})
}

// inputDigest returns the memoization key for an input text.
func inputDigest(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
