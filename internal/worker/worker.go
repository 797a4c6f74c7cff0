// Package worker provides async analysis processing from the event bus.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/phishguard/phishguard/internal/alerts"
	"github.com/phishguard/phishguard/internal/domain"
	"github.com/phishguard/phishguard/internal/engine"
)

// Worker consumes analysis requests from the EventBus, runs the
// detection engine and alert rules, persists the outcome, and publishes
// completion and alert events.
type Worker struct {
	bus    domain.EventBus
	repo   domain.Repository
	engine *engine.Engine
	alerts *alerts.Engine

	subscriptions []domain.Subscription
	wg            sync.WaitGroup
	ctx           context.Context
	cancel        context.CancelFunc
}

// Config holds worker configuration.
type Config struct {
	// UserIDs is the list of users to process (empty = one wildcard
	// subscription covering all users)
	UserIDs []string
}

// NewWorker creates a new async worker.
func NewWorker(bus domain.EventBus, repo domain.Repository, eng *engine.Engine, alertEngine *alerts.Engine) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		bus:    bus,
		repo:   repo,
		engine: eng,
		alerts: alertEngine,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins processing analysis requests.
func (w *Worker) Start(cfg Config) error {
	if len(cfg.UserIDs) == 0 {
		return w.startGlobalWorker()
	}

	for _, userID := range cfg.UserIDs {
		if err := w.startUserWorker(userID); err != nil {
			slog.Error("failed to start worker for user",
				"user_id", userID,
				"error", err,
			)
			continue
		}
	}

	slog.Info("workers started",
		"user_count", len(cfg.UserIDs),
	)

	return nil
}

// startGlobalWorker subscribes once with the wildcard user ID, so a
// single worker drains the request topic for every user regardless of
// which user ID the API published under.
func (w *Worker) startGlobalWorker() error {
	sub, err := w.bus.Subscribe(w.ctx, domain.AllUsers, domain.TopicAnalysisRequested, w.handleMessage)
	if err != nil {
		return err
	}
	w.subscriptions = append(w.subscriptions, sub)

	slog.Info("global worker started")
	return nil
}

// startUserWorker starts a worker for a specific user.
func (w *Worker) startUserWorker(userID string) error {
	sub, err := w.bus.Subscribe(w.ctx, userID, domain.TopicAnalysisRequested, func(ctx context.Context, msg *domain.Message) error {
		return w.processRequest(ctx, userID, msg)
	})
	if err != nil {
		return err
	}
	w.subscriptions = append(w.subscriptions, sub)

	slog.Info("user worker started",
		"user_id", userID,
		"topic", domain.TopicAnalysisRequested,
	)

	return nil
}

// handleMessage handles messages from the global subscription.
func (w *Worker) handleMessage(ctx context.Context, msg *domain.Message) error {
	return w.processRequest(ctx, msg.UserID, msg)
}

// AnalysisRequest is the message payload for async analysis.
type AnalysisRequest struct {
	AnalysisID string `json:"analysisId"`
	UserID     string `json:"userId"`
	InputText  string `json:"inputText"`
	TraceID    string `json:"traceId,omitempty"`
}

// processRequest runs one analysis request through the pipeline.
func (w *Worker) processRequest(ctx context.Context, userID string, msg *domain.Message) error {
	start := time.Now()

	var req AnalysisRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		slog.Error("failed to parse analysis request",
			"message_id", msg.ID,
			"error", err,
		)
		return err
	}

	// Use message user if provided
	if req.UserID != "" {
		userID = req.UserID
	}

	traceID := req.TraceID
	if traceID == "" {
		traceID = msg.ID
	}

	slog.Debug("processing analysis request",
		"analysis_id", req.AnalysisID,
		"user_id", userID,
		"trace_id", traceID,
	)

	// 1. Run the detection engine
	result, err := w.engine.Analyze(ctx, req.InputText)
	if err != nil {
		// Empty input is a request defect, not a pipeline failure.
		if errors.Is(err, domain.ErrEmptyInput) {
			slog.Warn("dropping empty analysis request",
				"analysis_id", req.AnalysisID,
				"user_id", userID,
			)
			return nil
		}
		slog.Error("analysis failed",
			"analysis_id", req.AnalysisID,
			"error", err,
		)
		return err
	}

	// 2. Evaluate alert rules against the result
	var hits []domain.AlertHit
	if w.alerts != nil && w.alerts.RulesCount() > 0 {
		hits, err = w.alerts.EvaluateAll(ctx, result)
		if err != nil {
			slog.Error("alert evaluation failed",
				"analysis_id", req.AnalysisID,
				"error", err,
			)
		}
	}

	analysis := &domain.Analysis{
		ID:        req.AnalysisID,
		UserID:    userID,
		InputText: req.InputText,
		Result:    result,
		AlertHits: hits,
		CreatedAt: time.Now().UTC(),
	}

	// 3. Persist
	if w.repo != nil {
		if err := w.repo.SaveAnalysis(ctx, userID, analysis); err != nil {
			slog.Error("failed to save analysis",
				"analysis_id", req.AnalysisID,
				"error", err,
			)
		}
	}

	payload, _ := json.Marshal(analysis)

	// 4. Answer synchronous requests first, then broadcast completion
	if replyTo := msg.Metadata[domain.MetaReplyTo]; replyTo != "" {
		if err := w.bus.Publish(ctx, userID, replyTo, payload); err != nil {
			slog.Error("failed to publish reply",
				"analysis_id", req.AnalysisID,
				"error", err,
			)
		}
	}

	if err := w.bus.Publish(ctx, userID, domain.TopicAnalysisCompleted, payload); err != nil {
		slog.Error("failed to publish completion",
			"analysis_id", req.AnalysisID,
			"error", err,
		)
	}

	// 5. If any alert rule fired, publish to the alert topic
	if len(hits) > 0 {
		if err := w.bus.Publish(ctx, userID, domain.TopicAnalysisAlert, payload); err != nil {
			slog.Error("failed to publish alert",
				"analysis_id", req.AnalysisID,
				"error", err,
			)
		}
	}

	slog.Info("analysis processed",
		"analysis_id", req.AnalysisID,
		"user_id", userID,
		"risk_score", result.RiskScore,
		"threat_level", result.ThreatLevel,
		"alert_count", len(hits),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return nil
}

// Stop gracefully stops all workers.
func (w *Worker) Stop() error {
	w.cancel()

	// Unsubscribe all
	for _, sub := range w.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			slog.Error("failed to unsubscribe",
				"topic", sub.Topic(),
				"error", err,
			)
		}
	}
	w.subscriptions = nil

	w.wg.Wait()

	slog.Info("workers stopped")
	return nil
}

// Stats returns worker statistics.
type Stats struct {
	SubscriptionCount int      `json:"subscriptionCount"`
	Topics            []string `json:"topics"`
}

// GetStats returns current worker statistics.
func (w *Worker) GetStats() Stats {
	topics := make([]string, len(w.subscriptions))
	for i, sub := range w.subscriptions {
		topics[i] = sub.Topic()
	}
	return Stats{
		SubscriptionCount: len(w.subscriptions),
		Topics:            topics,
	}
}
