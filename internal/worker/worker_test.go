package worker

import (
	"context"
	"encoding/json"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/phishguard/phishguard/internal/alerts"
	"github.com/phishguard/phishguard/internal/bus"
	"github.com/phishguard/phishguard/internal/domain"
	"github.com/phishguard/phishguard/internal/engine"
	"github.com/phishguard/phishguard/internal/repository"
)

func TestWorker(t *testing.T) {
	eventBus := bus.NewChannelBus(100)
	defer eventBus.Close()

	eng := engine.New(nil)

	alertEngine, err := alerts.NewEngine(5)
	if err != nil {
		t.Fatalf("failed to create alert engine: %v", err)
	}
	if err := alertEngine.LoadRules(alerts.BuiltinRules()); err != nil {
		t.Fatalf("failed to load alert rules: %v", err)
	}

	worker := NewWorker(eventBus, nil, eng, alertEngine)

	t.Run("StartAndStop", func(t *testing.T) {
		cfg := Config{
			UserIDs: []string{"user-001"},
		}

		err := worker.Start(cfg)
		if err != nil {
			t.Fatalf("Start failed: %v", err)
		}

		stats := worker.GetStats()
		if stats.SubscriptionCount != 1 {
			t.Errorf("expected 1 subscription, got %d", stats.SubscriptionCount)
		}

		err = worker.Stop()
		if err != nil {
			t.Errorf("Stop failed: %v", err)
		}

		stats = worker.GetStats()
		if stats.SubscriptionCount != 0 {
			t.Errorf("expected 0 subscriptions after stop, got %d", stats.SubscriptionCount)
		}
	})

	t.Run("ProcessRequest", func(t *testing.T) {
		w := NewWorker(eventBus, nil, eng, alertEngine)

		cfg := Config{
			UserIDs: []string{"user-test"},
		}
		w.Start(cfg)
		defer w.Stop()

		var completedReceived atomic.Bool
		var completedPayload []byte

		eventBus.Subscribe(context.Background(), "user-test", domain.TopicAnalysisCompleted, func(ctx context.Context, msg *domain.Message) error {
			completedPayload = msg.Payload
			completedReceived.Store(true)
			return nil
		})

		// Allow subscriptions to be active
		time.Sleep(50 * time.Millisecond)

		req := AnalysisRequest{
			AnalysisID: "an-001",
			UserID:     "user-test",
			InputText:  "Hi, let's meet for lunch tomorrow at noon.",
			TraceID:    "trace-001",
		}

		payload, _ := json.Marshal(req)
		err := eventBus.Publish(context.Background(), "user-test", domain.TopicAnalysisRequested, payload)
		if err != nil {
			t.Fatalf("Publish failed: %v", err)
		}

		// Wait for processing
		time.Sleep(100 * time.Millisecond)

		if !completedReceived.Load() {
			t.Fatal("expected completion to be published")
		}

		var analysis domain.Analysis
		if err := json.Unmarshal(completedPayload, &analysis); err != nil {
			t.Fatalf("failed to parse completion: %v", err)
		}

		if analysis.ID != "an-001" {
			t.Errorf("expected analysis ID 'an-001', got '%s'", analysis.ID)
		}
		if analysis.UserID != "user-test" {
			t.Errorf("expected userID 'user-test', got '%s'", analysis.UserID)
		}
		if analysis.Result == nil || analysis.Result.ThreatLevel != domain.ThreatSafe {
			t.Errorf("expected safe result, got %+v", analysis.Result)
		}
		if len(analysis.AlertHits) != 0 {
			t.Errorf("expected no alert hits for safe text, got %+v", analysis.AlertHits)
		}
	})

	t.Run("AlertPublished", func(t *testing.T) {
		w := NewWorker(eventBus, nil, eng, alertEngine)

		cfg := Config{
			UserIDs: []string{"user-alert"},
		}
		w.Start(cfg)
		defer w.Stop()

		var alertReceived atomic.Bool

		eventBus.Subscribe(context.Background(), "user-alert", domain.TopicAnalysisAlert, func(ctx context.Context, msg *domain.Message) error {
			alertReceived.Store(true)
			return nil
		})

		time.Sleep(50 * time.Millisecond)

		req := AnalysisRequest{
			AnalysisID: "an-alert",
			UserID:     "user-alert",
			InputText:  "URGENT: verify your account now, click here http://paypal-secure-login.tk",
		}

		payload, _ := json.Marshal(req)
		eventBus.Publish(context.Background(), "user-alert", domain.TopicAnalysisRequested, payload)

		time.Sleep(100 * time.Millisecond)

		if !alertReceived.Load() {
			t.Error("expected alert to be published for critical text")
		}
	})

	t.Run("EmptyInputDropped", func(t *testing.T) {
		w := NewWorker(eventBus, nil, eng, alertEngine)

		cfg := Config{
			UserIDs: []string{"user-empty"},
		}
		w.Start(cfg)
		defer w.Stop()

		var completedReceived atomic.Bool
		eventBus.Subscribe(context.Background(), "user-empty", domain.TopicAnalysisCompleted, func(ctx context.Context, msg *domain.Message) error {
			completedReceived.Store(true)
			return nil
		})

		time.Sleep(50 * time.Millisecond)

		req := AnalysisRequest{AnalysisID: "an-empty", UserID: "user-empty", InputText: "   "}
		payload, _ := json.Marshal(req)
		eventBus.Publish(context.Background(), "user-empty", domain.TopicAnalysisRequested, payload)

		time.Sleep(100 * time.Millisecond)

		if completedReceived.Load() {
			t.Error("empty request must not produce a completion")
		}
	})

	t.Run("GlobalSubscription", func(t *testing.T) {
		w := NewWorker(eventBus, nil, eng, alertEngine)

		// Empty user list, the default deployment
		if err := w.Start(Config{}); err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		defer w.Stop()

		stats := w.GetStats()
		if stats.SubscriptionCount != 1 {
			t.Fatalf("expected 1 wildcard subscription, got %d", stats.SubscriptionCount)
		}

		var completedReceived atomic.Bool
		var completedPayload []byte

		eventBus.Subscribe(context.Background(), "user-global", domain.TopicAnalysisCompleted, func(ctx context.Context, msg *domain.Message) error {
			completedPayload = msg.Payload
			completedReceived.Store(true)
			return nil
		})

		time.Sleep(50 * time.Millisecond)

		// Published under the caller's own user ID, exactly as the
		// async API endpoint does.
		req := AnalysisRequest{
			AnalysisID: "an-global",
			UserID:     "user-global",
			InputText:  "Hi, let's meet for lunch tomorrow at noon.",
		}
		payload, _ := json.Marshal(req)
		eventBus.Publish(context.Background(), "user-global", domain.TopicAnalysisRequested, payload)

		time.Sleep(100 * time.Millisecond)

		if !completedReceived.Load() {
			t.Fatal("wildcard worker must process requests published under any user ID")
		}

		var analysis domain.Analysis
		if err := json.Unmarshal(completedPayload, &analysis); err != nil {
			t.Fatalf("failed to parse completion: %v", err)
		}
		if analysis.ID != "an-global" {
			t.Errorf("expected analysis ID 'an-global', got '%s'", analysis.ID)
		}
		if analysis.UserID != "user-global" {
			t.Errorf("expected userID 'user-global', got '%s'", analysis.UserID)
		}
	})

	t.Run("SyncRequestReply", func(t *testing.T) {
		w := NewWorker(eventBus, nil, eng, alertEngine)
		w.Start(Config{})
		defer w.Stop()

		time.Sleep(50 * time.Millisecond)

		req := AnalysisRequest{
			AnalysisID: "an-sync",
			UserID:     "user-sync",
			InputText:  "urgent action required",
		}
		payload, _ := json.Marshal(req)

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		reply, err := eventBus.Request(ctx, "user-sync", domain.TopicAnalysisRequested, payload)
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}

		var analysis domain.Analysis
		if err := json.Unmarshal(reply, &analysis); err != nil {
			t.Fatalf("failed to parse reply: %v", err)
		}
		if analysis.ID != "an-sync" {
			t.Errorf("expected analysis ID 'an-sync', got '%s'", analysis.ID)
		}
		if analysis.Result == nil || analysis.Result.RiskScore == 0 {
			t.Errorf("expected non-zero risk in reply, got %+v", analysis.Result)
		}
	})

	t.Run("MultiUser", func(t *testing.T) {
		w := NewWorker(eventBus, nil, eng, alertEngine)

		cfg := Config{
			UserIDs: []string{"user-a", "user-b"},
		}
		w.Start(cfg)
		defer w.Stop()

		stats := w.GetStats()
		if stats.SubscriptionCount != 2 {
			t.Errorf("expected 2 subscriptions for 2 users, got %d", stats.SubscriptionCount)
		}
	})
}

func TestAnalysisRequestParsing(t *testing.T) {
	raw := `{"analysisId":"an-42","userId":"user-9","inputText":"verify your account","traceId":"tr-1"}`

	var req AnalysisRequest
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		t.Fatalf("failed to parse request: %v", err)
	}

	if req.AnalysisID != "an-42" {
		t.Errorf("expected analysisId 'an-42', got '%s'", req.AnalysisID)
	}
	if req.UserID != "user-9" {
		t.Errorf("expected userId 'user-9', got '%s'", req.UserID)
	}
	if req.InputText != "verify your account" {
		t.Errorf("unexpected inputText '%s'", req.InputText)
	}
	if req.TraceID != "tr-1" {
		t.Errorf("expected traceId 'tr-1', got '%s'", req.TraceID)
	}
}

func TestWorkerPersists(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "worker-test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpPath := tmpFile.Name()
	tmpFile.Close()
	defer os.Remove(tmpPath)

	repo, err := repository.New(domain.RepositoryConfig{
		Driver:     "sqlite",
		SQLitePath: tmpPath,
	})
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	defer repo.Close()

	eventBus := bus.NewChannelBus(100)
	defer eventBus.Close()

	w := NewWorker(eventBus, repo, engine.New(nil), nil)
	w.Start(Config{UserIDs: []string{"user-db"}})
	defer w.Stop()

	time.Sleep(50 * time.Millisecond)

	req := AnalysisRequest{
		AnalysisID: "an-db",
		UserID:     "user-db",
		InputText:  "urgent action required",
	}
	payload, _ := json.Marshal(req)
	eventBus.Publish(context.Background(), "user-db", domain.TopicAnalysisRequested, payload)

	time.Sleep(150 * time.Millisecond)

	stored, err := repo.GetAnalysis(context.Background(), "user-db", "an-db")
	if err != nil {
		t.Fatalf("expected stored analysis: %v", err)
	}
	if stored.Result == nil || stored.Result.RiskScore == 0 {
		t.Errorf("expected non-zero risk persisted, got %+v", stored.Result)
	}
}
