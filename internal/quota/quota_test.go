package quota

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/phishguard/phishguard/internal/cache"
	"github.com/phishguard/phishguard/internal/domain"
	"github.com/phishguard/phishguard/internal/repository"
)

func TestQuotaService(t *testing.T) {
	lruCache := cache.NewLRUCache(100)
	defer lruCache.Close()

	svc := NewService(lruCache, nil, 3, time.Minute)

	ctx := context.Background()
	userID := "user-001"

	t.Run("AllowsUnderLimit", func(t *testing.T) {
		for i := 1; i <= 3; i++ {
			ok, count, err := svc.Allow(ctx, userID)
			if err != nil {
				t.Fatalf("Allow failed: %v", err)
			}
			if !ok {
				t.Errorf("attempt %d should be allowed", i)
			}
			if count != int64(i) {
				t.Errorf("expected count %d, got %d", i, count)
			}
		}
	})

	t.Run("DeniesOverLimit", func(t *testing.T) {
		ok, count, err := svc.Allow(ctx, userID)
		if err != nil {
			t.Fatalf("Allow failed: %v", err)
		}
		if ok {
			t.Error("fourth attempt should be denied")
		}
		if count != 4 {
			t.Errorf("expected count 4, got %d", count)
		}
	})

	t.Run("UserIsolation", func(t *testing.T) {
		ok, count, err := svc.Allow(ctx, "user-002")
		if err != nil {
			t.Fatalf("Allow failed: %v", err)
		}
		if !ok || count != 1 {
			t.Errorf("other user must have a fresh window, got ok=%v count=%d", ok, count)
		}
	})

	t.Run("RequiresUserID", func(t *testing.T) {
		if _, _, err := svc.Allow(ctx, ""); err == nil {
			t.Error("expected error for empty userID")
		}
	})

	t.Run("ZeroLimitDisables", func(t *testing.T) {
		unlimited := NewService(lruCache, nil, 0, time.Minute)
		for i := 0; i < 10; i++ {
			ok, _, err := unlimited.Allow(ctx, userID)
			if err != nil {
				t.Fatalf("Allow failed: %v", err)
			}
			if !ok {
				t.Fatal("zero limit must never deny")
			}
		}
	})

	t.Run("WindowReset", func(t *testing.T) {
		short := NewService(cache.NewLRUCache(10), nil, 1, 50*time.Millisecond)

		ok, _, _ := short.Allow(ctx, userID)
		if !ok {
			t.Fatal("first attempt should be allowed")
		}
		ok, _, _ = short.Allow(ctx, userID)
		if ok {
			t.Fatal("second attempt should be denied")
		}

		time.Sleep(60 * time.Millisecond)

		ok, count, _ := short.Allow(ctx, userID)
		if !ok || count != 1 {
			t.Errorf("expected fresh window after expiry, got ok=%v count=%d", ok, count)
		}
	})
}

func TestQuotaRepositoryFallback(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "quota-test-*.db")
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

	ctx := context.Background()
	userID := "user-001"

	// Two recent analyses on record.
	for i := 0; i < 2; i++ {
		analysis := &domain.Analysis{
			ID:        fmt.Sprintf("an-%d", i),
			UserID:    userID,
			InputText: "hello",
			Result:    &domain.AnalysisResult{ThreatLevel: domain.ThreatSafe},
			CreatedAt: time.Now().UTC(),
		}
		if err := repo.SaveAnalysis(ctx, userID, analysis); err != nil {
			t.Fatalf("failed to save analysis: %v", err)
		}
	}

	// No cache: the service counts from the repository.
	svc := NewService(nil, repo, 3, time.Hour)

	ok, count, err := svc.Allow(ctx, userID)
	if err != nil {
		t.Fatalf("Allow failed: %v", err)
	}
	if !ok || count != 3 {
		t.Errorf("expected allowed with count 3, got ok=%v count=%d", ok, count)
	}

	// A third stored analysis exhausts the quota.
	analysis := &domain.Analysis{
		ID:        "an-2",
		UserID:    userID,
		InputText: "hello again",
		Result:    &domain.AnalysisResult{ThreatLevel: domain.ThreatSafe},
		CreatedAt: time.Now().UTC(),
	}
	if err := repo.SaveAnalysis(ctx, userID, analysis); err != nil {
		t.Fatalf("failed to save analysis: %v", err)
	}

	ok, _, err = svc.Allow(ctx, userID)
	if err != nil {
		t.Fatalf("Allow failed: %v", err)
	}
	if ok {
		t.Error("expected denial once stored analyses reach the limit")
	}
}

func TestQuotaNoDataSource(t *testing.T) {
	svc := NewService(nil, nil, 5, time.Minute)

	if _, _, err := svc.Allow(context.Background(), "user-001"); err == nil {
		t.Error("expected error with no data source")
	}
}
