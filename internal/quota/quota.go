// Package quota enforces per-user analysis rate limits.
package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/phishguard/phishguard/internal/domain"
)

// Service tracks how many analyses each user has submitted inside a
// rolling window. The cache counter is authoritative; the repository is
// the fallback when the counter is unavailable.
type Service struct {
	cache  domain.Cache
	repo   domain.Repository
	limit  int64
	window time.Duration
}

// counterKey names the windowed counter in the cache.
const counterKey = "analyses"

// NewService creates a new quota service. A limit of zero disables
// enforcement.
func NewService(cache domain.Cache, repo domain.Repository, limit int, window time.Duration) *Service {
	if window <= 0 {
		window = time.Minute
	}
	return &Service{
		cache:  cache,
		repo:   repo,
		limit:  int64(limit),
		window: window,
	}
}

// Allow records one analysis attempt for the user and reports whether it
// fits inside the quota. The returned count is the user's usage in the
// current window, including this attempt.
func (s *Service) Allow(ctx context.Context, userID string) (bool, int64, error) {
	if userID == "" {
		return false, 0, fmt.Errorf("userID is required")
	}

	if s.limit <= 0 {
		return true, 0, nil
	}

	if s.cache != nil {
		count, err := s.cache.IncrementCounter(ctx, userID, counterKey, s.window)
		if err == nil {
			return count <= s.limit, count, nil
		}
	}

	if s.repo != nil {
		// The repository count does not include the current attempt,
		// so the comparison is strict.
		count, err := s.repo.CountAnalysesSince(ctx, userID, time.Now().Add(-s.window))
		if err != nil {
			return false, 0, fmt.Errorf("failed to count analyses: %w", err)
		}
		return count < s.limit, count + 1, nil
	}

	return false, 0, fmt.Errorf("no data source available")
}

// Limit returns the configured per-window limit.
func (s *Service) Limit() int64 {
	return s.limit
}

// Window returns the configured quota window.
func (s *Service) Window() time.Duration {
	return s.window
}
