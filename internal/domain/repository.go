package domain

import (
	"context"
	"time"
)

// Repository defines the interface for data persistence.
// Analysis records are scoped to the submitting user.
type Repository interface {
	// Analysis records
	SaveAnalysis(ctx context.Context, userID string, analysis *Analysis) error
	GetAnalysis(ctx context.Context, userID string, analysisID string) (*Analysis, error)
	ListAnalyses(ctx context.Context, userID string, limit int) ([]*Analysis, error)
	DeleteAnalysis(ctx context.Context, userID string, analysisID string) error

	// CountAnalysesSince returns how many analyses a user submitted since
	// the given time. Used as the quota fallback when the cache counter
	// is unavailable.
	CountAnalysesSince(ctx context.Context, userID string, since time.Time) (int64, error)

	// Alert rule configuration
	SaveAlertRule(ctx context.Context, rule *AlertRule) error
	ListAlertRules(ctx context.Context) ([]*AlertRule, error)
	DeleteAlertRule(ctx context.Context, ruleID string) error

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// RepositoryConfig holds configuration for repository initialization.
type RepositoryConfig struct {
	// Driver is the database driver: "sqlite" or "postgres"
	Driver string

	// SQLite specific
	SQLitePath string

	// PostgreSQL specific
	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}
