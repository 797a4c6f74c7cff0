// Package repository provides data persistence implementations.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/phishguard/phishguard/internal/domain"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidInput = errors.New("invalid input")
)

// SQLRepository implements domain.Repository using database/sql.
// Works with both SQLite and PostgreSQL drivers.
type SQLRepository struct {
	db     *sql.DB
	driver string
}

// New creates a new repository based on configuration.
func New(cfg domain.RepositoryConfig) (domain.Repository, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = openSQLite(cfg)
	case "postgres":
		db, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	repo := &SQLRepository{
		db:     db,
		driver: cfg.Driver,
	}

	// Run migrations
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

func (r *SQLRepository) migrate() error {
	for _, schema := range AllSchemas() {
		if _, err := r.db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

// SaveAnalysis stores an analysis record scoped to the submitting user.
// Risk score and threat level are duplicated into their own columns so
// listings never have to parse the result document.
func (r *SQLRepository) SaveAnalysis(ctx context.Context, userID string, analysis *domain.Analysis) error {
	if userID == "" {
		return fmt.Errorf("%w: userID is required", ErrInvalidInput)
	}
	if analysis.Result == nil {
		return fmt.Errorf("%w: analysis result is required", ErrInvalidInput)
	}

	result, err := json.Marshal(analysis.Result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	alertHits, _ := json.Marshal(analysis.AlertHits)

	query := `
		INSERT INTO analyses (
			id, user_id, input_text, risk_score, threat_level,
			result, alert_hits, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, r.rebind(query),
		analysis.ID, userID, analysis.InputText,
		analysis.Result.RiskScore, string(analysis.Result.ThreatLevel),
		string(result), string(alertHits), analysis.CreatedAt,
	)
	return err
}

// GetAnalysis retrieves an analysis by ID scoped to the user.
func (r *SQLRepository) GetAnalysis(ctx context.Context, userID string, analysisID string) (*domain.Analysis, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: userID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, user_id, input_text, result, alert_hits, created_at
		FROM analyses
		WHERE user_id = ? AND id = ?
	`

	row := r.db.QueryRowContext(ctx, r.rebind(query), userID, analysisID)
	analysis, err := scanAnalysis(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return analysis, err
}

// ListAnalyses retrieves a user's analyses, newest first.
func (r *SQLRepository) ListAnalyses(ctx context.Context, userID string, limit int) ([]*domain.Analysis, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: userID is required", ErrInvalidInput)
	}
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, user_id, input_text, result, alert_hits, created_at
		FROM analyses
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var analyses []*domain.Analysis
	for rows.Next() {
		analysis, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		analyses = append(analyses, analysis)
	}

	return analyses, rows.Err()
}

// DeleteAnalysis removes an analysis scoped to the user.
func (r *SQLRepository) DeleteAnalysis(ctx context.Context, userID string, analysisID string) error {
	if userID == "" {
		return fmt.Errorf("%w: userID is required", ErrInvalidInput)
	}

	query := `DELETE FROM analyses WHERE user_id = ? AND id = ?`

	result, err := r.db.ExecContext(ctx, r.rebind(query), userID, analysisID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// CountAnalysesSince returns the number of analyses a user submitted
// since the given time.
func (r *SQLRepository) CountAnalysesSince(ctx context.Context, userID string, since time.Time) (int64, error) {
	if userID == "" {
		return 0, fmt.Errorf("%w: userID is required", ErrInvalidInput)
	}

	query := `SELECT COUNT(*) FROM analyses WHERE user_id = ? AND created_at >= ?`

	var count int64
	err := r.db.QueryRowContext(ctx, r.rebind(query), userID, since).Scan(&count)
	return count, err
}

// SaveAlertRule stores an alert rule, updating it in place when the ID
// already exists.
func (r *SQLRepository) SaveAlertRule(ctx context.Context, rule *domain.AlertRule) error {
	if rule.ID == "" {
		return fmt.Errorf("%w: rule ID is required", ErrInvalidInput)
	}

	enabled := 0
	if rule.Enabled {
		enabled = 1
	}

	now := time.Now().UTC()

	query := `
		INSERT INTO alert_rules (
			id, name, description, expression, severity, enabled, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			expression = excluded.expression,
			severity = excluded.severity,
			enabled = excluded.enabled,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		rule.ID, rule.Name, rule.Description,
		rule.Expression, rule.Severity, enabled,
		now, now,
	)
	return err
}

// ListAlertRules retrieves all alert rules ordered by name, including
// disabled ones so the rule API can show the full set.
func (r *SQLRepository) ListAlertRules(ctx context.Context) ([]*domain.AlertRule, error) {
	query := `
		SELECT id, name, description, expression, severity, enabled
		FROM alert_rules
		ORDER BY name
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []*domain.AlertRule
	for rows.Next() {
		var rule domain.AlertRule
		var enabled int

		if err := rows.Scan(
			&rule.ID, &rule.Name, &rule.Description,
			&rule.Expression, &rule.Severity, &enabled,
		); err != nil {
			return nil, err
		}

		rule.Enabled = enabled == 1
		rules = append(rules, &rule)
	}

	return rules, rows.Err()
}

// DeleteAlertRule removes an alert rule.
func (r *SQLRepository) DeleteAlertRule(ctx context.Context, ruleID string) error {
	query := `DELETE FROM alert_rules WHERE id = ?`

	result, err := r.db.ExecContext(ctx, r.rebind(query), ruleID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// Ping checks database connectivity.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(row scanner) (*domain.Analysis, error) {
	var analysis domain.Analysis
	var result, alertHits string

	if err := row.Scan(
		&analysis.ID, &analysis.UserID, &analysis.InputText,
		&result, &alertHits, &analysis.CreatedAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(result), &analysis.Result); err != nil {
		return nil, fmt.Errorf("failed to parse analysis result for %s: %w", analysis.ID, err)
	}
	if alertHits != "" && alertHits != "null" {
		json.Unmarshal([]byte(alertHits), &analysis.AlertHits)
	}

	return &analysis, nil
}

// rebind converts ? placeholders to $1, $2, etc. for PostgreSQL.
func (r *SQLRepository) rebind(query string) string {
	if r.driver != "postgres" {
		return query
	}

	// Convert ? to $1, $2, etc.
	var result []byte
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			result = append(result, '$')
			result = append(result, fmt.Sprintf("%d", n)...)
			n++
		} else {
			result = append(result, query[i])
		}
	}
	return string(result)
}
