// Package alerts provides the CEL-Go based alert rule engine. Alert
// rules are boolean expressions over the fields of a finished analysis;
// every rule that evaluates to true produces an alert hit.
package alerts

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/phishguard/phishguard/internal/domain"
)

// Engine compiles and evaluates alert rules.
type Engine struct {
	mu            sync.RWMutex
	env           *cel.Env
	compiledRules map[string]*CompiledRule
	maxWorkers    int
}

// CompiledRule holds a pre-compiled CEL program.
type CompiledRule struct {
	Rule    *domain.AlertRule
	Program cel.Program
}

// NewEngine creates a new alert rule engine.
func NewEngine(maxWorkers int) (*Engine, error) {
	if maxWorkers <= 0 {
		maxWorkers = 10
	}

	// CEL environment exposing the analysis outcome
	env, err := cel.NewEnv(
		cel.Variable("risk_score", cel.IntType),
		cel.Variable("threat_level", cel.StringType),
		cel.Variable("url_count", cel.IntType),
		cel.Variable("malicious_urls", cel.IntType),
		cel.Variable("suspicious_urls", cel.IntType),
		cel.Variable("element_count", cel.IntType),
		cel.Variable("tactic_count", cel.IntType),
		cel.Variable("threat_types", cel.ListType(cel.StringType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &Engine{
		env:           env,
		compiledRules: make(map[string]*CompiledRule),
		maxWorkers:    maxWorkers,
	}, nil
}

// ValidateRule compiles and validates a rule without mutating loaded engine rules.
func (e *Engine) ValidateRule(rule *domain.AlertRule) error {
	if rule == nil {
		return fmt.Errorf("alert rule is required")
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	_, err := e.compileRule(rule)
	return err
}

// LoadRule compiles and loads a rule into the engine.
func (e *Engine) LoadRule(rule *domain.AlertRule) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	compiled, err := e.compileRule(rule)
	if err != nil {
		return err
	}

	e.compiledRules[rule.ID] = compiled

	return nil
}

// UnloadRule removes a rule from the engine. Unknown IDs are a no-op.
func (e *Engine) UnloadRule(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.compiledRules, id)
}

// LoadRules compiles and loads multiple rules, skipping disabled ones.
func (e *Engine) LoadRules(rules []*domain.AlertRule) error {
	for _, rule := range rules {
		if rule.Enabled {
			if err := e.LoadRule(rule); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReloadRules clears all existing rules and loads new ones. This enables
// hot-reloading of rules from the database.
func (e *Engine) ReloadRules(rules []*domain.AlertRule) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	newRules := make(map[string]*CompiledRule)

	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}

		compiled, err := e.compileRule(rule)
		if err != nil {
			return err
		}
		newRules[rule.ID] = compiled
	}

	e.compiledRules = newRules

	return nil
}

// EvaluateAll evaluates all loaded rules against an analysis result in
// parallel and returns the hits in rule ID order.
func (e *Engine) EvaluateAll(ctx context.Context, result *domain.AnalysisResult) ([]domain.AlertHit, error) {
	e.mu.RLock()
	rules := make([]*CompiledRule, 0, len(e.compiledRules))
	for _, rule := range e.compiledRules {
		rules = append(rules, rule)
	}
	e.mu.RUnlock()

	if len(rules) == 0 {
		return nil, nil
	}

	activation := buildActivation(result)

	// Parallel evaluation with bounded concurrency
	hits := make([]*domain.AlertHit, len(rules))
	var wg sync.WaitGroup
	sem := make(chan struct{}, e.maxWorkers)

	for i, rule := range rules {
		wg.Add(1)
		go func(idx int, r *CompiledRule) {
			defer wg.Done()

			sem <- struct{}{}        // Acquire
			defer func() { <-sem }() // Release

			hits[idx] = e.evaluateRule(r, activation)
		}(i, rule)
	}

	wg.Wait()

	var out []domain.AlertHit
	for _, hit := range hits {
		if hit != nil {
			out = append(out, *hit)
		}
	}

	// Map iteration order is random; hits are sorted for stable output.
	sortHits(out)

	return out, nil
}

// evaluateRule evaluates a single rule. A nil return means no hit.
func (e *Engine) evaluateRule(rule *CompiledRule, activation map[string]any) *domain.AlertHit {
	out, _, err := rule.Program.Eval(activation)
	if err != nil {
		// Runtime errors never block the analysis; the rule simply
		// does not fire.
		return nil
	}

	matched, ok := out.(types.Bool)
	if !ok || !bool(matched) {
		return nil
	}

	return &domain.AlertHit{
		RuleID:   rule.Rule.ID,
		Name:     rule.Rule.Name,
		Severity: rule.Rule.Severity,
		Reason:   rule.Rule.Description,
	}
}

// buildActivation flattens an analysis result into CEL variables.
func buildActivation(result *domain.AnalysisResult) map[string]any {
	malicious := 0
	suspicious := 0
	for _, u := range result.URLAnalysis {
		switch u.Status {
		case domain.URLMalicious:
			malicious++
		case domain.URLSuspicious:
			suspicious++
		}
	}

	threatTypes := make([]string, 0, len(result.DetectedThreats))
	for _, s := range result.DetectedThreats {
		threatTypes = append(threatTypes, s.Type)
	}

	return map[string]any{
		"risk_score":      result.RiskScore,
		"threat_level":    string(result.ThreatLevel),
		"url_count":       len(result.URLAnalysis),
		"malicious_urls":  malicious,
		"suspicious_urls": suspicious,
		"element_count":   len(result.SuspiciousElements),
		"tactic_count":    len(result.PhishingTactics),
		"threat_types":    threatTypes,
	}
}

// RulesCount returns the number of loaded rules.
func (e *Engine) RulesCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.compiledRules)
}

// GetLoadedRules returns the currently loaded rule configurations.
func (e *Engine) GetLoadedRules() []*domain.AlertRule {
	e.mu.RLock()
	defer e.mu.RUnlock()

	rules := make([]*domain.AlertRule, 0, len(e.compiledRules))
	for _, compiled := range e.compiledRules {
		rules = append(rules, compiled.Rule)
	}
	return rules
}

// Close cleans up the engine.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.compiledRules = make(map[string]*CompiledRule)
	return nil
}

func (e *Engine) compileRule(rule *domain.AlertRule) (*CompiledRule, error) {
	ast, issues := e.env.Compile(rule.Expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile rule %s: %w", rule.ID, issues.Err())
	}

	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("rule %s: expression must return bool, got %s", rule.ID, ast.OutputType())
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create program for rule %s: %w", rule.ID, err)
	}

	return &CompiledRule{
		Rule:    rule,
		Program: program,
	}, nil
}

func sortHits(hits []domain.AlertHit) {
	sort.Slice(hits, func(i, j int) bool { return hits[i].RuleID < hits[j].RuleID })
}
