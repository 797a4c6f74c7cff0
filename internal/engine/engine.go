package engine

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/phishguard/phishguard/internal/domain"
)

// Engine metadata reported in every result.
const (
	Version = "2.0"
	Name    = "PhishGuard Heuristic Engine"
)

// Engine is the deterministic phishing risk scorer. It holds only the
// immutable ruleset, so a single instance is safe for concurrent use.
type Engine struct {
	rules *Ruleset
}

// New creates an engine over the given ruleset. Pass nil to use the
// built-in defaults.
func New(rules *Ruleset) *Engine {
	if rules == nil {
		rules = DefaultRuleset()
	}
	return &Engine{rules: rules}
}

// Analyze runs the four analysis passes over the input text and
// aggregates their outputs into a single result.
//
// The passes share no mutable state, so they run concurrently; the
// merge is deterministic regardless of completion order (integer sums,
// per-pass finding lists). The only error condition is empty input;
// everything else, including unparseable URLs, resolves to a value.
func (e *Engine) Analyze(ctx context.Context, inputText string) (*domain.AnalysisResult, error) {
	start := time.Now()

	if strings.TrimSpace(inputText) == "" {
		return nil, domain.ErrEmptyInput
	}

	var (
		patterns  patternResult
		urls      urlResult
		lingRisk  int
		sentiRisk int
	)

	var wg sync.WaitGroup
	wg.Add(4)
	go func() {
		defer wg.Done()
		patterns = e.rules.matchPatterns(inputText)
	}()
	go func() {
		defer wg.Done()
		urls = analyzeURLs(inputText)
	}()
	go func() {
		defer wg.Done()
		lingRisk = analyzeLinguistics(inputText)
	}()
	go func() {
		defer wg.Done()
		sentiRisk = analyzeSentiment(inputText)
	}()
	wg.Wait()

	total := patterns.Risk + urls.Risk + lingRisk + sentiRisk
	if total > 100 {
		total = 100
	}

	summaries := summarizeThreats(patterns.Elements)

	result := &domain.AnalysisResult{
		RiskScore:          total,
		ThreatLevel:        domain.ThreatLevelForScore(total),
		DetectedThreats:    summaries,
		SuspiciousElements: patterns.Elements,
		URLAnalysis:        urls.Details,
		PhishingTactics:    inferTactics(total, summaries),
		Recommendations:    buildRecommendations(total, summaries, urls.Details),
		Metadata: domain.ResultMetadata{
			AnalysisTimeMs:  time.Since(start).Milliseconds(),
			Version:         Version,
			DetectionEngine: Name,
		},
	}

	return result, nil
}
