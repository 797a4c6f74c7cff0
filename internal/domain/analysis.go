// Package domain defines the core interfaces and types for PhishGuard.
package domain

import (
	"time"
)

// RiskLevel classifies the severity of a pattern category.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// ThreatLevel buckets a total risk score into a user-facing verdict.
type ThreatLevel string

const (
	ThreatSafe       ThreatLevel = "Safe"
	ThreatLowRisk    ThreatLevel = "Low Risk"
	ThreatMediumRisk ThreatLevel = "Medium Risk"
	ThreatHighRisk   ThreatLevel = "High Risk"
	ThreatCritical   ThreatLevel = "Critical"
)

// ThreatLevelForScore maps a capped risk score to its threat level.
// Thresholds are inclusive lower bounds, evaluated highest-first, so a
// score of exactly 80 is Critical.
func ThreatLevelForScore(score int) ThreatLevel {
	switch {
	case score >= 80:
		return ThreatCritical
	case score >= 60:
		return ThreatHighRisk
	case score >= 40:
		return ThreatMediumRisk
	case score >= 20:
		return ThreatLowRisk
	default:
		return ThreatSafe
	}
}

// URLStatus classifies a single analyzed URL.
type URLStatus string

const (
	URLSafe         URLStatus = "safe"
	URLQuestionable URLStatus = "questionable"
	URLSuspicious   URLStatus = "suspicious"
	URLMalicious    URLStatus = "malicious"
)

// URLStatusForScore derives a URL's status from its accumulated risk.
// Status is monotonic in the score; individual checks never set it
// directly, so two different issue sets with the same total yield the
// same status.
func URLStatusForScore(risk int) URLStatus {
	switch {
	case risk > 30:
		return URLMalicious
	case risk > 15:
		return URLSuspicious
	case risk > 0:
		return URLQuestionable
	default:
		return URLSafe
	}
}

// MatchedElement is one occurrence of a category keyword in the input.
// StartIndex/EndIndex are offsets into the original, case-preserving
// input, so input[StartIndex:EndIndex] == Text.
type MatchedElement struct {
	Text           string    `json:"text"`
	StartIndex     int       `json:"startIndex"`
	EndIndex       int       `json:"endIndex"`
	Type           string    `json:"type"`
	RiskLevel      RiskLevel `json:"riskLevel"`
	Explanation    string    `json:"explanation"`
	Recommendation string    `json:"recommendation"`
}

// URLFinding is the analysis of one URL extracted from the input.
type URLFinding struct {
	URL       string    `json:"url"`
	Domain    string    `json:"domain"`
	Status    URLStatus `json:"status"`
	Issues    []string  `json:"issues"`
	RiskScore int       `json:"riskScore"`
}

// ThreatSummary aggregates matched elements by type.
type ThreatSummary struct {
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Severity    RiskLevel `json:"severity"`
	Count       int       `json:"count"`
	Keywords    []string  `json:"keywords"`
}

// Tactic is a high-level phishing technique inferred from the detected
// threat types. Confidence values are fixed per tactic, not computed.
type Tactic struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
}

// ResultMetadata contains processing information for one analysis.
type ResultMetadata struct {
	AnalysisTimeMs  int64  `json:"analysisTimeMs"`
	Version         string `json:"version"`
	DetectionEngine string `json:"detectionEngine"`
}

// AnalysisResult is the engine's sole output, created fresh per call.
type AnalysisResult struct {
	RiskScore          int              `json:"riskScore"`
	ThreatLevel        ThreatLevel      `json:"threatLevel"`
	DetectedThreats    []ThreatSummary  `json:"detectedThreats"`
	SuspiciousElements []MatchedElement `json:"suspiciousElements"`
	URLAnalysis        []URLFinding     `json:"urlAnalysis"`
	PhishingTactics    []Tactic         `json:"phishingTactics"`
	Recommendations    []string         `json:"recommendations"`
	Metadata           ResultMetadata   `json:"metadata"`
}

// Analysis is the persisted form of an AnalysisResult. The identifier
// and timestamp are assigned by the persistence layer, not the engine.
type Analysis struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	InputText string          `json:"inputText"`
	Result    *AnalysisResult `json:"result"`
	AlertHits []AlertHit      `json:"alertHits,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}
