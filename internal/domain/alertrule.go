package domain

// AlertRule defines a user-configurable alert condition evaluated against
// each completed analysis. The expression is CEL returning bool.
type AlertRule struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`

	// CEL expression over analysis variables:
	// risk_score, threat_level, url_count, malicious_urls,
	// tactic_count, threat_types
	Expression string `json:"expression"`

	// Severity is attached to hits verbatim (e.g. "info", "warning",
	// "critical").
	Severity string `json:"severity"`

	// Whether the rule is active
	Enabled bool `json:"enabled"`
}

// AlertHit records one alert rule that evaluated true for an analysis.
type AlertHit struct {
	RuleID   string `json:"ruleId"`
	Name     string `json:"name"`
	Severity string `json:"severity"`
	Reason   string `json:"reason,omitempty"`
}
