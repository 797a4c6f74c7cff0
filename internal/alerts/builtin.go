package alerts

import "github.com/phishguard/phishguard/internal/domain"

// BuiltinRules returns the default alert rules seeded on first start.
// Operators can disable or replace them through the alert rule API.
func BuiltinRules() []*domain.AlertRule {
	return []*domain.AlertRule{
		{
			ID:          "builtin-critical-threat",
			Name:        "Critical threat detected",
			Description: "Risk score reached the critical band",
			Expression:  `risk_score >= 80`,
			Severity:    "critical",
			Enabled:     true,
		},
		{
			ID:          "builtin-malicious-url",
			Name:        "Malicious URL detected",
			Description: "At least one URL was classified as malicious",
			Expression:  `malicious_urls > 0`,
			Severity:    "high",
			Enabled:     true,
		},
		{
			ID:          "builtin-credential-harvest",
			Name:        "Credential harvesting language",
			Description: "Message asks for credentials or account verification",
			Expression:  `"Credential Harvesting" in threat_types`,
			Severity:    "high",
			Enabled:     true,
		},
		{
			ID:          "builtin-layered-attack",
			Name:        "Layered attack",
			Description: "Multiple psychological tactics combined with elevated risk",
			Expression:  `tactic_count >= 3 && risk_score >= 40`,
			Severity:    "medium",
			Enabled:     true,
		},
	}
}
