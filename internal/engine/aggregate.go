package engine

import (
	"github.com/phishguard/phishguard/internal/domain"
)

// tacticGate maps a threat type to its inferred tactic. Gates are
// evaluated in a fixed order; confidence values are static per tactic.
type tacticGate struct {
	threatType string
	tactic     domain.Tactic
}

var tacticGates = []tacticGate{
	{TypeUrgency, domain.Tactic{
		Name:        "Time Pressure",
		Description: "Creating artificial urgency to bypass critical thinking",
		Confidence:  0.85,
	}},
	{TypeThreat, domain.Tactic{
		Name:        "Fear Tactics",
		Description: "Using threats to intimidate and force compliance",
		Confidence:  0.90,
	}},
	{TypeBrand, domain.Tactic{
		Name:        "Authority Impersonation",
		Description: "Pretending to be from trusted organizations",
		Confidence:  0.88,
	}},
	{TypeCredentials, domain.Tactic{
		Name:        "Credential Theft",
		Description: "Attempting to steal login credentials or personal data",
		Confidence:  0.92,
	}},
	{TypeFinancial, domain.Tactic{
		Name:        "Financial Manipulation",
		Description: "Using money as bait to lure victims",
		Confidence:  0.80,
	}},
}

// socialEngineering fires on the total score alone, independent of the
// type gates.
var socialEngineering = domain.Tactic{
	Name:        "Social Engineering",
	Description: "Manipulating emotions to bypass logical thinking",
	Confidence:  0.75,
}

const socialEngineeringScore = 50

// summarizeThreats groups matched elements by type. The first occurrence
// of a type seeds description and severity; later occurrences increment
// the count and append distinct keywords in first-seen order.
func summarizeThreats(elements []domain.MatchedElement) []domain.ThreatSummary {
	var summaries []domain.ThreatSummary
	index := make(map[string]int)

	for _, el := range elements {
		if i, ok := index[el.Type]; ok {
			s := &summaries[i]
			s.Count++
			if !containsString(s.Keywords, el.Text) {
				s.Keywords = append(s.Keywords, el.Text)
			}
			continue
		}
		index[el.Type] = len(summaries)
		summaries = append(summaries, domain.ThreatSummary{
			Type:        el.Type,
			Description: el.Explanation,
			Severity:    el.RiskLevel,
			Count:       1,
			Keywords:    []string{el.Text},
		})
	}

	return summaries
}

// inferTactics evaluates the fixed gate list against the detected threat
// types, then the score-gated social engineering tactic. Emission order
// follows the gate order, not severity or confidence.
func inferTactics(riskScore int, summaries []domain.ThreatSummary) []domain.Tactic {
	present := make(map[string]bool, len(summaries))
	for _, s := range summaries {
		present[s.Type] = true
	}

	var tactics []domain.Tactic
	for _, gate := range tacticGates {
		if present[gate.threatType] {
			tactics = append(tactics, gate.tactic)
		}
	}

	if riskScore > socialEngineeringScore {
		tactics = append(tactics, socialEngineering)
	}

	return tactics
}

// maxRecommendations caps the recommendation list for a clean UI.
const maxRecommendations = 6

// buildRecommendations appends fixed strings in rule order and truncates
// to maxRecommendations. The closing recommendation is unconditional, so
// the list always has at least one entry.
func buildRecommendations(riskScore int, summaries []domain.ThreatSummary, urls []domain.URLFinding) []string {
	var recs []string

	if riskScore >= 60 {
		recs = append(recs,
			"🚨 DO NOT click any links or download attachments from this message",
			"🚨 DO NOT provide any personal information or credentials",
		)
	}

	for _, u := range urls {
		if u.Status == domain.URLSuspicious || u.Status == domain.URLMalicious {
			recs = append(recs, "⚠️ Suspicious URLs detected - verify destinations before clicking")
			break
		}
	}

	for _, s := range summaries {
		if s.Type == TypeCredentials {
			recs = append(recs,
				"🔐 Never provide passwords or credentials through email links",
				"🔐 Visit websites directly by typing the URL in your browser",
			)
			break
		}
	}

	for _, s := range summaries {
		if s.Type == TypeThreat {
			recs = append(recs, "📞 Verify sender identity through official contact methods")
			break
		}
	}

	switch {
	case riskScore >= 60:
		recs = append(recs, "✅ Report this message to your IT security team immediately")
	case riskScore >= 30:
		recs = append(recs, "✅ Enable two-factor authentication on all accounts")
	default:
		recs = append(recs, "ℹ️ While this message appears safe, always verify sender identity")
	}

	if len(recs) > maxRecommendations {
		recs = recs[:maxRecommendations]
	}
	return recs
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
