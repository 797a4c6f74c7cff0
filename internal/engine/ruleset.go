// Package engine implements the heuristic phishing text analysis engine.
package engine

import (
	"fmt"
	"regexp"

	"github.com/phishguard/phishguard/internal/domain"
)

// Threat type labels. These are the grouping keys for threat summaries
// and the gates for tactic inference.
const (
	TypeUrgency     = "Urgency Manipulation"
	TypeThreat      = "Threat Language"
	TypeFinancial   = "Financial Lure"
	TypeCredentials = "Credential Harvesting"
	TypeGeneric     = "Generic Phishing"
	TypeBrand       = "Brand Impersonation"
)

// Category is a named group of keywords sharing a risk weight and label.
type Category struct {
	Name      string
	Type      string
	RiskLevel domain.RiskLevel
	Weight    int
	Keywords  []string

	// patterns holds one compiled word-boundary regex per keyword,
	// index-aligned with Keywords. Compiled once at ruleset build time.
	patterns []*regexp.Regexp
}

// Ruleset is the immutable static configuration for the engine: the
// category tables, explanation/recommendation templates, and URL
// heuristic tables. Build it once at startup and share across calls;
// it is never mutated afterwards.
type Ruleset struct {
	Categories []Category

	explanations    map[string]string
	recommendations map[string]string
}

// Keyword regexes are case-insensitive and word-boundary anchored so
// "urgent" does not match inside "urgently". QuoteMeta keeps keywords
// with punctuation (e.g. "don't miss out") literal.
func compileKeyword(keyword string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(keyword) + `\b`)
}

// DefaultRuleset returns the built-in detection configuration.
func DefaultRuleset() *Ruleset {
	rs := &Ruleset{
		Categories: []Category{
			{
				Name:      "urgency",
				Type:      TypeUrgency,
				RiskLevel: domain.RiskHigh,
				Weight:    25,
				Keywords: []string{
					"urgent", "immediate", "expires today", "act now", "limited time",
					"hurry", "deadline", "expires soon", "time sensitive", "last chance",
					"don't miss out", "only today", "final notice", "respond immediately",
				},
			},
			{
				Name:      "threats",
				Type:      TypeThreat,
				RiskLevel: domain.RiskHigh,
				Weight:    30,
				Keywords: []string{
					"suspend", "terminate", "close account", "legal action", "penalty",
					"frozen", "locked", "deactivated", "blocked", "restricted",
					"unauthorized access", "security breach", "compromised",
				},
			},
			{
				Name:      "financial",
				Type:      TypeFinancial,
				RiskLevel: domain.RiskMedium,
				Weight:    20,
				Keywords: []string{
					"refund", "tax return", "prize", "lottery", "inheritance",
					"wire transfer", "bitcoin", "cryptocurrency", "payment required",
					"claim your money", "cash prize", "million dollars", "unclaimed funds",
				},
			},
			{
				Name:      "credentials",
				Type:      TypeCredentials,
				RiskLevel: domain.RiskHigh,
				Weight:    28,
				Keywords: []string{
					"verify account", "verify your account", "update password",
					"confirm identity", "login credentials", "security code",
					"validate account", "verify your identity", "confirm your account",
					"update billing", "payment information", "credit card",
					"social security",
				},
			},
			{
				Name:      "generic",
				Type:      TypeGeneric,
				RiskLevel: domain.RiskMedium,
				Weight:    15,
				Keywords: []string{
					"click here", "download now", "free", "congratulations",
					"winner", "selected", "you've been chosen", "exclusive offer",
					"limited offer", "special promotion", "act fast",
				},
			},
			{
				Name:      "impersonation",
				Type:      TypeBrand,
				RiskLevel: domain.RiskHigh,
				Weight:    22,
				Keywords: []string{
					"paypal", "amazon", "microsoft", "apple", "google", "facebook",
					"bank", "irs", "fedex", "ups", "dhl", "netflix", "spotify",
					"government", "tax office", "customer support",
				},
			},
		},

		explanations: map[string]string{
			TypeUrgency:     `The phrase "%s" creates artificial time pressure, preventing critical thinking about the request.`,
			TypeThreat:      `"%s" is threatening language used to intimidate recipients into complying without verification.`,
			TypeFinancial:   `"%s" is a common financial incentive used to entice victims with promises of money or rewards.`,
			TypeCredentials: `"%s" is typically used to trick users into providing login credentials or personal information.`,
			TypeGeneric:     `"%s" is a common phrase used in phishing attempts to encourage immediate action.`,
			TypeBrand:       `"%s" may indicate an attempt to impersonate a trusted brand or organization.`,
		},

		recommendations: map[string]string{
			TypeUrgency:     "Take time to verify urgent requests through official channels.",
			TypeThreat:      "Legitimate organizations rarely use threatening language.",
			TypeFinancial:   "Be skeptical of unexpected financial offers and verify through official sources.",
			TypeCredentials: "Never provide credentials through email links. Visit websites directly.",
			TypeGeneric:     "Verify sender and content through alternative communication methods.",
			TypeBrand:       "Contact the organization directly using official contact information.",
		},
	}

	for i := range rs.Categories {
		cat := &rs.Categories[i]
		cat.patterns = make([]*regexp.Regexp, len(cat.Keywords))
		for j, kw := range cat.Keywords {
			cat.patterns[j] = compileKeyword(kw)
		}
	}

	return rs
}

// Fallbacks for a threat type missing from the template tables. Types
// come from the same static configuration, so these should not be hit
// in practice.
const (
	genericExplanation    = "This phrase is commonly associated with phishing attempts."
	genericRecommendation = "Exercise caution and verify the authenticity of this communication."
)

// Explanation returns the templated explanation for a matched keyword.
func (rs *Ruleset) Explanation(threatType, keyword string) string {
	tmpl, ok := rs.explanations[threatType]
	if !ok {
		return genericExplanation
	}
	return fmt.Sprintf(tmpl, keyword)
}

// Recommendation returns the per-type recommendation.
func (rs *Ruleset) Recommendation(threatType string) string {
	rec, ok := rs.recommendations[threatType]
	if !ok {
		return genericRecommendation
	}
	return rec
}
