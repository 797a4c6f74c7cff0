// Package report renders stored analyses as downloadable documents.
package report

import (
	"fmt"
	"strings"

	"github.com/phishguard/phishguard/internal/domain"
)

// previewLimit caps the analyzed-content excerpt.
const previewLimit = 500

// maxKeywordsPerThreat caps the keyword list shown per threat block.
const maxKeywordsPerThreat = 5

const rule = "==============================================================="
const thinRule = "---------------------------------------------------------------"

// TextRenderer renders a plain-text report.
type TextRenderer struct{}

// NewTextRenderer creates a plain-text report renderer.
func NewTextRenderer() *TextRenderer {
	return &TextRenderer{}
}

// Render produces the report document for a stored analysis.
func (r *TextRenderer) Render(analysis *domain.Analysis, ownerName string, ownerEmail string) ([]byte, string, error) {
	if analysis == nil || analysis.Result == nil {
		return nil, "", fmt.Errorf("analysis with result is required")
	}

	result := analysis.Result
	var b strings.Builder

	// Header
	b.WriteString(rule + "\n")
	b.WriteString("PhishGuard - Advanced Phishing Detection Report\n")
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "Generated: %s\n", analysis.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "Report ID: %s\n", analysis.ID)
	fmt.Fprintf(&b, "Engine:    %s v%s\n\n", result.Metadata.DetectionEngine, result.Metadata.Version)

	// Executive summary
	b.WriteString("EXECUTIVE SUMMARY\n")
	b.WriteString(thinRule + "\n")
	fmt.Fprintf(&b, "Threat Level: %s\n", result.ThreatLevel)
	fmt.Fprintf(&b, "Risk Score:   %d/100\n", result.RiskScore)
	fmt.Fprintf(&b, "Risk Bar:     [%s]\n", riskBar(result.RiskScore))
	fmt.Fprintf(&b, "\n%s\n\n", riskInterpretation(result.RiskScore))

	// Detected threats
	if len(result.DetectedThreats) > 0 {
		b.WriteString("DETECTED THREATS\n")
		b.WriteString(thinRule + "\n")
		for i, threat := range result.DetectedThreats {
			fmt.Fprintf(&b, "%d. %s\n", i+1, threat.Type)
			fmt.Fprintf(&b, "   Severity: %s | Occurrences: %d\n",
				strings.ToUpper(string(threat.Severity)), threat.Count)
			if len(threat.Keywords) > 0 {
				keywords := threat.Keywords
				suffix := ""
				if len(keywords) > maxKeywordsPerThreat {
					keywords = keywords[:maxKeywordsPerThreat]
					suffix = "..."
				}
				fmt.Fprintf(&b, "   Keywords: %s%s\n", strings.Join(keywords, ", "), suffix)
			}
		}
		b.WriteString("\n")
	}

	// URL analysis
	if len(result.URLAnalysis) > 0 {
		b.WriteString("URL ANALYSIS\n")
		b.WriteString(thinRule + "\n")
		for i, url := range result.URLAnalysis {
			fmt.Fprintf(&b, "%d. %s\n", i+1, url.Domain)
			fmt.Fprintf(&b, "   Status: %s | Risk: %d/100\n",
				strings.ToUpper(string(url.Status)), url.RiskScore)
			if len(url.Issues) > 0 {
				fmt.Fprintf(&b, "   Issues: %s\n", strings.Join(url.Issues, ", "))
			}
		}
		b.WriteString("\n")
	}

	// Phishing tactics
	if len(result.PhishingTactics) > 0 {
		b.WriteString("IDENTIFIED PHISHING TACTICS\n")
		b.WriteString(thinRule + "\n")
		for _, tactic := range result.PhishingTactics {
			fmt.Fprintf(&b, "* %s (confidence: %.0f%%)\n", tactic.Name, tactic.Confidence*100)
			fmt.Fprintf(&b, "  %s\n", tactic.Description)
		}
		b.WriteString("\n")
	}

	// Analyzed content preview
	b.WriteString("ANALYZED CONTENT\n")
	b.WriteString(thinRule + "\n")
	preview := analysis.InputText
	if len(preview) > previewLimit {
		fmt.Fprintf(&b, "%s...\n", preview[:previewLimit])
		fmt.Fprintf(&b, "(Content truncated - showing first %d characters of %d)\n",
			previewLimit, len(analysis.InputText))
	} else {
		fmt.Fprintf(&b, "%s\n", preview)
	}
	b.WriteString("\n")

	// Recommendations
	if len(result.Recommendations) > 0 {
		b.WriteString("SECURITY RECOMMENDATIONS\n")
		b.WriteString(thinRule + "\n")
		for i, rec := range result.Recommendations {
			fmt.Fprintf(&b, "%d. %s\n", i+1, rec)
		}
		b.WriteString("\n")
	}

	// Footer
	b.WriteString(rule + "\n")
	b.WriteString("This report was generated by PhishGuard Advanced Phishing Detection System\n")
	fmt.Fprintf(&b, "User: %s | %s\n", orNA(ownerName), orNA(ownerEmail))

	return []byte(b.String()), "text/plain; charset=utf-8", nil
}

// riskBar renders a 20-cell progress bar for the risk score.
func riskBar(score int) string {
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	filled := score / 5
	return strings.Repeat("#", filled) + strings.Repeat(".", 20-filled)
}

func riskInterpretation(score int) string {
	switch {
	case score >= 80:
		return "CRITICAL: This content exhibits multiple high-risk phishing indicators. Do not interact with any links, attachments, or requests. Report immediately to your security team."
	case score >= 60:
		return "HIGH RISK: This content shows significant phishing characteristics. Exercise extreme caution and verify through official channels before taking any action."
	case score >= 40:
		return "MEDIUM RISK: This content contains suspicious elements. Verify the sender's identity and legitimacy before responding or clicking any links."
	case score >= 20:
		return "LOW RISK: While some minor concerns were detected, this content appears relatively safe. Still, verify sender identity as a best practice."
	default:
		return "SAFE: No significant phishing indicators detected. However, always remain vigilant and verify unexpected requests."
	}
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
