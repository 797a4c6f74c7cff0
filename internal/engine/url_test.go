package engine

import (
	"testing"

	"github.com/phishguard/phishguard/internal/domain"
)

func TestAnalyzeOneURL(t *testing.T) {
	cases := []struct {
		name       string
		url        string
		wantRisk   int
		wantStatus domain.URLStatus
	}{
		{
			// Shortener only: https so no insecure-scheme penalty.
			name:       "Shortener",
			url:        "https://bit.ly/3xYz",
			wantRisk:   15,
			wantStatus: domain.URLQuestionable,
		},
		{
			// Four labels trip the subdomain check.
			name:       "DeepSubdomains",
			url:        "https://login.account.update.example.com/verify",
			wantRisk:   18,
			wantStatus: domain.URLSuspicious,
		},
		{
			// IPv4 host plus plain http.
			name:       "IPv4Host",
			url:        "http://192.168.1.50/login",
			wantRisk:   35,
			wantStatus: domain.URLMalicious,
		},
		{
			// Free TLD, hyphen lure, http. Two hyphens stay under the
			// excessive-hyphen threshold.
			name:       "FreeTLDWithLure",
			url:        "http://paypal-secure-login.tk",
			wantRisk:   52,
			wantStatus: domain.URLMalicious,
		},
		{
			name:       "CleanHTTPS",
			url:        "https://example.com/page",
			wantRisk:   0,
			wantStatus: domain.URLSafe,
		},
		{
			// Three hyphens in the host.
			name:       "ExcessiveHyphens",
			url:        "https://my-very-odd-site.com",
			wantRisk:   12,
			wantStatus: domain.URLQuestionable,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			finding := analyzeOneURL(tc.url)
			if finding.RiskScore != tc.wantRisk {
				t.Errorf("risk: expected %d, got %d (issues %v)",
					tc.wantRisk, finding.RiskScore, finding.Issues)
			}
			if finding.Status != tc.wantStatus {
				t.Errorf("status: expected %s, got %s", tc.wantStatus, finding.Status)
			}
		})
	}
}

func TestAnalyzeOneURLMalformed(t *testing.T) {
	finding := analyzeOneURL("http://[broken")
	if finding.Domain != "Invalid URL" {
		t.Errorf("expected Invalid URL domain, got %q", finding.Domain)
	}
	if finding.Status != domain.URLMalicious || finding.RiskScore != malformedURLRisk {
		t.Errorf("expected malicious/%d, got %s/%d",
			malformedURLRisk, finding.Status, finding.RiskScore)
	}
}

func TestURLStatusForScore(t *testing.T) {
	cases := []struct {
		risk int
		want domain.URLStatus
	}{
		{0, domain.URLSafe},
		{1, domain.URLQuestionable},
		{15, domain.URLQuestionable},
		{16, domain.URLSuspicious},
		{30, domain.URLSuspicious},
		{31, domain.URLMalicious},
	}

	for _, tc := range cases {
		if got := domain.URLStatusForScore(tc.risk); got != tc.want {
			t.Errorf("risk %d: expected %s, got %s", tc.risk, tc.want, got)
		}
	}
}

func TestAnalyzeURLsOrderAndDuplicates(t *testing.T) {
	text := "first https://bit.ly/a then https://example.com then https://bit.ly/a again"

	result := analyzeURLs(text)
	if len(result.Details) != 3 {
		t.Fatalf("expected 3 findings, got %d", len(result.Details))
	}
	if result.Details[0].URL != "https://bit.ly/a" ||
		result.Details[1].URL != "https://example.com" ||
		result.Details[2].URL != "https://bit.ly/a" {
		t.Errorf("findings out of order: %+v", result.Details)
	}
	if result.Risk != 30 {
		t.Errorf("expected summed risk 30, got %d", result.Risk)
	}
}
