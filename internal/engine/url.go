package engine

import (
	"net"
	"net/url"
	"regexp"
	"strings"

	"github.com/phishguard/phishguard/internal/domain"
)

var urlPattern = regexp.MustCompile(`(?i)https?://[^\s]+`)

// URL heuristic tables. Each check is independent and additive; the
// final status is derived only from the summed risk, never from which
// specific checks fired.
var (
	urlShorteners = []string{"bit.ly", "tinyurl", "t.co", "goo.gl", "ow.ly"}
	freeTLDs      = []string{".tk", ".ml", ".ga", ".cf", ".gq"}
	hyphenLures   = []string{"-secure", "-verify", "-account", "-login", "-update"}
)

// Fixed finding for URLs that fail to parse. A hard floor, not a
// heuristic: risk 30 lands exactly in the malicious bucket.
const (
	malformedURLRisk  = 30
	malformedURLIssue = "Malformed URL structure"
)

// urlResult is the output of the URL analysis pass.
type urlResult struct {
	Details []domain.URLFinding
	Risk    int
}

// analyzeURLs extracts every http(s) URL from the text in order of
// appearance and scores each independently. Duplicates produce separate
// findings.
func analyzeURLs(text string) urlResult {
	var out urlResult

	for _, raw := range urlPattern.FindAllString(text, -1) {
		finding := analyzeOneURL(raw)
		out.Details = append(out.Details, finding)
		out.Risk += finding.RiskScore
	}

	return out
}

func analyzeOneURL(raw string) domain.URLFinding {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Hostname() == "" {
		return domain.URLFinding{
			URL:       raw,
			Domain:    "Invalid URL",
			Status:    domain.URLMalicious,
			Issues:    []string{malformedURLIssue},
			RiskScore: malformedURLRisk,
		}
	}

	host := strings.ToLower(parsed.Hostname())
	var issues []string
	risk := 0

	for _, shortener := range urlShorteners {
		if strings.Contains(host, shortener) {
			issues = append(issues, "Shortened URL - destination unclear")
			risk += 15
			break
		}
	}

	if strings.Count(host, ".")+1 > 3 {
		issues = append(issues, "Suspicious subdomain structure")
		risk += 18
	}

	if ip := net.ParseIP(host); ip != nil && ip.To4() != nil {
		issues = append(issues, "IP address instead of domain name")
		risk += 25
	}

	for _, tld := range freeTLDs {
		if strings.HasSuffix(host, tld) {
			issues = append(issues, "Free or suspicious top-level domain")
			risk += 20
			break
		}
	}

	for _, lure := range hyphenLures {
		if strings.Contains(host, lure) {
			issues = append(issues, "Suspicious keywords in domain")
			risk += 22
			break
		}
	}

	if parsed.Scheme == "http" {
		issues = append(issues, "Insecure HTTP connection")
		risk += 10
	}

	if strings.Count(host, "-") > 2 {
		issues = append(issues, "Excessive hyphens in domain")
		risk += 12
	}

	return domain.URLFinding{
		URL:       raw,
		Domain:    host,
		Status:    domain.URLStatusForScore(risk),
		Issues:    issues,
		RiskScore: risk,
	}
}
