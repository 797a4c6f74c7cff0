package engine

import (
	"strings"
)

// Sentiment contract: mean polarity below -0.5 adds 12 risk.
// Strongly negative wording correlates with threat-laden messages.
const (
	sentimentThreshold = -0.5
	sentimentRisk      = 12
)

// analyzeSentiment computes a lexicon-based mean polarity over the
// lowercased tokens. Unrecognized tokens contribute 0 but still count
// toward the mean, matching the usual AFINN-style average.
func analyzeSentiment(text string) int {
	tokens := wordPattern.FindAllString(strings.ToLower(text), -1)
	if len(tokens) == 0 {
		return 0
	}

	sum := 0
	for _, tok := range tokens {
		sum += polarity[tok]
	}

	if float64(sum)/float64(len(tokens)) < sentimentThreshold {
		return sentimentRisk
	}
	return 0
}
