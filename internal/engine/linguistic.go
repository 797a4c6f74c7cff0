package engine

import (
	"regexp"
	"strings"
)

var (
	sentenceSplit = regexp.MustCompile(`[.!?]+`)
	wordPattern   = regexp.MustCompile(`[a-zA-Z0-9']+`)
	punctBursts   = regexp.MustCompile(`[!?]{2,}`)
)

// Linguistic heuristic knobs.
const (
	capsRatioThreshold  = 0.3
	capsRisk            = 15
	richnessThreshold   = 0.3
	richnessMinWords    = 20 // guards short texts against spuriously low richness
	richnessRisk        = 10
	punctBurstThreshold = 2
	punctBurstRisk      = 8
)

// analyzeLinguistics scores capitalization, vocabulary richness and
// punctuation bursts. It contributes risk only; no spans are emitted.
func analyzeLinguistics(text string) int {
	risk := 0

	sentences := sentenceSplit.Split(text, -1)
	allCaps := 0
	for _, s := range sentences {
		if len(s) > 5 && s == strings.ToUpper(s) {
			allCaps++
		}
	}
	total := len(sentences)
	if total == 0 {
		total = 1
	}
	if float64(allCaps)/float64(total) > capsRatioThreshold {
		risk += capsRisk
	}

	words := wordPattern.FindAllString(text, -1)
	if len(words) > 0 {
		unique := make(map[string]struct{}, len(words))
		for _, w := range words {
			unique[strings.ToLower(w)] = struct{}{}
		}
		richness := float64(len(unique)) / float64(len(words))
		if richness < richnessThreshold && len(words) > richnessMinWords {
			risk += richnessRisk
		}
	}

	if len(punctBursts.FindAllString(text, -1)) > punctBurstThreshold {
		risk += punctBurstRisk
	}

	return risk
}
