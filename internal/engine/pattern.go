package engine

import (
	"github.com/phishguard/phishguard/internal/domain"
)

// patternResult is the output of the pattern matching pass.
type patternResult struct {
	Elements []domain.MatchedElement
	Risk     int
}

// matchPatterns scans the original text against every category keyword.
// Matching runs on the original text so offsets map back to the source
// exactly; case-insensitivity comes from the compiled patterns. Overlaps
// across categories are allowed and each contributes independently.
func (rs *Ruleset) matchPatterns(text string) patternResult {
	var out patternResult

	for ci := range rs.Categories {
		cat := &rs.Categories[ci]
		for _, pattern := range cat.patterns {
			for _, loc := range pattern.FindAllStringIndex(text, -1) {
				matched := text[loc[0]:loc[1]]
				out.Risk += cat.Weight
				out.Elements = append(out.Elements, domain.MatchedElement{
					Text:           matched,
					StartIndex:     loc[0],
					EndIndex:       loc[1],
					Type:           cat.Type,
					RiskLevel:      cat.RiskLevel,
					Explanation:    rs.Explanation(cat.Type, matched),
					Recommendation: rs.Recommendation(cat.Type),
				})
			}
		}
	}

	return out
}
