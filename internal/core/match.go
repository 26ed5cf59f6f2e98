package core

import (
	"regexp"
	"strings"

	"github.com/jordank1977/mimirr/internal/core/model"
)

// TitleMatchStrategy classifies how well a candidate title matches a query
// title. Implementations must be pure: same inputs, same tier.
type TitleMatchStrategy interface {
	Classify(queryTitle, candidateTitle string) model.MatchTier
}

// TieredTitleMatcher is the default strategy: four ordered predicates from
// strict to fuzzy. Exact equality beats normalized equality beats raw
// substring beats normalized substring.
type TieredTitleMatcher struct{}

func NewTieredTitleMatcher() TieredTitleMatcher {
	return TieredTitleMatcher{}
}

func (TieredTitleMatcher) Classify(queryTitle, candidateTitle string) model.MatchTier {
	switch {
	case strings.EqualFold(queryTitle, candidateTitle):
		return model.TierExact
	case NormalizeTitle(queryTitle) == NormalizeTitle(candidateTitle):
		return model.TierNormalizedExact
	case containsFold(queryTitle, candidateTitle):
		return model.TierSubstring
	case containsFold(NormalizeTitle(queryTitle), NormalizeTitle(candidateTitle)):
		return model.TierNormalizedSubstring
	default:
		return model.TierNone
	}
}

var nonWordRe = regexp.MustCompile(`[^\w\s]`)

// NormalizeTitle lower-cases, drops the subtitle after the first colon,
// strips non-word characters and collapses whitespace.
func NormalizeTitle(title string) string {
	t := strings.ToLower(title)
	if i := strings.Index(t, ":"); i >= 0 {
		t = t[:i]
	}
	t = nonWordRe.ReplaceAllString(t, "")
	return strings.Join(strings.Fields(t), " ")
}

// containsFold reports substring containment in either direction,
// case-insensitively. Empty strings never match.
func containsFold(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	la, lb := strings.ToLower(a), strings.ToLower(b)
	return strings.Contains(la, lb) || strings.Contains(lb, la)
}

// authorNameOverlaps guards against a title that exists under multiple
// authors: the candidate's author name must overlap the requested one.
func authorNameOverlaps(requested, candidate string) bool {
	return containsFold(strings.TrimSpace(requested), strings.TrimSpace(candidate))
}
