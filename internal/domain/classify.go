package domain

import (
	"regexp"
	"strings"
)

// TieBreak is the category assigned when text matches both keyword sets.
const TieBreak = MajorLoss

var (
	mergerKeywords = []string{
		"merger", "acquisition", "takeover", "acquires", "acquired", "to acquire", "buyout",
	}
	lossKeywords = []string{
		"major loss", "large loss", "catastrophe", "wildfire", "flood", "hurricane",
		"earthquake", "typhoon", "storm", "explosion", "fire", "collapse", "cyber",
	}

	mergerRe = keywordPattern(mergerKeywords)
	lossRe   = keywordPattern(lossKeywords)
)

// keywordPattern compiles a case-insensitive alternation matching any keyword
// as a substring.
func keywordPattern(keywords []string) *regexp.Regexp {
	quoted := make([]string, len(keywords))
	for i, kw := range keywords {
		quoted[i] = regexp.QuoteMeta(kw)
	}
	return regexp.MustCompile(`(?i)(` + strings.Join(quoted, "|") + `)`)
}

// Classify maps free text to a category. The second return value is false when
// neither keyword set matches.
func Classify(text string) (Category, bool) {
	isMA := mergerRe.MatchString(text)
	isLoss := lossRe.MatchString(text)

	switch {
	case isMA && isLoss:
		return TieBreak, true
	case isLoss:
		return MajorLoss, true
	case isMA:
		return MergerAcquisition, true
	default:
		return "", false
	}
}
