package pipeline

import (
	"regexp"

	"github.com/samber/lo"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var nonWord = regexp.MustCompile(`\W+`)

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {},
	"and": {}, "or": {}, "but": {}, "nor": {}, "yet": {}, "so": {},
	"in": {}, "on": {}, "at": {}, "to": {}, "for": {}, "of": {}, "with": {},
	"by": {}, "from": {}, "into": {}, "onto": {}, "over": {}, "under": {},
	"about": {}, "above": {}, "below": {}, "between": {}, "through": {},
	"during": {}, "before": {}, "after": {}, "against": {}, "among": {},
	"around": {}, "behind": {}, "beside": {}, "near": {}, "upon": {},
	"within": {}, "without": {}, "while": {}, "this": {}, "that": {},
	"these": {}, "those": {}, "there": {}, "their": {}, "then": {},
	"than": {}, "when": {}, "where": {}, "which": {},
	"is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {},
	"very": {}, "some": {}, "make": {},
}

// ExtractKeywords returns search candidates from free text in order of first
// occurrence: lower-cased word tokens longer than three characters that are
// not stopwords.
func ExtractKeywords(text string) []string {
	lowered := cases.Lower(language.Und).String(text)
	tokens := lo.Filter(nonWord.Split(lowered, -1), func(token string, _ int) bool {
		if len(token) <= 3 {
			return false
		}
		_, stop := stopwords[token]
		return !stop
	})
	return lo.Uniq(tokens)
}

// FrameCount is the number of frames rendered for a video of the given
// length: one frame per two seconds, rounded up, never fewer than one.
func FrameCount(durationSeconds int) int {
	n := (durationSeconds + 1) / 2
	if n < 1 {
		return 1
	}
	return n
}
