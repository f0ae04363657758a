package usecase

import (
	"fmt"
	"strings"

	"github.com/cwijayasundara/biz-to-bricks-v3/internal/core/domain"
)

// minMeaningfulLength is the shortest answer accepted as substantive.
const minMeaningfulLength = 15

// Phrases that mark an answer as a polite "nothing found". Matching is
// case-insensitive substring.
var negativePhrases = []string{
	"no relevant", "not found", "no information", "no results",
	"unable to find", "no documents", "no match", "not available",
	"i don't have", "i cannot find", "could not find", "couldn't find",
	"no data", "insufficient information", "no content found",
	"no matches found", "cannot locate", "not locate", "nothing found",
	"no such", "does not contain", "doesn't contain", "do not contain",
	"don't contain", "no mention", "not mentioned", "no details",
	"no specific", "not specify", "does not provide", "not provide",
	"not include", "does not include",
}

// HeuristicClassifier decides whether a candidate answer carries real
// information or is an empty/negative response. It is a pure function
// used both at ingestion time and for the query-time fallback decision.
type HeuristicClassifier struct{}

func NewHeuristicClassifier() *HeuristicClassifier {
	return &HeuristicClassifier{}
}

func (c *HeuristicClassifier) Classify(result any) domain.Verdict {
	text, ok := extractAnswerText(result)
	if !ok {
		return domain.Verdict{Meaningful: false, Reason: fmt.Sprintf("result is not string-extractable (type %T)", result)}
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return domain.Verdict{Meaningful: false, Reason: "empty result"}
	}

	lower := strings.ToLower(trimmed)
	for _, phrase := range negativePhrases {
		if strings.Contains(lower, phrase) {
			return domain.Verdict{Meaningful: false, Reason: fmt.Sprintf("contains no-result phrase: %q", phrase)}
		}
	}

	if len(trimmed) <= minMeaningfulLength {
		return domain.Verdict{Meaningful: false, Reason: fmt.Sprintf("result too short (%d chars)", len(trimmed))}
	}

	return domain.Verdict{Meaningful: true, Reason: "result appears meaningful"}
}

// extractAnswerText pulls a string out of a candidate result: plain
// strings pass through, maps are probed for well-known answer fields,
// then for any string value.
func extractAnswerText(result any) (string, bool) {
	switch v := result.(type) {
	case nil:
		return "", false
	case string:
		return v, true
	case map[string]any:
		for _, key := range []string{"answer", "result"} {
			if s, ok := v[key].(string); ok {
				return s, true
			}
		}
		for _, value := range v {
			if s, ok := value.(string); ok {
				return s, true
			}
		}
		return "", false
	default:
		return "", false
	}
}
