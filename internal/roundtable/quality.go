package roundtable

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	minUtteranceLen = 20
	maxUtteranceLen = 2000
)

// genericPhrases flag boilerplate assistant output. Matching is substring on
// the lowercased candidate.
var genericPhrases = []string{
	"as an ai",
	"i'm an ai",
	"i cannot",
	"i don't have access",
	"let me help you",
	"i understand",
	"that's a great question",
}

// QualityGate screens candidate utterances before they are committed. It is
// stateless; repetition checks run against the recent texts the caller passes
// from the ledger.
type QualityGate struct {
	similarityThreshold float64
}

func NewQualityGate(similarityThreshold float64) *QualityGate {
	if similarityThreshold <= 0 || similarityThreshold > 1 {
		similarityThreshold = defaultSimilarityThreshold
	}
	return &QualityGate{similarityThreshold: similarityThreshold}
}

// Rejection explains why a candidate failed the gate. OffendingText is set
// only for repetition rejections and feeds the retry prompt.
type Rejection struct {
	Reason        string
	OffendingText string
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("utterance rejected: %s", r.Reason)
}

// Check returns nil when the candidate may be committed. recentTexts are the
// same speaker's last accepted utterances, oldest first.
func (g *QualityGate) Check(candidate string, recentTexts []string) *Rejection {
	trimmed := strings.TrimSpace(candidate)
	// Length bounds count runes so multibyte text is not penalized.
	length := utf8.RuneCountInString(trimmed)
	if length < minUtteranceLen {
		return &Rejection{Reason: fmt.Sprintf("too short (%d chars, need %d)", length, minUtteranceLen)}
	}
	if length > maxUtteranceLen {
		return &Rejection{Reason: fmt.Sprintf("too long (%d chars, cap %d)", length, maxUtteranceLen)}
	}

	lowered := strings.ToLower(trimmed)
	for _, phrase := range genericPhrases {
		if strings.Contains(lowered, phrase) {
			return &Rejection{Reason: fmt.Sprintf("generic phrase %q", phrase)}
		}
	}

	for _, prev := range recentTexts {
		if sim := jaccardSimilarity(trimmed, prev); sim > g.similarityThreshold {
			return &Rejection{
				Reason:        fmt.Sprintf("too similar to a recent turn (%.2f)", sim),
				OffendingText: prev,
			}
		}
	}
	return nil
}

// jaccardSimilarity compares lowercase word sets. Word order and repetition
// do not matter; two empty texts count as identical.
func jaccardSimilarity(a, b string) float64 {
	setA := wordSet(a)
	setB := wordSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 1
	}
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for w := range setA {
		if _, ok := setB[w]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

func wordSet(text string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}
