package roundtable

import (
	"sort"
	"strings"

	"roundtable/internal/mentor"
)

// RelevanceScore measures how strongly a message matches a mentor's keyword
// profile. High-tier keywords count triple, medium double, low single; every
// occurrence counts, so repeated keywords raise the score.
func RelevanceScore(m mentor.Mentor, message string) int {
	lowered := strings.ToLower(message)
	if strings.TrimSpace(lowered) == "" {
		return 0
	}

	score := 0
	for _, kw := range m.Keywords.High {
		score += 3 * strings.Count(lowered, strings.ToLower(kw))
	}
	for _, kw := range m.Keywords.Medium {
		score += 2 * strings.Count(lowered, strings.ToLower(kw))
	}
	for _, kw := range m.Keywords.Low {
		score += strings.Count(lowered, strings.ToLower(kw))
	}
	return score
}

// RankByRelevance orders candidate IDs by descending score against message,
// keeping the incoming order among ties. Only positive scores are considered a
// match; ok reports whether any candidate matched at all.
func RankByRelevance(panel []mentor.Mentor, candidates []string, message string) (ranked []string, ok bool) {
	byID := make(map[string]mentor.Mentor, len(panel))
	for _, m := range panel {
		byID[m.ID] = m
	}

	type scored struct {
		id    string
		score int
	}
	entries := make([]scored, 0, len(candidates))
	best := 0
	for _, id := range candidates {
		s := 0
		if m, known := byID[id]; known {
			s = RelevanceScore(m, message)
		}
		if s > best {
			best = s
		}
		entries = append(entries, scored{id: id, score: s})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].score > entries[j].score
	})

	ranked = make([]string, len(entries))
	for i, e := range entries {
		ranked[i] = e.id
	}
	return ranked, best > 0
}
