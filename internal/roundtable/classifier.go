package roundtable

import (
	"sort"
	"strings"
)

// topicKeywords is the fixed classification vocabulary. A topic fires when
// any of its keywords appears as a case-insensitive substring; there is no
// stemming or negation handling.
var topicKeywords = map[string][]string{
	"academics":     {"study", "academic", "learning", "education", "school", "grade", "exam"},
	"career":        {"career", "job", "professional", "work", "internship", "employment"},
	"technology":    {"tech", "digital", "programming", "coding", "innovation", "ai"},
	"wellness":      {"health", "wellness", "stress", "mental", "balance", "mindfulness"},
	"skills":        {"skill", "management", "organization", "planning", "routine"},
	"creativity":    {"creative", "art", "design", "imagination", "expression"},
	"leadership":    {"leadership", "team", "influence", "decision", "responsibility"},
	"finance":       {"money", "financial", "budget", "investment", "savings"},
	"communication": {"speaking", "presentation", "conversation", "listening"},
	"global":        {"global", "cultural", "international", "diversity", "perspective"},
}

// Classify extracts the topic tags present in a message. Pure function;
// calling it twice on the same text yields the same sorted set.
func Classify(text string) []string {
	lowered := strings.ToLower(text)
	if strings.TrimSpace(lowered) == "" {
		return nil
	}

	var topics []string
	for topic, keywords := range topicKeywords {
		for _, keyword := range keywords {
			if strings.Contains(lowered, keyword) {
				topics = append(topics, topic)
				break
			}
		}
	}
	sort.Strings(topics)
	return topics
}

// commonThemePatterns are recurring advice themes watched for anti-repetition
// hints in generation context.
var commonThemePatterns = []string{
	"time management", "goal setting", "networking", "skill development",
	"balance", "planning", "practice", "communication", "leadership",
	"creativity", "financial planning", "global perspective", "wellness",
}

// RecentThemes reports which common advice themes already appear in the last
// few utterances, capped at limit entries.
func RecentThemes(history []Utterance, limit int) []string {
	if len(history) == 0 || limit <= 0 {
		return nil
	}

	tail := history
	if len(tail) > 4 {
		tail = tail[len(tail)-4:]
	}
	var joined strings.Builder
	for _, u := range tail {
		joined.WriteString(strings.ToLower(u.Text))
		joined.WriteByte(' ')
	}
	text := joined.String()

	var themes []string
	for _, pattern := range commonThemePatterns {
		if strings.Contains(text, pattern) {
			themes = append(themes, pattern)
			if len(themes) >= limit {
				break
			}
		}
	}
	return themes
}
