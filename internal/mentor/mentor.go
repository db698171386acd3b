package mentor

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

const (
	MinMentors = 2
	MaxMentors = 12
)

// KeywordProfile holds the tiered relevance keywords for one mentor.
// High-tier matches weigh 3x, medium 2x, low 1x during scoring.
type KeywordProfile struct {
	High   []string `json:"high,omitempty"`
	Medium []string `json:"medium,omitempty"`
	Low    []string `json:"low,omitempty"`
}

// Mentor is one configured roundtable persona. Identity is immutable after
// normalization; the prompt template is opaque to the scheduling core.
type Mentor struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Expertise      string         `json:"expertise"`
	Avatar         string         `json:"avatar,omitempty"`
	Keywords       KeywordProfile `json:"keywords,omitempty"`
	PromptTemplate string         `json:"prompt_template,omitempty"`
}

func LoadFromFile(path string) ([]Mentor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mentor file: %w", err)
	}

	var mentors []Mentor
	if err := json.Unmarshal(data, &mentors); err != nil {
		return nil, fmt.Errorf("parse mentor json: %w", err)
	}

	normalized, err := NormalizeAndValidate(mentors)
	if err != nil {
		return nil, err
	}
	return normalized, nil
}

func NormalizeAndValidate(mentors []Mentor) ([]Mentor, error) {
	if len(mentors) < MinMentors {
		return nil, fmt.Errorf("at least %d mentors are required", MinMentors)
	}
	if len(mentors) > MaxMentors {
		return nil, fmt.Errorf("at most %d mentors are allowed", MaxMentors)
	}

	seen := make(map[string]struct{}, len(mentors))
	out := make([]Mentor, 0, len(mentors))

	for i, m := range mentors {
		m.ID = strings.TrimSpace(m.ID)
		m.Name = strings.TrimSpace(m.Name)
		m.Expertise = strings.TrimSpace(m.Expertise)
		m.Avatar = strings.TrimSpace(m.Avatar)
		m.PromptTemplate = strings.TrimSpace(m.PromptTemplate)

		if m.ID == "" {
			return nil, fmt.Errorf("mentor[%d].id is required", i)
		}
		if m.Name == "" {
			return nil, fmt.Errorf("mentor[%d].name is required", i)
		}
		if m.Expertise == "" {
			return nil, fmt.Errorf("mentor[%d].expertise is required", i)
		}
		if _, exists := seen[m.ID]; exists {
			return nil, fmt.Errorf("duplicate mentor id: %s", m.ID)
		}
		seen[m.ID] = struct{}{}

		m.Keywords.High = trimNonEmpty(m.Keywords.High)
		m.Keywords.Medium = trimNonEmpty(m.Keywords.Medium)
		m.Keywords.Low = trimNonEmpty(m.Keywords.Low)

		out = append(out, m)
	}

	return out, nil
}

// FindIndex locates a mentor by id, case-insensitive. Returns -1 when absent.
func FindIndex(mentors []Mentor, rawID string) int {
	key := strings.ToLower(strings.TrimSpace(rawID))
	if key == "" {
		return -1
	}
	for i, m := range mentors {
		if strings.ToLower(m.ID) == key {
			return i
		}
	}
	return -1
}

// IDs returns the fixed mentor order as a list of ids.
func IDs(mentors []Mentor) []string {
	out := make([]string, 0, len(mentors))
	for _, m := range mentors {
		out = append(out, m.ID)
	}
	return out
}

func trimNonEmpty(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
