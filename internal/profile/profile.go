package profile

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// StudentProfile is the subject of a roundtable session. Fields are plain
// typed values; anything missing in the source data stays at its zero value.
type StudentProfile struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Age         int      `json:"age"`
	GradeLevel  string   `json:"grade_level"`
	Interests   []string `json:"interests,omitempty"`
	Goals       string   `json:"goals,omitempty"`
	Strengths   []string `json:"strengths,omitempty"`
	GrowthAreas []string `json:"growth_areas,omitempty"`
}

// Summary renders the profile as a compact block for prompt context.
func (p StudentProfile) Summary() string {
	var b strings.Builder
	b.WriteString("Name: " + orDash(p.Name))
	if p.Age > 0 {
		b.WriteString(fmt.Sprintf("\nAge: %d", p.Age))
	}
	if p.GradeLevel != "" {
		b.WriteString("\nGrade: " + p.GradeLevel)
	}
	if len(p.Interests) > 0 {
		b.WriteString("\nInterests: " + strings.Join(p.Interests, ", "))
	}
	if p.Goals != "" {
		b.WriteString("\nGoals: " + p.Goals)
	}
	if len(p.Strengths) > 0 {
		b.WriteString("\nStrengths: " + strings.Join(p.Strengths, ", "))
	}
	if len(p.GrowthAreas) > 0 {
		b.WriteString("\nGrowth areas: " + strings.Join(p.GrowthAreas, ", "))
	}
	return b.String()
}

// LoadRoster reads student profiles from a CSV file with a header row of
// id,name,age,grade_level,interests,goals,strengths,growth_areas. Multi-value
// columns are comma-separated within the cell.
func LoadRoster(path string) ([]StudentProfile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open roster: %w", err)
	}
	defer f.Close()
	return ParseRoster(f)
}

func ParseRoster(r io.Reader) ([]StudentProfile, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read roster header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"id", "name"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("roster is missing column %q", required)
		}
	}

	var out []StudentProfile
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read roster line %d: %w", line, err)
		}

		p := StudentProfile{
			ID:          cell(record, columns, "id"),
			Name:        cell(record, columns, "name"),
			GradeLevel:  cell(record, columns, "grade_level"),
			Interests:   splitList(cell(record, columns, "interests")),
			Goals:       cell(record, columns, "goals"),
			Strengths:   splitList(cell(record, columns, "strengths")),
			GrowthAreas: splitList(cell(record, columns, "growth_areas")),
		}
		if raw := cell(record, columns, "age"); raw != "" {
			age, err := strconv.Atoi(raw)
			if err != nil {
				return nil, fmt.Errorf("roster line %d: invalid age %q", line, raw)
			}
			p.Age = age
		}
		if p.ID == "" || p.Name == "" {
			return nil, fmt.Errorf("roster line %d: id and name are required", line)
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("roster has no students")
	}
	return out, nil
}

// Find returns the profile with the given id, or false when absent.
func Find(roster []StudentProfile, id string) (StudentProfile, bool) {
	key := strings.ToLower(strings.TrimSpace(id))
	for _, p := range roster {
		if strings.ToLower(p.ID) == key {
			return p, true
		}
	}
	return StudentProfile{}, false
}

// SampleRoster provides built-in profiles so the app works without a CSV.
func SampleRoster() []StudentProfile {
	return []StudentProfile{
		{
			ID:          "gvc001",
			Name:        "Alex Johnson",
			Age:         16,
			GradeLevel:  "Grade 10",
			Interests:   []string{"computer programming", "robotics", "game design"},
			Goals:       "Become a software engineer and build apps that help people solve everyday problems",
			Strengths:   []string{"logical thinking", "problem-solving", "attention to detail"},
			GrowthAreas: []string{"public speaking", "time management"},
		},
		{
			ID:          "gvc002",
			Name:        "Maya Patel",
			Age:         15,
			GradeLevel:  "Grade 9",
			Interests:   []string{"environmental science", "biology", "sustainability"},
			Goals:       "Study environmental engineering to help combat climate change",
			Strengths:   []string{"research skills", "analytical thinking"},
			GrowthAreas: []string{"delegation", "stress management"},
		},
		{
			ID:          "gvc003",
			Name:        "Sam Chen",
			Age:         17,
			GradeLevel:  "Grade 11",
			Interests:   []string{"music production", "digital art", "creative writing"},
			Goals:       "Pursue a career in multimedia arts and create content that inspires others",
			Strengths:   []string{"creativity", "storytelling"},
			GrowthAreas: []string{"financial planning", "consistency"},
		},
	}
}

func cell(record []string, columns map[string]int, name string) string {
	idx, ok := columns[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func orDash(v string) string {
	if strings.TrimSpace(v) == "" {
		return "-"
	}
	return v
}
