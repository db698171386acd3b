package output

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"roundtable/internal/mentor"
	"roundtable/internal/profile"
	"roundtable/internal/roundtable"
)

func sampleSession() roundtable.Session {
	return roundtable.Session{
		ID: "abc-123",
		Student: profile.StudentProfile{
			ID: "s1", Name: "Alex Johnson", Age: 16, GradeLevel: "Grade 10",
			Interests: []string{"programming"},
		},
		Mentors: []mentor.Mentor{
			{ID: "academic", Name: "Dr. Chen", Expertise: "Academics"},
			{ID: "career", Name: "Ms. Park", Expertise: "Careers"},
		},
		Utterances: []roundtable.Utterance{
			{Index: 1, SpeakerID: "academic", SpeakerName: "Dr. Chen",
				Type: roundtable.TurnTypeMentor, Phase: roundtable.PhaseOpening,
				Text:      "first point\nsecond point",
				CreatedAt: time.Date(2026, 3, 1, 10, 0, 1, 0, time.UTC)},
			{Index: 2, SpeakerID: roundtable.HumanSpeakerID, SpeakerName: roundtable.HumanSpeakerName,
				Type: roundtable.TurnTypeHuman, Phase: roundtable.PhaseOpening,
				Text: "what about internships?"},
			{Index: 3, SpeakerID: "career", SpeakerName: "Ms. Park",
				Type: roundtable.TurnTypeMentor, Phase: roundtable.PhaseOpening,
				Text: "start with a summer program", Fallback: true},
		},
		Phase:         roundtable.PhaseOpening,
		TopicsCovered: []string{"academics", "career"},
		Participation: map[string]int{"academic": 1, "career": 1},
		Usage:         roundtable.Usage{PromptTokens: 20, CompletionTokens: 10, TotalTokens: 30},
		Health: roundtable.Health{
			RejectionsBySpeaker: map[string]int{"career": 2},
			DegradedAccepts:     1,
		},
		StartedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		EndedAt:   time.Date(2026, 3, 1, 10, 5, 0, 0, time.UTC),
	}
}

func TestSaveSessionWritesJSONAndMarkdown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	session := sampleSession()

	if err := SaveSession(path, session); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	var decoded roundtable.Session
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("json round trip failed: %v", err)
	}
	if decoded.ID != session.ID || len(decoded.Utterances) != 3 {
		t.Fatalf("decoded session = %+v", decoded)
	}

	md, err := os.ReadFile(MarkdownPath(path))
	if err != nil {
		t.Fatalf("read markdown failed: %v", err)
	}
	mdText := string(md)
	for _, want := range []string{
		"# Roundtable Session",
		"- session_id: abc-123",
		"- student: Alex Johnson",
		"## Participation",
		"| Dr. Chen | 1 |",
		"## Topics Covered",
		"- academics",
		"### Turn 1 · Dr. Chen (mentor, opening)",
		"- text:\n  - first point\n  - second point",
		"### Turn 3 · Ms. Park (mentor, opening) · fallback",
		"- degraded_accepts: 1",
		"  - career: 2",
	} {
		if !strings.Contains(mdText, want) {
			t.Fatalf("markdown missing %q:\n%s", want, mdText)
		}
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("expected no temp file left, got err=%v", err)
	}
}

func TestSaveSessionCreatesOutputDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "session.json")
	if err := SaveSession(path, sampleSession()); err != nil {
		t.Fatalf("save into missing dir failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("json file missing: %v", err)
	}
}

func TestNewSessionPath(t *testing.T) {
	session := sampleSession()
	path := NewSessionPath("./sessions", session)
	if filepath.Base(path) != "20260301-100000-abc-123.json" {
		t.Fatalf("unexpected path: %s", path)
	}

	blank := roundtable.Session{}
	path = NewSessionPath("./sessions", blank)
	if !strings.HasSuffix(filepath.Base(path), "-session.json") {
		t.Fatalf("unexpected fallback path: %s", path)
	}
}

func TestMarkdownPath(t *testing.T) {
	if got := MarkdownPath("./sessions/a.json"); got != "./sessions/a.md" {
		t.Fatalf("unexpected markdown path: %s", got)
	}
	if got := MarkdownPath("./sessions/session"); got != "./sessions/session.md" {
		t.Fatalf("unexpected markdown path without extension: %s", got)
	}
}
