package mentor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validMentors() []Mentor {
	return []Mentor{
		{ID: "a", Name: "Mentor A", Expertise: "Alpha"},
		{ID: "b", Name: "Mentor B", Expertise: "Beta"},
	}
}

func TestNormalizeAndValidateTrims(t *testing.T) {
	in := []Mentor{
		{ID: "  a ", Name: " Mentor A ", Expertise: " Alpha ",
			Keywords: KeywordProfile{High: []string{" study ", ""}}},
		{ID: "b", Name: "Mentor B", Expertise: "Beta"},
	}
	out, err := NormalizeAndValidate(in)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if out[0].ID != "a" || out[0].Name != "Mentor A" {
		t.Fatalf("fields not trimmed: %+v", out[0])
	}
	if len(out[0].Keywords.High) != 1 || out[0].Keywords.High[0] != "study" {
		t.Fatalf("keywords not cleaned: %v", out[0].Keywords.High)
	}
}

func TestNormalizeAndValidateBounds(t *testing.T) {
	if _, err := NormalizeAndValidate(validMentors()[:1]); err == nil {
		t.Fatal("single-mentor panel accepted")
	}

	big := make([]Mentor, MaxMentors+1)
	for i := range big {
		big[i] = Mentor{ID: strings.Repeat("x", i+1), Name: "N", Expertise: "E"}
	}
	if _, err := NormalizeAndValidate(big); err == nil {
		t.Fatal("oversized panel accepted")
	}
}

func TestNormalizeAndValidateRejectsDuplicates(t *testing.T) {
	in := append(validMentors(), Mentor{ID: "a", Name: "Copy", Expertise: "Gamma"})
	if _, err := NormalizeAndValidate(in); err == nil {
		t.Fatal("duplicate id accepted")
	}
}

func TestNormalizeAndValidateRequiresFields(t *testing.T) {
	for _, in := range [][]Mentor{
		{{Name: "N", Expertise: "E"}, {ID: "b", Name: "B", Expertise: "E"}},
		{{ID: "a", Expertise: "E"}, {ID: "b", Name: "B", Expertise: "E"}},
		{{ID: "a", Name: "N"}, {ID: "b", Name: "B", Expertise: "E"}},
	} {
		if _, err := NormalizeAndValidate(in); err == nil {
			t.Fatalf("incomplete mentor accepted: %+v", in[0])
		}
	}
}

func TestFindIndexCaseInsensitive(t *testing.T) {
	mentors := validMentors()
	if got := FindIndex(mentors, " B "); got != 1 {
		t.Fatalf("index = %d, want 1", got)
	}
	if got := FindIndex(mentors, "missing"); got != -1 {
		t.Fatalf("index = %d, want -1", got)
	}
	if got := FindIndex(mentors, ""); got != -1 {
		t.Fatalf("index for blank id = %d, want -1", got)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mentors.json")
	payload := `[
  {"id":"academic","name":"Dr. Chen","expertise":"Academics","keywords":{"high":["study"]}},
  {"id":"career","name":"Ms. Park","expertise":"Careers"}
]`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	mentors, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(mentors) != 2 || mentors[0].ID != "academic" {
		t.Fatalf("loaded %+v", mentors)
	}
	if mentors[0].Keywords.High[0] != "study" {
		t.Fatalf("keywords not loaded: %+v", mentors[0].Keywords)
	}
}

func TestLoadFromFileErrors(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("missing file accepted")
	}

	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadFromFile(path); err == nil {
		t.Fatal("malformed json accepted")
	}
}

func TestDefaultPanelIsValid(t *testing.T) {
	panel := DefaultPanel()
	if len(panel) != 10 {
		t.Fatalf("default panel has %d mentors, want 10", len(panel))
	}
	if _, err := NormalizeAndValidate(panel); err != nil {
		t.Fatalf("default panel invalid: %v", err)
	}
	for _, m := range panel {
		if len(m.Keywords.High) == 0 {
			t.Fatalf("mentor %s has no high-tier keywords", m.ID)
		}
		if m.PromptTemplate == "" {
			t.Fatalf("mentor %s has no prompt template", m.ID)
		}
	}
}
