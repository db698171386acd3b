package knowledge

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const studyDoc = `Effective study habits start with a consistent schedule and a quiet workspace free of distractions.

Spaced repetition beats cramming: review material in short sessions spread across several days before the exam.`

const financeDoc = `A starter budget has three buckets: needs, wants, and savings. Teenagers should aim to save at least twenty percent of any income.`

func TestStoreQueryRanksByOverlap(t *testing.T) {
	s := NewStore(nil)
	s.AddDocument("study.md", studyDoc)
	s.AddDocument("finance.md", financeDoc)

	if s.Len() != 3 {
		t.Fatalf("chunk count = %d, want 3", s.Len())
	}

	got := s.Query("how should I budget my savings as a teenager", 1)
	if !strings.Contains(got, "three buckets") {
		t.Fatalf("query returned %q, want the budgeting chunk", got)
	}

	got = s.Query("best way to review before an exam", 2)
	if !strings.Contains(got, "Spaced repetition") {
		t.Fatalf("query returned %q, want the spaced repetition chunk", got)
	}
}

func TestStoreQueryNoMatch(t *testing.T) {
	s := NewStore(nil)
	s.AddDocument("study.md", studyDoc)

	if got := s.Query("zzz qqq xyzzy", 3); got != "" {
		t.Fatalf("unmatched query returned %q, want empty", got)
	}
	if got := s.Query("", 3); got != "" {
		t.Fatalf("empty query returned %q, want empty", got)
	}
	if got := s.Query("study schedule", 0); got != "" {
		t.Fatalf("k=0 query returned %q, want empty", got)
	}
}

func TestStoreQueryOnEmptyStore(t *testing.T) {
	var s *Store
	if got := s.Query("anything", 3); got != "" {
		t.Fatalf("nil store returned %q, want empty", got)
	}
	if got := NewStore(nil).Query("anything", 3); got != "" {
		t.Fatalf("empty store returned %q, want empty", got)
	}
}

func TestStoreLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "notes.txt", studyDoc)
	writeFile(t, dir, "budget.md", financeDoc)
	writeFile(t, dir, "ignored.json", `{"not": "indexed"}`)

	s := NewStore(nil)
	if err := s.LoadDir(dir); err != nil {
		t.Fatalf("load dir: %v", err)
	}
	if s.Len() != 3 {
		t.Fatalf("chunk count = %d, want 3 (json ignored)", s.Len())
	}
}

func TestStoreLoadDirMissing(t *testing.T) {
	s := NewStore(nil)
	if err := s.LoadDir(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatal("load of a missing directory succeeded")
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}
