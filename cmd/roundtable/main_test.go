package main

import (
	"testing"

	"go.uber.org/zap"

	"roundtable/internal/config"
	"roundtable/internal/mentor"
)

func TestParseRuntimeOptionsDefaults(t *testing.T) {
	opts, err := parseRuntimeOptions(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.mentorPath != "" || opts.rosterPath != "" || opts.configPath != "" {
		t.Fatalf("expected empty path defaults, got %+v", opts)
	}
	if opts.webAddr != "" {
		t.Fatalf("expected empty web addr by default, got %q", opts.webAddr)
	}
}

func TestParseRuntimeOptionsMentorsFlag(t *testing.T) {
	opts, err := parseRuntimeOptions([]string{"--mentors", "./panels/mentors.json"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.mentorPath != "./panels/mentors.json" {
		t.Fatalf("unexpected mentor path: %s", opts.mentorPath)
	}
}

func TestParseRuntimeOptionsMentorAlias(t *testing.T) {
	opts, err := parseRuntimeOptions([]string{"--mentor", "./custom.json"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.mentorPath != "./custom.json" {
		t.Fatalf("unexpected mentor path: %s", opts.mentorPath)
	}
}

func TestParseRuntimeOptionsRejectsPositionalArgs(t *testing.T) {
	_, err := parseRuntimeOptions([]string{"unexpected"})
	if err == nil {
		t.Fatal("expected error for positional args")
	}
}

func TestParseRuntimeOptionsWebAddr(t *testing.T) {
	opts, err := parseRuntimeOptions([]string{"--web", "  :8090  ", "--student", "gvc002"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.webAddr != ":8090" {
		t.Fatalf("unexpected web addr: %q", opts.webAddr)
	}
	if opts.studentID != "gvc002" {
		t.Fatalf("unexpected student id: %q", opts.studentID)
	}
}

func TestApplyOptionOverrides(t *testing.T) {
	settings := config.Settings{MentorPath: "./mentors.json", RosterPath: "./roster.csv"}
	applyOptionOverrides(&settings, runtimeOptions{mentorPath: "./other.json", knowledgeDir: "./docs"})

	if settings.MentorPath != "./other.json" {
		t.Fatalf("mentor path not overridden: %s", settings.MentorPath)
	}
	if settings.RosterPath != "./roster.csv" {
		t.Fatalf("roster path should be untouched: %s", settings.RosterPath)
	}
	if settings.KnowledgeDir != "./docs" {
		t.Fatalf("knowledge dir not overridden: %s", settings.KnowledgeDir)
	}
}

func TestLoadMentorsFallsBackToBuiltinPanel(t *testing.T) {
	panel, err := loadMentors("./does-not-exist.json", zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(panel) != len(mentor.DefaultPanel()) {
		t.Fatalf("expected the built-in panel, got %d mentors", len(panel))
	}
}

func TestLoadRosterReordersSelectedStudent(t *testing.T) {
	roster, err := loadRoster("", "gvc002")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if roster[0].ID != "gvc002" {
		t.Fatalf("expected selected student first, got %s", roster[0].ID)
	}
	if len(roster) != 3 {
		t.Fatalf("expected full roster, got %d", len(roster))
	}

	if _, err := loadRoster("", "nobody"); err == nil {
		t.Fatal("expected error for unknown student id")
	}
}

func TestNewLoggerRejectsBadLevel(t *testing.T) {
	if _, err := newLogger("verbose"); err == nil {
		t.Fatal("expected error for invalid level")
	}
	logger, err := newLogger("debug")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = logger.Sync()
}
