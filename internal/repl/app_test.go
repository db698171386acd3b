package repl

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"roundtable/internal/mentor"
	"roundtable/internal/profile"
	"roundtable/internal/roundtable"
)

type fakeConversation struct {
	state    roundtable.State
	mentors  []mentor.Mentor
	student  profile.StudentProfile
	says     []string
	advances int
	capAfter int
	turns    []roundtable.Utterance
}

func newFakeConversation() *fakeConversation {
	return &fakeConversation{
		state: roundtable.StateIdle,
		mentors: []mentor.Mentor{
			{ID: "academic", Name: "Dr. Chen", Expertise: "Academics"},
			{ID: "career", Name: "Ms. Park", Expertise: "Careers"},
		},
		capAfter: 100,
	}
}

func (f *fakeConversation) Start(student profile.StudentProfile) string {
	f.student = student
	f.state = roundtable.StateRunning
	f.turns = nil
	return "fake-session"
}

func (f *fakeConversation) Say(text string) (roundtable.Utterance, error) {
	if f.state == roundtable.StateIdle {
		return roundtable.Utterance{}, roundtable.ErrNotRunning
	}
	f.says = append(f.says, text)
	if f.state == roundtable.StateHaltedAtCap {
		f.state = roundtable.StateRunning
	}
	u := roundtable.Utterance{
		Index: len(f.turns) + 1, SpeakerID: roundtable.HumanSpeakerID,
		SpeakerName: roundtable.HumanSpeakerName, Type: roundtable.TurnTypeHuman,
		Text: text, Phase: roundtable.PhaseOpening,
	}
	f.turns = append(f.turns, u)
	return u, nil
}

func (f *fakeConversation) Advance(context.Context) (roundtable.Utterance, error) {
	if f.state != roundtable.StateRunning {
		return roundtable.Utterance{}, roundtable.ErrNotRunning
	}
	if f.advances >= f.capAfter {
		f.state = roundtable.StateHaltedAtCap
		return roundtable.Utterance{}, roundtable.ErrTurnCapReached
	}
	f.advances++
	m := f.mentors[f.advances%len(f.mentors)]
	u := roundtable.Utterance{
		Index: len(f.turns) + 1, SpeakerID: m.ID, SpeakerName: m.Name,
		Type: roundtable.TurnTypeMentor, Phase: roundtable.PhaseOpening,
		Text: fmt.Sprintf("advice %d from %s", f.advances, m.Name),
	}
	f.turns = append(f.turns, u)
	return u, nil
}

func (f *fakeConversation) Pause() error {
	if f.state != roundtable.StateRunning {
		return roundtable.ErrNotRunning
	}
	f.state = roundtable.StatePaused
	return nil
}

func (f *fakeConversation) Resume() error {
	if f.state != roundtable.StatePaused && f.state != roundtable.StateHaltedAtCap {
		return roundtable.ErrNotRunning
	}
	f.state = roundtable.StateRunning
	return nil
}

func (f *fakeConversation) Reset() { f.state = roundtable.StateIdle; f.turns = nil }

func (f *fakeConversation) State() roundtable.State { return f.state }

func (f *fakeConversation) Mentors() []mentor.Mentor { return f.mentors }

func (f *fakeConversation) Snapshot() roundtable.Session {
	return roundtable.Session{
		ID: "fake-session", Student: f.student, Mentors: f.mentors,
		Utterances: f.turns, Phase: roundtable.PhaseOpening,
		Participation: map[string]int{"academic": 1, "career": 1},
		StartedAt:     time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func runREPL(t *testing.T, conv Conversation, input string) string {
	t.Helper()
	var out strings.Builder
	app := NewApp(Config{
		Conversation: conv,
		OutputDir:    filepath.Join(t.TempDir(), "sessions"),
		Writer:       &out,
	})
	if err := app.Start(context.Background(), strings.NewReader(input)); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	return out.String()
}

func TestPlainTextSendsMessageAndAdvances(t *testing.T) {
	conv := newFakeConversation()
	out := runREPL(t, conv, "how do I pick a career?\n/exit\n")

	if len(conv.says) != 1 || conv.says[0] != "how do I pick a career?" {
		t.Fatalf("says = %#v", conv.says)
	}
	if conv.advances != repliesPerMessage {
		t.Fatalf("advances = %d, want %d", conv.advances, repliesPerMessage)
	}
	if !strings.Contains(out, "advice 1") {
		t.Fatalf("mentor replies missing from output:\n%s", out)
	}
}

func TestSayAutoStartsSession(t *testing.T) {
	conv := newFakeConversation()
	runREPL(t, conv, "/say hello mentors\n/exit\n")

	if conv.state == roundtable.StateIdle {
		t.Fatal("session was not auto-started")
	}
	if conv.student.ID == "" {
		t.Fatal("default student not selected")
	}
}

func TestStartSelectsStudentByID(t *testing.T) {
	conv := newFakeConversation()
	out := runREPL(t, conv, "/start gvc002\n/exit\n")

	if conv.student.Name != "Maya Patel" {
		t.Fatalf("student = %+v, want Maya Patel", conv.student)
	}
	if !strings.Contains(out, "Maya Patel") {
		t.Fatalf("start confirmation missing:\n%s", out)
	}

	out = runREPL(t, newFakeConversation(), "/start nobody\n/exit\n")
	if !strings.Contains(out, "unknown student id") {
		t.Fatalf("unknown student not reported:\n%s", out)
	}
}

func TestGoAdvancesRequestedTurns(t *testing.T) {
	conv := newFakeConversation()
	runREPL(t, conv, "/start\n/go 4\n/exit\n")
	if conv.advances != 4 {
		t.Fatalf("advances = %d, want 4", conv.advances)
	}

	out := runREPL(t, newFakeConversation(), "/go zero\n/exit\n")
	if !strings.Contains(out, "usage: /go") {
		t.Fatalf("bad count not rejected:\n%s", out)
	}
}

func TestCapMessageStopsAdvancing(t *testing.T) {
	conv := newFakeConversation()
	conv.capAfter = 1
	out := runREPL(t, conv, "tell me everything\n/exit\n")

	if conv.advances != 1 {
		t.Fatalf("advances = %d, want 1 before the cap", conv.advances)
	}
	if !strings.Contains(out, "mentors pause here") {
		t.Fatalf("cap notice missing:\n%s", out)
	}
}

func TestPauseResumeAndStatus(t *testing.T) {
	conv := newFakeConversation()
	out := runREPL(t, conv, "/start\n/pause\n/status\n/resume\n/exit\n")

	for _, want := range []string{"paused", "resumed", "phase: opening", "Dr. Chen: 1 turns"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSaveWritesSessionFiles(t *testing.T) {
	conv := newFakeConversation()
	var out strings.Builder
	dir := filepath.Join(t.TempDir(), "sessions")
	app := NewApp(Config{Conversation: conv, OutputDir: dir, Writer: &out})

	input := "/start\n/go 2\n/save\n/exit\n"
	if err := app.Start(context.Background(), strings.NewReader(input)); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	files, err := filepath.Glob(filepath.Join(dir, "*-fake-session.json"))
	if err != nil || len(files) != 1 {
		t.Fatalf("session files = %v, err = %v", files, err)
	}
	if !strings.Contains(out.String(), "saved session:") {
		t.Fatalf("save confirmation missing:\n%s", out.String())
	}
}

func TestSaveWithEmptySession(t *testing.T) {
	out := runREPL(t, newFakeConversation(), "/save\n/exit\n")
	if !strings.Contains(out, "nothing to save yet") {
		t.Fatalf("empty save not reported:\n%s", out)
	}
}

func TestMentorsListing(t *testing.T) {
	out := runREPL(t, newFakeConversation(), "/mentors\n/exit\n")
	if !strings.Contains(out, "Dr. Chen") || !strings.Contains(out, "Ms. Park") {
		t.Fatalf("mentor list missing entries:\n%s", out)
	}
}

func TestUnknownCommand(t *testing.T) {
	out := runREPL(t, newFakeConversation(), "/frobnicate\n/exit\n")
	if !strings.Contains(out, "unknown command") {
		t.Fatalf("unknown command not reported:\n%s", out)
	}
}

func TestAliasesResolve(t *testing.T) {
	conv := newFakeConversation()
	out := runREPL(t, conv, "/m\n/s hi there\n/q\n")
	if !strings.Contains(out, "Dr. Chen") {
		t.Fatalf("alias /m did not list mentors:\n%s", out)
	}
	if len(conv.says) != 1 || conv.says[0] != "hi there" {
		t.Fatalf("alias /s did not send message: %#v", conv.says)
	}
	if !strings.Contains(out, "bye") {
		t.Fatalf("alias /q did not exit:\n%s", out)
	}
}

func TestStartWithNilConversation(t *testing.T) {
	app := NewApp(Config{Writer: &strings.Builder{}})
	err := app.Start(context.Background(), strings.NewReader("/exit\n"))
	if err == nil || !strings.Contains(err.Error(), "conversation is required") {
		t.Fatalf("unexpected error: %v", err)
	}
}
