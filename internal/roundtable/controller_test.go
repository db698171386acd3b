package roundtable

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"roundtable/internal/mentor"
	"roundtable/internal/profile"
)

type fakeGenerator struct {
	calls int
	// texts are served in order; the last entry repeats once exhausted.
	texts  []string
	err    error
	inputs []GenerateInput
}

func (f *fakeGenerator) Generate(_ context.Context, input GenerateInput) (GenerateOutput, error) {
	f.calls++
	f.inputs = append(f.inputs, input)
	if f.err != nil {
		return GenerateOutput{}, f.err
	}

	text := fmt.Sprintf("Here is some thoughtful advice number %d from %s about growth.", f.calls, input.Speaker.Name)
	if len(f.texts) > 0 {
		idx := f.calls - 1
		if idx >= len(f.texts) {
			idx = len(f.texts) - 1
		}
		text = f.texts[idx]
	}
	return GenerateOutput{
		Text:  text,
		Usage: Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}, nil
}

type fakeStore struct {
	calls   int
	lastQ   string
	lastK   int
	payload string
}

func (f *fakeStore) Query(text string, k int) string {
	f.calls++
	f.lastQ = text
	f.lastK = k
	return f.payload
}

func testPanel() []mentor.Mentor {
	return []mentor.Mentor{
		{ID: "academic", Name: "Dr. Chen", Expertise: "Academics",
			Keywords: mentor.KeywordProfile{High: []string{"study", "exam"}}},
		{ID: "career", Name: "Ms. Park", Expertise: "Careers",
			Keywords: mentor.KeywordProfile{High: []string{"career", "job"}}},
		{ID: "finance", Name: "Mr. Okafor", Expertise: "Finance",
			Keywords: mentor.KeywordProfile{High: []string{"money", "budget"}}},
	}
}

func testStudent() profile.StudentProfile {
	return profile.StudentProfile{ID: "s1", Name: "Jordan", Age: 16, GradeLevel: "10th"}
}

func newTestController(t *testing.T, gen Generator, cfg Config, opts ControllerOptions) *Controller {
	t.Helper()
	c, err := NewController(gen, testPanel(), cfg, opts)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	return c
}

func TestControllerRequiresStart(t *testing.T) {
	c := newTestController(t, &fakeGenerator{}, Config{}, ControllerOptions{})
	if _, err := c.Advance(context.Background()); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("advance before start = %v, want ErrNotRunning", err)
	}
	if _, err := c.Say("hello there"); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("say before start = %v, want ErrNotRunning", err)
	}
}

func TestControllerAdvanceCommitsBalancedTurns(t *testing.T) {
	gen := &fakeGenerator{}
	c := newTestController(t, gen, Config{}, ControllerOptions{})
	c.Start(testStudent())

	seen := make(map[string]int)
	for i := 0; i < 3; i++ {
		u, err := c.Advance(context.Background())
		if err != nil {
			t.Fatalf("advance %d: %v", i+1, err)
		}
		if u.Type != TurnTypeMentor {
			t.Fatalf("turn type = %s, want mentor", u.Type)
		}
		if u.Index != i+1 {
			t.Fatalf("index = %d, want %d", u.Index, i+1)
		}
		if u.Phase != PhaseOpening {
			t.Fatalf("phase = %s, want opening for the first three turns", u.Phase)
		}
		seen[u.SpeakerID]++
	}

	// Balance plus the exclusion window means every mentor spoke exactly once.
	for _, m := range testPanel() {
		if seen[m.ID] != 1 {
			t.Fatalf("participation = %v, want each mentor once", seen)
		}
	}

	snap := c.Snapshot()
	if snap.Usage.TotalTokens != 45 {
		t.Fatalf("usage total = %d, want 45", snap.Usage.TotalTokens)
	}
	if len(snap.Utterances) != 3 {
		t.Fatalf("snapshot has %d utterances, want 3", len(snap.Utterances))
	}
}

func TestControllerConsecutiveCapHaltsUntilHumanSpeaks(t *testing.T) {
	gen := &fakeGenerator{}
	c := newTestController(t, gen, Config{MaxConsecutiveTurns: 2}, ControllerOptions{})
	c.Start(testStudent())

	for i := 0; i < 2; i++ {
		if _, err := c.Advance(context.Background()); err != nil {
			t.Fatalf("advance %d: %v", i+1, err)
		}
	}

	// The turn that reaches the cap flips the state; no extra Advance needed.
	if got := c.State(); got != StateHaltedAtCap {
		t.Fatalf("state after capping turn = %s, want halted_at_cap", got)
	}
	if _, err := c.Advance(context.Background()); !errors.Is(err, ErrTurnCapReached) {
		t.Fatalf("advance while halted = %v, want ErrTurnCapReached", err)
	}
	if _, err := c.Advance(context.Background()); !errors.Is(err, ErrTurnCapReached) {
		t.Fatalf("repeated advance while halted = %v, want ErrTurnCapReached", err)
	}

	if _, err := c.Say("thanks everyone, what about internships?"); err != nil {
		t.Fatalf("say while halted: %v", err)
	}
	if got := c.State(); got != StateRunning {
		t.Fatalf("state after human turn = %s, want running", got)
	}
	if _, err := c.Advance(context.Background()); err != nil {
		t.Fatalf("advance after human turn: %v", err)
	}
}

func TestControllerResumeClearsCap(t *testing.T) {
	gen := &fakeGenerator{}
	c := newTestController(t, gen, Config{MaxConsecutiveTurns: 1}, ControllerOptions{})
	c.Start(testStudent())

	if _, err := c.Advance(context.Background()); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if _, err := c.Advance(context.Background()); !errors.Is(err, ErrTurnCapReached) {
		t.Fatalf("advance = %v, want cap error", err)
	}
	if err := c.Resume(); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if _, err := c.Advance(context.Background()); err != nil {
		t.Fatalf("advance after resume: %v", err)
	}
}

func TestControllerPauseBlocksAdvance(t *testing.T) {
	c := newTestController(t, &fakeGenerator{}, Config{}, ControllerOptions{})
	c.Start(testStudent())

	if err := c.Pause(); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if _, err := c.Advance(context.Background()); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("advance while paused = %v, want ErrNotRunning", err)
	}
	if err := c.Resume(); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if _, err := c.Advance(context.Background()); err != nil {
		t.Fatalf("advance after resume: %v", err)
	}
}

func TestControllerSayWhilePausedResumes(t *testing.T) {
	c := newTestController(t, &fakeGenerator{}, Config{}, ControllerOptions{})
	c.Start(testStudent())

	if err := c.Pause(); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if _, err := c.Say("still here, one more question"); err != nil {
		t.Fatalf("say while paused: %v", err)
	}
	if got := c.State(); got != StateRunning {
		t.Fatalf("state after human turn = %s, want running", got)
	}
	if _, err := c.Advance(context.Background()); err != nil {
		t.Fatalf("advance after human turn: %v", err)
	}
}

func TestControllerGenerationFailureCommitsPlaceholder(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("upstream down")}
	c := newTestController(t, gen, Config{}, ControllerOptions{})
	c.Start(testStudent())

	u, err := c.Advance(context.Background())
	if err != nil {
		t.Fatalf("advance with failing generator: %v", err)
	}
	if !u.Fallback {
		t.Fatal("utterance not marked as fallback")
	}
	if u.Text == "" {
		t.Fatal("placeholder text is empty")
	}

	h := c.HealthSnapshot()
	if h.PlaceholderTurns != 1 {
		t.Fatalf("placeholder turns = %d, want 1", h.PlaceholderTurns)
	}
	// The conversation keeps moving after a failed turn.
	if _, err := c.Advance(context.Background()); err != nil {
		t.Fatalf("advance after placeholder: %v", err)
	}
}

func TestControllerRetriesRejectedCandidates(t *testing.T) {
	gen := &fakeGenerator{texts: []string{
		"short", // below the minimum length
		"This second attempt is a perfectly fine piece of mentoring advice.",
	}}
	c := newTestController(t, gen, Config{}, ControllerOptions{})
	c.Start(testStudent())

	u, err := c.Advance(context.Background())
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if gen.calls != 2 {
		t.Fatalf("generator calls = %d, want 2", gen.calls)
	}
	if u.Fallback {
		t.Fatal("retried turn marked as fallback")
	}
	if u.Text != gen.texts[1] {
		t.Fatalf("committed text = %q, want the second candidate", u.Text)
	}

	h := c.HealthSnapshot()
	if h.RejectionsBySpeaker[u.SpeakerID] != 1 {
		t.Fatalf("rejections = %v, want one for %s", h.RejectionsBySpeaker, u.SpeakerID)
	}
}

func TestControllerAcceptsLastCandidateOnExhaustion(t *testing.T) {
	// Every candidate trips the generic-phrase check, so the gate never
	// passes and the last candidate goes through as a degraded accept.
	gen := &fakeGenerator{texts: []string{
		"I understand, and as always you should simply keep trying your best.",
	}}
	c := newTestController(t, gen, Config{MaxGenerationAttempts: 3}, ControllerOptions{})
	c.Start(testStudent())

	u, err := c.Advance(context.Background())
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if gen.calls != 3 {
		t.Fatalf("generator calls = %d, want the full attempt budget", gen.calls)
	}
	if u.Text != gen.texts[0] {
		t.Fatalf("committed text = %q, want the last candidate", u.Text)
	}
	if got := c.HealthSnapshot().DegradedAccepts; got != 1 {
		t.Fatalf("degraded accepts = %d, want 1", got)
	}
}

func TestControllerHumanMessageSteersSelection(t *testing.T) {
	gen := &fakeGenerator{}
	c := newTestController(t, gen, Config{}, ControllerOptions{})
	c.Start(testStudent())

	if _, err := c.Say("how should I budget my money this semester?"); err != nil {
		t.Fatalf("say: %v", err)
	}
	u, err := c.Advance(context.Background())
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if u.SpeakerID != "finance" {
		t.Fatalf("speaker = %s, want finance for a budgeting question", u.SpeakerID)
	}
	if got := gen.inputs[0].HumanMessage; got == "" {
		t.Fatal("generator input missing the pending human message")
	}

	// The pending message is consumed by the turn that answers it.
	if _, err := c.Advance(context.Background()); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if got := gen.inputs[len(gen.inputs)-1].HumanMessage; got != "" {
		t.Fatalf("stale human message %q passed to a later turn", got)
	}
}

func TestControllerQueriesContextStore(t *testing.T) {
	store := &fakeStore{payload: "relevant background"}
	gen := &fakeGenerator{}
	c := newTestController(t, gen, Config{ContextChunks: 2}, ControllerOptions{Store: store})
	c.Start(testStudent())

	if _, err := c.Say("tell me about exam preparation"); err != nil {
		t.Fatalf("say: %v", err)
	}
	if _, err := c.Advance(context.Background()); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if store.calls != 1 || store.lastK != 2 {
		t.Fatalf("store queried %d times with k=%d, want once with k=2", store.calls, store.lastK)
	}
	if gen.inputs[0].Context != "relevant background" {
		t.Fatalf("generator context = %q, want the store payload", gen.inputs[0].Context)
	}
}

func TestControllerSnapshotTracksPhaseAndTopics(t *testing.T) {
	gen := &fakeGenerator{texts: []string{
		"Let us start with your study habits and exam preparation routine first.",
		"Thinking about your future career and internship options matters too.",
		"A simple budget keeps your money working toward those goals as well.",
		"Balancing your health with all this planning keeps the stress down.",
	}}
	c := newTestController(t, gen, Config{}, ControllerOptions{})
	c.Start(testStudent())

	for i := 0; i < 4; i++ {
		if _, err := c.Advance(context.Background()); err != nil {
			t.Fatalf("advance %d: %v", i+1, err)
		}
	}

	snap := c.Snapshot()
	if snap.Phase != PhaseDevelopment {
		t.Fatalf("phase after four turns = %s, want development", snap.Phase)
	}
	if len(snap.TopicsCovered) < 3 {
		t.Fatalf("topics covered = %v, want several", snap.TopicsCovered)
	}
	if snap.ID == "" {
		t.Fatal("snapshot missing session id")
	}
	total := 0
	for _, n := range snap.Participation {
		total += n
	}
	if total != 4 {
		t.Fatalf("participation total = %d, want 4", total)
	}
}

func TestControllerResetReturnsToIdle(t *testing.T) {
	c := newTestController(t, &fakeGenerator{}, Config{}, ControllerOptions{})
	c.Start(testStudent())
	if _, err := c.Advance(context.Background()); err != nil {
		t.Fatalf("advance: %v", err)
	}

	c.Reset()
	if got := c.State(); got != StateIdle {
		t.Fatalf("state after reset = %s, want idle", got)
	}
	if got := len(c.History()); got != 0 {
		t.Fatalf("history after reset has %d entries, want 0", got)
	}

	// A fresh Start works after Reset.
	c.Start(testStudent())
	if _, err := c.Advance(context.Background()); err != nil {
		t.Fatalf("advance after restart: %v", err)
	}
}
