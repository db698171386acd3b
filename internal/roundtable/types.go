package roundtable

import (
	"context"
	"errors"
	"time"

	"roundtable/internal/mentor"
	"roundtable/internal/profile"
)

const (
	HumanSpeakerID   = "Human"
	HumanSpeakerName = "You"

	TurnTypeMentor = "mentor"
	TurnTypeHuman  = "human"
)

// Phase is the coarse stage of a conversation, derived from committed turn
// counts and never stored as independently advanced state.
type Phase string

const (
	PhaseOpening     Phase = "opening"
	PhaseDevelopment Phase = "development"
	PhaseSynthesis   Phase = "synthesis"
	PhaseConclusion  Phase = "conclusion"
)

// State names the flow controller's lifecycle position.
type State string

const (
	StateIdle        State = "idle"
	StateRunning     State = "running"
	StatePaused      State = "paused"
	StateHaltedAtCap State = "halted_at_cap"
	StateCorrupted   State = "corrupted"
)

var (
	// ErrNotRunning is returned by Advance when the controller is idle,
	// paused, or halted at the consecutive-turn cap.
	ErrNotRunning = errors.New("conversation is not running")

	// ErrStateCorrupted marks an invariant violation. The controller refuses
	// further turns until Reset; counters are never silently repaired.
	ErrStateCorrupted = errors.New("conversation state corrupted")

	// ErrTurnCapReached signals that the consecutive automated-turn cap was
	// hit and the floor belongs to the human until they speak or Resume.
	ErrTurnCapReached = errors.New("consecutive turn cap reached")
)

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Utterance is one committed turn, human or mentor. Immutable once appended.
type Utterance struct {
	Index       int       `json:"index"`
	SpeakerID   string    `json:"speaker_id"`
	SpeakerName string    `json:"speaker_name"`
	Type        string    `json:"type"`
	Text        string    `json:"text"`
	Phase       Phase     `json:"phase"`
	CreatedAt   time.Time `json:"created_at"`
	Fallback    bool      `json:"fallback,omitempty"`
}

type GenerateInput struct {
	Speaker       mentor.Mentor
	Profile       profile.StudentProfile
	History       []Utterance
	Context       string
	PhaseGuidance string
	AvoidThemes   []string
	AvoidTexts    []string
	HumanMessage  string
	Contribution  int
}

type GenerateOutput struct {
	Text  string
	Usage Usage
}

// Generator produces one mentor utterance. Implementations may be slow and
// must honor ctx cancellation; errors are recovered by the controller with a
// placeholder utterance.
type Generator interface {
	Generate(ctx context.Context, input GenerateInput) (GenerateOutput, error)
}

// TieBreakOracle breaks ties among equally preferred speakers. It is an
// optional capability detected on the Generator by type assertion; an error
// or empty reply means "no decision" and is never fatal.
type TieBreakOracle interface {
	Choose(ctx context.Context, candidates []string, recentContext string, humanMessage string) (string, error)
}

// ContextStore retrieves best-effort background context for a query. A nil
// store and an empty result are both valid; Query must not fail.
type ContextStore interface {
	Query(text string, k int) string
}

// Health exposes degradation counters so hosts can notice a systematically
// misbehaving mentor without changing the availability-first acceptance.
type Health struct {
	RejectionsBySpeaker map[string]int `json:"rejections_by_speaker,omitempty"`
	DegradedAccepts     int            `json:"degraded_accepts"`
	PlaceholderTurns    int            `json:"placeholder_turns"`
	RoundRobinSelects   int            `json:"round_robin_selects"`
}

// Session is the exportable snapshot of one conversation.
type Session struct {
	ID            string                 `json:"id"`
	Student       profile.StudentProfile `json:"student"`
	Mentors       []mentor.Mentor        `json:"mentors"`
	Utterances    []Utterance            `json:"utterances"`
	Phase         Phase                  `json:"phase"`
	TopicsCovered []string               `json:"topics_covered"`
	Participation map[string]int         `json:"participation"`
	Usage         Usage                  `json:"usage"`
	Health        Health                 `json:"health"`
	StartedAt     time.Time              `json:"started_at"`
	EndedAt       time.Time              `json:"ended_at,omitempty"`
}
