package roundtable

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"roundtable/internal/mentor"
	"roundtable/internal/profile"
)

// Controller drives one roundtable conversation: it owns the transcript, the
// participation ledger, and the lifecycle state, and produces exactly one
// committed utterance per Advance call. All methods are safe for concurrent
// use; Advance holds the controller lock across the generation call, so at
// most one turn is in flight at a time.
type Controller struct {
	cfg      Config
	gen      Generator
	store    ContextStore
	gate     *QualityGate
	selector *Selector
	logger   *zap.Logger
	panel    []mentor.Mentor

	// Guarded state below. The zero session is idle until Start.
	mu           sync.Mutex
	sessionID    string
	student      profile.StudentProfile
	state        State
	ledger       *Ledger
	history      []Utterance
	usage        Usage
	health       Health
	consecutive  int
	pendingHuman string
	startedAt    time.Time
	endedAt      time.Time
	corruption   error
}

// ControllerOptions carries the optional collaborators. Zero values are fine:
// no store means no background context, no logger means silent operation.
type ControllerOptions struct {
	Store  ContextStore
	Logger *zap.Logger
}

func NewController(gen Generator, panel []mentor.Mentor, cfg Config, opts ControllerOptions) (*Controller, error) {
	if gen == nil {
		return nil, errors.New("generator is required")
	}
	normalized, err := mentor.NormalizeAndValidate(panel)
	if err != nil {
		return nil, fmt.Errorf("invalid mentor panel: %w", err)
	}
	cfg = cfg.withDefaults()

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	oracle, _ := gen.(TieBreakOracle)
	return &Controller{
		cfg:      cfg,
		gen:      gen,
		store:    opts.Store,
		gate:     NewQualityGate(cfg.SimilarityThreshold),
		selector: NewSelector(normalized, cfg.RecentSpeakerExclusionWindow, oracle),
		logger:   logger,
		panel:    normalized,
		state:    StateIdle,
	}, nil
}

// Start opens a fresh session for the given student. Starting over an active
// session resets it.
func (c *Controller) Start(student profile.StudentProfile) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sessionID = uuid.NewString()
	c.student = student
	c.state = StateRunning
	c.ledger = NewLedger(mentor.IDs(c.panel), c.cfg.PhaseThresholds, c.cfg.CountHumanTurnsForPhase)
	c.history = nil
	c.usage = Usage{}
	c.health = Health{RejectionsBySpeaker: make(map[string]int)}
	c.consecutive = 0
	c.pendingHuman = ""
	c.startedAt = time.Now().UTC()
	c.endedAt = time.Time{}
	c.corruption = nil

	c.logger.Info("session started",
		zap.String("session_id", c.sessionID),
		zap.String("student", student.Name),
		zap.Int("mentors", len(c.panel)))
	return c.sessionID
}

// Say commits a human utterance. It resets the consecutive-turn counter and,
// if the conversation was paused or halted at the cap, returns the floor to
// the mentors. The message also steers the next selection.
func (c *Controller) Say(text string) (Utterance, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Utterance{}, errors.New("message must not be empty")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateCorrupted {
		return Utterance{}, c.corruption
	}
	if c.state == StateIdle {
		return Utterance{}, ErrNotRunning
	}
	if c.state == StateHaltedAtCap || c.state == StatePaused {
		c.state = StateRunning
	}

	c.ledger.RecordHuman(trimmed)
	u := Utterance{
		Index:       len(c.history) + 1,
		SpeakerID:   HumanSpeakerID,
		SpeakerName: HumanSpeakerName,
		Type:        TurnTypeHuman,
		Text:        trimmed,
		Phase:       c.ledger.Phase(),
		CreatedAt:   time.Now().UTC(),
	}
	c.history = append(c.history, u)
	c.consecutive = 0
	c.pendingHuman = trimmed

	c.logger.Debug("human turn committed", zap.Int("index", u.Index))
	return u, nil
}

// Advance produces and commits the next mentor utterance. It returns
// ErrTurnCapReached while the session is halted at the consecutive cap,
// ErrNotRunning when the session is idle or paused, and ErrStateCorrupted
// permanently after an invariant violation.
func (c *Controller) Advance(ctx context.Context) (Utterance, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateCorrupted {
		return Utterance{}, c.corruption
	}
	if c.state == StateHaltedAtCap {
		return Utterance{}, ErrTurnCapReached
	}
	if c.state != StateRunning {
		return Utterance{}, ErrNotRunning
	}

	speakerID := c.pickSpeaker(ctx)
	idx := mentor.FindIndex(c.panel, speakerID)
	if idx < 0 {
		c.corrupt(fmt.Errorf("%w: selected unknown speaker %q", ErrStateCorrupted, speakerID))
		return Utterance{}, c.corruption
	}
	speaker := c.panel[idx]

	text, usage, fallback := c.generateWithGate(ctx, speaker)

	if err := c.ledger.Record(speaker.ID, text); err != nil {
		c.corrupt(err)
		return Utterance{}, c.corruption
	}
	if err := c.ledger.Validate(c.ledger.MentorTurns()); err != nil {
		c.corrupt(err)
		return Utterance{}, c.corruption
	}

	u := Utterance{
		Index:       len(c.history) + 1,
		SpeakerID:   speaker.ID,
		SpeakerName: speaker.Name,
		Type:        TurnTypeMentor,
		Text:        text,
		Phase:       c.ledger.Phase(),
		CreatedAt:   time.Now().UTC(),
		Fallback:    fallback,
	}
	c.history = append(c.history, u)
	c.consecutive++
	// The cap flips the state on the turn that reaches it, not on the next
	// Advance, so observers see the halt as soon as it happens.
	if c.consecutive >= c.cfg.MaxConsecutiveTurns {
		c.state = StateHaltedAtCap
		c.logger.Info("consecutive turn cap reached",
			zap.String("session_id", c.sessionID),
			zap.Int("cap", c.cfg.MaxConsecutiveTurns))
	}
	c.pendingHuman = ""
	c.usage.PromptTokens += usage.PromptTokens
	c.usage.CompletionTokens += usage.CompletionTokens
	c.usage.TotalTokens += usage.TotalTokens

	c.logger.Debug("mentor turn committed",
		zap.Int("index", u.Index),
		zap.String("speaker", u.SpeakerID),
		zap.String("phase", string(u.Phase)),
		zap.Bool("fallback", fallback))
	return u, nil
}

// pickSpeaker runs the selector and falls back to round-robin when it cannot
// decide. Selection failures never stop the conversation.
func (c *Controller) pickSpeaker(ctx context.Context) string {
	sel, err := c.selector.Next(ctx, c.ledger, c.pendingHuman, c.recentContext())
	if err == nil {
		return sel.SpeakerID
	}

	c.health.RoundRobinSelects++
	c.logger.Warn("selection failed, using round robin", zap.Error(err))
	id, rrErr := RoundRobinNext(c.panel, c.ledger)
	if rrErr != nil {
		// Panel is validated non-empty in NewController; reaching this is a bug.
		return c.panel[0].ID
	}
	return id
}

// generateWithGate runs the bounded attempt loop. It always returns a
// committable text: a gated candidate, the last candidate on exhaustion, or a
// placeholder when the generator itself fails.
func (c *Controller) generateWithGate(ctx context.Context, speaker mentor.Mentor) (string, Usage, bool) {
	phase := c.upcomingPhase()
	recent := c.ledger.RecentTexts(speaker.ID)
	avoidThemes := RecentThemes(c.history, 3)

	var avoidTexts []string
	var lastCandidate string
	var usage Usage

	for attempt := 1; attempt <= c.cfg.MaxGenerationAttempts; attempt++ {
		out, err := c.gen.Generate(ctx, GenerateInput{
			Speaker:       speaker,
			Profile:       c.student,
			History:       append([]Utterance(nil), c.history...),
			Context:       c.queryContext(),
			PhaseGuidance: PhaseGuidance(phase),
			AvoidThemes:   avoidThemes,
			AvoidTexts:    avoidTexts,
			HumanMessage:  c.pendingHuman,
			Contribution:  c.ledger.Count(speaker.ID),
		})
		usage.PromptTokens += out.Usage.PromptTokens
		usage.CompletionTokens += out.Usage.CompletionTokens
		usage.TotalTokens += out.Usage.TotalTokens
		if err != nil {
			c.health.PlaceholderTurns++
			c.logger.Warn("generation failed, committing placeholder",
				zap.String("speaker", speaker.ID),
				zap.Int("attempt", attempt),
				zap.Error(err))
			return placeholderText(speaker), usage, true
		}

		candidate := strings.TrimSpace(out.Text)
		rejection := c.gate.Check(candidate, recent)
		if rejection == nil {
			return candidate, usage, false
		}

		lastCandidate = candidate
		c.health.RejectionsBySpeaker[speaker.ID]++
		c.logger.Debug("candidate rejected",
			zap.String("speaker", speaker.ID),
			zap.Int("attempt", attempt),
			zap.String("reason", rejection.Reason))
		if rejection.OffendingText != "" {
			avoidTexts = append(avoidTexts, rejection.OffendingText)
		} else {
			avoidTexts = append(avoidTexts, candidate)
		}
	}

	// Availability beats polish. The last candidate goes through and the
	// degradation is visible in Health.
	c.health.DegradedAccepts++
	c.logger.Warn("quality attempts exhausted, accepting last candidate",
		zap.String("speaker", speaker.ID))
	if strings.TrimSpace(lastCandidate) == "" {
		c.health.PlaceholderTurns++
		return placeholderText(speaker), usage, true
	}
	return lastCandidate, usage, false
}

// upcomingPhase is the phase the next mentor turn will land in.
func (c *Controller) upcomingPhase() Phase {
	total := c.ledger.MentorTurns() + 1
	if c.cfg.CountHumanTurnsForPhase {
		total += c.ledger.HumanTurns()
	}
	return phaseForTotal(total, c.cfg.PhaseThresholds)
}

func (c *Controller) queryContext() string {
	if c.store == nil {
		return ""
	}
	query := c.pendingHuman
	if query == "" && len(c.history) > 0 {
		query = c.history[len(c.history)-1].Text
	}
	if query == "" {
		query = c.student.Summary()
	}
	return c.store.Query(query, c.cfg.ContextChunks)
}

func (c *Controller) recentContext() string {
	tail := c.history
	if len(tail) > 3 {
		tail = tail[len(tail)-3:]
	}
	var b strings.Builder
	for _, u := range tail {
		b.WriteString(u.SpeakerName)
		b.WriteString(": ")
		b.WriteString(u.Text)
		b.WriteByte('\n')
	}
	return b.String()
}

func (c *Controller) corrupt(err error) {
	c.state = StateCorrupted
	c.corruption = err
	c.logger.Error("session corrupted", zap.String("session_id", c.sessionID), zap.Error(err))
}

// Pause stops automated advancement without losing state.
func (c *Controller) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateRunning && c.state != StateHaltedAtCap {
		return ErrNotRunning
	}
	c.state = StatePaused
	return nil
}

// Resume continues a paused or cap-halted session and clears the consecutive
// counter so mentors get a fresh allowance.
func (c *Controller) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateCorrupted {
		return c.corruption
	}
	if c.state != StatePaused && c.state != StateHaltedAtCap {
		return ErrNotRunning
	}
	c.state = StateRunning
	c.consecutive = 0
	return nil
}

// Reset abandons the session entirely. It is the only way out of the
// corrupted state.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateIdle
	c.sessionID = ""
	c.ledger = nil
	c.history = nil
	c.usage = Usage{}
	c.health = Health{}
	c.consecutive = 0
	c.pendingHuman = ""
	c.corruption = nil
	c.endedAt = time.Now().UTC()
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// History copies the committed transcript.
func (c *Controller) History() []Utterance {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Utterance(nil), c.history...)
}

// Mentors returns the normalized panel in fixed order.
func (c *Controller) Mentors() []mentor.Mentor {
	return append([]mentor.Mentor(nil), c.panel...)
}

// Snapshot exports the current session for transcript output and APIs.
func (c *Controller) Snapshot() Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Session{
		ID:        c.sessionID,
		Student:   c.student,
		Mentors:   append([]mentor.Mentor(nil), c.panel...),
		Usage:     c.usage,
		Health:    c.healthCopyLocked(),
		StartedAt: c.startedAt,
		EndedAt:   c.endedAt,
	}
	s.Utterances = append([]Utterance(nil), c.history...)
	if c.ledger != nil {
		s.Phase = c.ledger.Phase()
		s.TopicsCovered = c.ledger.Topics()
		s.Participation = c.ledger.Participation()
	}
	return s
}

// HealthSnapshot copies the degradation counters.
func (c *Controller) HealthSnapshot() Health {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.healthCopyLocked()
}

func (c *Controller) healthCopyLocked() Health {
	h := c.health
	if c.health.RejectionsBySpeaker != nil {
		h.RejectionsBySpeaker = make(map[string]int, len(c.health.RejectionsBySpeaker))
		for id, n := range c.health.RejectionsBySpeaker {
			h.RejectionsBySpeaker[id] = n
		}
	}
	return h
}

func placeholderText(speaker mentor.Mentor) string {
	return fmt.Sprintf("I'd like to take a moment to reflect on this from a %s perspective before adding more. Please continue, and I'll build on the discussion shortly.", strings.ToLower(speaker.Expertise))
}
