package roundtable

const (
	defaultMaxConsecutiveTurns   = 5
	defaultSimilarityThreshold   = 0.7
	defaultMaxGenerationAttempts = 3
	defaultExclusionWindow       = 2
	defaultRecentWindow          = 3
	defaultContextChunks         = 3
)

var defaultPhaseThresholds = [3]int{3, 7, 10}

// Config tunes the flow controller. The zero value is usable; New fills in
// every default so the core works out of the box.
type Config struct {
	// MaxConsecutiveTurns caps automated turns before control yields to the
	// human participant.
	MaxConsecutiveTurns int

	// SimilarityThreshold is the Jaccard score above which a candidate is
	// rejected as a repeat of the speaker's own recent output.
	SimilarityThreshold float64

	// MaxGenerationAttempts bounds the quality-gate retry loop per turn.
	MaxGenerationAttempts int

	// RecentSpeakerExclusionWindow excludes the last N automated speakers
	// from selection, degrading gracefully with few mentors.
	RecentSpeakerExclusionWindow int

	// PhaseThresholds are the inclusive turn-count upper bounds for the
	// opening, development, and synthesis phases.
	PhaseThresholds [3]int

	// CountHumanTurnsForPhase includes human utterances in the totals that
	// drive phase advancement. Participation balancing always counts only
	// mentor turns.
	CountHumanTurnsForPhase bool

	// ContextChunks is passed to the ContextStore query.
	ContextChunks int
}

func (c Config) withDefaults() Config {
	if c.MaxConsecutiveTurns <= 0 {
		c.MaxConsecutiveTurns = defaultMaxConsecutiveTurns
	}
	if c.SimilarityThreshold <= 0 || c.SimilarityThreshold > 1 {
		c.SimilarityThreshold = defaultSimilarityThreshold
	}
	if c.MaxGenerationAttempts <= 0 {
		c.MaxGenerationAttempts = defaultMaxGenerationAttempts
	}
	if c.RecentSpeakerExclusionWindow <= 0 {
		c.RecentSpeakerExclusionWindow = defaultExclusionWindow
	}
	if c.PhaseThresholds == ([3]int{}) {
		c.PhaseThresholds = defaultPhaseThresholds
	}
	if c.ContextChunks <= 0 {
		c.ContextChunks = defaultContextChunks
	}
	return c
}
