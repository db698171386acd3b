package roundtable

import (
	"context"
	"errors"
	"strings"

	"roundtable/internal/mentor"
)

// ErrNoCandidates is returned when selection cannot produce a speaker. The
// controller recovers with the round-robin fallback.
var ErrNoCandidates = errors.New("no selectable speakers")

// Selector picks the next mentor to speak. Two forces apply: balance, which
// prefers the least-heard mentors, and freshness, which excludes whoever just
// spoke. A pending human message goes to the optional oracle first; otherwise
// the remaining candidates are ranked by relevance to the recent turns.
type Selector struct {
	panel           []mentor.Mentor
	exclusionWindow int
	oracle          TieBreakOracle
}

func NewSelector(panel []mentor.Mentor, exclusionWindow int, oracle TieBreakOracle) *Selector {
	if exclusionWindow <= 0 {
		exclusionWindow = defaultExclusionWindow
	}
	return &Selector{panel: panel, exclusionWindow: exclusionWindow, oracle: oracle}
}

// Selection reports who speaks next and how the choice was made.
type Selection struct {
	SpeakerID string
	// TieBroken is true when the oracle made the final call.
	TieBroken bool
}

// Next runs the selection pipeline against the ledger. humanMessage is the
// pending human turn, empty when the conversation is advancing on its own.
func (s *Selector) Next(ctx context.Context, ledger *Ledger, humanMessage string, recentContext string) (Selection, error) {
	if len(s.panel) == 0 {
		return Selection{}, ErrNoCandidates
	}

	excluded := make(map[string]struct{}, s.exclusionWindow)
	for _, id := range ledger.LastSpeakers(s.exclusionWindow) {
		excluded[id] = struct{}{}
	}

	var eligible []string
	for _, m := range s.panel {
		if _, skip := excluded[m.ID]; !skip {
			eligible = append(eligible, m.ID)
		}
	}
	// With a tiny panel everyone may be recent. Freshness yields to progress.
	if len(eligible) == 0 {
		eligible = mentor.IDs(s.panel)
	}

	underutilized := make(map[string]struct{})
	for _, id := range ledger.Underutilized() {
		underutilized[id] = struct{}{}
	}
	var preferred []string
	for _, id := range eligible {
		if _, ok := underutilized[id]; ok {
			preferred = append(preferred, id)
		}
	}
	if len(preferred) == 0 {
		preferred = eligible
	}
	if len(preferred) == 0 {
		return Selection{}, ErrNoCandidates
	}

	if len(preferred) == 1 {
		return Selection{SpeakerID: preferred[0]}, nil
	}

	// A human message delegates to the oracle over every preferred
	// candidate; the scorer is the fallback when the oracle declines.
	if humanMessage != "" && s.oracle != nil {
		if chosen, ok := s.askOracle(ctx, preferred, recentContext, humanMessage); ok {
			return Selection{SpeakerID: chosen, TieBroken: true}, nil
		}
	}

	// Argmax relevance against the recent turns, first on tie. The human
	// message stands in when no turns have been committed yet.
	scoringText := strings.TrimSpace(recentContext)
	if scoringText == "" {
		scoringText = humanMessage
	}
	if ranked, matched := RankByRelevance(s.panel, preferred, scoringText); matched {
		return Selection{SpeakerID: ranked[0]}, nil
	}
	return Selection{SpeakerID: preferred[0]}, nil
}

// askOracle consults the tie-break oracle and maps its free-text reply back
// onto a candidate by containment, either direction. Any failure or unmatched
// reply means no decision.
func (s *Selector) askOracle(ctx context.Context, candidates []string, recentContext, humanMessage string) (string, bool) {
	reply, err := s.oracle.Choose(ctx, candidates, recentContext, humanMessage)
	if err != nil {
		return "", false
	}
	reply = strings.ToLower(strings.TrimSpace(reply))
	if reply == "" {
		return "", false
	}
	for _, id := range candidates {
		lowered := strings.ToLower(id)
		if strings.Contains(reply, lowered) || strings.Contains(lowered, reply) {
			return id, true
		}
	}
	return "", false
}

// RoundRobinNext is the selection fallback: the fixed-order mentor after the
// most recent speaker, or the first mentor when nobody has spoken.
func RoundRobinNext(panel []mentor.Mentor, ledger *Ledger) (string, error) {
	if len(panel) == 0 {
		return "", ErrNoCandidates
	}
	last := ledger.LastSpeakers(1)
	if len(last) == 0 {
		return panel[0].ID, nil
	}
	idx := mentor.FindIndex(panel, last[0])
	if idx < 0 {
		return panel[0].ID, nil
	}
	return panel[(idx+1)%len(panel)].ID, nil
}
