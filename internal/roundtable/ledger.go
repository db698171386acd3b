package roundtable

import (
	"fmt"
	"sort"
)

// Ledger is the participation bookkeeping for one session: per-speaker
// counters, the recency window, topic coverage, and the derived phase. It
// holds no generation or scoring logic and is only written through the flow
// controller's commit path.
type Ledger struct {
	order           []string
	counts          map[string]int
	recentSpeakers  []string
	recentBySpeaker map[string][]string
	topics          map[string]struct{}
	mentorTurns     int
	humanTurns      int
	thresholds      [3]int
	countHuman      bool
}

func NewLedger(speakerOrder []string, thresholds [3]int, countHumanForPhase bool) *Ledger {
	counts := make(map[string]int, len(speakerOrder))
	for _, id := range speakerOrder {
		counts[id] = 0
	}
	return &Ledger{
		order:           append([]string(nil), speakerOrder...),
		counts:          counts,
		recentBySpeaker: make(map[string][]string, len(speakerOrder)),
		topics:          make(map[string]struct{}),
		thresholds:      thresholds,
		countHuman:      countHumanForPhase,
	}
}

// Record commits one mentor utterance: counter, recency queue, per-speaker
// recent texts for the quality gate, topic coverage, and the phase total.
func (l *Ledger) Record(speakerID string, text string) error {
	if _, known := l.counts[speakerID]; !known {
		return fmt.Errorf("%w: unknown speaker %q", ErrStateCorrupted, speakerID)
	}
	if l.counts[speakerID] < 0 {
		return fmt.Errorf("%w: negative count for %q", ErrStateCorrupted, speakerID)
	}

	l.counts[speakerID]++
	l.mentorTurns++

	l.recentSpeakers = append(l.recentSpeakers, speakerID)
	if len(l.recentSpeakers) > defaultRecentWindow {
		l.recentSpeakers = l.recentSpeakers[len(l.recentSpeakers)-defaultRecentWindow:]
	}

	recent := append(l.recentBySpeaker[speakerID], text)
	if len(recent) > defaultRecentWindow {
		recent = recent[len(recent)-defaultRecentWindow:]
	}
	l.recentBySpeaker[speakerID] = recent

	for _, topic := range Classify(text) {
		l.topics[topic] = struct{}{}
	}
	return nil
}

// RecordHuman commits one human utterance. Human turns never enter the
// participation counters or the recency window.
func (l *Ledger) RecordHuman(text string) {
	l.humanTurns++
	for _, topic := range Classify(text) {
		l.topics[topic] = struct{}{}
	}
}

// Phase recomputes the conversation phase from committed totals.
func (l *Ledger) Phase() Phase {
	total := l.mentorTurns
	if l.countHuman {
		total += l.humanTurns
	}
	return phaseForTotal(total, l.thresholds)
}

// MinParticipation returns the minimum turn count across all known speakers.
func (l *Ledger) MinParticipation() int {
	min := -1
	for _, id := range l.order {
		if c := l.counts[id]; min < 0 || c < min {
			min = c
		}
	}
	if min < 0 {
		return 0
	}
	return min
}

// Underutilized lists the speakers at the minimum participation count, in
// fixed speaker order.
func (l *Ledger) Underutilized() []string {
	min := l.MinParticipation()
	var out []string
	for _, id := range l.order {
		if l.counts[id] == min {
			out = append(out, id)
		}
	}
	return out
}

// LastSpeakers returns up to n most recent mentor speakers, oldest first.
func (l *Ledger) LastSpeakers(n int) []string {
	if n <= 0 || len(l.recentSpeakers) == 0 {
		return nil
	}
	if n > len(l.recentSpeakers) {
		n = len(l.recentSpeakers)
	}
	return append([]string(nil), l.recentSpeakers[len(l.recentSpeakers)-n:]...)
}

// RecentTexts returns the speaker's last accepted utterances for similarity
// checks, oldest first.
func (l *Ledger) RecentTexts(speakerID string) []string {
	return append([]string(nil), l.recentBySpeaker[speakerID]...)
}

func (l *Ledger) Count(speakerID string) int {
	return l.counts[speakerID]
}

func (l *Ledger) MentorTurns() int {
	return l.mentorTurns
}

func (l *Ledger) HumanTurns() int {
	return l.humanTurns
}

// Topics returns the covered topic tags, sorted. The set only grows within a
// session.
func (l *Ledger) Topics() []string {
	out := make([]string, 0, len(l.topics))
	for topic := range l.topics {
		out = append(out, topic)
	}
	sort.Strings(out)
	return out
}

// Participation copies the per-speaker counters.
func (l *Ledger) Participation() map[string]int {
	out := make(map[string]int, len(l.counts))
	for id, c := range l.counts {
		out[id] = c
	}
	return out
}

// Validate cross-checks the counters against the number of mentor turns the
// caller has committed. A mismatch is state corruption, not something to fix.
func (l *Ledger) Validate(committedMentorTurns int) error {
	sum := 0
	for _, id := range l.order {
		c := l.counts[id]
		if c < 0 {
			return fmt.Errorf("%w: negative count for %q", ErrStateCorrupted, id)
		}
		sum += c
	}
	if sum != committedMentorTurns || l.mentorTurns != committedMentorTurns {
		return fmt.Errorf("%w: participation sum %d does not match %d committed mentor turns",
			ErrStateCorrupted, sum, committedMentorTurns)
	}
	return nil
}
