package web

import (
	"context"
	"sync"

	"roundtable/internal/roundtable"
)

const defaultFeedCapacity = 512

// turnFeed buffers committed turns for cursor-based polling. Cursors are
// absolute turn positions; when the buffer trims old turns a stale
// cursor snaps forward to the oldest retained turn.
type turnFeed struct {
	mu         sync.RWMutex
	turns      []roundtable.Utterance
	baseCursor int
	capacity   int

	updates chan struct{}
}

func newTurnFeed(capacity int) *turnFeed {
	if capacity <= 0 {
		capacity = defaultFeedCapacity
	}
	return &turnFeed{
		capacity: capacity,
		updates:  make(chan struct{}, 1),
	}
}

func (f *turnFeed) append(turn roundtable.Utterance) {
	f.mu.Lock()
	f.turns = append(f.turns, turn)
	if len(f.turns) > f.capacity {
		drop := len(f.turns) - f.capacity
		f.turns = append([]roundtable.Utterance(nil), f.turns[drop:]...)
		f.baseCursor += drop
	}
	f.mu.Unlock()
	f.notify()
}

// since returns the turns at or after cursor and the next cursor value.
func (f *turnFeed) since(cursor int) ([]roundtable.Utterance, int) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if cursor < f.baseCursor {
		cursor = f.baseCursor
	}
	if cursor < 0 {
		cursor = 0
	}
	local := cursor - f.baseCursor
	if local < 0 {
		local = 0
	}
	if local > len(f.turns) {
		local = len(f.turns)
	}

	turns := append([]roundtable.Utterance(nil), f.turns[local:]...)
	return turns, f.baseCursor + len(f.turns)
}

func (f *turnFeed) reset() {
	f.mu.Lock()
	f.turns = nil
	f.baseCursor = 0
	f.mu.Unlock()
	f.notify()
}

func (f *turnFeed) waitForUpdate(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-f.updates:
		return nil
	}
}

func (f *turnFeed) notify() {
	select {
	case f.updates <- struct{}{}:
	default:
	}
}
