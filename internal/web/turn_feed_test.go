package web

import (
	"context"
	"testing"
	"time"

	"roundtable/internal/roundtable"
)

func TestTurnFeedSinceAdjustsCursorAfterTrim(t *testing.T) {
	feed := newTurnFeed(2)
	feed.append(roundtable.Utterance{Index: 1})
	feed.append(roundtable.Utterance{Index: 2})
	feed.append(roundtable.Utterance{Index: 3})

	turns, next := feed.since(0)
	if len(turns) != 2 {
		t.Fatalf("expected 2 buffered turns, got %d", len(turns))
	}
	if turns[0].Index != 2 || turns[1].Index != 3 {
		t.Fatalf("unexpected buffered turn indexes: %#v", turns)
	}
	if next != 3 {
		t.Fatalf("expected next cursor 3, got %d", next)
	}

	turns, next = feed.since(2)
	if len(turns) != 1 || turns[0].Index != 3 {
		t.Fatalf("expected only the latest turn at cursor 2, got %#v", turns)
	}
	if next != 3 {
		t.Fatalf("expected next cursor 3, got %d", next)
	}

	turns, _ = feed.since(3)
	if len(turns) != 0 {
		t.Fatalf("expected no turns past the end, got %#v", turns)
	}
}

func TestTurnFeedResetClearsBuffer(t *testing.T) {
	feed := newTurnFeed(8)
	feed.append(roundtable.Utterance{Index: 1})
	feed.reset()

	turns, next := feed.since(0)
	if len(turns) != 0 || next != 0 {
		t.Fatalf("expected empty feed after reset, got turns=%#v next=%d", turns, next)
	}
}

func TestTurnFeedWaitForUpdate(t *testing.T) {
	feed := newTurnFeed(8)

	done := make(chan error, 1)
	go func() {
		done <- feed.waitForUpdate(context.Background())
	}()

	time.Sleep(10 * time.Millisecond)
	feed.append(roundtable.Utterance{Index: 1})

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected wait error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("waitForUpdate did not return after append")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := feed.waitForUpdate(ctx); err == nil {
		t.Fatal("expected context error from cancelled wait")
	}
}
