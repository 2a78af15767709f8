package lifecycle

import (
	"context"
	"errors"
	"testing"
)

func TestSlotStartCancelsPrevious(t *testing.T) {
	var slot Slot

	first := slot.Start(context.Background())
	second := slot.Start(context.Background())

	if !errors.Is(first.Context().Err(), context.Canceled) {
		t.Fatalf("expected first ticket to be cancelled, got %v", first.Context().Err())
	}
	if second.Context().Err() != nil {
		t.Fatalf("expected second ticket to be live, got %v", second.Context().Err())
	}
	if first.Current() {
		t.Fatalf("first ticket must not be current")
	}
	if !second.Current() {
		t.Fatalf("second ticket must be current")
	}
}

func TestSlotCommitDiscardsStaleResult(t *testing.T) {
	var slot Slot
	published := ""

	stale := slot.Start(context.Background())
	fresh := slot.Start(context.Background())

	if !fresh.Commit(func() { published = "fresh" }) {
		t.Fatalf("expected fresh commit to publish")
	}
	// The stale response arrives last; it must not overwrite.
	if stale.Commit(func() { published = "stale" }) {
		t.Fatalf("expected stale commit to be discarded")
	}
	if published != "fresh" {
		t.Fatalf("published = %q, want fresh", published)
	}
}

func TestSlotCancelDiscardsOutstanding(t *testing.T) {
	var slot Slot

	ticket := slot.Start(context.Background())
	slot.Cancel()

	if ticket.Commit(func() { t.Fatalf("publish must not run after cancel") }) {
		t.Fatalf("expected commit to report discard")
	}
}

func TestSlotCommitAfterParentCancelled(t *testing.T) {
	var slot Slot
	scope := NewScope(context.Background())

	ticket := slot.Start(scope.Context())
	scope.Close()

	if ticket.Commit(nil) {
		t.Fatalf("expected commit to be discarded once the owning scope closed")
	}
}

func TestTicketAbandonSkipsWhenSuperseded(t *testing.T) {
	var slot Slot
	calls := 0

	old := slot.Start(context.Background())
	current := slot.Start(context.Background())
	old.Abandon(func() { calls++ })
	if calls != 0 {
		t.Fatalf("abandon of a superseded ticket must not run the callback")
	}

	current.Abandon(func() { calls++ })
	if calls != 1 {
		t.Fatalf("abandon of the newest ticket must run the callback once, got %d", calls)
	}
}

func TestTrackerTransitions(t *testing.T) {
	var tracker Tracker
	if tracker.State() != Idle {
		t.Fatalf("initial state = %v, want idle", tracker.State())
	}

	tracker.Begin()
	if tracker.State() != Loading {
		t.Fatalf("state = %v, want loading", tracker.State())
	}
	tracker.Fail("boom")
	if tracker.State() != Failed || tracker.Message() != "boom" {
		t.Fatalf("unexpected failed tracker: %v %q", tracker.State(), tracker.Message())
	}

	tracker.Begin()
	if tracker.Message() != "" {
		t.Fatalf("expected message cleared on next action, got %q", tracker.Message())
	}
	tracker.Cancel()
	if tracker.State() != Idle {
		t.Fatalf("state after cancel = %v, want idle", tracker.State())
	}

	tracker.Succeed("done")
	tracker.Cancel()
	if tracker.State() != Success {
		t.Fatalf("cancel must not touch a finished tracker, got %v", tracker.State())
	}

	tracker.Reject("fix input")
	if tracker.State() != Idle || tracker.Message() != "fix input" {
		t.Fatalf("unexpected rejected tracker: %v %q", tracker.State(), tracker.Message())
	}
}
