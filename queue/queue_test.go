package queue

import "testing"

func entry(id string) *Entry {
	return &Entry{PlayerID: id, DisplayName: id, ConnID: "conn-" + id, Send: make(chan []byte, 1)}
}

func TestAddAndContains(t *testing.T) {
	q := New()
	if q.Contains("a") {
		t.Error("expected empty queue to not contain a")
	}
	if !q.Add(entry("a")) {
		t.Error("expected Add to succeed for new player")
	}
	if !q.Contains("a") {
		t.Error("expected queue to contain a after Add")
	}
}

func TestAddDuplicateFails(t *testing.T) {
	q := New()
	q.Add(entry("a"))
	if q.Add(entry("a")) {
		t.Error("expected second Add of same player id to fail")
	}
	if q.Len() != 1 {
		t.Errorf("expected len 1, got %d", q.Len())
	}
}

func TestPositionIsOneBasedInsertionOrder(t *testing.T) {
	q := New()
	q.Add(entry("a"))
	q.Add(entry("b"))
	q.Add(entry("c"))

	for i, id := range []string{"a", "b", "c"} {
		pos, ok := q.Position(id)
		if !ok || pos != i+1 {
			t.Errorf("expected position %d for %s, got %d (ok=%v)", i+1, id, pos, ok)
		}
	}
}

func TestRemoveThenReAddRoundTrips(t *testing.T) {
	// spec.md L1: joinQueue(p); leaveQueue(p) returns state equal to pre-call state.
	q := New()
	q.Add(entry("a"))
	before := q.Len()
	_, ok := q.Remove("a")
	if !ok {
		t.Fatal("expected Remove to succeed")
	}
	if q.Len() != before-1 {
		t.Errorf("expected len %d after remove, got %d", before-1, q.Len())
	}
	if q.Contains("a") {
		t.Error("expected queue to not contain a after Remove")
	}
	if !q.Add(entry("a")) {
		t.Fatal("expected re-Add after Remove to succeed")
	}
	if pos, ok := q.Position("a"); !ok || pos != 1 {
		t.Errorf("expected re-added a at position 1, got %d (ok=%v)", pos, ok)
	}
}

func TestRemoveUnknownFails(t *testing.T) {
	q := New()
	_, ok := q.Remove("ghost")
	if ok {
		t.Error("expected Remove of unknown player to fail")
	}
}

func TestPopFrontRequiresEnoughEntries(t *testing.T) {
	q := New()
	q.Add(entry("a"))
	_, ok := q.PopFront(2)
	if ok {
		t.Error("expected PopFront to fail with fewer than n entries")
	}
	if q.Len() != 1 {
		t.Errorf("expected queue untouched, got len %d", q.Len())
	}
}

func TestPopFrontFIFOOrder(t *testing.T) {
	q := New()
	q.Add(entry("a"))
	q.Add(entry("b"))
	q.Add(entry("c"))

	popped, ok := q.PopFront(2)
	if !ok {
		t.Fatal("expected PopFront to succeed")
	}
	if popped[0].PlayerID != "a" || popped[1].PlayerID != "b" {
		t.Errorf("expected FIFO order [a b], got %+v", popped)
	}
	if q.Len() != 1 || !q.Contains("c") {
		t.Errorf("expected only c remaining, got len=%d", q.Len())
	}
}
