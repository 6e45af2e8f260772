package match

import "testing"

func mkPlayers(ids ...string) []*Player {
	ps := make([]*Player, len(ids))
	for i, id := range ids {
		ps[i] = &Player{ID: id, DisplayName: id, Send: make(chan []byte, 4)}
	}
	return ps
}

func TestNewMatchIsWaiting(t *testing.T) {
	m := New("m1", 30000, mkPlayers("a", "b"))
	if m.Status != Waiting {
		t.Errorf("expected Waiting, got %v", m.Status)
	}
	if len(m.Players) != 2 {
		t.Errorf("expected 2 players, got %d", len(m.Players))
	}
	if m.Roster[0] != "a" || m.Roster[1] != "b" {
		t.Errorf("expected roster order [a b], got %v", m.Roster)
	}
}

func TestAllReady(t *testing.T) {
	m := New("m1", 30000, mkPlayers("a", "b"))
	if m.AllReady() {
		t.Error("expected not all ready initially")
	}
	m.Players["a"].Ready = true
	if m.AllReady() {
		t.Error("expected not all ready with only one player ready")
	}
	m.Players["b"].Ready = true
	if !m.AllReady() {
		t.Error("expected all ready once both players ready")
	}
}

func TestAllReadyEmptyRosterIsFalse(t *testing.T) {
	m := New("m1", 30000, mkPlayers("a", "b"))
	delete(m.Players, "a")
	delete(m.Players, "b")
	if m.AllReady() {
		t.Error("expected AllReady to be false with no players left")
	}
}

func TestComputeResultsWinnerByStrictlyGreaterTaps(t *testing.T) {
	m := New("m1", 30000, mkPlayers("a", "b"))
	m.Players["a"].ValidatedTaps = 3
	m.Players["b"].ValidatedTaps = 2

	results, winnerID := m.ComputeResults()
	if winnerID == nil || *winnerID != "a" {
		t.Fatalf("expected winner a, got %v", winnerID)
	}
	if results[0].PlayerID != "a" || !results[0].IsWinner {
		t.Errorf("expected a first and marked winner, got %+v", results[0])
	}
	if results[1].PlayerID != "b" || results[1].IsWinner {
		t.Errorf("expected b second and not winner, got %+v", results[1])
	}
}

func TestComputeResultsTieBreakByRosterOrder(t *testing.T) {
	// spec.md S6: A and B tied at 7; A joined the queue first.
	m := New("m1", 30000, mkPlayers("a", "b"))
	m.Players["a"].ValidatedTaps = 7
	m.Players["b"].ValidatedTaps = 7

	results, winnerID := m.ComputeResults()
	if winnerID == nil || *winnerID != "a" {
		t.Fatalf("expected tie-break winner a (earlier join), got %v", winnerID)
	}
	if results[0].PlayerID != "a" {
		t.Errorf("expected a listed before b on tie, got %+v", results)
	}
}

func TestComputeResultsNoWinnerWhenNoTaps(t *testing.T) {
	m := New("m1", 30000, mkPlayers("a", "b"))
	results, winnerID := m.ComputeResults()
	if winnerID != nil {
		t.Errorf("expected no winner with zero taps, got %v", *winnerID)
	}
	for _, r := range results {
		if r.IsWinner {
			t.Errorf("expected no result marked winner, got %+v", r)
		}
	}
}

func TestComputeResultsSkipsDisconnectedPlayers(t *testing.T) {
	m := New("m1", 30000, mkPlayers("a", "b", "c"))
	m.Players["a"].ValidatedTaps = 1
	m.Players["c"].ValidatedTaps = 5
	delete(m.Players, "b")

	results, winnerID := m.ComputeResults()
	if len(results) != 2 {
		t.Fatalf("expected 2 results (b removed), got %d", len(results))
	}
	if winnerID == nil || *winnerID != "c" {
		t.Fatalf("expected winner c, got %v", winnerID)
	}
}
