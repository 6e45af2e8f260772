// Package match holds the passive data record and state machine for a
// single tap-race match (spec.md §3, §4.2). It exposes no operations that
// mutate shared matchmaker state of their own accord — every transition is
// driven by the matchmaker, which is the sole serialization point (§5).
package match

// Status is one of the four states a Match can be in, in the order
// Waiting -> Starting -> Active -> Finished. The matchmaker collapses the
// Starting -> Active step to zero delay and moves a match from Waiting
// straight to Active, so Starting is never set. A match whose last player
// disconnects moves to Finished from Waiting or Active.
type Status int

const (
	Waiting Status = iota
	Starting
	Active
	Finished
)

// String returns the protocol string for a Status.
func (s Status) String() string {
	switch s {
	case Waiting:
		return "waiting"
	case Starting:
		return "starting"
	case Active:
		return "active"
	case Finished:
		return "finished"
	default:
		return "unknown"
	}
}

// Player is the per-match state for one participant (spec.md §3).
type Player struct {
	ID          string
	ConnID      string
	DisplayName string
	Send        chan []byte

	// ValidatedTaps is monotonically non-decreasing: only the tap validator
	// (via the matchmaker) increments it.
	ValidatedTaps int

	// LastTapAt is the server wall-clock ms of the last *accepted* tap; 0
	// before the first.
	LastTapAt int64

	// Ready is used only while Status == Waiting.
	Ready bool
}

// Match is the state of one instance of the game (spec.md §3).
type Match struct {
	ID string

	// Players maps player id to Player. Entries are removed on disconnect,
	// so its cardinality can drop below the original roster size.
	Players map[string]*Player

	// Roster preserves the Queue insertion order of the original pairing,
	// used for tie-break and for results ordering even after a player
	// disconnects and is removed from Players.
	Roster []string

	Status Status

	// StartAt/EndAt are server wall-clock ms; 0 means not yet set.
	StartAt int64
	EndAt   int64

	DurationMS int

	// WinnerID is nil until Finished; remains nil if no tap was accepted
	// and no tie-break could apply (i.e. every player's taps are 0).
	WinnerID *string
}

// New creates a Match in the Waiting state from a roster of players, in the
// order they should be paired (Queue insertion order).
func New(id string, durationMS int, players []*Player) *Match {
	roster := make([]string, len(players))
	byID := make(map[string]*Player, len(players))
	for i, p := range players {
		roster[i] = p.ID
		byID[p.ID] = p
	}
	return &Match{
		ID:         id,
		Players:    byID,
		Roster:     roster,
		Status:     Waiting,
		DurationMS: durationMS,
	}
}

// AllReady reports whether every player currently still in the match has
// marked themselves ready. A match with no remaining players is not ready.
func (m *Match) AllReady() bool {
	if len(m.Players) == 0 {
		return false
	}
	for _, p := range m.Players {
		if !p.Ready {
			return false
		}
	}
	return true
}

// Result is one row of the end-of-match standings (spec.md §6).
type Result struct {
	PlayerID    string
	DisplayName string
	Taps        int
	IsWinner    bool
}

// ComputeResults builds the results array ordered by descending
// ValidatedTaps, ties broken by Roster (Queue insertion) order, and
// determines the winner. WinnerID is nil if every player has zero taps;
// otherwise it is the first player in Roster order among those tied for
// the highest tap count (spec.md §4.1 "End (endMatch)").
func (m *Match) ComputeResults() ([]Result, *string) {
	results := make([]Result, 0, len(m.Roster))
	bestTaps := -1
	bestPlayerID := ""
	for _, id := range m.Roster {
		p, ok := m.Players[id]
		if !ok {
			continue
		}
		results = append(results, Result{PlayerID: p.ID, DisplayName: p.DisplayName, Taps: p.ValidatedTaps})
		if p.ValidatedTaps > bestTaps {
			bestTaps = p.ValidatedTaps
			bestPlayerID = p.ID
		}
	}

	// Stable sort by descending taps; Roster order (already the append
	// order above) breaks ties, so a stable sort preserves it.
	stableSortDescending(results)

	var winnerID *string
	if bestTaps > 0 {
		id := bestPlayerID
		winnerID = &id
	}
	for i := range results {
		if winnerID != nil && results[i].PlayerID == *winnerID {
			results[i].IsWinner = true
		}
	}
	return results, winnerID
}

func stableSortDescending(results []Result) {
	// Simple stable insertion sort: the roster is never larger than a
	// handful of players, and stability is the property that matters here.
	for i := 1; i < len(results); i++ {
		j := i
		for j > 0 && results[j-1].Taps < results[j].Taps {
			results[j-1], results[j] = results[j], results[j-1]
			j--
		}
	}
}
