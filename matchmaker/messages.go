package matchmaker

// Outbound message payloads (spec.md §6). The matchmaker is the sole
// producer of these — it owns every state transition that causes an
// outbound event and marshals/sends them directly to the player Send
// channels it already holds, the same way the teacher's game package
// builds and pushes its own state messages without routing through the
// transport hub.

// PlayerInfo is the {id, username} shape used in match_found's roster.
type PlayerInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// QueueJoinedMsg confirms the caller's position in the queue.
type QueueJoinedMsg struct {
	Type     string `json:"type"`
	Position int    `json:"position"`
}

// QueueLeftMsg confirms the caller left the queue.
type QueueLeftMsg struct {
	Type string `json:"type"`
}

// MatchFoundMsg is unicast to each participant once a match is paired.
type MatchFoundMsg struct {
	Type    string       `json:"type"`
	MatchID string       `json:"matchId"`
	Players []PlayerInfo `json:"players"`
}

// MatchStartedMsg is broadcast to the match roster when status becomes active.
type MatchStartedMsg struct {
	Type      string `json:"type"`
	MatchID   string `json:"matchId"`
	Duration  int    `json:"duration"`
	StartTime int64  `json:"startTime"`
}

// PlayerTappedMsg is broadcast to the match roster on every accepted tap.
type PlayerTappedMsg struct {
	Type     string `json:"type"`
	PlayerID string `json:"playerId"`
	Username string `json:"username"`
	TapCount int    `json:"tapCount"`
}

// TapConfirmedMsg is unicast to the tap submitter on acceptance.
type TapConfirmedMsg struct {
	Type     string `json:"type"`
	TapCount int    `json:"tapCount"`
}

// PlayerDisconnectedMsg is broadcast to the remaining roster.
type PlayerDisconnectedMsg struct {
	Type     string `json:"type"`
	PlayerID string `json:"playerId"`
}

// ResultView is one row of MatchEndedMsg's results array.
type ResultView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Taps     int    `json:"taps"`
	IsWinner bool   `json:"isWinner"`
}

// MatchEndedMsg is broadcast to the match roster once, at end-of-match.
type MatchEndedMsg struct {
	Type     string       `json:"type"`
	MatchID  string       `json:"matchId"`
	Results  []ResultView `json:"results"`
	WinnerID *string      `json:"winnerId"`
}

// ErrorMsg reports a failed operation to the offending connection only.
type ErrorMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
