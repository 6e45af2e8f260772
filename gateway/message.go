package gateway

import "encoding/json"

// InboundEnvelope is the generic envelope for client-to-server messages: the
// Type field routes the message, Raw holds the full payload for re-decoding
// into the concrete message type.
type InboundEnvelope struct {
	Type string          `json:"type"`
	Raw  json.RawMessage `json:"-"`
}

// UnmarshalJSON captures the raw payload alongside the routing type.
func (e *InboundEnvelope) UnmarshalJSON(data []byte) error {
	type typeOnly struct {
		Type string `json:"type"`
	}
	var t typeOnly
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	e.Type = t.Type
	e.Raw = json.RawMessage(data)
	return nil
}

// AuthMsg carries an externally-issued bearer token identifying the caller.
// Required only when the server is configured with an identity JWKS URL;
// otherwise playerId/displayName on JoinQueueMsg are used directly (local
// dev and tests).
type AuthMsg struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// JoinQueueMsg enqueues the caller. PlayerID/DisplayName are only honored
// when the connection has not already been authenticated via AuthMsg.
type JoinQueueMsg struct {
	Type        string `json:"type"`
	PlayerID    string `json:"playerId"`
	DisplayName string `json:"displayName"`
}

// LeaveQueueMsg removes the caller from the queue.
type LeaveQueueMsg struct {
	Type string `json:"type"`
}

// PlayerReadyMsg marks the caller ready within a match.
type PlayerReadyMsg struct {
	Type    string `json:"type"`
	MatchID string `json:"matchId"`
}

// TapMsg submits one tap within a match, timestamped by the client's clock.
type TapMsg struct {
	Type              string `json:"type"`
	MatchID           string `json:"matchId"`
	ClientTimestampMs int64  `json:"clientTimestampMs"`
}

// ErrorMsg reports a gateway-level failure (e.g. malformed payload) that
// never reached the matchmaker.
type ErrorMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
