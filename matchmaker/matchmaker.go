// Package matchmaker implements the orchestrator of spec.md §4.1: it owns
// the waiting Queue and every live Match, maps each player to at most one
// of the two, schedules deferred transitions, and drives every outbound
// event.
//
// All state mutation happens on a single goroutine (Run), fed by a
// buffered actions channel — the same single-consumer-loop idiom the
// teacher uses for its per-match Actions channel, widened here to cover
// the whole matchmaker so the total order spec.md §5 requires holds
// across the Queue, every Match, and both player indices at once.
// Scheduled transitions (deferred start, match duration, cleanup) post
// back into that same channel instead of mutating state from a timer
// goroutine.
package matchmaker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"taprace-server/config"
	"taprace-server/match"
	"taprace-server/matcherrors"
	"taprace-server/queue"
	"taprace-server/tapvalidator"
	"taprace-server/wsutil"
)

type actionKind int

const (
	actJoinQueue actionKind = iota
	actLeaveQueue
	actMarkReady
	actSubmitTap
	actDisconnect
	actStartMatch
	actEndMatch
	actCleanupMatch
)

type action struct {
	kind actionKind

	playerID    string
	displayName string
	connID      string
	send        chan []byte

	matchID           string
	clientTimestampMs int64
}

// Matchmaker owns the Queue, every live Match, and the indices mapping
// players to at most one of the two (spec.md §3).
type Matchmaker struct {
	cfg *config.Config

	actions chan action

	queue         *queue.Queue
	matches       map[string]*match.Match
	playerToMatch map[string]string // playerID -> matchID
	connToPlayer  map[string]string // connID -> playerID, for onDisconnect

	// pendingStart holds the one cancellable timer per spec.md §5: the
	// deferred START_DELAY transition, cancelled on the all-ready early
	// start.
	pendingStart map[string]chan struct{}

	queueLen    int64 // atomic, mirrors queue.Len() for lock-free reads
	activeCount int64 // atomic, count of non-Finished matches

	logger *slog.Logger
}

// New creates a Matchmaker. Call Run in its own goroutine before using it.
func New(cfg *config.Config, logger *slog.Logger) *Matchmaker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Matchmaker{
		cfg:           cfg,
		actions:       make(chan action, 256),
		queue:         queue.New(),
		matches:       make(map[string]*match.Match),
		playerToMatch: make(map[string]string),
		connToPlayer:  make(map[string]string),
		pendingStart:  make(map[string]chan struct{}),
		logger:        logger.With("tag", "matchmaker"),
	}
}

// Run is the matchmaker's single-consumer loop. It must run in its own
// goroutine and returns when ctx is cancelled.
func (m *Matchmaker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case a := <-m.actions:
			m.handle(a)
		}
	}
}

// QueueLen returns the current number of waiting players. Safe to call
// concurrently with Run (spec.md §5 read-only accessor).
func (m *Matchmaker) QueueLen() int {
	return int(atomic.LoadInt64(&m.queueLen))
}

// ActiveMatchCount returns the number of matches that have not yet
// finished. Safe to call concurrently with Run.
func (m *Matchmaker) ActiveMatchCount() int {
	return int(atomic.LoadInt64(&m.activeCount))
}

// JoinQueue enqueues playerID to wait for a match (spec.md §4.1).
func (m *Matchmaker) JoinQueue(playerID, displayName, connID string, send chan []byte) {
	m.actions <- action{kind: actJoinQueue, playerID: playerID, displayName: displayName, connID: connID, send: send}
}

// LeaveQueue removes playerID from the waiting queue.
func (m *Matchmaker) LeaveQueue(playerID string, send chan []byte) {
	m.actions <- action{kind: actLeaveQueue, playerID: playerID, send: send}
}

// MarkReady marks playerID ready within matchID.
func (m *Matchmaker) MarkReady(playerID, matchID string, send chan []byte) {
	m.actions <- action{kind: actMarkReady, playerID: playerID, matchID: matchID, send: send}
}

// SubmitTap submits one tap event from playerID within matchID.
func (m *Matchmaker) SubmitTap(playerID, matchID string, clientTimestampMs int64, send chan []byte) {
	m.actions <- action{kind: actSubmitTap, playerID: playerID, matchID: matchID, clientTimestampMs: clientTimestampMs, send: send}
}

// OnDisconnect handles a transport disconnect for connID. Idempotent: a
// disconnect for an unknown connection id is a no-op (spec.md L3).
func (m *Matchmaker) OnDisconnect(connID string) {
	m.actions <- action{kind: actDisconnect, connID: connID}
}

func (m *Matchmaker) handle(a action) {
	switch a.kind {
	case actJoinQueue:
		m.handleJoinQueue(a)
	case actLeaveQueue:
		m.handleLeaveQueue(a)
	case actMarkReady:
		m.handleMarkReady(a)
	case actSubmitTap:
		m.handleSubmitTap(a)
	case actDisconnect:
		m.handleDisconnect(a)
	case actStartMatch:
		m.startMatch(a.matchID)
	case actEndMatch:
		m.endMatch(a.matchID)
	case actCleanupMatch:
		m.cleanupMatch(a.matchID)
	}
}

func (m *Matchmaker) handleJoinQueue(a action) {
	if _, ok := m.playerToMatch[a.playerID]; ok {
		m.sendError(a.send, matcherrors.ErrAlreadyInMatch)
		return
	}
	if m.queue.Contains(a.playerID) {
		m.sendError(a.send, matcherrors.ErrAlreadyQueued)
		return
	}

	m.queue.Add(&queue.Entry{PlayerID: a.playerID, DisplayName: a.displayName, ConnID: a.connID, Send: a.send})
	m.connToPlayer[a.connID] = a.playerID
	atomic.StoreInt64(&m.queueLen, int64(m.queue.Len()))

	position, _ := m.queue.Position(a.playerID)
	m.send(a.send, QueueJoinedMsg{Type: "queue_joined", Position: position})

	for m.queue.Len() >= m.cfg.MatchSize {
		m.createMatch()
	}
}

func (m *Matchmaker) handleLeaveQueue(a action) {
	entry, ok := m.queue.Remove(a.playerID)
	if !ok {
		m.sendError(a.send, matcherrors.ErrNotQueued)
		return
	}
	delete(m.connToPlayer, entry.ConnID)
	atomic.StoreInt64(&m.queueLen, int64(m.queue.Len()))
	m.send(a.send, QueueLeftMsg{Type: "queue_left"})
}

func (m *Matchmaker) handleMarkReady(a action) {
	mt, ok := m.matches[a.matchID]
	if !ok {
		m.sendError(a.send, matcherrors.ErrMatchNotFound)
		return
	}
	p, ok := mt.Players[a.playerID]
	if !ok {
		m.sendError(a.send, matcherrors.ErrNotInMatch)
		return
	}

	p.Ready = true
	if mt.Status == match.Waiting && mt.AllReady() {
		m.cancelPendingStart(mt.ID)
		m.startMatch(mt.ID)
	}
}

func (m *Matchmaker) handleSubmitTap(a action) {
	mt, ok := m.matches[a.matchID]
	if !ok {
		m.sendError(a.send, matcherrors.ErrMatchNotFound)
		return
	}
	p, ok := mt.Players[a.playerID]
	if !ok {
		m.sendError(a.send, matcherrors.ErrNotInMatch)
		return
	}
	if mt.Status != match.Active {
		m.sendError(a.send, matcherrors.ErrMatchNotActive)
		return
	}

	now := nowMs()
	if err := tapvalidator.Validate(p.LastTapAt, now, a.clientTimestampMs, m.cfg.TapClockSkewWindowMS, m.cfg.MaxTapsPerSecond); err != nil {
		m.sendError(a.send, err)
		return
	}

	p.ValidatedTaps++
	p.LastTapAt = now

	m.broadcast(mt, PlayerTappedMsg{Type: "player_tapped", PlayerID: p.ID, Username: p.DisplayName, TapCount: p.ValidatedTaps})
	m.send(a.send, TapConfirmedMsg{Type: "tap_confirmed", TapCount: p.ValidatedTaps})
}

func (m *Matchmaker) handleDisconnect(a action) {
	playerID, ok := m.connToPlayer[a.connID]
	if !ok {
		return
	}
	delete(m.connToPlayer, a.connID)

	if _, ok := m.queue.Remove(playerID); ok {
		atomic.StoreInt64(&m.queueLen, int64(m.queue.Len()))
		return
	}

	matchID, ok := m.playerToMatch[playerID]
	if !ok {
		return
	}
	mt, ok := m.matches[matchID]
	if !ok {
		delete(m.playerToMatch, playerID)
		return
	}

	delete(mt.Players, playerID)
	delete(m.playerToMatch, playerID)

	m.broadcast(mt, PlayerDisconnectedMsg{Type: "player_disconnected", PlayerID: playerID})

	if len(mt.Players) == 0 && mt.Status != match.Finished {
		m.cancelPendingStart(mt.ID)
		mt.Status = match.Finished
		mt.EndAt = nowMs()
		atomic.AddInt64(&m.activeCount, -1)
		m.scheduleCleanup(mt.ID)
	}
}

// createMatch implements the pairing policy (spec.md §4.1): FIFO off the
// front of the queue, one match per MatchSize players.
func (m *Matchmaker) createMatch() {
	entries, ok := m.queue.PopFront(m.cfg.MatchSize)
	if !ok {
		return
	}
	atomic.StoreInt64(&m.queueLen, int64(m.queue.Len()))

	players := make([]*match.Player, len(entries))
	for i, e := range entries {
		players[i] = &match.Player{ID: e.PlayerID, ConnID: e.ConnID, DisplayName: e.DisplayName, Send: e.Send}
	}

	mt := match.New(uuid.NewString(), m.cfg.MatchDurationMS, players)
	m.matches[mt.ID] = mt
	atomic.AddInt64(&m.activeCount, 1)

	roster := make([]PlayerInfo, len(players))
	for i, p := range players {
		m.playerToMatch[p.ID] = mt.ID
		roster[i] = PlayerInfo{ID: p.ID, Username: p.DisplayName}
	}
	for _, p := range players {
		m.send(p.Send, MatchFoundMsg{Type: "match_found", MatchID: mt.ID, Players: roster})
	}

	m.scheduleStart(mt.ID)
}

// scheduleStart arms the cancellable START_DELAY timer. The goroutine
// posts actStartMatch back into the matchmaker's own channel unless
// cancelPendingStart closes the cancel channel first (all-ready early
// start).
func (m *Matchmaker) scheduleStart(matchID string) {
	cancel := make(chan struct{})
	m.pendingStart[matchID] = cancel
	delay := time.Duration(m.cfg.StartDelayMS) * time.Millisecond
	go func() {
		select {
		case <-time.After(delay):
			m.actions <- action{kind: actStartMatch, matchID: matchID}
		case <-cancel:
		}
	}()
}

func (m *Matchmaker) cancelPendingStart(matchID string) {
	if cancel, ok := m.pendingStart[matchID]; ok {
		close(cancel)
		delete(m.pendingStart, matchID)
	}
}

// startMatch is idempotent: a missing match or one already past Waiting is
// a silent no-op, so it is safe whether triggered by the deferred timer or
// the all-ready path (spec.md §9 open question, resolved).
func (m *Matchmaker) startMatch(matchID string) {
	mt, ok := m.matches[matchID]
	if !ok {
		return
	}
	if mt.Status != match.Waiting {
		return
	}
	delete(m.pendingStart, matchID)

	mt.Status = match.Active
	mt.StartAt = nowMs()
	m.broadcast(mt, MatchStartedMsg{Type: "match_started", MatchID: mt.ID, Duration: mt.DurationMS, StartTime: mt.StartAt})

	delay := time.Duration(mt.DurationMS) * time.Millisecond
	go func() {
		<-time.After(delay)
		m.actions <- action{kind: actEndMatch, matchID: matchID}
	}()
}

// endMatch is idempotent; a missing match or one already Finished is a
// silent no-op (spec.md §4.1).
func (m *Matchmaker) endMatch(matchID string) {
	mt, ok := m.matches[matchID]
	if !ok {
		return
	}
	if mt.Status != match.Active {
		return
	}

	mt.Status = match.Finished
	mt.EndAt = nowMs()
	atomic.AddInt64(&m.activeCount, -1)

	results, winnerID := mt.ComputeResults()
	mt.WinnerID = winnerID
	views := make([]ResultView, len(results))
	for i, r := range results {
		views[i] = ResultView{ID: r.PlayerID, Username: r.DisplayName, Taps: r.Taps, IsWinner: r.IsWinner}
	}
	m.broadcast(mt, MatchEndedMsg{Type: "match_ended", MatchID: mt.ID, Results: views, WinnerID: winnerID})

	m.scheduleCleanup(matchID)
}

func (m *Matchmaker) scheduleCleanup(matchID string) {
	delay := time.Duration(m.cfg.CleanupDelayMS) * time.Millisecond
	go func() {
		<-time.After(delay)
		m.actions <- action{kind: actCleanupMatch, matchID: matchID}
	}()
}

// cleanupMatch is idempotent; deletes the match and clears playerToMatch
// for every remaining roster member (spec.md §4.1).
func (m *Matchmaker) cleanupMatch(matchID string) {
	mt, ok := m.matches[matchID]
	if !ok {
		return
	}
	delete(m.matches, matchID)
	for _, id := range mt.Roster {
		if m.playerToMatch[id] == matchID {
			delete(m.playerToMatch, id)
		}
	}
}

func (m *Matchmaker) broadcast(mt *match.Match, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		m.logger.Error("marshal broadcast message", "error", err, "matchId", mt.ID)
		return
	}
	for _, id := range mt.Roster {
		if p, ok := mt.Players[id]; ok && p.Send != nil {
			wsutil.SafeSend(p.Send, data)
		}
	}
}

func (m *Matchmaker) send(ch chan []byte, v interface{}) {
	if ch == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		m.logger.Error("marshal message", "error", err)
		return
	}
	wsutil.SafeSend(ch, data)
}

func (m *Matchmaker) sendError(ch chan []byte, err error) {
	m.send(ch, ErrorMsg{Type: "error", Message: errorMessage(err)})
}

func errorMessage(err error) string {
	var tapErr *matcherrors.InvalidTapError
	if errors.As(err, &tapErr) {
		return "InvalidTap: " + string(tapErr.Reason)
	}
	switch {
	case errors.Is(err, matcherrors.ErrAlreadyQueued):
		return "AlreadyQueued"
	case errors.Is(err, matcherrors.ErrAlreadyInMatch):
		return "AlreadyInMatch"
	case errors.Is(err, matcherrors.ErrNotQueued):
		return "NotQueued"
	case errors.Is(err, matcherrors.ErrMatchNotFound):
		return "MatchNotFound"
	case errors.Is(err, matcherrors.ErrNotInMatch):
		return "NotInMatch"
	case errors.Is(err, matcherrors.ErrMatchNotActive):
		return "MatchNotActive"
	default:
		return err.Error()
	}
}

func nowMs() int64 {
	return time.Now().UnixMilli()
}
