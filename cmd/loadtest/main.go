// Command loadtest drives simulated players against a running tap-race
// server to exercise matchmaking and tap throughput under load. Grounded on
// the teacher corpus's loadtest tooling pattern (ramp-up connect phase,
// then a timed action phase, then a results report) but scoped down to one
// flow since the tap-race protocol has only one game mode.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

func main() {
	url := flag.String("url", "ws://localhost:8080/ws", "WebSocket server URL")
	players := flag.Int("players", 100, "Number of simulated players")
	rampUp := flag.Duration("ramp", 5*time.Second, "Ramp-up duration for connection creation")
	matchTimeout := flag.Duration("match-timeout", 15*time.Second, "Timeout waiting for match_found")
	tapIntervalMS := flag.Int("tap-interval-ms", 150, "Milliseconds between simulated taps (kept above the server's rate limit)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var connected, queued, matched, tapsAccepted, tapsRejected, errorCount atomic.Int64

	fmt.Printf("loadtest: %d simulated players to %s (ramp=%s)\n", *players, *url, *rampUp)

	playerCount := *players
	if playerCount < 1 {
		playerCount = 1
	}
	interval := *rampUp / time.Duration(playerCount)
	if interval <= 0 {
		interval = time.Millisecond
	}

	var wg sync.WaitGroup
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	launched := 0
	for launched < *players {
		select {
		case <-ctx.Done():
			fmt.Println("interrupted during ramp-up")
			launched = *players
		case <-ticker.C:
			launched++
			playerID := fmt.Sprintf("loadtest-player-%d", launched)
			wg.Add(1)
			go func() {
				defer wg.Done()
				runPlayer(ctx, *url, playerID, time.Duration(*tapIntervalMS)*time.Millisecond, *matchTimeout,
					&connected, &queued, &matched, &tapsAccepted, &tapsRejected, &errorCount)
			}()
		}
	}

	wg.Wait()

	fmt.Println("\n--- Results ---")
	fmt.Printf("Connected:     %d / %d\n", connected.Load(), *players)
	fmt.Printf("Queued:        %d\n", queued.Load())
	fmt.Printf("Matched:       %d\n", matched.Load())
	fmt.Printf("Taps accepted: %d\n", tapsAccepted.Load())
	fmt.Printf("Taps rejected: %d\n", tapsRejected.Load())
	fmt.Printf("Errors:        %d\n", errorCount.Load())
}

func runPlayer(
	ctx context.Context,
	url, playerID string,
	tapInterval, matchTimeout time.Duration,
	connected, queued, matched, tapsAccepted, tapsRejected, errorCount *atomic.Int64,
) {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, url, nil)
	if err != nil {
		errorCount.Add(1)
		return
	}
	defer conn.Close()
	connected.Add(1)

	send := func(v interface{}) error {
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		return conn.WriteMessage(websocket.TextMessage, data)
	}

	if err := send(map[string]string{"type": "join_queue", "playerId": playerID, "displayName": playerID}); err != nil {
		errorCount.Add(1)
		return
	}

	var matchID string
	deadline := time.Now().Add(matchTimeout)

	for {
		conn.SetReadDeadline(deadline)
		_, data, err := conn.ReadMessage()
		if err != nil {
			errorCount.Add(1)
			return
		}

		var envelope struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(data, &envelope); err != nil {
			continue
		}

		switch envelope.Type {
		case "queue_joined":
			queued.Add(1)
		case "match_found":
			var msg struct {
				MatchID string `json:"matchId"`
			}
			if err := json.Unmarshal(data, &msg); err == nil {
				matchID = msg.MatchID
				matched.Add(1)
			}
			_ = send(map[string]string{"type": "player_ready", "matchId": matchID})
		case "match_started":
			go tapLoop(ctx, conn, matchID, tapInterval)
		case "tap_confirmed":
			tapsAccepted.Add(1)
		case "error":
			tapsRejected.Add(1)
		case "match_ended":
			return
		}
	}
}

func tapLoop(ctx context.Context, conn *websocket.Conn, matchID string, interval time.Duration) {
	// Small random jitter avoids every simulated player taking the rate
	// limit's exact interval in lockstep.
	jitter := time.Duration(rand.Intn(30)) * time.Millisecond
	ticker := time.NewTicker(interval + jitter)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			data, err := json.Marshal(map[string]interface{}{
				"type":              "tap",
				"matchId":           matchID,
				"clientTimestampMs": time.Now().UnixMilli(),
			})
			if err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		}
	}
}
