// Jeopardy Buzzer
//
// Each team gets a buzzer (a phone on the buzzer page, or a physical button
// wired to a Raspberry Pi) that submits clicks tagged with the team's ID.
// The server keeps an ordered log of which teams buzzed in first for the
// current round.
//
// Features:
// - First click per team per round: later clicks from the same team are
//   silently dropped, every distinct team's first click is kept in arrival
//   order (position 0 = first to buzz)
// - Explicit reset starts a new round and empties the log
// - POST/GET JSON endpoints polled by the board; an optional WebSocket at
//   /api/buzzer/ws pushes the fresh standings to connected displays
// - In-browser QR button to open the buzzer page on phones, backed by go-qrcode
// - Timestamps come from an injected clock so tests are deterministic

package main

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

// ClickEvent records a single admitted buzz. Timestamp is the server's
// millisecond epoch encoded as a decimal string, matching what the buzzer
// hardware expects on the wire.
type ClickEvent struct {
	TeamID    string `json:"teamId"`
	Timestamp string `json:"timestamp"`
}

// Messages coming from buzzer clients
type buzzerAction struct {
	Type   string `json:"type"` // "click" or "reset"
	TeamID string `json:"teamId,omitempty"`
}

type buzzerRequest struct {
	Action buzzerAction `json:"action"`
}

type buzzerClickResponse struct {
	Clicked []ClickEvent `json:"listOfCurrentPlayersClicked"`
}

// Buzzer owns the click log for the current round. All mutation happens
// under mu, so the duplicate check and the append are atomic with respect
// to concurrent submissions.
type Buzzer struct {
	mu      sync.Mutex
	clicks  []ClickEvent
	clock   clockwork.Clock
	clients map[*boardClient]bool
}

func newBuzzer(clock clockwork.Clock) *Buzzer {
	return &Buzzer{
		clock:   clock,
		clients: make(map[*boardClient]bool),
	}
}

// Admit appends a click for teamID unless the team has already buzzed this
// round. Returns false for duplicates, leaving the log unchanged.
func (b *Buzzer) Admit(teamID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, c := range b.clicks {
		if c.TeamID == teamID {
			return false
		}
	}

	b.clicks = append(b.clicks, ClickEvent{
		TeamID:    teamID,
		Timestamp: strconv.FormatInt(b.clock.Now().UnixMilli(), 10),
	})

	b.broadcastLocked()

	return true
}

// Reset empties the click log, starting a new round. Resetting an already
// empty log is a no-op with the same observable result.
func (b *Buzzer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.clicks = b.clicks[:0]

	b.broadcastLocked()
}

// Snapshot returns a copy of the click log in rank order. The copy is the
// caller's to keep; mutating it never touches the live log. An empty round
// yields an empty, non-nil slice.
func (b *Buzzer) Snapshot() []ClickEvent {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.snapshotLocked()
}

func (b *Buzzer) snapshotLocked() []ClickEvent {
	out := make([]ClickEvent, len(b.clicks))
	copy(out, b.clicks)
	return out
}

// broadcastLocked pushes the current standings to every connected display.
// Assumes b.mu is already held. Slow clients are dropped rather than
// blocking the round.
func (b *Buzzer) broadcastLocked() {
	snap := b.snapshotLocked()

	for client := range b.clients {
		select {
		case client.send <- snap:
		default:
			delete(b.clients, client)
			close(client.send)
		}
	}
}

type boardClient struct {
	conn *websocket.Conn
	send chan []ClickEvent
}

func (b *Buzzer) registerClient(c *boardClient) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.clients[c] = true

	// Seed the display with the current standings.
	select {
	case c.send <- b.snapshotLocked():
	default:
	}
}

func (b *Buzzer) unregisterClient(c *boardClient) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.clients[c]; ok {
		delete(b.clients, c)
		close(c.send)
	}
}

func (c *boardClient) readPump(b *Buzzer) {
	defer func() {
		b.unregisterClient(c)
		_ = c.conn.Close()
	}()

	// Displays never send anything meaningful; read until the peer goes away.
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *boardClient) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func serveBuzzerSocket(cfg *Config, b *Buzzer) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade error:", err)
			return
		}

		client := &boardClient{
			conn: conn,
			send: make(chan []ClickEvent, 8),
		}

		b.registerClient(client)
		logf(cfg, "BUZZ: Display connected from %s", realIP(r))

		go client.writePump()
		client.readPump(b)
	}
}

func serveBuzzerSubmit(cfg *Config, b *Buzzer) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var req buzzerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "Invalid input")
			return
		}

		switch req.Action.Type {
		case "reset":
			b.Reset()
			buzzerResetsTotal.Inc()

			logf(cfg, "BUZZ: Round reset by %s", realIP(r))

			writeJSON(w, http.StatusOK, map[string]string{"message": "Reset successful"})

		case "click":
			teamID := req.Action.TeamID
			if teamID == "" {
				buzzerClicksTotal.WithLabelValues(resultInvalid).Inc()
				writeJSONError(w, http.StatusBadRequest, "Invalid input")
				return
			}

			if b.Admit(teamID) {
				buzzerClicksTotal.WithLabelValues(resultAdmitted).Inc()
				logf(cfg, "BUZZ: Team %q buzzed in from %s", teamID, realIP(r))
			} else {
				buzzerClicksTotal.WithLabelValues(resultDuplicate).Inc()
			}

			// Duplicates still get the standings back; the client works out
			// its own position from the returned list.
			writeJSON(w, http.StatusOK, buzzerClickResponse{Clicked: b.Snapshot()})

		default:
			writeJSONError(w, http.StatusBadRequest, "Invalid input")
		}
	}
}

func serveBuzzerSnapshot(cfg *Config, b *Buzzer) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		writeJSON(w, http.StatusOK, b.Snapshot())
	}
}

// QR handler: generates a PNG QR code for the buzzer page URL using
// go-qrcode, so teams can join from their phones.
func buzzerQRHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	// We are at /buzzer/qr; strip trailing "/qr" to get the buzzer URL.
	path := strings.TrimSuffix(r.URL.Path, "/qr")

	url := scheme + "://" + r.Host + path

	const qrSize = 320 // mobile-friendly size
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

// registerBuzzer sets up routes so that:
//   - POST $prefix/api/buzzer    → submit a click or reset the round
//   - GET  $prefix/api/buzzer    → current standings, rank order
//   - GET  $prefix/api/buzzer/ws → WebSocket pushing standings to displays
//   - GET  $prefix/buzzer/qr     → PNG QR code for the buzzer page
func registerBuzzer(cfg *Config, b *Buzzer, mux *httprouter.Router) {
	mux.POST(cfg.prefix+"/api/buzzer", serveBuzzerSubmit(cfg, b))
	mux.GET(cfg.prefix+"/api/buzzer", serveBuzzerSnapshot(cfg, b))
	mux.GET(cfg.prefix+"/api/buzzer/ws", serveBuzzerSocket(cfg, b))
	mux.GET(cfg.prefix+"/buzzer/qr", buzzerQRHandler)
}
