// internal/events/hub.go
//
// Server-Sent-Events fan-out for round notifications.
//
// The presentation layer subscribes to GET /round/events and receives:
//   - found:    a word was matched (the browser plays its audio cue)
//   - complete: every word was found; carries total and average seconds
//   - tick:     the one-second round timer
//
// Delivery is best effort. Publish never blocks: a client whose buffer is
// full misses the message, and the caller only gets an error to log.

package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Event names sent on a round stream.
const (
	NameFound = "found" // a word was found; doubles as the audio cue
	// NameComplete closes a round. Its payload names the call that starts
	// the next one.
	NameComplete = "complete"
	NameTick     = "tick"
)

const (
	channelBuffer = 16
	heartbeat     = 30 * time.Second
)

var (
	ErrNoListeners = errors.New("events: no listeners")
	ErrDropped     = errors.New("events: message dropped for slow client")
)

// Event is one named SSE message. Data is encoded as JSON.
type Event struct {
	Name string
	Data any
}

type message struct {
	name string
	data []byte
}

// client represents a single SSE connection.
type client struct {
	ch      chan message
	roundID string
}

// Hub manages SSE clients grouped by round.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

func (h *Hub) register(roundID string) *client {
	c := &client{ch: make(chan message, channelBuffer), roundID: roundID}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	return c
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.ch)
	}
	h.mu.Unlock()
}

// Publish sends ev to every client of roundID.
func (h *Hub) Publish(roundID string, ev Event) error {
	data, err := json.Marshal(ev.Data)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", ev.Name, err)
	}
	msg := message{name: ev.Name, data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()

	sent, dropped := 0, 0
	for c := range h.clients {
		if c.roundID != roundID {
			continue
		}
		select {
		case c.ch <- msg:
			sent++
		default:
			dropped++
		}
	}
	switch {
	case dropped > 0:
		return ErrDropped
	case sent == 0:
		return ErrNoListeners
	}
	return nil
}

// ClientCount returns the number of connected clients for a round.
func (h *Hub) ClientCount(roundID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for c := range h.clients {
		if c.roundID == roundID {
			n++
		}
	}
	return n
}

// ServeSSE streams events for roundID until the request context ends.
func (h *Hub) ServeSSE(w http.ResponseWriter, r *http.Request, roundID string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, `{"error":"streaming_unsupported"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	c := h.register(roundID)
	defer h.unregister(c)

	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-c.ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.name, msg.data)
			flusher.Flush()
		case <-ticker.C:
			fmt.Fprint(w, ": heartbeat\n\n")
			flusher.Flush()
		}
	}
}
