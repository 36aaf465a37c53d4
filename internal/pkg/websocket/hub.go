package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Event types pushed to section subscribers
const (
	EventAttendanceMarked   = "attendance.marked"
	EventAttendanceRepaired = "attendance.repaired"
)

// Hub maintains the set of active clients and broadcasts events to the clients
type Hub struct {
	// Registered clients organized by section course ID
	clients map[int64]map[*Client]bool

	// Events to fan out
	broadcast chan *Event

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Closed when Run returns
	done chan struct{}

	// Mutex for concurrent access to clients map
	mu sync.RWMutex

	logger zerolog.Logger
}

// Event is an attendance change of one section
type Event struct {
	Type            string    `json:"type"`
	SectionCourseID int64     `json:"sectionCourseId"`
	SessionID       int64     `json:"sessionId,omitempty"`
	Count           int64     `json:"count"`
	ActorID         int64     `json:"actorId,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// NewHub creates a new Hub instance
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan *Event, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[int64]map[*Client]bool),
		logger:     logger,
	}
}

// Run handles registrations and broadcasts until ctx is cancelled, then
// disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case event := <-h.broadcast:
			h.broadcastEvent(event)

		case <-ctx.Done():
			h.closeAll()
			return
		}
	}
}

// Publish queues an event for the section's subscribers. It never blocks
// after the hub has stopped.
func (h *Hub) Publish(event *Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	select {
	case h.broadcast <- event:
	case <-h.done:
	}
}

// ClientCount returns the number of connected clients for a section
func (h *Hub) ClientCount(sectionCourseID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sectionCourseID])
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sectionID := client.sectionCourseID
	if _, ok := h.clients[sectionID]; !ok {
		h.clients[sectionID] = make(map[*Client]bool)
	}
	h.clients[sectionID][client] = true

	h.logger.Info().
		Int64("sectionCourseID", sectionID).
		Int64("userID", client.userID).
		Str("addr", client.remoteAddr).
		Msg("Client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

// removeLocked requires h.mu to be held for writing
func (h *Hub) removeLocked(client *Client) {
	sectionID := client.sectionCourseID
	clients, ok := h.clients[sectionID]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.clients, sectionID)
	}

	h.logger.Info().
		Int64("sectionCourseID", sectionID).
		Int64("userID", client.userID).
		Str("addr", client.remoteAddr).
		Msg("Client unregistered")
}

func (h *Hub) broadcastEvent(event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Int64("sectionCourseID", event.SectionCourseID).Msg("Failed to marshal event for broadcast")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.clients[event.SectionCourseID]
	for client := range clients {
		select {
		case client.send <- data:
		default:
			// Slow consumer; drop it rather than stall the hub
			h.removeLocked(client)
		}
	}

	h.logger.Debug().
		Str("type", event.Type).
		Int64("sectionCourseID", event.SectionCourseID).
		Int("clientCount", len(clients)).
		Msg("Event broadcasted to section")
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, clients := range h.clients {
		for client := range clients {
			h.removeLocked(client)
		}
	}
}
