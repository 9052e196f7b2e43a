package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// EventResponseCreated is pushed to live subscribers for each accepted submission.
const EventResponseCreated = "response.created"

const publishTimeout = 5 * time.Second

// Message is the websocket envelope.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Bus fans events out across instances.
type Bus interface {
	Publish(ctx context.Context, formID uuid.UUID, msg Message) error
	Subscribe(formID uuid.UUID, handler func(Message)) (cancel func(), err error)
}

// Hub tracks live subscribers per form. With a Bus, events are published
// to the bus only and delivered locally by the bus subscription so every
// instance (this one included) sees each event once.
type Hub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]map[*Client]struct{}
	subs    map[uuid.UUID]func()
	bus     Bus
}

// NewHub creates a hub. bus may be nil for single-instance deployments.
func NewHub(bus Bus) *Hub {
	return &Hub{
		clients: make(map[uuid.UUID]map[*Client]struct{}),
		subs:    make(map[uuid.UUID]func()),
		bus:     bus,
	}
}

// Register adds c to its form's room. Rooms without a bus subscription,
// new or left over from a failed attempt, subscribe again.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.clients[c.formID]
	if !ok {
		room = make(map[*Client]struct{})
		h.clients[c.formID] = room
	}
	room[c] = struct{}{}
	h.subscribeLocked(c.formID)

	log.Debug().
		Str("form_id", c.formID.String()).
		Int("subscribers", len(room)).
		Msg("Live response subscriber joined")
}

// subscribeLocked attaches formID to the bus. h.mu must be held.
func (h *Hub) subscribeLocked(formID uuid.UUID) {
	if h.bus == nil {
		return
	}
	if _, ok := h.subs[formID]; ok {
		return
	}

	cancel, err := h.bus.Subscribe(formID, func(msg Message) {
		h.deliver(formID, msg)
	})
	if err != nil {
		log.Error().Err(err).Str("form_id", formID.String()).Msg("Failed to subscribe to live responses")
		return
	}
	h.subs[formID] = cancel
}

// subscribed reports whether bus messages for formID reach this instance.
func (h *Hub) subscribed(formID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.subs[formID]
	return ok
}

// Unregister removes c and drops the bus subscription when the room empties.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.clients[c.formID]
	if !ok {
		return
	}
	if _, ok := room[c]; !ok {
		return
	}
	delete(room, c)
	close(c.send)

	if len(room) == 0 {
		delete(h.clients, c.formID)
		if cancel, ok := h.subs[c.formID]; ok {
			cancel()
			delete(h.subs, c.formID)
		}
	}
}

// Subscribers returns the number of local clients watching a form.
func (h *Hub) Subscribers(formID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[formID])
}

// Publish sends an event to everyone watching formID.
func (h *Hub) Publish(formID uuid.UUID, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("Failed to encode live event")
		return
	}
	msg := Message{Event: event, Data: data}

	if h.bus != nil {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		err := h.bus.Publish(ctx, formID, msg)
		if err == nil {
			// Local clients without a subscription would miss the bus copy.
			if !h.subscribed(formID) {
				h.deliver(formID, msg)
			}
			return
		}
		log.Warn().Err(err).Str("form_id", formID.String()).Msg("Live event publish failed, delivering locally")
	}

	h.deliver(formID, msg)
}

// deliver pushes msg to local clients. Slow clients drop messages.
func (h *Hub) deliver(formID uuid.UUID, msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients[formID] {
		select {
		case c.send <- msg:
		default:
			log.Warn().Str("form_id", formID.String()).Msg("Live subscriber buffer full, dropping event")
		}
	}
}
