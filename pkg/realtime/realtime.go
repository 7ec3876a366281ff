package realtime

// Package realtime provides a lightweight in-process publish/subscribe hub
// used to fan out install telemetry events to multiple listeners (the
// WebSocket firehose sessions of the serve command).
//
// The hub is best effort: slow listeners drop events rather than
// backpressuring the telemetry endpoint, and there is no persistence or
// replay. If durable semantics are ever needed this package is the seam
// where a broker could be introduced behind a compatible interface.

import (
	"sync"
	"time"

	"github.com/qaskills/qas/pkg/core"
)

// Event is the envelope delivered to firehose listeners. Type allows
// additional event kinds (heartbeat, skill updates) without changing the
// channel element type; currently only "install" is produced.
type Event struct {
	Type      string            `json:"type"`
	EventID   string            `json:"eventId"`
	Install   core.InstallEvent `json:"install"`
	SkillName string            `json:"skillName,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// NewInstallEvent wraps a recorded telemetry event for broadcast.
func NewInstallEvent(eventID string, install core.InstallEvent, skillName string) Event {
	return Event{
		Type:      "install",
		EventID:   eventID,
		Install:   install,
		SkillName: skillName,
		Timestamp: time.Now().UTC(),
	}
}

// Hub is an in-memory fan-out dispatcher. Each registered listener receives
// events via its own buffered channel; when a listener's buffer is full an
// incoming event is dropped for that listener only, so a single slow
// consumer never degrades delivery to the rest.
//
// The hub is concurrency-safe.
type Hub struct {
	mu        sync.RWMutex
	listeners map[uint64]chan Event
	nextID    uint64
	bufSize   int
}

// NewHub constructs a hub with the given per-listener buffer size.
// If bufSize <= 0, a default of 32 is used.
func NewHub(bufSize int) *Hub {
	if bufSize <= 0 {
		bufSize = 32
	}
	return &Hub{
		listeners: make(map[uint64]chan Event),
		bufSize:   bufSize,
	}
}

// Register adds a listener and returns its id and receive channel. Callers
// must Unregister(id) when done to release resources.
func (h *Hub) Register() (uint64, <-chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	ch := make(chan Event, h.bufSize)
	h.listeners[id] = ch
	return id, ch
}

// Unregister removes the listener with the given id and closes its channel.
// Safe to call multiple times; unknown ids are ignored.
func (h *Hub) Unregister(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.listeners[id]; ok {
		delete(h.listeners, id)
		close(ch)
	}
}

// Broadcast delivers an event to every registered listener, dropping it for
// listeners whose buffer is full.
func (h *Hub) Broadcast(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.listeners {
		select {
		case ch <- event:
		default:
		}
	}
}

// Size returns the current number of active listeners.
func (h *Hub) Size() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners)
}
