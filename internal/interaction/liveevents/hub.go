// Package liveevents fans accepted interactions out to the owner's open
// dashboards.
package liveevents

import (
	"errors"
	"strings"
	"sync"
)

const (
	DefaultBufferSize       = 50
	DefaultSubscriberBuffer = 16
)

var (
	ErrHubUnavailable = errors.New("hub_unavailable")
	ErrInvalidOwner   = errors.New("invalid_owner_id")
)

// Event is one interaction as shown on the live feed.
type Event struct {
	ID            string `json:"id"`
	Kind          string `json:"kind"`
	SiteID        string `json:"site_id,omitempty"`
	Summary       string `json:"summary"`
	CorrelationID string `json:"correlation_id"`
	OccurredAt    string `json:"occurred_at"`
}

// Hub keeps a bounded backlog per owner and pushes new events to every
// subscriber. Slow subscribers miss events rather than block publishers.
type Hub struct {
	mu               sync.RWMutex
	streams          map[string]*stream
	bufferSize       int
	subscriberBuffer int
}

type stream struct {
	mu     sync.Mutex
	buffer []Event
	subs   map[uint64]chan Event
	nextID uint64
}

type Subscription struct {
	hub     *Hub
	ownerID string
	id      uint64
	ch      chan Event
	once    sync.Once
}

func NewHub() *Hub {
	return &Hub{
		streams:          make(map[string]*stream),
		bufferSize:       DefaultBufferSize,
		subscriberBuffer: DefaultSubscriberBuffer,
	}
}

func (h *Hub) Publish(ownerID string, event Event) {
	if h == nil {
		return
	}
	key := strings.TrimSpace(ownerID)
	if key == "" {
		return
	}
	stream := h.ensureStream(key)

	stream.mu.Lock()
	stream.buffer = append(stream.buffer, event)
	if len(stream.buffer) > h.bufferSize {
		stream.buffer = stream.buffer[len(stream.buffer)-h.bufferSize:]
	}
	subs := make([]chan Event, 0, len(stream.subs))
	for _, ch := range stream.subs {
		subs = append(subs, ch)
	}
	stream.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribe returns a live subscription and a copy of the backlog, oldest first.
func (h *Hub) Subscribe(ownerID string) (*Subscription, []Event, error) {
	if h == nil {
		return nil, nil, ErrHubUnavailable
	}
	key := strings.TrimSpace(ownerID)
	if key == "" {
		return nil, nil, ErrInvalidOwner
	}

	stream := h.ensureStream(key)
	stream.mu.Lock()
	id := stream.nextID
	stream.nextID++
	ch := make(chan Event, h.subscriberBuffer)
	stream.subs[id] = ch
	backlog := append([]Event(nil), stream.buffer...)
	stream.mu.Unlock()

	return &Subscription{hub: h, ownerID: key, id: id, ch: ch}, backlog, nil
}

func (h *Hub) ensureStream(ownerID string) *stream {
	h.mu.RLock()
	current := h.streams[ownerID]
	h.mu.RUnlock()
	if current != nil {
		return current
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	current = h.streams[ownerID]
	if current == nil {
		current = &stream{subs: make(map[uint64]chan Event)}
		h.streams[ownerID] = current
	}
	return current
}

func (h *Hub) unsubscribe(ownerID string, id uint64) {
	h.mu.RLock()
	stream := h.streams[ownerID]
	h.mu.RUnlock()
	if stream == nil {
		return
	}
	stream.mu.Lock()
	delete(stream.subs, id)
	stream.mu.Unlock()
}

func (s *Subscription) Events() <-chan Event {
	if s == nil {
		return nil
	}
	return s.ch
}

func (s *Subscription) Close() {
	if s == nil || s.hub == nil {
		return
	}
	s.once.Do(func() {
		s.hub.unsubscribe(s.ownerID, s.id)
	})
}
