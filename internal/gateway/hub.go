// Package gateway fans lifecycle events out to connected observers. Delivery
// is at-least-once for healthy recipients; there is no replay, so a client
// that connects mid-job only sees events published after it registered.
package gateway

import (
	"log"
	"sync"
	"time"

	"github.com/sootlabs/soot/internal/model"
)

// Sink receives serialized events. Implementations must tolerate concurrent
// Send calls or serialize internally.
type Sink interface {
	Send(data []byte) error
}

// Handle identifies one registered sink. Deregister is idempotent.
type Handle struct {
	hub  *Hub
	sink Sink
}

// Deregister removes the sink from the hub. Safe to call more than once and
// safe to call concurrently with Publish.
func (h *Handle) Deregister() {
	h.hub.mu.Lock()
	delete(h.hub.sinks, h)
	h.hub.mu.Unlock()
}

// Hub is the broadcast center. A slow or dead sink is evicted without
// affecting delivery to the others.
type Hub struct {
	mu          sync.RWMutex
	sinks       map[*Handle]struct{}
	sendTimeout time.Duration
}

// NewHub creates a hub with the given per-recipient send timeout.
func NewHub(sendTimeout time.Duration) *Hub {
	if sendTimeout <= 0 {
		sendTimeout = 5 * time.Second
	}
	return &Hub{
		sinks:       make(map[*Handle]struct{}),
		sendTimeout: sendTimeout,
	}
}

// Register adds a sink and returns its handle.
func (h *Hub) Register(s Sink) *Handle {
	handle := &Handle{hub: h, sink: s}
	h.mu.Lock()
	h.sinks[handle] = struct{}{}
	h.mu.Unlock()
	return handle
}

// Count returns the number of registered sinks.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sinks)
}

// Publish encodes the event once and sends it to every sink registered at
// the moment of the call. Sends run concurrently; a send that fails or
// exceeds the timeout deregisters that sink only. Publish does not wait for
// deliveries to finish.
func (h *Hub) Publish(ev model.Event) {
	data, err := ev.Encode()
	if err != nil {
		log.Printf("gateway: encoding %s event: %v", ev.Type, err)
		return
	}

	h.mu.RLock()
	recipients := make([]*Handle, 0, len(h.sinks))
	for handle := range h.sinks {
		recipients = append(recipients, handle)
	}
	h.mu.RUnlock()

	for _, handle := range recipients {
		go h.deliver(handle, ev.Type, data)
	}
}

// deliver sends to one sink with the hub's timeout. A sink whose Send never
// returns is abandoned; its goroutine unblocks when the sink's own transport
// deadline fires.
func (h *Hub) deliver(handle *Handle, typ model.EventType, data []byte) {
	done := make(chan error, 1)
	go func() {
		done <- handle.sink.Send(data)
	}()

	select {
	case err := <-done:
		if err != nil {
			log.Printf("gateway: dropping recipient after failed %s send: %v", typ, err)
			handle.Deregister()
		}
	case <-time.After(h.sendTimeout):
		log.Printf("gateway: dropping recipient after %s send timeout", typ)
		handle.Deregister()
	}
}
