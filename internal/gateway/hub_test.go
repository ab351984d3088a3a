package gateway

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sootlabs/soot/internal/model"
)

// chanSink collects delivered payloads on a channel.
type chanSink struct {
	ch chan []byte
}

func newChanSink() *chanSink {
	return &chanSink{ch: make(chan []byte, 16)}
}

func (s *chanSink) Send(data []byte) error {
	s.ch <- data
	return nil
}

// failSink always fails to send.
type failSink struct{}

func (failSink) Send([]byte) error { return errors.New("broken pipe") }

// blockedSink never returns from Send.
type blockedSink struct {
	once    sync.Once
	blocked chan struct{}
}

func (s *blockedSink) Send([]byte) error {
	s.once.Do(func() { close(s.blocked) })
	select {}
}

func waitFor(t *testing.T, ch chan []byte) []byte {
	t.Helper()
	select {
	case data := <-ch:
		return data
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for delivery")
		return nil
	}
}

func TestPublishReachesAllSinks(t *testing.T) {
	hub := NewHub(time.Second)
	a, b := newChanSink(), newChanSink()
	hub.Register(a)
	hub.Register(b)

	hub.Publish(model.AgentStartWorking(4))

	for _, sink := range []*chanSink{a, b} {
		ev, err := model.DecodeEvent(waitFor(t, sink.ch))
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if ev.Type != model.EventAgentStartWorking || ev.Slot != 4 {
			t.Fatalf("unexpected event %+v", ev)
		}
	}
}

func TestFailedSinkIsDeregistered(t *testing.T) {
	hub := NewHub(time.Second)
	healthy := newChanSink()
	hub.Register(healthy)
	hub.Register(failSink{})

	hub.Publish(model.AgentStartWorking(1))
	waitFor(t, healthy.ch)

	deadline := time.Now().Add(2 * time.Second)
	for hub.Count() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("expected failing sink to be evicted, count=%d", hub.Count())
		}
		time.Sleep(10 * time.Millisecond)
	}

	// The survivor keeps receiving.
	hub.Publish(model.AgentStartWorking(2))
	waitFor(t, healthy.ch)
}

func TestBlockedSinkDoesNotStallOthers(t *testing.T) {
	hub := NewHub(50 * time.Millisecond)
	healthy := newChanSink()
	blocked := &blockedSink{blocked: make(chan struct{})}
	hub.Register(blocked)
	hub.Register(healthy)

	start := time.Now()
	hub.Publish(model.AgentCreated(3, "update dependencies"))
	waitFor(t, healthy.ch)
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("healthy delivery took %v with a blocked peer", elapsed)
	}

	<-blocked.blocked

	deadline := time.Now().Add(2 * time.Second)
	for hub.Count() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("expected blocked sink to be evicted, count=%d", hub.Count())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestDeregisterIsIdempotent(t *testing.T) {
	hub := NewHub(time.Second)
	handle := hub.Register(newChanSink())
	handle.Deregister()
	handle.Deregister()
	if hub.Count() != 0 {
		t.Fatalf("expected empty hub, count=%d", hub.Count())
	}
}

func TestLateRegistrantMissesEarlierEvents(t *testing.T) {
	hub := NewHub(time.Second)
	hub.Publish(model.AgentStartWorking(1))

	late := newChanSink()
	hub.Register(late)
	hub.Publish(model.AgentStartWorking(2))

	ev, err := model.DecodeEvent(waitFor(t, late.ch))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.Slot != 2 {
		t.Fatalf("expected only the post-registration event, got slot %d", ev.Slot)
	}
	select {
	case data := <-late.ch:
		t.Fatalf("unexpected extra delivery: %s", data)
	case <-time.After(100 * time.Millisecond):
	}
}
