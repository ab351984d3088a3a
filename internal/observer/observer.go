// Package observer is the client side of the event gateway: it connects to
// a soot server's websocket endpoint and folds the event stream into
// per-slot agent state.
package observer

import (
	"context"
	"fmt"
	"log"

	"github.com/gorilla/websocket"

	"github.com/sootlabs/soot/internal/model"
	"github.com/sootlabs/soot/internal/reconciler"
)

// Observer maintains a live view of agent slots from a server's event stream.
type Observer struct {
	url string
	rec *reconciler.Reconciler
}

// New creates an observer for the given websocket URL (ws://host/ws).
func New(url string) *Observer {
	return &Observer{
		url: url,
		rec: reconciler.New(),
	}
}

// Snapshot returns the current non-absent slots.
func (o *Observer) Snapshot() map[int]reconciler.SlotState {
	return o.rec.Snapshot()
}

// Dismiss clears one slot from the local view.
func (o *Observer) Dismiss(slot int) {
	o.rec.Dismiss(slot)
}

// Run connects and consumes events until the context is canceled or the
// connection drops. onChange fires after every event that changed a slot;
// it may be nil.
func (o *Observer) Run(ctx context.Context, onChange func(slot int, state reconciler.SlotState)) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, o.url, nil)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", o.url, err)
	}
	defer conn.Close()

	// Unblock ReadMessage when the caller gives up.
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("reading event stream: %w", err)
		}

		ev, err := model.DecodeEvent(data)
		if err != nil {
			// A malformed frame is the sender's bug; skip it.
			log.Printf("observer: %v", err)
			continue
		}

		if o.rec.Apply(ev) && onChange != nil {
			onChange(ev.Slot, o.rec.Get(ev.Slot))
		}
	}
}
