// Package reconciler folds the lifecycle event stream into per-slot agent
// state. Events may arrive more than once and out of order; the reconciler
// converges on a sensible picture regardless.
package reconciler

import (
	"sync"

	"github.com/sootlabs/soot/internal/model"
)

// Phase is the displayed state of one agent slot.
type Phase string

const (
	PhaseAbsent   Phase = "absent"
	PhaseThinking Phase = "thinking"
	PhaseWorking  Phase = "working"
	PhaseTesting  Phase = "testing"
)

// SlotState describes one agent slot.
type SlotState struct {
	Phase          Phase  `json:"phase"`
	TaskName       string `json:"task_name,omitempty"`
	PreviewLink    string `json:"preview_link,omitempty"`
	ValidationLink string `json:"validation_link,omitempty"`
}

// Reconciler tracks slots 1 through model.MaxSlot.
type Reconciler struct {
	mu    sync.Mutex
	slots [model.MaxSlot + 1]SlotState
}

// New creates a reconciler with every slot absent.
func New() *Reconciler {
	r := &Reconciler{}
	for i := range r.slots {
		r.slots[i].Phase = PhaseAbsent
	}
	return r
}

// Apply folds one event into slot state. Returns true when the visible
// state changed.
func (r *Reconciler) Apply(ev model.Event) bool {
	if ev.Slot < 1 || ev.Slot > model.MaxSlot {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.slots[ev.Slot]

	switch ev.Type {
	case model.EventAgentCreated:
		// A created event always means a fresh job took the slot. Reset
		// everything, including stale links from the previous occupant.
		next := SlotState{Phase: PhaseThinking, TaskName: ev.TaskName}
		if next == cur {
			return false
		}
		r.slots[ev.Slot] = next
		return true

	case model.EventAgentStartWorking:
		switch cur.Phase {
		case PhaseAbsent:
			// The created event was missed; synthesize the slot.
			r.slots[ev.Slot] = SlotState{Phase: PhaseWorking}
			return true
		case PhaseThinking:
			cur.Phase = PhaseWorking
			r.slots[ev.Slot] = cur
			return true
		default:
			// Duplicate, or arrived after testing started. Stale either way.
			return false
		}

	case model.EventAgentStartTesting:
		next := cur
		next.Phase = PhaseTesting
		next.PreviewLink = ev.PreviewLink
		next.ValidationLink = ev.ValidationLink
		if next == cur {
			return false
		}
		r.slots[ev.Slot] = next
		return true
	}

	return false
}

// Dismiss clears a slot back to absent, e.g. when the user closes the
// agent's card.
func (r *Reconciler) Dismiss(slot int) {
	if slot < 1 || slot > model.MaxSlot {
		return
	}
	r.mu.Lock()
	r.slots[slot] = SlotState{Phase: PhaseAbsent}
	r.mu.Unlock()
}

// Get returns the state of one slot.
func (r *Reconciler) Get(slot int) SlotState {
	if slot < 1 || slot > model.MaxSlot {
		return SlotState{Phase: PhaseAbsent}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.slots[slot]
}

// Snapshot returns the non-absent slots keyed by slot number.
func (r *Reconciler) Snapshot() map[int]SlotState {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[int]SlotState)
	for i := 1; i <= model.MaxSlot; i++ {
		if r.slots[i].Phase != PhaseAbsent {
			out[i] = r.slots[i]
		}
	}
	return out
}
