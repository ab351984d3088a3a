package pipeline

import (
	"sync"

	"github.com/sootlabs/soot/internal/model"
)

// slotArena hands out agent slot numbers 1..model.MaxSlot. Slots are reused
// across jobs; acquire always returns the lowest free slot so displays stay
// compact. When every slot is taken, acquire blocks until one frees up.
type slotArena struct {
	mu   sync.Mutex
	cond *sync.Cond
	used [model.MaxSlot + 1]bool
}

func newSlotArena() *slotArena {
	a := &slotArena{}
	a.cond = sync.NewCond(&a.mu)
	return a
}

func (a *slotArena) acquire() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	for {
		for slot := 1; slot <= model.MaxSlot; slot++ {
			if !a.used[slot] {
				a.used[slot] = true
				return slot
			}
		}
		a.cond.Wait()
	}
}

func (a *slotArena) release(slot int) {
	if slot < 1 || slot > model.MaxSlot {
		return
	}
	a.mu.Lock()
	a.used[slot] = false
	a.mu.Unlock()
	a.cond.Signal()
}
