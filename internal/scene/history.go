package scene

import "fmt"

type slot struct {
	obj      *Object
	occupied bool
}

// History is a fixed-size arena of the most recent objects of a scene. Slot
// (last+1) mod N is always the next one written, and whatever it still holds
// is evicted and disposed first.
type History struct {
	scene *Scene
	slots []slot
	last  int
	live  int
}

// NewHistory creates a history of depth n attached to sc.
func NewHistory(sc *Scene, n int) (*History, error) {
	if n <= 0 {
		return nil, fmt.Errorf("history depth must be positive (got %d)", n)
	}
	return &History{
		scene: sc,
		slots: make([]slot, n),
		last:  n - 1,
	}, nil
}

// Depth returns N.
func (h *History) Depth() int { return len(h.slots) }

// Live returns the number of occupied slots.
func (h *History) Live() int { return h.live }

// Next returns the slot the next Advance writes to.
func (h *History) Next() int { return (h.last + 1) % len(h.slots) }

// Last returns the slot written by the previous Advance.
func (h *History) Last() int { return h.last }

// Slot returns the object held at i, if any.
func (h *History) Slot(i int) (*Object, bool) {
	s := h.slots[i%len(h.slots)]
	return s.obj, s.occupied
}

// Newest returns the most recently inserted object.
func (h *History) Newest() (*Object, bool) {
	return h.Slot(h.last)
}

// Advance runs one full scroll step: Scroll followed by Insert.
func (h *History) Advance(obj *Object, zStep float64, aged func(slot int) *Material) {
	h.Scroll(zStep, aged)
	h.Insert(obj)
}

// Scroll evicts and disposes the object in the next slot, moves the remaining
// objects by zStep and, when aged is non-nil, gives the newest object the
// material aged returns for the slot about to be written.
func (h *History) Scroll(zStep float64, aged func(slot int) *Material) {
	next := h.Next()
	h.evict(next)

	for i := range h.slots {
		if h.slots[i].occupied {
			h.slots[i].obj.TranslateZ(zStep)
		}
	}

	if aged != nil {
		if prev := h.slots[h.last]; prev.occupied {
			if m := aged(next); m != nil {
				prev.obj.SetMaterial(m)
			}
		}
	}
}

// Insert places obj in the next slot and attaches it to the scene. A nil obj
// leaves the slot empty but still advances the write position.
func (h *History) Insert(obj *Object) {
	next := h.Next()
	if h.slots[next].occupied {
		h.evict(next)
	}
	if obj != nil {
		h.slots[next] = slot{obj: obj, occupied: true}
		h.live++
		h.scene.Add(obj)
	}
	h.last = next
}

func (h *History) evict(i int) {
	s := h.slots[i]
	if !s.occupied {
		return
	}
	h.scene.Remove(s.obj)
	s.obj.Dispose()
	h.slots[i] = slot{}
	h.live--
}

// Reset disposes every held object and rewinds the write position.
func (h *History) Reset() {
	for i := range h.slots {
		h.evict(i)
	}
	h.last = len(h.slots) - 1
}
