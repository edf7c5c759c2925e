package scanner

import (
	"ScanCheckout/internal/entity"
	"sync"
)

const defaultSubscriberBuffer = 16

// hub fans session events out to subscribers. Publish never blocks: an event
// that does not fit a subscriber's buffer is dropped for that subscriber.
type hub struct {
	mu      sync.Mutex
	nextID  int
	subs    map[int]chan entity.SessionEvent
	dropped uint64
	closed  bool
}

func newHub() *hub {
	return &hub{subs: make(map[int]chan entity.SessionEvent)}
}

func (h *hub) subscribe(buffer int) (<-chan entity.SessionEvent, func()) {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	ch := make(chan entity.SessionEvent, buffer)

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		close(ch)
		return ch, func() {}
	}

	id := h.nextID
	h.nextID++
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if sub, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(sub)
			}
		})
	}
}

func (h *hub) publish(ev entity.SessionEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}

	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			h.dropped++
		}
	}
}

// publishTo delivers ev to a single subscriber channel returned by subscribe.
func (h *hub) publishTo(ch <-chan entity.SessionEvent, ev entity.SessionEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}

	for _, sub := range h.subs {
		if (<-chan entity.SessionEvent)(sub) != ch {
			continue
		}
		select {
		case sub <- ev:
		default:
			h.dropped++
		}
		return
	}
}

func (h *hub) droppedEvents() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dropped
}

func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
