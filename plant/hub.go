package plant

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"pwrsim/deque"
)

// Hub fans published snapshots out to subscribers. A slow subscriber loses
// snapshots rather than stalling the step loop. The most recent snapshots
// are kept and replayed to late subscribers.
type Hub struct {
	mu      sync.Mutex
	subs    map[int]chan Snapshot
	nextID  int
	backlog *deque.ListDeque[Snapshot]
	dropped int
	closed  bool
}

func NewHub(backlog int) *Hub {
	h := &Hub{subs: make(map[int]chan Snapshot)}
	if backlog > 0 {
		h.backlog = deque.NewListDeque[Snapshot](backlog)
	}
	return h
}

// Subscribe returns a channel of snapshots and a cancel func. The channel is
// closed by cancel or when the hub closes.
func (h *Hub) Subscribe(buffer int) (<-chan Snapshot, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	size := buffer
	if h.backlog != nil {
		size += h.backlog.Size()
	}
	ch := make(chan Snapshot, size)
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	if h.backlog != nil {
		h.backlog.Traverse(func(_ int, s Snapshot) {
			ch <- s
		})
	}
	id := h.nextID
	h.nextID++
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if c, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(c)
			}
		})
	}
}

func (h *Hub) Publish(s Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	if h.backlog != nil {
		deque.PushWindow[Snapshot](h.backlog, s)
	}
	for id, ch := range h.subs {
		select {
		case ch <- s:
		default:
			h.dropped++
			log.WithFields(log.Fields{
				"subscriber": id,
				"step":       s.Step,
			}).Debug("subscriber full, snapshot dropped")
		}
	}
}

// Dropped counts snapshots not delivered to full subscribers.
func (h *Hub) Dropped() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dropped
}

func (h *Hub) Close() {
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
