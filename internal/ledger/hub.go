package ledger

import "sync"

// Hub fans snapshots out to per-owner subscribers. Channels are buffered with
// capacity one and a newer snapshot replaces an unconsumed older one, so a
// slow consumer always wakes up to the latest state and never blocks a write.
type Hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]chan Snapshot
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[int]chan Snapshot)}
}

func (h *Hub) Subscribe(ownerID string) (chan Snapshot, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan Snapshot, 1)
	if h.subs[ownerID] == nil {
		h.subs[ownerID] = make(map[int]chan Snapshot)
	}
	h.subs[ownerID][id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if owners, ok := h.subs[ownerID]; ok {
			delete(owners, id)
			if len(owners) == 0 {
				delete(h.subs, ownerID)
			}
		}
	}
	return ch, cancel
}

func (h *Hub) HasSubscribers(ownerID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[ownerID]) > 0
}

func (h *Hub) Publish(ownerID string, snap Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs[ownerID] {
		select {
		case ch <- snap:
		default:
			// Replace the stale pending snapshot.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}
