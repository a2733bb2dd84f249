package docstore

import (
	"context"
	"sync"
)

type fetchFunc func(ctx context.Context, q Query) ([]Document, error)

// hub fans out collection changes to subscribers. After each change every
// subscriber of the collection re-runs its query and receives the result.
type hub struct {
	fetch fetchFunc

	mu   sync.Mutex
	subs map[*subscriber]struct{}
	done chan struct{}
	once sync.Once

	// publishMu serializes fetch+deliver so snapshots are delivered in the
	// order the writes happened.
	publishMu sync.Mutex
}

type subscriber struct {
	ctx context.Context
	q   Query

	mu     sync.Mutex
	ch     chan Snapshot
	closed bool
}

func newHub(fetch fetchFunc) *hub {
	return &hub{
		fetch: fetch,
		subs:  make(map[*subscriber]struct{}),
		done:  make(chan struct{}),
	}
}

func (h *hub) subscribe(ctx context.Context, q Query) (<-chan Snapshot, error) {
	sub := &subscriber{ctx: ctx, q: q, ch: make(chan Snapshot, 1)}

	h.mu.Lock()
	select {
	case <-h.done:
		h.mu.Unlock()
		sub.close()
		return sub.ch, nil
	default:
	}
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	h.publishMu.Lock()
	h.refresh(sub)
	h.publishMu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
		case <-h.done:
		}
		h.remove(sub)
	}()
	return sub.ch, nil
}

// publish notifies the subscribers of collection.
func (h *hub) publish(collection string) {
	h.publishMu.Lock()
	defer h.publishMu.Unlock()

	h.mu.Lock()
	targets := make([]*subscriber, 0, len(h.subs))
	for sub := range h.subs {
		if sub.q.Collection == collection {
			targets = append(targets, sub)
		}
	}
	h.mu.Unlock()

	for _, sub := range targets {
		h.refresh(sub)
	}
}

// publishAll notifies every subscriber.
func (h *hub) publishAll() {
	h.mu.Lock()
	cols := make(map[string]struct{})
	for sub := range h.subs {
		cols[sub.q.Collection] = struct{}{}
	}
	h.mu.Unlock()

	for col := range cols {
		h.publish(col)
	}
}

func (h *hub) refresh(sub *subscriber) {
	docs, err := h.fetch(sub.ctx, sub.q)
	if sub.ctx.Err() != nil {
		return
	}
	sub.deliver(Snapshot{Docs: docs, Err: err})
}

func (h *hub) remove(sub *subscriber) {
	h.mu.Lock()
	delete(h.subs, sub)
	h.mu.Unlock()
	sub.close()
}

func (h *hub) close() {
	h.once.Do(func() {
		h.mu.Lock()
		close(h.done)
		h.mu.Unlock()
	})
}

// deliver replaces any undelivered snapshot with snap.
func (s *subscriber) deliver(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case <-s.ch:
	default:
	}
	s.ch <- snap
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}
