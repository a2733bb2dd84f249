package service

import (
	"context"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/atinyakov/winnermind/internal/repository"
)

// Freshness selects how a collection view stays current.
type Freshness int

const (
	// Pull fetches on start and on Refresh, and applies local mutations
	// optimistically. Changes by other actors appear on the next Refresh.
	Pull Freshness = iota
	// Live keeps a store subscription open and replaces the view with
	// every pushed snapshot.
	Live
)

func (f Freshness) String() string {
	if f == Live {
		return "live"
	}
	return "pull"
}

// feed is the in-memory view of one collection.
type feed[T any] struct {
	name      string
	mode      Freshness // guarded by mu once started
	idOf      func(T) string
	list      func(ctx context.Context) ([]T, error)
	subscribe func(ctx context.Context) (<-chan repository.Snapshot[T], error)
	log       *zap.Logger

	mu       sync.RWMutex
	items    []T
	watchers map[chan []T]struct{}
	started  bool
	closed   bool

	lifetime context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

func newFeed[T any](
	name string,
	mode Freshness,
	idOf func(T) string,
	list func(ctx context.Context) ([]T, error),
	subscribe func(ctx context.Context) (<-chan repository.Snapshot[T], error),
	log *zap.Logger,
) *feed[T] {
	lifetime, cancel := context.WithCancel(context.Background())
	return &feed[T]{
		name:      name,
		mode:      mode,
		idOf:      idOf,
		list:      list,
		subscribe: subscribe,
		log:       log.With(zap.String("feed", name), zap.Stringer("freshness", mode)),
		items:     []T{},
		watchers:  make(map[chan []T]struct{}),
		lifetime:  lifetime,
		cancel:    cancel,
	}
}

// start loads the view. In Live mode it opens the subscription and waits
// for the first snapshot or the end of ctx.
func (f *feed[T]) start(ctx context.Context) error {
	f.mu.Lock()
	if f.started || f.closed {
		f.mu.Unlock()
		return nil
	}
	f.started = true
	f.mu.Unlock()

	if f.freshness() == Pull {
		return f.refresh(ctx)
	}

	ch, err := f.subscribe(f.lifetime)
	if err != nil {
		return err
	}
	done := make(chan struct{})
	f.mu.Lock()
	f.done = done
	f.mu.Unlock()

	var firstErr error
	select {
	case snap, ok := <-ch:
		if ok {
			firstErr = snap.Err
			f.apply(snap)
		}
	case <-ctx.Done():
	}

	go func() {
		defer close(done)
		for snap := range ch {
			f.apply(snap)
		}
		f.degrade()
	}()
	return firstErr
}

// degrade switches a live feed whose subscription ended on its own to pull
// mode, so the view is refreshed on demand instead of staying frozen.
func (f *feed[T]) degrade() {
	if f.lifetime.Err() != nil {
		return
	}
	f.log.Warn("live subscription ended, falling back to pull")
	f.mu.Lock()
	f.mode = Pull
	f.mu.Unlock()
}

func (f *feed[T]) freshness() Freshness {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.mode
}

func (f *feed[T]) apply(snap repository.Snapshot[T]) {
	if snap.Err != nil {
		f.log.Warn("subscription snapshot failed, keeping last view", zap.Error(snap.Err))
		return
	}
	f.set(snap.Items)
}

func (f *feed[T]) refresh(ctx context.Context) error {
	items, err := f.list(ctx)
	if err != nil {
		return err
	}
	f.set(items)
	return nil
}

func (f *feed[T]) snapshot() []T {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return slices.Clone(f.items)
}

func (f *feed[T]) get(id string) (T, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, it := range f.items {
		if f.idOf(it) == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}

func (f *feed[T]) set(items []T) {
	f.mutate(func([]T) []T { return slices.Clone(items) })
}

func (f *feed[T]) mutate(fn func(items []T) []T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.items = fn(slices.Clone(f.items))
	if f.items == nil {
		f.items = []T{}
	}
	for w := range f.watchers {
		select {
		case <-w:
		default:
		}
		w <- slices.Clone(f.items)
	}
}

// prepend and append skip items already present, which a live snapshot
// may have delivered first.
func (f *feed[T]) prepend(item T) {
	f.mutate(func(items []T) []T {
		if f.contains(items, item) {
			return items
		}
		return append([]T{item}, items...)
	})
}

func (f *feed[T]) append(item T) {
	f.mutate(func(items []T) []T {
		if f.contains(items, item) {
			return items
		}
		return append(items, item)
	})
}

func (f *feed[T]) contains(items []T, item T) bool {
	return slices.ContainsFunc(items, func(it T) bool { return f.idOf(it) == f.idOf(item) })
}

func (f *feed[T]) replace(id string, fn func(T) T) {
	f.mutate(func(items []T) []T {
		for i, it := range items {
			if f.idOf(it) == id {
				items[i] = fn(it)
			}
		}
		return items
	})
}

func (f *feed[T]) remove(id string) {
	f.mutate(func(items []T) []T {
		return slices.DeleteFunc(items, func(it T) bool { return f.idOf(it) == id })
	})
}

// watch returns a channel receiving the current view and then every change.
// Delivery is latest-wins. The channel closes when ctx ends or the feed
// closes.
func (f *feed[T]) watch(ctx context.Context) <-chan []T {
	ch := make(chan []T, 1)
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		close(ch)
		return ch
	}
	f.watchers[ch] = struct{}{}
	ch <- slices.Clone(f.items)
	f.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
		case <-f.lifetime.Done():
		}
		f.mu.Lock()
		if _, ok := f.watchers[ch]; ok {
			delete(f.watchers, ch)
			close(ch)
		}
		f.mu.Unlock()
	}()
	return ch
}

// close tears down the subscription and every watcher.
func (f *feed[T]) close() {
	f.cancel()
	f.mu.RLock()
	done := f.done
	f.mu.RUnlock()
	if done != nil {
		<-done
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	for w := range f.watchers {
		delete(f.watchers, w)
		close(w)
	}
}
