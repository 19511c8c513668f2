package taskverse

import "sync"

// RefetchSignal is the single cache-invalidation primitive: a
// monotonically advancing generation that data-fetching surfaces watch
// to learn their cached results are stale after a mutation. It is
// "fire and observe", not a lock; each Bump notifies every watcher
// exactly once.
type RefetchSignal struct {
	mu       sync.Mutex
	gen      uint64
	nextSub  int
	watchers map[int]func(gen uint64)
}

func NewRefetchSignal() *RefetchSignal {
	return &RefetchSignal{watchers: map[int]func(uint64){}}
}

// Generation returns the current generation. Watchers compare it with
// the generation of their cached data.
func (r *RefetchSignal) Generation() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gen
}

// Bump marks all cached results stale. Call it once per mutation
// (job created/updated/deleted, task accepted/removed).
func (r *RefetchSignal) Bump() uint64 {
	r.mu.Lock()
	r.gen++
	gen := r.gen
	watchers := make([]func(uint64), 0, len(r.watchers))
	for _, fn := range r.watchers {
		watchers = append(watchers, fn)
	}
	r.mu.Unlock()

	for _, fn := range watchers {
		fn(gen)
	}
	return gen
}

// Watch registers an invalidation observer and returns its cancel
// function.
func (r *RefetchSignal) Watch(fn func(gen uint64)) func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextSub
	r.nextSub++
	r.watchers[id] = fn

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.watchers, id)
	}
}
