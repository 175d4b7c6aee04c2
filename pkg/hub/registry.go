package hub

import "sync"

type regOp[T comparable] struct {
	item T
	add  bool
}

// registry is one collection swept by the dispatcher. Any goroutine may add
// or request removal; both are queued under the lock in the order they were
// made. The dispatcher applies the queue before and after sweeping the
// collection, never during, so a sweep never sees its collection change.
type registry[T comparable] struct {
	mu  sync.Mutex
	ops []regOp[T]

	// items is only touched by the dispatcher.
	items []T
}

func (r *registry[T]) add(x T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, regOp[T]{item: x, add: true})
}

func (r *registry[T]) remove(x T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, regOp[T]{item: x})
}

// apply replays the queued additions and removals onto items.
func (r *registry[T]) apply() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, op := range r.ops {
		if op.add {
			if !contains(r.items, op.item) {
				r.items = append(r.items, op.item)
			}
			continue
		}
		r.items = without(r.items, op.item)
	}
	clear(r.ops)
	r.ops = r.ops[:0]
}

// drain applies the queue, empties the registry and returns what it held.
func (r *registry[T]) drain() []T {
	r.apply()

	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.items
	r.items = nil
	return all
}

func contains[T comparable](s []T, x T) bool {
	for _, y := range s {
		if y == x {
			return true
		}
	}
	return false
}

func without[T comparable](s []T, x T) []T {
	out := s[:0]
	for _, y := range s {
		if y != x {
			out = append(out, y)
		}
	}
	clear(s[len(out):])
	return out
}
