package statree

import "sync"

// recorder collects every value a subscription delivers, in order.
type recorder struct {
	mu     sync.Mutex
	values []any
}

func (r *recorder) fn(v any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, v)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.values)
}

func (r *recorder) at(i int) any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.values[i]
}

func (r *recorder) last() any {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.values) == 0 {
		return nil
	}
	return r.values[len(r.values)-1]
}
