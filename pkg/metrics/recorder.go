package metrics

import "sync"

// MemoryRecorder is a Recorder for tests. It keeps per-name counts and is
// safe for concurrent use.
type MemoryRecorder struct {
	mu     sync.Mutex
	counts map[string]int64
}

func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{counts: make(map[string]int64)}
}

func (r *MemoryRecorder) Inc(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[name]++
}

func (r *MemoryRecorder) Count(name string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[name]
}

// NopRecorder discards all increments.
type NopRecorder struct{}

func (NopRecorder) Inc(string) {}
