package sequence

import (
	"context"
	"sync"
)

// MemoryCounter is a process-local Counter. It backs service tests and
// dry runs; the server always uses the table-backed counter.
type MemoryCounter struct {
	mu     sync.Mutex
	values map[string]int64
}

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{values: map[string]int64{}}
}

func (m *MemoryCounter) Next(_ context.Context, scope string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[scope]++
	return m.values[scope], nil
}

func (m *MemoryCounter) Seed(_ context.Context, scope string, value int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if value > m.values[scope] {
		m.values[scope] = value
	}
	return nil
}

// Value returns the last value handed out for scope.
func (m *MemoryCounter) Value(scope string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[scope]
}
