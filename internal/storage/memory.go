package storage

import "sync"

// Memory is the in-memory Collection, used in tests and as the throwaway
// STORAGE_BACKEND=memory mode.
type Memory[T any] struct {
	records []T
	mu      sync.Mutex
}

func NewMemory[T any]() *Memory[T] {
	return &Memory[T]{records: []T{}}
}

func (m *Memory[T]) Load() ([]T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]T, len(m.records))
	copy(out, m.records)
	return out, nil
}

func (m *Memory[T]) Save(records []T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.set(records)
	return nil
}

func (m *Memory[T]) Update(fn func(records []T) ([]T, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	in := make([]T, len(m.records))
	copy(in, m.records)

	records, err := fn(in)
	if err != nil {
		return err
	}
	m.set(records)
	return nil
}

func (m *Memory[T]) set(records []T) {
	m.records = make([]T, len(records))
	copy(m.records, records)
}
