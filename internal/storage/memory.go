package storage

import (
	"context"
	"sync"
)

// MemoryContacts — хранилище в памяти, когда DB_DSN не задан.
type MemoryContacts struct {
	mu    sync.RWMutex
	items []Contact
}

func NewMemoryContacts() *MemoryContacts {
	return &MemoryContacts{}
}

func (m *MemoryContacts) Save(ctx context.Context, c Contact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, c)
	return nil
}

func (m *MemoryContacts) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items), nil
}

// All возвращает копию сохранённых заявок.
func (m *MemoryContacts) All() []Contact {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Contact, len(m.items))
	copy(out, m.items)
	return out
}
