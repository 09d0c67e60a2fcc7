package store

import (
	"context"
	"sync"

	"github.com/conneroisu/abacus/internal/api"
)

// MemoryStore implements Store in memory. Entries are lost on exit.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []api.HistoryEntry
	nextID  int64
	opts    options
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{nextID: 1, opts: buildOptions(opts)}
}

func (m *MemoryStore) Add(_ context.Context, expression, result, mode string) (api.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := api.HistoryEntry{
		ID:         m.nextID,
		Expression: expression,
		Result:     result,
		Mode:       mode,
		CreatedAt:  m.opts.clock().Format(api.CreatedAtLayout),
	}
	m.nextID++
	m.entries = append(m.entries, entry)
	return entry, nil
}

func (m *MemoryStore) List(_ context.Context, limit int) ([]api.HistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	limit = effectiveLimit(limit)
	out := make([]api.HistoryEntry, 0, min(limit, len(m.entries)))
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.entries[i])
	}
	return out, nil
}

// Clear deletes every entry. IDs keep increasing afterwards, as with an
// AUTOINCREMENT column.
func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = nil
	return nil
}

func (m *MemoryStore) Stats(_ context.Context) (api.StatsSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := api.StatsSnapshot{Total: len(m.entries)}
	if n := len(m.entries); n > 0 {
		last := m.entries[n-1].CreatedAt
		stats.Last = &last
	}
	return stats, nil
}

func (m *MemoryStore) Close() error {
	return nil
}
