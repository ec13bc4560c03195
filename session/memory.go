package session

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

const memoryCleanupInterval = 10 * time.Minute

// MemoryBackend keeps records in process memory; expired entries are
// invisible immediately and purged by go-cache's janitor.
type MemoryBackend struct {
	records *cache.Cache
}

func NewMemoryBackend(defaultTTL time.Duration) *MemoryBackend {
	return &MemoryBackend{records: cache.New(defaultTTL, memoryCleanupInterval)}
}

func (m *MemoryBackend) Load(_ context.Context, id string) (Record, bool, error) {
	v, found := m.records.Get(id)
	if !found {
		return Record{}, false, nil
	}
	rec, ok := v.(Record)
	return rec, ok, nil
}

func (m *MemoryBackend) Save(_ context.Context, id string, rec Record, ttl time.Duration) error {
	m.records.Set(id, rec, ttl)
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, id string) error {
	m.records.Delete(id)
	return nil
}
