package cache

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/JonMunkholm/pesquisa/internal/core"
)

type memoryEntry struct {
	fingerprint string
	entry       core.CacheEntry
}

// Memory keeps the latest parsed table per source in process memory.
//
// Readers load the current map without locking. Writers copy the map,
// replace the source's entry and swap the pointer, so a new fingerprint
// evicts the previous table for that source.
type Memory struct {
	entries atomic.Pointer[map[string]memoryEntry]
	writeMu sync.Mutex

	hits   atomic.Int64
	misses atomic.Int64
}

// NewMemory returns an empty Memory cache.
func NewMemory() *Memory {
	m := &Memory{}
	empty := make(map[string]memoryEntry)
	m.entries.Store(&empty)
	return m
}

// Get implements core.Cache.
func (m *Memory) Get(_ context.Context, key core.CacheKey) (core.CacheEntry, bool, error) {
	e, ok := (*m.entries.Load())[key.Source]
	if !ok || e.fingerprint != key.Fingerprint {
		m.misses.Add(1)
		return core.CacheEntry{}, false, nil
	}
	m.hits.Add(1)
	return e.entry, true, nil
}

// Put implements core.Cache.
func (m *Memory) Put(_ context.Context, key core.CacheKey, entry core.CacheEntry) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	current := *m.entries.Load()
	next := make(map[string]memoryEntry, len(current)+1)
	for k, v := range current {
		next[k] = v
	}
	next[key.Source] = memoryEntry{fingerprint: key.Fingerprint, entry: entry}
	m.entries.Store(&next)
	return nil
}

// Len returns the number of sources cached.
func (m *Memory) Len() int {
	return len(*m.entries.Load())
}

// Stats reports hit and miss counts since creation.
type Stats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Sources int   `json:"sources"`
}

// Stats returns a snapshot of the cache counters.
func (m *Memory) Stats() Stats {
	return Stats{Hits: m.hits.Load(), Misses: m.misses.Load(), Sources: m.Len()}
}
