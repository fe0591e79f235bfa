package cache

import (
	"context"

	"github.com/JonMunkholm/pesquisa/internal/core"
)

// Nop never stores anything; every load parses the source again.
type Nop struct{}

func (Nop) Get(context.Context, core.CacheKey) (core.CacheEntry, bool, error) {
	return core.CacheEntry{}, false, nil
}

func (Nop) Put(context.Context, core.CacheKey, core.CacheEntry) error {
	return nil
}
