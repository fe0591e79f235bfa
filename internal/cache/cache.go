// Package cache provides core.Cache implementations for parsed delivery
// tables: a no-op, an in-process map, and a Postgres snapshot store that
// survives restarts.
package cache

import "github.com/JonMunkholm/pesquisa/internal/core"

var (
	_ core.Cache = Nop{}
	_ core.Cache = (*Memory)(nil)
	_ core.Cache = (*Postgres)(nil)
)
