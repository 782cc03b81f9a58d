// Package store persists named JSON values on a pluggable key-value backend.
//
// Reads never fail: a missing, unreadable or corrupt value yields the
// caller's default. Writes are a single best-effort attempt whose failure is
// logged and reported as false, leaving the in-memory state authoritative.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
)

// ErrNotFound is returned by a Backend when no value is stored under a key.
var ErrNotFound = errors.New("store: key not found")

// Backend is durable byte storage keyed by name.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// Adapter serializes values to JSON on top of a Backend.
type Adapter struct {
	backend Backend
	log     *slog.Logger
}

// New creates an Adapter. A nil logger uses slog.Default().
func New(backend Backend, log *slog.Logger) *Adapter {
	if log == nil {
		log = slog.Default()
	}
	return &Adapter{backend: backend, log: log}
}

// Write stores v under key and reports whether it succeeded.
func (a *Adapter) Write(ctx context.Context, key string, v any) bool {
	data, err := json.Marshal(v)
	if err != nil {
		a.log.Error("encode stored value", "key", key, "error", err)
		return false
	}
	if err := a.backend.Set(ctx, key, data); err != nil {
		a.log.Error("write stored value", "key", key, "error", err)
		return false
	}
	return true
}

// Close releases the backend.
func (a *Adapter) Close() error {
	return a.backend.Close()
}

// Read loads the value stored under key into a fresh T, or returns def.
func Read[T any](ctx context.Context, a *Adapter, key string, def T) T {
	data, err := a.backend.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			a.log.Warn("read stored value, using default", "key", key, "error", err)
		}
		return def
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		a.log.Warn("corrupt stored value, using default", "key", key, "error", err)
		return def
	}
	return v
}

// Value binds a key and a default to an Adapter.
type Value[T any] struct {
	adapter *Adapter
	key     string
	def     T
}

func NewValue[T any](a *Adapter, key string, def T) *Value[T] {
	return &Value[T]{adapter: a, key: key, def: def}
}

func (v *Value[T]) Load(ctx context.Context) T {
	return Read(ctx, v.adapter, v.key, v.def)
}

func (v *Value[T]) Save(ctx context.Context, x T) bool {
	return v.adapter.Write(ctx, v.key, x)
}
