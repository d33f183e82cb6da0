package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrOffline is returned when no engine has been built yet
var ErrOffline = errors.New("recommendation engine is offline")

// BuildFunc produces a complete new engine
type BuildFunc func(ctx context.Context) (*Engine, error)

// Holder publishes the current engine. A rebuild produces a whole new
// engine and replaces the old one with a single atomic store; readers
// keep whatever engine they loaded.
type Holder struct {
	current atomic.Pointer[Engine]
	lastErr atomic.Pointer[error]

	rebuildMu sync.Mutex
}

func NewHolder(e *Engine) *Holder {
	h := &Holder{}
	if e != nil {
		h.current.Store(e)
	}
	return h
}

// Load returns the current engine or ErrOffline
func (h *Holder) Load() (*Engine, error) {
	if e := h.current.Load(); e != nil {
		return e, nil
	}
	return nil, ErrOffline
}

func (h *Holder) Store(e *Engine) {
	h.current.Store(e)
}

// SetError records why the engine is unavailable
func (h *Holder) SetError(err error) {
	h.lastErr.Store(&err)
}

// LastError returns the last build failure, if any
func (h *Holder) LastError() error {
	if p := h.lastErr.Load(); p != nil {
		return *p
	}
	return nil
}

// Rebuild runs build and swaps the result in. On failure the previous
// engine stays in place. Concurrent rebuilds are serialised.
func (h *Holder) Rebuild(ctx context.Context, build BuildFunc) (*Engine, error) {
	h.rebuildMu.Lock()
	defer h.rebuildMu.Unlock()

	e, err := build(ctx)
	if err != nil {
		h.SetError(err)
		return nil, err
	}
	h.current.Store(e)
	h.lastErr.Store(nil)
	return e, nil
}
