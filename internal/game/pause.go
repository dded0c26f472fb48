package game

import (
	"context"
	"sync"
)

// Gate is the global pause gate. Suspension points call Wait before touching
// the engine; while the gate is paused they block until Resume. Pausing
// never interrupts an in-flight mutation, it only delays the next one.
//
// Each waiter gets its own channel so cancellation can clear one waiter
// without losing another if two pause/resume cycles race.
type Gate struct {
	mu      sync.Mutex
	paused  bool
	waiters map[chan struct{}]struct{}
}

// NewGate creates an open gate
func NewGate() *Gate {
	return &Gate{
		waiters: make(map[chan struct{}]struct{}),
	}
}

// Pause closes the gate. Idempotent.
func (g *Gate) Pause() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.paused = true
}

// Resume opens the gate and releases every pending waiter. Idempotent.
func (g *Gate) Resume() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.paused = false
	for ch := range g.waiters {
		close(ch)
		delete(g.waiters, ch)
	}
}

// Paused reports whether the gate is closed
func (g *Gate) Paused() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.paused
}

// Wait blocks while the gate is paused. It returns nil as soon as the gate
// is open, or the context error if the waiter is cancelled first. A
// cancelled waiter is removed immediately, leaving no orphaned continuation.
func (g *Gate) Wait(ctx context.Context) error {
	g.mu.Lock()
	if !g.paused {
		g.mu.Unlock()
		return nil
	}
	ch := make(chan struct{})
	g.waiters[ch] = struct{}{}
	g.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		g.mu.Lock()
		delete(g.waiters, ch)
		g.mu.Unlock()
		return ctx.Err()
	}
}
