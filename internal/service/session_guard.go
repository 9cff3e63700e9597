package service

import (
	"context"
	"sync"
)

// SessionGuard hands out strictly increasing query tokens. Only the latest token is current; work
// started under an older token must discard its results.
type SessionGuard struct {
	mu      sync.Mutex
	current uint64
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewSessionGuard returns a guard whose current token is 0, meaning no load has started yet.
func NewSessionGuard() *SessionGuard {
	ctx, cancel := context.WithCancel(context.Background())
	return &SessionGuard{ctx: ctx, cancel: cancel}
}

// Advance mints a new current token and cancels contexts bound to the previous one.
func (g *SessionGuard) Advance() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cancel()
	g.current++
	g.ctx, g.cancel = context.WithCancel(context.Background())
	return g.current
}

// Current returns the current token.
func (g *SessionGuard) Current() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current
}

// IsCurrent reports whether token is still the current one.
func (g *SessionGuard) IsCurrent(token uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return token == g.current
}

// Bind derives a context from parent that is also cancelled once token is superseded. Cancellation
// only saves work; callers still compare tokens before committing.
func (g *SessionGuard) Bind(parent context.Context, token uint64) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	g.mu.Lock()
	if token != g.current {
		g.mu.Unlock()
		cancel()
		return ctx, cancel
	}
	tokenCtx := g.ctx
	g.mu.Unlock()

	stop := context.AfterFunc(tokenCtx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// Close supersedes the current token without issuing work under the new one.
func (g *SessionGuard) Close() {
	g.Advance()
}
