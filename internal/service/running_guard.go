package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrPageBusy is returned when another guarded operation holds the page.
var ErrPageBusy = errors.New("page busy")

// ExportedPageGuard is an exported alias so _test packages can test the guard.
type ExportedPageGuard = pageGuard

// ─────────────────────────────────────────────────────────────
// pageGuard: one publish or close per page
// ─────────────────────────────────────────────────────────────

// pageGuard serializes the session operations that must not overlap on
// the same page and remembers which one holds it.
type pageGuard struct {
	mu       sync.Mutex
	holders  map[string]string
	inflight sync.WaitGroup
}

// Acquire claims pageID for op. The returned release must be called once.
// When the page is held the error names the holder and wraps ErrPageBusy.
func (g *pageGuard) Acquire(pageID, op string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if holder, ok := g.holders[pageID]; ok {
		return nil, fmt.Errorf("%s page %s: %s in progress: %w", op, pageID, holder, ErrPageBusy)
	}
	if g.holders == nil {
		g.holders = make(map[string]string)
	}
	g.holders[pageID] = op
	g.inflight.Add(1)

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.holders, pageID)
			g.mu.Unlock()
			g.inflight.Done()
		})
	}, nil
}

// Holder reports the operation currently holding pageID, or "".
func (g *pageGuard) Holder(pageID string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.holders[pageID]
}

// Drain waits for every held page to be released or for ctx to end.
func (g *pageGuard) Drain(ctx context.Context) {
	released := make(chan struct{})
	go func() {
		g.inflight.Wait()
		close(released)
	}()
	select {
	case <-released:
	case <-ctx.Done():
	}
}
