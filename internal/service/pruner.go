package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"pagebuilder/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Revision Pruner: keeps the newest N revisions of every page
// ─────────────────────────────────────────────────────────────

type RevisionPruner struct {
	store   domain.PageStore
	keep    int
	emitter EventEmitter
	logger  *slog.Logger

	mu        sync.Mutex
	cronSched *cron.Cron
}

func NewRevisionPruner(store domain.PageStore, keep int, emitter EventEmitter, logger *slog.Logger) *RevisionPruner {
	return &RevisionPruner{store: store, keep: keep, emitter: emitter, logger: logger}
}

// RunOnce prunes now and returns how many revisions were deleted.
func (p *RevisionPruner) RunOnce(ctx context.Context) (int, error) {
	n, err := p.store.PruneRevisions(ctx, p.keep)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		p.logger.Info("[Pruner] deleted revisions", "count", n, "keep", p.keep)
		p.emitter.Emit(ctx, EventPruned, map[string]int{"deleted": n, "keep": p.keep})
	}
	return n, nil
}

// Start schedules RunOnce with a cron spec. An empty spec or keep <= 0
// leaves pruning off. Calling Start again replaces the schedule.
func (p *RevisionPruner) Start(spec string) error {
	p.Stop()
	if spec == "" || p.keep <= 0 {
		return nil
	}
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := p.RunOnce(ctx); err != nil {
			p.logger.Error("[Pruner] run failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid prune schedule %q: %w", spec, err)
	}
	c.Start()

	p.mu.Lock()
	p.cronSched = c
	p.mu.Unlock()
	p.logger.Info("[Pruner] scheduled", "schedule", spec, "keep", p.keep)
	return nil
}

// Stop cancels the schedule and waits for a running prune to finish.
func (p *RevisionPruner) Stop() {
	p.mu.Lock()
	c := p.cronSched
	p.cronSched = nil
	p.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
}
