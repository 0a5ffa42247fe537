// Package app wires configuration, storage, services and the MCP server
// into a running page builder.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"pagebuilder/internal/config"
	"pagebuilder/internal/document"
	"pagebuilder/internal/domain"
	"pagebuilder/internal/editor"
	mcpserver "pagebuilder/internal/mcp"
	"pagebuilder/internal/preview"
	"pagebuilder/internal/registry"
	"pagebuilder/internal/service"
	"pagebuilder/internal/storage"
	"pagebuilder/internal/templates"
)

// App owns every long-lived component. Build it with New, start background
// work with Startup and release everything with Shutdown.
type App struct {
	cfg    config.Config
	logger *slog.Logger

	store    domain.PageStore
	registry *registry.Registry
	catalog  *templates.DirCatalog
	pages    *service.PageService
	sessions *service.SessionManager
	pruner   *service.RevisionPruner
	watcher  *pageWatcher
	mcp      *mcpserver.Server
}

// New opens the store and builds the services. Nothing runs in the
// background until Startup.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	store, err := storage.Open(ctx, cfg.DBDriver, cfg.DBDSN, logger)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.DBDriver, err)
	}

	a, err := build(cfg, logger, store)
	if err != nil {
		store.Close()
		return nil, err
	}
	return a, nil
}

func build(cfg config.Config, logger *slog.Logger, store domain.PageStore) (*App, error) {
	reg := registry.Default()
	docs := document.NewEngine(reg)

	builtin, err := templates.Builtin(reg)
	if err != nil {
		return nil, fmt.Errorf("load built-in templates: %w", err)
	}
	catalog, err := templates.OpenDir(cfg.TemplatesDir, reg, builtin.List(), logger)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	renderer, err := preview.New()
	if err != nil {
		return nil, err
	}

	emitter := service.LogEmitter{Logger: logger}
	pages := service.NewPageService(store, docs, catalog, emitter, logger)
	sessions := service.NewSessionManager(store, docs, emitter, logger,
		editor.WithAutosaveDelay(cfg.AutosaveDelay),
	)

	return &App{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		registry: reg,
		catalog:  catalog,
		pages:    pages,
		sessions: sessions,
		pruner:   service.NewRevisionPruner(store, cfg.MaxRevisions, emitter, logger),
		watcher:  newPageWatcher(sessions, emitter, logger, watchInterval),
		mcp: mcpserver.New(mcpserver.Deps{
			Emitter:  emitter,
			Pages:    pages,
			Sessions: sessions,
			Registry: reg,
			Preview:  renderer,
			Logger:   logger,
			Sanitize: cfg.SanitizeInput,
		}),
	}, nil
}

// Startup schedules revision pruning and starts the template and page watchers.
func (a *App) Startup(ctx context.Context) error {
	if err := a.pruner.Start(a.cfg.PruneSchedule); err != nil {
		return err
	}
	if a.cfg.WatchTemplates {
		if err := a.catalog.Watch(ctx); err != nil {
			a.logger.Warn("[App] template watcher unavailable, changes need a restart", "dir", a.cfg.TemplatesDir, "error", err)
		}
	}
	a.watcher.Start(ctx)
	return nil
}

// Shutdown flushes open sessions and releases every resource.
func (a *App) Shutdown(ctx context.Context) {
	a.watcher.Stop()
	a.sessions.CloseAll(ctx)
	a.pruner.Stop()
	if err := a.catalog.Close(); err != nil {
		a.logger.Warn("[App] closing template watcher", "error", err)
	}
	if err := a.store.Close(); err != nil {
		a.logger.Warn("[App] closing store", "error", err)
	}
}

func (a *App) Pages() *service.PageService { return a.pages }

func (a *App) Sessions() *service.SessionManager { return a.sessions }

func (a *App) MCP() *mcpserver.Server { return a.mcp }
