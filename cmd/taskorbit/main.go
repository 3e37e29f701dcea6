package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"taskorbit/internal/api"
	"taskorbit/internal/app"
	"taskorbit/internal/config"
	"taskorbit/internal/history"
	"taskorbit/internal/i18n"
	"taskorbit/internal/lifecycle"
	"taskorbit/internal/logging"
	"taskorbit/internal/recurring"
	"taskorbit/internal/session"
	"taskorbit/internal/tasklog"
	"taskorbit/internal/ui"
	"taskorbit/internal/view"
)

func main() {
	if err := run(); err != nil {
		fmt.Printf("%v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := config.ResolveConfigPath()
	cfg, err := config.LoadOrCreate(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	timeout, err := cfg.Timeout()
	if err != nil {
		return fmt.Errorf("invalid request timeout: %w", err)
	}

	logger, flush, err := logging.New(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to open log: %w", err)
	}
	defer flush()
	logger.Info("starting", zap.String("config", configPath), zap.String("api", cfg.APIBaseURL))

	cat, err := i18n.New(cfg.Language)
	if err != nil {
		return fmt.Errorf("failed to load messages: %w", err)
	}

	store, err := session.OpenSQLite(cfg.StateDBPath)
	if err != nil {
		return fmt.Errorf("failed to open state database: %w", err)
	}
	defer store.Close()

	tokens := session.NewTokenSource(store)
	client, err := api.New(api.Options{
		BaseURL: cfg.APIBaseURL,
		Tokens:  tokens,
		Timeout: timeout,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	bridge := ui.NewBridge()
	var ws *app.Workspace
	templates := recurring.New(client, recurring.ReloadFunc(func(ctx context.Context) error {
		return ws.Reload(ctx)
	}), bridge)
	ws = app.New(client, templates, store, store, bridge, view.ID(cfg.DefaultView))
	ws.OnChange(bridge.Publish)

	deps := ui.Deps{
		Workspace: ws,
		Tasks:     lifecycle.New(client, ws, bridge),
		Templates: templates,
		Logs:      tasklog.New(client, ws, bridge),
		History:   history.New(client, ws, bridge),
		Catalog:   cat,
		Bridge:    bridge,
		Keys:      cfg.Keys,
		SignedIn:  tokens.Active(),
	}
	if err := ui.Run(deps); err != nil {
		logger.Error("program exited", zap.Error(err))
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}
