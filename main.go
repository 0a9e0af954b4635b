// Package main provides the entry point for the Ottermap application.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"ottermap/internal/app"
	"ottermap/internal/config"
	"ottermap/internal/logging"
	"ottermap/internal/metrics"
	"ottermap/internal/version"
	"ottermap/ui/mainwindow"
	"ottermap/ui/prefs"

	fyneapp "fyne.io/fyne/v2/app"
)

const appID = "io.github.ottermap"

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "ottermap: %v\n", err)
		os.Exit(2)
	}

	logger := logging.Setup(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	logger.Info("starting", "version", version.String(), "config", cfg.Path)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collector, err := metrics.New(nil)
	if err != nil {
		logger.Error("registering metrics", "error", err)
		os.Exit(1)
	}
	if cfg.Metrics.Listen != "" {
		go func() {
			if err := collector.Serve(ctx, cfg.Metrics.Listen, logger.With("component", "metrics")); err != nil {
				logger.Error("metrics server", "error", err)
			}
		}()
	}

	state, err := app.NewState(cfg, logger, collector)
	if err != nil {
		logger.Error("creating application state", "error", err)
		os.Exit(1)
	}

	fyneApp := fyneapp.NewWithID(appID)
	fyneApp.Settings().SetTheme(&app.Theme{})

	win := mainwindow.New(fyneApp, state, prefs.Load())

	reloader := setupConfigReload(state, cfg, logger)
	if reloader != nil {
		defer reloader.Stop()
	}

	go func() {
		<-ctx.Done()
		logger.Info("signal received, quitting")
		fyneApp.Quit()
	}()

	win.ShowAndRun()
	state.CloseMap()
	logger.Info("stopped")
}

// setupConfigReload applies edits of the config file while running.
func setupConfigReload(state *app.State, cfg *config.Config, logger *slog.Logger) *app.ConfigReloader {
	reloader, err := app.NewConfigReloader(cfg, logger.With("component", "reload"))
	if err != nil {
		logger.Warn("config reload disabled", "error", err)
		return nil
	}
	reloader.OnReload(func(cfg *config.Config) {
		if err := state.ApplyConfig(cfg); err != nil {
			logger.Warn("applying reloaded config", "error", err)
		}
	})
	reloader.OnError(func(err error) {
		logger.Warn("reloading config", "path", reloader.Path(), "error", err)
	})
	if err := reloader.Start(); err != nil {
		logger.Warn("config reload disabled", "path", reloader.Path(), "error", err)
		_ = reloader.Stop()
		return nil
	}
	return reloader
}
