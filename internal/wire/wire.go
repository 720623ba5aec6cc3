// Package wire provides dependency injection for stalker.
// A Container builds adapters and services once per invocation; the watcher is
// created lazily since only the run command needs it.
package wire

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	cliadapter "github.com/example/stalker/internal/adapters/cli"
	"github.com/example/stalker/internal/adapters/filesystem"
	"github.com/example/stalker/internal/adapters/fswatch"
	"github.com/example/stalker/internal/adapters/shell"
	"github.com/example/stalker/internal/app"
	"github.com/example/stalker/internal/config"
	"github.com/example/stalker/internal/logging"
	"github.com/example/stalker/internal/ports/primary"
)

// Container holds the wired application for one set of settings.
type Container struct {
	settings *config.Settings
	out      io.Writer
	logger   *slog.Logger
	reporter *cliadapter.ConsoleReporter
	store    *filesystem.ListStore
	expander *filesystem.Expander

	stalkerOnce    sync.Once
	stalkerService primary.StalkerService

	monitorOnce    sync.Once
	monitorService primary.MonitorService
	watcher        *fswatch.Watcher
	monitorErr     error
}

// New wires the adapters that every command needs. Outcomes are reported to out and
// errOut; diagnostics are logged to errOut.
func New(settings *config.Settings, out, errOut io.Writer) (*Container, error) {
	logger, err := logging.New(errOut, settings.LogLevel, settings.LogFormat)
	if err != nil {
		return nil, err
	}
	return &Container{
		settings: settings,
		out:      out,
		logger:   logger,
		reporter: cliadapter.NewConsoleReporter(out, errOut, settings.NoColor),
		store:    filesystem.NewListStore(),
		expander: filesystem.NewExpander(),
	}, nil
}

// Settings returns the settings the container was built from.
func (c *Container) Settings() *config.Settings {
	return c.settings
}

// Logger returns the diagnostic logger.
func (c *Container) Logger() *slog.Logger {
	return c.logger
}

// StalkerService returns the list management service.
func (c *Container) StalkerService() primary.StalkerService {
	c.stalkerOnce.Do(func() {
		c.stalkerService = app.NewStalkerService(c.store, c.expander, c.reporter)
	})
	return c.stalkerService
}

// StalkerAdapter returns a new StalkerAdapter writing hints to the container's output.
// Each call creates a new adapter (adapters are stateless translators).
func (c *Container) StalkerAdapter() *cliadapter.StalkerAdapter {
	return cliadapter.NewStalkerAdapter(c.StalkerService(), c.out)
}

// MonitorService returns the watch-and-execute service, creating the shared watcher
// and the shell runner on first use.
func (c *Container) MonitorService() (primary.MonitorService, error) {
	c.monitorOnce.Do(func() {
		runner, err := shell.NewRunner(c.settings.Shell)
		if err != nil {
			c.monitorErr = err
			return
		}
		watcher, err := fswatch.New(fswatch.Options{
			Debounce: c.settings.Debounce,
			Logger:   c.logger,
		})
		if err != nil {
			c.monitorErr = fmt.Errorf("failed to start watcher: %w", err)
			return
		}
		c.watcher = watcher

		executor := app.NewExecutor(runner, c.reporter)
		c.monitorService = app.NewMonitorService(c.store, c.expander, watcher, executor, c.reporter, c.logger)
	})
	return c.monitorService, c.monitorErr
}

// Close releases the watcher if one was created.
func (c *Container) Close() error {
	if c.watcher != nil {
		return c.watcher.Close()
	}
	return nil
}
