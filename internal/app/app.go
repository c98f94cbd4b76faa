// Package app wires the engine together and owns its lifecycle.
package app

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/sadopc/sidedock/internal/clock"
	"github.com/sadopc/sidedock/internal/config"
	"github.com/sadopc/sidedock/internal/export"
	"github.com/sadopc/sidedock/internal/focus"
	"github.com/sadopc/sidedock/internal/notify"
	"github.com/sadopc/sidedock/internal/reminder"
	"github.com/sadopc/sidedock/internal/rollover"
	"github.com/sadopc/sidedock/internal/store"
	"github.com/sadopc/sidedock/internal/tasks"
)

// App is the application context: everything that would otherwise be
// process-global state lives here.
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Store     *store.Store
	Clock     clock.Clock
	Tasks     *tasks.Service
	Rollover  *rollover.Engine
	Reminders *reminder.Scheduler
	Focus     *focus.Timer
	Bell      *notify.Bell
}

type options struct {
	clock    clock.Clock
	store    *store.Store
	notifier reminder.Notifier
}

type Option func(*options)

func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithStore uses an already open store instead of opening Config.DBPath.
func WithStore(s *store.Store) Option {
	return func(o *options) { o.store = s }
}

func WithNotifier(n reminder.Notifier) Option {
	return func(o *options) { o.notifier = n }
}

// Open opens the store, wires every component, restores the focus timer and
// runs the first activation.
func Open(cfg *config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	o := options{clock: clock.System()}
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := o.store
	if s == nil {
		var err error
		s, err = store.New(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
	}
	s.SetClock(o.clock)

	a := &App{
		Config: cfg,
		Logger: logger,
		Store:  s,
		Clock:  o.clock,
		Bell:   notify.NewBell(),
	}
	notifier := o.notifier
	if notifier == nil {
		notifier = notify.NewDesktop(s, cfg.Notifications, logger.With("component", "notify"))
	}

	a.Tasks = tasks.New(s, o.clock,
		tasks.WithLogger(logger.With("component", "tasks")),
		tasks.WithMaxPins(cfg.MaxPins),
	)
	a.Rollover = rollover.New(s, o.clock,
		rollover.WithLogger(logger.With("component", "rollover")),
		rollover.WithRetentionDays(cfg.RetentionDays),
	)
	a.Reminders = reminder.New(s, a.Tasks, o.clock,
		reminder.WithLogger(logger.With("component", "reminder")),
		reminder.WithNotifier(notifier),
		reminder.WithAudio(a.Bell),
	)
	a.Focus = focus.New(s, o.clock, logger.With("component", "focus"))

	a.Tasks.OnChange(a.reschedule)
	a.Rollover.OnChange(a.reschedule)

	if err := a.Focus.Load(); err != nil {
		s.Close()
		return nil, err
	}
	if err := a.Activate(); err != nil {
		s.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) reschedule() {
	if err := a.Reminders.ScheduleNext(); err != nil {
		a.Logger.Error("schedule reminders", "err", err)
	}
}

// Activate runs on startup and whenever the app returns to the foreground
// or notices a new day: rollover, retention sweep, reminder rescan.
func (a *App) Activate() error {
	if err := a.Rollover.Activate(); err != nil {
		return fmt.Errorf("rollover: %w", err)
	}
	return a.Reminders.ScheduleNext()
}

// Today is the current day key.
func (a *App) Today() string {
	return clock.Today(a.Clock)
}

// Import replaces all data with the contents of a JSON export.
func (a *App) Import(path string) (int, error) {
	n, err := export.FromJSON(a.Store, path)
	if err != nil {
		return 0, err
	}
	a.Logger.Info("imported data", "path", path, "days", n)
	return n, a.reload()
}

// Clear wipes days, meta, focus sessions and completion logs.
func (a *App) Clear() error {
	if err := a.Store.ClearAll(); err != nil {
		return err
	}
	a.Logger.Warn("all data cleared")
	return a.reload()
}

// reload brings in-memory components back in line after a bulk replace.
func (a *App) reload() error {
	if err := a.Focus.Load(); err != nil {
		return err
	}
	return a.Activate()
}

// Close cancels the reminder timer and closes the store.
func (a *App) Close() error {
	a.Reminders.Close()
	return a.Store.Close()
}

// NewLogger returns a text logger at the named level (DEBUG, INFO, WARN,
// ERROR). Unknown names fall back to INFO.
func NewLogger(levelStr string, w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		level = slog.LevelDebug
	case "INFO":
		level = slog.LevelInfo
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// OpenLogFile opens path for appending, creating its directory.
func OpenLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}
