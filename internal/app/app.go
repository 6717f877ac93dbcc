package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"github.com/dori/todoql/internal/agenda"
	"github.com/dori/todoql/internal/api"
	"github.com/dori/todoql/internal/config"
	"github.com/dori/todoql/internal/db"
	"github.com/dori/todoql/internal/logger"
	"github.com/dori/todoql/internal/model"
	"github.com/dori/todoql/internal/notify"
	"github.com/dori/todoql/internal/reconcile"
	"github.com/dori/todoql/internal/session"
	"github.com/dori/todoql/internal/store"
)

// ErrAlreadyRunning is returned when another TUI holds the lock
var ErrAlreadyRunning = errors.New("another instance of todoql is already running")

// App holds the application state and dependencies
type App struct {
	Config     *config.Config
	DB         *db.DB
	Log        *zap.Logger
	Session    *session.Session
	Client     *api.Client
	Store      *store.Store
	Reconciler *reconcile.Reconciler
	Notifier   *notify.Notifier

	lockFile *flock.Flock
}

// Options tune New
type Options struct {
	// Lock takes the single-instance lock; only the TUI needs it
	Lock bool
	// Notifier overrides the desktop notifier
	Notifier *notify.Notifier
}

// New creates a new application instance
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("missing configuration")
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	a := &App{Config: cfg, Notifier: opts.Notifier}
	if a.Notifier == nil {
		a.Notifier = notify.NewNotifier(nil)
	}

	if opts.Lock {
		if err := a.acquireLock(); err != nil {
			return nil, err
		}
	}

	log, err := newLogger(cfg)
	if err != nil {
		a.releaseLock()
		return nil, err
	}
	a.Log = log

	database, err := db.Open(cfg.DBPath())
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a.DB = database

	sess, err := session.New(ctx, database)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Session = sess

	client, err := api.New(api.Options{
		Endpoint: cfg.Endpoint,
		Timeout:  cfg.RequestTimeout,
		Tokens:   sess,
		Logger:   log,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Client = client

	tracker, err := reconcile.NewCompletionTracker(cfg.Completion, client, time.Now)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Store = store.New()
	a.Reconciler = reconcile.New(client, a.Store, tracker, reconcile.WithLogger(log))

	log.Debug("app started",
		zap.String("endpoint", cfg.Endpoint),
		zap.String("completion", cfg.Completion),
		zap.Bool("logged_in", sess.LoggedIn()),
	)
	return a, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return logger.New(logger.Options{
		Path:        cfg.LogPath(),
		Level:       cfg.LogLevel,
		Development: cfg.Debug,
	})
}

// Today builds the Today view from the current store snapshot
func (a *App) Today(now time.Time) model.Project {
	return agenda.Today(a.Store.Projects(), now)
}

// ThisWeek builds the This Week view from the current store snapshot
func (a *App) ThisWeek(now time.Time) model.Project {
	return agenda.ThisWeek(a.Store.Projects(), now, a.Config.WeekStartDay())
}

// RestoreSelection reselects the project that was active last time. It is a
// no-op when that project no longer exists.
func (a *App) RestoreSelection(ctx context.Context) {
	id, ok, err := a.DB.GetSetting(ctx, db.SettingSelectedProject)
	if err != nil {
		a.Log.Warn("read selection", zap.Error(err))
		return
	}
	if !ok {
		return
	}
	if err := a.Store.Select(id); err != nil {
		a.Log.Debug("stored selection is gone", zap.String("project_id", id))
	}
}

// SaveSelection remembers the active project for the next start
func (a *App) SaveSelection(ctx context.Context) {
	if err := a.DB.SetSetting(ctx, db.SettingSelectedProject, a.Store.SelectedID()); err != nil {
		a.Log.Warn("save selection", zap.Error(err))
	}
}

// acquireLock acquires an exclusive file lock to prevent multiple instances
func (a *App) acquireLock() error {
	a.lockFile = flock.New(a.Config.LockPath())

	locked, err := a.lockFile.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		a.lockFile = nil
		return ErrAlreadyRunning
	}
	return nil
}

func (a *App) releaseLock() {
	if a.lockFile != nil {
		_ = a.lockFile.Unlock()
		a.lockFile = nil
	}
}

// Close cleans up application resources
func (a *App) Close() error {
	var errs []error

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
		a.DB = nil
	}
	if a.Log != nil {
		_ = a.Log.Sync()
	}

	a.releaseLock()
	return errors.Join(errs...)
}
