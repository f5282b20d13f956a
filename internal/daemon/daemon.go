package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"grimoire/internal/bootstrap"
	"grimoire/internal/config"
	"grimoire/internal/engine"
	"grimoire/internal/logging"
)

// Daemon owns the background jobs around the engine and enforces
// single-instance execution through a lock file.
type Daemon struct {
	cfg    *config.Config
	eng    *engine.Engine
	loader *bootstrap.Loader
	logger *slog.Logger

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, eng *engine.Engine, loader *bootstrap.Loader, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || eng == nil || loader == nil {
		return nil, errors.New("daemon requires config, engine, and loader")
	}
	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:      cfg,
		eng:      eng,
		loader:   loader,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the instance lock, kicks off the bootstrap pipeline, and
// schedules the periodic eviction sweep. Bootstrap failures are logged, not
// fatal: the sweep loop retries nothing, but each tick is independent.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another grimoire daemon holds %s", d.lockPath)
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.running.Store(true)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		result := d.loader.EnsureInitialized(runCtx)
		if result.Status == bootstrap.StatusError {
			d.logger.Error("startup bootstrap failed",
				logging.String("error", result.Error),
				logging.String(logging.FieldErrorHint, "searches stay degraded until the next sweep tick retries"))
		}
	}()

	d.wg.Add(1)
	go d.sweepLoop(runCtx)

	d.logger.Info("grimoire daemon started",
		logging.String("lock", d.lockPath),
		logging.Duration("sweep_interval", d.cfg.SweepInterval()))
	return nil
}

func (d *Daemon) sweepLoop(ctx context.Context) {
	defer d.wg.Done()

	ticker := time.NewTicker(d.cfg.SweepInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.tick(ctx)
		}
	}
}

// tick runs one maintenance pass: re-check the index threshold (repairs a
// failed startup bootstrap) and sweep expired cache rows. Failures are logged
// and retried on the next tick.
func (d *Daemon) tick(ctx context.Context) {
	if result := d.loader.EnsureInitialized(ctx); result.Status == bootstrap.StatusError {
		d.logger.Warn("bootstrap retry failed", logging.String("error", result.Error))
	}

	deleted, err := d.eng.Sweep(ctx, d.cfg.Eviction.TTLDays)
	if err != nil {
		d.logger.Warn("eviction sweep failed", logging.Error(err))
		return
	}
	d.logger.Info("eviction sweep complete",
		logging.Int("deleted", deleted),
		logging.Int("ttl_days", d.cfg.Eviction.TTLDays))
}

// Stop halts background jobs and releases the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.wg.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("grimoire daemon stopped")
}

// Running reports whether background jobs are active.
func (d *Daemon) Running() bool {
	return d.running.Load()
}
