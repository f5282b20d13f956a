package bootstrap

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"grimoire/internal/catalog"
	"grimoire/internal/config"
	"grimoire/internal/logging"
	"grimoire/internal/scryfall"
)

// Dump variant tags in preference order: the default variant carries one
// printing per card in the primary language, which is what the search index
// wants; the oracle variant is the one-row-per-card fallback.
const (
	dumpTypeDefault = "default_cards"
	dumpTypeOracle  = "oracle_cards"
)

const (
	// StatusAlreadyInitialized reports an index above the validity threshold.
	StatusAlreadyInitialized = "already_initialized"
	// StatusSuccess reports a completed download-and-populate run.
	StatusSuccess = "success"
	// StatusError reports a failed run; the host process keeps going.
	StatusError = "error"
)

const (
	downloadLogInterval = 50 * 1024 * 1024
	parseLogInterval    = 50000
)

// Result describes the outcome of a bootstrap run. Failures are carried here
// as data rather than as an error so startup never aborts on them.
type Result struct {
	Status    string
	DataType  string
	Processed int
	Inserted  int
	CardCount int
	Duration  time.Duration
	Error     string
}

// Loader seeds the search index from the catalog's bulk dump.
type Loader struct {
	store   *catalog.Store
	api     scryfall.API
	logger  *slog.Logger
	minSize int
	batch   int
	workers int

	mu      sync.Mutex
	running atomic.Bool
}

// New creates a bulk index loader.
func New(cfg *config.Config, store *catalog.Store, api scryfall.API, logger *slog.Logger) *Loader {
	return &Loader{
		store:   store,
		api:     api,
		logger:  logging.NewComponentLogger(logger, "bootstrap"),
		minSize: cfg.Bootstrap.MinIndexSize,
		batch:   cfg.Bootstrap.BatchSize,
		workers: cfg.Bootstrap.UpsertWorkers,
	}
}

// IsRunning reports whether a bootstrap pipeline is currently executing.
func (l *Loader) IsRunning() bool {
	return l.running.Load()
}

// EnsureInitialized seeds the index if it is below the validity threshold.
// Safe to call concurrently: the guard serializes runs, and callers arriving
// after a successful run observe already_initialized. Failures are returned
// as a structured result, never as a panic or error.
func (l *Loader) EnsureInitialized(ctx context.Context) Result {
	return l.run(ctx, false)
}

// Refresh clears and rebuilds the index even when it is above the threshold.
func (l *Loader) Refresh(ctx context.Context) Result {
	return l.run(ctx, true)
}

func (l *Loader) run(ctx context.Context, force bool) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Re-check under the lock: a caller that waited out another bootstrap
	// should see its result instead of repeating the download.
	count, err := l.store.IndexCount(ctx)
	if err != nil {
		return l.failure(time.Now(), "", fmt.Errorf("count index: %w", err))
	}
	if count >= l.minSize && !force {
		l.logger.Info("card index already initialized", logging.Int("card_count", count))
		return Result{Status: StatusAlreadyInitialized, CardCount: count}
	}

	l.running.Store(true)
	defer l.running.Store(false)

	start := time.Now()
	l.logger.Info("starting card index bootstrap",
		logging.Int("card_count", count),
		logging.Int("min_required", l.minSize),
		logging.Bool("force", force))

	entries, err := l.api.BulkData(ctx)
	if err != nil {
		return l.failure(start, "", err)
	}
	dump, ok := selectDump(entries)
	if !ok {
		return l.failure(start, "", fmt.Errorf("no suitable bulk dump variant in manifest (%d entries)", len(entries)))
	}

	l.logger.Info("downloading bulk dump",
		logging.String("data_type", dump.Type),
		logging.Int64("approx_size_bytes", dump.Size))

	tempPath, err := l.download(ctx, dump)
	if tempPath != "" {
		// The dump is only an intermediate artifact; remove it even when
		// the pipeline fails partway.
		defer func() {
			if removeErr := os.Remove(tempPath); removeErr != nil && !os.IsNotExist(removeErr) {
				l.logger.Warn("failed to remove temp dump file",
					logging.String("path", tempPath),
					logging.Error(removeErr))
			}
		}()
	}
	if err != nil {
		return l.failure(start, dump.Type, err)
	}

	if err := l.store.ClearIndex(ctx); err != nil {
		return l.failure(start, dump.Type, err)
	}

	processed, inserted, err := l.populate(ctx, tempPath)
	if err != nil {
		return l.failure(start, dump.Type, err)
	}

	duration := time.Since(start)
	l.logger.Info("card index bootstrap complete",
		logging.String("data_type", dump.Type),
		logging.Int("processed", processed),
		logging.Int("inserted", inserted),
		logging.Duration("duration", duration))

	return Result{
		Status:    StatusSuccess,
		DataType:  dump.Type,
		Processed: processed,
		Inserted:  inserted,
		CardCount: inserted,
		Duration:  duration,
	}
}

func (l *Loader) failure(start time.Time, dataType string, err error) Result {
	duration := time.Since(start)
	l.logger.Error("card index bootstrap failed",
		logging.String("data_type", dataType),
		logging.Duration("duration", duration),
		logging.Error(err))
	return Result{
		Status:   StatusError,
		DataType: dataType,
		Duration: duration,
		Error:    err.Error(),
	}
}

// selectDump picks the most specific available dump variant.
func selectDump(entries []scryfall.BulkEntry) (scryfall.BulkEntry, bool) {
	var fallback scryfall.BulkEntry
	var haveFallback bool
	for _, entry := range entries {
		switch entry.Type {
		case dumpTypeDefault:
			if entry.DownloadURI != "" {
				return entry, true
			}
		case dumpTypeOracle:
			if entry.DownloadURI != "" && !haveFallback {
				fallback = entry
				haveFallback = true
			}
		}
	}
	return fallback, haveFallback
}

func (l *Loader) download(ctx context.Context, dump scryfall.BulkEntry) (string, error) {
	file, err := os.CreateTemp("", "grimoire-dump-*.json")
	if err != nil {
		return "", fmt.Errorf("create temp dump file: %w", err)
	}
	tempPath := file.Name()

	var lastLogged int64
	written, err := l.api.Download(ctx, dump.DownloadURI, file, func(written int64) {
		if written-lastLogged < downloadLogInterval {
			return
		}
		lastLogged = written
		attrs := []logging.Attr{logging.Int64("downloaded_bytes", written)}
		if dump.Size > 0 {
			attrs = append(attrs, logging.Float64("percent", float64(written)/float64(dump.Size)*100))
		}
		l.logger.Info("bulk dump download progress", logging.Args(attrs...)...)
	})
	closeErr := file.Close()
	if err != nil {
		return tempPath, err
	}
	if closeErr != nil {
		return tempPath, fmt.Errorf("close temp dump file: %w", closeErr)
	}

	l.logger.Info("bulk dump download complete", logging.Int64("size_bytes", written))
	return tempPath, nil
}

// populate stream-parses the dump and upserts batches through a bounded
// worker pool. A failed batch is logged and skipped; previously committed
// batches stand, and a re-run repairs the gap via conflict-ignore.
func (l *Loader) populate(ctx context.Context, path string) (int, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("open dump file: %w", err)
	}
	defer file.Close()

	var inserted atomic.Int64
	batches := make(chan []catalog.IndexEntry, l.workers)

	group, groupCtx := errgroup.WithContext(ctx)
	for i := 0; i < l.workers; i++ {
		group.Go(func() error {
			for batch := range batches {
				count, err := l.store.UpsertIndexBatch(groupCtx, batch)
				inserted.Add(int64(count))
				if err != nil {
					if groupCtx.Err() != nil {
						return groupCtx.Err()
					}
					l.logger.Warn("index batch upsert failed",
						logging.Int("batch_size", len(batch)),
						logging.Error(err),
						logging.String(logging.FieldImpact, "affected printings missing until next bootstrap run"))
				}
			}
			return nil
		})
	}

	processed := 0
	parseErr := func() error {
		decoder := json.NewDecoder(file)
		// The dump is one large JSON array; consume the opening bracket and
		// decode records one at a time to keep memory flat.
		if _, err := decoder.Token(); err != nil {
			return fmt.Errorf("read dump array start: %w", err)
		}

		batch := make([]catalog.IndexEntry, 0, l.batch)
		flush := func() error {
			if len(batch) == 0 {
				return nil
			}
			out := make([]catalog.IndexEntry, len(batch))
			copy(out, batch)
			batch = batch[:0]
			select {
			case batches <- out:
				return nil
			case <-groupCtx.Done():
				return groupCtx.Err()
			}
		}

		for decoder.More() {
			var record scryfall.CardData
			if err := decoder.Decode(&record); err != nil {
				return fmt.Errorf("decode dump record %d: %w", processed+1, err)
			}
			processed++

			if entry, ok := indexEntryFromRecord(record); ok {
				batch = append(batch, entry)
				if len(batch) >= l.batch {
					if err := flush(); err != nil {
						return err
					}
				}
			}

			if processed%parseLogInterval == 0 {
				l.logger.Info("bulk dump parse progress",
					logging.Int("processed", processed),
					logging.Int64("inserted", inserted.Load()))
			}
		}
		return flush()
	}()

	close(batches)
	if waitErr := group.Wait(); parseErr == nil {
		parseErr = waitErr
	}
	if parseErr != nil {
		return processed, int(inserted.Load()), parseErr
	}
	return processed, int(inserted.Load()), nil
}
