package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"grimoire/internal/catalog"
	"grimoire/internal/config"
	"grimoire/internal/hotcache"
	"grimoire/internal/logging"
	"grimoire/internal/ratelimit"
	"grimoire/internal/scryfall"
	"grimoire/internal/services"
)

// Bootstrapper is the slice of the bulk loader the engine needs for status
// reporting.
type Bootstrapper interface {
	IsRunning() bool
}

// Status summarizes engine readiness for callers and the CLI.
type Status struct {
	TotalIndexed     int
	CachedDetails    int
	MinCardsRequired int
	IsInitialized    bool
	IsBootstrapping  bool
}

// Engine is the facade collaborating services call into: tiered detail
// lookups, permanence promotion, index search, and cache maintenance.
type Engine struct {
	store   *catalog.Store
	api     scryfall.API
	limiter *ratelimit.Limiter
	hot     *hotcache.Cache
	loader  Bootstrapper
	logger  *slog.Logger
	minSize int

	fetches singleflight.Group
}

// New assembles the engine from its collaborators. loader may be nil when no
// bootstrap pipeline exists (tests, one-shot CLI commands).
func New(cfg *config.Config, store *catalog.Store, api scryfall.API, limiter *ratelimit.Limiter, hot *hotcache.Cache, loader Bootstrapper, logger *slog.Logger) *Engine {
	return &Engine{
		store:   store,
		api:     api,
		limiter: limiter,
		hot:     hot,
		loader:  loader,
		logger:  logging.NewComponentLogger(logger, "engine"),
		minSize: cfg.Bootstrap.MinIndexSize,
	}
}

// GetCardDetails returns the full detail row for one printing, reading
// through the hot, warm, and cold tiers in order. forceRefresh skips the hot
// and warm tiers and refetches from the source, preserving any permanence
// already recorded on the row.
func (e *Engine) GetCardDetails(ctx context.Context, catalogID string, forceRefresh bool) (*catalog.Card, error) {
	id, err := normalizeID(catalogID)
	if err != nil {
		return nil, err
	}

	if !forceRefresh {
		if card, ok := e.hot.Get(id); ok {
			return card, nil
		}
		card, err := e.store.GetCard(ctx, id)
		if err != nil {
			return nil, services.Wrap(services.ErrExternalService, "engine", "get-card-details", "read warm tier", err)
		}
		if card != nil {
			if err := e.store.TouchCard(ctx, id); err != nil {
				e.logger.Warn("failed to touch card access time",
					logging.String(logging.FieldCatalogID, id),
					logging.Error(err))
			}
			e.hot.Set(card)
			return card, nil
		}
	}

	// Coalesce concurrent misses for the same printing so at most one
	// upstream fetch is in flight per id.
	value, err, _ := e.fetches.Do(id, func() (any, error) {
		return e.fetchAndStore(ctx, id, forceRefresh)
	})
	if err != nil {
		return nil, err
	}
	return value.(*catalog.Card), nil
}

func (e *Engine) fetchAndStore(ctx context.Context, id string, forceRefresh bool) (*catalog.Card, error) {
	existing, err := e.store.GetCard(ctx, id)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalService, "engine", "get-card-details", "read warm tier", err)
	}
	if existing != nil && !forceRefresh {
		// Another caller in the same flight already populated the row.
		e.hot.Set(existing)
		return existing, nil
	}

	// Unknown ids are rejected against the local index before spending any
	// of the upstream rate budget. Rows already cached (force refresh of a
	// collection card) skip the check: the index may have been rebuilt from
	// a narrower dump variant since the row was stored.
	if existing == nil {
		entry, err := e.store.GetIndexEntry(ctx, id)
		if err != nil {
			return nil, services.Wrap(services.ErrExternalService, "engine", "get-card-details", "read index", err)
		}
		if entry == nil {
			return nil, services.Wrap(services.ErrNotFound, "engine", "get-card-details", fmt.Sprintf("printing %s not in index", id), nil)
		}
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return nil, services.Wrap(services.ErrExternalService, "engine", "get-card-details", "rate limiter wait", err)
	}

	data, raw, err := e.api.GetCard(ctx, id)
	if err != nil {
		return nil, err
	}

	card := cardFromSource(data, raw)
	if existing != nil {
		// A refresh replaces the payload but never demotes the row.
		card.StorageReason = existing.StorageReason
		card.Permanent = existing.Permanent
		card.CachedAt = existing.CachedAt
	}

	if err := e.store.PutCard(ctx, card); err != nil {
		return nil, services.Wrap(services.ErrExternalService, "engine", "get-card-details", "store warm tier", err)
	}
	e.hot.Set(card)

	e.logger.Info("cached card details",
		logging.String(logging.FieldCatalogID, id),
		logging.String("name", card.Name),
		logging.Bool("refresh", forceRefresh))
	return card, nil
}

// MakePermanent promotes a printing out of the evictable tier. The detail row
// is materialized through the read-through path first when absent. Promotion
// is idempotent; re-promoting updates the recorded reason. ownerRef is an
// opaque caller reference carried into the audit log only.
func (e *Engine) MakePermanent(ctx context.Context, catalogID string, reason catalog.StorageReason, ownerRef string) error {
	id, err := normalizeID(catalogID)
	if err != nil {
		return err
	}
	if parsed, ok := catalog.ParseReason(string(reason)); !ok || parsed == catalog.ReasonSearchCache {
		return services.Wrap(services.ErrValidation, "engine", "make-permanent", fmt.Sprintf("reason %q is not a permanence reason", reason), nil)
	}

	if _, err := e.GetCardDetails(ctx, id, false); err != nil {
		return err
	}

	promoted, err := e.store.PromoteCard(ctx, id, reason)
	if err != nil {
		return services.Wrap(services.ErrExternalService, "engine", "make-permanent", "promote row", err)
	}
	if !promoted {
		return services.Wrap(services.ErrNotFound, "engine", "make-permanent", fmt.Sprintf("printing %s vanished before promotion", id), nil)
	}

	// The hot copy still carries the old reason; drop it so the next read
	// reloads the promoted row.
	e.hot.Remove(id)

	e.logger.Info("card made permanent",
		logging.String(logging.FieldCatalogID, id),
		logging.String("reason", string(reason)),
		logging.String("owner_ref", ownerRef))
	return nil
}

// Search pages through index rows matching the filters. The returned total
// counts all matching rows, not just the page.
func (e *Engine) Search(ctx context.Context, filters catalog.Filters, limit, offset int) ([]catalog.IndexEntry, int, error) {
	return e.store.Search(ctx, filters, limit, offset)
}

// SearchUnique pages through oracle groups matching the filters, one
// representative printing per group.
func (e *Engine) SearchUnique(ctx context.Context, filters catalog.Filters, limit, offset int) ([]catalog.UniqueGroup, int, error) {
	return e.store.SearchUnique(ctx, filters, limit, offset)
}

// SearchDetails resolves each index hit through the tiered detail cache. A
// printing whose details cannot be fetched is skipped rather than failing the
// whole page, so the result may be shorter than the index page.
func (e *Engine) SearchDetails(ctx context.Context, filters catalog.Filters, limit, offset int) ([]*catalog.Card, int, error) {
	entries, total, err := e.store.Search(ctx, filters, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	cards := make([]*catalog.Card, 0, len(entries))
	for _, entry := range entries {
		card, err := e.GetCardDetails(ctx, entry.CatalogID, false)
		if err != nil {
			e.logger.Warn("skipping printing in detail search",
				logging.String(logging.FieldCatalogID, entry.CatalogID),
				logging.String("name", entry.Name),
				logging.Error(err),
				logging.String(logging.FieldImpact, "printing omitted from this result page"))
			continue
		}
		cards = append(cards, card)
	}
	return cards, total, nil
}

// Version pairs one printing from the index with its warm detail row when one
// is cached. Details is nil for printings never fetched.
type Version struct {
	Entry   catalog.IndexEntry
	Details *catalog.Card
}

// GetVersions lists every indexed printing in an oracle group, attaching
// cached details where present. It never triggers upstream fetches.
func (e *Engine) GetVersions(ctx context.Context, oracleGroupID string) ([]Version, error) {
	group := strings.TrimSpace(oracleGroupID)
	if group == "" {
		return nil, services.Wrap(services.ErrValidation, "engine", "get-versions", "oracle group id is required", nil)
	}
	entries, err := e.store.IndexVersions(ctx, group)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalService, "engine", "get-versions", "read index", err)
	}
	versions := make([]Version, 0, len(entries))
	for _, entry := range entries {
		version := Version{Entry: entry}
		if card, err := e.store.GetCard(ctx, entry.CatalogID); err == nil {
			version.Details = card
		}
		versions = append(versions, version)
	}
	return versions, nil
}

// Status reports index size and bootstrap state.
func (e *Engine) Status(ctx context.Context) (Status, error) {
	indexed, err := e.store.IndexCount(ctx)
	if err != nil {
		return Status{}, services.Wrap(services.ErrExternalService, "engine", "status", "count index", err)
	}
	cached, err := e.store.CardCount(ctx)
	if err != nil {
		return Status{}, services.Wrap(services.ErrExternalService, "engine", "status", "count details", err)
	}
	status := Status{
		TotalIndexed:     indexed,
		CachedDetails:    cached,
		MinCardsRequired: e.minSize,
		IsInitialized:    indexed >= e.minSize,
	}
	if e.loader != nil {
		status.IsBootstrapping = e.loader.IsRunning()
	}
	return status, nil
}

// Sweep deletes evictable warm rows older than ttlDays. Promoted rows are
// never touched regardless of age. Swept rows may linger in the hot tier
// until their TTL lapses.
func (e *Engine) Sweep(ctx context.Context, ttlDays int) (int, error) {
	if ttlDays < 0 {
		return 0, services.Wrap(services.ErrValidation, "engine", "sweep", fmt.Sprintf("ttl days must be >= 0, got %d", ttlDays), nil)
	}
	cutoff := time.Now().UTC().Add(-time.Duration(ttlDays) * 24 * time.Hour)
	deleted, err := e.store.SweepExpired(ctx, cutoff)
	if err != nil {
		return 0, services.Wrap(services.ErrExternalService, "engine", "sweep", "delete expired rows", err)
	}
	if deleted > 0 {
		e.logger.Info("evicted expired cache rows",
			logging.Int64("deleted", deleted),
			logging.Int("ttl_days", ttlDays))
	}
	return int(deleted), nil
}

// Health runs catalog database diagnostics. Diagnostic failures are reported
// inside the result rather than as an error.
func (e *Engine) Health(ctx context.Context) catalog.DatabaseHealth {
	health, err := e.store.CheckHealth(ctx)
	if err != nil && health.Error == "" {
		health.Error = err.Error()
	}
	return health
}

// normalizeID validates a catalog id and returns its canonical lowercase
// form.
func normalizeID(catalogID string) (string, error) {
	trimmed := strings.TrimSpace(catalogID)
	if trimmed == "" {
		return "", services.Wrap(services.ErrValidation, "engine", "validate-id", "catalog id is required", nil)
	}
	id, err := uuid.Parse(trimmed)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "engine", "validate-id", fmt.Sprintf("catalog id %q is not a valid UUID", trimmed), err)
	}
	return id.String(), nil
}
