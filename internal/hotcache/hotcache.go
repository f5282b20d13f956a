package hotcache

import (
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"grimoire/internal/catalog"
	"grimoire/internal/logging"
)

// Cache is the ephemeral hot tier: serialized detail rows keyed by catalog
// id, bounded in size and expired by TTL. It is never the sole copy of a
// card; the warm tier remains the durable record.
type Cache struct {
	lru    *expirable.LRU[string, []byte]
	ttl    time.Duration
	logger *slog.Logger
}

// New creates a hot cache holding up to size entries for ttl each.
func New(size int, ttl time.Duration, logger *slog.Logger) (*Cache, error) {
	if size <= 0 {
		return nil, errors.New("hot cache size must be positive")
	}
	if ttl <= 0 {
		return nil, errors.New("hot cache ttl must be positive")
	}
	return &Cache{
		lru:    expirable.NewLRU[string, []byte](size, nil, ttl),
		ttl:    ttl,
		logger: logging.NewComponentLogger(logger, "hotcache"),
	}, nil
}

// Get returns the cached card for the id and refreshes its TTL on a hit.
func (c *Cache) Get(catalogID string) (*catalog.Card, bool) {
	payload, ok := c.lru.Get(catalogID)
	if !ok {
		return nil, false
	}

	var card catalog.Card
	if err := json.Unmarshal(payload, &card); err != nil {
		// A corrupt entry is dropped; the warm tier will repopulate it.
		c.lru.Remove(catalogID)
		c.logger.Warn("dropped undecodable hot cache entry",
			logging.String(logging.FieldCatalogID, catalogID),
			logging.Error(err))
		return nil, false
	}

	// Re-adding resets the entry's expiry so active cards stay hot.
	c.lru.Add(catalogID, payload)
	return &card, true
}

// Set stores a card in the hot tier, replacing any previous entry.
func (c *Cache) Set(card *catalog.Card) {
	if card == nil || card.CatalogID == "" {
		return
	}
	payload, err := json.Marshal(card)
	if err != nil {
		c.logger.Warn("skipped unencodable hot cache entry",
			logging.String(logging.FieldCatalogID, card.CatalogID),
			logging.Error(err))
		return
	}
	c.lru.Add(card.CatalogID, payload)
}

// Remove drops an entry (explicit invalidation).
func (c *Cache) Remove(catalogID string) {
	c.lru.Remove(catalogID)
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	return c.lru.Len()
}

// TTL returns the configured entry lifetime.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}
