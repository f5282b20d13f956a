package testsupport

import (
	"context"
	"fmt"
	"testing"
	"time"

	"grimoire/internal/catalog"
	"grimoire/internal/config"
)

// MustOpenStore opens a catalog store for tests and closes it on cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}

// IndexEntry builds a valid index row with deterministic defaults. The seed
// disambiguates ids and names across calls.
func IndexEntry(seed int, mutate ...func(*catalog.IndexEntry)) catalog.IndexEntry {
	entry := catalog.IndexEntry{
		CatalogID:       SeedUUID(seed),
		OracleGroupID:   SeedOracleUUID(seed),
		Name:            fmt.Sprintf("Test Card %03d", seed),
		SetCode:         "TST",
		CollectorNumber: fmt.Sprintf("%d", seed),
		ManaCost:        "{1}{G}",
		ConvertedCost:   2,
		TypeLine:        "Creature - Elf",
		Colors:          "G",
		Rarity:          "common",
		Language:        "en",
		ThumbnailURL:    fmt.Sprintf("https://img.example/%03d.jpg", seed),
	}
	for _, fn := range mutate {
		fn(&entry)
	}
	return entry
}

// Card builds a warm-tier detail row matching IndexEntry(seed).
func Card(seed int, mutate ...func(*catalog.Card)) *catalog.Card {
	now := time.Now().UTC()
	card := &catalog.Card{
		CatalogID:     SeedUUID(seed),
		OracleGroupID: SeedOracleUUID(seed),
		Name:          fmt.Sprintf("Test Card %03d", seed),
		SetCode:       "TST",
		SetName:       "Test Set",
		ManaCost:      "{1}{G}",
		TypeLine:      "Creature - Elf",
		OracleText:    "Test rules text.",
		Colors:        "G",
		Rarity:        "common",
		Language:      "en",
		RawPayload:    fmt.Sprintf(`{"id":%q}`, SeedUUID(seed)),
		StorageReason: catalog.ReasonSearchCache,
		Permanent:     false,
		CachedAt:      now,
		LastAccessed:  now,
	}
	for _, fn := range mutate {
		fn(card)
	}
	return card
}

// SeedUUID returns a deterministic catalog id for a seed.
func SeedUUID(seed int) string {
	return fmt.Sprintf("00000000-0000-4000-8000-%012d", seed)
}

// SeedOracleUUID returns a deterministic oracle group id for a seed.
func SeedOracleUUID(seed int) string {
	return fmt.Sprintf("11111111-0000-4000-8000-%012d", seed)
}

// SeedIndex inserts count generated rows into the index.
func SeedIndex(t testing.TB, store *catalog.Store, count int) {
	t.Helper()

	entries := make([]catalog.IndexEntry, 0, count)
	for i := 1; i <= count; i++ {
		entries = append(entries, IndexEntry(i))
	}
	if _, err := store.UpsertIndexBatch(context.Background(), entries); err != nil {
		t.Fatalf("seed index: %v", err)
	}
}
