package bootstrap_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"testing"

	"grimoire/internal/bootstrap"
	"grimoire/internal/logging"
	"grimoire/internal/scryfall"
	"grimoire/internal/testsupport"
)

// fakeBulkAPI serves an in-memory manifest and dump payload.
type fakeBulkAPI struct {
	entries     []scryfall.BulkEntry
	dump        []byte
	manifestErr error
	downloadErr error
	downloads   atomic.Int64
}

func (f *fakeBulkAPI) BulkData(ctx context.Context) ([]scryfall.BulkEntry, error) {
	if f.manifestErr != nil {
		return nil, f.manifestErr
	}
	return f.entries, nil
}

func (f *fakeBulkAPI) Download(ctx context.Context, downloadURL string, dst io.Writer, progress func(int64)) (int64, error) {
	f.downloads.Add(1)
	if f.downloadErr != nil {
		return 0, f.downloadErr
	}
	n, err := dst.Write(f.dump)
	if progress != nil {
		progress(int64(n))
	}
	return int64(n), err
}

func (f *fakeBulkAPI) GetCard(ctx context.Context, catalogID string) (*scryfall.CardData, []byte, error) {
	return nil, nil, errors.New("not implemented")
}

func dumpRecord(seed int, mutate ...func(map[string]any)) map[string]any {
	record := map[string]any{
		"id":               testsupport.SeedUUID(seed),
		"oracle_id":        testsupport.SeedOracleUUID(seed),
		"name":             fmt.Sprintf("Dump Card %03d", seed),
		"lang":             "en",
		"layout":           "normal",
		"set":              "tst",
		"set_type":         "expansion",
		"collector_number": fmt.Sprintf("%d", seed),
		"mana_cost":        "{1}{W}",
		"cmc":              2.0,
		"type_line":        "Creature - Soldier",
		"colors":           []string{"W"},
		"rarity":           "Common",
		"image_uris":       map[string]string{"small": "https://img.example/small.jpg"},
	}
	for _, fn := range mutate {
		fn(record)
	}
	return record
}

func marshalDump(t *testing.T, records []map[string]any) []byte {
	t.Helper()
	data, err := json.Marshal(records)
	if err != nil {
		t.Fatalf("marshal dump: %v", err)
	}
	return data
}

func defaultManifest() []scryfall.BulkEntry {
	return []scryfall.BulkEntry{
		{Type: "oracle_cards", DownloadURI: "https://dump.example/oracle.json", Size: 10},
		{Type: "default_cards", DownloadURI: "https://dump.example/default.json", Size: 10},
	}
}

func TestEnsureInitializedFiltersAndInserts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	records := []map[string]any{
		dumpRecord(1),
		dumpRecord(2, func(r map[string]any) { r["layout"] = "token" }),
		dumpRecord(3, func(r map[string]any) { r["set_type"] = "memorabilia" }),
		dumpRecord(4, func(r map[string]any) { delete(r, "name") }),
		dumpRecord(5, func(r map[string]any) { r["id"] = "not-a-uuid" }),
		dumpRecord(6),
		dumpRecord(7),
	}
	api := &fakeBulkAPI{entries: defaultManifest(), dump: marshalDump(t, records)}
	loader := bootstrap.New(cfg, store, api, logging.NewNop())

	result := loader.EnsureInitialized(context.Background())
	if result.Status != bootstrap.StatusSuccess {
		t.Fatalf("expected success, got %#v", result)
	}
	if result.DataType != "default_cards" {
		t.Fatalf("expected the default variant, got %q", result.DataType)
	}
	if result.Processed != 7 {
		t.Fatalf("expected 7 processed records, got %d", result.Processed)
	}
	if result.Inserted != 3 {
		t.Fatalf("expected 3 inserted rows, got %d", result.Inserted)
	}

	count, err := store.IndexCount(context.Background())
	if err != nil {
		t.Fatalf("IndexCount failed: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 indexed rows, got %d", count)
	}

	entry, err := store.GetIndexEntry(context.Background(), testsupport.SeedUUID(1))
	if err != nil {
		t.Fatalf("GetIndexEntry failed: %v", err)
	}
	if entry == nil {
		t.Fatal("expected filtered record 1 in the index")
	}
	if entry.SetCode != "TST" || entry.Rarity != "common" {
		t.Fatalf("expected case normalization, got %#v", entry)
	}
	if entry.ThumbnailURL != "https://img.example/small.jpg" {
		t.Fatalf("unexpected thumbnail: %q", entry.ThumbnailURL)
	}
}

func TestEnsureInitializedSkipsWhenAboveThreshold(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.SeedIndex(t, store, cfg.Bootstrap.MinIndexSize)

	api := &fakeBulkAPI{entries: defaultManifest()}
	loader := bootstrap.New(cfg, store, api, logging.NewNop())

	result := loader.EnsureInitialized(context.Background())
	if result.Status != bootstrap.StatusAlreadyInitialized {
		t.Fatalf("expected already_initialized, got %#v", result)
	}
	if result.CardCount != cfg.Bootstrap.MinIndexSize {
		t.Fatalf("unexpected card count: %d", result.CardCount)
	}
	if api.downloads.Load() != 0 {
		t.Fatal("initialized index must not trigger a download")
	}
}

func TestRefreshRebuildsAboveThreshold(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.SeedIndex(t, store, cfg.Bootstrap.MinIndexSize)

	records := []map[string]any{dumpRecord(101), dumpRecord(102)}
	api := &fakeBulkAPI{entries: defaultManifest(), dump: marshalDump(t, records)}
	loader := bootstrap.New(cfg, store, api, logging.NewNop())

	result := loader.Refresh(context.Background())
	if result.Status != bootstrap.StatusSuccess {
		t.Fatalf("expected success, got %#v", result)
	}

	// The rebuild clears the previous rows first.
	count, err := store.IndexCount(context.Background())
	if err != nil {
		t.Fatalf("IndexCount failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 rows after refresh, got %d", count)
	}
}

func TestEnsureInitializedManifestFailureIsStructured(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	api := &fakeBulkAPI{manifestErr: errors.New("upstream down")}
	loader := bootstrap.New(cfg, store, api, logging.NewNop())

	result := loader.EnsureInitialized(context.Background())
	if result.Status != bootstrap.StatusError {
		t.Fatalf("expected error status, got %#v", result)
	}
	if result.Error == "" {
		t.Fatal("expected an error message in the result")
	}
}

func TestEnsureInitializedFallsBackToOracleVariant(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	records := []map[string]any{dumpRecord(1)}
	api := &fakeBulkAPI{
		entries: []scryfall.BulkEntry{
			{Type: "rulings", DownloadURI: "https://dump.example/rulings.json"},
			{Type: "oracle_cards", DownloadURI: "https://dump.example/oracle.json"},
		},
		dump: marshalDump(t, records),
	}
	loader := bootstrap.New(cfg, store, api, logging.NewNop())

	result := loader.EnsureInitialized(context.Background())
	if result.Status != bootstrap.StatusSuccess {
		t.Fatalf("expected success, got %#v", result)
	}
	if result.DataType != "oracle_cards" {
		t.Fatalf("expected oracle fallback, got %q", result.DataType)
	}
}

func TestEnsureInitializedRerunIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	records := []map[string]any{dumpRecord(1), dumpRecord(2), dumpRecord(3)}
	api := &fakeBulkAPI{entries: defaultManifest(), dump: marshalDump(t, records)}
	loader := bootstrap.New(cfg, store, api, logging.NewNop())

	first := loader.EnsureInitialized(context.Background())
	if first.Status != bootstrap.StatusSuccess {
		t.Fatalf("expected success, got %#v", first)
	}

	// The index now meets the threshold, so a second call is a no-op.
	second := loader.EnsureInitialized(context.Background())
	if second.Status != bootstrap.StatusAlreadyInitialized {
		t.Fatalf("expected already_initialized, got %#v", second)
	}
	if api.downloads.Load() != 1 {
		t.Fatalf("expected a single download, got %d", api.downloads.Load())
	}
}
