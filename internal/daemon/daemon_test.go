package daemon_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"grimoire/internal/bootstrap"
	"grimoire/internal/config"
	"grimoire/internal/daemon"
	"grimoire/internal/engine"
	"grimoire/internal/hotcache"
	"grimoire/internal/logging"
	"grimoire/internal/ratelimit"
	"grimoire/internal/scryfall"
	"grimoire/internal/testsupport"
)

// downAPI simulates an unreachable catalog so startup bootstrap fails softly.
type downAPI struct{}

func (downAPI) BulkData(ctx context.Context) ([]scryfall.BulkEntry, error) {
	return nil, errors.New("catalog unreachable")
}

func (downAPI) Download(ctx context.Context, downloadURL string, dst io.Writer, progress func(int64)) (int64, error) {
	return 0, errors.New("catalog unreachable")
}

func (downAPI) GetCard(ctx context.Context, catalogID string) (*scryfall.CardData, []byte, error) {
	return nil, nil, errors.New("catalog unreachable")
}

func newDaemon(t *testing.T, cfg *config.Config) *daemon.Daemon {
	t.Helper()

	store := testsupport.MustOpenStore(t, cfg)
	limiter, err := ratelimit.New(cfg.Catalog.RateLimit)
	if err != nil {
		t.Fatalf("ratelimit.New failed: %v", err)
	}
	hot, err := hotcache.New(cfg.HotCache.Size, cfg.HotCacheTTL(), logging.NewNop())
	if err != nil {
		t.Fatalf("hotcache.New failed: %v", err)
	}
	loader := bootstrap.New(cfg, store, downAPI{}, logging.NewNop())
	eng := engine.New(cfg, store, downAPI{}, limiter, hot, loader, logging.NewNop())

	d, err := daemon.New(cfg, eng, loader, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New failed: %v", err)
	}
	return d
}

func TestStartStopReleasesLock(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d := newDaemon(t, cfg)

	ctx := context.Background()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !d.Running() {
		t.Fatal("expected daemon to report running")
	}
	d.Stop()
	if d.Running() {
		t.Fatal("expected daemon to report stopped")
	}

	// The lock must be reusable after a clean stop.
	if err := d.Start(ctx); err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	d.Stop()
}

func TestSecondInstanceRejected(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first := newDaemon(t, cfg)
	second := newDaemon(t, cfg)

	ctx := context.Background()
	if err := first.Start(ctx); err != nil {
		t.Fatalf("first Start failed: %v", err)
	}
	defer first.Stop()

	if err := second.Start(ctx); err == nil {
		second.Stop()
		t.Fatal("expected second instance to be rejected")
	}
}

func TestNewRequiresDependencies(t *testing.T) {
	if _, err := daemon.New(nil, nil, nil, logging.NewNop()); err == nil {
		t.Fatal("expected error for missing dependencies")
	}
}

func TestStartTwiceFails(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d := newDaemon(t, cfg)

	ctx := context.Background()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer d.Stop()

	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second Start on the same daemon to fail")
	}
}
