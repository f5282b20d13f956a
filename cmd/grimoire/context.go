package main

import (
	"log/slog"
	"strings"
	"sync"

	"grimoire/internal/bootstrap"
	"grimoire/internal/catalog"
	"grimoire/internal/config"
	"grimoire/internal/engine"
	"grimoire/internal/hotcache"
	"grimoire/internal/logging"
	"grimoire/internal/ratelimit"
	"grimoire/internal/scryfall"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// app bundles the assembled service graph behind one Close.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *catalog.Store
	loader *bootstrap.Loader
	engine *engine.Engine
}

func (a *app) Close() error {
	return a.store.Close()
}

// buildApp wires the full stack: store, catalog client, limiter, hot tier,
// loader, engine.
func (c *commandContext) buildApp() (*app, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	store, err := catalog.Open(cfg)
	if err != nil {
		return nil, err
	}

	client, err := scryfall.New(cfg.Catalog.BaseURL,
		scryfall.WithTimeouts(cfg.FetchTimeout(), cfg.DownloadTimeout()))
	if err != nil {
		store.Close()
		return nil, err
	}

	limiter, err := ratelimit.New(cfg.Catalog.RateLimit)
	if err != nil {
		store.Close()
		return nil, err
	}

	hot, err := hotcache.New(cfg.HotCache.Size, cfg.HotCacheTTL(), logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	loader := bootstrap.New(cfg, store, client, logger)
	eng := engine.New(cfg, store, client, limiter, hot, loader, logger)

	return &app{
		cfg:    cfg,
		logger: logger,
		store:  store,
		loader: loader,
		engine: eng,
	}, nil
}

// withApp builds the service graph, runs fn, and tears the graph down.
func (c *commandContext) withApp(fn func(*app) error) error {
	a, err := c.buildApp()
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
