package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/tbessias/modkit/internal/config"
	"github.com/tbessias/modkit/internal/db"
	"github.com/tbessias/modkit/internal/engine"
	"github.com/tbessias/modkit/internal/event"
	"github.com/tbessias/modkit/internal/fetcher"
	"github.com/tbessias/modkit/internal/installables"
	"github.com/tbessias/modkit/internal/locator"
	"github.com/tbessias/modkit/internal/page"
	"github.com/tbessias/modkit/internal/registry"
	"github.com/tbessias/modkit/internal/runner"
	"github.com/tbessias/modkit/internal/storage"
	"github.com/tbessias/modkit/internal/storefront"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `modkit init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// runtime bundles the long-lived components most commands need.
type runtime struct {
	cfg      *config.Config
	database *db.DB
	store    *installables.Store
	accessor *storage.Accessor
	locator  *locator.Resolver
	fetcher  *fetcher.Client
	registry *registry.Registry
	runner   *runner.Runner
	doc      *page.Document
	bus      *event.Bus
	engine   *engine.Engine
	front    *storefront.Client
}

// buildRuntime opens the database and constructs the component graph.
// The caller owns the database and must Close it.
func buildRuntime(cfg *config.Config) (*runtime, error) {
	dbPath := filepath.Join(cfg.DataDir, "modkit.db")
	database, err := db.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	acc := storage.NewAccessor(database)
	store := installables.NewStore(database)
	loc := locator.NewResolver(cfg)
	fetch := fetcher.New(cfg.FetchTimeout())
	reg := registry.New()
	run := runner.New(reg, 0)
	doc := page.NewDocument()
	bus := event.NewBus()
	eng := engine.New(store, doc, run, bus)
	front := storefront.NewClient(loc, fetch, acc, store)

	return &runtime{
		cfg:      cfg,
		database: database,
		store:    store,
		accessor: acc,
		locator:  loc,
		fetcher:  fetch,
		registry: reg,
		runner:   run,
		doc:      doc,
		bus:      bus,
		engine:   eng,
		front:    front,
	}, nil
}
