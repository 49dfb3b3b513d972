// Package cli wires vaultctl's packages into cobra commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/kasuganosora/vaultctl/api"
	"github.com/kasuganosora/vaultctl/audit"
	"github.com/kasuganosora/vaultctl/cache"
	"github.com/kasuganosora/vaultctl/config"
	dbadapter "github.com/kasuganosora/vaultctl/db"
	"github.com/kasuganosora/vaultctl/fetch"
	"github.com/kasuganosora/vaultctl/grading"
	"github.com/kasuganosora/vaultctl/inventory"
	"github.com/kasuganosora/vaultctl/manifest"
	"github.com/kasuganosora/vaultctl/metrics"
	"github.com/kasuganosora/vaultctl/model"
	"github.com/kasuganosora/vaultctl/store"
	"github.com/kasuganosora/vaultctl/transfer"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app holds the services shared by every command. It is built once per
// invocation by setup and torn down by close.
type app struct {
	cfgPath string
	debug   bool
	out     io.Writer

	cfg      *config.Config
	logger   *zap.Logger
	db       *gorm.DB
	cache    cache.Cache
	audit    *audit.Service
	metrics  *metrics.Metrics
	store    *store.Store
	fetcher  *fetch.Fetcher
	client   *api.Client
	exec     *transfer.Executor
	manifest *manifest.Store

	manifestOnce sync.Once
	manifestErr  error
}

func (a *app) setup() error {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if a.debug {
		cfg.Log.Debug = true
	}
	a.cfg = cfg

	// ---- Logger ----
	if cfg.Log.Debug {
		a.logger, err = zap.NewDevelopment()
	} else {
		a.logger, err = zap.NewProduction()
	}
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}

	// ---- Database ----
	a.db, err = dbadapter.Open(cfg.Database)
	if err != nil {
		return err
	}
	if err := model.AutoMigrate(a.db); err != nil {
		return fmt.Errorf("db migrate: %w", err)
	}
	a.logger.Debug("DB initialized", zap.String("mode", cfg.Database.Mode))

	// ---- Audit ----
	a.audit = audit.New(a.db, a.logger)

	// ---- Cache ----
	a.cache, err = cache.NewCache(cache.CacheConfig{
		RedisAddr:       cfg.Cache.RedisAddr,
		RedisPassword:   cfg.Cache.RedisPassword,
		RedisDB:         cfg.Cache.RedisDB,
		LocalGCInterval: cfg.Cache.LocalGCInterval,
	})
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if cfg.Cache.RedisAddr != "" {
		a.logger.Debug("using Redis cache", zap.String("addr", cfg.Cache.RedisAddr))
	}

	// ---- Services ----
	a.metrics = metrics.New()
	a.store = store.New(a.db, a.logger)
	a.fetcher = fetch.New(a.cache, nil, cfg.Cache.FetchTTL, a.logger)
	a.client = api.NewClient(cfg.API, &api.FileTokenStore{Path: cfg.API.TokenFile}, a.logger,
		api.WithObserver(a.metrics))
	a.exec = transfer.NewExecutor(a.client, metrics.Auditor{Next: a.audit, Metrics: a.metrics}, a.logger)
	a.manifest = manifest.NewStore(cfg.Manifest.Dir)
	return nil
}

// close releases everything setup opened. It is safe after a partial setup.
func (a *app) close() {
	if a.metrics != nil && a.cfg.Metrics.Textfile != "" {
		if err := a.metrics.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
			a.logger.Warn("metrics textfile not written", zap.Error(err))
		}
	}
	if a.audit != nil {
		a.audit.Stop(context.Background())
	}
	if a.cache != nil {
		a.cache.Close()
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	if a.logger != nil {
		a.logger.Sync()
	}
}

func (a *app) loadManifest() error {
	a.manifestOnce.Do(func() {
		a.manifestErr = a.manifest.Load()
		if a.manifestErr == nil {
			a.logger.Debug("manifest loaded", zap.Int("items", len(a.manifest.Items)))
		}
	})
	return a.manifestErr
}

// index fetches the profile and builds a fresh inventory snapshot. It has
// the signature of transfer.IndexSource.
func (a *app) index(ctx context.Context) (*inventory.Index, error) {
	if err := a.loadManifest(); err != nil {
		return nil, err
	}
	profile, err := a.client.GetProfile(ctx)
	if err != nil {
		return nil, err
	}
	return inventory.BuildIndex(profile, profile.CharacterList(), a.manifest, a.logger), nil
}

// tagsFor loads every persisted tag once and returns a lookup by item.
func (a *app) tagsFor(ctx context.Context) (func(*inventory.Item) []string, error) {
	all, err := a.store.AllTags(ctx)
	if err != nil {
		return nil, err
	}
	return func(it *inventory.Item) []string {
		return all[inventory.ItemKey(it)]
	}, nil
}

// open reads source through the fetcher, dropping any cached download first
// when refresh is set.
func (a *app) open(ctx context.Context, source string, refresh bool) (io.ReadCloser, error) {
	if refresh {
		if err := a.fetcher.Invalidate(ctx, source); err != nil {
			a.logger.Warn("cached download not dropped", zap.String("source", source), zap.Error(err))
		}
	}
	return a.fetcher.Open(ctx, source)
}

// wishlist reads the wishlist at source, or the configured one when source
// is empty. It returns nil without error when none is configured.
func (a *app) wishlist(ctx context.Context, source string, refresh bool) (*grading.Wishlist, error) {
	if source == "" {
		source = a.cfg.Grading.Wishlist
	}
	if source == "" {
		return nil, nil
	}
	r, err := a.open(ctx, source, refresh)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	wl, err := grading.ParseWishlist(r, source)
	if err != nil {
		return nil, err
	}
	if wl.Skipped > 0 {
		a.logger.Debug("wishlist lines without item skipped", zap.Int("lines", wl.Skipped))
	}
	return wl, nil
}

func (a *app) popularity(ctx context.Context, source string, refresh bool) (*grading.PopularityDataset, error) {
	if source == "" {
		source = a.cfg.Grading.Popularity
	}
	if source == "" {
		return nil, fmt.Errorf("no popularity source configured (grading.popularity)")
	}
	r, err := a.open(ctx, source, refresh)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return grading.ParsePopularity(r, source)
}
