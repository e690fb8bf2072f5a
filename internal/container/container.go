package container

import (
	"context"
	"fmt"

	"biedronka/scraper/internal/builder"
	"biedronka/scraper/internal/client"
	"biedronka/scraper/internal/config"
	"biedronka/scraper/internal/engine"
	"biedronka/scraper/internal/images"
	"biedronka/scraper/internal/proxy"
	"biedronka/scraper/internal/repository"
	"biedronka/scraper/internal/sink"
	"biedronka/scraper/internal/state"
	"biedronka/scraper/internal/tree"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Container holds all initialized components
type Container struct {
	Config   *config.Config
	Client   client.SiteClient
	Images   *images.Store
	Progress state.ProgressStore
	Mirror   repository.ProductRepository

	db    *pgxpool.Pool
	redis *redis.Client
}

// New creates a new container with all dependencies initialized. The
// Postgres mirror and the Redis progress store are wired only when their
// config sections are enabled.
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	c := &Container{
		Config:   cfg,
		Progress: state.NewNoopProgressStore(),
	}

	proxyPool := proxy.NewPool(ctx, cfg.Scraper.Proxies, cfg.Scraper.BaseURL)
	fetcher := client.NewFetcher(cfg.Scraper, proxyPool)
	c.Client = client.NewSiteClient(fetcher, cfg.Scraper.BaseURL, cfg.Selectors)

	store, err := images.NewStore(
		cfg.Output.ImagesDir,
		fetcher,
		cfg.Scraper.DownloadWorkers,
		cfg.Scraper.ImageWidth,
		cfg.Scraper.ImageHeight,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize image store: %w", err)
	}
	c.Images = store

	if cfg.Database.Enabled {
		db, err := pgxpool.New(ctx,
			fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
				cfg.Database.Host,
				cfg.Database.Port,
				cfg.Database.User,
				cfg.Database.Password,
				cfg.Database.Name,
			))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
		}
		c.db = db
		c.Mirror = repository.NewProductRepository(db)
		log.Info("Postgres record mirror enabled")
	}

	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.Database,
		})
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		c.redis = rdb
		c.Progress = state.NewRedisProgressStore(rdb)
		log.Info("Redis progress store enabled")
	}

	return c, nil
}

// BuildTree performs the full top-down catalog pass, then writes the tree
// snapshot and the category export.
func (c *Container) BuildTree(ctx context.Context) error {
	t, err := builder.New(c.Client, c.Config.Scraper).Build(ctx)
	if err != nil {
		return err
	}

	if err := t.SaveFile(c.Config.Output.TreeFile); err != nil {
		return err
	}
	log.Infof("Tree snapshot written to %s", c.Config.Output.TreeFile)

	if err := sink.WriteCategories(c.Config.Output.CategoriesFile, t.Categories()); err != nil {
		return err
	}
	log.Infof("Category export written to %s", c.Config.Output.CategoriesFile)
	return nil
}

// Ingest reloads the tree snapshot and replays its leaves after the resume
// marker, appending one record per successful leaf.
func (c *Container) Ingest(ctx context.Context, resumeAfter string) error {
	t, err := tree.LoadFile(c.Config.Output.TreeFile)
	if err != nil {
		return err
	}

	records, err := sink.NewFileSink(c.Config.Output.ProductsFile)
	if err != nil {
		return err
	}
	defer records.Close()

	eng := engine.New(c.Client, c.Images, records, c.Mirror, c.Progress, c.Config.Scraper.BatchSize)
	return eng.Run(ctx, t, resumeAfter)
}

// Run executes both phases back to back: build, serialize, ingest.
func (c *Container) Run(ctx context.Context, resumeAfter string) error {
	if err := c.BuildTree(ctx); err != nil {
		return err
	}
	return c.Ingest(ctx, resumeAfter)
}

// Close performs cleanup when shutting down
func (c *Container) Close() {
	if c.db != nil {
		c.db.Close()
	}
	if c.redis != nil {
		c.redis.Close()
	}
}
