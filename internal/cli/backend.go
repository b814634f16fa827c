package cli

import (
	"context"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/pedigree/pkg/cache"
	"github.com/matzehuels/pedigree/pkg/config"
	"github.com/matzehuels/pedigree/pkg/errors"
	"github.com/matzehuels/pedigree/pkg/family"
	"github.com/matzehuels/pedigree/pkg/lock"
	"github.com/matzehuels/pedigree/pkg/patients"
	"github.com/matzehuels/pedigree/pkg/store"
)

// patientsFile is read next to the family directory when the file store is used.
const patientsFile = "patients.json"

// connectTimeout bounds the initial MongoDB and Redis round trips.
const connectTimeout = 10 * time.Second

// backend is a family service together with the connections it holds open.
type backend struct {
	cfg     *config.Config
	svc     *family.Service
	closers []func() error
}

// Close releases connections in reverse order of opening.
func (b *backend) Close() error {
	var first error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// open loads the configuration and wires the family service it describes.
// The caller must Close the backend.
func (c *CLI) open(ctx context.Context) (*backend, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	return c.openWith(ctx, cfg)
}

func (c *CLI) openWith(ctx context.Context, cfg *config.Config) (b *backend, err error) {
	b = &backend{cfg: cfg}
	defer func() {
		if err != nil {
			_ = b.Close()
		}
	}()

	var rdb *redis.Client
	if cfg.Redis.URL != "" {
		if rdb, err = b.connectRedis(ctx); err != nil {
			return nil, err
		}
	}

	st, repo, err := b.openStore(ctx, c.Logger)
	if err != nil {
		return nil, err
	}

	var locker lock.Locker
	if rdb != nil {
		locker = lock.NewRedisLocker(rdb, cfg.Redis.KeyPrefix)
	}

	imageCache, keyer, err := c.openCache(cfg, rdb)
	if err != nil {
		return nil, err
	}
	b.closers = append(b.closers, imageCache.Close)

	b.svc = family.NewService(st, repo, locker, imageCache, c.Logger, family.Options{
		Keyer:    keyer,
		LockTTL:  cfg.Store.LockTTL,
		ImageTTL: cfg.Cache.TTL,
	})
	return b, nil
}

func (b *backend) connectRedis(ctx context.Context) (*redis.Client, error) {
	opts, err := redis.ParseURL(b.cfg.Redis.URL)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "redis url")
	}
	client := redis.NewClient(opts)
	b.closers = append(b.closers, client.Close)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, err, "ping redis")
	}
	return client, nil
}

func (b *backend) openStore(ctx context.Context, logger *log.Logger) (store.Store, patients.Repository, error) {
	cfg := b.cfg.Store
	switch cfg.Backend {
	case config.StoreMongo:
		connCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		client, err := store.ConnectMongo(connCtx, cfg.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		b.closers = append(b.closers, func() error {
			return client.Disconnect(context.Background())
		})
		db := client.Database(cfg.Database)
		return store.NewMongoStore(db.Collection(cfg.FamilyCollection)),
			patients.NewMongoRepository(db.Collection(cfg.PatientCollection)), nil
	case config.StoreBadger:
		st, err := store.OpenBadger(store.BadgerOptions{Dir: cfg.Dir, Logger: logger})
		if err != nil {
			return nil, nil, err
		}
		b.closers = append(b.closers, st.Close)
		repo, err := patients.LoadFile(filepath.Join(filepath.Dir(cfg.Dir), patientsFile))
		if err != nil {
			return nil, nil, err
		}
		return st, repo, nil
	default:
		st, err := store.NewFileStore(cfg.Dir)
		if err != nil {
			return nil, nil, err
		}
		b.closers = append(b.closers, st.Close)
		repo, err := patients.LoadFile(filepath.Join(filepath.Dir(cfg.Dir), patientsFile))
		if err != nil {
			return nil, nil, err
		}
		return st, repo, nil
	}
}

func (c *CLI) openCache(cfg *config.Config, rdb *redis.Client) (cache.Cache, cache.Keyer, error) {
	keyer := cache.NewDefaultKeyer()
	if c.noCache {
		return cache.NewNullCache(), keyer, nil
	}
	switch cfg.Cache.Backend {
	case config.CacheRedis:
		return cache.NewRedisCache(rdb), cache.NewScopedKeyer(keyer, cfg.Redis.KeyPrefix), nil
	case config.CacheFile:
		fc, err := cache.NewFileCache(cfg.Cache.Dir)
		if err != nil {
			return nil, nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "cache dir %s", cfg.Cache.Dir)
		}
		return fc, keyer, nil
	default:
		return cache.NewNullCache(), keyer, nil
	}
}
