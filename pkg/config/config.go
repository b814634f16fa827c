// Package config loads the pedigree TOML configuration file.
//
// Every setting has a default, so a missing file yields a working local setup:
// families stored as JSON files, an in-process lock and a file image cache.
//
// # File format
//
//	[store]
//	backend = "mongo"
//	mongo_uri = "mongodb://localhost:27017"
//	database = "pedigree"
//	lock_ttl = "30s"
//
//	[redis]
//	url = "redis://localhost:6379/0"
//	key_prefix = "pedigree:"
//
//	[cache]
//	backend = "redis"
//	ttl = "24h"
//
//	[server]
//	addr = ":8080"
//	metrics = true
//
// The store backend is one of "file", "badger" or "mongo". The first two keep
// their data under store.dir.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/pedigree/pkg/errors"
)

// AppName names the configuration, data and cache directories.
const AppName = "pedigree"

// Store backends.
const (
	StoreFile   = "file"
	StoreMongo  = "mongo"
	StoreBadger = "badger"
)

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Config is the full configuration file.
type Config struct {
	Store  StoreConfig  `toml:"store"`
	Redis  RedisConfig  `toml:"redis"`
	Cache  CacheConfig  `toml:"cache"`
	Server ServerConfig `toml:"server"`
}

// StoreConfig selects where families and patients live.
type StoreConfig struct {
	Backend           string        `toml:"backend"`
	Dir               string        `toml:"dir"`
	MongoURI          string        `toml:"mongo_uri"`
	Database          string        `toml:"database"`
	FamilyCollection  string        `toml:"family_collection"`
	PatientCollection string        `toml:"patient_collection"`
	LockTTL           time.Duration `toml:"lock_ttl"`
}

// RedisConfig enables the shared lock (and optionally the cache).
// An empty URL means no Redis: locks are held in-process.
type RedisConfig struct {
	URL       string `toml:"url"`
	KeyPrefix string `toml:"key_prefix"`
}

// CacheConfig controls caching of viewer-highlighted images.
type CacheConfig struct {
	Backend string        `toml:"backend"`
	Dir     string        `toml:"dir"`
	TTL     time.Duration `toml:"ttl"`
}

// ServerConfig configures `pedigree serve`.
type ServerConfig struct {
	Addr         string        `toml:"addr"`
	ReadTimeout  time.Duration `toml:"read_timeout"`
	WriteTimeout time.Duration `toml:"write_timeout"`
	Metrics      bool          `toml:"metrics"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Backend:           StoreFile,
			Database:          AppName,
			FamilyCollection:  "families",
			PatientCollection: "patients",
			LockTTL:           30 * time.Second,
		},
		Redis: RedisConfig{KeyPrefix: AppName + ":"},
		Cache: CacheConfig{
			Backend: CacheFile,
			TTL:     24 * time.Hour,
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
	}
}

// Load reads the file at path on top of the defaults. An empty path means
// [DefaultPath]; a missing default file is not an error, a missing explicit
// file is.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return cfg, cfg.fillDirs()
		}
		path = p
	}

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, cfg.fillDirs()
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "cannot read config %s", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown config key %s", undecoded[0])
	}

	if err := cfg.fillDirs(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode parses TOML text on top of the defaults and validates the result.
func Decode(data string) (*Config, error) {
	cfg := Default()
	if _, err := toml.Decode(data, cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "cannot parse config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks backend names and URLs.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case StoreFile, StoreBadger:
	case StoreMongo:
		if err := errors.ValidateURL(c.Store.MongoURI, "mongodb", "mongodb+srv"); err != nil {
			return err
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown store backend %q", c.Store.Backend)
	}

	if c.Redis.URL != "" {
		if err := errors.ValidateURL(c.Redis.URL, "redis", "rediss"); err != nil {
			return err
		}
	}

	switch c.Cache.Backend {
	case CacheFile, CacheNone:
	case CacheRedis:
		if c.Redis.URL == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "cache backend redis needs [redis] url")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q", c.Cache.Backend)
	}

	if c.Store.LockTTL <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "store lock_ttl must be positive")
	}
	return nil
}

// fillDirs resolves empty directories to their XDG locations.
func (c *Config) fillDirs() error {
	if c.Store.Dir == "" {
		dir, err := DataDir()
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "cannot resolve data directory")
		}
		c.Store.Dir = filepath.Join(dir, "families")
	}
	if c.Cache.Dir == "" {
		dir, err := CacheDir()
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "cannot resolve cache directory")
		}
		c.Cache.Dir = dir
	}
	return nil
}

// DefaultPath returns $XDG_CONFIG_HOME/pedigree/config.toml.
func DefaultPath() (string, error) {
	dir, err := xdgDir("XDG_CONFIG_HOME", ".config")
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// DataDir returns $XDG_DATA_HOME/pedigree.
func DataDir() (string, error) {
	return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

// CacheDir returns $XDG_CACHE_HOME/pedigree.
func CacheDir() (string, error) {
	return xdgDir("XDG_CACHE_HOME", ".cache")
}

func xdgDir(env, fallback string) (string, error) {
	if base := os.Getenv(env); base != "" {
		return filepath.Join(base, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, fallback, AppName), nil
}
