// Package config loads cadpage's TOML configuration file.
//
// A configuration file is optional. [Load] returns [Default] when the file
// does not exist, and command-line flags override whatever it sets:
//
//	[paper]
//	size = "A4"
//	margin = 0.5
//
//	[export]
//	formats = ["pdf", "svg"]
//	workers = 4
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//
//	[server]
//	addr = ":8080"
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/cadpage/pkg/cache"
	"github.com/matzehuels/cadpage/pkg/paper"
)

const (
	appName  = "cadpage"
	fileName = "config.toml"

	// DefaultAddr is the listen address of `cadpage serve`.
	DefaultAddr = ":8080"
)

// Config is the decoded configuration file.
type Config struct {
	Paper  PaperConf  `toml:"paper"`
	Export ExportConf `toml:"export"`
	Cache  CacheConf  `toml:"cache"`
	Server ServerConf `toml:"server"`

	// Path is the file the values were read from, empty for defaults.
	Path string `toml:"-"`
}

// PaperConf selects the page catalog.
type PaperConf struct {
	// Size is the base page; its rotated variant is added automatically.
	Size    string   `toml:"size"`
	Margin  float64  `toml:"margin"`
	Catalog []string `toml:"catalog"`
}

// ExportConf holds export defaults.
type ExportConf struct {
	Formats []string `toml:"formats"`
	Workers int      `toml:"workers"`
	Theme   string   `toml:"theme"`
}

// CacheConf selects the artifact cache backend.
type CacheConf struct {
	Backend       string   `toml:"backend"`
	Dir           string   `toml:"dir"`
	TTL           Duration `toml:"ttl"`
	RedisAddr     string   `toml:"redis_addr"`
	RedisPassword string   `toml:"redis_password"`
	RedisDB       int      `toml:"redis_db"`
	MongoURI      string   `toml:"mongo_uri"`
	MongoDatabase string   `toml:"mongo_database"`
}

// ServerConf configures the HTTP API.
type ServerConf struct {
	Addr string `toml:"addr"`
}

// Duration is a time.Duration decoded from strings like "24h".
type Duration struct {
	time.Duration
}

// UnmarshalText is the method called by TOML when decoding a value.
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText encodes the duration in time.Duration notation.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Paper: PaperConf{
			Size:   paper.A4.Name,
			Margin: paper.DefaultMargin,
		},
		Export: ExportConf{
			Formats: []string{"pdf"},
			Workers: 4,
			Theme:   "white",
		},
		Cache: CacheConf{
			Backend:       cache.BackendFile,
			TTL:           Duration{cache.TTLArtifact},
			MongoDatabase: appName,
		},
		Server: ServerConf{Addr: DefaultAddr},
	}
}

// Load reads the file at path over the defaults. An empty path looks in
// [DefaultPath]; a missing default file is not an error, a missing explicit
// file is. Unknown keys are rejected so typos do not go unnoticed.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return Default(), nil
		}
		path = p
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	c, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	c.Path = path
	return c, nil
}

// Parse decodes TOML text over the defaults.
func Parse(text string) (*Config, error) {
	c := Default()
	md, err := toml.Decode(text, c)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown configuration keys: %v", undecoded)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks values that TOML typing cannot.
func (c *Config) Validate() error {
	if c.Paper.Margin < 0 {
		return fmt.Errorf("paper.margin must not be negative")
	}
	if _, err := c.Catalog(); err != nil {
		return fmt.Errorf("paper: %w", err)
	}
	if c.Export.Workers < 0 {
		return fmt.Errorf("export.workers must not be negative")
	}
	if c.Cache.TTL.Duration < 0 {
		return fmt.Errorf("cache.ttl must not be negative")
	}
	return nil
}

// Catalog returns the configured paper catalog. An explicit catalog list
// wins over size.
func (c *Config) Catalog() (paper.Catalog, error) {
	if len(c.Paper.Catalog) > 0 {
		return paper.ParseCatalog(c.Paper.Catalog...)
	}
	if c.Paper.Size == "" {
		return paper.DefaultCatalog(), nil
	}
	return paper.ParseCatalog(c.Paper.Size)
}

// PaperSpecs returns the catalog as page specifications for
// pipeline.Options.Paper.
func (c *Config) PaperSpecs() []string {
	if len(c.Paper.Catalog) > 0 {
		return c.Paper.Catalog
	}
	if c.Paper.Size != "" {
		return []string{c.Paper.Size}
	}
	return nil
}

// CacheOptions converts the cache section for cache.Open. dir is used when
// the file does not set one.
func (c *Config) CacheOptions(dir string) cache.Options {
	if c.Cache.Dir != "" {
		dir = c.Cache.Dir
	}
	return cache.Options{
		Backend: c.Cache.Backend,
		Dir:     dir,
		Redis: cache.RedisOptions{
			Addr:     c.Cache.RedisAddr,
			Password: c.Cache.RedisPassword,
			DB:       c.Cache.RedisDB,
			Prefix:   appName + ":",
		},
		Mongo: cache.MongoOptions{
			URI:      c.Cache.MongoURI,
			Database: c.Cache.MongoDatabase,
		},
	}
}

// Write encodes c as TOML.
func (c *Config) Write(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// DefaultPath returns $XDG_CONFIG_HOME/cadpage/config.toml, falling back to
// ~/.config/cadpage/config.toml.
func DefaultPath() (string, error) {
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		return filepath.Join(home, appName, fileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, fileName), nil
}
