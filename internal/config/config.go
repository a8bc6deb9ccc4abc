// Package config loads settings from file, environment and flags
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/alvarorichard/animestream/internal/tracking"
)

// EnvPrefix prefixes every environment override, e.g. ANIMESTREAM_RELAY_ADDR
const EnvPrefix = "ANIMESTREAM"

// Extractor modes
const (
	ExtractorRemote   = "remote"
	ExtractorHeadless = "headless"
	ExtractorOff      = "off"
)

// Config wraps a viper instance with typed accessors
type Config struct {
	v *viper.Viper
}

// Load reads configuration. An explicit path must exist; otherwise
// config.yaml in the user config dir is optional.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config %s", path)
		}
		return &Config{v: v}, nil
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if dir, err := configDir(); err == nil {
		v.AddConfigPath(dir)
	}
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "failed to read config")
		}
	}
	return &Config{v: v}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)

	v.SetDefault("aggregator.base_url", "https://aniwatch-api.vercel.app/api/v2/hianime")
	v.SetDefault("watchanimeworld.base_url", "https://watchanimeworld.in")
	v.SetDefault("animehindidubbed.base_url", "https://animehindidubbed.in")
	v.SetDefault("scrape.timeout", "20s")

	v.SetDefault("extractor.mode", ExtractorRemote)
	v.SetDefault("extractor.url", "http://127.0.0.1:8787/api/extract")
	v.SetDefault("extractor.timeout", "30s")
	v.SetDefault("extractor.workers", 3)

	v.SetDefault("cache.ttl", "10m")
	v.SetDefault("cache.size", 256)

	v.SetDefault("ratelimit.requests", 60)
	v.SetDefault("ratelimit.window", "1m")
	v.SetDefault("ratelimit.sweep", "1m")

	v.SetDefault("relay.addr", ":8787")
	v.SetDefault("tracking.db_path", tracking.DefaultDBPath())
}

func configDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "animestream"), nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "animestream"), nil
}

// Viper exposes the underlying instance for flag binding
func (c *Config) Viper() *viper.Viper {
	return c.v
}

// Set overrides a key
func (c *Config) Set(key string, value interface{}) {
	c.v.Set(key, value)
}

// Used returns the config file in use, if any
func (c *Config) Used() string {
	return c.v.ConfigFileUsed()
}

func (c *Config) Debug() bool                   { return c.v.GetBool("debug") }
func (c *Config) AggregatorURL() string         { return c.v.GetString("aggregator.base_url") }
func (c *Config) WatchAnimeWorldURL() string    { return c.v.GetString("watchanimeworld.base_url") }
func (c *Config) AnimeHindiDubbedURL() string   { return c.v.GetString("animehindidubbed.base_url") }
func (c *Config) ScrapeTimeout() time.Duration  { return c.v.GetDuration("scrape.timeout") }
func (c *Config) ExtractorURL() string          { return c.v.GetString("extractor.url") }
func (c *Config) ExtractTimeout() time.Duration { return c.v.GetDuration("extractor.timeout") }
func (c *Config) ExtractWorkers() int           { return c.v.GetInt("extractor.workers") }
func (c *Config) CacheTTL() time.Duration       { return c.v.GetDuration("cache.ttl") }
func (c *Config) CacheSize() int                { return c.v.GetInt("cache.size") }
func (c *Config) RateLimitRequests() int        { return c.v.GetInt("ratelimit.requests") }
func (c *Config) RateLimitWindow() time.Duration {
	return c.v.GetDuration("ratelimit.window")
}
func (c *Config) RateLimitSweep() time.Duration { return c.v.GetDuration("ratelimit.sweep") }
func (c *Config) RelayAddr() string             { return c.v.GetString("relay.addr") }
func (c *Config) TrackingDBPath() string        { return c.v.GetString("tracking.db_path") }

// ExtractorMode returns remote, headless or off. Unknown values fall back to remote.
func (c *Config) ExtractorMode() string {
	switch mode := strings.ToLower(c.v.GetString("extractor.mode")); mode {
	case ExtractorRemote, ExtractorHeadless, ExtractorOff:
		return mode
	default:
		return ExtractorRemote
	}
}
