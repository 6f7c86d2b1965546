package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

const envPrefix = "SHOPDASH"

type Config struct {
	ListenAddr string `mapstructure:"listen_addr"`
	CatalogURL string `mapstructure:"catalog_url"`

	StoreBackend string `mapstructure:"store_backend"` // memory | bolt | postgres
	BoltPath     string `mapstructure:"bolt_path"`
	PostgresDSN  string `mapstructure:"postgres_dsn"`

	MetricsEnabled bool   `mapstructure:"metrics_enabled"`
	MetricsToken   string `mapstructure:"metrics_token"`

	MutationLimit     int `mapstructure:"mutation_limit"`
	MutationWindowSec int `mapstructure:"mutation_window_sec"`
}

// Load reads the optional config file and applies SHOPDASH_* env
// overrides on top of the defaults. An empty path means env-and-
// defaults only.
func Load(path string) (Config, error) {
	v := viper.New()

	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("catalog_url", "")
	v.SetDefault("store_backend", "bolt")
	v.SetDefault("bolt_path", "shopdash.db")
	v.SetDefault("postgres_dsn", "")
	v.SetDefault("metrics_enabled", false)
	v.SetDefault("metrics_token", "")
	v.SetDefault("mutation_limit", 60)
	v.SetDefault("mutation_window_sec", 60)

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.CatalogURL == "" {
		return errors.New("catalog_url is required (SHOPDASH_CATALOG_URL)")
	}
	switch c.StoreBackend {
	case "memory":
	case "bolt":
		if c.BoltPath == "" {
			return errors.New("bolt_path is required for the bolt backend")
		}
	case "postgres":
		if c.PostgresDSN == "" {
			return errors.New("postgres_dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown store_backend %q", c.StoreBackend)
	}
	return nil
}
