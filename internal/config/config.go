package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPort        = 4028
	DefaultTimeoutSec  = 1
	DefaultCacheAddr   = "localhost:6379"
	DefaultCachePrefix = "antprobe-"
	DefaultCacheTTLSec = 30
)

var validate = validator.New()

// Config holds probe settings. Everything here is also settable from the
// command line; flags override file values.
type Config struct {
	Port       int         `yaml:"port" validate:"gte=1,lte=65535"`
	TimeoutSec int         `yaml:"timeout_sec" validate:"gte=1"`
	Ping       bool        `yaml:"ping"`
	Cache      CacheConfig `yaml:"cache"`
}

// CacheConfig configures the optional Redis result cache.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr" validate:"omitempty,hostname_port"`
	DB      int    `yaml:"db" validate:"gte=0"`
	Prefix  string `yaml:"prefix"`
	TTLSec  int    `yaml:"ttl_sec" validate:"gte=1"`
}

// Load reads and parses a YAML config file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}

	ApplyDefaults(&cfg)
	return cfg, nil
}

// Default returns a config with every default applied.
func Default() Config {
	var cfg Config
	ApplyDefaults(&cfg)
	return cfg
}

// ApplyDefaults fills in default values when empty.
func ApplyDefaults(cfg *Config) {
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.TimeoutSec == 0 {
		cfg.TimeoutSec = DefaultTimeoutSec
	}
	if cfg.Cache.Addr == "" {
		cfg.Cache.Addr = DefaultCacheAddr
	}
	if cfg.Cache.Prefix == "" {
		cfg.Cache.Prefix = DefaultCachePrefix
	}
	if cfg.Cache.TTLSec == 0 {
		cfg.Cache.TTLSec = DefaultCacheTTLSec
	}
}

// Validate checks field constraints after defaults are applied.
func Validate(cfg Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ValidateHost checks the positional miner address argument.
func ValidateHost(host string) error {
	if err := validate.Var(host, "ip4_addr"); err != nil {
		return fmt.Errorf("%q is not a valid IP address", host)
	}
	return nil
}

// Timeout is the per-connection deadline for the device exchange.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// CacheTTL is the lifetime of one cached device reply.
func (c CacheConfig) CacheTTL() time.Duration {
	return time.Duration(c.TTLSec) * time.Second
}
