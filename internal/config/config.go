// README: Config loader; defaults, optional YAML file, then env overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	MapsProviderGoogle       = "google"
	MapsProviderStraightLine = "straightline"

	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

type CacheConfig struct {
	Backend string        `yaml:"backend"`
	Size    int           `yaml:"size"`
	TTL     time.Duration `yaml:"ttl"`
}

type MapsConfig struct {
	Provider string `yaml:"provider"`
	APIKey   string `yaml:"api_key"`
	// QPS is shared by geocode and directions calls; 0 disables the limiter.
	QPS             float64 `yaml:"qps"`
	StraightLineKph float64 `yaml:"straightline_kph"`
}

type OptimizerConfig struct {
	ResolveTimeout     time.Duration `yaml:"resolve_timeout"`
	ResolveConcurrency int           `yaml:"resolve_concurrency"`
	MaxRiders          int           `yaml:"max_riders"`
}

type Config struct {
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	DB struct {
		DSN string `yaml:"dsn"`
	} `yaml:"db"`
	Redis struct {
		Addr string `yaml:"addr"`
	} `yaml:"redis"`
	Cache     CacheConfig     `yaml:"cache"`
	Maps      MapsConfig      `yaml:"maps"`
	Optimizer OptimizerConfig `yaml:"optimizer"`
	Firebase  struct {
		ProjectID       string `yaml:"project_id"`
		CredentialsFile string `yaml:"credentials_file"`
	} `yaml:"firebase"`
}

func Defaults() Config {
	var cfg Config
	cfg.HTTP.Addr = ":8080"
	cfg.DB.DSN = ""
	cfg.Redis.Addr = "localhost:6379"
	cfg.Cache = CacheConfig{Backend: CacheBackendMemory, Size: 1024, TTL: 24 * time.Hour}
	cfg.Maps = MapsConfig{Provider: MapsProviderGoogle, QPS: 10, StraightLineKph: 40}
	cfg.Optimizer = OptimizerConfig{
		ResolveTimeout:     30 * time.Second,
		ResolveConcurrency: 8,
		MaxRiders:          12,
	}
	return cfg
}

func Load() (Config, error) {
	cfg := Defaults()
	if path := os.Getenv("FLOCK_CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.HTTP.Addr = envOrDefault("FLOCK_HTTP_ADDR", cfg.HTTP.Addr)
	cfg.DB.DSN = envOrDefault("FLOCK_DB_DSN", cfg.DB.DSN)
	cfg.Redis.Addr = envOrDefault("FLOCK_REDIS_ADDR", cfg.Redis.Addr)
	cfg.Cache.Backend = envOrDefault("FLOCK_CACHE_BACKEND", cfg.Cache.Backend)
	cfg.Cache.Size = envOrDefaultInt("FLOCK_CACHE_SIZE", cfg.Cache.Size)
	cfg.Cache.TTL = envOrDefaultDuration("FLOCK_CACHE_TTL", cfg.Cache.TTL)
	cfg.Maps.Provider = envOrDefault("FLOCK_MAPS_PROVIDER", cfg.Maps.Provider)
	cfg.Maps.APIKey = envOrDefault("GOOGLE_MAPS_API_KEY", cfg.Maps.APIKey)
	cfg.Maps.QPS = envOrDefaultFloat("FLOCK_MAPS_QPS", cfg.Maps.QPS)
	cfg.Maps.StraightLineKph = envOrDefaultFloat("FLOCK_STRAIGHTLINE_KPH", cfg.Maps.StraightLineKph)
	cfg.Optimizer.ResolveTimeout = envOrDefaultDuration("FLOCK_RESOLVE_TIMEOUT", cfg.Optimizer.ResolveTimeout)
	cfg.Optimizer.ResolveConcurrency = envOrDefaultInt("FLOCK_RESOLVE_CONCURRENCY", cfg.Optimizer.ResolveConcurrency)
	cfg.Optimizer.MaxRiders = envOrDefaultInt("FLOCK_MAX_RIDERS", cfg.Optimizer.MaxRiders)
	cfg.Firebase.ProjectID = envOrDefault("FLOCK_FIREBASE_PROJECT_ID", cfg.Firebase.ProjectID)
	cfg.Firebase.CredentialsFile = envOrDefault("FLOCK_FIREBASE_CREDENTIALS", cfg.Firebase.CredentialsFile)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Maps.Provider {
	case MapsProviderGoogle:
		if c.Maps.APIKey == "" {
			return fmt.Errorf("GOOGLE_MAPS_API_KEY is required for maps provider %q", c.Maps.Provider)
		}
	case MapsProviderStraightLine:
		if c.Maps.StraightLineKph <= 0 {
			return fmt.Errorf("straight line speed must be positive, got %v", c.Maps.StraightLineKph)
		}
	default:
		return fmt.Errorf("unknown maps provider %q", c.Maps.Provider)
	}
	switch c.Cache.Backend {
	case CacheBackendMemory, CacheBackendRedis:
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	if c.Optimizer.ResolveConcurrency < 1 {
		return fmt.Errorf("resolve concurrency must be at least 1, got %d", c.Optimizer.ResolveConcurrency)
	}
	// Rider sets are bitmasks in the partition solver.
	if c.Optimizer.MaxRiders < 1 || c.Optimizer.MaxRiders > 63 {
		return fmt.Errorf("max riders must be between 1 and 63, got %d", c.Optimizer.MaxRiders)
	}
	return nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
