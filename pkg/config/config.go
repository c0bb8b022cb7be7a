package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"CryptoCompass/internal/domain/models"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Log         struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
	Server struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		CORS            bool          `yaml:"cors" default:"true"`
		AllowOrigins    []string      `yaml:"allow_origins"`
		SlowThreshold   time.Duration `yaml:"slow_threshold" default:"2s"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool `yaml:"enabled" default:"true"`
	} `yaml:"metrics"`
	CoinGecko struct {
		BaseURL    string        `yaml:"base_url" default:"https://api.coingecko.com/api/v3"`
		APIKey     string        `yaml:"api_key"`
		VsCurrency string        `yaml:"vs_currency" default:"usd"`
		Timeout    time.Duration `yaml:"timeout" default:"10s"`
	} `yaml:"coingecko"`
	Refresh struct {
		Markets struct {
			Interval time.Duration `yaml:"interval" default:"5m"`
			Limit    int           `yaml:"limit" default:"10"`
		} `yaml:"markets"`
		Prices struct {
			Interval time.Duration `yaml:"interval" default:"1m"`
			Limit    int           `yaml:"limit" default:"50"`
		} `yaml:"prices"`
	} `yaml:"refresh"`
	Relay struct {
		DefaultLimit int           `yaml:"default_limit" default:"10"`
		CacheTTL     time.Duration `yaml:"cache_ttl" default:"60s"`
		CacheControl string        `yaml:"cache_control" default:"public, s-maxage=60, stale-while-revalidate=300"`
	} `yaml:"relay"`
	RateLimit struct {
		Relay     Bucket `yaml:"relay"`
		Simulator Bucket `yaml:"simulator"`
	} `yaml:"rate_limit"`
	Cache struct {
		MemoryMaxSize int `yaml:"memory_max_size" default:"1000"`
		Redis         struct {
			Enabled  bool   `yaml:"enabled"`
			Host     string `yaml:"host" default:"localhost"`
			Port     int    `yaml:"port" default:"6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix" default:"cryptocompass"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic" default:"market.snapshots"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"gzip"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	Stream struct {
		Enabled      bool          `yaml:"enabled" default:"true"`
		SendBuffer   int           `yaml:"send_buffer" default:"16"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		PingInterval time.Duration `yaml:"ping_interval" default:"30s"`
	} `yaml:"stream"`
	Catalog models.Catalog `yaml:"catalog"`
}

// Bucket configures a per-client token bucket.
type Bucket struct {
	Capacity     float64 `yaml:"capacity" default:"30"`
	RefillPerSec float64 `yaml:"refill_per_sec" default:"1"`
}

// Load reads and parses a YAML configuration file on top of the defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse builds a Config from raw YAML. Defaults are applied first so that
// explicit values in the document (including false and zero) win.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if len(c.Catalog.Templates) == 0 && len(c.Catalog.SimulatorAssets) == 0 {
		c.Catalog = models.DefaultCatalog()
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads an optional .env file, the YAML config, and then applies
// environment overrides.
func LoadWithEnv(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("APP_ENV"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("COINGECKO_API_KEY"); v != "" {
		c.CoinGecko.APIKey = v
	}
	if v := os.Getenv("COINGECKO_BASE_URL"); v != "" {
		c.CoinGecko.BaseURL = v
	}
	if v := os.Getenv("HTTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HTTP_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		host, port, err := net.SplitHostPort(v)
		if err != nil {
			return fmt.Errorf("REDIS_ADDR: %w", err)
		}
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("REDIS_ADDR port: %w", err)
		}
		c.Cache.Redis.Enabled = true
		c.Cache.Redis.Host = host
		c.Cache.Redis.Port = p
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Enabled = true
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	return nil
}

// Origins returns the browser origins allowed to call the API and open the
// websocket stream. With CORS off only same-origin callers are accepted (nil);
// with CORS on and no list, any origin is.
func (c *Config) Origins() []string {
	if !c.Server.CORS {
		return nil
	}
	if len(c.Server.AllowOrigins) == 0 {
		return []string{"*"}
	}
	return c.Server.AllowOrigins
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port)
	}
	if c.CoinGecko.BaseURL == "" {
		return fmt.Errorf("coingecko.base_url is required")
	}
	if c.CoinGecko.Timeout <= 0 {
		return fmt.Errorf("coingecko.timeout must be > 0")
	}
	if c.Refresh.Markets.Interval < time.Second || c.Refresh.Prices.Interval < time.Second {
		return fmt.Errorf("refresh intervals must be at least 1s")
	}
	if c.Refresh.Markets.Limit <= 0 || c.Refresh.Prices.Limit <= 0 {
		return fmt.Errorf("refresh limits must be > 0")
	}
	if c.Relay.DefaultLimit <= 0 {
		return fmt.Errorf("relay.default_limit must be > 0")
	}
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("kafka.topic is required when kafka is enabled")
		}
	}
	if err := c.Catalog.Validate(); err != nil {
		return err
	}
	if !c.Catalog.ListingSizeAllowed(c.Refresh.Markets.Limit) {
		return fmt.Errorf("refresh.markets.limit %d is not one of catalog.listing_sizes", c.Refresh.Markets.Limit)
	}
	return nil
}
