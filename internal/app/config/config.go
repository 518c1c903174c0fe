// Package config loads the service configuration from an optional YAML file,
// a .env file and the process environment, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults mirror the original bot: BTCUSDT 1m candles, 10 per batch, every 5 seconds.
const (
	DefaultSymbol         = "BTCUSDT"
	DefaultTimeframe      = "1m"
	DefaultBatchSize      = 10
	DefaultPollInterval   = 5 * time.Second
	DefaultBaseURL        = "https://testnet.binance.vision/api/v3"
	DefaultTimeout        = 10 * time.Second
	DefaultStoreDriver    = "sqlite"
	DefaultTable          = "candlestick_data"
	DefaultConnectTimeout = 60 * time.Second
	DefaultKafkaTopic     = "candles"
	DefaultHTTPAddr       = ":8080"
	DefaultMetricsAddr    = ":9090"

	// maxBatchSize is the provider's upper bound for one klines request.
	maxBatchSize = 1000
)

var (
	tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

	validTimeframes = map[string]struct{}{
		"1s": {}, "1m": {}, "3m": {}, "5m": {}, "15m": {}, "30m": {},
		"1h": {}, "2h": {}, "4h": {}, "6h": {}, "8h": {}, "12h": {},
		"1d": {}, "3d": {}, "1w": {}, "1M": {},
	}
)

// Config is the full service configuration.
type Config struct {
	Sync    SyncConfig    `yaml:"sync"`
	Binance BinanceConfig `yaml:"binance"`
	Store   StoreConfig   `yaml:"store"`
	Redis   RedisConfig   `yaml:"redis"`
	Kafka   KafkaConfig   `yaml:"kafka"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
}

// SyncConfig describes the synchronised series and the polling cadence.
type SyncConfig struct {
	Symbol          string        `yaml:"symbol"`
	Timeframe       string        `yaml:"timeframe"`
	BatchSize       int           `yaml:"batch_size"`
	PollIntervalRaw string        `yaml:"poll_interval"`
	PollInterval    time.Duration `yaml:"-"`
}

type BinanceConfig struct {
	BaseURL    string        `yaml:"base_url"`
	TimeoutRaw string        `yaml:"timeout"`
	Timeout    time.Duration `yaml:"-"`
}

type StoreConfig struct {
	Driver            string        `yaml:"driver"`
	DSN               string        `yaml:"dsn"`
	Table             string        `yaml:"table"`
	Host              string        `yaml:"host"`
	Port              string        `yaml:"port"`
	User              string        `yaml:"user"`
	Password          string        `yaml:"password"`
	Name              string        `yaml:"name"`
	SSLMode           string        `yaml:"sslmode"`
	ConnectTimeoutRaw string        `yaml:"connect_timeout"`
	ConnectTimeout    time.Duration `yaml:"-"`
}

// RedisConfig enables the read cache when Host is set.
type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// KafkaConfig enables candle events when Brokers is set (comma separated).
type KafkaConfig struct {
	Brokers string `yaml:"brokers"`
	Topic   string `yaml:"topic"`
}

type ServerConfig struct {
	HTTPAddr    string `yaml:"http_addr"`
	MetricsAddr string `yaml:"metrics_addr"`
	// JWTSecret protects the read API when set.
	JWTSecret string `yaml:"jwt_secret"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Sync: SyncConfig{
			Symbol:       DefaultSymbol,
			Timeframe:    DefaultTimeframe,
			BatchSize:    DefaultBatchSize,
			PollInterval: DefaultPollInterval,
		},
		Binance: BinanceConfig{BaseURL: DefaultBaseURL, Timeout: DefaultTimeout},
		Store: StoreConfig{
			Driver:         DefaultStoreDriver,
			Table:          DefaultTable,
			Port:           "5432",
			ConnectTimeout: DefaultConnectTimeout,
		},
		Redis:  RedisConfig{Port: "6379"},
		Kafka:  KafkaConfig{Topic: DefaultKafkaTopic},
		Server: ServerConfig{HTTPAddr: DefaultHTTPAddr, MetricsAddr: DefaultMetricsAddr},
		Log:    LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads .env (if present), then CONFIG_FILE (if set), then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := cfg.MergeYAML(data); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// MergeYAML overlays the values present in data onto c.
func (c *Config) MergeYAML(data []byte) error {
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("unmarshal config file: %w", err)
	}
	return c.parseDurations()
}

// ApplyEnv overlays environment variables onto c.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	var errs []error
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}

	str("SYNC_SYMBOL", &c.Sync.Symbol)
	str("SYNC_TIMEFRAME", &c.Sync.Timeframe)
	num("SYNC_BATCH_SIZE", &c.Sync.BatchSize)
	str("SYNC_POLL_INTERVAL", &c.Sync.PollIntervalRaw)

	str("BINANCE_BASE_URL", &c.Binance.BaseURL)
	str("BINANCE_TIMEOUT", &c.Binance.TimeoutRaw)

	str("STORE_DRIVER", &c.Store.Driver)
	str("STORE_DSN", &c.Store.DSN)
	str("STORE_TABLE", &c.Store.Table)
	str("STORE_CONNECT_TIMEOUT", &c.Store.ConnectTimeoutRaw)
	str("DB_HOST", &c.Store.Host)
	str("DB_PORT", &c.Store.Port)
	str("DB_USER", &c.Store.User)
	str("DB_PASSWORD", &c.Store.Password)
	str("DB_NAME", &c.Store.Name)
	str("DB_SSLMODE", &c.Store.SSLMode)

	str("REDIS_HOST", &c.Redis.Host)
	str("REDIS_PORT", &c.Redis.Port)
	str("REDIS_PASSWORD", &c.Redis.Password)
	num("REDIS_DB", &c.Redis.DB)

	str("KAFKA_BROKERS", &c.Kafka.Brokers)
	str("KAFKA_TOPIC", &c.Kafka.Topic)

	str("HTTP_ADDR", &c.Server.HTTPAddr)
	str("METRICS_ADDR", &c.Server.MetricsAddr)
	str("JWT_SECRET", &c.Server.JWTSecret)

	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)

	if err := c.parseDurations(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// parseDurations converts the raw duration strings and clears them.
func (c *Config) parseDurations() error {
	var errs []error
	parse := func(name string, raw *string, dst *time.Duration) {
		if *raw == "" {
			return
		}
		d, err := ParseDuration(*raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			return
		}
		*dst = d
		*raw = ""
	}
	parse("sync.poll_interval", &c.Sync.PollIntervalRaw, &c.Sync.PollInterval)
	parse("binance.timeout", &c.Binance.TimeoutRaw, &c.Binance.Timeout)
	parse("store.connect_timeout", &c.Store.ConnectTimeoutRaw, &c.Store.ConnectTimeout)
	return errors.Join(errs...)
}

// ParseDuration accepts Go duration strings ("5s", "1m30s") or a bare
// integer number of milliseconds ("5000").
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	return time.ParseDuration(s)
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Sync.Symbol == "" {
		errs = append(errs, errors.New("sync.symbol is required"))
	}
	if _, ok := validTimeframes[c.Sync.Timeframe]; !ok {
		errs = append(errs, fmt.Errorf("sync.timeframe %q is not a supported interval", c.Sync.Timeframe))
	}
	if c.Sync.BatchSize < 1 || c.Sync.BatchSize > maxBatchSize {
		errs = append(errs, fmt.Errorf("sync.batch_size must be between 1 and %d, got %d", maxBatchSize, c.Sync.BatchSize))
	}
	if c.Sync.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("sync.poll_interval must be positive, got %s", c.Sync.PollInterval))
	}
	if c.Binance.BaseURL == "" {
		errs = append(errs, errors.New("binance.base_url is required"))
	}
	if c.Binance.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("binance.timeout must be positive, got %s", c.Binance.Timeout))
	}
	switch c.Store.Driver {
	case "sqlite":
	case "postgres":
		if c.Store.DSN == "" && (c.Store.Host == "" || c.Store.Name == "") {
			errs = append(errs, errors.New("store: postgres needs STORE_DSN or DB_HOST and DB_NAME"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.driver must be sqlite or postgres, got %q", c.Store.Driver))
	}
	if !tableNamePattern.MatchString(c.Store.Table) {
		errs = append(errs, fmt.Errorf("store.table %q is not a valid identifier", c.Store.Table))
	}

	return errors.Join(errs...)
}
