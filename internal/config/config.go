package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"marketwatch/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   logging.Config  `mapstructure:"logging"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Upstream  UpstreamConfig  `mapstructure:"upstream"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Alerting  AlertingConfig  `mapstructure:"alerting"`
	Watchlist WatchlistConfig `mapstructure:"watchlist"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Export    ExportConfig    `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// SchedulerConfig governs the tick loop and the actions it drives.
type SchedulerConfig struct {
	Tick            time.Duration `mapstructure:"tick"`
	IngestInterval  time.Duration `mapstructure:"ingest_interval"`
	IngestTimeout   time.Duration `mapstructure:"ingest_timeout"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	Retention       time.Duration `mapstructure:"retention"`
	StartupDelay    time.Duration `mapstructure:"startup_delay"`
	AdvisoryLockKey int64         `mapstructure:"advisory_lock_key"`
}

// UpstreamConfig covers the public market feed.
type UpstreamConfig struct {
	DataURL        string            `mapstructure:"data_url"`
	NamesURL       string            `mapstructure:"names_url"`
	Referer        string            `mapstructure:"referer"`
	Language       string            `mapstructure:"language"`
	RequestTimeout time.Duration     `mapstructure:"request_timeout"`
	UserAgent      string            `mapstructure:"user_agent"`
	RatePerMinute  int               `mapstructure:"rate_per_minute"`
	DefaultServer  string            `mapstructure:"default_server"`
	Servers        map[string]string `mapstructure:"servers"`
}

// CacheConfig selects the read-through cache backend and its freshness windows.
type CacheConfig struct {
	ServerTTL   time.Duration `mapstructure:"server_ttl"`
	NamesTTL    time.Duration `mapstructure:"names_ttl"`
	RedisAddr   string        `mapstructure:"redis_addr"`
	RedisDB     int           `mapstructure:"redis_db"`
	RedisPrefix string        `mapstructure:"redis_prefix"`
}

// AlertingConfig defines alert cooldown and sink routing.
type AlertingConfig struct {
	Cooldown time.Duration  `mapstructure:"cooldown"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig holds fallback credentials used when no settings row is active.
type TelegramConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	BotToken string        `mapstructure:"bot_token"`
	ChatID   string        `mapstructure:"chat_id"`
	APIBase  string        `mapstructure:"api_base"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// WatchlistConfig seeds the first watchlist entry on an empty table.
type WatchlistConfig struct {
	SeedQuery       string `mapstructure:"seed_query"`
	SeedServer      string `mapstructure:"seed_server"`
	IntervalMinutes int    `mapstructure:"interval_minutes"`
}

// HTTPConfig configures the read-only query API.
type HTTPConfig struct {
	Listen string `mapstructure:"listen"`
}

// ExportConfig sets history export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("MARKETWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "marketwatch")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", "30m")

	v.SetDefault("scheduler.tick", "30s")
	v.SetDefault("scheduler.ingest_interval", "10m")
	v.SetDefault("scheduler.ingest_timeout", "600s")
	v.SetDefault("scheduler.cleanup_interval", "24h")
	v.SetDefault("scheduler.retention", "336h")
	v.SetDefault("scheduler.startup_delay", "0s")
	v.SetDefault("scheduler.advisory_lock_key", 2050)

	v.SetDefault("upstream.data_url", "https://metin2alerts.com/store/public/data/{server_id}.json")
	v.SetDefault("upstream.names_url", "https://metin2alerts.com/m2_data/{lang}/item_names.json")
	v.SetDefault("upstream.referer", "https://metin2alerts.com/store/")
	v.SetDefault("upstream.language", "de")
	v.SetDefault("upstream.request_timeout", "120s")
	v.SetDefault("upstream.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	v.SetDefault("upstream.rate_per_minute", 30)
	v.SetDefault("upstream.default_server", "Chimera")

	v.SetDefault("cache.server_ttl", "5m")
	v.SetDefault("cache.names_ttl", "24h")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.redis_prefix", "marketwatch:")

	v.SetDefault("alerting.cooldown", "30m")
	v.SetDefault("alerting.telegram.enabled", false)
	v.SetDefault("alerting.telegram.api_base", "https://api.telegram.org")
	v.SetDefault("alerting.telegram.timeout", "15s")

	v.SetDefault("watchlist.seed_query", "Vollmond")
	v.SetDefault("watchlist.seed_server", "Chimera")
	v.SetDefault("watchlist.interval_minutes", 20)

	v.SetDefault("http.listen", "")

	v.SetDefault("export.max_data_points", 5000)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Scheduler.Tick <= 0 {
		return fmt.Errorf("scheduler.tick must be greater than zero")
	}
	if c.Scheduler.IngestInterval < c.Scheduler.Tick {
		return fmt.Errorf("scheduler.ingest_interval must not be shorter than scheduler.tick")
	}
	if c.Scheduler.CleanupInterval < c.Scheduler.Tick {
		return fmt.Errorf("scheduler.cleanup_interval must not be shorter than scheduler.tick")
	}
	if c.Scheduler.IngestTimeout <= 0 {
		return fmt.Errorf("scheduler.ingest_timeout must be greater than zero")
	}
	if c.Scheduler.Retention <= 0 {
		return fmt.Errorf("scheduler.retention must be greater than zero")
	}
	if c.Cache.ServerTTL < 0 || c.Cache.NamesTTL < 0 {
		return fmt.Errorf("cache ttl values cannot be negative")
	}
	if c.Alerting.Cooldown < 0 {
		return fmt.Errorf("alerting.cooldown cannot be negative")
	}
	if c.Upstream.DataURL == "" || c.Upstream.NamesURL == "" {
		return fmt.Errorf("upstream.data_url and upstream.names_url are required")
	}
	if c.Upstream.Language == "" {
		return fmt.Errorf("upstream.language is required")
	}
	if c.Alerting.Telegram.Enabled {
		if c.Alerting.Telegram.BotToken == "" {
			return fmt.Errorf("alerting.telegram.bot_token is required when telegram is enabled")
		}
		if c.Alerting.Telegram.ChatID == "" {
			return fmt.Errorf("alerting.telegram.chat_id is required when telegram is enabled")
		}
	}
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	return nil
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}
