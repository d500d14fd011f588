package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"glucosewatch/internal/logging"
	"glucosewatch/internal/reading"
)

// Config materialises application configuration. It is loaded once and handed to
// components by value; nothing mutates it afterwards.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Logging    logging.Config   `mapstructure:"logging"`
	Nightscout NightscoutConfig `mapstructure:"nightscout"`
	Collector  CollectorConfig  `mapstructure:"collector"`
	Render     RenderConfig     `mapstructure:"render"`
	Thresholds ThresholdsConfig `mapstructure:"thresholds"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Alerting   AlertingConfig   `mapstructure:"alerting"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Export     ExportConfig     `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// NightscoutConfig covers the telemetry source.
type NightscoutConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Token          string        `mapstructure:"token"`
	Units          string        `mapstructure:"units"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
}

// CollectorConfig governs polling cadence.
type CollectorConfig struct {
	Interval        time.Duration `mapstructure:"interval"`
	StartupDelay    time.Duration `mapstructure:"startup_delay"`
	BackfillOnStart bool          `mapstructure:"backfill_on_start"`
}

// RenderConfig shapes the sparkline window.
type RenderConfig struct {
	Interval           time.Duration `mapstructure:"interval"`
	Width              int           `mapstructure:"width"`
	BucketWidthMinutes int           `mapstructure:"bucket_width_minutes"`
	RowsPerColumn      int           `mapstructure:"rows_per_column"`
	GraphMin           float64       `mapstructure:"graph_min"`
	GraphMax           float64       `mapstructure:"graph_max"`
	Braille            bool          `mapstructure:"braille"`
	BrailleHeight      int           `mapstructure:"braille_height"`
}

// ThresholdsConfig bounds the in-range band.
type ThresholdsConfig struct {
	Low        float64       `mapstructure:"low"`
	High       float64       `mapstructure:"high"`
	StaleAfter time.Duration `mapstructure:"stale_after"`
}

// StorageConfig locates the reading log.
type StorageConfig struct {
	LogDir              string `mapstructure:"log_dir"`
	TimezoneOffsetHours int    `mapstructure:"timezone_offset_hours"`
}

// AlertingConfig defines alert routing.
type AlertingConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Cooldown time.Duration  `mapstructure:"cooldown"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig 描述 Telegram 告警参数。
type TelegramConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	BotToken string        `mapstructure:"bot_token"`
	ChatID   string        `mapstructure:"chat_id"`
	APIBase  string        `mapstructure:"api_base"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// MetricsConfig toggles the Prometheus listener.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("GLUCOSEWATCH")
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
	v.SetDefault("app.name", "glucosewatch")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stderr")

	v.SetDefault("nightscout.base_url", "")
	v.SetDefault("nightscout.token", "")
	v.SetDefault("nightscout.user_agent", "")
	v.SetDefault("nightscout.units", string(reading.MmolL))
	v.SetDefault("nightscout.request_timeout", "8s")

	v.SetDefault("collector.interval", "10s")
	v.SetDefault("collector.startup_delay", "0s")
	v.SetDefault("collector.backfill_on_start", true)

	v.SetDefault("render.interval", "30s")
	v.SetDefault("render.width", 72)
	v.SetDefault("render.bucket_width_minutes", 5)
	v.SetDefault("render.rows_per_column", 10)
	v.SetDefault("render.graph_min", 1.0)
	v.SetDefault("render.graph_max", 10.0)
	v.SetDefault("render.braille", false)
	v.SetDefault("render.braille_height", 8)

	v.SetDefault("thresholds.low", 3.9)
	v.SetDefault("thresholds.high", 8.0)
	v.SetDefault("thresholds.stale_after", "15m")

	v.SetDefault("storage.log_dir", "data")
	v.SetDefault("storage.timezone_offset_hours", 0)

	v.SetDefault("alerting.enabled", false)
	v.SetDefault("alerting.cooldown", "30m")
	v.SetDefault("alerting.telegram.enabled", false)
	v.SetDefault("alerting.telegram.api_base", "https://api.telegram.org")
	v.SetDefault("alerting.telegram.timeout", "10s")

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.addr", ":9464")

	v.SetDefault("export.max_data_points", 10000)
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
	if _, err := reading.ParseUnits(c.Nightscout.Units); err != nil {
		return fmt.Errorf("nightscout.units: %w", err)
	}
	if c.Collector.Interval <= 0 {
		return fmt.Errorf("collector.interval must be greater than zero")
	}
	if c.Render.Interval <= 0 {
		return fmt.Errorf("render.interval must be greater than zero")
	}
	if c.Render.Width <= 0 {
		return fmt.Errorf("render.width must be greater than zero")
	}
	if c.Render.BucketWidthMinutes <= 0 {
		return fmt.Errorf("render.bucket_width_minutes must be greater than zero")
	}
	if c.Render.RowsPerColumn <= 0 {
		return fmt.Errorf("render.rows_per_column must be greater than zero")
	}
	if c.Render.GraphMax <= c.Render.GraphMin {
		return fmt.Errorf("render.graph_max must be greater than render.graph_min")
	}
	if c.Thresholds.High <= c.Thresholds.Low {
		return fmt.Errorf("thresholds.high must be greater than thresholds.low")
	}
	if c.Thresholds.StaleAfter <= 0 {
		return fmt.Errorf("thresholds.stale_after must be greater than zero")
	}
	if c.Storage.LogDir == "" {
		return fmt.Errorf("storage.log_dir must be set")
	}
	if h := c.Storage.TimezoneOffsetHours; h < -12 || h > 14 {
		return fmt.Errorf("storage.timezone_offset_hours out of range: %d", h)
	}
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	if c.Alerting.Telegram.Enabled {
		if c.Alerting.Telegram.BotToken == "" {
			return fmt.Errorf("alerting.telegram.bot_token 必须配置")
		}
		if c.Alerting.Telegram.ChatID == "" {
			return fmt.Errorf("alerting.telegram.chat_id 必须配置")
		}
	}
	return nil
}

// Units returns the parsed glucose units. Validate has already vetted the value.
func (c *Config) Units() reading.Units {
	u, err := reading.ParseUnits(c.Nightscout.Units)
	if err != nil {
		return reading.MmolL
	}
	return u
}

// BucketWidth is the rendering bucket span as a duration.
func (c *Config) BucketWidth() time.Duration {
	return time.Duration(c.Render.BucketWidthMinutes) * time.Minute
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}
