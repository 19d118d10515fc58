package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	MQTT        MQTTConfig        `mapstructure:"mqtt"`
	Accumulator AccumulatorConfig `mapstructure:"accumulator"`
	Schedule    ScheduleConfig    `mapstructure:"schedule"`
	Retention   RetentionConfig   `mapstructure:"retention"`
	Report      ReportConfig      `mapstructure:"report"`
	Analysis    AnalysisConfig    `mapstructure:"analysis"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Monitoring  MonitoringConfig  `mapstructure:"monitoring"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	StaticDir       string        `mapstructure:"static_dir"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type DatabaseConfig struct {
	Driver       string         `mapstructure:"driver"`
	Postgres     PostgresConfig `mapstructure:"postgres"`
	SQLitePath   string         `mapstructure:"sqlite_path"`
	Timescale    bool           `mapstructure:"timescale"`
	QueryTimeout time.Duration  `mapstructure:"query_timeout"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type MQTTConfig struct {
	URL         string        `mapstructure:"url"`
	Username    string        `mapstructure:"username"`
	Password    string        `mapstructure:"password"`
	ClientID    string        `mapstructure:"client_id"`
	KeepAlive   uint16        `mapstructure:"keepalive"`
	TopicPrefix string        `mapstructure:"topic_prefix"`
	ConnTimeout time.Duration `mapstructure:"connect_timeout"`
}

type AccumulatorConfig struct {
	FlushInterval time.Duration `mapstructure:"flush_interval"`
}

type ScheduleConfig struct {
	TimezoneOffsetHours int    `mapstructure:"timezone_offset_hours"`
	ReportAt            string `mapstructure:"report_at"`
	PruneAt             string `mapstructure:"prune_at"`
}

type RetentionConfig struct {
	MaxAge time.Duration `mapstructure:"max_age"`
}

type ReportConfig struct {
	Window      time.Duration `mapstructure:"window"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxAttempts uint64        `mapstructure:"max_attempts"`
}

type AnalysisConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Model       string  `mapstructure:"model"`
	Temperature float32 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type MonitoringConfig struct {
	MetricsEnabled bool `mapstructure:"metrics_enabled"`
}

// Load initializes configuration from environment variables and ./config/config.yaml
func Load() (*Config, error) {
	return LoadFrom("./config")
}

// LoadFrom reads config.yaml from dir (if present) and overlays CLIMA_* environment variables.
func LoadFrom(dir string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CLIMA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	v.AutomaticEnv()

	// Set defaults
	setDefaults(v)
	_ = v.BindEnv("analysis.api_key", "CLIMA_ANALYSIS__API_KEY", "OPENAI_API_KEY")

	// Load config file if exists
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "180s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.static_dir", "")
	v.SetDefault("server.cors_origins", []string{"*"})

	// Database defaults
	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.user", "postgres")
	v.SetDefault("database.postgres.password", "")
	v.SetDefault("database.postgres.dbname", "iot_clima")
	v.SetDefault("database.postgres.sslmode", "disable")
	v.SetDefault("database.sqlite_path", "./data/clima.db")
	v.SetDefault("database.timescale", false)
	v.SetDefault("database.query_timeout", "10s")

	// MQTT defaults
	v.SetDefault("mqtt.url", "wss://broker.emqx.io:8084/mqtt")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.client_id", "")
	v.SetDefault("mqtt.keepalive", 60)
	v.SetDefault("mqtt.topic_prefix", "clima/")
	v.SetDefault("mqtt.connect_timeout", "10s")

	v.SetDefault("accumulator.flush_interval", "10s")

	// Schedule defaults
	v.SetDefault("schedule.timezone_offset_hours", -5)
	v.SetDefault("schedule.report_at", "23:30")
	v.SetDefault("schedule.prune_at", "00:00")

	v.SetDefault("retention.max_age", "168h")

	// Report defaults
	v.SetDefault("report.window", "24h")
	v.SetDefault("report.timeout", "120s")
	v.SetDefault("report.max_attempts", 2)

	// Analysis defaults
	v.SetDefault("analysis.api_key", "")
	v.SetDefault("analysis.base_url", "")
	v.SetDefault("analysis.model", "gpt-4o-mini")
	v.SetDefault("analysis.temperature", 0.3)
	v.SetDefault("analysis.max_tokens", 4000)

	// Redis defaults
	v.SetDefault("redis.host", "")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Monitoring defaults
	v.SetDefault("monitoring.metrics_enabled", true)
}

func validateConfig(config *Config) error {
	switch config.Database.Driver {
	case DriverPostgres:
		if config.Database.Postgres.Host == "" {
			return fmt.Errorf("postgres host is required")
		}
	case DriverSQLite:
		if config.Database.SQLitePath == "" {
			return fmt.Errorf("sqlite path is required")
		}
	default:
		return fmt.Errorf("unknown database driver %q", config.Database.Driver)
	}
	if config.MQTT.URL == "" {
		return fmt.Errorf("mqtt url is required")
	}
	if config.Accumulator.FlushInterval <= 0 {
		return fmt.Errorf("accumulator flush interval must be positive")
	}
	if config.Retention.MaxAge <= 0 {
		return fmt.Errorf("retention max age must be positive")
	}
	if config.Report.Window <= 0 {
		return fmt.Errorf("report window must be positive")
	}
	if _, _, err := ParseClock(config.Schedule.ReportAt); err != nil {
		return fmt.Errorf("schedule.report_at: %w", err)
	}
	if _, _, err := ParseClock(config.Schedule.PruneAt); err != nil {
		return fmt.Errorf("schedule.prune_at: %w", err)
	}
	if config.Schedule.TimezoneOffsetHours < -12 || config.Schedule.TimezoneOffsetHours > 14 {
		return fmt.Errorf("timezone offset %d out of range", config.Schedule.TimezoneOffsetHours)
	}
	if config.Analysis.APIKey == "" {
		return fmt.Errorf("analysis api key is required")
	}
	return nil
}

// ParseClock parses a "HH:MM" daily time.
func ParseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	return t.Hour(), t.Minute(), nil
}

// Addr returns the HTTP listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Addr returns the redis address, or "" when redis is disabled.
func (c RedisConfig) Addr() string {
	if c.Host == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
