package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	State       StateConfig       `mapstructure:"state"`
	Routing     RoutingConfig     `mapstructure:"routing"`
	Persistence PersistenceConfig `mapstructure:"persistence"`
	Sync        SyncConfig        `mapstructure:"sync"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Monitoring  MonitoringConfig  `mapstructure:"monitoring"`
	Demo        DemoConfig        `mapstructure:"demo"`
}

// StateConfig holds game data gateway settings
type StateConfig struct {
	EnforceChangeGuard bool `mapstructure:"enforce_change_guard"`
	LockAssertions     bool `mapstructure:"lock_assertions"`
	HistoryCapacity    int  `mapstructure:"history_capacity"`
}

// RoutingConfig holds route finding settings
type RoutingConfig struct {
	EnforceCanals bool   `mapstructure:"enforce_canals"`
	CostModel     string `mapstructure:"cost_model"`
}

// PersistenceConfig holds history store settings
type PersistenceConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// SyncConfig holds peer sync server settings
type SyncConfig struct {
	Host                  string     `mapstructure:"host"`
	Port                  int        `mapstructure:"port"`
	RateLimit             float64    `mapstructure:"rate_limit"`
	Burst                 int        `mapstructure:"burst"`
	SubscriberBuffer      int        `mapstructure:"subscriber_buffer"`
	EnableReflection      bool       `mapstructure:"enable_reflection"`
	GracefulShutdownDelay int        `mapstructure:"graceful_shutdown_delay"`
	Feed                  FeedConfig `mapstructure:"feed"`
}

// FeedConfig holds websocket feed settings
type FeedConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	Port           int      `mapstructure:"port"`
	Path           string   `mapstructure:"path"`
	OriginPatterns []string `mapstructure:"origin_patterns"`
}

// LoggingConfig holds log output settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MonitoringConfig holds gateway monitor settings
type MonitoringConfig struct {
	Enabled            bool `mapstructure:"enabled"`
	SlowWriteThreshold int  `mapstructure:"slow_write_threshold"`
	ReportInterval     int  `mapstructure:"report_interval"`
}

// DemoConfig holds the scripted opening settings
type DemoConfig struct {
	Enabled  bool `mapstructure:"enabled"`
	Interval int  `mapstructure:"interval"`
}

var (
	// Global config instance
	cfg *Config
	v   *viper.Viper
)

// setViperDefaults sets all default values using Viper's SetDefault
func setViperDefaults(v *viper.Viper) {
	// State defaults
	v.SetDefault("state.enforce_change_guard", true)
	v.SetDefault("state.lock_assertions", false)
	v.SetDefault("state.history_capacity", 0)

	// Routing defaults
	v.SetDefault("routing.enforce_canals", true)
	v.SetDefault("routing.cost_model", "territory")

	// Persistence defaults
	v.SetDefault("persistence.enabled", true)
	v.SetDefault("persistence.path", "data/history.db")

	// Sync server defaults
	v.SetDefault("sync.host", "0.0.0.0")
	v.SetDefault("sync.port", 50052)
	v.SetDefault("sync.rate_limit", 20.0)
	v.SetDefault("sync.burst", 40)
	v.SetDefault("sync.subscriber_buffer", 256)
	v.SetDefault("sync.enable_reflection", true)
	v.SetDefault("sync.graceful_shutdown_delay", 5)
	v.SetDefault("sync.feed.enabled", true)
	v.SetDefault("sync.feed.port", 8081)
	v.SetDefault("sync.feed.path", "/feed")
	v.SetDefault("sync.feed.origin_patterns", []string{})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	// Monitoring defaults
	v.SetDefault("monitoring.enabled", true)
	v.SetDefault("monitoring.slow_write_threshold", 50)
	v.SetDefault("monitoring.report_interval", 30)

	// Demo defaults
	v.SetDefault("demo.enabled", false)
	v.SetDefault("demo.interval", 2)
}

// Init initializes the configuration
func Init(configPath string) error {
	v = viper.New()

	// Set defaults before loading any config
	setViperDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/wargame")
	}

	v.SetEnvPrefix("WARGAME")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing explicit file falls back to defaults; for the default
		// locations only ConfigFileNotFoundError is ignored.
		if configPath == "" {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	cfg = &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	return nil
}

// Get returns the global config instance
func Get() *Config {
	if cfg == nil {
		// Initialize with defaults if not already initialized
		if err := Init(""); err != nil {
			panic("failed to initialize config with defaults: " + err.Error())
		}
	}
	return cfg
}

// GetViper returns the viper instance for advanced usage
func GetViper() *viper.Viper {
	if v == nil {
		panic("config not initialized - call Init() first")
	}
	return v
}

// LoadEnvironmentConfig loads environment-specific config overlay
func LoadEnvironmentConfig(env string) error {
	if env == "" {
		return nil
	}

	envFile := fmt.Sprintf("config.%s.yaml", env)

	v.SetConfigFile(envFile)
	if err := v.MergeInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error merging environment config %s: %w", envFile, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unable to decode merged config into struct: %w", err)
	}

	return nil
}

// Set allows runtime config updates
func Set(key string, value interface{}) {
	v.Set(key, value)
	// Re-unmarshal to update struct
	v.Unmarshal(cfg)
}

// GetString gets a string value from config
func GetString(key string) string {
	return v.GetString(key)
}

// GetInt gets an int value from config
func GetInt(key string) int {
	return v.GetInt(key)
}

// GetBool gets a bool value from config
func GetBool(key string) bool {
	return v.GetBool(key)
}

// GetFloat64 gets a float64 value from config
func GetFloat64(key string) float64 {
	return v.GetFloat64(key)
}

// ConfigFilePath returns the path of the loaded config file
func ConfigFilePath() string {
	return v.ConfigFileUsed()
}

// WatchConfig enables hot-reloading of config file
func WatchConfig(onChange func()) {
	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		// Re-unmarshal on change
		v.Unmarshal(cfg)
		if onChange != nil {
			onChange()
		}
	})
}

var (
	validLevels     = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	validFormats    = map[string]bool{"console": true, "json": true}
	validCostModels = map[string]bool{"territory": true, "hop": true}
)

// Validate validates the configuration values
func Validate(c *Config) error {
	if c.State.HistoryCapacity < 0 {
		return fmt.Errorf("state.history_capacity must be non-negative")
	}

	if !validCostModels[c.Routing.CostModel] {
		return fmt.Errorf("routing.cost_model must be one of territory, hop")
	}

	if c.Persistence.Enabled && c.Persistence.Path == "" {
		return fmt.Errorf("persistence.path is required when persistence is enabled")
	}

	if c.Sync.Port <= 0 || c.Sync.Port > 65535 {
		return fmt.Errorf("sync.port must be between 1 and 65535")
	}
	if c.Sync.RateLimit < 0 {
		return fmt.Errorf("sync.rate_limit must be non-negative")
	}
	if c.Sync.Burst < 1 {
		return fmt.Errorf("sync.burst must be at least 1")
	}
	if c.Sync.SubscriberBuffer <= 0 {
		return fmt.Errorf("sync.subscriber_buffer must be positive")
	}
	if c.Sync.GracefulShutdownDelay < 0 {
		return fmt.Errorf("sync.graceful_shutdown_delay must be non-negative")
	}
	if c.Sync.Feed.Enabled {
		if c.Sync.Feed.Port <= 0 || c.Sync.Feed.Port > 65535 {
			return fmt.Errorf("sync.feed.port must be between 1 and 65535")
		}
		if c.Sync.Feed.Port == c.Sync.Port {
			return fmt.Errorf("sync.feed.port must differ from sync.port")
		}
		if !strings.HasPrefix(c.Sync.Feed.Path, "/") {
			return fmt.Errorf("sync.feed.path must start with /")
		}
	}

	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of debug, info, warn, error")
	}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of console, json")
	}

	if c.Monitoring.SlowWriteThreshold < 0 {
		return fmt.Errorf("monitoring.slow_write_threshold must be non-negative")
	}
	if c.Monitoring.Enabled && c.Monitoring.ReportInterval <= 0 {
		return fmt.Errorf("monitoring.report_interval must be positive")
	}

	if c.Demo.Enabled && c.Demo.Interval <= 0 {
		return fmt.Errorf("demo.interval must be positive")
	}

	return nil
}
