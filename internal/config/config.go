// Package config provides configuration management for the keiba-stats tools.
package config

import "path/filepath"

// Config represents the complete application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app" validate:"required"`
	Parser     ParserConfig     `mapstructure:"parser" validate:"required"`
	Stats      StatsConfig      `mapstructure:"stats" validate:"required"`
	Calculator CalculatorConfig `mapstructure:"calculator" validate:"required"`
	Storage    StorageConfig    `mapstructure:"storage" validate:"required"`
	Metrics    MetricsConfig    `mapstructure:"metrics" validate:"required"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// ParserConfig bounds what the race-card parser accepts
type ParserConfig struct {
	FloorYear      int `mapstructure:"floor_year" validate:"required,gte=1900"`
	MaxHorseNumber int `mapstructure:"max_horse_number" validate:"required,gt=0,lte=28"`
}

// StatsConfig represents statistics engine configuration
type StatsConfig struct {
	MaxRank             int      `mapstructure:"max_rank" validate:"required,gt=0,lte=18"`
	TrendThreshold      float64  `mapstructure:"trend_threshold" validate:"required,gt=0"`
	RecentRaces         int      `mapstructure:"recent_races" validate:"required,gt=0"`
	RollingWindowDays   int      `mapstructure:"rolling_window_days" validate:"required,gt=0"`
	RollingStepDays     int      `mapstructure:"rolling_step_days" validate:"required,gt=0"`
	RollingMinRaces     int      `mapstructure:"rolling_min_races" validate:"required,gt=0"`
	CacheTTLSeconds     int      `mapstructure:"cache_ttl_seconds" validate:"required,gt=0"`
	CacheCleanupSeconds int      `mapstructure:"cache_cleanup_seconds" validate:"required,gt=0"`
	Tickets             []string `mapstructure:"tickets" validate:"required,min=1,tickets"`
}

// CalculatorConfig represents combination calculator configuration
type CalculatorConfig struct {
	WarnThreshold int `mapstructure:"warn_threshold" validate:"required,gt=0"`
}

// StorageConfig represents the dataset store location
type StorageConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// StoragePath returns the dataset file path, resolved to an absolute path when possible
func (c *Config) StoragePath() string {
	abs, err := filepath.Abs(c.Storage.Path)
	if err != nil {
		return c.Storage.Path
	}
	return abs
}
