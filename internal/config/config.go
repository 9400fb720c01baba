package config

import (
	"time"

	"github.com/NgocTanHoang/TRAVEL-PLANNER/internal/planning"
)

// Config is the root configuration for the travel planner.
type Config struct {
	Core     CoreConfig     `mapstructure:"core" yaml:"core"`
	Cache    CacheConfig    `mapstructure:"cache" yaml:"cache"`
	Fetch    FetchConfig    `mapstructure:"fetch" yaml:"fetch"`
	Pipeline PipelineConfig `mapstructure:"pipeline" yaml:"pipeline"`
	Budget   BudgetConfig   `mapstructure:"budget" yaml:"budget"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
}

// CoreConfig holds filesystem locations. The cache and data databases live
// in separate files on purpose; wiping the cache must never touch durable
// plans or place records.
type CoreConfig struct {
	DataDir   string `mapstructure:"data_dir" yaml:"data_dir" validate:"required"`
	CachePath string `mapstructure:"cache_path" yaml:"cache_path" validate:"required"`
	DataPath  string `mapstructure:"data_path" yaml:"data_path" validate:"required"`
}

// CacheConfig controls cache TTLs per source and the in-memory tier.
type CacheConfig struct {
	DefaultTTL time.Duration            `mapstructure:"default_ttl" yaml:"default_ttl" validate:"gt=0"`
	SourceTTLs map[string]time.Duration `mapstructure:"source_ttls" yaml:"source_ttls"`

	// Memory selects the in-memory store instead of the SQLite-backed one.
	Memory bool `mapstructure:"memory" yaml:"memory"`
}

// FetchConfig controls the external fetch client.
type FetchConfig struct {
	MaxAttempts  int           `mapstructure:"max_attempts" yaml:"max_attempts" validate:"min=1,max=10"`
	InitialDelay time.Duration `mapstructure:"initial_delay" yaml:"initial_delay" validate:"gt=0"`
	MaxDelay     time.Duration `mapstructure:"max_delay" yaml:"max_delay" validate:"gt=0"`

	// RatePerSecond bounds physical external calls across all sources.
	// Zero disables rate limiting.
	RatePerSecond float64 `mapstructure:"rate_per_second" yaml:"rate_per_second" validate:"gte=0"`
	RateBurst     int     `mapstructure:"rate_burst" yaml:"rate_burst" validate:"gte=0"`

	Offline bool `mapstructure:"offline" yaml:"offline"`

	// Endpoints maps source names (places, weather, search) to HTTP base
	// URLs. An unset endpoint makes the source fail and the pipeline degrade
	// or fall back to stored data.
	Endpoints map[string]string `mapstructure:"endpoints" yaml:"endpoints"`
}

// PipelineConfig controls the stage executor.
type PipelineConfig struct {
	MaxParallel  int           `mapstructure:"max_parallel" yaml:"max_parallel" validate:"min=1,max=64"`
	StageTimeout time.Duration `mapstructure:"stage_timeout" yaml:"stage_timeout" validate:"gt=0"`
}

// BudgetConfig holds the allocation ratios.
type BudgetConfig struct {
	Ratios planning.BudgetRatios `mapstructure:"ratios" yaml:"ratios"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=text json"`
}
