package config

import (
	"path/filepath"
	"time"

	"github.com/NgocTanHoang/TRAVEL-PLANNER/internal/planning"
	"github.com/NgocTanHoang/TRAVEL-PLANNER/internal/stages"
)

// DefaultConfig returns the configuration used when no file is present.
// Weather expires faster than other sources; stale forecasts are worse than
// stale place listings.
func DefaultConfig() *Config {
	dataDir := ".travelplanner"
	return &Config{
		Core: CoreConfig{
			DataDir:   dataDir,
			CachePath: filepath.Join(dataDir, "cache.db"),
			DataPath:  filepath.Join(dataDir, "data.db"),
		},
		Cache: CacheConfig{
			DefaultTTL: 24 * time.Hour,
			SourceTTLs: map[string]time.Duration{
				stages.SourceWeather: 6 * time.Hour,
			},
		},
		Fetch: FetchConfig{
			MaxAttempts:   3,
			InitialDelay:  200 * time.Millisecond,
			MaxDelay:      5 * time.Second,
			RatePerSecond: 5,
			RateBurst:     10,
		},
		Pipeline: PipelineConfig{
			MaxParallel:  8,
			StageTimeout: 30 * time.Second,
		},
		Budget: BudgetConfig{
			Ratios: planning.DefaultBudgetRatios(),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
