package filtervenues

import (
	"fmt"
	"time"

	"venue-finder/internal/common/config"
)

type Config struct {
	Enabled       bool
	MaxJobsActive int
	Timeout       time.Duration
	RatingMin     float64
	RatingMax     float64
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30 * time.Second,
		RatingMin:     1.0,
		RatingMax:     5.0,
	}
}

// ConfigFromApp derives the worker config from the workers and finder
// sections of the application config.
func ConfigFromApp(appCfg *config.Config) *Config {
	cfg := DefaultConfig()
	if appCfg == nil {
		return cfg
	}
	wcfg := config.GetWorkerConfig(appCfg, TaskType)
	cfg.Enabled = wcfg.Enabled
	if wcfg.MaxJobsActive > 0 {
		cfg.MaxJobsActive = wcfg.MaxJobsActive
	}
	if wcfg.Timeout > 0 {
		cfg.Timeout = config.GetDuration(wcfg.Timeout)
	}
	cfg.RatingMin = appCfg.Finder.RatingMin
	cfg.RatingMax = appCfg.Finder.RatingMax
	return cfg
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxJobsActive <= 0 {
		return fmt.Errorf("max_jobs_active must be positive")
	}
	if c.RatingMin >= c.RatingMax {
		return fmt.Errorf("rating_min (%v) must be below rating_max (%v)", c.RatingMin, c.RatingMax)
	}
	return nil
}
