package config

import (
	"fmt"
	"time"

	"github.com/Veraticus/duecard/internal/catalog"
	"github.com/Veraticus/duecard/internal/common"
	"github.com/Veraticus/duecard/internal/scraper"
	"github.com/Veraticus/duecard/internal/synclock"
	"github.com/spf13/viper"
)

// SyncConfig holds the settings of a catalog sync run that are not specific to
// the scraper or the store.
type SyncConfig struct {
	RedisAddr           string
	LockTTL             time.Duration
	SimilarityThreshold float64
}

// SetDefaults registers default values for every key the application reads.
func SetDefaults() {
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "console")
	viper.SetDefault("database.path", DefaultDatabasePath())

	defaults := scraper.DefaultConfig()
	viper.SetDefault("scraper.url", defaults.URL)
	viper.SetDefault("scraper.timeout", defaults.Timeout)
	viper.SetDefault("scraper.user_agent", defaults.UserAgent)
	viper.SetDefault("scraper.retry_attempts", defaults.RetryAttempts)

	viper.SetDefault("catalog.similarity_threshold", catalog.DefaultSimilarityThreshold)
	viper.SetDefault("sync.lock_ttl", synclock.DefaultTTL)
}

// LoadScraperConfig loads the scraper settings from Viper. Selector overrides live
// under scraper.selectors.
func LoadScraperConfig() (*scraper.Config, error) {
	config := scraper.DefaultConfig()

	if v := viper.GetString("scraper.url"); v != "" {
		config.URL = v
	}
	if v := viper.GetDuration("scraper.timeout"); v > 0 {
		config.Timeout = v
	}
	if v := viper.GetString("scraper.user_agent"); v != "" {
		config.UserAgent = v
	}
	if viper.IsSet("scraper.retry_attempts") {
		config.RetryAttempts = viper.GetInt("scraper.retry_attempts")
	}
	if viper.IsSet("scraper.selectors") {
		if err := viper.UnmarshalKey("scraper.selectors", &config.Selectors); err != nil {
			return nil, fmt.Errorf("%w: scraper.selectors: %w", common.ErrInvalidConfig, err)
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadSyncConfig loads the lock and matching settings from Viper.
func LoadSyncConfig() (*SyncConfig, error) {
	config := SyncConfig{
		RedisAddr:           viper.GetString("sync.redis_addr"),
		LockTTL:             viper.GetDuration("sync.lock_ttl"),
		SimilarityThreshold: viper.GetFloat64("catalog.similarity_threshold"),
	}

	if config.LockTTL <= 0 {
		config.LockTTL = synclock.DefaultTTL
	}
	if config.SimilarityThreshold == 0 {
		config.SimilarityThreshold = catalog.DefaultSimilarityThreshold
	}
	if config.SimilarityThreshold < 0 || config.SimilarityThreshold > 1 {
		return nil, fmt.Errorf("%w: catalog.similarity_threshold must be between 0 and 1, got %v",
			common.ErrInvalidConfig, config.SimilarityThreshold)
	}

	return &config, nil
}
