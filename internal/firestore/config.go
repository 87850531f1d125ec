// Package firestore stores the offer catalog in a Cloud Firestore collection.
package firestore

import (
	"fmt"
	"os"
	"time"

	"github.com/Veraticus/duecard/internal/common"
)

// DefaultCollection is the collection holding catalog offers.
const DefaultCollection = "creditCards"

// Config holds the configuration for the Firestore catalog store.
type Config struct {
	ProjectID       string
	Collection      string
	CredentialsFile string
	ClientID        string
	ClientSecret    string
	RefreshToken    string
	EmulatorHost    string
	RetryAttempts   int
	RetryDelay      time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Collection:    DefaultCollection,
		RetryAttempts: 3,
		RetryDelay:    time.Second,
	}
}

// LoadFromEnv fills unset fields from the environment.
func (c *Config) LoadFromEnv() {
	setIfEmpty(&c.ProjectID, "GOOGLE_CLOUD_PROJECT")
	setIfEmpty(&c.CredentialsFile, "GOOGLE_APPLICATION_CREDENTIALS")
	setIfEmpty(&c.ClientID, "FIRESTORE_CLIENT_ID")
	setIfEmpty(&c.ClientSecret, "FIRESTORE_CLIENT_SECRET")
	setIfEmpty(&c.RefreshToken, "FIRESTORE_REFRESH_TOKEN")
	setIfEmpty(&c.EmulatorHost, "FIRESTORE_EMULATOR_HOST")
}

func setIfEmpty(field *string, env string) {
	if *field == "" {
		*field = os.Getenv(env)
	}
}

// Validate checks if the configuration is valid. Absent settings wrap common.ErrMissingConfig;
// contradictory or out-of-range ones wrap common.ErrInvalidConfig.
func (c *Config) Validate() error {
	if c.ProjectID == "" {
		return fmt.Errorf("%w: firestore project ID is required", common.ErrMissingConfig)
	}
	if c.Collection == "" {
		return fmt.Errorf("%w: firestore collection is required", common.ErrMissingConfig)
	}

	// The emulator needs no credentials.
	if c.EmulatorHost == "" {
		hasOAuth := c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
		hasServiceAccount := c.CredentialsFile != ""

		if !hasOAuth && !hasServiceAccount {
			return fmt.Errorf("%w: no authentication method configured", common.ErrMissingConfig)
		}
		if hasOAuth && hasServiceAccount {
			return fmt.Errorf("%w: multiple authentication methods configured; use either OAuth2 or service account", common.ErrInvalidConfig)
		}
	}

	if c.RetryAttempts < 0 {
		return fmt.Errorf("%w: retry attempts cannot be negative", common.ErrInvalidConfig)
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("%w: retry delay cannot be negative", common.ErrInvalidConfig)
	}

	return nil
}
