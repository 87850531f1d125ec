package config

import (
	"github.com/Veraticus/duecard/internal/firestore"
	"github.com/spf13/viper"
)

// LoadFirestoreConfig loads the catalog store configuration from Viper and environment variables.
// It follows this precedence:
// 1. Viper configuration (from config file or DUECARD_ env vars)
// 2. Standard Google environment variables (GOOGLE_CLOUD_PROJECT, GOOGLE_APPLICATION_CREDENTIALS, ...)
// 3. Default values
func LoadFirestoreConfig() (*firestore.Config, error) {
	config := firestore.DefaultConfig()

	if v := viper.GetString("firestore.project_id"); v != "" {
		config.ProjectID = v
	}
	if v := viper.GetString("firestore.collection"); v != "" {
		config.Collection = v
	}
	if v := viper.GetString("firestore.credentials_file"); v != "" {
		config.CredentialsFile = ExpandPath(v)
	}
	if v := viper.GetString("firestore.client_id"); v != "" {
		config.ClientID = v
	}
	if v := viper.GetString("firestore.client_secret"); v != "" {
		config.ClientSecret = v
	}
	if v := viper.GetString("firestore.refresh_token"); v != "" {
		config.RefreshToken = v
	}
	if v := viper.GetString("firestore.emulator_host"); v != "" {
		config.EmulatorHost = v
	}
	if viper.IsSet("firestore.retry_attempts") {
		config.RetryAttempts = viper.GetInt("firestore.retry_attempts")
	}

	config.LoadFromEnv()
	config.CredentialsFile = ExpandPath(config.CredentialsFile)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}
