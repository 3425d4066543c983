package gamesync

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config carries environment-driven settings. All variables share the
// GAMESYNC_ prefix, e.g. GAMESYNC_CATALOG_API_KEY.
type Config struct {
	CatalogBaseURL string        `envconfig:"CATALOG_BASE_URL" default:"https://api.rawg.io/api"`
	CatalogAPIKey  string        `envconfig:"CATALOG_API_KEY"`
	PageSize       int           `envconfig:"PAGE_SIZE" default:"20"`
	HTTPTimeout    time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`
	EnrichWorkers  int           `envconfig:"ENRICH_WORKERS" default:"4"`

	// Document store. Empty MongoURI selects the in-process store,
	// which is suitable only for tests and throwaway sessions.
	MongoURI      string `envconfig:"MONGO_URI"`
	MongoDatabase string `envconfig:"MONGO_DATABASE" default:"gameinfo"`
}

// ConfigFromEnv loads Config from the process environment.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := envconfig.Process("gamesync", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
