package config

import (
	"fmt"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	Server struct {
		// Port the HTTP server listens on
		Port string `env:"PORT" envDefault:"5250"`

		// Gin mode: debug, release or test
		GinMode string `env:"GIN_MODE" envDefault:"release"`

		// Origins allowed to call the API from a browser
		CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`
	}

	Storage struct {
		// Backing store: "file" (JSON array) or "sqlite"
		Driver string `env:"STORE_DRIVER" envDefault:"file"`

		// JSON file holding the record collection
		DataFile string `env:"DATA_FILE" envDefault:"data.json"`

		// Database file used by the sqlite driver
		SQLitePath string `env:"SQLITE_PATH" envDefault:"database/records.db"`
	}

	Geocoder struct {
		Enabled  bool   `env:"GEOCODER_ENABLED" envDefault:"false"`
		URL      string `env:"GEOCODER_URL" envDefault:"https://nominatim.openstreetmap.org/search"`
		CacheDir string `env:"GEOCODER_CACHE_DIR"`
		// Optional JSON file extending the built-in city table
		CitiesFile string `env:"CITIES_FILE"`
	}

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values env parsing cannot.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverFile, DriverSQLite:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Storage.Driver)
	}
	if c.Server.Port == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	return nil
}
