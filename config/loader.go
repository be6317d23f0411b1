package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// CityConfig is the on-disk shape of a city table override
type CityConfig struct {
	Cities []City `json:"cities"`
}

// LoadCityConfig reads a city table from path and merges it into SupportedCities.
// Entries without a two-value center are rejected.
func LoadCityConfig(path string) (int, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return 0, fmt.Errorf("failed to get absolute path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return 0, fmt.Errorf("failed to read city config: %w", err)
	}

	var cfg CityConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return 0, fmt.Errorf("failed to parse city config: %w", err)
	}

	for _, city := range cfg.Cities {
		if NormalizeCity(city.Name) == "" {
			return 0, fmt.Errorf("city config contains an entry without a name")
		}
		if len(city.Center) != 2 {
			return 0, fmt.Errorf("city %q: center must be [latitude, longitude]", city.Name)
		}
	}

	AddCities(cfg.Cities)
	return len(cfg.Cities), nil
}
