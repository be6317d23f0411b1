package config

import (
	"strings"
	"sync"
)

// City represents a city configuration
type City struct {
	Name      string    `json:"name"`
	Center    []float64 `json:"center"` // latitude, longitude
	ZoomLevel int       `json:"zoom_level"`
}

// SupportedCities is a list of cities the dashboard can place on the map
var SupportedCities = []City{
	{Name: "cairo", Center: []float64{30.0444, 31.2357}, ZoomLevel: 11},
	{Name: "giza", Center: []float64{30.0131, 31.2089}, ZoomLevel: 12},
	{Name: "alexandria", Center: []float64{31.2001, 29.9187}, ZoomLevel: 12},
	{Name: "mansoura", Center: []float64{31.0409, 31.3785}, ZoomLevel: 13},
	{Name: "dahab", Center: []float64{28.5091, 34.5136}, ZoomLevel: 13},
	{Name: "hurghada", Center: []float64{27.2579, 33.8116}, ZoomLevel: 12},
	{Name: "new cairo", Center: []float64{30.0074, 31.4913}, ZoomLevel: 12},
}

var citiesLock sync.RWMutex

// NormalizeCity lowercases and trims a city name for lookups
func NormalizeCity(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// GetCityNames returns a list of supported city names
func GetCityNames() []string {
	citiesLock.RLock()
	defer citiesLock.RUnlock()

	names := make([]string, len(SupportedCities))
	for i, city := range SupportedCities {
		names[i] = city.Name
	}
	return names
}

// GetCityByName returns a city configuration by name, ignoring case
func GetCityByName(name string) *City {
	citiesLock.RLock()
	defer citiesLock.RUnlock()

	normalized := NormalizeCity(name)
	for _, city := range SupportedCities {
		if city.Name == normalized {
			c := city
			return &c
		}
	}
	return nil
}

// AddCities merges cities into the table, replacing entries with the same name.
func AddCities(cities []City) {
	citiesLock.Lock()
	defer citiesLock.Unlock()

	for _, city := range cities {
		city.Name = NormalizeCity(city.Name)
		replaced := false
		for i, existing := range SupportedCities {
			if existing.Name == city.Name {
				SupportedCities[i] = city
				replaced = true
				break
			}
		}
		if !replaced {
			SupportedCities = append(SupportedCities, city)
		}
	}
}
