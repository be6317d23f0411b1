package geocoding

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"elitedashboard/server/config"

	"github.com/sirupsen/logrus"
)

const DefaultURL = "https://nominatim.openstreetmap.org/search"

var ErrNoResults = errors.New("no geocoding results")

// DefaultMissTTL is how long a failed lookup is answered from memory.
const DefaultMissTTL = 10 * time.Minute

type miss struct {
	err     error
	expires time.Time
}

// Geocoder resolves city names to coordinates through a Nominatim-compatible
// endpoint and remembers the answers on disk.
type Geocoder struct {
	logger    *logrus.Logger
	baseURL   string
	cacheDir  string
	cache     map[string][]float64
	cacheLock sync.RWMutex
	client    *http.Client
	// pause before each remote lookup, per Nominatim's usage policy
	delay time.Duration

	misses   map[string]miss
	missLock sync.Mutex
	missTTL  time.Duration
	now      func() time.Time
}

func NewGeocoder(logger *logrus.Logger, baseURL, cacheDir string) *Geocoder {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if cacheDir != "" {
		if err := os.MkdirAll(cacheDir, 0755); err != nil {
			logger.WithError(err).Warn("Could not create geocode cache directory")
		}
	}

	g := &Geocoder{
		logger:   logger,
		baseURL:  baseURL,
		cacheDir: cacheDir,
		cache:    make(map[string][]float64),
		client:   &http.Client{Timeout: 10 * time.Second},
		delay:    time.Second,
		misses:   make(map[string]miss),
		missTTL:  DefaultMissTTL,
		now:      time.Now,
	}

	g.loadCache()

	return g
}

// SetDelay overrides the pause between remote lookups.
func (g *Geocoder) SetDelay(d time.Duration) {
	g.delay = d
}

// SetMissTTL overrides how long failed lookups are remembered. Zero disables it.
func (g *Geocoder) SetMissTTL(d time.Duration) {
	g.missTTL = d
}

func (g *Geocoder) cachedMiss(key string) error {
	g.missLock.Lock()
	defer g.missLock.Unlock()
	m, ok := g.misses[key]
	if !ok {
		return nil
	}
	if !g.now().Before(m.expires) {
		delete(g.misses, key)
		return nil
	}
	return m.err
}

func (g *Geocoder) rememberMiss(key string, err error) {
	if g.missTTL <= 0 {
		return
	}
	g.missLock.Lock()
	g.misses[key] = miss{err: err, expires: g.now().Add(g.missTTL)}
	g.missLock.Unlock()
}

func (g *Geocoder) cacheFile() string {
	return filepath.Join(g.cacheDir, "geocode_cache.json")
}

func (g *Geocoder) loadCache() {
	if g.cacheDir == "" {
		return
	}
	data, err := os.ReadFile(g.cacheFile())
	if err != nil {
		g.logger.Debugf("Could not load geocode cache: %v", err)
		return
	}

	g.cacheLock.Lock()
	defer g.cacheLock.Unlock()
	if err := json.Unmarshal(data, &g.cache); err != nil {
		g.logger.Errorf("Failed to parse geocode cache: %v", err)
		return
	}

	g.logger.Infof("Loaded %d cached cities", len(g.cache))
}

func (g *Geocoder) saveCache() {
	if g.cacheDir == "" {
		return
	}

	g.cacheLock.RLock()
	data, err := json.Marshal(g.cache)
	g.cacheLock.RUnlock()
	if err != nil {
		g.logger.Errorf("Failed to marshal geocode cache: %v", err)
		return
	}

	if err := os.WriteFile(g.cacheFile(), data, 0644); err != nil {
		g.logger.Errorf("Failed to save geocode cache: %v", err)
	}
}

type nominatimResponse []struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// GeocodeCity returns the latitude and longitude of city.
func (g *Geocoder) GeocodeCity(city string) (float64, float64, error) {
	cacheKey := config.NormalizeCity(city)
	if cacheKey == "" {
		return 0, 0, fmt.Errorf("empty city name")
	}

	g.cacheLock.RLock()
	coords, ok := g.cache[cacheKey]
	g.cacheLock.RUnlock()
	if ok {
		if len(coords) == 2 {
			return coords[0], coords[1], nil
		}
		return 0, 0, fmt.Errorf("invalid cached coordinates for %s", city)
	}

	if err := g.cachedMiss(cacheKey); err != nil {
		g.logger.WithField("city", city).Debug("Skipping recently failed lookup")
		return 0, 0, err
	}

	lat, lon, err := g.lookup(city)
	if err != nil {
		g.rememberMiss(cacheKey, err)
		return 0, 0, err
	}

	g.cacheLock.Lock()
	g.cache[cacheKey] = []float64{lat, lon}
	g.cacheLock.Unlock()

	g.saveCache()

	return lat, lon, nil
}

func (g *Geocoder) lookup(city string) (float64, float64, error) {
	g.logger.WithField("city", city).Info("Geocoding city with Nominatim")

	if g.delay > 0 {
		time.Sleep(g.delay)
	}

	params := url.Values{
		"city":   []string{city},
		"format": []string{"json"},
		"limit":  []string{"1"},
	}

	req, err := http.NewRequest(http.MethodGet, g.baseURL, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.URL.RawQuery = params.Encode()
	req.Header.Set("User-Agent", "EliteDashboard/1.0")

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.WithError(err).WithField("city", city).Error("Geocoding request failed")
		return 0, 0, fmt.Errorf("geocoding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("geocoding request returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read response: %w", err)
	}

	var result nominatimResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return 0, 0, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(result) == 0 {
		g.logger.WithField("city", city).Warn("No results found")
		return 0, 0, fmt.Errorf("%w for city: %s", ErrNoResults, city)
	}

	lat, err := strconv.ParseFloat(result[0].Lat, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid latitude %q: %w", result[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(result[0].Lon, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid longitude %q: %w", result[0].Lon, err)
	}

	g.logger.WithFields(logrus.Fields{
		"city":      city,
		"latitude":  lat,
		"longitude": lon,
		"source":    "nominatim",
	}).Info("Successfully geocoded city")

	return lat, lon, nil
}
