// Package geometry turns record collections into map features.
package geometry

import (
	"sort"
	"strings"

	"elitedashboard/server/config"
	"elitedashboard/server/internal/models"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/sirupsen/logrus"
)

// Geocoder resolves a city that is missing from the city table.
type Geocoder interface {
	GeocodeCity(city string) (float64, float64, error)
}

// CityMarker aggregates the records of one city.
type CityMarker struct {
	City          string
	Point         orb.Point
	TotalProjects int
	TotalValue    float64
	OnTrack       int
	Delayed       int
	Completed     int
}

// MarkerSet is the map payload: one point feature per placed city.
type MarkerSet struct {
	Features *geojson.FeatureCollection `json:"features"`
	Unplaced []string                   `json:"unplaced"`
}

type MarkerBuilder struct {
	geocoder Geocoder
	logger   *logrus.Logger
}

// NewMarkerBuilder returns a builder. geocoder may be nil, in which case only
// cities from the city table are placed.
func NewMarkerBuilder(geocoder Geocoder, logger *logrus.Logger) *MarkerBuilder {
	if logger == nil {
		logger = logrus.New()
	}
	return &MarkerBuilder{geocoder: geocoder, logger: logger}
}

// GroupByCity aggregates records per city, ignoring case, in order of first
// appearance. Points are left unset.
func GroupByCity(records []models.PropertyRecord) []*CityMarker {
	index := make(map[string]*CityMarker)
	var markers []*CityMarker
	for _, r := range records {
		key := config.NormalizeCity(r.City)
		if key == "" {
			continue
		}
		m, ok := index[key]
		if !ok {
			m = &CityMarker{City: strings.TrimSpace(r.City)}
			index[key] = m
			markers = append(markers, m)
		}
		m.TotalProjects++
		m.TotalValue += r.Price
		switch r.Status {
		case models.StatusInProgress:
			m.OnTrack++
		case models.StatusDelayed:
			m.Delayed++
		case models.StatusFinished:
			m.Completed++
		}
	}
	return markers
}

// Build places every city of records and returns the feature collection with
// a bbox covering all markers.
func (b *MarkerBuilder) Build(records []models.PropertyRecord) MarkerSet {
	fc := geojson.NewFeatureCollection()
	unplaced := []string{}

	var points orb.MultiPoint
	for _, m := range GroupByCity(records) {
		point, ok := b.locate(m.City)
		if !ok {
			unplaced = append(unplaced, m.City)
			continue
		}
		m.Point = point
		points = append(points, point)
		fc.Append(m.feature())
	}

	if len(points) > 0 {
		fc.BBox = geojson.NewBBox(points.Bound())
	}
	sort.Strings(unplaced)

	return MarkerSet{Features: fc, Unplaced: unplaced}
}

func (b *MarkerBuilder) locate(city string) (orb.Point, bool) {
	if c := config.GetCityByName(city); c != nil && len(c.Center) == 2 {
		return orb.Point{c.Center[1], c.Center[0]}, true
	}
	if b.geocoder == nil {
		return orb.Point{}, false
	}

	lat, lon, err := b.geocoder.GeocodeCity(city)
	if err != nil {
		b.logger.WithError(err).WithField("city", city).Warn("Could not place city on map")
		return orb.Point{}, false
	}
	return orb.Point{lon, lat}, true
}

func (m *CityMarker) feature() *geojson.Feature {
	f := geojson.NewFeature(m.Point)
	f.Properties["city"] = m.City
	f.Properties["totalProjects"] = m.TotalProjects
	f.Properties["totalValue"] = m.TotalValue
	f.Properties["onTrack"] = m.OnTrack
	f.Properties["delayed"] = m.Delayed
	f.Properties["completed"] = m.Completed
	if m.TotalProjects > 0 {
		f.Properties["averagePrice"] = m.TotalValue / float64(m.TotalProjects)
	}
	return f
}
