package main

import (
	"net/http"
	"os"
	"path/filepath"

	"elitedashboard/server/config"
	"elitedashboard/server/internal/api"
	"elitedashboard/server/internal/database"
	"elitedashboard/server/internal/geocoding"
	"elitedashboard/server/internal/geometry"
	"elitedashboard/server/internal/store"
	"elitedashboard/server/internal/validation"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Warnf("Invalid LOG_LEVEL '%s', defaulting to info", cfg.LogLevel)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	gin.SetMode(cfg.Server.GinMode)

	if cfg.Geocoder.CitiesFile != "" {
		n, err := config.LoadCityConfig(cfg.Geocoder.CitiesFile)
		if err != nil {
			logger.WithError(err).Fatal("Failed to load city config")
		}
		logger.Infof("Loaded %d cities from %s", n, cfg.Geocoder.CitiesFile)
	}
	logger.WithField("cities", config.GetCityNames()).Info("City table ready")

	var recordStore store.Store
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		logger.Infof("Using SQLite record store at: %s", cfg.Storage.SQLitePath)
		db, err := database.NewSQLiteStore(cfg.Storage.SQLitePath, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to initialize database")
		}
		defer db.Close()
		recordStore = db
	default:
		logger.Infof("Using record file at: %s", cfg.Storage.DataFile)
		fileStore, err := store.NewFileStore(cfg.Storage.DataFile, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to initialize record file")
		}
		recordStore = fileStore
	}

	var geocoder geometry.Geocoder
	if cfg.Geocoder.Enabled {
		cacheDir := cfg.Geocoder.CacheDir
		if cacheDir == "" {
			cacheDir = filepath.Join(os.TempDir(), "elitedashboard", "geocode_cache")
		}
		geocoder = geocoding.NewGeocoder(logger, cfg.Geocoder.URL, cacheDir)
	}

	handler := api.NewHandler(recordStore, validation.New(), geometry.NewMarkerBuilder(geocoder, logger), logger)
	router := api.NewRouter(handler, cfg.Server.CORSOrigins)

	logger.Infof("Starting server on port %s", cfg.Server.Port)
	if err := http.ListenAndServe(":"+cfg.Server.Port, router); err != nil {
		logger.WithError(err).Fatal("Server failed to start")
	}
}
