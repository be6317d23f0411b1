package api

import (
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"

	"elitedashboard/server/internal/analytics"
	"elitedashboard/server/internal/geometry"
	"elitedashboard/server/internal/models"
	"elitedashboard/server/internal/store"
	"elitedashboard/server/internal/validation"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	msgSaved       = "Data saved successfully."
	msgServerError = "Server error."
)

type Handler struct {
	store     store.Store
	validator *validation.Validator
	markers   *geometry.MarkerBuilder
	logger    *logrus.Logger
}

func NewHandler(s store.Store, v *validation.Validator, markers *geometry.MarkerBuilder, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	if v == nil {
		v = validation.New()
	}
	if markers == nil {
		markers = geometry.NewMarkerBuilder(nil, logger)
	}

	return &Handler{
		store:     s,
		validator: v,
		markers:   markers,
		logger:    logger,
	}
}

// SaveRecord validates the submitted record and appends it to the store.
func (h *Handler) SaveRecord(c *gin.Context) {
	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		h.logger.WithError(err).Warn("Failed to parse save request")
		c.JSON(http.StatusBadRequest, models.SaveResponse{OK: false, Message: validation.ErrInvalidData.Error()})
		return
	}

	record, err := h.validator.Validate(raw)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"propertyType": raw["propertyType"],
			"city":         raw["city"],
		}).Info("Rejected invalid record")
		c.JSON(http.StatusBadRequest, models.SaveResponse{OK: false, Message: err.Error()})
		return
	}

	if err := h.store.Append(record); err != nil {
		h.storageFailure(err, "Failed to save record")
		c.JSON(http.StatusInternalServerError, models.SaveResponse{OK: false, Message: msgServerError})
		return
	}

	h.logger.WithFields(logrus.Fields{
		"propertyType": record.PropertyType,
		"city":         record.City,
		"ts":           record.TS,
	}).Info("Saved record")
	c.JSON(http.StatusOK, models.SaveResponse{OK: true, Message: msgSaved})
}

// GetRecords returns the stored collection, optionally filtered by query parameters.
func (h *Handler) GetRecords(c *gin.Context) {
	records, err := h.store.List()
	if err != nil {
		h.storageFailure(err, "Failed to list records")
		c.JSON(http.StatusInternalServerError, models.DataResponse{OK: false, Data: []models.PropertyRecord{}})
		return
	}

	c.JSON(http.StatusOK, models.DataResponse{OK: true, Data: analytics.Filter(records, h.filterFromQuery(c))})
}

func (h *Handler) GetStats(c *gin.Context) {
	records, err := h.store.List()
	if err != nil {
		h.storageFailure(err, "Failed to compute stats")
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "message": msgServerError})
		return
	}

	summary := analytics.Summarize(analytics.Filter(records, h.filterFromQuery(c)))
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": summary})
}

func (h *Handler) GetMap(c *gin.Context) {
	records, err := h.store.List()
	if err != nil {
		h.storageFailure(err, "Failed to build map markers")
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "message": msgServerError})
		return
	}

	set := h.markers.Build(analytics.Filter(records, h.filterFromQuery(c)))
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": set.Features, "unplaced": set.Unplaced})
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) storageFailure(err error, msg string) {
	entry := h.logger.WithError(err)
	var storageErr *store.StorageError
	if errors.As(err, &storageErr) {
		entry = entry.WithFields(logrus.Fields{
			"op":   storageErr.Op,
			"path": storageErr.Path,
		})
	}
	entry.Error(msg)
}

// filterFromQuery reads the dashboard filter parameters. Unparseable price
// bounds are dropped.
func (h *Handler) filterFromQuery(c *gin.Context) models.RecordFilter {
	f := models.RecordFilter{
		City:         strings.TrimSpace(c.Query("city")),
		Status:       strings.TrimSpace(c.Query("status")),
		PropertyType: strings.TrimSpace(c.Query("propertyType")),
	}
	if strings.EqualFold(f.Status, "all") {
		f.Status = ""
	}
	f.MinPrice = h.priceParam(c, "minPrice")
	f.MaxPrice = h.priceParam(c, "maxPrice")
	return f
}

func (h *Handler) priceParam(c *gin.Context, name string) *float64 {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		h.logger.WithError(err).WithField(name, raw).Warn("Ignoring malformed price filter")
		return nil
	}
	return &v
}
