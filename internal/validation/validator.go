// Package validation normalizes raw property submissions and rejects the
// ones that cannot be stored.
package validation

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"elitedashboard/server/internal/models"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidData is returned for any submission that fails the required-field rules.
var ErrInvalidData = errors.New("Invalid data.")

// Validator coerces submissions into PropertyRecords and stamps them with
// the time of acceptance.
type Validator struct {
	validate *validator.Validate
	now      func() time.Time
}

// New returns a Validator using the wall clock.
func New() *Validator {
	return NewWithClock(time.Now)
}

// NewWithClock returns a Validator that reads the acceptance time from now.
func NewWithClock(now func() time.Time) *Validator {
	return &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      now,
	}
}

// Validate normalizes raw and returns the record to store, or ErrInvalidData.
// Any client-supplied ts is discarded.
func (v *Validator) Validate(raw map[string]any) (models.PropertyRecord, error) {
	record := models.PropertyRecord{
		PropertyType:  coerceString(raw["propertyType"]),
		Size:          coerceNumber(raw["size"]),
		Price:         coerceNumber(raw["price"]),
		City:          coerceString(raw["city"]),
		Latitude:      coerceNumber(raw["latitude"]),
		Floors:        coerceNumber(raw["floors"]),
		Status:        coerceString(raw["status"]),
		ParkingSpaces: coerceNumber(raw["parking_spaces"]),
	}

	if err := v.validate.Struct(record); err != nil {
		return models.PropertyRecord{}, ErrInvalidData
	}

	record.TS = v.now().UnixMilli()
	return record, nil
}

// coerceString mirrors loose string conversion: falsy values become "",
// objects render as "[object Object]" and arrays join their elements with ",".
func coerceString(value any) string {
	if isFalsy(value) {
		return ""
	}
	return strings.TrimSpace(looseString(value))
}

func isFalsy(value any) bool {
	switch val := value.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case bool:
		return !val
	case float64:
		return val == 0 || math.IsNaN(val)
	case json.Number:
		f, err := val.Float64()
		return err == nil && f == 0
	case int:
		return val == 0
	case int64:
		return val == 0
	}
	return false
}

func looseString(value any) string {
	switch val := value.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		if math.IsNaN(val) {
			return "NaN"
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case map[string]any:
		return "[object Object]"
	case []any:
		parts := make([]string, len(val))
		for i, elem := range val {
			parts[i] = looseString(elem)
		}
		return strings.Join(parts, ",")
	default:
		return ""
	}
}

// coerceNumber converts value to a finite number; anything else is 0.
func coerceNumber(value any) float64 {
	var n float64
	switch val := value.(type) {
	case float64:
		n = val
	case int:
		n = float64(val)
	case int64:
		n = float64(val)
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return 0
		}
		n = f
	case bool:
		if val {
			n = 1
		}
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		n = f
	default:
		return 0
	}

	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	return n
}
