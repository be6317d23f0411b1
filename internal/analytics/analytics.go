// Package analytics computes the dashboard aggregates over a record collection.
package analytics

import (
	"math"
	"sort"
	"strings"
	"time"

	"elitedashboard/server/internal/models"
)

const recentLimit = 4

var monthNames = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// Filter returns the records matching every active criterion of f, in their
// original order. An empty filter returns records unchanged.
func Filter(records []models.PropertyRecord, f models.RecordFilter) []models.PropertyRecord {
	if f.IsEmpty() {
		return records
	}

	result := make([]models.PropertyRecord, 0, len(records))
	for _, r := range records {
		if f.City != "" && !strings.EqualFold(r.City, f.City) {
			continue
		}
		if f.Status != "" && !strings.EqualFold(r.Status, f.Status) {
			continue
		}
		if f.PropertyType != "" && !strings.EqualFold(r.PropertyType, f.PropertyType) {
			continue
		}
		if f.MinPrice != nil && r.Price < *f.MinPrice {
			continue
		}
		if f.MaxPrice != nil && r.Price > *f.MaxPrice {
			continue
		}
		result = append(result, r)
	}
	return result
}

// Summarize builds the KPI block and chart series for records.
func Summarize(records []models.PropertyRecord) models.Summary {
	return models.Summary{
		Stats:          Stats(records),
		ByStatus:       ByStatus(records),
		ByPropertyType: ByPropertyType(records),
		ByCity:         ByCity(records),
		MonthlyPrice:   MonthlyPrice(records),
		MonthlySize:    MonthlySize(records),
		Recent:         Recent(records, recentLimit),
	}
}

func Stats(records []models.PropertyRecord) models.PropertyStats {
	stats := models.PropertyStats{TotalProperties: len(records)}
	for _, r := range records {
		stats.TotalRevenue += r.Price
		switch r.Status {
		case models.StatusInProgress:
			stats.InProgress++
		case models.StatusFinished:
			stats.Finished++
		}
	}
	if stats.TotalProperties > 0 {
		stats.AveragePrice = stats.TotalRevenue / float64(stats.TotalProperties)
	}
	return stats
}

// ByStatus counts records per status. Records without a status count as "N/A".
func ByStatus(records []models.PropertyRecord) []models.NamedValue {
	return countBy(records, func(r models.PropertyRecord) string {
		status := strings.ToLower(strings.TrimSpace(r.Status))
		if status == "" {
			return "N/A"
		}
		runes := []rune(status)
		return strings.ToUpper(string(runes[0])) + string(runes[1:])
	})
}

// ByPropertyType buckets records into Villa, Apartment and Other.
func ByPropertyType(records []models.PropertyRecord) []models.NamedValue {
	buckets := []models.NamedValue{
		{Name: "Villa"},
		{Name: "Apartment"},
		{Name: "Other"},
	}
	for _, r := range records {
		t := strings.ToLower(r.PropertyType)
		switch {
		case t == "villa":
			buckets[0].Value++
		case strings.Contains(t, "apart"):
			buckets[1].Value++
		default:
			buckets[2].Value++
		}
	}
	return buckets
}

// ByCity counts records per city, ignoring case. The first spelling seen is
// used as the label.
func ByCity(records []models.PropertyRecord) []models.NamedValue {
	return countBy(records, func(r models.PropertyRecord) string { return r.City })
}

// MonthlyPrice is the rounded average price per calendar month.
func MonthlyPrice(records []models.PropertyRecord) []models.NamedValue {
	return MonthlyAverage(records, func(r models.PropertyRecord) float64 { return r.Price })
}

// MonthlySize is the rounded average size per calendar month.
func MonthlySize(records []models.PropertyRecord) []models.NamedValue {
	return MonthlyAverage(records, func(r models.PropertyRecord) float64 { return r.Size })
}

// MonthlyAverage buckets records by the month of ts (UTC), Jan through Dec,
// and returns the rounded mean of value per bucket. Empty months are 0 and
// records without a timestamp are skipped.
func MonthlyAverage(records []models.PropertyRecord, value func(models.PropertyRecord) float64) []models.NamedValue {
	var sums, counts [12]float64
	for _, r := range records {
		if r.TS == 0 {
			continue
		}
		m := time.UnixMilli(r.TS).UTC().Month() - 1
		sums[m] += value(r)
		counts[m]++
	}

	series := make([]models.NamedValue, len(monthNames))
	for i, name := range monthNames {
		series[i] = models.NamedValue{Name: name, Value: math.Round(sums[i] / math.Max(counts[i], 1))}
	}
	return series
}

// Recent returns up to limit records, newest ts first. Ties keep stored order.
func Recent(records []models.PropertyRecord, limit int) []models.PropertyRecord {
	sorted := append([]models.PropertyRecord(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TS > sorted[j].TS
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	if sorted == nil {
		sorted = []models.PropertyRecord{}
	}
	return sorted
}

func countBy(records []models.PropertyRecord, key func(models.PropertyRecord) string) []models.NamedValue {
	index := make(map[string]int)
	var result []models.NamedValue
	for _, r := range records {
		label := key(r)
		norm := strings.ToLower(label)
		i, ok := index[norm]
		if !ok {
			i = len(result)
			index[norm] = i
			result = append(result, models.NamedValue{Name: label})
		}
		result[i].Value++
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Value != result[j].Value {
			return result[i].Value > result[j].Value
		}
		return result[i].Name < result[j].Name
	})
	if result == nil {
		result = []models.NamedValue{}
	}
	return result
}
