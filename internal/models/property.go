package models

// PropertyRecord is a single property listing as persisted in the record store.
type PropertyRecord struct {
	PropertyType  string  `json:"propertyType" validate:"required"`
	Size          float64 `json:"size" validate:"gt=0"`
	Price         float64 `json:"price" validate:"gt=0"`
	City          string  `json:"city" validate:"required"`
	Latitude      float64 `json:"latitude"`
	Floors        float64 `json:"floors"`
	Status        string  `json:"status"`
	ParkingSpaces float64 `json:"parking_spaces"`
	TS            int64   `json:"ts"`
}

// Observed status values
const (
	StatusInProgress = "in progress"
	StatusFinished   = "finished"
	StatusDelayed    = "delayed"
)

// SaveResponse acknowledges a save request.
type SaveResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// DataResponse wraps the record collection.
type DataResponse struct {
	OK   bool             `json:"ok"`
	Data []PropertyRecord `json:"data"`
}

type PropertyStats struct {
	TotalProperties int     `json:"total_properties"`
	TotalRevenue    float64 `json:"total_revenue"`
	AveragePrice    float64 `json:"average_price"`
	InProgress      int     `json:"in_progress"`
	Finished        int     `json:"finished"`
}

// NamedValue is one slice of a breakdown chart.
type NamedValue struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

type Summary struct {
	Stats          PropertyStats    `json:"stats"`
	ByStatus       []NamedValue     `json:"by_status"`
	ByPropertyType []NamedValue     `json:"by_property_type"`
	ByCity         []NamedValue     `json:"by_city"`
	MonthlyPrice   []NamedValue     `json:"monthly_price"`
	MonthlySize    []NamedValue     `json:"monthly_size"`
	Recent         []PropertyRecord `json:"recent"`
}

// RecordFilter narrows a record collection. Zero values disable a criterion.
type RecordFilter struct {
	City         string
	Status       string
	PropertyType string
	MinPrice     *float64
	MaxPrice     *float64
}

// IsEmpty reports whether the filter has no active criteria.
func (f RecordFilter) IsEmpty() bool {
	return f.City == "" && f.Status == "" && f.PropertyType == "" && f.MinPrice == nil && f.MaxPrice == nil
}
