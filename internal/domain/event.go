package domain

import "time"

// Placeholder values written when a listing row lacks the field.
const (
	NoPricing   = "料金情報なし" // "no pricing info"
	AreaSuffix  = "内"      // "<area>内" = "within <area>"
	UnknownArea = "不明"     // area code missing from the fixed table
)

// Coordinate is a WGS-84 latitude/longitude pair.
type Coordinate struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// IsZero reports whether both components are zero.
func (c Coordinate) IsZero() bool {
	return c.Lat == 0 && c.Lng == 0
}

// ParkingLot is one parking-lot entry detected on an area listing page.
type ParkingLot struct {
	ID              int        `json:"id"`
	Name            string     `json:"name"`
	TotalSpaces     int        `json:"totalSpaces"`     // 0 = unknown
	AvailableSpaces *int       `json:"availableSpaces"` // no live source; always nil
	Location        Coordinate `json:"location"`
	Address         string     `json:"address"`
	Area            string     `json:"area"`
	Pricing         string     `json:"pricing"`
	Features        []string   `json:"features"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// ParkingData is the aggregated result across every configured area.
type ParkingData struct {
	Success   bool         `json:"success"`
	Data      []ParkingLot `json:"data"`
	Timestamp time.Time    `json:"timestamp"`
	Areas     []string     `json:"areas"`
	Count     int          `json:"count"`
}

// NewsItem is one normalized feed entry. PubDate keeps the feed's own
// string; it is parsed only for ordering.
type NewsItem struct {
	ID          string `json:"id" validate:"required"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Link        string `json:"link" validate:"url"`
	PubDate     string `json:"pubDate"`
	Category    string `json:"category"`
}

// NewsResponse is the merged news payload, also the shape of the static
// fallback document.
type NewsResponse struct {
	Items       []NewsItem `json:"items" validate:"required,dive"`
	LastUpdated string     `json:"lastUpdated" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
}
