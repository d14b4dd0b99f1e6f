// Package sources holds the fixed tables the extractors run against: area
// codes and labels, listing-page URLs, per-area base coordinates and the
// city's news feeds. The tables are embedded YAML decoded once at start.
package sources

import (
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/izumo-civic/civicdata-service/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed sources.yaml
var embedded []byte

// areaParam is the listing-page query parameter carrying the area code.
const areaParam = "choiki"

// Catalog validation errors.
var (
	ErrNoAreas       = errors.New("at least one area is required")
	ErrNoParkingURLs = errors.New("at least one parking URL is required")
	ErrNoFeeds       = errors.New("at least one feed is required")
	ErrDuplicateFeed = errors.New("duplicate feed key")
)

// Area is one listing area.
type Area struct {
	Code  string            `yaml:"code"`  // percent-encoded, as it appears in the URL
	Label string            `yaml:"label"` // e.g. 駅南町
	Base  domain.Coordinate `yaml:"base"`
}

// Feed is one RSS source and the category label its items receive.
type Feed struct {
	Key   string `yaml:"key"`   // emergency, topics, news
	Label string `yaml:"label"` // e.g. 災害・緊急情報
	URL   string `yaml:"url"`
}

// Catalog is the full set of extraction sources.
type Catalog struct {
	DefaultCenter domain.Coordinate `yaml:"default_center"`
	Areas         []Area            `yaml:"areas"`
	ParkingURLs   []string          `yaml:"parking_urls"`
	Feeds         []Feed            `yaml:"feeds"`
}

var loadDefault = sync.OnceValues(func() (*Catalog, error) {
	return Parse(embedded)
})

// Default returns the embedded catalog. It panics if the embedded
// document is invalid, which is a build defect.
func Default() *Catalog {
	c, err := loadDefault()
	if err != nil {
		panic(fmt.Sprintf("embedded sources: %v", err))
	}
	return c
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode sources: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	if len(c.Areas) == 0 {
		return ErrNoAreas
	}
	if len(c.ParkingURLs) == 0 {
		return ErrNoParkingURLs
	}
	if len(c.Feeds) == 0 {
		return ErrNoFeeds
	}
	seen := make(map[string]bool, len(c.Feeds))
	for _, f := range c.Feeds {
		if seen[f.Key] {
			return fmt.Errorf("%w: %s", ErrDuplicateFeed, f.Key)
		}
		seen[f.Key] = true
	}
	return nil
}

// AreaLabels returns every configured area label in table order.
func (c *Catalog) AreaLabels() []string {
	labels := make([]string, len(c.Areas))
	for i, a := range c.Areas {
		labels[i] = a.Label
	}
	return labels
}

// BaseCoordinates returns the label → base coordinate table.
func (c *Catalog) BaseCoordinates() map[string]domain.Coordinate {
	bases := make(map[string]domain.Coordinate, len(c.Areas))
	for _, a := range c.Areas {
		bases[a.Label] = a.Base
	}
	return bases
}

// AreaLabel maps a listing URL to its area label through the raw value
// of the choiki query parameter. Percent-encoding case is ignored.
// Unknown or missing codes map to domain.UnknownArea.
func (c *Catalog) AreaLabel(rawURL string) string {
	code, ok := rawAreaCode(rawURL)
	if !ok {
		return domain.UnknownArea
	}
	for _, a := range c.Areas {
		if strings.EqualFold(a.Code, code) {
			return a.Label
		}
	}
	return domain.UnknownArea
}

// Feed looks up a feed by key.
func (c *Catalog) Feed(key string) (Feed, bool) {
	for _, f := range c.Feeds {
		if f.Key == key {
			return f, true
		}
	}
	return Feed{}, false
}

// rawAreaCode returns the still-encoded choiki value of rawURL.
func rawAreaCode(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	for _, pair := range strings.Split(u.RawQuery, "&") {
		key, value, found := strings.Cut(pair, "=")
		if found && key == areaParam && value != "" {
			return value, true
		}
	}
	return "", false
}
