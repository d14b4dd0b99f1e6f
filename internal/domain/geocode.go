package domain

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
)

// PrefectureMarker must appear in an address before it is sent to the
// geocoder; partial addresses geocode to the wrong town.
const PrefectureMarker = "島根県"

const (
	houseNumberScale = 0.00001
	jitterSpan       = 0.005
)

// houseNumberRe captures a "<block>-<lot>" house number, e.g. "1-23".
var houseNumberRe = regexp.MustCompile(`(\d+)-(\d+)`)

// Estimator assigns a coordinate to a listing address. It never fails:
// geocoding is best effort and every other path is a fixed table lookup.
type Estimator struct {
	geocoder Geocoder
	bases    map[string]Coordinate
	center   Coordinate
	jitter   func() float64
	logger   *slog.Logger
}

// EstimatorOption customizes an Estimator.
type EstimatorOption func(*Estimator)

// WithGeocoder enables forward geocoding of full prefecture addresses.
// A nil geocoder leaves geocoding disabled.
func WithGeocoder(g Geocoder) EstimatorOption {
	return func(e *Estimator) { e.geocoder = g }
}

// WithJitter spreads addresses without a house number around the area
// base coordinate by up to ±0.0025 degrees. random must return values in
// [0, 1); nil selects math/rand/v2.
func WithJitter(random func() float64) EstimatorOption {
	return func(e *Estimator) {
		if random == nil {
			random = rand.Float64
		}
		e.jitter = random
	}
}

// NewEstimator creates an Estimator over the per-area base coordinates.
// center is used for areas missing from bases.
func NewEstimator(bases map[string]Coordinate, center Coordinate, logger *slog.Logger, opts ...EstimatorOption) *Estimator {
	e := &Estimator{
		bases:  bases,
		center: center,
		logger: logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Estimate returns the best available coordinate for address in area.
func (e *Estimator) Estimate(ctx context.Context, address, area string) Coordinate {
	if e.geocoder != nil && strings.Contains(address, PrefectureMarker) {
		result, err := e.geocoder.ForwardGeocode(ctx, address)
		switch {
		case err != nil:
			e.logger.Warn("forward geocoding failed",
				"address", address,
				"area", area,
				"error", err,
			)
		case result.Lat != 0 || result.Lon != 0:
			return Coordinate{Lat: result.Lat, Lng: result.Lon}
		}
	}

	base := e.Base(area)

	if lat, lng, ok := houseNumberOffset(address); ok {
		return Coordinate{Lat: base.Lat + lat, Lng: base.Lng + lng}
	}

	if e.jitter != nil {
		return Coordinate{
			Lat: base.Lat + (e.jitter()-0.5)*jitterSpan,
			Lng: base.Lng + (e.jitter()-0.5)*jitterSpan,
		}
	}
	return base
}

// Base returns the fixed reference coordinate of area, or the default
// centre when the area is not in the table.
func (e *Estimator) Base(area string) Coordinate {
	if c, ok := e.bases[area]; ok {
		return c
	}
	return e.center
}

// houseNumberOffset derives a small reproducible offset from the first
// "<n>-<m>" pattern in address: (n mod 100) and (m mod 100) hundred-
// thousandths of a degree.
func houseNumberOffset(address string) (lat, lng float64, ok bool) {
	m := houseNumberRe.FindStringSubmatch(address)
	if m == nil {
		return 0, 0, false
	}
	return float64(mod100(m[1])) * houseNumberScale, float64(mod100(m[2])) * houseNumberScale, true
}

// mod100 returns the decimal digit string modulo 100 without overflowing
// on long digit runs.
func mod100(digits string) int {
	if len(digits) > 2 {
		digits = digits[len(digits)-2:]
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}
