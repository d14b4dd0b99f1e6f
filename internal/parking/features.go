package parking

import (
	"regexp"
	"strings"
)

// Feature tags attached to a lot.
const (
	FeatureFree        = "free"
	FeaturePaid        = "paid"
	Feature24Hours     = "24-hour service"
	FeatureMaxRateCap  = "has maximum-rate cap"
	FeatureTouristSpot = "tourist spot"
	FeatureNearTaisha  = "near Izumo Taisha"
	FeatureHotelGuests = "hotel-guest priority"
)

// zeroYenRe matches a price of exactly zero yen. "600円" must not match.
var zeroYenRe = regexp.MustCompile(`(?:^|[^0-9０-９,，])[0０]円`)

// Features derives the ordered feature tags of a lot from its pricing
// text and name. Exactly one of free or paid is always present.
func Features(pricing, name string) []string {
	features := make([]string, 0, 4)

	if isFree(pricing) {
		features = append(features, FeatureFree)
	} else {
		features = append(features, FeaturePaid)
	}

	if strings.Contains(pricing, "24時間") {
		features = append(features, Feature24Hours)
	}
	if strings.Contains(pricing, "最大") {
		features = append(features, FeatureMaxRateCap)
	}

	// 出雲大社 contains 大社, so one check covers both names.
	if strings.Contains(name, "大社") {
		features = append(features, FeatureTouristSpot, FeatureNearTaisha)
	}
	if strings.Contains(name, "ホテル") {
		features = append(features, FeatureHotelGuests)
	}

	return features
}

func isFree(pricing string) bool {
	return strings.Contains(pricing, "無料") || zeroYenRe.MatchString(pricing)
}
