package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePubDate(t *testing.T) {
	jst := time.FixedZone("", 9*60*60)

	tests := []struct {
		name string
		in   string
		want time.Time
		ok   bool
	}{
		{"W3CDTF", "2024-06-01T09:30:00+09:00", time.Date(2024, 6, 1, 9, 30, 0, 0, jst), true},
		{"W3CDTF minutes", "2024-06-01T09:30+09:00", time.Date(2024, 6, 1, 9, 30, 0, 0, jst), true},
		{"RFC1123Z", "Sat, 01 Jun 2024 09:30:00 +0900", time.Date(2024, 6, 1, 9, 30, 0, 0, jst), true},
		{"single digit day", "Sat, 1 Jun 2024 09:30:00 +0900", time.Date(2024, 6, 1, 9, 30, 0, 0, jst), true},
		{"date only", "2024-06-01", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), true},
		{"surrounding space", "  2024-06-01  ", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), true},
		{"empty", "", time.Time{}, false},
		{"garbage", "令和6年6月1日", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParsePubDate(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
			}
		})
	}
}

func TestSortNewsByDate(t *testing.T) {
	items := []NewsItem{
		{ID: "old", PubDate: "2024-05-01T00:00:00+09:00"},
		{ID: "bad-1", PubDate: "not a date"},
		{ID: "new", PubDate: "2024-06-01T00:00:00+09:00"},
		{ID: "bad-2", PubDate: ""},
		{ID: "mid", PubDate: "Wed, 15 May 2024 12:00:00 +0900"},
	}

	SortNewsByDate(items)

	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	assert.Equal(t, []string{"new", "mid", "old", "bad-1", "bad-2"}, ids)
}

func TestSortNewsByDate_StableForEqualDates(t *testing.T) {
	items := []NewsItem{
		{ID: "a", PubDate: "2024-06-01"},
		{ID: "b", PubDate: "2024-06-01"},
	}

	SortNewsByDate(items)

	assert.Equal(t, "a", items[0].ID)
	assert.Equal(t, "b", items[1].ID)
}

func TestRenumberLots(t *testing.T) {
	lots := []ParkingLot{{ID: 99}, {ID: 7}, {ID: 7}}

	RenumberLots(lots)

	for i, lot := range lots {
		assert.Equal(t, i+1, lot.ID)
	}
}

func TestNow_UsesPackageClock(t *testing.T) {
	fake := clockwork.NewFakeClockAt(time.Date(2024, time.June, 1, 9, 0, 0, 0, time.FixedZone("JST", 9*60*60)))
	SetClock(fake)
	t.Cleanup(func() { SetClock(nil) })

	assert.Equal(t, time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC), Now())
	assert.Equal(t, "2024-06-01T00:00:00.000Z", FormatTimestamp(Now()))
}

func TestParkingLot_JSONShape(t *testing.T) {
	lot := ParkingLot{
		ID:          1,
		Name:        "駅南駐車場",
		TotalSpaces: 36,
		Location:    Coordinate{Lat: 35.3591, Lng: 132.7684},
		Address:     "駅南町内",
		Area:        "駅南町",
		Pricing:     NoPricing,
		Features:    []string{"paid"},
		UpdatedAt:   time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(lot)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Nil(t, decoded["availableSpaces"])
	assert.Contains(t, decoded, "availableSpaces")
	assert.InDelta(t, 36, decoded["totalSpaces"], 0)
	assert.Equal(t, map[string]any{"lat": 35.3591, "lng": 132.7684}, decoded["location"])
}
