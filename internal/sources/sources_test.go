package sources

import (
	"testing"

	"github.com/izumo-civic/civicdata-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_EmbeddedTables(t *testing.T) {
	c := Default()

	assert.Equal(t, []string{"駅南町", "駅北町", "今市町", "大社町杵築南", "大社町修理免"}, c.AreaLabels())
	assert.Len(t, c.ParkingURLs, 5)
	assert.Equal(t, domain.Coordinate{Lat: 35.3673, Lng: 132.7553}, c.DefaultCenter)
	assert.Equal(t, domain.Coordinate{Lat: 35.3591, Lng: 132.7684}, c.BaseCoordinates()["駅南町"])

	feed, ok := c.Feed("emergency")
	require.True(t, ok)
	assert.Equal(t, "災害・緊急情報", feed.Label)
	assert.Equal(t, "https://www.city.izumo.shimane.jp/www/rss/kinkyu.rdf", feed.URL)
}

func TestAreaLabel_EveryParkingURLResolves(t *testing.T) {
	c := Default()

	var labels []string
	for _, u := range c.ParkingURLs {
		labels = append(labels, c.AreaLabel(u))
	}

	assert.Equal(t, c.AreaLabels(), labels)
}

func TestAreaLabel(t *testing.T) {
	c := Default()

	tests := []struct {
		name string
		url  string
		want string
	}{
		{"lower-case code", "https://search.ipos-land.jp/p/parklist.aspx?scode=32203&choiki=%e4%bb%8a%e5%b8%82%e7%94%ba", "今市町"},
		{"upper-case code", "https://search.ipos-land.jp/p/parklist.aspx?scode=32203&choiki=%E4%BB%8A%E5%B8%82%E7%94%BA", "今市町"},
		{"code first", "https://example.test/p?choiki=%e9%a7%85%e5%8c%97%e7%94%ba&scode=32203", "駅北町"},
		{"unknown code", "https://example.test/p?choiki=%e6%9d%b1%e4%ba%ac", domain.UnknownArea},
		{"missing parameter", "https://example.test/p?scode=32203", domain.UnknownArea},
		{"empty value", "https://example.test/p?choiki=", domain.UnknownArea},
		{"unparseable URL", "://bad", domain.UnknownArea},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.AreaLabel(tt.url))
		})
	}
}

func TestParse_Validation(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr error
	}{
		{"no areas", "parking_urls: [a]\nfeeds: [{key: k}]", ErrNoAreas},
		{"no urls", "areas: [{label: x}]\nfeeds: [{key: k}]", ErrNoParkingURLs},
		{"no feeds", "areas: [{label: x}]\nparking_urls: [a]", ErrNoFeeds},
		{"duplicate feed", "areas: [{label: x}]\nparking_urls: [a]\nfeeds: [{key: k}, {key: k}]", ErrDuplicateFeed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("areas: [unterminated"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode sources")
}
