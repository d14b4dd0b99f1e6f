//go:build mapbox

package mapbox

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/izumo-civic/civicdata-service/internal/observability"
)

// These tests hit the real Mapbox API and require a valid MAPBOX_TOKEN env var.
// Run with: go test -tags=mapbox ./internal/adapter/mapbox/ -v -count=1

func smokeClient(t *testing.T) *Client {
	t.Helper()
	token := os.Getenv("MAPBOX_TOKEN")
	if token == "" {
		t.Fatal("MAPBOX_TOKEN must be set to run smoke tests")
	}
	return NewClient(token, 10*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)), observability.NewMetricsForTesting())
}

func TestSmoke_ForwardGeocode(t *testing.T) {
	c := smokeClient(t)

	result, err := c.ForwardGeocode(context.Background(), "島根県出雲市今市町70")
	require.NoError(t, err)

	assert.InDelta(t, 35.36, result.Lat, 0.1, "lat should be near Izumo")
	assert.InDelta(t, 132.75, result.Lon, 0.1, "lon should be near Izumo")
	assert.Contains(t, result.FormattedAddress, "出雲")
	assert.Greater(t, result.Confidence, 0.0)
}

func TestSmoke_ForwardGeocode_LowRelevance(t *testing.T) {
	c := smokeClient(t)

	// Fuzzy matching may still return a candidate; only the absence of an
	// error is checked.
	_, err := c.ForwardGeocode(context.Background(), "島根県XYZNONEXISTENT99")
	require.NoError(t, err)
}

func TestSmoke_CachedGeocoder(t *testing.T) {
	c := smokeClient(t)
	cached := NewCachedGeocoder(c, 10, observability.NewMetricsForTesting())

	r1, err := cached.ForwardGeocode(context.Background(), "島根県出雲市大社町杵築東195")
	require.NoError(t, err)
	assert.NotEmpty(t, r1.FormattedAddress)

	r2, err := cached.ForwardGeocode(context.Background(), "島根県出雲市大社町杵築東195")
	require.NoError(t, err)
	assert.Equal(t, r1, r2)
}
