//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/izumo-civic/civicdata-service/internal/adapter/kafka"
	"github.com/izumo-civic/civicdata-service/internal/adapter/web"
	"github.com/izumo-civic/civicdata-service/internal/config"
	"github.com/izumo-civic/civicdata-service/internal/domain"
	"github.com/izumo-civic/civicdata-service/internal/observability"
	"github.com/izumo-civic/civicdata-service/internal/parking"
	"github.com/izumo-civic/civicdata-service/internal/pipeline"
	"github.com/izumo-civic/civicdata-service/internal/sources"
)

const testParkingTopic = "test-parking-lots"

const ekiminamiPage = `<html><body><table>
<tr><th>駐車場名</th><th>住所</th><th>台数</th><th>料金</th></tr>
<tr><td><a href="/p/detail.aspx?id=1">出雲市駅南駐車場</a></td><td>島根県出雲市駅南町1-23</td><td>収容台数：36</td><td>30分100円 最大600円</td></tr>
<tr><td><a href="/p/detail.aspx?id=2">駅南第二パーク</a></td><td>出雲市駅南町2-4</td><td>12台</td><td>無料</td></tr>
</table></body></html>`

const taishaPage = `<html><body><table>
<tr><td><a href="/p/detail.aspx?id=9">出雲大社観光駐車場</a></td><td>出雲市大社町杵築南</td><td>120台</td><td>無料 24時間</td></tr>
</table></body></html>`

// publishedLot holds a deserialized message read from the parking topic.
type publishedLot struct {
	Lot     domain.ParkingLot
	Key     string
	Headers map[string]string
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node KRaft broker and returns its address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("civicdata-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("terminate kafka container: %v", err)
		}
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// listingServer serves two area listing pages and returns a catalog
// pointing at them.
func listingServer(t *testing.T) *sources.Catalog {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		switch r.URL.Query().Get("choiki") {
		case "駅南町":
			_, _ = io.WriteString(w, ekiminamiPage)
		case "大社町杵築南":
			_, _ = io.WriteString(w, taishaPage)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	catalog, err := sources.Parse([]byte(fmt.Sprintf(`
default_center: {lat: 35.3673, lng: 132.7553}
areas:
  - {code: "%%e9%%a7%%85%%e5%%8d%%97%%e7%%94%%ba", label: 駅南町, base: {lat: 35.3591, lng: 132.7684}}
  - {code: "%%e5%%a4%%a7%%e7%%a4%%be%%e7%%94%%ba%%e6%%9d%%b5%%e7%%af%%89%%e5%%8d%%97", label: 大社町杵築南, base: {lat: 35.4017, lng: 132.6859}}
parking_urls:
  - %[1]s/p/parklist.aspx?scode=32203&choiki=%%e9%%a7%%85%%e5%%8d%%97%%e7%%94%%ba
  - %[1]s/p/parklist.aspx?scode=32203&choiki=%%e5%%a4%%a7%%e7%%a4%%be%%e7%%94%%ba%%e6%%9d%%b5%%e7%%af%%89%%e5%%8d%%97
feeds:
  - {key: news, label: 新着情報, url: %[1]s/news.rdf}
`, srv.URL)))
	require.NoError(t, err)
	return catalog
}

func readPublished(ctx context.Context, t *testing.T, consumer *kafkago.Reader) publishedLot {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from parking topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var lot domain.ParkingLot
	require.NoError(t, json.Unmarshal(msg.Value, &lot), "unmarshal parking message")

	return publishedLot{Lot: lot, Key: string(msg.Key), Headers: headers}
}

// TestPublisherEndToEnd scrapes listing pages served over HTTP, aggregates
// them and publishes every lot to a real Kafka broker.
func TestPublisherEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testParkingTopic)

	cfg := &config.Config{
		KafkaBrokers:      []string{broker},
		KafkaParkingTopic: testParkingTopic,
	}
	catalog := listingServer(t)
	metrics := observability.NewMetricsForTesting()

	estimator := domain.NewEstimator(catalog.BaseCoordinates(), catalog.DefaultCenter, discardLogger())
	scraper := parking.NewScraper(web.NewClient(5*time.Second, ""), estimator, discardLogger(), metrics)
	aggregator := parking.NewAggregator(scraper, catalog, 2, discardLogger(), metrics)

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	p := pipeline.New(aggregator, writer, time.Hour, discardLogger(), metrics)

	pubCtx, pubCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pubCtx) }()

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testParkingTopic,
		GroupID:     fmt.Sprintf("test-parking-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	received := make(map[string]publishedLot, 3)
	for len(received) < 3 {
		pl := readPublished(ctx, t, consumer)
		received[pl.Key] = pl
	}

	pubCancel()
	require.NoError(t, <-errCh)
	require.NoError(t, p.CheckReadiness(ctx))

	ekiminami, ok := received["駅南町/出雲市駅南駐車場"]
	require.True(t, ok, "missing 駅南町 lot; got keys %v", keys(received))
	assert.Equal(t, "駅南町", ekiminami.Headers["area"])
	_, err := time.Parse(time.RFC3339, ekiminami.Headers["collected_at"])
	assert.NoError(t, err, "collected_at should be valid RFC3339")
	assert.Equal(t, 36, ekiminami.Lot.TotalSpaces)
	assert.Equal(t, []string{parking.FeaturePaid, parking.FeatureMaxRateCap}, ekiminami.Lot.Features)
	// House number 1-23 offsets the area base.
	assert.InDelta(t, 35.3591+0.00001, ekiminami.Lot.Location.Lat, 1e-9)
	assert.InDelta(t, 132.7684+0.00023, ekiminami.Lot.Location.Lng, 1e-9)

	taisha, ok := received["大社町杵築南/出雲大社観光駐車場"]
	require.True(t, ok, "missing 大社町杵築南 lot; got keys %v", keys(received))
	assert.Equal(t, 120, taisha.Lot.TotalSpaces)
	assert.Contains(t, taisha.Lot.Features, parking.FeatureNearTaisha)
	assert.Contains(t, taisha.Lot.Features, parking.FeatureTouristSpot)

	// Ids are positional across the whole snapshot.
	ids := map[int]bool{}
	for _, pl := range received {
		ids[pl.Lot.ID] = true
	}
	assert.Equal(t, map[int]bool{1: true, 2: true, 3: true}, ids)
}

func keys(m map[string]publishedLot) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
