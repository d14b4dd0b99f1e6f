package parking

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/izumo-civic/civicdata-service/internal/domain"
	"github.com/izumo-civic/civicdata-service/internal/observability"
	"github.com/izumo-civic/civicdata-service/internal/sources"
)

// ErrAggregationFailed is returned when an area scrape fails in a way the
// scraper could not absorb. No partial result accompanies it.
var ErrAggregationFailed = errors.New("failed to fetch parking data")

// AreaScraper extracts the lots of one area listing page.
type AreaScraper interface {
	Scrape(ctx context.Context, rawURL, area string) []domain.ParkingLot
}

// Aggregator collects lots across every configured area.
type Aggregator struct {
	scraper     AreaScraper
	catalog     *sources.Catalog
	concurrency int
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// NewAggregator creates an Aggregator that scrapes at most concurrency
// areas at a time.
func NewAggregator(scraper AreaScraper, catalog *sources.Catalog, concurrency int, logger *slog.Logger, metrics *observability.Metrics) *Aggregator {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Aggregator{
		scraper:     scraper,
		catalog:     catalog,
		concurrency: concurrency,
		logger:      logger,
		metrics:     metrics,
	}
}

// Collect scrapes every area, merges the lots in configured-area order
// and numbers them 1..N. Areas that yield nothing still succeed.
func (a *Aggregator) Collect(ctx context.Context) (domain.ParkingData, error) {
	start := time.Now()
	urls := a.catalog.ParkingURLs
	perArea := make([][]domain.ParkingLot, len(urls))

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed bool
	)
	sem := make(chan struct{}, a.concurrency)

	for i, rawURL := range urls {
		area := a.catalog.AreaLabel(rawURL)

		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			defer func() {
				if r := recover(); r != nil {
					a.logger.Error("area scrape panicked", "area", area, "url", rawURL, "panic", r)
					mu.Lock()
					failed = true
					mu.Unlock()
				}
			}()
			perArea[i] = a.scraper.Scrape(ctx, rawURL, area)
		}()
	}
	wg.Wait()

	if failed {
		return domain.ParkingData{}, ErrAggregationFailed
	}

	data := make([]domain.ParkingLot, 0)
	for _, lots := range perArea {
		data = append(data, lots...)
	}
	domain.RenumberLots(data)

	a.metrics.AggregationDuration.Observe(time.Since(start).Seconds())
	a.logger.Info("parking data collected", "lots", len(data), "areas", len(urls), "duration", time.Since(start))

	return domain.ParkingData{
		Success:   true,
		Data:      data,
		Timestamp: domain.Now(),
		Areas:     a.catalog.AreaLabels(),
		Count:     len(data),
	}, nil
}
