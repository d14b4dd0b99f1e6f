package parking

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/PuerkitoBio/goquery"

	"github.com/izumo-civic/civicdata-service/internal/adapter/web"
	"github.com/izumo-civic/civicdata-service/internal/domain"
	"github.com/izumo-civic/civicdata-service/internal/observability"
)

// Fetcher downloads a listing page.
type Fetcher interface {
	Get(ctx context.Context, rawURL string) (web.Page, error)
}

// Scraper fetches and extracts a single area listing page.
type Scraper struct {
	fetcher   Fetcher
	estimator LocationEstimator
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewScraper creates a Scraper.
func NewScraper(f Fetcher, est LocationEstimator, logger *slog.Logger, metrics *observability.Metrics) *Scraper {
	return &Scraper{
		fetcher:   f,
		estimator: est,
		logger:    logger,
		metrics:   metrics,
	}
}

// Scrape returns the lots listed at rawURL for area. Fetch and parse
// failures are logged and yield no lots; Scrape never returns an error.
func (s *Scraper) Scrape(ctx context.Context, rawURL, area string) []domain.ParkingLot {
	page, err := s.fetcher.Get(ctx, rawURL)
	if err != nil {
		s.logger.Warn("fetch listing page failed", "area", area, "url", rawURL, "error", err)
		s.metrics.ScrapeRequests.WithLabelValues(area, "fetch_error").Inc()
		return nil
	}

	doc, err := ParseDocument(page)
	if err != nil {
		s.logger.Warn("parse listing page failed", "area", area, "url", rawURL, "error", err)
		s.metrics.ScrapeRequests.WithLabelValues(area, "parse_error").Inc()
		return nil
	}

	ext := Extract(ctx, doc, area, s.estimator)
	s.metrics.ScrapeRequests.WithLabelValues(area, "success").Inc()
	s.metrics.RowsExtracted.WithLabelValues("rejected").Add(float64(ext.Rejected))
	if ext.Fallback {
		s.metrics.FallbackScans.Inc()
		s.metrics.RowsExtracted.WithLabelValues("fallback").Add(float64(len(ext.Lots)))
	} else {
		s.metrics.RowsExtracted.WithLabelValues("accepted").Add(float64(len(ext.Lots)))
	}

	s.logger.Debug("listing page extracted",
		"area", area,
		"candidates", ext.Candidates,
		"rejected", ext.Rejected,
		"lots", len(ext.Lots),
		"fallback", ext.Fallback,
	)
	return ext.Lots
}

// ParseDocument decodes page to UTF-8 and parses it as HTML.
func ParseDocument(page web.Page) (*goquery.Document, error) {
	r, err := page.UTF8Reader()
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}
