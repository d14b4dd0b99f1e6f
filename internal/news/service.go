package news

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/izumo-civic/civicdata-service/internal/adapter/web"
	"github.com/izumo-civic/civicdata-service/internal/domain"
	"github.com/izumo-civic/civicdata-service/internal/observability"
	"github.com/izumo-civic/civicdata-service/internal/sources"
)

// AllFeeds selects every configured feed.
const AllFeeds = "all"

// ErrFallbackUnavailable is returned when the live feeds could not be
// served and the fallback document could not be loaded or validated.
var ErrFallbackUnavailable = errors.New("news fallback unavailable")

// Fetcher downloads a feed document.
type Fetcher interface {
	Get(ctx context.Context, rawURL string) (web.Page, error)
}

// Service merges the configured feeds into one response.
type Service struct {
	fetcher  Fetcher
	feeds    []sources.Feed
	fallback FallbackSource
	timeout  time.Duration
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewService creates a Service. Each feed fetch is bounded by timeout.
func NewService(f Fetcher, feeds []sources.Feed, fallback FallbackSource, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		fetcher:  f,
		feeds:    feeds,
		fallback: fallback,
		timeout:  timeout,
		logger:   logger,
		metrics:  metrics,
	}
}

// Latest fetches the feeds selected by feedType ("all", "" or a feed
// key) concurrently and returns their items newest first. A feed that
// fails contributes nothing. When no items were collected, or the merged
// response fails validation, the fallback document is returned instead.
func (s *Service) Latest(ctx context.Context, feedType string) (domain.NewsResponse, error) {
	feeds := s.selectFeeds(feedType)
	now := domain.Now()

	perFeed := make([][]domain.NewsItem, len(feeds))
	var wg sync.WaitGroup
	for i, feed := range feeds {
		wg.Add(1)
		go func() {
			defer wg.Done()
			perFeed[i] = s.fetchFeed(ctx, feed, now)
		}()
	}
	wg.Wait()

	var items []domain.NewsItem
	for _, feedItems := range perFeed {
		items = append(items, feedItems...)
	}

	if len(items) == 0 {
		return s.loadFallback(ctx, feedType)
	}

	domain.SortNewsByDate(items)
	resp := domain.NewsResponse{
		Items:       items,
		LastUpdated: domain.FormatTimestamp(now),
	}
	if err := Validate(resp); err != nil {
		s.logger.Error("news response invalid, serving fallback", "items", len(items), "error", err)
		s.metrics.NewsValidationFailures.Inc()
		return s.loadFallback(ctx, feedType)
	}
	return resp, nil
}

func (s *Service) selectFeeds(feedType string) []sources.Feed {
	if feedType == "" || feedType == AllFeeds {
		return s.feeds
	}
	for _, f := range s.feeds {
		if f.Key == feedType {
			return []sources.Feed{f}
		}
	}
	s.logger.Warn("unknown news feed type", "type", feedType)
	return nil
}

// fetchFeed downloads and parses one feed. Failures are logged and
// counted, never returned.
func (s *Service) fetchFeed(ctx context.Context, feed sources.Feed, now time.Time) []domain.NewsItem {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	page, err := s.fetcher.Get(ctx, feed.URL)
	if err != nil {
		s.logger.Warn("fetch feed failed", "feed", feed.Key, "url", feed.URL, "error", err)
		s.metrics.FeedFetches.WithLabelValues(feed.Key, "error").Inc()
		return nil
	}

	items, err := ParseFeed(page.Body, feed, now)
	if err != nil {
		s.logger.Warn("parse feed failed", "feed", feed.Key, "url", feed.URL, "error", err)
		s.metrics.FeedFetches.WithLabelValues(feed.Key, "error").Inc()
		return nil
	}

	if len(items) == 0 {
		s.metrics.FeedFetches.WithLabelValues(feed.Key, "empty").Inc()
	} else {
		s.metrics.FeedFetches.WithLabelValues(feed.Key, "success").Inc()
	}
	s.logger.Debug("feed parsed", "feed", feed.Key, "items", len(items))
	return items
}

func (s *Service) loadFallback(ctx context.Context, feedType string) (domain.NewsResponse, error) {
	resp, err := s.fallback.Load(ctx)
	if err != nil {
		s.logger.Error("load news fallback failed", "error", err)
		return domain.NewsResponse{}, fmt.Errorf("%w: %w", ErrFallbackUnavailable, err)
	}
	if err := Validate(resp); err != nil {
		s.logger.Error("news fallback invalid", "error", err)
		return domain.NewsResponse{}, fmt.Errorf("%w: %w", ErrFallbackUnavailable, err)
	}

	s.metrics.NewsFallbacks.Inc()
	s.logger.Warn("serving news fallback", "type", feedType, "items", len(resp.Items))
	return resp, nil
}

// LatestN returns at most the first n items. Non-positive n returns all.
func LatestN(items []domain.NewsItem, n int) []domain.NewsItem {
	if n <= 0 || n >= len(items) {
		return items
	}
	return items[:n]
}

// ByCategory returns the items whose category label equals label.
func ByCategory(items []domain.NewsItem, label string) []domain.NewsItem {
	out := make([]domain.NewsItem, 0, len(items))
	for _, item := range items {
		if item.Category == label {
			out = append(out, item)
		}
	}
	return out
}
