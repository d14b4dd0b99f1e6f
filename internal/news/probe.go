package news

import (
	"bytes"
	"context"
	"fmt"

	"github.com/mmcdole/gofeed"

	"github.com/izumo-civic/civicdata-service/internal/domain"
	"github.com/izumo-civic/civicdata-service/internal/sources"
)

// ProbeResult describes one feed as seen by an independent feed parser
// and by ParseFeed.
type ProbeResult struct {
	Key        string
	URL        string
	Dialect    string // e.g. "rss 1.0", "rss 2.0", "atom 1.0"
	Title      string
	Items      int // items gofeed found
	Normalized int // items ParseFeed produced
}

// Consistent reports whether both parsers found the same number of items.
func (r ProbeResult) Consistent() bool {
	return r.Items == r.Normalized
}

// Probe downloads feed and parses it with gofeed and with ParseFeed, so
// operators can spot a feed that changed dialect or structure.
func Probe(ctx context.Context, f Fetcher, feed sources.Feed) (ProbeResult, error) {
	result := ProbeResult{Key: feed.Key, URL: feed.URL}

	page, err := f.Get(ctx, feed.URL)
	if err != nil {
		return result, err
	}

	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(page.Body))
	if err != nil {
		return result, fmt.Errorf("gofeed parse: %w", err)
	}
	result.Dialect = parsed.FeedType + " " + parsed.FeedVersion
	result.Title = parsed.Title
	result.Items = len(parsed.Items)

	items, err := ParseFeed(page.Body, feed, domain.Now())
	if err != nil {
		return result, err
	}
	result.Normalized = len(items)

	return result, nil
}
