// Package news fetches the city's RSS 1.0 (RDF) and RSS 2.0 feeds and
// normalizes their items into one date-ordered list.
package news

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/izumo-civic/civicdata-service/internal/domain"
	"github.com/izumo-civic/civicdata-service/internal/sources"
)

// ErrUnrecognizedFeed is returned for documents that are neither RSS 1.0
// nor RSS 2.0.
var ErrUnrecognizedFeed = errors.New("document is not an RSS or RDF feed")

// tagRe strips inline markup from descriptions. It is not an HTML parser;
// malformed markup can survive it.
var tagRe = regexp.MustCompile(`<[^>]*>`)

// Item list locations per dialect.
var (
	rdfItemsPath = []string{"rdf:RDF"}
	rssItemsPath = []string{"rss", "channel"}
)

// ParseFeed parses one feed document and returns its items tagged with
// the feed's category label. now fills in items without a date.
func ParseFeed(data []byte, feed sources.Feed, now time.Time) ([]domain.NewsItem, error) {
	root, err := ParseTree(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	parent := root.Path(rdfItemsPath...)
	if parent == nil {
		parent = root.Path(rssItemsPath...)
	}
	if parent == nil {
		return nil, fmt.Errorf("%w: root element %q", ErrUnrecognizedFeed, root.Children[0].Name)
	}

	raw := parent.All("item")
	items := make([]domain.NewsItem, 0, len(raw))
	for _, item := range raw {
		items = append(items, normalizeItem(item, feed, now))
	}
	return items, nil
}

func normalizeItem(item *Node, feed sources.Feed, now time.Time) domain.NewsItem {
	pubDate := item.FirstField("pubDate", "dc:date")
	if pubDate == "" {
		pubDate = domain.FormatTimestamp(now)
	}

	return domain.NewsItem{
		ID:          newItemID(feed.Key, now),
		Title:       item.FirstField("title", "dc:title"),
		Description: tagRe.ReplaceAllString(item.FirstField("description", "dc:description"), ""),
		Link:        item.FirstField("link", AttrPrefix+"rdf:about"),
		PubDate:     pubDate,
		Category:    feed.Label,
	}
}

// newItemID builds "<key>_<unix millis>_<9 random chars>". Uniqueness is
// best effort.
func newItemID(key string, now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return key + "_" + strconv.FormatInt(now.UnixMilli(), 10) + "_" + suffix
}
