package domain

import (
	"sort"
	"strings"
	"time"
)

// pubDateLayouts are the date formats seen in RSS 1.0 dc:date and RSS 2.0
// pubDate fields, most common first.
var pubDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04Z07:00", // W3CDTF without seconds
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	time.RFC822Z,
	time.RFC822,
	"2006-01-02T15:04:05", // no zone: read as UTC
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParsePubDate parses a feed date string. The second result is false when
// no known layout matches.
func ParsePubDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range pubDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// SortNewsByDate orders items newest first. Items whose pubDate cannot be
// parsed are treated as older than every dated item and keep their
// relative order.
func SortNewsByDate(items []NewsItem) {
	type keyed struct {
		item NewsItem
		at   time.Time
		ok   bool
	}
	keys := make([]keyed, len(items))
	for i, item := range items {
		t, ok := ParsePubDate(item.PubDate)
		keys[i] = keyed{item: item, at: t, ok: ok}
	}

	sort.SliceStable(keys, func(a, b int) bool {
		if keys[a].ok != keys[b].ok {
			return keys[a].ok
		}
		return keys[a].at.After(keys[b].at)
	})

	for i := range keys {
		items[i] = keys[i].item
	}
}

// RenumberLots overwrites every id with the lot's 1-based position.
func RenumberLots(lots []ParkingLot) {
	for i := range lots {
		lots[i].ID = i + 1
	}
}

// FormatTimestamp renders t the way the payloads carry timestamps:
// UTC, millisecond precision, "Z" suffix.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
