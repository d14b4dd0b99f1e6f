// Command feedcheck probes every configured news feed with an independent
// feed parser and with the service's own normalizer, and reports the feed
// dialect, title and item counts. It exits non-zero when a feed cannot be
// fetched or parsed, or when the two parsers disagree on the item count.
//
// Usage:
//
//	go run ./cmd/feedcheck
//	go run ./cmd/feedcheck -feed emergency
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/izumo-civic/civicdata-service/internal/adapter/web"
	"github.com/izumo-civic/civicdata-service/internal/news"
	"github.com/izumo-civic/civicdata-service/internal/sources"
)

func main() {
	os.Exit(run())
}

func run() int {
	only := flag.String("feed", "", "probe a single feed key")
	timeout := flag.Duration("timeout", 10*time.Second, "per-feed fetch timeout")
	flag.Parse()

	catalog := sources.Default()
	feeds := catalog.Feeds
	if *only != "" {
		f, ok := catalog.Feed(*only)
		if !ok {
			fmt.Fprintf(os.Stderr, "unknown feed %q\n", *only)
			return 2
		}
		feeds = []sources.Feed{f}
	}

	client := web.NewClient(*timeout, "")
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FEED\tDIALECT\tITEMS\tNORMALIZED\tSTATUS\tTITLE")

	failed := false
	for _, feed := range feeds {
		ctx, cancel := context.WithTimeout(context.Background(), *timeout)
		result, err := news.Probe(ctx, client, feed)
		cancel()

		status := "ok"
		switch {
		case err != nil:
			status = "error: " + err.Error()
			failed = true
		case !result.Consistent():
			status = "mismatch"
			failed = true
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\n",
			feed.Key, result.Dialect, result.Items, result.Normalized, status, result.Title)
	}
	_ = tw.Flush()

	if failed {
		return 1
	}
	return 0
}
