// Command scrape runs the parking extraction once and prints the result.
// Without -file it aggregates every configured area live; with -file it
// extracts a saved listing page, which is how new page layouts are
// checked before deploying.
//
// Usage:
//
//	go run ./cmd/scrape -format table
//	go run ./cmd/scrape -file testdata/parklist.html -area 駅南町 -jitter
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/izumo-civic/civicdata-service/internal/adapter/mapbox"
	"github.com/izumo-civic/civicdata-service/internal/adapter/web"
	"github.com/izumo-civic/civicdata-service/internal/config"
	"github.com/izumo-civic/civicdata-service/internal/domain"
	"github.com/izumo-civic/civicdata-service/internal/observability"
	"github.com/izumo-civic/civicdata-service/internal/parking"
	"github.com/izumo-civic/civicdata-service/internal/sources"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	file := flag.String("file", "", "extract a saved listing page instead of fetching every area")
	area := flag.String("area", domain.UnknownArea, "area label for -file")
	format := flag.String("format", "json", "output format: json or table")
	jitter := flag.Bool("jitter", false, "spread addresses without a house number around the area base")
	verbose := flag.Bool("v", false, "debug logging to stderr")
	flag.Parse()

	if *format != "json" && *format != "table" {
		return fmt.Errorf("unknown -format %q", *format)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	metrics := observability.NewMetrics()
	catalog := sources.Default()

	var opts []domain.EstimatorOption
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, logger, metrics)
		opts = append(opts, domain.WithGeocoder(mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)))
	}
	if *jitter {
		opts = append(opts, domain.WithJitter(nil))
	}
	estimator := domain.NewEstimator(catalog.BaseCoordinates(), catalog.DefaultCenter, logger, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var data domain.ParkingData
	if *file != "" {
		data, err = extractFile(ctx, *file, *area, estimator, catalog)
	} else {
		fetcher := web.NewClient(cfg.ScrapeTimeout, cfg.UserAgent)
		scraper := parking.NewScraper(fetcher, estimator, logger, metrics)
		data, err = parking.NewAggregator(scraper, catalog, cfg.ScrapeConcurrency, logger, metrics).Collect(ctx)
	}
	if err != nil {
		return err
	}

	if *format == "table" {
		writeTable(os.Stdout, data.Data)
		return nil
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(data)
}

func extractFile(ctx context.Context, path, area string, est parking.LocationEstimator, catalog *sources.Catalog) (domain.ParkingData, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return domain.ParkingData{}, err
	}
	doc, err := parking.ParseDocument(web.Page{URL: path, Body: body})
	if err != nil {
		return domain.ParkingData{}, fmt.Errorf("parse %s: %w", path, err)
	}

	ext := parking.Extract(ctx, doc, area, est)
	fmt.Fprintf(os.Stderr, "%s: %d candidate rows, %d rejected, fallback=%t\n",
		path, ext.Candidates, ext.Rejected, ext.Fallback)

	lots := ext.Lots
	if lots == nil {
		lots = []domain.ParkingLot{}
	}
	domain.RenumberLots(lots)
	return domain.ParkingData{
		Success:   true,
		Data:      lots,
		Timestamp: domain.Now(),
		Areas:     catalog.AreaLabels(),
		Count:     len(lots),
	}, nil
}

type column struct {
	title string
	width int
	value func(domain.ParkingLot) string
}

var columns = []column{
	{"ID", 4, func(l domain.ParkingLot) string { return strconv.Itoa(l.ID) }},
	{"AREA", 14, func(l domain.ParkingLot) string { return l.Area }},
	{"NAME", 30, func(l domain.ParkingLot) string { return l.Name }},
	{"SPACES", 6, func(l domain.ParkingLot) string {
		if l.TotalSpaces == 0 {
			return "-"
		}
		return strconv.Itoa(l.TotalSpaces)
	}},
	{"LAT,LNG", 20, func(l domain.ParkingLot) string {
		return fmt.Sprintf("%.5f,%.5f", l.Location.Lat, l.Location.Lng)
	}},
	{"PRICING", 28, func(l domain.ParkingLot) string { return l.Pricing }},
	{"FEATURES", 0, func(l domain.ParkingLot) string { return strings.Join(l.Features, ", ") }},
}

// writeTable prints lots as aligned columns. Widths are display cells, so
// full-width Japanese text lines up with ASCII.
func writeTable(w io.Writer, lots []domain.ParkingLot) {
	cells := make([]string, len(columns))
	row := func(get func(c column) string) {
		for i, c := range columns {
			s := get(c)
			if c.width > 0 {
				s = runewidth.FillRight(runewidth.Truncate(s, c.width, "…"), c.width)
			}
			cells[i] = s
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(cells, "  "), " "))
	}

	row(func(c column) string { return c.title })
	for _, lot := range lots {
		row(func(c column) string { return c.value(lot) })
	}
	fmt.Fprintf(w, "%d lots\n", len(lots))
}
