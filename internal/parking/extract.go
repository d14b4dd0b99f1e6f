// Package parking extracts parking-lot records from iPosLand area listing
// pages and aggregates them across every configured area.
package parking

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/izumo-civic/civicdata-service/internal/domain"
)

// maxBareCapacity bounds the bare-number cell heuristic; larger numbers
// are prices, postcodes or years rather than space counts.
const maxBareCapacity = 1000

var (
	// Whitespace classes include NBSP and the ideographic space.
	unitsRe    = regexp.MustCompile(`(\d+)[\s\x{00A0}\x{3000}]*台`)
	capacityRe = regexp.MustCompile(`収容台数[：:][\s\x{00A0}\x{3000}]*(\d+)`)
	bareIntRe  = regexp.MustCompile(`^\d+$`)
)

var (
	rowKeywords      = []string{"駐車場", "パーク", "台"}
	addressKeywords  = []string{"島根県", "出雲市"}
	pricingKeywords  = []string{"¥", "円", "無料"}
	fallbackKeywords = []string{"駐車場", "パーク", "プラザ"}
)

// LocationEstimator assigns a coordinate to a listing address.
type LocationEstimator interface {
	Estimate(ctx context.Context, address, area string) domain.Coordinate
}

// Extraction is the outcome of extracting one listing page.
type Extraction struct {
	Lots       []domain.ParkingLot
	Candidates int  // rows passing the keyword filter and having cells
	Rejected   int  // candidates failing the acceptance rule
	Fallback   bool // lots came from the anchor fallback scan
}

// rowFields are the raw values pulled out of one candidate row, before
// defaults are applied.
type rowFields struct {
	name        string
	address     string
	totalSpaces int
	pricing     string
}

// accepted reports whether the row carries a name and at least one
// other piece of information.
func (f rowFields) accepted() bool {
	return f.name != "" && (f.address != "" || f.totalSpaces > 0 || f.pricing != "")
}

// ExtractLots returns the parking lots found in doc for area.
func ExtractLots(ctx context.Context, doc *goquery.Document, area string, est LocationEstimator) []domain.ParkingLot {
	return Extract(ctx, doc, area, est).Lots
}

// Extract runs the row scan over doc and, when it accepts nothing, the
// anchor fallback scan. Ids are left zero; the aggregator assigns them.
func Extract(ctx context.Context, doc *goquery.Document, area string, est LocationEstimator) Extraction {
	var result Extraction
	now := domain.Now()

	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		if !containsAny(row.Text(), rowKeywords) {
			return
		}
		cells := row.Find("td")
		if cells.Length() == 0 {
			return
		}
		result.Candidates++

		f := extractRow(row, cells)
		if !f.accepted() {
			result.Rejected++
			return
		}

		result.Lots = append(result.Lots, domain.ParkingLot{
			Name:        f.name,
			TotalSpaces: f.totalSpaces,
			Location:    est.Estimate(ctx, f.address, area),
			Address:     orDefault(f.address, area+domain.AreaSuffix),
			Area:        area,
			Pricing:     orDefault(f.pricing, domain.NoPricing),
			Features:    Features(f.pricing, f.name),
			UpdatedAt:   now,
		})
	})

	if len(result.Lots) == 0 {
		result.Lots = fallbackScan(ctx, doc, area, est)
		result.Fallback = true
	}

	return result
}

// extractRow applies the field heuristics to one candidate row.
func extractRow(row, cells *goquery.Selection) rowFields {
	var f rowFields

	f.name = strings.TrimSpace(row.Find("a").First().Text())

	cells.Each(func(_ int, cell *goquery.Selection) {
		text := strings.TrimSpace(cell.Text())
		if containsAny(text, addressKeywords) {
			f.address = text
		}
		if containsAny(text, pricingKeywords) {
			f.pricing = text
		}
	})

	f.totalSpaces = rowCapacity(row.Text(), cells)

	return f
}

// rowCapacity tries "<n>台", then "収容台数：<n>" which overrides it, and
// only when both found nothing the first bare-number cell in (0, 1000).
func rowCapacity(rowText string, cells *goquery.Selection) int {
	total := 0
	if m := unitsRe.FindStringSubmatch(rowText); m != nil {
		total = atoi(m[1])
	}
	if m := capacityRe.FindStringSubmatch(rowText); m != nil {
		total = atoi(m[1])
	}
	if total != 0 {
		return total
	}

	cells.EachWithBreak(func(_ int, cell *goquery.Selection) bool {
		text := strings.TrimSpace(cell.Text())
		if !bareIntRe.MatchString(text) {
			return true
		}
		if n := atoi(text); n > 0 && n < maxBareCapacity {
			total = n
			return false
		}
		return true
	})
	return total
}

// fallbackScan emits one lot per anchor whose text names a parking
// facility, reading capacity from the enclosing row or div.
func fallbackScan(ctx context.Context, doc *goquery.Document, area string, est LocationEstimator) []domain.ParkingLot {
	var lots []domain.ParkingLot
	now := domain.Now()

	doc.Find("a").Each(func(_ int, a *goquery.Selection) {
		name := strings.TrimSpace(a.Text())
		if !containsAny(name, fallbackKeywords) {
			return
		}

		total := 0
		if m := unitsRe.FindStringSubmatch(a.Closest("tr, div").Text()); m != nil {
			total = atoi(m[1])
		}

		lots = append(lots, domain.ParkingLot{
			Name:        name,
			TotalSpaces: total,
			Location:    est.Estimate(ctx, "", area),
			Address:     area + domain.AreaSuffix,
			Area:        area,
			Pricing:     domain.NoPricing,
			Features:    Features("", name),
			UpdatedAt:   now,
		})
	})

	return lots
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// atoi parses a digit run. A run too long for an int yields 0, the
// unknown capacity.
func atoi(digits string) int {
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}
