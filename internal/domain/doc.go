// Package domain models the civic records extracted for Izumo city
// (Shimane prefecture): parking lots scraped from listing pages and news
// items normalized from the city's RSS feeds.
//
// # Parking listing pages
//
// Each configured area has one listing page on the iPosLand parking
// search site. The area is identified by the percent-encoded "choiki"
// query parameter:
//
//	https://search.ipos-land.jp/p/parklist.aspx?scode=32203&choiki=%e9%a7%85%e5%8d%97%e7%94%ba
//	choiki=駅南町 (Ekiminami-machi)
//
// The markup is an unstable table layout. A parking lot is recognized by
// keywords rather than by column position:
//
//	駐車場   "parking lot"
//	パーク   "park" (as in "Times Park")
//	台       counter word for vehicles, e.g. "36台" = 36 spaces
//	収容台数 "capacity", e.g. "収容台数：36"
//	島根県 / 出雲市   prefecture / city name, marks an address cell
//	¥ / 円 / 無料     yen sign / yen / free, marks a pricing cell
//
// Capacity 0 means unknown, never "no spaces". Live availability is not
// published by the source, so AvailableSpaces is always null.
//
// # News feeds
//
// The city publishes three feeds, in RSS 1.0 (RDF) form:
//
//	kinkyu.rdf  災害・緊急情報 (disaster / emergency)
//	topics.rdf  注目情報       (topics)
//	news.rdf    新着情報       (what's new)
//
// RSS 1.0 items carry Dublin Core fields (dc:date, sometimes dc:title)
// and expose their link as the rdf:about attribute. RSS 2.0 input is
// accepted as well so that a change of feed generator does not break
// ingestion.
//
// # Coordinates
//
// Listing pages carry no coordinates. A location is either a Mapbox
// forward geocode of a full prefecture address, or the fixed base
// coordinate of the area offset by the address house number. See
// [Estimator].
package domain
