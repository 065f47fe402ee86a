package telemetry

// Span and attribute names shared by instrumented services.
const (
	TracerName = "github.com/samirrijal/aptscout"

	SpanScrapeCycle  = "scrape.cycle"
	SpanScrapeArea   = "scrape.area"
	SpanEnrich       = "poi.resolve"
	SpanForwardTable = "forward.table"
	SpanForwardChat  = "forward.chat"

	AttrArea        = "listing.area"
	AttrListingID   = "listing.id"
	AttrRegion      = "listing.region"
	AttrNearTransit = "listing.near_transit"
	AttrScraped     = "scrape.scraped"
	AttrNew         = "scrape.new"
	AttrMatched     = "scrape.matched"
)
