package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/aptscout/internal/core/domain"
	"github.com/samirrijal/aptscout/internal/core/poi"
	"github.com/samirrijal/aptscout/internal/core/ports"
	"github.com/samirrijal/aptscout/internal/pkg/metrics"
	"github.com/samirrijal/aptscout/internal/pkg/telemetry"
)

// DefaultSeenTTL is how long the cache remembers a processed listing ID.
const DefaultSeenTTL = 30 * 24 * time.Hour

// ScrapeService runs scrape cycles: fetch, dedupe, enrich, store, publish.
type ScrapeService struct {
	source    ports.ListingSource
	listings  ports.ListingRepository
	seen      ports.SeenStore
	publisher ports.EventPublisher
	maps      ports.MapRenderer
	resolver  *poi.Resolver
	seenTTL   time.Duration
}

// NewScrapeService creates a new ScrapeService. seen, publisher and maps may be nil.
func NewScrapeService(
	source ports.ListingSource,
	listings ports.ListingRepository,
	seen ports.SeenStore,
	publisher ports.EventPublisher,
	maps ports.MapRenderer,
	resolver *poi.Resolver,
) *ScrapeService {
	return &ScrapeService{
		source:    source,
		listings:  listings,
		seen:      seen,
		publisher: publisher,
		maps:      maps,
		resolver:  resolver,
		seenTTL:   DefaultSeenTTL,
	}
}

// RunCycle scrapes every area in order. A failing area is logged and counted;
// only context cancellation stops the cycle early.
func (s *ScrapeService) RunCycle(ctx context.Context, areas []string) (domain.CycleReport, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanScrapeCycle)
	defer span.End()

	report := domain.CycleReport{StartedAt: time.Now()}
	defer func() {
		report.Duration = time.Since(report.StartedAt)
		metrics.ScrapeCycleDuration.Observe(report.Duration.Seconds())
	}()

	for _, area := range areas {
		if err := ctx.Err(); err != nil {
			span.SetStatus(codes.Error, "cancelled")
			return report, err
		}

		ar, matched, err := s.scrapeArea(ctx, area)
		report.Matched = append(report.Matched, matched...)
		if err != nil {
			if ctx.Err() != nil {
				report.Areas = append(report.Areas, ar)
				span.SetStatus(codes.Error, "cancelled")
				return report, ctx.Err()
			}
			ar.Errors++
			metrics.ScrapeErrors.WithLabelValues(area).Inc()
			slog.Error("scrape area failed", "area", area, "error", err)
		}
		report.Areas = append(report.Areas, ar)

		slog.Info("area scraped",
			"area", area,
			"scraped", ar.Scraped,
			"new", ar.New,
			"matched", ar.Matched,
			"errors", ar.Errors,
		)
	}

	span.SetAttributes(attribute.Int(telemetry.AttrMatched, len(report.Matched)))
	return report, nil
}

func (s *ScrapeService) scrapeArea(ctx context.Context, area string) (domain.AreaReport, []domain.Listing, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanScrapeArea)
	defer span.End()
	span.SetAttributes(attribute.String(telemetry.AttrArea, area))

	ar := domain.AreaReport{Area: area}

	results, err := s.source.Search(ctx, area)
	if err != nil {
		span.RecordError(err)
		return ar, nil, err
	}
	ar.Scraped = len(results)
	metrics.ListingsScraped.WithLabelValues(area).Add(float64(len(results)))

	var matched []domain.Listing
	for i := range results {
		if err := ctx.Err(); err != nil {
			return ar, matched, err
		}
		l := &results[i]
		l.Area = area

		ok, err := s.isNew(ctx, l.ID)
		if err != nil {
			ar.Errors++
			metrics.ScrapeErrors.WithLabelValues(area).Inc()
			slog.Warn("seen check failed", "listing_id", l.ID, "error", err)
			continue
		}
		if !ok {
			continue
		}
		if strings.TrimSpace(l.Location) == "" {
			slog.Debug("skip listing without location label", "listing_id", l.ID)
			continue
		}

		if err := s.source.Details(ctx, l); err != nil {
			if ctx.Err() != nil {
				return ar, matched, ctx.Err()
			}
			ar.Errors++
			metrics.ScrapeErrors.WithLabelValues(area).Inc()
			slog.Warn("listing details failed", "listing_id", l.ID, "error", err)
		}

		s.Enrich(l)

		if l.Enrichment.NearTransit && l.Geotag != nil && s.maps != nil {
			l.MapImageURL = s.maps.MarkerURL(*l.Geotag)
		}

		if err := s.listings.Save(ctx, l); err != nil {
			ar.Errors++
			metrics.ScrapeErrors.WithLabelValues(area).Inc()
			slog.Error("save listing failed", "listing_id", l.ID, "error", err)
			continue
		}
		if s.seen != nil {
			if err := s.seen.MarkSeen(ctx, l.ID, s.seenTTL); err != nil {
				slog.Warn("mark seen failed", "listing_id", l.ID, "error", err)
			}
		}
		ar.New++
		metrics.ListingsNew.WithLabelValues(area).Inc()

		if !l.Enrichment.NearTransit {
			continue
		}
		ar.Matched++
		metrics.ListingsMatched.WithLabelValues(area).Inc()
		matched = append(matched, *l)

		if s.publisher != nil {
			if err := s.publisher.PublishMatchedListing(ctx, l); err != nil {
				ar.Errors++
				metrics.ScrapeErrors.WithLabelValues(area).Inc()
				slog.Error("publish matched listing failed", "listing_id", l.ID, "error", err)
			}
		}
	}

	span.SetAttributes(
		attribute.Int(telemetry.AttrScraped, ar.Scraped),
		attribute.Int(telemetry.AttrNew, ar.New),
		attribute.Int(telemetry.AttrMatched, ar.Matched),
	)
	return ar, matched, nil
}

// isNew checks the cache first, then the repository.
func (s *ScrapeService) isNew(ctx context.Context, id string) (bool, error) {
	if s.seen != nil {
		seen, err := s.seen.Seen(ctx, id)
		if err == nil && seen {
			return false, nil
		}
		if err != nil {
			slog.Debug("seen cache unavailable", "error", err)
		}
	}
	exists, err := s.listings.Exists(ctx, id)
	if err != nil {
		return false, fmt.Errorf("exists %s: %w", id, err)
	}
	return !exists, nil
}

// Enrich attaches region and transit context to a listing. Listings without
// a geotag are classified by their location label alone.
func (s *ScrapeService) Enrich(l *domain.Listing) {
	if l.Geotag != nil {
		l.Enrichment = s.resolver.Resolve(*l.Geotag, l.Location)
		return
	}
	l.Enrichment = s.resolver.ResolveLabel(l.Location)
}
