package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/samirrijal/aptscout/internal/core/domain"
	"github.com/samirrijal/aptscout/internal/core/ports"
	"github.com/samirrijal/aptscout/internal/pkg/metrics"
	"github.com/samirrijal/aptscout/internal/pkg/telemetry"
)

// ForwardService delivers matched listings to the table and chat sinks.
type ForwardService struct {
	table ports.TableSink
	chat  ports.ChatNotifier
	loc   *time.Location
}

// NewForwardService creates a new ForwardService. Nil sinks are skipped.
func NewForwardService(table ports.TableSink, chat ports.ChatNotifier, loc *time.Location) *ForwardService {
	if loc == nil {
		loc = time.UTC
	}
	return &ForwardService{table: table, chat: chat, loc: loc}
}

// PostToTable appends the listing as one table record.
func (s *ForwardService) PostToTable(ctx context.Context, l *domain.Listing) error {
	if s.table == nil {
		slog.Info("table sink not configured, skipping", "listing_id", l.ID)
		return nil
	}
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanForwardTable)
	defer span.End()

	if err := s.table.CreateRecord(ctx, TableFields(l, s.loc)); err != nil {
		metrics.ForwardErrors.WithLabelValues("table").Inc()
		span.RecordError(err)
		return fmt.Errorf("post %s to table: %w", l.ID, err)
	}
	return nil
}

// PostToChat posts a one-line summary of the listing.
func (s *ForwardService) PostToChat(ctx context.Context, l *domain.Listing) error {
	if s.chat == nil {
		slog.Info("chat sink not configured, skipping", "listing_id", l.ID)
		return nil
	}
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanForwardChat)
	defer span.End()

	if err := s.chat.PostMessage(ctx, ChatText(l)); err != nil {
		metrics.ForwardErrors.WithLabelValues("chat").Inc()
		span.RecordError(err)
		return fmt.Errorf("post %s to chat: %w", l.ID, err)
	}
	return nil
}

// TableFields maps a listing to table columns. Posted time is rendered in loc.
func TableFields(l *domain.Listing, loc *time.Location) map[string]any {
	fields := map[string]any{
		"Name":                 l.Name,
		"Link":                 l.URL,
		"Price":                l.Price,
		"Location":             l.Location,
		"Area":                 l.Enrichment.Region,
		"Closest Transit Stop": l.Enrichment.TransitStop,
		"Transit Walking Time": math.Round(l.Enrichment.WalkingMinutes*10) / 10,
	}
	if l.MapImageURL != "" {
		fields["Map"] = []map[string]string{{"url": l.MapImageURL}}
	}
	if l.PhotoURL != "" {
		fields["Photos"] = []map[string]string{{"url": l.PhotoURL}}
	}
	if !l.PostedAt.IsZero() {
		fields["Added to CL"] = l.PostedAt.In(loc).Format(time.RFC3339)
	}
	return fields
}

// ChatText renders `region | $price | stop (N min) | <url|name>`.
func ChatText(l *domain.Listing) string {
	region := l.Enrichment.Region
	if region == "" {
		region = l.Area
	}
	stop := "no transit"
	if l.Enrichment.TransitStop != "" {
		stop = fmt.Sprintf("%s (%d min)", l.Enrichment.TransitStop, int(math.Round(l.Enrichment.WalkingMinutes)))
	}
	return fmt.Sprintf("%s | $%s | %s | <%s|%s>",
		region,
		strconv.FormatFloat(l.Price, 'f', -1, 64),
		stop,
		l.URL,
		l.Name,
	)
}
