package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/aptscout/internal/core/domain"
)

const (
	// StreamListings holds matched-listing events.
	StreamListings = "LISTINGS"
	// SubjectMatched is the subject prefix; the area is appended.
	SubjectMatched = "listings.matched"
	// SubjectMatchedAll matches every area.
	SubjectMatchedAll = SubjectMatched + ".>"
)

// MatchedSubject returns the subject for a matched listing in area.
func MatchedSubject(area string) string {
	if area == "" {
		area = "unknown"
	}
	return SubjectMatched + "." + area
}

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and ensures the listings stream exists.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	if err := ensureStream(js); err != nil {
		conn.Close()
		return nil, err
	}

	return &Publisher{conn: conn, js: js}, nil
}

func ensureStream(js nats.JetStreamContext) error {
	cfg := nats.StreamConfig{
		Name:      StreamListings,
		Subjects:  []string{SubjectMatchedAll},
		Retention: nats.InterestPolicy,
		MaxAge:    7 * 24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(&cfg); err != nil {
		// Stream may already exist, try update
		if _, err := js.UpdateStream(&cfg); err != nil {
			return fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}
	return nil
}

// PublishMatchedListing publishes a listing on listings.matched.<area>.
// The listing ID is the message ID so JetStream drops duplicates.
func (p *Publisher) PublishMatchedListing(ctx context.Context, l *domain.Listing) error {
	data, err := json.Marshal(l)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(MatchedSubject(l.Area), data, nats.Context(ctx), nats.MsgId(l.ID))
	return err
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("aptscout"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
