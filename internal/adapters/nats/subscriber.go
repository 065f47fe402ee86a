package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/aptscout/internal/core/domain"
)

// Subscriber implements ports.EventSubscriber using NATS JetStream.
type Subscriber struct {
	conn    *nats.Conn
	js      nats.JetStreamContext
	durable string
	subs    []*nats.Subscription
}

// NewSubscriber connects and binds to the listings stream under a durable name.
func NewSubscriber(url, durable string) (*Subscriber, error) {
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
	return &Subscriber{conn: conn, js: js, durable: durable}, nil
}

// SubscribeMatchedListings delivers matched listings to handler. A handler
// error naks the message for redelivery, up to five attempts.
func (s *Subscriber) SubscribeMatchedListings(ctx context.Context, handler func(ctx context.Context, l *domain.Listing) error) error {
	sub, err := s.js.Subscribe(SubjectMatchedAll, func(msg *nats.Msg) {
		DeliverMatched(ctx, msg, msg.Data, msg.Subject, handler)
	},
		nats.Durable(s.durable),
		nats.ManualAck(),
		nats.MaxDeliver(5),
		nats.DeliverNew(),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Acker is the acknowledgement surface of a JetStream message.
type Acker interface {
	Ack(opts ...nats.AckOpt) error
	Nak(opts ...nats.AckOpt) error
	Term(opts ...nats.AckOpt) error
}

// DeliverMatched decodes one matched-listing event and settles it. Malformed
// payloads are terminated, handler failures are naked, and the rest acked.
func DeliverMatched(ctx context.Context, m Acker, data []byte, subject string, handler func(ctx context.Context, l *domain.Listing) error) {
	var l domain.Listing
	if err := json.Unmarshal(data, &l); err != nil {
		slog.Warn("drop malformed listing event", "subject", subject, "error", err)
		_ = m.Term()
		return
	}
	if err := handler(ctx, &l); err != nil {
		slog.Warn("listing event handler failed", "listing_id", l.ID, "error", err)
		_ = m.Nak()
		return
	}
	_ = m.Ack()
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
