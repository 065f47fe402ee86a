package http

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/aptscout/internal/core/poi"
	"github.com/samirrijal/aptscout/internal/core/usecases"
)

// Pinger is a backing service with a liveness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Listings *usecases.ListingService
	POI      *poi.Resolver
	NATS     *nats.Conn
	DB       Pinger
	Cache    Pinger
}
