package workflows

import (
	"context"

	"github.com/samirrijal/aptscout/internal/core/domain"
	"github.com/samirrijal/aptscout/internal/core/usecases"
)

// ForwardActivities exposes the forward service as Temporal activities.
// Registered as a struct, so the method names are the activity names.
type ForwardActivities struct {
	Forward *usecases.ForwardService
}

// PostToTable appends the listing to the table sink.
func (a *ForwardActivities) PostToTable(ctx context.Context, l domain.Listing) error {
	return a.Forward.PostToTable(ctx, &l)
}

// PostToChat posts the listing summary to the chat sink.
func (a *ForwardActivities) PostToChat(ctx context.Context, l domain.Listing) error {
	return a.Forward.PostToChat(ctx, &l)
}
