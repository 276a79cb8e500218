package usecase

import (
	"context"

	"github.com/xavierca1/retirement-leads/internal/entity"
)

// Deliverer hands a recorded lead to the downstream sinks. Implementations
// never fail; outcomes are reported per sink.
type Deliverer interface {
	Deliver(ctx context.Context, lead *entity.Lead, contact *entity.Contact) entity.DeliveryReport
}

// EventTracker forwards non-lead analytics events.
type EventTracker interface {
	Track(ctx context.Context, event entity.TrackedEvent) entity.DeliveryReport
}
