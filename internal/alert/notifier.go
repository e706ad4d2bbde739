package alert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/saturnino-fabrica-de-software/campusguard/internal/audience"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/bus"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/domain"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/metrics"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/ws"
)

// Population lists identities for audience resolution
type Population interface {
	List(ctx context.Context, filter domain.IdentityFilter) ([]domain.Identity, error)
}

// WebhookDeliverer posts alerts to external subscribers
type WebhookDeliverer interface {
	Deliver(ctx context.Context, alert *domain.Alert) error
}

// Notifier resolves an alert's audience and hands it to the delivery
// channels: the bus (websocket push on every instance) and webhooks.
type Notifier struct {
	population Population
	resolver   *audience.Resolver
	bus        bus.Bus
	webhooks   WebhookDeliverer
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewNotifier creates a notifier. webhooks may be nil.
func NewNotifier(population Population, resolver *audience.Resolver, b bus.Bus, webhooks WebhookDeliverer, m *metrics.Metrics, logger *slog.Logger) *Notifier {
	return &Notifier{
		population: population,
		resolver:   resolver,
		bus:        b,
		webhooks:   webhooks,
		metrics:    m,
		logger:     logger.With("component", "notifier"),
	}
}

// Recipients resolves spec against the whole population
func (n *Notifier) Recipients(ctx context.Context, spec domain.TargetSpec) ([]*domain.Identity, error) {
	identities, err := n.population.List(ctx, domain.IdentityFilter{})
	if err != nil {
		return nil, domain.ErrPersistenceFailed.WithError(fmt.Errorf("list population: %w", err))
	}

	population := make([]*domain.Identity, len(identities))
	for i := range identities {
		population[i] = &identities[i]
	}

	return n.resolver.Resolve(spec, population), nil
}

// Notify returns the number of resolved recipients. Channel failures are
// joined into the returned error; each channel is attempted regardless.
func (n *Notifier) Notify(ctx context.Context, alert *domain.Alert) (int, error) {
	recipients, err := n.Recipients(ctx, alert.Target)
	if err != nil {
		return 0, err
	}
	ids := audience.RecipientIDs(recipients)

	var (
		g               errgroup.Group
		busErr, hookErr error
	)

	if len(ids) > 0 {
		g.Go(func() error {
			if err := n.bus.Publish(ctx, bus.Delivery{Alert: alert, Recipients: ids}); err != nil {
				n.metrics.ObserveDeliveryFailure("bus")
				busErr = fmt.Errorf("publish alert: %w", err)
			}
			return nil
		})
	}

	if n.webhooks != nil {
		g.Go(func() error {
			if err := n.webhooks.Deliver(ctx, alert); err != nil {
				n.metrics.ObserveDeliveryFailure("webhook")
				hookErr = fmt.Errorf("deliver webhooks: %w", err)
			}
			return nil
		})
	}

	_ = g.Wait()

	n.logger.Info("alert dispatched",
		"alert_id", alert.ID,
		"category", alert.Category,
		"severity", alert.Severity,
		"recipients", len(ids),
	)

	return len(ids), errors.Join(busErr, hookErr)
}

// PushToHub returns the bus handler that forwards deliveries to the
// websocket connections held by this instance.
func PushToHub(hub *ws.Hub) bus.Handler {
	return func(_ context.Context, d bus.Delivery) {
		hub.SendTo(d.Recipients, ws.EventAlert, d.Alert)
	}
}
