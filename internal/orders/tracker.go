package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jogardn/fooddash/internal/metrics"
	"github.com/jogardn/fooddash/pkg/models"
	"github.com/sirupsen/logrus"
)

const listLimit = 100

// Tracker reads order status from the order store. It is pull-only; the
// cached history answers when the store cannot.
type Tracker struct {
	store   Store
	history *History
	catalog Catalog
	metrics *metrics.OrderMetrics
	logger  *logrus.Logger
}

func NewTracker(store Store, history *History, catalog Catalog, m *metrics.OrderMetrics, logger *logrus.Logger) *Tracker {
	return &Tracker{store: store, history: history, catalog: catalog, metrics: m, logger: logger}
}

// GetOrder returns ErrNotFound when the store has no such order for the
// customer. Any other store error falls back to the cached copy.
func (t *Tracker) GetOrder(ctx context.Context, customerID, orderID string) (*models.Order, error) {
	remote, err := t.store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		if cached, ok := t.history.Find(ctx, customerID, orderID); ok {
			t.logger.WithError(err).WithField("order_id", orderID).Warn("Order store unavailable, serving cached order")
			return &cached, nil
		}
		return nil, err
	}

	if remote.CustomerPhone != "" && remote.CustomerPhone != customerID {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, orderID)
	}

	order := FromAPI(*remote)
	order.CustomerID = customerID
	order = t.history.Upsert(ctx, customerID, order)
	return &order, nil
}

// ListOrders returns the customer's orders newest first. A store failure
// degrades to the cached list.
func (t *Tracker) ListOrders(ctx context.Context, customerID string) []models.Order {
	remote, err := t.store.ListOrders(ctx, ListFilter{CustomerPhone: customerID, Limit: listLimit})
	if err != nil {
		t.logger.WithError(err).WithField("customer_id", customerID).Warn("Order store unavailable, serving cached orders")
		return t.history.Cached(ctx, customerID)
	}

	orders := make([]models.Order, 0, len(remote))
	for _, o := range remote {
		order := FromAPI(o)
		order.CustomerID = customerID
		orders = append(orders, order)
	}
	return t.history.Replace(ctx, customerID, orders)
}
