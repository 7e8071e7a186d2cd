package orders

import (
	"context"
	"sort"
	"sync"

	"github.com/jogardn/fooddash/internal/localcache"
	"github.com/jogardn/fooddash/pkg/models"
	"github.com/sirupsen/logrus"
)

// History is the cached order list of each customer. Writes are serialized
// so concurrent submissions and refreshes never lose an order.
type History struct {
	cache  localcache.Cache
	mutex  sync.Mutex
	logger *logrus.Logger
}

func NewHistory(cache localcache.Cache, logger *logrus.Logger) *History {
	return &History{cache: cache, logger: logger}
}

// Cached returns the cached orders, newest first. Cache errors yield an
// empty list.
func (h *History) Cached(ctx context.Context, customerID string) []models.Order {
	orders, err := h.cache.Orders(ctx, customerID)
	if err != nil {
		h.logger.WithError(err).WithField("customer_id", customerID).Warn("Failed to read cached orders")
		return nil
	}
	sortNewestFirst(orders)
	return orders
}

func (h *History) Find(ctx context.Context, customerID, orderID string) (models.Order, bool) {
	for _, o := range h.Cached(ctx, customerID) {
		if o.ID == orderID {
			return o, true
		}
	}
	return models.Order{}, false
}

// Prepend records a newly placed order at the head of the history.
func (h *History) Prepend(ctx context.Context, customerID string, order models.Order) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	existing := h.Cached(ctx, customerID)
	orders := make([]models.Order, 0, len(existing)+1)
	orders = append(orders, order)
	for _, o := range existing {
		if o.ID != order.ID {
			orders = append(orders, o)
		}
	}
	h.save(ctx, customerID, orders)
}

// Upsert stores a freshly fetched order, keeping its local snapshot fields.
func (h *History) Upsert(ctx context.Context, customerID string, order models.Order) models.Order {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	orders := h.Cached(ctx, customerID)
	for i, o := range orders {
		if o.ID == order.ID {
			order = mergeSnapshot(order, o)
			orders[i] = order
			h.save(ctx, customerID, orders)
			return order
		}
	}

	orders = append(orders, order)
	sortNewestFirst(orders)
	h.save(ctx, customerID, orders)
	return order
}

// Replace swaps the cached list for a freshly fetched one and returns it
// sorted newest first.
func (h *History) Replace(ctx context.Context, customerID string, remote []models.Order) []models.Order {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	local := make(map[string]models.Order)
	for _, o := range h.Cached(ctx, customerID) {
		local[o.ID] = o
	}

	merged := make([]models.Order, 0, len(remote))
	for _, o := range remote {
		if cached, ok := local[o.ID]; ok {
			o = mergeSnapshot(o, cached)
		}
		merged = append(merged, o)
	}
	sortNewestFirst(merged)
	h.save(ctx, customerID, merged)
	return merged
}

func (h *History) save(ctx context.Context, customerID string, orders []models.Order) {
	if err := h.cache.SetOrders(ctx, customerID, orders); err != nil {
		h.logger.WithError(err).WithField("customer_id", customerID).Warn("Failed to persist order history")
	}
}

func sortNewestFirst(orders []models.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}
