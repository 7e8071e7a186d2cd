package orders

import (
	"context"
	"fmt"

	"github.com/jogardn/fooddash/internal/cart"
	"github.com/jogardn/fooddash/internal/session"
	"github.com/jogardn/fooddash/pkg/models"
	"github.com/sirupsen/logrus"
)

type ReorderResult struct {
	Added   []string `json:"added"`
	Skipped []string `json:"skipped"`
}

// Reorder rebuilds the session cart from a past order against the current
// menu. Items that are gone or unavailable are skipped and current prices
// apply. The cart is left untouched when the restaurant cannot be resolved.
func (t *Tracker) Reorder(ctx context.Context, sess *session.Session, order models.Order) (*ReorderResult, error) {
	restaurant, err := t.catalog.GetRestaurant(ctx, order.RestaurantID)
	if err != nil {
		t.metrics.Reorder("unavailable")
		return nil, fmt.Errorf("%w: restaurant %s: %v", ErrReorderUnavailable, order.RestaurantID, err)
	}
	menu, err := t.catalog.GetMenuItems(ctx, order.RestaurantID)
	if err != nil {
		t.metrics.Reorder("unavailable")
		return nil, fmt.Errorf("%w: menu of %s: %v", ErrReorderUnavailable, order.RestaurantID, err)
	}

	current := make(map[string]models.MenuItem, len(menu))
	for _, item := range menu {
		current[item.ID] = item
	}

	result := &ReorderResult{Added: []string{}, Skipped: []string{}}
	var lines []models.OrderLine
	for _, line := range order.Items {
		item, ok := current[line.MenuItem.ID]
		if !ok || !item.IsAvailable {
			result.Skipped = append(result.Skipped, line.MenuItem.ID)
			continue
		}
		lines = append(lines, models.OrderLine{MenuItem: item, Quantity: line.Quantity})
		result.Added = append(result.Added, item.ID)
	}

	sess.WithCart(func(c *cart.Cart) {
		c.Replace(*restaurant, lines)
	})

	t.metrics.Reorder("ok")
	t.logger.WithFields(logrus.Fields{
		"order_id":      order.ID,
		"customer_id":   sess.CustomerID(),
		"added_count":   len(result.Added),
		"skipped_count": len(result.Skipped),
	}).Info("Cart rebuilt from past order")

	return result, nil
}
