package orders

import (
	"time"

	"github.com/jogardn/fooddash/internal/cart"
	"github.com/jogardn/fooddash/internal/status"
	"github.com/jogardn/fooddash/pkg/models"
)

// FromAPI converts an order store record into the client order model.
func FromAPI(o models.APIOrder) models.Order {
	order := models.Order{
		ID:              o.OrderID,
		CustomerID:      o.CustomerPhone,
		RestaurantID:    o.RestaurantID,
		RestaurantName:  o.RestaurantName,
		RestaurantImage: o.RestaurantImage,
		FoodTotal:       models.Money(o.FoodTotal),
		DeliveryFee:     models.Money(o.DeliveryFee),
		PlatformFee:     models.Money(o.PlatformFee),
		TotalAmount:     models.Money(o.GrandTotal),
		Status:          status.FromRemote(o.Status),
		CreatedAt:       time.UnixMilli(o.CreatedAt).UTC(),
	}
	order.StatusLabel = status.Label(order.Status)

	for _, item := range o.Items {
		order.Items = append(order.Items, models.OrderLine{
			MenuItem: models.MenuItem{
				ID:           item.ItemID,
				RestaurantID: o.RestaurantID,
				Name:         item.Name,
				Price:        models.Money(item.Price),
				IsAvailable:  true,
			},
			Quantity: item.Quantity,
		})
	}
	if o.RiderID != nil {
		order.RiderID = *o.RiderID
	}
	if o.DeliveryAddress != nil {
		addr := *o.DeliveryAddress
		order.DeliveryAddress = &addr
	}
	if o.EstimatedDeliveryAt > 0 {
		eta := time.UnixMilli(o.EstimatedDeliveryAt).UTC()
		order.EstimatedDeliveryAt = &eta
	}
	return order
}

func toOrderLines(lines []cart.Line) []models.OrderLine {
	out := make([]models.OrderLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, models.OrderLine{MenuItem: l.MenuItem.Clone(), Quantity: l.Quantity})
	}
	return out
}

// mergeSnapshot keeps the fields captured locally at submission time that
// the order store does not echo back.
func mergeSnapshot(remote models.Order, local models.Order) models.Order {
	if remote.RestaurantName == "" {
		remote.RestaurantName = local.RestaurantName
	}
	if remote.RestaurantImage == "" {
		remote.RestaurantImage = local.RestaurantImage
	}
	if remote.DeliveryAddress == nil && local.DeliveryAddress != nil {
		addr := *local.DeliveryAddress
		remote.DeliveryAddress = &addr
	}
	if len(local.Items) > 0 {
		remote.Items = local.Items
	}
	return remote
}
