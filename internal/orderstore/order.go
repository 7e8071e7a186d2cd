// Package orderstore is the order store service: the REST API the BFF
// submits orders to, backed by Postgres, publishing order events to Kafka.
package orderstore

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jogardn/fooddash/pkg/models"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidOrder      = errors.New("invalid order")
	ErrNotFound          = errors.New("order not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrConflict          = errors.New("order was modified concurrently")
)

// ErrIdempotencyMismatch means the idempotency key already names an order
// placed with a different customer, restaurant or item set.
var ErrIdempotencyMismatch = errors.New("idempotency key reused with a different order")

type Item struct {
	ItemID   string
	Name     string
	Quantity int
	Price    decimal.Decimal
}

// sameRequest reports whether o and other describe the same purchase: same
// customer, restaurant and items. Fees are left out since a retry may carry a
// refreshed delivery fee.
func (o *Order) sameRequest(other *Order) bool {
	if o.CustomerPhone != other.CustomerPhone || o.RestaurantID != other.RestaurantID {
		return false
	}
	return itemSet(o.Items) == itemSet(other.Items)
}

func itemSet(items []Item) string {
	keys := make([]string, 0, len(items))
	for _, item := range items {
		keys = append(keys, fmt.Sprintf("%s:%d:%s", item.ItemID, item.Quantity, item.Price.StringFixed(2)))
	}
	sort.Strings(keys)
	return strings.Join(keys, ",")
}

type Order struct {
	ID                  string
	CustomerPhone       string
	RestaurantID        string
	RestaurantName      string
	RestaurantImage     string
	Items               []Item
	FoodTotal           decimal.Decimal
	DeliveryFee         decimal.Decimal
	PlatformFee         decimal.Decimal
	GrandTotal          decimal.Decimal
	Status              models.RemoteStatus
	RiderID             string
	DeliveryAddress     *models.Address
	IdempotencyKey      string
	CreatedAt           time.Time
	UpdatedAt           time.Time
	EstimatedDeliveryAt time.Time
}

func (o *Order) ToAPI() models.APIOrder {
	api := models.APIOrder{
		OrderID:         o.ID,
		CustomerPhone:   o.CustomerPhone,
		RestaurantID:    o.RestaurantID,
		RestaurantName:  o.RestaurantName,
		RestaurantImage: o.RestaurantImage,
		Items:           make([]models.APIOrderItem, 0, len(o.Items)),
		FoodTotal:       models.WireAmount(o.FoodTotal),
		DeliveryFee:     models.WireAmount(o.DeliveryFee),
		PlatformFee:     models.WireAmount(o.PlatformFee),
		GrandTotal:      models.WireAmount(o.GrandTotal),
		Status:          string(o.Status),
		DeliveryAddress: o.DeliveryAddress,
		CreatedAt:       o.CreatedAt.UnixMilli(),
	}
	for _, item := range o.Items {
		api.Items = append(api.Items, models.APIOrderItem{
			ItemID:   item.ItemID,
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    models.WireAmount(item.Price),
		})
	}
	if o.RiderID != "" {
		rider := o.RiderID
		api.RiderID = &rider
	}
	if !o.EstimatedDeliveryAt.IsZero() {
		api.EstimatedDeliveryAt = o.EstimatedDeliveryAt.UnixMilli()
	}
	return api
}

type Filter struct {
	CustomerPhone string
	RestaurantID  string
	RiderID       string
	Limit         int
}
