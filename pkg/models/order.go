package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the client-facing order stage.
type OrderStatus string

const (
	StatusPlaced         OrderStatus = "placed"
	StatusConfirmed      OrderStatus = "confirmed"
	StatusPreparing      OrderStatus = "preparing"
	StatusOutForDelivery OrderStatus = "out_for_delivery"
	StatusDelivered      OrderStatus = "delivered"
	StatusCancelled      OrderStatus = "cancelled"
)

// RemoteStatus is the order store's status vocabulary.
type RemoteStatus string

const (
	RemotePending        RemoteStatus = "PENDING"
	RemoteConfirmed      RemoteStatus = "CONFIRMED"
	RemotePreparing      RemoteStatus = "PREPARING"
	RemoteReady          RemoteStatus = "READY"
	RemoteOutForDelivery RemoteStatus = "OUT_FOR_DELIVERY"
	RemoteDelivered      RemoteStatus = "DELIVERED"
	RemoteCancelled      RemoteStatus = "CANCELLED"
)

type OrderLine struct {
	MenuItem MenuItem `json:"menu_item"`
	Quantity int      `json:"quantity"`
}

type Order struct {
	ID                  string          `json:"id"`
	CustomerID          string          `json:"customer_id"`
	RestaurantID        string          `json:"restaurant_id"`
	RestaurantName      string          `json:"restaurant_name"`
	RestaurantImage     string          `json:"restaurant_image"`
	Items               []OrderLine     `json:"items"`
	FoodTotal           decimal.Decimal `json:"food_total"`
	DeliveryFee         decimal.Decimal `json:"delivery_fee"`
	PlatformFee         decimal.Decimal `json:"platform_fee"`
	TotalAmount         decimal.Decimal `json:"total_amount"`
	Status              OrderStatus     `json:"status"`
	StatusLabel         string          `json:"status_label"`
	DeliveryAddress     *Address        `json:"delivery_address,omitempty"`
	RiderID             string          `json:"rider_id,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	EstimatedDeliveryAt *time.Time      `json:"estimated_delivery_at,omitempty"`
}
