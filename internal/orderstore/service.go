package orderstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jogardn/fooddash/internal/events"
	"github.com/jogardn/fooddash/internal/status"
	"github.com/jogardn/fooddash/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

type Config struct {
	PlatformFee decimal.Decimal
	OrderETA    time.Duration
}

type Service struct {
	repo      Repository
	publisher events.Publisher
	config    Config
	now       func() time.Time
	newID     func() string
	logger    *logrus.Logger
}

func NewService(repo Repository, publisher events.Publisher, config Config, logger *logrus.Logger) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		config:    config,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     func() string { return uuid.New().String() },
		logger:    logger,
	}
}

func validateCreate(req models.CreateOrderRequest) error {
	switch {
	case strings.TrimSpace(req.CustomerPhone) == "":
		return fmt.Errorf("%w: customerPhone is required", ErrInvalidOrder)
	case strings.TrimSpace(req.RestaurantID) == "":
		return fmt.Errorf("%w: restaurantId is required", ErrInvalidOrder)
	case len(req.Items) == 0:
		return fmt.Errorf("%w: at least one item is required", ErrInvalidOrder)
	case req.DeliveryFee < 0:
		return fmt.Errorf("%w: deliveryFee cannot be negative", ErrInvalidOrder)
	}
	for i, item := range req.Items {
		switch {
		case item.ItemID == "":
			return fmt.Errorf("%w: item %d has no itemId", ErrInvalidOrder, i)
		case item.Quantity < 1:
			return fmt.Errorf("%w: item %s has quantity %d", ErrInvalidOrder, item.ItemID, item.Quantity)
		case item.Price < 0:
			return fmt.Errorf("%w: item %s has a negative price", ErrInvalidOrder, item.ItemID)
		}
	}
	return nil
}

// CreateOrder stores a new order with server-computed totals. created is
// false when idempotencyKey matched an existing order, which is returned
// unchanged. A key that names an order for another customer or another item
// set fails with ErrIdempotencyMismatch.
func (s *Service) CreateOrder(ctx context.Context, req models.CreateOrderRequest, idempotencyKey string) (*Order, bool, error) {
	if err := validateCreate(req); err != nil {
		return nil, false, err
	}

	now := s.now()
	order := &Order{
		ID:              s.newID(),
		CustomerPhone:   strings.TrimSpace(req.CustomerPhone),
		RestaurantID:    req.RestaurantID,
		RestaurantName:  req.RestaurantName,
		RestaurantImage: req.RestaurantImage,
		DeliveryFee:     models.Money(req.DeliveryFee),
		PlatformFee:     s.config.PlatformFee,
		Status:          models.RemotePending,
		DeliveryAddress: req.DeliveryAddress,
		IdempotencyKey:  idempotencyKey,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	order.EstimatedDeliveryAt = now.Add(s.config.OrderETA)
	if req.RiderID != nil {
		order.RiderID = *req.RiderID
	}

	foodTotal := decimal.Zero
	for _, item := range req.Items {
		price := models.Money(item.Price)
		order.Items = append(order.Items, Item{ItemID: item.ItemID, Name: item.Name, Quantity: item.Quantity, Price: price})
		foodTotal = foodTotal.Add(price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	order.FoodTotal = foodTotal
	order.GrandTotal = foodTotal.Add(order.DeliveryFee).Add(order.PlatformFee)

	logger := s.logger.WithFields(logrus.Fields{
		"order_id":        order.ID,
		"customer_id":     order.CustomerPhone,
		"restaurant_id":   order.RestaurantID,
		"idempotency_key": idempotencyKey,
	})
	if claimed := models.Money(req.FoodTotal); !claimed.Equal(foodTotal) {
		logger.WithFields(logrus.Fields{
			"claimed_food_total":  claimed.String(),
			"computed_food_total": foodTotal.String(),
		}).Warn("Client food total does not match items")
	}

	stored, created, err := s.repo.Create(ctx, order)
	if err != nil {
		return nil, false, fmt.Errorf("failed to save order: %w", err)
	}
	if !created {
		if !stored.sameRequest(order) {
			logger.WithField("existing_order_id", stored.ID).Warn("Idempotency key reused for a different order")
			return nil, false, fmt.Errorf("%w: key %s", ErrIdempotencyMismatch, idempotencyKey)
		}
		logger.WithField("existing_order_id", stored.ID).Info("Idempotent replay of order creation")
		return stored, false, nil
	}

	event := events.OrderCreatedEvent{
		OrderID:      stored.ID,
		CustomerID:   stored.CustomerPhone,
		RestaurantID: stored.RestaurantID,
		ItemCount:    len(stored.Items),
		GrandTotal:   models.WireAmount(stored.GrandTotal),
		CreatedAt:    stored.CreatedAt,
	}
	if err := s.publisher.PublishOrderCreated(event); err != nil {
		logger.WithError(err).Error("Failed to publish order created event")
	}

	logger.WithField("grand_total", stored.GrandTotal.String()).Info("Order created successfully")
	return stored, true, nil
}

func (s *Service) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	return s.repo.Get(ctx, orderID)
}

func (s *Service) ListOrders(ctx context.Context, filter Filter) ([]*Order, error) {
	if filter.Limit <= 0 {
		filter.Limit = DefaultListLimit
	}
	if filter.Limit > MaxListLimit {
		filter.Limit = MaxListLimit
	}
	return s.repo.List(ctx, filter)
}

// UpdateStatus advances an order. Stages only move forward, CANCELLED is
// allowed from any non-terminal stage, and a concurrent change between the
// read and the write is reported as ErrConflict.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, req models.UpdateStatusRequest) (*Order, error) {
	to, ok := status.ParseRemote(req.Status)
	if !ok {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidOrder, req.Status)
	}

	current, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !status.CanTransition(current.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, to)
	}

	now := s.now()
	if err := s.repo.UpdateStatus(ctx, orderID, current.Status, to, req.RiderID, now); err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, fmt.Errorf("%w: %s", ErrConflict, orderID)
		}
		return nil, err
	}

	event := events.OrderStatusChangedEvent{
		OrderID:    orderID,
		CustomerID: current.CustomerPhone,
		FromStatus: string(current.Status),
		ToStatus:   string(to),
		RiderID:    req.RiderID,
		ChangedAt:  now,
	}
	if err := s.publisher.PublishOrderStatusChanged(event); err != nil {
		s.logger.WithError(err).WithField("order_id", orderID).Error("Failed to publish status changed event")
	}

	s.logger.WithFields(logrus.Fields{
		"order_id":    orderID,
		"from_status": current.Status,
		"to_status":   to,
		"rider_id":    req.RiderID,
	}).Info("Order status updated")

	updated := *current
	updated.Status = to
	updated.UpdatedAt = now
	if req.RiderID != "" {
		updated.RiderID = req.RiderID
	}
	return &updated, nil
}

func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
