package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jogardn/fooddash/internal/cart"
	"github.com/jogardn/fooddash/internal/metrics"
	"github.com/jogardn/fooddash/internal/session"
	"github.com/jogardn/fooddash/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const DefaultSubmitTimeout = 15 * time.Second

// Catalog is the part of the menu catalog that checkout and reorder read.
type Catalog interface {
	GetRestaurant(ctx context.Context, restaurantID string) (*models.Restaurant, error)
	GetMenuItems(ctx context.Context, restaurantID string) ([]models.MenuItem, error)
}

type PlaceOrderRequest struct {
	CustomerID      string
	Lines           []cart.Line
	Restaurant      *models.Restaurant
	DeliveryAddress *models.Address
	Subtotal        decimal.Decimal
	DeliveryFee     decimal.Decimal
	IdempotencyKey  string
}

func (r PlaceOrderRequest) validate() error {
	switch {
	case r.CustomerID == "":
		return fmt.Errorf("%w: missing customer", ErrInvalidRequest)
	case len(r.Lines) == 0:
		return fmt.Errorf("%w: cart is empty", ErrInvalidRequest)
	case r.Restaurant == nil:
		return fmt.Errorf("%w: missing restaurant", ErrInvalidRequest)
	case r.DeliveryAddress == nil:
		return fmt.Errorf("%w: no delivery address selected", ErrInvalidRequest)
	}
	return nil
}

type Submitter struct {
	store   Store
	history *History
	catalog Catalog
	timeout time.Duration
	newKey  func() string
	metrics *metrics.OrderMetrics
	logger  *logrus.Logger
}

type SubmitterOption func(*Submitter)

func WithTimeout(d time.Duration) SubmitterOption {
	return func(s *Submitter) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithMetrics(m *metrics.OrderMetrics) SubmitterOption {
	return func(s *Submitter) { s.metrics = m }
}

// WithKeyGenerator overrides how checkout idempotency keys are minted.
func WithKeyGenerator(fn func() string) SubmitterOption {
	return func(s *Submitter) { s.newKey = fn }
}

func NewSubmitter(store Store, history *History, catalog Catalog, logger *logrus.Logger, opts ...SubmitterOption) *Submitter {
	s := &Submitter{
		store:   store,
		history: history,
		catalog: catalog,
		timeout: DefaultSubmitTimeout,
		newKey:  func() string { return uuid.New().String() },
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PlaceOrder submits a cart snapshot to the order store. Nothing is recorded
// locally unless the store accepts the order.
func (s *Submitter) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*models.Order, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	lines := toOrderLines(req.Lines)
	address := *req.DeliveryAddress
	restaurant := req.Restaurant.Clone()

	create := models.CreateOrderRequest{
		CustomerPhone:   req.CustomerID,
		RestaurantID:    restaurant.ID,
		RestaurantName:  restaurant.Name,
		RestaurantImage: restaurant.Image,
		FoodTotal:       models.WireAmount(req.Subtotal),
		DeliveryFee:     models.WireAmount(req.DeliveryFee),
		DeliveryAddress: &address,
	}
	for _, l := range lines {
		create.Items = append(create.Items, models.APIOrderItem{
			ItemID:   l.MenuItem.ID,
			Name:     l.MenuItem.Name,
			Quantity: l.Quantity,
			Price:    models.WireAmount(l.MenuItem.Price),
		})
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	logger := s.logger.WithFields(logrus.Fields{
		"customer_id":     req.CustomerID,
		"restaurant_id":   restaurant.ID,
		"idempotency_key": req.IdempotencyKey,
	})

	start := time.Now()
	remote, err := s.store.CreateOrder(ctx, create, req.IdempotencyKey)
	if err != nil {
		s.metrics.SubmissionFailed()
		logger.WithError(err).WithField("duration", time.Since(start).String()).Error("Order submission failed")
		return nil, &SubmissionError{Cause: err}
	}

	order := FromAPI(*remote)
	order.CustomerID = req.CustomerID
	order = mergeSnapshot(order, models.Order{
		RestaurantName:  restaurant.Name,
		RestaurantImage: restaurant.Image,
		Items:           lines,
		DeliveryAddress: &address,
	})

	s.history.Prepend(ctx, req.CustomerID, order)
	s.metrics.OrderPlaced()

	logger.WithFields(logrus.Fields{
		"order_id":     order.ID,
		"total_amount": order.TotalAmount.String(),
		"duration":     time.Since(start).String(),
	}).Info("Order placed")

	return &order, nil
}

// Checkout places the session cart as an order. The cart is cleared only
// after the store confirms the order; on failure it is left as it was and a
// retry reuses the same idempotency key unless the cart changed meanwhile.
func (s *Submitter) Checkout(ctx context.Context, sess *session.Session, address *models.Address) (*models.Order, error) {
	snap, key := sess.BeginCheckout(s.newKey)

	req := PlaceOrderRequest{
		CustomerID:      sess.CustomerID(),
		Lines:           snap.Lines,
		Restaurant:      snap.Restaurant,
		DeliveryAddress: address,
		Subtotal:        snap.Subtotal,
		DeliveryFee:     snap.DeliveryFee,
		IdempotencyKey:  key,
	}
	if snap.Restaurant != nil && s.catalog != nil {
		current, err := s.catalog.GetRestaurant(ctx, snap.Restaurant.ID)
		switch {
		case err == nil:
			req.DeliveryFee = current.DeliveryFee
		case errors.Is(ctx.Err(), context.Canceled):
			return nil, ctx.Err()
		default:
			s.logger.WithError(err).WithField("restaurant_id", snap.Restaurant.ID).
				Warn("Failed to refresh delivery fee, using cart value")
		}
	}

	order, err := s.PlaceOrder(ctx, req)
	if err != nil {
		return nil, err
	}

	sess.CompleteCheckout(key)
	return order, nil
}
