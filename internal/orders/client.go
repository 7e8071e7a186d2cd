package orders

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jogardn/fooddash/internal/restapi"
	"github.com/jogardn/fooddash/pkg/models"
	"github.com/sirupsen/logrus"
)

const IdempotencyKeyHeader = "Idempotency-Key"

// Store is the remote order store contract.
type Store interface {
	CreateOrder(ctx context.Context, req models.CreateOrderRequest, idempotencyKey string) (*models.APIOrder, error)
	GetOrder(ctx context.Context, orderID string) (*models.APIOrder, error)
	ListOrders(ctx context.Context, filter ListFilter) ([]models.APIOrder, error)
	UpdateOrderStatus(ctx context.Context, orderID string, req models.UpdateStatusRequest) (*models.APIOrder, error)
}

type ListFilter struct {
	CustomerPhone string
	RestaurantID  string
	RiderID       string
	Limit         int
}

func (f ListFilter) query() string {
	q := url.Values{}
	if f.CustomerPhone != "" {
		q.Set("customerPhone", f.CustomerPhone)
	}
	if f.RestaurantID != "" {
		q.Set("restaurantId", f.RestaurantID)
	}
	if f.RiderID != "" {
		q.Set("riderId", f.RiderID)
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// StoreClient talks to the order store REST API.
type StoreClient struct {
	api    *restapi.Client
	logger *logrus.Logger
}

var _ Store = (*StoreClient)(nil)

func NewStoreClient(api *restapi.Client, logger *logrus.Logger) *StoreClient {
	return &StoreClient{api: api, logger: logger}
}

func (c *StoreClient) CreateOrder(ctx context.Context, req models.CreateOrderRequest, idempotencyKey string) (*models.APIOrder, error) {
	c.logger.WithFields(logrus.Fields{
		"customer_id":     req.CustomerPhone,
		"restaurant_id":   req.RestaurantID,
		"items_count":     len(req.Items),
		"idempotency_key": idempotencyKey,
	}).Info("Sending order to order store")

	header := http.Header{}
	if idempotencyKey != "" {
		header.Set(IdempotencyKeyHeader, idempotencyKey)
	}

	var order models.APIOrder
	status, err := c.api.Do(ctx, http.MethodPost, "/api/v1/orders", header, req, &order)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", mapError(err))
	}

	c.logger.WithFields(logrus.Fields{
		"order_id": order.OrderID,
		"status":   status,
		"replayed": status == http.StatusOK,
	}).Info("Received response from order store")

	return &order, nil
}

func (c *StoreClient) GetOrder(ctx context.Context, orderID string) (*models.APIOrder, error) {
	var order models.APIOrder
	if _, err := c.api.Do(ctx, http.MethodGet, "/api/v1/orders/"+url.PathEscape(orderID), nil, nil, &order); err != nil {
		return nil, fmt.Errorf("failed to fetch order %s: %w", orderID, mapError(err))
	}
	return &order, nil
}

func (c *StoreClient) ListOrders(ctx context.Context, filter ListFilter) ([]models.APIOrder, error) {
	var list models.APIOrderList
	if _, err := c.api.Do(ctx, http.MethodGet, "/api/v1/orders"+filter.query(), nil, nil, &list); err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", mapError(err))
	}

	c.logger.WithField("count", len(list.Orders)).Debug("Retrieved orders from order store")
	return list.Orders, nil
}

func (c *StoreClient) UpdateOrderStatus(ctx context.Context, orderID string, req models.UpdateStatusRequest) (*models.APIOrder, error) {
	var order models.APIOrder
	path := "/api/v1/orders/" + url.PathEscape(orderID) + "/status"
	if _, err := c.api.Do(ctx, http.MethodPut, path, nil, req, &order); err != nil {
		return nil, fmt.Errorf("failed to update order %s to %s: %w", orderID, req.Status, mapError(err))
	}
	return &order, nil
}

func mapError(err error) error {
	switch {
	case restapi.HasStatus(err, http.StatusNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case restapi.HasStatus(err, http.StatusConflict):
		return fmt.Errorf("%w: %w", ErrStatusConflict, err)
	default:
		return err
	}
}
