package localcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jogardn/fooddash/pkg/models"
	"github.com/redis/go-redis/v9"
)

type Redis struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{Client: client, TTL: ttl}
}

func (c *Redis) selectedAddressKey(customerID string) string {
	return "fooddash:" + customerID + ":selected_address"
}

func (c *Redis) ordersKey(customerID string) string {
	return "fooddash:" + customerID + ":orders"
}

func (c *Redis) SelectedAddress(ctx context.Context, customerID string) (string, error) {
	id, err := c.Client.Get(ctx, c.selectedAddressKey(customerID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read selected address: %w", err)
	}
	return id, nil
}

func (c *Redis) SetSelectedAddress(ctx context.Context, customerID, addressID string) error {
	return c.Client.Set(ctx, c.selectedAddressKey(customerID), addressID, c.TTL).Err()
}

func (c *Redis) ClearSelectedAddress(ctx context.Context, customerID string) error {
	return c.Client.Del(ctx, c.selectedAddressKey(customerID)).Err()
}

func (c *Redis) Orders(ctx context.Context, customerID string) ([]models.Order, error) {
	data, err := c.Client.Get(ctx, c.ordersKey(customerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached orders: %w", err)
	}

	var orders []models.Order
	if err := json.Unmarshal(data, &orders); err != nil {
		return nil, fmt.Errorf("failed to decode cached orders: %w", err)
	}
	return orders, nil
}

func (c *Redis) SetOrders(ctx context.Context, customerID string, orders []models.Order) error {
	data, err := json.Marshal(orders)
	if err != nil {
		return fmt.Errorf("failed to encode orders: %w", err)
	}
	return c.Client.Set(ctx, c.ordersKey(customerID), data, c.TTL).Err()
}
