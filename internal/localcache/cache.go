// Package localcache persists the small amount of per-customer state the
// BFF keeps across sessions: the selected address id and the cached order
// list. A missing entry is reported as empty, never as an error.
package localcache

import (
	"context"
	"sync"

	"github.com/jogardn/fooddash/pkg/models"
)

type Cache interface {
	SelectedAddress(ctx context.Context, customerID string) (string, error)
	SetSelectedAddress(ctx context.Context, customerID, addressID string) error
	ClearSelectedAddress(ctx context.Context, customerID string) error
	Orders(ctx context.Context, customerID string) ([]models.Order, error)
	SetOrders(ctx context.Context, customerID string, orders []models.Order) error
}

// Memory is an in-process Cache used when no Redis is configured.
type Memory struct {
	mutex     sync.RWMutex
	addresses map[string]string
	orders    map[string][]models.Order
}

func NewMemory() *Memory {
	return &Memory{
		addresses: make(map[string]string),
		orders:    make(map[string][]models.Order),
	}
}

func (m *Memory) SelectedAddress(_ context.Context, customerID string) (string, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.addresses[customerID], nil
}

func (m *Memory) SetSelectedAddress(_ context.Context, customerID, addressID string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.addresses[customerID] = addressID
	return nil
}

func (m *Memory) ClearSelectedAddress(_ context.Context, customerID string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.addresses, customerID)
	return nil
}

func (m *Memory) Orders(_ context.Context, customerID string) ([]models.Order, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return append([]models.Order(nil), m.orders[customerID]...), nil
}

func (m *Memory) SetOrders(_ context.Context, customerID string, orders []models.Order) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.orders[customerID] = append([]models.Order(nil), orders...)
	return nil
}

var (
	_ Cache = (*Memory)(nil)
	_ Cache = (*Redis)(nil)
)
