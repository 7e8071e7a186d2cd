package orders

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jogardn/fooddash/internal/cart"
	"github.com/jogardn/fooddash/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

var errUnavailable = errors.New("connection refused")

type fakeStore struct {
	mutex   sync.Mutex
	orders  map[string]models.APIOrder
	keys    map[string]string
	created []models.CreateOrderRequest
	usedKey []string
	err     error
	block   bool
	seq     int

	// When gate is set, CreateOrder signals entered and waits for gate to
	// close before answering.
	gate    chan struct{}
	entered chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{orders: make(map[string]models.APIOrder), keys: make(map[string]string)}
}

func (s *fakeStore) CreateOrder(ctx context.Context, req models.CreateOrderRequest, key string) (*models.APIOrder, error) {
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if s.gate != nil {
		s.entered <- struct{}{}
		select {
		case <-s.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.created = append(s.created, req)
	s.usedKey = append(s.usedKey, key)
	if s.err != nil {
		return nil, s.err
	}
	if id, ok := s.keys[key]; ok && key != "" {
		o := s.orders[id]
		return &o, nil
	}

	s.seq++
	order := models.APIOrder{
		OrderID:       fmt.Sprintf("ord-%d", s.seq),
		CustomerPhone: req.CustomerPhone,
		RestaurantID:  req.RestaurantID,
		Items:         req.Items,
		FoodTotal:     req.FoodTotal,
		DeliveryFee:   req.DeliveryFee,
		PlatformFee:   5,
		GrandTotal:    req.FoodTotal + req.DeliveryFee + 5,
		Status:        "PENDING",
		CreatedAt:     time.Date(2026, 10, 14, 12, s.seq, 0, 0, time.UTC).UnixMilli(),
	}
	s.orders[order.OrderID] = order
	s.keys[key] = order.OrderID
	return &order, nil
}

func (s *fakeStore) GetOrder(ctx context.Context, id string) (*models.APIOrder, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	o, ok := s.orders[id]
	if !ok {
		return nil, fmt.Errorf("failed to fetch order %s: %w", id, ErrNotFound)
	}
	return &o, nil
}

func (s *fakeStore) ListOrders(ctx context.Context, filter ListFilter) ([]models.APIOrder, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	var out []models.APIOrder
	for _, o := range s.orders {
		if o.CustomerPhone == filter.CustomerPhone {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *fakeStore) UpdateOrderStatus(ctx context.Context, id string, req models.UpdateStatusRequest) (*models.APIOrder, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	o.Status = req.Status
	s.orders[id] = o
	return &o, nil
}

func (s *fakeStore) setStatus(id, remote string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	o := s.orders[id]
	o.Status = remote
	s.orders[id] = o
}

type fakeCatalog struct {
	restaurants map[string]models.Restaurant
	menus       map[string][]models.MenuItem
	err         error
}

func (c *fakeCatalog) GetRestaurant(ctx context.Context, id string) (*models.Restaurant, error) {
	if c.err != nil {
		return nil, c.err
	}
	r, ok := c.restaurants[id]
	if !ok {
		return nil, errors.New("restaurant not found")
	}
	return &r, nil
}

func (c *fakeCatalog) GetMenuItems(ctx context.Context, id string) ([]models.MenuItem, error) {
	if c.err != nil {
		return nil, c.err
	}
	menu, ok := c.menus[id]
	if !ok {
		return nil, errors.New("menu not found")
	}
	return menu, nil
}

func spiceGarden() models.Restaurant {
	return models.Restaurant{
		ID:          "r1",
		Name:        "Spice Garden",
		Image:       "https://img/r1.jpg",
		Cuisine:     []string{"North Indian"},
		DeliveryFee: decimal.NewFromInt(30),
		MinOrder:    decimal.NewFromInt(100),
	}
}

func menuItem(id, name, price string, available bool) models.MenuItem {
	return models.MenuItem{
		ID:           id,
		RestaurantID: "r1",
		Name:         name,
		Description:  name + " description",
		Price:        decimal.RequireFromString(price),
		IsAvailable:  available,
	}
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		restaurants: map[string]models.Restaurant{"r1": spiceGarden()},
		menus: map[string][]models.MenuItem{
			"r1": {
				menuItem("A", "Paneer Tikka", "180", true),
				menuItem("B", "Dal Makhani", "150", true),
				menuItem("C", "Gulab Jamun", "60", false),
			},
		},
	}
}

func fillCart(c *cart.Cart) {
	r := spiceGarden()
	a := menuItem("A", "Paneer Tikka", "180", true)
	b := menuItem("B", "Dal Makhani", "150", true)
	c.AddItem(a, r)
	c.AddItem(a, r)
	c.AddItem(b, r)
}

func homeAddress() *models.Address {
	return &models.Address{
		ID:          "addr-1",
		Type:        models.AddressHome,
		Address:     "12 MG Road",
		Coordinates: models.Coordinates{Lat: 12.97, Lng: 77.59},
	}
}
