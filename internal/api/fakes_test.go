package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jogardn/fooddash/internal/addresses"
	"github.com/jogardn/fooddash/internal/catalog"
	"github.com/jogardn/fooddash/internal/circuitbreaker"
	"github.com/jogardn/fooddash/internal/identity"
	"github.com/jogardn/fooddash/internal/localcache"
	"github.com/jogardn/fooddash/internal/metrics"
	"github.com/jogardn/fooddash/internal/orders"
	"github.com/jogardn/fooddash/internal/session"
	"github.com/jogardn/fooddash/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

const customer = "9876543210"

type fakeCatalog struct {
	mutex       sync.Mutex
	restaurants map[string]models.Restaurant
	menus       map[string][]models.MenuItem
	err         error
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		restaurants: map[string]models.Restaurant{
			"r1": {ID: "r1", Name: "Spice Garden", Cuisine: []string{"North Indian"}, Rating: 4.5,
				DeliveryFee: decimal.NewFromInt(30), MinOrder: decimal.NewFromInt(200)},
			"r2": {ID: "r2", Name: "Pizza Hub", Cuisine: []string{"Italian"}, Rating: 4.1,
				DeliveryFee: decimal.NewFromInt(40)},
		},
		menus: map[string][]models.MenuItem{
			"r1": {
				{ID: "m1", RestaurantID: "r1", Name: "Paneer Tikka", Price: decimal.NewFromInt(180), IsAvailable: true},
				{ID: "m2", RestaurantID: "r1", Name: "Dal Makhani", Price: decimal.NewFromInt(150), IsAvailable: true},
				{ID: "m3", RestaurantID: "r1", Name: "Seasonal Special", Price: decimal.NewFromInt(220), IsAvailable: false},
			},
			"r2": {
				{ID: "p1", RestaurantID: "r2", Name: "Margherita", Price: decimal.NewFromInt(250), IsAvailable: true},
			},
		},
	}
}

func (c *fakeCatalog) ListRestaurants(ctx context.Context) ([]models.Restaurant, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	var out []models.Restaurant
	for _, r := range c.restaurants {
		out = append(out, r)
	}
	return out, nil
}

func (c *fakeCatalog) GetRestaurant(ctx context.Context, id string) (*models.Restaurant, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	r, ok := c.restaurants[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", catalog.ErrNotFound, id)
	}
	return &r, nil
}

func (c *fakeCatalog) GetMenuItems(ctx context.Context, id string) ([]models.MenuItem, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	items, ok := c.menus[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", catalog.ErrNotFound, id)
	}
	return append([]models.MenuItem(nil), items...), nil
}

func (c *fakeCatalog) GetMenuItem(ctx context.Context, restaurantID, itemID string) (*models.MenuItem, error) {
	items, err := c.GetMenuItems(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if item.ID == itemID {
			return &item, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", catalog.ErrNotFound, itemID)
}

type fakeOrderStore struct {
	mutex  sync.Mutex
	orders map[string]models.APIOrder
	keys   map[string]string
	order  []string
	err    error
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{orders: map[string]models.APIOrder{}, keys: map[string]string{}}
}

func (s *fakeOrderStore) CreateOrder(ctx context.Context, req models.CreateOrderRequest, key string) (*models.APIOrder, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if id, ok := s.keys[key]; ok {
		o := s.orders[id]
		return &o, nil
	}
	id := fmt.Sprintf("ord-%d", len(s.orders)+1)
	o := models.APIOrder{
		OrderID:       id,
		CustomerPhone: req.CustomerPhone,
		RestaurantID:  req.RestaurantID,
		Items:         req.Items,
		FoodTotal:     req.FoodTotal,
		DeliveryFee:   req.DeliveryFee,
		PlatformFee:   5,
		GrandTotal:    req.FoodTotal + req.DeliveryFee + 5,
		Status:        "PENDING",
		CreatedAt:     time.Now().UnixMilli() + int64(len(s.orders)),
	}
	s.orders[id] = o
	s.keys[key] = id
	s.order = append(s.order, id)
	return &o, nil
}

func (s *fakeOrderStore) GetOrder(ctx context.Context, id string) (*models.APIOrder, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	o, ok := s.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", orders.ErrNotFound, id)
	}
	return &o, nil
}

func (s *fakeOrderStore) ListOrders(ctx context.Context, filter orders.ListFilter) ([]models.APIOrder, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	var out []models.APIOrder
	for _, id := range s.order {
		if o := s.orders[id]; o.CustomerPhone == filter.CustomerPhone {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *fakeOrderStore) UpdateOrderStatus(ctx context.Context, id string, req models.UpdateStatusRequest) (*models.APIOrder, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, orders.ErrNotFound
	}
	o.Status = req.Status
	s.orders[id] = o
	return &o, nil
}

type fakeAddressStore struct {
	mutex sync.Mutex
	byID  map[string][]models.Address
	seq   int
}

func newFakeAddressStore() *fakeAddressStore {
	return &fakeAddressStore{byID: map[string][]models.Address{}}
}

func (s *fakeAddressStore) List(ctx context.Context, phone string) ([]models.Address, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return append([]models.Address(nil), s.byID[phone]...), nil
}

func (s *fakeAddressStore) Create(ctx context.Context, phone string, f addresses.Fields) (*models.Address, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.seq++
	a := models.Address{
		ID:          fmt.Sprintf("addr-%d", s.seq),
		Type:        f.Type,
		Nickname:    f.Nickname,
		Address:     f.Address,
		Landmark:    f.Landmark,
		Coordinates: f.Coordinates,
	}
	s.byID[phone] = append(s.byID[phone], a)
	return &a, nil
}

func (s *fakeAddressStore) Update(ctx context.Context, phone, id string, u addresses.Update) (*models.Address, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for i, a := range s.byID[phone] {
		if a.ID != id {
			continue
		}
		if u.Address != nil {
			a.Address = *u.Address
		}
		if u.Landmark != nil {
			a.Landmark = *u.Landmark
		}
		s.byID[phone][i] = a
		return &a, nil
	}
	return nil, fmt.Errorf("%w: %s", addresses.ErrNotFound, id)
}

func (s *fakeAddressStore) Delete(ctx context.Context, phone, id string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	list := s.byID[phone]
	for i, a := range list {
		if a.ID == id {
			s.byID[phone] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", addresses.ErrNotFound, id)
}

type stubQR struct{}

func (stubQR) Generate(orderID string) ([]byte, error) {
	return []byte("\x89PNG" + orderID), nil
}

type testEnv struct {
	handler  http.Handler
	catalog  *fakeCatalog
	store    *fakeOrderStore
	addrs    *fakeAddressStore
	sessions *session.Manager
	metrics  *metrics.ServerMetrics
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cat := newFakeCatalog()
	store := newFakeOrderStore()
	addrStore := newFakeAddressStore()
	cache := localcache.NewMemory()
	history := orders.NewHistory(cache, logger)
	sessions := session.NewManager(logger)
	serverMetrics := metrics.NewServerMetrics("bff")
	orderMetrics := metrics.NewOrderMetrics(serverMetrics.Registry)
	breakers := circuitbreaker.NewManager(circuitbreaker.Config{}, logger)
	breakers.Breaker("order-store", nil)

	server := NewServer(Deps{
		Catalog:      cat,
		Addresses:    addresses.NewBook(addrStore, cache, logger),
		Submitter:    orders.NewSubmitter(store, history, cat, logger, orders.WithMetrics(orderMetrics)),
		Tracker:      orders.NewTracker(store, history, cat, orderMetrics, logger),
		Sessions:     sessions,
		Breakers:     breakers,
		Identity:     identity.HeaderProvider{},
		Metrics:      serverMetrics,
		OrderMetrics: orderMetrics,
		QR:           stubQR{},
		CORSOrigins:  []string{"*"},
	}, logger)

	return &testEnv{
		handler:  server.Handler(),
		catalog:  cat,
		store:    store,
		addrs:    addrStore,
		sessions: sessions,
		metrics:  serverMetrics,
	}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(identity.CustomerHeader, customer)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) addAddress(t *testing.T) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/addresses", `{"type":"Home","address":"12 MG Road","coordinates":{"lat":12.97,"lng":77.59}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}
