package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jogardn/fooddash/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v), rec.Body.String())
}

func TestHealthIsPublic(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status   string `json:"status"`
		Breakers []struct {
			Name  string `json:"name"`
			State string `json:"state"`
		} `json:"breakers"`
	}
	decode(t, rec, &body)
	assert.Equal(t, "healthy", body.Status)
	require.Len(t, body.Breakers, 1)
	assert.Equal(t, "order-store", body.Breakers[0].Name)
}

func TestRequestsWithoutIdentityAreRejected(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListRestaurants(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/restaurants", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var all restaurantList
	decode(t, rec, &all)
	require.Equal(t, 2, all.Total)
	assert.Equal(t, "r1", all.Restaurants[0].ID, "best rated first")

	rec = env.do(t, http.MethodGet, "/restaurants?search=ITALIAN", "")
	var filtered restaurantList
	decode(t, rec, &filtered)
	require.Equal(t, 1, filtered.Total)
	assert.Equal(t, "Pizza Hub", filtered.Restaurants[0].Name)

	env.catalog.err = errors.New("connection refused")
	rec = env.do(t, http.MethodGet, "/restaurants", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var empty restaurantList
	decode(t, rec, &empty)
	assert.Zero(t, empty.Total)
	assert.NotNil(t, empty.Restaurants)
}

func TestRestaurantAndMenu(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/restaurants/r1", "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/restaurants/nope", "").Code)

	rec := env.do(t, http.MethodGet, "/restaurants/r1/menu", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var menu menuList
	decode(t, rec, &menu)
	assert.Equal(t, 3, menu.Total)

	env.catalog.err = errors.New("connection refused")
	assert.Equal(t, http.StatusBadGateway, env.do(t, http.MethodGet, "/restaurants/r1", "").Code)
}

func TestCartLifecycle(t *testing.T) {
	env := newTestEnv(t)

	env.do(t, http.MethodPost, "/cart/items", `{"restaurantId":"r1","menuItemId":"m1"}`)
	env.do(t, http.MethodPost, "/cart/items", `{"restaurantId":"r1","menuItemId":"m1"}`)
	rec := env.do(t, http.MethodPost, "/cart/items", `{"restaurantId":"r1","menuItemId":"m2"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var view cartView
	decode(t, rec, &view)
	assert.Equal(t, 3, view.ItemCount)
	assert.True(t, view.Subtotal.Equal(decimal.NewFromInt(510)))
	assert.True(t, view.DeliveryFee.Equal(decimal.NewFromInt(30)))
	assert.True(t, view.Total.Equal(decimal.NewFromInt(540)))
	assert.True(t, view.MeetsMinimum)

	assert.Equal(t, http.StatusConflict, env.do(t, http.MethodPost, "/cart/items", `{"restaurantId":"r1","menuItemId":"m3"}`).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, "/cart/items", `{"restaurantId":"r1","menuItemId":"zz"}`).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/cart/items", `{"restaurantId":"r1"}`).Code)

	rec = env.do(t, http.MethodDelete, "/cart/items/m1", "")
	var afterRemove cartView
	decode(t, rec, &afterRemove)
	assert.Equal(t, 2, afterRemove.ItemCount)

	rec = env.do(t, http.MethodDelete, "/cart", "")
	var cleared cartView
	decode(t, rec, &cleared)
	assert.Zero(t, cleared.ItemCount)
	assert.NotNil(t, cleared.Lines)
	assert.Nil(t, cleared.Restaurant)
}

func TestCartSwitchesRestaurant(t *testing.T) {
	env := newTestEnv(t)

	env.do(t, http.MethodPost, "/cart/items", `{"restaurantId":"r1","menuItemId":"m1"}`)
	rec := env.do(t, http.MethodPost, "/cart/items", `{"restaurantId":"r2","menuItemId":"p1"}`)

	var view cartView
	decode(t, rec, &view)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, "p1", view.Lines[0].MenuItem.ID)
	require.NotNil(t, view.Restaurant)
	assert.Equal(t, "r2", view.Restaurant.ID)
}

func TestCheckout(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/cart/items", `{"restaurantId":"r1","menuItemId":"m1"}`)

	rec := env.do(t, http.MethodPost, "/checkout", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code, "no address yet")

	env.addAddress(t)
	rec = env.do(t, http.MethodPost, "/checkout", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var order models.Order
	decode(t, rec, &order)
	assert.Equal(t, "ord-1", order.ID)
	assert.Equal(t, models.StatusPlaced, order.Status)
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromInt(215)))
	require.NotNil(t, order.DeliveryAddress)
	assert.Equal(t, "12 MG Road", order.DeliveryAddress.Address)

	var view cartView
	decode(t, env.do(t, http.MethodGet, "/cart", ""), &view)
	assert.Zero(t, view.ItemCount)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/checkout", "").Code, "empty cart")
}

func TestCheckoutFailureKeepsCart(t *testing.T) {
	env := newTestEnv(t)
	env.addAddress(t)
	env.do(t, http.MethodPost, "/cart/items", `{"restaurantId":"r1","menuItemId":"m1"}`)

	env.store.err = errors.New("connection refused")
	rec := env.do(t, http.MethodPost, "/checkout", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var view cartView
	decode(t, env.do(t, http.MethodGet, "/cart", ""), &view)
	assert.Equal(t, 1, view.ItemCount)

	env.store.err = nil
	assert.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/checkout", "").Code)
}

func TestOrdersTrackingAndReorder(t *testing.T) {
	env := newTestEnv(t)
	env.addAddress(t)
	env.do(t, http.MethodPost, "/cart/items", `{"restaurantId":"r1","menuItemId":"m1"}`)
	env.do(t, http.MethodPost, "/cart/items", `{"restaurantId":"r1","menuItemId":"m2"}`)
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/checkout", "").Code)

	var list orderList
	decode(t, env.do(t, http.MethodGet, "/orders", ""), &list)
	require.Equal(t, 1, list.Total)
	assert.Equal(t, "Spice Garden", list.Orders[0].RestaurantName)

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/orders/ord-1", "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/orders/ord-9", "").Code)

	env.catalog.menus["r1"][1].IsAvailable = false
	rec := env.do(t, http.MethodPost, "/orders/ord-1/reorder", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result struct {
		Added   []string `json:"added"`
		Skipped []string `json:"skipped"`
		Cart    cartView `json:"cart"`
	}
	decode(t, rec, &result)
	assert.Equal(t, []string{"m1"}, result.Added)
	assert.Equal(t, []string{"m2"}, result.Skipped)
	assert.Equal(t, 1, result.Cart.ItemCount)

	delete(env.catalog.restaurants, "r1")
	assert.Equal(t, http.StatusConflict, env.do(t, http.MethodPost, "/orders/ord-1/reorder", "").Code)
}

func TestOrderQR(t *testing.T) {
	env := newTestEnv(t)
	env.addAddress(t)
	env.do(t, http.MethodPost, "/cart/items", `{"restaurantId":"r1","menuItemId":"m1"}`)
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/checkout", "").Code)

	rec := env.do(t, http.MethodGet, "/orders/ord-1/qr", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "\x89PNGord-1", rec.Body.String())

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/orders/ord-2/qr", "").Code)
}

func TestOrderStoreOutageServesCache(t *testing.T) {
	env := newTestEnv(t)
	env.addAddress(t)
	env.do(t, http.MethodPost, "/cart/items", `{"restaurantId":"r1","menuItemId":"m1"}`)
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/checkout", "").Code)

	env.store.err = errors.New("connection refused")
	var list orderList
	decode(t, env.do(t, http.MethodGet, "/orders", ""), &list)
	assert.Equal(t, 1, list.Total)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/orders/ord-1", "").Code)
	assert.Equal(t, http.StatusBadGateway, env.do(t, http.MethodGet, "/orders/ord-7", "").Code)
}

func TestAddressBook(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/addresses/selected", "").Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/addresses", `{"type":"Home","address":"  "}`).Code)

	env.addAddress(t)
	rec := env.do(t, http.MethodPost, "/addresses", `{"type":"Work","address":"Tech Park","coordinates":{"lat":12.9,"lng":77.6}}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var list addressList
	decode(t, env.do(t, http.MethodGet, "/addresses", ""), &list)
	require.Equal(t, 2, list.Total)
	assert.Equal(t, "addr-1", list.SelectedID, "first address is selected automatically")

	require.Equal(t, http.StatusOK, env.do(t, http.MethodPut, "/addresses/addr-2/select", "").Code)
	var selected models.Address
	decode(t, env.do(t, http.MethodGet, "/addresses/selected", ""), &selected)
	assert.Equal(t, "addr-2", selected.ID)

	rec = env.do(t, http.MethodPut, "/addresses/addr-2", `{"landmark":"Gate 3"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var updated models.Address
	decode(t, rec, &updated)
	assert.Equal(t, "Gate 3", updated.Landmark)

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPut, "/addresses/addr-9", `{"landmark":"x"}`).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPut, "/addresses/addr-9/select", "").Code)

	require.Equal(t, http.StatusOK, env.do(t, http.MethodDelete, "/addresses/addr-2", "").Code)
	decode(t, env.do(t, http.MethodGet, "/addresses/selected", ""), &selected)
	assert.Equal(t, "addr-1", selected.ID)
}

func TestMetricsExposeCartMutations(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/cart/items", `{"restaurantId":"r1","menuItemId":"m1"}`)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `fooddash_cart_mutations_total{mutation="add"} 1`)
	assert.Contains(t, rec.Body.String(), `handler="POST /cart/items"`)
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/cart", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

