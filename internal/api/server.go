// Package api is the BFF HTTP surface: catalog browsing, the session cart,
// checkout, order tracking and the address book for one customer per
// request.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/jogardn/fooddash/internal/addresses"
	"github.com/jogardn/fooddash/internal/cart"
	"github.com/jogardn/fooddash/internal/circuitbreaker"
	"github.com/jogardn/fooddash/internal/httpserver"
	"github.com/jogardn/fooddash/internal/identity"
	"github.com/jogardn/fooddash/internal/metrics"
	"github.com/jogardn/fooddash/internal/orders"
	"github.com/jogardn/fooddash/internal/session"
	"github.com/jogardn/fooddash/pkg/models"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

// Catalog is the read side of the restaurant catalog the BFF needs.
type Catalog interface {
	ListRestaurants(ctx context.Context) ([]models.Restaurant, error)
	GetRestaurant(ctx context.Context, restaurantID string) (*models.Restaurant, error)
	GetMenuItems(ctx context.Context, restaurantID string) ([]models.MenuItem, error)
	GetMenuItem(ctx context.Context, restaurantID, itemID string) (*models.MenuItem, error)
}

type Deps struct {
	Catalog      Catalog
	Addresses    *addresses.Book
	Submitter    *orders.Submitter
	Tracker      *orders.Tracker
	Sessions     *session.Manager
	Breakers     *circuitbreaker.Manager
	Identity     identity.Provider
	Metrics      *metrics.ServerMetrics
	OrderMetrics *metrics.OrderMetrics
	QR           QRGenerator
	CORSOrigins  []string
}

type Server struct {
	catalog   Catalog
	addresses *addresses.Book
	submitter *orders.Submitter
	tracker   *orders.Tracker
	sessions  *session.Manager
	breakers  *circuitbreaker.Manager
	identity  identity.Provider
	metrics   *metrics.ServerMetrics
	qr        QRGenerator
	origins   []string
	started   time.Time
	logger    *logrus.Logger
}

func NewServer(deps Deps, logger *logrus.Logger) *Server {
	if om := deps.OrderMetrics; om != nil {
		deps.Sessions.OnCartChange(func(_ string, mutation cart.Mutation) {
			om.CartMutation(mutation.String())
		})
	}
	return &Server{
		catalog:   deps.Catalog,
		addresses: deps.Addresses,
		submitter: deps.Submitter,
		tracker:   deps.Tracker,
		sessions:  deps.Sessions,
		breakers:  deps.Breakers,
		identity:  deps.Identity,
		metrics:   deps.Metrics,
		qr:        deps.QR,
		origins:   deps.CORSOrigins,
		started:   time.Now(),
		logger:    logger,
	}
}

// Handler returns the routed BFF with CORS, logging and metrics applied.
// Everything but /health and /metrics requires an identity.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.Use(httpserver.LoggingMiddleware(s.logger))
	if s.metrics != nil {
		router.Use(s.metrics.Middleware)
		router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}
	router.HandleFunc("/health", s.health).Methods(http.MethodGet)

	api := router.PathPrefix("/").Subrouter()
	api.Use(identity.Middleware(s.identity, s.logger))

	api.HandleFunc("/restaurants", s.listRestaurants).Methods(http.MethodGet)
	api.HandleFunc("/restaurants/{id}", s.getRestaurant).Methods(http.MethodGet)
	api.HandleFunc("/restaurants/{id}/menu", s.getMenu).Methods(http.MethodGet)

	api.HandleFunc("/cart", s.getCart).Methods(http.MethodGet)
	api.HandleFunc("/cart", s.clearCart).Methods(http.MethodDelete)
	api.HandleFunc("/cart/items", s.addCartItem).Methods(http.MethodPost)
	api.HandleFunc("/cart/items/{menuItemId}", s.removeCartItem).Methods(http.MethodDelete)
	api.HandleFunc("/checkout", s.checkout).Methods(http.MethodPost)

	api.HandleFunc("/orders", s.listOrders).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}", s.getOrder).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}/reorder", s.reorder).Methods(http.MethodPost)
	api.HandleFunc("/orders/{id}/qr", s.orderQR).Methods(http.MethodGet)

	api.HandleFunc("/addresses", s.listAddresses).Methods(http.MethodGet)
	api.HandleFunc("/addresses", s.createAddress).Methods(http.MethodPost)
	api.HandleFunc("/addresses/selected", s.selectedAddress).Methods(http.MethodGet)
	api.HandleFunc("/addresses/{id}", s.updateAddress).Methods(http.MethodPut)
	api.HandleFunc("/addresses/{id}", s.deleteAddress).Methods(http.MethodDelete)
	api.HandleFunc("/addresses/{id}/select", s.selectAddress).Methods(http.MethodPut)

	return cors.New(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", identity.CustomerHeader},
	}).Handler(router)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	var breakers []circuitbreaker.Stats
	if s.breakers != nil {
		breakers = s.breakers.Stats()
		if s.breakers.AnyOpen() {
			status = "degraded"
		}
	}
	httpserver.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status":   status,
		"service":  "bff",
		"sessions": s.sessions.Count(),
		"breakers": breakers,
		"uptime":   time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) session(r *http.Request) *session.Session {
	return s.sessions.GetOrCreate(identity.CustomerID(r.Context()))
}
