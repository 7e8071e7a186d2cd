package orderstore

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/jogardn/fooddash/internal/httpserver"
	"github.com/jogardn/fooddash/pkg/models"
	"github.com/sirupsen/logrus"
)

const idempotencyKeyHeader = "Idempotency-Key"

type Handler struct {
	service *Service
	logger  *logrus.Logger
}

func NewHandler(service *Service, logger *logrus.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(router *mux.Router) {
	router.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/orders", h.CreateOrder).Methods(http.MethodPost)
	api.HandleFunc("/orders", h.ListOrders).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}", h.GetOrder).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}/status", h.UpdateStatus).Methods(http.MethodPut)
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req models.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WithError(err).Error("Failed to decode order request")
		httpserver.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, created, err := h.service.CreateOrder(r.Context(), req, r.Header.Get(idempotencyKeyHeader))
	if err != nil {
		h.respondWithServiceError(w, err, "Failed to save order")
		return
	}

	code := http.StatusCreated
	if !created {
		code = http.StatusOK
	}
	httpserver.RespondWithJSON(w, code, order.ToAPI())
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.GetOrder(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.respondWithServiceError(w, err, "Failed to get order")
		return
	}
	httpserver.RespondWithJSON(w, http.StatusOK, order.ToAPI())
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := Filter{
		CustomerPhone: q.Get("customerPhone"),
		RestaurantID:  q.Get("restaurantId"),
		RiderID:       q.Get("riderId"),
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			httpserver.RespondWithError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		filter.Limit = limit
	}

	orders, err := h.service.ListOrders(r.Context(), filter)
	if err != nil {
		h.respondWithServiceError(w, err, "Failed to get orders")
		return
	}

	list := models.APIOrderList{Orders: make([]models.APIOrder, 0, len(orders)), Total: len(orders)}
	for _, o := range orders {
		list.Orders = append(list.Orders, o.ToAPI())
	}
	httpserver.RespondWithJSON(w, http.StatusOK, list)
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpserver.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := h.service.UpdateStatus(r.Context(), mux.Vars(r)["id"], req)
	if err != nil {
		h.respondWithServiceError(w, err, "Failed to update order status")
		return
	}
	httpserver.RespondWithJSON(w, http.StatusOK, order.ToAPI())
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.service.Ping(ctx); err != nil {
		httpserver.RespondWithJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":  "unhealthy",
			"service": "order-store",
			"error":   "database connection failed",
		})
		return
	}

	httpserver.RespondWithJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "order-store",
	})
}

func (h *Handler) respondWithServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrInvalidOrder):
		httpserver.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		httpserver.RespondWithError(w, http.StatusNotFound, "Order not found")
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrConflict):
		httpserver.RespondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrIdempotencyMismatch):
		httpserver.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.logger.WithError(err).Error(fallback)
		httpserver.RespondWithError(w, http.StatusInternalServerError, fallback)
	}
}
