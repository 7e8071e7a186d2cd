package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jogardn/fooddash/internal/httpserver"
	"github.com/jogardn/fooddash/internal/identity"
	"github.com/jogardn/fooddash/internal/orders"
	"github.com/jogardn/fooddash/pkg/models"
)

type orderList struct {
	Orders []models.Order `json:"orders"`
	Total  int            `json:"total"`
}

type reorderResponse struct {
	*orders.ReorderResult
	Cart cartView `json:"cart"`
}

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	list := s.tracker.ListOrders(r.Context(), identity.CustomerID(r.Context()))
	if list == nil {
		list = []models.Order{}
	}
	httpserver.RespondWithJSON(w, http.StatusOK, orderList{Orders: list, Total: len(list)})
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	order, err := s.tracker.GetOrder(r.Context(), identity.CustomerID(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		s.respondWithOrderError(w, err)
		return
	}
	httpserver.RespondWithJSON(w, http.StatusOK, order)
}

func (s *Server) reorder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := s.session(r)

	order, err := s.tracker.GetOrder(ctx, sess.CustomerID(), mux.Vars(r)["id"])
	if err != nil {
		s.respondWithOrderError(w, err)
		return
	}

	result, err := s.tracker.Reorder(ctx, sess, *order)
	if err != nil {
		s.respondWithOrderError(w, err)
		return
	}
	httpserver.RespondWithJSON(w, http.StatusOK, reorderResponse{ReorderResult: result, Cart: viewOf(sess)})
}

func (s *Server) orderQR(w http.ResponseWriter, r *http.Request) {
	order, err := s.tracker.GetOrder(r.Context(), identity.CustomerID(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		s.respondWithOrderError(w, err)
		return
	}

	png, err := s.qr.Generate(order.ID)
	if err != nil {
		s.logger.WithError(err).WithField("order_id", order.ID).Error("Failed to generate QR code")
		httpserver.RespondWithError(w, http.StatusInternalServerError, "Failed to generate QR code")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

func (s *Server) respondWithOrderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, orders.ErrInvalidRequest):
		httpserver.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, orders.ErrNotFound):
		httpserver.RespondWithError(w, http.StatusNotFound, "Order not found")
	case errors.Is(err, orders.ErrReorderUnavailable):
		httpserver.RespondWithError(w, http.StatusConflict, "Restaurant or menu is no longer available")
	case errors.Is(err, orders.ErrOrderSubmissionFailed):
		s.logger.WithError(err).Error("Order submission failed")
		httpserver.RespondWithError(w, http.StatusBadGateway, "Order submission failed, please retry")
	default:
		s.logger.WithError(err).Error("Order store request failed")
		httpserver.RespondWithError(w, http.StatusBadGateway, "Order store unavailable")
	}
}
