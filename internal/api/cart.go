package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/jogardn/fooddash/internal/cart"
	"github.com/jogardn/fooddash/internal/httpserver"
	"github.com/jogardn/fooddash/internal/session"
)

type cartView struct {
	cart.Snapshot
	MeetsMinimum bool `json:"meets_minimum"`
}

type addItemRequest struct {
	RestaurantID string `json:"restaurantId"`
	MenuItemID   string `json:"menuItemId"`
}

func viewOf(sess *session.Session) cartView {
	var view cartView
	sess.WithCart(func(c *cart.Cart) {
		view = cartView{Snapshot: c.Snapshot(), MeetsMinimum: c.MeetsMinimum()}
	})
	if view.Lines == nil {
		view.Lines = []cart.Line{}
	}
	return view
}

func (s *Server) getCart(w http.ResponseWriter, r *http.Request) {
	httpserver.RespondWithJSON(w, http.StatusOK, viewOf(s.session(r)))
}

// addCartItem resolves the item against the current catalog, so prices and
// availability are never taken from the client.
func (s *Server) addCartItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpserver.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.RestaurantID = strings.TrimSpace(req.RestaurantID)
	req.MenuItemID = strings.TrimSpace(req.MenuItemID)
	if req.RestaurantID == "" || req.MenuItemID == "" {
		httpserver.RespondWithError(w, http.StatusBadRequest, "restaurantId and menuItemId are required")
		return
	}

	restaurant, err := s.catalog.GetRestaurant(r.Context(), req.RestaurantID)
	if err != nil {
		s.respondWithCatalogError(w, err, "Restaurant not found")
		return
	}
	item, err := s.catalog.GetMenuItem(r.Context(), req.RestaurantID, req.MenuItemID)
	if err != nil {
		s.respondWithCatalogError(w, err, "Menu item not found")
		return
	}
	if !item.IsAvailable {
		httpserver.RespondWithError(w, http.StatusConflict, "Menu item is not available")
		return
	}

	sess := s.session(r)
	sess.WithCart(func(c *cart.Cart) { c.AddItem(*item, *restaurant) })
	httpserver.RespondWithJSON(w, http.StatusOK, viewOf(sess))
}

func (s *Server) removeCartItem(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r)
	menuItemID := mux.Vars(r)["menuItemId"]
	sess.WithCart(func(c *cart.Cart) { c.RemoveItem(menuItemID) })
	httpserver.RespondWithJSON(w, http.StatusOK, viewOf(sess))
}

func (s *Server) clearCart(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r)
	sess.WithCart(func(c *cart.Cart) { c.Clear() })
	httpserver.RespondWithJSON(w, http.StatusOK, viewOf(sess))
}

// checkout places the cart with the customer's selected address. The cart
// survives a failed submission so that the client can retry.
func (s *Server) checkout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := s.session(r)

	address := s.addresses.Selected(ctx, sess.CustomerID())
	if address == nil {
		httpserver.RespondWithError(w, http.StatusBadRequest, "No delivery address selected")
		return
	}

	order, err := s.submitter.Checkout(ctx, sess, address)
	if err != nil {
		s.respondWithOrderError(w, err)
		return
	}
	httpserver.RespondWithJSON(w, http.StatusCreated, order)
}
