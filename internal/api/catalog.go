package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jogardn/fooddash/internal/catalog"
	"github.com/jogardn/fooddash/internal/httpserver"
	"github.com/jogardn/fooddash/pkg/models"
)

type restaurantList struct {
	Restaurants []models.Restaurant `json:"restaurants"`
	Total       int                 `json:"total"`
}

type menuList struct {
	RestaurantID string            `json:"restaurant_id"`
	Items        []models.MenuItem `json:"items"`
	Total        int               `json:"total"`
}

// listRestaurants never fails: an unreachable catalog yields an empty list.
func (s *Server) listRestaurants(w http.ResponseWriter, r *http.Request) {
	all, err := s.catalog.ListRestaurants(r.Context())
	if err != nil {
		s.logger.WithError(err).Warn("Catalog unavailable, returning no restaurants")
		all = nil
	}
	list := catalog.FilterRestaurants(all, r.URL.Query().Get("search"))
	httpserver.RespondWithJSON(w, http.StatusOK, restaurantList{Restaurants: list, Total: len(list)})
}

func (s *Server) getRestaurant(w http.ResponseWriter, r *http.Request) {
	restaurant, err := s.catalog.GetRestaurant(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.respondWithCatalogError(w, err, "Restaurant not found")
		return
	}
	httpserver.RespondWithJSON(w, http.StatusOK, restaurant)
}

func (s *Server) getMenu(w http.ResponseWriter, r *http.Request) {
	restaurantID := mux.Vars(r)["id"]
	items, err := s.catalog.GetMenuItems(r.Context(), restaurantID)
	if err != nil {
		s.respondWithCatalogError(w, err, "Restaurant not found")
		return
	}
	if items == nil {
		items = []models.MenuItem{}
	}
	httpserver.RespondWithJSON(w, http.StatusOK, menuList{RestaurantID: restaurantID, Items: items, Total: len(items)})
}

func (s *Server) respondWithCatalogError(w http.ResponseWriter, err error, notFound string) {
	if errors.Is(err, catalog.ErrNotFound) {
		httpserver.RespondWithError(w, http.StatusNotFound, notFound)
		return
	}
	s.logger.WithError(err).Error("Catalog request failed")
	httpserver.RespondWithError(w, http.StatusBadGateway, "Catalog unavailable")
}
