package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jogardn/fooddash/internal/addresses"
	"github.com/jogardn/fooddash/internal/httpserver"
	"github.com/jogardn/fooddash/internal/identity"
	"github.com/jogardn/fooddash/pkg/models"
)

type addressList struct {
	Addresses  []models.Address `json:"addresses"`
	Total      int              `json:"total"`
	SelectedID string           `json:"selected_id,omitempty"`
}

func (s *Server) listAddresses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := identity.CustomerID(ctx)

	list := s.addresses.List(ctx, userID)
	if list == nil {
		list = []models.Address{}
	}
	resp := addressList{Addresses: list, Total: len(list)}
	if selected := s.addresses.Selected(ctx, userID); selected != nil {
		resp.SelectedID = selected.ID
	}
	httpserver.RespondWithJSON(w, http.StatusOK, resp)
}

func (s *Server) createAddress(w http.ResponseWriter, r *http.Request) {
	var fields addresses.Fields
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		httpserver.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	address, err := s.addresses.Add(r.Context(), identity.CustomerID(r.Context()), fields)
	if err != nil {
		s.respondWithAddressError(w, err)
		return
	}
	httpserver.RespondWithJSON(w, http.StatusCreated, address)
}

func (s *Server) selectedAddress(w http.ResponseWriter, r *http.Request) {
	address := s.addresses.Selected(r.Context(), identity.CustomerID(r.Context()))
	if address == nil {
		httpserver.RespondWithError(w, http.StatusNotFound, "No address saved")
		return
	}
	httpserver.RespondWithJSON(w, http.StatusOK, address)
}

func (s *Server) updateAddress(w http.ResponseWriter, r *http.Request) {
	var update addresses.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		httpserver.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	address, err := s.addresses.Update(r.Context(), identity.CustomerID(r.Context()), mux.Vars(r)["id"], update)
	if err != nil {
		s.respondWithAddressError(w, err)
		return
	}
	httpserver.RespondWithJSON(w, http.StatusOK, address)
}

func (s *Server) deleteAddress(w http.ResponseWriter, r *http.Request) {
	if err := s.addresses.Delete(r.Context(), identity.CustomerID(r.Context()), mux.Vars(r)["id"]); err != nil {
		s.respondWithAddressError(w, err)
		return
	}
	httpserver.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (s *Server) selectAddress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := identity.CustomerID(ctx)
	if err := s.addresses.Select(ctx, userID, mux.Vars(r)["id"]); err != nil {
		s.respondWithAddressError(w, err)
		return
	}
	httpserver.RespondWithJSON(w, http.StatusOK, s.addresses.Selected(ctx, userID))
}

func (s *Server) respondWithAddressError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, addresses.ErrInvalidAddress):
		httpserver.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, addresses.ErrNotFound):
		httpserver.RespondWithError(w, http.StatusNotFound, "Address not found")
	default:
		s.logger.WithError(err).Error("Address store request failed")
		httpserver.RespondWithError(w, http.StatusBadGateway, "Address store unavailable")
	}
}
