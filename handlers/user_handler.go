package handlers

import (
	"encoding/json"
	"net/http"

	"go-meet/middleware"
	"go-meet/models"
	"go-meet/search"
	"go-meet/services"
	"go-meet/utils/errors"
)

type UserHandler struct {
	userService *services.UserService
}

type CandidatesResponse struct {
	Candidates []search.Hit `json:"candidates"`
	Count      int          `json:"count"`
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// currentUser returns the caller resolved by the session middleware.
func currentUser(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, errors.ErrUnauthenticated)
	}
	return user, ok
}

func (h *UserHandler) SyncPosition(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var input struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.Latitude == nil || input.Longitude == nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}

	updated, err := h.userService.SyncPosition(r.Context(), user, *input.Latitude, *input.Longitude)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"status": "success", "location": updated.Location})
}

func (h *UserHandler) Describe(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var input struct {
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}

	updated, err := h.userService.Describe(r.Context(), user, input.Description)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"status": "success", "description": updated.Description})
}

func (h *UserHandler) Candidates(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	hits, err := h.userService.Candidates(r.Context(), user)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(CandidatesResponse{Candidates: hits, Count: len(hits)})
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}
