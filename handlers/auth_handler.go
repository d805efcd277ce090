package handlers

import (
	"encoding/json"
	"net/http"

	"go-meet/middleware"
	"go-meet/models"
	"go-meet/services"
	"go-meet/utils/errors"
)

type AuthHandler struct {
	authService *services.AuthService
}

type LoginResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input struct {
		IDToken string `json:"id_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.IDToken == "" {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}

	token, user, err := h.authService.Login(r.Context(), input.IDToken)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(LoginResponse{Token: token, User: user})
}
