package handlers

import (
	"encoding/json"
	"net/http"

	"go-meet/metrics"
	"go-meet/middleware"
	"go-meet/models"
	"go-meet/services"
	"go-meet/utils/errors"
)

type MatchHandler struct {
	matchService *services.MatchService
	geoService   *services.GeoService
}

type MeetResponse struct {
	POI models.POI `json:"poi"`
}

func NewMatchHandler(matchService *services.MatchService, geoService *services.GeoService) *MatchHandler {
	return &MatchHandler{matchService: matchService, geoService: geoService}
}

func (h *MatchHandler) Match(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var input struct {
		Operation         models.MatchOperation `json:"operation"`
		TargetUserID      string                `json:"target_user_id"`
		TargetUserName    string                `json:"target_user_name"`
		TargetDescription string                `json:"target_description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}

	err := h.matchService.Apply(r.Context(), user, services.MatchRequest{
		Operation:       input.Operation,
		PeerID:          input.TargetUserID,
		PeerName:        input.TargetUserName,
		PeerDescription: input.TargetDescription,
	})
	metrics.ObserveMatch(operationLabel(input.Operation), outcome(err))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "success", "operation": string(input.Operation)})
}

func (h *MatchHandler) Meet(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var input struct {
		TargetID string `json:"target_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.TargetID == "" {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}

	poi, err := h.geoService.Meet(r.Context(), user, input.TargetID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(MeetResponse{POI: poi})
}

// operationLabel keeps client input out of metric labels.
func operationLabel(op models.MatchOperation) string {
	if !op.Valid() {
		return "invalid"
	}
	return string(op)
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var apiErr *errors.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return "error"
}
