package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"go-meet/middleware"
	"go-meet/models"
	"go-meet/services"
	"go-meet/utils/errors"
)

const defaultPOIRadius = 3000 // meters

type POIHandler struct {
	geoService *services.GeoService
}

// poiQuery is the parsed form of GET /pois?lat=&lon=[&radius=][&type=].
type poiQuery struct {
	Lat, Lon, Radius float64
	Type             string
}

type NearbyPOIResponse struct {
	NearbyPOIs []models.POI `json:"nearby_pois"`
	Count      int          `json:"count"`
	Lat        float64      `json:"lat"`
	Lon        float64      `json:"lon"`
	Radius     float64      `json:"radius"`
	Type       string       `json:"type,omitempty"`
}

func NewPOIHandler(geoService *services.GeoService) *POIHandler {
	return &POIHandler{geoService: geoService}
}

func parsePOIQuery(values url.Values) (poiQuery, error) {
	q := poiQuery{Radius: defaultPOIRadius, Type: values.Get("type")}
	for _, p := range []struct {
		key      string
		dst      *float64
		required bool
	}{
		{"lat", &q.Lat, true},
		{"lon", &q.Lon, true},
		{"radius", &q.Radius, false},
	} {
		raw := values.Get(p.key)
		if raw == "" {
			if p.required {
				return poiQuery{}, fmt.Errorf("%w: %s is required", errors.ErrInvalidInput, p.key)
			}
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return poiQuery{}, fmt.Errorf("%w: %s must be a number", errors.ErrInvalidInput, p.key)
		}
		*p.dst = v
	}
	return q, nil
}

func (h *POIHandler) GetNearbyPOIs(w http.ResponseWriter, r *http.Request) {
	q, err := parsePOIQuery(r.URL.Query())
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	pois, err := h.geoService.FindNearbyPOIs(r.Context(), q.Lat, q.Lon, q.Radius, q.Type)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	if pois == nil {
		pois = []models.POI{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(NearbyPOIResponse{
		NearbyPOIs: pois,
		Count:      len(pois),
		Lat:        q.Lat,
		Lon:        q.Lon,
		Radius:     q.Radius,
		Type:       q.Type,
	})
}
