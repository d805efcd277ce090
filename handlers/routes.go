package handlers

import (
	"net/http"

	"go-meet/metrics"
	"go-meet/middleware"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type Handlers struct {
	Auth   *AuthHandler
	User   *UserHandler
	Match  *MatchHandler
	POI    *POIHandler
	Health *HealthHandler
}

// NewRouter mounts every route. Routes under /user, /match and /meet require a
// bearer token.
func NewRouter(h Handlers, sessions middleware.SessionResolver, logger *zap.Logger) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.ErrorMiddleware(logger))
	r.Use(metrics.Middleware)

	r.HandleFunc("/health", h.Health.Health).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/auth/login", h.Auth.Login).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/pois", h.POI.GetNearbyPOIs).Methods(http.MethodGet, http.MethodOptions)

	authed := r.NewRoute().Subrouter()
	authed.Use(middleware.SessionMiddleware(sessions))
	authed.HandleFunc("/user/position", h.User.SyncPosition).Methods(http.MethodPost, http.MethodOptions)
	authed.HandleFunc("/user/description", h.User.Describe).Methods(http.MethodPost, http.MethodOptions)
	authed.HandleFunc("/user/candidates", h.User.Candidates).Methods(http.MethodGet, http.MethodOptions)
	authed.HandleFunc("/user/me", h.User.Me).Methods(http.MethodGet, http.MethodOptions)
	authed.HandleFunc("/match", h.Match.Match).Methods(http.MethodPost, http.MethodOptions)
	authed.HandleFunc("/meet", h.Match.Meet).Methods(http.MethodPost, http.MethodOptions)

	return r
}
