package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareLabelsByRouteTemplate(t *testing.T) {
	r := mux.NewRouter()
	r.Use(Middleware)
	r.HandleFunc("/things/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/things/{id}", "418"))
	for _, id := range []string{"a", "b"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/things/"+id, nil))
	}
	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/things/{id}", "418"))
	assert.Equal(t, 2.0, after-before)
}

func TestMatchAndInvariantCounters(t *testing.T) {
	before := testutil.ToFloat64(matchOperations.WithLabelValues("Accept", "ok"))
	ObserveMatch("Accept", "ok")
	assert.Equal(t, 1.0, testutil.ToFloat64(matchOperations.WithLabelValues("Accept", "ok"))-before)

	beforeInv := testutil.ToFloat64(invariantViolations)
	InvariantViolation()
	assert.Equal(t, 1.0, testutil.ToFloat64(invariantViolations)-beforeInv)
}

func TestHandlerExposesMetrics(t *testing.T) {
	ObserveMatch("Add", "ok")
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "meet_match_operations_total"))
}
