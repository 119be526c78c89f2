package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveHTTP(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/orders", "200"))

	ObserveHTTP("POST", "/api/v1/orders", 200, 120*time.Millisecond)

	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/orders", "200"))
	assert.Equal(t, before+1, after)
}

func TestObserveOrderCreated(t *testing.T) {
	created := testutil.ToFloat64(OrdersCreatedTotal.WithLabelValues("created"))
	replayed := testutil.ToFloat64(OrdersCreatedTotal.WithLabelValues("replayed"))

	ObserveOrderCreated(false, time.Second)
	ObserveOrderCreated(true, time.Millisecond)

	assert.Equal(t, created+1, testutil.ToFloat64(OrdersCreatedTotal.WithLabelValues("created")))
	assert.Equal(t, replayed+1, testutil.ToFloat64(OrdersCreatedTotal.WithLabelValues("replayed")))
}

func TestObserveOrderFailed(t *testing.T) {
	before := testutil.ToFloat64(OrdersFailedTotal.WithLabelValues("40010"))
	ObserveOrderFailed(40010, time.Second)
	assert.Equal(t, before+1, testutil.ToFloat64(OrdersFailedTotal.WithLabelValues("40010")))
}

func TestSetCircuitState(t *testing.T) {
	SetCircuitState("portone", 1)
	assert.Equal(t, float64(1), testutil.ToFloat64(CircuitBreakerState.WithLabelValues("portone")))

	SetCircuitState("portone", 0)
	assert.Equal(t, float64(0), testutil.ToFloat64(CircuitBreakerState.WithLabelValues("portone")))
}

func TestResult(t *testing.T) {
	assert.Equal(t, "success", Result(nil))
	assert.Equal(t, "failure", Result(errors.New("x")))
}

func TestHandler(t *testing.T) {
	ObserveOrderCreated(false, time.Millisecond)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "storefront_orders_created_total")
}
