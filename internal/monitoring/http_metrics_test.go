package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestHTTPMetricsMiddleware_RecordsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)

	metrics := NewHTTPMetrics()
	registry := prometheus.NewRegistry()
	metrics.MustRegister(registry)

	router := gin.New()
	router.Use(HTTPMetricsMiddleware(metrics))
	router.GET("/withdrawal/status/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id")})
	})

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/withdrawal/status/abc", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	count := testutil.ToFloat64(metrics.requestsTotal.WithLabelValues("GET", "/withdrawal/status/:id", "200"))
	assert.Equal(t, float64(3), count)

	inFlight := testutil.ToFloat64(metrics.inFlightRequests.WithLabelValues("GET", "/withdrawal/status/:id"))
	assert.Equal(t, float64(0), inFlight)
}

func TestHTTPMetricsMiddleware_UnmatchedRouteUsesRawPath(t *testing.T) {
	gin.SetMode(gin.TestMode)

	metrics := NewHTTPMetrics()
	registry := prometheus.NewRegistry()
	metrics.MustRegister(registry)

	router := gin.New()
	router.Use(HTTPMetricsMiddleware(metrics))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	router.ServeHTTP(w, req)

	count := testutil.ToFloat64(metrics.requestsTotal.WithLabelValues("GET", "/nope", "404"))
	assert.Equal(t, float64(1), count)
}
