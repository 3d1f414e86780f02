package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newLimitedRouter(cfg *RateLimitConfig) (*gin.Engine, *RateLimiter) {
	gin.SetMode(gin.TestMode)

	rl := NewRateLimiter(cfg)
	router := gin.New()
	router.Use(rl.Limit())
	router.GET("/api/widgets", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	return router, rl
}

func doRequest(router *gin.Engine, path, ip string) int {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("X-Forwarded-For", ip)
	router.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimiterBlocksAfterBurst(t *testing.T) {
	router, rl := newLimitedRouter(&RateLimitConfig{
		Enabled:           true,
		RequestsPerSecond: 1,
		Burst:             2,
	})
	defer rl.Close()

	assert.Equal(t, http.StatusOK, doRequest(router, "/api/widgets", "10.0.0.1"))
	assert.Equal(t, http.StatusOK, doRequest(router, "/api/widgets", "10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, doRequest(router, "/api/widgets", "10.0.0.1"))

	// a different client is unaffected
	assert.Equal(t, http.StatusOK, doRequest(router, "/api/widgets", "10.0.0.2"))
}

func TestRateLimiterExcludedPaths(t *testing.T) {
	router, rl := newLimitedRouter(&RateLimitConfig{
		Enabled:           true,
		RequestsPerSecond: 1,
		Burst:             1,
		ExcludedPaths:     []string{"/health"},
	})
	defer rl.Close()

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, doRequest(router, "/health", "10.0.0.1"))
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	router, rl := newLimitedRouter(&RateLimitConfig{
		Enabled:           false,
		RequestsPerSecond: 1,
		Burst:             1,
	})
	defer rl.Close()

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, doRequest(router, "/api/widgets", "10.0.0.1"))
	}
	assert.False(t, rl.Enabled())
}
