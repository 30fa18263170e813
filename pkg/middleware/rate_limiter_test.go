package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"

	"npc-chatlab/backend/pkg/logger"
)

func TestRateLimiterAllowsWithinBurst(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := logger.New(logger.Config{Level: "error", JSON: true})

	rl := NewRateLimiter(log, RateLimiterOptions{
		Limit:          rate.Limit(1),
		Burst:          3,
		ExpiryDuration: time.Minute,
		KeyFunc:        func(c *gin.Context) string { return "fixed" },
	})

	r := gin.New()
	r.Use(rl.Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/", nil)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, "request %d within burst", i+1)
	}

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestRateLimiterSeparatesClients(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := logger.New(logger.Config{Level: "error", JSON: true})

	rl := NewRateLimiter(log, RateLimiterOptions{
		Limit:          rate.Limit(1),
		Burst:          1,
		ExpiryDuration: time.Minute,
		KeyFunc:        func(c *gin.Context) string { return c.GetHeader("X-Client") },
	})

	r := gin.New()
	r.Use(rl.Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, client := range []string{"a", "b"} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Client", client)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, "first request for client %s", client)
	}
}
