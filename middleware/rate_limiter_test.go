package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/vinodyk/patient-appointments/config"
)

func TestClientIP(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		xff    string
		xri    string
		remote string
		want   string
	}{
		{"forwarded header wins", "203.0.113.7, 10.0.0.1", "", "10.0.0.2:1234", "203.0.113.7"},
		{"real ip fallback", "", "203.0.113.9", "10.0.0.2:1234", "203.0.113.9"},
		{"remote addr strips port", "", "", "192.0.2.4:5678", "192.0.2.4"},
		{"unparseable forwarded value ignored", "not-an-ip", "", "192.0.2.5:5678", "192.0.2.5"},
		{"unparseable real ip ignored", "", "garbage", "192.0.2.6:5678", "192.0.2.6"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			c.Request.RemoteAddr = tc.remote
			if tc.xff != "" {
				c.Request.Header.Set("X-Forwarded-For", tc.xff)
			}
			if tc.xri != "" {
				c.Request.Header.Set("X-Real-IP", tc.xri)
			}
			assert.Equal(t, tc.want, clientIP(c))
		})
	}
}

func TestRateLimitMiddleware_BlocksAfterBudget(t *testing.T) {
	gin.SetMode(gin.TestMode)

	prev := config.AppConfig.MaxRequestsPerMin
	config.AppConfig.MaxRequestsPerMin = 2
	t.Cleanup(func() { config.AppConfig.MaxRequestsPerMin = prev })

	r := gin.New()
	r.Use(RateLimitMiddleware())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	var codes []int
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "198.51.100.23:4000"
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
