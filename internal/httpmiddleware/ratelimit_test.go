package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func serve(r *gin.Engine, ip string) int {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = ip + ":1234"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestTokenBucket_PerIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	l := NewTokenBucket(60, 2)
	r := gin.New()
	r.Use(l.GinMiddleware(nil))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(r, "10.0.0.1"))
	assert.Equal(t, http.StatusOK, serve(r, "10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, serve(r, "10.0.0.1"))
	assert.Equal(t, http.StatusOK, serve(r, "10.0.0.2"))
}

func TestTokenBucket_Refills(t *testing.T) {
	l := NewTokenBucket(60, 1)
	now := time.Now()
	l.now = func() time.Time { return now }

	assert.True(t, l.allow("k"))
	assert.False(t, l.allow("k"))

	now = now.Add(time.Second)
	assert.True(t, l.allow("k"))
}

func TestTokenBucket_Disabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(NewTokenBucket(0, 0).GinMiddleware(nil))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, serve(r, "10.0.0.1"))
	}
}

func TestTokenBucket_Sweep(t *testing.T) {
	l := NewTokenBucket(60, 1)
	now := time.Now()
	l.now = func() time.Time { return now }
	l.allow("old")
	now = now.Add(10 * time.Minute)
	l.allow("fresh")

	assert.Equal(t, 1, l.Sweep(5*time.Minute))
	assert.Len(t, l.state, 1)
}
