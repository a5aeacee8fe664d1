package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sitemanager/backend/internal/domain/site"
	"github.com/sitemanager/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, limit int, per time.Duration) (*RateLimiter, *time.Time) {
	t.Helper()
	limiter := NewRateLimiter(limit, per)
	t.Cleanup(limiter.Close)
	now := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	return limiter, &now
}

func TestRateLimiter(t *testing.T) {
	t.Run("blocks requests exceeding limit", func(t *testing.T) {
		limiter, _ := newTestLimiter(t, 3, time.Minute)
		for i := 0; i < 3; i++ {
			assert.True(t, limiter.Allow("site:a"), "request %d", i+1)
		}
		assert.False(t, limiter.Allow("site:a"))
	})

	t.Run("separate limits per key", func(t *testing.T) {
		limiter, _ := newTestLimiter(t, 1, time.Minute)
		assert.True(t, limiter.Allow("site:a"))
		assert.False(t, limiter.Allow("site:a"))
		assert.True(t, limiter.Allow("site:b"))
	})

	t.Run("resets after window", func(t *testing.T) {
		limiter, now := newTestLimiter(t, 2, time.Minute)
		assert.True(t, limiter.Allow("site:a"))
		assert.True(t, limiter.Allow("site:a"))
		assert.False(t, limiter.Allow("site:a"))

		*now = now.Add(time.Minute)
		assert.True(t, limiter.Allow("site:a"))
		assert.Equal(t, 1, limiter.Remaining("site:a"))
	})

	t.Run("remaining", func(t *testing.T) {
		limiter, _ := newTestLimiter(t, 5, time.Minute)
		assert.Equal(t, 5, limiter.Remaining("site:new"))
		limiter.Allow("site:new")
		limiter.Allow("site:new")
		assert.Equal(t, 3, limiter.Remaining("site:new"))
	})

	t.Run("zero limit rejects", func(t *testing.T) {
		limiter, _ := newTestLimiter(t, 0, time.Minute)
		assert.False(t, limiter.Allow("site:a"))
	})

	t.Run("concurrent access is safe", func(t *testing.T) {
		limiter, _ := newTestLimiter(t, 100, time.Minute)
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			allowed int
		)
		for i := 0; i < 150; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if limiter.Allow("site:busy") {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 100, allowed)
	})

	t.Run("close is idempotent", func(t *testing.T) {
		limiter := NewRateLimiter(1, time.Minute)
		limiter.Close()
		limiter.Close()
	})
}

func TestRateLimitByKey_SiteKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter, _ := newTestLimiter(t, 1, time.Minute)
	siteA, siteB := uuid.New(), uuid.New()

	router := gin.New()
	router.Use(func(c *gin.Context) {
		if id := c.GetHeader("X-Test-Site"); id != "" {
			c.Set(TenantContextKey, site.TenantContext{SiteID: uuid.MustParse(id), ActorID: uuid.New()})
		}
		c.Next()
	}, RateLimitByKey(limiter, SiteRateKey))
	router.POST("/receipts", func(c *gin.Context) { c.Status(http.StatusCreated) })

	post := func(siteID uuid.UUID) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/receipts", nil)
		if siteID != uuid.Nil {
			req.Header.Set("X-Test-Site", siteID.String())
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w := post(siteA)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = post(siteA)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	var body dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	require.NotNil(t, body.Error)
	assert.Equal(t, dto.ErrCodeRateLimited, body.Error.Code)

	assert.Equal(t, http.StatusCreated, post(siteB).Code)

	// without a site the client IP is the key
	assert.Equal(t, http.StatusCreated, post(uuid.Nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, post(uuid.Nil).Code)
}

func TestRateLimit_ByIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter, _ := newTestLimiter(t, 2, time.Minute)
	router := gin.New()
	router.Use(RateLimit(limiter))
	router.GET("/test", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}
