package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/quizprep-backend/internal/config"
	"github.com/stemsi/quizprep-backend/internal/response"
	"github.com/stemsi/quizprep-backend/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) response.ErrCode {
	t.Helper()
	var body response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	return body.Error.Code
}

// ─── JWT ────────────────────────────────────────────────────────────

func TestRequireAdminJWT(t *testing.T) {
	cfg := &config.Config{JWTSecret: "test-secret", JWTExpiry: time.Hour}
	auth := service.NewAuthService(cfg, nil)

	r := gin.New()
	r.GET("/me", RequireAdminJWT(auth), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetClaims(c).UserID})
	})

	do := func(header, query string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/me"+query, nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	token, err := auth.GenerateAdminToken(11)
	require.NoError(t, err)

	t.Run("bearer header", func(t *testing.T) {
		w := do("Bearer "+token, "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"user_id": 11}`, w.Body.String())
	})

	t.Run("query fallback", func(t *testing.T) {
		w := do("", "?token="+token)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing", func(t *testing.T) {
		w := do("", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, response.ErrTokenRequired, errorCode(t, w))
	})

	t.Run("garbage", func(t *testing.T) {
		w := do("Bearer not-a-token", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, response.ErrTokenInvalid, errorCode(t, w))
	})

	t.Run("expired", func(t *testing.T) {
		expired := service.NewAuthService(&config.Config{JWTSecret: "test-secret", JWTExpiry: -time.Minute}, nil)
		old, err := expired.GenerateAdminToken(11)
		require.NoError(t, err)

		w := do("Bearer "+old, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, response.ErrTokenExpired, errorCode(t, w))
	})

	t.Run("non admin token", func(t *testing.T) {
		claims := service.Claims{
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
			TokenType:        "learner",
			UserID:           2,
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		require.NoError(t, err)

		w := do("Bearer "+signed, "")
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, response.ErrAdminAccessOnly, errorCode(t, w))
	})
}

// ─── Rate limit ─────────────────────────────────────────────────────

func TestRateLimiter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(ctx, 2, time.Minute)
	rl.now = func() time.Time { return now }

	ok, left, _ := rl.take("1.1.1.1")
	assert.True(t, ok)
	assert.Equal(t, 1, left)
	ok, left, _ = rl.take("1.1.1.1")
	assert.True(t, ok)
	assert.Zero(t, left)

	ok, _, wait := rl.take("1.1.1.1")
	assert.False(t, ok)
	assert.Equal(t, time.Minute, wait)

	ok, _, _ = rl.take("2.2.2.2")
	assert.True(t, ok, "buckets are per IP")

	now = now.Add(45 * time.Second)
	ok, _, wait = rl.take("1.1.1.1")
	assert.False(t, ok, "no refill inside the window")
	assert.Equal(t, 15*time.Second, wait)

	now = now.Add(15 * time.Second)
	ok, left, _ = rl.take("1.1.1.1")
	assert.True(t, ok)
	assert.Equal(t, 1, left)

	now = now.Add(10 * time.Minute)
	rl.sweep()
	rl.mu.Lock()
	assert.Empty(t, rl.buckets)
	rl.mu.Unlock()
}

func TestRateLimiterMiddleware(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := gin.New()
	r.Use(NewRateLimiter(ctx, 1, time.Minute).Middleware())
	r.POST("/login", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusNoContent, first.Code)
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", first.Header().Get("X-RateLimit-Remaining"))

	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "60", second.Header().Get("Retry-After"))
	assert.Equal(t, response.ErrRateLimitExceeded, errorCode(t, second))
}

// ─── Brotli ─────────────────────────────────────────────────────────

func brotliRouter(body string) *gin.Engine {
	r := gin.New()
	r.Use(BrotliWithConfig(BrotliConfig{MinLength: 64}))
	r.GET("/text", func(c *gin.Context) { c.String(http.StatusOK, body) })
	return r
}

func TestBrotli(t *testing.T) {
	t.Run("large body is compressed", func(t *testing.T) {
		body := strings.Repeat("practice makes perfect ", 20)
		req := httptest.NewRequest(http.MethodGet, "/text", nil)
		req.Header.Set("Accept-Encoding", "gzip, br;q=1.0")
		w := httptest.NewRecorder()

		brotliRouter(body).ServeHTTP(w, req)

		assert.Equal(t, "br", w.Header().Get("Content-Encoding"))
		assert.Equal(t, "Accept-Encoding", w.Header().Get("Vary"))
		plain, err := io.ReadAll(brotli.NewReader(bytes.NewReader(w.Body.Bytes())))
		require.NoError(t, err)
		assert.Equal(t, body, string(plain))
	})

	t.Run("small body stays plain", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/text", nil)
		req.Header.Set("Accept-Encoding", "br")
		w := httptest.NewRecorder()

		brotliRouter("short").ServeHTTP(w, req)

		assert.Empty(t, w.Header().Get("Content-Encoding"))
		assert.Equal(t, "short", w.Body.String())
	})

	t.Run("client without brotli", func(t *testing.T) {
		body := strings.Repeat("x", 200)
		req := httptest.NewRequest(http.MethodGet, "/text", nil)
		req.Header.Set("Accept-Encoding", "gzip")
		w := httptest.NewRecorder()

		brotliRouter(body).ServeHTTP(w, req)

		assert.Empty(t, w.Header().Get("Content-Encoding"))
		assert.Equal(t, body, w.Body.String())
	})
}

func TestCacheHeaders(t *testing.T) {
	r := gin.New()
	r.GET("/public", CacheControl(30), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/private", NoStore(), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/public", nil))
	assert.Equal(t, "public, max-age=30", w.Header().Get("Cache-Control"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/private", nil))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}
