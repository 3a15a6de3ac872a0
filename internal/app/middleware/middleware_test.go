package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func whoami(c *gin.Context) {
	if id := GetUserIDFromContext(c); id != nil {
		c.String(http.StatusOK, id.String())
		return
	}
	c.String(http.StatusOK, "anonymous")
}

func TestJWTAuthMiddleware(t *testing.T) {
	cfg := JWTConfig{SecretKey: "0123456789abcdef0123456789abcdef", TokenExpiration: time.Hour, Optional: true}
	userID := uuid.New()
	token, err := GenerateToken(cfg, userID)
	require.NoError(t, err)

	tests := []struct {
		name       string
		cfg        JWTConfig
		header     string
		wantStatus int
		wantBody   string
	}{
		{"valid token", cfg, "Bearer " + token, http.StatusOK, userID.String()},
		{"no token optional", cfg, "", http.StatusOK, "anonymous"},
		{"bad token optional", cfg, "Bearer nope", http.StatusOK, "anonymous"},
		{"wrong scheme", cfg, "Basic " + token, http.StatusOK, "anonymous"},
		{"no token required", JWTConfig{SecretKey: cfg.SecretKey}, "", http.StatusUnauthorized, ""},
		{"other secret", JWTConfig{SecretKey: "another-secret-another-secret-xx"}, "Bearer " + token, http.StatusUnauthorized, ""},
		{"auth disabled", JWTConfig{}, "Bearer " + token, http.StatusOK, "anonymous"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(JWTAuthMiddleware(tt.cfg))
			r.GET("/me", whoami)

			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, w.Body.String())
			}
		})
	}
}

func TestExpiredToken(t *testing.T) {
	cfg := JWTConfig{SecretKey: "0123456789abcdef0123456789abcdef", TokenExpiration: -time.Minute}
	token, err := GenerateToken(cfg, uuid.New())
	require.NoError(t, err)

	_, err = ValidateToken(cfg, token)
	assert.Error(t, err)
}

func TestRequestIDAndHeaders(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), CORSMiddleware(), SecurityMiddleware(), RequestLogger(zap.NewNop()), Metrics())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	t.Run("minted", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
		_, err := uuid.Parse(w.Header().Get(RequestIDHeader))
		assert.NoError(t, err)
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	})

	t.Run("echoed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		req.Header.Set("Access-Control-Request-Method", http.MethodDelete)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "DELETE")
	})
}
