package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kanban-board-api/internal/response"
	"kanban-board-api/internal/util"
)

const testSecret = "test-secret"

func signToken(t *testing.T, method jwt.SigningMethod, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func setupAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Auth(testSecret))
	router.GET("/whoami", func(c *gin.Context) {
		actor, ok := util.ExtractActor(c)
		if !ok {
			return
		}
		c.String(http.StatusOK, actor.String())
	})
	return router
}

func TestAuth(t *testing.T) {
	actor := uuid.New()
	valid := signToken(t, jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": actor.String(),
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	tests := []struct {
		name       string
		header     string
		query      string
		wantStatus int
		wantBody   string
	}{
		{name: "valid bearer", header: "Bearer " + valid, wantStatus: http.StatusOK, wantBody: actor.String()},
		{name: "token query for websocket", query: "?token=" + valid, wantStatus: http.StatusOK, wantBody: actor.String()},
		{
			name: "sub claim",
			header: "Bearer " + signToken(t, jwt.SigningMethodHS256, jwt.MapClaims{
				"sub": actor.String(),
			}),
			wantStatus: http.StatusOK,
			wantBody:   actor.String(),
		},
		{name: "missing header", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + valid, wantStatus: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer not-a-jwt", wantStatus: http.StatusUnauthorized},
		{
			name: "expired",
			header: "Bearer " + signToken(t, jwt.SigningMethodHS256, jwt.MapClaims{
				"user_id": actor.String(),
				"exp":     time.Now().Add(-time.Minute).Unix(),
			}),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "no user claim",
			header:     "Bearer " + signToken(t, jwt.SigningMethodHS256, jwt.MapClaims{"role": "admin"}),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "user id not a uuid",
			header:     "Bearer " + signToken(t, jwt.SigningMethodHS256, jwt.MapClaims{"user_id": "42"}),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "unsigned token",
			header:     "Bearer " + unsignedToken(t, actor),
			wantStatus: http.StatusUnauthorized,
		},
	}

	router := setupAuthRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.wantBody, w.Body.String())
				return
			}
			var body struct {
				Error response.ErrorBody `json:"error"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, response.ErrCodeUnauthorized, body.Error.Code)
		})
	}
}

func unsignedToken(t *testing.T, actor uuid.UUID) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"user_id": actor.String(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	return token
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID(), Recovery(zap.NewNop()))
	router.GET("/panic", func(c *gin.Context) { panic("boom") })

	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	req.Header.Set("X-Request-ID", "req-1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "req-1", w.Header().Get("X-Request-ID"))
	assert.Contains(t, w.Body.String(), response.ErrCodeInternal)
	assert.Contains(t, w.Body.String(), `"requestId":"req-1"`)
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CORS([]string{"https://app.example.com"}))
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
