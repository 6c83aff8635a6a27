package app

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authTestRouter(staticTokens []string, jwtSecret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AuthMiddleware(staticTokens, jwtSecret))
	r.GET("/protected", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
	return r
}

func doAuth(r *gin.Engine, header string) int {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestAuthMissingHeader(t *testing.T) {
	r := authTestRouter([]string{"tok"}, "")
	assert.Equal(t, http.StatusUnauthorized, doAuth(r, ""))
}

func TestAuthBadFormat(t *testing.T) {
	r := authTestRouter([]string{"tok"}, "")
	assert.Equal(t, http.StatusUnauthorized, doAuth(r, "tok"))
	assert.Equal(t, http.StatusUnauthorized, doAuth(r, "Basic tok"))
}

func TestAuthStaticToken(t *testing.T) {
	r := authTestRouter([]string{"alpha", "beta"}, "")
	assert.Equal(t, http.StatusOK, doAuth(r, "Bearer beta"))
	assert.Equal(t, http.StatusUnauthorized, doAuth(r, "Bearer gamma"))
}

func TestAuthJWT(t *testing.T) {
	const secret = "test-secret"
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "admin",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	r := authTestRouter(nil, secret)
	assert.Equal(t, http.StatusOK, doAuth(r, "Bearer "+token))
}

func TestAuthJWTWrongSecret(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("other-secret"))
	require.NoError(t, err)

	r := authTestRouter(nil, "test-secret")
	assert.Equal(t, http.StatusUnauthorized, doAuth(r, "Bearer "+token))
}

func TestAuthExpiredJWTFallsThroughToStatic(t *testing.T) {
	const secret = "test-secret"
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(-time.Hour).Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	r := authTestRouter([]string{"tok"}, secret)
	assert.Equal(t, http.StatusUnauthorized, doAuth(r, "Bearer "+token))
	assert.Equal(t, http.StatusOK, doAuth(r, "Bearer tok"))
}
