package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bildin8/postergram-juice-sub001/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test_jwt_secret_32_chars_minimum!"

func ginTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.JWTAuth(testSecret))
	r.GET("/protected", func(c *gin.Context) {
		claims := middleware.GetClaims(c)
		c.JSON(http.StatusOK, gin.H{"sub": claims.Subject, "role": claims.Role})
	})
	r.GET("/store", middleware.RequireRole(middleware.RoleStore, middleware.RolePartner), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func get(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	return w
}

func issue(t *testing.T, role string, ttl time.Duration) string {
	t.Helper()
	tok, err := middleware.IssueToken(testSecret, "u-1", "Wanjiru", role, ttl)
	require.NoError(t, err)
	return tok
}

func TestProtectedEndpoint_NoToken(t *testing.T) {
	w := get(ginTestRouter(), "/protected", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProtectedEndpoint_ValidToken(t *testing.T) {
	w := get(ginTestRouter(), "/protected", issue(t, middleware.RoleShop, time.Hour))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"sub":"u-1","role":"shop"}`, w.Body.String())
}

func TestProtectedEndpoint_ExpiredToken(t *testing.T) {
	w := get(ginTestRouter(), "/protected", issue(t, middleware.RoleShop, -time.Second))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProtectedEndpoint_WrongSecret(t *testing.T) {
	tok, err := middleware.IssueToken("another_secret_of_enough_length!!", "u-1", "x", middleware.RoleStore, time.Hour)
	require.NoError(t, err)
	w := get(ginTestRouter(), "/protected", tok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProtectedEndpoint_RejectsNonHMAC(t *testing.T) {
	claims := jwt.MapClaims{"sub": "u-1", "role": "store", "exp": time.Now().Add(time.Hour).Unix()}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	w := get(ginTestRouter(), "/protected", tok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRole(t *testing.T) {
	r := ginTestRouter()
	cases := []struct {
		role string
		want int
	}{
		{middleware.RoleStore, http.StatusOK},
		{middleware.RolePartner, http.StatusOK},
		{middleware.RoleShop, http.StatusForbidden},
		{"", http.StatusForbidden},
	}
	for _, tc := range cases {
		w := get(r, "/store", issue(t, tc.role, time.Hour))
		assert.Equal(t, tc.want, w.Code, "role %q", tc.role)
	}
}
