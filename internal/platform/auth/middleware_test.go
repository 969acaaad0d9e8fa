package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var secret = []byte("s3cret")

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	g := r.Group("", RequireAuth(secret))
	g.GET("/me", func(c *gin.Context) {
		id, _ := UserID(c)
		c.String(http.StatusOK, id)
	})
	g.GET("/admin", RequireRole("admin"), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func call(r http.Handler, path, authz string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuth(t *testing.T) {
	r := newRouter()

	tok, err := SignToken(secret, "u1", "", nil)
	require.NoError(t, err)
	w := call(r, "/me", "Bearer "+tok)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "u1", w.Body.String())

	expired, err := SignToken(secret, "u1", "", jwt.MapClaims{"exp": time.Now().Add(-time.Minute).Unix()})
	require.NoError(t, err)
	other, err := SignToken([]byte("other"), "u1", "", nil)
	require.NoError(t, err)
	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"role": "admin"}).SignedString(secret)
	require.NoError(t, err)

	for name, h := range map[string]string{
		"missing":      "",
		"wrong scheme": "Basic abc",
		"empty token":  "Bearer  ",
		"expired":      "Bearer " + expired,
		"wrong key":    "Bearer " + other,
		"no subject":   "Bearer " + noSub,
	} {
		t.Run(name, func(t *testing.T) {
			w := call(r, "/me", h)
			require.Equal(t, http.StatusUnauthorized, w.Code)
			require.Contains(t, w.Body.String(), `"code":"UNAUTHENTICATED"`)
		})
	}
}

func TestRequireRole(t *testing.T) {
	r := newRouter()

	user, _ := SignToken(secret, "u1", "user", nil)
	w := call(r, "/admin", "Bearer "+user)
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Contains(t, w.Body.String(), `"code":"FORBIDDEN"`)

	admin, _ := SignToken(secret, "ops", "admin", nil)
	w = call(r, "/admin", "Bearer "+admin)
	require.Equal(t, http.StatusNoContent, w.Code)
}
