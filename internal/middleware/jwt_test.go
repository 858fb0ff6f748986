package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anndata/agriplatform/internal/utils"
)

const testSecret = "middleware-secret"

func runWith(t *testing.T, mw echo.MiddlewareFunc, authHeader string) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set(echo.HeaderAuthorization, authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	reached := false
	h := mw(func(c echo.Context) error {
		reached = true
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	return rec, reached
}

func TestRequireAuthMissingToken(t *testing.T) {
	t.Parallel()

	rec, reached := runWith(t, RequireAuth(testSecret), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached)
}

func TestRequireAuthRejectedToken(t *testing.T) {
	t.Parallel()

	// A presented-but-invalid token is a 403, distinguishable from the
	// missing-token 401.
	rec, reached := runWith(t, RequireAuth(testSecret), "Bearer garbage")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, reached)
}

func TestRequireAuthValidToken(t *testing.T) {
	t.Parallel()

	tok, err := utils.NewSessionToken(testSecret, 7, "farmer1", "f1@example.com", 24)
	require.NoError(t, err)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok.Token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := RequireAuth(testSecret)(func(c echo.Context) error {
		assert.Equal(t, uint64(7), c.Get("user_id"))
		assert.Equal(t, "farmer1", c.Get("username"))
		assert.Equal(t, "f1@example.com", c.Get("email"))
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOptionalAuthAnonymous(t *testing.T) {
	t.Parallel()

	rec, reached := runWith(t, OptionalAuth(testSecret), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, reached)
}

func TestOptionalAuthRejectsBadToken(t *testing.T) {
	t.Parallel()

	// Anonymous is fine, but a bad token must not ride the anonymous path.
	rec, reached := runWith(t, OptionalAuth(testSecret), "Bearer garbage")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, reached)
}
