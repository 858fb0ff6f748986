package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http" // HTTP status codes for responses
	"strings"  // string utilities for prefix checking and trimming

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

	"github.com/anndata/agriplatform/internal/utils" // pure session token verification
)

// RequireAuth returns an Echo middleware that validates a Bearer session
// token and injects the token's identity claims into the request
// context.  The provided secret must match the one used when issuing
// tokens.  Handlers behind this middleware can read the authenticated
// account via `c.Get("user_id")`, `c.Get("username")` and
// `c.Get("email")`.
//
// The two denial outcomes are deliberately distinguishable at the
// transport boundary: a request with no bearer token at all gets 401,
// a request presenting a token that fails verification (bad signature,
// malformed, expired) gets 403.  Both deny access.
func RequireAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")
			claims, err := utils.VerifySessionToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "invalid or expired token"})
			}
			setClaims(c, claims)
			return next(c)
		}
	}
}

// OptionalAuth is like RequireAuth but lets anonymous requests through:
// when no bearer token is presented the request proceeds with no
// identity in the context.  A token that is presented but rejected is
// still denied with 403, so a client cannot smuggle a bad token past
// the check by relying on the anonymous path.
func OptionalAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return next(c)
			}
			raw := strings.TrimPrefix(auth, "Bearer ")
			claims, err := utils.VerifySessionToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "invalid or expired token"})
			}
			setClaims(c, claims)
			return next(c)
		}
	}
}

func setClaims(c echo.Context, claims utils.SessionClaims) {
	c.Set("user_id", claims.UserID)
	c.Set("username", claims.Username)
	c.Set("email", claims.Email)
}
