package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/anndata/agriplatform/internal/handler"    // import the handlers that implement business logic
	"github.com/anndata/agriplatform/internal/middleware" // import middleware for session token authentication
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance. Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// The health endpoint can be used by load balancers or monitoring
	// systems to verify that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers account registration and login, and the
// token-protected profile endpoints. Registration and login live under
// /auth and need no token; /user/* requires a valid session token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, u *handler.UserHandler, jwtSecret string) {
	g := e.Group("/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)

	// Profile routes require a session token. A missing token answers
	// 401, a presented-but-rejected token answers 403.
	user := e.Group("/user")
	user.Use(middleware.RequireAuth(jwtSecret))
	user.GET("/profile", u.Profile)
	user.PUT("/profile", u.UpdateProfile)
	user.DELETE("/delete", u.Deactivate)
}

// RegisterPredictions registers the prediction ledger surface. The
// predict endpoint accepts anonymous submissions but records ownership
// when a valid token is presented; the history endpoint requires a
// token; search and verification are public.
func RegisterPredictions(e *echo.Echo, p *handler.PredictionHandler, jwtSecret string, cacheMW echo.MiddlewareFunc) {
	e.POST("/crops/predict", p.Predict, middleware.OptionalAuth(jwtSecret))
	e.POST("/crops/recommend", p.Recommend, middleware.OptionalAuth(jwtSecret))
	e.POST("/crops/forecast", p.Forecast)
	e.POST("/crops/rotate", p.Rotate)
	e.GET("/user/predictions", p.ListOwn, middleware.RequireAuth(jwtSecret))
	e.GET("/predictions/search", p.Search, cacheMW)
	e.POST("/predictions/:id/verify", p.Verify)
}

// RegisterFeedback registers feedback submission and the moderation
// surface. The admin endpoints are deliberately unauthenticated: the
// platform fronts them with network-level access control.
func RegisterFeedback(e *echo.Echo, f *handler.FeedbackHandler) {
	e.POST("/feedback", f.Submit)
	e.GET("/admin/feedback", f.AdminList)
	e.PUT("/admin/feedback/:id", f.AdminUpdate)
}

// RegisterStats registers the dashboard aggregation snapshot, fronted
// by the response cache when Redis is available.
func RegisterStats(e *echo.Echo, s *handler.StatsHandler, cacheMW echo.MiddlewareFunc) {
	e.GET("/stats/dashboard", s.Dashboard, cacheMW)
}
