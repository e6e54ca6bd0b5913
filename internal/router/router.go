package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-box-office/internal/handler"
	"github.com/iliyamo/cinema-box-office/internal/middleware"
	"github.com/iliyamo/cinema-box-office/internal/model"
)

// Handlers bundles every handler the router wires up.
type Handlers struct {
	Auth      *handler.AuthHandler
	Showtimes *handler.ShowtimeHandler
	Tickets   *handler.TicketHandler
	Customers *handler.CustomerHandler
	Reports   *handler.ReportHandler
}

// RegisterRoutes registers routes that do not require
// authentication: the health check and the auth endpoints.
func RegisterRoutes(e *echo.Echo, h Handlers) {
	e.GET("/healthz", handler.Health)

	auth := e.Group("/v1/auth")
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", h.Auth.Logout)
}

// RegisterBoxOffice registers the staff API under /v1.  Every
// route requires a valid access token; browsing and selling are
// open to both roles, while scheduling and reporting are
// manager-only.  The optional browse middleware (rate limit and
// response cache) is applied to read-only seat-map traffic, which
// is the endpoint counter terminals poll.
func RegisterBoxOffice(e *echo.Echo, h Handlers, jwtSecret string, browse ...echo.MiddlewareFunc) {
	v1 := e.Group("/v1")
	v1.Use(middleware.JWTAuth(jwtSecret))
	v1.Use(middleware.RequireRole(model.RoleManager, model.RoleCashier))

	v1.GET("/me", h.Auth.Me)

	// Browse endpoints, cache/rate-limit friendly.
	v1.GET("/showtimes", h.Showtimes.List, browse...)
	v1.GET("/showtimes/:id", h.Showtimes.Get, browse...)
	v1.GET("/showtimes/:id/seats", h.Showtimes.GetSeats, browse...)

	// Selling.
	v1.POST("/showtimes/:id/reservations", h.Tickets.Reserve)
	v1.POST("/showtimes/:id/tickets", h.Tickets.DirectSale)
	v1.POST("/tickets/:id/confirm", h.Tickets.Confirm)
	v1.POST("/tickets/:id/refund", h.Tickets.Refund)
	v1.GET("/tickets/:id", h.Tickets.Get)
	v1.GET("/tickets/:id/payments", h.Tickets.ListPayments)

	// Customer directory.
	v1.POST("/customers", h.Customers.Create)
	v1.GET("/customers", h.Customers.Find)
	v1.GET("/customers/:id", h.Customers.Get)

	// Manager-only surface.
	mgr := e.Group("/v1")
	mgr.Use(middleware.JWTAuth(jwtSecret))
	mgr.Use(middleware.RequireRole(model.RoleManager))
	mgr.POST("/showtimes", h.Showtimes.Create)
	mgr.GET("/reports/revenue", h.Reports.Revenue)
}
