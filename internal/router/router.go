package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4" // Echo web framework used for routing

    "github.com/iliyamo/ticket-reservation/internal/handler"
    "github.com/iliyamo/ticket-reservation/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check
// that load balancers and monitoring systems can probe.
func RegisterRoutes(e *echo.Echo) {
    e.GET("/healthz", handler.Health)
}

// RegisterTickets registers the public ticket browse and query surface.
// These endpoints are read-only (plus line materialization for
// administrative imports) and run against the read-only database pool,
// so they carry no identity middleware.  The response cache is applied
// here and nowhere else: the GET responses are identical for every
// caller, and no authenticated route can ever be served from a cache
// entry.
func RegisterTickets(e *echo.Echo, t *handler.TicketHandler, cache echo.MiddlewareFunc) {
    g := e.Group("/v1")
    if cache != nil {
        g.Use(cache)
    }
    g.POST("/tickets", t.CreateTicket)
    g.GET("/tickets", t.ListTickets)
    g.GET("/tickets/:id", t.GetTicket)
    g.GET("/tickets/:id/lines", t.ListTicketLines)
    g.POST("/tickets/:id/lines", t.MaterializeLines)
    g.POST("/tickets/query", t.QueryTickets)
    g.POST("/ticket-lines/query", t.QueryTicketLines)
}

// RegisterOrders registers the order lifecycle and order read routes.
// Every route in this group requires a resolved user_code, so the
// identity middleware is applied to the whole group.  jwtSecret allows
// local verification of HS256 identity tokens; resolver handles opaque
// tokens via the remote identity service.
func RegisterOrders(e *echo.Echo, o *handler.OrderHandler, jwtSecret string, resolver middleware.Resolver) {
    g := e.Group("/v1")
    g.Use(middleware.UserCode(jwtSecret, resolver))
    g.POST("/orders", o.OrderNow)
    g.POST("/orders/:id/confirm", o.ConfirmOrder)
    g.POST("/orders/:id/cancel", o.CancelOrder)
    g.GET("/orders/:id", o.GetOrder)
    g.POST("/orders/query", o.QueryOrders)
    g.GET("/my-orders", o.MyOrders)
}
