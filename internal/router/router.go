// Package router registers the HTTP routes of the venue service.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/venue-reservation/internal/config"
	"github.com/iliyamo/venue-reservation/internal/handler"
	"github.com/iliyamo/venue-reservation/internal/middleware"
	"github.com/iliyamo/venue-reservation/internal/observability"
)

// RegisterRoutes registers routes that do not require authentication:
// health, metrics and the cached availability and service-catalog reads.
func RegisterRoutes(e *echo.Echo, db handler.Pinger, metrics *observability.Metrics, v *handler.VenueHandler,
	cacheCfg config.CacheConfig, rdb *redis.Client) {
	e.GET("/healthz", handler.Health(db))
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	cache := middleware.NewRedisCache(cacheCfg, rdb)
	e.GET("/v1/venue/availability", v.CheckAvailability, cache)
	e.GET("/v1/venue/services", v.ListServices, cache)
}

// RegisterVenue registers the operator endpoints under /v1/venue.  Every
// route requires a valid token; writes are further restricted by role.
// Reservation submission is rate limited per operator.  Events are managed
// by the roles that may submit reservations.
func RegisterVenue(e *echo.Echo, v *handler.VenueHandler, jwtSecret string, rlCfg config.RateLimitConfig, rdb *redis.Client) {
	g := e.Group("/v1/venue", middleware.JWTAuth(jwtSecret))

	submitters := middleware.RequireRole(middleware.RoleOperator, middleware.RoleApprover, middleware.RoleAdmin)
	approvers := middleware.RequireRole(middleware.RoleApprover, middleware.RoleAdmin)
	finance := middleware.RequireRole(middleware.RoleFinance, middleware.RoleAdmin)
	admin := middleware.RequireRole(middleware.RoleAdmin)

	// ---- Reservations ----
	g.POST("/reservations", v.SubmitReservation, submitters, middleware.NewTokenBucket(rlCfg, rdb))
	g.GET("/reservations", v.ListReservations)
	g.GET("/reservations/:eventId", v.GetReservation)
	g.PUT("/reservations/approval", v.DecideReservation, approvers)

	// ---- Events ----
	g.PUT("/events/:eventId", v.UpdateEvent, submitters)
	g.DELETE("/events/:eventId", v.CancelEvent, submitters)
	g.GET("/events/:eventId/logs", v.EventLogs)

	// ---- Billings ----
	g.POST("/billings", v.CreateBilling, finance)
	g.PUT("/billings/:id/confirm", v.ConfirmBilling, finance)
	g.PUT("/billings/:id/payment", v.ConfirmPayment, finance)
	g.PUT("/billings/:id/void", v.VoidBilling, finance)
	g.POST("/billings/:id/quote", v.QuoteBilling)
	g.GET("/billings", v.ListBillings)
	g.GET("/billings/:id", v.GetBilling)

	// ---- Reports ----
	g.POST("/reports", v.GenerateReport, admin)
	g.GET("/reports", v.ListReports, admin)
}

// RegisterAdmin registers catalog administration under /v1/venue/admin.
func RegisterAdmin(e *echo.Echo, h *handler.CatalogHandler, jwtSecret string) {
	g := e.Group("/v1/venue/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(middleware.RoleAdmin),
	)
	g.POST("/areas", h.CreateArea)
	g.GET("/areas", h.ListAreas)
	g.POST("/sponsors", h.CreateSponsor)
	g.GET("/sponsors", h.ListSponsors)
	g.POST("/fee-configs", h.CreateFeeConfig)
	g.GET("/fee-configs", h.ListFeeConfigs)
	g.POST("/services", h.CreateService)
	g.GET("/services", h.ListServices)
}
