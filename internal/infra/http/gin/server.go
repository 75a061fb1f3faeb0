package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"rentals/internal/infra/config"
	"rentals/internal/infra/obs"
)

type AvailabilityHTTP interface {
	Check(c *gin.Context)
	Calendar(c *gin.Context)
}

type QuoteHTTP interface {
	Quote(c *gin.Context)
}

type BookingHTTP interface {
	Create(c *gin.Context)
}

type ExtensionHTTP interface {
	Plan(c *gin.Context)
	Submit(c *gin.Context)
}

type LookupHTTP interface {
	Referral(c *gin.Context)
	Locations(c *gin.Context)
}

type Handlers struct {
	Availability AvailabilityHTTP
	Quote        QuoteHTTP
	Booking      BookingHTTP
	Extension    ExtensionHTTP
	Lookup       LookupHTTP
	Metrics      http.Handler
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(cfg, obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func NewRouter(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Idempotency-Key", sessionHeader},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)
	if h.Metrics != nil {
		router.GET("/metrics", gin.WrapH(h.Metrics))
	}

	api := router.Group("/api/v1")
	if h.Availability != nil {
		api.GET("/units/:unit/availability", h.Availability.Check)
		api.GET("/units/:unit/calendar", h.Availability.Calendar)
	}
	if h.Quote != nil {
		api.POST("/quotes", h.Quote.Quote)
	}
	if h.Booking != nil {
		api.POST("/bookings", h.Booking.Create)
	}
	if h.Extension != nil {
		api.POST("/bookings/:id/extension/plan", h.Extension.Plan)
		api.POST("/bookings/:id/extension", h.Extension.Submit)
	}
	if h.Lookup != nil {
		api.GET("/referrals/:code", h.Lookup.Referral)
		api.GET("/locations", h.Lookup.Locations)
	}
	return router
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
