// Package ringstat serves a donut-chart widget of website visit metrics,
// proxying two read-only requests to an Umami analytics server.
//
// The widget is rendered server-side with templ and loaded into the
// dashboard page as an htmx fragment; the proxy endpoints relay the Umami
// responses unmodified.
package ringstat

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"

	"github.com/eringen/ringstat/umami"
)

// App is the central ringstat application. It wires together the Umami
// client, middleware, routes, and handlers.
type App struct {
	Config Config
	Echo   *echo.Echo
	Umami  *umami.Client

	apiLimiter   *RateLimiter
	customRoutes []func(*App)
}

// New creates an App around an explicitly constructed Umami client. The
// client is injected rather than built here so its lifecycle is owned by
// the caller, not hidden module state.
func New(cfg Config, client *umami.Client, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config: cfg,
		Echo:   echo.New(),
		Umami:  client,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Start validates the config, sets up middleware and routes, and runs the
// server until it is closed.
func (a *App) Start() error {
	if a.Config.UmamiURL == "" {
		return fmt.Errorf("ringstat: UmamiURL is required")
	}
	if a.Config.WebsiteID == "" {
		return fmt.Errorf("ringstat: WebsiteID is required")
	}
	if a.Umami == nil {
		return fmt.Errorf("ringstat: umami client is required")
	}

	// The proxy endpoints are the only unauthenticated write-free surface
	// exposed to browsers, so they get a per-IP limit.
	a.apiLimiter = NewRateLimiter(60, time.Minute)

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}

	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.GET("/", a.handleDashboard)
	e.GET("/robots.txt", a.handleRobots)

	// Widget surfaces: htmx fragment and a raster fallback.
	e.GET("/fragments/widget", a.handleWidgetFragment)
	e.GET("/widget.png", a.handleWidgetPNG)

	// Metrics proxy endpoints.
	api := e.Group("/api", a.rateLimitAPI)
	api.GET("/fetch-umami-stats", a.handleFetchStats)
	api.GET("/fetch-umami-pageviews", a.handleFetchPageviews)

	e.GET("/metrics", echoprometheus.NewHandler())
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MustEnv returns the value of the environment variable key, or fatally exits if empty.
func MustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("ringstat: required environment variable %s is not set", key)
	}
	return v
}
