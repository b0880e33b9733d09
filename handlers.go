package ringstat

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/eringen/ringstat/chart"
	"github.com/eringen/ringstat/umami"
	"github.com/eringen/ringstat/views"
	"github.com/eringen/ringstat/widget"
)

// Lookback windows for the proxy endpoints. The summary window is 7 days —
// kept as the source behavior even though it is sometimes described as the
// last 24 hours.
const (
	summaryLookback    = 7 * 24 * time.Hour
	seriesLookbackDays = 365
	widgetPNGSize      = 400
)

// widgetRenders counts completed widget load cycles per output surface.
var widgetRenders = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ringstat_widget_renders_total",
	Help: "Completed widget render cycles by surface.",
}, []string{"surface"})

func (a *App) handleDashboard(c echo.Context) error {
	return Render(c, views.Dashboard(a.Config.Title))
}

func (a *App) handleRobots(c echo.Context) error {
	body := fmt.Sprintf("User-agent: *\nAllow: /\nDisallow: /api/\n\n# %s\n", a.Config.BaseURL)
	return c.String(http.StatusOK, body)
}

// statsEndpoint is the absolute URL the server-rendered widget fetches.
func (a *App) statsEndpoint() string {
	return a.Config.BaseURL + "/api/fetch-umami-stats"
}

// runWidget performs one widget load cycle bounded by the request context.
// A cancelled request deactivates the widget so a late result is dropped;
// the in-flight upstream call itself is not aborted.
func (a *App) runWidget(c echo.Context) (*widget.Widget, error) {
	w := widget.New(a.statsEndpoint())
	ctx := c.Request().Context()
	w.Activate(ctx)

	select {
	case <-w.Done():
		return w, nil
	case <-ctx.Done():
		w.Deactivate()
		return nil, ctx.Err()
	}
}

// handleWidgetFragment renders the widget as an htmx fragment: the ring
// chart once the load cycle finished, which by contract it always does.
func (a *App) handleWidgetFragment(c echo.Context) error {
	w, err := a.runWidget(c)
	if err != nil {
		return err
	}
	widgetRenders.WithLabelValues("fragment").Inc()
	return Render(c, w.Component())
}

// handleWidgetPNG serves the same snapshot as a rasterized donut, for
// embedding where SVG or htmx is unavailable.
func (a *App) handleWidgetPNG(c echo.Context) error {
	w, err := a.runWidget(c)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := chart.EncodePNG(&buf, widget.Slices(w.Snapshot()), widgetPNGSize); err != nil {
		return fmt.Errorf("render widget png: %w", err)
	}
	widgetRenders.WithLabelValues("png").Inc()
	return c.Blob(http.StatusOK, "image/png", buf.Bytes())
}

// handleFetchStats proxies the 7-day summary metrics, relaying the upstream
// body unmodified on success and an error envelope otherwise.
func (a *App) handleFetchStats(c echo.Context) error {
	now := time.Now()
	resp, err := a.Umami.GetWebsiteStats(c.Request().Context(), a.Config.WebsiteID, umami.StatsQuery{
		StartAt: now.Add(-summaryLookback),
		EndAt:   now,
	})
	if err != nil {
		c.Logger().Errorf("fetch umami stats: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if !resp.OK {
		return c.JSON(errorStatus(resp.Status), map[string]string{"error": resp.Error})
	}
	return c.JSONBlob(http.StatusOK, resp.Data)
}

// handleFetchPageviews proxies the 365-day, daily-bucketed pageviews series.
func (a *App) handleFetchPageviews(c echo.Context) error {
	now := time.Now()
	resp, err := a.Umami.GetWebsitePageviews(c.Request().Context(), a.Config.WebsiteID, umami.PageviewsQuery{
		StartAt:  now.AddDate(0, 0, -seriesLookbackDays),
		EndAt:    now,
		Unit:     "day",
		Timezone: a.Config.Timezone,
		Region:   a.Config.Region,
	})
	if err != nil {
		c.Logger().Errorf("fetch umami pageviews: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if !resp.OK {
		return c.JSON(errorStatus(resp.Status), map[string]string{"error": resp.Error})
	}
	return c.JSONBlob(http.StatusOK, resp.Data)
}

// rateLimitAPI rejects clients that exceed the per-IP budget on /api routes.
func (a *App) rateLimitAPI(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !a.apiLimiter.Allow(c.RealIP()) {
			return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
		}
		return next(c)
	}
}

// errorStatus clamps an upstream status to a valid HTTP error code,
// defaulting to 500 for anything unexpected.
func errorStatus(status int) int {
	if status < 400 || status > 599 {
		return http.StatusInternalServerError
	}
	return status
}
