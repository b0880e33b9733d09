package ringstat

// Config holds all configuration for a ringstat server.
type Config struct {
	Title string // Dashboard title (default "Website stats")
	Addr  string // Listen address (default ":3000")

	// BaseURL is the server's own base URL, used by the server-rendered
	// widget to reach the proxy endpoints (default derived from Addr).
	BaseURL string

	UmamiURL   string // Required: Umami server base URL
	UmamiToken string // API token; empty for servers with open share access
	WebsiteID  string // Required: Umami website identifier

	Timezone string // Pageviews bucketing timezone (default "UTC")
	Region   string // Optional region hint forwarded to the pageviews query
}

func (c *Config) setDefaults() {
	if c.Title == "" {
		c.Title = "Website stats"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost" + c.Addr
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}
