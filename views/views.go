// Package views holds the templ components for the ringstat pages and
// fragments. Components are written in plain Go with templ.ComponentFunc.
package views

import (
	"context"
	"fmt"
	"html"
	"io"

	"github.com/a-h/templ"

	"github.com/eringen/ringstat/chart"
)

const pageCSS = `body{font-family:system-ui,sans-serif;background:#f9fafb;color:#111827;margin:0}
main{max-width:28rem;margin:3rem auto;padding:0 1rem}
h1{font-size:1.25rem;font-weight:600}
.widget-card{background:#fff;border:1px solid #e5e7eb;border-radius:0.75rem;padding:1.5rem}
.ring-widget svg{display:block;width:100%;height:auto}
.ring-legend{list-style:none;margin:1rem 0 0;padding:0;font-size:0.8rem;color:#6b7280}
.ring-legend li{display:flex;align-items:center;gap:0.5rem;margin:0.25rem 0}
.ring-legend .swatch{width:0.65rem;height:0.65rem;border-radius:9999px;display:inline-block}
.busy{display:flex;align-items:center;justify-content:center;min-height:14rem;color:#9ca3af}
.busy .spinner{width:1.5rem;height:1.5rem;border:3px solid #e5e7eb;border-top-color:#6b7280;border-radius:9999px;animation:spin 0.8s linear infinite;margin-right:0.6rem}
@keyframes spin{to{transform:rotate(360deg)}}
.error-page{text-align:center;margin-top:6rem;color:#6b7280}`

// Dashboard is the page shell. The widget slot shows the busy indicator
// until htmx swaps in the rendered fragment.
func Dashboard(title string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		fmt.Fprintf(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><title>%s</title><style>%s</style><script src="https://unpkg.com/htmx.org@1.9.12" defer></script></head><body><main><h1>%s</h1><div class="widget-card" hx-get="/fragments/widget" hx-trigger="load" hx-swap="innerHTML">`,
			html.EscapeString(title), pageCSS, html.EscapeString(title))
		if err := Busy().Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</div></main></body></html>`)
		return err
	})
}

// Busy is the loading placeholder shown while the widget has no data yet.
func Busy() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<div class="busy"><span class="spinner"></span>Loading stats&hellip;</div>`)
		return err
	})
}

// RingChart renders the donut with its centered label, caption, and legend.
func RingChart(slices []chart.Slice, centerLabel, caption string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<figure class="ring-widget">`); err != nil {
			return err
		}
		if err := chart.WriteSVG(w, slices, centerLabel, caption); err != nil {
			return err
		}
		if _, err := io.WriteString(w, `<ul class="ring-legend">`); err != nil {
			return err
		}
		for _, s := range slices {
			fmt.Fprintf(w, `<li><span class="swatch" style="background:%s"></span>%s: %s</li>`,
				html.EscapeString(s.ColorToken), html.EscapeString(s.Category), FormatCount(s.Magnitude))
		}
		_, err := io.WriteString(w, `</ul></figure>`)
		return err
	})
}

// NotFound renders the styled 404 page.
func NotFound() templ.Component {
	return errorPage("404", "Page not found")
}

// ServerError renders the styled 500 page.
func ServerError() templ.Component {
	return errorPage("500", "Something went wrong")
}

func errorPage(code, message string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>%s</title><style>%s</style></head><body><div class="error-page"><h1>%s</h1><p>%s</p></div></body></html>`,
			html.EscapeString(code), pageCSS, html.EscapeString(code), html.EscapeString(message))
		return err
	})
}
