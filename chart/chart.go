// Package chart renders ring (donut) charts from labeled numeric slices,
// as inline SVG or as a rasterized PNG.
package chart

import (
	"fmt"
	"html"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/vector"
)

// Slice is one labeled segment of a ring chart.
type Slice struct {
	Category   string
	Magnitude  float64
	ColorToken string // hex color, e.g. "#3b82f6"
}

// Arc is a slice resolved to angular extent. Angles are radians measured
// clockwise from 12 o'clock.
type Arc struct {
	Slice Slice
	Start float64
	End   float64
}

// trackColor is the ring drawn when every magnitude is zero.
const trackColor = "#e5e7eb"

// Total sums the positive magnitudes. Negative magnitudes never occur after
// normalization but are ignored here so the geometry stays well-defined.
func Total(slices []Slice) float64 {
	var total float64
	for _, s := range slices {
		if s.Magnitude > 0 {
			total += s.Magnitude
		}
	}
	return total
}

// Arcs converts slices to contiguous arcs covering the full circle in input
// order. With a zero total every arc is zero-width.
func Arcs(slices []Slice) []Arc {
	total := Total(slices)
	arcs := make([]Arc, len(slices))
	var at float64
	for i, s := range slices {
		sweep := 0.0
		if total > 0 && s.Magnitude > 0 {
			sweep = s.Magnitude / total * 2 * math.Pi
		}
		arcs[i] = Arc{Slice: s, Start: at, End: at + sweep}
		at += sweep
	}
	return arcs
}

// WriteSVG writes a 200x200 viewBox donut chart with a centered label and a
// caption beneath it. Slices are drawn as stroked circle segments.
func WriteSVG(w io.Writer, slices []Slice, centerLabel, caption string) error {
	const (
		r           = 80.0
		strokeWidth = 30
	)
	circumference := 2 * math.Pi * r

	if _, err := io.WriteString(w, `<svg viewBox="0 0 200 200" xmlns="http://www.w3.org/2000/svg" role="img">`); err != nil {
		return err
	}

	total := Total(slices)
	if total <= 0 {
		fmt.Fprintf(w, `<circle cx="100" cy="100" r="%g" fill="none" stroke="%s" stroke-width="%d"/>`, r, trackColor, strokeWidth)
	} else {
		var offset float64
		for _, s := range slices {
			if s.Magnitude <= 0 {
				continue
			}
			seg := s.Magnitude / total * circumference
			fmt.Fprintf(w,
				`<circle cx="100" cy="100" r="%g" fill="none" stroke="%s" stroke-width="%d" stroke-dasharray="%.3f %.3f" stroke-dashoffset="%.3f" transform="rotate(-90 100 100)"><title>%s</title></circle>`,
				r, html.EscapeString(s.ColorToken), strokeWidth, seg, circumference-seg, -offset, html.EscapeString(s.Category))
			offset += seg
		}
	}

	fmt.Fprintf(w, `<text x="100" y="96" text-anchor="middle" dominant-baseline="middle" font-size="30" font-weight="700" fill="#111827">%s</text>`, html.EscapeString(centerLabel))
	fmt.Fprintf(w, `<text x="100" y="126" text-anchor="middle" font-size="13" fill="#6b7280">%s</text>`, html.EscapeString(caption))

	_, err := io.WriteString(w, `</svg>`)
	return err
}

// EncodePNG rasterizes the ring at size x size pixels and writes it as PNG.
// The background is transparent.
func EncodePNG(w io.Writer, slices []Slice, size int) error {
	if size <= 0 {
		return fmt.Errorf("chart: invalid size %d", size)
	}

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	cx := float64(size) / 2
	cy := float64(size) / 2
	outer := 0.46 * float64(size)
	inner := 0.32 * float64(size)

	arcs := Arcs(slices)
	drawn := false
	for _, a := range arcs {
		if a.End <= a.Start {
			continue
		}
		fillRing(img, cx, cy, inner, outer, a.Start, a.End, parseColor(a.Slice.ColorToken))
		drawn = true
	}
	if !drawn {
		fillRing(img, cx, cy, inner, outer, 0, 2*math.Pi, parseColor(trackColor))
	}

	return png.Encode(w, img)
}

// fillRing rasterizes an annular sector from angle a0 to a1 (radians
// clockwise from 12 o'clock) using the x/image vector rasterizer.
func fillRing(img *image.RGBA, cx, cy, ri, ro, a0, a1 float64, col color.Color) {
	bounds := img.Bounds()
	z := vector.NewRasterizer(bounds.Dx(), bounds.Dy())
	z.DrawOp = draw.Over

	// Enough segments to keep the chord error invisible at widget sizes.
	steps := int(math.Ceil((a1 - a0) / 0.05))
	if steps < 2 {
		steps = 2
	}

	point := func(radius, angle float64) (float32, float32) {
		// Clockwise from 12 o'clock: x = cx + r*sin, y = cy - r*cos.
		return float32(cx + radius*math.Sin(angle)), float32(cy - radius*math.Cos(angle))
	}

	x, y := point(ro, a0)
	z.MoveTo(x, y)
	for i := 1; i <= steps; i++ {
		angle := a0 + (a1-a0)*float64(i)/float64(steps)
		x, y = point(ro, angle)
		z.LineTo(x, y)
	}
	for i := steps; i >= 0; i-- {
		angle := a0 + (a1-a0)*float64(i)/float64(steps)
		x, y = point(ri, angle)
		z.LineTo(x, y)
	}
	z.ClosePath()

	z.Draw(img, bounds, image.NewUniform(col), image.Point{})
}

// parseColor parses a #rrggbb token, falling back to a neutral gray for
// anything it does not understand.
func parseColor(token string) color.NRGBA {
	fallback := color.NRGBA{R: 0x9c, G: 0xa3, B: 0xaf, A: 0xff}
	if len(token) != 7 || token[0] != '#' {
		return fallback
	}
	var r, g, b uint8
	if _, err := fmt.Sscanf(token[1:], "%02x%02x%02x", &r, &g, &b); err != nil {
		return fallback
	}
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}
}
