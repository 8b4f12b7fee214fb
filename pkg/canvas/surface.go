// Package canvas defines the drawing surface the chart renderers paint on,
// plus a raster backend (go-chart drawing) and an operation recorder.
package canvas

import (
	"image/color"
	"math"

	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Surface is the subset of drawing.GraphicContext used by the renderers.
// *drawing.RasterGraphicContext satisfies it directly.
type Surface interface {
	Save()
	Restore()

	BeginPath()
	MoveTo(x, y float64)
	LineTo(x, y float64)
	CubicCurveTo(cx1, cy1, cx2, cy2, x, y float64)
	ArcTo(cx, cy, rx, ry, startAngle, angle float64)
	Close()

	SetStrokeColor(c color.Color)
	SetFillColor(c color.Color)
	SetLineWidth(width float64)
	SetLineDash(dash []float64, dashOffset float64)
	SetLineCap(cap drawing.LineCap)
	SetLineJoin(join drawing.LineJoin)
	SetFontSize(fontSize float64)

	GetStringBounds(s string) (left, top, right, bottom float64, err error)
	FillStringAt(text string, x, y float64) (cursor float64, err error)

	Stroke(paths ...*drawing.Path)
	Fill(paths ...*drawing.Path)
}

// Scoped runs fn between Save and Restore. Restore runs on every exit path,
// so style changes made inside fn never leak into sibling layers.
func Scoped(s Surface, fn func()) {
	s.Save()
	defer s.Restore()
	fn()
}

// Hex parses "#rrggbb" or "rrggbb" into an opaque color.
func Hex(hex string) drawing.Color {
	if len(hex) > 0 && hex[0] == '#' {
		hex = hex[1:]
	}
	return drawing.ColorFromHex(hex)
}

// RGBA builds a color from 8-bit channels and a CSS-style alpha in [0,1].
func RGBA(r, g, b uint8, alpha float64) drawing.Color {
	if alpha < 0 {
		alpha = 0
	}
	if alpha > 1 {
		alpha = 1
	}
	return drawing.Color{R: r, G: g, B: b, A: uint8(math.Round(alpha * 255))}
}

// WithAlpha returns c with its alpha replaced.
func WithAlpha(c drawing.Color, alpha float64) drawing.Color {
	return RGBA(c.R, c.G, c.B, alpha)
}

// Circle appends a full circle to the current path.
func Circle(s Surface, cx, cy, r float64) {
	s.ArcTo(cx, cy, r, r, 0, 2*math.Pi)
	s.Close()
}

// Rect appends an axis-aligned rectangle to the current path.
func Rect(s Surface, x, y, w, h float64) {
	s.MoveTo(x, y)
	s.LineTo(x+w, y)
	s.LineTo(x+w, y+h)
	s.LineTo(x, y+h)
	s.Close()
}

// TextWidth measures s with the surface's current font. Measurement errors
// count as zero width.
func TextWidth(s Surface, text string) float64 {
	left, _, right, _, err := s.GetStringBounds(text)
	if err != nil {
		return 0
	}
	return right - left
}

// FillTextCentered draws text horizontally centered on x with y as baseline.
func FillTextCentered(s Surface, text string, x, y float64) {
	_, _ = s.FillStringAt(text, x-TextWidth(s, text)/2, y)
}
