package chart

import (
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/Shillmaster/JJcbjee/pkg/canvas"
)

// gradientSteps is how many vertical strips approximate the horizontal fade.
const gradientSteps = 24

// ZoneStyle describes the forecast zone scaffold.
type ZoneStyle struct {
	FadeFrom, FadeTo float64 // black alpha at the anchor and at the far edge
	SeparatorColor   drawing.Color
	SeparatorWidth   float64
	SeparatorDash    []float64
	LabelColor       drawing.Color
	LabelSize        float64
	LabelLift        float64 // label baseline distance above MarginTop
}

var (
	// OverlayZone frames the dual-path overlay.
	OverlayZone = ZoneStyle{
		FadeFrom:       0.03,
		FadeTo:         0.01,
		SeparatorColor: canvas.RGBA(180, 0, 0, 0.4),
		SeparatorWidth: 1.5,
		SeparatorDash:  []float64{5, 5},
		LabelColor:     canvas.Hex("#dc2626"),
		LabelSize:      10,
		LabelLift:      6,
	}
	// ArrowZone is the lighter frame behind the compact arrow.
	ArrowZone = ZoneStyle{
		FadeFrom:       0.02,
		FadeTo:         0.005,
		SeparatorColor: canvas.RGBA(200, 50, 50, 0.3),
		SeparatorWidth: 1,
		SeparatorDash:  []float64{4, 4},
		LabelColor:     canvas.RGBA(200, 50, 50, 0.6),
		LabelSize:      9,
		LabelLift:      4,
	}
)

// DrawZone paints background, separator and "NOW" label, in that order,
// each inside its own save/restore scope.
func DrawZone(s canvas.Surface, g Geometry, width float64, st ZoneStyle) {
	canvas.Scoped(s, func() { drawZoneBackground(s, g, width, st) })
	canvas.Scoped(s, func() { drawSeparator(s, g, st) })
	canvas.Scoped(s, func() { drawNowLabel(s, g, st) })
}

func drawZoneBackground(s canvas.Surface, g Geometry, width float64, st ZoneStyle) {
	h := g.PlotHeight()
	if width <= 0 || h <= 0 {
		return
	}
	strip := width / gradientSteps
	for i := 0; i < gradientSteps; i++ {
		// sample the gradient at the strip centre
		t := (float64(i) + 0.5) / gradientSteps
		alpha := st.FadeFrom + (st.FadeTo-st.FadeFrom)*t
		s.SetFillColor(canvas.RGBA(0, 0, 0, alpha))
		s.BeginPath()
		canvas.Rect(s, g.AnchorX+float64(i)*strip, g.MarginTop, strip, h)
		s.Fill()
	}
}

func drawSeparator(s canvas.Surface, g Geometry, st ZoneStyle) {
	s.SetStrokeColor(st.SeparatorColor)
	s.SetLineWidth(st.SeparatorWidth)
	s.SetLineDash(st.SeparatorDash, 0)
	s.BeginPath()
	s.MoveTo(g.AnchorX, g.MarginTop)
	s.LineTo(g.AnchorX, g.PlotBottom())
	s.Stroke()
}

func drawNowLabel(s canvas.Surface, g Geometry, st ZoneStyle) {
	s.SetFillColor(st.LabelColor)
	s.SetFontSize(st.LabelSize)
	canvas.FillTextCentered(s, "NOW", g.AnchorX, g.MarginTop-st.LabelLift)
}
