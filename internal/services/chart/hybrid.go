package chart

import (
	"fmt"
	"math"

	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/Shillmaster/JJcbjee/internal/domain/models"
	"github.com/Shillmaster/JJcbjee/pkg/canvas"
	"github.com/Shillmaster/JJcbjee/pkg/spline"
)

const (
	markerRadius   = 5
	markerDot      = 2.5
	legendInsetX   = 12
	legendInsetY   = 20
	legendSwatch   = 4
	legendTextGap  = 10
	legendRowStep  = 16
	legendSimShift = 50
	horizonLift    = 12
)

// hybridLayout is the pixel-space plan for one overlay draw.
type hybridLayout struct {
	horizon   int
	zoneWidth float64
	synthetic spline.Curve
	replay    spline.Curve
	// similarity is nil when absent or when no replay is drawn.
	similarity *float64
}

func (l hybridLayout) hasReplay() bool { return l.replay.Drawable() }

func layoutHybrid(fc *models.Forecast, pm *models.PrimaryMatch, currentPrice float64, g Geometry) (hybridLayout, bool) {
	if fc == nil || len(fc.PricePath) == 0 || !g.Valid() {
		return hybridLayout{}, false
	}
	n := len(fc.PricePath)
	m := NewMapper(g, n)

	l := hybridLayout{
		horizon:   n,
		zoneWidth: m.ZoneWidth(),
		synthetic: spline.New(m.PathPoints(currentPrice, fc.PricePath, -1)),
	}
	if pm != nil && len(pm.ReplayPath) > 0 {
		l.replay = spline.New(m.PathPoints(currentPrice, pm.ReplayPath, n))
		// A zero similarity carries no information, so the label is skipped.
		if pm.Similarity != nil && *pm.Similarity > 0 {
			l.similarity = pm.Similarity
		}
	}
	return l, true
}

// DrawHybridForecast paints the synthetic and replay paths over the forecast
// zone. Layers go back to front: zone, curves, end markers, legend, horizon
// label. Nothing is drawn when the forecast has no price path.
func DrawHybridForecast(s canvas.Surface, fc *models.Forecast, pm *models.PrimaryMatch, currentPrice float64, g Geometry) {
	l, ok := layoutHybrid(fc, pm, currentPrice, g)
	if !ok {
		return
	}

	DrawZone(s, g, l.zoneWidth+zoneGutter, OverlayZone)

	canvas.Scoped(s, func() { strokeSeries(s, l.synthetic, SyntheticStyle) })
	if l.hasReplay() {
		canvas.Scoped(s, func() { strokeSeries(s, l.replay, ReplayStyle) })
	}

	if end, ok := l.synthetic.Last(); ok {
		canvas.Scoped(s, func() { drawEndMarker(s, end, SyntheticStyle.Color) })
	}
	if end, ok := l.replay.Last(); ok && l.hasReplay() {
		canvas.Scoped(s, func() { drawEndMarker(s, end, ReplayStyle.Color) })
	}

	canvas.Scoped(s, func() { drawLegend(s, g, l) })
	canvas.Scoped(s, func() { drawHorizonLabel(s, l) })
}

func strokeSeries(s canvas.Surface, c spline.Curve, st SeriesStyle) {
	if !c.Drawable() {
		return
	}
	s.SetLineCap(drawing.RoundCap)
	s.SetLineJoin(drawing.RoundJoin)
	s.SetLineDash(st.Dash, 0)

	if st.HaloSpread > 0 {
		s.SetStrokeColor(st.Halo)
		s.SetLineWidth(st.Width + st.HaloSpread)
		s.BeginPath()
		c.Trace(s)
		s.Stroke()
	}

	s.SetStrokeColor(st.Color)
	s.SetLineWidth(st.Width)
	s.BeginPath()
	c.Trace(s)
	s.Stroke()
}

func drawEndMarker(s canvas.Surface, p spline.Point, fill drawing.Color) {
	s.SetFillColor(fill)
	s.BeginPath()
	canvas.Circle(s, p.X, p.Y, markerRadius)
	s.Fill()

	s.SetFillColor(colorWhite)
	s.BeginPath()
	canvas.Circle(s, p.X, p.Y, markerDot)
	s.Fill()
}

func drawLegend(s canvas.Surface, g Geometry, l hybridLayout) {
	x := g.AnchorX + legendInsetX
	y := g.MarginTop + legendInsetY
	s.SetFontSize(10)

	legendRow(s, x, y, SyntheticStyle)
	if !l.hasReplay() {
		return
	}
	y += legendRowStep
	legendRow(s, x, y, ReplayStyle)

	if l.similarity != nil {
		s.SetFontSize(9)
		s.SetFillColor(colorMuted)
		_, _ = s.FillStringAt(SimilarityLabel(*l.similarity), x+legendSimShift, y+3)
	}
}

func legendRow(s canvas.Surface, x, y float64, st SeriesStyle) {
	s.SetFillColor(st.Color)
	s.BeginPath()
	canvas.Circle(s, x, y, legendSwatch)
	s.Fill()

	s.SetFillColor(colorLegend)
	_, _ = s.FillStringAt(st.Name, x+legendTextGap, y+3)
}

func drawHorizonLabel(s canvas.Surface, l hybridLayout) {
	end, ok := l.synthetic.Last()
	if !ok {
		return
	}
	s.SetFontSize(10)
	s.SetFillColor(canvas.RGBA(0, 0, 0, 0.5))
	canvas.FillTextCentered(s, HorizonLabel(l.horizon), end.X, end.Y-horizonLift)
}

// HorizonLabel formats the forecast length, e.g. "7d".
func HorizonLabel(days int) string {
	return fmt.Sprintf("%dd", days)
}

// SimilarityLabel formats a [0,1] similarity as "(NN% sim)".
func SimilarityLabel(sim float64) string {
	return fmt.Sprintf("(%.0f%% sim)", math.Round(sim*100))
}
