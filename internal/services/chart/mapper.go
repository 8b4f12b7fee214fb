// Package chart projects forecast data into pixel space and paints it onto a
// canvas.Surface. Renderers are stateless; every entry point is a no-op on
// absent input.
package chart

import (
	"math"

	"github.com/Shillmaster/JJcbjee/pkg/spline"
)

const (
	zoneShare    = 0.55
	zoneMaxWidth = 380
	// zoneGutter is reserved right of the last forecast day for labels.
	zoneGutter = 70
)

// Geometry is supplied by the caller on every draw call.
type Geometry struct {
	AnchorX      float64
	PriceToY     func(price float64) float64
	PlotWidth    float64
	MarginTop    float64
	MarginBottom float64
	CanvasHeight float64
}

// Valid reports whether g can be drawn with.
func (g Geometry) Valid() bool {
	return g.PriceToY != nil
}

// PlotBottom is the y of the lower plot edge.
func (g Geometry) PlotBottom() float64 {
	return g.CanvasHeight - g.MarginBottom
}

// PlotHeight is the vertical extent between margins.
func (g Geometry) PlotHeight() float64 {
	return g.CanvasHeight - g.MarginTop - g.MarginBottom
}

// ZoneWidth is the width the forecast days span, capped so the overlay
// never dominates the historical area.
func ZoneWidth(plotWidth float64) float64 {
	return math.Min(plotWidth*zoneShare, zoneMaxWidth) - zoneGutter
}

// Mapper converts (day, price) to pixels for a fixed horizon.
type Mapper struct {
	geom      Geometry
	horizon   int
	zoneWidth float64
}

func NewMapper(g Geometry, horizon int) Mapper {
	return Mapper{geom: g, horizon: horizon, zoneWidth: ZoneWidth(g.PlotWidth)}
}

func (m Mapper) ZoneWidth() float64 { return m.zoneWidth }
func (m Mapper) Horizon() int       { return m.horizon }

// DayX maps a day offset to x. Day 0 is always AnchorX.
func (m Mapper) DayX(day float64) float64 {
	if day == 0 || m.horizon <= 0 {
		return m.geom.AnchorX
	}
	return m.geom.AnchorX + day/float64(m.horizon)*m.zoneWidth
}

// ToPixel maps a day offset and price to a pixel position.
func (m Mapper) ToPixel(day, price float64) spline.Point {
	return spline.Point{X: m.DayX(day), Y: m.geom.PriceToY(price)}
}

// PathPoints returns the control points for a price path: the anchor at
// (0, currentPrice) followed by one point per day. At most limit days are
// used when limit >= 0.
func (m Mapper) PathPoints(currentPrice float64, path []float64, limit int) []spline.Point {
	n := len(path)
	if limit >= 0 && limit < n {
		n = limit
	}
	pts := make([]spline.Point, 0, n+1)
	pts = append(pts, m.ToPixel(0, currentPrice))
	for i := 0; i < n; i++ {
		pts = append(pts, m.ToPixel(float64(i+1), path[i]))
	}
	return pts
}
