package chart

import (
	"fmt"
	"math"

	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/Shillmaster/JJcbjee/internal/domain/models"
	"github.com/Shillmaster/JJcbjee/internal/services/signal"
	"github.com/Shillmaster/JJcbjee/pkg/canvas"
	"github.com/Shillmaster/JJcbjee/pkg/spline"
)

const (
	arrowZoneWidth  = 120
	arrowBaseLength = 30
	arrowMaxLength  = 50
	// arrowScale is pixels per percentage point of median move.
	arrowScale     = 1.5
	arrowShaft     = 2.5
	arrowHeadSize  = 8
	arrowHeadAngle = math.Pi / 7
	arrowTilt      = math.Pi / 6
)

// ArrowGeometry is the resolved shape of the compact arrow.
type ArrowGeometry struct {
	Direction models.Bias
	Start     spline.Point
	End       spline.Point
	Head      [3]spline.Point
	Length    float64
	Angle     float64
}

// ArrowLength grows with the median move and is capped at arrowMaxLength.
func ArrowLength(p50 float64) float64 {
	return math.Min(arrowMaxLength, arrowBaseLength+math.Abs(p50)*100*arrowScale)
}

// ArrowAngle is fixed per direction. Negative angles point up the screen.
func ArrowAngle(dir models.Bias) float64 {
	switch dir {
	case models.BiasBullish:
		return -arrowTilt
	case models.BiasBearish:
		return arrowTilt
	default:
		return 0
	}
}

// LayoutArrow computes the arrow from the NOW point for a median move p50.
func LayoutArrow(p50, currentPrice float64, g Geometry) ArrowGeometry {
	dir := signal.Direction(p50)
	length := ArrowLength(p50)
	angle := ArrowAngle(dir)

	start := spline.Point{X: g.AnchorX, Y: g.PriceToY(currentPrice)}
	end := spline.Point{
		X: start.X + length*math.Cos(angle),
		Y: start.Y + length*math.Sin(angle),
	}
	return ArrowGeometry{
		Direction: dir,
		Start:     start,
		End:       end,
		Length:    length,
		Angle:     angle,
		Head: [3]spline.Point{
			end,
			headCorner(end, angle-arrowHeadAngle),
			headCorner(end, angle+arrowHeadAngle),
		},
	}
}

func headCorner(tip spline.Point, a float64) spline.Point {
	return spline.Point{
		X: tip.X - arrowHeadSize*math.Cos(a),
		Y: tip.Y - arrowHeadSize*math.Sin(a),
	}
}

func directionColor(dir models.Bias) drawing.Color {
	switch dir {
	case models.BiasBullish:
		return colorBullish
	case models.BiasBearish:
		return colorBearish
	default:
		return colorNeutral
	}
}

// DrawArrow paints the compact 7-day arrow. A nil distribution draws nothing.
func DrawArrow(s canvas.Surface, q *models.Quantiles, currentPrice float64, g Geometry) {
	if q == nil || !g.Valid() {
		return
	}
	a := LayoutArrow(q.P50, currentPrice, g)
	color := directionColor(a.Direction)

	DrawZone(s, g, arrowZoneWidth, ArrowZone)

	canvas.Scoped(s, func() {
		s.SetStrokeColor(color)
		s.SetLineWidth(arrowShaft)
		s.SetLineCap(drawing.RoundCap)
		s.BeginPath()
		s.MoveTo(a.Start.X, a.Start.Y)
		s.LineTo(a.End.X, a.End.Y)
		s.Stroke()
	})

	canvas.Scoped(s, func() {
		s.SetFillColor(color)
		s.BeginPath()
		s.MoveTo(a.Head[0].X, a.Head[0].Y)
		s.LineTo(a.Head[1].X, a.Head[1].Y)
		s.LineTo(a.Head[2].X, a.Head[2].Y)
		s.Close()
		s.Fill()
	})

	canvas.Scoped(s, func() { drawArrowLabel(s, a, q.P50, color) })
}

func drawArrowLabel(s canvas.Surface, a ArrowGeometry, p50 float64, color drawing.Color) {
	x := a.End.X + 8
	y := arrowLabelY(a)

	s.SetFontSize(11)
	s.SetFillColor(color)
	_, _ = s.FillStringAt(ArrowLabel(p50), x, y)

	s.SetFontSize(9)
	s.SetFillColor(canvas.RGBA(0, 0, 0, 0.4))
	_, _ = s.FillStringAt("7D", x, y+12)
}

func arrowLabelY(a ArrowGeometry) float64 {
	switch a.Direction {
	case models.BiasBullish:
		return a.End.Y - 4
	case models.BiasBearish:
		return a.End.Y + 12
	default:
		return a.End.Y + 4
	}
}

// ArrowLabel formats p50 as a signed percentage with one decimal, "+" when
// p50 is zero or positive.
func ArrowLabel(p50 float64) string {
	sign := ""
	if p50 >= 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.1f%%", sign, p50*100)
}
