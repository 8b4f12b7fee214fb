package chart

import (
	"fmt"
	"math"

	"github.com/Shillmaster/JJcbjee/internal/domain/models"
	"github.com/Shillmaster/JJcbjee/pkg/canvas"
	"github.com/Shillmaster/JJcbjee/pkg/spline"
)

// Mode selects the forecast visualization.
type Mode string

const (
	ModeHybrid Mode = "hybrid"
	ModeArrow  Mode = "arrow"
)

// ParseMode accepts "hybrid" and "arrow"; empty means hybrid.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeHybrid:
		return ModeHybrid, nil
	case ModeArrow:
		return ModeArrow, nil
	}
	return "", fmt.Errorf("unknown render mode %q", s)
}

const (
	minWidth, maxWidth   = 320, 4096
	minHeight, maxHeight = 200, 4096
	autoHeightRatio      = 0.4
	autoHeightMin        = 240
	autoHeightMax        = 720
	pricePadding         = 0.05
	// arrowReserve leaves room right of the arrow zone for its label.
	arrowReserve = arrowZoneWidth + 40
)

// ComputeDimensions clamps a requested canvas size. A zero or negative
// height is derived from the width.
func ComputeDimensions(rawW, rawH int) (int, int) {
	w := rawW
	if w < minWidth {
		w = minWidth
	}
	if w > maxWidth {
		w = maxWidth
	}
	h := rawH
	if h <= 0 {
		h = int(float64(w) * autoHeightRatio)
		if h < autoHeightMin {
			h = autoHeightMin
		}
		if h > autoHeightMax {
			h = autoHeightMax
		}
		return w, h
	}
	if h < minHeight {
		h = minHeight
	}
	if h > maxHeight {
		h = maxHeight
	}
	return w, h
}

// Margins are the insets around the plot area.
type Margins struct {
	Top, Right, Bottom, Left float64
}

// DefaultMargins leave room for the NOW label above and the legend inside.
var DefaultMargins = Margins{Top: 28, Right: 16, Bottom: 24, Left: 16}

// Scene is a full frame: background, history line and one forecast layer.
type Scene struct {
	Width, Height int
	Margins       Margins
	Mode          Mode
}

// SceneInput carries the data for one frame. History is the price series
// leading up to CurrentPrice, oldest first.
type SceneInput struct {
	CurrentPrice float64
	History      []float64
	Forecast     *models.Forecast
	Match        *models.PrimaryMatch
	Quantiles    *models.Quantiles
}

func NewScene(width, height int, mode Mode) Scene {
	w, h := ComputeDimensions(width, height)
	return Scene{Width: w, Height: h, Margins: DefaultMargins, Mode: mode}
}

// PlotWidth is the horizontal extent between the side margins.
func (sc Scene) PlotWidth() float64 {
	return float64(sc.Width) - sc.Margins.Left - sc.Margins.Right
}

// AnchorX is where history ends and the forecast zone starts.
func (sc Scene) AnchorX() float64 {
	right := float64(sc.Width) - sc.Margins.Right
	if sc.Mode == ModeArrow {
		return right - arrowReserve
	}
	return right - math.Min(sc.PlotWidth()*zoneShare, zoneMaxWidth)
}

// Geometry builds the render geometry with a linear price scale covering
// every price in the frame plus padding.
func (sc Scene) Geometry(in SceneInput) Geometry {
	lo, hi := priceRange(sc.Mode, in)
	top := sc.Margins.Top
	plotH := float64(sc.Height) - sc.Margins.Top - sc.Margins.Bottom
	span := hi - lo

	return Geometry{
		AnchorX:      sc.AnchorX(),
		PlotWidth:    sc.PlotWidth(),
		MarginTop:    sc.Margins.Top,
		MarginBottom: sc.Margins.Bottom,
		CanvasHeight: float64(sc.Height),
		PriceToY: func(p float64) float64 {
			return top + (hi-p)/span*plotH
		},
	}
}

func priceRange(mode Mode, in SceneInput) (float64, float64) {
	lo, hi := in.CurrentPrice, in.CurrentPrice
	extend := func(ps []float64) {
		for _, p := range ps {
			lo = math.Min(lo, p)
			hi = math.Max(hi, p)
		}
	}
	extend(in.History)
	if mode == ModeHybrid && in.Forecast != nil {
		extend(in.Forecast.PricePath)
		if in.Match != nil {
			n := len(in.Match.ReplayPath)
			if h := len(in.Forecast.PricePath); n > h {
				n = h
			}
			extend(in.Match.ReplayPath[:n])
		}
	}

	span := hi - lo
	if span <= 0 {
		span = math.Max(math.Abs(hi)*0.02, 1)
	}
	return lo - span*pricePadding, hi + span*pricePadding
}

// Compose paints the frame onto s.
func (sc Scene) Compose(s canvas.Surface, in SceneInput) Geometry {
	g := sc.Geometry(in)

	canvas.Scoped(s, func() {
		s.SetFillColor(colorWhite)
		s.BeginPath()
		canvas.Rect(s, 0, 0, float64(sc.Width), float64(sc.Height))
		s.Fill()
	})
	canvas.Scoped(s, func() { sc.drawHistory(s, g, in) })

	switch sc.Mode {
	case ModeArrow:
		DrawArrow(s, in.Quantiles, in.CurrentPrice, g)
	default:
		DrawHybridForecast(s, in.Forecast, in.Match, in.CurrentPrice, g)
	}
	return g
}

func (sc Scene) drawHistory(s canvas.Surface, g Geometry, in SceneInput) {
	n := len(in.History)
	if n == 0 {
		return
	}
	left := sc.Margins.Left
	step := (g.AnchorX - left) / float64(n)

	pts := make([]spline.Point, 0, n+1)
	for i, p := range in.History {
		pts = append(pts, spline.Point{X: left + float64(i)*step, Y: g.PriceToY(p)})
	}
	pts = append(pts, spline.Point{X: g.AnchorX, Y: g.PriceToY(in.CurrentPrice)})

	s.SetStrokeColor(colorHistory)
	s.SetLineWidth(1.5)
	s.BeginPath()
	s.MoveTo(pts[0].X, pts[0].Y)
	for _, p := range pts[1:] {
		s.LineTo(p.X, p.Y)
	}
	s.Stroke()
}
