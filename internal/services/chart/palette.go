package chart

import (
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/Shillmaster/JJcbjee/pkg/canvas"
)

var (
	colorBullish = canvas.Hex("#22c55e")
	colorBearish = canvas.Hex("#ef4444")
	colorNeutral = canvas.Hex("#9ca3af")
	colorReplay  = canvas.Hex("#8b5cf6")
	colorLegend  = canvas.Hex("#444444")
	colorMuted   = canvas.Hex("#888888")
	colorHistory = canvas.Hex("#64748b")
	colorWhite   = canvas.Hex("#ffffff")
)

// SeriesStyle is the visual channel of one forecast path.
type SeriesStyle struct {
	Name  string
	Color drawing.Color
	// Halo is stroked underneath, HaloSpread pixels wider.
	Halo       drawing.Color
	HaloSpread float64
	Width      float64
	Dash       []float64
}

var (
	SyntheticStyle = SeriesStyle{
		Name:       "Synthetic",
		Color:      colorBullish,
		Halo:       canvas.RGBA(22, 163, 74, 0.25),
		HaloSpread: 4,
		Width:      2.5,
	}
	ReplayStyle = SeriesStyle{
		Name:       "Replay",
		Color:      colorReplay,
		Halo:       canvas.RGBA(139, 92, 246, 0.2),
		HaloSpread: 3,
		Width:      2,
		Dash:       []float64{6, 4},
	}
)
