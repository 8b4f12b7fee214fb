package canvas

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	"github.com/golang/freetype/truetype"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// RasterOption configures Raster.
type RasterOption func(*RasterConfig)

// RasterConfig holds raster surface configuration.
type RasterConfig struct {
	Font       *truetype.Font
	DPI        float64
	Background color.Color
}

// WithFont overrides the go-chart default font.
func WithFont(f *truetype.Font) RasterOption {
	return func(c *RasterConfig) {
		c.Font = f
	}
}

// WithDPI sets text DPI. At 72 DPI font sizes are in pixels.
func WithDPI(dpi float64) RasterOption {
	return func(c *RasterConfig) {
		if dpi > 0 {
			c.DPI = dpi
		}
	}
}

// WithBackground sets the initial fill color.
func WithBackground(bg color.Color) RasterOption {
	return func(c *RasterConfig) {
		c.Background = bg
	}
}

// Raster is a Surface backed by an RGBA image.
type Raster struct {
	*drawing.RasterGraphicContext
	img *image.RGBA
}

// NewRaster allocates a width x height image and a graphic context on it.
func NewRaster(width, height int, opts ...RasterOption) (*Raster, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("raster size %dx%d invalid", width, height)
	}

	cfg := &RasterConfig{
		DPI:        72,
		Background: color.White,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Font == nil {
		f, err := chart.GetDefaultFont()
		if err != nil {
			return nil, fmt.Errorf("load default font: %w", err)
		}
		cfg.Font = f
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	if cfg.Background != nil {
		draw.Draw(img, img.Bounds(), image.NewUniform(cfg.Background), image.Point{}, draw.Src)
	}

	gc, err := drawing.NewRasterGraphicContext(img)
	if err != nil {
		return nil, fmt.Errorf("raster context: %w", err)
	}
	gc.SetDPI(cfg.DPI)
	gc.SetFont(cfg.Font)

	return &Raster{RasterGraphicContext: gc, img: img}, nil
}

// Image returns the backing image.
func (r *Raster) Image() *image.RGBA {
	return r.img
}

// EncodePNG writes the current frame as PNG.
func (r *Raster) EncodePNG(w io.Writer) error {
	if err := png.Encode(w, r.img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

var _ Surface = (*Raster)(nil)
