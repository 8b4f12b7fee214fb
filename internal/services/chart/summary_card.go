package chart

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/Shillmaster/JJcbjee/internal/domain/models"
	"github.com/Shillmaster/JJcbjee/internal/services/signal"
)

const (
	cardPad    = 8
	cardMargin = 10
	cardLineH  = 16
)

var (
	cardBackground = color.RGBA{R: 255, G: 255, B: 255, A: 230}
	cardBorder     = color.RGBA{R: 0, G: 0, B: 0, A: 40}
	cardText       = color.RGBA{R: 0x44, G: 0x44, B: 0x44, A: 255}
	bandColors     = map[signal.Band]color.RGBA{
		signal.BandStrong: {R: 0x16, G: 0xa3, B: 0x4a, A: 255},
		signal.BandFair:   {R: 0xd9, G: 0x77, B: 0x06, A: 255},
		signal.BandWeak:   {R: 0xdc, G: 0x26, B: 0x26, A: 255},
	}
	actionColors = map[models.TimingAction]color.RGBA{
		models.ActionEnter: {R: 0x16, G: 0xa3, B: 0x4a, A: 255},
		models.ActionExit:  {R: 0xdc, G: 0x26, B: 0x26, A: 255},
		models.ActionWait:  {R: 0x6b, G: 0x72, B: 0x80, A: 255},
	}
)

// CardBounds is the rectangle DrawSummaryCard fills in the top-right corner
// of an image with the given bounds.
func CardBounds(b image.Rectangle, sum signal.Summary) image.Rectangle {
	face := basicfont.Face7x13
	widest := 0
	for _, line := range sum.Lines() {
		if w := font.MeasureString(face, line).Ceil(); w > widest {
			widest = w
		}
	}
	w := widest + 2*cardPad
	h := len(sum.Lines())*cardLineH + 2*cardPad
	x1 := b.Max.X - cardMargin
	return image.Rect(x1-w, b.Min.Y+cardMargin, x1, b.Min.Y+cardMargin+h)
}

// DrawSummaryCard stamps the signal summary onto dst with a 7x13 bitmap font.
// The confidence row takes its band color and the timing row its action color.
func DrawSummaryCard(dst draw.Image, sum signal.Summary) {
	if dst == nil {
		return
	}
	rect := CardBounds(dst.Bounds(), sum)
	if !rect.In(dst.Bounds()) {
		rect = rect.Intersect(dst.Bounds())
	}
	if rect.Empty() {
		return
	}

	draw.Draw(dst, rect, image.NewUniform(cardBackground), image.Point{}, draw.Over)
	drawFrame(dst, rect, cardBorder)

	face := basicfont.Face7x13
	ascent := face.Metrics().Ascent.Ceil()
	x := rect.Min.X + cardPad
	y := rect.Min.Y + cardPad + ascent

	const confidenceRow, actionRow = 5, 9
	for i, line := range sum.Lines() {
		col := cardText
		switch i {
		case confidenceRow:
			col = bandColors[sum.Band]
		case actionRow:
			col = actionColors[sum.Action]
		}
		d := &font.Drawer{
			Dst:  dst,
			Src:  image.NewUniform(col),
			Face: face,
			Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y + i*cardLineH)},
		}
		d.DrawString(line)
	}
}

func drawFrame(dst draw.Image, r image.Rectangle, c color.Color) {
	src := image.NewUniform(c)
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1),
		image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+1, r.Max.Y),
		image.Rect(r.Max.X-1, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(dst, e, src, image.Point{}, draw.Over)
	}
}
