package chart

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/Shillmaster/JJcbjee/internal/domain/models"
	"github.com/Shillmaster/JJcbjee/internal/services/signal"
	"github.com/Shillmaster/JJcbjee/pkg/canvas"
)

func TestComputeDimensions(t *testing.T) {
	cases := []struct {
		w, h         int
		wantW, wantH int
	}{
		{100, 0, 320, 240},
		{960, 0, 960, 384},
		{4000, 0, 4000, 720},
		{9000, 9000, 4096, 4096},
		{800, 50, 800, 200},
	}
	for _, c := range cases {
		w, h := ComputeDimensions(c.w, c.h)
		if w != c.wantW || h != c.wantH {
			t.Errorf("ComputeDimensions(%d,%d) = %d,%d want %d,%d", c.w, c.h, w, h, c.wantW, c.wantH)
		}
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode(""); err != nil || m != ModeHybrid {
		t.Fatalf("empty mode = %v, %v", m, err)
	}
	if m, err := ParseMode("arrow"); err != nil || m != ModeArrow {
		t.Fatalf("arrow mode = %v, %v", m, err)
	}
	if _, err := ParseMode("radar"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestSceneGeometry(t *testing.T) {
	sc := NewScene(960, 400, ModeHybrid)
	in := SceneInput{
		CurrentPrice: 100,
		History:      []float64{90, 95, 98},
		Forecast:     &models.Forecast{PricePath: []float64{104, 110}},
	}
	g := sc.Geometry(in)

	if g.AnchorX != 960-16-380 {
		t.Fatalf("anchor = %v", g.AnchorX)
	}
	top, bottom := g.PriceToY(110), g.PriceToY(90)
	if top <= g.MarginTop || bottom >= g.PlotBottom() {
		t.Fatalf("prices should map inside the padded plot: %v..%v", top, bottom)
	}
	if g.PriceToY(100) <= top || g.PriceToY(100) >= bottom {
		t.Fatal("scale should be monotonic")
	}

	flat := sc.Geometry(SceneInput{CurrentPrice: 50})
	if y := flat.PriceToY(50); math.IsNaN(y) || y < flat.MarginTop || y > flat.PlotBottom() {
		t.Fatalf("flat series should map to a finite y inside the plot, got %v", y)
	}
}

func TestSceneCompose(t *testing.T) {
	for _, mode := range []Mode{ModeHybrid, ModeArrow} {
		rec := canvas.NewRecorder()
		sc := NewScene(960, 0, mode)
		sc.Compose(rec, SceneInput{
			CurrentPrice: 100,
			History:      []float64{97, 99},
			Forecast:     &models.Forecast{PricePath: []float64{101, 103}},
			Quantiles:    &models.Quantiles{P50: 0.02},
		})

		ops := rec.Ops()
		if len(ops) == 0 || ops[0].Kind != "fill" || ops[0].Style.FillColor != "#ffffff" {
			t.Fatalf("%s: first op should clear to white", mode)
		}
		history := opsOf(rec, "stroke", func(op canvas.Op) bool { return op.Style.StrokeColor == "#64748b" })
		if len(history) != 1 || countCmd(history[0], "L") != 2 {
			t.Fatalf("%s: history line missing", mode)
		}
		if rec.Depth() != 0 {
			t.Fatalf("%s: unbalanced save/restore", mode)
		}
	}
}

func TestDrawSummaryCard(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 960, 400))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	sum := signal.Summarize(models.TimingSignal{
		Bias:         models.BiasBullish,
		Confidence:   72,
		TimingAction: models.ActionEnter,
		TargetPrice:  105,
		SampleSize:   25,
		HitRate:      0.8,
		Quantiles:    models.Quantiles{P50: 0.05},
	})
	DrawSummaryCard(img, sum)

	r := CardBounds(img.Bounds(), sum)
	if !r.In(img.Bounds()) {
		t.Fatalf("card %v outside image", r)
	}
	if got := img.At(r.Min.X, r.Min.Y).(color.RGBA); got.R == 0xff {
		t.Fatalf("card border not drawn, pixel %v", got)
	}

	dark := 0
	for y := r.Min.Y + 1; y < r.Max.Y-1; y++ {
		for x := r.Min.X + 1; x < r.Max.X-1; x++ {
			if c := img.RGBAAt(x, y); c.R < 0x80 {
				dark++
			}
		}
	}
	if dark == 0 {
		t.Fatal("no text pixels drawn on the card")
	}

	DrawSummaryCard(image.NewRGBA(image.Rect(0, 0, 40, 20)), sum)
	DrawSummaryCard(nil, sum)
}
