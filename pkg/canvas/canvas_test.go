package canvas

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/wcharczuk/go-chart/v2/drawing"
)

func TestScopedRestoresStyle(t *testing.T) {
	r := NewRecorder()
	r.SetLineWidth(1)

	Scoped(r, func() {
		r.SetLineWidth(7)
		r.SetLineDash([]float64{3, 3}, 0)
	})

	r.BeginPath()
	r.MoveTo(0, 0)
	r.LineTo(1, 1)
	r.Stroke()

	op := r.Ops()[0]
	if op.Style.LineWidth != 1 {
		t.Fatalf("line width leaked: %v", op.Style.LineWidth)
	}
	if len(op.Style.Dash) != 0 {
		t.Fatalf("dash leaked: %v", op.Style.Dash)
	}
	if r.Depth() != 0 {
		t.Fatalf("unbalanced save/restore depth=%d", r.Depth())
	}
}

func TestScopedRestoresOnPanic(t *testing.T) {
	r := NewRecorder()
	func() {
		defer func() { _ = recover() }()
		Scoped(r, func() {
			r.SetFillColor(Hex("#ff0000"))
			panic("boom")
		})
	}()
	if r.Depth() != 0 {
		t.Fatalf("restore skipped on panic, depth=%d", r.Depth())
	}
}

func TestColorString(t *testing.T) {
	if got := ColorString(Hex("#22c55e")); got != "#22c55e" {
		t.Fatalf("opaque color = %s", got)
	}
	if got := ColorString(RGBA(0, 0, 0, 0.5)); got != "#00000080" {
		t.Fatalf("translucent color = %s", got)
	}
}

func TestRecorderPaintsCurrentPath(t *testing.T) {
	r := NewRecorder()
	r.SetLineCap(drawing.RoundCap)
	r.BeginPath()
	Circle(r, 10, 10, 5)
	r.Fill()

	ops := r.Ops()
	if len(ops) != 1 || ops[0].Kind != "fill" {
		t.Fatalf("unexpected ops %+v", ops)
	}
	if ops[0].Path[0].Cmd != "A" || ops[0].Path[1].Cmd != "Z" {
		t.Fatalf("circle path = %+v", ops[0].Path)
	}
	if ops[0].Style.LineCap != "round" {
		t.Fatalf("cap = %s", ops[0].Style.LineCap)
	}

	r.BeginPath()
	r.Stroke()
	if len(r.Ops()[1].Path) != 0 {
		t.Fatalf("path not cleared after paint")
	}
}

func TestRecorderJSON(t *testing.T) {
	r := NewRecorder()
	_, _ = r.FillStringAt("NOW", 1, 2)
	b, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"text":"NOW"`) {
		t.Fatalf("json missing text op: %s", b)
	}
}

func TestFillTextCentered(t *testing.T) {
	r := NewRecorder()
	r.SetFontSize(10)
	FillTextCentered(r, "NOW", 100, 20)
	op := r.Ops()[0]
	// 3 glyphs * 6px = 18px wide
	if math.Abs(op.X-91) > 1e-9 || op.Y != 20 {
		t.Fatalf("centered text at (%v,%v)", op.X, op.Y)
	}
}

func TestNewRasterRejectsEmpty(t *testing.T) {
	if _, err := NewRaster(0, 10); err == nil {
		t.Fatalf("expected error for zero width")
	}
}
