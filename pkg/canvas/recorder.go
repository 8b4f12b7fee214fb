package canvas

import (
	"encoding/json"
	"fmt"
	"image/color"
	"math"

	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Style is the graphics state captured with each recorded operation.
type Style struct {
	StrokeColor string    `json:"strokeColor,omitempty"`
	FillColor   string    `json:"fillColor,omitempty"`
	LineWidth   float64   `json:"lineWidth,omitempty"`
	Dash        []float64 `json:"dash,omitempty"`
	LineCap     string    `json:"lineCap,omitempty"`
	LineJoin    string    `json:"lineJoin,omitempty"`
	FontSize    float64   `json:"fontSize,omitempty"`
}

// PathCmd is one path-building command.
type PathCmd struct {
	Cmd  string    `json:"cmd"`
	Args []float64 `json:"args,omitempty"`
}

// Op is one painted operation: a stroke, a fill or a text draw.
type Op struct {
	Kind  string    `json:"kind"`
	Style Style     `json:"style"`
	Path  []PathCmd `json:"path,omitempty"`
	Text  string    `json:"text,omitempty"`
	X     float64   `json:"x,omitempty"`
	Y     float64   `json:"y,omitempty"`
}

// Recorder is a Surface that keeps the painted operations instead of pixels.
// It is used for the JSON "ops" output and as a test double.
type Recorder struct {
	state    Style
	stack    []Style
	path     []PathCmd
	ops      []Op
	saves    int
	maxDepth int
}

// NewRecorder returns an empty recorder with canvas defaults.
func NewRecorder() *Recorder {
	return &Recorder{
		state: Style{
			StrokeColor: "#000000",
			FillColor:   "#000000",
			LineWidth:   1,
			LineCap:     "butt",
			LineJoin:    "miter",
			FontSize:    10,
		},
	}
}

// Ops returns the recorded operations in paint order.
func (r *Recorder) Ops() []Op { return r.ops }

// Depth is the number of unmatched Save calls.
func (r *Recorder) Depth() int { return len(r.stack) }

// MaxDepth is the deepest Save nesting seen.
func (r *Recorder) MaxDepth() int { return r.maxDepth }

// Saves is the total number of Save calls.
func (r *Recorder) Saves() int { return r.saves }

// MarshalJSON encodes the operation list.
func (r *Recorder) MarshalJSON() ([]byte, error) {
	ops := r.ops
	if ops == nil {
		ops = []Op{}
	}
	return json.Marshal(struct {
		Ops []Op `json:"ops"`
	}{Ops: ops})
}

func (r *Recorder) Save() {
	cp := r.state
	cp.Dash = append([]float64(nil), r.state.Dash...)
	r.stack = append(r.stack, cp)
	r.saves++
	if len(r.stack) > r.maxDepth {
		r.maxDepth = len(r.stack)
	}
}

func (r *Recorder) Restore() {
	if len(r.stack) == 0 {
		return
	}
	r.state = r.stack[len(r.stack)-1]
	r.stack = r.stack[:len(r.stack)-1]
}

func (r *Recorder) BeginPath() { r.path = nil }

func (r *Recorder) MoveTo(x, y float64) {
	r.path = append(r.path, PathCmd{Cmd: "M", Args: []float64{x, y}})
}

func (r *Recorder) LineTo(x, y float64) {
	r.path = append(r.path, PathCmd{Cmd: "L", Args: []float64{x, y}})
}

func (r *Recorder) CubicCurveTo(cx1, cy1, cx2, cy2, x, y float64) {
	r.path = append(r.path, PathCmd{Cmd: "C", Args: []float64{cx1, cy1, cx2, cy2, x, y}})
}

func (r *Recorder) ArcTo(cx, cy, rx, ry, startAngle, angle float64) {
	r.path = append(r.path, PathCmd{Cmd: "A", Args: []float64{cx, cy, rx, ry, startAngle, angle}})
}

func (r *Recorder) Close() {
	r.path = append(r.path, PathCmd{Cmd: "Z"})
}

func (r *Recorder) SetStrokeColor(c color.Color) { r.state.StrokeColor = ColorString(c) }
func (r *Recorder) SetFillColor(c color.Color)   { r.state.FillColor = ColorString(c) }
func (r *Recorder) SetLineWidth(w float64)       { r.state.LineWidth = w }
func (r *Recorder) SetFontSize(size float64)     { r.state.FontSize = size }

func (r *Recorder) SetLineDash(dash []float64, _ float64) {
	r.state.Dash = append([]float64(nil), dash...)
}

func (r *Recorder) SetLineCap(c drawing.LineCap) {
	switch c {
	case drawing.RoundCap:
		r.state.LineCap = "round"
	case drawing.SquareCap:
		r.state.LineCap = "square"
	default:
		r.state.LineCap = "butt"
	}
}

func (r *Recorder) SetLineJoin(j drawing.LineJoin) {
	switch j {
	case drawing.RoundJoin:
		r.state.LineJoin = "round"
	case drawing.BevelJoin:
		r.state.LineJoin = "bevel"
	default:
		r.state.LineJoin = "miter"
	}
}

// GetStringBounds approximates glyph metrics: 0.6em advance, 0.75em ascent.
func (r *Recorder) GetStringBounds(s string) (left, top, right, bottom float64, err error) {
	em := r.state.FontSize
	n := float64(len([]rune(s)))
	return 0, -0.75 * em, n * em * 0.6, 0.25 * em, nil
}

func (r *Recorder) FillStringAt(text string, x, y float64) (float64, error) {
	r.ops = append(r.ops, Op{Kind: "text", Style: r.snapshot(), Text: text, X: x, Y: y})
	_, _, right, _, _ := r.GetStringBounds(text)
	return right, nil
}

func (r *Recorder) Stroke(paths ...*drawing.Path) {
	r.paint("stroke")
}

func (r *Recorder) Fill(paths ...*drawing.Path) {
	r.paint("fill")
}

func (r *Recorder) paint(kind string) {
	r.ops = append(r.ops, Op{Kind: kind, Style: r.snapshot(), Path: r.path})
	r.path = nil
}

func (r *Recorder) snapshot() Style {
	cp := r.state
	cp.Dash = append([]float64(nil), r.state.Dash...)
	return cp
}

// ColorString renders c as "#rrggbb", or "#rrggbbaa" when translucent.
func ColorString(c color.Color) string {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	if dc, ok := c.(drawing.Color); ok {
		n = color.NRGBA{R: dc.R, G: dc.G, B: dc.B, A: dc.A}
	}
	if n.A == math.MaxUint8 {
		return fmt.Sprintf("#%02x%02x%02x", n.R, n.G, n.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", n.R, n.G, n.B, n.A)
}

var _ Surface = (*Recorder)(nil)
