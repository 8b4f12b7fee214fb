// Package spline builds Catmull-Rom curves as cubic Bézier segments.
package spline

// Point is a pixel-space coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Segment is one cubic Bézier piece between two consecutive control points.
type Segment struct {
	From Point `json:"from"`
	C1   Point `json:"c1"`
	C2   Point `json:"c2"`
	To   Point `json:"to"`
}

// At evaluates the segment at u in [0,1].
func (s Segment) At(u float64) Point {
	v := 1 - u
	a := v * v * v
	b := 3 * v * v * u
	c := 3 * v * u * u
	d := u * u * u
	return Point{
		X: a*s.From.X + b*s.C1.X + c*s.C2.X + d*s.To.X,
		Y: a*s.From.Y + b*s.C1.Y + c*s.C2.Y + d*s.To.Y,
	}
}

// PathBuilder receives the traced curve. canvas.Surface satisfies it.
type PathBuilder interface {
	MoveTo(x, y float64)
	CubicCurveTo(cx1, cy1, cx2, cy2, x, y float64)
}

// Curve is an interpolating spline through an ordered set of points.
type Curve struct {
	points   []Point
	segments []Segment
}

// New builds the curve. The input slice is copied.
func New(points []Point) Curve {
	pts := append([]Point(nil), points...)
	return Curve{points: pts, segments: segments(pts)}
}

// segments converts points to Bézier pieces using the uniform Catmull-Rom
// tangents (p[i+1]-p[i-1])/2, which become control offsets of 1/6.
// Missing neighbours at either end are cloned from the nearest real point.
func segments(pts []Point) []Segment {
	if len(pts) < 2 {
		return nil
	}
	out := make([]Segment, 0, len(pts)-1)
	for i := 0; i < len(pts)-1; i++ {
		p1, p2 := pts[i], pts[i+1]
		p0 := p1
		if i > 0 {
			p0 = pts[i-1]
		}
		p3 := p2
		if i+2 < len(pts) {
			p3 = pts[i+2]
		}
		out = append(out, Segment{
			From: p1,
			C1:   Point{X: p1.X + (p2.X-p0.X)/6, Y: p1.Y + (p2.Y-p0.Y)/6},
			C2:   Point{X: p2.X - (p3.X-p1.X)/6, Y: p2.Y - (p3.Y-p1.Y)/6},
			To:   p2,
		})
	}
	return out
}

// Points returns a copy of the control points.
func (c Curve) Points() []Point { return append([]Point(nil), c.points...) }

// Segments returns the Bézier pieces; empty when fewer than two points.
func (c Curve) Segments() []Segment { return append([]Segment(nil), c.segments...) }

// Drawable reports whether the curve has anything to stroke.
func (c Curve) Drawable() bool { return len(c.segments) > 0 }

// Last returns the final control point.
func (c Curve) Last() (Point, bool) {
	if len(c.points) == 0 {
		return Point{}, false
	}
	return c.points[len(c.points)-1], true
}

// Sample evaluates the curve at parameter t, where integer t lands exactly on
// control point t. Values outside [0, n-1] are rejected rather than extrapolated.
func (c Curve) Sample(t float64) (Point, bool) {
	n := len(c.points)
	if n == 0 || t < 0 || t > float64(n-1) {
		return Point{}, false
	}
	if n == 1 {
		return c.points[0], true
	}
	i := int(t)
	if i >= len(c.segments) {
		return c.points[n-1], true
	}
	return c.segments[i].At(t - float64(i)), true
}

// Trace emits the curve onto b. It returns false and emits nothing when the
// curve has fewer than two points.
func (c Curve) Trace(b PathBuilder) bool {
	if !c.Drawable() {
		return false
	}
	b.MoveTo(c.points[0].X, c.points[0].Y)
	for _, s := range c.segments {
		b.CubicCurveTo(s.C1.X, s.C1.Y, s.C2.X, s.C2.Y, s.To.X, s.To.Y)
	}
	return true
}
