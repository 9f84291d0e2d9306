package svgicon

import (
	"fmt"
	"strings"

	"golang.org/x/image/math/fixed"
)

// This file defines the basic path structure

// Operation groups the different SVG commands
type Operation interface {
	// add itself on the driver `d`, after aplying the transform `M`
	drawTo(d Drawer, M Matrix2D)
}

// MoveTo starts a new sub-path
type MoveTo fixed.Point26_6

// LineTo draws a straight line from the current point
type LineTo fixed.Point26_6

// QuadTo holds the control and end points of a quadratic bezier curve
type QuadTo [2]fixed.Point26_6

// CubicTo holds the two control points and the end point of a cubic bezier curve
type CubicTo [3]fixed.Point26_6

// Close joins the current point to the start of the sub-path
type Close struct{}

func (op MoveTo) drawTo(d Drawer, M Matrix2D) {
	d.Stop(false) // implicit close if currently in path.
	d.Start(M.TFixed(fixed.Point26_6(op)))
}

func (op LineTo) drawTo(d Drawer, M Matrix2D) {
	d.Line(M.TFixed(fixed.Point26_6(op)))
}

func (op QuadTo) drawTo(d Drawer, M Matrix2D) {
	d.QuadBezier(M.TFixed(op[0]), M.TFixed(op[1]))
}

func (op CubicTo) drawTo(d Drawer, M Matrix2D) {
	d.CubeBezier(M.TFixed(op[0]), M.TFixed(op[1]), M.TFixed(op[2]))
}

func (op Close) drawTo(d Drawer, _ Matrix2D) {
	d.Stop(true)
}

// Path describes a sequence of basic SVG operations, which should not be nil
// Higher-level shapes may be reduced to a path.
type Path []Operation

func fixedToF(a fixed.Int26_6) float32 { return float32(a) / 64 }

// ToSVGPath returns a string representation of the path
func (p Path) ToSVGPath() string {
	chunks := make([]string, len(p))
	for i, op := range p {
		switch op := op.(type) {
		case MoveTo:
			chunks[i] = fmt.Sprintf("M%4.3f,%4.3f", fixedToF(op.X), fixedToF(op.Y))
		case LineTo:
			chunks[i] = fmt.Sprintf("L%4.3f,%4.3f", fixedToF(op.X), fixedToF(op.Y))
		case QuadTo:
			chunks[i] = fmt.Sprintf("Q%4.3f,%4.3f,%4.3f,%4.3f", fixedToF(op[0].X), fixedToF(op[0].Y),
				fixedToF(op[1].X), fixedToF(op[1].Y))
		case CubicTo:
			chunks[i] = fmt.Sprintf("C%4.3f,%4.3f,%4.3f,%4.3f,%4.3f,%4.3f", fixedToF(op[0].X), fixedToF(op[0].Y),
				fixedToF(op[1].X), fixedToF(op[1].Y), fixedToF(op[2].X), fixedToF(op[2].Y))
		case Close:
			chunks[i] = "Z"
		}
	}
	return strings.Join(chunks, " ")
}

// String returns a readable representation of a Path.
func (p Path) String() string {
	return p.ToSVGPath()
}

// Clear zeros the path slice
func (p *Path) Clear() {
	*p = (*p)[:0]
}

// Start starts a new curve at the given point.
func (p *Path) Start(a fixed.Point26_6) {
	*p = append(*p, MoveTo(a))
}

// Line adds a linear segment to the current curve.
func (p *Path) Line(b fixed.Point26_6) {
	*p = append(*p, LineTo(b))
}

// QuadBezier adds a quadratic segment to the current curve.
func (p *Path) QuadBezier(b, c fixed.Point26_6) {
	*p = append(*p, QuadTo{b, c})
}

// CubeBezier adds a cubic segment to the current curve.
func (p *Path) CubeBezier(b, c, d fixed.Point26_6) {
	*p = append(*p, CubicTo{b, c, d})
}

// Stop joins the ends of the path
func (p *Path) Stop(closeLoop bool) {
	if closeLoop {
		*p = append(*p, Close{})
	}
}
