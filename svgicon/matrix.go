package svgicon

import (
	"math"

	"golang.org/x/image/math/fixed"
)

// Matrix2D represents an SVG style matrix
//
//	| A C E |
//	| B D F |
//	| 0 0 1 |
type Matrix2D struct {
	A, B, C, D, E, F float64
}

// Identity is the identity matrix
var Identity = Matrix2D{1, 0, 0, 1, 0, 0}

// Transform multiples the input vector by matrix m and outputs the results vector
// components.
func (m Matrix2D) Transform(x1, y1 float64) (x2, y2 float64) {
	x2 = x1*m.A + y1*m.C + m.E
	y2 = x1*m.B + y1*m.D + m.F
	return
}

// TransformVector is a modidifed version of Transform that ignores the
// translation components.
func (m Matrix2D) TransformVector(x1, y1 float64) (x2, y2 float64) {
	x2 = x1*m.A + y1*m.C
	y2 = x1*m.B + y1*m.D
	return
}

// TFixed transforms a fixed.Point26_6 by the matrix
func (m Matrix2D) TFixed(a fixed.Point26_6) (b fixed.Point26_6) {
	x, y := m.Transform(float64(a.X)/64, float64(a.Y)/64)
	return fixed.Point26_6{X: fixed.Int26_6(x * 64), Y: fixed.Int26_6(y * 64)}
}

// Scale matrix in x and y dimensions
func (m Matrix2D) Scale(x, y float64) Matrix2D {
	return m.Mult(Matrix2D{A: x, D: y})
}

// SkewY skews the matrix in the Y dimension
func (m Matrix2D) SkewY(theta float64) Matrix2D {
	return m.Mult(Matrix2D{A: 1, B: math.Tan(theta), D: 1})
}

// SkewX skews the matrix in the X dimension
func (m Matrix2D) SkewX(theta float64) Matrix2D {
	return m.Mult(Matrix2D{A: 1, C: math.Tan(theta), D: 1})
}

// Translate translates the matrix to the x , y point
func (m Matrix2D) Translate(x, y float64) Matrix2D {
	return m.Mult(Matrix2D{A: 1, D: 1, E: x, F: y})
}

// Rotate rotate the matrix by theta
func (m Matrix2D) Rotate(theta float64) Matrix2D {
	s, c := math.Sincos(theta)
	return m.Mult(Matrix2D{A: c, B: s, C: -s, D: c})
}

// Mult multiplies m by b and returns the result.
func (m Matrix2D) Mult(b Matrix2D) Matrix2D {
	return Matrix2D{
		A: m.A*b.A + m.C*b.B,
		B: m.B*b.A + m.D*b.B,
		C: m.A*b.C + m.C*b.D,
		D: m.B*b.C + m.D*b.D,
		E: m.A*b.E + m.C*b.F + m.E,
		F: m.B*b.E + m.D*b.F + m.F,
	}
}

// Invert returns the inverse matrix
func (m Matrix2D) Invert() Matrix2D {
	d := m.A*m.D - m.B*m.C
	return Matrix2D{
		A: m.D / d,
		B: -m.B / d,
		C: -m.C / d,
		D: m.A / d,
		E: (m.C*m.F - m.D*m.E) / d,
		F: (m.B*m.E - m.A*m.F) / d,
	}
}

// scaleFactor is the mean dilatation of the matrix,
// used to size strokes and fonts.
func (m Matrix2D) scaleFactor() float64 {
	return math.Sqrt(math.Abs(m.A*m.D - m.B*m.C))
}
