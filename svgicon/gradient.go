package svgicon

import (
	"encoding/xml"
	"image/color"
	"strings"
)

// GradientUnits is the type for gradient units
type GradientUnits byte

// SVG bounds paremater constants
const (
	ObjectBoundingBox GradientUnits = iota
	UserSpaceOnUse
)

// SpreadMethod is the type for spread parameters
type SpreadMethod byte

// SVG spread parameter constants
const (
	PadSpread SpreadMethod = iota
	ReflectSpread
	RepeatSpread
)

// GradStop represents a stop in an SVG 2.0 gradient
type GradStop struct {
	StopColor color.Color
	Offset    float64
	Opacity   float64
}

// Gradient holds a description of an SVG 2.0 gradient
type Gradient struct {
	Direction gradientDirecter
	Stops     []GradStop
	Bounds    Bounds
	Matrix    Matrix2D
	Spread    SpreadMethod
	Units     GradientUnits
}

// radial or linear
type gradientDirecter interface {
	isRadial() bool
}

// Linear holds x1, y1, x2, y2
type Linear [4]float64

func (Linear) isRadial() bool { return false }

// Radial holds cx, cy, fx, fy, r, fr
type Radial [6]float64

func (Radial) isRadial() bool { return true }

// ApproxColor returns a plain color standing for the gradient,
// for drivers unable to paint gradients.
// It is the stop closest to the middle of the gradient.
func (g Gradient) ApproxColor() PlainColor {
	if len(g.Stops) == 0 {
		return NewPlainColor(0, 0, 0, 0)
	}
	best := g.Stops[0]
	for _, s := range g.Stops[1:] {
		if abs(s.Offset-0.5) < abs(best.Offset-0.5) {
			best = s
		}
	}
	sc := best.StopColor
	if sc == nil {
		sc = color.Black
	}
	c := color.NRGBAModel.Convert(sc).(color.NRGBA)
	c.A = uint8(float64(c.A) * best.Opacity)
	return PlainColor{NRGBA: c}
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// readGradURL resolves a "url(#id)" reference to a gradient
// previously defined in the document.
func (c *iconCursor) readGradURL(v string, defaultColor Pattern) (grad Gradient, ok bool) {
	if !(strings.HasPrefix(v, "url(") && strings.HasSuffix(v, ")")) {
		return grad, false
	}
	urlStr := strings.Trim(strings.TrimSpace(v[4:len(v)-1]), `'"`)
	if !strings.HasPrefix(urlStr, "#") {
		return grad, false
	}
	g, ok := c.icon.grads[urlStr[1:]]
	if !ok {
		return grad, false
	}
	grad = *g
	// stops without color inherit the current one
	if plain, isPlain := defaultColor.(PlainColor); isPlain {
		stops := make([]GradStop, len(grad.Stops))
		for i, s := range grad.Stops {
			if s.StopColor == nil {
				s.StopColor = plain
			}
			stops[i] = s
		}
		grad.Stops = stops
	}
	return grad, true
}

// readGradAttr handles the attributes shared by linear and radial gradients
func (c *iconCursor) readGradAttr(attr xml.Attr) (err error) {
	switch attr.Name.Local {
	case "gradientTransform":
		c.grad.Matrix, err = c.parseTransform(Identity, attr.Value)
	case "gradientUnits":
		switch strings.TrimSpace(attr.Value) {
		case "userSpaceOnUse":
			c.grad.Units = UserSpaceOnUse
		case "objectBoundingBox":
			c.grad.Units = ObjectBoundingBox
		}
	case "spreadMethod":
		switch strings.TrimSpace(attr.Value) {
		case "pad":
			c.grad.Spread = PadSpread
		case "reflect":
			c.grad.Spread = ReflectSpread
		case "repeat":
			c.grad.Spread = RepeatSpread
		}
	case "href":
		// inherit the stops of the referenced gradient
		id := strings.TrimPrefix(strings.TrimSpace(attr.Value), "#")
		ref, ok := c.icon.grads[id]
		if !ok {
			return c.handleError("unknown gradient reference " + attr.Value)
		}
		if len(c.grad.Stops) == 0 {
			c.grad.Stops = append([]GradStop(nil), ref.Stops...)
		}
	}
	return err
}
