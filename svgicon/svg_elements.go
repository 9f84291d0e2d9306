package svgicon

import (
	"encoding/xml"
	"errors"
	"strings"
)

func init() {
	// avoids cyclical static declaration
	// called on package initialization
	drawFuncs["use"] = useF
}

type svgFunc func(c *iconCursor, attrs []xml.Attr) error

var drawFuncs = map[string]svgFunc{
	"svg":            svgF,
	"g":              gF,
	"a":              gF, // links are plain groups here
	"switch":         gF,
	"line":           lineF,
	"stop":           stopF,
	"rect":           rectF,
	"circle":         circleF,
	"ellipse":        circleF, //circleF handles ellipse also
	"polyline":       polylineF,
	"polygon":        polygonF,
	"path":           pathF,
	"desc":           descF,
	"defs":           defsF,
	"title":          titleF,
	"text":           textF,
	"tspan":          tspanF,
	"linearGradient": linearGradientF,
	"radialGradient": radialGradientF,
}

func svgF(c *iconCursor, attrs []xml.Attr) error {
	c.icon.ViewBox = Bounds{}
	var width, height float64
	var err error
	for _, attr := range attrs {
		switch attr.Name.Local {
		case "viewBox":
			err = c.getPoints(attr.Value)
			if len(c.points) != 4 {
				return errParamMismatch
			}
			c.icon.ViewBox = Bounds{X: c.points[0], Y: c.points[1], W: c.points[2], H: c.points[3]}
		case "width":
			c.icon.Width = attr.Value
			width, _ = absoluteLength(attr.Value)
		case "height":
			c.icon.Height = attr.Value
			height, _ = absoluteLength(attr.Value)
		}
		if err != nil {
			return err
		}
	}
	if c.icon.ViewBox.W == 0 {
		c.icon.ViewBox.W = width
	}
	if c.icon.ViewBox.H == 0 {
		c.icon.ViewBox.H = height
	}
	return nil
}

func gF(*iconCursor, []xml.Attr) error { return nil } // g does nothing but push the style

func rectF(c *iconCursor, attrs []xml.Attr) error {
	var x, y, w, h, rx, ry float64
	var err error
	var hasRx, hasRy bool
	for _, attr := range attrs {
		switch attr.Name.Local {
		case "x":
			x, err = c.parseUnit(attr.Value, widthPercentage)
		case "y":
			y, err = c.parseUnit(attr.Value, heightPercentage)
		case "width":
			w, err = c.parseUnit(attr.Value, widthPercentage)
		case "height":
			h, err = c.parseUnit(attr.Value, heightPercentage)
		case "rx":
			hasRx = true
			rx, err = c.parseUnit(attr.Value, widthPercentage)
		case "ry":
			hasRy = true
			ry, err = c.parseUnit(attr.Value, heightPercentage)
		}
		if err != nil {
			return err
		}
	}
	if w == 0 || h == 0 {
		return nil
	}
	// a single radius applies to both axis
	if hasRx && !hasRy {
		ry = rx
	} else if hasRy && !hasRx {
		rx = ry
	}
	c.path.addRoundRect(x, y, w+x, h+y, rx, ry, 0)
	return nil
}

func circleF(c *iconCursor, attrs []xml.Attr) error {
	var cx, cy, rx, ry float64
	var err error
	for _, attr := range attrs {
		switch attr.Name.Local {
		case "cx":
			cx, err = c.parseUnit(attr.Value, widthPercentage)
		case "cy":
			cy, err = c.parseUnit(attr.Value, heightPercentage)
		case "r":
			rx, err = c.parseUnit(attr.Value, diagPercentage)
			ry = rx
		case "rx":
			rx, err = c.parseUnit(attr.Value, widthPercentage)
		case "ry":
			ry, err = c.parseUnit(attr.Value, heightPercentage)
		}
		if err != nil {
			return err
		}
	}
	if rx == 0 || ry == 0 { // not drawn, but not an error
		return nil
	}
	c.ellipseAt(cx, cy, rx, ry)
	return nil
}

func lineF(c *iconCursor, attrs []xml.Attr) error {
	var x1, x2, y1, y2 float64
	var err error
	for _, attr := range attrs {
		switch attr.Name.Local {
		case "x1":
			x1, err = c.parseUnit(attr.Value, widthPercentage)
		case "x2":
			x2, err = c.parseUnit(attr.Value, widthPercentage)
		case "y1":
			y1, err = c.parseUnit(attr.Value, heightPercentage)
		case "y2":
			y2, err = c.parseUnit(attr.Value, heightPercentage)
		}
		if err != nil {
			return err
		}
	}
	c.path.Start(toFixedP(x1, y1))
	c.path.Line(toFixedP(x2, y2))
	return nil
}

func polylineF(c *iconCursor, attrs []xml.Attr) error {
	c.points = c.points[:0]
	for _, attr := range attrs {
		if attr.Name.Local != "points" {
			continue
		}
		if err := c.getPoints(attr.Value); err != nil {
			return err
		}
		if len(c.points)%2 != 0 {
			return errors.New("polygon has odd number of points")
		}
	}
	if len(c.points) >= 4 {
		c.path.Start(toFixedP(c.points[0], c.points[1]))
		for i := 2; i < len(c.points)-1; i += 2 {
			c.path.Line(toFixedP(c.points[i], c.points[i+1]))
		}
	}
	return nil
}

func polygonF(c *iconCursor, attrs []xml.Attr) error {
	err := polylineF(c, attrs)
	if len(c.points) >= 4 {
		c.path.Stop(true)
	}
	return err
}

func pathF(c *iconCursor, attrs []xml.Attr) error {
	for _, attr := range attrs {
		if attr.Name.Local == "d" {
			if err := c.compilePath(attr.Value); err != nil {
				return err
			}
		}
	}
	return nil
}

func descF(c *iconCursor, attrs []xml.Attr) error {
	c.inDescText = true
	c.icon.Descriptions = append(c.icon.Descriptions, "")
	return nil
}

func titleF(c *iconCursor, attrs []xml.Attr) error {
	c.inTitleText = true
	c.icon.Titles = append(c.icon.Titles, "")
	return nil
}

func defsF(c *iconCursor, attrs []xml.Attr) error {
	c.inDefs = true
	c.defsDepth = 0
	return nil
}

func linearGradientF(c *iconCursor, attrs []xml.Attr) error {
	var err error
	c.inGrad = true
	direction := Linear{0, 0, 1, 0}
	c.grad = &Gradient{Direction: direction, Bounds: c.icon.ViewBox, Matrix: Identity}
	for _, attr := range attrs {
		switch attr.Name.Local {
		case "id":
			if attr.Value == "" {
				return errZeroLengthID
			}
			c.icon.grads[attr.Value] = c.grad
		case "x1":
			direction[0], err = readFraction(attr.Value)
		case "y1":
			direction[1], err = readFraction(attr.Value)
		case "x2":
			direction[2], err = readFraction(attr.Value)
		case "y2":
			direction[3], err = readFraction(attr.Value)
		default:
			err = c.readGradAttr(attr)
		}
		if err != nil {
			return err
		}
	}
	c.grad.Direction = direction
	return nil
}

func radialGradientF(c *iconCursor, attrs []xml.Attr) error {
	c.inGrad = true
	direction := Radial{0.5, 0.5, 0.5, 0.5, 0.5, 0.5}
	c.grad = &Gradient{Direction: direction, Bounds: c.icon.ViewBox, Matrix: Identity}
	var setFx, setFy bool
	var err error
	for _, attr := range attrs {
		switch attr.Name.Local {
		case "id":
			if attr.Value == "" {
				return errZeroLengthID
			}
			c.icon.grads[attr.Value] = c.grad
		case "cx":
			direction[0], err = readFraction(attr.Value)
		case "cy":
			direction[1], err = readFraction(attr.Value)
		case "fx":
			setFx = true
			direction[2], err = readFraction(attr.Value)
		case "fy":
			setFy = true
			direction[3], err = readFraction(attr.Value)
		case "r":
			direction[4], err = readFraction(attr.Value)
		case "fr":
			direction[5], err = readFraction(attr.Value)
		default:
			err = c.readGradAttr(attr)
		}
		if err != nil {
			return err
		}
	}
	if !setFx { // set fx to cx by default
		direction[2] = direction[0]
	}
	if !setFy { // set fy to cy by default
		direction[3] = direction[1]
	}
	c.grad.Direction = direction
	return nil
}

func stopF(c *iconCursor, attrs []xml.Attr) error {
	if !c.inGrad {
		return nil
	}
	var err error
	stop := GradStop{Opacity: 1.0}
	for _, pair := range attrPairs(attrs) {
		switch pair[0] {
		case "offset":
			stop.Offset, err = readFraction(pair[1])
		case "stop-color":
			if pair[1] == "currentColor" {
				stop.StopColor = c.currentStyle().currentColor
				break
			}
			var optColor optionnalColor
			optColor, err = parseSVGColor(pair[1])
			stop.StopColor = optColor.asColor()
		case "stop-opacity":
			stop.Opacity, err = parseBasicFloat(pair[1])
		}
		if err != nil {
			return err
		}
	}
	c.grad.Stops = append(c.grad.Stops, stop)
	return nil
}

// attrPairs returns the attributes as key-value pairs, with the
// content of the style attribute expanded
func attrPairs(attrs []xml.Attr) [][2]string {
	var out [][2]string
	for _, attr := range attrs {
		if attr.Name.Local != "style" {
			out = append(out, [2]string{attr.Name.Local, strings.TrimSpace(attr.Value)})
			continue
		}
		for _, decl := range strings.Split(attr.Value, ";") {
			kv := strings.SplitN(decl, ":", 2)
			if len(kv) == 2 {
				out = append(out, [2]string{strings.TrimSpace(kv[0]), strings.TrimSpace(kv[1])})
			}
		}
	}
	return out
}

// Limits on the expansion of <use> elements.
const (
	maxUseDepth    = 32
	maxUseElements = 1 << 16
)

func useF(c *iconCursor, attrs []xml.Attr) error {
	var (
		href string
		x, y float64
		err  error
	)
	for _, attr := range attrs {
		switch attr.Name.Local {
		case "href":
			href = attr.Value
		case "x":
			x, err = c.parseUnit(attr.Value, widthPercentage)
		case "y":
			y, err = c.parseUnit(attr.Value, heightPercentage)
		}
		if err != nil {
			return err
		}
	}
	if href == "" {
		return errors.New("only use tags with href is supported")
	}
	if !strings.HasPrefix(href, "#") {
		return errors.New("only the ID CSS selector is supported")
	}
	defs, ok := c.icon.defs[href[1:]]
	if !ok {
		return errMissingID
	}
	if c.useDepth >= maxUseDepth {
		return ErrUseLimit
	}
	c.useDepth++
	defer func() { c.useDepth-- }()

	// the use position is an additional translation
	top := &c.styleStack[len(c.styleStack)-1]
	top.transform = top.transform.Translate(x, y)

	depth := len(c.styleStack)
	for _, def := range defs {
		if def.Tag == "endg" {
			c.popStyle()
			continue
		}
		if c.useElements++; c.useElements > maxUseElements {
			return ErrUseLimit
		}
		if err = c.pushStyle(def.Attrs); err != nil {
			return err
		}
		df, ok := drawFuncs[def.Tag]
		if !ok {
			if err := c.handleError("Cannot process svg element " + def.Tag); err != nil {
				return err
			}
			c.popStyle()
			continue
		}
		if err := df(c, def.Attrs); err != nil {
			return err
		}
		c.flushPath()
		if def.Tag != "g" {
			c.popStyle()
		}
	}
	// unbalanced definitions must not leak styles
	if len(c.styleStack) > depth {
		c.styleStack = c.styleStack[:depth]
	}
	c.inText = false
	return nil
}
