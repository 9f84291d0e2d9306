package svgicon

import (
	"encoding/xml"
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/math/fixed"
)

type (
	// iconCursor is used while parsing SVG files
	iconCursor struct {
		pathCursor
		icon                                    *SvgIcon
		styleStack                              []PathStyle
		grad                                    *Gradient
		inTitleText, inDescText, inGrad, inDefs bool
		inText                                  bool
		textStart                               int // index of the first run of the current text element
		currentDef                              []definition
		defsDepth                               int // nesting level inside <defs>
		skipDepth                               int // nesting level inside an ignored element
		useDepth, useElements                   int // expansion of <use> references
		errorMode                               ErrorMode
	}

	// definition is used to store what's given in a def tag
	definition struct {
		ID, Tag string
		Attrs   []xml.Attr
	}
)

// skippedElements are not rendered, and neither are their children
var skippedElements = map[string]bool{
	"clipPath":      true,
	"mask":          true,
	"filter":        true,
	"marker":        true,
	"pattern":       true,
	"style":         true,
	"script":        true,
	"metadata":      true,
	"symbol":        true,
	"foreignObject": true,
}

func fToFixed(f float64) fixed.Int26_6 {
	return fixed.Int26_6(f * 64)
}

func (c *iconCursor) currentStyle() PathStyle {
	return c.styleStack[len(c.styleStack)-1]
}

func (c *iconCursor) popStyle() {
	c.styleStack = c.styleStack[:len(c.styleStack)-1]
}

func (c *iconCursor) readTransformAttr(m1 Matrix2D, k string) (Matrix2D, error) {
	ln := len(c.points)
	switch k {
	case "rotate":
		if ln == 1 {
			m1 = m1.Rotate(c.points[0] * math.Pi / 180)
		} else if ln == 3 {
			m1 = m1.Translate(c.points[1], c.points[2]).
				Rotate(c.points[0]*math.Pi/180).
				Translate(-c.points[1], -c.points[2])
		} else {
			return m1, errParamMismatch
		}
	case "translate":
		if ln == 1 {
			m1 = m1.Translate(c.points[0], 0)
		} else if ln == 2 {
			m1 = m1.Translate(c.points[0], c.points[1])
		} else {
			return m1, errParamMismatch
		}
	case "skewx":
		if ln == 1 {
			m1 = m1.SkewX(c.points[0] * math.Pi / 180)
		} else {
			return m1, errParamMismatch
		}
	case "skewy":
		if ln == 1 {
			m1 = m1.SkewY(c.points[0] * math.Pi / 180)
		} else {
			return m1, errParamMismatch
		}
	case "scale":
		if ln == 1 {
			m1 = m1.Scale(c.points[0], c.points[0])
		} else if ln == 2 {
			m1 = m1.Scale(c.points[0], c.points[1])
		} else {
			return m1, errParamMismatch
		}
	case "matrix":
		if ln == 6 {
			m1 = m1.Mult(Matrix2D{
				A: c.points[0],
				B: c.points[1],
				C: c.points[2],
				D: c.points[3],
				E: c.points[4],
				F: c.points[5]})
		} else {
			return m1, errParamMismatch
		}
	default:
		return m1, errParamMismatch
	}
	return m1, nil
}

// parseTransform applies the transform list `v` on top of `m1`
func (c *iconCursor) parseTransform(m1 Matrix2D, v string) (Matrix2D, error) {
	ts := strings.Split(v, ")")
	for _, t := range ts {
		t = strings.TrimSpace(t)
		if len(t) == 0 {
			continue
		}
		d := strings.Split(t, "(")
		if len(d) != 2 || len(d[1]) < 1 {
			return m1, errParamMismatch // badly formed transformation
		}
		err := c.getPoints(d[1])
		if err != nil {
			return m1, err
		}
		name := strings.ToLower(strings.Trim(d[0], " \t\n\r,"))
		m1, err = c.readTransformAttr(m1, name)
		if err != nil {
			return m1, err
		}
	}
	return m1, nil
}

// readPaint resolves a fill or stroke value
func (c *iconCursor) readPaint(current Pattern, curStyle *PathStyle, v string) (Pattern, error) {
	if v == "currentColor" {
		return curStyle.currentColor, nil
	}
	if gradient, ok := c.readGradURL(v, current); ok {
		return gradient, nil
	}
	if strings.HasPrefix(v, "url(") {
		return nil, c.handleError("unresolved paint reference " + v)
	}
	col, err := parseSVGColor(v)
	if err != nil {
		return current, c.handleError("invalid paint " + v + ": " + err.Error())
	}
	return col.asPattern(), nil
}

var (
	lineGaps = map[string]GapMode{"flat": FlatGap, "round": RoundGap, "cubic": CubicGap, "quadratic": QuadraticGap}
	lineCaps = map[string]CapMode{"butt": ButtCap, "round": RoundCap, "square": SquareCap, "cubic": CubicCap, "quadratic": QuadraticCap}
	joins    = map[string]JoinMode{"miter": Miter, "miter-clip": MiterClip, "arc-clip": ArcClip, "round": Round, "arc": Arc, "bevel": Bevel}
	anchors  = map[string]TextAnchor{"start": AnchorStart, "middle": AnchorMiddle, "end": AnchorEnd}
)

func (c *iconCursor) readStyleAttr(curStyle *PathStyle, k, v string) error {
	switch k {
	case "color":
		col, err := parseSVGColor(v)
		if err != nil {
			return err
		}
		if col.valid {
			curStyle.currentColor = col.color
		}
	case "fill":
		p, err := c.readPaint(curStyle.FillerColor, curStyle, v)
		if err != nil {
			return err
		}
		curStyle.FillerColor = p
	case "stroke":
		p, err := c.readPaint(curStyle.LinerColor, curStyle, v)
		if err != nil {
			return err
		}
		curStyle.LinerColor = p
	case "fill-rule":
		curStyle.UseNonZeroWinding = v != "evenodd"
	case "stroke-linegap":
		if g, ok := lineGaps[v]; ok {
			curStyle.Join.LineGap = g
		}
	case "stroke-leadlinecap":
		if lc, ok := lineCaps[v]; ok {
			curStyle.Join.LeadLineCap = lc
		}
	case "stroke-linecap":
		if lc, ok := lineCaps[v]; ok {
			curStyle.Join.TrailLineCap = lc
		}
	case "stroke-linejoin":
		if j, ok := joins[v]; ok {
			curStyle.Join.LineJoin = j
		}
	case "stroke-miterlimit":
		mLimit, err := parseBasicFloat(v)
		if err != nil {
			return err
		}
		curStyle.Join.MiterLimit = fToFixed(mLimit)
	case "stroke-width":
		width, err := c.parseUnit(v, diagPercentage)
		if err != nil {
			return err
		}
		curStyle.LineWidth = width
	case "stroke-dashoffset":
		dashOffset, err := c.parseUnit(v, diagPercentage)
		if err != nil {
			return err
		}
		curStyle.Dash.DashOffset = dashOffset
	case "stroke-dasharray":
		if v == "none" {
			curStyle.Dash.Dash = nil
			break
		}
		dashes := splitOnCommaOrSpace(v)
		dList := make([]float64, len(dashes))
		for i, dstr := range dashes {
			d, err := c.parseUnit(dstr, diagPercentage)
			if err != nil {
				return err
			}
			dList[i] = d
		}
		curStyle.Dash.Dash = dList
	case "opacity", "stroke-opacity", "fill-opacity":
		op, err := readFraction(v)
		if err != nil {
			return err
		}
		if k != "stroke-opacity" {
			curStyle.FillOpacity *= op
		}
		if k != "fill-opacity" {
			curStyle.LineOpacity *= op
		}
	case "transform":
		m, err := c.parseTransform(curStyle.transform, v)
		if err != nil {
			return err
		}
		curStyle.transform = m
	case "font-size":
		size, err := c.parseFontSize(curStyle.Font.Size, v)
		if err != nil {
			return err
		}
		curStyle.Font.Size = size
	case "font-weight":
		curStyle.Font.Bold = isBoldWeight(v)
	case "font-style":
		curStyle.Font.Italic = v == "italic" || v == "oblique"
	case "font-family":
		curStyle.Font.Family = strings.Trim(v, `'"`)
	case "text-anchor":
		if a, ok := anchors[v]; ok {
			curStyle.Font.Anchor = a
		}
	}
	return nil
}

// pushStyle parses the style element, and push it on the style stack.
// Note that this parses both the contents of a style attribute plus
// direct presentation attributes, the style attribute taking precedence.
func (c *iconCursor) pushStyle(attrs []xml.Attr) error {
	var pairs, stylePairs []string
	for _, attr := range attrs {
		switch strings.ToLower(attr.Name.Local) {
		case "style":
			stylePairs = append(stylePairs, strings.Split(attr.Value, ";")...)
		case "color": // must be known before resolving currentColor
			pairs = append([]string{attr.Name.Local + ":" + attr.Value}, pairs...)
		default:
			pairs = append(pairs, attr.Name.Local+":"+attr.Value)
		}
	}
	pairs = append(pairs, stylePairs...)
	// Make a copy of the top style
	curStyle := c.currentStyle()
	for _, pair := range pairs {
		kv := strings.SplitN(pair, ":", 2)
		if len(kv) < 2 {
			continue
		}
		k := strings.ToLower(strings.TrimSpace(kv[0]))
		v := strings.TrimSpace(kv[1])
		if err := c.readStyleAttr(&curStyle, k, v); err != nil {
			return err
		}
	}
	c.styleStack = append(c.styleStack, curStyle) // Push style onto stack
	return nil
}

// splitOnCommaOrSpace returns a list of strings after splitting the input on comma and space delimiters
func splitOnCommaOrSpace(s string) []string {
	return strings.FieldsFunc(s,
		func(r rune) bool {
			return r == ',' || r == ' '
		})
}

// flushPath moves the path accumulated by the cursor
// into the icon, with the current style
func (c *iconCursor) flushPath() {
	if len(c.path) == 0 {
		return
	}
	pathCopy := append(Path{}, c.path...)
	c.icon.SVGPaths = append(c.icon.SVGPaths, SvgPath{Path: pathCopy, Style: c.currentStyle()})
	c.path = c.path[:0]
}

func (c *iconCursor) readStartElement(se xml.StartElement) (err error) {
	var skipDef bool
	if se.Name.Local == "radialGradient" || se.Name.Local == "linearGradient" || c.inGrad {
		skipDef = true
	}
	if c.inDefs && !skipDef {
		ID := ""
		for _, attr := range se.Attr {
			if attr.Name.Local == "id" {
				ID = attr.Value
			}
		}
		if c.defsDepth == 1 { // only top level children start a new definition
			c.storeDef()
		}
		c.currentDef = append(c.currentDef, definition{
			ID:    ID,
			Tag:   se.Name.Local,
			Attrs: se.Attr,
		})
		return nil
	}
	df, ok := drawFuncs[se.Name.Local]
	if !ok {
		return c.handleError("Cannot process svg element " + se.Name.Local)
	}
	err = df(c, se.Attr)
	c.flushPath()
	return err
}

// storeDef saves the pending definition, if any
func (c *iconCursor) storeDef() {
	if len(c.currentDef) > 0 && c.currentDef[0].ID != "" {
		c.icon.defs[c.currentDef[0].ID] = c.currentDef
	}
	c.currentDef = nil
}

func (c *iconCursor) readEndElement(se xml.EndElement) {
	c.popStyle()
	if c.inDefs && se.Name.Local != "defs" {
		if se.Name.Local == "g" && c.defsDepth > 0 && !c.inGrad {
			c.currentDef = append(c.currentDef, definition{Tag: "endg"})
		}
		c.defsDepth--
	}
	switch se.Name.Local {
	case "title":
		c.inTitleText = false
	case "desc":
		c.inDescText = false
	case "text":
		c.endText()
	case "defs":
		c.storeDef()
		c.inDefs = false
		c.defsDepth = 0
	case "radialGradient", "linearGradient":
		c.inGrad = false
	}
}

func (c *iconCursor) readCharData(data xml.CharData) {
	switch {
	case c.skipDepth > 0:
	case c.inTitleText:
		c.icon.Titles[len(c.icon.Titles)-1] += string(data)
	case c.inDescText:
		c.icon.Descriptions[len(c.icon.Descriptions)-1] += string(data)
	case c.inText && len(c.icon.Texts) > 0:
		c.icon.Texts[len(c.icon.Texts)-1].Content += string(data)
	}
}

func readFraction(v string) (f float64, err error) {
	v = strings.TrimSpace(v)
	d := 1.0
	if strings.HasSuffix(v, "%") {
		d = 100
		v = strings.TrimSuffix(v, "%")
	}
	f, err = parseBasicFloat(v)
	f /= d
	return
}

func parseBasicFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

type percentageReference uint8

const (
	widthPercentage percentageReference = iota
	heightPercentage
	diagPercentage
)

// absolute units, converted to pixels
var unitScales = [...]struct {
	suffix string
	scale  float64
}{
	{"px", 1},
	{"pt", 4. / 3},
	{"pc", 16},
	{"mm", 96 / 25.4},
	{"cm", 96 / 2.54},
	{"in", 96},
}

// convertUnit converts an absolute length to pixels
func convertUnit(s string) (float64, error) {
	s = strings.TrimSpace(s)
	for _, u := range unitScales {
		if strings.HasSuffix(s, u.suffix) {
			v, err := parseBasicFloat(strings.TrimSuffix(s, u.suffix))
			return v * u.scale, err
		}
	}
	return parseBasicFloat(s)
}

// parseUnit converts a length to pixels; percentages are
// resolved against the view box.
func (c *iconCursor) parseUnit(s string, asPerc percentageReference) (float64, error) {
	s = strings.TrimSpace(s)
	if !strings.HasSuffix(s, "%") {
		return convertUnit(s)
	}
	v, err := parseBasicFloat(strings.TrimSuffix(s, "%"))
	if err != nil {
		return 0, err
	}
	vb := c.icon.ViewBox
	var ref float64
	switch asPerc {
	case widthPercentage:
		ref = vb.W
	case heightPercentage:
		ref = vb.H
	case diagPercentage:
		ref = math.Sqrt(vb.W*vb.W+vb.H*vb.H) / math.Sqrt2
	}
	return v / 100 * ref, nil
}

// parseFontSize handles absolute sizes and sizes relative to
// the parent one
func (c *iconCursor) parseFontSize(parent float64, v string) (float64, error) {
	v = strings.TrimSpace(v)
	switch {
	case strings.HasSuffix(v, "em"):
		f, err := parseBasicFloat(strings.TrimSuffix(v, "em"))
		return f * parent, err
	case strings.HasSuffix(v, "%"):
		f, err := parseBasicFloat(strings.TrimSuffix(v, "%"))
		return f / 100 * parent, err
	}
	if size, ok := fontSizeKeywords[v]; ok {
		return size, nil
	}
	return convertUnit(v)
}

var fontSizeKeywords = map[string]float64{
	"xx-small": 9, "x-small": 10, "small": 13, "medium": 16,
	"large": 18, "x-large": 24, "xx-large": 32,
}

func isBoldWeight(v string) bool {
	switch v {
	case "bold", "bolder":
		return true
	case "normal", "lighter":
		return false
	}
	w, err := strconv.Atoi(v)
	return err == nil && w >= 600
}
