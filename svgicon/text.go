package svgicon

import (
	"encoding/xml"
	"strings"
)

// TextAnchor is the horizontal alignment of a text run
// relative to its position.
type TextAnchor uint8

const (
	AnchorStart TextAnchor = iota
	AnchorMiddle
	AnchorEnd
)

// FontOptions holds the font related properties of a style.
type FontOptions struct {
	Size         float64 // in user units
	Bold, Italic bool
	Anchor       TextAnchor
	Family       string // as found in the file, may be a list
}

// SvgText is a piece of text found in a <text> or <tspan> element,
// with its position in user space.
type SvgText struct {
	X, Y    float64
	Content string
	Style   PathStyle

	order int // number of paths drawn before this text
}

// TextRun is a text ready to be painted, in device space.
type TextRun struct {
	Text         string
	X, Y         float64 // position of the baseline start, before anchoring
	Size         float64
	Anchor       TextAnchor
	Bold, Italic bool
	Family       string
	Color        PlainColor
	Opacity      float64
}

// TextDriver may be implemented by a Driver supporting text.
// Drivers without it simply skip the texts.
type TextDriver interface {
	DrawText(run TextRun)
}

// firstCoordinate returns the first value of a coordinate list such as "10 20 30".
func (c *iconCursor) firstCoordinate(v string, asPerc percentageReference) (float64, error) {
	fields := splitOnCommaOrSpace(v)
	if len(fields) == 0 {
		return 0, nil
	}
	return c.parseUnit(fields[0], asPerc)
}

// readTextPosition returns the x, y, dx, dy attributes,
// and whether an absolute position was given.
func (c *iconCursor) readTextPosition(attrs []xml.Attr) (x, y, dx, dy float64, absX, absY bool, err error) {
	for _, attr := range attrs {
		switch attr.Name.Local {
		case "x":
			absX = true
			x, err = c.firstCoordinate(attr.Value, widthPercentage)
		case "y":
			absY = true
			y, err = c.firstCoordinate(attr.Value, heightPercentage)
		case "dx":
			dx, err = c.firstCoordinate(attr.Value, widthPercentage)
		case "dy":
			dy, err = c.firstCoordinate(attr.Value, heightPercentage)
		}
		if err != nil {
			return
		}
	}
	return
}

func textF(c *iconCursor, attrs []xml.Attr) error {
	x, y, dx, dy, _, _, err := c.readTextPosition(attrs)
	if err != nil {
		return err
	}
	c.inText = true
	c.textStart = len(c.icon.Texts)
	c.icon.Texts = append(c.icon.Texts, SvgText{
		X: x + dx, Y: y + dy,
		Style: c.currentStyle(),
		order: len(c.icon.SVGPaths),
	})
	return nil
}

// tspanF starts a new run when the span is positioned or styled
// differently; unpositioned spans continue after the previous run.
func tspanF(c *iconCursor, attrs []xml.Attr) error {
	if !c.inText || len(c.icon.Texts) == 0 {
		return nil
	}
	x, y, dx, dy, absX, absY, err := c.readTextPosition(attrs)
	if err != nil {
		return err
	}
	prev := c.icon.Texts[len(c.icon.Texts)-1]
	if !absX {
		x = prev.X
	}
	if !absY {
		y = prev.Y
	}
	if !absX && !absY && dx == 0 && dy == 0 {
		// inline span: keep accumulating into the previous run
		return nil
	}
	c.icon.Texts = append(c.icon.Texts, SvgText{
		X: x + dx, Y: y + dy,
		Style: c.currentStyle(),
		order: len(c.icon.SVGPaths),
	})
	return nil
}

// endText normalizes the white space of the runs of the
// text element just closed, and drops the empty ones.
func (c *iconCursor) endText() {
	c.inText = false
	if c.textStart > len(c.icon.Texts) {
		return
	}
	kept := c.icon.Texts[:c.textStart]
	for _, t := range c.icon.Texts[c.textStart:] {
		t.Content = strings.Join(strings.Fields(t.Content), " ")
		if t.Content != "" {
			kept = append(kept, t)
		}
	}
	c.icon.Texts = kept
}

// textRun resolves the style of the text against the transform `t`.
// It returns false if the text is not painted.
func (st *SvgText) textRun(t Matrix2D, opacity float64) (TextRun, bool) {
	var col PlainColor
	switch p := st.Style.FillerColor.(type) {
	case PlainColor:
		col = p
	case Gradient:
		col = p.ApproxColor()
	default:
		return TextRun{}, false
	}
	m := t.Mult(st.Style.transform)
	x, y := m.Transform(st.X, st.Y)
	return TextRun{
		Text:    st.Content,
		X:       x,
		Y:       y,
		Size:    st.Style.Font.Size * m.scaleFactor(),
		Anchor:  st.Style.Font.Anchor,
		Bold:    st.Style.Font.Bold,
		Italic:  st.Style.Font.Italic,
		Family:  st.Style.Font.Family,
		Color:   col,
		Opacity: st.Style.FillOpacity * opacity,
	}, true
}
