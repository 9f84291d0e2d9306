package svgicon

import (
	"errors"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// Pattern groups a basic color and a gradient pattern
// A nil value may by used to indicated that the pattern is disabled
type Pattern interface {
	isPattern()
}

func (PlainColor) isPattern() {}
func (Gradient) isPattern()   {}

// PlainColor is a simple color, implementing color.Color
type PlainColor struct {
	color.NRGBA
}

// NewPlainColor returns a PlainColor from the 4 channels.
func NewPlainColor(r, g, b, a uint8) PlainColor {
	return PlainColor{NRGBA: color.NRGBA{R: r, G: g, B: b, A: a}}
}

// optionnalColor is either a color or "none"
type optionnalColor struct {
	valid bool
	color PlainColor
}

// asPattern returns nil for the "none" color
func (o optionnalColor) asPattern() Pattern {
	if !o.valid {
		return nil
	}
	return o.color
}

// asColor returns transparent black for the "none" color
func (o optionnalColor) asColor() color.Color {
	if !o.valid {
		return color.NRGBA{}
	}
	return o.color
}

var errColorFormat = errors.New("invalid color format")

// parseSVGColor parses an SVG color string in all forms
// including all SVG1.1 names, obtained from the colornames package.
// "currentColor" is resolved by the caller.
func parseSVGColor(colorStr string) (optionnalColor, error) {
	v := strings.ToLower(strings.TrimSpace(colorStr))
	switch v {
	case "none", "":
		return optionnalColor{}, nil
	case "transparent":
		return optionnalColor{valid: true}, nil
	}
	if cn, ok := colornames.Map[v]; ok {
		return optionnalColor{valid: true, color: NewPlainColor(cn.R, cn.G, cn.B, cn.A)}, nil
	}
	if strings.HasPrefix(v, "#") {
		return parseHexColor(v[1:])
	}
	if strings.HasPrefix(v, "rgb(") || strings.HasPrefix(v, "rgba(") {
		return parseFunctionalColor(v)
	}
	return optionnalColor{}, errColorFormat
}

// ParseColor parses a color with the SVG syntax.
// "none" is transparent.
func ParseColor(s string) (color.NRGBA, error) {
	c, err := parseSVGColor(s)
	if err != nil {
		return color.NRGBA{}, err
	}
	return c.color.NRGBA, nil
}

func parseHexColor(v string) (optionnalColor, error) {
	var short bool
	switch len(v) {
	case 3, 4:
		short = true
	case 6, 8:
	default:
		return optionnalColor{}, errColorFormat
	}
	var channels [4]uint8
	channels[3] = 0xff
	step := 2
	if short {
		step = 1
	}
	for i := 0; i*step < len(v); i++ {
		digits := v[i*step : (i+1)*step]
		n, err := strconv.ParseUint(digits, 16, 8)
		if err != nil {
			return optionnalColor{}, errColorFormat
		}
		if short {
			n *= 17 // 0xf -> 0xff
		}
		channels[i] = uint8(n)
	}
	return optionnalColor{valid: true, color: NewPlainColor(channels[0], channels[1], channels[2], channels[3])}, nil
}

// parseFunctionalColor handles rgb(r, g, b) and rgba(r, g, b, a),
// with channels as integers or percentages
func parseFunctionalColor(v string) (optionnalColor, error) {
	start, end := strings.IndexByte(v, '('), strings.LastIndexByte(v, ')')
	if end < start {
		return optionnalColor{}, errColorFormat
	}
	args := splitOnCommaOrSpace(v[start+1 : end])
	if len(args) != 3 && len(args) != 4 {
		return optionnalColor{}, errColorFormat
	}
	var channels [4]uint8
	channels[3] = 0xff
	for i, arg := range args {
		arg = strings.TrimSpace(arg)
		scale := 1.
		if i == 3 {
			scale = 255 // alpha is in [0,1]
		}
		if strings.HasSuffix(arg, "%") {
			arg = strings.TrimSuffix(arg, "%")
			scale = 255. / 100
		}
		f, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return optionnalColor{}, errColorFormat
		}
		f *= scale
		if f < 0 {
			f = 0
		} else if f > 255 {
			f = 255
		}
		channels[i] = uint8(f + 0.5)
	}
	return optionnalColor{valid: true, color: NewPlainColor(channels[0], channels[1], channels[2], channels[3])}, nil
}
