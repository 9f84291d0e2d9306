package svgicon

import (
	"math"
	"strconv"
	"strings"
)

// pathCursor is used to parse SVG format path strings into a Path
type pathCursor struct {
	path                   Path
	placeX, placeY         float64 // current point
	cntlPtX, cntlPtY       float64 // last control point, for smooth curves
	pathStartX, pathStartY float64
	points                 []float64
	lastKey                byte
	inPath                 bool
}

// isSeparator reports the characters allowed between numbers
func isSeparator(r byte) bool {
	return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f'
}

// readNumbers splits dataPoints into floats, accepting the compact forms
// allowed by the SVG grammar such as "1-2" or ".5.5".
// With arc, the 4th and 5th values of each group of 7 are flags,
// made of a single digit, as in "5 5 0 014 4".
func readNumbers(dataPoints string, dst []float64, arc bool) ([]float64, error) {
	dst = dst[:0]
	s := dataPoints
	for i := 0; i < len(s); {
		if isSeparator(s[i]) {
			i++
			continue
		}
		if arc && (len(dst)%7 == 3 || len(dst)%7 == 4) {
			switch s[i] {
			case '0':
				dst = append(dst, 0)
			case '1':
				dst = append(dst, 1)
			default:
				return dst, errParamMismatch
			}
			i++
			continue
		}
		start := i
		if s[i] == '+' || s[i] == '-' {
			i++
		}
		seenDot, seenExp := false, false
	number:
		for ; i < len(s); i++ {
			switch ch := s[i]; {
			case '0' <= ch && ch <= '9':
			case ch == '.':
				if seenDot || seenExp {
					break number
				}
				seenDot = true
			case ch == 'e' || ch == 'E':
				if seenExp {
					break number
				}
				seenExp = true
				if i+1 < len(s) && (s[i+1] == '+' || s[i+1] == '-') {
					i++
				}
			default:
				break number
			}
		}
		if i == start {
			return dst, errParamMismatch
		}
		f, err := strconv.ParseFloat(s[start:i], 64)
		if err != nil {
			return dst, err
		}
		dst = append(dst, f)
	}
	return dst, nil
}

// getPoints reads a set of floating point values from the SVG format number string,
// and add them to the cursor's points slice.
func (c *pathCursor) getPoints(dataPoints string) (err error) {
	c.points, err = readNumbers(dataPoints, c.points, false)
	return err
}

// reflectControl reflects the last control point around the current point,
// when the previous command is in `family`.
func (c *pathCursor) reflectControl(family string) (x, y float64) {
	if strings.IndexByte(family, c.lastKey) >= 0 {
		return 2*c.placeX - c.cntlPtX, 2*c.placeY - c.cntlPtY
	}
	return c.placeX, c.placeY
}

// ensureStarted restarts a sub-path at the current point,
// as required after a close command.
func (c *pathCursor) ensureStarted() {
	if !c.inPath {
		c.path.Start(toFixedP(c.placeX, c.placeY))
		c.inPath = true
	}
}

// addSeg decodes an SVG path command with its arguments and
// adds the corresponding operations to the path.
func (c *pathCursor) addSeg(key byte, pts []float64) error {
	rel := 'a' <= key && key <= 'z'
	upper := key
	if rel {
		upper = key - 'a' + 'A'
	}
	l := len(pts)
	switch upper {
	case 'Z':
		if l != 0 {
			return errParamMismatch
		}
		c.path.Stop(true)
		c.placeX, c.placeY = c.pathStartX, c.pathStartY
		c.inPath = false
	case 'M':
		if l < 2 || l%2 != 0 {
			return errParamMismatch
		}
		if rel {
			pts[0] += c.placeX
			pts[1] += c.placeY
		}
		c.placeX, c.placeY = pts[0], pts[1]
		c.pathStartX, c.pathStartY = c.placeX, c.placeY
		c.path.Start(toFixedP(c.placeX, c.placeY))
		c.inPath = true
		// extra pairs are implicit line-to commands
		for i := 2; i < l; i += 2 {
			if rel {
				pts[i] += c.placeX
				pts[i+1] += c.placeY
			}
			c.placeX, c.placeY = pts[i], pts[i+1]
			c.path.Line(toFixedP(c.placeX, c.placeY))
		}
	case 'L':
		if l == 0 || l%2 != 0 {
			return errParamMismatch
		}
		c.ensureStarted()
		for i := 0; i < l; i += 2 {
			if rel {
				pts[i] += c.placeX
				pts[i+1] += c.placeY
			}
			c.placeX, c.placeY = pts[i], pts[i+1]
			c.path.Line(toFixedP(c.placeX, c.placeY))
		}
	case 'H':
		if l == 0 {
			return errParamMismatch
		}
		c.ensureStarted()
		for _, x := range pts {
			if rel {
				x += c.placeX
			}
			c.placeX = x
			c.path.Line(toFixedP(c.placeX, c.placeY))
		}
	case 'V':
		if l == 0 {
			return errParamMismatch
		}
		c.ensureStarted()
		for _, y := range pts {
			if rel {
				y += c.placeY
			}
			c.placeY = y
			c.path.Line(toFixedP(c.placeX, c.placeY))
		}
	case 'Q':
		if l == 0 || l%4 != 0 {
			return errParamMismatch
		}
		c.ensureStarted()
		for i := 0; i < l; i += 4 {
			if rel {
				pts[i] += c.placeX
				pts[i+1] += c.placeY
				pts[i+2] += c.placeX
				pts[i+3] += c.placeY
			}
			c.cntlPtX, c.cntlPtY = pts[i], pts[i+1]
			c.placeX, c.placeY = pts[i+2], pts[i+3]
			c.path.QuadBezier(toFixedP(c.cntlPtX, c.cntlPtY), toFixedP(c.placeX, c.placeY))
			c.lastKey = 'Q'
		}
	case 'T':
		if l == 0 || l%2 != 0 {
			return errParamMismatch
		}
		c.ensureStarted()
		for i := 0; i < l; i += 2 {
			c.cntlPtX, c.cntlPtY = c.reflectControl("QT")
			if rel {
				pts[i] += c.placeX
				pts[i+1] += c.placeY
			}
			c.placeX, c.placeY = pts[i], pts[i+1]
			c.path.QuadBezier(toFixedP(c.cntlPtX, c.cntlPtY), toFixedP(c.placeX, c.placeY))
			c.lastKey = 'T'
		}
	case 'C':
		if l == 0 || l%6 != 0 {
			return errParamMismatch
		}
		c.ensureStarted()
		for i := 0; i < l; i += 6 {
			if rel {
				for j := 0; j < 6; j += 2 {
					pts[i+j] += c.placeX
					pts[i+j+1] += c.placeY
				}
			}
			c.cntlPtX, c.cntlPtY = pts[i+2], pts[i+3]
			c.placeX, c.placeY = pts[i+4], pts[i+5]
			c.path.CubeBezier(toFixedP(pts[i], pts[i+1]), toFixedP(c.cntlPtX, c.cntlPtY), toFixedP(c.placeX, c.placeY))
			c.lastKey = 'C'
		}
	case 'S':
		if l == 0 || l%4 != 0 {
			return errParamMismatch
		}
		c.ensureStarted()
		for i := 0; i < l; i += 4 {
			x1, y1 := c.reflectControl("CS")
			if rel {
				for j := 0; j < 4; j += 2 {
					pts[i+j] += c.placeX
					pts[i+j+1] += c.placeY
				}
			}
			c.cntlPtX, c.cntlPtY = pts[i], pts[i+1]
			c.placeX, c.placeY = pts[i+2], pts[i+3]
			c.path.CubeBezier(toFixedP(x1, y1), toFixedP(c.cntlPtX, c.cntlPtY), toFixedP(c.placeX, c.placeY))
			c.lastKey = 'S'
		}
	case 'A':
		if l == 0 || l%7 != 0 {
			return errParamMismatch
		}
		c.ensureStarted()
		for i := 0; i < l; i += 7 {
			if rel {
				pts[i+5] += c.placeX
				pts[i+6] += c.placeY
			}
			ra, rb := math.Abs(pts[i]), math.Abs(pts[i+1])
			if ra == 0 || rb == 0 { // degenerated arc is a line
				c.placeX, c.placeY = pts[i+5], pts[i+6]
				c.path.Line(toFixedP(c.placeX, c.placeY))
				continue
			}
			cx, cy := findEllipseCenter(&ra, &rb, pts[i+2]*math.Pi/180, c.placeX, c.placeY,
				pts[i+5], pts[i+6], pts[i+4] == 0, pts[i+3] == 0)
			pts[i], pts[i+1] = ra, rb
			c.placeX, c.placeY = c.path.addArc(pts[i:i+7], cx, cy, c.placeX, c.placeY)
		}
	default:
		return errCommandUnknown
	}
	if upper != 'Q' && upper != 'T' && upper != 'C' && upper != 'S' {
		c.lastKey = upper
	}
	return nil
}

const pathCommands = "MmZzLlHhVvCcSsQqTtAa"

// compilePath translates the svgPath description string into a path.
// The resulting path element is stored in the pathCursor.
func (c *pathCursor) compilePath(svgPath string) error {
	c.init()
	lastIndex := -1
	for i := 0; i < len(svgPath); i++ {
		if strings.IndexByte(pathCommands, svgPath[i]) < 0 {
			continue
		}
		if lastIndex != -1 {
			if err := c.compileSeg(svgPath[lastIndex], svgPath[lastIndex+1:i]); err != nil {
				return err
			}
		}
		lastIndex = i
	}
	if lastIndex == -1 {
		if strings.TrimSpace(svgPath) == "" {
			return nil
		}
		return errCommandUnknown
	}
	return c.compileSeg(svgPath[lastIndex], svgPath[lastIndex+1:])
}

func (c *pathCursor) compileSeg(key byte, args string) (err error) {
	c.points, err = readNumbers(args, c.points, key == 'a' || key == 'A')
	if err != nil {
		return err
	}
	return c.addSeg(key, c.points)
}

// init resets the cursor state before a new path
func (c *pathCursor) init() {
	c.placeX, c.placeY = 0, 0
	c.pathStartX, c.pathStartY = 0, 0
	c.cntlPtX, c.cntlPtY = 0, 0
	c.points = c.points[:0]
	c.lastKey = 0
	c.inPath = false
}
