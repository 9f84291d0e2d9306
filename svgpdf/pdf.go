// Implements a PDF backend to render SVG images,
// by wrapping codeberg.org/go-pdf/fpdf.
package svgpdf

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"codeberg.org/go-pdf/fpdf"
	"github.com/benoitkugler/diagview/svgicon"
	"golang.org/x/image/math/fixed"
)

// assert interface conformance
var (
	_ svgicon.Driver     = (*Renderer)(nil)
	_ svgicon.TextDriver = (*Renderer)(nil)
	_ svgicon.Filler     = (*filler)(nil)
	_ svgicon.Stroker    = (*stroker)(nil)
)

// ErrEmptyDocument is returned when exporting a document without area.
var ErrEmptyDocument = errors.New("svgpdf: empty document")

// Renderer writes on the current page of a PDF.
type Renderer struct {
	pdf       *fpdf.Fpdf
	filler    filler
	stroker   stroker
	translate func(string) string // UTF-8 to the encoding of the core fonts
}

// implements the common path commands,
// shared by the filler and the stroker.
// The path is buffered, since PDF requires the graphic state
// to be set before the path construction.
type pather struct {
	pdf  *fpdf.Fpdf
	path svgicon.Path
}

// implements the filling operation
type filler struct {
	pather
	useNonZeroWinding bool
	color             svgicon.Pattern
	opacity           float64
}

// implements the stroking operation
type stroker struct {
	pather
	options svgicon.StrokeOptions
	color   svgicon.PlainColor
	opacity float64
}

// NewRenderer return a renderer which will
// write to the given `pdf`.
func NewRenderer(pdf *fpdf.Fpdf) *Renderer {
	return &Renderer{
		pdf:       pdf,
		filler:    filler{pather: pather{pdf: pdf}, useNonZeroWinding: true},
		stroker:   stroker{pather: pather{pdf: pdf}},
		translate: pdf.UnicodeTranslatorFromDescriptor(""),
	}
}

// SetupDrawers implements svgicon.Driver
func (rd *Renderer) SetupDrawers(willFill, willStroke bool) (f svgicon.Filler, s svgicon.Stroker) {
	if willFill {
		f = &rd.filler
	}
	if willStroke {
		s = &rd.stroker
	}
	return f, s
}

func fixedTof(a fixed.Point26_6) (float64, float64) {
	return float64(a.X) / 64, float64(a.Y) / 64
}

func fToFixed(x, y float64) fixed.Point26_6 {
	return fixed.Point26_6{X: fixed.Int26_6(x * 64), Y: fixed.Int26_6(y * 64)}
}

func (p *pather) Clear() { p.path.Clear() }

func (p *pather) Start(a fixed.Point26_6) { p.path.Start(a) }

func (p *pather) Line(b fixed.Point26_6) { p.path.Line(b) }

func (p *pather) QuadBezier(b, c fixed.Point26_6) { p.path.QuadBezier(b, c) }

func (p *pather) CubeBezier(b, c, d fixed.Point26_6) { p.path.CubeBezier(b, c, d) }

func (p *pather) Stop(closeLoop bool) { p.path.Stop(closeLoop) }

// writePath outputs the buffered path
func (p *pather) writePath() {
	for _, op := range p.path {
		switch op := op.(type) {
		case svgicon.MoveTo:
			p.pdf.MoveTo(fixedTof(fixed.Point26_6(op)))
		case svgicon.LineTo:
			p.pdf.LineTo(fixedTof(fixed.Point26_6(op)))
		case svgicon.QuadTo:
			cx, cy := fixedTof(op[0])
			x, y := fixedTof(op[1])
			p.pdf.CurveTo(cx, cy, x, y)
		case svgicon.CubicTo:
			cx0, cy0 := fixedTof(op[0])
			cx1, cy1 := fixedTof(op[1])
			x, y := fixedTof(op[2])
			p.pdf.CurveBezierCubicTo(cx0, cy0, cx1, cy1, x, y)
		case svgicon.Close:
			p.pdf.ClosePath()
		}
	}
}

func (f *filler) SetWinding(useNonZeroWinding bool) {
	f.useNonZeroWinding = useNonZeroWinding
}

func (f *filler) SetColor(color svgicon.Pattern, opacity float64) {
	f.color, f.opacity = color, opacity
}

func (f *filler) Draw() {
	if len(f.path) == 0 {
		return
	}
	switch color := f.color.(type) {
	case svgicon.PlainColor:
		f.pdf.SetFillColor(int(color.R), int(color.G), int(color.B))
		f.pdf.SetAlpha(f.opacity*float64(color.A)/0xff, "Normal")
	case svgicon.Gradient:
		f.pdf.SetAlpha(f.opacity, "Normal")
		f.drawGradient(color)
		return
	default:
		return
	}
	f.writePath()
	if f.useNonZeroWinding {
		f.pdf.DrawPath("F")
	} else {
		f.pdf.DrawPath("F*")
	}
}

// drawGradient paints a two colors approximation of the gradient,
// clipped by the flattened path.
func (f *filler) drawGradient(grad svgicon.Gradient) {
	bbox := f.boundingBox()
	x0, y0 := fixedTof(bbox.Min)
	x1, y1 := fixedTof(bbox.Max)
	w, h := x1-x0, y1-y0
	if w <= 0 || h <= 0 {
		return
	}
	stops := append([]svgicon.GradStop(nil), grad.Stops...)
	sort.SliceStable(stops, func(i, j int) bool { return stops[i].Offset < stops[j].Offset })
	c1, c2 := stopColor(stops, 0), stopColor(stops, len(stops)-1)

	// fpdf expects coordinates relative to the box, with y upward
	normalize := func(x, y float64) (float64, float64) {
		if grad.Units == svgicon.UserSpaceOnUse {
			x, y = grad.Matrix.Transform(x, y)
			return (x - x0) / w, 1 - (y-y0)/h
		}
		return x, 1 - y
	}

	f.pdf.ClipPolygon(f.polygon(), false)
	switch dir := grad.Direction.(type) {
	case svgicon.Linear:
		ax, ay := normalize(dir[0], dir[1])
		bx, by := normalize(dir[2], dir[3])
		f.pdf.LinearGradient(x0, y0, w, h, int(c1.R), int(c1.G), int(c1.B), int(c2.R), int(c2.G), int(c2.B), ax, ay, bx, by)
	case svgicon.Radial:
		cx, cy := normalize(dir[0], dir[1])
		fx, fy := normalize(dir[2], dir[3])
		r := dir[4]
		if grad.Units == svgicon.UserSpaceOnUse {
			rx, ry := grad.Matrix.TransformVector(dir[4], dir[4])
			r = (abs(rx)/w + abs(ry)/h) / 2
		}
		f.pdf.RadialGradient(x0, y0, w, h, int(c1.R), int(c1.G), int(c1.B), int(c2.R), int(c2.G), int(c2.B), fx, fy, cx, cy, r)
	}
	f.pdf.ClipEnd()
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func stopColor(stops []svgicon.GradStop, i int) svgicon.PlainColor {
	if len(stops) == 0 {
		return svgicon.NewPlainColor(0, 0, 0, 0xff)
	}
	return svgicon.Gradient{Stops: stops[i : i+1]}.ApproxColor()
}

func (s *stroker) SetColor(color svgicon.Pattern, opacity float64) {
	switch color := color.(type) {
	case svgicon.PlainColor:
		s.color = color
	case svgicon.Gradient:
		s.color = color.ApproxColor()
	}
	s.opacity = opacity
}

func (s *stroker) SetStrokeOptions(options svgicon.StrokeOptions) {
	s.options = options
}

var (
	capStyles = [...]string{
		svgicon.NilCap:       "butt",
		svgicon.ButtCap:      "butt",
		svgicon.SquareCap:    "square",
		svgicon.RoundCap:     "round",
		svgicon.CubicCap:     "round",
		svgicon.QuadraticCap: "round",
	}
	joinStyles = [...]string{
		svgicon.Arc:       "round",
		svgicon.Round:     "round",
		svgicon.Bevel:     "bevel",
		svgicon.Miter:     "miter",
		svgicon.MiterClip: "miter",
		svgicon.ArcClip:   "miter",
	}
)

func (s *stroker) Draw() {
	if len(s.path) == 0 {
		return
	}
	opts := s.options
	s.pdf.SetLineWidth(float64(opts.LineWidth) / 64)
	s.pdf.SetLineCapStyle(capStyles[opts.Join.TrailLineCap])
	s.pdf.SetLineJoinStyle(joinStyles[opts.Join.LineJoin])
	if opts.Join.MiterLimit > 0 {
		s.pdf.RawWriteStr(fmt.Sprintf("%.2f M", float64(opts.Join.MiterLimit)/64))
	}
	s.pdf.SetDashPattern(opts.Dash.Dash, opts.Dash.DashOffset)
	s.pdf.SetDrawColor(int(s.color.R), int(s.color.G), int(s.color.B))
	s.pdf.SetAlpha(s.opacity*float64(s.color.A)/0xff, "Normal")
	s.writePath()
	s.pdf.DrawPath("D")
}

// DrawText implements svgicon.TextDriver, with the core fonts.
func (rd *Renderer) DrawText(run svgicon.TextRun) {
	if run.Size <= 0 {
		return
	}
	family := "Helvetica"
	lower := strings.ToLower(run.Family)
	switch {
	case strings.Contains(lower, "mono"), strings.Contains(lower, "courier"):
		family = "Courier"
	case strings.Contains(lower, "serif") && !strings.Contains(lower, "sans"), strings.Contains(lower, "times"):
		family = "Times"
	}
	style := ""
	if run.Bold {
		style += "B"
	}
	if run.Italic {
		style += "I"
	}
	rd.pdf.SetFont(family, style, run.Size)
	text := rd.translate(run.Text)
	x := run.X
	switch run.Anchor {
	case svgicon.AnchorMiddle:
		x -= rd.pdf.GetStringWidth(text) / 2
	case svgicon.AnchorEnd:
		x -= rd.pdf.GetStringWidth(text)
	}
	rd.pdf.SetTextColor(int(run.Color.R), int(run.Color.G), int(run.Color.B))
	rd.pdf.SetAlpha(run.Opacity*float64(run.Color.A)/0xff, "Normal")
	rd.pdf.Text(x, run.Y, text)
}

// Export writes the icon as a one page PDF document, whose size is
// the default size of the icon scaled by zoomPercent / 100.
// One pixel maps to one PDF point.
func Export(w io.Writer, icon *svgicon.SvgIcon, zoomPercent int) error {
	if icon == nil {
		return ErrEmptyDocument
	}
	dw, dh := icon.DefaultSize()
	width, height := dw*float64(zoomPercent)/100, dh*float64(zoomPercent)/100
	if width <= 0 || height <= 0 || icon.ViewBox.W <= 0 || icon.ViewBox.H <= 0 {
		return ErrEmptyDocument
	}
	pdf := fpdf.NewCustom(&fpdf.InitType{
		UnitStr: "pt",
		Size:    fpdf.SizeType{Wd: width, Ht: height},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("diagview", true)
	if len(icon.Titles) != 0 {
		pdf.SetTitle(strings.TrimSpace(icon.Titles[0]), true)
	}
	pdf.AddPage()

	icon.SetTarget(0, 0, width, height)
	icon.Draw(NewRenderer(pdf), 1)
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("svgpdf: %w", err)
	}
	return pdf.Output(w)
}
