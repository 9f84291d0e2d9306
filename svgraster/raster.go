// Implements a raster backend to render SVG images,
// by wrapping rasterx.
package svgraster

import (
	"image"
	"image/color"
	"image/draw"
	"io"
	"math"

	"github.com/benoitkugler/diagview/svgicon"
	"github.com/srwiley/rasterx"
)

// assert interface conformance
var (
	_ svgicon.Driver     = (*Renderer)(nil)
	_ svgicon.TextDriver = (*Renderer)(nil)
	_ svgicon.Filler     = filler{}
	_ svgicon.Stroker    = stroker{}
)

// Renderer paints into an image. The filler and the dasher
// share the same scanner, and are used one after the other.
type Renderer struct {
	filler filler
	dasher stroker
	text   *textPainter
}

type filler struct{ *rasterx.Filler }

type stroker struct{ *rasterx.Dasher }

// NewRenderer returns a renderer with default values.
// In addition to rasterizing lines like a Scanner,
// it can also rasterize quadratic and cubic bezier curves.
// Texts are painted with the faces of `fonts`, which may be nil
// to skip them.
func NewRenderer(width, height int, scanner rasterx.Scanner, dst draw.Image, fonts *FaceCache) *Renderer {
	rd := &Renderer{
		filler: filler{rasterx.NewFiller(width, height, scanner)},
		dasher: stroker{rasterx.NewDasher(width, height, scanner)},
	}
	if fonts != nil {
		rd.text = &textPainter{dst: dst, fonts: fonts}
	}
	return rd
}

// SetupDrawers implements svgicon.Driver
func (rd *Renderer) SetupDrawers(willFill, willStroke bool) (f svgicon.Filler, s svgicon.Stroker) {
	if willFill {
		f = rd.filler
	}
	if willStroke {
		s = rd.dasher
	}
	return f, s
}

// DrawText implements svgicon.TextDriver
func (rd *Renderer) DrawText(run svgicon.TextRun) {
	if rd.text != nil {
		rd.text.draw(run)
	}
}

// RasterSVGIconToImage renders the icon at its natural size
// into a new image, using a ScannerGV.
// If fonts is nil, texts are not painted.
func RasterSVGIconToImage(icon io.Reader, fonts *FaceCache) (*image.RGBA, error) {
	parsedIcon, err := svgicon.ReadIconStream(icon, svgicon.IgnoreErrorMode)
	if err != nil {
		return nil, err
	}
	fw, fh := parsedIcon.DefaultSize()
	w, h := int(math.Ceil(fw)), int(math.Ceil(fh))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	parsedIcon.SetTarget(0, 0, float64(w), float64(h))
	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	renderer := NewRenderer(w, h, scanner, img, fonts)
	parsedIcon.Draw(renderer, 1.0)
	return img, nil
}

func toRasterxGradient(grad svgicon.Gradient) rasterx.Gradient {
	var (
		points   [5]float64
		isRadial bool
	)
	switch dir := grad.Direction.(type) {
	case svgicon.Linear:
		points[0], points[1], points[2], points[3] = dir[0], dir[1], dir[2], dir[3]
	case svgicon.Radial:
		points[0], points[1], points[2], points[3], points[4] = dir[0], dir[1], dir[2], dir[3], dir[4] // rasterx ignores fr
		isRadial = true
	}
	stops := make([]rasterx.GradStop, len(grad.Stops))
	for i, s := range grad.Stops {
		stops[i] = rasterx.GradStop{StopColor: s.StopColor, Offset: s.Offset, Opacity: s.Opacity}
		if stops[i].StopColor == nil {
			stops[i].StopColor = color.Black
		}
	}
	return rasterx.Gradient{
		Points:   points,
		Stops:    stops,
		Bounds:   grad.Bounds,
		Matrix:   rasterx.Matrix2D(grad.Matrix),
		Spread:   rasterx.SpreadMethod(grad.Spread),
		Units:    rasterx.GradientUnits(grad.Units),
		IsRadial: isRadial,
	}
}

// plainOpacity merges the alpha channel of c into opacity
func plainOpacity(c svgicon.PlainColor, opacity float64) color.NRGBA {
	opaque := c.NRGBA
	opaque.A = 0xff
	return rasterx.ApplyOpacity(opaque, opacity*float64(c.A)/0xff)
}

// resolve gradient color
func setColorFromPattern(pattern svgicon.Pattern, opacity float64, scanner rasterx.Scanner) {
	switch p := pattern.(type) {
	case svgicon.PlainColor:
		scanner.SetColor(plainOpacity(p, opacity))
	case svgicon.Gradient:
		if p.Units == svgicon.ObjectBoundingBox {
			fRect := scanner.GetPathExtent()
			mnx, mny := float64(fRect.Min.X)/64, float64(fRect.Min.Y)/64
			mxx, mxy := float64(fRect.Max.X)/64, float64(fRect.Max.Y)/64
			p.Bounds = svgicon.Bounds{X: mnx, Y: mny, W: mxx - mnx, H: mxy - mny}
		}
		rasterxGradient := toRasterxGradient(p)
		scanner.SetColor(rasterxGradient.GetColorFunction(opacity))
	}
}

func (f filler) SetColor(pattern svgicon.Pattern, opacity float64) {
	setColorFromPattern(pattern, opacity, f.Scanner)
}

func (s stroker) SetColor(pattern svgicon.Pattern, opacity float64) {
	setColorFromPattern(pattern, opacity, s.Scanner)
}

var (
	joinToJoin = [...]rasterx.JoinMode{
		svgicon.Round:     rasterx.Round,
		svgicon.Bevel:     rasterx.Bevel,
		svgicon.Miter:     rasterx.Miter,
		svgicon.MiterClip: rasterx.MiterClip,
		svgicon.Arc:       rasterx.Arc,
		svgicon.ArcClip:   rasterx.ArcClip,
	}

	capToFunc = [...]rasterx.CapFunc{
		svgicon.NilCap:       nil,
		svgicon.ButtCap:      rasterx.ButtCap,
		svgicon.SquareCap:    rasterx.SquareCap,
		svgicon.RoundCap:     rasterx.RoundCap,
		svgicon.CubicCap:     rasterx.CubicCap,
		svgicon.QuadraticCap: rasterx.QuadraticCap,
	}

	gapToFunc = [...]rasterx.GapFunc{
		svgicon.NilGap:       nil,
		svgicon.FlatGap:      rasterx.FlatGap,
		svgicon.RoundGap:     rasterx.RoundGap,
		svgicon.CubicGap:     rasterx.CubicGap,
		svgicon.QuadraticGap: rasterx.QuadraticGap,
	}
)

func (s stroker) SetStrokeOptions(options svgicon.StrokeOptions) {
	s.SetStroke(
		options.LineWidth, options.Join.MiterLimit, capToFunc[options.Join.LeadLineCap],
		capToFunc[options.Join.TrailLineCap], gapToFunc[options.Join.LineGap],
		joinToJoin[options.Join.LineJoin], options.Dash.Dash, options.Dash.DashOffset,
	)
}
