package svgraster

import (
	"image"
	"image/draw"
	"math"

	"github.com/benoitkugler/diagview/svgicon"
	"github.com/srwiley/rasterx"
)

// Document is a parsed SVG document which can be painted
// at any size into an image.
// The zero value is an empty document; use NewDocument to
// configure the parser.
type Document struct {
	icon    *svgicon.SvgIcon
	errMode svgicon.ErrorMode
	fonts   *FaceCache
}

// NewDocument returns an empty document, parsing with the given mode.
func NewDocument(errMode svgicon.ErrorMode) *Document {
	return &Document{errMode: errMode, fonts: NewFaceCache()}
}

// Parse replaces the content of the document.
// On failure the document is left empty.
func (d *Document) Parse(data []byte) error {
	icon, err := svgicon.ReadIconBytes(data, d.errMode)
	if err != nil {
		d.icon = nil
		return err
	}
	d.icon = icon
	return nil
}

// Icon returns the parsed content, or nil for an empty document.
func (d *Document) Icon() *svgicon.SvgIcon { return d.icon }

// NaturalSize returns the default size of the document, in pixels,
// or the zero point if it is empty.
func (d *Document) NaturalSize() image.Point {
	if d.icon == nil {
		return image.Point{}
	}
	w, h := d.icon.DefaultSize()
	if w <= 0 || h <= 0 {
		return image.Point{}
	}
	return image.Pt(int(math.Round(w)), int(math.Round(h)))
}

// RenderInto paints the document scaled to fill target, which may
// overflow dst. Nothing outside of target is modified.
func (d *Document) RenderInto(dst draw.Image, target image.Rectangle) {
	b := dst.Bounds()
	visible := target.Intersect(b)
	if d.icon == nil || visible.Empty() || d.icon.ViewBox.W <= 0 || d.icon.ViewBox.H <= 0 {
		return
	}
	// rasterizer space
	full, clip := target.Sub(b.Min), visible.Sub(b.Min)
	d.icon.SetTarget(float64(full.Min.X), float64(full.Min.Y), float64(full.Dx()), float64(full.Dy()))

	scanner := rasterx.NewScannerGV(b.Dx(), b.Dy(), dst, b)
	scanner.SetClip(clip)
	if d.fonts == nil {
		d.fonts = NewFaceCache()
	}
	renderer := NewRenderer(b.Dx(), b.Dy(), scanner, clipped{dst, visible}, d.fonts)
	renderer.text.origin = b.Min
	d.icon.Draw(renderer, 1.0)
}

// Close releases the resources held by the document,
// which is then empty.
func (d *Document) Close() error {
	d.icon = nil
	if d.fonts == nil {
		return nil
	}
	return d.fonts.Close()
}

// clipped restricts the drawing operations on an image to a rectangle
type clipped struct {
	draw.Image
	r image.Rectangle
}

func (c clipped) Bounds() image.Rectangle { return c.r }
