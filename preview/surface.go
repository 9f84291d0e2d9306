// Package preview implements a zoomable preview surface, showing
// either a raster image or a vector document.
//
// The surface does not own a window: it reports its needs to a Host
// and paints into any image handed to Render. Decoding and rendering
// are delegated to a RasterCodec and a VectorRenderer.
package preview

import (
	"fmt"
	"image"

	"github.com/benoitkugler/diagview/svgicon"
	"github.com/benoitkugler/diagview/svgraster"
	"golang.org/x/image/draw"
)

// Mode selects how the payload is interpreted.
type Mode uint8

const (
	NoMode Mode = iota
	RasterMode
	VectorMode
)

func (m Mode) String() string {
	switch m {
	case NoMode:
		return "none"
	case RasterMode:
		return "raster"
	case VectorMode:
		return "vector"
	default:
		return fmt.Sprintf("<invalid mode %d>", m)
	}
}

// ParseMode is the inverse of Mode.String.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "none", "":
		return NoMode, nil
	case "raster":
		return RasterMode, nil
	case "vector":
		return VectorMode, nil
	}
	return NoMode, fmt.Errorf("preview: unknown mode %q", s)
}

// Zoom limits, in percent.
const (
	MinZoom      = 25
	MaxZoom      = 900
	OriginalZoom = 100

	bigStep   = 50
	smallStep = 25
)

// Host is implemented by the widget embedding the surface.
type Host interface {
	// SetMinimumSize is called with the size required to show the
	// content at the current zoom.
	SetMinimumSize(size image.Point)
	// RequestRedraw asks for a later call to Render.
	RequestRedraw()
}

// RasterCodec decodes and resizes bitmaps.
type RasterCodec interface {
	Decode(data []byte) (image.Image, error)
	Resample(src image.Image, width, height int) (image.Image, error)
}

// VectorRenderer parses vector documents and paints them at any size.
type VectorRenderer interface {
	Parse(data []byte) error
	NaturalSize() image.Point
	RenderInto(dst draw.Image, target image.Rectangle)
	Close() error
}

// content is one of noContent, *rasterContent, *vectorContent
type content interface {
	mode() Mode
}

type noContent struct{}

type rasterContent struct {
	original image.Image // nil if the last decoding failed
	scaled   image.Image // original at the current zoom
}

type vectorContent struct {
	renderer VectorRenderer
}

func (noContent) mode() Mode      { return NoMode }
func (*rasterContent) mode() Mode { return RasterMode }
func (*vectorContent) mode() Mode { return VectorMode }

// Surface is a zoomable preview.
// It is not safe for concurrent use: all the calls are expected
// from the goroutine driving the host.
type Surface struct {
	host     Host
	codec    RasterCodec
	renderer VectorRenderer // owned

	content  content
	zoom     int
	payload  []byte
	dirty    bool
	loadErr  error
	scaleErr error
}

// Option configures a Surface.
type Option func(*Surface)

// WithRasterCodec replaces the default ImageCodec.
func WithRasterCodec(codec RasterCodec) Option {
	return func(s *Surface) { s.codec = codec }
}

// WithVectorRenderer sets the vector renderer. The surface takes
// ownership of it and closes it in Close.
func WithVectorRenderer(r VectorRenderer) Option {
	return func(s *Surface) { s.renderer = r }
}

// WithMode sets the initial mode.
func WithMode(m Mode) Option {
	return func(s *Surface) { s.content = s.newContent(m) }
}

// WithZoom sets the initial zoom, clamped to [MinZoom, MaxZoom].
func WithZoom(percent int) Option {
	return func(s *Surface) { s.zoom = clampZoom(percent) }
}

// NewSurface returns an empty surface in NoMode at the original zoom,
// decoding with an ImageCodec and rendering with an svgraster.Document
// unless configured otherwise. A nil host is accepted and ignored.
func NewSurface(host Host, opts ...Option) *Surface {
	if host == nil {
		host = nopHost{}
	}
	s := &Surface{host: host, zoom: OriginalZoom, content: noContent{}}
	for _, opt := range opts {
		opt(s)
	}
	if s.codec == nil {
		s.codec = NewImageCodec(CatmullRom)
	}
	if s.renderer == nil {
		s.renderer = svgraster.NewDocument(svgicon.IgnoreErrorMode)
	}
	// WithMode may come before WithVectorRenderer
	s.content = s.newContent(s.content.mode())
	return s
}

func (s *Surface) newContent(m Mode) content {
	switch m {
	case RasterMode:
		return &rasterContent{}
	case VectorMode:
		return &vectorContent{renderer: s.renderer}
	default:
		return noContent{}
	}
}

// Mode returns the active mode.
func (s *Surface) Mode() Mode { return s.content.mode() }

// SetMode switches the interpretation of the next payloads.
// The current content is dropped; the payload is not re-read.
func (s *Surface) SetMode(m Mode) {
	if m == s.Mode() {
		return
	}
	s.content = s.newContent(m)
	s.requestRedraw()
}

// ZoomPercent returns the current zoom.
func (s *Surface) ZoomPercent() int { return s.zoom }

// Payload returns the bytes given to the last Load.
// The slice must not be modified.
func (s *Surface) Payload() []byte { return s.payload }

// LoadErr returns the decoding or parsing error of the last Load,
// or nil if it succeeded.
func (s *Surface) LoadErr() error { return s.loadErr }

// ScaleErr returns the error met when scaling the bitmap to the
// current zoom, or nil. The scaled bitmap is then empty.
func (s *Surface) ScaleErr() error { return s.scaleErr }

// Dirty reports whether a redraw was requested since the last Render.
func (s *Surface) Dirty() bool { return s.dirty }

// Load replaces the payload and updates the content according to
// the active mode. Failures are not reported: the content is then
// empty, with a zero minimum size. See LoadErr.
func (s *Surface) Load(data []byte) {
	s.payload = append([]byte(nil), data...)
	s.loadErr = nil
	switch c := s.content.(type) {
	case *rasterContent:
		img, err := s.codec.Decode(s.payload)
		if err != nil {
			s.loadErr = fmt.Errorf("preview: decoding raster payload: %w", err)
			img = nil
		}
		c.original = img
		s.host.SetMinimumSize(imageSize(c.original))
	case *vectorContent:
		if err := c.renderer.Parse(s.payload); err != nil {
			s.loadErr = fmt.Errorf("preview: parsing vector payload: %w", err)
		}
	}
	s.recompute()
	s.requestRedraw()
}

// SetZoomPercent changes the zoom. It does nothing if percent is
// the current zoom. The value is not clamped.
func (s *Surface) SetZoomPercent(percent int) {
	if percent == s.zoom {
		return
	}
	s.zoom = percent
	s.recompute()
	s.requestRedraw()
}

// ZoomIn increases the zoom by a big step from the original zoom
// upwards, and by a small step below it.
func (s *Surface) ZoomIn() {
	step := smallStep
	if s.zoom >= OriginalZoom {
		step = bigStep
	}
	z := s.zoom + step
	if z > MaxZoom {
		z = MaxZoom
	}
	s.SetZoomPercent(z)
}

// ZoomOut decreases the zoom by a small step down from the original
// zoom, and by a big step above it.
func (s *Surface) ZoomOut() {
	step := bigStep
	if s.zoom <= OriginalZoom {
		step = smallStep
	}
	z := s.zoom - step
	if z < MinZoom {
		z = MinZoom
	}
	s.SetZoomPercent(z)
}

// recompute refreshes the scaled bitmap. Vector content is scaled
// when rendered.
func (s *Surface) recompute() {
	s.scaleErr = nil
	c, ok := s.content.(*rasterContent)
	if !ok {
		return
	}
	if c.original == nil || s.zoom == OriginalZoom {
		c.scaled = c.original
		return
	}
	size := scaleSize(imageSize(c.original), s.zoom)
	scaled, err := s.codec.Resample(c.original, size.X, size.Y)
	if err != nil {
		s.scaleErr = fmt.Errorf("preview: scaling to %d%%: %w", s.zoom, err)
		scaled = nil
	}
	c.scaled = scaled
}

// Render paints the content centered in area, and reports its size
// to the host. It clears the dirty flag.
func (s *Surface) Render(dst draw.Image, area image.Rectangle) {
	s.dirty = false
	switch c := s.content.(type) {
	case *rasterContent:
		size := imageSize(c.scaled)
		if c.scaled != nil {
			r := centered(area, size)
			draw.Draw(dst, r, c.scaled, c.scaled.Bounds().Min, draw.Over)
		}
		s.host.SetMinimumSize(size)
	case *vectorContent:
		size := c.renderer.NaturalSize()
		if s.zoom != OriginalZoom {
			size = scaleSize(size, s.zoom)
		}
		c.renderer.RenderInto(dst, centered(area, size))
		s.host.SetMinimumSize(size)
	}
}

// Close releases the vector renderer. The surface is then
// empty, in NoMode.
func (s *Surface) Close() error {
	s.content = noContent{}
	return s.renderer.Close()
}

func (s *Surface) requestRedraw() {
	s.dirty = true
	s.host.RequestRedraw()
}

func clampZoom(z int) int {
	if z < MinZoom {
		return MinZoom
	}
	if z > MaxZoom {
		return MaxZoom
	}
	return z
}

// scaleSize returns size * percent / 100, rounded half up
func scaleSize(size image.Point, percent int) image.Point {
	return image.Pt((size.X*percent+50)/100, (size.Y*percent+50)/100)
}

func imageSize(img image.Image) image.Point {
	if img == nil {
		return image.Point{}
	}
	return img.Bounds().Size()
}

// centered returns a rectangle of the given size, centered in area.
// It may overflow area.
func centered(area image.Rectangle, size image.Point) image.Rectangle {
	min := area.Min.Add(area.Size().Sub(size).Div(2))
	return image.Rectangle{Min: min, Max: min.Add(size)}
}

type nopHost struct{}

func (nopHost) SetMinimumSize(image.Point) {}
func (nopHost) RequestRedraw()             {}
