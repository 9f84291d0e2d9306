package preview

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/draw"
)

type recordHost struct {
	sizes   []image.Point
	redraws int
}

func (h *recordHost) SetMinimumSize(size image.Point) { h.sizes = append(h.sizes, size) }
func (h *recordHost) RequestRedraw()                  { h.redraws++ }

func (h *recordHost) lastSize() image.Point {
	if len(h.sizes) == 0 {
		return image.Point{-1, -1}
	}
	return h.sizes[len(h.sizes)-1]
}

// countingCodec counts the calls to Resample
type countingCodec struct {
	RasterCodec
	resamples int
}

func (c *countingCodec) Resample(src image.Image, width, height int) (image.Image, error) {
	c.resamples++
	return c.RasterCodec.Resample(src, width, height)
}

// sizeCodec returns blank images of the requested size
type sizeCodec struct{ *ImageCodec }

func (sizeCodec) Resample(_ image.Image, width, height int) (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, width, height)), nil
}

type fakeRenderer struct {
	size     image.Point
	parseErr error
	parsed   [][]byte
	targets  []image.Rectangle
	closed   bool
}

func (f *fakeRenderer) Parse(data []byte) error {
	f.parsed = append(f.parsed, data)
	return f.parseErr
}

func (f *fakeRenderer) NaturalSize() image.Point { return f.size }

func (f *fakeRenderer) RenderInto(dst draw.Image, target image.Rectangle) {
	f.targets = append(f.targets, target)
}

func (f *fakeRenderer) Close() error {
	f.closed = true
	return nil
}

func gradientImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{uint8(x * 255 / w), uint8(y * 255 / h), 0x80, 0xff})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func scaledBitmap(t *testing.T, s *Surface) image.Image {
	t.Helper()
	c, ok := s.content.(*rasterContent)
	require.True(t, ok)
	return c.scaled
}

func TestModeString(t *testing.T) {
	for _, m := range []Mode{NoMode, RasterMode, VectorMode} {
		got, err := ParseMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	_, err := ParseMode("bitmap")
	assert.Error(t, err)
}

func TestSetZoomPercent(t *testing.T) {
	s := NewSurface(nil, WithMode(RasterMode))
	for z := MinZoom; z <= MaxZoom; z++ {
		s.SetZoomPercent(z)
		assert.Equal(t, z, s.ZoomPercent())
	}
}

func TestSetZoomPercentUnchanged(t *testing.T) {
	host := &recordHost{}
	codec := &countingCodec{RasterCodec: NewImageCodec(CatmullRom)}
	s := NewSurface(host, WithMode(RasterMode), WithRasterCodec(codec))
	s.Load(encodePNG(t, gradientImage(8, 6)))

	s.SetZoomPercent(200)
	assert.Equal(t, 1, codec.resamples)
	redraws := host.redraws
	s.Render(image.NewRGBA(image.Rect(0, 0, 32, 32)), image.Rect(0, 0, 32, 32))
	require.False(t, s.Dirty())

	s.SetZoomPercent(200)
	assert.Equal(t, 1, codec.resamples)
	assert.Equal(t, redraws, host.redraws)
	assert.False(t, s.Dirty())

	// the original zoom needs no resampling
	s.SetZoomPercent(OriginalZoom)
	assert.Equal(t, 1, codec.resamples)
	assert.Equal(t, redraws+1, host.redraws)
	assert.True(t, s.Dirty())
}

func TestZoomSteps(t *testing.T) {
	for _, test := range []struct {
		start    int
		zoomIn   bool
		expected int
	}{
		{100, true, 150},
		{100, false, 75},
		{875, true, 900},
		{40, false, 25},
		{75, true, 100},
		{25, true, 50},
		{150, false, 100},
		{125, false, 75},
		{900, true, 900},
		{25, false, 25},
		{850, true, 900},
	} {
		s := NewSurface(nil)
		s.SetZoomPercent(test.start)
		if test.zoomIn {
			s.ZoomIn()
		} else {
			s.ZoomOut()
		}
		assert.Equal(t, test.expected, s.ZoomPercent(), "from %d (in: %v)", test.start, test.zoomIn)
	}
}

func TestZoomBounds(t *testing.T) {
	s := NewSurface(nil)
	for i := 0; i < 30; i++ {
		s.ZoomIn()
	}
	assert.Equal(t, MaxZoom, s.ZoomPercent())
	for i := 0; i < 30; i++ {
		s.ZoomOut()
	}
	assert.Equal(t, MinZoom, s.ZoomPercent())

	assert.Equal(t, MaxZoom, NewSurface(nil, WithZoom(2000)).ZoomPercent())
	assert.Equal(t, MinZoom, NewSurface(nil, WithZoom(1)).ZoomPercent())
}

func TestRasterRoundTrip(t *testing.T) {
	s := NewSurface(nil, WithMode(RasterMode))
	s.SetZoomPercent(OriginalZoom)
	s.Load(encodePNG(t, gradientImage(13, 7)))
	require.NoError(t, s.LoadErr())
	afterLoad := scaledBitmap(t, s)

	s.SetZoomPercent(200)
	assert.Equal(t, image.Pt(26, 14), scaledBitmap(t, s).Bounds().Size())
	s.SetZoomPercent(OriginalZoom)
	assert.Equal(t, afterLoad, scaledBitmap(t, s))
}

func TestScaledDimensions(t *testing.T) {
	const w, h = 37, 23
	s := NewSurface(nil, WithMode(RasterMode), WithRasterCodec(sizeCodec{NewImageCodec(CatmullRom)}))
	s.Load(encodePNG(t, gradientImage(w, h)))
	for z := MinZoom; z <= MaxZoom; z++ {
		s.SetZoomPercent(z)
		expected := image.Pt(int(math.Round(w*float64(z)/100)), int(math.Round(h*float64(z)/100)))
		assert.Equal(t, expected, scaledBitmap(t, s).Bounds().Size(), "zoom %d", z)
	}

	// same with real resampling, on a few values
	s = NewSurface(nil, WithMode(RasterMode))
	s.Load(encodePNG(t, gradientImage(w, h)))
	for _, z := range []int{25, 50, 75, 150, 333, 900} {
		s.SetZoomPercent(z)
		expected := image.Pt(int(math.Round(w*float64(z)/100)), int(math.Round(h*float64(z)/100)))
		assert.Equal(t, expected, scaledBitmap(t, s).Bounds().Size(), "zoom %d", z)
	}
}

func TestMalformedRaster(t *testing.T) {
	host := &recordHost{}
	s := NewSurface(host, WithMode(RasterMode))
	dst := image.NewRGBA(image.Rect(0, 0, 50, 50))

	assert.NotPanics(t, func() {
		s.Load([]byte("\x89PNG garbage"))
		s.ZoomIn()
		s.ZoomOut()
		s.SetZoomPercent(300)
		s.Render(dst, dst.Bounds())
		s.Load(nil)
	})
	assert.Error(t, s.LoadErr())
	assert.True(t, errors.Is(s.LoadErr(), ErrEmptyPayload))
	assert.Equal(t, image.Point{}, host.lastSize())

	// a failure drops the previous bitmap
	s.Load(encodePNG(t, gradientImage(10, 4)))
	require.NoError(t, s.LoadErr())
	assert.Equal(t, image.Pt(10, 4), host.lastSize())
	require.NotNil(t, scaledBitmap(t, s))
	s.Load([]byte{1, 2, 3})
	assert.Error(t, s.LoadErr())
	assert.Equal(t, image.Point{}, host.lastSize())
	assert.Nil(t, scaledBitmap(t, s))
	assert.Equal(t, []byte{1, 2, 3}, s.Payload())

	s.Render(dst, dst.Bounds())
	assert.Equal(t, image.Point{}, host.lastSize())
	s.SetZoomPercent(OriginalZoom)
	assert.Nil(t, scaledBitmap(t, s))
}

func TestScaleLimit(t *testing.T) {
	host := &recordHost{}
	codec := NewImageCodec(CatmullRom)
	codec.MaxBytes = 20 * 10 * 4
	s := NewSurface(host, WithMode(RasterMode), WithRasterCodec(codec))
	s.Load(encodePNG(t, gradientImage(10, 5)))
	require.NoError(t, s.LoadErr())

	s.SetZoomPercent(200)
	require.NoError(t, s.ScaleErr())
	assert.Equal(t, image.Pt(20, 10), scaledBitmap(t, s).Bounds().Size())

	assert.NotPanics(t, func() { s.SetZoomPercent(MaxZoom) })
	assert.ErrorIs(t, s.ScaleErr(), ErrTooLarge)
	assert.NoError(t, s.LoadErr())
	assert.Nil(t, scaledBitmap(t, s))
	dst := image.NewRGBA(image.Rect(0, 0, 30, 30))
	s.Render(dst, dst.Bounds())
	assert.Equal(t, image.Point{}, host.lastSize())

	s.SetZoomPercent(150)
	assert.NoError(t, s.ScaleErr())
	assert.Equal(t, image.Pt(15, 8), scaledBitmap(t, s).Bounds().Size())
}

func TestRenderRaster(t *testing.T) {
	host := &recordHost{}
	s := NewSurface(host, WithMode(RasterMode))
	red := image.NewNRGBA(image.Rect(0, 0, 20, 10))
	draw.Draw(red, red.Bounds(), image.NewUniform(color.NRGBA{0xff, 0, 0, 0xff}), image.Point{}, draw.Src)
	s.Load(encodePNG(t, red))
	assert.Equal(t, image.Pt(20, 10), host.lastSize())
	assert.True(t, s.Dirty())

	dst := image.NewRGBA(image.Rect(0, 0, 100, 100))
	s.Render(dst, dst.Bounds())
	assert.False(t, s.Dirty())
	assert.Equal(t, image.Pt(20, 10), host.lastSize())
	// centered at (40, 45)
	assert.Equal(t, color.RGBA{0xff, 0, 0, 0xff}, dst.RGBAAt(40, 45))
	assert.Equal(t, color.RGBA{0xff, 0, 0, 0xff}, dst.RGBAAt(59, 54))
	assert.Equal(t, color.RGBA{}, dst.RGBAAt(39, 45))
	assert.Equal(t, color.RGBA{}, dst.RGBAAt(60, 55))

	s.SetZoomPercent(50)
	s.Render(dst, dst.Bounds())
	assert.Equal(t, image.Pt(10, 5), host.lastSize())
}

func TestVectorMode(t *testing.T) {
	host := &recordHost{}
	renderer := &fakeRenderer{size: image.Pt(40, 30)}
	s := NewSurface(host, WithMode(VectorMode), WithVectorRenderer(renderer), WithZoom(150))
	assert.Equal(t, VectorMode, s.Mode())

	s.Load([]byte("<svg/>"))
	require.NoError(t, s.LoadErr())
	require.Len(t, renderer.parsed, 1)
	assert.Empty(t, host.sizes) // no resize on load
	assert.Equal(t, 1, host.redraws)

	s.Render(image.NewRGBA(image.Rect(0, 0, 200, 100)), image.Rect(0, 0, 200, 100))
	assert.Equal(t, []image.Rectangle{image.Rect(70, 27, 130, 72)}, renderer.targets)
	assert.Equal(t, image.Pt(60, 45), host.lastSize())

	renderer.parseErr = errors.New("broken")
	s.Load([]byte("<svg"))
	assert.ErrorIs(t, s.LoadErr(), renderer.parseErr)

	require.NoError(t, s.Close())
	assert.True(t, renderer.closed)
	assert.Equal(t, NoMode, s.Mode())
}

func TestVectorDefaultRenderer(t *testing.T) {
	host := &recordHost{}
	s := NewSurface(host, WithMode(VectorMode))
	defer s.Close()
	s.Load([]byte(`<svg width="10" height="10" viewBox="0 0 10 10"><rect width="10" height="10" fill="#0000ff"/></svg>`))
	require.NoError(t, s.LoadErr())

	s.SetZoomPercent(200)
	dst := image.NewRGBA(image.Rect(0, 0, 40, 40))
	s.Render(dst, dst.Bounds())
	assert.Equal(t, image.Pt(20, 20), host.lastSize())
	assert.Equal(t, color.RGBA{0, 0, 0xff, 0xff}, dst.RGBAAt(20, 20))
	assert.Equal(t, color.RGBA{}, dst.RGBAAt(5, 5))
}

func TestVectorLargerThanArea(t *testing.T) {
	s := NewSurface(nil, WithMode(VectorMode), WithZoom(200))
	defer s.Close()
	s.Load([]byte(`<svg width="10" height="10" viewBox="0 0 10 10">
	<rect width="5" height="10" fill="#ff0000"/><rect x="5" width="5" height="10" fill="#0000ff"/></svg>`))
	require.NoError(t, s.LoadErr())

	// 20x20 centered in 10x10: only the middle of the document is visible
	dst := image.NewRGBA(image.Rect(0, 0, 10, 10))
	s.Render(dst, dst.Bounds())
	assert.Equal(t, color.RGBA{0xff, 0, 0, 0xff}, dst.RGBAAt(2, 5))
	assert.Equal(t, color.RGBA{0xff, 0, 0, 0xff}, dst.RGBAAt(3, 1))
	assert.Equal(t, color.RGBA{0, 0, 0xff, 0xff}, dst.RGBAAt(7, 5))
	assert.Equal(t, color.RGBA{0, 0, 0xff, 0xff}, dst.RGBAAt(6, 8))
}

func TestNoMode(t *testing.T) {
	host := &recordHost{}
	s := NewSurface(host)
	assert.Equal(t, NoMode, s.Mode())
	assert.False(t, s.Dirty())

	input := []byte("anything")
	s.Load(input)
	input[0] = 'A'
	assert.Equal(t, []byte("anything"), s.Payload())
	assert.NoError(t, s.LoadErr())
	assert.Equal(t, 1, host.redraws)

	dst := image.NewRGBA(image.Rect(0, 0, 10, 10))
	s.Render(dst, dst.Bounds())
	assert.Empty(t, host.sizes)
	assert.Equal(t, make([]uint8, len(dst.Pix)), dst.Pix)
}

func TestSetMode(t *testing.T) {
	host := &recordHost{}
	s := NewSurface(host)
	s.SetMode(NoMode)
	assert.Equal(t, 0, host.redraws)

	s.SetMode(RasterMode)
	assert.Equal(t, RasterMode, s.Mode())
	assert.Equal(t, 1, host.redraws)
	s.Load(encodePNG(t, gradientImage(4, 4)))
	assert.NotNil(t, scaledBitmap(t, s))

	s.SetMode(VectorMode)
	s.SetMode(RasterMode)
	assert.Nil(t, scaledBitmap(t, s))
}
