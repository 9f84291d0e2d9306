package preview

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func TestDecodeFormats(t *testing.T) {
	src := gradientImage(12, 9)
	encoders := map[string]func(*bytes.Buffer) error{
		"png":  func(b *bytes.Buffer) error { _, err := b.Write(encodePNG(t, src)); return err },
		"jpeg": func(b *bytes.Buffer) error { return jpeg.Encode(b, src, nil) },
		"gif":  func(b *bytes.Buffer) error { return gif.Encode(b, src, nil) },
		"bmp":  func(b *bytes.Buffer) error { return bmp.Encode(b, src) },
		"tiff": func(b *bytes.Buffer) error { return tiff.Encode(b, src, nil) },
	}
	codec := NewImageCodec(CatmullRom)
	for name, encode := range encoders {
		var buf bytes.Buffer
		require.NoError(t, encode(&buf), name)
		img, err := codec.Decode(buf.Bytes())
		require.NoError(t, err, name)
		assert.Equal(t, image.Pt(12, 9), img.Bounds().Size(), name)
		assert.Equal(t, RasterMode, DetectMode(buf.Bytes()), name)
	}
}

func TestDecodeLimits(t *testing.T) {
	data := encodePNG(t, gradientImage(20, 5))

	codec := NewImageCodec(CatmullRom)
	codec.MaxWidth = 10
	_, err := codec.Decode(data)
	assert.Error(t, err)

	codec = NewImageCodec(CatmullRom)
	codec.MaxBytes = 20 * 5 * 4
	_, err = codec.Decode(data)
	assert.NoError(t, err)
	codec.MaxBytes--
	_, err = codec.Decode(data)
	assert.Error(t, err)

	_, err = codec.Decode(nil)
	assert.ErrorIs(t, err, ErrEmptyPayload)
	_, err = codec.Decode([]byte("GIF89a"))
	assert.Error(t, err)
}

func TestResampleFilters(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for i := range src.Pix {
		src.Pix[i] = 0xff
	}
	for _, filter := range []Filter{CatmullRom, BiLinear, ApproxBiLinear, Lanczos} {
		parsed, err := ParseFilter(filter.String())
		require.NoError(t, err)
		require.Equal(t, filter, parsed)

		codec := NewImageCodec(filter)
		out, err := codec.Resample(src, 40, 24)
		require.NoError(t, err)
		assert.Equal(t, image.Pt(40, 24), out.Bounds().Size(), filter.String())
		// a uniform image stays uniform
		c := color.NRGBAModel.Convert(out.At(20, 12)).(color.NRGBA)
		assert.InDelta(t, 0xff, c.R, 2, filter.String())
		assert.InDelta(t, 0xff, c.A, 2, filter.String())

		empty, err := codec.Resample(src, 0, 10)
		require.NoError(t, err)
		assert.True(t, empty.Bounds().Empty())
	}
	_, err := ParseFilter("nearest")
	assert.Error(t, err)
}

func TestResampleIsSmooth(t *testing.T) {
	// a black and white checkerboard turns grey when shrunk,
	// which a nearest neighbour filter would not do
	src := image.NewGray(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if (x+y)%2 == 0 {
				src.SetGray(x, y, color.Gray{0xff})
			}
		}
	}
	out, err := NewImageCodec(CatmullRom).Resample(src, 4, 4)
	require.NoError(t, err)
	g := color.GrayModel.Convert(out.At(1, 1)).(color.Gray)
	assert.InDelta(t, 0x80, g.Y, 0x30)
}

func TestResampleLimit(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	codec := NewImageCodec(CatmullRom)
	codec.MaxBytes = 20 * 20 * 4

	out, err := codec.Resample(src, 20, 20)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(20, 20), out.Bounds().Size())

	for _, filter := range []Filter{CatmullRom, Lanczos} {
		codec.Filter = filter
		out, err = codec.Resample(src, 21, 20)
		assert.ErrorIs(t, err, ErrTooLarge, filter.String())
		assert.Nil(t, out)
	}

	// the default limit rejects a 900% zoom of the largest accepted bitmap
	_, err = NewImageCodec(CatmullRom).Resample(src, 73728, 73728)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestDetectMode(t *testing.T) {
	for _, test := range []struct {
		data     string
		expected Mode
	}{
		{`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 1 1"/>`, VectorMode},
		{"<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<!-- generated -->\n<svg width=\"4\" height=\"4\"></svg>", VectorMode},
		{"\xef\xbb\xbf<svg/>", VectorMode},
		{"just some text", NoMode},
		{"", NoMode},
		{"<html><body></body></html>", NoMode},
	} {
		assert.Equal(t, test.expected, DetectMode([]byte(test.data)), test.data)
	}
	assert.Equal(t, RasterMode, DetectMode(encodePNG(t, gradientImage(2, 2))))
}
