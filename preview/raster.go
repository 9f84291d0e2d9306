package preview

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder

	"github.com/anthonynsimon/bild/transform"
	_ "golang.org/x/image/bmp"  // register BMP decoder
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder
)

// Default size limits of an ImageCodec.
const (
	MaxImageWidth  = 16384
	MaxImageHeight = 16384
	MaxImageBytes  = 256 << 20 // uncompressed, at 4 bytes per pixel
)

var (
	// ErrEmptyPayload is returned when decoding an empty buffer.
	ErrEmptyPayload = errors.New("empty payload")
	// ErrTooLarge is returned when a resampled bitmap would exceed
	// the byte limit of the codec.
	ErrTooLarge = errors.New("scaled image too large")
)

// Filter is the interpolation used to resample bitmaps.
type Filter uint8

const (
	CatmullRom Filter = iota
	BiLinear
	ApproxBiLinear
	Lanczos
)

func (f Filter) String() string {
	switch f {
	case CatmullRom:
		return "catmullrom"
	case BiLinear:
		return "bilinear"
	case ApproxBiLinear:
		return "approxbilinear"
	case Lanczos:
		return "lanczos"
	default:
		return fmt.Sprintf("<invalid filter %d>", f)
	}
}

// ParseFilter is the inverse of Filter.String.
func ParseFilter(s string) (Filter, error) {
	for _, f := range [...]Filter{CatmullRom, BiLinear, ApproxBiLinear, Lanczos} {
		if f.String() == s {
			return f, nil
		}
	}
	return 0, fmt.Errorf("preview: unknown filter %q", s)
}

// ImageCodec is the default RasterCodec, decoding the formats
// registered in the image package.
type ImageCodec struct {
	Filter Filter

	// Images larger than these limits are rejected before decoding.
	// MaxBytes also bounds the resampled images.
	MaxWidth, MaxHeight int
	MaxBytes            int
}

// NewImageCodec returns a codec using the default limits.
func NewImageCodec(filter Filter) *ImageCodec {
	return &ImageCodec{
		Filter:    filter,
		MaxWidth:  MaxImageWidth,
		MaxHeight: MaxImageHeight,
		MaxBytes:  MaxImageBytes,
	}
}

// Decode reads the image header to check the size limits,
// then decodes the whole image.
func (c *ImageCodec) Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, ErrEmptyPayload
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("reading image header: %w", err)
	}
	if c.MaxWidth > 0 && cfg.Width > c.MaxWidth || c.MaxHeight > 0 && cfg.Height > c.MaxHeight {
		return nil, fmt.Errorf("%s image too large: %dx%d (max %dx%d)",
			format, cfg.Width, cfg.Height, c.MaxWidth, c.MaxHeight)
	}
	if size := cfg.Width * cfg.Height * 4; c.MaxBytes > 0 && size > c.MaxBytes {
		return nil, fmt.Errorf("%s image uncompressed size exceeds limit: %d bytes (max %d bytes)",
			format, size, c.MaxBytes)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding %s image: %w", format, err)
	}
	return img, nil
}

// Resample returns src scaled to width x height.
func (c *ImageCodec) Resample(src image.Image, width, height int) (image.Image, error) {
	if width <= 0 || height <= 0 {
		return image.NewRGBA(image.Rectangle{}), nil
	}
	if size := int64(width) * int64(height) * 4; c.MaxBytes > 0 && size > int64(c.MaxBytes) {
		return nil, fmt.Errorf("%w: %dx%d, %d bytes (max %d bytes)", ErrTooLarge, width, height, size, c.MaxBytes)
	}
	if c.Filter == Lanczos {
		return transform.Resize(src, width, height, transform.Lanczos), nil
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	c.interpolator().Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst, nil
}

func (c *ImageCodec) interpolator() draw.Interpolator {
	switch c.Filter {
	case BiLinear:
		return draw.BiLinear
	case ApproxBiLinear:
		return draw.ApproxBiLinear
	default:
		return draw.CatmullRom
	}
}
