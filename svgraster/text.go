package svgraster

import (
	"image"
	"image/draw"
	"math"
	"strings"
	"sync"

	"github.com/benoitkugler/diagview/svgicon"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

type faceVariant uint8

const (
	regular faceVariant = iota
	bold
	italic
	boldItalic
	mono
	monoBold
)

var ttfs = [...][]byte{
	regular:    goregular.TTF,
	bold:       gobold.TTF,
	italic:     goitalic.TTF,
	boldItalic: gobolditalic.TTF,
	mono:       gomono.TTF,
	monoBold:   gomonobold.TTF,
}

var (
	parseFonts  sync.Once
	parsedFonts [len(ttfs)]*opentype.Font
	parseErr    error
)

func loadFonts() error {
	parseFonts.Do(func() {
		for i, data := range ttfs {
			parsedFonts[i], parseErr = opentype.Parse(data)
			if parseErr != nil {
				return
			}
		}
	})
	return parseErr
}

func variantOf(run svgicon.TextRun) faceVariant {
	family := strings.ToLower(run.Family)
	if strings.Contains(family, "mono") || strings.Contains(family, "courier") {
		if run.Bold {
			return monoBold
		}
		return mono
	}
	switch {
	case run.Bold && run.Italic:
		return boldItalic
	case run.Bold:
		return bold
	case run.Italic:
		return italic
	}
	return regular
}

type faceKey struct {
	variant faceVariant
	size    int // in 1/4 pixel
}

// FaceCache holds the font faces built from the Go fonts,
// keyed by variant and size.
// A FaceCache is not safe for concurrent use.
type FaceCache struct {
	faces map[faceKey]font.Face
}

// NewFaceCache returns an empty cache.
func NewFaceCache() *FaceCache {
	return &FaceCache{faces: make(map[faceKey]font.Face)}
}

func (fc *FaceCache) face(variant faceVariant, size float64) (font.Face, error) {
	key := faceKey{variant: variant, size: int(math.Round(size * 4))}
	if f, ok := fc.faces[key]; ok {
		return f, nil
	}
	if err := loadFonts(); err != nil {
		return nil, err
	}
	f, err := opentype.NewFace(parsedFonts[variant], &opentype.FaceOptions{
		Size:    float64(key.size) / 4,
		DPI:     72, // sizes are given in pixels
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, err
	}
	fc.faces[key] = f
	return f, nil
}

// Close releases the faces.
func (fc *FaceCache) Close() error {
	var err error
	for k, f := range fc.faces {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
		delete(fc.faces, k)
	}
	return err
}

type textPainter struct {
	dst    draw.Image
	origin image.Point // position of the rasterizer origin in dst
	fonts  *FaceCache
}

func (tp *textPainter) draw(run svgicon.TextRun) {
	if run.Size <= 0 || run.Opacity <= 0 {
		return
	}
	face, err := tp.fonts.face(variantOf(run), run.Size)
	if err != nil {
		return
	}
	d := font.Drawer{
		Dst:  tp.dst,
		Src:  image.NewUniform(plainOpacity(run.Color, run.Opacity)),
		Face: face,
	}
	x := run.X
	switch run.Anchor {
	case svgicon.AnchorMiddle:
		x -= float64(d.MeasureString(run.Text)) / 128
	case svgicon.AnchorEnd:
		x -= float64(d.MeasureString(run.Text)) / 64
	}
	d.Dot = fixed.Point26_6{
		X: fixed.Int26_6((x + float64(tp.origin.X)) * 64),
		Y: fixed.Int26_6((run.Y + float64(tp.origin.Y)) * 64),
	}
	d.DrawString(run.Text)
}
