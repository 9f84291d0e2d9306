package svgraster

import (
	"image"
	"image/color"
	"image/draw"
	"os"
	"testing"

	"github.com/benoitkugler/diagview/svgicon"
)

func colorNear(expected color.NRGBA, got color.Color) bool {
	c := color.NRGBAModel.Convert(got).(color.NRGBA)
	near := func(a, b uint8) bool { return int(a)-int(b) <= 2 && int(b)-int(a) <= 2 }
	return near(expected.R, c.R) && near(expected.G, c.G) && near(expected.B, c.B) && near(expected.A, c.A)
}

func checkColor(t *testing.T, img image.Image, x, y int, expected color.NRGBA, msg string) {
	t.Helper()
	if got := img.At(x, y); !colorNear(expected, got) {
		t.Errorf("%s: at (%d, %d) expected %v, got %v", msg, x, y, expected, got)
	}
}

func renderFile(t *testing.T, path string, fonts *FaceCache) *image.RGBA {
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("can't open svg source: %s", err)
	}
	defer f.Close()
	img, err := RasterSVGIconToImage(f, fonts)
	if err != nil {
		t.Fatalf("can't raster image: %s", err)
	}
	return img
}

func parseDocument(t *testing.T, src string) *Document {
	doc := NewDocument(svgicon.StrictErrorMode)
	if err := doc.Parse([]byte(src)); err != nil {
		t.Fatalf("can't parse document: %s", err)
	}
	return doc
}

var (
	red   = color.NRGBA{0xff, 0, 0, 0xff}
	blue  = color.NRGBA{0, 0, 0xff, 0xff}
	white = color.NRGBA{0xff, 0xff, 0xff, 0xff}
)

func TestRenderSequence(t *testing.T) {
	fonts := NewFaceCache()
	defer fonts.Close()
	img := renderFile(t, "../svgicon/testdata/sequence.svg", fonts)
	if img.Bounds() != image.Rect(0, 0, 240, 180) {
		t.Fatalf("unexpected bounds %v", img.Bounds())
	}

	checkColor(t, img, 165, 32, color.NRGBA{0xFE, 0xFE, 0xCE, 0xFF}, "participant box")
	checkColor(t, img, 183, 80, color.NRGBA{0xA8, 0x00, 0x36, 0xFF}, "arrow head")
	checkColor(t, img, 5, 170, color.NRGBA{}, "background")

	// the labels are only painted with fonts
	plain := renderFile(t, "../svgicon/testdata/sequence.svg", nil)
	differ := false
	for y := 12; y < 26 && !differ; y++ {
		for x := 20; x < 60; x++ {
			if img.RGBAAt(x, y) != plain.RGBAAt(x, y) {
				differ = true
				break
			}
		}
	}
	if !differ {
		t.Error("the Alice label should be painted")
	}
}

func TestDocument(t *testing.T) {
	doc := NewDocument(svgicon.StrictErrorMode)
	if s := doc.NaturalSize(); s != (image.Point{}) {
		t.Fatalf("expected empty size, got %v", s)
	}

	if err := doc.Parse([]byte(`<svg viewBox="0 0 10 10" width="20" height="30"><rect width="10" height="10" fill="#ff0000"/></svg>`)); err != nil {
		t.Fatal(err)
	}
	if s := doc.NaturalSize(); s != image.Pt(20, 30) {
		t.Fatalf("unexpected natural size %v", s)
	}

	dst := image.NewRGBA(image.Rect(50, 50, 150, 150))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	doc.RenderInto(dst, image.Rect(60, 60, 70, 70))
	checkColor(t, dst, 65, 65, red, "inside target")
	checkColor(t, dst, 75, 75, white, "outside target")
	checkColor(t, dst, 55, 55, white, "outside target")

	// invalid content empties the document
	if err := doc.Parse([]byte("not svg at all")); err == nil {
		t.Fatal("expected an error for invalid content")
	}
	if doc.NaturalSize() != (image.Point{}) || doc.Icon() != nil {
		t.Fatal("document should be empty after a parse failure")
	}

	if err := doc.Parse([]byte(`<svg viewBox="0 0 4 4"/>`)); err != nil {
		t.Fatal(err)
	}
	if err := doc.Close(); err != nil {
		t.Fatal(err)
	}
	if doc.Icon() != nil {
		t.Fatal("document should be empty after Close")
	}
	// rendering an empty document is a no-op
	doc.RenderInto(dst, dst.Bounds())
}

func TestRenderOverflowingTarget(t *testing.T) {
	doc := parseDocument(t, `<svg viewBox="0 0 10 10">
	<rect width="5" height="10" fill="#ff0000"/><rect x="5" width="5" height="10" fill="#0000ff"/></svg>`)
	defer doc.Close()

	// the target is twice as large as the image: the document is
	// scaled to the target, and clipped by the image
	dst := image.NewRGBA(image.Rect(0, 0, 10, 10))
	doc.RenderInto(dst, image.Rect(0, 0, 20, 20))
	checkColor(t, dst, 8, 5, red, "left half")
	checkColor(t, dst, 5, 9, red, "left half")

	// negative offset, as for a centered target
	dst = image.NewRGBA(image.Rect(0, 0, 10, 10))
	doc.RenderInto(dst, image.Rect(-5, -5, 15, 15))
	checkColor(t, dst, 2, 5, red, "left of center")
	checkColor(t, dst, 7, 5, blue, "right of center")

	// with an image not starting at the origin
	dst = image.NewRGBA(image.Rect(100, 100, 110, 110))
	doc.RenderInto(dst, image.Rect(95, 95, 115, 115))
	checkColor(t, dst, 102, 105, red, "offset image, left")
	checkColor(t, dst, 107, 105, blue, "offset image, right")
}

func TestGradient(t *testing.T) {
	doc := parseDocument(t, `<svg viewBox="0 0 100 10">
	<linearGradient id="lg"><stop offset="0" stop-color="black"/><stop offset="1" stop-color="white"/></linearGradient>
	<rect width="100" height="10" fill="url(#lg)"/>
	</svg>`)
	dst := image.NewRGBA(image.Rect(0, 0, 100, 10))
	doc.RenderInto(dst, dst.Bounds())

	left, right := dst.RGBAAt(5, 5), dst.RGBAAt(95, 5)
	if left.R >= right.R {
		t.Errorf("gradient should go from dark to light, got %v and %v", left, right)
	}
	if left.A != 0xff {
		t.Errorf("gradient should be opaque, got %v", left)
	}
}

func TestTextAnchor(t *testing.T) {
	render := func(anchor string) *image.RGBA {
		doc := parseDocument(t, `<svg viewBox="0 0 200 40"><text x="100" y="30" font-size="20" text-anchor="`+anchor+`">Wide label</text></svg>`)
		defer doc.Close()
		dst := image.NewRGBA(image.Rect(0, 0, 200, 40))
		doc.RenderInto(dst, dst.Bounds())
		return dst
	}
	inked := func(img *image.RGBA, x0, x1 int) bool {
		for y := 0; y < 40; y++ {
			for x := x0; x < x1; x++ {
				if img.RGBAAt(x, y).A != 0 {
					return true
				}
			}
		}
		return false
	}
	start, end := render("start"), render("end")
	if !inked(start, 100, 200) || inked(start, 0, 95) {
		t.Error("start anchored text should lie right of x")
	}
	if !inked(end, 0, 100) || inked(end, 105, 200) {
		t.Error("end anchored text should lie left of x")
	}
}
