package main

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/benoitkugler/diagview/preview"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const squareSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="40" height="20" viewBox="0 0 40 20">
<title>square</title>
<rect x="10" y="0" width="20" height="20" fill="#ff0000"/>
</svg>`

func writeInput(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func pngInput(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func readPNG(t *testing.T, path string) image.Image {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	return img
}

func TestParseFlags(t *testing.T) {
	cfgFile := writeInput(t, "diagview.toml", []byte("zoom = 200\nformat = \"pdf\"\nfilter = \"lanczos\"\n"))

	opts, err := parseFlags([]string{"-config", cfgFile, "-zoom", "50", "-in", "2", "diagram.svg"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 50, opts.cfg.Zoom)          // flag wins
	assert.Equal(t, "pdf", opts.cfg.Format)     // from file
	assert.Equal(t, "lanczos", opts.cfg.Filter) // from file
	assert.Equal(t, 2, opts.zoomIn)
	assert.Equal(t, "diagram.svg", opts.input)
	assert.Equal(t, "diagram.pdf", opts.output)

	opts, err = parseFlags([]string{"-o", "out.png", "in.png"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "out.png", opts.output)
	assert.Equal(t, 100, opts.cfg.Zoom)

	for _, args := range [][]string{
		{},
		{"a.png", "b.png"},
		{"-zoom", "10", "a.png"},
		{"-format", "gif", "a.png"},
		{"-out", "-1", "a.png"},
		{"-config", "missing.toml", "a.png"},
		{"-unknown", "a.png"},
	} {
		_, err := parseFlags(args, io.Discard)
		assert.Error(t, err, "%v", args)
	}
}

func TestRunRaster(t *testing.T) {
	input := writeInput(t, "diagram.png", pngInput(t, 30, 10))
	opts, err := parseFlags([]string{"-in", "2", input}, io.Discard)
	require.NoError(t, err)
	require.NoError(t, run(context.Background(), opts))

	img := readPNG(t, opts.output)
	assert.Equal(t, image.Pt(60, 20), img.Bounds().Size()) // 100 -> 150 -> 200
}

func TestRunVector(t *testing.T) {
	input := writeInput(t, "diagram.svg", []byte(squareSVG))
	opts, err := parseFlags([]string{"-zoom", "50", "-bg", "black", input}, io.Discard)
	require.NoError(t, err)
	require.NoError(t, run(context.Background(), opts))

	img := readPNG(t, opts.output)
	require.Equal(t, image.Pt(20, 10), img.Bounds().Size())
	r, _, _, _ := img.At(10, 5).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Equal(t, color.RGBA{0, 0, 0, 0xff}, color.RGBAModel.Convert(img.At(1, 5)))

	opts, err = parseFlags([]string{"-format", "pdf", input}, io.Discard)
	require.NoError(t, err)
	require.NoError(t, run(context.Background(), opts))
	out, err := os.ReadFile(opts.output)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.Contains(t, string(out), "/MediaBox [0 0 40.00 20.00]")
}

func TestRunErrors(t *testing.T) {
	// PDF needs a vector input
	input := writeInput(t, "diagram.png", pngInput(t, 4, 4))
	opts, err := parseFlags([]string{"-format", "pdf", input}, io.Discard)
	require.NoError(t, err)
	assert.Error(t, run(context.Background(), opts))

	// broken content is not fatal for the surface, but nothing can be written
	input = writeInput(t, "broken.png", []byte("\x89PNG\r\n\x1a\nbroken"))
	opts, err = parseFlags([]string{"-mode", "raster", input}, io.Discard)
	require.NoError(t, err)
	assert.Error(t, run(context.Background(), opts))

	opts, err = parseFlags([]string{filepath.Join(t.TempDir(), "missing.png")}, io.Discard)
	require.NoError(t, err)
	assert.Error(t, run(context.Background(), opts))
}

func TestLoadUnrecognized(t *testing.T) {
	input := writeInput(t, "diagram.png", pngInput(t, 4, 4))
	opts, err := parseFlags([]string{input}, io.Discard)
	require.NoError(t, err)
	s, err := newSession(opts)
	require.NoError(t, err)
	defer s.close()

	require.NoError(t, s.load())
	assert.Equal(t, preview.RasterMode, s.surface.Mode())
	require.NoError(t, s.surface.LoadErr())

	// a file caught while being written is not recognized
	require.NoError(t, os.WriteFile(input, []byte{0x89, 'P'}, 0o644))
	require.NoError(t, s.load())
	assert.Equal(t, preview.RasterMode, s.surface.Mode())
	assert.Error(t, s.surface.LoadErr())
	assert.Error(t, s.export())

	require.NoError(t, os.WriteFile(input, pngInput(t, 6, 2), 0o644))
	require.NoError(t, s.load())
	require.NoError(t, s.export())
	assert.Equal(t, image.Pt(6, 2), readPNG(t, opts.output).Bounds().Size())
}

func TestCanvasHost(t *testing.T) {
	host := newCanvasHost(color.White)
	s := preview.NewSurface(host, preview.WithMode(preview.RasterMode), preview.WithZoom(300))
	s.Load(pngInput(t, 5, 4))
	assert.Equal(t, image.Pt(5, 4), host.minSize) // natural size on load

	canvas := host.paint(s)
	assert.Equal(t, image.Pt(15, 12), canvas.Bounds().Size())
	assert.Equal(t, image.Pt(15, 12), host.minSize)
	assert.False(t, s.Dirty())

	// nothing changed: the same canvas is returned
	assert.Same(t, canvas, host.paint(s))

	s.ZoomOut() // 250%, rounded half up
	assert.Equal(t, image.Pt(13, 10), host.paint(s).Bounds().Size())
}

func TestWatchFile(t *testing.T) {
	path := writeInput(t, "diagram.svg", []byte(squareSVG))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan struct{}, 8)
	done := make(chan error, 1)
	go func() {
		done <- watchFile(ctx, path, func() { changes <- struct{}{} })
	}()

	// unrelated files are ignored
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), "other.txt"), []byte("x"), 0o644))

	deadline := time.After(5 * time.Second)
	ticker := time.NewTicker(3 * settle)
	defer ticker.Stop()
wait:
	for {
		select {
		case <-changes:
			break wait
		case <-ticker.C:
			// the watcher may not be ready yet: write until noticed
			require.NoError(t, os.WriteFile(path, []byte(squareSVG), 0o644))
		case <-deadline:
			t.Fatal("change not reported")
		}
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher not stopped")
	}
}
