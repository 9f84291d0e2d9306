package main

import (
	"image"
	"image/color"

	"github.com/benoitkugler/diagview/preview"
	"golang.org/x/image/draw"
)

// canvasHost is a headless preview.Host: it lays the surface out
// on a canvas exactly as large as the surface asks for.
type canvasHost struct {
	background color.Color
	minSize    image.Point
	pending    bool
	canvas     *image.RGBA
}

func newCanvasHost(background color.Color) *canvasHost {
	return &canvasHost{background: background}
}

func (h *canvasHost) SetMinimumSize(size image.Point) { h.minSize = size }

func (h *canvasHost) RequestRedraw() { h.pending = true }

// paint renders the surface if a redraw is pending, and returns the canvas.
// The canvas is resized, and painted again, when the surface reports
// a new minimum size.
func (h *canvasHost) paint(s *preview.Surface) *image.RGBA {
	if !h.pending && h.canvas != nil {
		return h.canvas
	}
	for i := 0; i < 2; i++ {
		size := h.minSize
		if h.canvas == nil || h.canvas.Bounds().Size() != size {
			h.canvas = image.NewRGBA(image.Rectangle{Max: size})
		}
		draw.Draw(h.canvas, h.canvas.Bounds(), image.NewUniform(h.background), image.Point{}, draw.Src)
		h.pending = false
		s.Render(h.canvas, h.canvas.Bounds())
		if h.minSize == size {
			break
		}
	}
	return h.canvas
}
