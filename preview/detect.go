package preview

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const svgMIME = "image/svg+xml"

// DetectMode guesses the mode suited to data from its content:
// VectorMode for SVG documents, RasterMode for the other images,
// NoMode otherwise.
func DetectMode(data []byte) Mode {
	mime := mimetype.Detect(data)
	if mime.Is(svgMIME) {
		return VectorMode
	}
	if strings.HasPrefix(mime.String(), "image/") {
		return RasterMode
	}
	return NoMode
}
