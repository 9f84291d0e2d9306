// Provides parsing and rendering of SVG images.
// SVG files are parsed into an abstract representation,
// which can then be consumed by painting drivers.
// See for example diagview/svgraster or diagview/svgpdf .
package svgicon

import (
	"bytes"
	"encoding/xml"
	"io"
	"os"
	"strings"

	"golang.org/x/net/html/charset"
)

// PathStyle holds the state of the SVG style
type PathStyle struct {
	FillOpacity, LineOpacity float64
	LineWidth                float64
	UseNonZeroWinding        bool

	Join                    JoinOptions
	Dash                    DashOptions
	FillerColor, LinerColor Pattern // either PlainColor or Gradient

	Font FontOptions

	currentColor PlainColor // value of the "color" property
	transform    Matrix2D   // current transform
}

// SvgPath binds a style to a path
type SvgPath struct {
	Path  Path
	Style PathStyle
}

// Bounds defines a bounding box, such as a viewport
// or a path extent.
type Bounds struct{ X, Y, W, H float64 }

// SvgIcon holds data from parsed SVGs.
// See the `Draw` methods to use it.
type SvgIcon struct {
	ViewBox      Bounds
	Titles       []string // Title elements collect here
	Descriptions []string // Description elements collect here
	SVGPaths     []SvgPath
	Texts        []SvgText
	Transform    Matrix2D

	Width, Height string // top level width and height attributes

	grads map[string]*Gradient
	defs  map[string][]definition
}

// DefaultSize returns the natural size of the icon, in pixels:
// the top level width and height attributes when they are absolute,
// the view box dimensions otherwise.
func (s *SvgIcon) DefaultSize() (w, h float64) {
	w, h = s.ViewBox.W, s.ViewBox.H
	if v, ok := absoluteLength(s.Width); ok {
		w = v
	}
	if v, ok := absoluteLength(s.Height); ok {
		h = v
	}
	return w, h
}

// absoluteLength converts a length with an optional absolute unit to pixels
func absoluteLength(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasSuffix(s, "%") {
		return 0, false
	}
	v, err := convertUnit(s)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// ReadIconStream reads the Icon from the given io.Reader
// This only supports a sub-set of SVG, but
// is enough to draw many icons and diagrams. errMode determines if the icon ignores, errors out, or logs a warning
// if it does not handle an element found in the icon file.
func ReadIconStream(stream io.Reader, errMode ErrorMode) (*SvgIcon, error) {
	icon := &SvgIcon{defs: make(map[string][]definition), grads: make(map[string]*Gradient), Transform: Identity}
	cursor := &iconCursor{styleStack: []PathStyle{DefaultStyle}, icon: icon, errorMode: errMode}
	decoder := xml.NewDecoder(stream)
	decoder.CharsetReader = charset.NewReaderLabel
	decoder.Entity = xml.HTMLEntity
	seenTag := false
	for {
		t, err := decoder.Token()
		if err != nil {
			if err == io.EOF {
				if !seenTag {
					return nil, ErrNotSVG
				}
				break
			}
			return icon, err
		}
		// Inspect the type of the XML token
		switch se := t.(type) {
		case xml.StartElement:
			if !seenTag && se.Name.Local != "svg" {
				return nil, ErrNotSVG
			}
			seenTag = true
			if cursor.skipDepth > 0 || skippedElements[se.Name.Local] {
				cursor.skipDepth++
				continue
			}
			if cursor.inDefs {
				cursor.defsDepth++
			}
			// Reads all recognized style attributes from the start element
			// and places it on top of the styleStack
			if err = cursor.pushStyle(se.Attr); err != nil {
				return icon, err
			}
			if err = cursor.readStartElement(se); err != nil {
				return icon, err
			}
		case xml.EndElement:
			if cursor.skipDepth > 0 {
				cursor.skipDepth--
				continue
			}
			cursor.readEndElement(se)
		case xml.CharData:
			cursor.readCharData(se)
		}
	}
	return icon, nil
}

// ReadIconBytes reads the Icon from an in-memory document.
func ReadIconBytes(data []byte, errMode ErrorMode) (*SvgIcon, error) {
	return ReadIconStream(bytes.NewReader(data), errMode)
}

// ReadIcon reads the Icon from the named file
// This only supports a sub-set of SVG, but
// is enough to draw many icons. errMode determines if the icon ignores, errors out, or logs a warning
// if it does not handle an element found in the icon file.
func ReadIcon(iconFile string, errMode ErrorMode) (*SvgIcon, error) {
	fin, errf := os.Open(iconFile)
	if errf != nil {
		return nil, errf
	}
	defer fin.Close()
	return ReadIconStream(fin, errMode)
}
