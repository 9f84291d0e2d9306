package svgicon

import (
	"errors"
	"log"
)

// ErrorMode is the for setting how the parser reacts to unparsed elements
type ErrorMode uint8

const (
	// IgnoreErrorMode skips unparsed SVG elements.
	IgnoreErrorMode ErrorMode = iota

	// WarnErrorMode outputs a warning for each unparsed SVG element.
	WarnErrorMode

	// StrictErrorMode causes an error when an unparsed SVG element is found.
	StrictErrorMode
)

func (m ErrorMode) String() string {
	switch m {
	case IgnoreErrorMode:
		return "ignore"
	case WarnErrorMode:
		return "warn"
	case StrictErrorMode:
		return "strict"
	default:
		return "<unknown ErrorMode>"
	}
}

// ParseErrorMode maps "ignore", "warn" and "strict" to their ErrorMode.
func ParseErrorMode(s string) (ErrorMode, error) {
	switch s {
	case "ignore", "":
		return IgnoreErrorMode, nil
	case "warn":
		return WarnErrorMode, nil
	case "strict":
		return StrictErrorMode, nil
	}
	return 0, errors.New("unknown error mode " + s)
}

var (
	errParamMismatch  = errors.New("param mismatch")
	errCommandUnknown = errors.New("unknown command")
	errZeroLengthID   = errors.New("zero length id")
	errMissingID      = errors.New("cannot find id")

	// ErrUseLimit is returned for <use> references nested too deeply,
	// usually because of a cycle, or expanding to too many elements.
	ErrUseLimit = errors.New("too many nested or instantiated use elements")

	// ErrNotSVG is returned when the stream holds no <svg> root element.
	ErrNotSVG = errors.New("invalid svg xml icon")
)

// handleError applies the error mode of the cursor to
// a problem which does not prevent the parsing to continue.
func (c *iconCursor) handleError(msg string) error {
	switch c.errorMode {
	case StrictErrorMode:
		return errors.New(msg)
	case WarnErrorMode:
		log.Println(msg)
	}
	return nil
}
