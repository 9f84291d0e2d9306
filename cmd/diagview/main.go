// Command diagview renders the preview of a generated diagram,
// PNG or SVG, at a given zoom, and optionally keeps it up to date
// while the diagram is regenerated.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image/png"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/benoitkugler/diagview/internal/config"
	"github.com/benoitkugler/diagview/preview"
	"github.com/benoitkugler/diagview/svgpdf"
	"github.com/benoitkugler/diagview/svgraster"
)

type options struct {
	cfg             config.Config
	input, output   string
	zoomIn, zoomOut int
}

func usage(fs *flag.FlagSet) func() {
	return func() {
		fmt.Fprintf(fs.Output(), "usage: diagview [flags] input\n")
		fs.PrintDefaults()
	}
}

// parseFlags reads the configuration file, if any, then applies
// the flags explicitly set on top of it.
func parseFlags(args []string, stderr io.Writer) (options, error) {
	def := config.Default()
	fs := flag.NewFlagSet("diagview", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = usage(fs)

	var (
		opts       options
		configFile = fs.String("config", "", "TOML or YAML configuration file")
		zoom       = fs.Int("zoom", def.Zoom, "initial zoom, in percent")
		mode       = fs.String("mode", def.Mode, "auto, none, raster or vector")
		format     = fs.String("format", def.Format, "output format: png or pdf")
		filter     = fs.String("filter", def.Filter, "raster filter: catmullrom, bilinear, approxbilinear or lanczos")
		background = fs.String("bg", def.Background, "background color")
		watch      = fs.Bool("watch", def.Watch, "render again when the input changes")
		errMode    = fs.String("svgerrors", def.ErrorMode, "unsupported SVG elements: ignore, warn or strict")
	)
	fs.IntVar(&opts.zoomIn, "in", 0, "zoom in `N` times")
	fs.IntVar(&opts.zoomOut, "out", 0, "zoom out `N` times")
	fs.StringVar(&opts.output, "o", "", "output file (default: input with the format extension)")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return opts, errors.New("expected exactly one input file")
	}
	opts.input = fs.Arg(0)

	opts.cfg = def
	if *configFile != "" {
		var err error
		if opts.cfg, err = config.Open(*configFile); err != nil {
			return opts, err
		}
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "zoom":
			opts.cfg.Zoom = *zoom
		case "mode":
			opts.cfg.Mode = *mode
		case "format":
			opts.cfg.Format = *format
		case "filter":
			opts.cfg.Filter = *filter
		case "bg":
			opts.cfg.Background = *background
		case "watch":
			opts.cfg.Watch = *watch
		case "svgerrors":
			opts.cfg.ErrorMode = *errMode
		}
	})
	if err := opts.cfg.Validate(); err != nil {
		return opts, err
	}
	if opts.zoomIn < 0 || opts.zoomOut < 0 {
		return opts, errors.New("negative zoom step count")
	}
	if opts.output == "" {
		opts.output = strings.TrimSuffix(opts.input, filepath.Ext(opts.input)) + "." + opts.cfg.Format
	}
	return opts, nil
}

// session binds a surface to its headless host.
type session struct {
	opts     options
	host     *canvasHost
	document *svgraster.Document
	surface  *preview.Surface
}

func newSession(opts options) (*session, error) {
	bg, err := opts.cfg.BackgroundColor()
	if err != nil {
		return nil, err
	}
	s := &session{
		opts:     opts,
		host:     newCanvasHost(bg),
		document: svgraster.NewDocument(opts.cfg.SVGErrorMode()),
	}
	s.surface = preview.NewSurface(s.host,
		preview.WithRasterCodec(opts.cfg.Codec()),
		preview.WithVectorRenderer(s.document),
		preview.WithZoom(opts.cfg.Zoom),
	)
	if opts.cfg.Mode != "auto" {
		m, _ := preview.ParseMode(opts.cfg.Mode)
		s.surface.SetMode(m)
	}
	for i := 0; i < opts.zoomIn; i++ {
		s.surface.ZoomIn()
	}
	for i := 0; i < opts.zoomOut; i++ {
		s.surface.ZoomOut()
	}
	return s, nil
}

// load reads the input into the surface. Content errors are
// only logged: the surface is then empty until the next load.
// In auto mode, unrecognized content keeps the current mode, so that
// a truncated file is reported as a decoding error.
func (s *session) load() error {
	data, err := os.ReadFile(s.opts.input)
	if err != nil {
		return err
	}
	if s.opts.cfg.Mode == "auto" {
		if m := preview.DetectMode(data); m != preview.NoMode {
			s.surface.SetMode(m)
		}
	}
	s.surface.Load(data)
	if err := s.surface.LoadErr(); err != nil {
		log.Printf("loading %s: %v", s.opts.input, err)
	}
	if err := s.surface.ScaleErr(); err != nil {
		log.Printf("loading %s: %v", s.opts.input, err)
	}
	return nil
}

// export writes the current state of the surface to the output file.
func (s *session) export() error {
	f, err := os.Create(s.opts.output)
	if err != nil {
		return err
	}
	if err := s.encode(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", s.opts.output, err)
	}
	return f.Close()
}

func (s *session) encode(w io.Writer) error {
	switch s.opts.cfg.Format {
	case "pdf":
		if s.surface.Mode() != preview.VectorMode {
			return fmt.Errorf("PDF output requires a vector input, got %s", s.surface.Mode())
		}
		return svgpdf.Export(w, s.document.Icon(), s.surface.ZoomPercent())
	default:
		canvas := s.host.paint(s.surface)
		if canvas.Bounds().Empty() {
			return errors.New("nothing to render")
		}
		return png.Encode(w, canvas)
	}
}

func (s *session) close() error { return s.surface.Close() }

func run(ctx context.Context, opts options) error {
	s, err := newSession(opts)
	if err != nil {
		return err
	}
	defer s.close()

	if err := s.load(); err != nil {
		return err
	}
	if err := s.export(); err != nil {
		return err
	}
	log.Printf("%s: %s at %d%% written to %s", opts.input, s.surface.Mode(), s.surface.ZoomPercent(), opts.output)
	if !opts.cfg.Watch {
		return nil
	}
	return watchFile(ctx, opts.input, func() {
		if err := s.load(); err != nil {
			log.Println(err)
			return
		}
		if err := s.export(); err != nil {
			log.Println(err)
			return
		}
		log.Printf("%s: updated", opts.output)
	})
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("diagview: ")

	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatal(err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, opts); err != nil {
		log.Fatal(err)
	}
}
