package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/whiteboard/pkg/element"
	"github.com/matzehuels/whiteboard/pkg/render"
	"github.com/matzehuels/whiteboard/pkg/render/sink"
	"github.com/matzehuels/whiteboard/pkg/storage"
)

const (
	formatSVG  = "svg"
	formatPNG  = "png"
	formatPDF  = "pdf"
	formatJSON = "json"
)

// renderOpts holds the command-line flags shared by render and export.
type renderOpts struct {
	output     string   // output file path (or base path for multiple outputs)
	formats    []string // output formats: "svg", "png", "pdf", "json"
	width      float64  // frame width in pixels, 0 fits the board
	height     float64  // frame height in pixels, 0 fits the board
	scale      float64  // PNG pixel density
	background string   // background color, empty for transparent SVG/PNG
	strict     bool     // fail on the first element that cannot be painted
}

func defaultRenderOpts() renderOpts {
	return renderOpts{scale: 1, background: "#ffffff"}
}

// addRenderFlags registers the output flags on cmd.
func addRenderFlags(cmd *cobra.Command, opts *renderOpts, formats *string) {
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(formats, "format", "f", "", "output format(s): svg (default), png, pdf, json (comma-separated)")
	cmd.Flags().Float64Var(&opts.width, "width", 0, "frame width (0 fits the board)")
	cmd.Flags().Float64Var(&opts.height, "height", 0, "frame height (0 fits the board)")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "PNG pixel density")
	cmd.Flags().StringVar(&opts.background, "background", opts.background, "background color (empty for transparent)")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "fail on elements that cannot be painted")

	_ = cmd.RegisterFlagCompletionFunc("format", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{formatSVG, formatPNG, formatPDF, formatJSON}, cobra.ShellCompDirectiveNoFileComp
	})
}

// renderCommand creates the render command for element files.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	opts := defaultRenderOpts()

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render an element file to SVG, PNG, PDF or JSON",
		Long: `Render a board saved as JSON.

The file holds either a bare array of elements or a storage API response
of the form {"elements": [...]}. Shapes without a stored sketch get one
generated, so the JSON output can be used to freeze a board's look.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := validateFormats(opts.formats); err != nil {
				return err
			}
			elements, err := readElements(args[0])
			if err != nil {
				return err
			}
			return runRender(cmd.Context(), elements, args[0], &opts)
		},
	}
	addRenderFlags(cmd, &opts, &formatsStr)
	return cmd
}

// parseFormats parses the --format flag into a slice of output formats.
// If empty, defaults to ["svg"].
func parseFormats(s string) []string {
	if s == "" {
		return []string{formatSVG}
	}
	return strings.Split(s, ",")
}

// validFormats is the set of supported output formats.
var validFormats = map[string]bool{formatSVG: true, formatJSON: true, formatPDF: true, formatPNG: true}

// validateFormats checks that all requested formats are valid.
func validateFormats(formats []string) error {
	for _, f := range formats {
		if !validFormats[f] {
			return fmt.Errorf("invalid format: %s (must be 'svg', 'png', 'pdf', or 'json')", f)
		}
	}
	return nil
}

// basePath derives the base output path from the output and input names.
// If output is empty, it strips the extension from input. A known format
// extension on output is stripped as well.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if validFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// readElements loads an element file.
func readElements(path string) ([]element.Element, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	elements, err := decodeElements(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return elements, nil
}

// decodeElements accepts a bare element array or a storage API response.
func decodeElements(data []byte) ([]element.Element, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var elements []element.Element
		if err := json.Unmarshal(data, &elements); err != nil {
			return nil, fmt.Errorf("decode elements: %w", err)
		}
		return elements, nil
	}
	var resp storage.LoadResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode elements: %w", err)
	}
	return resp.Elements, nil
}

// runRender renders elements to every requested format. name is the input
// the default output paths are derived from.
func runRender(ctx context.Context, elements []element.Element, name string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)
	base := basePath(opts.output, name)
	// every format paints the same sketches
	elements = element.Freeze(elements)

	skipped := 0
	for _, format := range opts.formats {
		data, n, err := renderBoard(ctx, elements, format, opts)
		if err != nil {
			return fmt.Errorf("%s: %w", format, err)
		}
		skipped = max(skipped, n)

		path := base + "." + format
		if len(opts.formats) == 1 && opts.output != "" {
			path = opts.output
		}
		if err := writeOutput(path, data); err != nil {
			return err
		}
		logger.Debugf("Generated %s: %d bytes", path, len(data))
		printFile(path)
	}
	printStats(len(elements), skipped, "")
	prog.done(fmt.Sprintf("Rendered %d format(s)", len(opts.formats)))
	return nil
}

// renderBoard paints elements in one format. It returns the output and the
// number of elements that were skipped.
func renderBoard(ctx context.Context, elements []element.Element, format string, opts *renderOpts) ([]byte, int, error) {
	logger := loggerFromContext(ctx)
	rOpts := []render.Option{render.WithLogger(logger)}
	if opts.strict {
		rOpts = append(rOpts, render.WithStrict())
	}
	r := render.New(rOpts...)
	w, h := frameSize(elements, opts)

	switch format {
	case formatSVG:
		s := sink.NewSVG(sink.WithSize(w, h), sink.WithBackground(opts.background))
		n, err := skippedCount(r.Render(s, elements), opts.strict)
		return s.Bytes(), n, err
	case formatPNG:
		p, err := sink.NewPNG(
			sink.WithPNGSize(int(math.Ceil(w)), int(math.Ceil(h))),
			sink.WithScale(opts.scale),
			sink.WithPNGBackground(opts.background),
		)
		if err != nil {
			return nil, 0, err
		}
		n, err := skippedCount(r.Render(p, elements), opts.strict)
		if err != nil {
			return nil, n, err
		}
		data, err := p.Bytes()
		return data, n, err
	case formatPDF:
		p := sink.NewPDF(sink.WithPDFSize(w, h))
		n, err := skippedCount(r.Render(p, elements), opts.strict)
		if err != nil {
			return nil, n, err
		}
		data, err := p.Bytes()
		return data, n, err
	case formatJSON:
		data, err := json.MarshalIndent(storage.LoadResponse{Elements: element.Freeze(elements)}, "", "  ")
		return data, 0, err
	default:
		return nil, 0, fmt.Errorf("unknown format: %s", format)
	}
}

// frameSize returns the explicit frame size, or one that fits the board.
func frameSize(elements []element.Element, opts *renderOpts) (float64, float64) {
	w, h := render.Extent(elements, defaultMargin)
	if opts.width > 0 {
		w = opts.width
	}
	if opts.height > 0 {
		h = opts.height
	}
	return w, h
}

// skippedCount turns a render error into the number of skipped elements. In
// strict mode the error is returned instead.
func skippedCount(err error, strict bool) (int, error) {
	if err == nil {
		return 0, nil
	}
	if strict {
		return 1, err
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return len(joined.Unwrap()), nil
	}
	return 1, nil
}

// writeOutput writes data to path, creating parent directories.
func writeOutput(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}
