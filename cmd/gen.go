package cmd

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"tomgalvin.uk/monoform/internal/bitmap"
	"tomgalvin.uk/monoform/internal/canvas"
	"tomgalvin.uk/monoform/internal/codegen"
	"tomgalvin.uk/monoform/internal/convert"
)

var errUsage = errors.New("usage: monoform gen [flags] <image>")

// Converts a single image file and writes the C source to -o, or stdout.
func Gen(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("gen", flag.ContinueOnError)
	def := canvas.Presets[0]
	width := fs.Int("width", def.Width, "output width in pixels")
	height := fs.Int("height", def.Height, "output height in pixels")
	x := fs.Int("x", 0, "left edge of the crop window in scaled pixels")
	y := fs.Int("y", 0, "top edge of the crop window in scaled pixels")
	scale := fs.Float64("scale", 0, "source scale factor, 0 fits the image")
	threshold := fs.Int("threshold", bitmap.DefaultThreshold, "pixels darker than this are lit")
	symbol := fs.String("symbol", codegen.DefaultSymbol, "C identifier for the header array")
	mode := fs.String("mode", bitmap.PageMajor.String(), "horizontal or vertical packing")
	flavor := fs.String("flavor", codegen.Header.String(), "header or snippet")
	displayWidth := fs.Int("display-width", 0, "display width used by the snippet, defaults to -width")
	displayHeight := fs.Int("display-height", 0, "display height used by the snippet, defaults to -height")
	dither := fs.Bool("dither", false, "dither to black and white first")
	invert := fs.Bool("invert", false, "swap light and dark")
	out := fs.String("o", "", "output file, stdout when empty")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errUsage
	}

	o := convert.DefaultOptions()
	o.Threshold = *threshold
	o.Symbol = *symbol
	o.DisplayWidth, o.DisplayHeight = *displayWidth, *displayHeight
	var err error
	if o.Mode, err = bitmap.ParseMode(*mode); err != nil {
		return err
	}
	if o.Flavor, err = codegen.ParseFlavor(*flavor); err != nil {
		return err
	}

	f, err := os.Open(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("Couldn't open image:\n%w", err)
	}
	defer f.Close()
	img, _, err := canvas.Decode(f)
	if err != nil {
		return err
	}

	rendered, err := canvas.Render(img, canvas.Options{
		Width:  *width,
		Height: *height,
		X:      *x,
		Y:      *y,
		Scale:  *scale,
		Dither: *dither,
		Invert: *invert,
	})
	if err != nil {
		return err
	}

	doc, err := convert.Generate(canvas.Pixels(rendered), *width, *height, o)
	if err != nil {
		return err
	}

	if *out == "" {
		_, err = io.WriteString(stdout, doc)
		return err
	}
	if err := os.WriteFile(*out, []byte(doc), 0o644); err != nil {
		return fmt.Errorf("Couldn't write %s:\n%w", *out, err)
	}
	return nil
}
