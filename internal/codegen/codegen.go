// Package codegen renders packed bitmaps as C source text for firmware.
//
// Two flavors are produced from the same byte table: a standalone header
// with an include guard and WIDTH/HEIGHT/LEN macros, and a copy-paste
// snippet that pushes a page-major buffer through the ssd1306 driver calls.
// Output is a pure function of the inputs, so identical bitmaps always
// produce byte-identical text.
package codegen

import (
	"embed"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"tomgalvin.uk/monoform/internal/bitmap"
)

const DefaultSymbol = "image_bitmap"

// Display driver whose API the snippet flavor calls into.
const snippetDriver = "ssd1306"

const bytesPerLine = 16

var (
	ErrInvalidSymbolName = errors.New("invalid symbol name")
	ErrUnsupportedMode   = errors.New("unsupported packing mode")
)

type Flavor byte

const (
	Header Flavor = iota
	Snippet
)

func (f Flavor) String() string {
	switch f {
	case Header:
		return "header"
	case Snippet:
		return "snippet"
	default:
		return fmt.Sprintf("Flavor(%d)", byte(f))
	}
}

func ParseFlavor(s string) (Flavor, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "header", "":
		return Header, nil
	case "snippet", snippetDriver:
		return Snippet, nil
	default:
		return 0, fmt.Errorf(`Unrecognised output flavor "%s"`, s)
	}
}

type Options struct {
	// Name of the array in the header flavor, DefaultSymbol if empty.
	Symbol string
	Flavor Flavor
	// Display size passed to the driver calls of the snippet flavor.
	// Zero means the size of the bitmap.
	DisplayWidth, DisplayHeight int
}

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

type document struct {
	Guard, Macro, Symbol string
	Width, Height, Len   int
	Mode                 bitmap.Mode
	Body                 string

	Driver                      string
	DisplayWidth, DisplayHeight int
}

// Checks that s can be used as a C identifier.
func ValidSymbol(s string) error {
	if s == "" {
		return fmt.Errorf("%w: symbol is empty", ErrInvalidSymbolName)
	}
	for i, c := range s {
		switch {
		case c == '_', 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		case '0' <= c && c <= '9':
			if i == 0 {
				return fmt.Errorf(`%w: "%s" starts with a digit`, ErrInvalidSymbolName, s)
			}
		default:
			return fmt.Errorf(`%w: "%s" contains %q`, ErrInvalidSymbolName, s, c)
		}
	}
	return nil
}

// Name of the array emitted by the snippet flavor.
func SnippetSymbol(width, height int) string {
	return fmt.Sprintf("img%dx%d", width, height)
}

// Formats bytes as 0xHH, 16 per line, with lines joined by a comma,
// newline and tab.
func FormatBytes(data []byte) string {
	var sb strings.Builder
	for i, b := range data {
		if i > 0 {
			if i%bytesPerLine == 0 {
				sb.WriteString(",\n\t")
			} else {
				sb.WriteString(", ")
			}
		}
		fmt.Fprintf(&sb, "0x%02X", b)
	}
	return sb.String()
}

// Renders p as C source in the flavor selected by o. Inputs are validated
// before anything is rendered; on error no text is returned.
func Serialize(p *bitmap.PackedBitmap, o Options) (string, error) {
	if p.Width() <= 0 || p.Height() <= 0 {
		return "", fmt.Errorf("%w: bitmap must be at least 1x1 (got %vx%v)", bitmap.ErrInvalidDimensions, p.Width(), p.Height())
	}

	d := document{
		Width:  p.Width(),
		Height: p.Height(),
		Len:    p.Len(),
		Mode:   p.Mode(),
		Body:   FormatBytes(p.Data()),
	}

	if m := p.Mode(); m != bitmap.RowMajor && m != bitmap.PageMajor {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedMode, m)
	}

	var name string
	switch o.Flavor {
	case Header:
		name = "header.h.tmpl"
		d.Symbol = o.Symbol
		if d.Symbol == "" {
			d.Symbol = DefaultSymbol
		}
		if err := ValidSymbol(d.Symbol); err != nil {
			return "", err
		}
		d.Macro = strings.ToUpper(d.Symbol)
		d.Guard = "_" + d.Macro + "_H_"
	case Snippet:
		name = "snippet.h.tmpl"
		if p.Mode() != bitmap.PageMajor {
			return "", fmt.Errorf("%w: %s output needs %s packing, got %s", ErrUnsupportedMode, o.Flavor, bitmap.PageMajor, p.Mode())
		}
		if o.DisplayWidth < 0 || o.DisplayHeight < 0 {
			return "", fmt.Errorf("%w: display size %vx%v", bitmap.ErrInvalidDimensions, o.DisplayWidth, o.DisplayHeight)
		}
		d.Symbol = SnippetSymbol(p.Width(), p.Height())
		d.Driver = snippetDriver
		d.DisplayWidth, d.DisplayHeight = o.DisplayWidth, o.DisplayHeight
		if d.DisplayWidth == 0 {
			d.DisplayWidth = p.Width()
		}
		if d.DisplayHeight == 0 {
			d.DisplayHeight = p.Height()
		}
	default:
		return "", fmt.Errorf(`Unrecognised output flavor %s`, o.Flavor)
	}

	var sb strings.Builder
	if err := templates.ExecuteTemplate(&sb, name, d); err != nil {
		return "", fmt.Errorf("Couldn't render %s:\n%w", o.Flavor, err)
	}
	return sb.String(), nil
}
