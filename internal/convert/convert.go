// Package convert chains thresholding, packing and code generation into a
// single call, and offers a Worker to run conversions off the caller's
// goroutine.
package convert

import (
	"fmt"

	"tomgalvin.uk/monoform/internal/bitmap"
	"tomgalvin.uk/monoform/internal/codegen"
)

// Zero values are not defaults: a zero Threshold lights nothing. Start from
// DefaultOptions and override fields.
type Options struct {
	Threshold int
	Mode      bitmap.Mode
	codegen.Options
}

func DefaultOptions() Options {
	return Options{
		Threshold: bitmap.DefaultThreshold,
		Mode:      bitmap.PageMajor,
		Options:   codegen.Options{Symbol: codegen.DefaultSymbol, Flavor: codegen.Header},
	}
}

type Result struct {
	Packed   *bitmap.PackedBitmap
	Document string
}

// Converts an RGBA buffer into C source. The symbol is checked before any
// pixel is touched, and nothing is returned on failure.
func Run(pixels []byte, width, height int, o Options) (*Result, error) {
	if o.Flavor == codegen.Header && o.Symbol != "" {
		if err := codegen.ValidSymbol(o.Symbol); err != nil {
			return nil, err
		}
	}
	if o.Flavor == codegen.Snippet && o.Mode != bitmap.PageMajor {
		return nil, fmt.Errorf("%w: %s output needs %s packing, got %s", codegen.ErrUnsupportedMode, o.Flavor, bitmap.PageMajor, o.Mode)
	}

	mask, err := bitmap.Binarize(pixels, width, height, o.Threshold)
	if err != nil {
		return nil, err
	}
	packed, err := bitmap.Pack(mask, o.Mode)
	if err != nil {
		return nil, err
	}
	doc, err := codegen.Serialize(packed, o.Options)
	if err != nil {
		return nil, err
	}

	return &Result{Packed: packed, Document: doc}, nil
}

func Generate(pixels []byte, width, height int, o Options) (string, error) {
	r, err := Run(pixels, width, height, o)
	if err != nil {
		return "", err
	}
	return r.Document, nil
}
