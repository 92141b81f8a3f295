package canvas

import (
	"fmt"
	"image"
	"image/png"
	"io"

	"golang.org/x/image/draw"

	"tomgalvin.uk/monoform/internal/bitmap"
)

const DefaultPNGName = "monoform_output.png"

// Writes the part of an RGBA buffer covered by r as a PNG. r is cut down to
// the buffer's bounds first.
func ExportPNG(w io.Writer, pixels []byte, width, height int, r image.Rectangle) error {
	if width <= 0 || height <= 0 || len(pixels) != width*height*4 {
		return fmt.Errorf("%w: %v bytes for %vx%v pixels", bitmap.ErrInvalidDimensions, len(pixels), width, height)
	}
	src := &image.NRGBA{
		Pix:    pixels,
		Stride: width * 4,
		Rect:   image.Rect(0, 0, width, height),
	}

	r = r.Intersect(src.Rect)
	if r.Empty() {
		return fmt.Errorf("%w: crop lies outside the %vx%v image", bitmap.ErrInvalidDimensions, width, height)
	}

	dst := image.NewNRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Bounds(), src, r.Min, draw.Src)

	if err := png.Encode(w, dst); err != nil {
		return fmt.Errorf("Couldn't encode PNG:\n%w", err)
	}
	return nil
}
