// Package canvas prepares source images for conversion: it decodes them,
// scales them, cuts out the display-sized window the user picked and hands
// back raw RGBA pixels. It can also export any window of a pixel buffer as a
// PNG.
package canvas

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"

	"github.com/makeworld-the-better-one/dither/v2"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"tomgalvin.uk/monoform/internal/bitmap"
)

type Options struct {
	// Size of the output, normally the display resolution.
	Width, Height int
	// Top-left corner of the window in scaled source pixels. Clamped so the
	// window stays on the image.
	X, Y int
	// Source scale factor. Zero or less fits the whole image in the window.
	Scale float64
	// Dither to pure black and white before thresholding.
	Dither bool
	// Swap light and dark, for displays where lit pixels should come from
	// bright areas.
	Invert bool
}

func Decode(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("Couldn't decode image:\n%w", err)
	}
	return img, format, nil
}

func DecodeBytes(data []byte) (image.Image, string, error) {
	return Decode(bytes.NewReader(data))
}

// The size of src once scaled by the given factor, or fitted into
// width x height when scale is not positive.
func ScaledSize(src image.Rectangle, width, height int, scale float64) (int, int) {
	if scale <= 0 {
		scale = math.Min(float64(width)/float64(src.Dx()), float64(height)/float64(src.Dy()))
	}
	sw := max(1, int(math.Round(float64(src.Dx())*scale)))
	sh := max(1, int(math.Round(float64(src.Dy())*scale)))
	return sw, sh
}

// Resamples src to exactly width x height.
func Scale(src image.Image, width, height int) *image.NRGBA {
	sb := src.Bounds()
	scaled := image.NewNRGBA(image.Rect(0, 0, width, height))
	if width == sb.Dx() && height == sb.Dy() {
		draw.Draw(scaled, scaled.Bounds(), src, sb.Min, draw.Src)
	} else {
		// resize image using Catmull Rom scaling
		draw.CatmullRom.Scale(scaled, scaled.Bounds(), src, sb, draw.Src, nil)
	}
	return scaled
}

// take an image, scale it and cut out the window described by o, ready to
// be thresholded
func Render(src image.Image, o Options) (*image.NRGBA, error) {
	if o.Width <= 0 || o.Height <= 0 {
		return nil, fmt.Errorf("%w: output must be at least 1x1 (got %vx%v)", bitmap.ErrInvalidDimensions, o.Width, o.Height)
	}
	sb := src.Bounds()
	if sb.Empty() {
		return nil, fmt.Errorf("%w: source image is empty", bitmap.ErrInvalidDimensions)
	}

	sw, sh := ScaledSize(sb, o.Width, o.Height, o.Scale)
	scaled := Scale(src, sw, sh)
	window := Clamp(image.Rect(o.X, o.Y, o.X+o.Width, o.Y+o.Height), scaled.Bounds())

	// transparent and uncovered areas end up white, i.e. unlit
	out := image.NewNRGBA(image.Rect(0, 0, o.Width, o.Height))
	draw.Draw(out, out.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	// an image smaller than the window is centred in it
	offset := image.Pt(max(0, (o.Width-sw)/2), max(0, (o.Height-sh)/2))
	draw.Draw(out, out.Bounds().Add(offset), scaled, window.Min, draw.Over)

	if o.Invert {
		invert(out)
	}
	if o.Dither {
		ditherInPlace(out)
	}
	return out, nil
}

// Moves r so it lies inside bounds, like dragging a crop box against the
// image edges. A window bigger than bounds is pinned to the top-left.
func Clamp(r image.Rectangle, bounds image.Rectangle) image.Rectangle {
	x := clamp(r.Min.X, bounds.Min.X, bounds.Max.X-r.Dx())
	y := clamp(r.Min.Y, bounds.Min.Y, bounds.Max.Y-r.Dy())
	return r.Add(image.Pt(x-r.Min.X, y-r.Min.Y))
}

func clamp(v, lo, hi int) int {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}

func invert(img *image.NRGBA) {
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255 - img.Pix[i]
		img.Pix[i+1] = 255 - img.Pix[i+1]
		img.Pix[i+2] = 255 - img.Pix[i+2]
	}
}

// dither image to black and white
func ditherInPlace(img *image.NRGBA) {
	palette := []color.Color{color.Black, color.White}
	ditherer := dither.NewDitherer(palette)
	ditherer.Matrix = dither.FloydSteinberg
	ditherer.Serpentine = true
	dithered := ditherer.DitherPaletted(img)

	draw.Draw(img, img.Bounds(), dithered, dithered.Bounds().Min, draw.Src)
}

// Raw R,G,B,A bytes of img, row-major with no padding.
func Pixels(img *image.NRGBA) []byte {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if img.Stride == w*4 && len(img.Pix) == w*h*4 {
		return img.Pix
	}
	pix := make([]byte, 0, w*h*4)
	for y := range h {
		start := y * img.Stride
		pix = append(pix, img.Pix[start:start+w*4]...)
	}
	return pix
}

// Returns a copy of an RGBA buffer with the rows in reverse order, for
// buffers read back bottom-up.
func FlipRows(pixels []byte, width, height int) ([]byte, error) {
	if width <= 0 || height <= 0 || len(pixels) != width*height*4 {
		return nil, fmt.Errorf("%w: %v bytes for %vx%v pixels", bitmap.ErrInvalidDimensions, len(pixels), width, height)
	}
	row := width * 4
	flipped := make([]byte, len(pixels))
	for y := range height {
		copy(flipped[y*row:], pixels[(height-1-y)*row:(height-y)*row])
	}
	return flipped, nil
}
