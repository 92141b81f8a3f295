package bitmap

import "fmt"

const DefaultThreshold = 128

// BT.709 luma coefficients
const (
	lumaR = 0.2126
	lumaG = 0.7152
	lumaB = 0.0722
)

func Luminance(r, g, b byte) float64 {
	return lumaR*float64(r) + lumaG*float64(g) + lumaB*float64(b)
}

// Thresholds an RGBA buffer (4 bytes per pixel, alpha ignored) into a Mask.
// A pixel is lit when its luminance is strictly below the threshold, so dark
// source pixels become set bits on the display.
func Binarize(pixels []byte, width, height, threshold int) (*Mask, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: image must be at least 1x1 (got %vx%v)", ErrInvalidDimensions, width, height)
	}
	if len(pixels) != width*height*4 {
		return nil, fmt.Errorf("%w: pixel buffer not consistent with provided width and height (got %v, expecting %v*%v*4=%v)",
			ErrInvalidDimensions,
			len(pixels),
			width,
			height,
			width*height*4,
		)
	}

	m, err := NewMask(width, height)
	if err != nil {
		return nil, err
	}
	t := float64(threshold)
	for i := range m.bits {
		p := pixels[i*4 : i*4+3]
		m.bits[i] = Luminance(p[0], p[1], p[2]) < t
	}
	return m, nil
}
