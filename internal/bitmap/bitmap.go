// This package defines an interface for a simple bitmap structure that has a
// width, height, and can get bits from the bitmap by (x,y) coordinate.
// Mask is the 1-bit image produced by thresholding raw pixels, and
// PackedBitmap is the byte layout consumed by 1-bit OLED/LCD controllers.
package bitmap

import (
	"errors"
	"fmt"
)

// Returned when a width, height or buffer length doesn't describe a valid image.
var ErrInvalidDimensions = errors.New("invalid dimensions")

type Bitmap interface {
	Width() int
	Height() int
	GetBit(x int, y int) byte
}

// Mask is a row-major grid of lit (true) and unlit pixels.
type Mask struct {
	bits          []bool
	width, height int
}

func NewMask(width, height int) (*Mask, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: mask must be at least 1x1 (got %vx%v)", ErrInvalidDimensions, width, height)
	}
	return &Mask{
		bits:   make([]bool, width*height),
		width:  width,
		height: height,
	}, nil
}

// Builds a mask from rows of booleans. Every row must be the same length.
func MaskFromRows(rows [][]bool) (*Mask, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrInvalidDimensions)
	}
	m, err := NewMask(len(rows[0]), len(rows))
	if err != nil {
		return nil, err
	}
	for y, row := range rows {
		if len(row) != m.width {
			return nil, fmt.Errorf("%w: row %v has %v pixels, expecting %v", ErrInvalidDimensions, y, len(row), m.width)
		}
		copy(m.bits[y*m.width:], row)
	}
	return m, nil
}

func (m *Mask) Width() int {
	return m.width
}

func (m *Mask) Height() int {
	return m.height
}

func (m *Mask) Lit(x int, y int) bool {
	return m.bits[y*m.width+x]
}

func (m *Mask) Set(x int, y int, lit bool) {
	m.bits[y*m.width+x] = lit
}

func (m *Mask) GetBit(x int, y int) byte {
	if m.bits[y*m.width+x] {
		return 1
	}
	return 0
}

func (m *Mask) String() string {
	return fmt.Sprintf("Mask(%d,%d)", m.width, m.height)
}
