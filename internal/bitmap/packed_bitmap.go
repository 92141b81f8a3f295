// This file implements methods to pack bitmap pixel data into the bit
// structures accepted by monochrome display controllers.

package bitmap

import (
	"fmt"
	"strings"
)

// The order in which pixels are packed into bytes.
type Mode byte

const (
	// Scan lines top to bottom, 8 pixels per byte, bit 7 is the leftmost pixel.
	RowMajor Mode = iota
	// 8-row pages top to bottom, one byte per column, bit 0 is the top row.
	PageMajor
)

func (m Mode) String() string {
	switch m {
	case RowMajor:
		return "horizontal"
	case PageMajor:
		return "vertical"
	default:
		return fmt.Sprintf("Mode(%d)", byte(m))
	}
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "horizontal", "row-major", "row":
		return RowMajor, nil
	case "vertical", "page-major", "page", "":
		return PageMajor, nil
	default:
		return 0, fmt.Errorf(`Unrecognised packing mode "%s"`, s)
	}
}

const bitsPerWord = 8

// a bitmap packed in memory
type PackedBitmap struct {
	data          []byte
	width, height int
	mode          Mode
}

func (b *PackedBitmap) Width() int {
	return b.width
}

func (b *PackedBitmap) Height() int {
	return b.height
}

func (b *PackedBitmap) Mode() Mode {
	return b.mode
}

func (b *PackedBitmap) Data() []byte {
	return b.data
}

func (b *PackedBitmap) Len() int {
	return len(b.data)
}

// Number of bytes covering one row (row-major) or one page (page-major).
func (b *PackedBitmap) Stride() int {
	return stride(b.width, b.mode)
}

func stride(width int, mode Mode) int {
	if mode == PageMajor {
		return width
	}
	return (width + bitsPerWord - 1) / bitsPerWord
}

// Number of bytes a packed bitmap of the given size must contain.
func PackedLen(width, height int, mode Mode) int {
	if mode == PageMajor {
		return width * ((height + bitsPerWord - 1) / bitsPerWord)
	}
	return height * stride(width, mode)
}

// Gets a single bit from the bitmap at the (x, y) coordinate, returns either 0 or 1
func (b *PackedBitmap) GetBit(x int, y int) byte {
	if b.mode == PageMajor {
		index := (y/bitsPerWord)*b.width + x
		return (b.data[index] >> (y % bitsPerWord)) & 1
	}
	index := y*b.Stride() + x/bitsPerWord
	return (b.data[index] >> (bitsPerWord - 1 - x%bitsPerWord)) & 1
}

func (b *PackedBitmap) String() string {
	return fmt.Sprintf("PackedBitmap(%d,%d,%s)", b.width, b.height, b.mode)
}

// Takes a horizontal slice of the packed bitmap. start and count are measured
// in rows for row-major bitmaps and in 8-row pages for page-major ones.
func (b *PackedBitmap) Chunk(start int, count int) *PackedBitmap {
	s := b.Stride()
	height := count
	if b.mode == PageMajor {
		height = min(count*bitsPerWord, b.height-start*bitsPerWord)
	}
	return &PackedBitmap{
		data:   b.data[s*start : s*(start+count)],
		width:  b.width,
		height: height,
		mode:   b.mode,
	}
}

// Wraps bytes that are already packed, e.g. read back from firmware sources.
// The length is not checked; call Validate before decoding pixels from it.
func Wrap(data []byte, width, height int, mode Mode) *PackedBitmap {
	return &PackedBitmap{data, width, height, mode}
}

func (b *PackedBitmap) Validate() error {
	if b.width <= 0 || b.height <= 0 {
		return fmt.Errorf("%w: bitmap must be at least 1x1 (got %vx%v)", ErrInvalidDimensions, b.width, b.height)
	}
	if want := PackedLen(b.width, b.height, b.mode); len(b.data) != want {
		return fmt.Errorf("%w: %s holds %v bytes, expecting %v", ErrInvalidDimensions, b, len(b.data), want)
	}
	return nil
}

// Take data from any Bitmap implementation and pack it using the given mode.
// Bits past the right edge (row-major) or the bottom edge (page-major) are
// left unset.
func Pack(b Bitmap, mode Mode) (*PackedBitmap, error) {
	width, height := b.Width(), b.Height()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: bitmap must be at least 1x1 (got %vx%v)", ErrInvalidDimensions, width, height)
	}
	if mode != RowMajor && mode != PageMajor {
		return nil, fmt.Errorf("%w: unknown packing mode %s", ErrInvalidDimensions, mode)
	}

	s := stride(width, mode)
	data := make([]byte, PackedLen(width, height, mode))
	for y := range height {
		for x := range width {
			if b.GetBit(x, y)&1 == 0 {
				continue
			}
			if mode == PageMajor {
				data[(y/bitsPerWord)*s+x] |= 1 << (y % bitsPerWord)
			} else {
				data[y*s+x/bitsPerWord] |= 0x80 >> (x % bitsPerWord)
			}
		}
	}

	return &PackedBitmap{data, width, height, mode}, nil
}
