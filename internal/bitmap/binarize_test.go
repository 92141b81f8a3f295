package bitmap

import (
	"errors"
	"testing"
)

func rgba(pixels ...[4]byte) []byte {
	buf := make([]byte, 0, len(pixels)*4)
	for _, p := range pixels {
		buf = append(buf, p[:]...)
	}
	return buf
}

func TestBinarizePolarity(t *testing.T) {
	black := [4]byte{0, 0, 0, 255}
	white := [4]byte{255, 255, 255, 255}

	m, err := Binarize(rgba(black, white), 2, 1, DefaultThreshold)
	if err != nil {
		t.Fatal(err)
	}
	if !m.Lit(0, 0) {
		t.Error("black pixel should be lit")
	}
	if m.Lit(1, 0) {
		t.Error("white pixel should not be lit")
	}
}

func TestBinarizeThreshold(t *testing.T) {
	tests := []struct {
		name      string
		pixel     [4]byte
		threshold int
		want      bool
	}{
		{"white never lit at default", [4]byte{255, 255, 255, 255}, DefaultThreshold, false},
		{"white lit above range", [4]byte{255, 255, 255, 255}, 256, true},
		{"black not lit at zero", [4]byte{0, 0, 0, 255}, 0, false},
		{"grey below threshold", [4]byte{100, 100, 100, 255}, 101, true},
		{"grey above threshold", [4]byte{100, 100, 100, 255}, 99, false},
		// 0.7152 * 255 = 182.376
		{"pure green below", [4]byte{0, 255, 0, 255}, 183, true},
		{"pure green above", [4]byte{0, 255, 0, 255}, 182, false},
		// 0.2126 * 255 = 54.213
		{"pure red", [4]byte{255, 0, 0, 255}, 55, true},
		// 0.0722 * 255 = 18.411
		{"pure blue", [4]byte{0, 0, 255, 255}, 18, false},
		{"alpha ignored", [4]byte{0, 0, 0, 0}, DefaultThreshold, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Binarize(rgba(tt.pixel), 1, 1, tt.threshold)
			if err != nil {
				t.Fatal(err)
			}
			if got := m.Lit(0, 0); got != tt.want {
				t.Errorf("Lit = %v, want %v (luminance %v)", got, tt.want, Luminance(tt.pixel[0], tt.pixel[1], tt.pixel[2]))
			}
		})
	}
}

func TestBinarizeRowMajorLayout(t *testing.T) {
	b, w := [4]byte{0, 0, 0, 255}, [4]byte{255, 255, 255, 255}
	m, err := Binarize(rgba(
		b, w, w,
		w, w, b,
	), 3, 2, DefaultThreshold)
	if err != nil {
		t.Fatal(err)
	}
	want, _ := MaskFromRows([][]bool{
		{true, false, false},
		{false, false, true},
	})
	assertBitmapsIdentical(t, want, m)
}

func TestBinarizeInvalidDimensions(t *testing.T) {
	tests := []struct {
		name          string
		length        int
		width, height int
	}{
		{"short buffer", 30, 3, 3},
		{"long buffer", 40, 3, 3},
		{"zero width", 0, 0, 3},
		{"negative height", 12, 3, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Binarize(make([]byte, tt.length), tt.width, tt.height, DefaultThreshold)
			if !errors.Is(err, ErrInvalidDimensions) {
				t.Errorf("error = %v, want ErrInvalidDimensions", err)
			}
		})
	}
}

func TestBinarizeDoesNotMutateInput(t *testing.T) {
	pixels := rgba([4]byte{1, 2, 3, 4}, [4]byte{200, 201, 202, 203})
	before := append([]byte(nil), pixels...)
	if _, err := Binarize(pixels, 2, 1, DefaultThreshold); err != nil {
		t.Fatal(err)
	}
	for i := range pixels {
		if pixels[i] != before[i] {
			t.Fatalf("pixel buffer modified at %v", i)
		}
	}
}
