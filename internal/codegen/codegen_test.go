package codegen

import (
	"errors"
	"strings"
	"testing"

	"tomgalvin.uk/monoform/internal/bitmap"
)

func TestSerializeHeader(t *testing.T) {
	p := bitmap.Wrap([]byte{0xAB}, 8, 8, bitmap.RowMajor)

	got, err := Serialize(p, Options{Symbol: "foo"})
	if err != nil {
		t.Fatal(err)
	}

	want := "#ifndef _FOO_H_\n" +
		"#define _FOO_H_\n" +
		"\n" +
		"#include <stdint.h>\n" +
		"\n" +
		"/* bitmap size : 8×8px, 1 bytes (horizontal) */\n" +
		"#define FOO_WIDTH  8\n" +
		"#define FOO_HEIGHT 8\n" +
		"#define FOO_LEN    1\n" +
		"\n" +
		"static const uint8_t foo[1] = {\n" +
		"\t0xAB\n" +
		"};\n" +
		"\n" +
		"#endif /* _FOO_H_ */\n"
	if got != want {
		t.Errorf("Serialize() =\n%s\nwant\n%s", got, want)
	}
}

func TestSerializeDefaultSymbol(t *testing.T) {
	p := bitmap.Wrap(make([]byte, 16), 16, 8, bitmap.PageMajor)

	got, err := Serialize(p, Options{})
	if err != nil {
		t.Fatal(err)
	}
	for _, line := range []string{
		"#ifndef _IMAGE_BITMAP_H_",
		"#define IMAGE_BITMAP_LEN    16",
		"static const uint8_t image_bitmap[16] = {",
		"(vertical)",
	} {
		if !strings.Contains(got, line) {
			t.Errorf("missing %q in\n%s", line, got)
		}
	}
}

func TestSerializeKeepsSymbolCase(t *testing.T) {
	p := bitmap.Wrap([]byte{0}, 1, 1, bitmap.RowMajor)
	got, err := Serialize(p, Options{Symbol: "Logo_2"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "uint8_t Logo_2[1]") || !strings.Contains(got, "#define LOGO_2_WIDTH  1") {
		t.Errorf("unexpected document:\n%s", got)
	}
}

func TestFormatBytes(t *testing.T) {
	data := make([]byte, 18)
	for i := range data {
		data[i] = byte(i * 15)
	}
	got := FormatBytes(data)
	want := "0x00, 0x0F, 0x1E, 0x2D, 0x3C, 0x4B, 0x5A, 0x69, 0x78, 0x87, 0x96, 0xA5, 0xB4, 0xC3, 0xD2, 0xE1,\n" +
		"\t0xF0, 0xFF"
	if got != want {
		t.Errorf("FormatBytes() =\n%q\nwant\n%q", got, want)
	}
	if got := FormatBytes(make([]byte, 16)); strings.Contains(got, "\n") {
		t.Errorf("16 bytes should fit on one line: %q", got)
	}
}

func TestSerializeSnippet(t *testing.T) {
	p := bitmap.Wrap([]byte{0x01, 0x02}, 2, 2, bitmap.PageMajor)

	got, err := Serialize(p, Options{Flavor: Snippet, DisplayWidth: 128, DisplayHeight: 64, Symbol: "ignored"})
	if err != nil {
		t.Fatal(err)
	}
	want := "static const uint8_t img2x2[2] = {\n" +
		"\t0x01, 0x02\n" +
		"};\n" +
		"\n" +
		"ssd1306_init(&display, 128, 64);\n" +
		"ssd1306_draw_buffer(&display, img2x2, sizeof(img2x2));\n" +
		"ssd1306_show(&display);\n"
	if got != want {
		t.Errorf("Serialize() =\n%s\nwant\n%s", got, want)
	}
	if strings.Contains(got, "#define") {
		t.Error("snippet should not carry macros")
	}
}

func TestSerializeSnippetDefaultsDisplaySize(t *testing.T) {
	p := bitmap.Wrap(make([]byte, 96*2), 96, 16, bitmap.PageMajor)
	got, err := Serialize(p, Options{Flavor: Snippet})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "ssd1306_init(&display, 96, 16);") {
		t.Errorf("unexpected document:\n%s", got)
	}
}

func TestSerializeErrors(t *testing.T) {
	row := bitmap.Wrap([]byte{0}, 1, 1, bitmap.RowMajor)
	page := bitmap.Wrap([]byte{0}, 1, 1, bitmap.PageMajor)

	tests := []struct {
		name string
		p    *bitmap.PackedBitmap
		o    Options
		want error
	}{
		{"leading digit", row, Options{Symbol: "1logo"}, ErrInvalidSymbolName},
		{"hyphen", row, Options{Symbol: "my-logo"}, ErrInvalidSymbolName},
		{"space", row, Options{Symbol: "my logo"}, ErrInvalidSymbolName},
		{"unicode", row, Options{Symbol: "logö"}, ErrInvalidSymbolName},
		{"snippet needs page-major", row, Options{Flavor: Snippet}, ErrUnsupportedMode},
		{"negative display", page, Options{Flavor: Snippet, DisplayWidth: -1}, bitmap.ErrInvalidDimensions},
		{"unknown mode", bitmap.Wrap([]byte{0}, 1, 1, bitmap.Mode(7)), Options{}, ErrUnsupportedMode},
		{"empty bitmap", bitmap.Wrap(nil, 0, 8, bitmap.RowMajor), Options{}, bitmap.ErrInvalidDimensions},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Serialize(tt.p, tt.o)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
			if got != "" {
				t.Errorf("partial output returned: %q", got)
			}
		})
	}
}

func TestValidSymbol(t *testing.T) {
	for _, s := range []string{"a", "_", "image_bitmap", "IMG128x64", "_9"} {
		if err := ValidSymbol(s); err != nil {
			t.Errorf("ValidSymbol(%q) = %v", s, err)
		}
	}
	for _, s := range []string{"", "9", "a.b", "a-b", "été"} {
		if err := ValidSymbol(s); !errors.Is(err, ErrInvalidSymbolName) {
			t.Errorf("ValidSymbol(%q) = %v, want ErrInvalidSymbolName", s, err)
		}
	}
}

func TestParseFlavor(t *testing.T) {
	if f, err := ParseFlavor(""); err != nil || f != Header {
		t.Errorf(`ParseFlavor("") = %v, %v`, f, err)
	}
	if f, err := ParseFlavor("Snippet"); err != nil || f != Snippet {
		t.Errorf(`ParseFlavor("Snippet") = %v, %v`, f, err)
	}
	if _, err := ParseFlavor("makefile"); err == nil {
		t.Error(`ParseFlavor("makefile") should fail`)
	}
}
