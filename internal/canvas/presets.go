package canvas

import "fmt"

type Resolution struct {
	Label  string `json:"label"`
	Width  int    `json:"w"`
	Height int    `json:"h"`
}

func newResolution(w, h int) Resolution {
	return Resolution{Label: fmt.Sprintf("%d×%d", w, h), Width: w, Height: h}
}

// Common monochrome OLED panel sizes.
var Presets = []Resolution{
	newResolution(128, 64),
	newResolution(128, 32),
	newResolution(96, 16),
	newResolution(64, 48),
}
