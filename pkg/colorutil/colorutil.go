// Package colorutil provides shared color utilities for the map editor.
package colorutil

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Annotation and page colors used throughout the application.
var (
	White     = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	Gold      = color.NRGBA{R: 0xff, G: 0xcc, B: 0x33, A: 0xff}
	DeepBlue  = color.NRGBA{R: 0x1e, G: 0x3c, B: 0x72, A: 0xff}
	RoyalBlue = color.NRGBA{R: 0x2a, G: 0x52, B: 0x98, A: 0xff}
)

// ParseHex parses #rgb, #rrggbb or #rrggbbaa. The leading # is optional.
func ParseHex(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return color.NRGBA{}, fmt.Errorf("color %q: want #rrggbb or #rrggbbaa", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("color %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// Hex formats c as #rrggbb, or #rrggbbaa when it is not opaque.
func Hex(c color.NRGBA) string {
	if c.A == 0xff {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

// WithAlpha returns c with its alpha replaced.
func WithAlpha(c color.NRGBA, a uint8) color.NRGBA {
	c.A = a
	return c
}
