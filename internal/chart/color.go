package chart

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// namedColors covers the matplotlib names used by the case-study palette.
var namedColors = map[string]color.RGBA{
	"tab:blue":    {R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	"tab:orange":  {R: 0xff, G: 0x7f, B: 0x0e, A: 0xff},
	"tab:green":   {R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
	"tab:red":     {R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
	"tab:purple":  {R: 0x94, G: 0x67, B: 0xbd, A: 0xff},
	"tab:brown":   {R: 0x8c, G: 0x56, B: 0x4b, A: 0xff},
	"tab:pink":    {R: 0xe3, G: 0x77, B: 0xc2, A: 0xff},
	"tab:gray":    {R: 0x7f, G: 0x7f, B: 0x7f, A: 0xff},
	"tab:olive":   {R: 0xbc, G: 0xbd, B: 0x22, A: 0xff},
	"tab:cyan":    {R: 0x17, G: 0xbe, B: 0xcf, A: 0xff},
	"black":       {A: 0xff},
	"white":       {R: 0xff, G: 0xff, B: 0xff, A: 0xff},
	"yellowgreen": {R: 0x9a, G: 0xcd, B: 0x32, A: 0xff},
}

// ParseColor accepts a matplotlib-style name ("tab:blue", "black") or a
// "#rrggbb" hex string.
func ParseColor(s string) (color.Color, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[key]; ok {
		return c, nil
	}
	if strings.HasPrefix(key, "#") && len(key) == 7 {
		v, err := strconv.ParseUint(key[1:], 16, 32)
		if err == nil {
			return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
		}
	}
	return nil, fmt.Errorf("unknown color %q", s)
}

// Hex formats c as "#rrggbb".
func Hex(c color.Color) string {
	if c == nil {
		return ""
	}
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}

// Palette returns n colours spread evenly around the HSL hue circle.
func Palette(n int) []color.Color {
	if n <= 0 {
		return nil
	}
	colors := make([]color.Color, n)
	for i := range colors {
		r, g, b := hslToRGB(float64(i)/float64(n), 0.7, 0.5)
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

func hslToRGB(h, s, l float64) (r, g, b uint8) {
	if s == 0 {
		v := uint8(l * 255)
		return v, v, v
	}
	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q
	return uint8(hueToRGB(p, q, h+1.0/3.0) * 255),
		uint8(hueToRGB(p, q, h) * 255),
		uint8(hueToRGB(p, q, h-1.0/3.0) * 255)
}

func hueToRGB(p, q, t float64) float64 {
	switch {
	case t < 0:
		t++
	case t > 1:
		t--
	}
	switch {
	case t < 1.0/6.0:
		return p + (q-p)*6*t
	case t < 1.0/2.0:
		return q
	case t < 2.0/3.0:
		return p + (q-p)*(2.0/3.0-t)*6
	default:
		return p
	}
}
