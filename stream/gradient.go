package stream

import (
	"hash/fnv"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// PaletteRainbow colours each country from the rainbow gradient.
const PaletteRainbow = "rainbow"

// GradientTable stores a look-up table of colours interpolated by hue.
type GradientTable []struct {
	Hue float64
	Pos float64
}

// Rainbow runs pink through red, yellow, green and blue back to pink.
var Rainbow = GradientTable{
	{0.0, 0.0},
	{6.0, 0.04},   // Pink
	{87.0, 0.14},  // Red
	{88.0, 0.28},  // Orange
	{98.0, 0.42},  // Yellow
	{180.0, 0.56}, // Green
	{190.0, 0.70}, // Turquoise
	{320.0, 0.84}, // Blue
	{328.0, 0.91}, // Violet
	{360.0, 1.0},  // Pink wrap
}

// GetColor gets a colour at the specified point on the look-up table.
func (g GradientTable) GetColor(t, s, l float64) colorful.Color {
	for i := 0; i < len(g)-1; i++ {
		c1 := g[i]
		c2 := g[i+1]
		if c1.Pos <= t && t <= c2.Pos {
			h := (((t - c1.Pos) / (c2.Pos - c1.Pos)) * (c2.Hue - c1.Hue)) + c1.Hue
			return colorful.Hcl(h, s, l)
		}
	}

	return colorful.Hcl(g[len(g)-1].Hue, s, l)
}

// Palette picks the fill colour of a country's bar.
type Palette struct {
	base     colorful.Color
	alpha    float64
	gradient GradientTable
}

// NewPalette builds a palette from the chart style.
func NewPalette(style Style) (Palette, error) {
	base, err := colorful.Hex(style.BarColor)
	if err != nil {
		return Palette{}, err
	}
	p := Palette{base: base, alpha: style.BarAlpha}
	if style.Palette == PaletteRainbow {
		p.gradient = Rainbow
	}
	return p, nil
}

// Color returns the bar colour for code. A country keeps its colour
// across frames.
func (p Palette) Color(code string) color.Color {
	c := p.base
	if p.gradient != nil {
		h := fnv.New32a()
		h.Write([]byte(code))
		t := float64(h.Sum32()%1000) / 1000
		c = p.gradient.GetColor(t, 0.6, 0.6).Clamped()
	}
	r, g, b := c.RGB255()
	a := clamp01(p.alpha)
	return color.NRGBA{R: r, G: g, B: b, A: uint8(a*255 + 0.5)}
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
