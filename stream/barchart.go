package stream

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"gonum.org/v1/plot"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/matt-g-everett/barrace/population"
	"github.com/matt-g-everett/barrace/util"
)

// Text sizes are in points at fontDPI, so a 1200x600 surface matches a
// 12x6 inch figure.
const fontDPI = 100

var (
	black     = color.Black
	white     = color.White
	gridColor = color.NRGBA{R: 176, G: 176, B: 176, A: 178}
	boxColor  = color.NRGBA{R: 255, G: 255, B: 255, A: 178}
)

// FlagSource looks up preloaded flag images by ISO3 code.
type FlagSource interface {
	Get(code string) (image.Image, bool)
}

type faces struct {
	label, labelBold, heading, title, overlay, year font.Face
}

// A BarChart is an Animation drawing the top-N countries as horizontal
// bars.
type BarChart struct {
	config   Config
	flags    FlagSource
	palette  Palette
	unstable map[string]bool
	faces    faces
}

// NewBarChart creates a BarChart. flags may be nil.
func NewBarChart(config Config, flags FlagSource) (*BarChart, error) {
	palette, err := NewPalette(config.Style)
	if err != nil {
		return nil, fmt.Errorf("bar colour: %w", err)
	}

	b := new(BarChart)
	b.config = config
	b.flags = flags
	b.palette = palette
	b.unstable = make(map[string]bool)
	for _, name := range config.UnstableNames {
		b.unstable[name] = true
	}
	if b.faces, err = loadFaces(); err != nil {
		return nil, err
	}
	return b, nil
}

func loadFaces() (faces, error) {
	regular, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return faces{}, fmt.Errorf("parse font: %w", err)
	}
	bold, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return faces{}, fmt.Errorf("parse font: %w", err)
	}
	face := func(f *truetype.Font, size float64) font.Face {
		return truetype.NewFace(f, &truetype.Options{Size: size, DPI: fontDPI})
	}
	return faces{
		label:     face(regular, 10),
		labelBold: face(bold, 10),
		heading:   face(regular, 12),
		title:     face(bold, 14),
		overlay:   face(bold, 12),
		year:      face(regular, 20),
	}, nil
}

// axes is the plot rectangle in pixels and the value range on x.
type axes struct {
	left, top, right, bottom float64
	xmax                     float64
}

func (a axes) width() float64  { return a.right - a.left }
func (a axes) height() float64 { return a.bottom - a.top }

// x maps a population value to a pixel column.
func (a axes) x(v float64) float64 { return a.left + v/a.xmax*a.width() }

// at maps axes-relative coordinates, origin bottom left, to pixels.
func (a axes) at(fx, fy float64) (float64, float64) {
	return a.left + fx*a.width(), a.bottom - fy*a.height()
}

func (b *BarChart) layout(w, h, peak float64) axes {
	xmax := peak * 1.05
	if xmax <= 0 {
		xmax = 1
	}
	return axes{
		left:   math.Round(w * 0.2),
		top:    math.Round(h * 0.12),
		right:  math.Round(w * 0.88),
		bottom: math.Round(h * 0.88),
		xmax:   xmax,
	}
}

// DrawFrame clears dc and draws snap.
func (b *BarChart) DrawFrame(dc *gg.Context, snap population.Snapshot) error {
	for _, o := range snap.Bars {
		if math.IsNaN(o.Population) || math.IsInf(o.Population, 0) || o.Population < 0 {
			return fmt.Errorf("draw %s: invalid population %v for %s", snap.Key, o.Population, o.ISO3)
		}
	}

	dc.SetColor(white)
	dc.Clear()

	ax := b.layout(float64(dc.Width()), float64(dc.Height()), snap.Max())
	ticks := Ticks(ax.xmax)
	flagsVariant := b.config.Variant == VariantFlags

	if flagsVariant {
		dc.SetColor(gridColor)
		dc.SetLineWidth(1)
		dc.SetDash(5, 3)
		for _, t := range ticks {
			x := ax.x(t)
			dc.DrawLine(x, ax.top, x, ax.bottom)
			dc.Stroke()
		}
		dc.SetDash()
	}

	slot := ax.height() / float64(max(len(snap.Bars), 1))
	for i, o := range snap.Bars {
		cy := ax.bottom - (float64(i)+0.5)*slot
		b.drawBar(dc, ax, o, cy, slot*0.8)
	}

	b.drawAxes(dc, ax, ticks, flagsVariant)
	b.drawOverlay(dc, ax, snap.Key)
	return nil
}

func (b *BarChart) drawBar(dc *gg.Context, ax axes, o population.Observation, cy, height float64) {
	x1 := ax.x(o.Population)
	dc.DrawRectangle(ax.left, cy-height/2, x1-ax.left, height)
	dc.SetColor(b.palette.Color(o.ISO3))
	dc.Fill()

	if b.flags != nil {
		if img, ok := b.flags.Get(o.ISO3); ok {
			zoom := b.config.Style.FlagZoom
			if zoom <= 0 {
				zoom = 1
			}
			dc.Push()
			dc.Translate(ax.left-b.config.Style.FlagOffset, cy)
			dc.Scale(zoom, zoom)
			dc.DrawImageAnchored(img, 0, 0, 0, 0.5)
			dc.Pop()
		}
	}

	dc.SetColor(black)
	if b.config.Variant == VariantFlags {
		dc.SetFontFace(b.faces.labelBold)
		dc.DrawStringAnchored(" "+util.Thousands(o.Population, 0), x1, cy, 0, 0.5)
	} else {
		dc.SetFontFace(b.faces.label)
		dc.DrawStringAnchored(util.Thousands(o.Population, 2), x1+2, cy, 0, 0.5)
	}

	dc.SetFontFace(b.faces.label)
	name := b.Label(o.Location)
	if b.config.Variant == VariantFlags {
		dc.DrawStringAnchored(name, ax.left-0.1*ax.width(), cy, 1, 0.5)
	} else {
		dc.DrawStringAnchored(name, ax.left-6, cy, 1, 0.5)
	}
}

// Label returns the axis label of a country name. Names prone to jitter
// get trailing padding.
func (b *BarChart) Label(name string) string {
	if b.unstable[name] {
		return name + "  "
	}
	return name
}

func (b *BarChart) drawAxes(dc *gg.Context, ax axes, ticks []float64, spines bool) {
	dc.SetColor(black)
	dc.SetLineWidth(1)
	if spines {
		dc.DrawLine(ax.left, ax.top, ax.left, ax.bottom)
		dc.DrawLine(ax.left, ax.bottom, ax.right, ax.bottom)
		dc.Stroke()
	}

	dc.SetFontFace(b.faces.label)
	for _, t := range ticks {
		x := ax.x(t)
		if spines {
			dc.DrawLine(x, ax.bottom, x, ax.bottom+4)
			dc.Stroke()
		}
		dc.DrawStringAnchored(util.Comma(t), x, ax.bottom+8, 0.5, 1)
	}

	w, h := float64(dc.Width()), float64(dc.Height())
	dc.DrawStringAnchored(b.config.Style.XLabel, ax.left+ax.width()/2, h-(h-ax.bottom)/3, 0.5, 0.5)

	if spines {
		dc.SetFontFace(b.faces.title)
	} else {
		dc.SetFontFace(b.faces.heading)
	}
	dc.DrawStringAnchored(b.config.Style.Title, w/2, ax.top/2, 0.5, 0.5)
}

func (b *BarChart) drawOverlay(dc *gg.Context, ax axes, key population.TimeKey) {
	if b.config.Variant == VariantPlain {
		dc.SetFontFace(b.faces.year)
		dc.SetColor(black)
		x, y := ax.at(0.9, 0.1)
		dc.DrawStringAnchored(fmt.Sprintf("%d", key.Year), x, y, 0.5, 0)
		return
	}

	dc.SetFontFace(b.faces.overlay)
	b.boxedText(dc, ax, 0.75, 0.15, fmt.Sprintf("Year: %d", key.Year))
	b.boxedText(dc, ax, 0.75, 0.09, fmt.Sprintf("Period: %s", key.Period))
}

func (b *BarChart) boxedText(dc *gg.Context, ax axes, fx, fy float64, s string) {
	const pad = 4
	x, y := ax.at(fx, fy)
	w, h := dc.MeasureString(s)
	dc.SetColor(boxColor)
	dc.DrawRectangle(x-pad, y-h-pad, w+2*pad, h+2*pad)
	dc.Fill()
	dc.SetColor(black)
	dc.DrawStringAnchored(s, x, y, 0, 0)
}

// Ticks returns the major tick values between 0 and xmax.
func Ticks(xmax float64) []float64 {
	if xmax <= 0 || math.IsNaN(xmax) || math.IsInf(xmax, 0) {
		return []float64{0}
	}
	var out []float64
	for _, t := range (plot.DefaultTicks{}).Ticks(0, xmax) {
		if t.IsMinor() {
			continue
		}
		out = append(out, t.Value)
	}
	return out
}
