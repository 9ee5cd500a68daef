package stream

import (
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"io"
	"time"
)

// GIFWriter collects frames and writes an animated GIF on Close.
type GIFWriter struct {
	w      io.Writer
	anim   gif.GIF
	delay  int
	closed bool
}

// NewGIFWriter creates a GIFWriter. interval is the display time of one
// frame; the animation loops forever when repeat is set and plays once
// otherwise.
func NewGIFWriter(w io.Writer, interval time.Duration, repeat bool) *GIFWriter {
	g := &GIFWriter{w: w}
	g.delay = max(1, int(interval/(10*time.Millisecond)))
	g.anim.LoopCount = -1
	if repeat {
		g.anim.LoopCount = 0
	}
	return g
}

// WriteFrame quantizes the frame to the web palette and keeps it.
func (g *GIFWriter) WriteFrame(f *Frame) error {
	g.anim.Image = append(g.anim.Image, quantize(f.Image))
	g.anim.Delay = append(g.anim.Delay, g.delay)
	return nil
}

// Len returns the number of collected frames.
func (g *GIFWriter) Len() int {
	return len(g.anim.Image)
}

// Close encodes the animation and closes the underlying writer if it
// is a Closer.
func (g *GIFWriter) Close() (err error) {
	if g.closed {
		return nil
	}
	g.closed = true
	if c, ok := g.w.(io.Closer); ok {
		defer func() {
			if cerr := c.Close(); err == nil {
				err = cerr
			}
		}()
	}

	if len(g.anim.Image) == 0 {
		return fmt.Errorf("gif: no frames to write")
	}
	if err := gif.EncodeAll(g.w, &g.anim); err != nil {
		return fmt.Errorf("gif: %w", err)
	}
	return nil
}

// quantize dithers img to the web-safe palette.
func quantize(img image.Image) *image.Paletted {
	b := img.Bounds()
	p := image.NewPaletted(b, palette.WebSafe)
	draw.FloydSteinberg.Draw(p, b, img, b.Min)
	return p
}
