package stream

import (
	"bytes"
	"image"
	"image/draw"
	"image/png"

	"github.com/matt-g-everett/barrace/population"
)

// Frame is one fully rendered chart state.
type Frame struct {
	Index int
	Key   population.TimeKey
	Image *image.RGBA
}

// NewFrame copies the drawing surface into a new Frame.
func NewFrame(index int, key population.TimeKey, surface image.Image) *Frame {
	b := surface.Bounds()
	img := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(img, img.Bounds(), surface, b.Min, draw.Src)
	return &Frame{Index: index, Key: key, Image: img}
}

// MarshalBinary encodes the frame as PNG.
func (f *Frame) MarshalBinary() (data []byte, err error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, f.Image); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
