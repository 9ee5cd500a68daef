package stream

import (
	"github.com/fogleman/gg"
	"github.com/matt-g-everett/barrace/population"
)

// An Animation draws the chart state of one snapshot onto a cleared
// surface.
type Animation interface {
	DrawFrame(dc *gg.Context, snap population.Snapshot) error
}

// A Sink receives every rendered frame in order.
type Sink interface {
	WriteFrame(f *Frame) error
	Close() error
}
