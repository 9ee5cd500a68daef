package stream

import (
	"fmt"
	"io"
	"time"

	"github.com/setanarut/apng"
)

// APNGWriter collects frames and writes an animated PNG on Close.
type APNGWriter struct {
	w      io.Writer
	anim   apng.APNG
	delay  uint16
	closed bool
}

// NewAPNGWriter creates an APNGWriter. interval is the display time of
// one frame, kept to the millisecond; the animation loops forever when
// repeat is set and plays once otherwise.
func NewAPNGWriter(w io.Writer, interval time.Duration, repeat bool) *APNGWriter {
	a := &APNGWriter{w: w}
	a.delay = uint16(min(max(interval.Milliseconds(), 1), 65535))
	a.anim.LoopCount = 1
	if repeat {
		a.anim.LoopCount = 0
	}
	return a
}

// WriteFrame quantizes the frame and keeps it.
func (a *APNGWriter) WriteFrame(f *Frame) error {
	a.anim.Frames = append(a.anim.Frames, apng.Frame{
		Image:            quantize(f.Image),
		DelayNumerator:   a.delay,
		DelayDenominator: 1000,
	})
	return nil
}

// Len returns the number of collected frames.
func (a *APNGWriter) Len() int {
	return len(a.anim.Frames)
}

// Close encodes the animation and closes the underlying writer if it
// is a Closer.
func (a *APNGWriter) Close() (err error) {
	if a.closed {
		return nil
	}
	a.closed = true
	if c, ok := a.w.(io.Closer); ok {
		defer func() {
			if cerr := c.Close(); err == nil {
				err = cerr
			}
		}()
	}

	if len(a.anim.Frames) == 0 {
		return fmt.Errorf("apng: no frames to write")
	}
	if err := apng.Encode(a.w, a.anim); err != nil {
		return fmt.Errorf("apng: %w", err)
	}
	return nil
}
