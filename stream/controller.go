package stream

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fogleman/gg"
	"github.com/hashicorp/go-multierror"

	"github.com/matt-g-everett/barrace/population"
	"github.com/matt-g-everett/barrace/util"
)

// Controller drives an Animation over the time keys of a table. It owns
// the drawing surface, which is cleared and redrawn for every frame.
type Controller struct {
	table     *population.Table
	animation Animation
	sinks     []Sink
	surface   *gg.Context
	topN      int
	tween     []float64
	log       *slog.Logger

	// Progress, when set, is called after every frame.
	Progress func(done, total int)
}

// NewController creates an instance of a Controller.
func NewController(config Config, table *population.Table, animation Animation, log *slog.Logger, sinks ...Sink) *Controller {
	c := new(Controller)
	c.table = table
	c.animation = animation
	c.sinks = sinks
	c.surface = gg.NewContext(config.Width, config.Height)
	c.topN = config.TopN
	c.tween = util.GenerateLut(config.TweenSteps)
	c.log = log
	if c.log == nil {
		c.log = slog.New(slog.DiscardHandler)
	}
	return c
}

// Frames returns the number of frames Run emits.
func (c *Controller) Frames() int {
	keys := len(c.table.Keys())
	if keys == 0 {
		return 0
	}
	return keys + (keys-1)*len(c.tween)
}

// Snapshots returns the chart state of every frame in play order.
func (c *Controller) Snapshots() []population.Snapshot {
	keys := c.table.Keys()
	out := make([]population.Snapshot, 0, c.Frames())
	for i, key := range keys {
		if i > 0 {
			for _, f := range c.tween {
				out = append(out, c.table.Between(keys[i-1], key, f, c.topN))
			}
		}
		out = append(out, c.table.Snapshot(key, c.topN))
	}
	return out
}

// Run renders every frame in ascending time order and hands it to the
// sinks. The first error stops the run. Sinks are closed in every case.
func (c *Controller) Run(ctx context.Context) (err error) {
	defer func() {
		if cerr := c.closeSinks(); cerr != nil {
			err = multierror.Append(err, cerr).ErrorOrNil()
		}
	}()

	snaps := c.Snapshots()
	c.log.Info("rendering animation", "frames", len(snaps), "sinks", len(c.sinks))
	for i, snap := range snaps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.animation.DrawFrame(c.surface, snap); err != nil {
			return fmt.Errorf("render frame %d (%s): %w", i, snap.Key, err)
		}

		f := NewFrame(i, snap.Key, c.surface.Image())
		for _, s := range c.sinks {
			if err := s.WriteFrame(f); err != nil {
				return fmt.Errorf("write frame %d (%s): %w", i, snap.Key, err)
			}
		}

		c.log.Debug("frame rendered", "index", i, "key", snap.Key.String())
		if c.Progress != nil {
			c.Progress(i+1, len(snaps))
		}
	}
	return nil
}

func (c *Controller) closeSinks() error {
	var result *multierror.Error
	for _, s := range c.sinks {
		if err := s.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
