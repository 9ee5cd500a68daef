package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/davecgh/go-spew/spew"
	"github.com/schollz/progressbar/v3"

	"github.com/matt-g-everett/barrace/api"
	"github.com/matt-g-everett/barrace/flags"
	"github.com/matt-g-everett/barrace/population"
	"github.com/matt-g-everett/barrace/stream"
	"github.com/matt-g-everett/barrace/util"
)

// errReported marks failures already printed for the user.
var errReported = errors.New("reported")

type app struct {
	Config stream.Config
	Log    *slog.Logger
	out    io.Writer
	errOut io.Writer
}

// loadTable reads and prepares the input. A missing input file is
// reported on its own line and nothing else happens.
func (a *app) loadTable() (*population.Table, error) {
	required := []string{population.ColumnJanuary, population.ColumnJuly}
	if a.Config.Variant == stream.VariantPlain {
		required = []string{a.Config.PopulationColumn}
	}

	records, err := population.Load(a.Config.Input, required...)
	if errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(a.out, "Error: File '%s' not found.\n", a.Config.Input)
		return nil, errReported
	}
	if err != nil {
		return nil, err
	}

	prep := population.Preparer{Log: a.Log}
	var table *population.Table
	if a.Config.Variant == stream.VariantFlags {
		table, err = prep.HalfYearly(records)
	} else {
		table, err = prep.Yearly(records, a.Config.PopulationColumn)
	}
	if err != nil {
		return nil, err
	}
	a.Log.Info("table prepared", "input", a.Config.Input, "rows", table.Len(), "keys", len(table.Keys()))
	return table, nil
}

func (a *app) newChart(table *population.Table) (*stream.BarChart, error) {
	if !a.Config.ShowsFlags() {
		return stream.NewBarChart(a.Config, nil)
	}
	loader := flags.Loader{
		Dir: a.Config.FlagsDir,
		Box: image.Pt(a.Config.Style.FlagWidth, a.Config.Style.FlagHeight),
		Log: a.Log,
	}
	return stream.NewBarChart(a.Config, loader.Load(table.Codes()))
}

// openSinks opens the configured outputs besides extra.
func (a *app) openSinks(ctx context.Context, extra ...stream.Sink) ([]stream.Sink, error) {
	sinks := extra
	closeAll := func() {
		for _, s := range sinks {
			s.Close()
		}
	}

	switch out := a.Config.Output; {
	case out == "":
	case strings.EqualFold(filepath.Ext(out), ".gif"):
		f, err := createOutput(out)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, stream.NewGIFWriter(f, a.Config.Interval, a.Config.Repeat))
	case isAPNG(out):
		f, err := createOutput(out)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, stream.NewAPNGWriter(f, a.Config.Interval, a.Config.Repeat))
	default:
		if dir := filepath.Dir(out); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create output directory: %w", err)
			}
		}
		e, err := stream.NewEncoder(ctx, a.Config.FFmpeg, a.Config.FPS, out)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, e)
	}

	if a.Config.Mqtt.URL != "" {
		client, err := stream.Connect(a.Config)
		if err != nil {
			closeAll()
			return nil, err
		}
		sinks = append(sinks, stream.NewStreamer(client, a.Config.Mqtt.Topic))
	}
	return sinks, nil
}

func isAPNG(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".png" || ext == ".apng"
}

func createOutput(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}
	return f, nil
}

func (a *app) animate(ctx context.Context, progress bool, extra ...stream.Sink) error {
	table, err := a.loadTable()
	if err != nil {
		return err
	}
	chart, err := a.newChart(table)
	if err != nil {
		return err
	}
	sinks, err := a.openSinks(ctx, extra...)
	if err != nil {
		return err
	}

	c := stream.NewController(a.Config, table, chart, a.Log, sinks...)
	if progress {
		bar := progressbar.NewOptions(c.Frames(),
			progressbar.OptionSetWriter(a.errOut),
			progressbar.OptionSetDescription("rendering"),
			progressbar.OptionClearOnFinish(),
		)
		c.Progress = func(done, _ int) { bar.Set(done) }
	}
	return c.Run(ctx)
}

// render encodes the animation to the configured output.
func (a *app) render(ctx context.Context, progress bool) error {
	if a.Config.Output == "" && a.Config.Mqtt.URL == "" {
		return fmt.Errorf("render: no output configured")
	}
	if err := a.animate(ctx, progress); err != nil {
		return err
	}
	if a.Config.Output != "" {
		a.Log.Info("animation written", "output", a.Config.Output)
	}
	return nil
}

// show renders the animation in memory and serves it for preview.
func (a *app) show(ctx context.Context, addr string, progress bool) error {
	var buf bytes.Buffer
	preview := stream.NewAPNGWriter(&buf, a.Config.Interval, a.Config.Repeat)
	if err := a.animate(ctx, progress, preview); err != nil {
		return err
	}
	return api.NewServer(a.Config.Style.Title, buf.Bytes(), a.Log).Serve(ctx, addr)
}

// inspect prints the top-N snapshot of one time key.
func (a *app) inspect(key population.TimeKey) error {
	table, err := a.loadTable()
	if err != nil {
		return err
	}
	snap := table.Snapshot(key, a.Config.TopN)
	if len(snap.Bars) == 0 {
		return fmt.Errorf("inspect: no observations at %s", key)
	}
	a.Log.Debug("snapshot", "dump", spew.Sdump(snap))

	fmt.Fprintf(a.out, "%s\n", key)
	for i := len(snap.Bars) - 1; i >= 0; i-- {
		o := snap.Bars[i]
		fmt.Fprintf(a.out, "%2d. %-4s %-32s %16s\n", len(snap.Bars)-i, o.ISO3, o.Location, util.Thousands(o.Population, 0))
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stdout, "Error: %v\n", err)
		}
		stop()
		os.Exit(1)
	}
}
