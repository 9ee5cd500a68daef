package stream

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fogleman/gg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matt-g-everett/barrace/population"
)

const threeCountries = `ISO3_code,Location,Time,TPopulation1Jan,TPopulation1July
CHN,China,1950,543979,546815
IND,India,1950,356609,357021
ATG,Antigua and Barbuda,1950,46,47
CHN,China,1951,549740,552585
IND,India,1951,360855,361888
ATG,Antigua and Barbuda,1951,48,49
`

// recorder is a Sink remembering what it was given.
type recorder struct {
	keys   []population.TimeKey
	frames []*Frame
	closed int
	fail   error
}

func (r *recorder) WriteFrame(f *Frame) error {
	if r.fail != nil {
		return r.fail
	}
	r.keys = append(r.keys, f.Key)
	r.frames = append(r.frames, f)
	return nil
}

func (r *recorder) Close() error {
	r.closed++
	return nil
}

type flagMap map[string]image.Image

func (m flagMap) Get(code string) (image.Image, bool) {
	img, ok := m[code]
	return img, ok
}

func smallConfig(variant string) Config {
	c := DefaultConfig(variant)
	c.Width = 320
	c.Height = 200
	return c
}

func prepare(t *testing.T, variant string) *population.Table {
	t.Helper()
	records, err := population.LoadCSV(strings.NewReader(threeCountries), population.ColumnJanuary, population.ColumnJuly)
	require.NoError(t, err)
	var table *population.Table
	if variant == VariantFlags {
		table, err = population.Preparer{}.HalfYearly(records)
	} else {
		table, err = population.Preparer{}.Yearly(records, population.ColumnJanuary)
	}
	require.NoError(t, err)
	return table
}

func TestControllerFrameCounts(t *testing.T) {
	for _, tc := range []struct {
		variant string
		keys    []population.TimeKey
	}{
		{VariantPlain, []population.TimeKey{{Year: 1950}, {Year: 1951}}},
		{VariantFlags, []population.TimeKey{
			{Year: 1950, Period: population.January},
			{Year: 1950, Period: population.July},
			{Year: 1951, Period: population.January},
			{Year: 1951, Period: population.July},
		}},
	} {
		t.Run(tc.variant, func(t *testing.T) {
			config := smallConfig(tc.variant)
			chart, err := NewBarChart(config, nil)
			require.NoError(t, err)

			rec := &recorder{}
			c := NewController(config, prepare(t, tc.variant), chart, nil, rec)
			assert.Equal(t, len(tc.keys), c.Frames())
			require.NoError(t, c.Run(context.Background()))

			assert.Equal(t, tc.keys, rec.keys)
			assert.Equal(t, 1, rec.closed)
			for i, f := range rec.frames {
				assert.Equal(t, i, f.Index)
				assert.Equal(t, image.Rect(0, 0, 320, 200), f.Image.Bounds())
			}
		})
	}
}

func TestControllerTween(t *testing.T) {
	config := smallConfig(VariantPlain)
	config.TweenSteps = 3
	chart, err := NewBarChart(config, nil)
	require.NoError(t, err)

	rec := &recorder{}
	c := NewController(config, prepare(t, VariantPlain), chart, nil, rec)
	assert.Equal(t, 5, c.Frames())

	var progress []int
	c.Progress = func(done, total int) {
		assert.Equal(t, 5, total)
		progress = append(progress, done)
	}
	require.NoError(t, c.Run(context.Background()))
	assert.Equal(t, []int{1, 2, 3, 4, 5}, progress)
	for i := 1; i < len(rec.keys); i++ {
		assert.False(t, rec.keys[i].Before(rec.keys[i-1]))
	}
}

func TestControllerAbortsOnSinkError(t *testing.T) {
	config := smallConfig(VariantPlain)
	chart, err := NewBarChart(config, nil)
	require.NoError(t, err)

	boom := errors.New("disk full")
	rec := &recorder{fail: boom}
	other := &recorder{}
	c := NewController(config, prepare(t, VariantPlain), chart, nil, rec, other)
	err = c.Run(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Empty(t, other.keys)
	assert.Equal(t, 1, rec.closed)
	assert.Equal(t, 1, other.closed)
}

func TestControllerCancelled(t *testing.T) {
	config := smallConfig(VariantPlain)
	chart, err := NewBarChart(config, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := &recorder{}
	err = NewController(config, prepare(t, VariantPlain), chart, nil, rec).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, rec.keys)
}

func TestDrawFrameIdempotent(t *testing.T) {
	config := smallConfig(VariantFlags)
	flag := image.NewRGBA(image.Rect(0, 0, 50, 30))
	chart, err := NewBarChart(config, flagMap{"CHN": flag})
	require.NoError(t, err)

	table := prepare(t, VariantFlags)
	snap := table.Snapshot(table.Keys()[1], config.TopN)
	other := table.Snapshot(table.Keys()[3], config.TopN)

	dc := gg.NewContext(config.Width, config.Height)
	require.NoError(t, chart.DrawFrame(dc, snap))
	first := NewFrame(0, snap.Key, dc.Image())

	require.NoError(t, chart.DrawFrame(dc, other))
	require.NoError(t, chart.DrawFrame(dc, snap))
	second := NewFrame(0, snap.Key, dc.Image())

	assert.Equal(t, first.Image.Pix, second.Image.Pix)
}

func TestDrawFrameMissingFlag(t *testing.T) {
	config := smallConfig(VariantFlags)
	red := color.RGBA{R: 255, A: 255}
	flag := image.NewRGBA(image.Rect(0, 0, 50, 30))
	draw.Draw(flag, flag.Bounds(), image.NewUniform(red), image.Point{}, draw.Src)
	chart, err := NewBarChart(config, flagMap{"CHN": flag})
	require.NoError(t, err)

	table := prepare(t, VariantFlags)
	snap := table.Snapshot(table.Keys()[0], config.TopN)
	dc := gg.NewContext(config.Width, config.Height)
	require.NoError(t, chart.DrawFrame(dc, snap))
	img := dc.Image()

	// Red pixels in the flag slot left of the bar origin on a country's row.
	ax := chart.layout(float64(config.Width), float64(config.Height), snap.Max())
	slot := ax.height() / float64(len(snap.Bars))
	redOnRow := func(code string) int {
		for i, o := range snap.Bars {
			if o.ISO3 != code {
				continue
			}
			cy := int(ax.bottom - (float64(i)+0.5)*slot)
			x0 := int(ax.left - config.Style.FlagOffset)
			n := 0
			for x := x0; x < x0+25; x++ {
				for y := cy - 6; y <= cy+6; y++ {
					r, g, b, _ := img.At(x, y).RGBA()
					if r>>8 > 200 && g>>8 < 60 && b>>8 < 60 {
						n++
					}
				}
			}
			return n
		}
		t.Fatalf("%s not in snapshot", code)
		return 0
	}

	assert.Greater(t, redOnRow("CHN"), 20)
	assert.Zero(t, redOnRow("ATG"))
	assert.Zero(t, redOnRow("IND"))

	rec := &recorder{}
	c := NewController(config, table, chart, nil, rec)
	require.NoError(t, c.Run(context.Background()))
	assert.Len(t, rec.frames, 4)
}

func TestDrawFrameRejectsInvalidValue(t *testing.T) {
	config := smallConfig(VariantPlain)
	chart, err := NewBarChart(config, nil)
	require.NoError(t, err)

	snap := population.Snapshot{Bars: []population.Observation{{ISO3: "AAA", Population: -3}}}
	err = chart.DrawFrame(gg.NewContext(config.Width, config.Height), snap)
	assert.Error(t, err)
}

func TestLabel(t *testing.T) {
	chart, err := NewBarChart(DefaultConfig(VariantFlags), nil)
	require.NoError(t, err)
	assert.Equal(t, "Germany  ", chart.Label("Germany"))
	assert.Equal(t, "France", chart.Label("France"))

	plain, err := NewBarChart(DefaultConfig(VariantPlain), nil)
	require.NoError(t, err)
	assert.Equal(t, "Germany", plain.Label("Germany"))
}

func TestTicks(t *testing.T) {
	for _, xmax := range []float64{1000, 1050, 574000, 1.5e6} {
		ticks := Ticks(xmax)
		require.GreaterOrEqual(t, len(ticks), 2, "xmax %v", xmax)
		step := ticks[1] - ticks[0]
		assert.Positive(t, step)
		for i, v := range ticks {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, xmax)
			if i > 0 {
				assert.InDelta(t, step, v-ticks[i-1], step*1e-9)
			}
		}
	}
	assert.Equal(t, []float64{0}, Ticks(0))
}

func TestPalette(t *testing.T) {
	p, err := NewPalette(Style{BarColor: "#1f77b4", BarAlpha: 0.3})
	require.NoError(t, err)
	r, g, b, a := p.Color("CHN").RGBA()
	assert.Equal(t, p.Color("IND"), p.Color("CHN"))
	assert.NotZero(t, r+g+b)
	assert.Less(t, a, uint32(0xffff))

	rainbow, err := NewPalette(Style{BarColor: "#1f77b4", BarAlpha: 1, Palette: PaletteRainbow})
	require.NoError(t, err)
	assert.Equal(t, rainbow.Color("CHN"), rainbow.Color("CHN"))

	_, err = NewPalette(Style{BarColor: "blue"})
	assert.Error(t, err)
}

func TestGIFWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewGIFWriter(&buf, 200*time.Millisecond, false)
	img := image.NewRGBA(image.Rect(0, 0, 8, 6))
	for i := 0; i < 3; i++ {
		require.NoError(t, w.WriteFrame(&Frame{Index: i, Image: img}))
	}
	assert.Equal(t, 3, w.Len())
	require.NoError(t, w.Close())

	anim, err := gif.DecodeAll(&buf)
	require.NoError(t, err)
	assert.Len(t, anim.Image, 3)
	assert.Equal(t, []int{20, 20, 20}, anim.Delay)
	assert.Equal(t, -1, anim.LoopCount)

	assert.Error(t, NewGIFWriter(&buf, time.Second, true).Close())
}

func TestAPNGWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewAPNGWriter(&buf, 200*time.Millisecond, false)
	img := image.NewRGBA(image.Rect(0, 0, 8, 6))
	for i := 0; i < 3; i++ {
		require.NoError(t, w.WriteFrame(&Frame{Index: i, Image: img}))
	}
	assert.Equal(t, 3, w.Len())
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	frames, plays := animationControl(t, buf.Bytes())
	assert.Equal(t, uint32(3), frames)
	assert.Equal(t, uint32(1), plays)

	first, err := png.Decode(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), first.Bounds())

	buf.Reset()
	loop := NewAPNGWriter(&buf, time.Second, true)
	require.NoError(t, loop.WriteFrame(&Frame{Image: img}))
	require.NoError(t, loop.Close())
	_, plays = animationControl(t, buf.Bytes())
	assert.Zero(t, plays)

	assert.Error(t, NewAPNGWriter(&buf, time.Second, true).Close())
}

// animationControl returns the frame and play counts of the acTL chunk.
func animationControl(t *testing.T, data []byte) (frames, plays uint32) {
	t.Helper()
	require.Greater(t, len(data), 8)
	for p := 8; p+8 <= len(data); {
		n := int(binary.BigEndian.Uint32(data[p:]))
		kind := string(data[p+4 : p+8])
		if kind == "acTL" {
			body := data[p+8 : p+8+n]
			return binary.BigEndian.Uint32(body), binary.BigEndian.Uint32(body[4:])
		}
		p += 12 + n
	}
	t.Fatal("no acTL chunk")
	return 0, 0
}

func TestFrameMarshalBinary(t *testing.T) {
	f := NewFrame(0, population.TimeKey{Year: 1950}, image.NewRGBA(image.Rect(0, 0, 4, 2)))
	data, err := f.MarshalBinary()
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 2), img.Bounds())

	s := NewStreamer(nil, "barrace/frames")
	assert.Equal(t, "barrace/frames/1950", s.Topic(f))
}

func TestEncoder(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.mp4")
	// Stands in for ffmpeg: copies stdin to the last argument.
	script := "#!/bin/sh\nfor last; do :; done\ncat > \"$last\"\n"
	bin := filepath.Join(dir, "ffmpeg")
	require.NoError(t, os.WriteFile(bin, []byte(script), 0o755))

	e, err := NewEncoder(context.Background(), bin, 10, out)
	require.NoError(t, err)
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	require.NoError(t, e.WriteFrame(&Frame{Image: img}))
	require.NoError(t, e.Close())
	require.NoError(t, e.Close())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(data))
	assert.NoError(t, err)

	_, err = NewEncoder(context.Background(), "clearly-not-present-ffmpeg", 10, out)
	assert.Error(t, err)
}

func TestEncoderArgs(t *testing.T) {
	args := EncoderArgs(30, "out.mp4")
	assert.Equal(t, "out.mp4", args[len(args)-1])
	assert.Contains(t, strings.Join(args, " "), "-framerate 30")
	assert.Contains(t, strings.Join(args, " "), "-i -")
}

func TestFailingEncoderReportsStderr(t *testing.T) {
	dir := t.TempDir()
	script := "#!/bin/sh\ncat > /dev/null\necho 'Unknown encoder libx264' >&2\nexit 1\n"
	bin := filepath.Join(dir, "ffmpeg")
	require.NoError(t, os.WriteFile(bin, []byte(script), 0o755))

	e, err := NewEncoder(context.Background(), bin, 10, filepath.Join(dir, "out.mp4"))
	require.NoError(t, err)
	require.NoError(t, e.WriteFrame(&Frame{Image: image.NewRGBA(image.Rect(0, 0, 2, 2))}))
	err = e.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unknown encoder libx264")
}
