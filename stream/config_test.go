package stream

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	flags := DefaultConfig(VariantFlags)
	assert.Equal(t, 200*time.Millisecond, flags.Interval)
	assert.Equal(t, 30, flags.FPS)
	assert.False(t, flags.Repeat)
	assert.Equal(t, 10, flags.TopN)
	assert.Equal(t, "", flags.Output)
	assert.True(t, flags.ShowsFlags())
	assert.NoError(t, flags.Validate())

	plain := DefaultConfig(VariantPlain)
	assert.Equal(t, 10, plain.FPS)
	assert.True(t, plain.Repeat)
	assert.Equal(t, "video_pop.mp4", plain.Output)
	assert.Equal(t, "./data/cleaned-data.csv", plain.Input)
	assert.False(t, plain.ShowsFlags())
	assert.NoError(t, plain.Validate())
}

func TestReadConfig(t *testing.T) {
	path := writeConfig(t, `
variant: plain
input: pop.csv
interval: 150ms
fps: 24
top_n: 5
unstable_names: [Chad]
style:
  palette: rainbow
mqtt:
  url: tcp://localhost:1883
`)
	c, err := ReadConfig(path, "")
	require.NoError(t, err)
	assert.Equal(t, VariantPlain, c.Variant)
	assert.Equal(t, "pop.csv", c.Input)
	assert.Equal(t, 150*time.Millisecond, c.Interval)
	assert.Equal(t, 24, c.FPS)
	assert.Equal(t, 5, c.TopN)
	assert.Equal(t, []string{"Chad"}, c.UnstableNames)
	assert.Equal(t, PaletteRainbow, c.Style.Palette)
	assert.Equal(t, "#1f77b4", c.Style.BarColor)
	assert.Equal(t, "tcp://localhost:1883", c.Mqtt.URL)
	assert.Equal(t, "barrace/frames", c.Mqtt.Topic)
	assert.Equal(t, "video_pop.mp4", c.Output)
	assert.NoError(t, c.Validate())
}

func TestReadConfigDefaultsToFlags(t *testing.T) {
	c, err := ReadConfig(writeConfig(t, "flags_dir: /srv/flags\n"), "")
	require.NoError(t, err)
	assert.Equal(t, VariantFlags, c.Variant)
	assert.Equal(t, "/srv/flags", c.FlagsDir)
	assert.Equal(t, 30, c.FPS)
}

func TestReadConfigVariantOverride(t *testing.T) {
	path := writeConfig(t, "input: pop.csv\n")
	c, err := ReadConfig(path, VariantPlain)
	require.NoError(t, err)
	assert.Equal(t, VariantPlain, c.Variant)
	assert.Equal(t, "pop.csv", c.Input)
	assert.Equal(t, 10, c.FPS)
	assert.Equal(t, "video_pop.mp4", c.Output)
	assert.Equal(t, 1.0, c.Style.BarAlpha)
	assert.Empty(t, c.UnstableNames)

	c, err = ReadConfig(writeConfig(t, "variant: plain\nfps: 12\n"), VariantFlags)
	require.NoError(t, err)
	assert.Equal(t, VariantFlags, c.Variant)
	assert.Equal(t, 12, c.FPS)
	assert.Equal(t, "./flags", c.FlagsDir)
	assert.Equal(t, "Top 10 Populations", c.Style.Title)
}

func TestReadConfigRejectsUnknownField(t *testing.T) {
	_, err := ReadConfig(writeConfig(t, "variant: plain\nframes_per_second: 3\n"), "")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	for name, mutate := range map[string]func(*Config){
		"variant":  func(c *Config) { c.Variant = "fancy" },
		"input":    func(c *Config) { c.Input = "" },
		"top":      func(c *Config) { c.TopN = 0 },
		"fps":      func(c *Config) { c.FPS = 0 },
		"interval": func(c *Config) { c.Interval = 0 },
		"tween":    func(c *Config) { c.TweenSteps = -1 },
		"odd":      func(c *Config) { c.Width = 1201 },
		"palette":  func(c *Config) { c.Style.Palette = "pastel" },
	} {
		t.Run(name, func(t *testing.T) {
			c := DefaultConfig(VariantFlags)
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}
