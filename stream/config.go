package stream

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Variants of the bar chart race.
const (
	VariantFlags = "flags"
	VariantPlain = "plain"
)

// Style holds the static look of the chart.
type Style struct {
	Title      string  `yaml:"title"`
	XLabel     string  `yaml:"x_label"`
	BarColor   string  `yaml:"bar_color"`
	BarAlpha   float64 `yaml:"bar_alpha"`
	Palette    string  `yaml:"palette"`
	FlagWidth  int     `yaml:"flag_width"`
	FlagHeight int     `yaml:"flag_height"`
	FlagZoom   float64 `yaml:"flag_zoom"`
	FlagOffset float64 `yaml:"flag_offset"`
}

// Config carries everything a render needs.
type Config struct {
	Variant          string        `yaml:"variant"`
	Input            string        `yaml:"input"`
	FlagsDir         string        `yaml:"flags_dir"`
	Output           string        `yaml:"output"`
	Interval         time.Duration `yaml:"interval"`
	FPS              int           `yaml:"fps"`
	Repeat           bool          `yaml:"repeat"`
	TopN             int           `yaml:"top_n"`
	TweenSteps       int           `yaml:"tween_steps"`
	PopulationColumn string        `yaml:"population_column"`
	Width            int           `yaml:"width"`
	Height           int           `yaml:"height"`
	UnstableNames    []string      `yaml:"unstable_names"`
	Style            Style         `yaml:"style"`
	FFmpeg           string        `yaml:"ffmpeg"`
	Mqtt             struct {
		URL      string `yaml:"url"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		Topic    string `yaml:"topic"`
	} `yaml:"mqtt"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// DefaultConfig returns the settings of a variant.
func DefaultConfig(variant string) Config {
	c := Config{
		Variant:          variant,
		Input:            "./data/cleaned-data.csv",
		Interval:         200 * time.Millisecond,
		TopN:             10,
		PopulationColumn: "TPopulation1Jan",
		Width:            1200,
		Height:           600,
		FFmpeg:           "ffmpeg",
		Style: Style{
			BarColor:   "#1f77b4",
			FlagWidth:  50,
			FlagHeight: 30,
			FlagZoom:   0.5,
			FlagOffset: 50,
		},
	}
	c.Mqtt.Topic = "barrace/frames"
	c.Log.Level = "info"
	c.Log.Format = "console"

	switch variant {
	case VariantPlain:
		c.Output = "video_pop.mp4"
		c.FPS = 10
		c.Repeat = true
		c.Style.Title = "Top 10 Countries by Population (in millions)"
		c.Style.XLabel = "Total Population"
		c.Style.BarAlpha = 1
	default:
		c.FlagsDir = "./flags"
		c.FPS = 30
		c.Style.Title = "Top 10 Populations"
		c.Style.XLabel = "Population (in millions)"
		c.Style.BarAlpha = 0.3
		c.UnstableNames = []string{"Germany", "Mexico", "Ethiopia", "Bangladesh"}
	}
	return c
}

// ReadConfig decodes a YAML file over the defaults of a variant. A
// non-empty variant takes precedence over the one named in the file;
// otherwise the file's variant is used, falling back to flags.
func ReadConfig(path, variant string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if variant == "" {
		var head struct {
			Variant string `yaml:"variant"`
		}
		if err := yaml.Unmarshal(data, &head); err != nil {
			return Config{}, fmt.Errorf("decode config %s: %w", path, err)
		}
		variant = head.Variant
	}
	if variant == "" {
		variant = VariantFlags
	}

	c := DefaultConfig(variant)
	if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return Config{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	c.Variant = variant
	return c, nil
}

// Validate checks the settings for values a render cannot use.
func (c Config) Validate() error {
	switch {
	case c.Variant != VariantFlags && c.Variant != VariantPlain:
		return fmt.Errorf("config: unknown variant %q", c.Variant)
	case c.Input == "":
		return fmt.Errorf("config: input path is empty")
	case c.TopN < 1:
		return fmt.Errorf("config: top_n must be at least 1, got %d", c.TopN)
	case c.FPS < 1:
		return fmt.Errorf("config: fps must be at least 1, got %d", c.FPS)
	case c.Interval <= 0:
		return fmt.Errorf("config: interval must be positive, got %s", c.Interval)
	case c.TweenSteps < 0:
		return fmt.Errorf("config: tween_steps must not be negative, got %d", c.TweenSteps)
	case c.Width <= 0 || c.Height <= 0 || c.Width%2 != 0 || c.Height%2 != 0:
		return fmt.Errorf("config: width and height must be positive and even, got %dx%d", c.Width, c.Height)
	case c.Style.Palette != "" && c.Style.Palette != PaletteRainbow:
		return fmt.Errorf("config: unknown palette %q", c.Style.Palette)
	}
	return nil
}

// ShowsFlags reports whether flag icons are drawn.
func (c Config) ShowsFlags() bool {
	return c.Variant == VariantFlags && c.FlagsDir != ""
}
