package main

import (
	"fmt"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"github.com/matt-g-everett/barrace/logging"
	"github.com/matt-g-everett/barrace/population"
	"github.com/matt-g-everett/barrace/stream"
)

type options struct {
	configPath string
	variant    string
	input      string
	flagsDir   string
	output     string
	fps        int
	interval   string
	top        int
	tween      int
	logLevel   string
	progress   bool
	addr       string
}

func newRootCommand() *cobra.Command {
	a := &app{}
	opts := &options{}

	root := &cobra.Command{
		Use:           "barrace",
		Short:         "Render a bar chart race of the most populous countries",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd, opts)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.Config.Output == "" {
				return a.show(cmd.Context(), opts.addr, opts.progress)
			}
			return a.render(cmd.Context(), opts.progress)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "YAML config file")
	pf.StringVar(&opts.variant, "variant", stream.VariantFlags, "chart variant: flags or plain")
	pf.StringVar(&opts.input, "input", "", "population table (.csv or .xlsx)")
	pf.StringVar(&opts.flagsDir, "flags-dir", "", "directory of <ISO3>.png flag images")
	pf.StringVar(&opts.output, "output", "", "output file (.mp4 via ffmpeg, .gif, or .png/.apng)")
	pf.IntVar(&opts.fps, "fps", 0, "output frame rate")
	pf.StringVar(&opts.interval, "interval", "", "display time of one frame, e.g. 200ms")
	pf.IntVar(&opts.top, "top", 0, "number of countries per frame")
	pf.IntVar(&opts.tween, "tween", 0, "eased frames inserted between time keys")
	pf.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error")
	pf.BoolVar(&opts.progress, "progress", false, "show a progress bar while rendering")
	pf.StringVar(&opts.addr, "addr", ":3000", "preview listen address")

	root.AddCommand(
		&cobra.Command{
			Use:   "render",
			Short: "Encode the animation to the output file",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.render(cmd.Context(), opts.progress)
			},
		},
		&cobra.Command{
			Use:   "show",
			Short: "Render the animation and serve it for preview",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.show(cmd.Context(), opts.addr, opts.progress)
			},
		},
		&cobra.Command{
			Use:   "inspect <time-key>",
			Short: "Print the top countries at one time key (YYYY or YYYY-MM)",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				key, err := population.ParseTimeKey(args[0])
				if err != nil {
					return err
				}
				return a.inspect(key)
			},
		},
	)
	return root
}

// setup builds the configuration from defaults, the config file and
// flags, in increasing precedence, and creates the logger.
func (a *app) setup(cmd *cobra.Command, opts *options) error {
	a.out = cmd.OutOrStdout()
	a.errOut = cmd.ErrOrStderr()
	flagSet := cmd.Flags()

	var err error
	if opts.configPath != "" {
		var variant string
		if flagSet.Changed("variant") {
			variant = opts.variant
		}
		if a.Config, err = stream.ReadConfig(opts.configPath, variant); err != nil {
			return err
		}
	} else {
		a.Config = stream.DefaultConfig(opts.variant)
	}

	if flagSet.Changed("input") {
		a.Config.Input = opts.input
	}
	if flagSet.Changed("flags-dir") {
		a.Config.FlagsDir = opts.flagsDir
	}
	if flagSet.Changed("output") {
		a.Config.Output = opts.output
	}
	if flagSet.Changed("fps") {
		a.Config.FPS = opts.fps
	}
	if flagSet.Changed("interval") {
		if a.Config.Interval, err = parseInterval(opts.interval); err != nil {
			return err
		}
	}
	if flagSet.Changed("top") {
		a.Config.TopN = opts.top
	}
	if flagSet.Changed("tween") {
		a.Config.TweenSteps = opts.tween
	}
	if flagSet.Changed("log-level") {
		a.Config.Log.Level = opts.logLevel
	}

	if err := a.Config.Validate(); err != nil {
		return err
	}
	if a.Log, err = logging.New(a.out, a.Config.Log.Level, a.Config.Log.Format); err != nil {
		return err
	}
	a.Log.Debug("config loaded", "config", spew.Sdump(a.Config))
	return nil
}

func parseInterval(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("interval: %w", err)
	}
	return d, nil
}
