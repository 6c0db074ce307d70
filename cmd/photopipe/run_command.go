package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/askiada/go-photopipe/pkg/pipeline"
	"github.com/askiada/go-photopipe/pkg/pipeline/model"
	"github.com/askiada/go-photopipe/pkg/pipeline/settings"
)

var (
	errMissingInput  = errors.New("input is required")
	errAlteredFolder = errors.New("altered must be an existing directory")
	errCount         = errors.New("must be greater than 0")
)

type runFlags struct {
	input          string
	output         string
	altered        string
	steps          string
	overlay        string
	autoResize     bool
	autoResizeCrop bool
	autoRescale    bool
	ignoreSize     bool
	colorTransfer  bool
	cpu            bool
	gpu            []int
	cores          int
	runs           int
	jsonArgs       string
	jsonFolderName string
	graph          string
}

func newRunCommand(root *rootFlags) *cobra.Command {
	f := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process an image, a GIF, a video or a folder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd.Flags(), f)
			if err != nil {
				return err
			}

			pipe, err := newPipeline(cmd, cfg, root.debug, f.graph)
			if err != nil {
				return err
			}
			return pipe.Run(cmd.Context(), cfg)
		},
	}
	bindRunFlags(cmd, f)

	return cmd
}

func bindRunFlags(cmd *cobra.Command, f *runFlags) {
	flags := cmd.Flags()
	flags.StringVarP(&f.input, "input", "i", "", "Image, GIF, video or folder to process")
	flags.StringVarP(&f.output, "output", "o", "", "Where to write the result, output.<input extension> by default")
	flags.StringVarP(&f.altered, "altered", "a", "", "Directory where intermediate stage images are written")
	flags.StringVarP(&f.steps, "steps", "s", "", "Core stages to run as <start>:<end>, resuming from altered")
	flags.StringVar(&f.overlay, "overlay", "", "Process only the region <x1>,<y1>:<x2>,<y2> and paste it back")
	flags.BoolVar(&f.autoResize, "auto-resize", false, "Scale the image to fit 512x512, padding with white")
	flags.BoolVar(&f.autoResizeCrop, "auto-resize-crop", false, "Scale the image to cover 512x512 and crop the center")
	flags.BoolVar(&f.autoRescale, "auto-rescale", false, "Stretch the image to 512x512")
	flags.BoolVar(&f.ignoreSize, "ignore-size", false, "Do not check the image size")
	flags.BoolVar(&f.colorTransfer, "color-transfer", false, "Transfer the original colors to the result")
	flags.BoolVar(&f.cpu, "cpu", false, "Process on the CPU")
	flags.IntSliceVar(&f.gpu, "gpu", nil, "GPU ids to process on, items are then processed one at a time")
	flags.IntVar(&f.cores, "n-cores", 1, "Items processed concurrently on the CPU")
	flags.IntVarP(&f.runs, "n-runs", "n", 1, "Process the input this many times")
	flags.StringVarP(&f.jsonArgs, "json-args", "j", "", "JSON settings, inline or as a file, merged below the flags")
	flags.StringVar(&f.jsonFolderName, "json-folder-name", model.DefaultJSONFolderName, "Settings file looked up in each folder")
	flags.StringVar(&f.graph, "graph", "", "Write the stage graph with durations to this DOT file")

	cmd.MarkFlagsMutuallyExclusive("overlay", "auto-resize", "auto-resize-crop", "auto-rescale", "ignore-size")
	cmd.MarkFlagsMutuallyExclusive("cpu", "gpu")
}

// buildConfig turns the parsed flags into a validated configuration.
// Flags set on the command line are recorded as explicit so settings files cannot override them.
func buildConfig(flags *pflag.FlagSet, f *runFlags) (model.Config, error) {
	cfg := model.NewConfig()
	flags.Visit(func(fl *pflag.Flag) {
		cfg.Explicit[strings.ReplaceAll(fl.Name, "-", "_")] = true
	})

	if f.input == "" {
		return cfg, errMissingInput
	}
	cfg.Input = f.input
	cfg.Output = f.output
	cfg.Altered = f.altered
	cfg.AutoResize = f.autoResize
	cfg.AutoResizeCrop = f.autoResizeCrop
	cfg.AutoRescale = f.autoRescale
	cfg.IgnoreSize = f.ignoreSize
	cfg.ColorTransfer = f.colorTransfer
	cfg.Cores = f.cores
	cfg.Runs = f.runs
	cfg.JSONFolderName = f.jsonFolderName
	if !f.cpu && len(f.gpu) > 0 {
		cfg.GPUIDs = append([]int{}, f.gpu...)
	}

	var err error
	if f.steps != "" {
		cfg.Steps, err = model.ParseStepRange(f.steps)
		if err != nil {
			return cfg, err
		}
	}
	if f.overlay != "" {
		cfg.Overlay, err = model.ParseRegion(f.overlay)
		if err != nil {
			return cfg, err
		}
	}

	if f.jsonArgs != "" {
		overlay, err := settings.LoadArg(f.jsonArgs)
		if err != nil {
			return cfg, errors.Wrap(err, "json-args")
		}
		cfg, err = settings.Merge(cfg, overlay)
		if err != nil {
			return cfg, errors.Wrap(err, "json-args")
		}
	}

	err = validate(&cfg)
	return cfg, err
}

// validate checks cfg before any work starts and fills the default output.
func validate(cfg *model.Config) error {
	info, err := os.Stat(cfg.Input)
	if err != nil {
		return errors.Wrapf(err, "input %s", cfg.Input)
	}

	if !info.IsDir() {
		if !model.IsSupportedFile(cfg.Input) {
			return errors.Wrapf(pipeline.ErrUnsupportedInput, "%s", cfg.Input)
		}
		if cfg.Output == "" {
			cfg.Output = "output" + filepath.Ext(cfg.Input)
		} else if !model.IsSupportedFile(cfg.Output) {
			return errors.Wrapf(pipeline.ErrUnsupportedExtension, "output %s", cfg.Output)
		}
	}

	if cfg.Steps != nil {
		if cfg.Altered == "" {
			return settings.ErrStepsRequireAltered
		}
		info, err := os.Stat(cfg.Altered)
		if err != nil || !info.IsDir() {
			return errors.Wrapf(errAlteredFolder, "%s", cfg.Altered)
		}
	}

	if cfg.Cores < 1 {
		return errors.Wrap(errCount, "n-cores")
	}
	if cfg.Runs < 1 {
		return errors.Wrap(errCount, "n-runs")
	}
	return nil
}
