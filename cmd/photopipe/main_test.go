package main

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-photopipe/internal/watch"
	"github.com/askiada/go-photopipe/pkg/pipeline"
	"github.com/askiada/go-photopipe/pkg/pipeline/model"
	"github.com/askiada/go-photopipe/pkg/pipeline/settings"
)

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(t.Context())
	return stdout.String(), stderr.String(), err
}

func writePNG(t *testing.T, path string, width, height int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

// parseRun parses args with the run command flags and builds the configuration.
func parseRun(t *testing.T, args ...string) (model.Config, error) {
	t.Helper()
	cmd := &cobra.Command{Use: "run"}
	f := &runFlags{}
	bindRunFlags(cmd, f)
	require.NoError(t, cmd.ParseFlags(args))
	require.NoError(t, cmd.ValidateFlagGroups())
	return buildConfig(cmd.Flags(), f)
}

type fixture struct {
	dir     string
	photo   string
	altered string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	fx := fixture{
		dir:     dir,
		photo:   filepath.Join(dir, "photo.png"),
		altered: filepath.Join(dir, "altered"),
	}
	require.NoError(t, os.WriteFile(fx.photo, []byte("png"), 0o644))
	require.NoError(t, os.Mkdir(fx.altered, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("txt"), 0o644))
	return fx
}

func TestBuildConfig(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)

	tcs := map[string]struct {
		args  []string
		check func(t *testing.T, cfg model.Config)
	}{
		"defaults": {
			args: []string{"-i", fx.photo},
			check: func(t *testing.T, cfg model.Config) {
				assert.Equal(t, fx.photo, cfg.Input)
				assert.Equal(t, "output.png", cfg.Output)
				assert.Equal(t, 1, cfg.Cores)
				assert.Equal(t, 1, cfg.Runs)
				assert.Equal(t, model.DefaultJSONFolderName, cfg.JSONFolderName)
				assert.Nil(t, cfg.GPUIDs)
				assert.True(t, cfg.IsExplicit(model.KeyInput))
				assert.False(t, cfg.IsExplicit(model.KeyOutput))
			},
		},
		"resume": {
			args: []string{"-i", fx.photo, "-o", "out.jpg", "-s", "2:4", "-a", fx.altered},
			check: func(t *testing.T, cfg model.Config) {
				assert.Equal(t, "out.jpg", cfg.Output)
				assert.Equal(t, &model.StepRange{Start: 2, End: 4}, cfg.Steps)
				assert.Equal(t, fx.altered, cfg.Altered)
				assert.True(t, cfg.IsExplicit(model.KeySteps))
				assert.True(t, cfg.IsExplicit(model.KeyAltered))
			},
		},
		"overlay": {
			args: []string{"-i", fx.photo, "--overlay", "10,20:110,220", "--color-transfer"},
			check: func(t *testing.T, cfg model.Config) {
				assert.Equal(t, &model.Region{X1: 10, Y1: 20, X2: 110, Y2: 220}, cfg.Overlay)
				assert.True(t, cfg.ColorTransfer)
				assert.True(t, cfg.IsExplicit(model.KeyOverlay))
			},
		},
		"gpu": {
			args: []string{"-i", fx.photo, "--gpu", "0,1", "--n-cores", "4"},
			check: func(t *testing.T, cfg model.Config) {
				assert.Equal(t, []int{0, 1}, cfg.GPUIDs)
				assert.False(t, cfg.Multiprocessing())
				assert.True(t, cfg.IsExplicit(model.KeyGPU))
			},
		},
		"cpu cores": {
			args: []string{"-i", fx.photo, "--cpu", "--n-cores", "4", "-n", "3"},
			check: func(t *testing.T, cfg model.Config) {
				assert.Nil(t, cfg.GPUIDs)
				assert.Equal(t, 4, cfg.Cores)
				assert.Equal(t, 3, cfg.Runs)
				assert.True(t, cfg.Multiprocessing())
				assert.True(t, cfg.IsExplicit(model.KeyCPU))
				assert.True(t, cfg.IsExplicit(model.KeyCores))
				assert.True(t, cfg.IsExplicit(model.KeyRuns))
			},
		},
		"folder": {
			args: []string{"-i", fx.dir, "--auto-resize", "--json-folder-name", "photopipe.json"},
			check: func(t *testing.T, cfg model.Config) {
				assert.Empty(t, cfg.Output)
				assert.True(t, cfg.AutoResize)
				assert.Equal(t, "photopipe.json", cfg.JSONFolderName)
				assert.True(t, cfg.IsExplicit(model.KeyAutoResize))
				assert.True(t, cfg.IsExplicit(model.KeyJSONFolderName))
			},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cfg, err := parseRun(t, tc.args...)
			require.NoError(t, err)
			tc.check(t, cfg)
		})
	}
}

func TestBuildConfigErrors(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)

	tcs := map[string]struct {
		args []string
		want error
	}{
		"missing input":         {args: nil, want: errMissingInput},
		"input not found":       {args: []string{"-i", filepath.Join(fx.dir, "missing.png")}, want: os.ErrNotExist},
		"unsupported input":     {args: []string{"-i", filepath.Join(fx.dir, "notes.txt")}, want: pipeline.ErrUnsupportedInput},
		"unsupported output":    {args: []string{"-i", fx.photo, "-o", "out.webm"}, want: pipeline.ErrUnsupportedExtension},
		"steps without altered": {args: []string{"-i", fx.photo, "-s", "1:3"}, want: settings.ErrStepsRequireAltered},
		"altered not found": {
			args: []string{"-i", fx.photo, "-s", "1:3", "-a", filepath.Join(fx.dir, "missing")},
			want: errAlteredFolder,
		},
		"altered is a file":   {args: []string{"-i", fx.photo, "-s", "1:3", "-a", fx.photo}, want: errAlteredFolder},
		"steps format":        {args: []string{"-i", fx.photo, "-s", "1-3", "-a", fx.altered}, want: model.ErrStepsFormat},
		"steps order":         {args: []string{"-i", fx.photo, "-s", "4:2", "-a", fx.altered}, want: model.ErrStepsOrder},
		"overlay format":      {args: []string{"-i", fx.photo, "--overlay", "1,2,3,4"}, want: model.ErrOverlayFormat},
		"no cores":            {args: []string{"-i", fx.photo, "--n-cores", "0"}, want: errCount},
		"no runs":             {args: []string{"-i", fx.photo, "-n", "0"}, want: errCount},
		"malformed json args": {args: []string{"-i", fx.photo, "-j", "{not json"}, want: settings.ErrMalformed},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := parseRun(t, tc.args...)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestBuildConfigJSONArgs(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	doc := `{"auto-resize": true, "n_cores": 3, "color_transfer": true, "altered": "` + fx.altered + `", "steps": "0:2"}`
	file := filepath.Join(fx.dir, "args.json")
	require.NoError(t, os.WriteFile(file, []byte(doc), 0o644))

	for name, arg := range map[string]string{"inline": doc, "file": file} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cfg, err := parseRun(t, "-i", fx.photo, "--n-cores", "2", "-j", arg)
			require.NoError(t, err)
			assert.True(t, cfg.AutoResize)
			assert.True(t, cfg.ColorTransfer)
			assert.Equal(t, 2, cfg.Cores)
			assert.Equal(t, fx.altered, cfg.Altered)
			assert.Equal(t, &model.StepRange{Start: 0, End: 2}, cfg.Steps)
		})
	}
}

func TestBuildConfigJSONArgsKeepsExplicitScaling(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	cfg, err := parseRun(t, "-i", fx.photo, "--auto-rescale", "-j", `{"overlay": "0,0:10,10"}`)
	require.NoError(t, err)
	assert.True(t, cfg.AutoRescale)
	assert.Nil(t, cfg.Overlay)
}

func TestRunExclusiveFlags(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)

	tcs := map[string][]string{
		"scaling":    {"run", "-i", fx.photo, "--auto-resize", "--auto-rescale"},
		"processing": {"run", "-i", fx.photo, "--cpu", "--gpu", "0"},
	}

	for name, args := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, _, err := runCLI(t, args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "none of the others can be")
		})
	}
}

func TestRunCommand(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := filepath.Join(dir, "photo.png")
	output := filepath.Join(dir, "result.png")
	graph := filepath.Join(dir, "stages.dot")
	writePNG(t, input, 96, 64)

	stdout, _, err := runCLI(t, "run", "-i", input, "-o", output, "--auto-rescale", "--graph", graph)
	require.NoError(t, err)
	assert.Contains(t, stdout, `"msg":"Done"`)

	f, err := os.Open(output)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, model.CanonicalSize, cfg.Width)
	assert.Equal(t, model.CanonicalSize, cfg.Height)

	dot, err := os.ReadFile(graph)
	require.NoError(t, err)
	assert.Contains(t, string(dot), `"Rescale"`)
}

func TestWatchCommandRequiresDirectories(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, _, err := runCLI(t, "watch", filepath.Join(dir, "missing"), dir)
	assert.ErrorIs(t, err, watch.ErrNotDirectory)

	_, _, err = runCLI(t, "watch", dir)
	assert.Error(t, err)
}

func TestRootHelp(t *testing.T) {
	t.Parallel()

	stdout, _, err := runCLI(t)
	require.NoError(t, err)
	assert.Contains(t, stdout, "run")
	assert.Contains(t, stdout, "watch")
}
