package pipeline_test

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-photopipe/pkg/pipeline"
	"github.com/askiada/go-photopipe/pkg/pipeline/model"
)

var errStageFailed = errors.New("stage failed")

// pngCodec reads and writes PNG files only.
type pngCodec struct {
	channels int
}

func (c pngCodec) Read(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open %s", path)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(pipeline.ErrInvalidImage, "%s: %v", path, err)
	}
	return img, nil
}

func (c pngCodec) Write(img image.Image, path string) error {
	if filepath.Ext(path) != ".png" {
		return errors.Wrapf(pipeline.ErrUnsupportedExtension, "%s", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "unable to create %s", path)
	}
	defer f.Close()

	return png.Encode(f, img)
}

func (c pngCodec) Shape(path string) (model.Shape, error) {
	img, err := c.Read(path)
	if err != nil {
		return model.Shape{}, err
	}
	channels := c.channels
	if channels == 0 {
		channels = model.CanonicalChannels
	}
	return model.Shape{Width: img.Bounds().Dx(), Height: img.Bounds().Dy(), Channels: channels}, nil
}

// testStages builds deterministic stages and records how they are used.
type testStages struct {
	mu     sync.Mutex
	calls  map[model.StageName]int
	built  map[model.StageName]int
	active int32
	peak   int32

	delay  time.Duration
	failOn string
}

func newTestStages() *testStages {
	return &testStages{
		calls: make(map[model.StageName]int),
		built: make(map[model.StageName]int),
	}
}

func (ts *testStages) callCount(name model.StageName) int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.calls[name]
}

func (ts *testStages) buildCount(name model.StageName) int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.built[name]
}

func (ts *testStages) peakConcurrency() int {
	return int(atomic.LoadInt32(&ts.peak))
}

func stageIndex(name model.StageName) []int {
	switch name {
	case model.StageStylize:
		return []int{-2, -1}
	case model.StageOverlay, model.StageColorTransfer:
		return []int{0, -1}
	default:
		return []int{-1}
	}
}

func allStages() []model.StageName {
	return append(model.CoreStages(),
		model.StageResize,
		model.StageResizeCrop,
		model.StageRescale,
		model.StageCrop,
		model.StageOverlay,
		model.StageColorTransfer,
	)
}

func (ts *testStages) constructors() map[model.StageName]pipeline.Constructor {
	table := make(map[model.StageName]pipeline.Constructor)
	for i, name := range allStages() {
		name, delta := name, uint8(11*(i+1))
		table[name] = func(_ model.Config) (pipeline.Stage, error) {
			ts.mu.Lock()
			ts.built[name]++
			ts.mu.Unlock()
			return pipeline.NewStageFunc(name, stageIndex(name), ts.run(name, delta)), nil
		}
	}
	return table
}

func (ts *testStages) run(name model.StageName, delta uint8) func(context.Context, model.Config, ...image.Image) (image.Image, error) {
	return func(_ context.Context, cfg model.Config, inputs ...image.Image) (image.Image, error) {
		current := atomic.AddInt32(&ts.active, 1)
		defer atomic.AddInt32(&ts.active, -1)
		for {
			peak := atomic.LoadInt32(&ts.peak)
			if current <= peak || atomic.CompareAndSwapInt32(&ts.peak, peak, current) {
				break
			}
		}

		ts.mu.Lock()
		ts.calls[name]++
		ts.mu.Unlock()

		if ts.failOn != "" && strings.HasPrefix(filepath.Base(cfg.Input), ts.failOn) {
			return nil, errors.Wrapf(errStageFailed, "%s on %s", name, cfg.Input)
		}
		if ts.delay > 0 {
			time.Sleep(ts.delay)
		}

		return shiftImage(delta, inputs...), nil
	}
}

// shiftImage sums its inputs pixel by pixel and adds delta, wrapping around.
func shiftImage(delta uint8, inputs ...image.Image) image.Image {
	bounds := inputs[len(inputs)-1].Bounds()
	out := image.NewNRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b := delta, delta, delta
			for _, in := range inputs {
				c, _ := color.NRGBAModel.Convert(in.At(x, y)).(color.NRGBA)
				r += c.R
				g += c.G
				b += c.B
			}
			out.SetNRGBA(x, y, color.NRGBA{R: r, G: g, B: b, A: 255})
		}
	}
	return out
}

func testImage(width, height int, seed uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x*7) + seed,
				G: uint8(y*13) + seed,
				B: uint8(x+y) ^ seed,
				A: 255,
			})
		}
	}
	return img
}

func writeTestImage(t *testing.T, path string, width, height int, seed uint8) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, pngCodec{}.Write(testImage(width, height, seed), path))
	return path
}

func newTestPipeline(t *testing.T, ts *testStages, options ...pipeline.Option) (*pipeline.Pipeline, *test.Hook) {
	t.Helper()
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	registry := pipeline.NewRegistry(model.NewConfig(), ts.constructors())
	pipe, err := pipeline.New(registry, pngCodec{}, append([]pipeline.Option{pipeline.WithLogger(log)}, options...)...)
	require.NoError(t, err)
	return pipe, hook
}

func newTestConfig(input, output string) model.Config {
	cfg := model.NewConfig()
	cfg.Input = input
	cfg.Output = output
	return cfg
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func assertSameImage(t *testing.T, want, got image.Image) {
	t.Helper()
	require.Equal(t, want.Bounds(), got.Bounds())
	bounds := want.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			wr, wg, wb, wa := want.At(x, y).RGBA()
			gr, gg, gb, ga := got.At(x, y).RGBA()
			if wr != gr || wg != gg || wb != gb || wa != ga {
				require.Failf(t, "images differ", "pixel (%d, %d)", x, y)
			}
		}
	}
}

func hasEntry(hook *test.Hook, level logrus.Level, msg string) bool {
	for _, entry := range hook.AllEntries() {
		if entry.Level == level && entry.Message == msg {
			return true
		}
	}
	return false
}
