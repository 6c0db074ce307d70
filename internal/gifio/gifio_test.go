package gifio_test

import (
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-photopipe/internal/gifio"
	"github.com/askiada/go-photopipe/pkg/pipeline"
	"github.com/askiada/go-photopipe/pkg/pipeline/model"
)

// markedFrame is black with a single white pixel on the first row at column i.
func markedFrame(i int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 4))
	for p := 0; p < len(img.Pix); p += 4 {
		img.Pix[p+3] = 255
	}
	img.SetNRGBA(i, 0, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	return img
}

func isWhite(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return r > 0xf000 && g > 0xf000 && b > 0xf000
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		frames int
		delays []int
		fps    float64
		want   []int
	}{
		"gif delays":    {frames: 4, delays: []int{5, 10, 20, 40}, want: []int{5, 10, 20, 40}},
		"video fps":     {frames: 3, fps: 25, want: []int{4, 4, 4}},
		"default delay": {frames: 2, want: []int{gifio.DefaultDelay, gifio.DefaultDelay}},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			seq := &model.Sequence{Delays: tc.delays, FPS: tc.fps}
			for i := 0; i < tc.frames; i++ {
				seq.Frames = append(seq.Frames, markedFrame(i))
			}

			path := filepath.Join(t.TempDir(), "anim.gif")
			require.NoError(t, gifio.Codec{}.WriteFrames(path, seq))

			got, err := gifio.Codec{}.ReadFrames(path)
			require.NoError(t, err)
			require.Len(t, got.Frames, tc.frames)
			assert.Equal(t, tc.want, got.Delays)

			for i, frame := range got.Frames {
				assert.Equal(t, image.Rect(0, 0, 8, 4), frame.Bounds())
				for x := 0; x < 8; x++ {
					assert.Equal(t, x == i, isWhite(frame.At(x, 0)), "frame %d column %d", i, x)
				}
			}
		})
	}
}

func TestReadFramesComposesPartialFrames(t *testing.T) {
	t.Parallel()

	full := image.NewPaletted(image.Rect(0, 0, 4, 4), palette.Plan9)
	partial := image.NewPaletted(image.Rect(2, 2, 4, 4), palette.Plan9)
	white := uint8(full.Palette.Index(color.White))
	for i := range partial.Pix {
		partial.Pix[i] = white
	}

	path := filepath.Join(t.TempDir(), "partial.gif")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, gif.EncodeAll(f, &gif.GIF{
		Image:  []*image.Paletted{full, partial},
		Delay:  []int{0, 7},
		Config: image.Config{Width: 4, Height: 4, ColorModel: full.Palette},
	}))
	require.NoError(t, f.Close())

	seq, err := gifio.Codec{}.ReadFrames(path)
	require.NoError(t, err)
	require.Len(t, seq.Frames, 2)
	assert.Equal(t, []int{gifio.DefaultDelay, 7}, seq.Delays)
	assert.Equal(t, image.Rect(0, 0, 4, 4), seq.Frames[1].Bounds())
	assert.False(t, isWhite(seq.Frames[1].At(0, 0)))
	assert.True(t, isWhite(seq.Frames[1].At(3, 3)))
}

func TestReadFramesInvalid(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "broken.gif")
	require.NoError(t, os.WriteFile(path, []byte("GIF89a broken"), 0o600))

	_, err := gifio.Codec{}.ReadFrames(path)
	assert.ErrorIs(t, err, pipeline.ErrInvalidImage)
}

func TestWriteFramesEmpty(t *testing.T) {
	t.Parallel()

	err := gifio.Codec{}.WriteFrames(filepath.Join(t.TempDir(), "empty.gif"), &model.Sequence{})
	assert.ErrorIs(t, err, gifio.ErrNoFrames)
}
