// Package gifio splits animated GIF files into frames and assembles frames back into GIF files.
package gifio

import (
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"math"
	"os"

	"github.com/pkg/errors"

	"github.com/askiada/go-photopipe/pkg/pipeline"
	"github.com/askiada/go-photopipe/pkg/pipeline/model"
)

// DefaultDelay is the frame delay, in hundredths of a second, used when a sequence has no timing.
const DefaultDelay = 10

var ErrNoFrames = errors.New("sequence has no frames")

// Codec reads and writes GIF sequences.
type Codec struct{}

// ReadFrames decodes every frame of the GIF at path, composed over the previous ones
// the way a viewer would display them.
func (Codec) ReadFrames(path string) (*model.Sequence, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open %s", path)
	}
	defer f.Close()

	g, err := gif.DecodeAll(f)
	if err != nil {
		return nil, errors.Wrapf(pipeline.ErrInvalidImage, "%s: %v", path, err)
	}
	if len(g.Image) == 0 {
		return nil, errors.Wrapf(ErrNoFrames, "%s", path)
	}

	bounds := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if bounds.Empty() {
		bounds = g.Image[0].Bounds()
	}
	canvas := image.NewNRGBA(bounds)

	seq := &model.Sequence{}
	for i, frame := range g.Image {
		var previous *image.NRGBA
		disposal := byte(0)
		if i < len(g.Disposal) {
			disposal = g.Disposal[i]
		}
		if disposal == gif.DisposalPrevious {
			previous = cloneNRGBA(canvas)
		}

		draw.Draw(canvas, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)
		seq.Frames = append(seq.Frames, cloneNRGBA(canvas))

		delay := DefaultDelay
		if i < len(g.Delay) && g.Delay[i] > 0 {
			delay = g.Delay[i]
		}
		seq.Delays = append(seq.Delays, delay)

		switch disposal {
		case gif.DisposalBackground:
			draw.Draw(canvas, frame.Bounds(), image.Transparent, image.Point{}, draw.Src)
		case gif.DisposalPrevious:
			canvas = previous
		}
	}

	return seq, nil
}

// WriteFrames encodes seq as a looping GIF at path.
// Delays come from seq.Delays, or from seq.FPS when the sequence was read from a video.
func (Codec) WriteFrames(path string, seq *model.Sequence) error {
	if seq == nil || len(seq.Frames) == 0 {
		return errors.Wrapf(ErrNoFrames, "%s", path)
	}

	out := &gif.GIF{}
	for i, frame := range seq.Frames {
		bounds := frame.Bounds()
		paletted := image.NewPaletted(bounds, palette.Plan9)
		draw.FloydSteinberg.Draw(paletted, bounds, frame, bounds.Min)

		out.Image = append(out.Image, paletted)
		out.Delay = append(out.Delay, frameDelay(seq, i))
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "unable to create %s", path)
	}
	defer f.Close()

	err = gif.EncodeAll(f, out)
	if err != nil {
		return errors.Wrapf(err, "unable to encode %s", path)
	}

	return nil
}

func frameDelay(seq *model.Sequence, i int) int {
	if i < len(seq.Delays) && seq.Delays[i] > 0 {
		return seq.Delays[i]
	}
	if seq.FPS > 0 {
		return max(1, int(math.Round(100/seq.FPS)))
	}
	return DefaultDelay
}

func cloneNRGBA(src *image.NRGBA) *image.NRGBA {
	dst := image.NewNRGBA(src.Bounds())
	copy(dst.Pix, src.Pix)
	return dst
}

var _ pipeline.SequenceCodec = Codec{}
