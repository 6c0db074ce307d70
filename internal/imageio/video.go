package imageio

import (
	"image"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/askiada/go-photopipe/internal/gifio"
	"github.com/askiada/go-photopipe/pkg/pipeline"
	"github.com/askiada/go-photopipe/pkg/pipeline/model"
)

// DefaultFPS is used to write videos built from sequences without timing.
const DefaultFPS = 25.0

// Video reads and writes video files frame by frame.
type Video struct {
	codecs map[string]string
}

// NewVideo creates a video codec. MP4 and MOV files are written with mp4v, the others with MJPG.
func NewVideo() *Video {
	return &Video{codecs: map[string]string{
		".mp4": "mp4v",
		".mov": "mp4v",
		".avi": "MJPG",
		".mkv": "MJPG",
	}}
}

// ReadFrames decodes every frame of the video at path.
func (v *Video) ReadFrames(path string) (*model.Sequence, error) {
	vc, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, errors.Wrapf(pipeline.ErrInvalidImage, "%s: %v", path, err)
	}
	defer vc.Close()

	seq := &model.Sequence{FPS: vc.Get(gocv.VideoCaptureFPS)}
	mat := gocv.NewMat()
	defer mat.Close()
	for vc.Read(&mat) {
		if mat.Empty() {
			break
		}
		frame, err := FromMat(mat)
		if err != nil {
			return nil, errors.Wrapf(err, "frame %d of %s", len(seq.Frames), path)
		}
		seq.Frames = append(seq.Frames, frame)
	}

	if len(seq.Frames) == 0 {
		return nil, errors.Wrapf(pipeline.ErrInvalidImage, "%s has no frame", path)
	}

	return seq, nil
}

// WriteFrames encodes seq as a video at path. Frames are resized to the size of the first one.
func (v *Video) WriteFrames(path string, seq *model.Sequence) error {
	if seq == nil || len(seq.Frames) == 0 {
		return errors.Wrapf(gifio.ErrNoFrames, "%s", path)
	}
	fourcc, ok := v.codecs[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return errors.Wrapf(pipeline.ErrUnsupportedExtension, "%s", path)
	}

	fps := seq.FPS
	if fps <= 0 {
		fps = DefaultFPS
	}
	size := seq.Frames[0].Bounds().Size()

	vw, err := gocv.VideoWriterFile(path, fourcc, fps, size.X, size.Y, true)
	if err != nil {
		return errors.Wrapf(err, "unable to open video writer %s", path)
	}
	defer vw.Close()

	for i, frame := range seq.Frames {
		err := v.writeFrame(vw, frame, size)
		if err != nil {
			return errors.Wrapf(err, "frame %d of %s", i, path)
		}
	}

	return nil
}

func (v *Video) writeFrame(vw *gocv.VideoWriter, frame image.Image, size image.Point) error {
	mat, err := ToMat(frame)
	if err != nil {
		return err
	}
	defer mat.Close()

	if mat.Cols() != size.X || mat.Rows() != size.Y {
		resized := gocv.NewMat()
		defer resized.Close()
		gocv.Resize(mat, &resized, size, 0, 0, gocv.InterpolationLinear)
		return vw.Write(resized)
	}

	return vw.Write(mat)
}

// Sequences picks the GIF or the video codec from the file extension.
type Sequences struct {
	gif   pipeline.SequenceCodec
	video pipeline.SequenceCodec
}

func NewSequences() *Sequences {
	return &Sequences{gif: gifio.Codec{}, video: NewVideo()}
}

func (s *Sequences) pick(path string) (pipeline.SequenceCodec, error) {
	switch {
	case strings.EqualFold(filepath.Ext(path), model.GIFExtension):
		return s.gif, nil
	case model.IsVideoFile(path):
		return s.video, nil
	default:
		return nil, errors.Wrapf(pipeline.ErrUnsupportedExtension, "%s", path)
	}
}

func (s *Sequences) ReadFrames(path string) (*model.Sequence, error) {
	codec, err := s.pick(path)
	if err != nil {
		return nil, err
	}
	return codec.ReadFrames(path)
}

func (s *Sequences) WriteFrames(path string, seq *model.Sequence) error {
	codec, err := s.pick(path)
	if err != nil {
		return err
	}
	return codec.WriteFrames(path, seq)
}

var (
	_ pipeline.SequenceCodec = (*Video)(nil)
	_ pipeline.SequenceCodec = (*Sequences)(nil)
)
