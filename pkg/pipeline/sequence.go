package pipeline

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/askiada/go-photopipe/pkg/pipeline/model"
)

// SequenceProcess processes an animated input frame by frame and assembles the result.
// Frames are stored in a temporary directory that is removed whatever happens.
type SequenceProcess struct {
	pipe *Pipeline
	cfg  model.Config
	log  logrus.FieldLogger
}

// NewSequenceProcess creates a process for the GIF or video at cfg.Input.
func (p *Pipeline) NewSequenceProcess(cfg model.Config) *SequenceProcess {
	return &SequenceProcess{
		pipe: p,
		cfg:  cfg.Clone(),
		log:  p.log.WithFields(logrus.Fields{"process": "sequence", "input": cfg.Input}),
	}
}

// Run processes every frame and writes the sequence to cfg.Output.
func (sp *SequenceProcess) Run(ctx context.Context) error {
	if sp.pipe.sequences == nil {
		return errors.Wrapf(ErrNoSequenceCodec, "%s", sp.cfg.Input)
	}

	start := time.Now()
	sp.log.Info("Executing sequence process")

	tmpDir, err := os.MkdirTemp(sp.pipe.tempDir, "photopipe-frames-")
	if err != nil {
		return errors.Wrap(err, "unable to create temporary directory")
	}
	defer func() {
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			sp.log.WithError(rmErr).Warn("Unable to remove temporary directory")
		}
	}()
	sp.log.WithField("dir", tmpDir).Debug("Temporary directory created")

	seq, items, err := sp.setup(tmpDir)
	if err != nil {
		return err
	}

	cfg := sp.cfg.Clone()
	cfg.AlteredKeyed = true
	err = sp.pipe.NewMultipleProcess(cfg, items).Run(ctx)
	if err != nil {
		return errors.Wrapf(err, "sequence %s", sp.cfg.Input)
	}

	frames := make([]image.Image, 0, len(items))
	for _, item := range items {
		frame, err := sp.pipe.codec.Read(item.Output)
		if err != nil {
			return errors.Wrapf(err, "unable to read processed frame %s", item.Output)
		}
		frames = append(frames, frame)
	}

	err = ensureDir(sp.cfg.Output)
	if err != nil {
		return err
	}
	err = sp.pipe.sequences.WriteFrames(sp.cfg.Output, &model.Sequence{
		Frames: frames,
		Delays: seq.Delays,
		FPS:    seq.FPS,
	})
	if err != nil {
		return errors.Wrapf(err, "unable to write sequence %s", sp.cfg.Output)
	}

	sp.log.WithFields(logrus.Fields{
		"output":  sp.cfg.Output,
		"elapsed": time.Since(start).Round(time.Millisecond).String(),
	}).Info("Sequence created")

	return nil
}

// setup splits the input into numbered frame files.
func (sp *SequenceProcess) setup(tmpDir string) (*model.Sequence, []model.Item, error) {
	seq, err := sp.pipe.sequences.ReadFrames(sp.cfg.Input)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "unable to read frames of %s", sp.cfg.Input)
	}
	sp.log.WithField("frames", len(seq.Frames)).Info("Sequence frames to process")

	items := make([]model.Item, 0, len(seq.Frames))
	for i, frame := range seq.Frames {
		item := model.Item{
			Input:  filepath.Join(tmpDir, fmt.Sprintf("input_%d.png", i)),
			Output: filepath.Join(tmpDir, fmt.Sprintf("output_%d.png", i)),
		}
		err := sp.pipe.codec.Write(frame, item.Input)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "unable to write frame %d", i)
		}
		items = append(items, item)
	}

	return seq, items, nil
}
