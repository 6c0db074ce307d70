package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/askiada/go-photopipe/pkg/pipeline/model"
)

// Pipeline holds what processes share during a run: the stage registry, the codecs,
// the logger and the options observing stage execution.
type Pipeline struct {
	registry  *Registry
	codec     Codec
	sequences SequenceCodec
	log       logrus.FieldLogger
	opts      []model.PipelineOption
	tempDir   string
}

// New creates a new pipeline.
func New(registry *Registry, codec Codec, options ...Option) (*Pipeline, error) {
	if registry == nil {
		return nil, ErrRegistryMustBeSet
	}
	if codec == nil {
		return nil, ErrCodecMustBeSet
	}

	pipe := &Pipeline{
		registry: registry,
		codec:    codec,
		log:      logrus.StandardLogger(),
	}
	for _, option := range options {
		option(pipe)
	}

	for _, opt := range pipe.opts {
		err := opt.New()
		if err != nil {
			return nil, errors.Wrap(err, "unable to apply pipeline option")
		}
	}

	return pipe, nil
}

func (p *Pipeline) withLogger(log logrus.FieldLogger) *Pipeline {
	cp := *p
	cp.log = log
	return &cp
}

// Run selects the process matching cfg and runs it.
func (p *Pipeline) Run(ctx context.Context, cfg model.Config) error {
	start := time.Now()
	run := p.withLogger(p.log.WithField("run_id", uuid.NewString()))

	process, err := run.Select(cfg)
	if err != nil {
		return err
	}

	err = process.Run(ctx)
	if err != nil {
		return err
	}

	total := time.Since(start)
	run.log.WithField("elapsed", total.Round(time.Millisecond).String()).Info("Done")

	return p.finishRun(total)
}

func (p *Pipeline) finishRun(total time.Duration) error {
	for _, opt := range p.opts {
		err := opt.AfterRun(total)
		if err != nil {
			return errors.Wrap(err, "unable to run after run function")
		}
	}
	for _, opt := range p.opts {
		err := opt.Finish()
		if err != nil {
			return errors.Wrap(err, "unable to finish pipeline option")
		}
	}

	return nil
}

// Select returns the top level process for cfg: a folder process for a directory,
// a multiple process when the input must be processed several times, the process
// matching the input file type otherwise.
func (p *Pipeline) Select(cfg model.Config) (Process, error) {
	info, err := os.Stat(cfg.Input)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read input %s", cfg.Input)
	}

	if info.IsDir() {
		return p.NewFolderProcess(cfg), nil
	}

	if cfg.Runs > 1 {
		return p.NewMultipleProcess(cfg, repeatItems(cfg.Input, cfg.Output, cfg.Runs)), nil
	}

	return p.NewProcess(cfg)
}

// NewProcess returns the process handling the input file type of cfg.
func (p *Pipeline) NewProcess(cfg model.Config) (Process, error) {
	switch {
	case model.IsSequenceFile(cfg.Input):
		return p.NewSequenceProcess(cfg), nil
	case model.IsImageFile(cfg.Input):
		return p.NewImageProcess(cfg), nil
	default:
		return nil, errors.Wrapf(ErrUnsupportedInput, "%s", cfg.Input)
	}
}

func repeatItems(input, output string, runs int) []model.Item {
	ext := filepath.Ext(output)
	stem := strings.TrimSuffix(output, ext)
	items := make([]model.Item, runs)
	for i := range items {
		items[i] = model.Item{
			Input:  input,
			Output: fmt.Sprintf("%s%d%s", stem, i, ext),
		}
	}
	return items
}

func (p *Pipeline) prepareStage(parents []*model.StageInfo, stage *model.StageInfo) error {
	for _, opt := range p.opts {
		err := opt.PrepareStage(parents, stage)
		if err != nil {
			return errors.Wrap(err, "unable to run prepare stage function")
		}
	}
	return nil
}

func (p *Pipeline) onStageOutput(stage *model.StageInfo, elapsed time.Duration) error {
	for _, opt := range p.opts {
		err := opt.OnStageOutput(stage, elapsed)
		if err != nil {
			return errors.Wrap(err, "unable to run stage output function")
		}
	}
	return nil
}

// ensureDir creates the parent directory of path.
func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return errors.Wrapf(os.MkdirAll(dir, 0o755), "unable to create directory %s", dir)
}
