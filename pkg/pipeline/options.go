package pipeline

import (
	"github.com/sirupsen/logrus"

	"github.com/askiada/go-photopipe/pkg/pipeline/model"
)

type Option func(p *Pipeline)

// WithLogger sets the logger used by every process.
func WithLogger(log logrus.FieldLogger) Option {
	return func(p *Pipeline) {
		p.log = log
	}
}

// WithSequenceCodec enables GIF and video inputs.
func WithSequenceCodec(sequences SequenceCodec) Option {
	return func(p *Pipeline) {
		p.sequences = sequences
	}
}

// WithPipelineOptions adds options observing stage execution, like measure or drawer.
func WithPipelineOptions(opts ...model.PipelineOption) Option {
	return func(p *Pipeline) {
		p.opts = append(p.opts, opts...)
	}
}

// WithTempDir sets where sequence processes create their frame directories.
func WithTempDir(dir string) Option {
	return func(p *Pipeline) {
		p.tempDir = dir
	}
}
