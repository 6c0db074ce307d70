package pipeline

import (
	"context"
	"image"

	"github.com/pkg/errors"

	"github.com/askiada/go-photopipe/pkg/pipeline/model"
)

// Stage is one transformation of the pipeline.
// Run receives exactly len(InputIndex()) images, picked from the artifacts produced so far.
// Negative indexes count from the most recent artifact, 0 is the decoded input.
// Run must not mutate the stage, instances are shared between workers.
type Stage interface {
	Name() model.StageName
	InputIndex() []int
	Run(ctx context.Context, cfg model.Config, inputs ...image.Image) (image.Image, error)
}

// Constructor builds a stage. It runs once per stage name and registry.
type Constructor func(cfg model.Config) (Stage, error)

// StageFunc adapts a function into a Stage.
type StageFunc struct {
	name  model.StageName
	index []int
	fn    func(ctx context.Context, cfg model.Config, inputs ...image.Image) (image.Image, error)
}

// NewStageFunc creates a stage named name, reading the artifacts at index.
func NewStageFunc(name model.StageName, index []int, fn func(ctx context.Context, cfg model.Config, inputs ...image.Image) (image.Image, error)) *StageFunc {
	return &StageFunc{name: name, index: index, fn: fn}
}

func (s *StageFunc) Name() model.StageName {
	return s.name
}

func (s *StageFunc) InputIndex() []int {
	return append([]int{}, s.index...)
}

func (s *StageFunc) Run(ctx context.Context, cfg model.Config, inputs ...image.Image) (image.Image, error) {
	if len(inputs) != len(s.index) {
		return nil, errors.Wrapf(ErrStageArity, "%s expects %d inputs, got %d", s.name, len(s.index), len(inputs))
	}
	return s.fn(ctx, cfg, inputs...)
}

var _ Stage = (*StageFunc)(nil)

// resolveIndex turns a possibly negative index into a position in a list of total artifacts.
func resolveIndex(total, idx int) (int, error) {
	pos := idx
	if idx < 0 {
		pos = total + idx
	}
	if pos < 0 || pos >= total {
		return 0, errors.Wrapf(ErrInputIndex, "index %d over %d artifacts", idx, total)
	}
	return pos, nil
}

// gather picks the inputs of a stage from the artifacts.
func gather(artifacts []image.Image, index []int) ([]image.Image, error) {
	inputs := make([]image.Image, 0, len(index))
	for _, idx := range index {
		pos, err := resolveIndex(len(artifacts), idx)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, artifacts[pos])
	}
	return inputs, nil
}
