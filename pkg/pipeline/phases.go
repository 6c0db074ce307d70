package pipeline

import (
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/askiada/go-photopipe/pkg/pipeline/model"
)

// Plan is the ordered list of stages of a run and the range of it to execute.
type Plan struct {
	Phases []model.StageName
	Start  int
	End    int
}

// Done returns the phases skipped because they were computed by an earlier run.
func (p Plan) Done() []model.StageName {
	return p.Phases[:p.Start]
}

// Pending returns the phases to execute.
func (p Plan) Pending() []model.StageName {
	return p.Phases[p.Start:p.End]
}

type planBuilder struct {
	phases []model.StageName
	steps  *model.StepRange
}

// prepend adds a stage before the others and moves the range so it still covers the same stages.
// A range starting at the first stage keeps starting there, so the new stage runs too.
func (b *planBuilder) prepend(name model.StageName) {
	b.phases = append([]model.StageName{name}, b.phases...)
	if b.steps == nil {
		return
	}
	if b.steps.Start != 0 {
		b.steps.Start++
	}
	b.steps.End++
}

// append adds a stage after the others. The range only grows when it reached the tail.
func (b *planBuilder) append(name model.StageName) {
	b.phases = append(b.phases, name)
	if b.steps != nil && b.steps.End == len(b.phases)-1 {
		b.steps.End++
	}
}

// SelectPhases returns the stages to run for cfg.
// Scaling options add stages around the core ones and the step range is shifted to keep
// pointing at the same core stages. Without scaling option or step range, a still image
// input must be 512 x 512 x 3 unless the size check is disabled.
func SelectPhases(cfg model.Config, shapes ShapeReader, log logrus.FieldLogger) (Plan, error) {
	b := &planBuilder{phases: model.CoreStages()}
	if cfg.Steps != nil {
		steps := *cfg.Steps
		b.steps = &steps
	}

	switch {
	case cfg.Overlay != nil:
		b.prepend(model.StageResize)
		b.prepend(model.StageCrop)
		b.append(model.StageOverlay)
	case cfg.AutoResize:
		b.prepend(model.StageResize)
	case cfg.AutoResizeCrop:
		b.prepend(model.StageResizeCrop)
	case cfg.AutoRescale:
		b.prepend(model.StageRescale)
	case cfg.Steps == nil && isStillImage(cfg.Input):
		err := checkShape(cfg, shapes, log)
		if err != nil {
			return Plan{}, err
		}
	}

	if cfg.ColorTransfer {
		b.append(model.StageColorTransfer)
	}

	plan := Plan{Phases: b.phases, Start: 0, End: len(b.phases)}
	if b.steps != nil {
		plan.Start, plan.End = b.steps.Start, b.steps.End
	}
	if plan.Start < 0 || plan.End > len(plan.Phases) || plan.Start > plan.End {
		return Plan{}, errors.Errorf("step range [%d, %d) out of %d phases", plan.Start, plan.End, len(plan.Phases))
	}

	return plan, nil
}

func isStillImage(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular() && model.IsImageFile(path)
}

func checkShape(cfg model.Config, shapes ShapeReader, log logrus.FieldLogger) error {
	if cfg.IgnoreSize {
		log.Warn("Image size requirements unchecked")
		return nil
	}
	shape, err := shapes.Shape(cfg.Input)
	if err != nil {
		return errors.Wrapf(err, "unable to check shape of %s", cfg.Input)
	}
	if !shape.IsCanonical() {
		return errors.Wrapf(ErrImageShape, "%s is %dx%dx%d", cfg.Input, shape.Width, shape.Height, shape.Channels)
	}
	return nil
}
