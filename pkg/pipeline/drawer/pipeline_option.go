package drawer

import (
	"time"

	"github.com/pkg/errors"

	"github.com/askiada/go-photopipe/pkg/pipeline/measure"
	"github.com/askiada/go-photopipe/pkg/pipeline/model"
)

type pipelineDrawer struct {
	Drawer
	m measure.Measure
}

func (pd *pipelineDrawer) New() error {
	err := pd.AddStep(model.InputStage.Name.String())
	if err != nil {
		return errors.Wrap(err, "unable to add input step to drawer")
	}

	return nil
}

func (pd *pipelineDrawer) PrepareStage(parents []*model.StageInfo, stage *model.StageInfo) error {
	err := pd.AddStep(stage.Name.String())
	if err != nil {
		return err
	}

	for _, parent := range parents {
		err := pd.AddLink(parent.Name.String(), stage.Name.String())
		if err != nil {
			return err
		}
	}

	return nil
}

func (pd *pipelineDrawer) OnStageOutput(_ *model.StageInfo, _ time.Duration) error {
	return nil
}

func (pd *pipelineDrawer) AfterRun(totalDuration time.Duration) error {
	return pd.SetTotalTime(totalDuration)
}

func (pd *pipelineDrawer) Finish() error {
	if pd.m != nil {
		err := pd.AddMeasure(pd.m)
		if err != nil {
			return errors.Wrap(err, "unable to add measure")
		}
	}

	err := pd.Draw()
	if err != nil {
		return errors.Wrap(err, "unable to draw pipeline")
	}

	return nil
}

// PipelineDrawer draws the stages met during a run, annotated with measure when not nil.
func PipelineDrawer(drawer Drawer, measure measure.Measure) model.PipelineOption {
	return &pipelineDrawer{drawer, measure}
}
