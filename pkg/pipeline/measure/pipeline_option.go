package measure

import (
	"time"

	"github.com/askiada/go-photopipe/pkg/pipeline/model"
)

// RunMetricName is the metric holding the duration of whole runs.
const RunMetricName = "run"

type pipelineMeasure struct {
	Measure
}

func (pm *pipelineMeasure) New() error {
	pm.AddMetric(RunMetricName)
	return nil
}

func (pm *pipelineMeasure) PrepareStage(_ []*model.StageInfo, stage *model.StageInfo) error {
	pm.AddMetric(string(stage.Name))
	return nil
}

func (pm *pipelineMeasure) OnStageOutput(stage *model.StageInfo, computationDuration time.Duration) error {
	pm.AddMetric(string(stage.Name)).AddDuration(computationDuration)
	return nil
}

func (pm *pipelineMeasure) AfterRun(totalDuration time.Duration) error {
	mt := pm.AddMetric(RunMetricName)
	mt.AddDuration(totalDuration)
	mt.SetTotalDuration(totalDuration)
	return nil
}

func (pm *pipelineMeasure) Finish() error {
	return nil
}

// PipelineMeasure records stage durations into measure.
func PipelineMeasure(measure Measure) model.PipelineOption {
	return &pipelineMeasure{measure}
}
