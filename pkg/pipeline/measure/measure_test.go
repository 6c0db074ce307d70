package measure_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-photopipe/pkg/pipeline/measure"
	"github.com/askiada/go-photopipe/pkg/pipeline/model"
)

func TestAddMetricIsIdempotent(t *testing.T) {
	t.Parallel()

	m := measure.NewDefaultMeasure()
	first := m.AddMetric("Denoise")
	first.AddDuration(time.Second)
	second := m.AddMetric("Denoise")
	assert.Same(t, first, second)
	assert.Equal(t, int64(1), second.Count())
}

func TestAVGDuration(t *testing.T) {
	t.Parallel()

	m := measure.NewDefaultMeasure()
	mt := m.AddMetric("Sharpen")
	assert.Zero(t, mt.AVGDuration())
	mt.AddDuration(2 * time.Second)
	mt.AddDuration(4 * time.Second)
	assert.Equal(t, 3*time.Second, mt.AVGDuration())
}

func TestPipelineMeasureConcurrent(t *testing.T) {
	t.Parallel()

	m := measure.NewDefaultMeasure()
	opt := measure.PipelineMeasure(m)
	require.NoError(t, opt.New())

	stage := &model.StageInfo{Name: model.StageDenoise}
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, opt.PrepareStage(nil, stage))
			assert.NoError(t, opt.OnStageOutput(stage, time.Millisecond))
		}()
	}
	wg.Wait()

	require.NoError(t, opt.AfterRun(time.Second))
	require.NoError(t, opt.Finish())

	assert.Equal(t, int64(20), m.GetMetric(string(model.StageDenoise)).Count())
	assert.Equal(t, time.Second, m.GetMetric(measure.RunMetricName).GetTotalDuration())
	assert.Len(t, m.AllMetrics(), 2)
}
