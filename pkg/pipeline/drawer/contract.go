package drawer

import (
	"time"

	"github.com/askiada/go-photopipe/pkg/pipeline/measure"
)

// Drawer is an interface that defines the methods for drawing the stage graph of a pipeline.
type Drawer interface {
	// AddStep adds a stage to the drawer. Adding a stage twice is not an error.
	AddStep(stepname string) error
	// AddLink adds a link from a stage to a stage reading its output.
	AddLink(parentStepName, childrenStepName string) error
	// Draw creates a file with the pipeline graph.
	Draw() error
	// SetTotalTime sets the duration of the whole run.
	SetTotalTime(totalTime time.Duration) error
	// AddMeasure adds a measure to the pipeline drawer.
	AddMeasure(measure measure.Measure) error
}
