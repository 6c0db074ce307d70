package model

import "time"

// PipelineOption defines the interface for pipeline options.
// Hooks can be called from several workers at once and must be safe for concurrent use.
type PipelineOption interface {
	// New initialises the pipeline option.
	New() error
	// PrepareStage runs for every stage of a plan before the stage executes.
	PrepareStage(parents []*StageInfo, stage *StageInfo) error
	// OnStageOutput runs everytime a stage produces an artifact.
	OnStageOutput(stage *StageInfo, computationDuration time.Duration) error
	// AfterRun runs when the top level process is done.
	AfterRun(totalDuration time.Duration) error
	// Finish runs after the pipeline is finished.
	Finish() error
}
