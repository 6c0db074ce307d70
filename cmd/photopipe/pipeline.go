package main

import (
	"github.com/spf13/cobra"

	"github.com/askiada/go-photopipe/internal/imageio"
	"github.com/askiada/go-photopipe/internal/logging"
	"github.com/askiada/go-photopipe/internal/transform"
	"github.com/askiada/go-photopipe/pkg/pipeline"
	"github.com/askiada/go-photopipe/pkg/pipeline/drawer"
	"github.com/askiada/go-photopipe/pkg/pipeline/measure"
	"github.com/askiada/go-photopipe/pkg/pipeline/model"
)

// newPipeline wires the gocv stages and codecs. When graphFile is set, stage durations
// are measured and the stage graph is drawn there after each run.
func newPipeline(cmd *cobra.Command, cfg model.Config, debug bool, graphFile string) (*pipeline.Pipeline, error) {
	log := logging.New(cmd.OutOrStdout(), debug)

	opts := []pipeline.Option{
		pipeline.WithLogger(log),
		pipeline.WithSequenceCodec(imageio.NewSequences()),
	}
	if graphFile != "" {
		msr := measure.NewDefaultMeasure()
		opts = append(opts, pipeline.WithPipelineOptions(
			measure.PipelineMeasure(msr),
			drawer.PipelineDrawer(drawer.NewDOTDrawer(graphFile), msr),
		))
	}

	return pipeline.New(pipeline.NewRegistry(cfg, transform.Constructors()), imageio.NewCodec(), opts...)
}
