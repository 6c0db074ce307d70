// Package transform implements the pipeline stages with OpenCV.
//
// Every stage converts its inputs to BGR matrices, applies one operation and converts
// the result back. Stages keep no state between calls and can be shared between workers.
package transform

import (
	"context"
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/askiada/go-photopipe/internal/imageio"
	"github.com/askiada/go-photopipe/pkg/pipeline"
	"github.com/askiada/go-photopipe/pkg/pipeline/model"
)

var ErrRegion = errors.New("overlay region out of image")

type matFn func(cfg model.Config, inputs []gocv.Mat) (gocv.Mat, error)

// Constructors returns the stage table used to build a registry.
func Constructors() map[model.StageName]pipeline.Constructor {
	return map[model.StageName]pipeline.Constructor{
		model.StageDenoise:       stage(model.StageDenoise, last, denoise),
		model.StageNormalize:     stage(model.StageNormalize, last, normalize),
		model.StageSharpen:       stage(model.StageSharpen, last, sharpen),
		model.StageEdgeDetect:    stage(model.StageEdgeDetect, last, edgeDetect),
		model.StageStylize:       stage(model.StageStylize, []int{-2, -1}, stylize),
		model.StageFinish:        stage(model.StageFinish, last, finish),
		model.StageResize:        stage(model.StageResize, last, resize),
		model.StageResizeCrop:    stage(model.StageResizeCrop, last, resizeCrop),
		model.StageRescale:       stage(model.StageRescale, last, rescale),
		model.StageCrop:          stage(model.StageCrop, last, crop),
		model.StageOverlay:       stage(model.StageOverlay, []int{0, -1}, overlay),
		model.StageColorTransfer: stage(model.StageColorTransfer, []int{0, -1}, colorTransfer),
	}
}

var last = []int{-1}

func stage(name model.StageName, index []int, fn matFn) pipeline.Constructor {
	return func(model.Config) (pipeline.Stage, error) {
		return pipeline.NewStageFunc(name, index, run(fn)), nil
	}
}

func run(fn matFn) func(context.Context, model.Config, ...image.Image) (image.Image, error) {
	return func(ctx context.Context, cfg model.Config, inputs ...image.Image) (image.Image, error) {
		mats := make([]gocv.Mat, 0, len(inputs))
		defer func() {
			for _, mat := range mats {
				mat.Close()
			}
		}()
		for _, in := range inputs {
			mat, err := imageio.ToMat(in)
			if err != nil {
				return nil, err
			}
			mats = append(mats, mat)
		}

		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "stage interrupted")
		}

		out, err := fn(cfg, mats)
		defer out.Close()
		if err != nil {
			return nil, err
		}

		return imageio.FromMat(out)
	}
}
