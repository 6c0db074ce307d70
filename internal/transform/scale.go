package transform

import (
	"image"
	"image/color"
	"math"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/askiada/go-photopipe/pkg/pipeline/model"
)

var padding = color.RGBA{R: 255, G: 255, B: 255, A: 0}

// letterbox returns where a width x height image lands once scaled to fit in a size x size square.
func letterbox(width, height, size int) image.Rectangle {
	scale := float64(size) / float64(max(width, height))
	w := min(size, max(1, int(math.Round(float64(width)*scale))))
	h := min(size, max(1, int(math.Round(float64(height)*scale))))
	left, top := (size-w)/2, (size-h)/2
	return image.Rect(left, top, left+w, top+h)
}

// coverCrop returns the size a width x height image is scaled to so it covers a size x size
// square, and the centered square to keep.
func coverCrop(width, height, size int) (image.Point, image.Rectangle) {
	short := min(width, height)
	w := (width*size + short - 1) / short
	h := (height*size + short - 1) / short
	left, top := (w-size)/2, (h-size)/2
	return image.Pt(w, h), image.Rect(left, top, left+size, top+size)
}

// resize fits the image in the canonical square, padding with white.
func resize(_ model.Config, inputs []gocv.Mat) (gocv.Mat, error) {
	src := inputs[0]
	area := letterbox(src.Cols(), src.Rows(), model.CanonicalSize)

	scaled := gocv.NewMat()
	defer scaled.Close()
	gocv.Resize(src, &scaled, area.Size(), 0, 0, gocv.InterpolationArea)

	dst := gocv.NewMat()
	gocv.CopyMakeBorder(scaled, &dst,
		area.Min.Y, model.CanonicalSize-area.Max.Y,
		area.Min.X, model.CanonicalSize-area.Max.X,
		gocv.BorderConstant, padding)
	return dst, nil
}

// resizeCrop scales the image to cover the canonical square and keeps its center.
func resizeCrop(_ model.Config, inputs []gocv.Mat) (gocv.Mat, error) {
	src := inputs[0]
	size, keep := coverCrop(src.Cols(), src.Rows(), model.CanonicalSize)

	scaled := gocv.NewMat()
	defer scaled.Close()
	gocv.Resize(src, &scaled, size, 0, 0, gocv.InterpolationArea)

	region := scaled.Region(keep)
	defer region.Close()
	return region.Clone(), nil
}

// rescale stretches the image to the canonical square.
func rescale(_ model.Config, inputs []gocv.Mat) (gocv.Mat, error) {
	dst := gocv.NewMat()
	gocv.Resize(inputs[0], &dst, image.Pt(model.CanonicalSize, model.CanonicalSize), 0, 0, gocv.InterpolationLinear)
	return dst, nil
}

func overlayRect(cfg model.Config, src gocv.Mat) (image.Rectangle, error) {
	if cfg.Overlay == nil {
		return image.Rectangle{}, errors.Wrap(ErrRegion, "no overlay region")
	}
	rect := cfg.Overlay.Rect()
	bounds := image.Rect(0, 0, src.Cols(), src.Rows())
	if rect.Empty() || !rect.In(bounds) {
		return image.Rectangle{}, errors.Wrapf(ErrRegion, "%v not in %v", rect, bounds)
	}
	return rect, nil
}

// crop keeps the overlay region.
func crop(cfg model.Config, inputs []gocv.Mat) (gocv.Mat, error) {
	rect, err := overlayRect(cfg, inputs[0])
	if err != nil {
		return gocv.NewMat(), err
	}

	region := inputs[0].Region(rect)
	defer region.Close()
	return region.Clone(), nil
}

// overlay pastes the processed region back into the original image.
// The processed image is the letterboxed region, the padding is dropped before scaling it back.
func overlay(cfg model.Config, inputs []gocv.Mat) (gocv.Mat, error) {
	original, processed := inputs[0], inputs[1]
	rect, err := overlayRect(cfg, original)
	if err != nil {
		return gocv.NewMat(), err
	}

	inner := processed.Region(letterbox(rect.Dx(), rect.Dy(), processed.Cols()))
	defer inner.Close()

	scaled := gocv.NewMat()
	defer scaled.Close()
	gocv.Resize(inner, &scaled, rect.Size(), 0, 0, gocv.InterpolationLinear)

	dst := original.Clone()
	target := dst.Region(rect)
	defer target.Close()
	scaled.CopyTo(&target)

	return dst, nil
}
