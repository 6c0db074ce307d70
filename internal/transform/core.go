package transform

import (
	"image"

	"gocv.io/x/gocv"

	"github.com/askiada/go-photopipe/pkg/pipeline/model"
)

const (
	denoiseKernel  = 3
	sharpenSigma   = 3.0
	sharpenAmount  = 1.5
	cannyLow       = 50
	cannyHigh      = 150
	bilateralSize  = 9
	bilateralSigma = 75.0
)

func denoise(_ model.Config, inputs []gocv.Mat) (gocv.Mat, error) {
	dst := gocv.NewMat()
	gocv.MedianBlur(inputs[0], &dst, denoiseKernel)
	return dst, nil
}

// normalize stretches every channel to the full 0-255 range.
func normalize(_ model.Config, inputs []gocv.Mat) (gocv.Mat, error) {
	dst := gocv.NewMat()
	gocv.Normalize(inputs[0], &dst, 0, 255, gocv.NormMinMax)
	return dst, nil
}

// sharpen applies an unsharp mask.
func sharpen(_ model.Config, inputs []gocv.Mat) (gocv.Mat, error) {
	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(inputs[0], &blurred, image.Pt(0, 0), sharpenSigma, sharpenSigma, gocv.BorderDefault)

	dst := gocv.NewMat()
	gocv.AddWeighted(inputs[0], sharpenAmount, blurred, 1-sharpenAmount, 0, &dst)
	return dst, nil
}

// edgeDetect returns the Canny edges of the image as a 3 channel image.
func edgeDetect(_ model.Config, inputs []gocv.Mat) (gocv.Mat, error) {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(inputs[0], &gray, gocv.ColorBGRToGray)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(gray, &edges, cannyLow, cannyHigh)

	dst := gocv.NewMat()
	gocv.CvtColor(edges, &dst, gocv.ColorGrayToBGR)
	return dst, nil
}

// stylize draws the edges found on the sharpened image over it.
func stylize(_ model.Config, inputs []gocv.Mat) (gocv.Mat, error) {
	dst := gocv.NewMat()
	gocv.Subtract(inputs[0], inputs[1], &dst)
	return dst, nil
}

// finish smooths flat areas and keeps the edges.
func finish(_ model.Config, inputs []gocv.Mat) (gocv.Mat, error) {
	dst := gocv.NewMat()
	gocv.BilateralFilter(inputs[0], &dst, bilateralSize, bilateralSigma, bilateralSigma)
	return dst, nil
}
