// Package imageio reads and writes images and videos with OpenCV.
package imageio

import (
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/askiada/go-photopipe/pkg/pipeline"
	"github.com/askiada/go-photopipe/pkg/pipeline/model"
)

// Codec reads and writes still images.
type Codec struct{}

func NewCodec() *Codec {
	return &Codec{}
}

// Read decodes the image at path as a 3 channel image.
func (c *Codec) Read(path string) (image.Image, error) {
	if !model.IsImageFile(path) {
		return nil, errors.Wrapf(pipeline.ErrUnsupportedExtension, "%s", path)
	}

	mat := gocv.IMRead(path, gocv.IMReadColor)
	defer mat.Close()
	if mat.Empty() {
		return nil, errors.Wrapf(pipeline.ErrInvalidImage, "%s", path)
	}

	return FromMat(mat)
}

// Write encodes img at path, the format is picked from the extension.
func (c *Codec) Write(img image.Image, path string) error {
	if !model.IsImageFile(path) {
		return errors.Wrapf(pipeline.ErrUnsupportedExtension, "%s", path)
	}

	mat, err := ToMat(img)
	if err != nil {
		return err
	}
	defer mat.Close()

	if !gocv.IMWrite(path, mat) {
		return errors.Errorf("failed to save image: %s", path)
	}

	return nil
}

// Shape returns the decoded shape of the image at path, alpha channel included.
func (c *Codec) Shape(path string) (model.Shape, error) {
	if !model.IsImageFile(path) {
		return model.Shape{}, errors.Wrapf(pipeline.ErrUnsupportedExtension, "%s", path)
	}

	mat := gocv.IMRead(path, gocv.IMReadUnchanged)
	defer mat.Close()
	if mat.Empty() {
		return model.Shape{}, errors.Wrapf(pipeline.ErrInvalidImage, "%s", path)
	}

	return model.Shape{Width: mat.Cols(), Height: mat.Rows(), Channels: mat.Channels()}, nil
}

// ToMat converts img into a BGR matrix. The caller closes it.
func ToMat(img image.Image) (gocv.Mat, error) {
	if img == nil || img.Bounds().Empty() {
		return gocv.NewMat(), errors.Wrap(pipeline.ErrInvalidImage, "empty image")
	}
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return gocv.NewMat(), errors.Wrap(err, "unable to convert image")
	}
	return mat, nil
}

// FromMat copies mat into an image.
func FromMat(mat gocv.Mat) (image.Image, error) {
	if mat.Empty() {
		return nil, errors.Wrap(pipeline.ErrInvalidImage, "empty matrix")
	}
	img, err := mat.ToImage()
	if err != nil {
		return nil, errors.Wrap(err, "unable to convert matrix")
	}
	return img, nil
}

var _ pipeline.Codec = (*Codec)(nil)
