package pipeline

import (
	"image"

	"github.com/askiada/go-photopipe/pkg/pipeline/model"
)

// ShapeReader reads the decoded shape of an image file without keeping it.
type ShapeReader interface {
	Shape(path string) (model.Shape, error)
}

// Codec reads and writes still images.
// Implementations return errors wrapping ErrInvalidImage and ErrUnsupportedExtension.
type Codec interface {
	ShapeReader
	Read(path string) (image.Image, error)
	Write(img image.Image, path string) error
}

// SequenceCodec splits animated files into frames and assembles them back.
type SequenceCodec interface {
	ReadFrames(path string) (*model.Sequence, error)
	WriteFrames(path string, seq *model.Sequence) error
}
