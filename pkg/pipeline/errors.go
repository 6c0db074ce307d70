package pipeline

import (
	"github.com/pkg/errors"
)

var (
	ErrRegistryMustBeSet    = errors.New("registry must be set")
	ErrCodecMustBeSet       = errors.New("codec must be set")
	ErrUnknownStage         = errors.New("unknown stage")
	ErrStageArity           = errors.New("stage inputs do not match its input index")
	ErrInputIndex           = errors.New("input index out of range")
	ErrEmptyOutput          = errors.New("stage returned no image")
	ErrImageShape           = errors.New("image is not 512 x 512 x 3, use one of the rescale options")
	ErrResume               = errors.New("unable to resume")
	ErrInvalidImage         = errors.New("invalid image file")
	ErrUnsupportedExtension = errors.New("unsupported file extension")
	ErrUnsupportedInput     = errors.New("unsupported input")
	ErrNoSequenceCodec      = errors.New("no sequence codec configured")
)
