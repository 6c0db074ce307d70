// Package settings reads JSON configuration overlays and merges them with the command line configuration.
//
// Overlays come from the folder-local settings file found during folder runs and from the
// --json-args flag. Keys mirror the command line flags, with either dashes or underscores.
// A key given on the command line always wins over the overlay.
package settings

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/askiada/go-photopipe/pkg/pipeline/model"
)

var (
	ErrMalformed           = errors.New("malformed settings")
	ErrScaleConflict       = errors.New("only one of overlay, auto_resize, auto_resize_crop, auto_rescale and ignore_size can be set")
	ErrProcessingConflict  = errors.New("cpu and gpu cannot be set together")
	ErrStepsRequireAltered = errors.New("steps requires altered")
)

// Overlay is a parsed settings document. Nil fields were not present.
type Overlay struct {
	Altered        *string
	Steps          *model.StepRange
	Region         *model.Region
	AutoResize     *bool
	AutoResizeCrop *bool
	AutoRescale    *bool
	IgnoreSize     *bool
	ColorTransfer  *bool
	CPU            *bool
	GPU            []int
	Cores          *int
	Runs           *int
}

// Load reads the settings file at path.
func Load(path string) (*Overlay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read settings %s", path)
	}
	overlay, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "settings %s", path)
	}
	return overlay, nil
}

// LoadArg reads a settings overlay given either as a file path or as an inline JSON document.
func LoadArg(arg string) (*Overlay, error) {
	if _, err := os.Stat(arg); err == nil {
		return Load(arg)
	}
	return Parse([]byte(arg))
}

// Parse decodes and validates a settings document.
func Parse(data []byte) (*Overlay, error) {
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(bytes.TrimSpace(data), &raw); err != nil {
		return nil, errors.Wrap(ErrMalformed, err.Error())
	}

	o := &Overlay{}
	for key, value := range raw {
		err := o.set(strings.ReplaceAll(strings.ToLower(key), "-", "_"), value)
		if err != nil {
			return nil, errors.Wrapf(ErrMalformed, "key %s: %s", key, err)
		}
	}

	err := o.validate()
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (o *Overlay) set(key string, value json.RawMessage) error {
	switch key {
	case model.KeyAltered:
		return decodeInto(value, &o.Altered)
	case model.KeySteps:
		var raw string
		if err := json.Unmarshal(value, &raw); err != nil {
			return err
		}
		steps, err := model.ParseStepRange(raw)
		if err != nil {
			return err
		}
		o.Steps = steps
	case model.KeyOverlay:
		var raw string
		if err := json.Unmarshal(value, &raw); err != nil {
			return err
		}
		region, err := model.ParseRegion(raw)
		if err != nil {
			return err
		}
		o.Region = region
	case model.KeyAutoResize:
		return decodeInto(value, &o.AutoResize)
	case model.KeyAutoResizeCrop:
		return decodeInto(value, &o.AutoResizeCrop)
	case model.KeyAutoRescale:
		return decodeInto(value, &o.AutoRescale)
	case model.KeyIgnoreSize:
		return decodeInto(value, &o.IgnoreSize)
	case model.KeyColorTransfer:
		return decodeInto(value, &o.ColorTransfer)
	case model.KeyCPU:
		return decodeInto(value, &o.CPU)
	case model.KeyGPU:
		var one int
		if err := json.Unmarshal(value, &one); err == nil {
			o.GPU = []int{one}
			return nil
		}
		return json.Unmarshal(value, &o.GPU)
	case model.KeyCores:
		return decodeInto(value, &o.Cores)
	case model.KeyRuns:
		return decodeInto(value, &o.Runs)
	}
	// Paths and unknown keys are not overridable per folder.
	return nil
}

func decodeInto[T any](value json.RawMessage, dst **T) error {
	v := new(T)
	if err := json.Unmarshal(value, v); err != nil {
		return err
	}
	*dst = v
	return nil
}

func isTrue(b *bool) bool {
	return b != nil && *b
}

func (o *Overlay) scaleCount() int {
	count := 0
	if o.Region != nil {
		count++
	}
	for _, b := range []*bool{o.AutoResize, o.AutoResizeCrop, o.AutoRescale, o.IgnoreSize} {
		if isTrue(b) {
			count++
		}
	}
	return count
}

func (o *Overlay) validate() error {
	if o.scaleCount() > 1 {
		return errors.Wrap(ErrMalformed, ErrScaleConflict.Error())
	}
	if isTrue(o.CPU) && len(o.GPU) > 0 {
		return errors.Wrap(ErrMalformed, ErrProcessingConflict.Error())
	}
	if o.Cores != nil && *o.Cores < 1 {
		return errors.Wrap(ErrMalformed, "n_cores must be greater than 0")
	}
	if o.Runs != nil && *o.Runs < 1 {
		return errors.Wrap(ErrMalformed, "n_runs must be greater than 0")
	}
	return nil
}
