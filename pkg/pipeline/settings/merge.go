package settings

import (
	"github.com/pkg/errors"

	"github.com/askiada/go-photopipe/pkg/pipeline/model"
)

// Merge applies the overlay on a copy of base.
// Keys recorded as explicit in base keep their value. When base has any explicit
// scaling flag, every scaling key of the overlay is ignored; otherwise a scaling key
// of the overlay replaces the inherited scaling mode. The same goes for cpu and gpu.
func Merge(base model.Config, o *Overlay) (model.Config, error) {
	cfg := base.Clone()
	if o == nil {
		return cfg, nil
	}

	if !anyExplicit(base, model.ScaleKeys...) && o.scaleCount() > 0 {
		cfg.ClearScaling()
		cfg.Overlay = o.Region
		cfg.AutoResize = isTrue(o.AutoResize)
		cfg.AutoResizeCrop = isTrue(o.AutoResizeCrop)
		cfg.AutoRescale = isTrue(o.AutoRescale)
		cfg.IgnoreSize = isTrue(o.IgnoreSize)
	}

	if !anyExplicit(base, model.KeyCPU, model.KeyGPU) {
		switch {
		case isTrue(o.CPU):
			cfg.GPUIDs = nil
		case len(o.GPU) > 0:
			cfg.GPUIDs = append([]int{}, o.GPU...)
		}
	}

	if o.Altered != nil && !base.IsExplicit(model.KeyAltered) {
		cfg.Altered = *o.Altered
	}
	if o.Steps != nil && !base.IsExplicit(model.KeySteps) {
		steps := *o.Steps
		cfg.Steps = &steps
	}
	if o.ColorTransfer != nil && !base.IsExplicit(model.KeyColorTransfer) {
		cfg.ColorTransfer = *o.ColorTransfer
	}
	if o.Cores != nil && !base.IsExplicit(model.KeyCores) {
		cfg.Cores = *o.Cores
	}
	if o.Runs != nil && !base.IsExplicit(model.KeyRuns) {
		cfg.Runs = *o.Runs
	}

	if cfg.Steps != nil && cfg.Altered == "" {
		return base.Clone(), ErrStepsRequireAltered
	}

	return cfg, nil
}

func anyExplicit(cfg model.Config, keys ...string) bool {
	for _, key := range keys {
		if cfg.IsExplicit(key) {
			return true
		}
	}
	return false
}

// MergeFile loads the settings file at path and merges it into base.
func MergeFile(base model.Config, path string) (model.Config, error) {
	o, err := Load(path)
	if err != nil {
		return base.Clone(), err
	}
	cfg, err := Merge(base, o)
	if err != nil {
		return base.Clone(), errors.Wrapf(err, "settings %s", path)
	}
	return cfg, nil
}
