package pipeline

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/askiada/go-photopipe/pkg/pipeline/model"
)

// ImageProcess runs the phases of a plan on a single still image.
type ImageProcess struct {
	pipe *Pipeline
	cfg  model.Config
	log  logrus.FieldLogger
}

// NewImageProcess creates a process for the image at cfg.Input.
func (p *Pipeline) NewImageProcess(cfg model.Config) *ImageProcess {
	return &ImageProcess{
		pipe: p,
		cfg:  cfg.Clone(),
		log:  p.log.WithFields(logrus.Fields{"process": "image", "input": cfg.Input}),
	}
}

// Run processes the image and writes the result to cfg.Output.
func (ip *ImageProcess) Run(ctx context.Context) error {
	_, err := ip.Execute(ctx)
	return err
}

// Execute processes the image and returns every artifact, the decoded input first.
func (ip *ImageProcess) Execute(ctx context.Context) ([]image.Image, error) {
	start := time.Now()
	ip.log.Info("Executing image process")

	plan, err := SelectPhases(ip.cfg, ip.pipe.codec, ip.log)
	if err != nil {
		return nil, err
	}
	ip.log.WithFields(logrus.Fields{
		"phases":  plan.Phases,
		"pending": plan.Pending(),
	}).Debug("Phases selected")

	artifacts, err := ip.setup(plan)
	if err != nil {
		return nil, err
	}

	artifacts, err = ip.execute(ctx, plan, artifacts)
	if err != nil {
		return nil, err
	}

	err = ensureDir(ip.cfg.Output)
	if err != nil {
		return nil, err
	}
	err = ip.pipe.codec.Write(artifacts[len(artifacts)-1], ip.cfg.Output)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to write %s", ip.cfg.Output)
	}

	ip.log.WithField("output", ip.cfg.Output).Info("Image created")
	ip.log.WithField("elapsed", time.Since(start).Round(time.Millisecond).String()).Debug("Image process done")

	return artifacts, nil
}

// setup decodes the input and loads the intermediates of the phases before the range start.
func (ip *ImageProcess) setup(plan Plan) ([]image.Image, error) {
	input, err := ip.pipe.codec.Read(ip.cfg.Input)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read input %s", ip.cfg.Input)
	}
	artifacts := []image.Image{input}

	done := plan.Done()
	if len(done) == 0 {
		return artifacts, nil
	}

	dir, err := ip.alteredDir()
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return nil, errors.Wrapf(ErrResume, "starting at step %d requires an altered directory", plan.Start)
	}

	for _, name := range done {
		path := intermediatePath(dir, name)
		img, err := ip.pipe.codec.Read(path)
		if err != nil {
			return nil, errors.Wrapf(ErrResume,
				"unable to load %s intermediate %s, check that --altered is a directory holding valid images: %v",
				name, path, err)
		}
		ip.log.WithFields(logrus.Fields{"stage": name, "path": path}).Debug("Intermediate loaded")
		artifacts = append(artifacts, img)
	}

	return artifacts, nil
}

func (ip *ImageProcess) execute(ctx context.Context, plan Plan, artifacts []image.Image) ([]image.Image, error) {
	dir, err := ip.alteredDir()
	if err != nil {
		return nil, err
	}

	for pos := plan.Start; pos < plan.End; pos++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "image process interrupted")
		}

		stage, err := ip.pipe.registry.Get(plan.Phases[pos])
		if err != nil {
			return nil, err
		}
		info := &model.StageInfo{Name: stage.Name(), InputIndex: stage.InputIndex(), Position: pos}

		parents, err := parentStages(plan, len(artifacts), info.InputIndex)
		if err != nil {
			return nil, errors.Wrapf(err, "stage %s", info.Name)
		}
		err = ip.pipe.prepareStage(parents, info)
		if err != nil {
			return nil, err
		}

		inputs, err := gather(artifacts, info.InputIndex)
		if err != nil {
			return nil, errors.Wrapf(err, "stage %s", info.Name)
		}

		log := ip.log.WithField("stage", info.Name)
		log.Info("Executing stage")
		startFn := time.Now()
		out, err := stage.Run(ctx, ip.cfg, inputs...)
		if err != nil {
			return nil, errors.Wrapf(err, "stage %s", info.Name)
		}
		if out == nil {
			return nil, errors.Wrapf(ErrEmptyOutput, "stage %s", info.Name)
		}
		elapsed := time.Since(startFn)
		log.WithField("elapsed", elapsed.Round(time.Millisecond).String()).Debug("Stage done")

		err = ip.pipe.onStageOutput(info, elapsed)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, out)

		if dir != "" {
			path := intermediatePath(dir, info.Name)
			err = ensureDir(path)
			if err != nil {
				return nil, err
			}
			err = ip.pipe.codec.Write(out, path)
			if err != nil {
				return nil, errors.Wrapf(err, "unable to write %s intermediate", info.Name)
			}
			log.WithField("path", path).Debug("Intermediate written")
		}
	}

	return artifacts, nil
}

// alteredDir returns where intermediates live, empty when they are not kept.
func (ip *ImageProcess) alteredDir() (string, error) {
	if ip.cfg.Altered == "" {
		return "", nil
	}
	if !ip.cfg.AlteredKeyed {
		return ip.cfg.Altered, nil
	}
	key, err := contentKey(ip.cfg.Input)
	if err != nil {
		return "", err
	}
	return filepath.Join(ip.cfg.Altered, key), nil
}

func intermediatePath(dir string, name model.StageName) string {
	return filepath.Join(dir, string(name)+".png")
}

// contentKey hashes the file content so that same named files from different folders do not collide.
func contentKey(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, "unable to open %s", path)
	}
	defer f.Close()

	h := xxhash.New()
	_, err = io.Copy(h, f)
	if err != nil {
		return "", errors.Wrapf(err, "unable to hash %s", path)
	}
	return fmt.Sprintf("%016x", h.Sum64()), nil
}

// parentStages maps the input index of the stage at the end of total artifacts to the stages producing them.
func parentStages(plan Plan, total int, index []int) ([]*model.StageInfo, error) {
	parents := make([]*model.StageInfo, 0, len(index))
	for _, idx := range index {
		pos, err := resolveIndex(total, idx)
		if err != nil {
			return nil, err
		}
		if pos == 0 {
			parents = append(parents, model.InputStage)
			continue
		}
		parents = append(parents, &model.StageInfo{Name: plan.Phases[pos-1], Position: pos - 1})
	}
	return parents, nil
}
