package pipeline

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/askiada/go-photopipe/pkg/pipeline/model"
	"github.com/askiada/go-photopipe/pkg/pipeline/settings"
)

// OutputSuffix is added to the file name of outputs written beside their input.
const OutputSuffix = "_out"

// FolderProcess processes every supported file of a directory tree, one multiple process per directory.
// A settings file found in a directory overrides the configuration for the files of that directory.
type FolderProcess struct {
	pipe *Pipeline
	cfg  model.Config
	log  logrus.FieldLogger
}

// NewFolderProcess creates a process over the tree rooted at cfg.Input.
func (p *Pipeline) NewFolderProcess(cfg model.Config) *FolderProcess {
	return &FolderProcess{
		pipe: p,
		cfg:  cfg.Clone(),
		log:  p.log.WithFields(logrus.Fields{"process": "folder", "input": cfg.Input}),
	}
}

// Run walks the tree and processes each directory in turn.
func (fp *FolderProcess) Run(ctx context.Context) error {
	start := time.Now()
	fp.log.Info("Executing folder process")

	dirs, err := fp.directories()
	if err != nil {
		return err
	}

	for _, dir := range dirs {
		items, err := fp.items(dir)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			continue
		}

		cfg, err := fp.directoryConfig(dir)
		if err != nil {
			return err
		}
		fp.log.WithFields(logrus.Fields{"directory": dir, "files": len(items)}).Info("Processing directory")

		err = fp.pipe.NewMultipleProcess(cfg, items).Run(ctx)
		if err != nil {
			return errors.Wrapf(err, "directory %s", dir)
		}
	}

	fp.log.WithField("elapsed", time.Since(start).Round(time.Millisecond).String()).Info("Folder process finished")

	return nil
}

// directories lists the tree before anything is written into it.
// The output root is skipped when it lives inside the input tree.
func (fp *FolderProcess) directories() ([]string, error) {
	outputRoot := ""
	if fp.cfg.Output != "" {
		abs, err := filepath.Abs(fp.cfg.Output)
		if err == nil {
			outputRoot = abs
		}
	}

	var dirs []string
	err := filepath.WalkDir(fp.cfg.Input, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if outputRoot != "" && path != fp.cfg.Input {
			abs, absErr := filepath.Abs(path)
			if absErr == nil && abs == outputRoot {
				return filepath.SkipDir
			}
		}
		dirs = append(dirs, path)
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "unable to walk %s", fp.cfg.Input)
	}

	return dirs, nil
}

// items lists the supported files directly inside dir, outputs of earlier runs excluded.
func (fp *FolderProcess) items(dir string) ([]model.Item, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to list %s", dir)
	}

	rel, err := filepath.Rel(fp.cfg.Input, dir)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to locate %s", dir)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !model.IsSupportedFile(entry.Name()) {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if fp.cfg.Output == "" && strings.HasSuffix(strings.TrimSuffix(entry.Name(), ext), OutputSuffix) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	items := make([]model.Item, 0, len(names))
	for _, name := range names {
		items = append(items, model.Item{
			Input:  filepath.Join(dir, name),
			Output: fp.outputPath(dir, rel, name),
		})
	}
	return items, nil
}

func (fp *FolderProcess) outputPath(dir, rel, name string) string {
	if fp.cfg.Output == "" {
		ext := filepath.Ext(name)
		return filepath.Join(dir, strings.TrimSuffix(name, ext)+OutputSuffix+ext)
	}
	return filepath.Join(fp.cfg.Output, rel, name)
}

// directoryConfig merges the settings file of dir, if any, into the folder configuration.
// A missing or invalid settings file never stops the run: the folder configuration is used instead.
func (fp *FolderProcess) directoryConfig(dir string) (model.Config, error) {
	cfg := fp.cfg.Clone()
	cfg.Input = dir

	name := cfg.JSONFolderName
	if name == "" {
		name = model.DefaultJSONFolderName
	}
	path := filepath.Join(dir, name)
	log := fp.log.WithField("settings", path)

	if _, err := os.Stat(path); err != nil {
		log.Debug("No folder settings, using command line configuration")
	} else {
		merged, err := settings.MergeFile(cfg, path)
		if err != nil {
			log.WithError(err).Info("Folder settings ignored, using command line configuration")
		} else {
			log.Info("Folder settings applied")
			cfg = merged
		}
	}

	if cfg.Altered != "" {
		rel, err := filepath.Rel(fp.cfg.Input, dir)
		if err != nil {
			return model.Config{}, errors.Wrapf(err, "unable to locate %s", dir)
		}
		cfg.Altered = filepath.Join(cfg.Altered, rel)
		cfg.AlteredKeyed = true
	}

	return cfg, nil
}
