package pipeline

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/askiada/go-photopipe/pkg/pipeline/model"
)

// MultipleProcess runs one child process per item.
// Items are spread over a pool of cfg.Cores workers when processing runs on the CPU
// with more than one core, and run one after the other otherwise.
type MultipleProcess struct {
	pipe  *Pipeline
	cfg   model.Config
	items []model.Item
	log   logrus.FieldLogger
}

// NewMultipleProcess creates a process over items. Items without their own configuration use cfg.
func (p *Pipeline) NewMultipleProcess(cfg model.Config, items []model.Item) *MultipleProcess {
	return &MultipleProcess{
		pipe:  p,
		cfg:   cfg.Clone(),
		items: append([]model.Item{}, items...),
		log:   p.log.WithField("process", "multiple"),
	}
}

// Run processes every item. The first failing item aborts the whole batch.
func (mp *MultipleProcess) Run(ctx context.Context) error {
	start := time.Now()
	mp.log.WithField("items", len(mp.items)).Info("Executing multiple process")

	processes, err := mp.setup()
	if err != nil {
		return err
	}

	concurrent := 1
	if mp.cfg.Multiprocessing() {
		concurrent = mp.cfg.Cores
		mp.log.WithField("workers", concurrent).Debug("Using multiprocessing")
	}

	total := len(processes)
	err = runItems(ctx, total, concurrent, func(ctx context.Context, idx int) error {
		mp.log.WithFields(logrus.Fields{
			"item":  mp.items[idx].Input,
			"index": idx + 1,
			"total": total,
		}).Infof("Multiple process : %d/%d", idx+1, total)
		return processes[idx].Run(ctx)
	})
	if err != nil {
		return errors.Wrap(err, "multiple process aborted")
	}

	mp.log.WithField("elapsed", time.Since(start).Round(time.Millisecond).String()).Info("Multiple process finished")

	return nil
}

func (mp *MultipleProcess) setup() ([]Process, error) {
	processes := make([]Process, 0, len(mp.items))
	for _, item := range mp.items {
		cfg := mp.cfg.Clone()
		if item.Config != nil {
			cfg = item.Config.Clone()
		}
		cfg.Input = item.Input
		cfg.Output = item.Output

		process, err := mp.pipe.NewProcess(cfg)
		if err != nil {
			return nil, err
		}
		processes = append(processes, process)
	}
	return processes, nil
}
