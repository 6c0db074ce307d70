package pipeline

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

func sequentialItemsFn(ctx context.Context, goIdx int, input <-chan int, itemFn func(context.Context, int) error) error {
outer:
	for {
		select {
		case <-ctx.Done():
			return errors.Wrapf(ctx.Err(), "go routine %d:", goIdx)
		case idx, ok := <-input:
			if !ok {
				break outer
			}
			err := itemFn(ctx, idx)
			if err != nil {
				return errors.Wrapf(err, "go routine %d:", goIdx)
			}
		}
	}

	return nil
}

func concurrentItemsFn(ctx context.Context, concurrent int, input <-chan int, itemFn func(context.Context, int) error) error {
	errGrp, dCtx := errgroup.WithContext(ctx)
	errGrp.SetLimit(concurrent)
	// starts many consumers concurrently
	// each consumer stops as soon as an error happens
	for goIdx := 0; goIdx < concurrent; goIdx++ {
		localGoIdx := goIdx
		errGrp.Go(func() error {
			return sequentialItemsFn(dCtx, localGoIdx, input, itemFn)
		})
	}
	return errGrp.Wait()
}

// runItems calls itemFn for every index in [0, total) with at most concurrent calls at once.
// It returns the first error, after which no new item is started.
func runItems(ctx context.Context, total, concurrent int, itemFn func(context.Context, int) error) error {
	dCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	input := make(chan int)
	go func() {
		defer close(input)
		for i := 0; i < total; i++ {
			select {
			case <-dCtx.Done():
				return
			case input <- i:
			}
		}
	}()

	var err error
	if concurrent <= 1 {
		err = sequentialItemsFn(dCtx, 0, input, itemFn)
	} else {
		err = concurrentItemsFn(dCtx, concurrent, input, itemFn)
	}
	if err != nil {
		return err
	}

	// the feeder may stop early on cancellation, leaving items unprocessed
	return errors.Wrap(ctx.Err(), "items interrupted")
}
