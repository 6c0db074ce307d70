package model

import (
	"regexp"
	"strconv"

	"github.com/pkg/errors"
)

var (
	ErrStepsFormat   = errors.New("incorrect steps format, valid format is <starting step>:<ending step> with 0 <= start < end <= 6")
	ErrStepsOrder    = errors.New("the ending step should be greater than the starting step")
	ErrOverlayFormat = errors.New("incorrect overlay format, valid format is <x_top_left>,<y_top_left>:<x_bot_right>,<y_bot_right>")
)

var (
	stepsRe   = regexp.MustCompile(`^([0-6]):([0-6])$`)
	overlayRe = regexp.MustCompile(`^(\d+),(\d+):(\d+),(\d+)$`)
)

// ParseStepRange parses "s:e" into the half-open range [s, e) over the core stages.
func ParseStepRange(raw string) (*StepRange, error) {
	m := stepsRe.FindStringSubmatch(raw)
	if m == nil {
		return nil, errors.Wrapf(ErrStepsFormat, "got %q", raw)
	}
	start, _ := strconv.Atoi(m[1])
	end, _ := strconv.Atoi(m[2])
	if start >= end {
		return nil, errors.Wrapf(ErrStepsOrder, "got %q", raw)
	}
	return &StepRange{Start: start, End: end}, nil
}

// ParseRegion parses "x1,y1:x2,y2".
func ParseRegion(raw string) (*Region, error) {
	m := overlayRe.FindStringSubmatch(raw)
	if m == nil {
		return nil, errors.Wrapf(ErrOverlayFormat, "got %q", raw)
	}
	vals := make([]int, 4)
	for i := range vals {
		v, err := strconv.Atoi(m[i+1])
		if err != nil {
			return nil, errors.Wrapf(ErrOverlayFormat, "got %q", raw)
		}
		vals[i] = v
	}
	r := &Region{X1: vals[0], Y1: vals[1], X2: vals[2], Y2: vals[3]}
	if r.Width() == 0 || r.Height() == 0 {
		return nil, errors.Wrapf(ErrOverlayFormat, "empty region %q", raw)
	}
	return r, nil
}
