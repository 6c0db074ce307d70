package model

import "image"

// Sequence is an animated input decoded into frames.
type Sequence struct {
	Frames []image.Image
	// Delays holds per frame delays in 100ths of a second, GIF only.
	Delays []int
	// FPS is the frame rate, video only.
	FPS float64
}
