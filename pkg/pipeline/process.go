package pipeline

import "context"

// Process is one level of the run hierarchy: an image, a list of items, a folder or a sequence.
type Process interface {
	Run(ctx context.Context) error
}

var (
	_ Process = (*ImageProcess)(nil)
	_ Process = (*MultipleProcess)(nil)
	_ Process = (*FolderProcess)(nil)
	_ Process = (*SequenceProcess)(nil)
)
