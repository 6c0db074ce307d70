package model

// StageName identifies a stage in the registry and names its intermediate file.
type StageName string

func (n StageName) String() string {
	return string(n)
}

// Core stages, in pipeline order.
const (
	StageDenoise    StageName = "Denoise"
	StageNormalize  StageName = "Normalize"
	StageSharpen    StageName = "Sharpen"
	StageEdgeDetect StageName = "EdgeDetect"
	StageStylize    StageName = "Stylize"
	StageFinish     StageName = "Finish"
)

// Auxiliary stages added around the core by the phase selector.
const (
	StageResize        StageName = "Resize"
	StageResizeCrop    StageName = "ResizeCrop"
	StageRescale       StageName = "Rescale"
	StageCrop          StageName = "Crop"
	StageOverlay       StageName = "Overlay"
	StageColorTransfer StageName = "ColorTransfer"
)

// CoreStages returns a fresh copy of the canonical core stage list.
func CoreStages() []StageName {
	return []StageName{
		StageDenoise,
		StageNormalize,
		StageSharpen,
		StageEdgeDetect,
		StageStylize,
		StageFinish,
	}
}

// CanonicalSize is the width and height every core stage expects.
const CanonicalSize = 512

// CanonicalChannels is the channel count every core stage expects.
const CanonicalChannels = 3

// StageInfo describes a stage as seen by the pipeline options.
type StageInfo struct {
	Name       StageName
	InputIndex []int
	// Position is the index of the stage in the phase list.
	Position int
}

// InputStage stands for the decoded input image, artifact 0.
var InputStage = &StageInfo{Name: "input", Position: -1}

// Shape is the decoded size of an image file.
type Shape struct {
	Width    int
	Height   int
	Channels int
}

// IsCanonical reports whether the shape matches the core stages requirement.
func (s Shape) IsCanonical() bool {
	return s.Width == CanonicalSize && s.Height == CanonicalSize && s.Channels == CanonicalChannels
}
