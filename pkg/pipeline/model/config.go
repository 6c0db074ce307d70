package model

import (
	"image"
	"path/filepath"
	"strings"
)

// Setting keys, shared by the command line and the JSON settings files.
const (
	KeyInput          = "input"
	KeyOutput         = "output"
	KeyAltered        = "altered"
	KeySteps          = "steps"
	KeyOverlay        = "overlay"
	KeyAutoResize     = "auto_resize"
	KeyAutoResizeCrop = "auto_resize_crop"
	KeyAutoRescale    = "auto_rescale"
	KeyIgnoreSize     = "ignore_size"
	KeyColorTransfer  = "color_transfer"
	KeyCPU            = "cpu"
	KeyGPU            = "gpu"
	KeyCores          = "n_cores"
	KeyRuns           = "n_runs"
	KeyJSONFolderName = "json_folder_name"
)

// ScaleKeys are the mutually exclusive scaling settings.
var ScaleKeys = []string{KeyOverlay, KeyAutoResize, KeyAutoResizeCrop, KeyAutoRescale, KeyIgnoreSize}

// DefaultJSONFolderName is the folder-local settings file looked up during folder runs.
const DefaultJSONFolderName = "settings.json"

// StepRange is a half-open interval [Start, End) over the phase list.
type StepRange struct {
	Start int
	End   int
}

// Region is a rectangle given by its top left and bottom right corners.
type Region struct {
	X1, Y1, X2, Y2 int
}

// Rect returns the canonical rectangle of the region.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X1, r.Y1, r.X2, r.Y2)
}

// Width of the region.
func (r Region) Width() int {
	return r.Rect().Dx()
}

// Height of the region.
func (r Region) Height() int {
	return r.Rect().Dy()
}

// Config holds the settings of one run.
// Processes receive it by value and call Clone before changing anything that is shared.
type Config struct {
	Input   string
	Output  string
	Altered string
	// AlteredKeyed stores intermediates under a directory named after the input content hash.
	AlteredKeyed bool

	Steps   *StepRange
	Overlay *Region

	AutoResize     bool
	AutoResizeCrop bool
	AutoRescale    bool
	IgnoreSize     bool
	ColorTransfer  bool

	// GPUIDs is nil when processing runs on the CPU.
	GPUIDs []int
	Cores  int
	Runs   int

	JSONFolderName string

	// Explicit holds the keys given on the command line. They win over any JSON overlay.
	Explicit map[string]bool
}

// NewConfig returns a configuration with the command line defaults.
func NewConfig() Config {
	return Config{
		Cores:          1,
		Runs:           1,
		JSONFolderName: DefaultJSONFolderName,
		Explicit:       map[string]bool{},
	}
}

// Clone returns a deep copy of the configuration.
func (c Config) Clone() Config {
	cp := c
	if c.Steps != nil {
		steps := *c.Steps
		cp.Steps = &steps
	}
	if c.Overlay != nil {
		overlay := *c.Overlay
		cp.Overlay = &overlay
	}
	if c.GPUIDs != nil {
		cp.GPUIDs = append([]int{}, c.GPUIDs...)
	}
	cp.Explicit = make(map[string]bool, len(c.Explicit))
	for k, v := range c.Explicit {
		cp.Explicit[k] = v
	}
	return cp
}

// IsExplicit reports whether key was given on the command line.
func (c Config) IsExplicit(key string) bool {
	return c.Explicit[key]
}

// Multiprocessing reports whether items can be spread over a worker pool.
// GPU runs stay sequential.
func (c Config) Multiprocessing() bool {
	return c.GPUIDs == nil && c.Cores > 1
}

// HasScaling reports whether a resize, rescale or overlay option is set.
func (c Config) HasScaling() bool {
	return c.Overlay != nil || c.AutoResize || c.AutoResizeCrop || c.AutoRescale
}

// ClearScaling resets every scaling option, including ignore size.
func (c *Config) ClearScaling() {
	c.Overlay = nil
	c.AutoResize = false
	c.AutoResizeCrop = false
	c.AutoRescale = false
	c.IgnoreSize = false
}

// Item is one unit of work handed to a multiple process.
type Item struct {
	Input  string
	Output string
	// Config overrides the process configuration for this item when set.
	Config *Config
}

var stillExtensions = map[string]struct{}{
	".bmp": {}, ".dib": {},
	".jpeg": {}, ".jpg": {}, ".jpe": {},
	".jp2": {}, ".png": {},
	".pbm": {}, ".pgm": {}, ".ppm": {},
	".sr": {}, ".ras": {},
	".tiff": {}, ".tif": {},
}

var videoExtensions = map[string]struct{}{
	".mp4": {}, ".avi": {}, ".mov": {}, ".mkv": {},
}

// GIFExtension is the animated image extension handled as a sequence.
const GIFExtension = ".gif"

func ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// IsImageFile reports whether path has a supported still image extension.
func IsImageFile(path string) bool {
	_, ok := stillExtensions[ext(path)]
	return ok
}

// IsVideoFile reports whether path has a supported video extension.
func IsVideoFile(path string) bool {
	_, ok := videoExtensions[ext(path)]
	return ok
}

// IsSequenceFile reports whether path is processed frame by frame.
func IsSequenceFile(path string) bool {
	return ext(path) == GIFExtension || IsVideoFile(path)
}

// IsSupportedFile reports whether path can be an input of a run.
func IsSupportedFile(path string) bool {
	return IsImageFile(path) || IsSequenceFile(path)
}
