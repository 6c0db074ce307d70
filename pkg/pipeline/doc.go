// Package pipeline provides the execution engine that runs photographs through an ordered list of stages.
//
// The phase selector turns a configuration into a plan: the core stages, the resize, crop and overlay
// stages wrapped around them when a scaling option is set, the color transfer appended at the end, and
// the range of that list to execute. Every stage reads some of the images produced before it, picked by
// index, and produces one image.
//
// Processes run plans at different levels. An image process runs a plan on one image, writing each
// intermediate image to the altered directory when one is set so that a later run can resume from any
// step. A multiple process runs a list of items, sequentially or on a bounded pool of workers when the
// work happens on the CPU. A folder process walks a directory tree and runs a multiple process per
// directory, with the folder-local settings file of the directory merged over the command line
// configuration. A sequence process splits a GIF or a video into frames, runs a multiple process over
// them and assembles the processed frames back.
//
// The pipeline stops on the first encountered error. Configurations are passed down by value and cloned
// at each level, so a process never changes the configuration of its parent or siblings.
package pipeline
