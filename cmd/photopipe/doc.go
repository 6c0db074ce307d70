// Package main hosts the photopipe command line.
//
// The run command turns flags into a model.Config, validates it before any work
// starts and hands it to a pipeline. The watch command keeps a pipeline running on
// the files created under a directory.
package main
