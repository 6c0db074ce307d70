// Package model provides the data structures shared by the pipeline packages.
// It defines the run configuration, the stage identifiers and their metadata,
// the run items handed to processes and the options hooked into a pipeline run.
package model
