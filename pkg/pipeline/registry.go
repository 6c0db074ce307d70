package pipeline

import (
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/askiada/go-photopipe/pkg/pipeline/model"
)

// Registry maps stage names to stages.
// Stages are built on first use and reused afterwards, a stage is never built twice.
type Registry struct {
	mu           sync.Mutex
	cfg          model.Config
	constructors map[model.StageName]Constructor
	stages       map[model.StageName]Stage
}

// NewRegistry creates a registry from a static table of constructors.
// cfg is handed to the constructors.
func NewRegistry(cfg model.Config, constructors map[model.StageName]Constructor) *Registry {
	table := make(map[model.StageName]Constructor, len(constructors))
	for name, c := range constructors {
		table[name] = c
	}
	return &Registry{
		cfg:          cfg.Clone(),
		constructors: table,
		stages:       make(map[model.StageName]Stage),
	}
}

// Get returns the stage registered under name, building it if needed.
func (r *Registry) Get(name model.StageName) (Stage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if stage, ok := r.stages[name]; ok {
		return stage, nil
	}

	constructor, ok := r.constructors[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownStage, "%s", name)
	}

	stage, err := constructor(r.cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to build stage %s", name)
	}
	r.stages[name] = stage

	return stage, nil
}

// Names lists the registered stage names.
func (r *Registry) Names() []model.StageName {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]model.StageName, 0, len(r.constructors))
	for name := range r.constructors {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}
