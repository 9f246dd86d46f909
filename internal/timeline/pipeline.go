package timeline

import (
	"fmt"

	"github.com/prentissw/chartedroots/internal/apperr"
)

// Pipeline runs sort → layout → build with the external collaborators it
// needs. Both collaborators may be nil.
type Pipeline struct {
	Types   TypeRegistry
	Persons PersonResolver
}

// Rendered is the output of one pipeline run.
type Rendered struct {
	Graph
	Placed   []PositionedEvent
	Warnings []string
}

// Run lays out events. Options are validated first; a cyclic set of
// ordering references is returned as *CyclicConstraintError.
func (p Pipeline) Run(events []Event, opts BuildOptions) (*Rendered, error) {
	if err := opts.Options.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidOptions, err)
	}
	sorted, err := Sort(events)
	if err != nil {
		return nil, err
	}
	placed, warnings := Layout(sorted, opts.Options, p.Persons)
	b := Builder{Colors: NewClassifier(p.Types)}
	g := b.Build(placed, opts)
	return &Rendered{Graph: g, Placed: placed, Warnings: warnings}, nil
}
