package pipeline

import (
	"context"

	"github.com/ppiankov/qforge/internal/logger"
	"github.com/ppiankov/qforge/internal/model"
	"github.com/ppiankov/qforge/internal/passage"
)

// UnitRunner generates questions for page groups of a library
type UnitRunner struct {
	source    passage.Source
	generator *Generator
	options   Options
	logger    *logger.Logger
}

// NewUnitRunner binds a page source and generation options. log may be nil.
func NewUnitRunner(src passage.Source, g *Generator, opts Options, log *logger.Logger) *UnitRunner {
	if log == nil {
		log = logger.Nop()
	}
	return &UnitRunner{source: src, generator: g, options: opts, logger: log}
}

// Run loads the unit's pages, joins them and generates questions tagged with
// the unit identifier. A unit with no loadable pages yields an empty result.
func (r *UnitRunner) Run(ctx context.Context, unit model.WorkUnit) (*Result, error) {
	text, missing, ok := passage.Combine(r.source, unit)
	if len(missing) > 0 {
		r.logger.Warn("Missing pages", "unit", unit.ID(), "pages", missing)
	}
	if !ok {
		return &Result{}, nil
	}

	opts := r.options
	opts.Provenance = unit.ID()
	return r.generator.Generate(ctx, text, opts)
}

// RunUnit runs the unit and reports only its counts
func (r *UnitRunner) RunUnit(ctx context.Context, unit model.WorkUnit) (model.UnitStats, error) {
	res, err := r.Run(ctx, unit)
	if err != nil {
		return model.UnitStats{}, err
	}
	return res.Stats, nil
}
