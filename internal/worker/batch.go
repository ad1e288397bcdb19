package worker

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/qforge/internal/logger"
	"github.com/ppiankov/qforge/internal/metrics"
	"github.com/ppiankov/qforge/internal/model"
)

// Runner processes one work unit
type Runner interface {
	RunUnit(ctx context.Context, unit model.WorkUnit) (model.UnitStats, error)
}

// RunnerFunc adapts a function to Runner
type RunnerFunc func(ctx context.Context, unit model.WorkUnit) (model.UnitStats, error)

func (f RunnerFunc) RunUnit(ctx context.Context, unit model.WorkUnit) (model.UnitStats, error) {
	return f(ctx, unit)
}

// Snapshot is the set of collections that already have persisted records.
// It is taken once before a run and never changes during it.
type Snapshot struct {
	collections map[string]struct{}
}

// NewSnapshot builds a snapshot from provenance tags. Tags without a page
// separator are ignored.
func NewSnapshot(tags []string) Snapshot {
	s := Snapshot{collections: make(map[string]struct{})}
	for _, tag := range tags {
		if collection, ok := model.CollectionFromProvenance(tag); ok {
			s.collections[collection] = struct{}{}
		}
	}
	return s
}

// Has reports whether collection was already processed
func (s Snapshot) Has(collection string) bool {
	_, ok := s.collections[collection]
	return ok
}

// Len is the number of processed collections
func (s Snapshot) Len() int {
	return len(s.collections)
}

// Collections lists the snapshot in sorted order
func (s Snapshot) Collections() []string {
	out := make([]string, 0, len(s.collections))
	for c := range s.collections {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// UnitResult is the outcome of one unit, at the unit's dispatch index
type UnitResult struct {
	Index   int
	Unit    model.WorkUnit
	Stats   model.UnitStats
	Err     error
	Skipped bool
}

// Summary aggregates a run
type Summary struct {
	Units     int
	Skipped   int
	Failed    int
	Stats     model.UnitStats
	Results   []UnitResult
	Cancelled bool
	Duration  time.Duration
}

// BatchProcessor runs units in fixed-size batches. Every unit of a batch runs
// concurrently and the next batch starts only when all of them are done, so
// at most batchSize units are ever in flight.
type BatchProcessor struct {
	runner    Runner
	batchSize int
	logger    *logger.Logger
	metrics   *metrics.Metrics
}

// NewBatchProcessor creates a processor. log and m may be nil.
func NewBatchProcessor(runner Runner, batchSize int, log *logger.Logger, m *metrics.Metrics) *BatchProcessor {
	if batchSize <= 0 {
		batchSize = 1
	}
	if log == nil {
		log = logger.Nop()
	}
	return &BatchProcessor{
		runner:    runner,
		batchSize: batchSize,
		logger:    log,
		metrics:   m,
	}
}

// Process runs units in order, skipping those whose collection is in done.
// A failing unit is recorded and its siblings keep running. Results come back
// in dispatch order. Cancelling ctx stops the run after the current batch.
func (b *BatchProcessor) Process(ctx context.Context, units []model.WorkUnit, done Snapshot) Summary {
	start := time.Now()
	summary := Summary{Units: len(units)}

	var pending []UnitResult
	for i, unit := range units {
		if done.Has(unit.Collection) {
			summary.Skipped++
			summary.Results = append(summary.Results, UnitResult{Index: i, Unit: unit, Skipped: true})
			b.metrics.Unit(metrics.UnitSkipped)
			continue
		}
		pending = append(pending, UnitResult{Index: i, Unit: unit})
	}
	if summary.Skipped > 0 {
		b.logger.Info("Skipping processed collections", "units", summary.Skipped, "collections", done.Len())
	}

	batches := (len(pending) + b.batchSize - 1) / b.batchSize
	for n := 0; n < batches; n++ {
		if ctx.Err() != nil {
			summary.Cancelled = true
			b.logger.Warn("Run cancelled", "completed_batches", n, "batches", batches)
			break
		}

		lo := n * b.batchSize
		hi := lo + b.batchSize
		if hi > len(pending) {
			hi = len(pending)
		}
		batch := pending[lo:hi]

		batchStart := time.Now()
		b.runBatch(ctx, batch)

		var batchStats model.UnitStats
		batchFailed := 0
		for _, r := range batch {
			if r.Err != nil {
				batchFailed++
				continue
			}
			batchStats.Add(r.Stats)
		}
		summary.Failed += batchFailed
		summary.Stats.Add(batchStats)
		summary.Results = append(summary.Results, batch...)

		b.logger.Info("Batch complete",
			"batch", n+1,
			"batches", batches,
			"units", len(batch),
			"failed", batchFailed,
			"persisted", batchStats.Persisted,
			"total_persisted", summary.Stats.Persisted,
			"elapsed", time.Since(batchStart).Round(time.Millisecond),
		)
	}

	sort.Slice(summary.Results, func(i, j int) bool {
		return summary.Results[i].Index < summary.Results[j].Index
	})
	summary.Duration = time.Since(start)
	return summary
}

// runBatch runs every unit of batch concurrently and fills in the results in place
func (b *BatchProcessor) runBatch(ctx context.Context, batch []UnitResult) {
	var g errgroup.Group
	for i := range batch {
		r := &batch[i]
		g.Go(func() error {
			finished := b.metrics.UnitStarted()
			defer finished()

			stats, err := b.runner.RunUnit(ctx, r.Unit)
			r.Stats = stats
			r.Err = err
			if err != nil {
				b.metrics.Unit(metrics.UnitFailed)
				b.logger.Error("Unit failed", "unit", r.Unit.ID(), "error", err)
				return nil
			}
			b.metrics.Unit(metrics.UnitDone)
			return nil
		})
	}
	_ = g.Wait()
}
