// Package pipeline turns passages into verified, enriched and persisted
// question/solution pairs.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/ppiankov/qforge/internal/boxed"
	"github.com/ppiankov/qforge/internal/llm"
	"github.com/ppiankov/qforge/internal/logger"
	"github.com/ppiankov/qforge/internal/metrics"
	"github.com/ppiankov/qforge/internal/model"
	"github.com/ppiankov/qforge/internal/parse"
)

// TimestampFormat stamps records and their file names
const TimestampFormat = "20060102_150405"

// RecordWriter persists one record and returns where it went
type RecordWriter interface {
	Write(rec model.Record) (string, error)
}

// GeneratorConfig wires a Generator. Only Provider and Model are required.
type GeneratorConfig struct {
	Provider llm.Provider
	Model    string

	// VerificationModel re-solves questions; empty means Model
	VerificationModel string

	// Threshold for ValidateSolution; 0 means 0.8
	VerificationThreshold float64

	Store   RecordWriter // Required when Options.Persist is set
	Logger  *logger.Logger
	Metrics *metrics.Metrics
}

// Generator runs the drafting, parsing, verification, enrichment and
// persistence stages for one passage at a time. It is safe for concurrent use.
type Generator struct {
	provider          llm.Provider
	model             string
	verificationModel string
	threshold         float64
	evaluator         *llm.Evaluator
	store             RecordWriter
	logger            *logger.Logger
	metrics           *metrics.Metrics
	now               func() time.Time
}

func NewGenerator(cfg GeneratorConfig) *Generator {
	g := &Generator{
		provider:          cfg.Provider,
		model:             cfg.Model,
		verificationModel: cfg.VerificationModel,
		threshold:         cfg.VerificationThreshold,
		store:             cfg.Store,
		logger:            cfg.Logger,
		metrics:           cfg.Metrics,
		now:               time.Now,
	}
	if g.verificationModel == "" {
		g.verificationModel = g.model
	}
	if g.threshold <= 0 {
		g.threshold = 0.8
	}
	if g.logger == nil {
		g.logger = logger.Nop()
	}
	g.evaluator = llm.NewEvaluator(cfg.Provider, cfg.Model)
	return g
}

// Result is the outcome of one GenerateQuestions call
type Result struct {
	Items []model.AcceptedItem
	Paths []string // Persisted files, parallel to Items when persisting
	Stats model.UnitStats
}

// GenerateQuestions drafts questions from passage, verifies and enriches them
// as requested, and persists the survivors. Items come back in parser order.
func (g *Generator) GenerateQuestions(ctx context.Context, passage model.PassageUnit, opts Options) ([]model.AcceptedItem, error) {
	res, err := g.Generate(ctx, passage, opts)
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

// Generate is GenerateQuestions with per-stage counts and persisted paths
func (g *Generator) Generate(ctx context.Context, passage model.PassageUnit, opts Options) (*Result, error) {
	unit := passage.Identifier
	if unit == "" {
		unit = opts.Provenance
	}
	log := g.logger.With("unit", unit)
	res := &Result{}

	fail := func(stage Stage, err error) (*Result, error) {
		log.Error("Unit failed", "stage", stage, "error", err)
		return nil, &StageError{Unit: unit, Stage: stage, Err: err}
	}

	difficulty := opts.difficulty()

	log.Debug("Stage", "stage", StageDrafting)
	draft, err := g.provider.Generate(ctx, llm.GenerateRequest{
		Model:  g.model,
		System: llm.SystemPrompt,
		Prompt: llm.QuestionPrompt(passage.Text, opts.draftCount(), difficulty),
	})
	if err != nil {
		return fail(StageDrafting, err)
	}

	log.Debug("Stage", "stage", StageParsing)
	candidates := parse.Extract(draft.Text)
	res.Stats.Parsed = len(candidates)
	g.metrics.Candidates(metrics.StageParsed, len(candidates))
	log.Info("Parsed candidates", "count", len(candidates), "requested", opts.draftCount(), "difficulty", difficulty)

	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return fail(StageVerifying, err)
		}

		item := model.AcceptedItem{
			CandidateItem: c,
			Difficulty:    difficulty,
			Model:         g.model,
		}

		if opts.Verify {
			if !g.verify(ctx, log, passage.Text, c, opts.attempts()) {
				g.metrics.Candidates(metrics.StageRejected, 1)
				continue
			}
			item.Verified = model.BoolPtr(true)
			res.Stats.Verified++
			g.metrics.Candidates(metrics.StageVerified, 1)
		}

		if err := g.enrich(ctx, log, &item, opts.Enrichment, difficulty); err != nil {
			log.Warn("Dropping candidate after enrichment failure", "error", err)
			g.metrics.Candidates(metrics.StageDropped, 1)
			continue
		}

		if opts.Provenance != "" {
			item.Provenance = model.StringPtr(opts.Provenance)
		}
		res.Items = append(res.Items, item)
	}
	res.Stats.Accepted = len(res.Items)

	if opts.Verify && res.Stats.Parsed > 0 {
		log.Info("Verification complete",
			"valid", res.Stats.Verified,
			"total", res.Stats.Parsed,
			"valid_pct", fmt.Sprintf("%.1f", 100*float64(res.Stats.Verified)/float64(res.Stats.Parsed)))
	}

	stamp := g.now().Format(TimestampFormat)
	for i := range res.Items {
		res.Items[i].Timestamp = stamp
		if m := boxed.Last(res.Items[i].Solution); m.Found {
			res.Items[i].BoxedAnswer = model.StringPtr(m.Inner)
		}
	}

	if !opts.Persist || len(res.Items) == 0 {
		log.Debug("Stage", "stage", StageDone)
		return res, nil
	}

	log.Debug("Stage", "stage", StagePersisting)
	if g.store == nil {
		return fail(StagePersisting, fmt.Errorf("no record store configured"))
	}
	for _, item := range res.Items {
		path, err := g.store.Write(model.NewRecord(item))
		if err != nil {
			return fail(StagePersisting, err)
		}
		res.Paths = append(res.Paths, path)
		res.Stats.Persisted++
		g.metrics.Candidates(metrics.StagePersisted, 1)
	}

	log.Info("Persisted questions", "count", res.Stats.Persisted)
	log.Debug("Stage", "stage", StageDone)
	return res, nil
}
