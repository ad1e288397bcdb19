package pipeline

import (
	"math"

	"github.com/ppiankov/qforge/internal/model"
)

const defaultVerificationAttempts = 3

// Enrichment selects the optional per-item calls made after verification
type Enrichment struct {
	Hints  bool
	Domain bool
}

// Options controls one GenerateQuestions call
type Options struct {
	TargetCount int
	Difficulty  model.Difficulty

	Verify bool

	// VerificationThreshold is the minimum evaluator score for ValidateSolution.
	// Equivalence checks during verification are pass/fail.
	VerificationThreshold float64
	VerificationAttempts  int

	// Overgenerate inflates the drafted count when verifying, to make up for attrition
	Overgenerate float64

	// Provenance tags every accepted item, e.g. "calculus_pages_10-12"
	Provenance string

	Enrichment Enrichment
	Persist    bool
}

// DefaultOptions returns the defaults for a single generation call
func DefaultOptions() Options {
	return Options{
		TargetCount:           3,
		Difficulty:            model.DifficultyUndergrad,
		Verify:                true,
		VerificationThreshold: 0.8,
		VerificationAttempts:  defaultVerificationAttempts,
		Overgenerate:          1.0,
		Persist:               true,
	}
}

// OptionsFromConfig builds options from the generation config section
func OptionsFromConfig(cfg model.GenerationConfig) Options {
	opts := DefaultOptions()
	if cfg.QuestionsPerUnit > 0 {
		opts.TargetCount = cfg.QuestionsPerUnit
	}
	if d, ok := model.ParseDifficulty(cfg.Difficulty); ok {
		opts.Difficulty = d
	}
	opts.Verify = cfg.Verify
	if cfg.VerificationThreshold > 0 {
		opts.VerificationThreshold = cfg.VerificationThreshold
	}
	if cfg.VerificationAttempts > 0 {
		opts.VerificationAttempts = cfg.VerificationAttempts
	}
	if cfg.Overgenerate > 0 {
		opts.Overgenerate = cfg.Overgenerate
	}
	opts.Enrichment = Enrichment{Hints: cfg.Hints, Domain: cfg.ClassifyDomain}
	return opts
}

// draftCount is the number of questions to ask for
func (o Options) draftCount() int {
	n := o.TargetCount
	if n <= 0 {
		n = 1
	}
	if o.Verify && o.Overgenerate > 1 {
		n = int(math.Ceil(float64(n) * o.Overgenerate))
	}
	return n
}

func (o Options) attempts() int {
	if o.VerificationAttempts <= 0 {
		return defaultVerificationAttempts
	}
	return o.VerificationAttempts
}

func (o Options) difficulty() model.Difficulty {
	if o.Difficulty.Rank() < 0 {
		return model.DifficultyUndergrad
	}
	return o.Difficulty
}
