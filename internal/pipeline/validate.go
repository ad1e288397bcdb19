package pipeline

import (
	"context"

	"github.com/ppiankov/qforge/internal/boxed"
)

// ValidationResult grades a student solution
type ValidationResult struct {
	IsCorrect     bool
	Score         float64
	Feedback      string
	BoxedSolution *string // Final boxed answer of the reference, if any
}

// ValidateSolution grades student against reference with the evaluator
// backend. The solution is correct when its score reaches the threshold.
func (g *Generator) ValidateSolution(ctx context.Context, question, student, reference string) (*ValidationResult, error) {
	ev, err := g.evaluator.Evaluate(ctx, student, reference)
	if err != nil {
		return nil, &StageError{Unit: question, Stage: StageVerifying, Err: err}
	}

	res := &ValidationResult{
		IsCorrect: ev.Score >= g.threshold,
		Score:     ev.Score,
		Feedback:  ev.Feedback,
	}
	if m := boxed.Last(reference); m.Found {
		res.BoxedSolution = &m.Inner
	}
	return res, nil
}
