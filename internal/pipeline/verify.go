package pipeline

import (
	"context"

	"github.com/ppiankov/qforge/internal/boxed"
	"github.com/ppiankov/qforge/internal/llm"
	"github.com/ppiankov/qforge/internal/logger"
	"github.com/ppiankov/qforge/internal/mathcheck"
	"github.com/ppiankov/qforge/internal/model"
)

type attemptResult struct {
	n       int
	outcome model.VerificationOutcome
	err     error
}

// verify re-solves the candidate attempts times in parallel from the passage
// and question alone. The first attempt, in completion order, whose answer is
// equivalent to the candidate's solution accepts it.
func (g *Generator) verify(ctx context.Context, log *logger.Logger, passage string, c model.CandidateItem, attempts int) bool {
	prompt := llm.VerificationPrompt(passage, c.Question)
	results := make(chan attemptResult, attempts)

	for n := 1; n <= attempts; n++ {
		go func(n int) {
			resp, err := g.provider.Generate(ctx, llm.GenerateRequest{
				Model:   g.verificationModel,
				System:  llm.SystemPrompt,
				Prompt:  prompt,
				Variant: n,
			})
			if err != nil {
				g.metrics.Attempt("error")
				results <- attemptResult{n: n, err: err}
				return
			}

			accepted := mathcheck.CheckEquivalence(c.Solution, resp.Text)
			if accepted {
				g.metrics.Attempt("match")
			} else {
				g.metrics.Attempt("mismatch")
			}
			results <- attemptResult{n: n, outcome: model.VerificationOutcome{Accepted: accepted, Evidence: resp.Text}}
		}(n)
	}

	original := boxed.Last(c.Solution).Inner
	failed := 0
	for i := 0; i < attempts; i++ {
		r := <-results
		if r.err != nil {
			failed++
			log.Warn("Verification attempt failed", "attempt", r.n, "error", r.err)
			continue
		}

		log.Debug("Verification attempt",
			"attempt", r.n,
			"original_boxed", original,
			"attempt_boxed", boxed.Last(r.outcome.Evidence).Inner,
			"equivalent", r.outcome.Accepted)
		if r.outcome.Accepted {
			return true
		}
	}

	if failed == attempts {
		log.Warn("All verification attempts failed", "attempts", attempts)
	}
	return false
}
