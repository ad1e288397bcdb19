package llm

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	scorePattern    = regexp.MustCompile(`(?i)score\s*[:=]\s*([01](?:\.\d+)?)`)
	feedbackPattern = regexp.MustCompile(`(?is)feedback\s*[:=]\s*(.*)`)
)

// Evaluation is a 0/1 grade of a candidate solution
type Evaluation struct {
	Score    float64
	Feedback string
}

// Evaluator grades a candidate solution against a reference with the backend
type Evaluator struct {
	provider Provider
	model    string
}

func NewEvaluator(p Provider, model string) *Evaluator {
	return &Evaluator{provider: p, model: model}
}

// Evaluate asks the backend for a grade. An answer without a readable score
// counts as 0 with the raw text kept as feedback.
func (e *Evaluator) Evaluate(ctx context.Context, candidate, reference string) (Evaluation, error) {
	resp, err := e.provider.Generate(ctx, GenerateRequest{
		Model:       e.model,
		Prompt:      EvaluationPrompt(candidate, reference),
		Temperature: 0.0,
	})
	if err != nil {
		return Evaluation{}, fmt.Errorf("evaluate: %w", err)
	}
	return parseEvaluation(resp.Text), nil
}

func parseEvaluation(text string) Evaluation {
	var ev Evaluation

	if m := scorePattern.FindStringSubmatch(text); m != nil {
		if score, err := strconv.ParseFloat(m[1], 64); err == nil {
			ev.Score = score
		}
	} else {
		ev.Feedback = "unreadable grade: " + strings.TrimSpace(text)
		return ev
	}

	if m := feedbackPattern.FindStringSubmatch(text); m != nil {
		ev.Feedback = strings.TrimSpace(m[1])
	}
	return ev
}
