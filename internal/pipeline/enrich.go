package pipeline

import (
	"context"
	"fmt"

	"github.com/ppiankov/qforge/internal/llm"
	"github.com/ppiankov/qforge/internal/logger"
	"github.com/ppiankov/qforge/internal/model"
	"github.com/ppiankov/qforge/internal/parse"
)

// enrich adds hints and a domain label to item as requested. A backend error
// is returned so the caller drops the item.
func (g *Generator) enrich(ctx context.Context, log *logger.Logger, item *model.AcceptedItem, e Enrichment, difficulty model.Difficulty) error {
	if !e.Hints && !e.Domain {
		return nil
	}
	log.Debug("Stage", "stage", StageEnriching)

	if e.Hints {
		resp, err := g.provider.Generate(ctx, llm.GenerateRequest{
			Model:  g.model,
			Prompt: llm.HintsPrompt(item.Question, difficulty),
		})
		if err != nil {
			return fmt.Errorf("hints: %w", err)
		}
		item.Hints = parse.ExtractHints(resp.Text)
	}

	if e.Domain {
		resp, err := g.provider.Generate(ctx, llm.GenerateRequest{
			Model:       g.model,
			Prompt:      llm.DomainPrompt(item.Question, item.Solution),
			Temperature: 0.0,
		})
		if err != nil {
			return fmt.Errorf("domain: %w", err)
		}
		domain, ok := model.ParseDomain(resp.Text)
		if !ok {
			log.Warn("Invalid domain, defaulting to other", "label", resp.Text)
		}
		item.Domain = &domain
	}

	return nil
}
