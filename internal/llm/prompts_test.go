package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ppiankov/qforge/internal/model"
)

func TestQuestionPrompt(t *testing.T) {
	p := QuestionPrompt("Newton's laws of motion.", 7, model.DifficultyGraduate)
	assert.Contains(t, p, "generate 7 DIFFERENT questions")
	assert.Contains(t, p, "Newton's laws of motion.")
	assert.Contains(t, p, model.DifficultyGraduate.Description())
	assert.Contains(t, p, `\boxed{`)
	assert.Contains(t, p, "<question>")
}

func TestVerificationPrompt_OnlyPassageAndQuestion(t *testing.T) {
	p := VerificationPrompt("passage text", "What is 2+2?")
	assert.Contains(t, p, "passage text")
	assert.Contains(t, p, "What is 2+2?")
	assert.Contains(t, p, `\boxed{...}`)
}

func TestDomainPrompt_ListsEveryDomain(t *testing.T) {
	p := DomainPrompt("q", "s")
	for _, d := range model.Domains {
		assert.Contains(t, p, string(d))
	}
}

func TestSolvabilityPrompt(t *testing.T) {
	p := SolvabilityPrompt("Using Figure 3, find x.")
	assert.Contains(t, p, "Using Figure 3, find x.")
	assert.Contains(t, p, `"True"`)
}
