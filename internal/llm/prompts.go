package llm

import (
	"fmt"
	"strings"

	"github.com/ppiankov/qforge/internal/model"
)

// SystemPrompt is sent with every generation request
const SystemPrompt = "You write rigorous exam questions from textbook material and solve problems step by step."

// QuestionPrompt asks for count distinct question/solution pairs drawn from passage
func QuestionPrompt(passage string, count int, difficulty model.Difficulty) string {
	return fmt.Sprintf(`You are going to be given a textbook snippet.
Your job is to generate %[1]d DIFFERENT questions and solutions.
Don't make up new numerical questions, use the ones in the textbook snippet.

Difficulty: %[2]s (%[3]s)

Here is the textbook snippet:
%[4]s

You MUST generate exactly %[1]d UNIQUE questions and solutions.
Each question should focus on a different aspect or concept from the text.
Every solution MUST end with its final answer in \boxed{...}.

Format your response EXACTLY as follows, repeating for EACH question:

<source>
[Only the part of the snippet this question is based on]
</source>
<question>
[The question]
</question>
<solution>
[A step-by-step solution ending in \boxed{final answer}]
</solution>

DO NOT:
1. Repeat the same question with different wording
2. Paste the entire snippet as the source of every question
3. Nest tags or leave any tag unclosed
`, count, difficulty, difficulty.Description(), passage)
}

// VerificationPrompt asks for an independent solution. It carries only the
// passage and the question, never the original solution.
func VerificationPrompt(passage, question string) string {
	return fmt.Sprintf(`Reference text:
%s

Your answer must be precise and include a final answer in a \boxed{...} format.

Question:
%s

Solve the problem step by step.
`, passage, question)
}

// HintsPrompt asks for two or three numbered hints inside <hints> tags
func HintsPrompt(question string, difficulty model.Difficulty) string {
	return fmt.Sprintf(`You are a helpful teaching assistant. A %s student is struggling with this question.
Generate 2-3 helpful hints that will guide them toward the solution without giving it away.
The hints should:
1. Break down the problem-solving approach into steps
2. Point out key concepts or equations to consider
3. Suggest what to focus on first

Question:
%s

Format your response as:
<hints>
1. [First hint]
2. [Second hint]
3. [Optional third hint if needed]
</hints>
`, difficulty, question)
}

// DomainPrompt asks for exactly one label from the closed domain set
func DomainPrompt(question, solution string) string {
	labels := make([]string, len(model.Domains))
	for i, d := range model.Domains {
		labels[i] = string(d)
	}
	return fmt.Sprintf(`Classify this question into exactly one of these domains: %s

Question: %s
Solution: %s

Respond with ONLY the domain name from the list above that best matches.
Do not include any other text in your response.
`, strings.Join(labels, ", "), question, solution)
}

// EvaluationPrompt asks for a 0/1 grade of candidate against reference
func EvaluationPrompt(candidate, reference string) string {
	return fmt.Sprintf(`Compare a candidate solution with a reference solution.

Reference solution:
%s

Candidate solution:
%s

Does the candidate reach the same final answer as the reference with sound reasoning?
Respond in exactly this format:
SCORE: <1 if correct, 0 if not>
FEEDBACK: <one or two sentences>
`, reference, candidate)
}

// SolvabilityPrompt asks whether question can be solved from its own text alone
func SolvabilityPrompt(question string) string {
	return fmt.Sprintf(`Evaluate if the following problem is solvable given the information provided.
Question: %s

You SHOULD NOT try to solve it. Only reject questions that reference external information not provided in the question, e.g. a figure, table or earlier example.

Your task: Determine if this question is solvable with ONLY the information provided.
Respond with EXACTLY ONE WORD: either "True" if the question is solvable, or "False" if it's not solvable.
`, question)
}
