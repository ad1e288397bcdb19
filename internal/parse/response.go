// Package parse turns raw generation output into candidate question/solution pairs.
package parse

import (
	"regexp"
	"strings"

	"github.com/ppiankov/qforge/internal/model"
)

// Primary grammar: optional <source>, then <question> and <solution>
var tagPattern = regexp.MustCompile(`(?s)(?:<source>(.*?)</source>\s*)?<question>(.*?)</question>\s*<solution>(.*?)</solution>`)

// Fallback grammar: markdown headings such as "### Question 1" / "### Solution 1"
var headingPattern = regexp.MustCompile(`(?mi)^[ \t]*#{1,6}[ \t]*(question|solution)[ \t]+(?:\d+|[a-z]+)\b[ \t]*[:.)]?`)

// Horizontal rule that also ends a markdown section
var rulePattern = regexp.MustCompile(`(?m)^[ \t]*---+[ \t]*$`)

// Extract returns the candidates found in raw, in order of first appearance.
// No match is not an error; the result is simply empty.
func Extract(raw string) []model.CandidateItem {
	matches := tagPattern.FindAllStringSubmatch(raw, -1)
	if len(matches) > 0 {
		triples := make([]triple, 0, len(matches))
		for _, m := range matches {
			t := triple{question: m[2], solution: m[3]}
			if strings.TrimSpace(m[1]) != "" {
				src := strings.TrimSpace(m[1])
				t.source = &src
			}
			triples = append(triples, t)
		}
		return dedupe(triples)
	}

	return dedupe(extractHeadings(raw))
}

type triple struct {
	source   *string
	question string
	solution string
}

type section struct {
	kind string // "question" or "solution"
	body string
}

// extractHeadings pairs each "Question N" section with the "Solution N" section that follows it
func extractHeadings(raw string) []triple {
	locs := headingPattern.FindAllStringSubmatchIndex(raw, -1)
	if len(locs) == 0 {
		return nil
	}

	sections := make([]section, 0, len(locs))
	for i, loc := range locs {
		end := len(raw)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		body := raw[loc[1]:end]
		if rule := rulePattern.FindStringIndex(body); rule != nil {
			body = body[:rule[0]]
		}
		sections = append(sections, section{
			kind: strings.ToLower(raw[loc[2]:loc[3]]),
			body: body,
		})
	}

	var triples []triple
	for i := 0; i < len(sections); i++ {
		if sections[i].kind != "question" {
			continue
		}
		if i+1 < len(sections) && sections[i+1].kind == "solution" {
			triples = append(triples, triple{
				question: sections[i].body,
				solution: sections[i+1].body,
			})
			i++
		}
	}
	return triples
}

// dedupe trims, drops incomplete blocks and skips repeated questions
func dedupe(triples []triple) []model.CandidateItem {
	seen := make(map[string]bool)
	items := make([]model.CandidateItem, 0, len(triples))

	for _, t := range triples {
		question := strings.TrimSpace(t.question)
		solution := strings.TrimSpace(t.solution)
		if question == "" || solution == "" {
			continue
		}
		if seen[question] {
			continue
		}
		seen[question] = true

		items = append(items, model.CandidateItem{
			Question: question,
			Solution: solution,
			Source:   t.source,
		})
	}

	return items
}

// Format renders candidates in the primary tag grammar
func Format(items []model.CandidateItem) string {
	var b strings.Builder
	for _, item := range items {
		if item.Source != nil {
			b.WriteString("<source>\n")
			b.WriteString(*item.Source)
			b.WriteString("\n</source>\n")
		}
		b.WriteString("<question>\n")
		b.WriteString(item.Question)
		b.WriteString("\n</question>\n<solution>\n")
		b.WriteString(item.Solution)
		b.WriteString("\n</solution>\n\n")
	}
	return b.String()
}
