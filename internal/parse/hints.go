package parse

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// A list marker is an integer and a period, at the start of a line or after
// whitespace. The period must be followed by whitespace, so 3.14 is not a marker.
var hintMarker = regexp.MustCompile(`(?m)(^[ \t]*|[ \t]+)(\d+)\.`)

// ExtractHints splits a <hints>...</hints> block into individual hints.
// Markers inside a line only count when they continue the numbering, so
// "1. A 2. B" is two hints but "worth 2. points" stays in one.
func ExtractHints(text string) []string {
	text = strings.ReplaceAll(text, "<hints>", "")
	text = strings.ReplaceAll(text, "</hints>", "")

	var cuts [][2]int
	last := 0
	for _, m := range hintMarker.FindAllStringSubmatchIndex(text, -1) {
		end := m[1]
		if end < len(text) && !unicode.IsSpace(rune(text[end])) {
			continue
		}
		n, err := strconv.Atoi(text[m[4]:m[5]])
		if err != nil {
			continue
		}
		lineStart := m[0] == 0 || text[m[0]-1] == '\n'
		if !lineStart {
			// A number closing a sentence ("x = 3.") is not a marker
			followed := end < len(text) && (text[end] == ' ' || text[end] == '\t')
			if !followed || n != last+1 {
				continue
			}
		}
		cuts = append(cuts, [2]int{m[0], end})
		last = n
	}

	var hints []string
	add := func(fragment string) {
		if hint := strings.TrimSpace(fragment); hint != "" {
			hints = append(hints, hint)
		}
	}
	prev := 0
	for _, c := range cuts {
		add(text[prev:c[0]])
		prev = c[1]
	}
	add(text[prev:])
	return hints
}
