// Package boxed locates \boxed{...} answers in LaTeX text.
//
// Every caller that needs the content of a boxed answer goes through this
// package so the brace-depth rules stay identical everywhere.
package boxed

import "strings"

// Marker opens a boxed answer
const Marker = `\boxed{`

// Match is the result of a lookup
type Match struct {
	Inner string // Text between the braces, untrimmed
	Found bool
}

// Last returns the content of the last well-formed \boxed{...} in s.
// Solutions state their final result last, so this is the answer that is
// both verified and persisted.
func Last(s string) Match {
	for end := len(s); end > 0; {
		idx := strings.LastIndex(s[:end], Marker)
		if idx < 0 {
			break
		}
		if m := at(s, idx); m.Found {
			return m
		}
		end = idx
	}
	return Match{}
}

func at(s string, idx int) Match {
	open := idx + len(Marker) - 1
	end, ok := MatchBrace(s, open)
	if !ok {
		return Match{}
	}
	return Match{Inner: s[open+1 : end], Found: true}
}

// MatchBrace returns the index of the '}' closing the '{' at s[open].
// Braces are counted by depth so nested groups such as \frac{1}{2} are skipped.
func MatchBrace(s string, open int) (int, bool) {
	if open < 0 || open >= len(s) || s[open] != '{' {
		return 0, false
	}
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
