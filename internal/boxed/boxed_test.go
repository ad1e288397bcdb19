package boxed

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLast(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		want  string
		found bool
	}{
		{"simple", `the answer is \boxed{3}`, "3", true},
		{"nested braces", `\boxed{\frac{1}{2}}`, `\frac{1}{2}`, true},
		{"deep nesting", `\boxed{\sqrt{\frac{a}{b^{2}}}} done`, `\sqrt{\frac{a}{b^{2}}}`, true},
		{"last of two", `step \boxed{1} and finally \boxed{\frac{3}{4}}.`, `\frac{3}{4}`, true},
		{"unterminated last falls back", `\boxed{5} and then \boxed{6`, "5", true},
		{"missing", `no box here`, "", false},
		{"unterminated", `\boxed{1 + {2}`, "", false},
		{"empty", `\boxed{}`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Last(tt.in)
			assert.Equal(t, tt.found, m.Found)
			assert.Equal(t, tt.want, m.Inner)
		})
	}
}

func TestMatchBrace(t *testing.T) {
	s := "{a{b}c}d"
	end, ok := MatchBrace(s, 0)
	assert.True(t, ok)
	assert.Equal(t, 6, end)

	end, ok = MatchBrace(s, 2)
	assert.True(t, ok)
	assert.Equal(t, 4, end)

	_, ok = MatchBrace(s, 1)
	assert.False(t, ok)

	_, ok = MatchBrace("{open", 0)
	assert.False(t, ok)

	_, ok = MatchBrace("", 0)
	assert.False(t, ok)
}
