package mathcheck

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/ppiankov/qforge/internal/boxed"
)

// ErrUnsupported marks LaTeX that cannot be turned into an arithmetic expression
var ErrUnsupported = errors.New("unsupported expression")

// Layout-only commands, removed before translation
var layoutCommands = []string{
	`\displaystyle`, `\left`, `\right`, `\qquad`, `\quad`, `\,`, `\;`, `\:`, `\!`, `\ `,
}

// Commands with a direct operator or name equivalent
var commandReplacer = strings.NewReplacer(
	`\cdot`, "*",
	`\times`, "*",
	`\div`, "/",
	`\pi`, " pi ",
	`\sin`, " sin ",
	`\cos`, " cos ",
	`\tan`, " tan ",
	`\ln`, " ln ",
	`\log`, " log ",
	`\exp`, " exp ",
)

var functions = map[string]bool{
	"sqrt": true, "sin": true, "cos": true, "tan": true,
	"ln": true, "log": true, "exp": true,
}

var constants = map[string]bool{
	"pi": true,
}

// lex reduces a LaTeX math fragment to tokens with every implicit
// multiplication written out
func lex(latex string) ([]token, error) {
	s := strings.TrimSpace(latex)
	s = strings.Trim(s, "$")
	s = strings.TrimRight(s, ".,; ")
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrUnsupported)
	}

	for _, cmd := range layoutCommands {
		s = strings.ReplaceAll(s, cmd, "")
	}

	s, err := rewriteGroups(s)
	if err != nil {
		return nil, err
	}

	s = commandReplacer.Replace(s)
	if strings.Contains(s, `\`) {
		return nil, fmt.Errorf("%w: unknown command in %q", ErrUnsupported, latex)
	}
	s = strings.ReplaceAll(s, "**", "^")
	s = strings.NewReplacer("{", "(", "}", ")", "[", "(", "]", ")").Replace(s)

	tokens, err := tokenize(s)
	if err != nil {
		return nil, err
	}
	return explicit(tokens), nil
}

// rewriteGroups expands brace-argument commands: \frac, \dfrac, \tfrac and \sqrt
func rewriteGroups(s string) (string, error) {
	var out strings.Builder

	for i := 0; i < len(s); {
		if s[i] != '\\' {
			out.WriteByte(s[i])
			i++
			continue
		}

		name := commandName(s, i)
		switch name {
		case "frac", "dfrac", "tfrac":
			num, next, err := group(s, i+1+len(name))
			if err != nil {
				return "", err
			}
			den, next, err := group(s, next)
			if err != nil {
				return "", err
			}
			num, err = rewriteGroups(num)
			if err != nil {
				return "", err
			}
			den, err = rewriteGroups(den)
			if err != nil {
				return "", err
			}
			out.WriteString("((" + num + ")/(" + den + "))")
			i = next

		case "sqrt":
			pos := i + 1 + len(name)
			index := ""
			if pos < len(s) && s[pos] == '[' {
				end := strings.IndexByte(s[pos:], ']')
				if end < 0 {
					return "", fmt.Errorf("%w: unterminated root index", ErrUnsupported)
				}
				index = s[pos+1 : pos+end]
				pos += end + 1
			}
			arg, next, err := group(s, pos)
			if err != nil {
				return "", err
			}
			arg, err = rewriteGroups(arg)
			if err != nil {
				return "", err
			}
			if index != "" {
				out.WriteString("((" + arg + ")^(1/(" + index + ")))")
			} else {
				out.WriteString("sqrt(" + arg + ")")
			}
			i = next

		case "text", "textrm", "textbf", "mathrm", "mathbf", "operatorname", "mbox":
			return "", fmt.Errorf("%w: text content", ErrUnsupported)

		default:
			out.WriteByte(s[i])
			i++
		}
	}

	return out.String(), nil
}

// commandName reads the alphabetic command name following the backslash at s[i]
func commandName(s string, i int) string {
	j := i + 1
	for j < len(s) && ((s[j] >= 'a' && s[j] <= 'z') || (s[j] >= 'A' && s[j] <= 'Z')) {
		j++
	}
	return s[i+1 : j]
}

// group reads a brace group starting at or after pos (spaces skipped). A bare
// single character is accepted as a group, as in \frac12.
func group(s string, pos int) (string, int, error) {
	for pos < len(s) && s[pos] == ' ' {
		pos++
	}
	if pos >= len(s) {
		return "", 0, fmt.Errorf("%w: missing argument", ErrUnsupported)
	}
	if s[pos] != '{' {
		return s[pos : pos+1], pos + 1, nil
	}
	end, ok := boxed.MatchBrace(s, pos)
	if !ok {
		return "", 0, fmt.Errorf("%w: unbalanced braces", ErrUnsupported)
	}
	return s[pos+1 : end], end + 1, nil
}

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokVariable
	tokConstant
	tokFunction
	tokOperator
	tokOpen
	tokClose
)

type token struct {
	kind     tokenKind
	value    string
	implicit bool // multiplication inserted between adjacent operands
}

// tokenize splits the rewritten text. Unknown multi-letter words are read as
// products of single-letter variables, so "xy" means x*y.
func tokenize(s string) ([]token, error) {
	var tokens []token
	runes := []rune(s)

	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++

		case unicode.IsDigit(r) || r == '.':
			j := i
			dots := 0
			for j < len(runes) && (unicode.IsDigit(runes[j]) || runes[j] == '.') {
				if runes[j] == '.' {
					dots++
				}
				j++
			}
			lit := string(runes[i:j])
			if dots > 1 || lit == "." {
				return nil, fmt.Errorf("%w: bad number %q", ErrUnsupported, lit)
			}
			tokens = append(tokens, token{kind: tokNumber, value: floatLiteral(lit)})
			i = j

		case r < unicode.MaxASCII && unicode.IsLetter(r):
			j := i
			for j < len(runes) && runes[j] < unicode.MaxASCII && unicode.IsLetter(runes[j]) {
				j++
			}
			word := string(runes[i:j])
			switch {
			case functions[word]:
				k := j
				for k < len(runes) && unicode.IsSpace(runes[k]) {
					k++
				}
				if k >= len(runes) || runes[k] != '(' {
					return nil, fmt.Errorf("%w: %s without parentheses", ErrUnsupported, word)
				}
				tokens = append(tokens, token{kind: tokFunction, value: word})
			case constants[word]:
				tokens = append(tokens, token{kind: tokConstant, value: word})
			default:
				for _, letter := range word {
					tokens = append(tokens, token{kind: tokVariable, value: varName(letter)})
				}
			}
			i = j

		case strings.ContainsRune("+-*/^", r):
			tokens = append(tokens, token{kind: tokOperator, value: string(r)})
			i++

		case r == '(':
			tokens = append(tokens, token{kind: tokOpen, value: "("})
			i++

		case r == ')':
			tokens = append(tokens, token{kind: tokClose, value: ")"})
			i++

		default:
			return nil, fmt.Errorf("%w: character %q", ErrUnsupported, r)
		}
	}

	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: no tokens", ErrUnsupported)
	}
	return tokens, nil
}

// explicit inserts the multiplications LaTeX leaves implicit
func explicit(tokens []token) []token {
	out := make([]token, 0, len(tokens))
	for i, tok := range tokens {
		if i > 0 && endsOperand(tokens[i-1]) && startsOperand(tok) {
			out = append(out, token{kind: tokOperator, value: "*", implicit: true})
		}
		out = append(out, tok)
	}
	return out
}

// render joins tokens into expression source and lists the free variables
func render(tokens []token) (string, []string, error) {
	var out strings.Builder
	seen := make(map[string]bool)
	var vars []string

	for _, tok := range tokens {
		if tok.implicit {
			out.WriteString(" * ")
			continue
		}
		out.WriteString(tok.value)
		if tok.kind == tokVariable && !seen[tok.value] {
			seen[tok.value] = true
			vars = append(vars, tok.value)
		}
	}

	return out.String(), vars, nil
}

func endsOperand(t token) bool {
	switch t.kind {
	case tokNumber, tokVariable, tokConstant, tokClose:
		return true
	}
	return false
}

func startsOperand(t token) bool {
	switch t.kind {
	case tokNumber, tokVariable, tokConstant, tokFunction, tokOpen:
		return true
	}
	return false
}

// floatLiteral normalizes a numeral so every literal is a float
func floatLiteral(lit string) string {
	if strings.HasPrefix(lit, ".") {
		lit = "0" + lit
	}
	if strings.HasSuffix(lit, ".") {
		return lit + "0"
	}
	if !strings.Contains(lit, ".") {
		return lit + ".0"
	}
	return lit
}

// varName prefixes single-letter variables so they never collide with
// expression keywords or builtins
func varName(letter rune) string {
	return "v_" + string(letter)
}
