// Package mathcheck decides whether two final answers, usually written as
// \boxed{...} LaTeX, denote the same mathematical value.
package mathcheck

import (
	"fmt"
	"hash/fnv"
	"math"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/ppiankov/qforge/internal/boxed"
)

// Relative tolerance for floating-point comparison. Expressions made only of
// numbers and arithmetic are compared exactly instead.
const tolerance = 1e-12

// Base values for variable sampling; non-integers to avoid accidental identities
var sampleBases = []float64{0.37, 1.29, 2.71, -0.83, 1.5707, 4.4}

// CheckEquivalence reports whether expected and candidate denote the same answer.
//
// An answer boxed on one side only is never equivalent. Otherwise the final
// boxed content (or the whole text) is reduced to what follows its last "=", then
// both sides are compared symbolically. When either side cannot be read as
// an arithmetic expression the comparison falls back to whitespace- and
// case-insensitive string equality. It never panics and is symmetric.
func CheckEquivalence(expected, candidate string) (equal bool) {
	defer func() {
		if r := recover(); r != nil {
			equal = false
		}
	}()

	a := boxed.Last(expected)
	b := boxed.Last(candidate)
	if a.Found != b.Found {
		return false
	}

	left, right := expected, candidate
	if a.Found {
		left, right = a.Inner, b.Inner
	}
	left = afterLastEquals(left)
	right = afterLastEquals(right)

	if eq, decided := symbolicEqual(left, right); decided {
		return eq
	}
	return literalEqual(left, right)
}

func afterLastEquals(s string) string {
	if i := strings.LastIndex(s, "="); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(s)
}

func literalEqual(a, b string) bool {
	return normalizeLiteral(a) == normalizeLiteral(b)
}

func normalizeLiteral(s string) string {
	s = strings.Join(strings.Fields(s), "")
	return strings.ToLower(s)
}

// symbolicEqual compares pure arithmetic exactly and everything else at shared
// sample points. decided is false when either side is not an expression or no
// point yields finite values on both.
func symbolicEqual(left, right string) (equal, decided bool) {
	leftTokens, err := lex(left)
	if err != nil {
		return false, false
	}
	rightTokens, err := lex(right)
	if err != nil {
		return false, false
	}

	if l, ok := exactValue(leftTokens); ok {
		if r, ok := exactValue(rightTokens); ok {
			return l.Cmp(r) == 0, true
		}
	}

	leftSrc, leftVars, err := render(leftTokens)
	if err != nil {
		return false, false
	}
	rightSrc, rightVars, err := render(rightTokens)
	if err != nil {
		return false, false
	}

	vars := union(leftVars, rightVars)
	env := baseEnv(vars)

	leftProg, err := expr.Compile(leftSrc, expr.Env(env))
	if err != nil {
		return false, false
	}
	rightProg, err := expr.Compile(rightSrc, expr.Env(env))
	if err != nil {
		return false, false
	}

	points := len(sampleBases)
	if len(vars) == 0 {
		points = 1
	}

	valid := 0
	for k := 0; k < points; k++ {
		for _, name := range vars {
			env[name] = sampleValue(name, k)
		}

		l, err := run(leftProg, env)
		if err != nil {
			return false, false
		}
		r, err := run(rightProg, env)
		if err != nil {
			return false, false
		}
		if !finite(l) || !finite(r) {
			continue
		}
		valid++
		if !closeEnough(l, r) {
			return false, true
		}
	}

	if valid == 0 {
		return false, false
	}
	return true, true
}

func baseEnv(vars []string) map[string]any {
	env := map[string]any{
		"pi":   math.Pi,
		"sqrt": math.Sqrt,
		"sin":  math.Sin,
		"cos":  math.Cos,
		"tan":  math.Tan,
		"ln":   math.Log,
		"log":  math.Log,
		"exp":  math.Exp,
	}
	for _, name := range vars {
		env[name] = 0.0
	}
	return env
}

func run(program *vm.Program, env map[string]any) (float64, error) {
	out, err := expr.Run(program, env)
	if err != nil {
		return 0, err
	}
	switch v := out.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("%w: result of type %T", ErrUnsupported, out)
	}
}

// sampleValue is a deterministic, name-dependent value for sample k
func sampleValue(name string, k int) float64 {
	h := fnv.New32a()
	_, _ = fmt.Fprintf(h, "%s/%d", name, k)
	jitter := float64(h.Sum32()%10007) / 10007.0
	return sampleBases[k] * (1 + jitter)
}

func union(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, list := range [][]string{a, b} {
		for _, name := range list {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// closeEnough is a purely relative comparison, so tiny magnitudes are not
// swallowed by an absolute floor
func closeEnough(a, b float64) bool {
	if a == b {
		return true
	}
	return math.Abs(a-b) <= tolerance*math.Max(math.Abs(a), math.Abs(b))
}
