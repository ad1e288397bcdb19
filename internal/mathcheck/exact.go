package mathcheck

import "math/big"

const (
	// Largest integer exponent evaluated exactly
	maxExactExponent = 512
	// Largest numerator or denominator, in bits, a power may produce
	maxExactBits = 1 << 16
)

// exactValue evaluates tokens as a rational number. ok is false when the
// expression has variables, constants, functions, a non-integer or oversized
// exponent, or a division by zero.
func exactValue(tokens []token) (value *big.Rat, ok bool) {
	p := &ratParser{tokens: tokens}
	v, ok := p.sum()
	if !ok || p.pos != len(p.tokens) {
		return nil, false
	}
	return v, true
}

type ratParser struct {
	tokens []token
	pos    int
}

func (p *ratParser) peekOp(ops string) (string, bool) {
	if p.pos >= len(p.tokens) {
		return "", false
	}
	tok := p.tokens[p.pos]
	if tok.kind != tokOperator {
		return "", false
	}
	for _, op := range ops {
		if tok.value == string(op) {
			return tok.value, true
		}
	}
	return "", false
}

// sum := product (("+" | "-") product)*
func (p *ratParser) sum() (*big.Rat, bool) {
	left, ok := p.product()
	if !ok {
		return nil, false
	}
	for {
		op, found := p.peekOp("+-")
		if !found {
			return left, true
		}
		p.pos++
		right, ok := p.product()
		if !ok {
			return nil, false
		}
		if op == "+" {
			left = new(big.Rat).Add(left, right)
		} else {
			left = new(big.Rat).Sub(left, right)
		}
	}
}

// product := unary (("*" | "/") unary)*
func (p *ratParser) product() (*big.Rat, bool) {
	left, ok := p.unary()
	if !ok {
		return nil, false
	}
	for {
		op, found := p.peekOp("*/")
		if !found {
			return left, true
		}
		p.pos++
		right, ok := p.unary()
		if !ok {
			return nil, false
		}
		if op == "*" {
			left = new(big.Rat).Mul(left, right)
			continue
		}
		if right.Sign() == 0 {
			return nil, false
		}
		left = new(big.Rat).Quo(left, right)
	}
}

// unary := ("+" | "-") unary | power
func (p *ratParser) unary() (*big.Rat, bool) {
	if op, found := p.peekOp("+-"); found {
		p.pos++
		v, ok := p.unary()
		if !ok {
			return nil, false
		}
		if op == "-" {
			return new(big.Rat).Neg(v), true
		}
		return v, true
	}
	return p.power()
}

// power := primary ("^" unary)?, right associative
func (p *ratParser) power() (*big.Rat, bool) {
	base, ok := p.primary()
	if !ok {
		return nil, false
	}
	if _, found := p.peekOp("^"); !found {
		return base, true
	}
	p.pos++
	exp, ok := p.unary()
	if !ok || !exp.IsInt() {
		return nil, false
	}
	n := exp.Num()
	if !n.IsInt64() || n.Int64() > maxExactExponent || n.Int64() < -maxExactExponent {
		return nil, false
	}
	return ratPow(base, n.Int64())
}

func (p *ratParser) primary() (*big.Rat, bool) {
	if p.pos >= len(p.tokens) {
		return nil, false
	}
	tok := p.tokens[p.pos]
	switch tok.kind {
	case tokNumber:
		p.pos++
		return new(big.Rat).SetString(tok.value)
	case tokOpen:
		p.pos++
		v, ok := p.sum()
		if !ok || p.pos >= len(p.tokens) || p.tokens[p.pos].kind != tokClose {
			return nil, false
		}
		p.pos++
		return v, true
	}
	return nil, false
}

func ratPow(base *big.Rat, n int64) (*big.Rat, bool) {
	if n < 0 {
		if base.Sign() == 0 {
			return nil, false
		}
		base = new(big.Rat).Inv(base)
		n = -n
	}
	if int64(base.Num().BitLen())*n > maxExactBits || int64(base.Denom().BitLen())*n > maxExactBits {
		return nil, false
	}
	num := new(big.Int).Exp(base.Num(), big.NewInt(n), nil)
	den := new(big.Int).Exp(base.Denom(), big.NewInt(n), nil)
	return new(big.Rat).SetFrac(num, den), true
}
