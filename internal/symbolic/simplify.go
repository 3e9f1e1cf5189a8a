package symbolic

import (
	"math"
	"math/big"
	"sort"
)

// maxIntExponent bounds exact integer powers of rationals.
const maxIntExponent = 64

// Simplify returns a canonical form of e: sums and products flattened,
// constants folded, like terms and equal bases combined.
func Simplify(e Expr) Expr {
	switch x := e.(type) {
	case Add:
		terms := make([]Expr, len(x.Terms))
		for i, t := range x.Terms {
			terms[i] = Simplify(t)
		}
		return makeAdd(terms)
	case Mul:
		factors := make([]Expr, len(x.Factors))
		for i, f := range x.Factors {
			factors[i] = Simplify(f)
		}
		return makeMul(factors)
	case Pow:
		return makePow(Simplify(x.Base), Simplify(x.Exp))
	case Call:
		return makeCall(x.Fn, Simplify(x.Arg))
	}
	return e
}

// Expand distributes products over sums and expands small integer powers
// of sums.
func Expand(e Expr) Expr {
	e = Simplify(e)
	switch x := e.(type) {
	case Add:
		terms := make([]Expr, len(x.Terms))
		for i, t := range x.Terms {
			terms[i] = Expand(t)
		}
		return makeAdd(terms)
	case Mul:
		sum := []Expr{intNum(1)}
		for _, f := range x.Factors {
			sum = crossMul(sum, termsOf(Expand(f)))
		}
		return makeAdd(sum)
	case Pow:
		base := Expand(x.Base)
		if a, ok := base.(Add); ok {
			if n, ok := asNum(x.Exp); ok && n.V.IsInt() {
				k := n.V.Num().Int64()
				if k >= 2 && k <= 10 {
					sum := []Expr{intNum(1)}
					for i := int64(0); i < k; i++ {
						sum = crossMul(sum, a.Terms)
					}
					return makeAdd(sum)
				}
			}
		}
		return makePow(base, x.Exp)
	case Call:
		return makeCall(x.Fn, Expand(x.Arg))
	}
	return e
}

func termsOf(e Expr) []Expr {
	if a, ok := e.(Add); ok {
		return a.Terms
	}
	return []Expr{e}
}

func crossMul(left, right []Expr) []Expr {
	out := make([]Expr, 0, len(left)*len(right))
	for _, l := range left {
		for _, r := range right {
			out = append(out, makeMul([]Expr{l, r}))
		}
	}
	return out
}

func makeAdd(terms []Expr) Expr {
	var flat []Expr
	for _, t := range terms {
		if a, ok := t.(Add); ok {
			flat = append(flat, a.Terms...)
			continue
		}
		flat = append(flat, t)
	}

	type group struct {
		coef *big.Rat
		rest Expr
	}
	constant := new(big.Rat)
	groups := map[string]*group{}
	var order []string
	for _, t := range flat {
		if n, ok := asNum(t); ok {
			constant.Add(constant, n.V)
			continue
		}
		c, rest := splitCoef(t)
		key := rest.String()
		g, ok := groups[key]
		if !ok {
			g = &group{coef: new(big.Rat), rest: rest}
			groups[key] = g
			order = append(order, key)
		}
		g.coef.Add(g.coef, c)
	}

	var out []Expr
	for _, key := range order {
		g := groups[key]
		if g.coef.Sign() == 0 {
			continue
		}
		out = append(out, scale(g.coef, g.rest))
	}
	sortTerms(out)
	if constant.Sign() != 0 || len(out) == 0 {
		out = append(out, Num{V: constant})
	}
	if len(out) == 1 {
		return out[0]
	}
	return Add{Terms: out}
}

// splitCoef separates the numeric coefficient of a term.
func splitCoef(t Expr) (*big.Rat, Expr) {
	if m, ok := t.(Mul); ok && len(m.Factors) > 1 {
		if c, ok := asNum(m.Factors[0]); ok {
			rest := m.Factors[1:]
			if len(rest) == 1 {
				return new(big.Rat).Set(c.V), rest[0]
			}
			return new(big.Rat).Set(c.V), Mul{Factors: append([]Expr(nil), rest...)}
		}
	}
	return big.NewRat(1, 1), t
}

func scale(c *big.Rat, rest Expr) Expr {
	if c.Cmp(big.NewRat(1, 1)) == 0 {
		return rest
	}
	coef := Num{V: new(big.Rat).Set(c)}
	if m, ok := rest.(Mul); ok {
		return Mul{Factors: append([]Expr{coef}, m.Factors...)}
	}
	return Mul{Factors: []Expr{coef, rest}}
}

func sortTerms(terms []Expr) {
	sort.SliceStable(terms, func(i, j int) bool {
		di, dj := degree(terms[i]), degree(terms[j])
		if di != dj {
			return di > dj
		}
		_, ri := splitCoef(terms[i])
		_, rj := splitCoef(terms[j])
		return ri.String() < rj.String()
	})
}

// degree is the total polynomial degree used to order terms.
func degree(e Expr) float64 {
	switch x := e.(type) {
	case Sym:
		if x.Name == Pi.Name {
			return 0
		}
		return 1
	case Pow:
		if n, ok := asNum(x.Exp); ok {
			f, _ := n.V.Float64()
			return degree(x.Base) * f
		}
		return degree(x.Base)
	case Mul:
		d := 0.0
		for _, f := range x.Factors {
			d += degree(f)
		}
		return d
	case Add:
		d := 0.0
		for _, t := range x.Terms {
			d = math.Max(d, degree(t))
		}
		return d
	case Call:
		return 1
	}
	return 0
}

func makeMul(factors []Expr) Expr {
	var flat []Expr
	for _, f := range factors {
		if m, ok := f.(Mul); ok {
			flat = append(flat, m.Factors...)
			continue
		}
		flat = append(flat, f)
	}

	type group struct {
		base Expr
		exps []Expr
	}
	coef := big.NewRat(1, 1)
	groups := map[string]*group{}
	var order []string
	for _, f := range flat {
		if n, ok := asNum(f); ok {
			coef.Mul(coef, n.V)
			continue
		}
		base, exp := f, Expr(intNum(1))
		if p, ok := f.(Pow); ok {
			base, exp = p.Base, p.Exp
		}
		key := base.String()
		g, ok := groups[key]
		if !ok {
			g = &group{base: base}
			groups[key] = g
			order = append(order, key)
		}
		g.exps = append(g.exps, exp)
	}
	if coef.Sign() == 0 {
		return intNum(0)
	}

	var out []Expr
	for _, key := range order {
		g := groups[key]
		f := makePow(g.base, makeAdd(g.exps))
		switch v := f.(type) {
		case Num:
			coef.Mul(coef, v.V)
		case Mul:
			for _, inner := range v.Factors {
				if n, ok := asNum(inner); ok {
					coef.Mul(coef, n.V)
					continue
				}
				out = append(out, inner)
			}
		default:
			out = append(out, f)
		}
	}
	if coef.Sign() == 0 {
		return intNum(0)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].String() < out[j].String() })

	c := Num{V: coef}
	switch {
	case len(out) == 0:
		return c
	case len(out) == 1:
		if isOne(c) {
			return out[0]
		}
		if a, ok := out[0].(Add); ok {
			scaled := make([]Expr, len(a.Terms))
			for i, t := range a.Terms {
				scaled[i] = makeMul([]Expr{c, t})
			}
			return makeAdd(scaled)
		}
	}
	if isOne(c) {
		return Mul{Factors: out}
	}
	return Mul{Factors: append([]Expr{c}, out...)}
}

func makePow(base, exp Expr) Expr {
	if isZero(exp) {
		return intNum(1)
	}
	if isOne(exp) {
		return base
	}
	if b, ok := asNum(base); ok {
		if isOne(b) {
			return intNum(1)
		}
		if e, ok := asNum(exp); ok {
			if b.V.Sign() == 0 && e.V.Sign() > 0 {
				return intNum(0)
			}
			if r, ok := ratPow(b.V, e.V); ok {
				return Num{V: r}
			}
			if out, ok := extractRoot(b.V, e.V); ok {
				return out
			}
		}
	}
	if e, ok := asNum(exp); ok && e.V.IsInt() {
		switch b := base.(type) {
		case Pow:
			return makePow(b.Base, makeMul([]Expr{b.Exp, exp}))
		case Mul:
			factors := make([]Expr, len(b.Factors))
			for i, f := range b.Factors {
				factors[i] = makePow(f, exp)
			}
			return makeMul(factors)
		}
	}
	return Pow{Base: base, Exp: exp}
}

func makeCall(fn string, arg Expr) Expr {
	switch fn {
	case FnSin, FnTan:
		if isZero(arg) || fn == FnSin && arg == Expr(Pi) {
			return intNum(0)
		}
	case FnCos:
		if isZero(arg) {
			return intNum(1)
		}
		if arg == Expr(Pi) {
			return intNum(-1)
		}
	case FnExp:
		if isZero(arg) {
			return intNum(1)
		}
		if c, ok := arg.(Call); ok && c.Fn == FnLn {
			return c.Arg
		}
	case FnLn:
		if isOne(arg) {
			return intNum(0)
		}
		if c, ok := arg.(Call); ok && c.Fn == FnExp {
			return c.Arg
		}
	case FnAbs:
		if n, ok := asNum(arg); ok {
			return Num{V: new(big.Rat).Abs(n.V)}
		}
		if c, ok := arg.(Call); ok && c.Fn == FnAbs {
			return c
		}
	}
	return Call{Fn: fn, Arg: arg}
}

// ratPow computes b^e exactly when the result is rational.
func ratPow(b, e *big.Rat) (*big.Rat, bool) {
	if e.IsInt() {
		if !e.Num().IsInt64() {
			return nil, false
		}
		n := e.Num().Int64()
		if n > maxIntExponent || n < -maxIntExponent {
			return nil, false
		}
		if b.Sign() == 0 && n < 0 {
			return nil, false
		}
		abs := n
		if abs < 0 {
			abs = -abs
		}
		k := big.NewInt(abs)
		num := new(big.Int).Exp(b.Num(), k, nil)
		den := new(big.Int).Exp(b.Denom(), k, nil)
		r := new(big.Rat).SetFrac(num, den)
		if n < 0 {
			r.Inv(r)
		}
		return r, true
	}
	if !e.Denom().IsInt64() || !e.Num().IsInt64() {
		return nil, false
	}
	q := e.Denom().Int64()
	if q > 8 {
		return nil, false
	}
	root, ok := ratRoot(b, q)
	if !ok {
		return nil, false
	}
	return ratPow(root, new(big.Rat).SetInt(e.Num()))
}

func ratRoot(b *big.Rat, q int64) (*big.Rat, bool) {
	neg := b.Sign() < 0
	if neg && q%2 == 0 {
		return nil, false
	}
	num, ok := intRoot(new(big.Int).Abs(b.Num()), q)
	if !ok {
		return nil, false
	}
	den, ok := intRoot(b.Denom(), q)
	if !ok {
		return nil, false
	}
	r := new(big.Rat).SetFrac(num, den)
	if neg {
		r.Neg(r)
	}
	return r, true
}

func intRoot(n *big.Int, q int64) (*big.Int, bool) {
	if q == 2 {
		s := new(big.Int).Sqrt(n)
		return s, new(big.Int).Mul(s, s).Cmp(n) == 0
	}
	if !n.IsInt64() {
		return nil, false
	}
	guess := int64(math.Round(math.Pow(float64(n.Int64()), 1/float64(q))))
	for c := guess - 1; c <= guess+1; c++ {
		if c < 0 {
			continue
		}
		p := new(big.Int).Exp(big.NewInt(c), big.NewInt(q), nil)
		if p.Cmp(n) == 0 {
			return big.NewInt(c), true
		}
	}
	return nil, false
}

// extractRoot pulls perfect powers out of an integer root: √8 is 2√2.
func extractRoot(b, e *big.Rat) (Expr, bool) {
	if !b.IsInt() || b.Sign() <= 0 || !b.Num().IsInt64() || e.Num().Cmp(big.NewInt(1)) != 0 || !e.Denom().IsInt64() {
		return nil, false
	}
	n, q := b.Num().Int64(), e.Denom().Int64()
	if q > 8 || n > 1_000_000_000_000 {
		return nil, false
	}
	outside := int64(1)
	for k := int64(2); ; k++ {
		kq := int64(1)
		for i := int64(0); i < q; i++ {
			kq *= k
		}
		if kq > n {
			break
		}
		for n%kq == 0 {
			n /= kq
			outside *= k
		}
	}
	if outside == 1 {
		return nil, false
	}
	return Mul{Factors: []Expr{intNum(outside), Pow{Base: intNum(n), Exp: Num{V: new(big.Rat).Set(e)}}}}, true
}

// Float evaluates a closed expression numerically.
func Float(e Expr) (float64, bool) {
	var v float64
	switch x := e.(type) {
	case Num:
		v, _ = x.V.Float64()
	case Sym:
		if x.Name != Pi.Name {
			return 0, false
		}
		v = math.Pi
	case Add:
		for _, t := range x.Terms {
			f, ok := Float(t)
			if !ok {
				return 0, false
			}
			v += f
		}
	case Mul:
		v = 1
		for _, t := range x.Factors {
			f, ok := Float(t)
			if !ok {
				return 0, false
			}
			v *= f
		}
	case Pow:
		b, ok := Float(x.Base)
		if !ok {
			return 0, false
		}
		p, ok := Float(x.Exp)
		if !ok {
			return 0, false
		}
		if b < 0 && isRatExp(x.Exp, 3) {
			v = -math.Cbrt(-b)
		} else {
			v = math.Pow(b, p)
		}
	case Call:
		a, ok := Float(x.Arg)
		if !ok {
			return 0, false
		}
		switch x.Fn {
		case FnSin:
			v = math.Sin(a)
		case FnCos:
			v = math.Cos(a)
		case FnTan:
			v = math.Tan(a)
		case FnExp:
			v = math.Exp(a)
		case FnLn:
			v = math.Log(a)
		case FnAbs:
			v = math.Abs(a)
		default:
			return 0, false
		}
	default:
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func isRatExp(e Expr, q int64) bool {
	n, ok := asNum(e)
	return ok && n.V.Cmp(big.NewRat(1, q)) == 0
}
