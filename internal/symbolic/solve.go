package symbolic

import (
	"math/big"
	"sort"
)

// maxDegree bounds the polynomial degree Solve will inspect.
const maxDegree = 16

// Solve returns the real solutions of an equation for v. It returns nil for
// bare expressions and for equations it cannot solve. An empty, non-nil
// slice means the equation has no real solution.
func Solve(n Node, v string) []Expr {
	eq, ok := n.(Equation)
	if !ok || v == "" {
		return nil
	}
	lhs := Expand(Add{Terms: []Expr{eq.Left, Mul{Factors: []Expr{intNum(-1), eq.Right}}}})
	coeffs, ok := polyCoeffs(lhs, v)
	if !ok {
		return nil
	}

	low := 0
	for low < len(coeffs) && isZero(coeffs[low]) {
		low++
	}
	if low == len(coeffs) {
		// 0 = 0 holds for every value.
		return nil
	}
	roots := []Expr{}
	if low > 0 {
		roots = append(roots, intNum(0))
		coeffs = coeffs[low:]
	}

	switch deg := len(coeffs) - 1; deg {
	case 0:
	case 1:
		roots = append(roots, Simplify(Mul{Factors: []Expr{intNum(-1), coeffs[0], Pow{Base: coeffs[1], Exp: intNum(-1)}}}))
	case 2:
		roots = append(roots, quadratic(coeffs[2], coeffs[1], coeffs[0])...)
	default:
		r, ok := binomial(coeffs, deg)
		if !ok {
			return nil
		}
		roots = append(roots, r...)
	}
	return orderRoots(roots)
}

// SolveAuto solves for t, then x, then any other variable of the equation,
// returning the first variable that yields a non-empty solution set.
func SolveAuto(n Node) (string, []Expr) {
	eq, ok := n.(Equation)
	if !ok {
		return "", nil
	}
	candidates := []string{"t", "x"}
	for _, s := range append(Symbols(eq.Left), Symbols(eq.Right)...) {
		if s != "t" && s != "x" {
			candidates = append(candidates, s)
		}
	}
	for _, v := range candidates {
		if roots := Solve(eq, v); len(roots) > 0 {
			return v, roots
		}
	}
	return "", nil
}

// polyCoeffs reads e as a polynomial in v; index i holds the coefficient of v^i.
func polyCoeffs(e Expr, v string) ([]Expr, bool) {
	parts := map[int][]Expr{}
	top := 0
	for _, t := range termsOf(e) {
		k, coef, ok := monomial(t, v)
		if !ok || k > maxDegree {
			return nil, false
		}
		parts[k] = append(parts[k], coef)
		if k > top {
			top = k
		}
	}
	coeffs := make([]Expr, top+1)
	for i := range coeffs {
		coeffs[i] = makeAdd(parts[i])
	}
	for len(coeffs) > 1 && isZero(coeffs[len(coeffs)-1]) {
		coeffs = coeffs[:len(coeffs)-1]
	}
	return coeffs, true
}

func monomial(t Expr, v string) (int, Expr, bool) {
	if FreeOf(t, v) {
		return 0, t, true
	}
	factors := []Expr{t}
	if m, ok := t.(Mul); ok {
		factors = m.Factors
	}
	k := 0
	var coef []Expr
	for _, f := range factors {
		if FreeOf(f, v) {
			coef = append(coef, f)
			continue
		}
		n, ok := powerOf(f, v)
		if !ok {
			return 0, nil, false
		}
		k += n
	}
	return k, makeMul(coef), true
}

// powerOf matches v and v^n for a non-negative integer n.
func powerOf(f Expr, v string) (int, bool) {
	switch x := f.(type) {
	case Sym:
		return 1, x.Name == v
	case Pow:
		s, ok := x.Base.(Sym)
		if !ok || s.Name != v {
			return 0, false
		}
		n, ok := asNum(x.Exp)
		if !ok || !n.V.IsInt() || n.V.Sign() < 0 || !n.V.Num().IsInt64() {
			return 0, false
		}
		return int(n.V.Num().Int64()), true
	}
	return 0, false
}

func quadratic(a, b, c Expr) []Expr {
	disc := Simplify(Add{Terms: []Expr{
		Pow{Base: b, Exp: intNum(2)},
		Mul{Factors: []Expr{intNum(-4), a, c}},
	}})
	twoA := Pow{Base: Mul{Factors: []Expr{intNum(2), a}}, Exp: intNum(-1)}
	negB := Mul{Factors: []Expr{intNum(-1), b}}

	if d, ok := asNum(disc); ok {
		switch d.V.Sign() {
		case -1:
			return nil
		case 0:
			return []Expr{Simplify(Mul{Factors: []Expr{negB, twoA}})}
		}
	}
	root := makePow(disc, ratNum(1, 2))
	return []Expr{
		Simplify(Mul{Factors: []Expr{Add{Terms: []Expr{negB, Mul{Factors: []Expr{intNum(-1), root}}}}, twoA}}),
		Simplify(Mul{Factors: []Expr{Add{Terms: []Expr{negB, root}}, twoA}}),
	}
}

// binomial solves c_n v^n + c_0 = 0 with numeric coefficients.
func binomial(coeffs []Expr, deg int) ([]Expr, bool) {
	for i := 1; i < deg; i++ {
		if !isZero(coeffs[i]) {
			return nil, false
		}
	}
	c0, ok0 := asNum(coeffs[0])
	cn, okn := asNum(coeffs[deg])
	if !ok0 || !okn {
		return nil, false
	}
	r := new(big.Rat).Quo(new(big.Rat).Neg(c0.V), cn.V)
	exp := ratNum(1, int64(deg))
	if deg%2 == 1 {
		return []Expr{makePow(Num{V: r}, exp)}, true
	}
	if r.Sign() < 0 {
		return nil, true
	}
	pos := makePow(Num{V: r}, exp)
	return []Expr{Simplify(Mul{Factors: []Expr{intNum(-1), pos}}), pos}, true
}

// orderRoots drops duplicates and sorts numerically when every root is
// closed.
func orderRoots(roots []Expr) []Expr {
	out := make([]Expr, 0, len(roots))
	seen := map[string]bool{}
	for _, r := range roots {
		key := r.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	values := make([]float64, len(out))
	for i, r := range out {
		f, ok := Float(r)
		if !ok {
			return out
		}
		values[i] = f
	}
	sort.Sort(byValue{roots: out, values: values})
	return out
}

type byValue struct {
	roots  []Expr
	values []float64
}

func (b byValue) Len() int           { return len(b.roots) }
func (b byValue) Less(i, j int) bool { return b.values[i] < b.values[j] }
func (b byValue) Swap(i, j int) {
	b.roots[i], b.roots[j] = b.roots[j], b.roots[i]
	b.values[i], b.values[j] = b.values[j], b.values[i]
}
