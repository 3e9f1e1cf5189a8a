// Package symbolic is a small computer-algebra core for the expressions the
// spoken-math normalizer produces: parsing, simplification, derivatives,
// integrals, polynomial solving up to degree two and LaTeX rendering.
package symbolic

import (
	"math/big"
	"strings"
)

// Node is anything Parse can return: an Expr or an Equation.
type Node interface {
	String() string
}

// Expr is a symbolic expression. Values are immutable once built.
type Expr interface {
	Node
	isExpr()
}

// Num is an exact rational constant.
type Num struct{ V *big.Rat }

// Sym is a variable or a named constant such as π.
type Sym struct{ Name string }

// Add is a sum of terms.
type Add struct{ Terms []Expr }

// Mul is a product of factors.
type Mul struct{ Factors []Expr }

// Pow is Base raised to Exp. Roots are rational exponents.
type Pow struct{ Base, Exp Expr }

// Call applies one of the known unary functions.
type Call struct {
	Fn  string
	Arg Expr
}

// Equation is Left = Right.
type Equation struct{ Left, Right Expr }

func (Num) isExpr() {}
func (Sym) isExpr() {}
func (Add) isExpr() {}
func (Mul) isExpr() {}
func (Pow) isExpr() {}
func (Call) isExpr() {}

// Known function names. sqrt and cbrt are rewritten to powers when parsed.
const (
	FnSin = "sin"
	FnCos = "cos"
	FnTan = "tan"
	FnExp = "exp"
	FnLn  = "ln"
	FnAbs = "abs"
)

// Pi is the circle constant.
var Pi = Sym{Name: "π"}

func intNum(n int64) Num { return Num{V: big.NewRat(n, 1)} }

func ratNum(a, b int64) Num { return Num{V: big.NewRat(a, b)} }

func asNum(e Expr) (Num, bool) {
	n, ok := e.(Num)
	return n, ok
}

func isZero(e Expr) bool {
	n, ok := asNum(e)
	return ok && n.V.Sign() == 0
}

func isOne(e Expr) bool { return isNumValue(e, 1) }

func isNumValue(e Expr, v int64) bool {
	n, ok := asNum(e)
	return ok && n.V.Cmp(big.NewRat(v, 1)) == 0
}

func (n Num) String() string {
	if n.V.IsInt() {
		return n.V.Num().String()
	}
	return n.V.RatString()
}

func (s Sym) String() string { return s.Name }

func (a Add) String() string {
	var b strings.Builder
	for i, t := range a.Terms {
		if i == 0 {
			b.WriteString(t.String())
			continue
		}
		if neg, ok := negated(t); ok {
			b.WriteString(" - ")
			b.WriteString(wrap(neg, precAdd+1))
			continue
		}
		b.WriteString(" + ")
		b.WriteString(t.String())
	}
	return b.String()
}

func (m Mul) String() string {
	factors := m.Factors
	prefix, suffix := "", ""
	if len(factors) > 1 {
		if c, ok := asNum(factors[0]); ok {
			factors = factors[1:]
			num := c.V.Num()
			switch {
			case num.IsInt64() && num.Int64() == -1:
				prefix = "-"
			case num.IsInt64() && num.Int64() == 1:
			default:
				prefix = num.String() + "*"
			}
			if !c.V.IsInt() {
				suffix = "/" + c.V.Denom().String()
			}
		}
	}
	parts := make([]string, len(factors))
	for i, f := range factors {
		parts[i] = wrap(f, precMul+1)
	}
	return prefix + strings.Join(parts, "*") + suffix
}

func (p Pow) String() string {
	if r, ok := asNum(p.Exp); ok {
		switch {
		case r.V.Cmp(big.NewRat(1, 2)) == 0:
			return "sqrt(" + p.Base.String() + ")"
		case r.V.Cmp(big.NewRat(1, 3)) == 0:
			return "cbrt(" + p.Base.String() + ")"
		}
	}
	return wrap(p.Base, precPow+1) + "^" + wrap(p.Exp, precPow+1)
}

func (c Call) String() string { return c.Fn + "(" + c.Arg.String() + ")" }

func (e Equation) String() string { return e.Left.String() + " = " + e.Right.String() }

const (
	precAdd = iota + 1
	precMul
	precPow
	precAtom
)

func precedence(e Expr) int {
	switch v := e.(type) {
	case Add:
		return precAdd
	case Mul:
		return precMul
	case Pow:
		if r, ok := asNum(v.Exp); ok && (r.V.Cmp(big.NewRat(1, 2)) == 0 || r.V.Cmp(big.NewRat(1, 3)) == 0) {
			return precAtom
		}
		return precPow
	case Num:
		if v.V.Sign() < 0 || !v.V.IsInt() {
			return precMul
		}
	}
	return precAtom
}

func wrap(e Expr, min int) string {
	if precedence(e) < min {
		return "(" + e.String() + ")"
	}
	return e.String()
}

// negated returns -t when t carries a negative numeric coefficient.
func negated(t Expr) (Expr, bool) {
	switch v := t.(type) {
	case Num:
		if v.V.Sign() < 0 {
			return Num{V: new(big.Rat).Neg(v.V)}, true
		}
	case Mul:
		if len(v.Factors) > 0 {
			if c, ok := asNum(v.Factors[0]); ok && c.V.Sign() < 0 {
				pos := new(big.Rat).Neg(c.V)
				rest := append([]Expr(nil), v.Factors[1:]...)
				if pos.Cmp(big.NewRat(1, 1)) == 0 {
					if len(rest) == 1 {
						return rest[0], true
					}
					return Mul{Factors: rest}, true
				}
				return Mul{Factors: append([]Expr{Num{V: pos}}, rest...)}, true
			}
		}
	}
	return nil, false
}

// FreeOf reports whether e does not mention the variable v.
func FreeOf(e Expr, v string) bool {
	switch x := e.(type) {
	case Num:
		return true
	case Sym:
		return x.Name != v
	case Add:
		for _, t := range x.Terms {
			if !FreeOf(t, v) {
				return false
			}
		}
		return true
	case Mul:
		for _, f := range x.Factors {
			if !FreeOf(f, v) {
				return false
			}
		}
		return true
	case Pow:
		return FreeOf(x.Base, v) && FreeOf(x.Exp, v)
	case Call:
		return FreeOf(x.Arg, v)
	}
	return false
}

// Symbols lists the free variables of e in first-seen order. Named
// constants are not included.
func Symbols(e Expr) []string {
	var out []string
	seen := map[string]bool{}
	var walk func(Expr)
	walk = func(e Expr) {
		switch x := e.(type) {
		case Sym:
			if x.Name == Pi.Name || seen[x.Name] {
				return
			}
			seen[x.Name] = true
			out = append(out, x.Name)
		case Add:
			for _, t := range x.Terms {
				walk(t)
			}
		case Mul:
			for _, f := range x.Factors {
				walk(f)
			}
		case Pow:
			walk(x.Base)
			walk(x.Exp)
		case Call:
			walk(x.Arg)
		}
	}
	walk(e)
	return out
}
