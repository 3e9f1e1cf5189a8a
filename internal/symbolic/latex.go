package symbolic

import (
	"math/big"
	"strings"
)

var latexSymbols = map[string]string{
	"π": `\pi`,
	"θ": `\theta`,
	"α": `\alpha`,
	"β": `\beta`,
	"γ": `\gamma`,
	"δ": `\delta`,
	"λ": `\lambda`,
	"μ": `\mu`,
	"σ": `\sigma`,
	"φ": `\phi`,
	"ω": `\omega`,
}

// Render formats n in LaTeX notation. It falls back to the plain string form
// if rendering fails.
func Render(n Node) (out string) {
	if n == nil {
		return ""
	}
	defer func() {
		if recover() != nil {
			out = n.String()
		}
	}()
	switch x := n.(type) {
	case Equation:
		return latex(x.Left) + " = " + latex(x.Right)
	case Expr:
		return latex(x)
	}
	return n.String()
}

func latex(e Expr) string {
	switch x := e.(type) {
	case Num:
		return latexNum(x.V)
	case Sym:
		if s, ok := latexSymbols[x.Name]; ok {
			return s
		}
		return x.Name
	case Add:
		var b strings.Builder
		for i, t := range x.Terms {
			if i > 0 {
				if neg, ok := negated(t); ok {
					b.WriteString(" - ")
					b.WriteString(latex(neg))
					continue
				}
				b.WriteString(" + ")
			}
			b.WriteString(latex(t))
		}
		return b.String()
	case Mul:
		return latexMul(x)
	case Pow:
		return latexPow(x)
	case Call:
		return latexCall(x)
	}
	return e.String()
}

func latexNum(r *big.Rat) string {
	if r.IsInt() {
		return r.Num().String()
	}
	sign := ""
	if r.Sign() < 0 {
		sign = "-"
	}
	return sign + `\frac{` + new(big.Int).Abs(r.Num()).String() + `}{` + r.Denom().String() + `}`
}

func latexMul(m Mul) string {
	factors := m.Factors
	coef := big.NewRat(1, 1)
	if len(factors) > 0 {
		if c, ok := asNum(factors[0]); ok {
			coef = new(big.Rat).Set(c.V)
			factors = factors[1:]
		}
	}
	sign := ""
	if coef.Sign() < 0 {
		sign = "-"
		coef.Neg(coef)
	}

	var num, den []string
	one := big.NewInt(1)
	if coef.Num().Cmp(one) != 0 {
		num = append(num, coef.Num().String())
	}
	if coef.Denom().Cmp(one) != 0 {
		den = append(den, coef.Denom().String())
	}
	for _, f := range factors {
		if p, ok := f.(Pow); ok {
			if e, ok := asNum(p.Exp); ok && e.V.Sign() < 0 {
				den = append(den, latexFactor(makePow(p.Base, Num{V: new(big.Rat).Neg(e.V)})))
				continue
			}
		}
		num = append(num, latexFactor(f))
	}

	numStr := strings.Join(num, " ")
	if numStr == "" {
		numStr = "1"
	}
	if len(den) == 0 {
		return sign + numStr
	}
	return sign + `\frac{` + numStr + `}{` + strings.Join(den, " ") + `}`
}

func latexFactor(e Expr) string {
	if _, ok := e.(Add); ok {
		return `\left(` + latex(e) + `\right)`
	}
	return latex(e)
}

func latexPow(p Pow) string {
	if e, ok := asNum(p.Exp); ok {
		if e.V.Sign() < 0 {
			return `\frac{1}{` + latex(makePow(p.Base, Num{V: new(big.Rat).Neg(e.V)})) + `}`
		}
		if e.V.Num().Cmp(big.NewInt(1)) == 0 && !e.V.IsInt() {
			if e.V.Denom().Cmp(big.NewInt(2)) == 0 {
				return `\sqrt{` + latex(p.Base) + `}`
			}
			return `\sqrt[` + e.V.Denom().String() + `]{` + latex(p.Base) + `}`
		}
	}
	base := latex(p.Base)
	switch b := p.Base.(type) {
	case Add, Mul, Pow:
		base = `\left(` + base + `\right)`
	case Num:
		if b.V.Sign() < 0 || !b.V.IsInt() {
			base = `\left(` + base + `\right)`
		}
	}
	return base + "^{" + latex(p.Exp) + "}"
}

func latexCall(c Call) string {
	arg := latex(c.Arg)
	switch c.Fn {
	case FnSin, FnCos, FnTan:
		return `\` + c.Fn + `{\left(` + arg + ` \right)}`
	case FnLn:
		return `\log{\left(` + arg + ` \right)}`
	case FnExp:
		return `e^{` + arg + `}`
	case FnAbs:
		return `\left|` + arg + `\right|`
	}
	return c.Fn + `{\left(` + arg + ` \right)}`
}
