package symbolic

// DefaultVariable is used by Derivative and Integral when none is given.
const DefaultVariable = "t"

// Derivative differentiates e with respect to v. It returns nil when e holds
// something it cannot differentiate, such as an unknown function.
func Derivative(e Expr, v string) Expr {
	if e == nil {
		return nil
	}
	if v == "" {
		v = DefaultVariable
	}
	d := diff(Simplify(e), v)
	if d == nil {
		return nil
	}
	return Simplify(d)
}

func diff(e Expr, v string) Expr {
	if FreeOf(e, v) {
		return intNum(0)
	}
	switch x := e.(type) {
	case Sym:
		return intNum(1)
	case Add:
		terms := make([]Expr, len(x.Terms))
		for i, t := range x.Terms {
			if terms[i] = diff(t, v); terms[i] == nil {
				return nil
			}
		}
		return Add{Terms: terms}
	case Mul:
		terms := make([]Expr, 0, len(x.Factors))
		for i, f := range x.Factors {
			df := diff(f, v)
			if df == nil {
				return nil
			}
			if isZero(df) {
				continue
			}
			factors := make([]Expr, 0, len(x.Factors))
			factors = append(factors, x.Factors[:i]...)
			factors = append(factors, df)
			factors = append(factors, x.Factors[i+1:]...)
			terms = append(terms, Mul{Factors: factors})
		}
		return Add{Terms: terms}
	case Pow:
		db := diff(x.Base, v)
		if db == nil {
			return nil
		}
		if FreeOf(x.Exp, v) {
			return Mul{Factors: []Expr{x.Exp, Pow{Base: x.Base, Exp: Add{Terms: []Expr{x.Exp, intNum(-1)}}}, db}}
		}
		if FreeOf(x.Base, v) {
			de := diff(x.Exp, v)
			if de == nil {
				return nil
			}
			return Mul{Factors: []Expr{x, Call{Fn: FnLn, Arg: x.Base}, de}}
		}
		return nil
	case Call:
		da := diff(x.Arg, v)
		if da == nil {
			return nil
		}
		var outer Expr
		switch x.Fn {
		case FnSin:
			outer = Call{Fn: FnCos, Arg: x.Arg}
		case FnCos:
			outer = Mul{Factors: []Expr{intNum(-1), Call{Fn: FnSin, Arg: x.Arg}}}
		case FnTan:
			outer = Pow{Base: Call{Fn: FnCos, Arg: x.Arg}, Exp: intNum(-2)}
		case FnExp:
			outer = x
		case FnLn:
			outer = Pow{Base: x.Arg, Exp: intNum(-1)}
		case FnAbs:
			outer = Mul{Factors: []Expr{x.Arg, Pow{Base: x, Exp: intNum(-1)}}}
		default:
			return nil
		}
		return Mul{Factors: []Expr{outer, da}}
	}
	return nil
}

// Integral returns an antiderivative of e with respect to v, without the
// constant of integration. It covers polynomials, sums and constant
// multiples, and sin, cos, exp and powers of linear arguments; anything else
// yields nil.
func Integral(e Expr, v string) Expr {
	if e == nil {
		return nil
	}
	if v == "" {
		v = DefaultVariable
	}
	r := integrate(Expand(e), v)
	if r == nil {
		return nil
	}
	return Simplify(r)
}

func integrate(e Expr, v string) Expr {
	if FreeOf(e, v) {
		return Mul{Factors: []Expr{e, Sym{Name: v}}}
	}
	switch x := e.(type) {
	case Sym:
		return Mul{Factors: []Expr{ratNum(1, 2), Pow{Base: x, Exp: intNum(2)}}}
	case Add:
		terms := make([]Expr, len(x.Terms))
		for i, t := range x.Terms {
			if terms[i] = integrate(t, v); terms[i] == nil {
				return nil
			}
		}
		return Add{Terms: terms}
	case Mul:
		var constant []Expr
		var dependent Expr
		for _, f := range x.Factors {
			if FreeOf(f, v) {
				constant = append(constant, f)
				continue
			}
			if dependent != nil {
				return nil
			}
			dependent = f
		}
		inner := integrate(dependent, v)
		if inner == nil {
			return nil
		}
		return Mul{Factors: append(constant, inner)}
	case Pow:
		if !FreeOf(x.Exp, v) {
			return nil
		}
		a := linearSlope(x.Base, v)
		if a == nil {
			return nil
		}
		if isNumValue(x.Exp, -1) {
			return Mul{Factors: []Expr{Call{Fn: FnLn, Arg: Call{Fn: FnAbs, Arg: x.Base}}, Pow{Base: a, Exp: intNum(-1)}}}
		}
		n1 := Simplify(Add{Terms: []Expr{x.Exp, intNum(1)}})
		return Mul{Factors: []Expr{Pow{Base: x.Base, Exp: n1}, Pow{Base: Mul{Factors: []Expr{n1, a}}, Exp: intNum(-1)}}}
	case Call:
		a := linearSlope(x.Arg, v)
		if a == nil {
			return nil
		}
		inv := Pow{Base: a, Exp: intNum(-1)}
		switch x.Fn {
		case FnSin:
			return Mul{Factors: []Expr{intNum(-1), Call{Fn: FnCos, Arg: x.Arg}, inv}}
		case FnCos:
			return Mul{Factors: []Expr{Call{Fn: FnSin, Arg: x.Arg}, inv}}
		case FnExp:
			return Mul{Factors: []Expr{x, inv}}
		}
	}
	return nil
}

// linearSlope returns a when e is a*v + b with a free of v and non-zero.
func linearSlope(e Expr, v string) Expr {
	d := diff(e, v)
	if d == nil {
		return nil
	}
	d = Simplify(d)
	if isZero(d) || !FreeOf(d, v) {
		return nil
	}
	return d
}
