package symbolic

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNum
	tokIdent
	tokOp
)

type token struct {
	kind tokenKind
	text string
	op   rune
}

var errSyntax = errors.New("syntax error")

// functions maps accepted spellings to canonical function names.
var functions = map[string]string{
	"sin":  FnSin,
	"cos":  FnCos,
	"tan":  FnTan,
	"exp":  FnExp,
	"ln":   FnLn,
	"log":  FnLn,
	"abs":  FnAbs,
	"sqrt": "sqrt",
	"cbrt": "cbrt",
}

// opaqueFunctions are letters read as an unknown function when directly
// followed by a parenthesis, as in f(x).
var opaqueFunctions = map[string]bool{"f": true, "g": true, "h": true}

var greek = map[rune]string{
	'π': "pi",
	'θ': "θ",
	'α': "α",
	'β': "β",
	'γ': "γ",
	'δ': "δ",
	'λ': "λ",
	'μ': "μ",
	'σ': "σ",
	'φ': "φ",
	'ω': "ω",
}

func lex(s string) ([]token, error) {
	var toks []token
	rs := []rune(s)
	for i := 0; i < len(rs); i++ {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
		case r >= '0' && r <= '9' || r == '.' && i+1 < len(rs) && rs[i+1] >= '0' && rs[i+1] <= '9':
			j, dot := i, false
			for j < len(rs) && (rs[j] >= '0' && rs[j] <= '9' || rs[j] == '.' && !dot) {
				if rs[j] == '.' {
					dot = true
				}
				j++
			}
			text := strings.TrimSuffix(string(rs[i:j]), ".")
			if strings.HasPrefix(text, ".") {
				text = "0" + text
			}
			toks = append(toks, token{kind: tokNum, text: text})
			i = j - 1
		case r < unicode.MaxASCII && unicode.IsLetter(r):
			j := i
			for j < len(rs) && rs[j] < unicode.MaxASCII && unicode.IsLetter(rs[j]) {
				j++
			}
			word := string(rs[i:j])
			idents, err := splitIdent(word)
			if err != nil {
				return nil, err
			}
			for _, id := range idents {
				toks = append(toks, token{kind: tokIdent, text: id})
			}
			i = j - 1
		case greek[r] != "":
			toks = append(toks, token{kind: tokIdent, text: greek[r]})
		case r == '²' || r == '³':
			exp := "2"
			if r == '³' {
				exp = "3"
			}
			toks = append(toks, token{kind: tokOp, op: '^'}, token{kind: tokNum, text: exp})
		case r == '√':
			toks = append(toks, token{kind: tokIdent, text: "sqrt"})
		case r == '∛':
			toks = append(toks, token{kind: tokIdent, text: "cbrt"})
		case r == '*' && i+1 < len(rs) && rs[i+1] == '*':
			toks = append(toks, token{kind: tokOp, op: '^'})
			i++
		case r == '*' || r == '×' || r == '·' || r == '⋅':
			toks = append(toks, token{kind: tokOp, op: '*'})
		case r == '/' || r == '÷':
			toks = append(toks, token{kind: tokOp, op: '/'})
		case r == '-' || r == '−' || r == '–':
			toks = append(toks, token{kind: tokOp, op: '-'})
		case r == '(' || r == '[' || r == '{':
			toks = append(toks, token{kind: tokOp, op: '('})
		case r == ')' || r == ']' || r == '}':
			toks = append(toks, token{kind: tokOp, op: ')'})
		case strings.ContainsRune("+^=|", r):
			toks = append(toks, token{kind: tokOp, op: r})
		default:
			return nil, fmt.Errorf("%w: unexpected %q", errSyntax, r)
		}
	}
	return toks, nil
}

// splitIdent keeps function names whole and reads short unknown words as a
// product of single-letter variables ("xy" is x*y).
func splitIdent(word string) ([]string, error) {
	lower := strings.ToLower(word)
	if _, ok := functions[lower]; ok {
		return []string{lower}, nil
	}
	if lower == "pi" {
		return []string{"pi"}, nil
	}
	if len(word) > 3 {
		return nil, fmt.Errorf("%w: unknown identifier %q", errSyntax, word)
	}
	out := make([]string, 0, len(word))
	for _, r := range word {
		out = append(out, string(r))
	}
	return out, nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token {
	if p.pos >= len(p.toks) {
		return token{kind: tokEOF}
	}
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.peek()
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) isOp(op rune) bool {
	t := p.peek()
	return t.kind == tokOp && t.op == op
}

func (p *parser) expect(op rune) error {
	if !p.isOp(op) {
		return fmt.Errorf("%w: expected %q", errSyntax, op)
	}
	p.next()
	return nil
}

func (p *parser) startsPrimary() bool {
	t := p.peek()
	return t.kind == tokNum || t.kind == tokIdent || t.kind == tokOp && t.op == '('
}

func (p *parser) parseSum() (Expr, error) {
	first, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	terms := []Expr{first}
	for p.isOp('+') || p.isOp('-') {
		op := p.next().op
		t, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		if op == '-' {
			t = Mul{Factors: []Expr{intNum(-1), t}}
		}
		terms = append(terms, t)
	}
	if len(terms) == 1 {
		return first, nil
	}
	return Add{Terms: terms}, nil
}

func (p *parser) parseTerm() (Expr, error) {
	first, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	factors := []Expr{first}
	for {
		switch {
		case p.isOp('*'):
			p.next()
			f, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			factors = append(factors, f)
		case p.isOp('/'):
			p.next()
			f, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			factors = append(factors, Pow{Base: f, Exp: intNum(-1)})
		case p.startsPrimary():
			f, err := p.parsePower()
			if err != nil {
				return nil, err
			}
			factors = append(factors, f)
		default:
			if len(factors) == 1 {
				return first, nil
			}
			return Mul{Factors: factors}, nil
		}
	}
}

func (p *parser) parseUnary() (Expr, error) {
	switch {
	case p.isOp('-'):
		p.next()
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return Mul{Factors: []Expr{intNum(-1), e}}, nil
	case p.isOp('+'):
		p.next()
		return p.parseUnary()
	}
	return p.parsePower()
}

func (p *parser) parsePower() (Expr, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.isOp('^') {
		p.next()
		exp, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		base = Pow{Base: base, Exp: exp}
	}
	return base, nil
}

func (p *parser) parsePrimary() (Expr, error) {
	t := p.next()
	switch t.kind {
	case tokNum:
		r, ok := new(big.Rat).SetString(t.text)
		if !ok {
			return nil, fmt.Errorf("%w: bad number %q", errSyntax, t.text)
		}
		return Num{V: r}, nil
	case tokIdent:
		if t.text == "pi" {
			return Pi, nil
		}
		if fn, ok := functions[t.text]; ok {
			arg, err := p.parseArgument()
			if err != nil {
				return nil, err
			}
			switch fn {
			case "sqrt":
				return Pow{Base: arg, Exp: ratNum(1, 2)}, nil
			case "cbrt":
				return Pow{Base: arg, Exp: ratNum(1, 3)}, nil
			}
			return Call{Fn: fn, Arg: arg}, nil
		}
		if opaqueFunctions[t.text] && p.isOp('(') {
			arg, err := p.parseArgument()
			if err != nil {
				return nil, err
			}
			return Call{Fn: t.text, Arg: arg}, nil
		}
		return Sym{Name: t.text}, nil
	case tokOp:
		switch t.op {
		case '(':
			e, err := p.parseSum()
			if err != nil {
				return nil, err
			}
			return e, p.expect(')')
		case '|':
			e, err := p.parseSum()
			if err != nil {
				return nil, err
			}
			return Call{Fn: FnAbs, Arg: e}, p.expect('|')
		}
	}
	return nil, fmt.Errorf("%w: unexpected token", errSyntax)
}

// parseArgument reads a parenthesised argument, or a bare power for forms
// like "sin x" and "√16".
func (p *parser) parseArgument() (Expr, error) {
	if p.isOp('(') {
		p.next()
		e, err := p.parseSum()
		if err != nil {
			return nil, err
		}
		return e, p.expect(')')
	}
	return p.parsePower()
}

func parseTokens(toks []token) (Expr, error) {
	if len(toks) == 0 {
		return nil, fmt.Errorf("%w: empty expression", errSyntax)
	}
	p := &parser{toks: toks}
	e, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokEOF {
		return nil, fmt.Errorf("%w: trailing input", errSyntax)
	}
	return e, nil
}

// Parse reads an expression, or an equation when the text holds exactly one
// '='. It returns nil for empty or malformed input.
func Parse(text string) (n Node) {
	defer func() {
		if recover() != nil {
			n = nil
		}
	}()
	if strings.TrimSpace(text) == "" {
		return nil
	}
	toks, err := lex(text)
	if err != nil {
		return nil
	}
	split := -1
	for i, t := range toks {
		if t.kind == tokOp && t.op == '=' {
			if split >= 0 {
				return nil
			}
			split = i
		}
	}
	if split < 0 {
		e, err := parseTokens(toks)
		if err != nil {
			return nil
		}
		return Simplify(e)
	}
	left, err := parseTokens(toks[:split])
	if err != nil {
		return nil
	}
	right, err := parseTokens(toks[split+1:])
	if err != nil {
		return nil
	}
	return Equation{Left: Simplify(left), Right: Simplify(right)}
}

// ParseExpr is Parse restricted to expressions.
func ParseExpr(text string) Expr {
	e, _ := Parse(text).(Expr)
	return e
}
