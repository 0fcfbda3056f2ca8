package extract

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// errUnsupportedExpr marks #if expressions the evaluator does not
// understand. Callers take the branch in that case.
var errUnsupportedExpr = errors.New("unsupported #if expression")

// maxExpansionDepth bounds macro value substitution in #if expressions.
const maxExpansionDepth = 16

type exprTokenKind int

const (
	tokNumber exprTokenKind = iota
	tokIdent
	tokOp
	tokEOF
)

type exprToken struct {
	kind exprTokenKind
	text string
	val  int64
}

// evalCondition evaluates a #if / #elif expression against the macros
// defined so far.
func evalCondition(expr string, macros *macroTable) (bool, error) {
	v, err := evalExpr(expr, macros, 0)
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

func evalExpr(expr string, macros *macroTable, depth int) (int64, error) {
	if depth > maxExpansionDepth {
		return 0, fmt.Errorf("%w: macro expansion too deep", errUnsupportedExpr)
	}
	toks, err := tokenizeExpr(expr)
	if err != nil {
		return 0, err
	}
	e := &exprParser{toks: toks, macros: macros, depth: depth}
	v, err := e.ternary()
	if err != nil {
		return 0, err
	}
	if e.peek().kind != tokEOF {
		return 0, fmt.Errorf("%w: trailing %q", errUnsupportedExpr, e.peek().text)
	}
	return v, nil
}

// exprOps lists operators longest first so that the tokenizer is greedy.
var exprOps = []string{
	"<<", ">>", "<=", ">=", "==", "!=", "&&", "||",
	"!", "~", "+", "-", "*", "/", "%", "<", ">", "&", "^", "|", "?", ":", "(", ")",
}

func tokenizeExpr(s string) ([]exprToken, error) {
	var toks []exprToken
	i := 0
	for i < len(s) {
		ch := s[i]
		switch {
		case ch == ' ' || ch == '\t':
			i++
		case isDigit(ch):
			j := i
			for j < len(s) && (isIdentChar(s[j]) || s[j] == '.') {
				j++
			}
			v, err := parseIntLiteral(s[i:j])
			if err != nil {
				return nil, err
			}
			toks = append(toks, exprToken{kind: tokNumber, text: s[i:j], val: v})
			i = j
		case isIdentStart(ch):
			j := i
			for j < len(s) && isIdentChar(s[j]) {
				j++
			}
			toks = append(toks, exprToken{kind: tokIdent, text: s[i:j]})
			i = j
		default:
			matched := false
			for _, op := range exprOps {
				if strings.HasPrefix(s[i:], op) {
					toks = append(toks, exprToken{kind: tokOp, text: op})
					i += len(op)
					matched = true
					break
				}
			}
			if !matched {
				return nil, fmt.Errorf("%w: unexpected %q", errUnsupportedExpr, string(ch))
			}
		}
	}
	return append(toks, exprToken{kind: tokEOF}), nil
}

// parseIntLiteral parses a C integer literal with optional u/l suffixes.
func parseIntLiteral(lit string) (int64, error) {
	body := strings.TrimRight(lit, "uUlL")
	v, err := strconv.ParseInt(body, 0, 64)
	if err != nil {
		u, uerr := strconv.ParseUint(body, 0, 64)
		if uerr != nil {
			return 0, fmt.Errorf("%w: bad number %q", errUnsupportedExpr, lit)
		}
		v = int64(u)
	}
	return v, nil
}

type exprParser struct {
	toks   []exprToken
	pos    int
	macros *macroTable
	depth  int
}

func (e *exprParser) peek() exprToken { return e.toks[e.pos] }

func (e *exprParser) next() exprToken {
	t := e.toks[e.pos]
	if t.kind != tokEOF {
		e.pos++
	}
	return t
}

func (e *exprParser) accept(op string) bool {
	if t := e.peek(); t.kind == tokOp && t.text == op {
		e.pos++
		return true
	}
	return false
}

func (e *exprParser) expect(op string) error {
	if !e.accept(op) {
		return fmt.Errorf("%w: expected %q", errUnsupportedExpr, op)
	}
	return nil
}

func (e *exprParser) ternary() (int64, error) {
	cond, err := e.binary(0)
	if err != nil {
		return 0, err
	}
	if !e.accept("?") {
		return cond, nil
	}
	a, err := e.ternary()
	if err != nil {
		return 0, err
	}
	if err := e.expect(":"); err != nil {
		return 0, err
	}
	b, err := e.ternary()
	if err != nil {
		return 0, err
	}
	if cond != 0 {
		return a, nil
	}
	return b, nil
}

// binaryPrec is the C precedence of each binary operator, loosest first.
var binaryPrec = map[string]int{
	"||": 1,
	"&&": 2,
	"|":  3,
	"^":  4,
	"&":  5,
	"==": 6, "!=": 6,
	"<": 7, ">": 7, "<=": 7, ">=": 7,
	"<<": 8, ">>": 8,
	"+": 9, "-": 9,
	"*": 10, "/": 10, "%": 10,
}

func (e *exprParser) binary(minPrec int) (int64, error) {
	lhs, err := e.unary()
	if err != nil {
		return 0, err
	}
	for {
		t := e.peek()
		prec, ok := binaryPrec[t.text]
		if t.kind != tokOp || !ok || prec <= minPrec {
			return lhs, nil
		}
		e.next()
		rhs, err := e.binary(prec)
		if err != nil {
			return 0, err
		}
		lhs, err = applyBinary(t.text, lhs, rhs)
		if err != nil {
			return 0, err
		}
	}
}

func applyBinary(op string, a, b int64) (int64, error) {
	switch op {
	case "||":
		return boolInt(a != 0 || b != 0), nil
	case "&&":
		return boolInt(a != 0 && b != 0), nil
	case "|":
		return a | b, nil
	case "^":
		return a ^ b, nil
	case "&":
		return a & b, nil
	case "==":
		return boolInt(a == b), nil
	case "!=":
		return boolInt(a != b), nil
	case "<":
		return boolInt(a < b), nil
	case ">":
		return boolInt(a > b), nil
	case "<=":
		return boolInt(a <= b), nil
	case ">=":
		return boolInt(a >= b), nil
	case "<<":
		return a << uint64(b&63), nil
	case ">>":
		return a >> uint64(b&63), nil
	case "+":
		return a + b, nil
	case "-":
		return a - b, nil
	case "*":
		return a * b, nil
	case "/", "%":
		if b == 0 {
			return 0, fmt.Errorf("%w: division by zero", errUnsupportedExpr)
		}
		if op == "/" {
			return a / b, nil
		}
		return a % b, nil
	}
	return 0, fmt.Errorf("%w: operator %q", errUnsupportedExpr, op)
}

func (e *exprParser) unary() (int64, error) {
	t := e.peek()
	if t.kind == tokOp {
		switch t.text {
		case "!", "~", "-", "+":
			e.next()
			v, err := e.unary()
			if err != nil {
				return 0, err
			}
			switch t.text {
			case "!":
				return boolInt(v == 0), nil
			case "~":
				return ^v, nil
			case "-":
				return -v, nil
			}
			return v, nil
		case "(":
			e.next()
			v, err := e.ternary()
			if err != nil {
				return 0, err
			}
			return v, e.expect(")")
		}
	}
	return e.primary()
}

func (e *exprParser) primary() (int64, error) {
	t := e.next()
	switch t.kind {
	case tokNumber:
		return t.val, nil
	case tokIdent:
		if t.text == "defined" {
			return e.defined()
		}
		if e.accept("(") {
			return 0, fmt.Errorf("%w: function-like macro %s", errUnsupportedExpr, t.text)
		}
		m, ok := e.macros.lookup(t.text)
		if !ok {
			// Undefined identifiers evaluate to zero.
			return 0, nil
		}
		if m.function {
			return 0, fmt.Errorf("%w: function-like macro %s", errUnsupportedExpr, t.text)
		}
		if strings.TrimSpace(m.value) == "" {
			return 0, fmt.Errorf("%w: %s expands to nothing", errUnsupportedExpr, t.text)
		}
		return evalExpr(m.value, e.macros, e.depth+1)
	}
	return 0, fmt.Errorf("%w: unexpected %q", errUnsupportedExpr, t.text)
}

func (e *exprParser) defined() (int64, error) {
	paren := e.accept("(")
	name := e.next()
	if name.kind != tokIdent {
		return 0, fmt.Errorf("%w: defined without a name", errUnsupportedExpr)
	}
	if paren {
		if err := e.expect(")"); err != nil {
			return 0, err
		}
	}
	_, ok := e.macros.lookup(name.text)
	return boolInt(ok), nil
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentChar(ch byte) bool { return isIdentStart(ch) || isDigit(ch) }
