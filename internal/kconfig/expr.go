package kconfig

import (
	"fmt"
	"strconv"
	"strings"
)

type exprKind int

const (
	exprSym exprKind = iota
	exprNot
	exprAnd
	exprOr
	exprCmp
)

// Expr is a dependency or value expression. A nil *Expr evaluates to y.
type Expr struct {
	kind  exprKind
	sym   *Symbol
	op    string
	left  *Expr
	right *Expr
}

func symExpr(s *Symbol) *Expr {
	return &Expr{kind: exprSym, sym: s}
}

func notExpr(e *Expr) *Expr {
	return &Expr{kind: exprNot, left: e}
}

// andExpr joins two conditions; nil operands are dropped.
func andExpr(a, b *Expr) *Expr {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return &Expr{kind: exprAnd, left: a, right: b}
}

// orExpr joins two conditions. Unlike andExpr, a nil operand is "absent",
// not y.
func orExpr(a, b *Expr) *Expr {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return &Expr{kind: exprOr, left: a, right: b}
}

func (e *Expr) tri() TriValue {
	if e == nil {
		return Yes
	}
	switch e.kind {
	case exprSym:
		return e.sym.TriValue()
	case exprNot:
		return Yes - e.left.tri()
	case exprAnd:
		return minTri(e.left.tri(), e.right.tri())
	case exprOr:
		return maxTri(e.left.tri(), e.right.tri())
	case exprCmp:
		if compare(e.op, e.left.sym, e.right.sym) {
			return Yes
		}
		return No
	}
	return No
}

// str is the value an expression contributes as a default. Plain symbol
// references yield the referenced symbol's string value.
func (e *Expr) str() string {
	if e != nil && e.kind == exprSym {
		return e.sym.StrValue()
	}
	return e.tri().String()
}

func compare(op string, a, b *Symbol) bool {
	as, bs := a.StrValue(), b.StrValue()
	var cmp int
	an, aok := numericValue(a, as)
	bn, bok := numericValue(b, bs)
	if aok && bok && (a.Type == Int || a.Type == Hex || b.Type == Int || b.Type == Hex || (a.constant && b.constant)) {
		switch {
		case an < bn:
			cmp = -1
		case an > bn:
			cmp = 1
		}
	} else {
		cmp = strings.Compare(as, bs)
	}
	switch op {
	case "=":
		return cmp == 0
	case "!=":
		return cmp != 0
	case "<":
		return cmp < 0
	case "<=":
		return cmp <= 0
	case ">":
		return cmp > 0
	case ">=":
		return cmp >= 0
	}
	return false
}

func numericValue(s *Symbol, v string) (int64, bool) {
	if v == "" {
		return 0, false
	}
	switch s.Type {
	case Hex:
		n, err := ParseHex(v)
		return n, err == nil
	case Int:
		n, err := strconv.ParseInt(v, 10, 64)
		return n, err == nil
	}
	n, err := strconv.ParseInt(v, 0, 64)
	return n, err == nil
}

// ParseHex parses a hex value with or without a 0x prefix. Values are
// limited to the non-negative int64 range.
func ParseHex(v string) (int64, error) {
	digits := strings.TrimPrefix(strings.TrimPrefix(v, "0x"), "0X")
	if digits == "" || digits[0] == '-' || digits[0] == '+' {
		return 0, fmt.Errorf("invalid hex value %q", v)
	}
	return strconv.ParseInt(digits, 16, 64)
}

// String renders the expression in Kconfig syntax.
func (e *Expr) String() string {
	if e == nil {
		return "y"
	}
	switch e.kind {
	case exprSym:
		if e.sym.constant && !isTriLiteral(e.sym.Name) && !isNumberLiteral(e.sym.Name) {
			return strconv.Quote(e.sym.Name)
		}
		return e.sym.Name
	case exprNot:
		return "!" + e.left.parenString(exprNot)
	case exprAnd:
		return e.left.parenString(exprAnd) + " && " + e.right.parenString(exprAnd)
	case exprOr:
		return e.left.String() + " || " + e.right.String()
	case exprCmp:
		return e.left.String() + " " + e.op + " " + e.right.String()
	}
	return ""
}

func (e *Expr) parenString(parent exprKind) string {
	if e != nil && (e.kind == exprOr || ((e.kind == exprAnd || e.kind == exprCmp) && parent == exprNot)) {
		return "(" + e.String() + ")"
	}
	return e.String()
}

func isNumberLiteral(s string) bool {
	_, err := strconv.ParseInt(s, 0, 64)
	return err == nil
}

func isTriLiteral(s string) bool {
	return s == "y" || s == "m" || s == "n"
}
