package kconfig

import "fmt"

// Type is the declared type of a symbol.
type Type int

const (
	Unknown Type = iota
	Bool
	Tristate
	String
	Int
	Hex
)

func (t Type) String() string {
	switch t {
	case Bool:
		return "bool"
	case Tristate:
		return "tristate"
	case String:
		return "string"
	case Int:
		return "int"
	case Hex:
		return "hex"
	default:
		return "unknown"
	}
}

// IsBoolish reports whether values of t are tristate values.
func (t Type) IsBoolish() bool {
	return t == Bool || t == Tristate
}

// TriValue is a tristate value. Ordering matters: n < m < y.
type TriValue int

const (
	No TriValue = iota
	Mod
	Yes
)

func (v TriValue) String() string {
	switch v {
	case Yes:
		return "y"
	case Mod:
		return "m"
	default:
		return "n"
	}
}

// ParseTriValue parses "n", "m" or "y".
func ParseTriValue(s string) (TriValue, error) {
	switch s {
	case "n":
		return No, nil
	case "m":
		return Mod, nil
	case "y":
		return Yes, nil
	}
	return No, fmt.Errorf("invalid tristate value %q", s)
}

func minTri(a, b TriValue) TriValue {
	if a < b {
		return a
	}
	return b
}

func maxTri(a, b TriValue) TriValue {
	if a > b {
		return a
	}
	return b
}
