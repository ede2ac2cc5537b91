package kconfig

import (
	"fmt"
	"strconv"
	"strings"
)

type defaultEntry struct {
	value *Expr
	cond  *Expr
}

type rangeEntry struct {
	low  *Symbol
	high *Symbol
	cond *Expr
}

// Symbol is a named configuration item. Symbols are created by the parser;
// callers read and assign them through methods only.
type Symbol struct {
	Name  string
	Type  Type
	Nodes []*Node

	kc       *Kconfig
	constant bool
	choice   *Choice

	defaults   []defaultEntry
	ranges     []rangeEntry
	directDep  *Expr
	revDep     *Expr
	weakRevDep *Expr

	userValue string
	hasUser   bool

	cacheGen  int
	strValue  string
	triValue  TriValue
	write     bool
	computing bool
}

func (s *Symbol) String() string {
	return s.Name
}

// Choice returns the choice the symbol belongs to, or nil.
func (s *Symbol) Choice() *Choice {
	return s.choice
}

// IsSet reports whether the symbol carries an explicitly assigned value.
func (s *Symbol) IsSet() bool {
	return s.hasUser
}

// UserValue returns the explicitly assigned value, if any.
func (s *Symbol) UserValue() (string, bool) {
	return s.userValue, s.hasUser
}

// StrValue is the resolved value as text.
func (s *Symbol) StrValue() string {
	s.compute()
	return s.strValue
}

// TriValue is the resolved value in a tristate context. Symbols that are
// not bool or tristate are always n.
func (s *Symbol) TriValue() TriValue {
	s.compute()
	return s.triValue
}

// Configurable reports whether the symbol contributes to generated output.
func (s *Symbol) Configurable() bool {
	s.compute()
	return s.write
}

// Visibility is the highest value a user may assign through a prompt.
func (s *Symbol) Visibility() TriValue {
	vis := No
	for _, n := range s.Nodes {
		if n.hasPrompt {
			vis = maxTri(vis, n.promptCond.tri())
		}
	}
	if s.choice != nil {
		vis = minTri(vis, s.choice.Visibility())
	}
	if s.Type == Bool && vis == Mod {
		vis = Yes
	}
	return vis
}

// Assignable lists the tristate values a user may currently pick.
func (s *Symbol) Assignable() []TriValue {
	if !s.Type.IsBoolish() {
		return nil
	}
	vis := s.Visibility()
	switch {
	case vis == No:
		return nil
	case s.Type == Bool || s.choice != nil:
		return []TriValue{No, Yes}
	case vis == Mod:
		return []TriValue{No, Mod}
	}
	return []TriValue{No, Mod, Yes}
}

// Help returns the help text of the first definition that has one.
func (s *Symbol) Help() string {
	for _, n := range s.Nodes {
		if n.Help != "" {
			return n.Help
		}
	}
	return ""
}

// SetValue assigns a user value. It returns false when the value is not
// valid for the symbol's type or range.
func (s *Symbol) SetValue(v string) bool {
	if s.constant || s.Type == Unknown {
		return false
	}
	switch s.Type {
	case Bool:
		if v != "y" && v != "n" {
			return false
		}
	case Tristate:
		if _, err := ParseTriValue(v); err != nil {
			return false
		}
	case Int:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || !s.inRange(n) {
			return false
		}
	case Hex:
		if !strings.HasPrefix(v, "0x") && !strings.HasPrefix(v, "0X") && v != "" {
			v = "0x" + v
		}
		n, err := ParseHex(v)
		if err != nil || !s.inRange(n) {
			return false
		}
	}
	if s.choice != nil {
		switch {
		case v == "y":
			s.choice.userSelection = s
		case s.choice.userSelection == s:
			s.choice.userSelection = nil
		}
	}
	s.userValue = v
	s.hasUser = true
	s.kc.invalidate()
	return true
}

// Unset drops the user value so the symbol falls back to its defaults.
func (s *Symbol) Unset() {
	if !s.hasUser {
		return
	}
	if s.choice != nil && s.choice.userSelection == s {
		s.choice.userSelection = nil
	}
	s.userValue = ""
	s.hasUser = false
	s.kc.invalidate()
}

// ConfigString is the settings-file line for the symbol, or "" when the
// symbol is not written.
func (s *Symbol) ConfigString() string {
	if !s.Configurable() {
		return ""
	}
	name := s.kc.Prefix + s.Name
	switch s.Type {
	case Bool, Tristate:
		if s.TriValue() == No {
			return fmt.Sprintf("# %s is not set\n", name)
		}
		return fmt.Sprintf("%s=%s\n", name, s.StrValue())
	case String:
		return fmt.Sprintf("%s=\"%s\"\n", name, Escape(s.StrValue()))
	}
	return fmt.Sprintf("%s=%s\n", name, s.StrValue())
}

func (s *Symbol) compute() {
	if s.constant {
		s.strValue = s.Name
		if tv, err := ParseTriValue(s.Name); err == nil {
			s.triValue = tv
		}
		return
	}
	if s.cacheGen == s.kc.gen {
		return
	}
	if s.computing {
		s.kc.warnf("dependency loop involving %s", s.Name)
		return
	}
	s.computing = true
	defer func() { s.computing = false }()

	switch s.Type {
	case Bool, Tristate:
		s.computeTri()
	case String, Int, Hex:
		s.computeStr()
	default:
		// Undefined symbols read as their own name in comparisons.
		s.strValue, s.triValue, s.write = s.Name, No, false
	}
	s.cacheGen = s.kc.gen
}

func (s *Symbol) computeTri() {
	val, write := No, false
	vis := s.Visibility()

	if s.choice != nil {
		write = vis > No
		if write && s.choice.Selection() == s {
			val = Yes
		}
		s.strValue, s.triValue, s.write = val.String(), val, write
		return
	}

	if vis > No && s.hasUser {
		user, _ := ParseTriValue(s.userValue)
		val, write = minTri(user, vis), true
	} else {
		write = vis > No
		for _, d := range s.defaults {
			if cond := d.cond.tri(); cond > No {
				// Without a visible prompt only a nonzero default is written.
				val = minTri(d.value.tri(), cond)
				write = write || val > No
				break
			}
		}
		if s.weakRevDep != nil {
			if w := minTri(s.weakRevDep.tri(), s.directDep.tri()); w > No {
				val, write = maxTri(val, w), true
			}
		}
	}
	if s.revDep != nil {
		if rv := s.revDep.tri(); rv > No {
			val, write = maxTri(val, rv), true
		}
	}
	if s.Type == Bool && val == Mod {
		val = Yes
	}
	s.strValue, s.triValue, s.write = val.String(), val, write
}

func (s *Symbol) computeStr() {
	val, write, fromUser := "", false, false
	if vis := s.Visibility(); vis > No {
		write = true
		if s.hasUser {
			val, fromUser = s.userValue, true
		}
	}
	if !fromUser {
		for _, d := range s.defaults {
			if d.cond.tri() > No {
				val, write = d.value.str(), true
				break
			}
		}
		if s.Type == Int || s.Type == Hex {
			val = s.clamp(val)
		}
	}
	if s.Type == Hex && val != "" && !strings.HasPrefix(val, "0x") && !strings.HasPrefix(val, "0X") {
		val = "0x" + val
	}
	if (s.Type == Int || s.Type == Hex) && val == "" {
		write = false
	}
	s.strValue, s.triValue, s.write = val, No, write
}

func (s *Symbol) activeRange() (low, high int64, ok bool) {
	for _, r := range s.ranges {
		if r.cond.tri() == No {
			continue
		}
		lo, lok := numericValue(s, r.low.StrValue())
		hi, hok := numericValue(s, r.high.StrValue())
		if lok && hok {
			return lo, hi, true
		}
	}
	return 0, 0, false
}

func (s *Symbol) inRange(n int64) bool {
	lo, hi, ok := s.activeRange()
	return !ok || (n >= lo && n <= hi)
}

func (s *Symbol) clamp(v string) string {
	lo, hi, ok := s.activeRange()
	if !ok {
		return v
	}
	n, valid := numericValue(s, v)
	switch {
	case !valid || n < lo:
		n = lo
	case n > hi:
		n = hi
	default:
		return v
	}
	if s.Type == Hex {
		return fmt.Sprintf("0x%x", n)
	}
	return strconv.FormatInt(n, 10)
}
