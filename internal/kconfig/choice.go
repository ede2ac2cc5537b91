package kconfig

type choiceDefault struct {
	sym  *Symbol
	cond *Expr
}

// Choice is a group of bool symbols of which exactly one is y while the
// choice is visible.
type Choice struct {
	Name  string
	Nodes []*Node
	Syms  []*Symbol

	defaults      []choiceDefault
	userSelection *Symbol
}

// Visibility is the highest prompt visibility across the choice's nodes.
func (c *Choice) Visibility() TriValue {
	vis := No
	for _, n := range c.Nodes {
		if n.hasPrompt {
			vis = maxTri(vis, n.promptCond.tri())
		}
	}
	if vis == Mod {
		vis = Yes
	}
	return vis
}

// Prompt is the prompt text of the first definition.
func (c *Choice) Prompt() string {
	for _, n := range c.Nodes {
		if n.hasPrompt {
			return n.Prompt
		}
	}
	return ""
}

// UserSelection is the member picked explicitly, if any.
func (c *Choice) UserSelection() *Symbol {
	return c.userSelection
}

// Selection is the member that currently resolves to y.
func (c *Choice) Selection() *Symbol {
	if c.Visibility() == No {
		return nil
	}
	if c.userSelection != nil && c.userSelection.memberVisible() {
		return c.userSelection
	}
	for _, d := range c.defaults {
		if d.cond.tri() > No && d.sym.choice == c && d.sym.memberVisible() {
			return d.sym
		}
	}
	for _, s := range c.Syms {
		if s.memberVisible() {
			return s
		}
	}
	return nil
}

// memberVisible is the member's own prompt visibility, ignoring the choice.
func (s *Symbol) memberVisible() bool {
	for _, n := range s.Nodes {
		if n.hasPrompt && n.promptCond.tri() > No {
			return true
		}
	}
	return false
}
