package kconfig

// NodeKind identifies what a menu node declares.
type NodeKind int

const (
	NodeMenu NodeKind = iota
	NodeSymbol
	NodeChoice
	NodeComment
)

// Node is one declaration in the menu tree. A symbol defined in several
// places has one node per definition.
type Node struct {
	Kind     NodeKind
	Sym      *Symbol
	Choice   *Choice
	Prompt   string
	Help     string
	File     string
	Line     int
	Parent   *Node
	Children []*Node

	// IsMenuconfig marks `menuconfig` symbols, which head their own submenu
	// in the editor.
	IsMenuconfig bool

	hasPrompt  bool
	promptCond *Expr
	dep        *Expr
}

// Visible reports whether the node is currently shown to the user.
func (n *Node) Visible() bool {
	switch n.Kind {
	case NodeMenu, NodeComment:
		return n.promptCond.tri() > No
	}
	return n.hasPrompt && n.promptCond.tri() > No
}

// DependsOn renders the node's effective dependency expression.
func (n *Node) DependsOn() string {
	return n.dep.String()
}

// Depth is the number of menu levels above the node.
func (n *Node) Depth() int {
	d := 0
	for p := n.Parent; p != nil && p.Parent != nil; p = p.Parent {
		d++
	}
	return d
}

func (n *Node) walk(fn func(*Node)) {
	for _, c := range n.Children {
		fn(c)
		c.walk(fn)
	}
}
