package kconfig

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// DefaultPrefix is prepended to symbol names in every generated format.
const DefaultPrefix = "CONFIG_"

// Options configure schema construction.
type Options struct {
	// Env feeds $(NAME) macro expansion and the srctree root. The process
	// environment is never consulted.
	Env map[string]string

	// Prefix overrides the symbol prefix. When empty, Env["CONFIG_"] is used,
	// then DefaultPrefix.
	Prefix string

	// WarnRedundant logs assignments that repeat a symbol's current value.
	WarnRedundant bool

	// WarnOverride logs assignments that replace an earlier user value.
	WarnOverride bool

	Logger *slog.Logger
}

// Kconfig is a parsed schema together with the current symbol values.
type Kconfig struct {
	MainMenu string
	Top      *Node
	Prefix   string
	Env      map[string]string

	WarnRedundant bool
	WarnOverride  bool

	logger    *slog.Logger
	srctree   string
	syms      map[string]*Symbol
	defined   []*Symbol
	constSyms map[string]*Symbol
	choices   []*Choice
	gen       int
}

// New parses the schema rooted at path.
func New(path string, opts Options) (*Kconfig, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("schema %s: %w", path, err)
	}
	env := opts.Env
	if env == nil {
		env = map[string]string{}
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = env["CONFIG_"]
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	k := &Kconfig{
		MainMenu:      "Main menu",
		Prefix:        prefix,
		Env:           env,
		WarnRedundant: opts.WarnRedundant,
		WarnOverride:  opts.WarnOverride,
		logger:        logger,
		srctree:       env["srctree"],
		syms:          map[string]*Symbol{},
		constSyms:     map[string]*Symbol{},
		gen:           1,
	}
	k.Top = &Node{Kind: NodeMenu, File: path}
	if err := k.parseFile(path, k.Top, scope{}); err != nil {
		return nil, err
	}
	k.Top.Prompt = k.MainMenu
	k.Top.hasPrompt = true
	return k, nil
}

// Lookup returns the defined symbol with the given name (without prefix).
func (k *Kconfig) Lookup(name string) (*Symbol, bool) {
	s, ok := k.syms[name]
	if !ok || s.Type == Unknown {
		return nil, false
	}
	return s, true
}

// Symbols returns defined symbols in declaration order.
func (k *Kconfig) Symbols() []*Symbol {
	out := make([]*Symbol, len(k.defined))
	copy(out, k.defined)
	return out
}

// Choices returns choices in declaration order.
func (k *Kconfig) Choices() []*Choice {
	out := make([]*Choice, len(k.choices))
	copy(out, k.choices)
	return out
}

// Nodes returns every node below Top in depth-first declaration order. The
// order is stable for an unchanged schema.
func (k *Kconfig) Nodes() []*Node {
	var out []*Node
	k.Top.walk(func(n *Node) { out = append(out, n) })
	return out
}

// UniqueSymbols returns each defined symbol once, at its first node in
// traversal order.
func (k *Kconfig) UniqueSymbols() []*Symbol {
	seen := map[*Symbol]bool{}
	var out []*Symbol
	for _, n := range k.Nodes() {
		if n.Kind != NodeSymbol || seen[n.Sym] {
			continue
		}
		seen[n.Sym] = true
		out = append(out, n.Sym)
	}
	return out
}

func (k *Kconfig) symbol(name string) *Symbol {
	if s, ok := k.syms[name]; ok {
		return s
	}
	s := &Symbol{Name: name, kc: k}
	k.syms[name] = s
	return s
}

func (k *Kconfig) constSymbol(value string) *Symbol {
	if s, ok := k.constSyms[value]; ok {
		return s
	}
	s := &Symbol{Name: value, kc: k, constant: true}
	if value == "y" || value == "m" || value == "n" {
		s.Type = Tristate
	}
	k.constSyms[value] = s
	return s
}

func (k *Kconfig) invalidate() {
	k.gen++
}

func (k *Kconfig) warnf(format string, args ...any) {
	k.logger.Warn(fmt.Sprintf(format, args...))
}

func (k *Kconfig) resolveSource(from, target string, relative bool) string {
	if filepath.IsAbs(target) {
		return target
	}
	if relative {
		return filepath.Join(filepath.Dir(from), target)
	}
	if k.srctree != "" {
		return filepath.Join(k.srctree, target)
	}
	return target
}
