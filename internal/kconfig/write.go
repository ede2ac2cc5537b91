package kconfig

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// WriteConfig serialises the resolved tree as a settings file. Menus and
// comments become banner comments so the file reads like the menu tree.
func (k *Kconfig) WriteConfig(w io.Writer, header string) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(header)
	written := map[*Symbol]bool{}
	k.writeConfigNodes(bw, k.Top, written)
	return bw.Flush()
}

func (k *Kconfig) writeConfigNodes(bw *bufio.Writer, parent *Node, written map[*Symbol]bool) {
	for _, n := range parent.Children {
		switch n.Kind {
		case NodeSymbol:
			if written[n.Sym] {
				break
			}
			if cs := n.Sym.ConfigString(); cs != "" {
				written[n.Sym] = true
				bw.WriteString(cs)
			}
		case NodeComment:
			if n.Visible() {
				fmt.Fprintf(bw, "\n#\n# %s\n#\n", n.Prompt)
			}
		case NodeMenu:
			if n.Visible() {
				fmt.Fprintf(bw, "\n#\n# %s\n#\n", n.Prompt)
				k.writeConfigNodes(bw, n, written)
				fmt.Fprintf(bw, "# end of %s\n", n.Prompt)
				continue
			}
		}
		k.writeConfigNodes(bw, n, written)
	}
}

// WriteAutoconf serialises the resolved tree as C preprocessor constants.
// Symbols resolved to n are omitted; m becomes a _MODULE define.
func (k *Kconfig) WriteAutoconf(w io.Writer, header string) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(header)
	for _, sym := range k.UniqueSymbols() {
		if !sym.Configurable() {
			continue
		}
		name := k.Prefix + sym.Name
		val := sym.StrValue()
		switch sym.Type {
		case Bool, Tristate:
			switch sym.TriValue() {
			case Yes:
				fmt.Fprintf(bw, "#define %s 1\n", name)
			case Mod:
				fmt.Fprintf(bw, "#define %s_MODULE 1\n", name)
			}
		case String:
			fmt.Fprintf(bw, "#define %s \"%s\"\n", name, Escape(val))
		case Hex:
			if !strings.HasPrefix(val, "0x") && !strings.HasPrefix(val, "0X") {
				val = "0x" + val
			}
			fmt.Fprintf(bw, "#define %s %s\n", name, val)
		default:
			fmt.Fprintf(bw, "#define %s %s\n", name, val)
		}
	}
	return bw.Flush()
}

// Escape makes s safe inside a double-quoted settings or C string.
func Escape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

// Unescape reverses Escape.
func Unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}
