// Package menuconfig is a small terminal editor for a resolved schema.
package menuconfig

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"

	"kconfgen/internal/kconfig"
)

// Open runs the editor on the controlling terminal and returns once the
// user quits.
func Open(k *kconfig.Kconfig) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("MENUCONFIG_SCREEN: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("MENUCONFIG_SCREEN: %w", err)
	}
	defer screen.Fini()
	return Run(k, screen)
}

// Run drives the editor on an initialised screen. Symbol values are changed
// in place through the engine.
func Run(k *kconfig.Kconfig, screen tcell.Screen) error {
	e := &editor{k: k, screen: screen}
	e.refresh()
	for {
		e.draw()
		switch ev := screen.PollEvent().(type) {
		case nil:
			return nil
		case *tcell.EventResize:
			screen.Sync()
		case *tcell.EventKey:
			if done := e.handleKey(ev); done {
				return nil
			}
		}
	}
}

type row struct {
	node  *kconfig.Node
	depth int
}

type editor struct {
	k      *kconfig.Kconfig
	screen tcell.Screen
	rows   []row
	cursor int
	top    int
	status string

	editing bool
	input   []rune
}

// refresh rebuilds the visible rows. Visibility changes as values change.
func (e *editor) refresh() {
	var current *kconfig.Node
	if e.cursor < len(e.rows) {
		current = e.rows[e.cursor].node
	}
	e.rows = e.rows[:0]
	var walk func(parent *kconfig.Node, depth int)
	walk = func(parent *kconfig.Node, depth int) {
		for _, n := range parent.Children {
			if !n.Visible() {
				continue
			}
			e.rows = append(e.rows, row{node: n, depth: depth})
			walk(n, depth+1)
		}
	}
	walk(e.k.Top, 0)
	e.cursor = 0
	for i, r := range e.rows {
		if r.node == current {
			e.cursor = i
			break
		}
	}
}

func (e *editor) selected() *kconfig.Node {
	if e.cursor < 0 || e.cursor >= len(e.rows) {
		return nil
	}
	return e.rows[e.cursor].node
}

func (e *editor) handleKey(ev *tcell.EventKey) bool {
	if e.editing {
		e.handleInput(ev)
		return false
	}
	e.status = ""
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyUp:
		e.move(-1)
	case tcell.KeyDown:
		e.move(1)
	case tcell.KeyEnter:
		e.activate()
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return true
		case 'k':
			e.move(-1)
		case 'j':
			e.move(1)
		case ' ':
			e.cycle()
		case 'y':
			e.setTri(kconfig.Yes)
		case 'm':
			e.setTri(kconfig.Mod)
		case 'n':
			e.setTri(kconfig.No)
		}
	}
	return false
}

func (e *editor) move(delta int) {
	e.cursor += delta
	if e.cursor < 0 {
		e.cursor = 0
	}
	if e.cursor >= len(e.rows) {
		e.cursor = len(e.rows) - 1
	}
}

func (e *editor) activate() {
	n := e.selected()
	if n == nil || n.Kind != kconfig.NodeSymbol {
		return
	}
	sym := n.Sym
	switch {
	case sym.Choice() != nil:
		e.setTri(kconfig.Yes)
	case sym.Type == kconfig.String || sym.Type == kconfig.Int || sym.Type == kconfig.Hex:
		e.editing = true
		e.input = []rune(sym.StrValue())
	default:
		e.cycle()
	}
}

// cycle advances a bool or tristate to its next assignable value.
func (e *editor) cycle() {
	n := e.selected()
	if n == nil || n.Kind != kconfig.NodeSymbol || !n.Sym.Type.IsBoolish() {
		return
	}
	sym := n.Sym
	if sym.Choice() != nil {
		e.setTri(kconfig.Yes)
		return
	}
	values := sym.Assignable()
	if len(values) == 0 {
		e.status = sym.Name + " cannot be changed"
		return
	}
	next := values[0]
	for i, v := range values {
		if v == sym.TriValue() {
			next = values[(i+1)%len(values)]
			break
		}
	}
	e.setTri(next)
}

func (e *editor) setTri(v kconfig.TriValue) {
	n := e.selected()
	if n == nil || n.Kind != kconfig.NodeSymbol || !n.Sym.Type.IsBoolish() {
		return
	}
	if !n.Sym.SetValue(v.String()) {
		e.status = fmt.Sprintf("%s cannot be set to %s", n.Sym.Name, v)
		return
	}
	e.refresh()
}

func (e *editor) handleInput(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEscape:
		e.editing = false
		e.input = nil
	case tcell.KeyEnter:
		sym := e.selected().Sym
		value := string(e.input)
		e.editing = false
		e.input = nil
		if !sym.SetValue(value) {
			e.status = fmt.Sprintf("invalid %s value %q for %s", sym.Type, value, sym.Name)
			return
		}
		e.refresh()
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if len(e.input) > 0 {
			e.input = e.input[:len(e.input)-1]
		}
	case tcell.KeyRune:
		e.input = append(e.input, ev.Rune())
	}
}

func (e *editor) draw() {
	s := e.screen
	s.Clear()
	w, h := s.Size()
	title := e.k.MainMenu
	if title == "" {
		title = "Configuration"
	}
	drawText(s, 0, 0, w, title, tcell.StyleDefault.Bold(true))

	listTop, listHeight := 2, h-4
	if listHeight < 1 {
		listHeight = 1
	}
	if e.cursor < e.top {
		e.top = e.cursor
	}
	if e.cursor >= e.top+listHeight {
		e.top = e.cursor - listHeight + 1
	}
	for i := 0; i < listHeight && e.top+i < len(e.rows); i++ {
		idx := e.top + i
		style := tcell.StyleDefault
		if idx == e.cursor {
			style = style.Reverse(true)
		}
		drawText(s, 0, listTop+i, w, Label(e.rows[idx].node, e.rows[idx].depth), style)
	}

	footer := "arrows/jk move  space toggle  y/m/n set  enter edit  q quit"
	if e.editing {
		footer = "value: " + string(e.input) + "_"
	} else if e.status != "" {
		footer = e.status
	}
	drawText(s, 0, h-1, w, footer, tcell.StyleDefault)
	s.Show()
}

// Label renders one node as a menu line.
func Label(n *kconfig.Node, depth int) string {
	indent := strings.Repeat("  ", depth)
	switch n.Kind {
	case kconfig.NodeMenu:
		return indent + n.Prompt + "  --->"
	case kconfig.NodeComment:
		return indent + "*** " + n.Prompt + " ***"
	case kconfig.NodeChoice:
		label := indent + n.Prompt
		if sel := n.Choice.Selection(); sel != nil {
			label += " (" + sel.Name + ")"
		}
		return label
	}
	sym := n.Sym
	switch {
	case sym.Choice() != nil:
		mark := " "
		if sym.TriValue() == kconfig.Yes {
			mark = "X"
		}
		return fmt.Sprintf("%s(%s) %s", indent, mark, n.Prompt)
	case sym.Type == kconfig.Bool:
		mark := " "
		if sym.TriValue() == kconfig.Yes {
			mark = "*"
		}
		return fmt.Sprintf("%s[%s] %s", indent, mark, n.Prompt)
	case sym.Type == kconfig.Tristate:
		mark := " "
		switch sym.TriValue() {
		case kconfig.Yes:
			mark = "*"
		case kconfig.Mod:
			mark = "M"
		}
		return fmt.Sprintf("%s<%s> %s", indent, mark, n.Prompt)
	default:
		return fmt.Sprintf("%s(%s) %s", indent, sym.StrValue(), n.Prompt)
	}
}

func drawText(s tcell.Screen, x, y, width int, text string, style tcell.Style) {
	col := x
	for _, r := range text {
		if col >= width {
			return
		}
		s.SetContent(col, y, r, nil, style)
		col++
	}
	for ; col < width; col++ {
		s.SetContent(col, y, ' ', nil, style)
	}
}
