package kconfig

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// scope carries the conditions inherited from enclosing blocks.
type scope struct {
	dep    *Expr
	vis    *Expr
	choice *Choice
}

type stmt struct {
	toks []token
	line int
}

func (s *stmt) keyword() string {
	return s.toks[0].text
}

type parser struct {
	k       *Kconfig
	file    string
	lines   []string
	pos     int
	pending *stmt
}

type rawDefault struct {
	value *Expr
	cond  *Expr
}

type rawSelect struct {
	target *Symbol
	cond   *Expr
}

type props struct {
	typ       Type
	prompt    string
	promptIf  *Expr
	hasPrompt bool
	defaults  []rawDefault
	dependsOn *Expr
	visibleIf *Expr
	selects   []rawSelect
	implies   []rawSelect
	ranges    []rangeEntry
	help      string
}

func (k *Kconfig) parseFile(path string, parent *Node, sc scope) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &ParseError{File: path, Message: err.Error(), Err: err}
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	p := &parser{k: k, file: path, lines: strings.Split(text, "\n")}
	end, err := p.parseBlock(parent, sc)
	if err != nil {
		return err
	}
	if end != nil {
		return p.errorf(end, "unexpected %s", end.keyword())
	}
	return nil
}

func (p *parser) errorf(st *stmt, format string, args ...any) error {
	line := 0
	if st != nil {
		line = st.line
	}
	return &ParseError{File: p.file, Line: line, Message: fmt.Sprintf(format, args...)}
}

// next returns the next non-empty statement, or nil at end of file.
func (p *parser) next() (*stmt, error) {
	if st := p.pending; st != nil {
		p.pending = nil
		return st, nil
	}
	for p.pos < len(p.lines) {
		lineno := p.pos + 1
		line := p.lines[p.pos]
		p.pos++
		for strings.HasSuffix(line, "\\") && p.pos < len(p.lines) {
			line = strings.TrimSuffix(line, "\\") + p.lines[p.pos]
			p.pos++
		}
		toks, err := tokenize(line, p.k.Env)
		if err != nil {
			return nil, &ParseError{File: p.file, Line: lineno, Message: err.Error(), Err: err}
		}
		if len(toks) == 0 {
			continue
		}
		if toks[0].kind != tokWord {
			return nil, &ParseError{File: p.file, Line: lineno, Message: fmt.Sprintf("unexpected %q", toks[0].text)}
		}
		return &stmt{toks: toks, line: lineno}, nil
	}
	return nil, nil
}

func (p *parser) unread(st *stmt) {
	p.pending = st
}

// readHelp consumes the indented help block that follows a help keyword.
func (p *parser) readHelp() string {
	var lines []string
	indent := -1
	for p.pos < len(p.lines) {
		line := p.lines[p.pos]
		if strings.TrimSpace(line) == "" {
			lines = append(lines, "")
			p.pos++
			continue
		}
		w := indentWidth(line)
		if indent < 0 {
			if w == 0 {
				break
			}
			indent = w
		}
		if w < indent {
			break
		}
		lines = append(lines, strings.TrimSpace(line))
		p.pos++
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func (p *parser) parseBlock(parent *Node, sc scope) (*stmt, error) {
	for {
		st, err := p.next()
		if err != nil || st == nil {
			return nil, err
		}
		switch kw := st.keyword(); kw {
		case "config", "menuconfig":
			err = p.parseConfig(st, parent, sc)
		case "choice":
			err = p.parseChoice(st, parent, sc)
		case "menu":
			err = p.parseMenu(st, parent, sc)
		case "if":
			err = p.parseIf(st, parent, sc)
		case "comment":
			err = p.parseComment(st, parent, sc)
		case "mainmenu":
			var text string
			if text, err = p.stringArg(st, 1); err == nil {
				p.k.MainMenu = text
			}
		case "source", "rsource", "osource", "orsource":
			err = p.parseSource(st, parent, sc)
		case "endmenu", "endif", "endchoice":
			return st, nil
		default:
			return nil, p.errorf(st, "unknown statement %q", kw)
		}
		if err != nil {
			return nil, err
		}
	}
}

func (p *parser) parseConfig(st *stmt, parent *Node, sc scope) error {
	if len(st.toks) != 2 || st.toks[1].kind != tokWord {
		return p.errorf(st, "%s expects a symbol name", st.keyword())
	}
	k := p.k
	sym := k.symbol(st.toks[1].text)
	if sym.constant {
		return p.errorf(st, "cannot define constant %q", sym.Name)
	}
	node := &Node{
		Kind:         NodeSymbol,
		Sym:          sym,
		Parent:       parent,
		File:         p.file,
		Line:         st.line,
		IsMenuconfig: st.keyword() == "menuconfig",
	}
	pr, err := p.parseProps()
	if err != nil {
		return err
	}
	if pr.typ != Unknown {
		if sym.Type != Unknown && sym.Type != pr.typ {
			k.warnf("%s:%d: %s redefined from %s to %s", p.file, st.line, sym.Name, sym.Type, pr.typ)
		}
		sym.Type = pr.typ
	}
	if sc.choice != nil {
		if sym.Type == Unknown {
			sym.Type = Bool
		}
		if sym.choice == nil {
			sym.choice = sc.choice
			sc.choice.Syms = append(sc.choice.Syms, sym)
		}
	}

	node.dep = andExpr(sc.dep, pr.dependsOn)
	node.Help = pr.help
	if pr.hasPrompt {
		node.hasPrompt = true
		node.Prompt = pr.prompt
		node.promptCond = andExpr(andExpr(pr.promptIf, node.dep), sc.vis)
	}
	for _, d := range pr.defaults {
		sym.defaults = append(sym.defaults, defaultEntry{value: d.value, cond: andExpr(d.cond, node.dep)})
	}
	for _, s := range pr.selects {
		s.target.revDep = orExpr(s.target.revDep, andExpr(andExpr(symExpr(sym), s.cond), node.dep))
	}
	for _, s := range pr.implies {
		s.target.weakRevDep = orExpr(s.target.weakRevDep, andExpr(andExpr(symExpr(sym), s.cond), node.dep))
	}
	for _, r := range pr.ranges {
		r.cond = andExpr(r.cond, node.dep)
		sym.ranges = append(sym.ranges, r)
	}
	dep := node.dep
	if dep == nil {
		dep = symExpr(k.constSymbol("y"))
	}
	sym.directDep = orExpr(sym.directDep, dep)

	if len(sym.Nodes) == 0 {
		k.defined = append(k.defined, sym)
	}
	sym.Nodes = append(sym.Nodes, node)
	parent.Children = append(parent.Children, node)
	return nil
}

func (p *parser) parseChoice(st *stmt, parent *Node, sc scope) error {
	c := &Choice{}
	if len(st.toks) > 1 {
		c.Name = st.toks[1].text
	}
	node := &Node{Kind: NodeChoice, Choice: c, Parent: parent, File: p.file, Line: st.line}
	pr, err := p.parseProps()
	if err != nil {
		return err
	}
	node.dep = andExpr(sc.dep, pr.dependsOn)
	node.Help = pr.help
	if pr.hasPrompt {
		node.hasPrompt = true
		node.Prompt = pr.prompt
		node.promptCond = andExpr(andExpr(pr.promptIf, node.dep), sc.vis)
	}
	for _, d := range pr.defaults {
		if d.value.kind != exprSym {
			return p.errorf(st, "choice default must name a symbol")
		}
		c.defaults = append(c.defaults, choiceDefault{sym: d.value.sym, cond: andExpr(d.cond, node.dep)})
	}
	c.Nodes = append(c.Nodes, node)
	p.k.choices = append(p.k.choices, c)
	parent.Children = append(parent.Children, node)

	end, err := p.parseBlock(node, scope{dep: node.dep, vis: sc.vis, choice: c})
	if err != nil {
		return err
	}
	if end == nil || end.keyword() != "endchoice" {
		return p.errorf(end, "choice without endchoice")
	}
	return nil
}

func (p *parser) parseMenu(st *stmt, parent *Node, sc scope) error {
	text, err := p.stringArg(st, 1)
	if err != nil {
		return err
	}
	node := &Node{Kind: NodeMenu, Prompt: text, Parent: parent, File: p.file, Line: st.line, hasPrompt: true}
	pr, err := p.parseProps()
	if err != nil {
		return err
	}
	node.dep = andExpr(sc.dep, pr.dependsOn)
	vis := andExpr(sc.vis, pr.visibleIf)
	node.promptCond = andExpr(node.dep, vis)
	node.Help = pr.help
	parent.Children = append(parent.Children, node)

	end, err := p.parseBlock(node, scope{dep: node.dep, vis: vis, choice: sc.choice})
	if err != nil {
		return err
	}
	if end == nil || end.keyword() != "endmenu" {
		return p.errorf(end, "menu %q without endmenu", text)
	}
	return nil
}

func (p *parser) parseIf(st *stmt, parent *Node, sc scope) error {
	cond, rest, err := p.parseExpr(st, 1)
	if err != nil {
		return err
	}
	if rest != len(st.toks) {
		return p.errorf(st, "trailing tokens after if condition")
	}
	end, err := p.parseBlock(parent, scope{dep: andExpr(sc.dep, cond), vis: sc.vis, choice: sc.choice})
	if err != nil {
		return err
	}
	if end == nil || end.keyword() != "endif" {
		return p.errorf(end, "if without endif")
	}
	return nil
}

func (p *parser) parseComment(st *stmt, parent *Node, sc scope) error {
	text, err := p.stringArg(st, 1)
	if err != nil {
		return err
	}
	node := &Node{Kind: NodeComment, Prompt: text, Parent: parent, File: p.file, Line: st.line, hasPrompt: true}
	pr, err := p.parseProps()
	if err != nil {
		return err
	}
	node.dep = andExpr(sc.dep, pr.dependsOn)
	node.promptCond = andExpr(node.dep, sc.vis)
	parent.Children = append(parent.Children, node)
	return nil
}

func (p *parser) parseSource(st *stmt, parent *Node, sc scope) error {
	if len(st.toks) != 2 {
		return p.errorf(st, "%s expects one path", st.keyword())
	}
	kw := st.keyword()
	relative := strings.HasPrefix(kw, "r") || kw == "orsource"
	optional := strings.HasPrefix(kw, "o")
	target := p.k.resolveSource(p.file, st.toks[1].text, relative)

	paths := []string{target}
	if strings.ContainsAny(target, "*?[{") {
		matches, err := doublestar.FilepathGlob(target)
		if err != nil {
			return p.errorf(st, "bad source pattern %q: %v", target, err)
		}
		sort.Strings(matches)
		paths = matches
	} else if _, err := os.Stat(target); err != nil {
		paths = nil
	}
	if len(paths) == 0 {
		if optional {
			return nil
		}
		return p.errorf(st, "%s: %q not found", kw, target)
	}
	for _, path := range paths {
		if err := p.k.parseFile(path, parent, sc); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) parseProps() (*props, error) {
	pr := &props{}
	for {
		st, err := p.next()
		if err != nil || st == nil {
			return pr, err
		}
		switch kw := st.keyword(); kw {
		case "bool", "boolean", "tristate", "string", "hex", "int":
			pr.typ = typeKeyword(kw)
			if len(st.toks) > 1 {
				if err := p.parsePrompt(st, 1, pr); err != nil {
					return nil, err
				}
			}
		case "def_bool", "def_tristate":
			pr.typ = Bool
			if kw == "def_tristate" {
				pr.typ = Tristate
			}
			value, cond, err := p.parseValueCond(st, 1)
			if err != nil {
				return nil, err
			}
			pr.defaults = append(pr.defaults, rawDefault{value: value, cond: cond})
		case "prompt":
			if err := p.parsePrompt(st, 1, pr); err != nil {
				return nil, err
			}
		case "default":
			value, cond, err := p.parseValueCond(st, 1)
			if err != nil {
				return nil, err
			}
			pr.defaults = append(pr.defaults, rawDefault{value: value, cond: cond})
		case "depends":
			if len(st.toks) < 3 || !st.toks[1].is(tokWord, "on") {
				return nil, p.errorf(st, "expected 'depends on'")
			}
			e, rest, err := p.parseExpr(st, 2)
			if err != nil {
				return nil, err
			}
			if rest != len(st.toks) {
				return nil, p.errorf(st, "trailing tokens after dependency")
			}
			pr.dependsOn = andExpr(pr.dependsOn, e)
		case "visible":
			if len(st.toks) < 3 || !st.toks[1].is(tokWord, "if") {
				return nil, p.errorf(st, "expected 'visible if'")
			}
			e, rest, err := p.parseExpr(st, 2)
			if err != nil {
				return nil, err
			}
			if rest != len(st.toks) {
				return nil, p.errorf(st, "trailing tokens after visible if")
			}
			pr.visibleIf = andExpr(pr.visibleIf, e)
		case "select", "imply":
			value, cond, err := p.parseValueCond(st, 1)
			if err != nil {
				return nil, err
			}
			if value.kind != exprSym || value.sym.constant {
				return nil, p.errorf(st, "%s expects a symbol", kw)
			}
			sel := rawSelect{target: value.sym, cond: cond}
			if kw == "select" {
				pr.selects = append(pr.selects, sel)
			} else {
				pr.implies = append(pr.implies, sel)
			}
		case "range":
			if len(st.toks) < 3 {
				return nil, p.errorf(st, "range expects two bounds")
			}
			r := rangeEntry{low: p.operand(st.toks[1]), high: p.operand(st.toks[2])}
			if len(st.toks) > 3 {
				if !st.toks[3].is(tokWord, "if") {
					return nil, p.errorf(st, "expected 'if' after range")
				}
				cond, rest, err := p.parseExpr(st, 4)
				if err != nil {
					return nil, err
				}
				if rest != len(st.toks) {
					return nil, p.errorf(st, "trailing tokens after range")
				}
				r.cond = cond
			}
			pr.ranges = append(pr.ranges, r)
		case "help", "---help---":
			pr.help = p.readHelp()
		case "option", "optional", "modules", "transitional":
		default:
			p.unread(st)
			return pr, nil
		}
	}
}

func typeKeyword(kw string) Type {
	switch kw {
	case "bool", "boolean":
		return Bool
	case "tristate":
		return Tristate
	case "string":
		return String
	case "hex":
		return Hex
	case "int":
		return Int
	}
	return Unknown
}

func (p *parser) parsePrompt(st *stmt, at int, pr *props) error {
	text, err := p.stringArg(st, at)
	if err != nil {
		return err
	}
	pr.prompt, pr.hasPrompt = text, true
	if len(st.toks) == at+1 {
		return nil
	}
	if !st.toks[at+1].is(tokWord, "if") {
		return p.errorf(st, "expected 'if' after prompt")
	}
	cond, rest, err := p.parseExpr(st, at+2)
	if err != nil {
		return err
	}
	if rest != len(st.toks) {
		return p.errorf(st, "trailing tokens after prompt condition")
	}
	pr.promptIf = cond
	return nil
}

func (p *parser) stringArg(st *stmt, at int) (string, error) {
	if at >= len(st.toks) || st.toks[at].kind != tokString {
		return "", p.errorf(st, "%s expects a quoted string", st.keyword())
	}
	return st.toks[at].text, nil
}

// parseValueCond parses `<expr> [if <expr>]` starting at token at.
func (p *parser) parseValueCond(st *stmt, at int) (*Expr, *Expr, error) {
	value, rest, err := p.parseExpr(st, at)
	if err != nil {
		return nil, nil, err
	}
	if rest == len(st.toks) {
		return value, nil, nil
	}
	if !st.toks[rest].is(tokWord, "if") {
		return nil, nil, p.errorf(st, "unexpected %q", st.toks[rest].text)
	}
	cond, end, err := p.parseExpr(st, rest+1)
	if err != nil {
		return nil, nil, err
	}
	if end != len(st.toks) {
		return nil, nil, p.errorf(st, "trailing tokens after condition")
	}
	return value, cond, nil
}

// parseExpr parses an expression starting at token at and returns the index
// of the first unconsumed token.
func (p *parser) parseExpr(st *stmt, at int) (*Expr, int, error) {
	ep := &exprParser{p: p, st: st, pos: at}
	e, err := ep.parseOr()
	if err != nil {
		return nil, 0, err
	}
	return e, ep.pos, nil
}

func (p *parser) operand(t token) *Symbol {
	if t.kind == tokString || isTriLiteral(t.text) || isNumberLiteral(t.text) {
		return p.k.constSymbol(t.text)
	}
	return p.k.symbol(t.text)
}

type exprParser struct {
	p   *parser
	st  *stmt
	pos int
}

func (ep *exprParser) peekOp(ops ...string) (string, bool) {
	if ep.pos >= len(ep.st.toks) {
		return "", false
	}
	t := ep.st.toks[ep.pos]
	if t.kind != tokOp {
		return "", false
	}
	for _, op := range ops {
		if t.text == op {
			return op, true
		}
	}
	return "", false
}

func (ep *exprParser) parseOr() (*Expr, error) {
	left, err := ep.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := ep.peekOp("||"); !ok {
			return left, nil
		}
		ep.pos++
		right, err := ep.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &Expr{kind: exprOr, left: left, right: right}
	}
}

func (ep *exprParser) parseAnd() (*Expr, error) {
	left, err := ep.parseNot()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := ep.peekOp("&&"); !ok {
			return left, nil
		}
		ep.pos++
		right, err := ep.parseNot()
		if err != nil {
			return nil, err
		}
		left = &Expr{kind: exprAnd, left: left, right: right}
	}
}

func (ep *exprParser) parseNot() (*Expr, error) {
	if _, ok := ep.peekOp("!"); ok {
		ep.pos++
		e, err := ep.parseNot()
		if err != nil {
			return nil, err
		}
		return notExpr(e), nil
	}
	return ep.parseCmp()
}

func (ep *exprParser) parseCmp() (*Expr, error) {
	left, err := ep.parsePrimary()
	if err != nil {
		return nil, err
	}
	op, ok := ep.peekOp("=", "!=", "<", "<=", ">", ">=")
	if !ok {
		return left, nil
	}
	ep.pos++
	right, err := ep.parsePrimary()
	if err != nil {
		return nil, err
	}
	if left.kind != exprSym || right.kind != exprSym {
		return nil, ep.p.errorf(ep.st, "%s expects symbol operands", op)
	}
	return &Expr{kind: exprCmp, op: op, left: left, right: right}, nil
}

func (ep *exprParser) parsePrimary() (*Expr, error) {
	if ep.pos >= len(ep.st.toks) {
		return nil, ep.p.errorf(ep.st, "unexpected end of expression")
	}
	t := ep.st.toks[ep.pos]
	ep.pos++
	switch {
	case t.is(tokOp, "("):
		e, err := ep.parseOr()
		if err != nil {
			return nil, err
		}
		if _, ok := ep.peekOp(")"); !ok {
			return nil, ep.p.errorf(ep.st, "missing ')'")
		}
		ep.pos++
		return e, nil
	case t.kind == tokString:
		return symExpr(ep.p.k.constSymbol(t.text)), nil
	case t.kind == tokWord && t.text != "if":
		return symExpr(ep.p.operand(t)), nil
	}
	return nil, ep.p.errorf(ep.st, "unexpected %q in expression", t.text)
}
