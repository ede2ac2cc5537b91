package kconfig

import (
	"fmt"
	"strings"
)

type tokenKind int

const (
	tokWord tokenKind = iota
	tokString
	tokOp
)

type token struct {
	kind tokenKind
	text string
}

func (t token) is(kind tokenKind, text string) bool {
	return t.kind == kind && t.text == text
}

// tokenize splits a line into tokens. Macros outside quotes are expanded
// before splitting; macros inside quotes are expanded in the string value so
// that quotes in the expansion stay literal.
func tokenize(line string, env map[string]string) ([]token, error) {
	line = expandUnquoted(line, env)
	var toks []token
	for i := 0; i < len(line); {
		c := line[i]
		switch {
		case c == ' ' || c == '\t' || c == '\r':
			i++
		case c == '#':
			return toks, nil
		case c == '"' || c == '\'':
			s, n, err := readQuoted(line[i:])
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{kind: tokString, text: expandMacros(s, env)})
			i += n
		case strings.IndexByte("!=<>()&|", c) >= 0:
			if i+1 < len(line) {
				switch two := line[i : i+2]; two {
				case "&&", "||", "!=", "<=", ">=":
					toks = append(toks, token{kind: tokOp, text: two})
					i += 2
					continue
				}
			}
			if c == '&' || c == '|' {
				return nil, fmt.Errorf("unexpected %q", c)
			}
			toks = append(toks, token{kind: tokOp, text: string(c)})
			i++
		default:
			start := i
			for i < len(line) && isWordByte(line[i]) {
				i++
			}
			if start == i {
				return nil, fmt.Errorf("unexpected character %q", c)
			}
			toks = append(toks, token{kind: tokWord, text: line[start:i]})
		}
	}
	return toks, nil
}

// readQuoted reads a quoted string at the start of s and returns its value
// and the number of bytes consumed.
func readQuoted(s string) (string, int, error) {
	quote := s[0]
	var sb strings.Builder
	for i := 1; i < len(s); i++ {
		switch c := s[i]; {
		case c == '\\' && i+1 < len(s):
			i++
			sb.WriteByte(s[i])
		case c == quote:
			return sb.String(), i + 1, nil
		default:
			sb.WriteByte(c)
		}
	}
	return "", 0, fmt.Errorf("unterminated string")
}

func isWordByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	return strings.IndexByte("_-./+$", c) >= 0
}

// expandMacros replaces $(NAME) references with values from env. Unknown
// names expand to the empty string.
func expandMacros(line string, env map[string]string) string {
	if !strings.Contains(line, "$(") {
		return line
	}
	var sb strings.Builder
	for {
		start := strings.Index(line, "$(")
		if start < 0 {
			sb.WriteString(line)
			return sb.String()
		}
		end := strings.IndexByte(line[start:], ')')
		if end < 0 {
			sb.WriteString(line)
			return sb.String()
		}
		sb.WriteString(line[:start])
		sb.WriteString(env[strings.TrimSpace(line[start+2:start+end])])
		line = line[start+end+1:]
	}
}

// expandUnquoted applies expandMacros to the parts of line outside quotes.
func expandUnquoted(line string, env map[string]string) string {
	if !strings.Contains(line, "$(") {
		return line
	}
	var sb strings.Builder
	start := 0
	for i := 0; i < len(line); i++ {
		c := line[i]
		if c != '"' && c != '\'' {
			continue
		}
		sb.WriteString(expandMacros(line[start:i], env))
		j := i + 1
		for j < len(line) && line[j] != c {
			if line[j] == '\\' {
				j++
			}
			j++
		}
		if j >= len(line) {
			sb.WriteString(line[i:])
			return sb.String()
		}
		sb.WriteString(line[i : j+1])
		start = j + 1
		i = j
	}
	sb.WriteString(expandMacros(line[start:], env))
	return sb.String()
}

// indentWidth measures leading whitespace with tabs expanded to 8 columns.
func indentWidth(line string) int {
	w := 0
	for _, c := range line {
		switch c {
		case ' ':
			w++
		case '\t':
			w = (w/8 + 1) * 8
		default:
			return w
		}
	}
	return w
}
