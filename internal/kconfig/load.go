package kconfig

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// MergeMode selects how loaded assignments interact with values already
// assigned to symbols.
type MergeMode int

const (
	// MergeOverride lets every assignment replace the current user value.
	MergeOverride MergeMode = iota
	// MergeKeep only assigns symbols that have no user value yet.
	MergeKeep
)

func (m MergeMode) String() string {
	if m == MergeKeep {
		return "keep"
	}
	return "override"
}

// MissingSymbol records an assignment to a name the schema does not define.
type MissingSymbol struct {
	Name  string
	Value string
}

// LoadConfig merges the settings file at path.
func (k *Kconfig) LoadConfig(path string, mode MergeMode) ([]MissingSymbol, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return k.Load(f, path, mode)
}

// Load merges settings-file assignments read from r. Unknown symbols are
// returned, malformed lines are logged; neither stops the merge.
func (k *Kconfig) Load(r io.Reader, source string, mode MergeMode) ([]MissingSymbol, error) {
	var missing []MissingSymbol
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineno := 0
	for sc.Scan() {
		lineno++
		line := strings.TrimSpace(sc.Text())
		name, value, ok := k.parseAssignment(line)
		if !ok {
			if line != "" && !strings.HasPrefix(line, "#") {
				k.warnf("%s:%d: ignoring malformed line %q", source, lineno, line)
			}
			continue
		}
		sym, defined := k.Lookup(name)
		if !defined {
			missing = append(missing, MissingSymbol{Name: name, Value: value})
			continue
		}
		if strings.HasPrefix(line, "#") && !sym.Type.IsBoolish() {
			// "is not set" only carries meaning for bool and tristate.
			continue
		}
		k.assign(sym, value, source, lineno, mode)
	}
	if err := sc.Err(); err != nil {
		return missing, fmt.Errorf("reading %s: %w", source, err)
	}
	return missing, nil
}

// parseAssignment recognises `PREFIXNAME=value` and `# PREFIXNAME is not set`.
// The returned name has the prefix stripped; "is not set" yields value "n".
func (k *Kconfig) parseAssignment(line string) (name, value string, ok bool) {
	if strings.HasPrefix(line, "# ") && strings.HasSuffix(line, " is not set") {
		full := strings.TrimSuffix(strings.TrimPrefix(line, "# "), " is not set")
		if name, ok = k.stripPrefix(full); ok {
			return name, "n", true
		}
		return "", "", false
	}
	full, value, found := strings.Cut(line, "=")
	if !found {
		return "", "", false
	}
	name, ok = k.stripPrefix(full)
	return name, value, ok
}

func (k *Kconfig) stripPrefix(full string) (string, bool) {
	if !strings.HasPrefix(full, k.Prefix) {
		return "", false
	}
	name := strings.TrimPrefix(full, k.Prefix)
	if name == "" {
		return "", false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if !(c == '_' || c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c >= '0' && c <= '9') {
			return "", false
		}
	}
	return name, true
}

func (k *Kconfig) assign(sym *Symbol, raw, source string, lineno int, mode MergeMode) {
	value := raw
	switch sym.Type {
	case String:
		if len(raw) < 2 || raw[0] != '"' || raw[len(raw)-1] != '"' {
			k.warnf("%s:%d: malformed string literal for %s: %s", source, lineno, sym.Name, raw)
			return
		}
		value = Unescape(raw[1 : len(raw)-1])
	case Bool, Tristate:
		if sym.choice != nil && value == "n" {
			// Choice state is carried by the member set to y.
			return
		}
	}

	if mode == MergeKeep {
		if sym.hasUser {
			return
		}
		if sym.choice != nil && value == "y" && sym.choice.userSelection != nil {
			return
		}
	} else if prev, had := sym.userValue, sym.hasUser; had {
		switch {
		case prev == value && k.WarnRedundant:
			k.warnf("%s:%d: %s set more than once to %q", source, lineno, sym.Name, value)
		case prev != value && k.WarnOverride:
			k.warnf("%s:%d: %s changed from %q to %q", source, lineno, sym.Name, prev, value)
		}
	}

	if !sym.SetValue(value) {
		k.warnf("%s:%d: invalid value %q for %s symbol %s", source, lineno, raw, sym.Type, sym.Name)
	}
}
