// Package emit renders a resolved schema into the generated artifacts.
package emit

import (
	"fmt"
	"sort"
	"strings"

	"kconfgen/internal/config"
)

type Format int

const (
	Settings Format = iota + 1
	Header
	BuildInclude
)

var formatNames = map[string]Format{
	"settings":      Settings,
	"config":        Settings,
	"header":        Header,
	"build-include": BuildInclude,
	"cmake":         BuildInclude,
}

func (f Format) String() string {
	switch f {
	case Settings:
		return "settings"
	case Header:
		return "header"
	case BuildInclude:
		return "build-include"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ParseFormat maps a format name, or one of its aliases, to a Format.
func ParseFormat(name string) (Format, error) {
	if f, ok := formatNames[strings.TrimSpace(name)]; ok {
		return f, nil
	}
	return 0, &config.Error{
		Kind: config.KindUnknownFormat,
		Msg:  fmt.Sprintf("Format '%s' not recognised. Known formats: %s", name, strings.Join(KnownFormats(), ", ")),
	}
}

// KnownFormats lists every accepted format name, aliases included.
func KnownFormats() []string {
	names := make([]string, 0, len(formatNames))
	for n := range formatNames {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
