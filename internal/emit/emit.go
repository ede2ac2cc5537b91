package emit

import (
	"bytes"
	"fmt"
	"strconv"

	"kconfgen/internal/config"
	"kconfgen/internal/fsutil"
	"kconfgen/internal/kconfig"
)

const (
	SettingsHeader = "#\n# Automatically generated file. DO NOT EDIT.\n# Project Configuration\n#\n"

	HeaderHeader = "/*\n * Automatically generated file. DO NOT EDIT.\n * Project Configuration Header\n */\n#pragma once\n"

	BuildIncludeHeader = "#\n# Automatically generated file. DO NOT EDIT.\n# project configuration cmake include file\n#\n"
)

// Emit renders k in format f and replaces path with the result. Failures to
// write path are returned as config.KindOutputIO; rendering failures are
// returned as they are.
func Emit(k *kconfig.Kconfig, f Format, path string) error {
	data, err := Render(k, f)
	if err != nil {
		return err
	}
	if err := fsutil.AtomicWrite(path, data, 0o644); err != nil {
		return &config.Error{Kind: config.KindOutputIO, Path: path, Err: err}
	}
	return nil
}

// Render produces the full contents of an artifact, provenance header
// included.
func Render(k *kconfig.Kconfig, f Format) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch f {
	case Settings:
		err = k.WriteConfig(&buf, SettingsHeader)
	case Header:
		err = k.WriteAutoconf(&buf, HeaderHeader)
	case BuildInclude:
		err = writeBuildInclude(&buf, k)
	default:
		return nil, &config.Error{Kind: config.KindUnknownFormat, Msg: f.String()}
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeBuildInclude(buf *bytes.Buffer, k *kconfig.Kconfig) error {
	buf.WriteString(BuildIncludeHeader)
	for _, sym := range k.UniqueSymbols() {
		if !sym.Configurable() {
			continue
		}
		val, err := buildIncludeValue(sym)
		if err != nil {
			return err
		}
		fmt.Fprintf(buf, "set(%s%s \"%s\")\n", k.Prefix, sym.Name, val)
	}
	return nil
}

func buildIncludeValue(sym *kconfig.Symbol) (string, error) {
	val := sym.StrValue()
	switch sym.Type {
	case kconfig.Bool, kconfig.Tristate:
		if val == "n" {
			return "", nil
		}
	case kconfig.String:
		return kconfig.Escape(val), nil
	case kconfig.Hex:
		return formatHex(val)
	}
	return val, nil
}

// formatHex renders a hex value in lower case with a 0x prefix. It accepts
// the same range as the engine, at most 0x7fffffffffffffff.
func formatHex(val string) (string, error) {
	n, err := kconfig.ParseHex(val)
	if err != nil {
		return "", fmt.Errorf("invalid hex value %q: %w", val, err)
	}
	return "0x" + strconv.FormatInt(n, 16), nil
}
