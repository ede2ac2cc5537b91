// Package defaults merges layered defaults files into a schema engine
// without overriding values that are already assigned.
package defaults

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"kconfgen/internal/config"
	"kconfgen/internal/fsutil"
	"kconfgen/internal/kconfig"
)

// Load applies each defaults file in order. Earlier files win over later
// ones, and none of them replaces a value that is already set.
func Load(k *kconfig.Kconfig, paths []string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	expanded, err := Expand(paths)
	if err != nil {
		return err
	}
	for _, path := range expanded {
		if err := loadOne(k, path, logger); err != nil {
			return err
		}
	}
	return nil
}

// Expand resolves glob patterns in paths. Plain paths pass through so that
// a missing one is reported by the loader; a pattern that matches nothing
// is itself a missing defaults file.
func Expand(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		if !hasMeta(p) {
			out = append(out, p)
			continue
		}
		matches, err := doublestar.FilepathGlob(p)
		if err != nil {
			return nil, &config.Error{Kind: config.KindMissingDefaultsFile, Path: p, Err: err}
		}
		if len(matches) == 0 {
			return nil, &config.Error{Kind: config.KindMissingDefaultsFile, Path: p, Msg: "pattern matched no files"}
		}
		sort.Strings(matches)
		out = append(out, matches...)
	}
	return out, nil
}

func hasMeta(p string) bool {
	return strings.ContainsAny(p, "*?[{")
}

func loadOne(k *kconfig.Kconfig, path string, logger *slog.Logger) error {
	logger.Info(fmt.Sprintf("Loading defaults file %s...", path))
	st, err := os.Stat(path)
	if err != nil {
		return &config.Error{Kind: config.KindMissingDefaultsFile, Path: path, Msg: "defaults file not found", Err: err}
	}
	if st.IsDir() {
		return &config.Error{Kind: config.KindMissingDefaultsFile, Path: path, Msg: "defaults path is a directory"}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read defaults %s: %w", path, err)
	}
	repaired := Repair(k, path, data, logger)

	return fsutil.WithScratchFile("kconfgen_tmp*", repaired, func(scratch string) error {
		missing, err := k.LoadConfig(scratch, kconfig.MergeKeep)
		if err != nil {
			return fmt.Errorf("load defaults %s: %w", path, err)
		}
		for _, m := range missing {
			logger.Warn(fmt.Sprintf("unknown kconfig symbol '%s' assigned to '%s' in %s", m.Name, m.Value, path),
				"symbol", m.Name, "value", m.Value, "file", path)
		}
		return nil
	})
}

// Repair trims every line and rewrites bare `NAME=` assignments to the
// disabled value for NAME's type. Each rewrite is logged.
func Repair(k *kconfig.Kconfig, source string, data []byte, logger *slog.Logger) []byte {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	var out bytes.Buffer
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineno := 0
	for sc.Scan() {
		lineno++
		line := strings.TrimSpace(sc.Text())
		if fixed, ok := repairLine(k, line); ok {
			logger.Info(fmt.Sprintf("%s:%d line was updated to %s", source, lineno, fixed))
			line = fixed
		}
		out.WriteString(line)
		out.WriteByte('\n')
	}
	return out.Bytes()
}

func repairLine(k *kconfig.Kconfig, line string) (string, bool) {
	if strings.HasPrefix(line, "#") || !strings.HasSuffix(line, "=") {
		return "", false
	}
	full, rhs, _ := strings.Cut(line, "=")
	if rhs != "" || full == "" {
		return "", false
	}
	typ := kconfig.Unknown
	if sym, ok := k.Lookup(strings.TrimPrefix(full, k.Prefix)); ok && strings.HasPrefix(full, k.Prefix) {
		typ = sym.Type
	}
	switch typ {
	case kconfig.String:
		return full + `=""`, true
	case kconfig.Int, kconfig.Hex:
		return "# " + full + " is not set", true
	default:
		return full + "=n", true
	}
}
