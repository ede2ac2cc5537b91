// Package staleness deletes a settings file once a defaults file feeding it
// has uncommitted changes.
package staleness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"kconfgen/internal/vcs"
)

// MaybeInvalidate removes settingsPath when one of defaults is among the
// lister's changed files. It reports whether the file was removed. Nothing
// is queried when there is no settings file or no defaults.
func MaybeInvalidate(ctx context.Context, lister vcs.ChangeLister, defaults []string, settingsPath string, logger *slog.Logger) (bool, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if settingsPath == "" || len(defaults) == 0 {
		return false, nil
	}
	if _, err := os.Stat(settingsPath); errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	changed, err := lister.ChangedFiles(ctx)
	if err != nil {
		return false, err
	}
	for _, name := range defaults {
		if !contains(changed, name) {
			continue
		}
		logger.Info(fmt.Sprintf("%s modified and %s is deleted.", name, settingsPath),
			"defaults", name, "settings", settingsPath)
		if err := os.Remove(settingsPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return false, fmt.Errorf("remove stale settings %s: %w", settingsPath, err)
		}
		// One deletion covers every changed default.
		return true, nil
	}
	return false, nil
}

func contains(changed []string, path string) bool {
	for _, c := range changed {
		if vcs.SamePath(c, path) {
			return true
		}
	}
	return false
}
