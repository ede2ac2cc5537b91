package config

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

var allowedLogLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

var allowedLogFormats = map[string]struct{}{
	"text": {},
	"json": {},
}

func Validate(p Project) error {
	if p.Version != SchemaVersion {
		return fmt.Errorf("CFG_PROJECT_VERSION: unsupported version %d", p.Version)
	}
	if _, ok := allowedLogLevels[p.Logging.Level]; !ok {
		return fmt.Errorf("CFG_PROJECT_LOGGING: invalid log level %q", p.Logging.Level)
	}
	if _, ok := allowedLogFormats[p.Logging.Format]; !ok {
		return fmt.Errorf("CFG_PROJECT_LOGGING: invalid log format %q", p.Logging.Format)
	}
	if p.MinVersion != "" && !semver.IsValid(canonicalVersion(p.MinVersion)) {
		return fmt.Errorf("CFG_PROJECT_VERSION: invalid min_version %q", p.MinVersion)
	}
	for i, o := range p.Outputs {
		if o.Format == "" || o.Path == "" {
			return fmt.Errorf("CFG_PROJECT_OUTPUT: output #%d needs both format and path", i+1)
		}
	}
	for name := range p.Env {
		if strings.TrimSpace(name) == "" || strings.Contains(name, "=") {
			return fmt.Errorf("CFG_PROJECT_ENV: invalid variable name %q", name)
		}
	}
	return nil
}
