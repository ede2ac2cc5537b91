package config

import (
	"path/filepath"
	"strings"
)

func Normalize(p Project) Project {
	if p.Version == 0 {
		p.Version = SchemaVersion
	}
	if p.Logging.Level == "" {
		p.Logging.Level = "info"
	}
	if p.Logging.Format == "" {
		p.Logging.Format = "text"
	}
	p.Logging.Level = strings.ToLower(p.Logging.Level)
	p.Logging.Format = strings.ToLower(p.Logging.Format)
	p.Kconfig = strings.TrimSpace(p.Kconfig)
	p.Config = strings.TrimSpace(p.Config)
	defaults := p.Defaults[:0:0]
	for _, d := range p.Defaults {
		if d = strings.TrimSpace(d); d != "" {
			defaults = append(defaults, d)
		}
	}
	p.Defaults = defaults
	for i := range p.Outputs {
		p.Outputs[i].Format = strings.TrimSpace(p.Outputs[i].Format)
		p.Outputs[i].Path = strings.TrimSpace(p.Outputs[i].Path)
	}
	return p
}

// Rebase resolves the relative paths of a project file against dir, the
// directory that contains it.
func Rebase(p Project, dir string) Project {
	rebase := func(path string) string {
		if path == "" || filepath.IsAbs(path) {
			return path
		}
		if expanded, err := ExpandPath(path); err == nil && expanded != path {
			return expanded
		}
		return filepath.Join(dir, path)
	}
	p.Kconfig = rebase(p.Kconfig)
	p.Config = rebase(p.Config)
	p.EnvFile = rebase(p.EnvFile)
	p.Journal = rebase(p.Journal)
	defaults := make([]string, len(p.Defaults))
	for i, d := range p.Defaults {
		defaults[i] = rebase(d)
	}
	p.Defaults = defaults
	outputs := make([]OutputConfig, len(p.Outputs))
	for i, o := range p.Outputs {
		outputs[i] = OutputConfig{Format: o.Format, Path: rebase(o.Path)}
	}
	p.Outputs = outputs
	return p
}
