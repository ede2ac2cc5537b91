package doctor

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"kconfgen/internal/config"
	"kconfgen/internal/defaults"
	"kconfgen/internal/emit"
	"kconfgen/internal/fsutil"
	"kconfgen/internal/kconfig"
	"kconfgen/internal/vcs"
)

type Finding struct {
	Code    string `json:"code"`
	Level   string `json:"level"`
	Message string `json:"message"`
}

type Report struct {
	Healthy  bool      `json:"healthy"`
	Findings []Finding `json:"findings"`
	Symbols  int       `json:"symbols,omitempty"`
}

// Service checks that a generation run would succeed without touching any
// of its inputs or outputs.
type Service struct {
	ProjectFile string
	Schema      string
	Defaults    []string
	Settings    string
	Outputs     []config.OutputConfig
	Env         map[string]string
	Prefix      string
	Lister      vcs.ChangeLister
}

func (s *Service) Run(ctx context.Context) Report {
	findings := []Finding{}
	add := func(code, level, msg string) {
		findings = append(findings, Finding{Code: code, Level: level, Message: msg})
	}

	if s.ProjectFile != "" {
		if _, err := config.Load(s.ProjectFile); err != nil {
			add("DOC_PROJECT_INVALID", "error", err.Error())
		}
	}

	var k *kconfig.Kconfig
	switch {
	case s.Schema == "":
		add("DOC_SCHEMA_MISSING", "error", "no schema file configured")
	default:
		if _, err := os.Stat(s.Schema); err != nil {
			add("DOC_SCHEMA_MISSING", "error", err.Error())
		} else if parsed, err := kconfig.New(s.Schema, kconfig.Options{Env: s.Env, Prefix: s.Prefix}); err != nil {
			add("DOC_SCHEMA_INVALID", "error", err.Error())
		} else {
			k = parsed
		}
	}

	expanded, err := defaults.Expand(s.Defaults)
	if err != nil {
		add("DOC_DEFAULTS_MISSING", "error", err.Error())
	}
	for _, d := range expanded {
		if _, err := os.Stat(d); err != nil {
			add("DOC_DEFAULTS_MISSING", "error", d+" not found")
		}
	}

	settingsExists := false
	if s.Settings != "" {
		_, err := os.Stat(s.Settings)
		settingsExists = err == nil
	}
	if s.Lister != nil && len(s.Defaults) > 0 {
		if _, err := s.Lister.ChangedFiles(ctx); err != nil {
			level := "warn"
			if settingsExists {
				// Change detection runs, and fails, on every generation.
				level = "error"
			}
			add("DOC_VCS_UNAVAILABLE", level, err.Error())
		}
	}

	if k != nil && settingsExists {
		missing, err := k.LoadConfig(s.Settings, kconfig.MergeOverride)
		if err != nil {
			add("DOC_SETTINGS_INVALID", "error", err.Error())
		}
		for _, m := range missing {
			add("DOC_SETTINGS_UNKNOWN_SYMBOL", "warn", "unknown kconfig symbol '"+m.Name+"' assigned to '"+m.Value+"' in "+s.Settings)
		}
	}

	for _, o := range s.Outputs {
		if _, err := emit.ParseFormat(o.Format); err != nil {
			add("DOC_OUTPUT_FORMAT", "error", err.Error())
			continue
		}
		if st, err := os.Stat(filepath.Dir(o.Path)); err != nil || !st.IsDir() {
			add("DOC_OUTPUT_DIR", "warn", "output directory for "+o.Path+" does not exist")
			continue
		}
		ok, err := fsutil.SafeToOverwrite(o.Path)
		switch {
		case err != nil && !errors.Is(err, os.ErrNotExist):
			add("DOC_OUTPUT_UNREADABLE", "warn", err.Error())
		case !ok:
			add("DOC_OUTPUT_HANDWRITTEN", "warn", o.Path+" exists and was not generated by kconfgen")
		}
	}

	healthy := true
	for _, f := range findings {
		if f.Level == "error" {
			healthy = false
			break
		}
	}
	report := Report{Healthy: healthy, Findings: findings}
	if k != nil {
		report.Symbols = len(k.UniqueSymbols())
	}
	return report
}
