package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"kconfgen/internal/audit"
	"kconfgen/internal/config"
	"kconfgen/internal/defaults"
	"kconfgen/internal/doctor"
	"kconfgen/internal/emit"
	"kconfgen/internal/envoverlay"
	"kconfgen/internal/kconfig"
	"kconfgen/internal/menuconfig"
	"kconfgen/internal/resolver"
	"kconfgen/internal/staleness"
	"kconfgen/internal/vcs"
)

// Options carries command-line input. Empty fields fall back to the project
// file, when one is given.
type Options struct {
	ProjectFile string
	Kconfig     string
	Config      string
	Defaults    []string
	Outputs     []config.OutputConfig
	Menuconfig  bool
	EnvPairs    []string
	EnvFile     string
	Prefix      string
	Journal     string

	// Environ is the inherited environment; nil means os.Environ().
	Environ []string
	Logger  *slog.Logger
	// Lister overrides the git query used for change detection.
	Lister vcs.ChangeLister
	// Editor overrides the interactive editor.
	Editor func(*kconfig.Kconfig) error
}

type Service struct {
	ProjectFile string
	Project     config.Project
	Kconfig     string
	Config      string
	Defaults    []string
	Outputs     []config.OutputConfig
	Menuconfig  bool
	EnvPairs    []string
	EnvFile     string
	Prefix      string

	Journal *audit.Journal
	Logger  *slog.Logger

	environ []string
	lister  vcs.ChangeLister
	editor  func(*kconfig.Kconfig) error
}

// New merges opts over the project file. Scalar flags replace project
// values and list flags replace project lists when given.
func New(opts Options) (*Service, error) {
	var p config.Project
	if opts.ProjectFile != "" {
		loaded, err := config.Load(opts.ProjectFile)
		if err != nil {
			return nil, err
		}
		if err := config.CheckMinVersion(loaded.MinVersion, config.Version); err != nil {
			return nil, &config.Error{Kind: config.KindProject, Path: opts.ProjectFile, Err: err}
		}
		p = loaded
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	environ := opts.Environ
	if environ == nil {
		environ = os.Environ()
	}
	s := &Service{
		ProjectFile: opts.ProjectFile,
		Project:     p,
		Kconfig:     firstNonEmpty(opts.Kconfig, p.Kconfig),
		Config:      firstNonEmpty(opts.Config, p.Config),
		Defaults:    opts.Defaults,
		Outputs:     opts.Outputs,
		Menuconfig:  opts.Menuconfig,
		EnvPairs:    opts.EnvPairs,
		EnvFile:     firstNonEmpty(opts.EnvFile, p.EnvFile),
		Prefix:      firstNonEmpty(opts.Prefix, p.Prefix),
		Journal:     audit.New(firstNonEmpty(opts.Journal, p.Journal)),
		Logger:      logger,
		environ:     environ,
		lister:      opts.Lister,
		editor:      opts.Editor,
	}
	if len(s.Defaults) == 0 {
		s.Defaults = p.Defaults
	}
	if len(s.Outputs) == 0 {
		s.Outputs = p.Outputs
	}
	if s.editor == nil {
		s.editor = menuconfig.Open
	}
	return s, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

type target struct {
	format emit.Format
	path   string
}

// Run executes one generation. Only output write failures are tolerated;
// they are logged and the remaining outputs are still written.
func (s *Service) Run(ctx context.Context) error {
	targets := make([]target, 0, len(s.Outputs))
	for _, o := range s.Outputs {
		f, err := emit.ParseFormat(o.Format)
		if err != nil {
			return err
		}
		targets = append(targets, target{format: f, path: o.Path})
	}

	env, err := s.environment()
	if err != nil {
		return err
	}
	if s.Kconfig == "" {
		return &config.Error{Kind: config.KindSchema, Msg: "no schema file given; use --kconfig"}
	}

	// Change detection and loading work on the same expanded file list.
	defaultFiles, err := defaults.Expand(s.Defaults)
	if err != nil {
		s.record(audit.Entry{Stage: "resolve", Status: audit.StatusFailed, Message: err.Error(), Code: errorCode(err)})
		return err
	}

	removed, err := staleness.MaybeInvalidate(ctx, s.changeLister(defaultFiles), defaultFiles, s.Config, s.Logger)
	if err != nil {
		s.record(audit.Entry{Stage: "invalidate", Status: audit.StatusFailed, Message: err.Error(), Code: errorCode(err)})
		return err
	}
	if removed {
		s.record(audit.Entry{Stage: "invalidate", Status: audit.StatusOK, Path: s.Config})
	} else {
		s.record(audit.Entry{Stage: "invalidate", Status: audit.StatusSkipped, Path: s.Config})
	}

	k, err := resolver.Resolve(resolver.Request{
		Schema:   s.Kconfig,
		Defaults: defaultFiles,
		Settings: s.Config,
		Env:      env,
		Prefix:   s.Prefix,
		Logger:   s.Logger,
	})
	if err != nil {
		s.record(audit.Entry{Stage: "resolve", Status: audit.StatusFailed, Message: err.Error(), Code: errorCode(err)})
		return err
	}
	s.record(audit.Entry{Stage: "resolve", Status: audit.StatusOK, Path: s.Kconfig})

	if s.Menuconfig {
		if err := s.editor(k); err != nil {
			return err
		}
	}

	for _, t := range targets {
		err := emit.Emit(k, t.format, t.path)
		switch {
		case err == nil:
			s.record(audit.Entry{Stage: "emit", Status: audit.StatusOK, Format: t.format.String(), Path: t.path})
		case config.IsKind(err, config.KindOutputIO):
			s.Logger.Warn("failed to write output", "format", t.format.String(), "path", t.path, "err", err)
			s.record(audit.Entry{Stage: "emit", Status: audit.StatusFailed, Format: t.format.String(), Path: t.path,
				Code: config.KindOutputIO.Code(), Message: err.Error()})
		default:
			return fmt.Errorf("emit %s to %s: %w", t.format, t.path, err)
		}
	}
	return nil
}

// environment returns the variables the schema is evaluated with.
func (s *Service) environment() (map[string]string, error) {
	return envoverlay.Build(envoverlay.Inputs{
		Inherited: s.environ,
		Project:   s.Project.Env,
		EnvFile:   s.EnvFile,
		Pairs:     s.EnvPairs,
	})
}

// changeLister queries the repository holding the first defaults file.
func (s *Service) changeLister(defaultFiles []string) vcs.ChangeLister {
	if s.lister != nil {
		return s.lister
	}
	dir := ""
	if len(defaultFiles) > 0 {
		dir = filepath.Dir(defaultFiles[0])
	}
	return vcs.NewGit(dir)
}

func (s *Service) record(e audit.Entry) {
	if err := s.Journal.Record(e); err != nil {
		s.Logger.Debug("journal write failed", "err", err)
	}
}

func errorCode(err error) string {
	var e *config.Error
	if errors.As(err, &e) {
		return e.Kind.Code()
	}
	return ""
}

// DoctorRun checks the merged inputs without generating anything.
func (s *Service) DoctorRun(ctx context.Context) doctor.Report {
	env, envErr := s.environment()
	defaultFiles, err := defaults.Expand(s.Defaults)
	if err != nil {
		defaultFiles = s.Defaults
	}
	svc := &doctor.Service{
		ProjectFile: s.ProjectFile,
		Schema:      s.Kconfig,
		Defaults:    s.Defaults,
		Settings:    s.Config,
		Outputs:     s.Outputs,
		Env:         env,
		Prefix:      s.Prefix,
		Lister:      s.changeLister(defaultFiles),
	}
	report := svc.Run(ctx)
	if envErr != nil {
		report.Findings = append(report.Findings, doctor.Finding{Code: "DOC_ENV_INVALID", Level: "error", Message: envErr.Error()})
		report.Healthy = false
	}
	return report
}
