package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"kconfgen/internal/app"
	"kconfgen/internal/config"
	"kconfgen/internal/logging"
)

type ExitCoder interface {
	ExitCode() int
}

type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }
func (e *exitError) ExitCode() int { return e.code }

const (
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if ex, ok := err.(ExitCoder); ok {
			os.Exit(ex.ExitCode())
		}
		os.Exit(exitFailure)
	}
}

// flags holds the values shared by the root command and its subcommands.
type flags struct {
	projectFile string
	kconfig     string
	config      string
	defaults    []string
	outputs     []string
	menuconfig  bool
	env         []string
	envFile     string
	prefix      string
	journal     string
	logLevel    string
	logFormat   string
	jsonOutput  bool
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	newSvc := func(cmd *cobra.Command, args []string) (*app.Service, error) {
		return f.service(cmd, args)
	}

	cmd := &cobra.Command{
		Use:   "kconfgen [flags] [--output FORMAT PATH]...",
		Short: "Generate settings, header and build-include files from a Kconfig schema",
		Long: `kconfgen resolves a Kconfig schema against layered defaults files and an
existing settings file, then writes the requested outputs.

Each --output takes a format (settings, header, build-include) followed by
the destination path, e.g. --output header build/sdkconfig.h.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc(cmd, args)
			if err != nil {
				return classify(err)
			}
			return classify(svc.Run(cmd.Context()))
		},
	}
	pf := cmd.PersistentFlags()
	pf.StringVar(&f.projectFile, "project-file", "", "path to kconfgen.toml (default: searched upwards from the working directory)")
	pf.StringVar(&f.kconfig, "kconfig", "", "Kconfig file with config item definitions")
	pf.StringVar(&f.config, "config", "", "project configuration settings file")
	pf.StringArrayVar(&f.defaults, "defaults", nil, "defaults file, used for symbols the settings file does not set (repeatable, earlier wins)")
	pf.StringArrayVar(&f.outputs, "output", nil, "output FORMAT, followed by its PATH (repeatable)")
	pf.BoolVar(&f.menuconfig, "menuconfig", false, "launch the interactive editor before writing outputs")
	pf.StringArrayVar(&f.env, "env", nil, "NAME=VAL environment to set when evaluating the schema (repeatable)")
	pf.StringVar(&f.envFile, "env-file", "", "JSON object of environment variables to load")
	pf.StringVar(&f.prefix, "prefix", "", "symbol prefix in generated files (default CONFIG_)")
	pf.StringVar(&f.journal, "journal", "", "append a JSON line per pipeline step to this file")
	pf.StringVar(&f.logLevel, "log-level", "info", "log level: debug|info|warn|error")
	pf.StringVar(&f.logFormat, "log-format", "text", "log format: text|json")
	pf.BoolVar(&f.jsonOutput, "json", false, "output JSON")

	cmd.AddCommand(newVersionCmd(&f.jsonOutput))
	cmd.AddCommand(newDoctorCmd(newSvc, &f.jsonOutput))
	cmd.AddCommand(newInitCmd(&f.jsonOutput))
	return cmd
}

// service merges flags, positional output paths and the project file.
func (f *flags) service(cmd *cobra.Command, args []string) (*app.Service, error) {
	outputs, err := pairOutputs(f.outputs, args)
	if err != nil {
		return nil, err
	}
	projectFile := f.projectFile
	if projectFile == "" {
		if cwd, err := os.Getwd(); err == nil {
			projectFile, _ = config.FindProjectFile(cwd)
		}
	}
	level, format := f.logLevel, f.logFormat
	if projectFile != "" {
		if p, err := config.Load(projectFile); err == nil {
			if !cmd.Flags().Changed("log-level") {
				level = p.Logging.Level
			}
			if !cmd.Flags().Changed("log-format") {
				format = p.Logging.Format
			}
		}
	}
	logger := logging.New(level, format, cmd.ErrOrStderr())

	return app.New(app.Options{
		ProjectFile: projectFile,
		Kconfig:     f.kconfig,
		Config:      f.config,
		Defaults:    f.defaults,
		Outputs:     outputs,
		Menuconfig:  f.menuconfig,
		EnvPairs:    f.env,
		EnvFile:     f.envFile,
		Prefix:      f.prefix,
		Journal:     f.journal,
		Logger:      logger,
	})
}

// pairOutputs matches each --output FORMAT with the next positional PATH.
// FORMAT=PATH in a single flag value needs no positional argument.
func pairOutputs(formats, paths []string) ([]config.OutputConfig, error) {
	out := make([]config.OutputConfig, 0, len(formats))
	next := 0
	for _, f := range formats {
		if format, path, ok := strings.Cut(f, "="); ok {
			out = append(out, config.OutputConfig{Format: format, Path: path})
			continue
		}
		if next >= len(paths) {
			return nil, &exitError{code: exitUsage, msg: fmt.Sprintf("--output %s is missing its PATH argument", f)}
		}
		out = append(out, config.OutputConfig{Format: f, Path: paths[next]})
		next++
	}
	if next < len(paths) {
		return nil, &exitError{code: exitUsage, msg: fmt.Sprintf("unexpected argument %q; PATH arguments must follow --output FORMAT", paths[next])}
	}
	return out, nil
}

// classify maps pipeline failures to exit codes. Bad command-line input
// exits with 2, everything else with 1.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var ex ExitCoder
	if errors.As(err, &ex) {
		return err
	}
	if config.IsKind(err, config.KindUnknownFormat) || config.IsKind(err, config.KindMalformedEnv) {
		return &exitError{code: exitUsage, msg: err.Error()}
	}
	return &exitError{code: exitFailure, msg: err.Error()}
}

func newDoctorCmd(newSvc func(*cobra.Command, []string) (*app.Service, error), jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:     "doctor [PATH]...",
		Aliases: []string{"diag", "checkup"},
		Short:   "Check that a generation run would succeed",
		Args:    cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc(cmd, args)
			if err != nil {
				return classify(err)
			}
			report := svc.DoctorRun(cmd.Context())
			if err := printReport(cmd.OutOrStdout(), *jsonOutput, report.Healthy, report); err != nil {
				return err
			}
			if !report.Healthy {
				if *jsonOutput {
					return &exitError{code: exitFailure, msg: "doctor found problems"}
				}
				for _, f := range report.Findings {
					fmt.Fprintf(cmd.OutOrStdout(), "- [%s] %s\n", f.Code, f.Message)
				}
				return &exitError{code: exitFailure, msg: "doctor found problems"}
			}
			return nil
		},
	}
}

func printReport(w io.Writer, jsonOutput, healthy bool, payload any) error {
	if jsonOutput {
		return print(w, true, payload, "")
	}
	if healthy {
		return print(w, false, nil, "healthy")
	}
	return print(w, false, nil, "issues found:")
}

func newInitCmd(jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "init [DIR]",
		Short: "Write a default kconfgen.toml",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			path, err := config.InitProject(dir)
			if err != nil {
				return err
			}
			return print(cmd.OutOrStdout(), *jsonOutput, map[string]string{"projectFile": path}, "wrote "+path)
		},
	}
}

func print(w io.Writer, jsonOutput bool, payload any, message string) error {
	if jsonOutput {
		blob, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(blob))
		return nil
	}
	if message != "" {
		fmt.Fprintln(w, message)
	}
	return nil
}
