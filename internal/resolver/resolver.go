package resolver

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"kconfgen/internal/config"
	"kconfgen/internal/defaults"
	"kconfgen/internal/kconfig"
)

// Request names the inputs of one resolution.
type Request struct {
	Schema   string
	Defaults []string
	Settings string
	Env      map[string]string
	Prefix   string
	Logger   *slog.Logger
}

// Resolve builds the engine from the schema, fills it from the defaults
// files and then applies the settings file on top. The settings file always
// outranks defaults.
func Resolve(req Request) (*kconfig.Kconfig, error) {
	logger := req.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if _, err := os.Stat(req.Schema); err != nil {
		return nil, &config.Error{Kind: config.KindSchema, Path: req.Schema, Msg: "schema file not found", Err: err}
	}
	k, err := kconfig.New(req.Schema, kconfig.Options{
		Env:           req.Env,
		Prefix:        req.Prefix,
		WarnRedundant: false,
		WarnOverride:  false,
		Logger:        logger,
	})
	if err != nil {
		return nil, &config.Error{Kind: config.KindSchema, Path: req.Schema, Err: err}
	}

	if len(req.Defaults) > 0 {
		if err := defaults.Load(k, req.Defaults, logger); err != nil {
			return nil, err
		}
	}

	if req.Settings == "" {
		return k, nil
	}
	if _, err := os.Stat(req.Settings); errors.Is(err, os.ErrNotExist) {
		return k, nil
	}
	missing, err := k.LoadConfig(req.Settings, kconfig.MergeOverride)
	if err != nil {
		return nil, fmt.Errorf("load settings %s: %w", req.Settings, err)
	}
	for _, m := range missing {
		logger.Warn(fmt.Sprintf("unknown kconfig symbol '%s' assigned to '%s' in %s", m.Name, m.Value, req.Settings),
			"symbol", m.Name, "value", m.Value, "file", req.Settings)
	}
	return k, nil
}
