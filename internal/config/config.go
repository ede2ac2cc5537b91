package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"kconfgen/internal/fsutil"
)

// Load reads a project file. Relative paths inside it are resolved against
// the directory holding the file.
func Load(path string) (Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Project{}, &Error{Kind: KindProject, Path: path, Err: err}
	}
	var p Project
	if err := toml.Unmarshal(data, &p); err != nil {
		return Project{}, &Error{Kind: KindProject, Path: path, Err: fmt.Errorf("CFG_PROJECT_PARSE: %w", err)}
	}
	p = Normalize(p)
	if err := Validate(p); err != nil {
		return Project{}, &Error{Kind: KindProject, Path: path, Err: err}
	}
	abs, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return Project{}, &Error{Kind: KindProject, Path: path, Err: err}
	}
	return Rebase(p, abs), nil
}

func Save(path string, p Project) error {
	p = Normalize(p)
	if err := Validate(p); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	blob, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("CFG_PROJECT_ENCODE: %w", err)
	}
	return fsutil.AtomicWrite(path, blob, 0o644)
}

// InitProject writes a default kconfgen.toml into dir. It refuses to
// overwrite an existing project file.
func InitProject(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("CFG_PROJECT_INIT: %w", err)
	}
	path := filepath.Join(abs, ProjectFileName)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("CFG_PROJECT_INIT: project already initialized at %s", path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("CFG_PROJECT_INIT: %w", err)
	}
	if err := Save(path, DefaultProject()); err != nil {
		return "", err
	}
	return path, nil
}
