package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// AtomicWrite replaces path with data through a temp file in the same
// directory. An existing file keeps its mode; perm applies to new files.
func AtomicWrite(path string, data []byte, perm os.FileMode) error {
	if fi, err := os.Stat(path); err == nil {
		perm = fi.Mode().Perm()
	}
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	f, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return fmt.Errorf("create tmp: %w", err)
	}
	tmp := f.Name()
	_, werr := f.Write(data)
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr == nil {
		werr = os.Chmod(tmp, perm)
	}
	if werr != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write tmp: %w", werr)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// WithScratchFile writes data to a fresh temp file and hands its path to fn.
// The file is removed when fn returns, whether or not fn fails.
func WithScratchFile(pattern string, data []byte, fn func(path string) error) error {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return fmt.Errorf("create scratch: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("write scratch: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close scratch: %w", err)
	}
	return fn(path)
}
