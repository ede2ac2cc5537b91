// Package vcs answers which files have uncommitted modifications.
package vcs

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"kconfgen/internal/config"
)

// ChangeLister lists absolute paths of files modified relative to the last
// committed revision.
type ChangeLister interface {
	ChangedFiles(ctx context.Context) ([]string, error)
}

type gitExecFunc func(ctx context.Context, dir string, args ...string) ([]byte, error)

// Git queries the repository containing Dir. An empty Dir means the
// current working directory.
type Git struct {
	Dir     string
	execGit gitExecFunc
}

func NewGit(dir string) *Git {
	return &Git{Dir: dir, execGit: defaultGitExec}
}

func defaultGitExec(ctx context.Context, dir string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	if dir != "" {
		cmd.Dir = dir
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git %s: %w\n%s", strings.Join(args, " "), err, stderr.String())
	}
	return out, nil
}

func (g *Git) ChangedFiles(ctx context.Context) ([]string, error) {
	run := g.execGit
	if run == nil {
		run = defaultGitExec
	}
	top, err := run(ctx, g.Dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return nil, noRevision(g.Dir, err)
	}
	root := strings.TrimSpace(string(top))
	if root == "" {
		return nil, noRevision(g.Dir, errors.New("empty repository root"))
	}
	out, err := run(ctx, g.Dir, "diff", "--name-only", "HEAD")
	if err != nil {
		return nil, noRevision(g.Dir, err)
	}
	var files []string
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		name := strings.TrimSpace(sc.Text())
		if name == "" {
			continue
		}
		files = append(files, filepath.Join(root, filepath.FromSlash(name)))
	}
	return files, nil
}

func noRevision(dir string, err error) error {
	return &config.Error{
		Kind: config.KindNoRevisionControl,
		Path: dir,
		Msg:  "This folder not under git revision",
		Err:  err,
	}
}

// SamePath compares two paths after making them absolute and resolving
// symlinks where possible.
func SamePath(a, b string) bool {
	return canonical(a) == canonical(b)
}

func canonical(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	if resolved, err := filepath.EvalSymlinks(p); err == nil {
		p = resolved
	}
	return filepath.Clean(p)
}
