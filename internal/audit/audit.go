// Package audit appends one JSON line per pipeline step to a journal file.
package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	StatusOK      = "ok"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

type Journal struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// Entry records one step. Stage is one of "invalidate", "resolve" or
// "emit"; Format and Path are set for emit entries.
type Entry struct {
	Timestamp string `json:"timestamp"`
	Stage     string `json:"stage"`
	Status    string `json:"status"`
	Format    string `json:"format,omitempty"`
	Path      string `json:"path,omitempty"`
	Code      string `json:"code,omitempty"`
	Message   string `json:"message,omitempty"`
}

// New returns a journal writing to path. An empty path disables it.
func New(path string) *Journal {
	return &Journal{path: path, now: time.Now}
}

func (j *Journal) Record(e Entry) error {
	if j == nil || j.path == "" {
		return nil
	}
	now := time.Now
	if j.now != nil {
		now = j.now
	}
	e.Timestamp = now().UTC().Format(time.RFC3339Nano)
	blob, err := json.Marshal(e)
	if err != nil {
		return err
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(j.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(j.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.Write(append(blob, '\n')); err != nil {
		return err
	}
	return nil
}

// ReadAll parses every entry in the journal at path.
func ReadAll(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []Entry
	dec := json.NewDecoder(f)
	for dec.More() {
		var e Entry
		if err := dec.Decode(&e); err != nil {
			return out, err
		}
		out = append(out, e)
	}
	return out, nil
}
