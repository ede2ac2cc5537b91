package config

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// Build metadata, set with -ldflags "-X kconfgen/internal/config.Version=...".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func canonicalVersion(v string) string {
	v = strings.TrimSpace(v)
	if v != "" && !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

// CheckMinVersion fails when the running build is older than min. Development
// builds without a semantic version always pass.
func CheckMinVersion(min, current string) error {
	if min == "" {
		return nil
	}
	cur := canonicalVersion(current)
	if !semver.IsValid(cur) {
		return nil
	}
	req := canonicalVersion(min)
	if !semver.IsValid(req) {
		return fmt.Errorf("CFG_PROJECT_VERSION: invalid min_version %q", min)
	}
	if semver.Compare(cur, req) < 0 {
		return fmt.Errorf("CFG_PROJECT_VERSION: project requires kconfgen %s or newer, running %s", req, cur)
	}
	return nil
}
