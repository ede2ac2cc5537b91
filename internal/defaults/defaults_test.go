package defaults

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kconfgen/internal/config"
	"kconfgen/internal/kconfig"
)

const schema = `
config FOO
	bool "Foo"
	default y

config BAR
	bool "Bar"

config NAME
	string "Name"
	default "schema"

config LEVEL
	int "Level"
	default 5

config ADDR
	hex "Address"
	default 0x10
`

func newEngine(t *testing.T) (*kconfig.Kconfig, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "Kconfig")
	require.NoError(t, os.WriteFile(path, []byte(schema), 0o644))
	k, err := kconfig.New(path, kconfig.Options{})
	require.NoError(t, err)
	return k, dir
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func value(t *testing.T, k *kconfig.Kconfig, name string) string {
	t.Helper()
	sym, ok := k.Lookup(name)
	require.True(t, ok, name)
	return sym.StrValue()
}

func TestLoadLayersInPriorityOrder(t *testing.T) {
	k, dir := newEngine(t)
	d1 := writeFile(t, dir, "d1", "CONFIG_NAME=\"first\"\n")
	d2 := writeFile(t, dir, "d2", "CONFIG_NAME=\"second\"\nCONFIG_BAR=y\n")

	require.NoError(t, Load(k, []string{d1, d2}, nil))
	assert.Equal(t, "first", value(t, k, "NAME"))
	assert.Equal(t, "y", value(t, k, "BAR"))
	assert.Equal(t, "5", value(t, k, "LEVEL"))
}

func TestLoadRepairsEmptyAssignments(t *testing.T) {
	k, dir := newEngine(t)
	d := writeFile(t, dir, "d", "  CONFIG_FOO=  \nCONFIG_NAME=\nCONFIG_LEVEL=\n")

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	require.NoError(t, Load(k, []string{d}, logger))

	assert.Equal(t, "n", value(t, k, "FOO"))
	assert.Equal(t, "", value(t, k, "NAME"))
	assert.Equal(t, "5", value(t, k, "LEVEL"))
	assert.Contains(t, logs.String(), "line was updated to CONFIG_FOO=n")
	assert.Contains(t, logs.String(), "Loading defaults file")

	original, err := os.ReadFile(d)
	require.NoError(t, err)
	assert.Equal(t, "  CONFIG_FOO=  \nCONFIG_NAME=\nCONFIG_LEVEL=\n", string(original))
}

func TestEmptyAssignmentMatchesExplicitDisable(t *testing.T) {
	a, dir := newEngine(t)
	b, _ := newEngine(t)
	require.NoError(t, Load(a, []string{writeFile(t, dir, "a", "CONFIG_FOO=\n")}, nil))
	require.NoError(t, Load(b, []string{writeFile(t, dir, "b", "CONFIG_FOO=n\n")}, nil))
	assert.Equal(t, value(t, b, "FOO"), value(t, a, "FOO"))
}

func TestLoadWarnsOnUnknownSymbols(t *testing.T) {
	k, dir := newEngine(t)
	d := writeFile(t, dir, "d", "CONFIG_BOGUS=1\nCONFIG_BAR=y\n")

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	require.NoError(t, Load(k, []string{d}, logger))
	assert.Contains(t, logs.String(), "unknown kconfig symbol 'BOGUS' assigned to '1' in "+d)
	assert.Equal(t, "y", value(t, k, "BAR"))
	_, ok := k.Lookup("BOGUS")
	assert.False(t, ok)
}

func TestLoadMissingFile(t *testing.T) {
	k, dir := newEngine(t)
	err := Load(k, []string{filepath.Join(dir, "absent")}, nil)
	require.Error(t, err)
	assert.True(t, config.IsKind(err, config.KindMissingDefaultsFile))
}

func TestLoadLeavesNoScratchFiles(t *testing.T) {
	k, dir := newEngine(t)
	tmp := t.TempDir()
	t.Setenv("TMPDIR", tmp)
	require.NoError(t, Load(k, []string{writeFile(t, dir, "d", "CONFIG_BAR=y\n")}, nil))
	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExpandGlobs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sdkconfig.defaults.b", "")
	writeFile(t, dir, "sdkconfig.defaults.a", "")

	got, err := Expand([]string{filepath.Join(dir, "plain"), filepath.Join(dir, "sdkconfig.defaults.*")})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "plain"),
		filepath.Join(dir, "sdkconfig.defaults.a"),
		filepath.Join(dir, "sdkconfig.defaults.b"),
	}, got)

	_, err = Expand([]string{filepath.Join(dir, "*.none")})
	assert.True(t, config.IsKind(err, config.KindMissingDefaultsFile))
}

func TestRepairLeavesOtherLinesTrimmed(t *testing.T) {
	k, _ := newEngine(t)
	got := Repair(k, "d", []byte("  # comment=\n\tCONFIG_NAME=\"a=\"\nCONFIG_ADDR=\n"), nil)
	assert.Equal(t, "# comment=\nCONFIG_NAME=\"a=\"\n# CONFIG_ADDR is not set\n", string(got))
}
