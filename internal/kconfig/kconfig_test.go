package kconfig

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `mainmenu "Test Config"

config FOO
	bool "Enable foo"
	default y
	help
	  Turns on foo.

	  Second paragraph.

config BAR
	bool "Enable bar"
	depends on FOO

config NAME
	string "Name"
	default "demo"

config ADDR
	hex "Address"
	default 0x1000

config COUNT
	int "Count"
	range 1 10
	default 20

menu "Advanced"
	depends on FOO

config HIDDEN
	bool
	default y

choice MODE
	prompt "Mode"
	default MODE_B

config MODE_A
	bool "A"

config MODE_B
	bool "B"

endchoice

endmenu
`

func writeSchema(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func newTestKconfig(t *testing.T) *Kconfig {
	t.Helper()
	path := writeSchema(t, t.TempDir(), "Kconfig", testSchema)
	k, err := New(path, Options{})
	require.NoError(t, err)
	return k
}

func TestNewParsesSchema(t *testing.T) {
	k := newTestKconfig(t)

	assert.Equal(t, "Test Config", k.MainMenu)
	assert.Equal(t, DefaultPrefix, k.Prefix)

	var names []string
	for _, s := range k.Symbols() {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"FOO", "BAR", "NAME", "ADDR", "COUNT", "HIDDEN", "MODE_A", "MODE_B"}, names)

	foo, ok := k.Lookup("FOO")
	require.True(t, ok)
	assert.Equal(t, Bool, foo.Type)
	assert.Equal(t, "Turns on foo.\n\nSecond paragraph.", foo.Help())

	_, ok = k.Lookup("MISSING")
	assert.False(t, ok)
	require.Len(t, k.Choices(), 1)
	assert.Equal(t, "MODE", k.Choices()[0].Name)
}

func TestResolvedDefaults(t *testing.T) {
	k := newTestKconfig(t)

	cases := map[string]string{
		"FOO":    "y",
		"BAR":    "n",
		"NAME":   "demo",
		"ADDR":   "0x1000",
		"COUNT":  "10",
		"HIDDEN": "y",
		"MODE_A": "n",
		"MODE_B": "y",
	}
	for name, want := range cases {
		sym, ok := k.Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, want, sym.StrValue(), name)
		assert.True(t, sym.Configurable(), name)
		assert.False(t, sym.IsSet(), name)
	}
}

func TestDependenciesFollowUserValues(t *testing.T) {
	k := newTestKconfig(t)
	foo, _ := k.Lookup("FOO")
	bar, _ := k.Lookup("BAR")
	hidden, _ := k.Lookup("HIDDEN")
	modeB, _ := k.Lookup("MODE_B")

	require.True(t, foo.SetValue("n"))
	assert.True(t, foo.IsSet())
	assert.Equal(t, No, foo.TriValue())
	assert.Equal(t, No, bar.Visibility())
	assert.False(t, bar.Configurable())
	assert.Equal(t, "n", hidden.StrValue())
	assert.False(t, hidden.Configurable())
	assert.False(t, modeB.Configurable())

	foo.Unset()
	assert.Equal(t, "y", foo.StrValue())
	assert.True(t, hidden.Configurable())
}

func TestChoiceSelection(t *testing.T) {
	k := newTestKconfig(t)
	modeA, _ := k.Lookup("MODE_A")
	modeB, _ := k.Lookup("MODE_B")
	c := modeA.Choice()
	require.NotNil(t, c)
	assert.Equal(t, "Mode", c.Prompt())
	assert.Same(t, modeB, c.Selection())

	require.True(t, modeA.SetValue("y"))
	assert.Same(t, modeA, c.Selection())
	assert.Equal(t, Yes, modeA.TriValue())
	assert.Equal(t, No, modeB.TriValue())
	assert.Equal(t, []TriValue{No, Yes}, modeA.Assignable())
}

func TestSetValueValidates(t *testing.T) {
	k := newTestKconfig(t)
	foo, _ := k.Lookup("FOO")
	count, _ := k.Lookup("COUNT")
	addr, _ := k.Lookup("ADDR")

	assert.False(t, foo.SetValue("m"))
	assert.False(t, count.SetValue("abc"))
	assert.False(t, count.SetValue("11"))
	assert.True(t, count.SetValue("3"))
	assert.Equal(t, "3", count.StrValue())
	assert.True(t, addr.SetValue("FF"))
	assert.Equal(t, "0xFF", addr.StrValue())
	assert.False(t, addr.SetValue("zz"))
}

func TestSelectRaisesTarget(t *testing.T) {
	dir := t.TempDir()
	path := writeSchema(t, dir, "Kconfig", `
config A
	bool "A"
	select B

config B
	bool "B"
`)
	k, err := New(path, Options{})
	require.NoError(t, err)
	a, _ := k.Lookup("A")
	b, _ := k.Lookup("B")

	assert.Equal(t, No, b.TriValue())
	require.True(t, a.SetValue("y"))
	assert.Equal(t, Yes, b.TriValue())
	require.True(t, b.SetValue("n"))
	assert.Equal(t, Yes, b.TriValue())
}

func TestLoadMergeModes(t *testing.T) {
	k := newTestKconfig(t)
	name, _ := k.Lookup("NAME")

	missing, err := k.Load(strings.NewReader("CONFIG_NAME=\"first\"\nCONFIG_BOGUS=1\n"), "d1", MergeKeep)
	require.NoError(t, err)
	assert.Equal(t, []MissingSymbol{{Name: "BOGUS", Value: "1"}}, missing)
	assert.Equal(t, "first", name.StrValue())

	_, err = k.Load(strings.NewReader("CONFIG_NAME=\"second\"\n"), "d2", MergeKeep)
	require.NoError(t, err)
	assert.Equal(t, "first", name.StrValue())

	_, err = k.Load(strings.NewReader("CONFIG_NAME=\"third\"\n"), "settings", MergeOverride)
	require.NoError(t, err)
	assert.Equal(t, "third", name.StrValue())
}

func TestLoadParsesLineForms(t *testing.T) {
	k := newTestKconfig(t)
	input := strings.Join([]string{
		"# comment",
		"# CONFIG_FOO is not set",
		`CONFIG_NAME="say \"hi\""`,
		"CONFIG_COUNT=abc",
		"CONFIG_MODE_A=y",
		"garbage line",
		"",
	}, "\n")
	missing, err := k.Load(strings.NewReader(input), "settings", MergeOverride)
	require.NoError(t, err)
	assert.Empty(t, missing)

	foo, _ := k.Lookup("FOO")
	name, _ := k.Lookup("NAME")
	count, _ := k.Lookup("COUNT")
	modeA, _ := k.Lookup("MODE_A")
	assert.Equal(t, "n", foo.StrValue())
	assert.Equal(t, `say "hi"`, name.StrValue())
	assert.False(t, count.IsSet())
	assert.True(t, modeA.IsSet())
}

func TestWriteConfig(t *testing.T) {
	k := newTestKconfig(t)
	var buf bytes.Buffer
	require.NoError(t, k.WriteConfig(&buf, "# header\n"))

	want := `# header
CONFIG_FOO=y
# CONFIG_BAR is not set
CONFIG_NAME="demo"
CONFIG_ADDR=0x1000
CONFIG_COUNT=10

#
# Advanced
#
CONFIG_HIDDEN=y
# CONFIG_MODE_A is not set
CONFIG_MODE_B=y
# end of Advanced
`
	assert.Equal(t, want, buf.String())
}

func TestWriteConfigRoundTrip(t *testing.T) {
	k := newTestKconfig(t)
	name, _ := k.Lookup("NAME")
	require.True(t, name.SetValue(`a\b"c`))

	var first bytes.Buffer
	require.NoError(t, k.WriteConfig(&first, ""))

	other := newTestKconfig(t)
	missing, err := other.Load(bytes.NewReader(first.Bytes()), "roundtrip", MergeOverride)
	require.NoError(t, err)
	assert.Empty(t, missing)

	var second bytes.Buffer
	require.NoError(t, other.WriteConfig(&second, ""))
	assert.Equal(t, first.String(), second.String())
}

func TestWriteAutoconf(t *testing.T) {
	k := newTestKconfig(t)
	var buf bytes.Buffer
	require.NoError(t, k.WriteAutoconf(&buf, "/* header */\n"))

	want := `/* header */
#define CONFIG_FOO 1
#define CONFIG_NAME "demo"
#define CONFIG_ADDR 0x1000
#define CONFIG_COUNT 10
#define CONFIG_HIDDEN 1
#define CONFIG_MODE_B 1
`
	assert.Equal(t, want, buf.String())
}

func TestMacrosAndSource(t *testing.T) {
	dir := t.TempDir()
	comp := filepath.Join(dir, "components")
	require.NoError(t, os.MkdirAll(comp, 0o755))
	writeSchema(t, comp, "Kconfig.sub", `
config SUB
	string "Sub path"
	default "$(ROOT)/sub"
`)
	path := writeSchema(t, dir, "Kconfig", `
source "$(COMPONENTS)/Kconfig.*"
osource "missing/Kconfig"
rsource "components/Kconfig.sub"
`)

	k, err := New(path, Options{Env: map[string]string{"COMPONENTS": comp, "ROOT": "/opt"}, Prefix: "APP_"})
	require.NoError(t, err)
	sub, ok := k.Lookup("SUB")
	require.True(t, ok)
	assert.Equal(t, "/opt/sub", sub.StrValue())
	assert.Len(t, sub.Nodes, 2)
	assert.Len(t, k.UniqueSymbols(), 1)
	assert.Equal(t, "APP_SUB=\"/opt/sub\"\n", sub.ConfigString())
}

func TestExpressionOperators(t *testing.T) {
	dir := t.TempDir()
	path := writeSchema(t, dir, "Kconfig", `
config LEVEL
	int "Level"
	default 3

config KIND
	string "Kind"
	default "fast"

config HIGH
	def_bool LEVEL >= 2 && !(KIND = "slow")

config LOW
	def_bool LEVEL < 2 || KIND != "fast"
`)
	k, err := New(path, Options{})
	require.NoError(t, err)
	high, _ := k.Lookup("HIGH")
	low, _ := k.Lookup("LOW")
	level, _ := k.Lookup("LEVEL")

	assert.Equal(t, Yes, high.TriValue())
	assert.Equal(t, No, low.TriValue())
	require.True(t, level.SetValue("1"))
	assert.Equal(t, No, high.TriValue())
	assert.Equal(t, Yes, low.TriValue())
}

func TestParseErrorsCarryLocation(t *testing.T) {
	dir := t.TempDir()
	path := writeSchema(t, dir, "Kconfig", "config FOO\n\tbool \"Foo\"\nbogus FOO\n")
	_, err := New(path, Options{})
	require.Error(t, err)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 3, perr.Line)
	assert.Contains(t, err.Error(), "unknown statement")

	path = writeSchema(t, dir, "Kconfig.menu", "menu \"Open\"\nconfig FOO\n\tbool\n")
	_, err = New(path, Options{})
	assert.ErrorContains(t, err, "without endmenu")
}

func TestEscape(t *testing.T) {
	assert.Equal(t, `a\"b\\c`, Escape(`a"b\c`))
	assert.Equal(t, `a"b\c`, Unescape(Escape(`a"b\c`)))
}

func TestMacroInsideStringKeepsQuotes(t *testing.T) {
	dir := t.TempDir()
	path := writeSchema(t, dir, "Kconfig", `
config GREETING
	string "Greeting"
	default "$(MSG)!"
`)
	k, err := New(path, Options{Env: map[string]string{"MSG": `say "hi"`}})
	require.NoError(t, err)
	sym, _ := k.Lookup("GREETING")
	assert.Equal(t, `say "hi"!`, sym.StrValue())
}

func TestHiddenDisabledDefaultIsNotWritten(t *testing.T) {
	dir := t.TempDir()
	path := writeSchema(t, dir, "Kconfig", `
config OFF
	bool
	default n

config PULLER
	bool "Puller"

config PULLED
	bool
	default n

config SOURCE
	bool "Source"
	select PULLED if PULLER
`)
	k, err := New(path, Options{})
	require.NoError(t, err)
	off, _ := k.Lookup("OFF")
	pulled, _ := k.Lookup("PULLED")
	source, _ := k.Lookup("SOURCE")
	puller, _ := k.Lookup("PULLER")

	assert.False(t, off.Configurable())
	assert.Equal(t, "", off.ConfigString())
	assert.False(t, pulled.Configurable())

	require.True(t, source.SetValue("y"))
	require.True(t, puller.SetValue("y"))
	assert.True(t, pulled.Configurable())
	assert.Equal(t, "CONFIG_PULLED=y\n", pulled.ConfigString())
}

func TestEmptyNumericValuesAreNotWritten(t *testing.T) {
	dir := t.TempDir()
	path := writeSchema(t, dir, "Kconfig", `
config COUNT
	int "Count"

config BASE
	hex "Base"

config LABEL
	string "Label"
`)
	k, err := New(path, Options{})
	require.NoError(t, err)
	for _, name := range []string{"COUNT", "BASE"} {
		sym, _ := k.Lookup(name)
		assert.Equal(t, "", sym.StrValue(), name)
		assert.False(t, sym.Configurable(), name)
		assert.Equal(t, "", sym.ConfigString(), name)
	}
	label, _ := k.Lookup("LABEL")
	assert.True(t, label.Configurable())
	assert.Equal(t, "CONFIG_LABEL=\"\"\n", label.ConfigString())

	var buf bytes.Buffer
	require.NoError(t, k.WriteAutoconf(&buf, ""))
	assert.Equal(t, "#define CONFIG_LABEL \"\"\n", buf.String())
}

func TestHexValuesStayWithinInt64(t *testing.T) {
	k := newTestKconfig(t)
	addr, _ := k.Lookup("ADDR")
	assert.True(t, addr.SetValue("0x7fffffffffffffff"))
	assert.False(t, addr.SetValue("0x8000000000000000"))
	assert.False(t, addr.SetValue("-1"))

	_, err := ParseHex("ffffffffffffffff")
	assert.Error(t, err)
	n, err := ParseHex("0X10")
	require.NoError(t, err)
	assert.Equal(t, int64(16), n)
}
