package menuconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kconfgen/internal/kconfig"
)

const schema = `mainmenu "Demo"

config FOO
	bool "Foo"
	default y

config NAME
	string "Name"
	default "ab"

config COUNT
	int "Count"
	range 1 10
	default 5

choice MODE
	prompt "Mode"
	default MODE_B

config MODE_A
	bool "A"

config MODE_B
	bool "B"

endchoice
`

type key struct {
	k tcell.Key
	r rune
}

func runeKeys(s string) []key {
	var out []key
	for _, r := range s {
		out = append(out, key{tcell.KeyRune, r})
	}
	return out
}

func newEngine(t *testing.T) *kconfig.Kconfig {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Kconfig")
	require.NoError(t, os.WriteFile(path, []byte(schema), 0o644))
	k, err := kconfig.New(path, kconfig.Options{})
	require.NoError(t, err)
	return k
}

// drive runs the editor on a simulated screen, feeds it keys and returns
// the final screen text.
func drive(t *testing.T, k *kconfig.Kconfig, keys []key) []string {
	t.Helper()
	s := tcell.NewSimulationScreen("")
	require.NoError(t, s.Init())
	defer s.Fini()

	done := make(chan error, 1)
	go func() { done <- Run(k, s) }()
	for _, kk := range keys {
		s.InjectKey(kk.k, kk.r, tcell.ModNone)
	}
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("editor did not exit")
	}

	cells, w, h := s.GetContents()
	lines := make([]string, h)
	for y := 0; y < h; y++ {
		var sb strings.Builder
		for x := 0; x < w; x++ {
			if rs := cells[y*w+x].Runes; len(rs) > 0 {
				sb.WriteRune(rs[0])
			}
		}
		lines[y] = strings.TrimRight(sb.String(), " ")
	}
	return lines
}

func value(t *testing.T, k *kconfig.Kconfig, name string) string {
	t.Helper()
	sym, ok := k.Lookup(name)
	require.True(t, ok)
	return sym.StrValue()
}

func TestToggleBool(t *testing.T) {
	k := newEngine(t)
	drive(t, k, append(runeKeys(" "), key{tcell.KeyEscape, 0}))
	assert.Equal(t, "n", value(t, k, "FOO"))
}

func TestEditString(t *testing.T) {
	k := newEngine(t)
	keys := []key{{tcell.KeyDown, 0}, {tcell.KeyEnter, 0}, {tcell.KeyBackspace2, 0}}
	keys = append(keys, runeKeys("xz")...)
	keys = append(keys, key{tcell.KeyEnter, 0})
	keys = append(keys, runeKeys("q")...)
	drive(t, k, keys)
	assert.Equal(t, "axz", value(t, k, "NAME"))
}

func TestEditCancelKeepsValue(t *testing.T) {
	k := newEngine(t)
	keys := []key{{tcell.KeyDown, 0}, {tcell.KeyEnter, 0}}
	keys = append(keys, runeKeys("zz")...)
	keys = append(keys, key{tcell.KeyEscape, 0})
	keys = append(keys, runeKeys("q")...)
	drive(t, k, keys)
	assert.Equal(t, "ab", value(t, k, "NAME"))
}

func TestInvalidValueIsRejected(t *testing.T) {
	k := newEngine(t)
	keys := runeKeys("jj")
	keys = append(keys, key{tcell.KeyEnter, 0}, key{tcell.KeyBackspace2, 0})
	keys = append(keys, runeKeys("99")...)
	keys = append(keys, key{tcell.KeyEnter, 0})
	keys = append(keys, runeKeys("q")...)
	lines := drive(t, k, keys)
	assert.Equal(t, "5", value(t, k, "COUNT"))
	assert.Contains(t, lines[len(lines)-1], `invalid int value "99" for COUNT`)
}

func TestSelectChoiceMember(t *testing.T) {
	k := newEngine(t)
	keys := runeKeys("jjjj")
	keys = append(keys, key{tcell.KeyEnter, 0})
	keys = append(keys, runeKeys("q")...)
	lines := drive(t, k, keys)
	assert.Equal(t, "y", value(t, k, "MODE_A"))
	assert.Equal(t, "n", value(t, k, "MODE_B"))
	assert.Equal(t, "Demo", lines[0])
	assert.Contains(t, strings.Join(lines, "\n"), "Mode (MODE_A)")
}

func TestLabel(t *testing.T) {
	k := newEngine(t)
	nodes := k.Nodes()
	require.Len(t, nodes, 6)
	assert.Equal(t, "[*] Foo", Label(nodes[0], 0))
	assert.Equal(t, "  (ab) Name", Label(nodes[1], 1))
	assert.Equal(t, "Mode (MODE_B)", Label(nodes[3], 0))
	assert.Equal(t, "( ) A", Label(nodes[4], 0))
	assert.Equal(t, "(X) B", Label(nodes[5], 0))
}
