package tui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/require"
)

func TestCenterOverlayKeepsGrid(t *testing.T) {
	t.Parallel()
	base := strings.Repeat(strings.Repeat(".", 10)+"\n", 4) + strings.Repeat(".", 10)
	out := centerOverlay(base, "ab\ncd", 10, 5)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 5)
	for _, l := range lines {
		require.Equal(t, 10, ansi.StringWidth(l))
	}
	require.Equal(t, "....ab....", lines[1])
	require.Equal(t, "....cd....", lines[2])
	require.Equal(t, "..........", lines[0])
}

func TestOverlayPadsShortBase(t *testing.T) {
	t.Parallel()
	out := overlayAt("x", "yy", 2, 2, 6, 3)
	require.Equal(t, "  yy  ", strings.Split(out, "\n")[2])
	require.Len(t, strings.Split(out, "\n"), 3)
}

func TestCellTruncatesAndPads(t *testing.T) {
	t.Parallel()
	require.Equal(t, "abc  ", cell("abc", 5))
	require.Equal(t, "abcd…", cell("abcdefgh", 5))
	require.Empty(t, truncate("abc", 0))
}
