package termview

import (
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/modelview/internal/widget"
)

// Render draws tree off-screen at the given size and returns the text, one
// line per row with trailing blanks removed.
func Render(tree *widget.Memory, width, height int) (string, error) {
	s := tcell.NewSimulationScreen("UTF-8")
	if err := s.Init(); err != nil {
		return "", err
	}
	defer s.Fini()
	s.SetSize(width, height)

	New(tree).Draw(s)
	return Snapshot(s), nil
}

// Snapshot returns the text content of a simulation screen.
func Snapshot(s tcell.SimulationScreen) string {
	cells, width, height := s.GetContents()
	lines := make([]string, 0, height)
	for y := 0; y < height; y++ {
		var b strings.Builder
		for x := 0; x < width; x++ {
			c := cells[y*width+x]
			if len(c.Runes) == 0 {
				b.WriteByte(' ')
				continue
			}
			b.WriteString(string(c.Runes))
		}
		lines = append(lines, strings.TrimRight(b.String(), " "))
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}
