// Package termview draws a widget tree on a terminal screen and turns key
// events into expansion and selection gestures.
package termview

import (
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"

	"github.com/dshills/modelview/internal/widget"
)

// Expander glyphs.
const (
	glyphCollapsed = "▸ "
	glyphExpanded  = "▾ "
	glyphLeaf      = "  "
	placeholder    = "…"
	indentWidth    = 2
)

// Styles holds the styles used to draw the tree.
type Styles struct {
	Normal      tcell.Style
	Header      tcell.Style
	Selected    tcell.Style
	Cursor      tcell.Style
	Placeholder tcell.Style
}

// DefaultStyles returns the default styles.
func DefaultStyles() Styles {
	base := tcell.StyleDefault
	return Styles{
		Normal:      base,
		Header:      base.Bold(true).Underline(true),
		Selected:    base.Reverse(true),
		Cursor:      base.Underline(true),
		Placeholder: base.Dim(true),
	}
}

// View draws a widget.Memory and interprets key events.
type View struct {
	tree     *widget.Memory
	styles   Styles
	onSelect func([]widget.ItemID)

	top    int
	cursor int
	shown  widget.ItemID
	height int
}

// Option configures a View.
type Option func(*View)

// WithStyles sets the drawing styles.
func WithStyles(s Styles) Option {
	return func(v *View) {
		v.styles = s
	}
}

// WithSelectHandler sets the function called after the user changes the
// selection.
func WithSelectHandler(fn func([]widget.ItemID)) Option {
	return func(v *View) {
		v.onSelect = fn
	}
}

// New creates a view of tree.
func New(tree *widget.Memory, opts ...Option) *View {
	v := &View{tree: tree, styles: DefaultStyles()}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Cursor returns the item under the cursor, or widget.NoItem.
func (v *View) Cursor() widget.ItemID {
	rows := v.tree.Visible()
	if v.cursor < 0 || v.cursor >= len(rows) {
		return widget.NoItem
	}
	return rows[v.cursor]
}

// Draw paints the tree onto s and notifies the tree's paint listeners.
func (v *View) Draw(s tcell.Screen) {
	width, height := s.Size()
	s.Clear()

	cols := v.layout(width)
	y := 0
	if v.tree.HeaderVisible() && len(v.tree.Columns()) > 0 {
		for _, c := range cols {
			drawText(s, c.x, y, c.width, v.tree.Columns()[c.index].Header, v.styles.Header)
		}
		y++
	}

	rows := v.tree.Visible()
	v.height = max(height-y, 0)
	v.scroll(rows)

	selected := make(map[widget.ItemID]bool)
	for _, id := range v.tree.Selection() {
		selected[id] = true
	}

	for i := v.top; i < len(rows) && y < height; i++ {
		id := rows[i]
		style := v.styles.Normal
		if selected[id] {
			style = v.styles.Selected
		}
		if i == v.cursor {
			style = style.Underline(true)
		}
		fill(s, y, width, style)
		for n, c := range cols {
			text := v.cellText(id, c.index, n == 0)
			cellStyle := style
			if v.tree.Data(id) == nil {
				cellStyle = v.styles.Placeholder
			}
			drawText(s, c.x, y, c.width, text, cellStyle)
		}
		y++
	}

	s.Show()
	v.tree.Paint()
}

type columnSpan struct {
	index int
	x     int
	width int
}

// layout places the columns in display order. Columns without a width share
// the space left over.
func (v *View) layout(width int) []columnSpan {
	cols := v.tree.Columns()
	if len(cols) == 0 {
		return []columnSpan{{index: 0, x: 0, width: width}}
	}

	order := v.tree.ColumnOrder()
	used, flexible := 0, 0
	for _, c := range cols {
		if c.Width > 0 {
			used += c.Width + 1
		} else {
			flexible++
		}
	}
	share := 0
	if flexible > 0 {
		share = max((width-used)/flexible-1, 1)
	}

	spans := make([]columnSpan, 0, len(order))
	x := 0
	for _, idx := range order {
		w := cols[idx].Width
		if w <= 0 {
			w = share
		}
		spans = append(spans, columnSpan{index: idx, x: x, width: w})
		x += w + 1
	}
	return spans
}

func (v *View) cellText(id widget.ItemID, column int, first bool) string {
	text := v.tree.Text(id, column)
	if v.tree.Data(id) == nil {
		text = placeholder
	}
	if img := v.tree.Image(id, column); img != "" {
		text = "[" + img + "] " + text
	}
	if !first {
		return text
	}
	glyph := glyphLeaf
	if v.tree.HasChildren(id) {
		glyph = glyphCollapsed
		if v.tree.Expanded(id) {
			glyph = glyphExpanded
		}
	}
	return strings.Repeat(" ", v.tree.Depth(id)*indentWidth) + glyph + text
}

// scroll keeps the cursor and the item last revealed by the tree in view.
func (v *View) scroll(rows []widget.ItemID) {
	if shown := v.tree.Shown(); shown != v.shown {
		v.shown = shown
		for i, id := range rows {
			if id == shown {
				v.cursor = i
				break
			}
		}
	}
	v.cursor = min(max(v.cursor, 0), max(len(rows)-1, 0))
	if v.height <= 0 {
		return
	}
	if v.cursor < v.top {
		v.top = v.cursor
	}
	if v.cursor >= v.top+v.height {
		v.top = v.cursor - v.height + 1
	}
	v.top = min(v.top, max(len(rows)-v.height, 0))
}

// HandleEvent applies a key event. It reports whether the event was consumed.
func (v *View) HandleEvent(ev tcell.Event) bool {
	key, ok := ev.(*tcell.EventKey)
	if !ok {
		return false
	}
	rows := v.tree.Visible()
	if len(rows) == 0 {
		return false
	}
	page := max(v.height-1, 1)

	switch key.Key() {
	case tcell.KeyUp:
		v.move(rows, -1)
	case tcell.KeyDown:
		v.move(rows, 1)
	case tcell.KeyPgUp:
		v.move(rows, -page)
	case tcell.KeyPgDn:
		v.move(rows, page)
	case tcell.KeyHome:
		v.cursor = 0
	case tcell.KeyEnd:
		v.cursor = len(rows) - 1
	case tcell.KeyRight:
		v.expand(rows[v.cursor], true)
	case tcell.KeyLeft:
		id := rows[v.cursor]
		if v.tree.Expanded(id) {
			v.expand(id, false)
			break
		}
		if parent := v.tree.Parent(id); parent != v.tree.Root() {
			v.moveTo(parent)
		}
	case tcell.KeyEnter:
		v.selectCursor(rows)
	case tcell.KeyRune:
		switch key.Rune() {
		case ' ':
			v.selectCursor(rows)
		case 'j':
			v.move(rows, 1)
		case 'k':
			v.move(rows, -1)
		default:
			return false
		}
	default:
		return false
	}
	return true
}

func (v *View) move(rows []widget.ItemID, delta int) {
	v.cursor = min(max(v.cursor+delta, 0), len(rows)-1)
}

func (v *View) moveTo(item widget.ItemID) {
	for i, id := range v.tree.Visible() {
		if id == item {
			v.cursor = i
			return
		}
	}
}

func (v *View) expand(item widget.ItemID, expanded bool) {
	if expanded && !v.tree.HasChildren(item) {
		return
	}
	v.tree.UserExpand(item, expanded)
}

func (v *View) selectCursor(rows []widget.ItemID) {
	sel := []widget.ItemID{rows[v.cursor]}
	v.tree.SetSelection(sel)
	if v.onSelect != nil {
		v.onSelect(sel)
	}
}

func fill(s tcell.Screen, y, width int, style tcell.Style) {
	for x := 0; x < width; x++ {
		s.SetContent(x, y, ' ', nil, style)
	}
}

// drawText draws text at x, y clipped to width cells and returns the number
// of cells used.
func drawText(s tcell.Screen, x, y, width int, text string, style tcell.Style) int {
	used := 0
	state := -1
	rest := text
	for len(rest) > 0 {
		var cluster string
		var w int
		cluster, rest, w, state = uniseg.FirstGraphemeClusterInString(rest, state)
		if used+w > width {
			break
		}
		runes := []rune(cluster)
		s.SetContent(x+used, y, runes[0], runes[1:], style)
		used += w
	}
	return used
}
