package request

import (
	"errors"
	"slices"

	"github.com/dshills/modelview/internal/memento"
	"github.com/dshills/modelview/internal/presentation"
	"github.com/dshills/modelview/internal/treepath"
)

// Sentinel errors for requests.
var (
	// ErrFailed is reported when a model fails a request without a cause.
	ErrFailed = errors.New("model request failed")

	// ErrNotSupported is reported when an element lacks the capability a
	// request needs.
	ErrNotSupported = errors.New("capability not supported")
)

// ChildrenUpdate asks for the children of an element.
type ChildrenUpdate struct {
	base
	children []any
}

// NewChildrenUpdate creates a children request.
func NewChildrenUpdate(element any, path treepath.Path, ctx *presentation.Context, n Notifier) *ChildrenUpdate {
	u := &ChildrenUpdate{}
	u.init(u, KindChildren, element, path, ctx, n)
	return u
}

// SetChildren records the children in model order.
func (u *ChildrenUpdate) SetChildren(children []any) {
	u.children = slices.Clone(children)
}

// Children returns the recorded children.
func (u *ChildrenUpdate) Children() []any {
	return u.children
}

// CountUpdate asks for the number of children of an element.
type CountUpdate struct {
	base
	count int
}

// NewCountUpdate creates a child-count request.
func NewCountUpdate(element any, path treepath.Path, ctx *presentation.Context, n Notifier) *CountUpdate {
	u := &CountUpdate{}
	u.init(u, KindChildCount, element, path, ctx, n)
	return u
}

// SetCount records the child count. Negative counts are stored as zero.
func (u *CountUpdate) SetCount(n int) {
	u.count = max(n, 0)
}

// Count returns the recorded child count.
func (u *CountUpdate) Count() int {
	return u.count
}

// HasChildrenUpdate asks whether an element has children.
type HasChildrenUpdate struct {
	base
	has bool
}

// NewHasChildrenUpdate creates a has-children request.
func NewHasChildrenUpdate(element any, path treepath.Path, ctx *presentation.Context, n Notifier) *HasChildrenUpdate {
	u := &HasChildrenUpdate{}
	u.init(u, KindHasChildren, element, path, ctx, n)
	return u
}

// SetHasChildren records the answer.
func (u *HasChildrenUpdate) SetHasChildren(has bool) {
	u.has = has
}

// HasChildren returns the recorded answer.
func (u *HasChildrenUpdate) HasChildren() bool {
	return u.has
}

// LabelSink receives label results for one row.
type LabelSink interface {
	SetText(column int, text string)
	SetImage(column int, image string)
}

// LabelUpdate asks for the text and image of an element in each requested
// column. A request without columns asks for a single label in column 0.
type LabelUpdate struct {
	base
	columns []string
	texts   []string
	images  []string
}

// NewLabelUpdate creates a label request for the given column ids.
func NewLabelUpdate(element any, path treepath.Path, columns []string, ctx *presentation.Context, n Notifier) *LabelUpdate {
	width := max(len(columns), 1)
	u := &LabelUpdate{
		columns: slices.Clone(columns),
		texts:   make([]string, width),
		images:  make([]string, width),
	}
	u.init(u, KindLabel, element, path, ctx, n)
	return u
}

// Columns returns the requested column ids, or nil for a single label.
func (u *LabelUpdate) Columns() []string {
	return u.columns
}

// SetLabel sets the text of a column index. Out of range indexes are ignored.
func (u *LabelUpdate) SetLabel(column int, text string) {
	if column >= 0 && column < len(u.texts) {
		u.texts[column] = text
	}
}

// SetImage sets the image key of a column index.
func (u *LabelUpdate) SetImage(column int, image string) {
	if column >= 0 && column < len(u.images) {
		u.images[column] = image
	}
}

// Label returns the text of a column index.
func (u *LabelUpdate) Label(column int) string {
	if column >= 0 && column < len(u.texts) {
		return u.texts[column]
	}
	return ""
}

// Image returns the image key of a column index.
func (u *LabelUpdate) Image(column int) string {
	if column >= 0 && column < len(u.images) {
		return u.images[column]
	}
	return ""
}

// Apply writes the results into a row.
func (u *LabelUpdate) Apply(row LabelSink) {
	for i := range u.texts {
		row.SetText(i, u.texts[i])
		row.SetImage(i, u.images[i])
	}
}

// MementoUpdate asks the model to encode the state of an element so an equal
// element can be recognised later.
type MementoUpdate struct {
	base
	memento memento.Memento
}

// NewMementoUpdate creates an encode request writing into m.
func NewMementoUpdate(element any, path treepath.Path, m memento.Memento, ctx *presentation.Context, n Notifier) *MementoUpdate {
	u := &MementoUpdate{memento: m}
	u.init(u, KindMemento, element, path, ctx, n)
	return u
}

// Memento returns the memento the model writes into.
func (u *MementoUpdate) Memento() memento.Memento {
	return u.memento
}

// CompareUpdate asks the model whether an element is the one a memento was
// encoded from.
type CompareUpdate struct {
	base
	memento memento.Memento
	equal   bool
}

// NewCompareUpdate creates a compare request against m.
func NewCompareUpdate(element any, path treepath.Path, m memento.Memento, ctx *presentation.Context, n Notifier) *CompareUpdate {
	u := &CompareUpdate{memento: m}
	u.init(u, KindCompare, element, path, ctx, n)
	return u
}

// Memento returns the saved state to compare against.
func (u *CompareUpdate) Memento() memento.Memento {
	return u.memento
}

// SetEqual records the comparison result.
func (u *CompareUpdate) SetEqual(equal bool) {
	u.equal = equal
}

// Equal returns the comparison result.
func (u *CompareUpdate) Equal() bool {
	return u.equal
}
