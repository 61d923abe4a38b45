// Package model defines the capability surface a viewer consumes from model
// elements.
//
// Elements are opaque. Everything the viewer needs from them is an optional
// capability looked up through the capability package: content (children,
// child count, has-children), labels, state encoding and comparison, column
// presentations, selection policies, cell editors and model proxies. An element
// lacking a capability is never an error; the viewer falls back to a neutral
// behaviour (a leaf, an empty label, no columns, no policy).
//
// All content, label and memento operations are asynchronous: they receive a
// request, may complete it on any goroutine and must complete it exactly once.
package model

import (
	"github.com/dshills/modelview/internal/delta"
	"github.com/dshills/modelview/internal/model/capability"
	"github.com/dshills/modelview/internal/presentation"
	"github.com/dshills/modelview/internal/request"
)

// ContentProvider answers structural queries.
type ContentProvider interface {
	Children(u *request.ChildrenUpdate)
	ChildCount(u *request.CountUpdate)
	HasChildren(u *request.HasChildrenUpdate)
}

// LabelProvider answers label queries.
type LabelProvider interface {
	Label(u *request.LabelUpdate)
}

// MementoProvider encodes element state and recognises elements from encoded
// state.
type MementoProvider interface {
	Encode(u *request.MementoUpdate)
	Compare(u *request.CompareUpdate)
}

// ColumnPresentation is a named set of columns offered for a class of inputs.
type ColumnPresentation interface {
	ID() string
	Init(ctx *presentation.Context)
	Dispose()
	// AvailableColumns returns every column id in display order.
	AvailableColumns() []string
	// InitialColumns returns the default visible column ids.
	InitialColumns() []string
	Header(id string) string
	// Image returns an image key for the column header, or "".
	Image(id string) string
	// Optional reports whether the user may turn columns off entirely.
	Optional() bool
}

// ColumnPresentationFactory creates column presentations for inputs.
type ColumnPresentationFactory interface {
	// PresentationID returns the presentation id for input, or "" for none.
	PresentationID(ctx *presentation.Context, input any) string
	CreatePresentation(ctx *presentation.Context, input any) ColumnPresentation
}

// SelectionPolicy decides how a selection reacts to incoming selections.
type SelectionPolicy interface {
	// IsSticky reports whether the current selection resists being replaced.
	IsSticky(current Selection, ctx *presentation.Context) bool
	// Contains reports whether candidate is related to the policy's element.
	Contains(candidate Selection, ctx *presentation.Context) bool
	// Overrides reports whether candidate should replace current.
	Overrides(current, candidate Selection, ctx *presentation.Context) bool
}

// SelectionPolicyFactory creates a selection policy for a selected element.
type SelectionPolicyFactory interface {
	CreateSelectionPolicy(element any, ctx *presentation.Context) SelectionPolicy
}

// CellEditor edits one cell value in place.
type CellEditor interface {
	Value() any
	SetValue(v any)
	Dispose()
}

// ColumnEditor provides in-place editing for the columns of an element.
type ColumnEditor interface {
	ID() string
	Init(ctx *presentation.Context)
	Dispose()
	CanModify(element any, column string) bool
	Value(element any, column string) any
	Modify(element any, column string, value any)
	CellEditor(column string, element any) CellEditor
}

// ColumnEditorFactory creates column editors for elements.
type ColumnEditorFactory interface {
	// EditorID returns the id of the editor used for element.
	EditorID(ctx *presentation.Context, element any) string
	CreateEditor(ctx *presentation.Context, element any) ColumnEditor
}

// DeltaSink receives deltas emitted by a model proxy.
type DeltaSink func(d *delta.Delta)

// ModelProxy is the delta source of a model subtree. Once installed it emits
// deltas to the sink from any goroutine until disposed.
type ModelProxy interface {
	Init(ctx *presentation.Context)
	Install(sink DeltaSink)
	Dispose()
}

// ModelProxyFactory creates model proxies.
type ModelProxyFactory interface {
	CreateModelProxy(element any, ctx *presentation.Context) ModelProxy
}

// Capability keys.
var (
	ContentKey             = capability.NewKey[ContentProvider]("content")
	LabelKey               = capability.NewKey[LabelProvider]("label")
	MementoKey             = capability.NewKey[MementoProvider]("memento")
	ColumnFactoryKey       = capability.NewKey[ColumnPresentationFactory]("columns")
	SelectionPolicyKey     = capability.NewKey[SelectionPolicyFactory]("selection-policy")
	ColumnEditorFactoryKey = capability.NewKey[ColumnEditorFactory]("column-editor")
	ModelProxyKey          = capability.NewKey[ModelProxyFactory]("model-proxy")
)

// Content returns the content capability of element.
func Content(element any) (ContentProvider, bool) {
	return capability.Lookup(element, ContentKey)
}

// Labels returns the label capability of element.
func Labels(element any) (LabelProvider, bool) {
	return capability.Lookup(element, LabelKey)
}

// Mementos returns the memento capability of element.
func Mementos(element any) (MementoProvider, bool) {
	return capability.Lookup(element, MementoKey)
}

// ColumnFactory returns the column presentation factory of element.
func ColumnFactory(element any) (ColumnPresentationFactory, bool) {
	return capability.Lookup(element, ColumnFactoryKey)
}

// SelectionPolicies returns the selection policy factory of element.
func SelectionPolicies(element any) (SelectionPolicyFactory, bool) {
	return capability.Lookup(element, SelectionPolicyKey)
}

// ColumnEditors returns the column editor factory of element.
func ColumnEditors(element any) (ColumnEditorFactory, bool) {
	return capability.Lookup(element, ColumnEditorFactoryKey)
}

// ModelProxies returns the model proxy factory of element.
func ModelProxies(element any) (ModelProxyFactory, bool) {
	return capability.Lookup(element, ModelProxyKey)
}
