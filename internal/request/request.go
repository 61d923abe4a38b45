// Package request defines the asynchronous update requests a viewer sends to
// model capabilities.
//
// Every request is owned by the viewer that issued it until it completes. The
// model capability that fulfils a request writes its result and then calls
// exactly one terminal method, Done or Fail, from any goroutine. The first
// terminal call wins and hands the request to the issuer's Notifier; repeated
// terminal calls are ignored and counted. Cancel only raises a flag the model
// may poll; in-flight model work is never interrupted.
package request

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/dshills/modelview/internal/presentation"
	"github.com/dshills/modelview/internal/treepath"
)

// Kind identifies the query a request carries.
type Kind int

const (
	KindChildren Kind = iota
	KindChildCount
	KindHasChildren
	KindLabel
	KindMemento
	KindCompare
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindChildren:
		return "children"
	case KindChildCount:
		return "child-count"
	case KindHasChildren:
		return "has-children"
	case KindLabel:
		return "label"
	case KindMemento:
		return "memento"
	case KindCompare:
		return "compare"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Update is the common surface of every request.
type Update interface {
	ID() uuid.UUID
	Kind() Kind
	// Element is the element the request is about.
	Element() any
	// Path is the tree path of the element.
	Path() treepath.Path
	Presentation() *presentation.Context

	// Done completes the request successfully.
	Done()
	// Fail completes the request with an error.
	Fail(err error)
	// Err returns the failure, or nil.
	Err() error
	IsComplete() bool

	// Cancel marks the request as no longer needed.
	Cancel()
	IsCanceled() bool
}

// Notifier receives a request once it completes. It is called on the
// completing goroutine and must not block.
type Notifier interface {
	Completed(u Update)
}

// DuplicateNotifier is a Notifier that is also told about terminal calls
// ignored because the request had already completed. Duplicate is called on
// the calling goroutine and must not block.
type DuplicateNotifier interface {
	Notifier
	Duplicate(u Update)
}

// base implements the completion protocol shared by all requests.
type base struct {
	id       uuid.UUID
	kind     Kind
	element  any
	path     treepath.Path
	ctx      *presentation.Context
	notifier Notifier
	self     Update

	completed atomic.Bool
	canceled  atomic.Bool
	err       error
}

func (b *base) init(self Update, kind Kind, element any, path treepath.Path, ctx *presentation.Context, n Notifier) {
	b.id = uuid.New()
	b.self = self
	b.kind = kind
	b.element = element
	b.path = path
	b.ctx = ctx
	b.notifier = n
}

func (b *base) ID() uuid.UUID                       { return b.id }
func (b *base) Kind() Kind                          { return b.kind }
func (b *base) Element() any                        { return b.element }
func (b *base) Path() treepath.Path                 { return b.path }
func (b *base) Presentation() *presentation.Context { return b.ctx }

// Done completes the request.
func (b *base) Done() {
	b.complete(nil)
}

// Fail completes the request with err. A nil err is reported as ErrFailed.
func (b *base) Fail(err error) {
	if err == nil {
		err = ErrFailed
	}
	b.complete(err)
}

func (b *base) complete(err error) {
	if !b.completed.CompareAndSwap(false, true) {
		if d, ok := b.notifier.(DuplicateNotifier); ok {
			d.Duplicate(b.self)
		}
		return
	}
	b.err = err
	if b.notifier != nil {
		b.notifier.Completed(b.self)
	}
}

// Err returns the failure. It is only meaningful once IsComplete is true and
// must be read by the notified side, which observes the write made before the
// notifier call.
func (b *base) Err() error { return b.err }

func (b *base) IsComplete() bool { return b.completed.Load() }

func (b *base) Cancel()          { b.canceled.Store(true) }
func (b *base) IsCanceled() bool { return b.canceled.Load() }

func (b *base) String() string {
	return fmt.Sprintf("%s %s", b.kind, b.path)
}
