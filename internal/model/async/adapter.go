// Package async serves the asynchronous content and label capabilities from
// a synchronous tree source.
//
// Every request becomes a job on a jobs.Pool, the model goroutines. Requests
// for the children of the same element that overlap in time share one call to
// the source.
package async

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"

	"golang.org/x/sync/singleflight"

	"github.com/dshills/modelview/internal/jobs"
	"github.com/dshills/modelview/internal/model"
	"github.com/dshills/modelview/internal/request"
)

// ErrPanic is the failure recorded when the source panicked.
var ErrPanic = errors.New("tree source panicked")

// Source is a synchronous tree. It may block.
type Source interface {
	Children(ctx context.Context, element any) ([]any, error)
}

// Labeler is implemented by sources that format labels. Without it an
// element is labelled with its default formatting in column 0.
type Labeler interface {
	Label(ctx context.Context, element any, columns []string) ([]string, error)
}

// Adapter implements model.ContentProvider and model.LabelProvider on top of
// a Source.
type Adapter struct {
	source Source
	pool   *jobs.Pool
	logger *slog.Logger
	key    func(element any) string
	group  singleflight.Group
}

var (
	_ model.ContentProvider = (*Adapter)(nil)
	_ model.LabelProvider   = (*Adapter)(nil)
)

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Adapter) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithKeyFunc sets the function identifying elements for call sharing.
// Elements with equal keys must have equal children.
func WithKeyFunc(fn func(element any) string) Option {
	return func(a *Adapter) {
		if fn != nil {
			a.key = fn
		}
	}
}

// New creates an adapter running source calls on pool.
func New(source Source, pool *jobs.Pool, opts ...Option) *Adapter {
	a := &Adapter{
		source: source,
		pool:   pool,
		logger: slog.New(slog.DiscardHandler),
		key:    defaultKey,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// defaultKey identifies reference elements by address and everything else
// by type and value.
func defaultKey(element any) string {
	v := reflect.ValueOf(element)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return fmt.Sprintf("%T@%x", element, v.Pointer())
	}
	return fmt.Sprintf("%T:%v", element, element)
}

// Children answers with the source's children of the element.
func (a *Adapter) Children(u *request.ChildrenUpdate) {
	a.submit(u, "children", func(ctx context.Context) error {
		kids, err := a.children(ctx, u.Element())
		if err != nil {
			return err
		}
		u.SetChildren(kids)
		return nil
	})
}

// ChildCount answers with the number of children.
func (a *Adapter) ChildCount(u *request.CountUpdate) {
	a.submit(u, "child-count", func(ctx context.Context) error {
		kids, err := a.children(ctx, u.Element())
		if err != nil {
			return err
		}
		u.SetCount(len(kids))
		return nil
	})
}

// HasChildren answers whether the element has any child.
func (a *Adapter) HasChildren(u *request.HasChildrenUpdate) {
	a.submit(u, "has-children", func(ctx context.Context) error {
		kids, err := a.children(ctx, u.Element())
		if err != nil {
			return err
		}
		u.SetHasChildren(len(kids) > 0)
		return nil
	})
}

// Label answers with the source's labels, or the element's default
// formatting.
func (a *Adapter) Label(u *request.LabelUpdate) {
	lb, ok := a.source.(Labeler)
	if !ok {
		u.SetLabel(0, fmt.Sprint(u.Element()))
		u.Done()
		return
	}
	a.submit(u, "label", func(ctx context.Context) error {
		texts, err := lb.Label(ctx, u.Element(), u.Columns())
		if err != nil {
			return err
		}
		for i, t := range texts {
			u.SetLabel(i, t)
		}
		return nil
	})
}

func (a *Adapter) children(ctx context.Context, element any) ([]any, error) {
	v, err, shared := a.group.Do(a.key(element), func() (any, error) {
		return a.source.Children(ctx, element)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		a.logger.Debug("children call shared", "element", element)
	}
	return v.([]any), nil
}

// submit runs work as a pool job and completes u with its outcome. Work for
// a cancelled request is skipped.
func (a *Adapter) submit(u request.Update, name string, work func(ctx context.Context) error) {
	job := func(ctx context.Context) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%w: %v", ErrPanic, r)
			}
			if err != nil {
				u.Fail(err)
				return
			}
			u.Done()
		}()
		if u.IsCanceled() {
			return context.Canceled
		}
		return work(ctx)
	}
	if err := a.pool.Submit(context.Background(), name, job); err != nil {
		a.logger.Warn("model job rejected", "job", name, "error", err)
		u.Fail(err)
	}
}
