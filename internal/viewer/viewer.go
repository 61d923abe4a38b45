package viewer

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dshills/modelview/internal/columns"
	"github.com/dshills/modelview/internal/metrics"
	"github.com/dshills/modelview/internal/model"
	"github.com/dshills/modelview/internal/pending"
	"github.com/dshills/modelview/internal/presentation"
	"github.com/dshills/modelview/internal/reconcile"
	"github.com/dshills/modelview/internal/request"
	"github.com/dshills/modelview/internal/selection"
	"github.com/dshills/modelview/internal/treepath"
	"github.com/dshills/modelview/internal/uiloop"
	"github.com/dshills/modelview/internal/widget"
)

const tracerName = "github.com/dshills/modelview/internal/viewer"

// Viewer shows a model in a widget tree.
type Viewer struct {
	tree       widget.Tree
	ctx        *presentation.Context
	loop       *uiloop.Loop
	logger     *slog.Logger
	tracer     trace.Tracer
	metrics    *metrics.Collector
	arbiter    *selection.Arbiter
	autoExpand int

	input        any
	cache        *treepath.Cache[widget.ItemID]
	coalescer    *pending.Coalescer
	applier      *reconcile.Applier
	columns      *columns.Manager
	notifier     request.Notifier
	materialized map[widget.ItemID]bool
	applied      map[appliedKey]uint64
	proxies      []installedProxy
	cells        cellProxy
	restore      []*restorePath
	treeListener *widget.Listeners

	activePasses    int
	updateListeners []UpdateListener
	modelListeners  []ModelChangedListener
	disposed        bool
}

type installedProxy struct {
	path  treepath.Path
	proxy model.ModelProxy
}

// New creates a viewer driving tree.
func New(tree widget.Tree, ctx *presentation.Context, opts ...Option) *Viewer {
	if ctx == nil {
		ctx = presentation.NewContext("")
	}
	v := &Viewer{
		tree:         tree,
		ctx:          ctx,
		logger:       slog.New(slog.DiscardHandler),
		tracer:       otel.Tracer(tracerName),
		cache:        treepath.NewCache[widget.ItemID](),
		materialized: make(map[widget.ItemID]bool),
		applied:      make(map[appliedKey]uint64),
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.loop == nil {
		v.loop = uiloop.New(uiloop.WithLogger(v.logger))
	}
	if v.arbiter == nil {
		v.arbiter = selection.NewArbiter(ctx)
	}

	var observer pending.Observer
	if v.metrics != nil {
		observer = v.metrics
	}
	v.coalescer = pending.New(observer)
	v.applier = reconcile.New(tree, v.cache, reconcileHost{v}, v.logger)
	v.columns = columns.NewManager(tree, ctx,
		columns.WithLogger(v.logger),
		columns.WithRefresh(v.Refresh),
	)
	v.cells.v = v
	v.notifier = notifier{v}
	v.treeListener = &widget.Listeners{
		OnExpanded: v.userExpanded,
	}
	tree.AddListener(v.treeListener)
	v.cache.Map(tree.Root(), treepath.Empty)
	return v
}

// Loop returns the UI loop completions are posted to.
func (v *Viewer) Loop() *uiloop.Loop {
	return v.loop
}

// Tree returns the widget tree.
func (v *Viewer) Tree() widget.Tree {
	return v.tree
}

// Presentation returns the presentation context.
func (v *Viewer) Presentation() *presentation.Context {
	return v.ctx
}

// Input returns the current input.
func (v *Viewer) Input() any {
	return v.input
}

// SetInput replaces the input. Pending requests are cancelled, every item is
// disposed, the column layout is resolved for the new input, the input's
// model proxy is installed and its children are fetched.
func (v *Viewer) SetInput(input any) {
	if v.disposed {
		return
	}
	v.coalescer.Reset()
	v.disposeProxies(treepath.Empty)
	v.cells.dispose()
	root := v.tree.Root()
	for _, c := range v.tree.Children(root) {
		v.disposeItem(c)
	}
	v.tree.Clear(root)
	v.cache.Clear()
	v.cache.Map(root, treepath.Empty)
	clear(v.materialized)
	clear(v.applied)
	v.resetRestore()

	v.input = input
	v.tree.SetData(root, input)
	v.columns.SetInput(input)
	if input == nil {
		return
	}

	v.install(input, treepath.Empty)
	pass := v.beginPass(true, "input")
	v.materialize(pass, root, nil)
	pass.Close()
}

// Dispose releases every resource. The viewer must not be used afterwards.
func (v *Viewer) Dispose() {
	if v.disposed {
		return
	}
	v.disposed = true
	v.coalescer.Reset()
	v.disposeProxies(treepath.Empty)
	v.cells.dispose()
	v.columns.Dispose()
	v.tree.RemoveListener(v.treeListener)
	v.ctx.Dispose()
	v.restore = nil
}

// Disposed reports whether Dispose was called.
func (v *Viewer) Disposed() bool {
	return v.disposed
}

// beginPass starts a pass and brackets it with update listener
// notifications and a trace span.
func (v *Viewer) beginPass(supersede bool, kind string) *pending.Pass {
	pass := v.coalescer.BeginPass(supersede)
	_, span := v.tracer.Start(context.Background(), "modelview.pass",
		trace.WithAttributes(
			attribute.String("pass.id", pass.ID().String()),
			attribute.String("pass.kind", kind),
			attribute.Int64("pass.serial", int64(pass.Serial())),
		))
	if v.activePasses == 0 {
		v.fireBegin()
	}
	v.activePasses++
	pass.OnIdle(func() {
		span.SetAttributes(attribute.Bool("pass.superseded", pass.Superseded()))
		span.End()
		v.activePasses--
		if v.activePasses == 0 {
			v.fireEnd()
		}
	})
	if supersede {
		pass.OnIdle(func() {
			if !pass.Superseded() && !v.disposed {
				v.repopulate()
			}
		})
	}
	v.logger.Debug("pass started", "pass", pass.ID(), "kind", kind, "supersede", supersede)
	return pass
}

// Pending returns the number of in-flight requests.
func (v *Viewer) Pending() int {
	return v.coalescer.Len()
}

// Duplicates returns the number of completions the model reported more than
// once.
func (v *Viewer) Duplicates() int {
	return v.coalescer.Duplicates()
}

// Busy reports whether any pass is unfinished.
func (v *Viewer) Busy() bool {
	return v.activePasses > 0
}
