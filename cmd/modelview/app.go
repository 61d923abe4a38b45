package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dshills/modelview/internal/config"
	"github.com/dshills/modelview/internal/jobs"
	"github.com/dshills/modelview/internal/logging"
	"github.com/dshills/modelview/internal/memento"
	"github.com/dshills/modelview/internal/memento/badgerstore"
	"github.com/dshills/modelview/internal/sample"
	"github.com/dshills/modelview/internal/sample/luamodel"
	"github.com/dshills/modelview/internal/viewer"
)

// Names of the stored viewer state trees.
const (
	stateColumns  = "columns"
	stateElements = "elements"
)

// app holds what every command shares.
type app struct {
	flags globalFlags
	cfg   *config.Config
	log   *logging.Logger
}

func (a *app) logger(component string) *slog.Logger {
	return logging.WithComponent(a.log.Logger, component)
}

// startPool starts the model worker pool.
func (a *app) startPool() (*jobs.Pool, error) {
	pool := jobs.New(
		jobs.WithWorkers(a.cfg.Jobs.Workers),
		jobs.WithQueueSize(a.cfg.Jobs.QueueSize),
		jobs.WithTimeout(a.cfg.Jobs.Timeout),
		jobs.WithLogger(a.logger("jobs")),
	)
	if err := pool.Start(); err != nil {
		return nil, err
	}
	return pool, nil
}

// model is the viewer input and its cleanup. session is set for the
// built-in sample only.
type model struct {
	input   any
	session *sample.Session
	close   func()
}

// openModel loads the Lua script at luaPath, or the sample when it is empty.
func (a *app) openModel(pool *jobs.Pool, luaPath string) (*model, error) {
	if luaPath == "" {
		s := sample.NewDemo(pool, sample.WithLogger(a.logger("sample")))
		return &model{input: s, session: s, close: func() {}}, nil
	}
	tree, err := luamodel.LoadFile(luaPath, pool,
		luamodel.WithTimeout(a.cfg.Jobs.Timeout),
		luamodel.WithLogger(a.logger("lua")))
	if err != nil {
		return nil, err
	}
	return &model{input: tree.Root(), close: tree.Close}, nil
}

// openStore opens the state database, or returns nil when persistence is
// off.
func (a *app) openStore() (*badgerstore.Store, error) {
	if a.cfg.State.Path == "" && !a.cfg.State.InMemory {
		return nil, nil
	}
	return badgerstore.Open(badgerstore.Config{
		Path:     a.cfg.State.Path,
		InMemory: a.cfg.State.InMemory,
		Logger:   a.logger("badger"),
	})
}

// restoreState loads the saved column and element state into v. Missing
// state is not an error.
func (a *app) restoreState(ctx context.Context, store *badgerstore.Store, v *viewer.Viewer) error {
	if store == nil {
		return nil
	}
	cols, err := store.Load(ctx, stateColumns)
	switch {
	case err == nil:
		v.InitState(cols)
	case !errors.Is(err, badgerstore.ErrNotFound):
		return err
	}
	elems, err := store.Load(ctx, stateElements)
	switch {
	case err == nil:
		v.RestoreElementState(elems)
	case !errors.Is(err, badgerstore.ErrNotFound):
		return err
	}
	return nil
}

// saveState stores the column and element state of v. The UI loop of v is
// driven until the element state is encoded.
func (a *app) saveState(ctx context.Context, store *badgerstore.Store, v *viewer.Viewer) error {
	if store == nil {
		return nil
	}
	cols := memento.New()
	v.SaveState(cols)
	if err := store.Save(ctx, stateColumns, cols); err != nil {
		return err
	}

	var (
		elems *memento.Node
		done  bool
	)
	v.SaveElementState(func(n *memento.Node) {
		elems, done = n, true
	})
	if err := settle(ctx, v); err != nil {
		return err
	}
	if !done || elems == nil {
		a.log.Warn("element state not saved")
		return nil
	}
	return store.Save(ctx, stateElements, elems)
}

// settle drives the UI loop of v until no pass is running.
func settle(ctx context.Context, v *viewer.Viewer) error {
	loop := v.Loop()
	for {
		loop.Drain()
		if !v.Busy() && loop.Len() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-loop.Ready():
		}
	}
}
