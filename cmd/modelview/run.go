package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/modelview/internal/config"
	"github.com/dshills/modelview/internal/metrics"
	"github.com/dshills/modelview/internal/model"
	"github.com/dshills/modelview/internal/presentation"
	"github.com/dshills/modelview/internal/sample"
	"github.com/dshills/modelview/internal/viewer"
	"github.com/dshills/modelview/internal/widget"
	"github.com/dshills/modelview/internal/widget/termview"
)

// errQuit ends the interactive session.
var errQuit = errors.New("quit")

type runOptions struct {
	lua      string
	simulate time.Duration
}

func newRunCmd(a *app) *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Browse the model interactively",
		Long: `run opens the terminal viewer.

Keys: arrows or j/k move, right/left expand and collapse, enter or space
select, r refreshes, s steps and p suspends or resumes the selected sample
thread, q quits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.lua, "lua", "", "Lua script building the model")
	f.DurationVar(&opts.simulate, "simulate", 0, "Interval of simulated debug events (sample model only)")
	return cmd
}

func (a *app) run(ctx context.Context, opts runOptions) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	pool, err := a.startPool()
	if err != nil {
		return err
	}
	defer pool.Stop(context.Background())

	m, err := a.openModel(pool, opts.lua)
	if err != nil {
		return err
	}
	defer m.close()

	store, err := a.openStore()
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	reg := prometheus.NewRegistry()
	width, _ := screen.Size()
	tree := widget.NewMemory(width)
	v := viewer.New(tree, presentation.NewContext("modelview"),
		viewer.WithLogger(a.logger("viewer")),
		viewer.WithMetrics(metrics.New(reg)),
		viewer.WithAutoExpand(a.cfg.Viewer.AutoExpand))
	defer v.Dispose()

	if err := a.restoreState(ctx, store, v); err != nil {
		return err
	}
	v.SetInput(m.input)

	if a.flags.configPath != "" {
		w, err := config.Watch(a.flags.configPath, func(c *config.Config) {
			a.log.SetLevel(c.Log.Level)
		}, config.WithWatchLogger(a.log.Logger))
		if err != nil {
			return err
		}
		defer w.Close()
	}

	g, gctx := errgroup.WithContext(ctx)
	if m.session != nil && opts.simulate > 0 {
		g.Go(func() error {
			if err := m.session.Simulate(gctx, opts.simulate); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	if a.cfg.Metrics.Enabled {
		serveMetrics(gctx, g, a.cfg.Metrics.Addr, reg)
	}

	events := make(chan tcell.Event, 16)
	quit := make(chan struct{})
	go screen.ChannelEvents(events, quit)

	g.Go(func() error {
		defer close(quit)
		return a.interact(gctx, screen, v, tree, m.session, events)
	})
	if err := g.Wait(); err != nil && !errors.Is(err, errQuit) {
		return err
	}

	saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return a.saveState(saveCtx, store, v)
}

// serveMetrics serves the registry on addr until ctx is done.
func serveMetrics(ctx context.Context, g *errgroup.Group, addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	g.Go(func() error {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}

// interact is the UI goroutine: it drains the viewer loop, applies key
// events and redraws.
func (a *app) interact(ctx context.Context, screen tcell.Screen, v *viewer.Viewer, tree *widget.Memory, session *sample.Session, events <-chan tcell.Event) error {
	view := termview.New(tree, termview.WithSelectHandler(func(ids []widget.ItemID) {
		a.log.Debug("selected", "items", len(ids))
	}))

	for {
		view.Draw(screen)

		select {
		case <-ctx.Done():
			return nil

		case <-v.Loop().Ready():
			v.Loop().Drain()

		case ev := <-events:
			switch e := ev.(type) {
			case *tcell.EventResize:
				w, _ := e.Size()
				tree.SetWidth(w)
				screen.Sync()
			case *tcell.EventKey:
				if e.Key() == tcell.KeyEscape || e.Key() == tcell.KeyCtrlC || e.Rune() == 'q' {
					return errQuit
				}
				if !view.HandleEvent(e) {
					a.command(v, session, e.Rune())
				}
			}
		}
	}
}

// command runs a single-key command.
func (a *app) command(v *viewer.Viewer, session *sample.Session, key rune) {
	switch key {
	case 'r':
		v.Refresh()
		return
	}
	if session == nil {
		return
	}
	th := selectedThread(v.Selection())
	if th == nil {
		return
	}
	switch key {
	case 's':
		if err := session.Step(th); err != nil {
			a.log.Debug("step", "error", err)
		}
	case 'p':
		if th.Suspended() {
			session.Resume(th)
		} else {
			session.Suspend(th)
		}
	}
}

func selectedThread(sel model.Selection) *sample.Thread {
	switch e := sel.First().(type) {
	case *sample.Thread:
		return e
	case *sample.Frame:
		return e.Thread()
	}
	return nil
}
