package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dshills/modelview/internal/presentation"
	"github.com/dshills/modelview/internal/viewer"
	"github.com/dshills/modelview/internal/widget"
	"github.com/dshills/modelview/internal/widget/termview"
)

type renderOptions struct {
	lua    string
	width  int
	height int
	expand int
}

func newRenderCmd(a *app) *cobra.Command {
	var opts renderOptions
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Print a snapshot of the model tree",
		Long: `render loads the model, waits until every level the auto-expand setting
reaches has been fetched and prints the tree as the terminal viewer would.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("expand") {
				opts.expand = a.cfg.Viewer.AutoExpand
			}
			if !cmd.Flags().Changed("width") {
				opts.width = a.cfg.Viewer.Width
			}
			return a.render(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.lua, "lua", "", "Lua script building the model")
	f.IntVar(&opts.width, "width", 0, "Output width in cells (default viewer.width)")
	f.IntVar(&opts.height, "height", 0, "Output height in rows (0 fits the tree)")
	f.IntVar(&opts.expand, "expand", 0, "Levels to expand, -1 for everything (default viewer.auto_expand)")
	return cmd
}

func (a *app) render(ctx context.Context, out io.Writer, opts renderOptions) error {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Jobs.Timeout)
	defer cancel()

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

	tree := widget.NewMemory(opts.width)
	v := viewer.New(tree, presentation.NewContext("modelview.render"),
		viewer.WithLogger(a.logger("viewer")),
		viewer.WithAutoExpand(opts.expand))
	defer v.Dispose()

	if err := a.restoreState(ctx, store, v); err != nil {
		return err
	}
	v.SetInput(m.input)
	if err := settle(ctx, v); err != nil {
		return fmt.Errorf("waiting for the model: %w", err)
	}

	height := opts.height
	if height <= 0 {
		height = len(tree.Visible()) + 1
	}
	text, err := termview.Render(tree, opts.width, height)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, text)
	return err
}
