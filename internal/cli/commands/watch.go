package commands

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/notatio-labs/curricc/internal/cli/output"
	"github.com/notatio-labs/curricc/internal/engine"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Recompile the snapshot whenever it changes",
		Long: `Watch the snapshot file and rerun the compilation check on every save.
Each attempt is recorded in the publish history. Stop with Ctrl+C.`,
		Example: `  # Watch the default snapshot
  curricc watch

  # Watch a specific snapshot
  curricc watch --snapshot graphs/main.json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd)
		},
	}
}

func runWatch(cmd *cobra.Command) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := cmdCtx.Renderer
	r.Muted("watching " + cmdCtx.Cfg.SnapshotPath)

	err = cmdCtx.Engine.Watch(ctx, func(res *engine.Result) {
		if r.EffectiveMode() == output.ModeJSON {
			_ = r.JSON(resultToJSON(res))
			return
		}
		renderResult(r, res)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
