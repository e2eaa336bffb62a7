package commands

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/notatio-labs/curricc/internal/server"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the editor API server",
		Long: `Start the localhost HTTP API the canvas editor talks to. It validates
proposed connections incrementally and compiles full snapshots on
demand. Stop with Ctrl+C.`,
		Example: `  # Serve on the default port
  curricc serve

  # Serve on a custom port
  curricc serve --port 9000`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd)
		},
	}
}

func runServe(cmd *cobra.Command) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(server.Config{
		Engine: cmdCtx.Engine,
		Port:   cmdCtx.Cfg.Port,
		Logger: cmdCtx.Logger,
	})
	return srv.Serve(ctx)
}
