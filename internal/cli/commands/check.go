package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/notatio-labs/curricc/internal/cli/output"
)

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Compile the snapshot without writing the export",
		Long: `Load the curriculum snapshot, run the full compilation, and report
every error found. Nothing is written to disk; the run is recorded in
the publish history.`,
		Example: `  # Check the default snapshot
  curricc check

  # Check a specific snapshot
  curricc check --snapshot graphs/main.json

  # Machine-readable output
  curricc check --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd)
		},
	}
}

func runCheck(cmd *cobra.Command) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := cmdCtx.Engine.Check()
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		if err := r.JSON(resultToJSON(res)); err != nil {
			return err
		}
	} else {
		renderResult(r, res)
	}

	if !res.Succeeded() {
		return fmt.Errorf("snapshot has %d compilation error(s)", len(res.Errors))
	}
	return nil
}
