package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/notatio-labs/curricc/internal/cli/output"
)

// NewPublishCommand creates the publish command.
func NewPublishCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "publish",
		Short: "Compile the snapshot and write the export artifact",
		Long: `Load the curriculum snapshot, run the full compilation, and write the
compiled export to the configured path. If any error is found nothing
is written; publishing is all or nothing.`,
		Example: `  # Publish with defaults
  curricc publish

  # Publish as YAML
  curricc publish --format yaml --export dist/curriculum.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPublish(cmd)
		},
	}
}

func runPublish(cmd *cobra.Command) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := cmdCtx.Engine.Publish()
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
