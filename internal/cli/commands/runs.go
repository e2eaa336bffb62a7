package commands

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/notatio-labs/curricc/internal/cli/output"
	"github.com/notatio-labs/curricc/internal/state"
)

// NewRunsCommand creates the runs command.
func NewRunsCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "Show the publish history",
		Long: `List recorded check and publish attempts, newest first. Pass a run id
to show the errors recorded for that run.`,
		Example: `  # List recent runs
  curricc runs

  # Show the errors of one run
  curricc runs 6f1e9c2a-...`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return runShowRun(cmd, args[0])
			}
			return runListRuns(cmd, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")
	return cmd
}

func runListRuns(cmd *cobra.Command, limit int) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	runs, err := cmdCtx.Engine.Store().ListRuns(limit)
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(runs)
	}

	if len(runs) == 0 {
		r.Muted("no runs recorded")
		return nil
	}

	styles := r.Styles()
	t := table.NewWriter()
	t.SetOutputMirror(r.Writer())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "STATUS", "ERRORS", "CHECKSUM", "STARTED"})

	for _, run := range runs {
		status := string(run.Status)
		switch run.Status {
		case state.RunStatusSucceeded:
			status = styles.Success.Render(status)
		case state.RunStatusFailed:
			status = styles.Error.Render(status)
		}
		t.AppendRow(table.Row{
			styles.ID.Render(run.ID),
			status,
			strconv.Itoa(run.ErrorCount),
			shortChecksum(run.ExportChecksum),
			run.StartedAt.Format("2006-01-02 15:04:05"),
		})
	}
	t.Render()
	return nil
}

func runShowRun(cmd *cobra.Command, id string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	run, err := cmdCtx.Engine.Store().GetRun(id)
	if err != nil {
		return err
	}
	errs, err := cmdCtx.Engine.Store().GetRunErrors(id)
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(map[string]any{"run": run, "errors": errs})
	}

	r.Header("Run " + run.ID)
	r.Printf("status:   %s\n", run.Status)
	r.Printf("snapshot: %s\n", run.SnapshotPath)
	if run.ExportChecksum != "" {
		r.Printf("checksum: %s\n", run.ExportChecksum)
	}
	r.Println("")

	if len(errs) == 0 {
		r.Success("no errors recorded")
		return nil
	}

	styles := r.Styles()
	t := table.NewWriter()
	t.SetOutputMirror(r.Writer())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"CLASS", "LOCATION", "MESSAGE"})
	for _, e := range errs {
		loc := e.NodeID
		if loc == "" {
			loc = e.EdgeID
		}
		t.AppendRow(table.Row{styles.Error.Render(e.Class), loc, e.Message})
	}
	t.Render()
	return nil
}

func shortChecksum(sum string) string {
	if len(sum) > 12 {
		return sum[:12]
	}
	return sum
}
