package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/notatio-labs/curricc/pkg/core"
	"github.com/notatio-labs/curricc/pkg/ports"
)

// NewValidateConnectionCommand creates the validate-connection command.
func NewValidateConnectionCommand() *cobra.Command {
	var sourcePort, targetPort string

	cmd := &cobra.Command{
		Use:   "validate-connection <source-id> <target-id>",
		Short: "Check whether a connection would be accepted",
		Long: `Run the incremental connection validator against the current snapshot:
would an edge from the source node's port to the target node's port be
accepted, and if so as which kind?`,
		Example: `  # Would a chain edge from n2 to n3 be accepted?
  curricc validate-connection n2 n3 --source-port lesson-out --target-port lesson-in`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidateConnection(cmd, args[0], args[1], core.Port(sourcePort), core.Port(targetPort))
		},
	}

	cmd.Flags().StringVar(&sourcePort, "source-port", "", "Port on the source node")
	cmd.Flags().StringVar(&targetPort, "target-port", "", "Port on the target node")
	_ = cmd.MarkFlagRequired("source-port")
	_ = cmd.MarkFlagRequired("target-port")
	return cmd
}

func runValidateConnection(cmd *cobra.Command, sourceID, targetID string, sourcePort, targetPort core.Port) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	g, err := cmdCtx.Engine.LoadGraph()
	if err != nil {
		return err
	}
	byID := g.NodeByID()
	source, ok := byID[sourceID]
	if !ok {
		return fmt.Errorf("no node with id %q in the snapshot", sourceID)
	}
	target, ok := byID[targetID]
	if !ok {
		return fmt.Errorf("no node with id %q in the snapshot", targetID)
	}

	d := ports.ValidateConnection(source, target, sourcePort, targetPort, g.Edges)

	r := cmdCtx.Renderer
	if !d.Allowed {
		r.Error("rejected: " + d.Reason)
		return fmt.Errorf("connection rejected")
	}
	r.Success(fmt.Sprintf("accepted as %s edge", d.Kind))
	r.Muted("id: " + core.EdgeID(sourceID, targetID, d.Kind))
	return nil
}
