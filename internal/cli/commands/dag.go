package commands

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/notatio-labs/curricc/internal/cli/output"
	"github.com/notatio-labs/curricc/internal/dag"
	"github.com/notatio-labs/curricc/pkg/core"
)

// NewDAGCommand creates the dag command.
func NewDAGCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dag",
		Short: "Show the lesson chain graph",
		Long: `Display the chain structure of the snapshot: each chain of lessons and
tunes in track order, plus node and edge counts. Cycles in the chain
structure are reported as warnings.`,
		Example: `  # Show the chains
  curricc dag

  # Output as JSON
  curricc dag --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDAG(cmd)
		},
	}
}

type dagJSON struct {
	Stats  core.Stats          `json:"stats"`
	Chains map[string][]string `json:"chains"`
	Cycle  []string            `json:"cycle,omitempty"`
}

func runDAG(cmd *cobra.Command) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	g, err := cmdCtx.Engine.LoadGraph()
	if err != nil {
		return err
	}
	cg := dag.FromGraph(g)
	r := cmdCtx.Renderer

	hasCycle, cyclePath := cg.HasCycle()

	if r.EffectiveMode() == output.ModeJSON {
		out := dagJSON{Stats: g.Stats(), Chains: labelChains(cg)}
		if hasCycle {
			out.Cycle = labelPath(cg, cyclePath)
		}
		return r.JSON(out)
	}

	r.Header("Chain Graph")

	for _, root := range cg.Roots() {
		seq := labelPath(cg, cg.Sequence(root))
		r.Printf("  %s\n", strings.Join(seq, " -> "))
	}
	if cg.NodeCount() == 0 {
		r.Muted("  (no chain nodes)")
	}
	r.Println("")

	if hasCycle {
		r.Warning("chain cycle: " + strings.Join(labelPath(cg, cyclePath), " -> "))
	}

	stats := g.Stats()
	r.Muted(strings.Join([]string{
		plural(stats.Tracks, "track"),
		plural(stats.Lessons, "lesson"),
		plural(stats.Skills, "skill"),
		plural(stats.Tunes, "tune"),
	}, ", "))

	return nil
}

func labelChains(cg *dag.ChainGraph) map[string][]string {
	out := make(map[string][]string)
	for root, seq := range cg.Chains() {
		out[cg.Label(root)] = labelPath(cg, seq)
	}
	return out
}

func labelPath(cg *dag.ChainGraph, ids []string) []string {
	labels := make([]string, len(ids))
	for i, id := range ids {
		labels[i] = cg.Label(id)
	}
	return labels
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}
