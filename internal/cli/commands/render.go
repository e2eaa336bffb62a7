package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/notatio-labs/curricc/internal/cli/output"
	"github.com/notatio-labs/curricc/internal/engine"
	"github.com/notatio-labs/curricc/pkg/compile"
)

// resultJSON is the machine-readable shape shared by check and publish.
type resultJSON struct {
	Success    bool                       `json:"success"`
	RunID      string                     `json:"runId"`
	Errors     []compile.CompilationError `json:"errors,omitempty"`
	Checksum   string                     `json:"checksum,omitempty"`
	Warnings   []string                   `json:"warnings,omitempty"`
	ExportPath string                     `json:"exportPath,omitempty"`
}

func resultToJSON(res *engine.Result) resultJSON {
	return resultJSON{
		Success:    res.Succeeded(),
		RunID:      res.RunID,
		Errors:     res.Errors,
		Checksum:   res.Checksum,
		Warnings:   res.Warnings,
		ExportPath: res.ExportPath,
	}
}

// renderErrorTable prints compilation errors as a table.
func renderErrorTable(r *output.Renderer, errs []compile.CompilationError) {
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
		t.AppendRow(table.Row{styles.Error.Render(string(e.Class)), loc, e.Message})
	}
	t.Render()
}

// renderResult prints a check or publish outcome in text mode.
func renderResult(r *output.Renderer, res *engine.Result) {
	styles := r.Styles()

	for _, w := range res.Warnings {
		r.Warning("warning: " + w)
	}

	if !res.Succeeded() {
		renderErrorTable(r, res.Errors)
		r.Error(fmt.Sprintf("compilation failed: %d error(s)", len(res.Errors)))
		return
	}

	stats := res.Graph.Stats()
	r.Printf("%s %d tracks, %d lessons, %d skills, %d tunes\n",
		styles.Success.Render("compiled"),
		stats.Tracks, stats.Lessons, stats.Skills, stats.Tunes)
	r.Muted("checksum: " + res.Checksum)
	if res.ExportPath != "" {
		r.Success("wrote " + res.ExportPath)
	}
}
