// Package engine orchestrates the curriculum toolchain: loading the
// editor snapshot, running the batch compiler, writing the export
// artifact, and recording each attempt in the publish history.
package engine

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/notatio-labs/curricc/internal/dag"
	"github.com/notatio-labs/curricc/internal/loader"
	"github.com/notatio-labs/curricc/internal/state"
	"github.com/notatio-labs/curricc/pkg/compile"
	"github.com/notatio-labs/curricc/pkg/core"
)

// Export formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Config holds engine configuration.
type Config struct {
	// SnapshotPath is the editor snapshot file to compile
	SnapshotPath string
	// ExportPath is where Publish writes the compiled artifact
	ExportPath string
	// Format is the export encoding: json or yaml
	Format string
	// StatePath is the publish-history SQLite database
	StatePath string
	// Logger is the structured logger (discard if nil)
	Logger *slog.Logger
}

// Engine ties the loader, compiler, and publish history together.
type Engine struct {
	cfg    Config
	logger *slog.Logger
	store  *state.Store
}

// Result is the outcome of one check or publish attempt.
type Result struct {
	// RunID identifies the recorded history entry
	RunID string
	// Graph is the loaded snapshot
	Graph *core.Graph
	// Export is non-nil exactly when Errors is empty
	Export *compile.Export
	Errors []compile.CompilationError
	// Checksum is the export's SHA-256; empty on failure
	Checksum string
	// Warnings are non-blocking authoring diagnostics (chain cycles)
	Warnings []string
	// ExportPath is set when the artifact was written to disk
	ExportPath string
}

// Succeeded reports whether the compile was clean.
func (r *Result) Succeeded() bool { return len(r.Errors) == 0 }

// New creates an engine and opens its publish-history store.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Format == "" {
		cfg.Format = FormatJSON
	}
	if cfg.Format != FormatJSON && cfg.Format != FormatYAML {
		return nil, fmt.Errorf("unknown export format %q", cfg.Format)
	}

	if dir := filepath.Dir(cfg.StatePath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}
	store := state.NewStore(logger)
	if err := store.Open(cfg.StatePath); err != nil {
		return nil, err
	}
	if err := store.InitSchema(); err != nil {
		_ = store.Close()
		return nil, err
	}

	return &Engine{cfg: cfg, logger: logger, store: store}, nil
}

// Close releases the engine's resources.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Store exposes the publish history for the runs command and the HTTP
// API.
func (e *Engine) Store() *state.Store { return e.store }

// LoadGraph reads and decodes the configured snapshot.
func (e *Engine) LoadGraph() (*core.Graph, error) {
	return loader.Load(e.cfg.SnapshotPath)
}

// Check loads the snapshot, compiles it, and records the attempt. It
// never writes the export artifact.
func (e *Engine) Check() (*Result, error) {
	g, err := e.LoadGraph()
	if err != nil {
		return nil, err
	}
	return e.compileGraph(g)
}

// Publish is Check plus writing the export artifact on success.
func (e *Engine) Publish() (*Result, error) {
	res, err := e.Check()
	if err != nil {
		return nil, err
	}
	if !res.Succeeded() {
		return res, nil
	}

	data, err := e.encode(res.Export)
	if err != nil {
		return nil, err
	}
	if dir := filepath.Dir(e.cfg.ExportPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create export directory: %w", err)
		}
	}
	if err := os.WriteFile(e.cfg.ExportPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write export: %w", err)
	}
	res.ExportPath = e.cfg.ExportPath
	e.logger.Info("export written", "path", e.cfg.ExportPath, "checksum", res.Checksum)
	return res, nil
}

// CompileGraph compiles an already-loaded graph and records the
// attempt. The HTTP API uses this for snapshots posted by the editor.
func (e *Engine) CompileGraph(g *core.Graph) (*Result, error) {
	return e.compileGraph(g)
}

func (e *Engine) compileGraph(g *core.Graph) (*Result, error) {
	run, err := e.store.CreateRun(e.cfg.SnapshotPath)
	if err != nil {
		return nil, err
	}

	res := &Result{RunID: run.ID, Graph: g}
	res.Export, res.Errors = compile.Compile(g.Nodes, g.Edges)

	cg := dag.FromGraph(g)
	if cycle, path := cg.HasCycle(); cycle {
		labels := make([]string, len(path))
		for i, id := range path {
			labels[i] = cg.Label(id)
		}
		res.Warnings = append(res.Warnings, fmt.Sprintf("chain cycle: %v", labels))
	}

	if res.Succeeded() {
		sum, err := compile.Checksum(res.Export)
		if err != nil {
			return nil, err
		}
		res.Checksum = sum
		if err := e.store.CompleteRun(run.ID, state.RunStatusSucceeded, 0, sum); err != nil {
			return nil, err
		}
		e.logger.Info("compile succeeded", "run", run.ID,
			"tracks", len(res.Export.Tracks), "lessons", len(res.Export.Lessons), "skills", len(res.Export.Skills))
		return res, nil
	}

	if err := e.store.SaveRunErrors(run.ID, res.Errors); err != nil {
		return nil, err
	}
	if err := e.store.CompleteRun(run.ID, state.RunStatusFailed, len(res.Errors), ""); err != nil {
		return nil, err
	}
	e.logger.Info("compile failed", "run", run.ID, "errors", len(res.Errors))
	return res, nil
}

func (e *Engine) encode(export *compile.Export) ([]byte, error) {
	if e.cfg.Format == FormatYAML {
		return compile.EncodeYAML(export)
	}
	return compile.EncodeJSON(export)
}
