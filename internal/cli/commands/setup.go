// Package commands implements the curricc subcommands.
package commands

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/notatio-labs/curricc/internal/cli/config"
	"github.com/notatio-labs/curricc/internal/cli/output"
	"github.com/notatio-labs/curricc/internal/engine"
)

// CommandContext bundles the dependencies every subcommand needs.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Engine   *engine.Engine
	Renderer *output.Renderer
}

// NewCommandContext builds the command context and opens the engine.
// The returned cleanup func closes the engine's state store.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	eng, err := engine.New(engine.Config{
		SnapshotPath: cfg.SnapshotPath,
		ExportPath:   cfg.ExportPath,
		Format:       cfg.Format,
		StatePath:    cfg.StatePath,
		Logger:       logger,
	})
	if err != nil {
		return nil, nil, err
	}

	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))

	cleanup := func() {
		_ = eng.Close()
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Engine:   eng,
		Renderer: r,
	}, cleanup, nil
}

// getConfig returns the current configuration, falling back to
// environment variables when LoadConfig has not run (direct command
// construction in tests).
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	return &config.Config{
		SnapshotPath: getEnvOrDefault("CURRICC_SNAPSHOT", config.DefaultSnapshot),
		ExportPath:   getEnvOrDefault("CURRICC_EXPORT_PATH", config.DefaultExport),
		Format:       getEnvOrDefault("CURRICC_FORMAT", config.DefaultFormat),
		StatePath:    getEnvOrDefault("CURRICC_STATE_PATH", config.DefaultStateFile),
		Port:         config.DefaultPort,
		OutputFormat: getEnvOrDefault("CURRICC_OUTPUT", config.DefaultOutput),
		Verbose:      os.Getenv("CURRICC_VERBOSE") == "true",
	}
}

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
