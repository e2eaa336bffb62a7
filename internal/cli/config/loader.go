package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// maxUpwardSearchLevels limits how far up the directory tree to search
// for a config file.
const maxUpwardSearchLevels = 10

var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config
)

// loggerKey is the context key for the command logger. Shared with the
// cli package so commands can retrieve the logger without an import
// cycle.
type loggerKey struct{}

func configExistsIn(dir string) bool {
	for _, name := range []string{"curricc.yaml", "curricc.yml"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// findProjectRootUpward searches upward from startDir for a curricc
// config file. Returns empty string if none is found.
func findProjectRootUpward(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if configExistsIn(dir) {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// inferProjectRoot determines the project root.
// Priority:
//  1. Explicit --snapshot flag (its directory)
//  2. Search upward from CWD for curricc.yaml
//  3. Current working directory
func inferProjectRoot(flags *pflag.FlagSet) string {
	if flags != nil && flags.Changed("snapshot") {
		if snapshot, _ := flags.GetString("snapshot"); snapshot != "" {
			if abs, err := filepath.Abs(snapshot); err == nil {
				return filepath.Dir(abs)
			}
		}
	}

	if cwd, err := os.Getwd(); err == nil {
		if root := findProjectRootUpward(cwd); root != "" {
			return root
		}
	}

	cwd, _ := os.Getwd()
	if cwd == "" {
		cwd = "."
	}
	return cwd
}

func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// LoadConfig loads configuration from file, environment variables, and
// flags. Precedence (highest to lowest): flags > env vars > config
// file > defaults.
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k = koanf.New(".")

	projectRoot := inferProjectRoot(flags)
	if cfgFile != "" {
		if abs, err := filepath.Abs(cfgFile); err == nil {
			projectRoot = filepath.Dir(abs)
		}
	}

	// Flag-provided paths are relative to the CWD, not the project
	// root, so pin them to absolute before the resolution step.
	var flagSnapshot, flagExport, flagState string
	if flags != nil {
		if flags.Changed("snapshot") {
			if v, _ := flags.GetString("snapshot"); v != "" {
				flagSnapshot, _ = filepath.Abs(v)
			}
		}
		if flags.Changed("export") {
			if v, _ := flags.GetString("export"); v != "" {
				flagExport, _ = filepath.Abs(v)
			}
		}
		if flags.Changed("state") {
			if v, _ := flags.GetString("state"); v != "" {
				flagState, _ = filepath.Abs(v)
			}
		}
	}

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"snapshot":    DefaultSnapshot,
		"export_path": DefaultExport,
		"format":      DefaultFormat,
		"state_path":  DefaultStateFile,
		"port":        DefaultPort,
		"verbose":     false,
		"output":      DefaultOutput,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	if cfgFile == "" {
		for _, name := range []string{"curricc.yaml", "curricc.yml"} {
			candidate := filepath.Join(projectRoot, name)
			if _, err := os.Stat(candidate); err == nil {
				cfgFile = candidate
				break
			}
		}
	}
	configFileUsed = cfgFile
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Environment variables: CURRICC_EXPORT_PATH -> export_path
	if err := k.Load(env.Provider("CURRICC_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "CURRICC_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags (highest priority)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			// The CLI uses --export and --state for brevity; map them
			// onto the config keys.
			switch key {
			case "export":
				return "export_path", posflag.FlagVal(flags, f)
			case "state":
				return "state_path", posflag.FlagVal(flags, f)
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	cfg.ProjectRoot = projectRoot

	if flagSnapshot != "" {
		cfg.SnapshotPath = flagSnapshot
	} else {
		cfg.SnapshotPath = resolvePathRelativeTo(cfg.SnapshotPath, projectRoot)
	}
	if flagExport != "" {
		cfg.ExportPath = flagExport
	} else {
		cfg.ExportPath = resolvePathRelativeTo(cfg.ExportPath, projectRoot)
	}
	if flagState != "" {
		cfg.StatePath = flagState
	} else {
		cfg.StatePath = resolvePathRelativeTo(cfg.StatePath, projectRoot)
	}

	if cfg.Format != "json" && cfg.Format != "yaml" {
		return nil, fmt.Errorf("invalid export format %q (must be json or yaml)", cfg.Format)
	}

	currentConfig = &cfg

	return &cfg, nil
}

// GetCurrentConfig returns the most recently loaded configuration, or
// nil before LoadConfig has run.
func GetCurrentConfig() *Config {
	return currentConfig
}

// LoggerKey returns the context key used for storing the logger.
func LoggerKey() interface{} {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}
