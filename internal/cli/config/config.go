// Package config loads CLI configuration from defaults, a project
// config file, environment variables, and command-line flags.
package config

// Config holds all CLI configuration options.
type Config struct {
	// SnapshotPath is the editor snapshot to compile.
	SnapshotPath string `koanf:"snapshot"`
	// ExportPath is where publish writes the compiled artifact.
	ExportPath string `koanf:"export_path"`
	// Format is the export encoding: json or yaml.
	Format string `koanf:"format"`
	// StatePath is the publish-history database.
	StatePath string `koanf:"state_path"`
	// Port is the editor API listen port.
	Port int `koanf:"port"`
	// ProjectRoot anchors relative path resolution.
	ProjectRoot string `koanf:"-"`

	Verbose      bool   `koanf:"verbose"`
	OutputFormat string `koanf:"output"`
}

// Default configuration values.
const (
	DefaultSnapshot  = "curriculum.json"
	DefaultExport    = "dist/curriculum.export.json"
	DefaultFormat    = "json"
	DefaultStateFile = ".curricc/state.db"
	DefaultPort      = 8765
	DefaultOutput    = "auto" // TTY=text, non-TTY=json
)
