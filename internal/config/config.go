// Package config handles tool configuration loading and management.
package config

// Config holds all dracotool settings.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Output  OutputConfig  `yaml:"output"`
	Scan    ScanConfig    `yaml:"scan"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// OutputConfig controls how command results are rendered.
type OutputConfig struct {
	Format string `yaml:"format"` // "text" or "json"
}

// ScanConfig controls which files directory scans consider.
type ScanConfig struct {
	Extensions []string `yaml:"extensions"`
	Recursive  bool     `yaml:"recursive"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
		Output: OutputConfig{
			Format: "text",
		},
		Scan: ScanConfig{
			Extensions: []string{".gltf", ".glb"},
			Recursive:  true,
		},
	}
}
