package config

import "flag"

// CommonFlags holds the flags shared by every subcommand.
type CommonFlags struct {
	Config  *string
	Debug   *bool
	LogFile *string
	Format  *string
}

// RegisterCommon registers the shared flags on a subcommand flag set.
func RegisterCommon(fs *flag.FlagSet) *CommonFlags {
	return &CommonFlags{
		Config:  fs.String("config", "", "Path to config file"),
		Debug:   fs.Bool("debug", false, "Enable debug logging"),
		LogFile: fs.String("log-file", "", "Write logs to this file"),
		Format:  fs.String("format", "", "Output format: text or json"),
	}
}

// Apply applies CLI flag overrides to the config. Flags win over file values.
func (f *CommonFlags) Apply(cfg *Config) {
	if *f.Debug {
		cfg.Logging.Level = "debug"
	}
	if *f.LogFile != "" {
		cfg.Logging.LogFile = *f.LogFile
	}
	if *f.Format != "" {
		cfg.Output.Format = *f.Format
	}
}
