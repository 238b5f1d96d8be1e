// dracotool is a CLI utility for inspecting and rewriting glTF documents
// that carry KHR_draco_mesh_compression geometry.
package main

import (
	"fmt"
	"os"

	"github.com/meshtools/gltf-draco/internal/config"
	"github.com/meshtools/gltf-draco/internal/logger"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		cmdInfo(args)
	case "scan":
		cmdScan(args)
	case "strip":
		cmdStrip(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`dracotool - glTF Draco compression utility

Usage:
  dracotool <command> [options]

Commands:
  info <file...>           Show a per-file compression report
  scan <dir>               Summarize compression usage under a directory
  strip -o <out> <file>    Rewrite a file without the compression extension

Common options:
  -config <path>           Config file (default: ./dracotool.yaml)
  -debug                   Enable debug logging
  -log-file <path>         Write logs to a rotating file
  -format <text|json>      Report format

Examples:
  dracotool info model.glb
  dracotool scan ./assets
  dracotool strip -o plain.glb compressed.glb`)
}

// setup loads configuration, applies flag overrides and initializes the
// logger. It exits on failure; subcommands call it after parsing flags.
func setup(cf *config.CommonFlags) *config.Config {
	cfg, err := config.Load(*cf.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	cf.Apply(cfg)

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	logger.Sugar.Debugf("config: %+v", cfg)

	return cfg
}
