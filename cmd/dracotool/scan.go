package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/meshtools/gltf-draco/internal/assets"
	"github.com/meshtools/gltf-draco/internal/config"
	"github.com/meshtools/gltf-draco/internal/logger"
)

// scanSummary aggregates compression usage under a directory.
type scanSummary struct {
	Root            string   `json:"root"`
	Files           int      `json:"files"`
	Failed          int      `json:"failed"`
	Primitives      int      `json:"primitives"`
	Compressed      int      `json:"compressed"`
	PayloadBytes    int      `json:"payloadBytes"`
	CompressedFiles []string `json:"compressedFiles,omitempty"`
}

func cmdScan(args []string) {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	cf := config.RegisterCommon(fs)
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: dracotool scan [options] <dir>")
		os.Exit(1)
	}

	cfg := setup(cf)
	defer logger.Sync()

	summary, err := scanTree(cfg, fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if cfg.Output.Format == "json" {
		data, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(data))
		return
	}
	printSummary(summary)
}

// scanTree walks root and tallies compression usage over every document
// matching the configured extensions. Unreadable files are counted and
// logged, not fatal.
func scanTree(cfg *config.Config, root string) (*scanSummary, error) {
	sum := &scanSummary{Root: root}
	mgr := assets.NewManager()

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if !cfg.Scan.Recursive && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if !matchesExtension(path, cfg.Scan.Extensions) {
			return nil
		}

		sum.Files++
		asset, err := mgr.Load(path)
		if err != nil {
			logger.Sugar.Warnf("skipping %s: %v", path, err)
			sum.Failed++
			return nil
		}

		for _, mesh := range asset.Doc.Meshes {
			sum.Primitives += len(mesh.Primitives)
		}

		links, problems := linkReports(asset.Doc, asset.Buffers)
		sum.Compressed += len(links)
		for _, l := range links {
			if l.PayloadBytes > 0 {
				sum.PayloadBytes += l.PayloadBytes
			}
		}
		if len(links) > 0 {
			sum.CompressedFiles = append(sum.CompressedFiles, path)
		}
		for _, p := range problems {
			logger.Sugar.Warnf("%s: %s", path, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sum, nil
}

func matchesExtension(path string, exts []string) bool {
	ext := filepath.Ext(path)
	for _, e := range exts {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

func printSummary(sum *scanSummary) {
	fmt.Printf("Scanned: %s\n", sum.Root)
	fmt.Printf("  Files:      %d (%d unreadable)\n", sum.Files, sum.Failed)
	fmt.Printf("  Primitives: %d (%d compressed)\n", sum.Primitives, sum.Compressed)
	fmt.Printf("  Payload:    %d bytes\n", sum.PayloadBytes)
	if len(sum.CompressedFiles) > 0 {
		fmt.Println("  Compressed files:")
		for _, f := range sum.CompressedFiles {
			fmt.Printf("    %s\n", f)
		}
	}
}
