package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"
	"go.uber.org/multierr"

	"github.com/meshtools/gltf-draco/internal/assets"
	"github.com/meshtools/gltf-draco/internal/config"
	"github.com/meshtools/gltf-draco/internal/logger"
	"github.com/meshtools/gltf-draco/pkg/draco"
	"github.com/meshtools/gltf-draco/pkg/loader"
)

func cmdStrip(args []string) {
	fs := flag.NewFlagSet("strip", flag.ExitOnError)
	cf := config.RegisterCommon(fs)
	out := fs.String("o", "", "Output path (.gltf or .glb)")
	force := fs.Bool("force", false, "Write output even when primitives keep their compressed payload")
	fs.Parse(args)

	if fs.NArg() < 1 || *out == "" {
		fmt.Fprintln(os.Stderr, "Usage: dracotool strip -o <out> [options] <file>")
		os.Exit(1)
	}

	setup(cf)
	defer logger.Sync()

	mgr := assets.NewManager()
	asset, err := mgr.Load(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	before := countCompressed(asset.Doc)
	inBytes := 0
	for _, b := range asset.Buffers {
		inBytes += len(b)
	}

	stripped, outBuffers, err := draco.Strip(asset.Doc, asset.Buffers)
	if err != nil {
		for _, e := range multierr.Errors(err) {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", e)
		}
		if !*force {
			fmt.Fprintln(os.Stderr, "Some primitives keep their compressed payload; re-run with -force to write anyway")
			os.Exit(1)
		}
	}

	outBytes := 0
	if len(stripped.Buffers) > 0 {
		merged, err := loader.ConsolidateBuffers(stripped, outBuffers)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		outBytes = len(merged)
	}

	if err := saveDocument(stripped, *out); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	after := countCompressed(stripped)
	fmt.Printf("Stripped: %s\n", *out)
	fmt.Printf("  Primitives:   %d compressed, %d still compressed\n", before, after)
	fmt.Printf("  Buffer bytes: %d -> %d\n", inBytes, outBytes)
}

// countCompressed counts primitives carrying an extension record.
func countCompressed(doc *gltf.Document) int {
	n := 0
	for _, mesh := range doc.Meshes {
		for _, prim := range mesh.Primitives {
			if _, ok := prim.Extensions[draco.ExtensionName]; ok {
				n++
			}
		}
	}
	return n
}

// saveDocument writes doc as GLB or as glTF with embedded buffers, chosen
// by the output extension.
func saveDocument(doc *gltf.Document, path string) error {
	if strings.EqualFold(filepath.Ext(path), ".glb") {
		return gltf.SaveBinary(doc, path)
	}
	for _, b := range doc.Buffers {
		b.EmbeddedResource()
	}
	return gltf.Save(doc, path)
}
