package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/qmuntal/gltf"

	"github.com/meshtools/gltf-draco/internal/assets"
	"github.com/meshtools/gltf-draco/internal/config"
	"github.com/meshtools/gltf-draco/internal/logger"
	"github.com/meshtools/gltf-draco/pkg/draco"
	"github.com/meshtools/gltf-draco/pkg/loader"
)

// fileReport is the info command's per-file summary.
type fileReport struct {
	Path       string           `json:"path"`
	Meshes     int              `json:"meshes"`
	Primitives int              `json:"primitives"`
	Compressed int              `json:"compressed"`
	Animations int              `json:"animations"`
	Links      []linkReport     `json:"links,omitempty"`
	Geometry   []geometryReport `json:"geometry,omitempty"`
	Playback   *playbackReport  `json:"playback,omitempty"`
	Problems   []string         `json:"problems,omitempty"`
}

// linkReport describes one compressed primitive's extension record.
type linkReport struct {
	Mesh         int            `json:"mesh"`
	Primitive    int            `json:"primitive"`
	BufferView   int            `json:"bufferView"`
	PayloadBytes int            `json:"payloadBytes"` // -1 when the view is unreadable
	Attributes   map[string]int `json:"attributes"`   // attribute name -> codec stream index
}

// geometryReport summarizes one mesh's loadable geometry.
type geometryReport struct {
	Mesh      int    `json:"mesh"`
	Name      string `json:"name,omitempty"`
	Vertices  int    `json:"vertices"`
	Triangles int    `json:"triangles"`
}

type playbackReport struct {
	Animation int `json:"animation"`
	Root      int `json:"root"`
}

func cmdInfo(args []string) {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	cf := config.RegisterCommon(fs)
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: dracotool info [options] <file...>")
		os.Exit(1)
	}

	cfg := setup(cf)
	defer logger.Sync()

	mgr := assets.NewManager()
	var reports []*fileReport
	failed := false
	for _, path := range fs.Args() {
		asset, err := mgr.Load(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			failed = true
			continue
		}
		reports = append(reports, buildReport(asset))
	}

	renderReports(cfg, reports)
	if failed {
		os.Exit(1)
	}
}

// buildReport inspects one loaded asset: extension records straight off the
// document, geometry and playback through a codec-less load pass.
func buildReport(asset *assets.Asset) *fileReport {
	doc := asset.Doc
	r := &fileReport{
		Path:       asset.Path,
		Meshes:     len(doc.Meshes),
		Animations: len(doc.Animations),
	}
	for _, mesh := range doc.Meshes {
		r.Primitives += len(mesh.Primitives)
	}

	r.Links, r.Problems = linkReports(doc, asset.Buffers)
	r.Compressed = len(r.Links)

	pb := &loader.PlaybackHandler{}
	sess := loader.NewSession(loader.NewRegistry(pb), loader.WithLogger(logger.Log))
	res, err := sess.Load(doc, asset.Buffers)
	if err != nil {
		r.Problems = append(r.Problems, err.Error())
		return r
	}
	for _, e := range res.Errors {
		r.Problems = append(r.Problems, e.Error())
	}
	r.Geometry = geometryReports(res)
	if res.Playback != nil {
		r.Playback = &playbackReport{Animation: res.Playback.Animation, Root: res.Playback.Root}
	}
	return r
}

// linkReports collects one entry per compressed primitive, plus a problem
// line for every record that fails to parse or points outside the document.
func linkReports(doc *gltf.Document, buffers [][]byte) ([]linkReport, []string) {
	var links []linkReport
	var problems []string
	for mi, mesh := range doc.Meshes {
		for pi, prim := range mesh.Primitives {
			link, err := draco.ParseLink(prim)
			if err != nil {
				problems = append(problems, fmt.Sprintf("mesh %d primitive %d: %v", mi, pi, err))
				continue
			}
			if link == nil {
				continue
			}

			lr := linkReport{
				Mesh:       mi,
				Primitive:  pi,
				BufferView: link.BufferView,
				Attributes: make(map[string]int, len(link.Semantics)),
			}
			for idx, sem := range link.Semantics {
				lr.Attributes[sem.Attribute()] = idx
			}

			payload, err := link.Payload(doc, buffers)
			if err != nil {
				problems = append(problems, fmt.Sprintf("mesh %d primitive %d: %v", mi, pi, err))
				lr.PayloadBytes = -1
			} else {
				lr.PayloadBytes = len(payload)
			}
			links = append(links, lr)
		}
	}
	return links, problems
}

// geometryReports summarizes the load result per mesh.
func geometryReports(res *loader.Result) []geometryReport {
	var out []geometryReport
	for mi, m := range res.Meshes {
		gr := geometryReport{Mesh: mi, Name: m.Name}
		for _, p := range m.Primitives {
			vertices := 0
			if s, ok := p.Streams["POSITION"]; ok {
				vertices = s.Count
			}
			gr.Vertices += vertices
			if p.Mode == gltf.PrimitiveTriangles {
				if len(p.Indices) > 0 {
					gr.Triangles += len(p.Indices) / 3
				} else {
					gr.Triangles += vertices / 3
				}
			}
		}
		out = append(out, gr)
	}
	return out
}

// renderReports prints reports in the configured format.
func renderReports(cfg *config.Config, reports []*fileReport) {
	if cfg.Output.Format == "json" {
		data, err := json.MarshalIndent(reports, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(data))
		return
	}
	for _, r := range reports {
		printReport(r)
	}
}

func printReport(r *fileReport) {
	fmt.Printf("File: %s\n", r.Path)
	fmt.Printf("  Meshes:     %d\n", r.Meshes)
	fmt.Printf("  Primitives: %d (%d compressed)\n", r.Primitives, r.Compressed)
	fmt.Printf("  Animations: %d\n", r.Animations)
	if r.Playback != nil {
		fmt.Printf("  Playback:   animation %d from node %d\n", r.Playback.Animation, r.Playback.Root)
	}

	if len(r.Links) > 0 {
		fmt.Println("  Compressed primitives:")
		for _, l := range r.Links {
			size := fmt.Sprintf("%d bytes", l.PayloadBytes)
			if l.PayloadBytes < 0 {
				size = "unreadable"
			}
			fmt.Printf("    mesh %d primitive %d: bufferView %d, %s\n", l.Mesh, l.Primitive, l.BufferView, size)

			names := make([]string, 0, len(l.Attributes))
			for name := range l.Attributes {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Printf("      %-12s -> stream %d\n", name, l.Attributes[name])
			}
		}
	}

	if len(r.Geometry) > 0 {
		fmt.Println("  Geometry:")
		for _, g := range r.Geometry {
			name := g.Name
			if name == "" {
				name = fmt.Sprintf("mesh %d", g.Mesh)
			}
			fmt.Printf("    %-20s %d vertices, %d triangles\n", name, g.Vertices, g.Triangles)
		}
	}

	if len(r.Problems) > 0 {
		fmt.Println("  Problems:")
		for _, p := range r.Problems {
			fmt.Printf("    %s\n", p)
		}
	}
	fmt.Println()
}
