// sgtool is a CLI utility for inspecting scene descriptions.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/chewxy/math32"

	"github.com/Faultbox/scenetrace/internal/engine/camera"
	"github.com/Faultbox/scenetrace/internal/engine/lighting"
	"github.com/Faultbox/scenetrace/internal/engine/raytrace"
	"github.com/Faultbox/scenetrace/internal/engine/scene"
	"github.com/Faultbox/scenetrace/internal/logger"
	"github.com/Faultbox/scenetrace/pkg/math"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Importer warnings (unknown meshes, bad materials) go to stderr.
	if err := logger.Init("warn", ""); err != nil {
		fail(err)
	}
	defer logger.Sync()

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		cmdInfo(args)
	case "nodes", "tree":
		cmdNodes(args)
	case "lights":
		cmdLights(args)
	case "draw":
		cmdDraw(args)
	case "probe":
		cmdProbe(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`sgtool - scene graph inspection utility

Usage:
  sgtool <command> [options] <scene>

Commands:
  info <scene>                 Show node, mesh, texture and light counts
  nodes <scene>                Print the node tree
  lights <scene>               List lights in camera space
  draw <scene>                 List the draw calls of one traversal
  probe [options] <scene> x y  Report the primary ray hit for a pixel

Camera options (lights, draw, probe):
  -eye x,y,z      Camera position (default 0,0,5)
  -center x,y,z   Point looked at (default 0,0,0)

Examples:
  sgtool info scenes/spheres.json
  sgtool probe -width 640 -height 480 scenes/spheres.json 320 240`)
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func load(path string) *scene.Scenegraph {
	g, err := scene.ImportFile(path, logger.Named("scene"))
	if err != nil {
		fail(err)
	}
	return g
}

// cameraFlags registers -eye and -center on fs.
func cameraFlags(fs *flag.FlagSet) func() *scene.MatrixStack {
	eye := fs.String("eye", "0,0,5", "Camera position")
	center := fs.String("center", "0,0,0", "Point looked at")
	return func() *scene.MatrixStack {
		e, err := parseTriple(*eye)
		if err != nil {
			fail(fmt.Errorf("-eye: %w", err))
		}
		c, err := parseTriple(*center)
		if err != nil {
			fail(fmt.Errorf("-center: %w", err))
		}
		return scene.NewMatrixStack(camera.NewLookAt(e, c).ViewMatrix())
	}
}

func parseTriple(s string) (math.Vec3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return math.Vec3{}, fmt.Errorf("want x,y,z, got %q", s)
	}
	var v [3]float32
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return math.Vec3{}, err
		}
		v[i] = float32(f)
	}
	return math.Vec3{X: v[0], Y: v[1], Z: v[2]}, nil
}

func cmdInfo(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: sgtool info <scene>")
		os.Exit(1)
	}
	g := load(args[0])

	primitives := 0
	for _, m := range g.Meshes() {
		if m.Primitive != "" {
			primitives++
		}
	}
	lights := g.FindLights(scene.NewMatrixStack(math.Identity()))

	fmt.Printf("Scene:    %s\n", args[0])
	fmt.Printf("Root:     %s\n", g.Root().Name())
	fmt.Printf("Nodes:    %d\n", len(g.Nodes()))
	fmt.Printf("Meshes:   %d (%d traceable)\n", len(g.Meshes()), primitives)
	fmt.Printf("Textures: %d\n", len(g.TexturePaths()))
	fmt.Printf("Lights:   %d\n", len(lights))
	fmt.Println()
	fmt.Println("Meshes:")
	for _, name := range g.MeshNames() {
		m, _ := g.Mesh(name)
		prim := m.Primitive
		if prim == "" {
			prim = "-"
		}
		fmt.Printf("  %-16s %-8s %s\n", name, prim, m.Path)
	}
}

func cmdNodes(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: sgtool nodes <scene>")
		os.Exit(1)
	}
	printTree(load(args[0]).Root(), 0)
}

func printTree(n scene.Node, depth int) {
	indent := strings.Repeat("  ", depth)
	lights := ""
	if l := len(n.Lights()); l > 0 {
		lights = fmt.Sprintf(" [%d lights]", l)
	}
	switch n := n.(type) {
	case *scene.Transform:
		fmt.Printf("%stransform %s%s\n", indent, n.Name(), lights)
		if c := n.Child(); c != nil {
			printTree(c, depth+1)
		}
	case *scene.Group:
		fmt.Printf("%sgroup %s%s\n", indent, n.Name(), lights)
		for _, c := range n.Children() {
			printTree(c, depth+1)
		}
	case *scene.Leaf:
		tex := ""
		if n.TextureName() != "" {
			tex = " texture=" + n.TextureName()
		}
		fmt.Printf("%sobject %s mesh=%s%s%s\n", indent, n.Name(), n.MeshName(), tex, lights)
	}
}

func cmdLights(args []string) {
	fs := flag.NewFlagSet("lights", flag.ExitOnError)
	view := cameraFlags(fs)
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: sgtool lights [options] <scene>")
		os.Exit(1)
	}

	for i, l := range load(fs.Arg(0)).FindLights(view()) {
		fmt.Printf("%2d %-11s pos=%v", i, l.Kind(), l.Position)
		if l.Kind() == lighting.Spot {
			fmt.Printf(" dir=%v cutoff=%.1fdeg", l.SpotDirection.XYZ(), l.SpotCutoff*180/math32.Pi)
		}
		fmt.Printf(" ambient=%v diffuse=%v specular=%v\n", l.Ambient, l.Diffuse, l.Specular)
	}
}

func cmdDraw(args []string) {
	fs := flag.NewFlagSet("draw", flag.ExitOnError)
	view := cameraFlags(fs)
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: sgtool draw [options] <scene>")
		os.Exit(1)
	}

	var list scene.DrawList
	load(fs.Arg(0)).Draw(&list, view())
	for i, c := range list.Calls {
		origin := c.ModelView.TransformPoint(math.Vec3{})
		fmt.Printf("%3d %-12s texture=%-10q origin=%v\n", i, c.Mesh, c.TextureName, origin)
	}
	fmt.Printf("%d draw calls\n", len(list.Calls))
}

func cmdProbe(args []string) {
	fs := flag.NewFlagSet("probe", flag.ExitOnError)
	width := fs.Int("width", 640, "Image width")
	height := fs.Int("height", 480, "Image height")
	fov := fs.Float64("fov", 90, "Vertical field of view in degrees")
	view := cameraFlags(fs)
	fs.Parse(args)

	if fs.NArg() < 3 {
		fmt.Fprintln(os.Stderr, "Usage: sgtool probe [options] <scene> x y")
		os.Exit(1)
	}
	x, errX := strconv.Atoi(fs.Arg(1))
	y, errY := strconv.Atoi(fs.Arg(2))
	if errX != nil || errY != nil {
		fail(fmt.Errorf("pixel coordinates must be integers"))
	}

	cfg := raytrace.DefaultConfig()
	cfg.FOV = math.Radians(float32(*fov))
	solver := raytrace.NewSolver(load(fs.Arg(0)), cfg, nil)

	hit, ok := solver.Probe(*width, *height, x, y, view())
	if !ok {
		fmt.Printf("pixel %d,%d: no hit\n", x, y)
		return
	}
	fmt.Printf("pixel %d,%d:\n", x, y)
	fmt.Printf("  t:        %g\n", hit.Time)
	fmt.Printf("  point:    %v\n", hit.Point)
	fmt.Printf("  normal:   %v\n", hit.Normal)
	fmt.Printf("  incoming: %v\n", hit.Incoming)
	fmt.Printf("  uv:       %v\n", hit.TexCoord)
	if hit.TextureName != "" {
		fmt.Printf("  texture:  %s\n", hit.TextureName)
	}
	fmt.Printf("  material: %+v\n", hit.Material)
}
