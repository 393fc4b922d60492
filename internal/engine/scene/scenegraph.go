package scene

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/scenetrace/internal/engine/lighting"
	"github.com/Faultbox/scenetrace/internal/engine/raycast"
	"github.com/Faultbox/scenetrace/internal/engine/texture"
	"github.com/Faultbox/scenetrace/pkg/formats"
	"github.com/Faultbox/scenetrace/pkg/math"
)

// Lookup errors.
var (
	ErrNodeNotFound = errors.New("node not found")
	ErrNotTransform = errors.New("node is not a transform")
)

// Mesh is a registered mesh instance. Data stays nil until the mesh file
// has been loaded; ray tracing only needs Primitive.
type Mesh struct {
	Name string
	Path string
	// Primitive is the canonical solid ("box", "sphere", ...) the mesh
	// stands for, or "" when it has no closed-form solver.
	Primitive string
	Data      *formats.OBJMesh
}

// NewMesh registers name at path, deriving the primitive from the instance
// name or, failing that, from the file's base name.
func NewMesh(name, path string) *Mesh {
	m := &Mesh{Name: name, Path: path}
	switch {
	case raycast.Supported(name):
		m.Primitive = name
	default:
		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if raycast.Supported(base) {
			m.Primitive = base
		}
	}
	return m
}

// Scenegraph owns the node tree and the mesh, texture and node registries.
// Rendering only reads it, so one graph may be traced from many goroutines
// as long as nobody mutates it meanwhile.
type Scenegraph struct {
	root         Node
	meshes       map[string]*Mesh
	texturePaths map[string]string
	textures     map[string]*texture.Texture
	nodes        map[string]Node
	log          *zap.Logger
}

// New returns an empty scene graph. A nil logger disables logging.
func New(log *zap.Logger) *Scenegraph {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scenegraph{
		meshes:       make(map[string]*Mesh),
		texturePaths: make(map[string]string),
		textures:     make(map[string]*texture.Texture),
		nodes:        make(map[string]Node),
		log:          log,
	}
}

// MakeScenegraph installs root and registers the tree's nodes by name.
func (g *Scenegraph) MakeScenegraph(root Node) {
	g.root = root
	g.nodes = make(map[string]Node)
	if root != nil {
		root.SetScenegraph(g)
	}
}

// Root returns the root node.
func (g *Scenegraph) Root() Node { return g.root }

func (g *Scenegraph) addNode(n Node) {
	if _, dup := g.nodes[n.Name()]; dup {
		g.log.Debug("node name reused, lookup returns the latest", zap.String("name", n.Name()))
	}
	g.nodes[n.Name()] = n
}

// Nodes returns the name table.
func (g *Scenegraph) Nodes() map[string]Node { return g.nodes }

// Node looks a node up by name.
func (g *Scenegraph) Node(name string) (Node, bool) {
	n, ok := g.nodes[name]
	return n, ok
}

// NodeNames returns the registered node names, sorted.
func (g *Scenegraph) NodeNames() []string {
	return sortedKeys(g.nodes)
}

// AddPolygonMesh registers m under name.
func (g *Scenegraph) AddPolygonMesh(name string, m *Mesh) {
	g.meshes[name] = m
}

// Mesh returns a registered mesh.
func (g *Scenegraph) Mesh(name string) (*Mesh, bool) {
	m, ok := g.meshes[name]
	return m, ok
}

// Meshes returns the mesh registry.
func (g *Scenegraph) Meshes() map[string]*Mesh { return g.meshes }

// MeshNames returns the registered mesh names, sorted.
func (g *Scenegraph) MeshNames() []string {
	return sortedKeys(g.meshes)
}

// AddTexture registers the texture file path for name.
func (g *Scenegraph) AddTexture(name, path string) {
	g.texturePaths[name] = path
}

// TexturePaths returns the texture name to path registry.
func (g *Scenegraph) TexturePaths() map[string]string { return g.texturePaths }

// SetTexture stores the loaded texture for name.
func (g *Scenegraph) SetTexture(name string, t *texture.Texture) {
	g.textures[name] = t
}

// Texture returns the loaded texture for name, or nil.
func (g *Scenegraph) Texture(name string) *texture.Texture {
	return g.textures[name]
}

func (g *Scenegraph) transformNode(name string) (*Transform, error) {
	n, ok := g.nodes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, name)
	}
	t, ok := n.(*Transform)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotTransform, name)
	}
	return t, nil
}

// SetTransform replaces the static transform of the named transform node.
func (g *Scenegraph) SetTransform(name string, m math.Mat4) error {
	t, err := g.transformNode(name)
	if err != nil {
		return err
	}
	t.SetTransform(m)
	return nil
}

// SetAnimationTransform replaces the animation transform of the named
// transform node. Must not be called while a render is in flight.
func (g *Scenegraph) SetAnimationTransform(name string, m math.Mat4) error {
	t, err := g.transformNode(name)
	if err != nil {
		return err
	}
	t.SetAnimationTransform(m)
	return nil
}

// Draw walks the tree, passing every registered leaf to d.
func (g *Scenegraph) Draw(d Drawer, modelView *MatrixStack) {
	if g.root == nil || d == nil {
		return
	}
	g.root.Draw(d, modelView)
}

// FindLights collects all lights in the frame at the bottom of modelView.
func (g *Scenegraph) FindLights(modelView *MatrixStack) []lighting.Light {
	if g.root == nil {
		return nil
	}
	return g.root.FindLights(modelView)
}

// RayIntersect returns the nearest hit of r with the scene.
func (g *Scenegraph) RayIntersect(r raycast.Ray, modelView *MatrixStack) (raycast.HitRecord, bool) {
	if g.root == nil {
		return raycast.HitRecord{}, false
	}
	return g.root.RayIntersect(r, modelView)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
