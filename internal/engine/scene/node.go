// Package scene implements the scene graph: a tree of transform, group and
// leaf nodes plus the registries of meshes, textures and named nodes that
// the renderers consume.
package scene

import (
	"github.com/Faultbox/scenetrace/internal/engine/lighting"
	"github.com/Faultbox/scenetrace/internal/engine/raycast"
)

// Node is a scene graph node. The set of implementations is closed:
// *Transform, *Group and *Leaf.
type Node interface {
	Name() string
	// Parent is a non-owning back reference; nil for the root.
	Parent() Node
	Lights() []lighting.Light
	AddLight(l lighting.Light)

	// Draw hands every visible leaf to d with its modelview.
	Draw(d Drawer, modelView *MatrixStack)
	// FindLights returns the lights of the subtree transformed into the
	// frame at the bottom of modelView.
	FindLights(modelView *MatrixStack) []lighting.Light
	// RayIntersect returns the nearest hit of r, given in the frame at the
	// bottom of modelView, with the subtree.
	RayIntersect(r raycast.Ray, modelView *MatrixStack) (raycast.HitRecord, bool)
	// Clone returns a deep copy of the subtree, detached from any parent.
	Clone() Node
	// GetNode finds name in the subtree, including the node itself.
	GetNode(name string) Node
	// SetScenegraph attaches the subtree to g, registering every node by name.
	SetScenegraph(g *Scenegraph)

	base() *nodeBase
}

// nodeBase holds the state shared by all node kinds.
type nodeBase struct {
	name   string
	parent Node
	graph  *Scenegraph
	lights []lighting.Light
}

func (n *nodeBase) base() *nodeBase { return n }

// Name returns the node name.
func (n *nodeBase) Name() string { return n.name }

// Parent returns the parent node.
func (n *nodeBase) Parent() Node { return n.parent }

// Lights returns the lights attached directly to the node.
func (n *nodeBase) Lights() []lighting.Light { return n.lights }

// AddLight attaches l to the node.
func (n *nodeBase) AddLight(l lighting.Light) {
	n.lights = append(n.lights, l)
}

// Scenegraph returns the graph the node is attached to, if any.
func (n *nodeBase) Scenegraph() *Scenegraph { return n.graph }

func (n *nodeBase) register(self Node, g *Scenegraph) {
	n.graph = g
	if g != nil {
		g.addNode(self)
	}
}

// transformedLights returns the node's own lights in the frame m.
func (n *nodeBase) transformedLights(modelView *MatrixStack) []lighting.Light {
	if len(n.lights) == 0 {
		return nil
	}
	m := top(modelView)
	out := make([]lighting.Light, len(n.lights))
	for i, l := range n.lights {
		out[i] = l.Transformed(m)
	}
	return out
}

func (n *nodeBase) cloneBase() nodeBase {
	return nodeBase{
		name:   n.name,
		graph:  n.graph,
		lights: lighting.Clone(n.lights),
	}
}
