package scene

import (
	"github.com/Faultbox/scenetrace/internal/engine/lighting"
	"github.com/Faultbox/scenetrace/internal/engine/raycast"
)

// DefaultGroupName is used for group and leaf nodes without a name.
const DefaultGroupName = "g"

// Group holds an ordered list of children.
type Group struct {
	nodeBase
	children []Node
}

// NewGroup returns an empty group.
func NewGroup(name string) *Group {
	if name == "" {
		name = DefaultGroupName
	}
	return &Group{nodeBase: nodeBase{name: name}}
}

// AddChild appends child.
func (g *Group) AddChild(child Node) {
	g.children = append(g.children, child)
	child.base().parent = g
}

// Children returns the children in insertion order.
func (g *Group) Children() []Node { return g.children }

func (g *Group) Draw(d Drawer, modelView *MatrixStack) {
	for _, c := range g.children {
		c.Draw(d, modelView)
	}
}

func (g *Group) FindLights(modelView *MatrixStack) []lighting.Light {
	lights := g.transformedLights(modelView)
	for _, c := range g.children {
		lights = append(lights, c.FindLights(modelView)...)
	}
	return lights
}

// RayIntersect returns the nearest hit over all children, independent of
// their order.
func (g *Group) RayIntersect(r raycast.Ray, modelView *MatrixStack) (raycast.HitRecord, bool) {
	var nearest *raycast.HitRecord
	for _, c := range g.children {
		hit, ok := c.RayIntersect(r, modelView)
		if ok && hit.Closer(nearest) {
			h := hit
			nearest = &h
		}
	}
	if nearest == nil {
		return raycast.HitRecord{}, false
	}
	return *nearest, true
}

func (g *Group) Clone() Node {
	out := &Group{nodeBase: g.cloneBase()}
	for _, c := range g.children {
		out.AddChild(c.Clone())
	}
	return out
}

func (g *Group) GetNode(name string) Node {
	if g.name == name {
		return g
	}
	for _, c := range g.children {
		if n := c.GetNode(name); n != nil {
			return n
		}
	}
	return nil
}

func (g *Group) SetScenegraph(graph *Scenegraph) {
	g.register(g, graph)
	for _, c := range g.children {
		c.SetScenegraph(graph)
	}
}
