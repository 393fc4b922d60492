package scene

import (
	"github.com/Faultbox/scenetrace/internal/engine/lighting"
	"github.com/Faultbox/scenetrace/internal/engine/material"
	"github.com/Faultbox/scenetrace/internal/engine/raycast"
)

// Leaf is a mesh instance with a material and an optional texture.
type Leaf struct {
	nodeBase
	meshName    string
	material    material.Material
	textureName string
}

// NewLeaf returns a leaf drawing the mesh registered as meshName.
func NewLeaf(name, meshName string) *Leaf {
	if name == "" {
		name = DefaultGroupName
	}
	return &Leaf{
		nodeBase: nodeBase{name: name},
		meshName: meshName,
		material: material.Default(),
	}
}

// MeshName returns the mesh instance name.
func (l *Leaf) MeshName() string { return l.meshName }

// Material returns the leaf material.
func (l *Leaf) Material() material.Material { return l.material }

// SetMaterial replaces the leaf material.
func (l *Leaf) SetMaterial(m material.Material) { l.material = m }

// TextureName returns the bound texture name, or "".
func (l *Leaf) TextureName() string { return l.textureName }

// SetTextureName binds a texture by name.
func (l *Leaf) SetTextureName(name string) { l.textureName = name }

// registered reports whether the leaf's mesh is known. Detached leaves
// trust their own mesh name.
func (l *Leaf) registered() bool {
	if l.meshName == "" {
		return false
	}
	if l.graph == nil {
		return true
	}
	_, ok := l.graph.Mesh(l.meshName)
	return ok
}

// primitive returns the solver name for the leaf's mesh.
func (l *Leaf) primitive() string {
	if l.graph == nil {
		return l.meshName
	}
	if m, ok := l.graph.Mesh(l.meshName); ok {
		return m.Primitive
	}
	return ""
}

func (l *Leaf) Draw(d Drawer, modelView *MatrixStack) {
	if !l.registered() {
		return
	}
	d.DrawMesh(l.meshName, l.material, l.textureName, top(modelView))
}

func (l *Leaf) FindLights(modelView *MatrixStack) []lighting.Light {
	return l.transformedLights(modelView)
}

// RayIntersect maps r into object space with the inverse of the current
// modelview, runs the primitive's solver and maps the hit back.
func (l *Leaf) RayIntersect(r raycast.Ray, modelView *MatrixStack) (raycast.HitRecord, bool) {
	prim := l.primitive()
	if !raycast.Supported(prim) {
		return raycast.HitRecord{}, false
	}
	m := top(modelView)
	inv, ok := m.InverseOK()
	if !ok {
		return raycast.HitRecord{}, false
	}

	hit, ok := raycast.Intersect(prim, r.Transform(inv))
	if !ok {
		return raycast.HitRecord{}, false
	}
	hit = hit.ToWorld(m)
	hit.Material = l.material
	hit.TextureName = l.textureName
	return hit, true
}

func (l *Leaf) Clone() Node {
	return &Leaf{
		nodeBase:    l.cloneBase(),
		meshName:    l.meshName,
		material:    l.material,
		textureName: l.textureName,
	}
}

func (l *Leaf) GetNode(name string) Node {
	if l.name == name {
		return l
	}
	return nil
}

func (l *Leaf) SetScenegraph(g *Scenegraph) {
	l.register(l, g)
}
