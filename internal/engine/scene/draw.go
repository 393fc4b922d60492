package scene

import (
	"github.com/Faultbox/scenetrace/internal/engine/material"
	"github.com/Faultbox/scenetrace/pkg/math"
)

// Drawer receives one call per visible leaf during Draw.
type Drawer interface {
	DrawMesh(mesh string, mat material.Material, textureName string, modelView math.Mat4)
}

// DrawCall is one recorded DrawMesh call.
type DrawCall struct {
	Mesh        string
	Material    material.Material
	TextureName string
	ModelView   math.Mat4
}

// DrawList is a Drawer that records calls in order.
type DrawList struct {
	Calls []DrawCall
}

// DrawMesh implements Drawer.
func (l *DrawList) DrawMesh(mesh string, mat material.Material, textureName string, modelView math.Mat4) {
	l.Calls = append(l.Calls, DrawCall{
		Mesh:        mesh,
		Material:    mat,
		TextureName: textureName,
		ModelView:   modelView,
	})
}
