package scene

import (
	"errors"

	"github.com/Faultbox/scenetrace/internal/engine/lighting"
	"github.com/Faultbox/scenetrace/internal/engine/raycast"
	"github.com/Faultbox/scenetrace/pkg/math"
)

// ErrTransformHasChild is returned when adding a second child to a Transform.
var ErrTransformHasChild = errors.New("transform node already has a child")

// DefaultTransformName is used for transform nodes without a name.
const DefaultTransformName = "t"

// Transform positions a single child. The child sees
// parent * animation * static, so the static transform applies first.
type Transform struct {
	nodeBase
	transform          math.Mat4
	animationTransform math.Mat4
	child              Node
}

// NewTransform returns a transform node with identity matrices and no child.
func NewTransform(name string) *Transform {
	if name == "" {
		name = DefaultTransformName
	}
	return &Transform{
		nodeBase:           nodeBase{name: name},
		transform:          math.Identity(),
		animationTransform: math.Identity(),
	}
}

// AddChild sets the only child.
func (t *Transform) AddChild(child Node) error {
	if t.child != nil {
		return ErrTransformHasChild
	}
	t.child = child
	child.base().parent = t
	return nil
}

// Child returns the child, or nil.
func (t *Transform) Child() Node { return t.child }

// Transform returns the static transform.
func (t *Transform) Transform() math.Mat4 { return t.transform }

// SetTransform replaces the static transform.
func (t *Transform) SetTransform(m math.Mat4) { t.transform = m }

// AnimationTransform returns the animation transform.
func (t *Transform) AnimationTransform() math.Mat4 { return t.animationTransform }

// SetAnimationTransform replaces the animation transform.
func (t *Transform) SetAnimationTransform(m math.Mat4) { t.animationTransform = m }

// Composed returns animation * static.
func (t *Transform) Composed() math.Mat4 {
	return t.animationTransform.Mul(t.transform)
}

// enter pushes the child frame; the caller must pop.
func (t *Transform) enter(modelView *MatrixStack) {
	modelView.Push(top(modelView).Mul(t.Composed()))
}

func (t *Transform) Draw(d Drawer, modelView *MatrixStack) {
	if t.child == nil {
		return
	}
	t.enter(modelView)
	defer modelView.Pop()
	t.child.Draw(d, modelView)
}

// FindLights returns the node's lights and the child's, both expressed in
// the node's local frame.
func (t *Transform) FindLights(modelView *MatrixStack) []lighting.Light {
	t.enter(modelView)
	defer modelView.Pop()

	lights := t.transformedLights(modelView)
	if t.child != nil {
		lights = append(lights, t.child.FindLights(modelView)...)
	}
	return lights
}

func (t *Transform) RayIntersect(r raycast.Ray, modelView *MatrixStack) (raycast.HitRecord, bool) {
	if t.child == nil {
		return raycast.HitRecord{}, false
	}
	t.enter(modelView)
	defer modelView.Pop()
	return t.child.RayIntersect(r, modelView)
}

func (t *Transform) Clone() Node {
	out := &Transform{
		nodeBase:           t.cloneBase(),
		transform:          t.transform,
		animationTransform: t.animationTransform,
	}
	if t.child != nil {
		// a fresh transform has no child yet
		_ = out.AddChild(t.child.Clone())
	}
	return out
}

func (t *Transform) GetNode(name string) Node {
	if t.name == name {
		return t
	}
	if t.child != nil {
		return t.child.GetNode(name)
	}
	return nil
}

func (t *Transform) SetScenegraph(g *Scenegraph) {
	t.register(t, g)
	if t.child != nil {
		t.child.SetScenegraph(g)
	}
}
