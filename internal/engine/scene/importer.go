package scene

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/scenetrace/internal/engine/lighting"
	"github.com/Faultbox/scenetrace/internal/engine/material"
	"github.com/Faultbox/scenetrace/pkg/formats"
	"github.com/Faultbox/scenetrace/pkg/math"
)

// Scene construction errors. Any of them aborts the build; no partial graph
// is returned.
var (
	ErrMissingInstances = errors.New("scene has no instances")
	ErrMissingRoot      = errors.New("scene has no root")
	ErrMissingType      = errors.New("node has no type")
	ErrUnknownNodeType  = errors.New("unknown node type")
	ErrMissingChild     = errors.New("transform node has no child")
	ErrMissingTransform = errors.New("transform node has no transform list")
	ErrBadOperand       = errors.New("invalid operand")
)

// Node type names in scene descriptions.
const (
	TypeTransform = "transform"
	TypeGroup     = "group"
	TypeObject    = "object"
)

// Import builds a scene graph from a decoded description. Meshes and
// textures are registered by path only; loading them is a separate step.
func Import(s *formats.Scene, log *zap.Logger) (*Scenegraph, error) {
	if s == nil {
		return nil, ErrMissingRoot
	}
	if s.Instances == nil {
		return nil, ErrMissingInstances
	}
	if s.Root == nil {
		return nil, ErrMissingRoot
	}

	g := New(log)
	for _, inst := range s.Instances {
		g.AddPolygonMesh(inst.Name, NewMesh(inst.Name, inst.Path))
	}
	for _, tex := range s.Textures {
		g.AddTexture(tex.Name, tex.Path)
	}

	imp := importer{graph: g}
	root, err := imp.node(s.Root)
	if err != nil {
		return nil, err
	}
	g.MakeScenegraph(root)

	g.log.Debug("scene imported",
		zap.Int("nodes", imp.count),
		zap.Int("meshes", len(g.meshes)),
		zap.Int("textures", len(g.texturePaths)))
	return g, nil
}

// ImportFile loads a JSON or YAML scene description and imports it.
func ImportFile(path string, log *zap.Logger) (*Scenegraph, error) {
	s, err := formats.LoadScene(path)
	if err != nil {
		return nil, err
	}
	g, err := Import(s, log)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

type importer struct {
	graph *Scenegraph
	count int
}

func (imp *importer) node(desc *formats.Node) (Node, error) {
	var (
		n   Node
		err error
	)
	switch desc.Type {
	case "":
		return nil, ErrMissingType
	case TypeTransform:
		n, err = imp.transform(desc)
	case TypeGroup:
		n, err = imp.group(desc)
	case TypeObject:
		n, err = imp.leaf(desc)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownNodeType, desc.Type)
	}
	if err != nil {
		return nil, err
	}

	for i, ld := range desc.Lights {
		l, err := parseLight(ld)
		if err != nil {
			return nil, fmt.Errorf("node %q light %d: %w", n.Name(), i, err)
		}
		n.AddLight(l)
	}
	imp.count++
	return n, nil
}

func (imp *importer) transform(desc *formats.Node) (Node, error) {
	t := NewTransform(desc.Name)
	if desc.Child == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingChild, t.Name())
	}
	if desc.Transform == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingTransform, t.Name())
	}

	m, err := composeOps(desc.Transform)
	if err != nil {
		return nil, fmt.Errorf("transform %q: %w", t.Name(), err)
	}
	t.SetTransform(m)

	child, err := imp.node(desc.Child)
	if err != nil {
		return nil, err
	}
	if err := t.AddChild(child); err != nil {
		return nil, err
	}
	return t, nil
}

// composeOps multiplies the ops in list order: each op is applied to the
// object before the ones listed above it.
func composeOps(ops []formats.TransformOp) (math.Mat4, error) {
	m := math.Identity()
	for i, op := range ops {
		switch {
		case op.Translate != nil:
			v, err := vec3(op.Translate, "translate")
			if err != nil {
				return m, fmt.Errorf("op %d: %w", i, err)
			}
			m = m.Mul(math.Translate(v.X, v.Y, v.Z))
		case op.Scale != nil:
			v, err := vec3(op.Scale, "scale")
			if err != nil {
				return m, fmt.Errorf("op %d: %w", i, err)
			}
			m = m.Mul(math.Scale(v.X, v.Y, v.Z))
		case op.Rotate != nil:
			if len(op.Rotate) != 4 {
				return m, fmt.Errorf("op %d: %w: rotate needs 4 values, got %d", i, ErrBadOperand, len(op.Rotate))
			}
			axis := math.Vec3{X: op.Rotate[1], Y: op.Rotate[2], Z: op.Rotate[3]}
			m = m.Mul(math.RotateAxis(axis, math.Radians(op.Rotate[0])))
		default:
			return m, fmt.Errorf("op %d: %w: empty transform op", i, ErrBadOperand)
		}
	}
	return m, nil
}

func (imp *importer) group(desc *formats.Node) (Node, error) {
	g := NewGroup(desc.Name)
	for _, cd := range desc.Children {
		if cd == nil {
			continue
		}
		child, err := imp.node(cd)
		if err != nil {
			return nil, err
		}
		g.AddChild(child)
	}
	return g, nil
}

func (imp *importer) leaf(desc *formats.Node) (Node, error) {
	l := NewLeaf(desc.Name, desc.InstanceOf)
	if _, ok := imp.graph.Mesh(desc.InstanceOf); !ok {
		imp.graph.log.Warn("leaf references an unknown instance and will not render",
			zap.String("node", l.Name()), zap.String("instanceof", desc.InstanceOf))
	}

	if desc.Texture != "" {
		if _, ok := imp.graph.texturePaths[desc.Texture]; !ok {
			imp.graph.log.Warn("leaf references an unknown texture",
				zap.String("node", l.Name()), zap.String("texture", desc.Texture))
		}
		l.SetTextureName(desc.Texture)
	}

	if desc.Material != nil {
		mat, err := parseMaterial(desc.Material)
		if err != nil {
			return nil, fmt.Errorf("object %q material: %w", l.Name(), err)
		}
		if err := mat.Validate(); err != nil {
			imp.graph.log.Warn("material coefficients look wrong",
				zap.String("node", l.Name()), zap.Error(err))
		}
		l.SetMaterial(mat)
	}
	return l, nil
}

// parseMaterial starts from the all black default. A color sets ambient
// only; otherwise the individual Phong terms apply.
func parseMaterial(d *formats.Material) (material.Material, error) {
	m := material.Default()

	if d.Color != nil {
		c, err := vec3(d.Color, "color")
		if err != nil {
			return m, err
		}
		m.Ambient = c
	} else {
		for _, f := range []struct {
			name string
			src  formats.Floats
			dst  *math.Vec3
		}{
			{"ambient", d.Ambient, &m.Ambient},
			{"diffuse", d.Diffuse, &m.Diffuse},
			{"specular", d.Specular, &m.Specular},
		} {
			if f.src == nil {
				continue
			}
			v, err := vec3(f.src, f.name)
			if err != nil {
				return m, err
			}
			*f.dst = v
		}
		if d.Shininess != nil {
			m.Shininess = *d.Shininess
		}
	}

	if d.Emission != nil {
		v, err := vec3(d.Emission, "emission")
		if err != nil {
			return m, err
		}
		m.Emission = v
	}
	setIf(&m.Absorption, d.Absorption)
	setIf(&m.Reflection, d.Reflection)
	setIf(&m.Transparency, d.Transparency)
	setIf(&m.RefractiveIndex, d.RefractiveIndex)
	return m, nil
}

func parseLight(d formats.Light) (lighting.Light, error) {
	l := lighting.New()

	for _, f := range []struct {
		name string
		src  formats.Floats
		dst  *math.Vec3
	}{
		{"ambient", d.Ambient, &l.Ambient},
		{"diffuse", d.Diffuse, &l.Diffuse},
		{"specular", d.Specular, &l.Specular},
	} {
		if f.src == nil {
			continue
		}
		v, err := vec3(f.src, f.name)
		if err != nil {
			return l, err
		}
		*f.dst = v
	}

	switch {
	case d.Direction != nil:
		v, err := vec3(d.Direction, "direction")
		if err != nil {
			return l, err
		}
		l.SetDirection(v)
	case len(d.Position) == 4:
		l.Position = math.Vec4{d.Position[0], d.Position[1], d.Position[2], d.Position[3]}
	case d.Position != nil:
		v, err := vec3(d.Position, "position")
		if err != nil {
			return l, err
		}
		l.SetPosition(v)
	}

	if d.SpotDirection != nil {
		dir, err := vec3(d.SpotDirection, "spotdirection")
		if err != nil {
			return l, err
		}
		if d.SpotCutoff == nil {
			return l, fmt.Errorf("%w: spotdirection without spotcutoff", ErrBadOperand)
		}
		l.SetSpot(dir, math.Radians(*d.SpotCutoff))
	}
	return l, nil
}

func vec3(f formats.Floats, what string) (math.Vec3, error) {
	if len(f) != 3 {
		return math.Vec3{}, fmt.Errorf("%w: %s needs 3 values, got %d", ErrBadOperand, what, len(f))
	}
	return math.Vec3{X: f[0], Y: f[1], Z: f[2]}, nil
}

func setIf(dst *float32, src *float32) {
	if src != nil {
		*dst = *src
	}
}
