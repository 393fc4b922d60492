package formats

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scene description errors.
var (
	ErrEmptySceneData       = errors.New("empty scene description")
	ErrUnsupportedSceneType = errors.New("unsupported scene description extension")
)

// Scene is the decoded form of a scene description file. It mirrors the file
// layout one to one; validation of required keys happens when the scene graph
// is built from it.
type Scene struct {
	Instances []Instance `json:"instances" yaml:"instances"`
	Textures  []Instance `json:"textures,omitempty" yaml:"textures,omitempty"`
	Root      *Node      `json:"root" yaml:"root"`
}

// Instance binds a registry name to a resource path (mesh or texture).
type Instance struct {
	Name string `json:"name" yaml:"name"`
	Path string `json:"path" yaml:"path"`
}

// Node is one typed node descriptor: "transform", "group" or "object".
type Node struct {
	Type string `json:"type" yaml:"type"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// transform nodes
	Transform []TransformOp `json:"transform,omitempty" yaml:"transform,omitempty"`
	Child     *Node         `json:"child,omitempty" yaml:"child,omitempty"`

	// group nodes
	Children []*Node `json:"children,omitempty" yaml:"children,omitempty"`

	// object (leaf) nodes
	InstanceOf string    `json:"instanceof,omitempty" yaml:"instanceof,omitempty"`
	Texture    string    `json:"texture,omitempty" yaml:"texture,omitempty"`
	Material   *Material `json:"material,omitempty" yaml:"material,omitempty"`

	Lights []Light `json:"lights,omitempty" yaml:"lights,omitempty"`
}

// TransformOp is a single entry of a transform op-list. Exactly one of the
// fields is expected to be set.
type TransformOp struct {
	Translate Floats `json:"translate,omitempty" yaml:"translate,omitempty"`
	Scale     Floats `json:"scale,omitempty" yaml:"scale,omitempty"`
	// Rotate is [degrees, axisX, axisY, axisZ].
	Rotate Floats `json:"rotate,omitempty" yaml:"rotate,omitempty"`
}

// Material describes a leaf material. Either Color (ambient only) or the full
// ambient/diffuse/specular/shininess set is given; the ray tracing
// coefficients are optional.
type Material struct {
	Color           Floats   `json:"color,omitempty" yaml:"color,omitempty"`
	Ambient         Floats   `json:"ambient,omitempty" yaml:"ambient,omitempty"`
	Diffuse         Floats   `json:"diffuse,omitempty" yaml:"diffuse,omitempty"`
	Specular        Floats   `json:"specular,omitempty" yaml:"specular,omitempty"`
	Emission        Floats   `json:"emission,omitempty" yaml:"emission,omitempty"`
	Shininess       *float32 `json:"shininess,omitempty" yaml:"shininess,omitempty"`
	Absorption      *float32 `json:"absorption,omitempty" yaml:"absorption,omitempty"`
	Reflection      *float32 `json:"reflection,omitempty" yaml:"reflection,omitempty"`
	Transparency    *float32 `json:"transparency,omitempty" yaml:"transparency,omitempty"`
	RefractiveIndex *float32 `json:"refractive_index,omitempty" yaml:"refractive_index,omitempty"`
}

// Light describes a light attached to a node.
type Light struct {
	Ambient  Floats `json:"ambient,omitempty" yaml:"ambient,omitempty"`
	Diffuse  Floats `json:"diffuse,omitempty" yaml:"diffuse,omitempty"`
	Specular Floats `json:"specular,omitempty" yaml:"specular,omitempty"`
	// Position has 3 values (point light) or 4 (explicit w).
	Position Floats `json:"position,omitempty" yaml:"position,omitempty"`
	// Direction makes the light directional.
	Direction     Floats   `json:"direction,omitempty" yaml:"direction,omitempty"`
	SpotDirection Floats   `json:"spotdirection,omitempty" yaml:"spotdirection,omitempty"`
	SpotCutoff    *float32 `json:"spotcutoff,omitempty" yaml:"spotcutoff,omitempty"` // degrees
}

// Floats is a list of numbers that also accepts numeric strings
// (e.g. ["1", 2.5]).
type Floats []float32

// UnmarshalJSON implements json.Unmarshaler.
func (f *Floats) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("expected a list of numbers: %w", err)
	}
	if raw == nil {
		*f = nil
		return nil
	}
	out := make(Floats, 0, len(raw))
	for _, r := range raw {
		var s string
		if err := json.Unmarshal(r, &s); err == nil {
			v, err := parseFloat(s)
			if err != nil {
				return err
			}
			out = append(out, v)
			continue
		}
		var v float32
		if err := json.Unmarshal(r, &v); err != nil {
			return fmt.Errorf("invalid number %s: %w", string(r), err)
		}
		out = append(out, v)
	}
	*f = out
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (f *Floats) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("line %d: expected a list of numbers", node.Line)
	}
	out := make(Floats, 0, len(node.Content))
	for _, item := range node.Content {
		v, err := parseFloat(item.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", item.Line, err)
		}
		out = append(out, v)
	}
	*f = out
	return nil
}

func parseFloat(s string) (float32, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 32)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return float32(v), nil
}

// ParseSceneJSON decodes a JSON scene description.
func ParseSceneJSON(data []byte) (*Scene, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptySceneData
	}
	var s Scene
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decoding scene JSON: %w", err)
	}
	return &s, nil
}

// ParseSceneYAML decodes a YAML scene description.
func ParseSceneYAML(data []byte) (*Scene, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptySceneData
	}
	var s Scene
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decoding scene YAML: %w", err)
	}
	return &s, nil
}

// ParseScene decodes data according to the file extension of name
// (.json, .yaml or .yml).
func ParseScene(name string, data []byte) (*Scene, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return ParseSceneJSON(data)
	case ".yaml", ".yml":
		return ParseSceneYAML(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSceneType, name)
	}
}

// LoadScene reads and decodes a scene description file.
func LoadScene(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scene: %w", err)
	}
	return ParseScene(path, data)
}
