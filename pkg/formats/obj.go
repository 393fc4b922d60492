package formats

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Faultbox/scenetrace/pkg/math"
)

// OBJ format errors.
var (
	ErrOBJNoVertices   = errors.New("OBJ has no vertices")
	ErrOBJBadFace      = errors.New("invalid OBJ face")
	ErrOBJIndexOutside = errors.New("OBJ index out of range")
)

// OBJVertex is a fully resolved mesh vertex.
type OBJVertex struct {
	Position math.Vec3
	Normal   math.Vec3
	TexCoord math.Vec2
}

// OBJMesh is a triangle mesh read from a Wavefront OBJ file.
type OBJMesh struct {
	Vertices []OBJVertex
	Indices  []uint32 // three per triangle
	Min      math.Vec3
	Max      math.Vec3
}

// TriangleCount returns the number of triangles.
func (m *OBJMesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// ParseOBJ reads positions, normals, texture coordinates and faces. Polygons
// are triangulated as fans; indices may be negative (relative to the end).
// Unsupported statements (o, g, s, usemtl, mtllib...) are ignored.
func ParseOBJ(r io.Reader) (*OBJMesh, error) {
	var (
		positions []math.Vec3
		normals   []math.Vec3
		texCoords []math.Vec2
		mesh      = &OBJMesh{}
		seen      = make(map[string]uint32)
	)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		fields := strings.Fields(line)

		switch fields[0] {
		case "v":
			v, err := parseVec3(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			positions = append(positions, v)
		case "vn":
			v, err := parseVec3(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			normals = append(normals, v.Normalize())
		case "vt":
			if len(fields) < 3 {
				return nil, fmt.Errorf("line %d: vt needs 2 values", lineNo)
			}
			u, err1 := strconv.ParseFloat(fields[1], 32)
			v, err2 := strconv.ParseFloat(fields[2], 32)
			if err1 != nil || err2 != nil {
				return nil, fmt.Errorf("line %d: invalid vt", lineNo)
			}
			texCoords = append(texCoords, math.Vec2{X: float32(u), Y: float32(v)})
		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: %w: need at least 3 vertices", lineNo, ErrOBJBadFace)
			}
			corners := make([]uint32, 0, len(fields)-1)
			for _, ref := range fields[1:] {
				idx, ok := seen[ref]
				if !ok {
					vert, err := resolveOBJVertex(ref, positions, normals, texCoords)
					if err != nil {
						return nil, fmt.Errorf("line %d: %w", lineNo, err)
					}
					idx = uint32(len(mesh.Vertices))
					mesh.Vertices = append(mesh.Vertices, vert)
					seen[ref] = idx
				}
				corners = append(corners, idx)
			}
			for i := 1; i+1 < len(corners); i++ {
				mesh.Indices = append(mesh.Indices, corners[0], corners[i], corners[i+1])
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading OBJ: %w", err)
	}
	if len(positions) == 0 {
		return nil, ErrOBJNoVertices
	}

	mesh.computeBounds()
	return mesh, nil
}

// LoadOBJ reads an OBJ file from disk.
func LoadOBJ(path string) (*OBJMesh, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading OBJ: %w", err)
	}
	return ParseOBJ(bytes.NewReader(data))
}

// Canonicalize centers the mesh on the origin and scales it uniformly so the
// largest bounding box side is 1.
func (m *OBJMesh) Canonicalize() {
	if len(m.Vertices) == 0 {
		return
	}
	center := m.Min.Add(m.Max).Scale(0.5)
	size := m.Max.Sub(m.Min)
	longest := size.X
	if size.Y > longest {
		longest = size.Y
	}
	if size.Z > longest {
		longest = size.Z
	}
	if longest == 0 {
		longest = 1
	}
	for i := range m.Vertices {
		m.Vertices[i].Position = m.Vertices[i].Position.Sub(center).Scale(1 / longest)
	}
	m.computeBounds()
}

func (m *OBJMesh) computeBounds() {
	if len(m.Vertices) == 0 {
		return
	}
	m.Min = m.Vertices[0].Position
	m.Max = m.Vertices[0].Position
	for _, v := range m.Vertices[1:] {
		p := v.Position
		m.Min = math.Vec3{X: min(m.Min.X, p.X), Y: min(m.Min.Y, p.Y), Z: min(m.Min.Z, p.Z)}
		m.Max = math.Vec3{X: max(m.Max.X, p.X), Y: max(m.Max.Y, p.Y), Z: max(m.Max.Z, p.Z)}
	}
}

func parseVec3(fields []string) (math.Vec3, error) {
	if len(fields) < 3 {
		return math.Vec3{}, fmt.Errorf("expected 3 values, got %d", len(fields))
	}
	var out [3]float32
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return math.Vec3{}, fmt.Errorf("invalid number %q", fields[i])
		}
		out[i] = float32(v)
	}
	return math.Vec3{X: out[0], Y: out[1], Z: out[2]}, nil
}

// resolveOBJVertex resolves a face reference of the form v, v/vt, v//vn or v/vt/vn.
func resolveOBJVertex(ref string, positions, normals []math.Vec3, texCoords []math.Vec2) (OBJVertex, error) {
	parts := strings.Split(ref, "/")
	var vert OBJVertex

	pi, err := objIndex(parts[0], len(positions))
	if err != nil {
		return vert, err
	}
	vert.Position = positions[pi]

	if len(parts) > 1 && parts[1] != "" {
		ti, err := objIndex(parts[1], len(texCoords))
		if err != nil {
			return vert, err
		}
		vert.TexCoord = texCoords[ti]
	}
	if len(parts) > 2 && parts[2] != "" {
		ni, err := objIndex(parts[2], len(normals))
		if err != nil {
			return vert, err
		}
		vert.Normal = normals[ni]
	}
	return vert, nil
}

func objIndex(s string, n int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrOBJBadFace, s)
	}
	if i < 0 {
		i = n + i
	} else {
		i--
	}
	if i < 0 || i >= n {
		return 0, fmt.Errorf("%w: %s (have %d)", ErrOBJIndexOutside, s, n)
	}
	return i, nil
}
