// Package formats provides readers for the scene description and mesh file
// formats consumed by the scene graph.
package formats

// Note: scene descriptions (JSON/YAML) are implemented in scene.go
// Note: Wavefront OBJ meshes are implemented in obj.go
