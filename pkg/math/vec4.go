package math

// Vec4 is a homogeneous 4-component vector. w=1 marks a point, w=0 a direction.
type Vec4 [4]float32

// XYZ drops the homogeneous component.
func (v Vec4) XYZ() Vec3 {
	return Vec3{v[0], v[1], v[2]}
}

// W returns the homogeneous component.
func (v Vec4) W() float32 {
	return v[3]
}

// IsPoint reports whether v is a position (w != 0).
func (v Vec4) IsPoint() bool {
	return v[3] != 0
}

// Add returns v + other.
func (v Vec4) Add(other Vec4) Vec4 {
	return Vec4{v[0] + other[0], v[1] + other[1], v[2] + other[2], v[3] + other[3]}
}

// Scale returns v * scalar.
func (v Vec4) Scale(s float32) Vec4 {
	return Vec4{v[0] * s, v[1] * s, v[2] * s, v[3] * s}
}

// Lerp linearly interpolates between v and other.
func (v Vec4) Lerp(other Vec4, t float32) Vec4 {
	return Vec4{
		v[0] + t*(other[0]-v[0]),
		v[1] + t*(other[1]-v[1]),
		v[2] + t*(other[2]-v[2]),
		v[3] + t*(other[3]-v[3]),
	}
}
