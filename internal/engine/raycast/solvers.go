package raycast

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/scenetrace/pkg/math"
)

// Canonical primitive names, matched against mesh instance names.
const (
	Box      = "box"
	Sphere   = "sphere"
	Cylinder = "cylinder"
	Cone     = "cone"
)

const (
	halfExtent = 0.5 // box half size, sphere/cylinder/cone radius
	height     = 1.0 // cylinder/cone span y in [0, height]
	faceEps    = 1e-4
	// boxCell is the size of one face in the unwrapped box texture layout.
	boxCell = 0.25
)

var inf = math32.Inf(1)

// Intersect dispatches r (already in object space) to the solver for the
// named primitive. Unknown names never hit.
func Intersect(mesh string, r Ray) (HitRecord, bool) {
	switch mesh {
	case Box:
		return IntersectBox(r)
	case Sphere:
		return IntersectSphere(r)
	case Cylinder:
		return IntersectCylinder(r)
	case Cone:
		return IntersectCone(r)
	default:
		return HitRecord{}, false
	}
}

// Supported reports whether mesh names a primitive with a solver.
func Supported(mesh string) bool {
	switch mesh {
	case Box, Sphere, Cylinder, Cone:
		return true
	}
	return false
}

// pick selects the reported time from the entry/exit interval: the entry
// when it lies ahead of the start, otherwise the exit.
func pick(t1, t2 float32) (t float32, incoming, ok bool) {
	if t1 > t2 || t2 < 0 {
		return 0, false, false
	}
	if t1 >= 0 {
		return t1, true, true
	}
	if math32.IsInf(t2, 1) {
		return 0, false, false
	}
	return t2, false, true
}

// IntersectBox intersects r with the axis aligned cube [-0.5, 0.5]^3.
func IntersectBox(r Ray) (HitRecord, bool) {
	o, d := r.Start.XYZ(), r.Direction.XYZ()
	origin := [3]float32{o.X, o.Y, o.Z}
	dir := [3]float32{d.X, d.Y, d.Z}

	tmin, tmax := -inf, inf
	for axis := 0; axis < 3; axis++ {
		if dir[axis] == 0 {
			if origin[axis] < -halfExtent || origin[axis] > halfExtent {
				return HitRecord{}, false
			}
			continue
		}
		t1 := (-halfExtent - origin[axis]) / dir[axis]
		t2 := (halfExtent - origin[axis]) / dir[axis]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = max(tmin, t1)
		tmax = min(tmax, t2)
	}

	t, incoming, ok := pick(tmin, tmax)
	if !ok {
		return HitRecord{}, false
	}
	p := r.At(t)
	normal, uv := boxFace(p)
	return HitRecord{Time: t, Point: p, Normal: normal, TexCoord: uv, Incoming: incoming}, true
}

// boxFace finds the face p lies on, testing x, y then z, and maps p into the
// face's cell of the unwrapped cross:
//
//	      [+y]
//	[-x] [+z] [+x] [-z]
//	      [-y]
func boxFace(p math.Vec3) (math.Vec3, math.Vec2) {
	near := func(a, b float32) bool { return math32.Abs(a-b) < faceEps }
	face := func(col, row int, u, v float32) math.Vec2 {
		return math.Vec2{
			X: (float32(col) + clampUnit(u)) * boxCell,
			Y: (float32(row) + clampUnit(v)) * boxCell,
		}
	}

	switch {
	case near(p.X, halfExtent):
		return math.Vec3{X: 1}, face(2, 1, 0.5-p.Z, p.Y+0.5)
	case near(p.X, -halfExtent):
		return math.Vec3{X: -1}, face(0, 1, p.Z+0.5, p.Y+0.5)
	case near(p.Y, halfExtent):
		return math.Vec3{Y: 1}, face(1, 2, p.X+0.5, 0.5-p.Z)
	case near(p.Y, -halfExtent):
		return math.Vec3{Y: -1}, face(1, 0, p.X+0.5, p.Z+0.5)
	case near(p.Z, halfExtent):
		return math.Vec3{Z: 1}, face(1, 1, p.X+0.5, p.Y+0.5)
	default:
		return math.Vec3{Z: -1}, face(3, 1, 0.5-p.X, p.Y+0.5)
	}
}

// IntersectSphere intersects r with the sphere of radius 0.5 at the origin.
func IntersectSphere(r Ray) (HitRecord, bool) {
	o, d := r.Start.XYZ(), r.Direction.XYZ()

	a := d.Dot(d)
	b := 2 * o.Dot(d)
	c := o.Dot(o) - halfExtent*halfExtent
	if a == 0 {
		return HitRecord{}, false
	}
	disc := b*b - 4*a*c
	if disc < 0 {
		return HitRecord{}, false
	}
	sq := math32.Sqrt(disc)
	t, incoming, ok := pick((-b-sq)/(2*a), (-b+sq)/(2*a))
	if !ok {
		return HitRecord{}, false
	}

	p := r.At(t)
	n := p.Scale(1 / halfExtent).Normalize()
	theta := math32.Atan2(-n.Z, n.X)
	phi := math32.Asin(clampSigned(n.Y))
	uv := math.Vec2{
		X: (theta + math32.Pi) / (2 * math32.Pi),
		Y: (phi + math32.Pi/2) / math32.Pi,
	}
	return HitRecord{Time: t, Point: p, Normal: n, TexCoord: uv, Incoming: incoming}, true
}

// boundary tags which surface bounds an interval end.
type boundary int

const (
	lateral boundary = iota
	bottomCap
	topCap
)

// span is a parameter interval with the surfaces at each end.
type span struct {
	t1, t2 float32
	b1, b2 boundary
}

func (s span) empty() bool { return s.t1 > s.t2 }

// intersect narrows s by o, keeping the boundary tags of whichever
// interval is tighter.
func (s span) intersect(o span) span {
	out := s
	if o.t1 > out.t1 {
		out.t1, out.b1 = o.t1, o.b1
	}
	if o.t2 < out.t2 {
		out.t2, out.b2 = o.t2, o.b2
	}
	return out
}

// hull returns the smallest interval containing s and o.
func (s span) hull(o span) span {
	out := s
	if o.t1 < out.t1 {
		out.t1, out.b1 = o.t1, o.b1
	}
	if o.t2 > out.t2 {
		out.t2, out.b2 = o.t2, o.b2
	}
	return out
}

var (
	everything = span{t1: -inf, t2: inf, b1: lateral, b2: lateral}
	nothing    = span{t1: inf, t2: -inf}
)

// slab returns where r lies within 0 <= y <= height.
func slab(o, d math.Vec3) span {
	if d.Y == 0 {
		if o.Y < 0 || o.Y > height {
			return nothing
		}
		return everything
	}
	tBottom := -o.Y / d.Y
	tTop := (height - o.Y) / d.Y
	if tBottom < tTop {
		return span{t1: tBottom, t2: tTop, b1: bottomCap, b2: topCap}
	}
	return span{t1: tTop, t2: tBottom, b1: topCap, b2: bottomCap}
}

// quadricInside returns the parameter ranges where a*t^2 + b*t + c <= 0.
// Depending on the sign of a that is one bounded interval, the complement of
// one (two half lines), a single half line, everything or nothing.
func quadricInside(a, b, c float32) []span {
	const eps = 1e-9
	if math32.Abs(a) < eps {
		switch {
		case math32.Abs(b) < eps:
			if c <= 0 {
				return []span{everything}
			}
			return nil
		case b > 0:
			return []span{{t1: -inf, t2: -c / b}}
		default:
			return []span{{t1: -c / b, t2: inf}}
		}
	}

	disc := b*b - 4*a*c
	if disc < 0 {
		if a > 0 {
			return nil
		}
		return []span{everything}
	}
	sq := math32.Sqrt(disc)
	r1, r2 := (-b-sq)/(2*a), (-b+sq)/(2*a)
	if r1 > r2 {
		r1, r2 = r2, r1
	}
	if a > 0 {
		return []span{{t1: r1, t2: r2}}
	}
	return []span{{t1: -inf, t2: r1}, {t1: r2, t2: inf}}
}

// solid clips every lateral range to the slab. The cylinder and the lower
// cone nappe are convex, so the pieces that survive belong to one interval;
// their hull also absorbs the apex split of a degenerate cone root.
func solid(lat []span, cap span) (span, bool) {
	result := nothing
	found := false
	for _, l := range lat {
		piece := cap.intersect(l)
		if piece.empty() {
			continue
		}
		if found {
			result = result.hull(piece)
		} else {
			result, found = piece, true
		}
	}
	return result, found
}

// IntersectCylinder intersects r with the capped cylinder of radius 0.5
// around the y axis, y in [0, 1].
func IntersectCylinder(r Ray) (HitRecord, bool) {
	o, d := r.Start.XYZ(), r.Direction.XYZ()

	a := d.X*d.X + d.Z*d.Z
	b := 2 * (o.X*d.X + o.Z*d.Z)
	c := o.X*o.X + o.Z*o.Z - halfExtent*halfExtent

	s, ok := solid(quadricInside(a, b, c), slab(o, d))
	if !ok {
		return HitRecord{}, false
	}
	return finishRound(r, s, func(p math.Vec3) math.Vec3 {
		return math.Vec3{X: p.X, Z: p.Z}
	})
}

// IntersectCone intersects r with the capped cone whose base of radius 0.5
// sits at y=0 and whose apex is at y=1.
func IntersectCone(r Ray) (HitRecord, bool) {
	o, d := r.Start.XYZ(), r.Direction.XYZ()

	// radius at height y is k*(height-y)
	const k = halfExtent / height
	h := height - o.Y
	a := d.X*d.X + d.Z*d.Z - k*k*d.Y*d.Y
	b := 2 * (o.X*d.X + o.Z*d.Z + k*k*h*d.Y)
	c := o.X*o.X + o.Z*o.Z - k*k*h*h

	// The slab excludes the mirrored nappe above the apex.
	s, ok := solid(quadricInside(a, b, c), slab(o, d))
	if !ok {
		return HitRecord{}, false
	}
	// The top of the slab is the apex, not a cap.
	if s.b1 == topCap {
		s.b1 = lateral
	}
	if s.b2 == topCap {
		s.b2 = lateral
	}
	return finishRound(r, s, func(p math.Vec3) math.Vec3 {
		n := math.Vec3{X: p.X, Y: k * k * (height - p.Y), Z: p.Z}
		if n.Length() < faceEps {
			return math.Vec3{Y: 1}
		}
		return n
	})
}

// finishRound builds the hit record for cylinder and cone, where the lateral
// normal depends on the shape.
func finishRound(r Ray, s span, lateralNormal func(math.Vec3) math.Vec3) (HitRecord, bool) {
	t, incoming, ok := pick(s.t1, s.t2)
	if !ok {
		return HitRecord{}, false
	}
	which := s.b1
	if !incoming {
		which = s.b2
	}

	p := r.At(t)
	var n math.Vec3
	switch which {
	case bottomCap:
		n = math.Vec3{Y: -1}
	case topCap:
		n = math.Vec3{Y: 1}
	default:
		n = lateralNormal(p).Normalize()
		if n == (math.Vec3{}) {
			n = math.Vec3{Y: 1}
		}
	}

	theta := math32.Atan2(-p.Z, p.X)
	uv := math.Vec2{
		X: (theta + math32.Pi) / (2 * math32.Pi),
		Y: clampUnit(p.Y / height),
	}
	return HitRecord{Time: t, Point: p, Normal: n, TexCoord: uv, Incoming: incoming}, true
}

func clampUnit(x float32) float32 {
	return max(0, min(1, x))
}

func clampSigned(x float32) float32 {
	return max(-1, min(1, x))
}
