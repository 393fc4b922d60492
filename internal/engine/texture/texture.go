// Package texture provides image decoding and bilinear texture sampling.
package texture

import (
	"image"

	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/transform"
	"github.com/chewxy/math32"

	"github.com/Faultbox/scenetrace/pkg/math"
)

// Texture is an immutable RGBA image sampled with texture coordinates.
// (0,0) is the bottom-left corner of the source image. Safe for concurrent use.
type Texture struct {
	Name   string
	Width  int
	Height int
	texels []math.Vec4 // row-major, row 0 at v=0
}

// New builds a texture from img.
func New(name string, img image.Image) *Texture {
	// Image rows run top-down; texture rows run bottom-up.
	rgba := transform.FlipV(clone.AsRGBA(img))
	b := rgba.Bounds()

	t := &Texture{
		Name:   name,
		Width:  b.Dx(),
		Height: b.Dy(),
		texels: make([]math.Vec4, b.Dx()*b.Dy()),
	}
	for y := 0; y < t.Height; y++ {
		for x := 0; x < t.Width; x++ {
			i := rgba.PixOffset(b.Min.X+x, b.Min.Y+y)
			p := rgba.Pix[i : i+4]
			t.texels[y*t.Width+x] = math.Vec4{
				float32(p[0]) / 255,
				float32(p[1]) / 255,
				float32(p[2]) / 255,
				float32(p[3]) / 255,
			}
		}
	}
	return t
}

// White returns a 1x1 opaque white texture, used for untextured surfaces.
func White() *Texture {
	return &Texture{
		Name:   "white",
		Width:  1,
		Height: 1,
		texels: []math.Vec4{{1, 1, 1, 1}},
	}
}

// Texel returns the texel at (x, y) with row 0 at the bottom.
func (t *Texture) Texel(x, y int) math.Vec4 {
	return t.texels[y*t.Width+x]
}

// SampleRGBA returns the bilinearly filtered color at (u, v). Coordinates
// outside [0,1] repeat.
func (t *Texture) SampleRGBA(uv math.Vec2) math.Vec4 {
	if t == nil || t.Width == 0 || t.Height == 0 {
		return math.Vec4{1, 1, 1, 1}
	}
	uv = uv.Wrap()

	x1, fx := texelIndex(uv.X, t.Width)
	y1, fy := texelIndex(uv.Y, t.Height)
	x2 := min(x1+1, t.Width-1)
	y2 := min(y1+1, t.Height-1)

	bottom := t.Texel(x1, y1).Lerp(t.Texel(x2, y1), fx)
	top := t.Texel(x1, y2).Lerp(t.Texel(x2, y2), fx)
	return bottom.Lerp(top, fy)
}

// Sample returns the RGB part of SampleRGBA.
func (t *Texture) Sample(uv math.Vec2) math.Vec3 {
	return t.SampleRGBA(uv).XYZ()
}

// texelIndex maps a wrapped coordinate to a texel index and the blend
// fraction toward the next texel.
func texelIndex(c float32, size int) (int, float32) {
	f := c * float32(size)
	i := int(math32.Floor(f))
	if i >= size {
		i = size - 1
	}
	if i < 0 {
		i = 0
	}
	return i, f - float32(i)
}
