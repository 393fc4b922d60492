package texture

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/scenetrace/pkg/math"
)

// twoByTwo returns an image whose top row is red, green and bottom row is
// blue, white.
func twoByTwo() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.SetRGBA(0, 0, color.RGBA{R: 255, A: 255})
	img.SetRGBA(1, 0, color.RGBA{G: 255, A: 255})
	img.SetRGBA(0, 1, color.RGBA{B: 255, A: 255})
	img.SetRGBA(1, 1, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	return img
}

func TestNewFlipsRows(t *testing.T) {
	tex := New("quad", twoByTwo())
	assert.Equal(t, 2, tex.Width)
	assert.Equal(t, 2, tex.Height)
	// bottom-left of the image (blue) is texel (0,0)
	assert.Equal(t, math.Vec4{0, 0, 1, 1}, tex.Texel(0, 0))
	assert.Equal(t, math.Vec4{1, 0, 0, 1}, tex.Texel(0, 1))
}

func TestSample(t *testing.T) {
	tex := New("quad", twoByTwo())

	tests := []struct {
		name string
		uv   math.Vec2
		want math.Vec3
	}{
		{"origin", math.Vec2{X: 0, Y: 0}, math.Vec3{Z: 1}},
		{"half texel right", math.Vec2{X: 0.25, Y: 0}, math.Vec3{X: 0.5, Y: 0.5, Z: 1}},
		{"repeat", math.Vec2{X: 1, Y: 2}, math.Vec3{Z: 1}},
		{"negative repeat", math.Vec2{X: -0.5, Y: 0}, math.Vec3{X: 1, Y: 1, Z: 1}},
		{"last column clamps", math.Vec2{X: 0.75, Y: 0.5}, math.Vec3{Y: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tex.Sample(tt.uv)
			assert.True(t, got.ApproxEqual(tt.want, 1e-5), "got %v, want %v", got, tt.want)
		})
	}
}

func TestWhite(t *testing.T) {
	w := White()
	assert.Equal(t, math.Vec3{X: 1, Y: 1, Z: 1}, w.Sample(math.Vec2{X: 0.3, Y: 7.9}))

	var nilTex *Texture
	assert.Equal(t, math.Vec3{X: 1, Y: 1, Z: 1}, nilTex.Sample(math.Vec2{}))
}

func TestDecodePNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, twoByTwo()))

	img, format, err := Decode("tex.png", buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 2, img.Bounds().Dx())
}

func TestDecodeUnsupported(t *testing.T) {
	_, _, err := Decode("notes.txt", []byte("plain text"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

// makeTGA builds a 2x1 uncompressed 24-bit bottom-up TGA.
func makeTGA() []byte {
	data := make([]byte, tgaHeaderSize)
	data[2] = TGATypeUncompressed
	data[12] = 2
	data[14] = 1
	data[16] = 24
	// BGR
	return append(data, 0, 0, 255, 255, 0, 0)
}

func TestDecodeTGA(t *testing.T) {
	img, format, err := Decode("tex.tga", makeTGA())
	require.NoError(t, err)
	assert.Equal(t, "tga", format)

	r, _, _, _ := img.At(0, 0).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	_, _, b, _ := img.At(1, 0).RGBA()
	assert.Equal(t, uint32(0xffff), b)
}

func TestDecodeTGARLE(t *testing.T) {
	data := make([]byte, tgaHeaderSize)
	data[2] = TGATypeRLE
	data[12] = 3
	data[14] = 1
	data[16] = 32
	data[17] = 0x20
	// run of 3 green pixels
	data = append(data, 0x82, 0, 255, 0, 128)

	img, err := DecodeTGA(data)
	require.NoError(t, err)
	for x := 0; x < 3; x++ {
		c := color.RGBAModel.Convert(img.At(x, 0)).(color.RGBA)
		assert.Equal(t, uint8(255), c.G)
		assert.Equal(t, uint8(128), c.A)
	}

	_, err = DecodeTGA(data[:len(data)-2])
	assert.ErrorIs(t, err, ErrTGATruncated)
}

func TestDecodeTGAErrors(t *testing.T) {
	_, err := DecodeTGA([]byte{1, 2, 3})
	assert.Error(t, err)

	bad := makeTGA()
	bad[2] = 1
	_, err = DecodeTGA(bad)
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checker.tga")
	require.NoError(t, os.WriteFile(path, makeTGA(), 0o644))

	tex, err := Load("checker", path)
	require.NoError(t, err)
	assert.Equal(t, "checker", tex.Name)
	assert.Equal(t, 2, tex.Width)

	_, err = Load("missing", filepath.Join(t.TempDir(), "none.png"))
	assert.Error(t, err)
}
