package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"
)

// ErrUnsupportedFormat is returned for data that is neither a registered
// image format nor a TGA file.
var ErrUnsupportedFormat = errors.New("unsupported texture format")

// Decode decodes texture data. TGA has no magic number, so it is chosen by
// the name's extension; everything else is sniffed from the content.
func Decode(name string, data []byte) (image.Image, string, error) {
	if strings.EqualFold(filepath.Ext(name), ".tga") {
		img, err := DecodeTGA(data)
		if err != nil {
			return nil, "", fmt.Errorf("decoding %s: %w", name, err)
		}
		return img, "tga", nil
	}

	kind, err := filetype.Match(data)
	if err != nil {
		return nil, "", fmt.Errorf("sniffing %s: %w", name, err)
	}
	if kind == filetype.Unknown {
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}

	switch kind.Extension {
	case "png", "jpg", "gif", "bmp":
	default:
		return nil, "", fmt.Errorf("%w: %s (%s)", ErrUnsupportedFormat, name, kind.MIME.Value)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decoding %s: %w", name, err)
	}
	return img, format, nil
}

// Load reads and decodes the image at path into a texture called name.
func Load(name, path string) (*Texture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading texture: %w", err)
	}
	img, _, err := Decode(path, data)
	if err != nil {
		return nil, err
	}
	return New(name, img), nil
}
