// Package output writes rendered color buffers to image files.
package output

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/anthonynsimon/bild/imgio"

	"github.com/Faultbox/scenetrace/pkg/math"
)

// Supported formats.
const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
)

// ErrFormat is returned for formats other than png and jpeg.
var ErrFormat = errors.New("unsupported output format")

// Writer saves renders as timestamped image files.
type Writer struct {
	outputDir string
	prefix    string
	format    string
	quality   int

	now func() time.Time
}

// NewWriter creates a writer. An empty format means png; quality only
// applies to jpeg.
func NewWriter(outputDir, prefix, format string, quality int) (*Writer, error) {
	format = strings.ToLower(format)
	switch format {
	case "":
		format = FormatPNG
	case "jpg":
		format = FormatJPEG
	case FormatPNG, FormatJPEG:
	default:
		return nil, fmt.Errorf("%w: %q", ErrFormat, format)
	}
	if quality <= 0 || quality > 100 {
		quality = 90
	}
	if prefix == "" {
		prefix = "render"
	}
	return &Writer{
		outputDir: outputDir,
		prefix:    prefix,
		format:    format,
		quality:   quality,
		now:       time.Now,
	}, nil
}

// ToImage converts a [row][column] buffer of colors in [0,1] into an 8-bit
// RGBA image with opaque alpha. Row 0 is the top of the image.
func ToImage(pixels [][]math.Vec3) *image.RGBA {
	height := len(pixels)
	width := 0
	if height > 0 {
		width = len(pixels[0])
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y, row := range pixels {
		for x, c := range row {
			c = c.Clamp01()
			img.SetRGBA(x, y, color.RGBA{
				R: channel(c.X),
				G: channel(c.Y),
				B: channel(c.Z),
				A: 255,
			})
		}
	}
	return img
}

func channel(v float32) uint8 {
	return uint8(v*255 + 0.5)
}

// Prefix returns the file name prefix.
func (w *Writer) Prefix() string { return w.prefix }

// Filename returns the path the next Write would use.
func (w *Writer) Filename() string {
	timestamp := w.now().Format("2006-01-02_15-04-05")
	ext := "png"
	if w.format == FormatJPEG {
		ext = "jpg"
	}
	filename := fmt.Sprintf("%s_%s.%s", w.prefix, timestamp, ext)
	if w.outputDir != "" {
		filename = filepath.Join(w.outputDir, filename)
	}
	return filename
}

// Write saves pixels under a timestamped name and returns the path.
func (w *Writer) Write(pixels [][]math.Vec3) (string, error) {
	filename := w.Filename()
	return filename, w.WriteTo(filename, pixels)
}

// WriteTo saves pixels to filename in the writer's format.
func (w *Writer) WriteTo(filename string, pixels [][]math.Vec3) error {
	if len(pixels) == 0 || len(pixels[0]) == 0 {
		return errors.New("empty image")
	}
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating output dir: %w", err)
		}
	}

	encoder := imgio.PNGEncoder()
	if w.format == FormatJPEG {
		encoder = imgio.JPEGEncoder(w.quality)
	}
	if err := imgio.Save(filename, ToImage(pixels), encoder); err != nil {
		return fmt.Errorf("encoding %s: %w", w.format, err)
	}
	return nil
}
