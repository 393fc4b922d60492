package texture

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// TGA image type constants.
const (
	TGATypeUncompressed = 2  // Uncompressed true-color
	TGATypeRLE          = 10 // RLE compressed true-color
)

const tgaHeaderSize = 18

// ErrTGATruncated is returned when pixel data ends early.
var ErrTGATruncated = errors.New("TGA data truncated")

type tgaHeader struct {
	idLength     int
	colorMapType byte
	imageType    byte
	width        int
	height       int
	bytesPerPx   int
	topToBottom  bool
}

func parseTGAHeader(data []byte) (tgaHeader, error) {
	if len(data) < tgaHeaderSize {
		return tgaHeader{}, fmt.Errorf("TGA data too short")
	}
	h := tgaHeader{
		idLength:     int(data[0]),
		colorMapType: data[1],
		imageType:    data[2],
		width:        int(data[12]) | int(data[13])<<8,
		height:       int(data[14]) | int(data[15])<<8,
		bytesPerPx:   int(data[16]) / 8,
		// bit 5 of the descriptor: rows stored top-to-bottom
		topToBottom: data[17]&0x20 != 0,
	}

	if h.colorMapType != 0 {
		return h, fmt.Errorf("color-mapped TGA not supported")
	}
	if h.imageType != TGATypeUncompressed && h.imageType != TGATypeRLE {
		return h, fmt.Errorf("unsupported TGA type %d (only uncompressed/RLE true-color supported)", h.imageType)
	}
	if h.bytesPerPx != 3 && h.bytesPerPx != 4 {
		return h, fmt.Errorf("unsupported TGA bit depth %d (only 24/32 supported)", h.bytesPerPx*8)
	}
	if h.width == 0 || h.height == 0 {
		return h, fmt.Errorf("empty TGA image %dx%d", h.width, h.height)
	}
	return h, nil
}

// DecodeTGA decodes an uncompressed (type 2) or RLE (type 10) true-color TGA image.
func DecodeTGA(data []byte) (image.Image, error) {
	h, err := parseTGAHeader(data)
	if err != nil {
		return nil, err
	}

	offset := tgaHeaderSize + h.idLength
	if offset > len(data) {
		return nil, ErrTGATruncated
	}
	pixels := data[offset:]

	img := image.NewRGBA(image.Rect(0, 0, h.width, h.height))
	put := func(i int, c color.RGBA) {
		x, y := i%h.width, i/h.width
		if !h.topToBottom {
			y = h.height - 1 - y
		}
		img.SetRGBA(x, y, c)
	}

	count := h.width * h.height
	if h.imageType == TGATypeUncompressed {
		if len(pixels) < count*h.bytesPerPx {
			return nil, ErrTGATruncated
		}
		for i := 0; i < count; i++ {
			put(i, readTGAPixel(pixels[i*h.bytesPerPx:], h.bytesPerPx))
		}
		return img, nil
	}

	if err := decodeTGARLE(pixels, count, h.bytesPerPx, put); err != nil {
		return nil, err
	}
	return img, nil
}

// decodeTGARLE expands run-length packets, calling put for every pixel index.
func decodeTGARLE(data []byte, count, bpp int, put func(int, color.RGBA)) error {
	idx, pos := 0, 0
	for idx < count {
		if pos >= len(data) {
			return ErrTGATruncated
		}
		packet := data[pos]
		pos++
		n := int(packet&0x7F) + 1

		if packet&0x80 != 0 {
			if pos+bpp > len(data) {
				return ErrTGATruncated
			}
			c := readTGAPixel(data[pos:], bpp)
			pos += bpp
			for i := 0; i < n && idx < count; i++ {
				put(idx, c)
				idx++
			}
			continue
		}

		for i := 0; i < n && idx < count; i++ {
			if pos+bpp > len(data) {
				return ErrTGATruncated
			}
			put(idx, readTGAPixel(data[pos:], bpp))
			pos += bpp
			idx++
		}
	}
	return nil
}

// readTGAPixel reads one BGR(A) pixel.
func readTGAPixel(p []byte, bpp int) color.RGBA {
	c := color.RGBA{R: p[2], G: p[1], B: p[0], A: 255}
	if bpp == 4 {
		c.A = p[3]
	}
	return c
}
