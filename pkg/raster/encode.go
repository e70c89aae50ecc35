package raster

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"

	"golang.org/x/image/bmp"
)

// Image returns a standard library view of the buffer.
// Gray becomes *image.Gray, RGB becomes opaque *image.RGBA, and the
// alpha-bearing formats become *image.NRGBA. The pixel data is copied.
func (b *Buffer) Image() image.Image {
	rect := image.Rect(0, 0, b.width, b.height)

	if b.format == FormatGray {
		img := image.NewGray(rect)
		copy(img.Pix, b.buf)
		return img
	}

	var pix []uint8
	var img image.Image
	if b.format == FormatRGB {
		m := image.NewRGBA(rect)
		pix, img = m.Pix, m
	} else {
		m := image.NewNRGBA(rect)
		pix, img = m.Pix, m
	}

	for row := 0; row < b.height; row++ {
		for col := 0; col < b.width; col++ {
			c := b.ReadRGBA(row, col)
			i := (row*b.width + col) * 4
			pix[i], pix[i+1], pix[i+2], pix[i+3] = c.R, c.G, c.B, c.A
		}
	}
	return img
}

// EncodeBMP writes the image to w in BMP format
func (b *Buffer) EncodeBMP(w io.Writer) error {
	return bmp.Encode(w, b.Image())
}

// EncodePNG writes the image to w in PNG format
func (b *Buffer) EncodePNG(w io.Writer) error {
	return png.Encode(w, b.Image())
}

// SaveBMP writes the image to a BMP file
func (b *Buffer) SaveBMP(filename string) error {
	return b.save(filename, b.EncodeBMP)
}

// SavePNG writes the image to a PNG file
func (b *Buffer) SavePNG(filename string) error {
	return b.save(filename, b.EncodePNG)
}

func (b *Buffer) save(filename string, encode func(io.Writer) error) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}

	if err := encode(file); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode %s: %v", filename, err)
	}
	return file.Close()
}
