package raster

import (
	"bufio"
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"

	// Registered decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DecodeError is returned when an image cannot be loaded
type DecodeError struct {
	Path   string
	Reason string
}

func (e *DecodeError) Error() string {
	if e.Path == "" {
		return "decode failed: " + e.Reason
	}
	return fmt.Sprintf("decode %s failed: %s", e.Path, e.Reason)
}

var pngSignature = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

// PNG IHDR color type for gray with alpha
const pngGrayAlpha = 4

// DecodeFile loads an image file in any registered format
func DecodeFile(path string) (*Buffer, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, &DecodeError{Path: path, Reason: err.Error()}
	}
	defer f.Close()

	b, err := Decode(f)
	if err != nil {
		if de, ok := err.(*DecodeError); ok {
			de.Path = path
		}
		return nil, err
	}
	return b, nil
}

// Decode reads an image from r, keeping the channel layout of the source
// where the decoder exposes it.
func Decode(r io.Reader) (*Buffer, error) {
	br := bufio.NewReader(r)

	// A gray+alpha PNG decodes to NRGBA; the header tells us it had two channels.
	grayAlpha := false
	if hdr, err := br.Peek(26); err == nil && bytes.Equal(hdr[:8], pngSignature) {
		grayAlpha = hdr[25] == pngGrayAlpha
	}

	img, _, err := image.Decode(br)
	if err != nil {
		return nil, &DecodeError{Reason: err.Error()}
	}

	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, &DecodeError{Reason: "image has no pixels"}
	}

	format := formatOf(img)
	if grayAlpha {
		format = FormatGrayAlpha
	}

	return fromImage(img, format)
}

// formatOf picks the channel layout a decoded image maps to.
// Decoders return non-premultiplied types only for sources that carry an
// alpha channel, so those keep four channels even when every pixel is opaque.
func formatOf(img image.Image) PixelFormat {
	switch m := img.(type) {
	case *image.Gray, *image.Gray16:
		return FormatGray
	case *image.YCbCr, *image.CMYK:
		return FormatRGB
	case *image.NRGBA, *image.NRGBA64, *image.NYCbCrA:
		return FormatRGBA
	case *image.Paletted:
		for _, c := range m.Palette {
			if _, _, _, a := c.RGBA(); a != 0xffff {
				return FormatRGBA
			}
		}
		return FormatRGB
	case interface{ Opaque() bool }:
		if m.Opaque() {
			return FormatRGB
		}
	}
	return FormatRGBA
}

func fromImage(img image.Image, format PixelFormat) (*Buffer, error) {
	bounds := img.Bounds()
	b, err := New(bounds.Dx(), bounds.Dy(), format)
	if err != nil {
		return nil, &DecodeError{Reason: err.Error()}
	}

	// Fast path for the most common decoder output
	if m, ok := img.(*image.NRGBA); ok && format == FormatRGBA {
		for y := 0; y < b.height; y++ {
			src := m.Pix[y*m.Stride : y*m.Stride+b.width*4]
			copy(b.buf[y*b.width*4:], src)
		}
		return b, nil
	}

	for y := 0; y < b.height; y++ {
		for x := 0; x < b.width; x++ {
			c := img.At(bounds.Min.X+x, bounds.Min.Y+y)
			p := b.Pixel(y, x)
			switch format {
			case FormatGray:
				p[0] = color.GrayModel.Convert(c).(color.Gray).Y
			case FormatGrayAlpha:
				n := color.NRGBAModel.Convert(c).(color.NRGBA)
				p[0], p[1] = n.R, n.A
			case FormatRGB:
				n := color.NRGBAModel.Convert(c).(color.NRGBA)
				p[0], p[1], p[2] = n.R, n.G, n.B
			case FormatRGBA:
				n := color.NRGBAModel.Convert(c).(color.NRGBA)
				p[0], p[1], p[2], p[3] = n.R, n.G, n.B, n.A
			}
		}
	}

	return b, nil
}
