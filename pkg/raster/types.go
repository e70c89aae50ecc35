package raster

import "fmt"

// PixelFormat identifies the channel layout of a Buffer
type PixelFormat int

// Supported pixel formats. The numeric value is the channel count.
const (
	FormatGray      PixelFormat = 1 // gray
	FormatGrayAlpha PixelFormat = 2 // gray, alpha
	FormatRGB       PixelFormat = 3 // red, green, blue
	FormatRGBA      PixelFormat = 4 // red, green, blue, alpha
)

// FormatForChannels returns the pixel format for a channel count
func FormatForChannels(channels int) (PixelFormat, error) {
	f := PixelFormat(channels)
	if !f.Valid() {
		return 0, fmt.Errorf("unsupported channel count: %d", channels)
	}
	return f, nil
}

// Valid reports whether f is one of the four supported formats
func (f PixelFormat) Valid() bool {
	return f >= FormatGray && f <= FormatRGBA
}

// Channels returns the number of bytes per pixel
func (f PixelFormat) Channels() int {
	f.mustBeValid()
	return int(f)
}

// HasColor reports whether the format carries separate red, green and blue channels
func (f PixelFormat) HasColor() bool {
	f.mustBeValid()
	return f >= FormatRGB
}

// HasAlpha reports whether the format carries an alpha channel
func (f PixelFormat) HasAlpha() bool {
	f.mustBeValid()
	return f == FormatGrayAlpha || f == FormatRGBA
}

func (f PixelFormat) String() string {
	switch f {
	case FormatGray:
		return "gray"
	case FormatGrayAlpha:
		return "gray+alpha"
	case FormatRGB:
		return "rgb"
	case FormatRGBA:
		return "rgba"
	}
	return fmt.Sprintf("PixelFormat(%d)", int(f))
}

func (f PixelFormat) mustBeValid() {
	if !f.Valid() {
		panic(fmt.Sprintf("raster: invalid pixel format %d", int(f)))
	}
}

// RGB is an opaque 8-bit color
type RGB struct {
	R, G, B uint8
}

// RGBA is an 8-bit color with straight (non-premultiplied) alpha
type RGBA struct {
	R, G, B, A uint8
}

// RGBA returns c with full opacity
func (c RGB) RGBA() RGBA {
	return RGBA{c.R, c.G, c.B, 0xFF}
}

// RGB drops the alpha channel
func (c RGBA) RGB() RGB {
	return RGB{c.R, c.G, c.B}
}

// Opaque reports whether the alpha channel is at its maximum
func (c RGBA) Opaque() bool {
	return c.A == 0xFF
}

// ToGrayscale averages the three color channels.
// The division truncates; callers must not assume rounding.
func ToGrayscale(c RGB) uint8 {
	sum := uint16(c.R) + uint16(c.G) + uint16(c.B)
	return uint8(sum / 3)
}
