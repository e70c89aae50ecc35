package raster

import "fmt"

// Buffer holds decoded image data as channel-interleaved bytes.
//
// Pixel (row, col) occupies Channels() bytes starting at offset
// (row*Width()+col)*Channels(). A Buffer is handed around by pointer;
// use Clone for a deliberate copy.
type Buffer struct {
	buf    []byte
	width  int
	height int
	format PixelFormat
}

// New allocates a zero-initialized buffer with the given dimensions and format
func New(width, height int, format PixelFormat) (*Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid dimensions: %dx%d", width, height)
	}
	if !format.Valid() {
		return nil, fmt.Errorf("unsupported channel count: %d", int(format))
	}

	size := int64(width) * int64(height) * int64(format)
	if size != int64(int(size)) {
		return nil, fmt.Errorf("image too large: %dx%d", width, height)
	}

	return &Buffer{
		buf:    make([]byte, int(size)),
		width:  width,
		height: height,
		format: format,
	}, nil
}

// FromBytes wraps an existing channel-interleaved byte slice without copying it
func FromBytes(data []byte, width, height int, format PixelFormat) (*Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid dimensions: %dx%d", width, height)
	}
	if !format.Valid() {
		return nil, fmt.Errorf("unsupported channel count: %d", int(format))
	}
	if want := width * height * int(format); len(data) != want {
		return nil, fmt.Errorf("buffer length %d does not match %dx%d with %d channels (want %d)",
			len(data), width, height, int(format), want)
	}

	return &Buffer{
		buf:    data,
		width:  width,
		height: height,
		format: format,
	}, nil
}

// Width returns the image width in pixels
func (b *Buffer) Width() int { return b.width }

// Height returns the image height in pixels
func (b *Buffer) Height() int { return b.height }

// Format returns the pixel format
func (b *Buffer) Format() PixelFormat { return b.format }

// Channels returns the number of bytes per pixel
func (b *Buffer) Channels() int { return int(b.format) }

// SizeInBytes returns the length of the pixel data
func (b *Buffer) SizeInBytes() int { return len(b.buf) }

// Bytes returns the underlying pixel data. Writes modify the buffer.
func (b *Buffer) Bytes() []byte { return b.buf }

// HasColor reports whether the buffer stores RGB channels
func (b *Buffer) HasColor() bool { return b.format.HasColor() }

// HasAlpha reports whether the buffer stores an alpha channel
func (b *Buffer) HasAlpha() bool { return b.format.HasAlpha() }

// Valid reports whether the buffer holds pixel data
func (b *Buffer) Valid() bool {
	return b != nil && b.buf != nil
}

// Release drops the pixel data, leaving an empty buffer
func (b *Buffer) Release() {
	*b = Buffer{}
}

// Clone returns a deep copy of the buffer
func (b *Buffer) Clone() *Buffer {
	if !b.Valid() {
		return &Buffer{}
	}
	buf := make([]byte, len(b.buf))
	copy(buf, b.buf)
	return &Buffer{
		buf:    buf,
		width:  b.width,
		height: b.height,
		format: b.format,
	}
}

// ClampRow limits row to [0, Height())
func (b *Buffer) ClampRow(row int) int {
	return clamp(row, b.height)
}

// ClampCol limits col to [0, Width())
func (b *Buffer) ClampCol(col int) int {
	return clamp(col, b.width)
}

func clamp(v, n int) int {
	switch {
	case v < 0:
		return 0
	case v >= n:
		return n - 1
	}
	return v
}

func (b *Buffer) offset(row, col int) int {
	if row < 0 || row >= b.height || col < 0 || col >= b.width {
		panic(fmt.Sprintf("raster: pixel (%d, %d) out of range for %dx%d image", row, col, b.width, b.height))
	}
	return (row*b.width + col) * int(b.format)
}

// Pixel returns the raw channel bytes of a pixel. The slice aliases the buffer.
func (b *Buffer) Pixel(row, col int) []byte {
	i := b.offset(row, col)
	return b.buf[i : i+int(b.format) : i+int(b.format)]
}

// PixelClamped is Pixel with row and col clamped into range
func (b *Buffer) PixelClamped(row, col int) []byte {
	return b.Pixel(b.ClampRow(row), b.ClampCol(col))
}

// ReadRGBA reads a pixel, expanding it to RGBA.
// Gray is copied into all three color channels; missing alpha reads as 255.
func (b *Buffer) ReadRGBA(row, col int) RGBA {
	p := b.Pixel(row, col)
	switch b.format {
	case FormatGray:
		return RGBA{p[0], p[0], p[0], 0xFF}
	case FormatGrayAlpha:
		return RGBA{p[0], p[0], p[0], p[1]}
	case FormatRGB:
		return RGBA{p[0], p[1], p[2], 0xFF}
	case FormatRGBA:
		return RGBA{p[0], p[1], p[2], p[3]}
	}
	b.format.mustBeValid()
	return RGBA{}
}

// ReadRGBAClamped is ReadRGBA with row and col clamped into range
func (b *Buffer) ReadRGBAClamped(row, col int) RGBA {
	return b.ReadRGBA(b.ClampRow(row), b.ClampCol(col))
}

// ReadRGB reads a pixel as RGB, ignoring alpha
func (b *Buffer) ReadRGB(row, col int) RGB {
	p := b.Pixel(row, col)
	switch b.format {
	case FormatGray, FormatGrayAlpha:
		return RGB{p[0], p[0], p[0]}
	case FormatRGB, FormatRGBA:
		return RGB{p[0], p[1], p[2]}
	}
	b.format.mustBeValid()
	return RGB{}
}

// ReadRGBClamped is ReadRGB with row and col clamped into range
func (b *Buffer) ReadRGBClamped(row, col int) RGB {
	return b.ReadRGB(b.ClampRow(row), b.ClampCol(col))
}

// WriteRGB stores an opaque color. Gray formats store the channel mean.
func (b *Buffer) WriteRGB(row, col int, c RGB) {
	p := b.Pixel(row, col)
	switch b.format {
	case FormatGray:
		p[0] = ToGrayscale(c)
	case FormatGrayAlpha:
		p[0] = ToGrayscale(c)
		p[1] = 0xFF
	case FormatRGB:
		p[0], p[1], p[2] = c.R, c.G, c.B
	case FormatRGBA:
		p[0], p[1], p[2], p[3] = c.R, c.G, c.B, 0xFF
	default:
		b.format.mustBeValid()
	}
}

// WriteRGBClamped is WriteRGB with row and col clamped into range
func (b *Buffer) WriteRGBClamped(row, col int, c RGB) {
	b.WriteRGB(b.ClampRow(row), b.ClampCol(col), c)
}

// WriteRGBA stores a color. Alpha is dropped for formats without an alpha channel.
func (b *Buffer) WriteRGBA(row, col int, c RGBA) {
	p := b.Pixel(row, col)
	switch b.format {
	case FormatGray:
		p[0] = ToGrayscale(c.RGB())
	case FormatGrayAlpha:
		p[0] = ToGrayscale(c.RGB())
		p[1] = c.A
	case FormatRGB:
		p[0], p[1], p[2] = c.R, c.G, c.B
	case FormatRGBA:
		p[0], p[1], p[2], p[3] = c.R, c.G, c.B, c.A
	default:
		b.format.mustBeValid()
	}
}

// WriteRGBAClamped is WriteRGBA with row and col clamped into range
func (b *Buffer) WriteRGBAClamped(row, col int, c RGBA) {
	b.WriteRGBA(b.ClampRow(row), b.ClampCol(col), c)
}

// AsRGB returns a new three-channel copy of the image. Alpha is dropped.
func (b *Buffer) AsRGB() *Buffer {
	if !b.Valid() {
		return &Buffer{}
	}
	out := &Buffer{
		buf:    make([]byte, b.width*b.height*3),
		width:  b.width,
		height: b.height,
		format: FormatRGB,
	}

	n := int(b.format)
	for i, j := 0, 0; i < len(b.buf); i, j = i+n, j+3 {
		if b.format.HasColor() {
			out.buf[j], out.buf[j+1], out.buf[j+2] = b.buf[i], b.buf[i+1], b.buf[i+2]
		} else {
			out.buf[j], out.buf[j+1], out.buf[j+2] = b.buf[i], b.buf[i], b.buf[i]
		}
	}
	return out
}

// AsGrayscale returns a new single-channel copy of the image.
// Color pixels become the truncated mean of R, G and B; alpha is dropped.
func (b *Buffer) AsGrayscale() *Buffer {
	if !b.Valid() {
		return &Buffer{}
	}
	out := &Buffer{
		buf:    make([]byte, b.width*b.height),
		width:  b.width,
		height: b.height,
		format: FormatGray,
	}

	n := int(b.format)
	for i, j := 0, 0; i < len(b.buf); i, j = i+n, j+1 {
		if b.format.HasColor() {
			out.buf[j] = ToGrayscale(RGB{b.buf[i], b.buf[i+1], b.buf[i+2]})
		} else {
			out.buf[j] = b.buf[i]
		}
	}
	return out
}

// ConvertToRGB replaces the image data with its RGB conversion
func (b *Buffer) ConvertToRGB() *Buffer {
	*b = *b.AsRGB()
	return b
}

// ConvertToGrayscale replaces the image data with its grayscale conversion
func (b *Buffer) ConvertToGrayscale() *Buffer {
	*b = *b.AsGrayscale()
	return b
}
