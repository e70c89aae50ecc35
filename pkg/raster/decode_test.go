package raster

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"path/filepath"
	"strings"
	"testing"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode PNG: %v", err)
	}
	return buf.Bytes()
}

// rawPNG assembles an 8-bit PNG with the given IHDR color type, so tests can
// produce layouts the standard encoder never writes.
func rawPNG(t *testing.T, width, height int, colorType byte, rows [][]byte) []byte {
	t.Helper()

	var out bytes.Buffer
	chunk := func(kind string, data []byte) {
		binary.Write(&out, binary.BigEndian, uint32(len(data)))
		body := append([]byte(kind), data...)
		out.Write(body)
		binary.Write(&out, binary.BigEndian, crc32.ChecksumIEEE(body))
	}

	out.Write(pngSignature)

	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:], uint32(width))
	binary.BigEndian.PutUint32(ihdr[4:], uint32(height))
	ihdr[8] = 8
	ihdr[9] = colorType
	chunk("IHDR", ihdr)

	var idat bytes.Buffer
	zw := zlib.NewWriter(&idat)
	for _, row := range rows {
		// filter type none
		zw.Write([]byte{0})
		zw.Write(row)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Failed to compress PNG rows: %v", err)
	}
	chunk("IDAT", idat.Bytes())
	chunk("IEND", nil)

	return out.Bytes()
}

func TestDecodeGrayPNG(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 2, 1))
	img.SetGray(0, 0, color.Gray{Y: 128})
	img.SetGray(1, 0, color.Gray{Y: 3})

	b, err := Decode(bytes.NewReader(encodePNG(t, img)))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if b.Format() != FormatGray {
		t.Errorf("Expected gray format, got %v", b.Format())
	}
	if got := b.ReadRGBA(0, 0); got != (RGBA{128, 128, 128, 255}) {
		t.Errorf("Expected (128,128,128,255), got %v", got)
	}
	if got := b.ReadRGBA(0, 1); got != (RGBA{3, 3, 3, 255}) {
		t.Errorf("Expected (3,3,3,255), got %v", got)
	}
}

func TestDecodeOpaquePNGIsRGB(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{255, 0, 0, 255})
	img.SetNRGBA(1, 0, color.NRGBA{0, 255, 0, 255})

	b, err := Decode(bytes.NewReader(encodePNG(t, img)))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if b.Channels() != 3 {
		t.Errorf("Expected 3 channels, got %d", b.Channels())
	}
	if got := b.ReadRGB(0, 1); got != (RGB{0, 255, 0}) {
		t.Errorf("Expected green, got %v", got)
	}
}

func TestDecodeTranslucentPNGIsRGBA(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 1, 2))
	img.SetNRGBA(0, 0, color.NRGBA{10, 20, 30, 0})
	img.SetNRGBA(0, 1, color.NRGBA{40, 50, 60, 128})

	b, err := Decode(bytes.NewReader(encodePNG(t, img)))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if b.Format() != FormatRGBA {
		t.Fatalf("Expected RGBA format, got %v", b.Format())
	}
	if got := b.ReadRGBA(1, 0); got != (RGBA{40, 50, 60, 128}) {
		t.Errorf("Expected straight alpha (40,50,60,128), got %v", got)
	}
	if got := b.ReadRGBA(0, 0); got.A != 0 {
		t.Errorf("Expected alpha 0, got %d", got.A)
	}
}

func TestDecodeJPEGIsRGB(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("Failed to encode JPEG: %v", err)
	}

	b, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if b.Format() != FormatRGB {
		t.Errorf("Expected RGB format, got %v", b.Format())
	}
	if b.Width() != 8 || b.Height() != 8 {
		t.Errorf("Expected 8x8, got %dx%d", b.Width(), b.Height())
	}
}

func TestDecodeUnknownFormat(t *testing.T) {
	_, err := Decode(strings.NewReader("definitely not an image"))

	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("Expected DecodeError, got %v", err)
	}
	if de.Reason != image.ErrFormat.Error() {
		t.Errorf("Expected decoder reason %q, got %q", image.ErrFormat.Error(), de.Reason)
	}
}

func TestDecodeFileMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.png")
	_, err := DecodeFile(path)

	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("Expected DecodeError, got %v", err)
	}
	if de.Path != path {
		t.Errorf("Expected path %s, got %s", path, de.Path)
	}
	if !strings.Contains(de.Reason, "no such file") {
		t.Errorf("Expected reason from the file system, got %q", de.Reason)
	}
}

func TestSaveBMPRoundTrip(t *testing.T) {
	b, _ := FromBytes([]byte{
		255, 0, 0, 0, 255, 0,
		0, 0, 255, 7, 8, 9,
	}, 2, 2, FormatRGB)

	path := filepath.Join(t.TempDir(), "out.bmp")
	if err := b.SaveBMP(path); err != nil {
		t.Fatalf("SaveBMP failed: %v", err)
	}

	got, err := DecodeFile(path)
	if err != nil {
		t.Fatalf("DecodeFile failed: %v", err)
	}
	if got.Format() != FormatRGB {
		t.Errorf("Expected RGB format, got %v", got.Format())
	}
	if !bytes.Equal(got.Bytes(), b.Bytes()) {
		t.Errorf("Expected %v, got %v", b.Bytes(), got.Bytes())
	}
}

func TestSavePNGKeepsAlpha(t *testing.T) {
	b, _ := FromBytes([]byte{1, 2, 3, 4}, 1, 1, FormatRGBA)

	path := filepath.Join(t.TempDir(), "out.png")
	if err := b.SavePNG(path); err != nil {
		t.Fatalf("SavePNG failed: %v", err)
	}

	got, err := DecodeFile(path)
	if err != nil {
		t.Fatalf("DecodeFile failed: %v", err)
	}
	if c := got.ReadRGBA(0, 0); c != (RGBA{1, 2, 3, 4}) {
		t.Errorf("Expected (1,2,3,4), got %v", c)
	}
}

func TestDecodeGrayAlphaPNG(t *testing.T) {
	data := rawPNG(t, 2, 1, 4, [][]byte{{200, 255, 77, 10}})

	b, err := Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if b.Format() != FormatGrayAlpha || b.Channels() != 2 {
		t.Fatalf("Expected gray+alpha with 2 channels, got %v with %d", b.Format(), b.Channels())
	}
	if got := b.Pixel(0, 1); !bytes.Equal(got, []byte{77, 10}) {
		t.Errorf("Expected raw pixel [77 10], got %v", got)
	}
	if got := b.ReadRGBA(0, 0); got != (RGBA{200, 200, 200, 255}) {
		t.Errorf("Expected (200,200,200,255), got %v", got)
	}
	if got := b.ReadRGBA(0, 1); got != (RGBA{77, 77, 77, 10}) {
		t.Errorf("Expected (77,77,77,10), got %v", got)
	}
}

func TestDecodeOpaqueRGBAPNGKeepsFourChannels(t *testing.T) {
	data := rawPNG(t, 2, 1, 6, [][]byte{{255, 0, 0, 255, 0, 255, 0, 255}})

	b, err := Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if b.Channels() != 4 {
		t.Errorf("Expected 4 channels for an RGBA source, got %d", b.Channels())
	}
	if got := b.ReadRGBA(0, 1); got != (RGBA{0, 255, 0, 255}) {
		t.Errorf("Expected opaque green, got %v", got)
	}
}

func TestDecodePaletted(t *testing.T) {
	opaque := image.NewPaletted(image.Rect(0, 0, 2, 1), color.Palette{
		color.RGBA{255, 0, 0, 255},
		color.RGBA{0, 0, 255, 255},
	})
	opaque.SetColorIndex(1, 0, 1)

	b, err := Decode(bytes.NewReader(encodePNG(t, opaque)))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if b.Channels() != 3 {
		t.Errorf("Expected 3 channels for an opaque palette, got %d", b.Channels())
	}
	if got := b.ReadRGB(0, 1); got != (RGB{0, 0, 255}) {
		t.Errorf("Expected blue, got %v", got)
	}

	transparent := image.NewPaletted(image.Rect(0, 0, 2, 1), color.Palette{
		color.RGBA{0, 0, 0, 0},
		color.RGBA{255, 0, 0, 255},
	})
	transparent.SetColorIndex(1, 0, 1)

	var buf bytes.Buffer
	if err := gif.Encode(&buf, transparent, nil); err != nil {
		t.Fatalf("Failed to encode GIF: %v", err)
	}

	b, err = Decode(&buf)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if b.Channels() != 4 {
		t.Errorf("Expected 4 channels for a palette with transparency, got %d", b.Channels())
	}
	if got := b.ReadRGBA(0, 0); got.A != 0 {
		t.Errorf("Expected transparent first pixel, got %v", got)
	}
	if got := b.ReadRGBA(0, 1); got != (RGBA{255, 0, 0, 255}) {
		t.Errorf("Expected opaque red, got %v", got)
	}
}
