package svg

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// SaveError is returned when a document cannot be written to disk
type SaveError struct {
	Path string
	Err  error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("failed to save %s: %v", e.Path, e.Err)
}

func (e *SaveError) Unwrap() error {
	return e.Err
}

// Document accumulates polygons in the order they are appended
type Document struct {
	layout   Layout
	polygons []Polygon
}

// NewDocument creates an empty document
func NewDocument(layout Layout) *Document {
	return &Document{layout: layout}
}

// Layout returns the document layout
func (d *Document) Layout() Layout {
	return d.layout
}

// Append adds a polygon after all previously appended shapes
func (d *Document) Append(p Polygon) {
	d.polygons = append(d.polygons, p)
}

// AppendAll adds polygons in slice order
func (d *Document) AppendAll(ps []Polygon) {
	d.polygons = append(d.polygons, ps...)
}

// Grow reserves room for n more polygons
func (d *Document) Grow(n int) {
	if n <= cap(d.polygons)-len(d.polygons) {
		return
	}
	grown := make([]Polygon, len(d.polygons), len(d.polygons)+n)
	copy(grown, d.polygons)
	d.polygons = grown
}

// Len returns the number of polygons
func (d *Document) Len() int {
	return len(d.polygons)
}

// Polygons returns the polygons in emission order. The slice must not be modified.
func (d *Document) Polygons() []Polygon {
	return d.polygons
}

// WriteTo serializes the document as SVG
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriterSize(w, 64*1024)
	cw := &countingWriter{w: bw}

	l := d.layout
	fmt.Fprintf(cw, "<?xml version=\"1.0\" encoding=\"UTF-8\" standalone=\"no\"?>\n")
	fmt.Fprintf(cw, "<svg width=\"%spx\" height=\"%spx\" xmlns=\"http://www.w3.org/2000/svg\" version=\"1.1\">\n",
		formatNumber(l.Dimensions.Width), formatNumber(l.Dimensions.Height))

	var sb strings.Builder
	for i := range d.polygons {
		sb.Reset()
		d.writePolygon(&sb, &d.polygons[i])
		io.WriteString(cw, sb.String())
		if cw.err != nil {
			return cw.n, cw.err
		}
	}

	io.WriteString(cw, "</svg>\n")
	if cw.err != nil {
		return cw.n, cw.err
	}
	return cw.n, bw.Flush()
}

func (d *Document) writePolygon(sb *strings.Builder, p *Polygon) {
	l := d.layout
	sb.WriteString("\t<polygon points=\"")
	for i, pt := range p.Points {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(formatNumber(l.x(pt.X)))
		sb.WriteByte(',')
		sb.WriteString(formatNumber(l.y(pt.Y)))
	}
	sb.WriteString("\" fill=\"")
	sb.WriteString(p.Fill.Color.String())
	sb.WriteString("\" stroke-width=\"")
	sb.WriteString(formatNumber(l.length(p.Stroke.Width)))
	sb.WriteString("\" stroke=\"")
	sb.WriteString(p.Stroke.Color.String())
	sb.WriteString("\"/>\n")
}

// Save writes the document to filename. The file is replaced atomically:
// a failed save leaves any existing file untouched.
func (d *Document) Save(filename string) error {
	dir := filepath.Dir(filename)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(filename)+".*.tmp")
	if err != nil {
		return &SaveError{Path: filename, Err: err}
	}
	tmpName := tmp.Name()

	fail := func(err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return &SaveError{Path: filename, Err: err}
	}

	if _, err := d.WriteTo(tmp); err != nil {
		return fail(err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &SaveError{Path: filename, Err: err}
	}
	if err := os.Rename(tmpName, filename); err != nil {
		os.Remove(tmpName)
		return &SaveError{Path: filename, Err: err}
	}
	return nil
}

// formatNumber prints v with at most six decimals and no trailing zeros
func formatNumber(v float64) string {
	s := strconv.FormatFloat(v, 'f', 6, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" {
		return "0"
	}
	return s
}

type countingWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (c *countingWriter) Write(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err := c.w.Write(p)
	c.n += int64(n)
	c.err = err
	return n, err
}
