package vectorize

import (
	"fmt"
	"io"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kiesman99/raster2vector/pkg/raster"
	"github.com/kiesman99/raster2vector/pkg/svg"
)

// EstimateThreshold is the projected run time above which an estimate is printed
const EstimateThreshold = 2 * time.Second

// rowsPerTask bounds the work handed to a single goroutine in parallel mode
const rowsPerTask = 16

// Options contains all vectorization parameters
type Options struct {
	// Output units per pixel
	Scale float64

	// Outline width in pixel units, applied to every polygon
	StrokeWidth float64

	// Number of goroutines building polygons; 0 or 1 scans sequentially
	Workers int

	// Progress receives the timing narrative. Nil discards it.
	Progress io.Writer

	// Now is the clock used for timing. Nil uses time.Now.
	Now func() time.Time
}

// Report describes a finished run
type Report struct {
	Polygons  int
	Estimated time.Duration
	Actual    time.Duration
	Slow      bool
}

// ValidScale reports whether scale is finite and greater than 0
func ValidScale(scale float64) bool {
	return scale > 0 && !math.IsInf(scale, 1)
}

// ValidStrokeWidth reports whether width is finite and not negative
func ValidStrokeWidth(width float64) bool {
	return width >= 0 && !math.IsInf(width, 1)
}

// Cell builds the polygon for the pixel at (row, col).
// Pixels that are not fully opaque get a transparent fill.
func Cell(row, col int, c raster.RGBA, strokeWidth float64) svg.Polygon {
	fill := svg.Transparent
	if c.Opaque() {
		fill = svg.RGB(c.R, c.G, c.B)
	}

	x, y := float64(col), float64(row)
	return svg.Polygon{
		Fill:   svg.Fill{Color: fill},
		Stroke: svg.Stroke{Width: strokeWidth, Color: svg.Black},
		Points: []svg.Point{
			{X: x, Y: y},
			{X: x + 1, Y: y},
			{X: x + 1, Y: y + 1},
			{X: x, Y: y + 1},
		},
	}
}

// Run converts every pixel of buf into a polygon, in row-major order
func Run(buf *raster.Buffer, opts Options) (*svg.Document, *Report, error) {
	if !buf.Valid() {
		return nil, nil, fmt.Errorf("no image data")
	}
	if !ValidScale(opts.Scale) {
		return nil, nil, fmt.Errorf("scale must be a finite number greater than 0, got %g", opts.Scale)
	}
	if !ValidStrokeWidth(opts.StrokeWidth) {
		return nil, nil, fmt.Errorf("stroke width must be a finite number not below 0, got %g", opts.StrokeWidth)
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}
	progress := opts.Progress
	if progress == nil {
		progress = io.Discard
	}

	width, height := buf.Width(), buf.Height()
	layout := svg.NewLayout(
		svg.Dimensions{Width: opts.Scale * float64(width), Height: opts.Scale * float64(height)},
		svg.TopLeft,
		opts.Scale,
	)
	doc := svg.NewDocument(layout)
	doc.Grow(width * height)

	report := &Report{}
	startTime := now()

	// Row 0 is always scanned alone so its duration can seed the estimate
	doc.AppendAll(buildRows(buf, 0, 1, opts.StrokeWidth))

	oneRowDur := now().Sub(startTime)
	report.Estimated = time.Duration(height) * oneRowDur
	if report.Estimated > EstimateThreshold {
		report.Slow = true
		fmt.Fprintf(progress, "Estimated path construction time: %d seconds\n",
			int64(report.Estimated/time.Second))
	}

	if opts.Workers > 1 {
		if err := runParallel(doc, buf, opts.StrokeWidth, opts.Workers); err != nil {
			return nil, nil, err
		}
	} else {
		for r := 1; r < height; r++ {
			for c := 0; c < width; c++ {
				doc.Append(Cell(r, c, buf.ReadRGBA(r, c), opts.StrokeWidth))
			}
		}
	}

	report.Actual = now().Sub(startTime)
	report.Polygons = doc.Len()

	if report.Slow {
		fmt.Fprintf(progress, "Actual path construction time:    %d seconds (%.6g%% difference from estimate)\n",
			int64(report.Actual/time.Second), report.PercentOff())
	} else {
		fmt.Fprintf(progress, "Path construction time: %d ms\n", report.Actual.Milliseconds())
	}

	return doc, report, nil
}

// PercentOff returns how far the estimate was from the actual duration,
// as a percentage of the actual duration
func (r *Report) PercentOff() float64 {
	if r.Actual <= 0 {
		return 0
	}
	return 100 * float64(r.Actual-r.Estimated) / float64(r.Actual)
}

// buildRows returns the polygons of rows [from, to) in row-major order
func buildRows(buf *raster.Buffer, from, to int, strokeWidth float64) []svg.Polygon {
	width := buf.Width()
	out := make([]svg.Polygon, 0, (to-from)*width)
	for r := from; r < to; r++ {
		for c := 0; c < width; c++ {
			out = append(out, Cell(r, c, buf.ReadRGBA(r, c), strokeWidth))
		}
	}
	return out
}

// runParallel builds rows 1..height-1 concurrently and appends them in row order
func runParallel(doc *svg.Document, buf *raster.Buffer, strokeWidth float64, workers int) error {
	height := buf.Height()
	if height <= 1 {
		return nil
	}

	tasks := (height - 1 + rowsPerTask - 1) / rowsPerTask
	results := make([][]svg.Polygon, tasks)

	var g errgroup.Group
	g.SetLimit(workers)
	for i := 0; i < tasks; i++ {
		i := i
		from := 1 + i*rowsPerTask
		to := min(from+rowsPerTask, height)
		g.Go(func() error {
			results[i] = buildRows(buf, from, to, strokeWidth)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, polys := range results {
		doc.AppendAll(polys)
	}
	return nil
}
