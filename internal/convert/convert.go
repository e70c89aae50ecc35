package convert

import (
	"fmt"
	"io"
	"time"

	"github.com/kiesman99/raster2vector/internal/vectorize"
	"github.com/kiesman99/raster2vector/pkg/raster"
)

// Converter runs the load, vectorize, save pipeline for one file
type Converter struct {
	options Options
	out     io.Writer
	now     func() time.Time
}

// NewConverter creates a converter. Progress messages are written to out.
func NewConverter(opts Options, out io.Writer) *Converter {
	return &Converter{
		options: opts,
		out:     out,
		now:     time.Now,
	}
}

// Run converts the input file and writes the SVG document.
// Nothing is written to the output path unless vectorization succeeded.
func (c *Converter) Run() error {
	opts, err := c.options.Validate()
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "Converting %s to %s.\n", opts.InputFile, opts.OutputFile)
	fmt.Fprintf(c.out, "Loading input image...\n")

	buf, err := raster.DecodeFile(opts.InputFile)
	if err != nil {
		if de, ok := err.(*raster.DecodeError); ok {
			fmt.Fprintf(c.out, "Failed to load image: %s\n", de.Reason)
		}
		return err
	}

	fmt.Fprintf(c.out, "Image is %dx%d, with %d color channels.\n",
		buf.Width(), buf.Height(), buf.Channels())

	doc, _, err := vectorize.Run(buf, vectorize.Options{
		Scale:       opts.Scale,
		StrokeWidth: opts.StrokeWidth,
		Workers:     opts.Workers,
		Progress:    c.out,
		Now:         c.now,
	})
	if err != nil {
		return fmt.Errorf("vectorization failed: %w", err)
	}

	// The pixel data is no longer needed while the document is serialized
	buf.Release()

	fmt.Fprintf(c.out, "SVG paths generated.  Writing output .svg file...\n")

	if err := doc.Save(opts.OutputFile); err != nil {
		fmt.Fprintf(c.out, "File output failed!\n")
		return err
	}

	fmt.Fprintf(c.out, "Completed successfully.\n")
	return nil
}
