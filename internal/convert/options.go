package convert

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kiesman99/raster2vector/internal/vectorize"
)

// Default option values
const (
	DefaultScale       = 10.0
	DefaultStrokeWidth = 0.01
	OutputExtension    = ".svg"
)

// ConfigError reports an invalid or missing option
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Options contains all configuration for a conversion
type Options struct {
	InputFile   string
	OutputFile  string
	Scale       float64
	StrokeWidth float64
	Workers     int
}

// Validate checks the options and fills in the derived output file name.
// The receiver is not modified.
func (o Options) Validate() (Options, error) {
	if o.InputFile == "" {
		return o, &ConfigError{Field: "inputFile", Message: "an input file is required"}
	}
	if !vectorize.ValidScale(o.Scale) {
		return o, &ConfigError{Field: "scale", Message: fmt.Sprintf("must be a finite number greater than 0, got %g", o.Scale)}
	}
	if !vectorize.ValidStrokeWidth(o.StrokeWidth) {
		return o, &ConfigError{Field: "strokeWidth", Message: fmt.Sprintf("must be a finite number not below 0, got %g", o.StrokeWidth)}
	}
	if o.Workers < 0 {
		return o, &ConfigError{Field: "workers", Message: fmt.Sprintf("must not be negative, got %d", o.Workers)}
	}

	if o.OutputFile == "" {
		o.OutputFile = DefaultOutputFile(o.InputFile)
	}
	return o, nil
}

// DefaultOutputFile replaces the extension of input with .svg
func DefaultOutputFile(input string) string {
	ext := filepath.Ext(input)
	// A leading dot names a hidden file, not an extension
	if ext == filepath.Base(input) {
		ext = ""
	}
	return strings.TrimSuffix(input, ext) + OutputExtension
}
