package svg

import "fmt"

// Origin selects where the y axis starts in document coordinates
type Origin int

const (
	// TopLeft places (0,0) at the top-left corner with y growing downwards
	TopLeft Origin = iota
	// BottomLeft places (0,0) at the bottom-left corner with y growing upwards
	BottomLeft
)

// Dimensions is the canvas size in output units
type Dimensions struct {
	Width, Height float64
}

// Layout maps document coordinates to output units
type Layout struct {
	Dimensions Dimensions
	Origin     Origin
	Scale      float64
}

// NewLayout returns a layout for the given canvas size, origin and scale
func NewLayout(dims Dimensions, origin Origin, scale float64) Layout {
	return Layout{
		Dimensions: dims,
		Origin:     origin,
		Scale:      scale,
	}
}

func (l Layout) x(v float64) float64 {
	return v * l.Scale
}

func (l Layout) y(v float64) float64 {
	if l.Origin == BottomLeft {
		return l.Dimensions.Height - v*l.Scale
	}
	return v * l.Scale
}

func (l Layout) length(v float64) float64 {
	return v * l.Scale
}

// Color is an opaque RGB color or the transparent sentinel
type Color struct {
	R, G, B uint8

	transparent bool
}

// Predefined colors
var (
	Transparent = Color{transparent: true}
	Black       = Color{}
	White       = Color{R: 255, G: 255, B: 255}
)

// RGB returns an opaque color
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b}
}

// IsTransparent reports whether c is the transparent sentinel
func (c Color) IsTransparent() bool {
	return c.transparent
}

// String returns the SVG paint value
func (c Color) String() string {
	if c.transparent {
		return "none"
	}
	return fmt.Sprintf("rgb(%d,%d,%d)", c.R, c.G, c.B)
}

// Fill is the interior paint of a shape
type Fill struct {
	Color Color
}

// Stroke is the outline paint of a shape. Width is in document units.
type Stroke struct {
	Width float64
	Color Color
}

// Point is a vertex in document coordinates
type Point struct {
	X, Y float64
}

// Polygon is a closed path through Points
type Polygon struct {
	Fill   Fill
	Stroke Stroke
	Points []Point
}
