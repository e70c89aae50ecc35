package svg

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func unitSquare(x, y float64, fill Color, strokeWidth float64) Polygon {
	return Polygon{
		Fill:   Fill{Color: fill},
		Stroke: Stroke{Width: strokeWidth, Color: Black},
		Points: []Point{{x, y}, {x + 1, y}, {x + 1, y + 1}, {x, y + 1}},
	}
}

func TestWriteToScalesCoordinates(t *testing.T) {
	doc := NewDocument(NewLayout(Dimensions{20, 10}, TopLeft, 10))
	doc.Append(unitSquare(1, 0, RGB(255, 0, 0), 0.01))

	var buf bytes.Buffer
	n, err := doc.WriteTo(&buf)
	if err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}
	if n != int64(buf.Len()) {
		t.Errorf("Expected byte count %d, got %d", buf.Len(), n)
	}

	want := `<?xml version="1.0" encoding="UTF-8" standalone="no"?>
<svg width="20px" height="10px" xmlns="http://www.w3.org/2000/svg" version="1.1">
	<polygon points="10,0 20,0 20,10 10,10" fill="rgb(255,0,0)" stroke-width="0.1" stroke="rgb(0,0,0)"/>
</svg>
`
	if buf.String() != want {
		t.Errorf("Unexpected output:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestTransparentFill(t *testing.T) {
	doc := NewDocument(NewLayout(Dimensions{1, 1}, TopLeft, 1))
	doc.Append(unitSquare(0, 0, Transparent, 0))

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}
	if !strings.Contains(buf.String(), `fill="none" stroke-width="0"`) {
		t.Errorf("Expected transparent fill and zero stroke, got:\n%s", buf.String())
	}
}

func TestBottomLeftOrigin(t *testing.T) {
	l := NewLayout(Dimensions{4, 4}, BottomLeft, 2)
	if got := l.y(0); got != 4 {
		t.Errorf("Expected y=4 at origin, got %v", got)
	}
	if got := l.y(2); got != 0 {
		t.Errorf("Expected y=0 at top, got %v", got)
	}
}

func TestFormatNumber(t *testing.T) {
	testCases := map[float64]string{
		0:          "0",
		10:         "10",
		100:        "100",
		0.1:        "0.1",
		0.3:        "0.3",
		2.5:        "2.5",
		-0.0000001: "0",
		1234567.5:  "1234567.5",
	}
	for in, want := range testCases {
		if got := formatNumber(in); got != want {
			t.Errorf("formatNumber(%v): expected %s, got %s", in, want, got)
		}
	}

	// 0.1*3 is 0.30000000000000004 at run time
	tenth := 0.1
	if got := formatNumber(tenth * 3); got != "0.3" {
		t.Errorf("Expected float noise trimmed to 0.3, got %s", got)
	}
}

func TestColorString(t *testing.T) {
	if Transparent.String() != "none" {
		t.Errorf("Expected none, got %s", Transparent.String())
	}
	if !Transparent.IsTransparent() || Black.IsTransparent() {
		t.Error("Unexpected transparency flags")
	}
	if got := RGB(1, 2, 3).String(); got != "rgb(1,2,3)" {
		t.Errorf("Expected rgb(1,2,3), got %s", got)
	}
}

func TestAppendKeepsOrder(t *testing.T) {
	doc := NewDocument(NewLayout(Dimensions{3, 1}, TopLeft, 1))
	doc.Grow(3)
	doc.Append(unitSquare(0, 0, RGB(1, 1, 1), 0))
	doc.AppendAll([]Polygon{
		unitSquare(1, 0, RGB(2, 2, 2), 0),
		unitSquare(2, 0, RGB(3, 3, 3), 0),
	})

	if doc.Len() != 3 {
		t.Fatalf("Expected 3 polygons, got %d", doc.Len())
	}
	for i, p := range doc.Polygons() {
		if p.Points[0].X != float64(i) {
			t.Errorf("Polygon %d starts at x=%v", i, p.Points[0].X)
		}
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.svg")

	doc := NewDocument(NewLayout(Dimensions{1, 1}, TopLeft, 1))
	doc.Append(unitSquare(0, 0, White, 0))

	if err := doc.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	if !strings.HasSuffix(string(data), "</svg>\n") {
		t.Errorf("Expected complete document, got:\n%s", data)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("Expected only the output file in %s, found %d entries", dir, len(entries))
	}
}

func TestSaveFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "out.svg")

	doc := NewDocument(NewLayout(Dimensions{1, 1}, TopLeft, 1))
	err := doc.Save(path)

	var se *SaveError
	if !errors.As(err, &se) {
		t.Fatalf("Expected SaveError, got %v", err)
	}
	if se.Path != path {
		t.Errorf("Expected path %s, got %s", path, se.Path)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected wrapped ErrNotExist, got %v", se.Err)
	}
}
