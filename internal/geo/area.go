package geo

import (
	"errors"
	"fmt"
)

// Extent is a projected bounding box (lower-left, upper-right).
type Extent struct {
	LLX float64 `yaml:"llx" json:"llx"`
	LLY float64 `yaml:"lly" json:"lly"`
	URX float64 `yaml:"urx" json:"urx"`
	URY float64 `yaml:"ury" json:"ury"`
}

// Area is an output raster definition. Row 0 is the northern edge.
type Area struct {
	ID          string
	Description string
	XSize       int
	YSize       int
	XScale      float64
	YScale      float64
	Extent      Extent
	Projection  *Projection
}

// Validate checks that the area describes a usable raster.
func (a *Area) Validate() error {
	if a.Projection == nil {
		return fmt.Errorf("area %s has no projection", a.ID)
	}
	if a.XSize <= 0 || a.YSize <= 0 {
		return fmt.Errorf("area %s has empty size %dx%d", a.ID, a.XSize, a.YSize)
	}
	if a.XScale <= 0 || a.YScale <= 0 {
		return errors.New("area " + a.ID + " has non-positive scale")
	}
	return nil
}

// CellCenter returns the projected coordinates of the centre of pixel (x, y).
func (a *Area) CellCenter(x, y int) (px, py float64) {
	px = a.Extent.LLX + (float64(x)+0.5)*a.XScale
	py = a.Extent.URY - (float64(y)+0.5)*a.YScale
	return px, py
}

// Cell returns the pixel containing projected point (px, py), and false when
// the point is outside the area.
func (a *Area) Cell(px, py float64) (x, y int, ok bool) {
	fx := (px - a.Extent.LLX) / a.XScale
	fy := (a.Extent.URY - py) / a.YScale
	if fx < 0 || fy < 0 {
		return 0, 0, false
	}
	x, y = int(fx), int(fy)
	if x >= a.XSize || y >= a.YSize {
		return 0, 0, false
	}
	return x, y, true
}
