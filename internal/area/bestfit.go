// Package area derives composite areas that cover a set of radar objects.
package area

import (
	"errors"
	"fmt"
	"math"

	"github.com/ctessum/geom"

	"github.com/couchcryptid/radar-composite/internal/geo"
	"github.com/couchcryptid/radar-composite/internal/radar"
)

// ErrNoObjects is returned when there is nothing to fit an area around.
var ErrNoObjects = errors.New("best fit: no objects")

// MultiObjectID is the id of an area fitted around more than one object.
const MultiObjectID = "auto-generated best-fit"

// BestFit returns the smallest area in projection that contains the ground
// footprint of every object at the given resolution. pcsID names the
// projection in the generated area id.
func BestFit(objects []radar.Object, projection *geo.Projection, pcsID string, xscale, yscale float64) (*geo.Area, error) {
	if len(objects) == 0 {
		return nil, ErrNoObjects
	}
	if projection == nil {
		return nil, errors.New("best fit: projection is required")
	}
	if xscale <= 0 || yscale <= 0 {
		return nil, fmt.Errorf("best fit: non-positive scale %gx%g", xscale, yscale)
	}

	bounds := geom.NewBounds()
	for _, obj := range objects {
		if err := extendFootprint(bounds, obj, projection); err != nil {
			return nil, err
		}
	}

	xsize := int(math.Ceil((bounds.Max.X - bounds.Min.X) / xscale))
	ysize := int(math.Ceil((bounds.Max.Y - bounds.Min.Y) / yscale))
	xsize, ysize = max(xsize, 1), max(ysize, 1)

	id := MultiObjectID
	if len(objects) == 1 {
		id = fmt.Sprintf("auto_%s_%s", pcsID, objects[0].Node())
	}

	a := &geo.Area{
		ID:          id,
		Description: "best fit area",
		XSize:       xsize,
		YSize:       ysize,
		XScale:      xscale,
		YScale:      yscale,
		Extent: geo.Extent{
			LLX: bounds.Min.X,
			LLY: bounds.Min.Y,
			URX: bounds.Min.X + float64(xsize)*xscale,
			URY: bounds.Min.Y + float64(ysize)*yscale,
		},
		Projection: projection,
	}
	return a, a.Validate()
}

// extendFootprint adds the ground circle at the object's maximum range,
// sampled every degree of azimuth, to bounds.
func extendFootprint(bounds *geom.Bounds, obj radar.Object, projection *geo.Projection) error {
	lon, lat, height := obj.Site()
	nav := geo.NewNavigator(lon, lat, height)

	var reach float64
	for _, s := range obj.Scans() {
		d, _ := nav.REToDH(s.MaxRange(), s.Elangle)
		reach = math.Max(reach, d)
	}

	for deg := range 360 {
		plon, plat := nav.DAToLL(reach, float64(deg)*math.Pi/180)
		x, y, err := projection.Forward(plon, plat)
		if err != nil {
			return fmt.Errorf("best fit: project footprint of %s: %w", obj.Node(), err)
		}
		bounds.Extend(geom.NewBoundsPoint(geom.Point{X: x, Y: y}))
	}
	return nil
}
