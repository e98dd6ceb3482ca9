package geo

import (
	"fmt"
	"math"

	"github.com/ctessum/geom/proj"
)

// LongLatDefinition is the geographic reference system used for lon/lat input.
const LongLatDefinition = "+proj=longlat +ellps=WGS84 +datum=WGS84 +no_defs"

// GmapsDefinition is the spherical mercator definition registered as "gmaps".
const GmapsDefinition = "+proj=merc +a=6378137 +b=6378137 +lat_ts=0.0 +lon_0=0.0 +x_0=0.0 +y_0=0 +k=1.0 +units=m +nadgrids=@null +no_defs"

// Projection maps lon/lat in degrees to projected surface coordinates.
type Projection struct {
	ID          string
	Description string
	Definition  string

	forward proj.Transformer
	inverse proj.Transformer
}

// NewProjection parses a PROJ.4 definition.
func NewProjection(id, description, definition string) (*Projection, error) {
	sr, err := proj.Parse(definition)
	if err != nil {
		return nil, fmt.Errorf("parse projection %s: %w", id, err)
	}
	if _, _, err := sr.Transformers(); err != nil {
		return nil, fmt.Errorf("projection %s: %w", id, err)
	}
	ll, err := proj.Parse(LongLatDefinition)
	if err != nil {
		return nil, fmt.Errorf("parse longlat: %w", err)
	}
	fwd, err := ll.NewTransform(sr)
	if err != nil {
		return nil, fmt.Errorf("projection %s forward transform: %w", id, err)
	}
	inv, err := sr.NewTransform(ll)
	if err != nil {
		return nil, fmt.Errorf("projection %s inverse transform: %w", id, err)
	}
	p := &Projection{
		ID:          id,
		Description: description,
		Definition:  definition,
		forward:     orIdentity(fwd),
		inverse:     orIdentity(inv),
	}
	if err := p.check(); err != nil {
		return nil, fmt.Errorf("projection %s: %w", id, err)
	}
	return p, nil
}

// NewTransform returns a nil transformer for equivalent systems.
func orIdentity(t proj.Transformer) proj.Transformer {
	if t != nil {
		return t
	}
	return func(x, y float64) (float64, float64, error) { return x, y, nil }
}

// check round-trips a mid-latitude point through the projection.
func (p *Projection) check() error {
	const lon, lat = 15.0, 60.0
	x, y, err := p.Forward(lon, lat)
	if err != nil {
		return err
	}
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return fmt.Errorf("forward projection of %g,%g is not finite", lon, lat)
	}
	blon, blat, err := p.Inverse(x, y)
	if err != nil {
		return err
	}
	if math.Abs(blon-lon) > 1e-6 || math.Abs(blat-lat) > 1e-6 {
		return fmt.Errorf("round trip of %g,%g returned %g,%g", lon, lat, blon, blat)
	}
	return nil
}

// Forward projects lon/lat (degrees) to surface coordinates.
func (p *Projection) Forward(lon, lat float64) (x, y float64, err error) {
	return p.forward(lon, lat)
}

// Inverse maps surface coordinates back to lon/lat (degrees).
func (p *Projection) Inverse(x, y float64) (lon, lat float64, err error) {
	return p.inverse(x, y)
}
