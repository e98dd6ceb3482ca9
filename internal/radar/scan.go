package radar

import (
	"fmt"
	"math"
	"slices"

	"github.com/couchcryptid/radar-composite/internal/geo"
)

// Scan is a single polar sweep.
type Scan struct {
	Source string `json:"source"`
	Date   string `json:"date"`
	Time   string `json:"time"`

	Lon    float64 `json:"lon"`
	Lat    float64 `json:"lat"`
	Height float64 `json:"height"`

	Elangle float64 `json:"elangle"`
	RStart  float64 `json:"rstart"`
	RScale  float64 `json:"rscale"`
	Rays    int     `json:"rays"`
	Bins    int     `json:"bins"`

	DefaultParameter string     `json:"default_parameter"`
	Params           []*Param   `json:"params"`
	QualityFields    FieldSet   `json:"quality_fields,omitempty"`
	Attrs            Attributes `json:"attrs,omitempty"`
}

// Beamwidth returns the azimuthal width of one ray in radians.
func (s *Scan) Beamwidth() float64 {
	if s.Rays == 0 {
		return 0
	}
	return 2 * math.Pi / float64(s.Rays)
}

// MaxRange returns the slant range at the far edge of the last bin in meters.
func (s *Scan) MaxRange() float64 {
	return s.RStart + float64(s.Bins)*s.RScale
}

// Navigator returns the polar navigator for the scan's site.
func (s *Scan) Navigator() geo.Navigator {
	return geo.NewNavigator(s.Lon, s.Lat, s.Height)
}

// AddParam attaches p, replacing any parameter with the same quantity. The
// first parameter added becomes the default when none is set.
func (s *Scan) AddParam(p *Param) error {
	if err := checkDims("parameter "+p.Quantity, p.Rays, p.Bins, s.Rays, s.Bins); err != nil {
		return err
	}
	for i, existing := range s.Params {
		if existing.Quantity == p.Quantity {
			s.Params[i] = p
			return nil
		}
	}
	s.Params = append(s.Params, p)
	if s.DefaultParameter == "" {
		s.DefaultParameter = p.Quantity
	}
	return nil
}

// Param returns the parameter for quantity, or nil.
func (s *Scan) Param(quantity string) *Param {
	for _, p := range s.Params {
		if p.Quantity == quantity {
			return p
		}
	}
	return nil
}

// HasParam reports whether the scan carries quantity.
func (s *Scan) HasParam(quantity string) bool {
	return s.Param(quantity) != nil
}

// Default returns the default parameter, or nil.
func (s *Scan) Default() *Param {
	return s.Param(s.DefaultParameter)
}

// KeepOnly drops every parameter except quantity.
func (s *Scan) KeepOnly(quantity string) {
	s.Params = slices.DeleteFunc(s.Params, func(p *Param) bool { return p.Quantity != quantity })
	if len(s.Params) > 0 {
		s.DefaultParameter = quantity
	}
}

// AddQualityField attaches f, replacing a field with the same task.
func (s *Scan) AddQualityField(f *Field) error {
	if err := checkDims("quality field "+f.Task(), f.Rays, f.Bins, s.Rays, s.Bins); err != nil {
		return err
	}
	s.QualityFields.Put(f)
	return nil
}

// QualityField looks up a quality field by task on the scan and then on the
// default parameter.
func (s *Scan) QualityField(task string) *Field {
	if f := s.QualityFields.Find(task); f != nil {
		return f
	}
	if p := s.Default(); p != nil {
		return p.QualityFields.Find(task)
	}
	return nil
}

// QualityFieldFor looks up a quality field for a parameter, preferring one
// attached to the parameter itself.
func (s *Scan) QualityFieldFor(quantity, task string) *Field {
	if p := s.Param(quantity); p != nil {
		if f := p.QualityFields.Find(task); f != nil {
			return f
		}
	}
	return s.QualityFields.Find(task)
}

// Malfunctioning reports whether the scan carries a truthy how/malfunc.
func (s *Scan) Malfunctioning() bool {
	return isMalfunc(s.Attrs)
}

// Index returns the ray and bin containing the given azimuth (radians,
// clockwise from north) and slant range (meters). ok is false when the range
// is outside the scan.
func (s *Scan) Index(azimuth, rng float64) (ray, bin int, ok bool) {
	if s.Rays == 0 || s.RScale <= 0 {
		return 0, 0, false
	}
	if rng < s.RStart {
		return 0, 0, false
	}
	bin = int(math.Floor((rng - s.RStart) / s.RScale))
	if bin >= s.Bins {
		return 0, 0, false
	}
	az := math.Mod(azimuth, 2*math.Pi)
	if az < 0 {
		az += 2 * math.Pi
	}
	ray = int(math.Floor(az / s.Beamwidth()))
	if ray >= s.Rays {
		ray = s.Rays - 1
	}
	return ray, bin, true
}

// BinCenter returns the azimuth and slant range of the centre of (ray, bin).
func (s *Scan) BinCenter(ray, bin int) (azimuth, rng float64) {
	return (float64(ray) + 0.5) * s.Beamwidth(), s.RStart + (float64(bin)+0.5)*s.RScale
}

// Clone returns a deep copy.
func (s *Scan) Clone() *Scan {
	c := *s
	c.Attrs = s.Attrs.Clone()
	c.Params = make([]*Param, len(s.Params))
	for i, p := range s.Params {
		c.Params[i] = p.Clone()
	}
	c.QualityFields = make(FieldSet, len(s.QualityFields))
	for i, f := range s.QualityFields {
		c.QualityFields[i] = f.Clone()
	}
	return &c
}

// Validate checks that the scan's geometry is usable and that every raster
// matches it.
func (s *Scan) Validate() error {
	if s.Rays <= 0 || s.Bins <= 0 {
		return fmt.Errorf("scan %q has empty geometry %dx%d", s.Source, s.Rays, s.Bins)
	}
	if s.RScale <= 0 {
		return fmt.Errorf("scan %q has non-positive rscale %g", s.Source, s.RScale)
	}
	for _, p := range s.Params {
		if p == nil {
			return fmt.Errorf("scan %q has a nil parameter", s.Source)
		}
		if err := checkRaster("parameter "+p.Quantity, p.Rays, p.Bins, len(p.Data), s.Rays, s.Bins); err != nil {
			return err
		}
		if err := s.validateFields("parameter "+p.Quantity, p.QualityFields); err != nil {
			return err
		}
	}
	return s.validateFields("scan", s.QualityFields)
}

func (s *Scan) validateFields(host string, fields FieldSet) error {
	for _, f := range fields {
		if f == nil {
			return fmt.Errorf("%s of scan %q has a nil quality field", host, s.Source)
		}
		if err := checkRaster(host+" quality field "+f.Task(), f.Rays, f.Bins, len(f.Data), s.Rays, s.Bins); err != nil {
			return err
		}
	}
	return nil
}

func checkRaster(what string, rays, bins, values, wantRays, wantBins int) error {
	if err := checkDims(what, rays, bins, wantRays, wantBins); err != nil {
		return err
	}
	if values != rays*bins {
		return fmt.Errorf("%s has %d values, want %d", what, values, rays*bins)
	}
	return nil
}
