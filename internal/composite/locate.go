package composite

import (
	"math"
	"slices"

	"github.com/couchcryptid/radar-composite/internal/geo"
	"github.com/couchcryptid/radar-composite/internal/radar"
)

// halfBeam is the vertical tolerance outside the outermost elevations that
// still counts as covered for CAPPI.
const halfBeam = 0.5 * math.Pi / 180

// tap is one polar bin reached from an output cell.
type tap struct {
	scan   *radar.Scan
	ray    int
	bin    int
	rng    float64
	height float64
}

// location is the geometric resolution of an output cell for one contributor.
type location struct {
	distance float64
	azimuth  float64
	primary  tap
	// column holds every scan's tap for MAX and PMAX within range.
	column []tap
	// lower and upper bracket the target height for CAPPI and PCAPPI.
	lower, upper *tap
	upperWeight  float64
}

type contributor struct {
	index       int
	obj         radar.Object
	nav         geo.Navigator
	scans       []*radar.Scan // ascending elevation
	maxDistance float64
}

func newContributor(index int, obj radar.Object) *contributor {
	scans := slices.Clone(obj.Scans())
	slices.SortStableFunc(scans, func(a, b *radar.Scan) int {
		switch {
		case a.Elangle < b.Elangle:
			return -1
		case a.Elangle > b.Elangle:
			return 1
		}
		return 0
	})
	lon, lat, height := obj.Site()
	c := &contributor{
		index: index,
		obj:   obj,
		nav:   geo.NewNavigator(lon, lat, height),
		scans: scans,
	}
	for _, s := range scans {
		d, _ := c.nav.REToDH(s.MaxRange(), s.Elangle)
		c.maxDistance = max(c.maxDistance, d)
	}
	return c
}

func (c *contributor) locate(e *Engine, lon, lat float64) (location, bool) {
	if len(c.scans) == 0 {
		return location{}, false
	}
	d, az := c.nav.LLToDA(lon, lat)
	if d > c.maxDistance {
		return location{}, false
	}
	loc := location{distance: d, azimuth: az}

	switch e.product {
	case PPI:
		s := c.nearestElevation(e.elangle)
		t, ok := c.tapAt(s, d, az)
		if !ok {
			return location{}, false
		}
		loc.primary = t
		return loc, true
	case CAPPI:
		return c.locateHeight(loc, e.height, false)
	case PCAPPI:
		return c.locateHeight(loc, e.height, true)
	case PMAX:
		if d <= e.rng {
			return c.locateColumn(loc)
		}
		return c.locateHeight(loc, e.height, true)
	case MAX:
		return c.locateColumn(loc)
	}
	return location{}, false
}

func (c *contributor) nearestElevation(e float64) *radar.Scan {
	best := c.scans[0]
	for _, s := range c.scans[1:] {
		if math.Abs(s.Elangle-e) < math.Abs(best.Elangle-e) {
			best = s
		}
	}
	return best
}

func (c *contributor) tapAt(s *radar.Scan, d, az float64) (tap, bool) {
	r, h := c.nav.DEToRH(d, s.Elangle)
	ray, bin, ok := s.Index(az, r)
	if !ok {
		return tap{}, false
	}
	return tap{scan: s, ray: ray, bin: bin, rng: r, height: h}, true
}

func (c *contributor) locateHeight(loc location, height float64, clamp bool) (location, bool) {
	_, target := c.nav.DHToRE(loc.distance, height)
	lowest, highest := c.scans[0].Elangle, c.scans[len(c.scans)-1].Elangle
	if !clamp && (target < lowest-halfBeam || target > highest+halfBeam) {
		return location{}, false
	}

	t, ok := c.tapAt(c.nearestElevation(target), loc.distance, loc.azimuth)
	if !ok {
		return location{}, false
	}
	loc.primary = t

	for i := 0; i+1 < len(c.scans); i++ {
		if c.scans[i].Elangle <= target && target < c.scans[i+1].Elangle {
			lo, okLo := c.tapAt(c.scans[i], loc.distance, loc.azimuth)
			hi, okHi := c.tapAt(c.scans[i+1], loc.distance, loc.azimuth)
			if okLo && okHi && hi.height > lo.height {
				loc.lower, loc.upper = &lo, &hi
				loc.upperWeight = math.Min(1, math.Max(0, (height-lo.height)/(hi.height-lo.height)))
			}
			break
		}
	}
	return loc, true
}

func (c *contributor) locateColumn(loc location) (location, bool) {
	for _, s := range c.scans {
		if t, ok := c.tapAt(s, loc.distance, loc.azimuth); ok {
			loc.column = append(loc.column, t)
		}
	}
	if len(loc.column) == 0 {
		return location{}, false
	}
	loc.primary = loc.column[0]
	return loc, true
}

// sample reads quantity at the location, applying the configured interpolation.
func (c *contributor) sample(loc *location, quantity string, interp Interpolation) Sample {
	t := loc.primary
	var vt radar.ValueType
	var v float64

	if len(loc.column) > 0 {
		t, vt, v = columnMax(loc.column, quantity)
	} else {
		vt, v = valueAt(t, quantity)
		if vt == radar.Data && interp != NearestValue {
			if iv, ok := interpolate(loc, quantity, interp); ok {
				v = iv
			}
		}
	}

	return Sample{
		Contributor: c.index,
		Quantity:    quantity,
		Scan:        t.scan,
		Ray:         t.ray,
		Bin:         t.bin,
		Type:        vt,
		Value:       v,
		Distance:    loc.distance,
		Range:       t.rng,
		Height:      t.height,
	}
}

func valueAt(t tap, quantity string) (radar.ValueType, float64) {
	p := t.scan.Param(quantity)
	if p == nil {
		return radar.Nodata, 0
	}
	return p.Value(t.ray, t.bin)
}

// columnMax returns the tap holding the largest DATA value, or the first
// undetect tap when no DATA exists.
func columnMax(column []tap, quantity string) (tap, radar.ValueType, float64) {
	best := -1
	var bestV float64
	undetect := -1
	for i, t := range column {
		vt, v := valueAt(t, quantity)
		switch vt {
		case radar.Data:
			if best < 0 || v > bestV {
				best, bestV = i, v
			}
		case radar.Undetect:
			if undetect < 0 {
				undetect = i
			}
		}
	}
	switch {
	case best >= 0:
		return column[best], radar.Data, bestV
	case undetect >= 0:
		return column[undetect], radar.Undetect, 0
	default:
		return column[0], radar.Nodata, 0
	}
}
