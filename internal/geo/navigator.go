package geo

import "math"

const (
	// EarthRadius is the mean earth radius in meters.
	EarthRadius = 6371000.0
	// DnDh is the standard atmosphere refractivity gradient per meter.
	DnDh = -3.9e-8
)

// EffectiveRadius is the 4/3 earth radius used for beam propagation.
var EffectiveRadius = 1.0 / (1.0/EarthRadius + DnDh)

// Navigator converts between polar radar coordinates and geographic
// coordinates for one site. Angles passed in and out are radians, except the
// site and LL helpers which use degrees.
type Navigator struct {
	lon, lat float64 // radians
	alt      float64
	reff     float64
}

// NewNavigator creates a navigator for a site at lon/lat (degrees) and
// height above sea level (meters).
func NewNavigator(lonDeg, latDeg, alt float64) Navigator {
	return Navigator{
		lon:  lonDeg * math.Pi / 180,
		lat:  latDeg * math.Pi / 180,
		alt:  alt,
		reff: EffectiveRadius,
	}
}

// DEToRH returns the slant range and the height above sea level of a beam at
// elevation e that reaches ground distance d.
func (n Navigator) DEToRH(d, e float64) (r, h float64) {
	c := d / n.reff
	cosec := math.Cos(e + c)
	r = n.reff * math.Sin(c) / cosec
	h = n.reff*math.Cos(e)/cosec - n.reff + n.alt
	return r, h
}

// DHToRE returns the slant range and elevation that reach height h above sea
// level at ground distance d.
func (n Navigator) DHToRE(d, h float64) (r, e float64) {
	c := d / n.reff
	r2 := n.reff + h - n.alt
	x := r2 * math.Sin(c)
	y := r2*math.Cos(c) - n.reff
	return math.Hypot(x, y), math.Atan2(y, x)
}

// REToDH returns the ground distance and height above sea level of the point
// at slant range r along elevation e.
func (n Navigator) REToDH(r, e float64) (d, h float64) {
	hrel := math.Sqrt(r*r+n.reff*n.reff+2*r*n.reff*math.Sin(e)) - n.reff
	d = n.reff * math.Asin(r*math.Cos(e)/(n.reff+hrel))
	return d, hrel + n.alt
}

// LLToDA returns the great-circle distance (m) and the azimuth (radians,
// clockwise from north) from the site to lon/lat (degrees).
func (n Navigator) LLToDA(lonDeg, latDeg float64) (d, az float64) {
	lon := lonDeg * math.Pi / 180
	lat := latDeg * math.Pi / 180
	dlon := lon - n.lon
	dlat := lat - n.lat

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(n.lat)*math.Cos(lat)*math.Sin(dlon/2)*math.Sin(dlon/2)
	d = 2 * EarthRadius * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	y := math.Sin(dlon) * math.Cos(lat)
	x := math.Cos(n.lat)*math.Sin(lat) - math.Sin(n.lat)*math.Cos(lat)*math.Cos(dlon)
	az = math.Atan2(y, x)
	if az < 0 {
		az += 2 * math.Pi
	}
	return d, az
}

// DAToLL returns the lon/lat (degrees) reached from the site after distance d
// (m) along azimuth az (radians).
func (n Navigator) DAToLL(d, az float64) (lonDeg, latDeg float64) {
	delta := d / EarthRadius
	lat := math.Asin(math.Sin(n.lat)*math.Cos(delta) + math.Cos(n.lat)*math.Sin(delta)*math.Cos(az))
	lon := n.lon + math.Atan2(math.Sin(az)*math.Sin(delta)*math.Cos(n.lat),
		math.Cos(delta)-math.Sin(n.lat)*math.Sin(lat))
	return lon * 180 / math.Pi, lat * 180 / math.Pi
}

// Altitude returns the site height above sea level.
func (n Navigator) Altitude() float64 { return n.alt }
