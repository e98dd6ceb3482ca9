package composite

import (
	"math"

	"github.com/couchcryptid/radar-composite/internal/radar"
)

// interpolate blends the taps around the location. It only succeeds when
// every contributing tap is DATA; otherwise the caller keeps the dominant tap.
func interpolate(loc *location, quantity string, interp Interpolation) (float64, bool) {
	if interp.inHeight() && loc.lower != nil && loc.upper != nil {
		lo, ok := scanValue(*loc.lower, loc.azimuth, quantity, interp)
		if !ok {
			return 0, false
		}
		hi, ok := scanValue(*loc.upper, loc.azimuth, quantity, interp)
		if !ok {
			return 0, false
		}
		w := loc.upperWeight
		if interp.quadratic() {
			a, b := (1-w)*(1-w), w*w
			w = b / (a + b)
		}
		return lo*(1-w) + hi*w, true
	}
	if interp.inRange() || interp.inAzimuth() {
		return scanValue(loc.primary, loc.azimuth, quantity, interp)
	}
	return 0, false
}

// scanValue samples one scan with optional range and azimuth blending.
func scanValue(t tap, azimuth float64, quantity string, interp Interpolation) (float64, bool) {
	s := t.scan
	p := s.Param(quantity)
	if p == nil {
		return 0, false
	}

	r0, r1, ta := t.ray, t.ray, 0.0
	if interp.inAzimuth() {
		fa := azimuth/s.Beamwidth() - 0.5
		f := math.Floor(fa)
		ta = fa - f
		r0 = wrap(int(f), s.Rays)
		r1 = wrap(int(f)+1, s.Rays)
	}

	b0, b1, tb := t.bin, t.bin, 0.0
	if interp.inRange() {
		fb := (t.rng-s.RStart)/s.RScale - 0.5
		f := math.Floor(fb)
		if f >= 0 && int(f)+1 < s.Bins {
			b0, b1, tb = int(f), int(f)+1, fb-f
		}
	}

	taps := [4]struct {
		ray, bin int
		w        float64
	}{
		{r0, b0, (1 - ta) * (1 - tb)},
		{r0, b1, (1 - ta) * tb},
		{r1, b0, ta * (1 - tb)},
		{r1, b1, ta * tb},
	}
	var sum float64
	for _, tp := range taps {
		if tp.w == 0 {
			continue
		}
		vt, v := p.Value(tp.ray, tp.bin)
		if vt != radar.Data {
			return 0, false
		}
		sum += tp.w * v
	}
	return sum, true
}

func wrap(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}
