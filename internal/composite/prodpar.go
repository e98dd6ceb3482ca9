package composite

import (
	"math"
	"strconv"
	"strings"
)

// Prodpar is the parsed product parameter string. Fields that were absent or
// malformed are left unset and listed in Fallback; they are not errors.
type Prodpar struct {
	Height     float64
	Range      float64
	Elangle    float64 // radians
	HasHeight  bool
	HasRange   bool
	HasElangle bool
	Fallback   []string
}

// ParseProdpar interprets s for product p: a height for CAPPI and PCAPPI,
// "height[,range]" for PMAX and an elevation in degrees for PPI.
func ParseProdpar(p Product, s string) Prodpar {
	var pp Prodpar
	s = strings.TrimSpace(s)
	if s == "" {
		return pp
	}
	switch p {
	case CAPPI, PCAPPI:
		if v, ok := parseFloat(s); ok {
			pp.Height, pp.HasHeight = v, true
		} else {
			pp.Fallback = append(pp.Fallback, "height")
		}
	case PMAX:
		h, r, hasRange := strings.Cut(s, ",")
		if v, ok := parseFloat(h); ok {
			pp.Height, pp.HasHeight = v, true
		} else {
			pp.Fallback = append(pp.Fallback, "height")
		}
		if hasRange {
			if v, ok := parseFloat(r); ok {
				pp.Range, pp.HasRange = v, true
			} else {
				pp.Fallback = append(pp.Fallback, "range")
			}
		}
	case PPI:
		if v, ok := parseFloat(s); ok {
			pp.Elangle, pp.HasElangle = v*math.Pi/180, true
		} else {
			pp.Fallback = append(pp.Fallback, "elangle")
		}
	}
	return pp
}

// Apply configures e with the parsed values.
func (pp Prodpar) Apply(e *Engine) error {
	if pp.HasHeight {
		if err := e.SetHeight(pp.Height); err != nil {
			return err
		}
	}
	if pp.HasRange {
		if err := e.SetRange(pp.Range); err != nil {
			return err
		}
	}
	if pp.HasElangle {
		if err := e.SetElevationAngle(pp.Elangle); err != nil {
			return err
		}
	}
	return nil
}

func parseFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
