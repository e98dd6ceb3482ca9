package radar

import (
	"fmt"
	"slices"
)

// Volume is an ordered set of scans from one site.
type Volume struct {
	Source string `json:"source"`
	Date   string `json:"date"`
	Time   string `json:"time"`

	Lon    float64 `json:"lon"`
	Lat    float64 `json:"lat"`
	Height float64 `json:"height"`

	Scans []*Scan    `json:"scans"`
	Attrs Attributes `json:"attrs,omitempty"`
}

// AddScan appends a scan. Scans from another site are rejected.
func (v *Volume) AddScan(s *Scan) error {
	if s.Lon != v.Lon || s.Lat != v.Lat || s.Height != v.Height {
		return fmt.Errorf("scan site (%g, %g, %g) differs from volume site (%g, %g, %g)",
			s.Lon, s.Lat, s.Height, v.Lon, v.Lat, v.Height)
	}
	v.Scans = append(v.Scans, s)
	return nil
}

// SortByElevation orders scans by ascending elevation angle.
func (v *Volume) SortByElevation() {
	slices.SortStableFunc(v.Scans, func(a, b *Scan) int {
		switch {
		case a.Elangle < b.Elangle:
			return -1
		case a.Elangle > b.Elangle:
			return 1
		default:
			return 0
		}
	})
}

// Malfunctioning reports whether the volume itself carries a truthy how/malfunc.
func (v *Volume) Malfunctioning() bool {
	return isMalfunc(v.Attrs)
}

// MaxRange returns the largest slant range among the scans.
func (v *Volume) MaxRange() float64 {
	var m float64
	for _, s := range v.Scans {
		m = max(m, s.MaxRange())
	}
	return m
}

// Clone returns a deep copy.
func (v *Volume) Clone() *Volume {
	c := *v
	c.Attrs = v.Attrs.Clone()
	c.Scans = make([]*Scan, len(v.Scans))
	for i, s := range v.Scans {
		c.Scans[i] = s.Clone()
	}
	return &c
}
