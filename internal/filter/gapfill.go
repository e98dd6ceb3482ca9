// Package filter holds post-processing steps applied to generated composites.
package filter

import (
	"github.com/couchcryptid/radar-composite/internal/cartesian"
	"github.com/couchcryptid/radar-composite/internal/radar"
)

// GapFill replaces every interior undetect cell whose four direct neighbours
// are all DATA with their mean and returns the number of filled cells.
// Neighbours are read from the unfilled data.
func GapFill(p *cartesian.Parameter) int {
	src := append([]float64(nil), p.Data...)
	at := func(x, y int) (radar.ValueType, float64) {
		return p.Classify(src[y*p.XSize+x]), src[y*p.XSize+x]
	}

	filled := 0
	for y := 1; y < p.YSize-1; y++ {
		for x := 1; x < p.XSize-1; x++ {
			if vt, _ := at(x, y); vt != radar.Undetect {
				continue
			}
			var sum float64
			ok := true
			for _, n := range [4][2]int{{x - 1, y}, {x + 1, y}, {x, y - 1}, {x, y + 1}} {
				vt, raw := at(n[0], n[1])
				if vt != radar.Data {
					ok = false
					break
				}
				sum += raw
			}
			if ok {
				p.SetRaw(x, y, sum/4)
				filled++
			}
		}
	}
	return filled
}
