package gra

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrTooFewSamples is returned when a fit has fewer than three usable pairs.
var ErrTooFewSamples = errors.New("gra: too few samples to fit")

// Sample is one gauge observation paired with the radar estimate over it.
type Sample struct {
	Distance float64 // ground distance to the nearest radar, m
	Gauge    float64 // accumulation, mm
	Radar    float64 // accumulation, mm
}

// Fit estimates coefficients by least squares of the gauge/radar ratio in dB
// against distance in km. Pairs where either accumulation is not positive are
// ignored.
func Fit(samples []Sample) (Coefficients, error) {
	var rows [][3]float64
	var obs []float64
	for _, s := range samples {
		if s.Gauge <= 0 || s.Radar <= 0 || math.IsNaN(s.Distance) {
			continue
		}
		d := s.Distance / 1000
		rows = append(rows, [3]float64{1, d, d * d})
		obs = append(obs, 10*math.Log10(s.Gauge/s.Radar))
	}
	if len(rows) < 3 {
		return Coefficients{}, fmt.Errorf("%w: %d usable of %d", ErrTooFewSamples, len(rows), len(samples))
	}

	x := mat.NewDense(len(rows), 3, nil)
	for i, r := range rows {
		x.SetRow(i, r[:])
	}
	y := mat.NewVecDense(len(obs), obs)

	var beta mat.VecDense
	if err := beta.SolveVec(x, y); err != nil {
		return Coefficients{}, fmt.Errorf("gra: least squares: %w", err)
	}
	c := Coefficients{A: beta.AtVec(0), B: beta.AtVec(1), C: beta.AtVec(2)}
	if !c.Valid() {
		return Coefficients{}, errors.New("gra: fit produced non-finite coefficients")
	}
	return c, nil
}
