package quality

import (
	"math"

	"github.com/couchcryptid/radar-composite/internal/composite"
	"github.com/couchcryptid/radar-composite/internal/radar"
)

// Tasks of the builtin detectors.
const (
	SpeckleTask = "se.smhi.detector.speckle"
	PooTask     = "se.smhi.detector.poo"
)

// RegisterBuiltins registers the distance, height, speckle and poo detectors.
func RegisterBuiltins(r *Registry) error {
	builtins := map[string]Detector{
		"distance": DistanceDetector{},
		"height":   HeightDetector{},
		"speckle":  SpeckleDetector{},
		"poo":      PooDetector{},
	}
	for _, name := range []string{"distance", "height", "speckle", "poo"} {
		if err := r.Register(name, builtins[name]); err != nil {
			return err
		}
	}
	return nil
}

// annotate adds a field computed by fill to every scan of obj that does not
// already carry task, or to every scan when reprocess is set.
func annotate(obj radar.Object, task string, gain, offset float64, reprocess bool, fill func(*radar.Scan, *radar.Field)) error {
	for _, s := range obj.Scans() {
		if !reprocess && s.QualityFields.Find(task) != nil {
			continue
		}
		f := radar.NewField(task, s.Rays, s.Bins, gain, offset)
		fill(s, f)
		if err := s.AddQualityField(f); err != nil {
			return err
		}
	}
	return nil
}

// geometryField fills f with a per-bin geometric quantity.
func geometryField(s *radar.Scan, f *radar.Field, value func(d, h float64) float64) {
	nav := s.Navigator()
	for bin := range s.Bins {
		_, r := s.BinCenter(0, bin)
		d, h := nav.REToDH(r, s.Elangle)
		v := value(d, h)
		for ray := range s.Rays {
			f.SetValue(ray, bin, v)
		}
	}
}

// DistanceDetector records the ground distance of every bin from the radar.
type DistanceDetector struct{}

func (DistanceDetector) Process(obj radar.Object, reprocess bool, _ Mode) (Result, error) {
	err := annotate(obj, composite.DistanceTask, 1000, 0, reprocess, func(s *radar.Scan, f *radar.Field) {
		geometryField(s, f, func(d, _ float64) float64 { return d })
	})
	if err != nil {
		return nil, err
	}
	return ObjectOnly{Object: obj}, nil
}

func (DistanceDetector) Algorithm() composite.Algorithm { return nil }

func (DistanceDetector) QualityFields() []string { return []string{composite.DistanceTask} }

// HeightDetector records the beam centre height above sea level of every bin.
type HeightDetector struct{}

func (HeightDetector) Process(obj radar.Object, reprocess bool, _ Mode) (Result, error) {
	err := annotate(obj, composite.HeightTask, 100, 0, reprocess, func(s *radar.Scan, f *radar.Field) {
		geometryField(s, f, func(_, h float64) float64 { return h })
	})
	if err != nil {
		return nil, err
	}
	return ObjectOnly{Object: obj}, nil
}

func (HeightDetector) Algorithm() composite.Algorithm { return nil }

func (HeightDetector) QualityFields() []string { return []string{composite.HeightTask} }

// SpeckleDetector flags DATA bins of the default parameter that have no DATA
// neighbour. In analyze_and_apply mode those bins become undetect.
type SpeckleDetector struct{}

func (SpeckleDetector) Process(obj radar.Object, reprocess bool, mode Mode) (Result, error) {
	err := annotate(obj, SpeckleTask, 1, 0, reprocess, func(s *radar.Scan, f *radar.Field) {
		p := s.Default()
		for ray := range s.Rays {
			for bin := range s.Bins {
				f.SetValue(ray, bin, 1)
				if p == nil || !isolated(p, ray, bin) {
					continue
				}
				f.SetValue(ray, bin, 0)
				if mode == AnalyzeAndApply {
					p.SetRaw(ray, bin, p.Undetect)
				}
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return WithFields{Object: obj, Fields: []string{SpeckleTask}}, nil
}

func (SpeckleDetector) Algorithm() composite.Algorithm { return nil }

func (SpeckleDetector) QualityFields() []string { return []string{SpeckleTask} }

// isolated reports whether (ray, bin) is DATA with no DATA neighbour in the
// 3x3 window. Rays wrap around; bins do not.
func isolated(p *radar.Param, ray, bin int) bool {
	if vt, _ := p.Value(ray, bin); vt != radar.Data {
		return false
	}
	for dr := -1; dr <= 1; dr++ {
		r := (ray + dr + p.Rays) % p.Rays
		for db := -1; db <= 1; db++ {
			b := bin + db
			if (dr == 0 && db == 0) || b < 0 || b >= p.Bins {
				continue
			}
			if vt, _ := p.Value(r, b); vt == radar.Data {
				return false
			}
		}
	}
	return true
}

// PooDetector estimates the probability of overshooting from the beam height
// and asks the composite to prefer the lowest probability.
type PooDetector struct{}

// Beam heights above the radar bounding the overshooting ramp.
const (
	pooLow  = 2000.0
	pooHigh = 8000.0
)

func (PooDetector) Process(obj radar.Object, reprocess bool, _ Mode) (Result, error) {
	err := annotate(obj, PooTask, 1, 0, reprocess, func(s *radar.Scan, f *radar.Field) {
		geometryField(s, f, func(_, h float64) float64 {
			above := h - s.Height
			return math.Min(1, math.Max(0, (above-pooLow)/(pooHigh-pooLow)))
		})
	})
	if err != nil {
		return nil, err
	}
	return WithAlgorithm{
		Object:    obj,
		Fields:    []string{PooTask},
		Algorithm: PooDetector{}.Algorithm(),
	}, nil
}

func (PooDetector) Algorithm() composite.Algorithm {
	return composite.QualityAlgorithm{Task: PooTask, Lowest: true}
}

func (PooDetector) QualityFields() []string { return []string{PooTask} }
