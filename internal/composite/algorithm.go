package composite

import "github.com/couchcryptid/radar-composite/internal/radar"

// Sample is one contributor's reading at an output cell.
type Sample struct {
	Contributor int
	Quantity    string
	Scan        *radar.Scan
	Ray         int
	Bin         int
	Type        radar.ValueType
	Value       float64
	Distance    float64 // ground distance from the site, m
	Range       float64 // slant range, m
	Height      float64 // beam height above sea level, m
}

// Quality returns the converted value of the quality field with the given
// task at the sample's bin.
func (s Sample) Quality(task string) (float64, bool) {
	if s.Scan == nil {
		return 0, false
	}
	f := s.Scan.QualityFieldFor(s.Quantity, task)
	if f == nil {
		return 0, false
	}
	return f.Value(s.Ray, s.Bin), true
}

// Algorithm overrides the selection method. Choose receives the covered
// samples in contributor order and returns the index of the one to use, or -1
// to keep the method's choice.
type Algorithm interface {
	Name() string
	Choose(samples []Sample) int
}

// QualityAlgorithm picks the sample with the best value of a quality field.
// Lowest selects the minimum instead of the maximum. Ties keep the earlier
// contributor.
type QualityAlgorithm struct {
	Task   string
	Lowest bool
}

func (a QualityAlgorithm) Name() string {
	if a.Lowest {
		return "lowest:" + a.Task
	}
	return "highest:" + a.Task
}

func (a QualityAlgorithm) Choose(samples []Sample) int {
	best := -1
	var bestQ float64
	for i, s := range samples {
		if s.Type != radar.Data {
			continue
		}
		q, ok := s.Quality(a.Task)
		if !ok {
			continue
		}
		if best < 0 || (a.Lowest && q < bestQ) || (!a.Lowest && q > bestQ) {
			best, bestQ = i, q
		}
	}
	return best
}
