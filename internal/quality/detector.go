// Package quality runs quality-control detectors over loaded radar objects
// before they are composited.
package quality

import (
	"fmt"

	"github.com/couchcryptid/radar-composite/internal/composite"
	"github.com/couchcryptid/radar-composite/internal/radar"
)

// Mode controls whether detectors only annotate or also modify data.
type Mode int

const (
	Analyze Mode = iota
	AnalyzeAndApply
)

func (m Mode) String() string {
	if m == AnalyzeAndApply {
		return "analyze_and_apply"
	}
	return "analyze"
}

// ParseMode accepts analyze or analyze_and_apply.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "analyze", "":
		return Analyze, nil
	case "analyze_and_apply":
		return AnalyzeAndApply, nil
	}
	return 0, fmt.Errorf("unknown quality control mode %q", s)
}

// Result is what a detector hands back. It is one of ObjectOnly, WithFields
// or WithAlgorithm.
type Result interface {
	object() radar.Object
}

// ObjectOnly carries the processed object; the quality fields come from the
// detector's QualityFields.
type ObjectOnly struct {
	Object radar.Object
}

// WithFields carries the processed object and the quality fields it produced.
type WithFields struct {
	Object radar.Object
	Fields []string
}

// WithAlgorithm additionally carries the algorithm the composite should use.
type WithAlgorithm struct {
	Object    radar.Object
	Fields    []string
	Algorithm composite.Algorithm
}

func (r ObjectOnly) object() radar.Object    { return r.Object }
func (r WithFields) object() radar.Object    { return r.Object }
func (r WithAlgorithm) object() radar.Object { return r.Object }

// Detector annotates a radar object with quality information.
type Detector interface {
	// Process analyzes obj. With reprocess false an existing field for the
	// detector's task is kept untouched.
	Process(obj radar.Object, reprocess bool, mode Mode) (Result, error)
	// Algorithm is the selection override the detector wants, or nil.
	Algorithm() composite.Algorithm
	// QualityFields names the tasks the detector produces.
	QualityFields() []string
}
