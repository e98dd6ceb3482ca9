package quality

import (
	"log/slog"
	"slices"

	"github.com/couchcryptid/radar-composite/internal/composite"
	"github.com/couchcryptid/radar-composite/internal/loader"
)

// Outcome is the result of running the detector chain over all inputs.
type Outcome struct {
	Entries []loader.Entry
	// Algorithm is the first algorithm any detector asked for, or nil.
	Algorithm composite.Algorithm
	// QualityFields is the ordered union of produced quality field names.
	QualityFields []string
}

// Pipeline applies registered detectors to loaded entries.
type Pipeline struct {
	registry *Registry
	logger   *slog.Logger
}

// NewPipeline creates a Pipeline reading detectors from registry.
func NewPipeline(registry *Registry, logger *slog.Logger) *Pipeline {
	return &Pipeline{registry: registry, logger: logger}
}

// Run processes entries in input order through the named detectors in the
// given order. Unknown detectors are skipped. A detector error leaves the
// object as it was and processing continues with the next detector.
func (p *Pipeline) Run(entries []loader.Entry, names []string, reprocess bool, mode Mode) Outcome {
	type named struct {
		name string
		d    Detector
	}
	var chain []named
	for _, name := range names {
		d, err := p.registry.Lookup(name)
		if err != nil {
			p.logger.Debug("skipping unregistered detector", "detector", name)
			continue
		}
		chain = append(chain, named{name, d})
	}

	out := Outcome{Entries: make([]loader.Entry, len(entries))}
	for i, e := range entries {
		obj := e.Object
		for _, c := range chain {
			res, err := c.d.Process(obj, reprocess, mode)
			if err != nil {
				p.logger.Warn("quality control failed, keeping object as is",
					"detector", c.name, "ref", e.Ref, "error", err)
				continue
			}
			if res == nil {
				continue
			}

			var fields []string
			var algo composite.Algorithm
			switch r := res.(type) {
			case ObjectOnly:
				fields = c.d.QualityFields()
			case WithFields:
				fields = r.Fields
			case WithAlgorithm:
				fields, algo = r.Fields, r.Algorithm
			}
			if algo == nil {
				algo = c.d.Algorithm()
			}
			if out.Algorithm == nil && algo != nil {
				out.Algorithm = algo
			}
			for _, f := range fields {
				if !slices.Contains(out.QualityFields, f) {
					out.QualityFields = append(out.QualityFields, f)
				}
			}
			obj = res.object()
		}
		out.Entries[i] = loader.Entry{Ref: e.Ref, Object: obj}
	}
	return out
}
