// Package product finalizes generated composites and persists them.
package product

import (
	"errors"
	"fmt"
	"time"

	"github.com/couchcryptid/radar-composite/internal/cartesian"
	"github.com/couchcryptid/radar-composite/internal/container"
	"github.com/couchcryptid/radar-composite/internal/radar"
)

// AttrProcessedAt records when the product was finalized.
const AttrProcessedAt = "how/processed_at"

// ErrNotComposite is returned by Open for containers holding polar data.
var ErrNotComposite = errors.New("container does not hold a composite")

// StampInfo is the provenance written into a finished product.
type StampInfo struct {
	// CenterID is the originating centre, e.g. ORG:82.
	CenterID string
	// Nodes is the quoted, comma-joined list of contributing radars.
	Nodes string
}

// Stamp rewrites the product source to "<center>,CMT:<source>" and records
// the contributing nodes and the processing time.
func Stamp(p *cartesian.Product, info StampInfo) {
	p.Source = fmt.Sprintf("%s,CMT:%s", info.CenterID, p.Source)
	if p.Attrs == nil {
		p.Attrs = radar.Attributes{}
	}
	p.Attrs[radar.AttrNodes] = info.Nodes
	p.Attrs[AttrProcessedAt] = clock.Now().UTC().Format(time.RFC3339)
}

// Save writes the product to path in the container format.
func Save(p *cartesian.Product, path string) error {
	if err := container.WriteProductFile(path, p); err != nil {
		return fmt.Errorf("save product %s: %w", path, err)
	}
	return nil
}

// Open reads a product written by Save.
func Open(path string) (*cartesian.Product, error) {
	c, err := container.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open product %s: %w", path, err)
	}
	if c.Product == nil {
		return nil, fmt.Errorf("%w: %s holds %s", ErrNotComposite, path, c.Kind)
	}
	return c.Product, nil
}

// ProcessedAt returns the time recorded by Stamp, or the zero time.
func ProcessedAt(p *cartesian.Product) time.Time {
	s, ok := p.Attrs.String(AttrProcessedAt)
	if !ok {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
