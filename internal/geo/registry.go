package geo

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// ErrUnknownArea is returned when an area id is not registered.
var ErrUnknownArea = errors.New("unknown area")

// ErrUnknownProjection is returned when a projection id is not registered.
var ErrUnknownProjection = errors.New("unknown projection")

// Registry holds the named projections and areas available to compositing.
// It is populated at startup and read concurrently afterwards.
type Registry struct {
	mu          sync.RWMutex
	projections map[string]*Projection
	areas       map[string]*Area
}

// NewRegistry returns a registry containing the builtin "gmaps" projection.
func NewRegistry() (*Registry, error) {
	r := &Registry{
		projections: make(map[string]*Projection),
		areas:       make(map[string]*Area),
	}
	gmaps, err := NewProjection("gmaps", "Google Maps", GmapsDefinition)
	if err != nil {
		return nil, err
	}
	r.projections[gmaps.ID] = gmaps
	return r, nil
}

// AddProjection registers p, replacing any projection with the same id.
func (r *Registry) AddProjection(p *Projection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.projections[p.ID] = p
}

// Projection looks up a projection by id.
func (r *Registry) Projection(id string) (*Projection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.projections[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProjection, id)
	}
	return p, nil
}

// AddArea registers a, replacing any area with the same id.
func (r *Registry) AddArea(a *Area) error {
	if err := a.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.areas[a.ID] = a
	return nil
}

// Area looks up an area by id.
func (r *Registry) Area(id string) (*Area, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.areas[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownArea, id)
	}
	return a, nil
}

// registryFile is the on-disk YAML layout.
type registryFile struct {
	Projections []struct {
		ID          string `yaml:"id"`
		Description string `yaml:"description"`
		Definition  string `yaml:"definition"`
	} `yaml:"projections"`
	Areas []struct {
		ID          string  `yaml:"id"`
		Description string  `yaml:"description"`
		Projection  string  `yaml:"projection"`
		XSize       int     `yaml:"xsize"`
		YSize       int     `yaml:"ysize"`
		XScale      float64 `yaml:"xscale"`
		YScale      float64 `yaml:"yscale"`
		Extent      Extent  `yaml:"extent"`
	} `yaml:"areas"`
}

// LoadRegistry reads projections and areas from a YAML file on top of the
// builtin projections. An empty path yields the builtins only.
func LoadRegistry(path string) (*Registry, error) {
	r, err := NewRegistry()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return r, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read area registry: %w", err)
	}
	if err := r.Decode(data); err != nil {
		return nil, fmt.Errorf("area registry %s: %w", path, err)
	}
	return r, nil
}

// Decode adds the projections and areas described by a YAML document.
func (r *Registry) Decode(data []byte) error {
	var f registryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	for _, p := range f.Projections {
		proj, err := NewProjection(p.ID, p.Description, p.Definition)
		if err != nil {
			return err
		}
		r.AddProjection(proj)
	}
	for _, a := range f.Areas {
		proj, err := r.Projection(a.Projection)
		if err != nil {
			return fmt.Errorf("area %s: %w", a.ID, err)
		}
		area := &Area{
			ID:          a.ID,
			Description: a.Description,
			XSize:       a.XSize,
			YSize:       a.YSize,
			XScale:      a.XScale,
			YScale:      a.YScale,
			Extent:      a.Extent,
			Projection:  proj,
		}
		if err := r.AddArea(area); err != nil {
			return err
		}
	}
	return nil
}
