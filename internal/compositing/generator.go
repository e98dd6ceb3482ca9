// Package compositing orchestrates one composite: fetch, quality control,
// area resolution, generation and post-processing.
package compositing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/couchcryptid/radar-composite/internal/area"
	"github.com/couchcryptid/radar-composite/internal/cartesian"
	"github.com/couchcryptid/radar-composite/internal/composite"
	"github.com/couchcryptid/radar-composite/internal/filter"
	"github.com/couchcryptid/radar-composite/internal/geo"
	"github.com/couchcryptid/radar-composite/internal/gra"
	"github.com/couchcryptid/radar-composite/internal/loader"
	"github.com/couchcryptid/radar-composite/internal/observability"
	"github.com/couchcryptid/radar-composite/internal/product"
	"github.com/couchcryptid/radar-composite/internal/quality"
	"github.com/couchcryptid/radar-composite/internal/radar"
	"github.com/couchcryptid/radar-composite/internal/storage"
)

var (
	// ErrCannotComposite is returned when no input survived and no date/time
	// was given to label an empty composite.
	ErrCannotComposite = errors.New("can not create a composite without a valid date/time when no objects are provided")
	// ErrNoArea is returned when there is nothing to fit an area to and none was named.
	ErrNoArea = errors.New("no area given and no objects to derive one from")
)

// Deps are the collaborators of a Generator. Coefficients and CloudTypes are
// optional.
type Deps struct {
	Fetcher      *loader.Fetcher
	Quality      *quality.Pipeline
	Areas        *geo.Registry
	Coefficients gra.CoefficientStore
	CloudTypes   filter.CloudTypeProvider
	CenterID     string
	GRALookback  time.Duration
	Logger       *slog.Logger
	Metrics      *observability.Metrics
}

// Generator produces composites.
type Generator struct {
	deps Deps
}

// New creates a Generator.
func New(d Deps) *Generator {
	return &Generator{deps: d}
}

// Result is a finished composite with its provenance.
type Result struct {
	Product         *cartesian.Product
	Nodes           string
	HowTasks        string
	Contributors    int
	AllFilesMalfunc bool
	// GRA is the coefficient source used, or empty when no correction was applied.
	GRA string
}

// Generate builds one composite. Unreadable inputs, failing detectors and a
// failing GRA correction are logged and skipped.
func (g *Generator) Generate(ctx context.Context, opts Options) (Result, error) {
	start := time.Now()
	log := g.deps.Logger

	log.Debug("generating composite",
		"inputs", len(opts.Inputs), "product", opts.Product, "quantity", opts.Quantity,
		"method", opts.Method, "area", opts.AreaID, "detectors", opts.Detectors)

	load := storage.LoadOptions{IgnoreMalfunc: opts.IgnoreMalfunc}
	if opts.RestrictQuantity {
		load.Quantity = opts.Quantity
	}
	fetched, err := g.deps.Fetcher.Fetch(ctx, opts.Inputs, load)
	if err != nil {
		return Result{}, fmt.Errorf("fetch inputs: %w", err)
	}
	if fetched.AllFilesMalfunc {
		log.Warn("all inputs flagged malfunctioning", "inputs", len(opts.Inputs))
	}

	checked := g.deps.Quality.Run(fetched.Entries, opts.Detectors, opts.Reprocess, opts.QCMode)
	objects := loader.Result{Entries: checked.Entries}.Objects()

	if opts.DumpDir != "" {
		g.dump(opts.DumpDir, objects)
	}

	if len(objects) == 0 {
		log.Info("no objects provided to the composite generator")
		if opts.Date == "" || opts.Time == "" {
			return Result{}, ErrCannotComposite
		}
	}

	target, err := g.resolveArea(opts, objects)
	if err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	engine, err := g.configure(opts, checked.Algorithm)
	if err != nil {
		return Result{}, err
	}
	for i, obj := range objects {
		if err := engine.Add(obj); err != nil {
			log.Warn("skipping input rejected by engine", "ref", checked.Entries[i].Ref, "error", err)
		}
	}

	if opts.QITotalField != "" && !hasQualityIndex(checked.QualityFields) {
		log.Warn("qi total requested without a quality index field, it will stay empty",
			"field", opts.QITotalField, "quality_fields", checked.QualityFields)
	}

	log.Info("generating cartesian composite", "area", target.ID, "contributors", engine.Contributors())
	prod, err := engine.Generate(target, checked.QualityFields)
	if err != nil {
		return Result{}, fmt.Errorf("generate composite: %w", err)
	}

	res := Result{
		Product:         prod,
		Nodes:           fetched.Nodes,
		HowTasks:        fetched.HowTasks,
		Contributors:    engine.Contributors(),
		AllFilesMalfunc: fetched.AllFilesMalfunc,
	}

	if opts.ApplyCTFilter {
		g.applyCTFilter(ctx, prod, opts.Quantity)
	}
	if opts.ApplyGRA {
		res.GRA = g.applyGRA(ctx, prod, opts, checked.QualityFields)
	}
	if opts.ApplyGapFill {
		if p := prod.Parameter(opts.Quantity); p != nil {
			log.Debug("applied gap filling", "filled", filter.GapFill(p))
		}
	}

	product.Stamp(prod, product.StampInfo{CenterID: g.deps.CenterID, Nodes: fetched.Nodes})

	g.deps.Metrics.Contributors.Observe(float64(res.Contributors))
	g.deps.Metrics.GenerateDuration.Observe(time.Since(start).Seconds())
	return res, nil
}

// hasQualityIndex reports whether any field feeds the combined quality
// index. Distance and height are diagnostics, not quality indices.
func hasQualityIndex(fields []string) bool {
	for _, f := range fields {
		if f != composite.DistanceTask && f != composite.HeightTask {
			return true
		}
	}
	return false
}

func (g *Generator) resolveArea(opts Options, objects []radar.Object) (*geo.Area, error) {
	if opts.AreaID != "" {
		a, err := g.deps.Areas.Area(opts.AreaID)
		if err != nil {
			return nil, fmt.Errorf("resolve area: %w", err)
		}
		return a, nil
	}
	if len(objects) == 0 {
		return nil, ErrNoArea
	}

	g.deps.Logger.Info("determining best fit for area", "pcs", opts.PCSID, "xscale", opts.XScale, "yscale", opts.YScale)
	proj, err := g.deps.Areas.Projection(opts.PCSID)
	if err != nil {
		return nil, fmt.Errorf("best fit: %w", err)
	}
	return area.BestFit(objects, proj, opts.PCSID, opts.XScale, opts.YScale)
}

func (g *Generator) configure(opts Options, algorithm composite.Algorithm) (*composite.Engine, error) {
	e := composite.NewEngine()
	steps := []func() error{
		func() error { return e.SetProduct(opts.Product) },
		func() error { return e.SetHeight(opts.Height) },
		func() error { return e.SetElevationAngle(opts.Elangle) },
		func() error { return e.SetRange(opts.Range) },
		func() error { return e.SetSelectionMethod(opts.Method) },
		func() error { return e.SetInterpolation(opts.Interpolation) },
		func() error { return e.AddParameter(opts.Quantity, opts.Gain, opts.Offset) },
		func() error { return e.SetDateTime(opts.Date, opts.Time) },
	}
	if opts.QITotalField != "" {
		steps = append(steps, func() error { return e.SetQITotal(opts.QITotalField, opts.QIMode) })
	}
	if algorithm != nil {
		steps = append(steps, func() error { return e.SetAlgorithm(algorithm) })
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, fmt.Errorf("configure engine: %w", err)
		}
	}

	if opts.Prodpar != "" {
		pp := composite.ParseProdpar(opts.Product, opts.Prodpar)
		if len(pp.Fallback) > 0 {
			g.deps.Logger.Warn("malformed product parameters, keeping defaults",
				"prodpar", opts.Prodpar, "fallback", pp.Fallback)
		}
		if err := pp.Apply(e); err != nil {
			return nil, fmt.Errorf("configure engine: %w", err)
		}
	}
	return e, nil
}

func (g *Generator) applyCTFilter(ctx context.Context, prod *cartesian.Product, quantity string) {
	log := g.deps.Logger
	if g.deps.CloudTypes == nil {
		log.Warn("ct filter requested without a cloud type source, skipping")
		return
	}
	ct, ok, err := g.deps.CloudTypes.CloudType(ctx, prod)
	switch {
	case err != nil:
		log.Warn("failed to load cloud type, skipping ct filter", "error", err)
		return
	case !ok:
		log.Info("no cloud type available, skipping ct filter", "date", prod.Date, "time", prod.Time)
		return
	}
	n, err := filter.CTFilter(prod, quantity, ct)
	if err != nil {
		log.Warn("ct filter failed", "error", err)
		return
	}
	log.Debug("applied ct filter", "filtered", n)
}

// applyGRA adds the corrected parameter to prod and returns the coefficient
// source, or "" when the correction was not applied.
func (g *Generator) applyGRA(ctx context.Context, prod *cartesian.Product, opts Options, qfields []string) string {
	log := g.deps.Logger
	outcomes := g.deps.Metrics.GRAOutcomes

	if !slices.Contains(qfields, composite.DistanceTask) {
		log.Info("gra requested without a quality plugin producing the distance field, disabling",
			"field", composite.DistanceTask)
		outcomes.WithLabelValues("skipped").Inc()
		return ""
	}

	at, err := gra.ParseDateTime(prod.Date, prod.Time)
	if err != nil {
		log.Error("failed to apply gra coefficients", "error", err)
		outcomes.WithLabelValues("failed").Inc()
		return ""
	}
	resolved := gra.Resolve(ctx, g.deps.Coefficients, at.Add(-g.deps.GRALookback), log)

	c := gra.NewCorrector(resolved.Coefficients)
	c.ZR = opts.ZR
	log.Info("applying gra analysis", "zr_a", c.ZR.A, "zr_b", c.ZR.B, "source", resolved.Source)

	corrected, err := c.Apply(prod, opts.Quantity)
	if err == nil {
		err = prod.AddParameter(corrected)
	}
	if err != nil {
		log.Error("failed to apply gra coefficients", "error", err)
		outcomes.WithLabelValues("failed").Inc()
		return ""
	}

	if resolved.Source == gra.SourceStore {
		outcomes.WithLabelValues("applied").Inc()
	} else {
		outcomes.WithLabelValues("climatology").Inc()
	}
	return resolved.Source
}
