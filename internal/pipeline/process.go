package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/couchcryptid/radar-composite/internal/compositing"
	"github.com/couchcryptid/radar-composite/internal/job"
	"github.com/couchcryptid/radar-composite/internal/product"
	"github.com/couchcryptid/radar-composite/internal/profile"
)

// Generator builds a composite from resolved options.
type Generator interface {
	Generate(ctx context.Context, opts compositing.Options) (compositing.Result, error)
}

// CompositeProcessor implements Processor by running a Generator and saving
// the product under an output directory.
type CompositeProcessor struct {
	generator Generator
	profiles  *profile.Set
	defaults  compositing.Options
	outputDir string
	logger    *slog.Logger
}

// NewProcessor creates a CompositeProcessor. defaults are the options every
// request starts from. profiles may be nil when no profile file is configured.
func NewProcessor(g Generator, profiles *profile.Set, defaults compositing.Options, outputDir string, logger *slog.Logger) *CompositeProcessor {
	return &CompositeProcessor{
		generator: g,
		profiles:  profiles,
		defaults:  defaults,
		outputDir: outputDir,
		logger:    logger,
	}
}

func (p *CompositeProcessor) Process(ctx context.Context, raw job.Raw) (job.Completion, error) {
	req, err := job.Decode(raw.Value)
	if err != nil {
		return job.Completion{}, err
	}
	opts, err := req.Options(p.defaults, p.profiles)
	if err != nil {
		return job.Completion{}, err
	}

	p.logger.Info("processing composite job", "job_id", req.ID, "inputs", len(req.Inputs), "profile", req.ProfileName)
	res, err := p.generator.Generate(ctx, opts)
	if err != nil {
		return job.Completion{}, fmt.Errorf("job %s: %w", req.ID, err)
	}

	path := filepath.Join(p.outputDir, req.FileName())
	if err := product.Save(res.Product, path); err != nil {
		return job.Completion{}, fmt.Errorf("job %s: %w", req.ID, err)
	}

	return job.Completion{
		JobID:        req.ID,
		Path:         path,
		Source:       res.Product.Source,
		Product:      res.Product.ProductType,
		Area:         res.Product.AreaID,
		Date:         res.Product.Date,
		Time:         res.Product.Time,
		Nodes:        res.Nodes,
		Contributors: res.Contributors,
		GRA:          res.GRA,
		Malfunc:      res.AllFilesMalfunc,
		ProcessedAt:  product.ProcessedAt(res.Product),
	}, nil
}
