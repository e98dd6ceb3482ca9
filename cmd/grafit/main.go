// Command grafit fits gauge radar adjustment coefficients from paired gauge
// and radar accumulations and stores them for the compositor.
//
// The samples file is CSV with a header and the columns distance_m,
// gauge_mm and radar_mm. The database comes from GRA_DATABASE_URL.
//
//	go run ./cmd/grafit -samples pairs.csv -d 20240501 -t 120000
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/couchcryptid/radar-composite/internal/adapter/postgres"
	"github.com/couchcryptid/radar-composite/internal/config"
	"github.com/couchcryptid/radar-composite/internal/gra"
	"github.com/couchcryptid/radar-composite/internal/observability"
)

// store persists fitted coefficients valid from a point in time.
type store interface {
	Save(ctx context.Context, at time.Time, c gra.Coefficients, samples int) error
}

type options struct {
	samples string
	date    string
	time    string
	dryRun  bool
}

func main() {
	var opts options
	flag.StringVar(&opts.samples, "samples", "", "CSV file of distance_m,gauge_mm,radar_mm")
	flag.StringVar(&opts.date, "d", "", "valid from date, YYYYMMDD")
	flag.StringVar(&opts.time, "t", "", "valid from time, HHmmss")
	flag.BoolVar(&opts.dryRun, "dry-run", false, "print the fit without storing it")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := observability.NewLogger(cfg)
	ctx := context.Background()

	var s store
	if !opts.dryRun {
		if cfg.GRADatabaseURL == "" {
			logger.Error("GRA_DATABASE_URL is required unless -dry-run is set")
			os.Exit(2)
		}
		db, err := postgres.Connect(ctx, cfg.GRADatabaseURL)
		if err != nil {
			logger.Error("failed to connect to coefficient database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		pg := postgres.NewCoefficientStore(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			logger.Error("failed to ensure schema", "error", err)
			os.Exit(1)
		}
		s = pg
	}

	if err := run(ctx, opts, s, os.Stdout, logger); err != nil {
		logger.Error("fit failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, s store, stdout io.Writer, logger *slog.Logger) error {
	if opts.samples == "" {
		return errors.New("-samples is required")
	}
	at, err := gra.ParseDateTime(opts.date, opts.time)
	if err != nil {
		return err
	}

	f, err := os.Open(opts.samples)
	if err != nil {
		return err
	}
	defer f.Close()
	samples, err := readSamples(f)
	if err != nil {
		return fmt.Errorf("%s: %w", opts.samples, err)
	}

	c, err := gra.Fit(samples)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "valid_at=%s samples=%d a=%g b=%g c=%g\n",
		at.Format(time.RFC3339), len(samples), c.A, c.B, c.C)

	if s == nil {
		return nil
	}
	if err := s.Save(ctx, at, c, len(samples)); err != nil {
		return err
	}
	logger.Info("stored gra coefficients", "valid_at", at, "samples", len(samples))
	return nil
}

func readSamples(r io.Reader) ([]gra.Sample, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 3
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.New("no samples")
	}

	samples := make([]gra.Sample, 0, len(records)-1)
	for i, rec := range records[1:] {
		var v [3]float64
		for j, field := range rec {
			if v[j], err = strconv.ParseFloat(field, 64); err != nil {
				return nil, fmt.Errorf("line %d column %d: %w", i+2, j+1, err)
			}
		}
		samples = append(samples, gra.Sample{Distance: v[0], Gauge: v[1], Radar: v[2]})
	}
	return samples, nil
}
