package gra

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// CoefficientStore looks up fitted coefficients. ok is false when nothing is
// stored for the requested time.
type CoefficientStore interface {
	Coefficients(ctx context.Context, at time.Time) (c Coefficients, ok bool, err error)
}

// Where resolved coefficients came from.
const (
	SourceStore       = "store"
	SourceClimatology = "climatology"
)

// Resolution is the outcome of a coefficient lookup.
type Resolution struct {
	Coefficients Coefficients
	Source       string
}

// Resolve looks up coefficients valid at at. A missing store, a failed lookup,
// an empty result or non-finite coefficients fall back to climatology.
func Resolve(ctx context.Context, store CoefficientStore, at time.Time, logger *slog.Logger) Resolution {
	climatology := Resolution{Coefficients: Climatology, Source: SourceClimatology}
	if store == nil {
		logger.Info("no gra coefficient store configured, using climatological coefficients")
		return climatology
	}

	c, ok, err := store.Coefficients(ctx, at)
	switch {
	case err != nil:
		logger.Warn("gra coefficient lookup failed, using climatological coefficients",
			"at", at, "error", err)
		return climatology
	case !ok:
		logger.Info("no gra coefficients found for given date/time, using climatological coefficients",
			"at", at)
		return climatology
	case !c.Valid():
		logger.Info("stored gra coefficients are not finite, using climatological coefficients",
			"at", at, "a", c.A, "b", c.B, "c", c.C)
		return climatology
	}
	logger.Debug("applying gra coefficients from store", "at", at, "a", c.A, "b", c.B, "c", c.C)
	return Resolution{Coefficients: c, Source: SourceStore}
}

// ParseDateTime parses a product date (YYYYMMDD) and time (HHMMSS) as UTC.
// Seconds are ignored.
func ParseDateTime(date, tm string) (time.Time, error) {
	if len(tm) < 4 {
		return time.Time{}, fmt.Errorf("gra: malformed time %q", tm)
	}
	t, err := time.Parse("200601021504", date+tm[:4])
	if err != nil {
		return time.Time{}, fmt.Errorf("gra: malformed date/time %s %s: %w", date, tm, err)
	}
	return t, nil
}
