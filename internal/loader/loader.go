// Package loader fetches the polar objects that feed one composite.
package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/couchcryptid/radar-composite/internal/observability"
	"github.com/couchcryptid/radar-composite/internal/radar"
	"github.com/couchcryptid/radar-composite/internal/storage"
)

// Entry is one loaded input, keyed by the reference it was loaded from.
type Entry struct {
	Ref    string
	Object radar.Object
}

// Result is the outcome of fetching a list of references.
type Result struct {
	// Entries are in input order.
	Entries []Entry
	// Nodes is the comma-joined, single-quoted node list, one per entry.
	Nodes string
	// HowTasks is the comma-joined how/task list of the entries.
	HowTasks string
	// AllFilesMalfunc is true when at least one input was dropped for
	// malfunction and nothing remains.
	AllFilesMalfunc bool
}

// Objects returns the loaded objects in input order.
func (r Result) Objects() []radar.Object {
	out := make([]radar.Object, len(r.Entries))
	for i, e := range r.Entries {
		out[i] = e.Object
	}
	return out
}

// Fetcher loads inputs through a storage provider.
type Fetcher struct {
	provider storage.Provider
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// New creates a Fetcher.
func New(provider storage.Provider, logger *slog.Logger, metrics *observability.Metrics) *Fetcher {
	return &Fetcher{provider: provider, logger: logger, metrics: metrics}
}

// Fetch loads every reference in order. Unreadable and non-polar inputs are
// logged and skipped. When opts.IgnoreMalfunc is set, malfunctioning objects
// are dropped and malfunctioning scans pruned from volumes. Only context
// cancellation is returned as an error.
func (f *Fetcher) Fetch(ctx context.Context, refs []string, opts storage.LoadOptions) (Result, error) {
	var (
		res      Result
		nodes    []string
		tasks    []string
		malfuncs int
	)

	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		obj, err := f.provider.Open(ctx, ref, opts)
		if err != nil {
			if ctx.Err() != nil {
				return Result{}, ctx.Err()
			}
			f.skip(ref, reasonFor(err), "failed to open input", "error", err)
			continue
		}

		if !obj.IsPolar() {
			f.skip(ref, "not_polar", "input is neither polar scan nor volume, ignoring")
			continue
		}
		if err := obj.Validate(); err != nil {
			f.skip(ref, "invalid", "input rasters do not match their geometry, ignoring", "error", err)
			continue
		}

		if opts.IgnoreMalfunc {
			if dropped, why := dropMalfunctioning(obj); dropped {
				malfuncs++
				f.skip(ref, "malfunc", why)
				continue
			}
		}

		node := obj.Node()
		nodes = append(nodes, fmt.Sprintf("'%s'", node))
		tasks = appendTasks(tasks, obj)
		res.Entries = append(res.Entries, Entry{Ref: ref, Object: obj})

		date, tm := obj.DateTime()
		f.logger.Debug("input used in composite generation",
			"ref", ref, "node", node, "date", date, "time", tm)
	}

	res.Nodes = strings.Join(nodes, ",")
	res.HowTasks = strings.Join(tasks, ",")
	res.AllFilesMalfunc = malfuncs > 0 && len(res.Entries) == 0
	return res, nil
}

func (f *Fetcher) skip(ref, reason, msg string, args ...any) {
	f.logger.Warn(msg, append([]any{"ref", ref, "reason", reason}, args...)...)
	if f.metrics != nil {
		f.metrics.InputsSkipped.WithLabelValues(reason).Inc()
	}
}

func reasonFor(err error) string {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return "not_found"
	default:
		return "io"
	}
}

// dropMalfunctioning reports whether obj must be dropped, pruning
// malfunctioning scans from volumes as a side effect.
func dropMalfunctioning(obj radar.Object) (bool, string) {
	if obj.Malfunctioning() {
		return true, "input flagged malfunctioning, ignoring"
	}
	if obj.Kind == radar.KindVolume && obj.PruneMalfunctioning() > 0 && len(obj.Volume.Scans) == 0 {
		return true, "every scan of volume flagged malfunctioning, ignoring"
	}
	return false, ""
}

func appendTasks(tasks []string, obj radar.Object) []string {
	if t, ok := obj.Attrs().String(radar.AttrTask); ok && t != "" {
		return append(tasks, t)
	}
	var own []string
	for _, s := range obj.Scans() {
		if t, ok := s.Attrs.String(radar.AttrTask); ok && t != "" && !slices.Contains(own, t) {
			own = append(own, t)
		}
	}
	return append(tasks, own...)
}
