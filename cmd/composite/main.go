// Command composite generates one Cartesian composite from polar radar files
// or object store UUIDs and writes it to a container file.
//
// Usage:
//
//	go run ./cmd/composite \
//	  -i sekkr.rcf,seang.rcf,sevax.rcf \
//	  -o swecomp.rcf -a swegmaps_2000 -p PCAPPI -y 1000 \
//	  -c se.smhi.composite.distance.radar -G
//
// Service configuration (CENTER_ID, AREA_REGISTRY_FILE, PROFILE_FILE,
// OBJECT_STORE_URL, GRA_DATABASE_URL, REDIS_ADDR, CLOUD_TYPE_DIR) is read from
// the environment as for the job service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/couchcryptid/radar-composite/internal/compositing"
	"github.com/couchcryptid/radar-composite/internal/config"
	"github.com/couchcryptid/radar-composite/internal/gra"
	"github.com/couchcryptid/radar-composite/internal/observability"
	"github.com/couchcryptid/radar-composite/internal/product"
	"github.com/couchcryptid/radar-composite/internal/profile"
	"github.com/couchcryptid/radar-composite/internal/service"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

// invocation is a parsed command line.
type invocation struct {
	output      string
	profileName string
	verbose     bool
	overrides   profile.Profile
	inputs      []string
	date, time  string
	dump        string
}

func run(args []string, stdout io.Writer) error {
	inv, err := parseArgs(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cfg.LogFormat = "text"
	if inv.verbose {
		cfg.LogLevel = "debug"
	}
	logger := observability.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	components, err := service.Build(ctx, cfg, logger, observability.NewMetrics())
	if err != nil {
		return err
	}
	defer func() { _ = components.Close() }()

	opts, err := inv.options(service.DefaultOptions(cfg), components.Profiles)
	if err != nil {
		return err
	}

	res, err := components.Generator.Generate(ctx, opts)
	if err != nil {
		return err
	}
	if err := product.Save(res.Product, inv.output); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "wrote %s: %s %s %s%s, %d contributors (%s)\n",
		inv.output, res.Product.ProductType, res.Product.AreaID,
		res.Product.Date, res.Product.Time, res.Contributors, res.Nodes)
	if res.GRA != "" {
		fmt.Fprintf(stdout, "gra corrected with %s coefficients\n", res.GRA)
	}
	return nil
}

func parseArgs(args []string) (invocation, error) {
	fs := flag.NewFlagSet("composite", flag.ContinueOnError)

	var inv invocation
	inputs := fs.String("i", "", "comma separated input files or object store UUIDs")
	fs.StringVar(&inv.output, "o", "", "output file")
	fs.StringVar(&inv.profileName, "profile", "", "named profile from PROFILE_FILE")
	fs.StringVar(&inv.profileName, "name", "", "alias for -profile")
	fs.BoolVar(&inv.verbose, "V", false, "verbose logging")
	fs.StringVar(&inv.date, "d", "", "nominal date YYYYMMDD")
	fs.StringVar(&inv.time, "t", "", "nominal time HHmmss")
	fs.StringVar(&inv.dump, "dump", "", "directory receiving the quality controlled inputs")

	o := &inv.overrides
	fs.StringVar(&o.Area, "a", "", "area id; empty selects a best fit")
	detectors := fs.String("c", "", "comma separated quality control chain")
	scale := fs.String("s", "", "best fit grid spacing in meters")
	fs.StringVar(&o.Quantity, "q", "", "quantity")
	fs.StringVar(&o.Product, "p", "", "product: PPI, CAPPI, PCAPPI, PMAX or MAX")
	fs.StringVar(&o.Prodpar, "P", "", "product parameters: height or elevation, or height,range for PMAX")
	rng := fs.String("r", "", "PMAX search range in meters")
	gain := fs.String("g", "", "output gain")
	offset := fs.String("O", "", "output offset")
	fs.StringVar(&o.Method, "m", "", "selection method")
	fs.StringVar(&o.QITotalField, "Q", "", "QI-total quality field")
	applyGRA := fs.Bool("G", false, "apply gauge radar adjustment")
	ctfilter := fs.Bool("C", false, "apply cloud type filter")
	elangle := fs.String("A", "", "PPI elevation angle in degrees")
	height := fs.String("y", "", "CAPPI/PCAPPI height in meters")
	zr := fs.String("z", "", "Z-R relation A,b for the adjustment")
	gapfill := fs.Bool("F", false, "fill single cell gaps")
	ignoreMalfunc := fs.Bool("I", false, "ignore malfunctioning inputs")
	fs.StringVar(&o.PCS, "pcs", "", "projection for best fit areas")
	fs.StringVar(&o.Interpolation, "interpolation", "", "interpolation method")
	fs.StringVar(&o.QCMode, "qc-mode", "", "analyze or analyze_and_apply")
	reprocess := fs.Bool("reprocess", false, "rerun detectors over existing quality fields")

	if err := fs.Parse(args); err != nil {
		return invocation{}, err
	}
	if inv.output == "" {
		fs.Usage()
		return invocation{}, errors.New("missing required flag: -o")
	}
	inv.inputs = splitList(*inputs)
	o.Detectors = splitList(*detectors)

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	floats := []struct {
		name string
		raw  string
		dst  **float64
	}{
		{"r", *rng, &o.Range},
		{"g", *gain, &o.Gain},
		{"O", *offset, &o.Offset},
		{"A", *elangle, &o.Elangle},
		{"y", *height, &o.Height},
		{"s", *scale, &o.XScale},
	}
	for _, f := range floats {
		if !set[f.name] {
			continue
		}
		v, err := strconv.ParseFloat(f.raw, 64)
		if err != nil {
			return invocation{}, fmt.Errorf("invalid -%s %q", f.name, f.raw)
		}
		*f.dst = &v
	}
	o.YScale = o.XScale

	if set["z"] {
		a, b, ok := strings.Cut(*zr, ",")
		za, errA := strconv.ParseFloat(a, 64)
		zb, errB := strconv.ParseFloat(b, 64)
		if !ok || errA != nil || errB != nil {
			return invocation{}, fmt.Errorf("invalid -z %q, want A,b", *zr)
		}
		if err := (gra.ZR{A: za, B: zb}).Validate(); err != nil {
			return invocation{}, fmt.Errorf("invalid -z %q: %w", *zr, err)
		}
		o.ZRA, o.ZRB = &za, &zb
	}

	bools := map[string]struct {
		v   *bool
		dst **bool
	}{
		"G":         {applyGRA, &o.GRA},
		"C":         {ctfilter, &o.CTFilter},
		"F":         {gapfill, &o.GapFill},
		"I":         {ignoreMalfunc, &o.IgnoreMalfunc},
		"reprocess": {reprocess, &o.Reprocess},
	}
	for name, b := range bools {
		if set[name] {
			*b.dst = b.v
		}
	}
	return inv, nil
}

// options layers the profile and the command line over base.
func (inv invocation) options(base compositing.Options, profiles *profile.Set) (compositing.Options, error) {
	opts := base
	if inv.profileName != "" {
		p, err := profiles.Lookup(inv.profileName)
		if err != nil {
			return compositing.Options{}, err
		}
		if err := p.Apply(&opts); err != nil {
			return compositing.Options{}, err
		}
	}
	if err := inv.overrides.Apply(&opts); err != nil {
		return compositing.Options{}, err
	}
	opts.Inputs = inv.inputs
	opts.Date, opts.Time = inv.date, inv.time
	if inv.dump != "" {
		opts.DumpDir = inv.dump
	}
	return opts, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
