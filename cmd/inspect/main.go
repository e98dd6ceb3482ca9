// Command inspect prints a summary of container files: polar scans and
// volumes or generated composites.
//
// Usage:
//
//	go run ./cmd/inspect data/fixtures/*.rcf out/swecomp.rcf
package main

import (
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"text/tabwriter"

	"github.com/couchcryptid/radar-composite/internal/cartesian"
	"github.com/couchcryptid/radar-composite/internal/container"
	"github.com/couchcryptid/radar-composite/internal/radar"
)

func main() {
	flag.Parse()
	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: inspect FILE...")
		os.Exit(2)
	}

	failed := 0
	for _, path := range flag.Args() {
		if err := inspect(os.Stdout, path); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			failed++
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func inspect(w io.Writer, path string) error {
	c, err := container.ReadFile(path)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "== %s (%s)\n", path, c.Kind)
	switch {
	case c.Product != nil:
		describeProduct(tw, c.Product)
	case c.Object.IsPolar():
		describeObject(tw, c.Object)
	default:
		fmt.Fprintln(tw, "no radar content")
	}
	return tw.Flush()
}

func describeObject(w io.Writer, obj radar.Object) {
	date, tm := obj.DateTime()
	lon, lat, height := obj.Site()
	fmt.Fprintf(w, "source\t%s\n", obj.Source())
	fmt.Fprintf(w, "node\t%s\n", obj.Node())
	fmt.Fprintf(w, "nominal\t%s %s\n", date, tm)
	fmt.Fprintf(w, "site\t%.4fE %.4fN %.0fm\n", lon, lat, height)
	fmt.Fprintf(w, "malfunc\t%t\n", obj.Malfunctioning())
	fmt.Fprintf(w, "max range\t%.0fm\n", obj.MaxRange())
	fmt.Fprintln(w, "elangle\trays\tbins\trscale\tquantities\tquality fields")
	for _, s := range obj.Scans() {
		quantities := make([]string, 0, len(s.Params))
		for _, p := range s.Params {
			quantities = append(quantities, p.Quantity)
		}
		fmt.Fprintf(w, "%.2f\t%d\t%d\t%.0f\t%v\t%d\n",
			s.Elangle*180/math.Pi, s.Rays, s.Bins, s.RScale, quantities, len(s.QualityFields))
	}
}

func describeProduct(w io.Writer, p *cartesian.Product) {
	fmt.Fprintf(w, "source\t%s\n", p.Source)
	fmt.Fprintf(w, "nominal\t%s %s\n", p.Date, p.Time)
	fmt.Fprintf(w, "product\t%s\n", p.ProductType)
	fmt.Fprintf(w, "area\t%s %dx%d @ %.0fx%.0fm\n", p.AreaID, p.XSize, p.YSize, p.XScale, p.YScale)
	if nodes, ok := p.Attrs.String(radar.AttrNodes); ok {
		fmt.Fprintf(w, "nodes\t%s\n", nodes)
	}
	fmt.Fprintln(w, "quantity\tgain\toffset\tdata\tundetect\tnodata\tmin\tmax")
	for _, param := range p.Params {
		s := summarize(param)
		fmt.Fprintf(w, "%s\t%g\t%g\t%d\t%d\t%d\t%s\t%s\n",
			param.Quantity, param.Gain, param.Offset, s.data, s.undetect, s.nodata,
			formatValue(s.min), formatValue(s.max))
	}
	for _, f := range p.QualityFields {
		fmt.Fprintf(w, "quality\t%s\n", f.Task())
	}
}

type stats struct {
	data, undetect, nodata int
	min, max               float64
}

func summarize(p *cartesian.Parameter) stats {
	s := stats{min: math.Inf(1), max: math.Inf(-1)}
	for y := range p.YSize {
		for x := range p.XSize {
			t, v := p.Value(x, y)
			switch t {
			case radar.Data:
				s.data++
				s.min = math.Min(s.min, v)
				s.max = math.Max(s.max, v)
			case radar.Undetect:
				s.undetect++
			default:
				s.nodata++
			}
		}
	}
	return s
}

func formatValue(v float64) string {
	if math.IsInf(v, 0) {
		return "-"
	}
	return fmt.Sprintf("%.2f", v)
}
