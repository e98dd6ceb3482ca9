// Command genfixture writes synthetic polar radar files for demos and
// integration tests. Radars are placed on a line through the centre point
// and observe the same convective cell, so their coverage overlaps in a
// composite.
//
// Usage:
//
//	go run ./cmd/genfixture -o data/fixtures -n 3 -kind pvol -date 20240501 -time 120000
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/couchcryptid/radar-composite/internal/container"
	"github.com/couchcryptid/radar-composite/internal/radar"
)

// cell is a Gaussian reflectivity core.
type cell struct {
	lon, lat float64
	peak     float64 // dBZ
	radius   float64 // degrees
}

func (c cell) dbz(lon, lat float64) float64 {
	d2 := (lon-c.lon)*(lon-c.lon) + (lat-c.lat)*(lat-c.lat)
	return c.peak * math.Exp(-d2/(2*c.radius*c.radius))
}

type params struct {
	dir       string
	n         int
	lon, lat  float64
	spacingKm float64
	kind      string
	date, tm  string
	seed      uint64
	uuidNames bool
	malfunc   int
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	var p params
	flag.StringVar(&p.dir, "o", "", "output directory")
	flag.IntVar(&p.n, "n", 3, "number of radars")
	flag.Float64Var(&p.lon, "lon", 15, "centre longitude")
	flag.Float64Var(&p.lat, "lat", 58, "centre latitude")
	flag.Float64Var(&p.spacingKm, "spacing", 150, "distance between radars in km")
	flag.StringVar(&p.kind, "kind", "scan", "scan or pvol")
	flag.StringVar(&p.date, "date", "20240501", "nominal date YYYYMMDD")
	flag.StringVar(&p.tm, "time", "120000", "nominal time HHmmss")
	flag.Uint64Var(&p.seed, "seed", 1, "noise seed")
	flag.BoolVar(&p.uuidNames, "uuid-names", false, "name files by UUID for object store fixtures")
	flag.IntVar(&p.malfunc, "malfunc", -1, "index of a radar to flag as malfunctioning")
	flag.Parse()

	if p.dir == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -o")
	}
	if p.kind != "scan" && p.kind != "pvol" {
		return fmt.Errorf("unknown kind %q", p.kind)
	}
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return err
	}

	rng := rand.New(rand.NewPCG(p.seed, p.seed^0x9e3779b97f4a7c15))
	storm := cell{lon: p.lon, lat: p.lat, peak: 55, radius: 0.35}

	// One degree of longitude shrinks with latitude.
	step := p.spacingKm / (111.32 * math.Cos(p.lat*math.Pi/180))
	first := p.lon - step*float64(p.n-1)/2

	for i := range p.n {
		node := fmt.Sprintf("fx%03d", i+1)
		site := siteInfo{node: node, lon: first + step*float64(i), lat: p.lat, height: 100}
		obj, err := buildObject(p, site, storm, rng)
		if err != nil {
			return err
		}
		if i == p.malfunc {
			obj.Attrs()[radar.AttrMalfunc] = "True"
		}

		name := fmt.Sprintf("%s_%s_%s_%s%s", p.kind, node, p.date, p.tm, container.Extension)
		if p.uuidNames {
			name = uuid.NewString()
		}
		path := filepath.Join(p.dir, name)
		if err := container.WriteObjectFile(path, obj); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		log.Printf("wrote %s (%s at %.3fE %.3fN)", path, node, site.lon, site.lat)
	}
	return nil
}

type siteInfo struct {
	node             string
	lon, lat, height float64
}

func buildObject(p params, site siteInfo, storm cell, rng *rand.Rand) (radar.Object, error) {
	source := "NOD:" + site.node
	if p.kind == "scan" {
		s, err := buildScan(p, site, source, 0.5, storm, rng)
		if err != nil {
			return radar.Object{}, err
		}
		return radar.ScanObject(s), nil
	}

	v := &radar.Volume{
		Source: source, Date: p.date, Time: p.tm,
		Lon: site.lon, Lat: site.lat, Height: site.height,
		Attrs: radar.Attributes{},
	}
	for _, e := range []float64{0.5, 1.0, 2.0, 4.0} {
		s, err := buildScan(p, site, source, e, storm, rng)
		if err != nil {
			return radar.Object{}, err
		}
		if err := v.AddScan(s); err != nil {
			return radar.Object{}, err
		}
	}
	return radar.VolumeObject(v), nil
}

func buildScan(p params, site siteInfo, source string, elangleDeg float64, storm cell, rng *rand.Rand) (*radar.Scan, error) {
	const (
		rays   = 360
		bins   = 240
		rscale = 1000.0
	)
	s := &radar.Scan{
		Source: source, Date: p.date, Time: p.tm,
		Lon: site.lon, Lat: site.lat, Height: site.height,
		Elangle: elangleDeg * math.Pi / 180, RScale: rscale,
		Rays: rays, Bins: bins,
		Attrs: radar.Attributes{radar.AttrTask: "se.smhi.fixture"},
	}
	dbzh := radar.NewParam("DBZH", rays, bins, 0.5, -32, 255, 0)
	nav := s.Navigator()
	for ray := range rays {
		az := (float64(ray) + 0.5) * 2 * math.Pi / rays
		for bin := range bins {
			d, _ := nav.REToDH((float64(bin)+0.5)*rscale, s.Elangle)
			lon, lat := nav.DAToLL(d, az)
			v := storm.dbz(lon, lat) - elangleDeg*2
			switch {
			case rng.Float64() < 0.002:
				dbzh.SetValue(ray, bin, 30+rng.Float64()*10) // isolated clutter
			case v < 5:
				dbzh.SetRaw(ray, bin, dbzh.Undetect)
			default:
				dbzh.SetValue(ray, bin, v+rng.NormFloat64())
			}
		}
	}
	if err := s.AddParam(dbzh); err != nil {
		return nil, err
	}
	return s, nil
}
