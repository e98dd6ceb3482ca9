package service_test

import (
	"context"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/radar-composite/internal/compositing"
	"github.com/couchcryptid/radar-composite/internal/config"
	"github.com/couchcryptid/radar-composite/internal/container"
	"github.com/couchcryptid/radar-composite/internal/observability"
	"github.com/couchcryptid/radar-composite/internal/radar"
	"github.com/couchcryptid/radar-composite/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeScan(t *testing.T, dir, name, source string, lon, lat float64) string {
	t.Helper()
	s := &radar.Scan{
		Source: source, Date: "20240501", Time: "120000",
		Lon: lon, Lat: lat, Height: 100,
		Elangle: 0.5 * math.Pi / 180, RScale: 2000, Rays: 360, Bins: 60,
	}
	p := radar.NewParam("DBZH", 360, 60, 0.5, -32, 255, 0)
	for i := range p.Data {
		p.Data[i] = 100
	}
	require.NoError(t, s.AddParam(p))
	path := filepath.Join(dir, name)
	require.NoError(t, container.WriteObjectFile(path, radar.ScanObject(s)))
	return path
}

func TestBuild_FilesOnly(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{CenterID: "ORG:82", DumpPath: filepath.Join(dir, "dump")}

	c, err := service.Build(context.Background(), cfg, discardLogger(), observability.NewMetricsForTesting())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, c.Close()) })

	assert.Nil(t, c.Profiles)
	assert.Contains(t, c.Detectors.Names(), "speckle")

	opts := service.DefaultOptions(cfg)
	assert.Equal(t, cfg.DumpPath, opts.DumpDir)
	opts.DumpDir = ""
	opts.XScale, opts.YScale = 4000, 4000
	opts.Inputs = []string{
		writeScan(t, dir, "a.rcf", "NOD:sea", 14, 56),
		writeScan(t, dir, "b.rcf", "NOD:seb", 15.5, 56.5),
	}

	res, err := c.Generator.Generate(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Contributors)
	assert.Equal(t, "'sea','seb'", res.Nodes)
	assert.Equal(t, "ORG:82,CMT:auto-generated best-fit", res.Product.Source)
}

func TestBuild_Profiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	require.NoError(t, os.WriteFile(path, []byte("profiles:\n  maxcomp:\n    product: max\n"), 0o600))

	c, err := service.Build(context.Background(), &config.Config{ProfileFile: path}, discardLogger(), observability.NewMetricsForTesting())
	require.NoError(t, err)
	assert.Equal(t, []string{"maxcomp"}, c.Profiles.Names())

	opts := compositing.DefaultOptions()
	p, err := c.Profiles.Lookup("maxcomp")
	require.NoError(t, err)
	require.NoError(t, p.Apply(&opts))
	assert.Equal(t, "MAX", opts.Product.String())
}

func TestBuild_Errors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		cfg  config.Config
	}{
		{"missing area registry", config.Config{AreaRegistryFile: filepath.Join(dir, "areas.yaml")}},
		{"missing profile file", config.Config{ProfileFile: filepath.Join(dir, "profiles.toml")}},
		{"unreachable database", config.Config{GRADatabaseURL: "postgres://gra@127.0.0.1:1/gra?sslmode=disable&connect_timeout=1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Build(context.Background(), &tt.cfg, discardLogger(), observability.NewMetricsForTesting())
			assert.Error(t, err)
		})
	}
}
