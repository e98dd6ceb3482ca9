package area_test

import (
	"errors"
	"math"
	"testing"

	"github.com/couchcryptid/radar-composite/internal/area"
	"github.com/couchcryptid/radar-composite/internal/geo"
	"github.com/couchcryptid/radar-composite/internal/radar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scanAt(t *testing.T, source string, lon, lat float64) radar.Object {
	t.Helper()
	s := &radar.Scan{
		Source: source, Date: "20240501", Time: "120000",
		Lon: lon, Lat: lat, Height: 50,
		Elangle: 0.5 * math.Pi / 180, RScale: 1000,
		Rays: 360, Bins: 100, Attrs: radar.Attributes{},
	}
	require.NoError(t, s.AddParam(radar.NewParam("DBZH", 360, 100, 0.5, -32, 255, 0)))
	return radar.ScanObject(s)
}

func gmaps(t *testing.T) *geo.Projection {
	t.Helper()
	p, err := geo.NewProjection("gmaps", "Google Maps", geo.GmapsDefinition)
	require.NoError(t, err)
	return p
}

func TestBestFit_SingleObject(t *testing.T) {
	proj := gmaps(t)
	obj := scanAt(t, "WMO:02588,NOD:sekkr", 14.0, 56.0)

	a, err := area.BestFit([]radar.Object{obj}, proj, "gmaps", 2000, 2000)
	require.NoError(t, err)
	assert.Equal(t, "auto_gmaps_sekkr", a.ID)
	assert.Same(t, proj, a.Projection)

	// The UR corner sits on the grid anchored at LL.
	assert.InDelta(t, a.Extent.LLX+float64(a.XSize)*a.XScale, a.Extent.URX, 1e-6)
	assert.InDelta(t, a.Extent.LLY+float64(a.YSize)*a.YScale, a.Extent.URY, 1e-6)

	// The site and a point 90 km east of it are inside.
	for _, lon := range []float64{14.0, 14.0 + 90.0/(111.2*math.Cos(56*math.Pi/180))} {
		x, y, err := proj.Forward(lon, 56.0)
		require.NoError(t, err)
		_, _, ok := a.Cell(x, y)
		assert.True(t, ok, "lon %g", lon)
	}

	// Roughly 2x100 km wide, stretched by the mercator scale factor.
	width := a.Extent.URX - a.Extent.LLX
	assert.InDelta(t, 200000/math.Cos(56*math.Pi/180), width, 10000)
}

func TestBestFit_MultipleObjects(t *testing.T) {
	proj := gmaps(t)
	objs := []radar.Object{
		scanAt(t, "NOD:sekkr", 14.0, 56.0),
		scanAt(t, "NOD:seang", 16.0, 58.0),
	}

	a, err := area.BestFit(objs, proj, "gmaps", 2000, 2000)
	require.NoError(t, err)
	assert.Equal(t, area.MultiObjectID, a.ID)

	single, err := area.BestFit(objs[:1], proj, "gmaps", 2000, 2000)
	require.NoError(t, err)
	assert.Greater(t, a.XSize, single.XSize)
	assert.Greater(t, a.YSize, single.YSize)
}

func TestBestFit_Errors(t *testing.T) {
	_, err := area.BestFit(nil, gmaps(t), "gmaps", 2000, 2000)
	assert.True(t, errors.Is(err, area.ErrNoObjects))

	obj := scanAt(t, "NOD:sekkr", 14.0, 56.0)
	_, err = area.BestFit([]radar.Object{obj}, gmaps(t), "gmaps", 0, 2000)
	assert.Error(t, err)
	_, err = area.BestFit([]radar.Object{obj}, nil, "gmaps", 2000, 2000)
	assert.Error(t, err)
}
