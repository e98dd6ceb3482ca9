package geo

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const deg = math.Pi / 180

func TestNavigator_RoundTrips(t *testing.T) {
	nav := NewNavigator(16.0, 58.0, 150)

	t.Run("DE to RH and back", func(t *testing.T) {
		for _, e := range []float64{0.5 * deg, 1.5 * deg, 4 * deg, 15 * deg} {
			for _, d := range []float64{1000, 50000, 120000, 240000} {
				r, h := nav.DEToRH(d, e)
				d2, h2 := nav.REToDH(r, e)
				assert.InDelta(t, d, d2, 0.01)
				assert.InDelta(t, h, h2, 0.01)

				r3, e3 := nav.DHToRE(d, h)
				assert.InDelta(t, r, r3, 0.01)
				assert.InDelta(t, e, e3, 1e-9)
			}
		}
	})

	t.Run("LL to DA and back", func(t *testing.T) {
		for _, az := range []float64{0, 45 * deg, 170 * deg, 300 * deg} {
			lon, lat := nav.DAToLL(100000, az)
			d, az2 := nav.LLToDA(lon, lat)
			assert.InDelta(t, 100000, d, 0.5)
			assert.InDelta(t, az, az2, 1e-6)
		}
	})
}

func TestNavigator_BeamRisesWithDistance(t *testing.T) {
	nav := NewNavigator(16.0, 58.0, 100)

	_, near := nav.DEToRH(10000, 0.5*deg)
	_, far := nav.DEToRH(200000, 0.5*deg)
	assert.Greater(t, near, 100.0)
	assert.Greater(t, far, near)

	// At zero distance the beam sits at the antenna.
	r, h := nav.DEToRH(0, 0.5*deg)
	assert.InDelta(t, 0, r, 1e-6)
	assert.InDelta(t, 100, h, 1e-6)
}

func TestProjection_ForwardInverse(t *testing.T) {
	p, err := NewProjection("gmaps", "Google Maps", GmapsDefinition)
	require.NoError(t, err)

	x, y, err := p.Forward(16.0, 58.0)
	require.NoError(t, err)
	assert.Greater(t, x, 0.0)
	assert.Greater(t, y, 0.0)

	lon, lat, err := p.Inverse(x, y)
	require.NoError(t, err)
	assert.InDelta(t, 16.0, lon, 1e-6)
	assert.InDelta(t, 58.0, lat, 1e-6)
}

func TestProjection_InvalidDefinition(t *testing.T) {
	_, err := NewProjection("bad", "", "+proj=doesnotexist")
	assert.Error(t, err)

	_, err = NewProjection("laea", "", "+proj=laea +lat_0=60 +lon_0=15 +ellps=WGS84 +units=m +no_defs")
	assert.Error(t, err, "unsupported projections are rejected up front")
}

func TestProjection_LongLatIsIdentity(t *testing.T) {
	p, err := NewProjection("ll", "", LongLatDefinition)
	require.NoError(t, err)
	x, y, err := p.Forward(15, 60)
	require.NoError(t, err)
	assert.InDelta(t, 15, x, 1e-9)
	assert.InDelta(t, 60, y, 1e-9)
}

func TestRegistry_InvalidProjectionDefinition(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)
	err = r.Decode([]byte(`
projections:
  - id: typo
    definition: "+proj=mecr +ellps=WGS84"
`))
	assert.Error(t, err)
}

func TestArea_CellCenterAndCell(t *testing.T) {
	a := &Area{
		ID: "test", XSize: 10, YSize: 5, XScale: 1000, YScale: 2000,
		Extent: Extent{LLX: 0, LLY: 0, URX: 10000, URY: 10000},
	}

	px, py := a.CellCenter(0, 0)
	assert.Equal(t, 500.0, px)
	assert.Equal(t, 9000.0, py)

	x, y, ok := a.Cell(px, py)
	require.True(t, ok)
	assert.Equal(t, 0, x)
	assert.Equal(t, 0, y)

	_, _, ok = a.Cell(-1, 5000)
	assert.False(t, ok)
	_, _, ok = a.Cell(5000, 10001)
	assert.False(t, ok)
}

func TestRegistry(t *testing.T) {
	doc := `
projections:
  - id: sweref99tm
    description: SWEREF 99 TM
    definition: "+proj=utm +zone=33 +ellps=GRS80 +towgs84=0,0,0,0,0,0,0 +units=m +no_defs"
areas:
  - id: nrd2km
    description: Nordic 2 km
    projection: gmaps
    xsize: 100
    ysize: 80
    xscale: 2000
    yscale: 2000
    extent: {llx: 1000000, lly: 7000000, urx: 1200000, ury: 7160000}
`
	path := filepath.Join(t.TempDir(), "areas.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	r, err := LoadRegistry(path)
	require.NoError(t, err)

	a, err := r.Area("nrd2km")
	require.NoError(t, err)
	assert.Equal(t, 100, a.XSize)
	assert.Equal(t, "gmaps", a.Projection.ID)
	assert.Equal(t, 7160000.0, a.Extent.URY)

	p, err := r.Projection("sweref99tm")
	require.NoError(t, err)
	x, _, err := p.Forward(15, 60)
	require.NoError(t, err)
	assert.InDelta(t, 500000, x, 1)

	_, err = r.Area("missing")
	assert.True(t, errors.Is(err, ErrUnknownArea))
}

func TestRegistry_UnknownProjection(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	err = r.Decode([]byte(`
areas:
  - id: a
    projection: nope
    xsize: 1
    ysize: 1
    xscale: 1
    yscale: 1
`))
	assert.True(t, errors.Is(err, ErrUnknownProjection))
}

func TestLoadRegistry_EmptyPath(t *testing.T) {
	r, err := LoadRegistry("")
	require.NoError(t, err)
	_, err = r.Projection("gmaps")
	assert.NoError(t, err)
}
