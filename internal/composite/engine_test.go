package composite_test

import (
	"errors"
	"math"
	"testing"

	"github.com/couchcryptid/radar-composite/internal/cartesian"
	"github.com/couchcryptid/radar-composite/internal/composite"
	"github.com/couchcryptid/radar-composite/internal/geo"
	"github.com/couchcryptid/radar-composite/internal/radar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	deg = math.Pi / 180

	lonA, latA = 14.0, 56.0
	lonB, latB = 15.0, 56.0
)

// uniformScan builds a 360x120 PPI scan at 1 km resolution holding one value.
func uniformScan(t *testing.T, source string, lon, lat, elangleDeg, value float64) *radar.Scan {
	t.Helper()
	s := &radar.Scan{
		Source: source, Date: "20240501", Time: "120000",
		Lon: lon, Lat: lat, Height: 0,
		Elangle: elangleDeg * deg, RStart: 0, RScale: 1000,
		Rays: 360, Bins: 120,
		Attrs: radar.Attributes{},
	}
	p := radar.NewParam("DBZH", 360, 120, 1, 0, 255, 0)
	for i := range p.Data {
		p.Data[i] = value
	}
	require.NoError(t, s.AddParam(p))
	return s
}

func withQuality(t *testing.T, s *radar.Scan, task string, value float64) {
	t.Helper()
	f := radar.NewField(task, s.Rays, s.Bins, 1, 0)
	for i := range f.Data {
		f.Data[i] = value
	}
	require.NoError(t, s.AddQualityField(f))
}

// testArea covers both test sites with a 200 km margin at 2 km resolution.
func testArea(t *testing.T) *geo.Area {
	t.Helper()
	p, err := geo.NewProjection("gmaps", "", geo.GmapsDefinition)
	require.NoError(t, err)
	xa, ya, err := p.Forward(lonA, latA)
	require.NoError(t, err)
	xb, yb, err := p.Forward(lonB, latB)
	require.NoError(t, err)

	const margin, scale = 200000.0, 2000.0
	llx, lly := math.Min(xa, xb)-margin, math.Min(ya, yb)-margin
	urx, ury := math.Max(xa, xb)+margin, math.Max(ya, yb)+margin
	xsize := int(math.Ceil((urx - llx) / scale))
	ysize := int(math.Ceil((ury - lly) / scale))
	return &geo.Area{
		ID: "testarea", XSize: xsize, YSize: ysize, XScale: scale, YScale: scale,
		Extent:     geo.Extent{LLX: llx, LLY: lly, URX: llx + float64(xsize)*scale, URY: lly + float64(ysize)*scale},
		Projection: p,
	}
}

func cellOf(t *testing.T, a *geo.Area, lon, lat float64) (int, int) {
	t.Helper()
	x, y, err := a.Projection.Forward(lon, lat)
	require.NoError(t, err)
	cx, cy, ok := a.Cell(x, y)
	require.True(t, ok)
	return cx, cy
}

func ppiEngine(t *testing.T, method composite.SelectionMethod) *composite.Engine {
	t.Helper()
	e := composite.NewEngine()
	require.NoError(t, e.SetProduct(composite.PPI))
	require.NoError(t, e.SetElevationAngle(0.5*deg))
	require.NoError(t, e.SetSelectionMethod(method))
	require.NoError(t, e.AddParameter("DBZH", 1, 0))
	return e
}

func valueAt(t *testing.T, prod *cartesian.Product, x, y int) (radar.ValueType, float64) {
	t.Helper()
	return prod.DefaultParameter().Value(x, y)
}

func TestGenerate_NearestRadar(t *testing.T) {
	area := testArea(t)
	e := ppiEngine(t, composite.NearestRadar)
	require.NoError(t, e.Add(radar.ScanObject(uniformScan(t, "NOD:sea", lonA, latA, 0.5, 10))))
	require.NoError(t, e.Add(radar.ScanObject(uniformScan(t, "NOD:seb", lonB, latB, 0.5, 20))))

	prod, err := e.Generate(area, nil)
	require.NoError(t, err)

	xa, ya := cellOf(t, area, lonA, latA)
	vt, v := valueAt(t, prod, xa, ya)
	assert.Equal(t, radar.Data, vt)
	assert.Equal(t, 10.0, v)

	xb, yb := cellOf(t, area, lonB, latB)
	_, v = valueAt(t, prod, xb, yb)
	assert.Equal(t, 20.0, v)

	// Corners are out of range of both radars.
	vt, _ = valueAt(t, prod, 0, 0)
	assert.Equal(t, radar.Nodata, vt)

	assert.Equal(t, "20240501", prod.Date)
	assert.Equal(t, "120000", prod.Time)
	assert.Equal(t, "testarea", prod.Source)
	assert.Equal(t, "PPI", prod.ProductType)
}

func TestGenerate_TieBreakEarliestWins(t *testing.T) {
	area := testArea(t)
	x, y := cellOf(t, area, lonA+0.3, latA)

	for _, order := range [][2]float64{{10, 20}, {20, 10}} {
		e := ppiEngine(t, composite.NearestRadar)
		require.NoError(t, e.Add(radar.ScanObject(uniformScan(t, "NOD:one", lonA, latA, 0.5, order[0]))))
		require.NoError(t, e.Add(radar.ScanObject(uniformScan(t, "NOD:two", lonA, latA, 0.5, order[1]))))
		prod, err := e.Generate(area, nil)
		require.NoError(t, err)
		_, v := valueAt(t, prod, x, y)
		assert.Equal(t, order[0], v)
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	area := testArea(t)
	methods := []composite.SelectionMethod{
		composite.NearestRadar, composite.HeightAboveSealevel, composite.First,
		composite.MinValue, composite.MaxValue, composite.AvgValue,
	}
	for _, m := range methods {
		t.Run(m.String(), func(t *testing.T) {
			run := func() []float64 {
				e := ppiEngine(t, m)
				require.NoError(t, e.Add(radar.ScanObject(uniformScan(t, "NOD:sea", lonA, latA, 0.5, 10))))
				require.NoError(t, e.Add(radar.ScanObject(uniformScan(t, "NOD:seb", lonB, latB, 0.5, 20))))
				prod, err := e.Generate(area, []string{composite.DistanceTask})
				require.NoError(t, err)
				return prod.DefaultParameter().Data
			}
			assert.Equal(t, run(), run())
		})
	}
}

func TestGenerate_ValueMethods(t *testing.T) {
	area := testArea(t)
	// Midway between the sites both radars cover the cell.
	x, y := cellOf(t, area, (lonA+lonB)/2, latA)

	tests := []struct {
		method composite.SelectionMethod
		want   float64
	}{
		{composite.First, 10},
		{composite.MinValue, 10},
		{composite.MaxValue, 20},
		{composite.AvgValue, 15},
	}
	for _, tt := range tests {
		t.Run(tt.method.String(), func(t *testing.T) {
			e := ppiEngine(t, tt.method)
			require.NoError(t, e.Add(radar.ScanObject(uniformScan(t, "NOD:sea", lonA, latA, 0.5, 10))))
			require.NoError(t, e.Add(radar.ScanObject(uniformScan(t, "NOD:seb", lonB, latB, 0.5, 20))))
			prod, err := e.Generate(area, nil)
			require.NoError(t, err)
			_, v := valueAt(t, prod, x, y)
			assert.InDelta(t, tt.want, v, 1e-9)
		})
	}
}

func TestGenerate_HeightAboveSealevel(t *testing.T) {
	area := testArea(t)
	x, y := cellOf(t, area, lonA+0.2, latA)

	e := ppiEngine(t, composite.HeightAboveSealevel)
	require.NoError(t, e.SetElevationAngle(0))
	high := uniformScan(t, "NOD:high", lonA, latA, 0.5, 10)
	high.Height = 800
	low := uniformScan(t, "NOD:low", lonA, latA, 0.5, 20)
	require.NoError(t, e.Add(radar.ScanObject(high)))
	require.NoError(t, e.Add(radar.ScanObject(low)))

	prod, err := e.Generate(area, []string{composite.HeightTask})
	require.NoError(t, err)
	_, v := valueAt(t, prod, x, y)
	assert.Equal(t, 20.0, v)

	hf := prod.FindQualityField("DBZH", composite.HeightTask)
	require.NotNil(t, hf)
	assert.Equal(t, composite.HeightGain, hf.Gain())
	assert.Greater(t, hf.Value(x, y), 0.0)
	assert.Less(t, hf.Value(x, y), 800.0)
}

func TestGenerate_UndetectAndNodata(t *testing.T) {
	area := testArea(t)
	e := ppiEngine(t, composite.NearestRadar)
	s := uniformScan(t, "NOD:sea", lonA, latA, 0.5, 0) // raw 0 is undetect
	require.NoError(t, e.Add(radar.ScanObject(s)))

	prod, err := e.Generate(area, nil)
	require.NoError(t, err)
	x, y := cellOf(t, area, lonA, latA)
	vt, _ := valueAt(t, prod, x, y)
	assert.Equal(t, radar.Undetect, vt)
	assert.Equal(t, composite.DefaultUndetect, prod.DefaultParameter().Raw(x, y))

	xb, yb := cellOf(t, area, lonB+1.2, latB)
	assert.Equal(t, composite.DefaultNodata, prod.DefaultParameter().Raw(xb, yb))
}

func TestGenerate_NodataContributorDoesNotShadow(t *testing.T) {
	area := testArea(t)
	x, y := cellOf(t, area, lonA, latA)

	e := ppiEngine(t, composite.NearestRadar)
	require.NoError(t, e.Add(radar.ScanObject(uniformScan(t, "NOD:sea", lonA, latA, 0.5, 255))))
	require.NoError(t, e.Add(radar.ScanObject(uniformScan(t, "NOD:seb", lonB, latB, 0.5, 20))))
	prod, err := e.Generate(area, nil)
	require.NoError(t, err)
	_, v := valueAt(t, prod, x, y)
	assert.Equal(t, 20.0, v)
}

func TestGenerate_GainOffsetEncoding(t *testing.T) {
	area := testArea(t)
	e := composite.NewEngine()
	require.NoError(t, e.SetProduct(composite.PPI))
	require.NoError(t, e.AddParameter("DBZH", 0.4, -30))
	require.NoError(t, e.Add(radar.ScanObject(uniformScan(t, "NOD:sea", lonA, latA, 0.5, 10))))
	prod, err := e.Generate(area, nil)
	require.NoError(t, err)

	x, y := cellOf(t, area, lonA, latA)
	assert.InDelta(t, 100, prod.DefaultParameter().Raw(x, y), 1e-9)
}

func TestGenerate_CAPPIAndPCAPPI(t *testing.T) {
	area := testArea(t)
	x, y := cellOf(t, area, lonA, latA)
	farX, farY := cellOf(t, area, lonA+1.2, latA)

	run := func(p composite.Product) *cartesian.Product {
		e := composite.NewEngine()
		require.NoError(t, e.SetProduct(p))
		require.NoError(t, e.SetHeight(1000))
		require.NoError(t, e.AddParameter("DBZH", 1, 0))
		require.NoError(t, e.Add(radar.ScanObject(uniformScan(t, "NOD:sea", lonA, latA, 0.5, 10))))
		prod, err := e.Generate(area, nil)
		require.NoError(t, err)
		return prod
	}

	cappi := run(composite.CAPPI)
	vt, _ := valueAt(t, cappi, x, y)
	assert.Equal(t, radar.Nodata, vt, "1000 m is far above the beam next to the site")
	vt, v := valueAt(t, cappi, farX, farY)
	assert.Equal(t, radar.Data, vt, "the beam reaches 1000 m further out")
	assert.Equal(t, 10.0, v)

	pcappi := run(composite.PCAPPI)
	_, v = valueAt(t, pcappi, x, y)
	assert.Equal(t, 10.0, v)
}

func TestGenerate_MAXUsesColumnMaximum(t *testing.T) {
	area := testArea(t)
	v := &radar.Volume{Source: "NOD:sea", Date: "20240501", Time: "121500", Lon: lonA, Lat: latA}
	require.NoError(t, v.AddScan(uniformScan(t, "NOD:sea", lonA, latA, 0.5, 10)))
	require.NoError(t, v.AddScan(uniformScan(t, "NOD:sea", lonA, latA, 1.5, 30)))
	require.NoError(t, v.AddScan(uniformScan(t, "NOD:sea", lonA, latA, 2.5, 20)))

	for _, p := range []composite.Product{composite.MAX, composite.PMAX} {
		e := composite.NewEngine()
		require.NoError(t, e.SetProduct(p))
		require.NoError(t, e.AddParameter("DBZH", 1, 0))
		require.NoError(t, e.Add(radar.VolumeObject(v)))
		prod, err := e.Generate(area, nil)
		require.NoError(t, err)

		x, y := cellOf(t, area, lonA+0.3, latA)
		_, got := valueAt(t, prod, x, y)
		assert.Equal(t, 30.0, got, p.String())
		assert.Equal(t, "121500", prod.Time)
	}
}

func TestGenerate_PPIPicksNearestElevation(t *testing.T) {
	area := testArea(t)
	v := &radar.Volume{Source: "NOD:sea", Date: "20240501", Time: "120000", Lon: lonA, Lat: latA}
	require.NoError(t, v.AddScan(uniformScan(t, "NOD:sea", lonA, latA, 0.5, 10)))
	require.NoError(t, v.AddScan(uniformScan(t, "NOD:sea", lonA, latA, 4.0, 40)))

	e := ppiEngine(t, composite.NearestRadar)
	require.NoError(t, e.SetElevationAngle(3.5*deg))
	require.NoError(t, e.Add(radar.VolumeObject(v)))
	prod, err := e.Generate(area, nil)
	require.NoError(t, err)

	x, y := cellOf(t, area, lonA+0.2, latA)
	_, got := valueAt(t, prod, x, y)
	assert.Equal(t, 40.0, got)
}

func TestGenerate_QualityFields(t *testing.T) {
	area := testArea(t)
	a := uniformScan(t, "NOD:sea", lonA, latA, 0.5, 10)
	withQuality(t, a, "se.smhi.test.q1", 0.5)
	withQuality(t, a, "se.smhi.test.q2", 0.8)

	e := ppiEngine(t, composite.NearestRadar)
	require.NoError(t, e.SetQITotal("pl.imgw.quality.qi_total", composite.QIMultiplicative))
	require.NoError(t, e.Add(radar.ScanObject(a)))

	prod, err := e.Generate(area, []string{composite.DistanceTask, "se.smhi.test.q1", "se.smhi.test.q2"})
	require.NoError(t, err)

	x, y := cellOf(t, area, lonA+0.5, latA)
	dist := prod.FindQualityField("DBZH", composite.DistanceTask)
	require.NotNil(t, dist)
	assert.Equal(t, composite.DistanceGain, dist.Gain())
	assert.InDelta(t, 31000, dist.Value(x, y), 2000)

	q1 := prod.FindQualityField("DBZH", "se.smhi.test.q1")
	require.NotNil(t, q1)
	assert.InDelta(t, 0.5, q1.Value(x, y), 1e-9)

	qi := prod.FindQualityField("DBZH", "pl.imgw.quality.qi_total")
	require.NotNil(t, qi)
	assert.InDelta(t, 0.4, qi.Value(x, y), 1e-9)
}

func TestGenerate_QITotalMinimum(t *testing.T) {
	area := testArea(t)
	a := uniformScan(t, "NOD:sea", lonA, latA, 0.5, 10)
	withQuality(t, a, "q1", 0.5)
	withQuality(t, a, "q2", 0.8)

	e := ppiEngine(t, composite.NearestRadar)
	require.NoError(t, e.SetQITotal("qi", composite.QIMinimum))
	require.NoError(t, e.Add(radar.ScanObject(a)))
	prod, err := e.Generate(area, []string{"q1", "q2"})
	require.NoError(t, err)

	x, y := cellOf(t, area, lonA, latA)
	assert.InDelta(t, 0.5, prod.FindQualityField("DBZH", "qi").Value(x, y), 1e-9)
}

func TestGenerate_AlgorithmOverridesMethod(t *testing.T) {
	area := testArea(t)
	a := uniformScan(t, "NOD:sea", lonA, latA, 0.5, 10)
	b := uniformScan(t, "NOD:seb", lonB, latB, 0.5, 20)
	withQuality(t, a, "se.smhi.detector.poo", 0.9)
	withQuality(t, b, "se.smhi.detector.poo", 0.1)

	e := ppiEngine(t, composite.NearestRadar)
	require.NoError(t, e.SetAlgorithm(composite.QualityAlgorithm{Task: "se.smhi.detector.poo", Lowest: true}))
	require.NoError(t, e.Add(radar.ScanObject(a)))
	require.NoError(t, e.Add(radar.ScanObject(b)))
	prod, err := e.Generate(area, nil)
	require.NoError(t, err)

	x, y := cellOf(t, area, lonA+0.2, latA)
	_, v := valueAt(t, prod, x, y)
	assert.Equal(t, 20.0, v, "B has the lower overshooting probability")
	assert.Equal(t, "lowest:se.smhi.detector.poo", prod.Attrs["how/algorithm"])
}

func TestGenerate_LinearRangeInterpolation(t *testing.T) {
	area := testArea(t)
	s := uniformScan(t, "NOD:sea", lonA, latA, 0.5, 10)
	p := s.Default()
	for ray := range s.Rays {
		for bin := range s.Bins {
			p.SetRaw(ray, bin, float64(bin+1))
		}
	}

	run := func(i composite.Interpolation) *cartesian.Product {
		e := ppiEngine(t, composite.NearestRadar)
		require.NoError(t, e.SetInterpolation(i))
		require.NoError(t, e.Add(radar.ScanObject(s)))
		prod, err := e.Generate(area, nil)
		require.NoError(t, err)
		return prod
	}
	nearest := run(composite.NearestValue)
	linear := run(composite.LinearRange)

	x, y := cellOf(t, area, lonA+0.4, latA+0.1)
	_, vn := valueAt(t, nearest, x, y)
	_, vl := valueAt(t, linear, x, y)
	assert.Equal(t, math.Trunc(vn), vn, "nearest value is a bin value")
	assert.InDelta(t, vn, vl, 1.0)
}

func TestEngine_StateMachine(t *testing.T) {
	area := testArea(t)
	e := ppiEngine(t, composite.NearestRadar)
	require.NoError(t, e.Add(radar.ScanObject(uniformScan(t, "NOD:sea", lonA, latA, 0.5, 10))))

	assert.True(t, errors.Is(e.SetProduct(composite.CAPPI), composite.ErrInvalidState))
	assert.True(t, errors.Is(e.AddParameter("TH", 1, 0), composite.ErrInvalidState))
	assert.True(t, errors.Is(e.SetDateTime("20240101", "000000"), composite.ErrInvalidState))

	// Adding more objects while populated is fine.
	require.NoError(t, e.Add(radar.ScanObject(uniformScan(t, "NOD:seb", lonB, latB, 0.5, 20))))

	_, err := e.Generate(area, nil)
	require.NoError(t, err)

	_, err = e.Generate(area, nil)
	assert.True(t, errors.Is(err, composite.ErrAlreadyGenerated))
	assert.True(t, errors.Is(e.Add(radar.ScanObject(uniformScan(t, "NOD:sec", lonA, latA, 0.5, 1))), composite.ErrInvalidState))
}

func TestEngine_AddRejectsNonPolar(t *testing.T) {
	e := composite.NewEngine()
	assert.Error(t, e.Add(radar.Object{Kind: radar.KindOther}))
}

func TestEngine_ParameterValidation(t *testing.T) {
	e := composite.NewEngine()
	require.NoError(t, e.AddParameter("DBZH", 1, 0))
	assert.Error(t, e.AddParameter("DBZH", 1, 0))
	assert.Error(t, e.AddParameter("TH", 0, 0))
	assert.Error(t, e.AddParameter("", 1, 0))

	_, err := composite.NewEngine().Generate(testArea(t), nil)
	assert.True(t, errors.Is(err, composite.ErrNoParameters))
}

func TestGenerate_ZeroContributors(t *testing.T) {
	area := testArea(t)

	e := ppiEngine(t, composite.NearestRadar)
	_, err := e.Generate(area, nil)
	assert.True(t, errors.Is(err, composite.ErrNoDateTime))

	e = ppiEngine(t, composite.NearestRadar)
	require.NoError(t, e.SetDateTime("20240501", "130000"))
	prod, err := e.Generate(area, nil)
	require.NoError(t, err)
	assert.Equal(t, "130000", prod.Time)
	for _, v := range prod.DefaultParameter().Data {
		require.Equal(t, composite.DefaultNodata, v)
	}
}

func TestGenerate_CallerDateTimeWins(t *testing.T) {
	e := ppiEngine(t, composite.NearestRadar)
	require.NoError(t, e.SetDateTime("20230101", "000000"))
	require.NoError(t, e.Add(radar.ScanObject(uniformScan(t, "NOD:sea", lonA, latA, 0.5, 10))))
	prod, err := e.Generate(testArea(t), nil)
	require.NoError(t, err)
	assert.Equal(t, "20230101", prod.Date)
	assert.Equal(t, "000000", prod.Time)
}

func TestGenerate_MultipleParameters(t *testing.T) {
	area := testArea(t)
	s := uniformScan(t, "NOD:sea", lonA, latA, 0.5, 10)
	th := radar.NewParam("TH", s.Rays, s.Bins, 1, 0, 255, 0)
	for i := range th.Data {
		th.Data[i] = 12
	}
	require.NoError(t, s.AddParam(th))

	e := ppiEngine(t, composite.NearestRadar)
	require.NoError(t, e.AddParameter("TH", 1, 0))
	require.NoError(t, e.AddParameter("VRADH", 1, 0))
	require.NoError(t, e.Add(radar.ScanObject(s)))
	prod, err := e.Generate(area, nil)
	require.NoError(t, err)

	x, y := cellOf(t, area, lonA, latA)
	_, v := prod.Parameter("TH").Value(x, y)
	assert.Equal(t, 12.0, v)
	vt, _ := prod.Parameter("VRADH").Value(x, y)
	assert.Equal(t, radar.Nodata, vt, "quantity missing from every contributor")
}
