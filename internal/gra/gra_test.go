package gra_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/couchcryptid/radar-composite/internal/cartesian"
	"github.com/couchcryptid/radar-composite/internal/composite"
	"github.com/couchcryptid/radar-composite/internal/gra"
	"github.com/couchcryptid/radar-composite/internal/radar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func distanceField(gain float64, raw ...float64) *cartesian.Field {
	f := cartesian.NewField(composite.DistanceTask, len(raw), 1, gain, 0)
	copy(f.Data, raw)
	return f
}

func param(quantity string, gain, offset float64, raw ...float64) *cartesian.Parameter {
	p := cartesian.NewParameter(quantity, len(raw), 1, gain, offset, 255, 0)
	copy(p.Data, raw)
	return p
}

func converted(p *cartesian.Parameter) []float64 {
	out := make([]float64, len(p.Data))
	for i := range p.Data {
		_, out[i] = p.Value(i, 0)
	}
	return out
}

func TestCorrect_Reflectivity(t *testing.T) {
	c := gra.NewCorrector(gra.Coefficients{A: 1, B: 2, C: 3})
	c.ZR = gra.ZR{A: 100, B: 1.1}

	got, err := c.Correct(distanceField(10000, 0.1, 0.2, 0.3, 0.4), param("DBZH", 10, 2, 1, 2, 3, 4))
	require.NoError(t, err)

	want := []float64{18.60, 40.7, 54.0, 64.0}
	for i, v := range converted(got) {
		assert.InDelta(t, want[i], v, 0.005, "cell %d", i)
	}
	assert.Equal(t, "DBZH_CORR", got.Quantity)
	assert.Equal(t, 10.0, got.Gain)
	assert.Equal(t, 2.0, got.Offset)
	assert.Equal(t, "GRA: A=1.000000, B=2.000000, C=3.000000, low_db=-0.250000, high_db=2.000000",
		got.Attrs[radar.AttrTaskArgs])
}

func TestCorrect_Accumulation(t *testing.T) {
	c := gra.NewCorrector(gra.Coefficients{A: 1, B: 2, C: 3})

	got, err := c.Correct(distanceField(10000, 0.1, 0.2, 0.3, 0.4), param("ACRR", 10, 2, 1, 2, 3, 4))
	require.NoError(t, err)

	want := []float64{47.77, 1102.61, 3200, 4200}
	for i, v := range converted(got) {
		assert.InDelta(t, want[i], v, 0.005, "cell %d", i)
	}
}

func TestCorrect_Climatology(t *testing.T) {
	c := gra.NewCorrector(gra.Climatology)

	got, err := c.Correct(distanceField(2000, 13), param("DBZH", 0.4, -30, 78))
	require.NoError(t, err)
	assert.InDelta(t, 79.23, got.Raw(0, 0), 0.005)
}

func TestCorrect_OnlyData(t *testing.T) {
	c := gra.NewCorrector(gra.Coefficients{A: 5})
	in := param("DBZH", 0.5, -32, 255, 0, 100)

	got, err := c.Correct(distanceField(1000, 10, 10, 10), in)
	require.NoError(t, err)
	assert.Equal(t, 255.0, got.Raw(0, 0))
	assert.Equal(t, 0.0, got.Raw(1, 0))
	assert.Greater(t, got.Raw(2, 0), 100.0)
	assert.Equal(t, []float64{255, 0, 100}, in.Data, "input is not modified")
}

func TestCorrect_SizeMismatch(t *testing.T) {
	_, err := gra.NewCorrector(gra.Climatology).Correct(distanceField(1000, 1, 2), param("DBZH", 1, 0, 1))
	assert.Error(t, err)
}

func TestZR_Validate(t *testing.T) {
	tests := []struct {
		name string
		zr   gra.ZR
		ok   bool
	}{
		{"marshall palmer", gra.DefaultZR, true},
		{"zero a", gra.ZR{A: 0, B: 1.6}, false},
		{"negative b", gra.ZR{A: 200, B: -1}, false},
		{"nan a", gra.ZR{A: math.NaN(), B: 1.6}, false},
		{"infinite b", gra.ZR{A: 200, B: math.Inf(1)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.zr.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, gra.ErrInvalidZR)
		})
	}
}

func TestCorrect_InvalidZR(t *testing.T) {
	c := gra.NewCorrector(gra.Coefficients{A: 1, B: 2, C: 3})
	c.ZR = gra.ZR{A: 0, B: 1.6}

	got, err := c.Correct(distanceField(10000, 0.1, 0.2, 0.3, 0.4), param("DBZH", 10, 2, 1, 2, 3, 4))
	require.Error(t, err)
	assert.True(t, errors.Is(err, gra.ErrInvalidZR))
	assert.Nil(t, got)

	// Accumulations never pass through the Z-R relation.
	got, err = c.Correct(distanceField(10000, 0.1), param("ACRR", 10, 2, 1))
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestFactor_Clamped(t *testing.T) {
	c := gra.NewCorrector(gra.Coefficients{A: -100})
	assert.Equal(t, -0.25, c.Factor(0))
	c = gra.NewCorrector(gra.Coefficients{A: 100})
	assert.Equal(t, 2.0, c.Factor(0))
	c = gra.NewCorrector(gra.Coefficients{A: 1, B: 1})
	assert.InDelta(t, 0.3, c.Factor(2000), 1e-12)
}

func TestApply(t *testing.T) {
	prod := &cartesian.Product{XSize: 2, YSize: 1}
	require.NoError(t, prod.AddParameter(param("DBZH", 1, 0, 10, 20)))

	c := gra.NewCorrector(gra.Climatology)
	_, err := c.Apply(prod, "DBZH")
	assert.True(t, errors.Is(err, gra.ErrNoDistanceField))

	_, err = c.Apply(prod, "TH")
	assert.True(t, errors.Is(err, gra.ErrNoParameter))

	prod.PutQualityField(distanceField(2000, 10, 20))
	got, err := c.Apply(prod, "DBZH")
	require.NoError(t, err)
	assert.Equal(t, "DBZH_CORR", got.Quantity)
	assert.Len(t, prod.Params, 1, "Apply leaves the product alone")
}

type stubStore struct {
	c   gra.Coefficients
	ok  bool
	err error
	at  time.Time
}

func (s *stubStore) Coefficients(_ context.Context, at time.Time) (gra.Coefficients, bool, error) {
	s.at = at
	return s.c, s.ok, s.err
}

func TestResolve(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	fitted := gra.Coefficients{A: 0.5, B: -0.01, C: 0.0001}

	tests := []struct {
		name   string
		store  gra.CoefficientStore
		want   gra.Coefficients
		source string
	}{
		{"no store", nil, gra.Climatology, gra.SourceClimatology},
		{"stored", &stubStore{c: fitted, ok: true}, fitted, gra.SourceStore},
		{"missing", &stubStore{}, gra.Climatology, gra.SourceClimatology},
		{"error", &stubStore{err: errors.New("down")}, gra.Climatology, gra.SourceClimatology},
		{"nan", &stubStore{c: gra.Coefficients{A: math.NaN()}, ok: true}, gra.Climatology, gra.SourceClimatology},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := gra.Resolve(context.Background(), tt.store, at, logger)
			assert.Equal(t, tt.want, got.Coefficients)
			assert.Equal(t, tt.source, got.Source)
		})
	}

	s := &stubStore{}
	gra.Resolve(context.Background(), s, at, logger)
	assert.Equal(t, at, s.at)
}

func TestParseDateTime(t *testing.T) {
	got, err := gra.ParseDateTime("20240501", "121530")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 15, 0, 0, time.UTC), got)

	_, err = gra.ParseDateTime("2024-05-01", "1215")
	assert.Error(t, err)
	_, err = gra.ParseDateTime("20240501", "12")
	assert.Error(t, err)
}

func TestFit_RecoversCoefficients(t *testing.T) {
	want := gra.Coefficients{A: 0.8, B: -0.02, C: 0.0001}
	var samples []gra.Sample
	for d := 10.0; d <= 240; d += 10 {
		db := want.A + want.B*d + want.C*d*d
		samples = append(samples, gra.Sample{Distance: d * 1000, Radar: 2, Gauge: 2 * math.Pow(10, db/10)})
	}
	samples = append(samples, gra.Sample{Distance: 50000, Radar: 0, Gauge: 3})

	got, err := gra.Fit(samples)
	require.NoError(t, err)
	assert.InDelta(t, want.A, got.A, 1e-9)
	assert.InDelta(t, want.B, got.B, 1e-9)
	assert.InDelta(t, want.C, got.C, 1e-9)
}

func TestFit_TooFewSamples(t *testing.T) {
	_, err := gra.Fit([]gra.Sample{{Distance: 1000, Gauge: 1, Radar: 1}, {Distance: 2000, Gauge: 0, Radar: 1}})
	assert.True(t, errors.Is(err, gra.ErrTooFewSamples))
}
