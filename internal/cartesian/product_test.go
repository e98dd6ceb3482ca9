package cartesian

import (
	"testing"

	"github.com/couchcryptid/radar-composite/internal/radar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParameter_Values(t *testing.T) {
	p := NewParameter("DBZH", 2, 2, 0.4, -30, 255, 0)
	assert.Equal(t, 255.0, p.Raw(1, 1))

	p.SetValue(1, 0, 10)
	vt, v := p.Value(1, 0)
	assert.Equal(t, radar.Data, vt)
	assert.InDelta(t, 10, v, 1e-9)
	assert.InDelta(t, 100, p.Raw(1, 0), 1e-9)

	p.SetRaw(0, 1, 0)
	vt, _ = p.Value(0, 1)
	assert.Equal(t, radar.Undetect, vt)
}

func TestProduct_Parameters(t *testing.T) {
	prod := &Product{XSize: 2, YSize: 2}
	require.NoError(t, prod.AddParameter(NewParameter("DBZH", 2, 2, 1, 0, 255, 0)))
	require.NoError(t, prod.AddParameter(NewParameter("TH", 2, 2, 1, 0, 255, 0)))
	assert.Equal(t, "DBZH", prod.Default)
	assert.Equal(t, "TH", prod.Parameter("TH").Quantity)
	assert.Nil(t, prod.Parameter("VRAD"))

	assert.Error(t, prod.AddParameter(NewParameter("X", 3, 2, 1, 0, 255, 0)))
}

func TestProduct_FindQualityField(t *testing.T) {
	prod := &Product{XSize: 2, YSize: 2}
	param := NewParameter("DBZH", 2, 2, 1, 0, 255, 0)
	require.NoError(t, prod.AddParameter(param))

	shared := NewField("se.smhi.composite.distance.radar", 2, 2, 2000, 0)
	prod.PutQualityField(shared)
	own := NewField("pl.imgw.radvolqc.spike", 2, 2, 1, 0)
	param.QualityFields = append(param.QualityFields, own)

	assert.Same(t, shared, prod.FindQualityField("DBZH", "se.smhi.composite.distance.radar"))
	assert.Same(t, own, prod.FindQualityField("DBZH", "pl.imgw.radvolqc.spike"))
	assert.Nil(t, prod.FindQualityField("DBZH", "missing"))

	replacement := NewField("se.smhi.composite.distance.radar", 2, 2, 1, 0)
	prod.PutQualityField(replacement)
	assert.Len(t, prod.QualityFields, 1)
	assert.Equal(t, 2000.0, shared.Gain())
	assert.Equal(t, 1.0, prod.FindQualityField("DBZH", "se.smhi.composite.distance.radar").Gain())
}
